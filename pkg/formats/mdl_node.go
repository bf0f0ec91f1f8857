package formats

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Keyframe is one sample of a controller. Left and Right are bezier handle
// offsets relative to Values and are nil for linear keys.
type Keyframe struct {
	Time   float64 // seconds, relative to the animation start
	Values []float64
	Left   []float64
	Right  []float64
}

// Bezier reports whether the key carries handles.
func (k Keyframe) Bezier() bool {
	return k.Left != nil && k.Right != nil
}

// Track is the keyframe list of one controller.
type Track struct {
	Keys  []Keyframe
	Keyed bool // false for a single inline value
}

// Bezier reports whether any key carries handles.
func (t *Track) Bezier() bool {
	for _, k := range t.Keys {
		if k.Bezier() {
			return true
		}
	}
	return false
}

// Node is one parsed node block.
type Node struct {
	Type        NodeType
	Name        string
	Parent      string            // empty for NULL
	Controllers map[string]*Track // keyed by ControllerKey
	Raw         string            // rows the codec does not interpret, one per line
	Line        int
}

// NewNode returns an empty node.
func NewNode(typ NodeType, name, parent string) *Node {
	return &Node{
		Type:        typ,
		Name:        name,
		Parent:      parent,
		Controllers: make(map[string]*Track),
	}
}

// Track returns the track stored for controller name (any case), or nil.
func (n *Node) Track(name string) *Track {
	return n.Controllers[strings.ToLower(name)]
}

// SetTrack stores t under controller c.
func (n *Node) SetTrack(c Controller, t *Track) {
	n.Controllers[ControllerKey(c)] = t
}

// AppendRaw adds lines of uninterpreted text.
func (n *Node) AppendRaw(lines ...string) {
	for _, line := range lines {
		if n.Raw != "" {
			n.Raw += "\n"
		}
		n.Raw += line
	}
}

// parentName maps the NULL keyword to an empty parent.
func parentName(s string) string {
	if strings.EqualFold(s, "null") {
		return ""
	}
	return s
}

// parseNode parses the node block at p.pos. Malformed headers skip the whole
// block and return an ErrMalformedBlock error so callers can continue.
func (p *parser) parseNode() (*Node, error) {
	head := p.rows[p.pos]
	p.pos++

	if len(head.Fields) < 3 {
		p.skipNode()
		return nil, lineErrorf(head.Line, ErrMalformedBlock, "node header %q needs a type and a name", head.Text())
	}
	typ, ok := ParseNodeType(head.Fields[1])
	if !ok {
		p.skipNode()
		return nil, lineErrorf(head.Line, ErrMalformedBlock, "unknown node type %q", head.Fields[1])
	}

	n := NewNode(typ, head.Fields[2], "")
	n.Line = head.Line

	for p.pos < len(p.rows) {
		row := p.rows[p.pos]
		label := row.Label()

		switch label {
		case "endnode":
			p.pos++
			return n, nil
		case "node", "doneanim", "newanim", "endmodelgeom", "donemodel":
			// Missing endnode; the block ends here.
			return n, nil
		case "parent":
			n.Parent = parentName(row.Arg(1))
			p.pos++
			continue
		}

		if c, form, ok := LookupController(label, typ); ok {
			p.parseController(n, c, form)
			continue
		}
		p.captureRaw(n)
	}

	return n, nil
}

// skipNode advances past the rest of a node block.
func (p *parser) skipNode() {
	for p.pos < len(p.rows) {
		switch p.rows[p.pos].Label() {
		case "endnode":
			p.pos++
			return
		case "node", "doneanim", "newanim", "endmodelgeom", "donemodel":
			return
		}
		p.pos++
	}
}

// captureRaw stores the row at p.pos and its numeric continuation rows
// verbatim in n.Raw.
func (p *parser) captureRaw(n *Node) {
	row := p.rows[p.pos]
	count := ScanKeyBlock(p.rows, p.pos+1)
	if p.strictControllers && !IsNumeric(row.Fields[0]) {
		p.warn(lineErrorf(row.Line, ErrUnrecognizedController, "%q in node %s kept as raw text", row.Fields[0], n.Name))
	}
	for _, r := range p.rows[p.pos : p.pos+1+count] {
		n.AppendRaw(r.Text())
	}
	p.pos += 1 + count
}

// parseController reads the controller row at p.pos and its key rows.
func (p *parser) parseController(n *Node, c Controller, form KeyForm) {
	row := p.rows[p.pos]
	inline := row.Fields[1:]
	count := ScanKeyBlock(p.rows, p.pos+1)

	track := &Track{Keyed: form != Unkeyed}

	if form == Unkeyed && len(inline) > 0 {
		p.pos++
		values, err := convertFields(inline, c.Arity, c.Conv)
		if err != nil {
			p.warn(lineErrorf(row.Line, ErrMalformedBlock, "%s: %v", c.Name, err))
			n.SetTrack(c, track)
			return
		}
		track.Keys = append(track.Keys, Keyframe{Values: values})
		n.SetTrack(c, track)
		return
	}

	if form == Unkeyed && count > 0 {
		// A bare name followed by rows behaves like <name>key.
		form = Keyed
		track.Keyed = true
	}

	for _, r := range p.rows[p.pos+1 : p.pos+1+count] {
		key, err := parseKeyRow(r, c, form)
		if err != nil {
			p.warn(lineErrorf(r.Line, ErrMalformedBlock, "%s%s: %v", c.Name, form.Suffix(), err))
			continue
		}
		track.Keys = append(track.Keys, key)
	}
	p.pos += 1 + count
	n.SetTrack(c, track)
}

// parseKeyRow converts one key row. Bezier rows without handle fields are
// read as linear keys.
func parseKeyRow(r Row, c Controller, form KeyForm) (Keyframe, error) {
	if len(r.Fields) < Keyed.RowWidth(c) {
		return Keyframe{}, errRowWidth(len(r.Fields), Keyed.RowWidth(c))
	}
	t, err := parseFloat(r.Fields[0])
	if err != nil {
		return Keyframe{}, err
	}
	key := Keyframe{Time: t}
	if key.Values, err = convertFields(r.Fields[1:], c.Arity, c.Conv); err != nil {
		return Keyframe{}, err
	}
	if form != BezierKeyed || len(r.Fields) < BezierKeyed.RowWidth(c) {
		return key, nil
	}
	handles := r.Fields[1+c.Arity:]
	if key.Left, err = convertFields(handles[:c.Arity], c.Arity, c.Conv); err != nil {
		return Keyframe{}, err
	}
	if key.Right, err = convertFields(handles[c.Arity:], c.Arity, c.Conv); err != nil {
		return Keyframe{}, err
	}
	return key, nil
}

func errRowWidth(got, want int) error {
	return fmt.Errorf("row has %d fields, want %d", got, want)
}

// convertFields parses the first n fields with the controller's conversion.
func convertFields(fields []string, n int, conv Conversion) ([]float64, error) {
	if len(fields) < n {
		return nil, errRowWidth(len(fields), n)
	}
	values, err := parseFloats(fields[:n])
	if err != nil {
		return nil, err
	}
	if conv == ConvInt {
		for i, v := range values {
			values[i] = math.Trunc(v)
		}
	}
	return values, nil
}

// writeNode writes n as a node block at the given indent depth. Output order
// is canonical rather than source order: parent, then controllers in table
// order, then raw text.
func writeNode(w *textWriter, n *Node, depth int) {
	parent := n.Parent
	if parent == "" {
		parent = "NULL"
	}
	w.line(depth, "node", n.Type.String(), n.Name)
	w.line(depth+1, "parent", parent)

	for _, c := range ControllersFor(n.Type) {
		track := n.Controllers[ControllerKey(c)]
		if track == nil || len(track.Keys) == 0 {
			continue
		}
		writeTrack(w, c, track, depth+1)
	}

	if n.Raw != "" {
		for _, line := range strings.Split(n.Raw, "\n") {
			w.line(depth+1, line)
		}
	}
	w.line(depth, "endnode")
}

// writeTrack writes one controller. Single inline values stay unkeyed;
// everything else becomes a key list, bezier when any key has handles.
func writeTrack(w *textWriter, c Controller, t *Track, depth int) {
	if !t.Keyed && len(t.Keys) == 1 {
		w.line(depth, append([]string{c.Name}, formatValues(t.Keys[0].Values, c)...)...)
		return
	}

	form := Keyed
	if t.Bezier() {
		form = BezierKeyed
	}
	w.line(depth, c.Name+form.Suffix(), strconv.Itoa(len(t.Keys)))
	for _, k := range t.Keys {
		fields := make([]string, 0, form.RowWidth(c))
		fields = append(fields, formatFloat(k.Time))
		fields = append(fields, formatValues(k.Values, c)...)
		if form == BezierKeyed {
			fields = append(fields, formatValues(handleOrZero(k.Left, c.Arity), c)...)
			fields = append(fields, formatValues(handleOrZero(k.Right, c.Arity), c)...)
		}
		w.line(depth+1, fields...)
	}
}

func handleOrZero(h []float64, n int) []float64 {
	if h == nil {
		return make([]float64, n)
	}
	return h
}

// formatValues formats exactly c.Arity values, padding with zeros.
func formatValues(values []float64, c Controller) []string {
	out := make([]string, c.Arity)
	for i := range out {
		v := 0.0
		if i < len(values) {
			v = values[i]
		}
		if c.Conv == ConvInt {
			out[i] = strconv.FormatInt(int64(math.Round(v)), 10)
		} else {
			out[i] = formatFloat(v)
		}
	}
	return out
}
