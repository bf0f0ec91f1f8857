package formats

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/Faultbox/midgard-mdl/pkg/encoding"
)

// Model is a parsed ASCII model file.
type Model struct {
	Name           string
	Supermodel     string // empty for NULL
	Classification string
	AnimationScale float64
	FileDependency string
	Geometry       []*Node // beginmodelgeom block, file order
	Animations     []*Animation
}

// NewModel returns an empty model with default header values.
func NewModel(name string) *Model {
	return &Model{Name: name, AnimationScale: 1}
}

// Animation returns the animation named name (any case), or nil.
func (m *Model) Animation(name string) *Animation {
	for _, a := range m.Animations {
		if strings.EqualFold(a.Name, name) {
			return a
		}
	}
	return nil
}

// GeometryNode returns the geometry node named name (any case), or nil.
func (m *Model) GeometryNode(name string) *Node {
	for _, n := range m.Geometry {
		if strings.EqualFold(n.Name, name) {
			return n
		}
	}
	return nil
}

// parser walks a row list once, front to back.
type parser struct {
	rows     []Row
	pos      int
	warnings Diagnostics

	// strictControllers reports unrecognized node rows. Geometry nodes
	// carry mesh data as raw text, so only animation nodes are strict.
	strictControllers bool
}

func (p *parser) warn(err error) {
	p.warnings = p.warnings.Append(err)
}

// seek advances to the first row labelled label.
func (p *parser) seek(label string) bool {
	for ; p.pos < len(p.rows); p.pos++ {
		if p.rows[p.pos].Label() == label {
			return true
		}
	}
	return false
}

// parseModel parses a full model file starting at the newmodel row.
func (p *parser) parseModel() (*Model, error) {
	head := p.rows[p.pos]
	p.pos++
	m := NewModel(head.Arg(1))

	for p.pos < len(p.rows) {
		row := p.rows[p.pos]

		switch row.Label() {
		case "donemodel":
			p.pos++
			return m, nil
		case "setsupermodel":
			m.Supermodel = parentName(row.Arg(2))
			p.pos++
		case "classification":
			m.Classification = row.Arg(1)
			p.pos++
		case "setanimationscale":
			m.AnimationScale = p.headerFloat(row)
			p.pos++
		case "filedependancy", "filedependency":
			m.FileDependency = row.Arg(1)
			p.pos++
		case "beginmodelgeom", "endmodelgeom":
			p.pos++
		case "node":
			p.strictControllers = false
			n, err := p.parseNode()
			if err != nil {
				p.warn(err)
				continue
			}
			m.Geometry = append(m.Geometry, n)
		case "newanim":
			p.strictControllers = true
			a, err := p.parseAnimation()
			if err != nil {
				return nil, err
			}
			m.Animations = append(m.Animations, a)
		case "doneanim":
			p.warn(lineErrorf(row.Line, ErrMalformedBlock, "doneanim without newanim"))
			p.pos++
		case "endnode":
			return nil, lineErrorf(row.Line, ErrMalformedBlock, "endnode without an open node")
		default:
			count := ScanKeyBlock(p.rows, p.pos+1)
			p.warn(lineErrorf(row.Line, ErrUnrecognizedController, "%q in model header ignored", row.Fields[0]))
			p.pos += 1 + count
		}
	}

	return m, nil
}

// Decoder parses model text, collecting non-fatal diagnostics in Warnings.
type Decoder struct {
	Warnings Diagnostics
}

func (d *Decoder) newParser(text string) (*parser, error) {
	rows, err := Tokenize(text)
	if err != nil {
		return nil, err
	}
	return &parser{rows: rows}, nil
}

func (d *Decoder) collect(p *parser) {
	d.Warnings = append(d.Warnings, p.warnings...)
}

// DecodeModel parses a complete model file.
func (d *Decoder) DecodeModel(text string) (*Model, error) {
	p, err := d.newParser(text)
	if err != nil {
		return nil, err
	}
	defer d.collect(p)

	if !p.seek("newmodel") {
		return nil, ErrNoModel
	}
	return p.parseModel()
}

// DecodeAnimation parses the first newanim block in text.
func (d *Decoder) DecodeAnimation(text string) (*Animation, error) {
	p, err := d.newParser(text)
	if err != nil {
		return nil, err
	}
	defer d.collect(p)

	if !p.seek("newanim") {
		return nil, ErrNoAnimation
	}
	p.strictControllers = true
	return p.parseAnimation()
}

// DecodeNode parses the first node block in text.
func (d *Decoder) DecodeNode(text string) (*Node, error) {
	p, err := d.newParser(text)
	if err != nil {
		return nil, err
	}
	defer d.collect(p)

	if !p.seek("node") {
		return nil, ErrNoNode
	}
	return p.parseNode()
}

// DecodeWalkmesh parses an ASCII walkmesh: a sequence of node blocks with
// optional header rows, which are ignored.
func (d *Decoder) DecodeWalkmesh(text string) ([]*Node, error) {
	p, err := d.newParser(text)
	if err != nil {
		return nil, err
	}
	defer d.collect(p)

	var nodes []*Node
	for p.seek("node") {
		n, err := p.parseNode()
		if err != nil {
			p.warn(err)
			continue
		}
		nodes = append(nodes, n)
	}
	return nodes, nil
}

// ParseModel parses model file bytes, discarding diagnostics.
func ParseModel(data []byte) (*Model, error) {
	var d Decoder
	return d.DecodeModel(encoding.DecodeText(data))
}

// ParseAnimation parses the first animation in text, discarding diagnostics.
func ParseAnimation(text string) (*Animation, error) {
	var d Decoder
	return d.DecodeAnimation(text)
}

// ParseNode parses the first node block in text, discarding diagnostics.
func ParseNode(text string) (*Node, error) {
	var d Decoder
	return d.DecodeNode(text)
}

// ReadModelFile reads and parses a model file from disk.
func ReadModelFile(path string, d *Decoder) (*Model, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading model file: %w", err)
	}
	return d.DecodeModel(encoding.DecodeText(data))
}

// ReadWalkmeshFile reads and parses an ASCII walkmesh file from disk.
func ReadWalkmeshFile(path string, d *Decoder) ([]*Node, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrIOFailure, err)
	}
	return d.DecodeWalkmesh(encoding.DecodeText(data))
}

// textWriter writes indented rows and keeps the first error.
type textWriter struct {
	w   *bufio.Writer
	err error
}

func newTextWriter(w io.Writer) *textWriter {
	return &textWriter{w: bufio.NewWriter(w)}
}

func (t *textWriter) line(depth int, fields ...string) {
	if t.err != nil {
		return
	}
	_, t.err = t.w.WriteString(strings.Repeat("  ", depth) + strings.Join(fields, " ") + "\n")
}

func (t *textWriter) flush() error {
	if t.err != nil {
		return t.err
	}
	return t.w.Flush()
}

// EncodeModel writes m as an ASCII model file.
func EncodeModel(w io.Writer, m *Model) error {
	tw := newTextWriter(w)
	super := m.Supermodel
	if super == "" {
		super = "NULL"
	}

	tw.line(0, "newmodel", m.Name)
	if m.FileDependency != "" {
		tw.line(0, "filedependancy", m.FileDependency)
	}
	tw.line(0, "setsupermodel", m.Name, super)
	if m.Classification != "" {
		tw.line(0, "classification", m.Classification)
	}
	tw.line(0, "setanimationscale", formatFloat(m.AnimationScale))
	tw.line(0, "beginmodelgeom", m.Name)
	for _, n := range m.Geometry {
		writeNode(tw, n, 0)
	}
	tw.line(0, "endmodelgeom", m.Name)
	for _, a := range m.Animations {
		writeAnimation(tw, a)
	}
	tw.line(0, "donemodel", m.Name)

	return tw.flush()
}

// EncodeAnimation writes a single newanim block.
func EncodeAnimation(w io.Writer, a *Animation) error {
	tw := newTextWriter(w)
	writeAnimation(tw, a)
	return tw.flush()
}

// EncodeNode writes a single node block.
func EncodeNode(w io.Writer, n *Node) error {
	tw := newTextWriter(w)
	writeNode(tw, n, 0)
	return tw.flush()
}

// EncodeWalkmesh writes nodes as an ASCII walkmesh.
func EncodeWalkmesh(w io.Writer, nodes []*Node) error {
	tw := newTextWriter(w)
	for _, n := range nodes {
		writeNode(tw, n, 0)
	}
	return tw.flush()
}
