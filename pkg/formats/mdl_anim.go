package formats

import "strings"

// Event is a named marker inside an animation.
type Event struct {
	Time float64 // seconds from the animation start
	Name string
}

// Animation is one parsed newanim block.
type Animation struct {
	Name      string
	Model     string
	Length    float64 // seconds
	TransTime float64 // seconds
	Root      string  // animation root node, empty for UNDEFINED
	Events    []Event
	Nodes     []*Node // file order
	Line      int
}

// Node returns the node named name (any case), or nil.
func (a *Animation) Node(name string) *Node {
	for _, n := range a.Nodes {
		if strings.EqualFold(n.Name, name) {
			return n
		}
	}
	return nil
}

// parseState tracks where a single forward pass is inside a block.
type parseState int

const (
	stateHeader parseState = iota
	stateNodeList
	stateDone
)

// parseAnimation parses the newanim block at p.pos. It stops after doneanim,
// before the next newanim or donemodel, or at the end of input.
func (p *parser) parseAnimation() (*Animation, error) {
	head := p.rows[p.pos]
	p.pos++

	a := &Animation{Name: head.Arg(1), Model: head.Arg(2), Line: head.Line}
	state := stateHeader

	for state != stateDone && p.pos < len(p.rows) {
		row := p.rows[p.pos]

		switch row.Label() {
		case "doneanim":
			p.pos++
			state = stateDone
		case "newanim", "donemodel":
			state = stateDone
		case "node":
			state = stateNodeList
			n, err := p.parseNode()
			if err != nil {
				p.warn(err)
				continue
			}
			a.Nodes = append(a.Nodes, n)
		case "endnode":
			return nil, lineErrorf(row.Line, ErrMalformedBlock, "endnode without an open node in animation %s", a.Name)
		case "length":
			a.Length = p.headerFloat(row)
			p.pos++
		case "transtime":
			a.TransTime = p.headerFloat(row)
			p.pos++
		case "animroot":
			a.Root = rootName(row.Arg(1))
			p.pos++
		case "event":
			if ev, ok := p.parseEvent(row, row.Fields[1:]); ok {
				a.Events = append(a.Events, ev)
			}
			p.pos++
		case "eventlist":
			count := ScanKeyBlock(p.rows, p.pos+1)
			for _, r := range p.rows[p.pos+1 : p.pos+1+count] {
				if ev, ok := p.parseEvent(r, r.Fields); ok {
					a.Events = append(a.Events, ev)
				}
			}
			p.pos += 1 + count
		default:
			count := ScanKeyBlock(p.rows, p.pos+1)
			p.warn(lineErrorf(row.Line, ErrUnrecognizedController, "%q in animation %s header ignored", row.Fields[0], a.Name))
			p.pos += 1 + count
		}
	}

	return a, nil
}

// parseEvent reads "time name" from fields.
func (p *parser) parseEvent(row Row, fields []string) (Event, bool) {
	if len(fields) < 2 {
		p.warn(lineErrorf(row.Line, ErrMalformedBlock, "event needs a time and a name"))
		return Event{}, false
	}
	t, err := parseFloat(fields[0])
	if err != nil {
		p.warn(lineErrorf(row.Line, ErrMalformedBlock, "event time %q: %v", fields[0], err))
		return Event{}, false
	}
	return Event{Time: t, Name: fields[1]}, true
}

// headerFloat reads the single numeric argument of a header row.
func (p *parser) headerFloat(row Row) float64 {
	v, err := parseFloat(row.Arg(1))
	if err != nil {
		p.warn(lineErrorf(row.Line, ErrMalformedBlock, "%s value %q: %v", row.Label(), row.Arg(1), err))
		return 0
	}
	return v
}

// rootName maps UNDEFINED and NULL to an empty name.
func rootName(s string) string {
	if strings.EqualFold(s, "undefined") {
		return ""
	}
	return parentName(s)
}

// writeAnimation writes a newanim block.
func writeAnimation(w *textWriter, a *Animation) {
	root := a.Root
	if root == "" {
		root = "UNDEFINED"
	}
	w.line(0, "newanim", a.Name, a.Model)
	w.line(1, "length", formatFloat(a.Length))
	w.line(1, "transtime", formatFloat(a.TransTime))
	w.line(1, "animroot", root)
	for _, ev := range a.Events {
		w.line(1, "event", formatFloat(ev.Time), ev.Name)
	}
	for _, n := range a.Nodes {
		writeNode(w, n, 1)
	}
	w.line(0, "doneanim", a.Name, a.Model)
}
