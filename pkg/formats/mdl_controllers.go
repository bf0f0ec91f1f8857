package formats

import (
	"fmt"
	"strings"
)

// NodeType is the kind of a model node.
type NodeType int

const (
	NodeDummy NodeType = iota
	NodeTrimesh
	NodeDanglymesh
	NodeSkin
	NodeEmitter
	NodeLight
	NodeAABB
	NodePatch
	NodeReference
)

var nodeTypeNames = [...]string{
	NodeDummy:      "dummy",
	NodeTrimesh:    "trimesh",
	NodeDanglymesh: "danglymesh",
	NodeSkin:       "skin",
	NodeEmitter:    "emitter",
	NodeLight:      "light",
	NodeAABB:       "aabb",
	NodePatch:      "patch",
	NodeReference:  "reference",
}

// String returns the keyword used in model files.
func (t NodeType) String() string {
	if t >= 0 && int(t) < len(nodeTypeNames) {
		return nodeTypeNames[t]
	}
	return fmt.Sprintf("Unknown(%d)", int(t))
}

// ParseNodeType maps a node keyword (any case) to a NodeType.
func ParseNodeType(s string) (NodeType, bool) {
	s = strings.ToLower(s)
	for i, name := range nodeTypeNames {
		if name == s {
			return NodeType(i), true
		}
	}
	return NodeDummy, false
}

// Target is the host data block a controller animates.
type Target int

const (
	TargetObject Target = iota
	TargetMaterial
	TargetLight
	TargetEmitter
)

// String returns a human-readable target name.
func (t Target) String() string {
	switch t {
	case TargetObject:
		return "object"
	case TargetMaterial:
		return "material"
	case TargetLight:
		return "light"
	case TargetEmitter:
		return "emitter"
	default:
		return fmt.Sprintf("Unknown(%d)", int(t))
	}
}

// Conversion is the value type of a controller's fields.
type Conversion int

const (
	ConvFloat Conversion = iota
	ConvInt
)

// Controller describes one animatable node property.
type Controller struct {
	Name   string     // spelling written to files
	Arity  int        // values per key row
	Axes   int        // animation curve channels
	Target Target     // host data block
	Path   string     // property path on the target
	Conv   Conversion // per-field value conversion
}

// KeyForm is the way a controller's values are supplied.
type KeyForm int

const (
	Unkeyed     KeyForm = iota // inline value, one implicit time-zero key
	Keyed                      // <name>key followed by linear key rows
	BezierKeyed                // <name>bezierkey followed by rows with handle deltas
)

// Suffix returns the label suffix for the form.
func (f KeyForm) Suffix() string {
	switch f {
	case Keyed:
		return "key"
	case BezierKeyed:
		return "bezierkey"
	default:
		return ""
	}
}

// RowWidth returns the number of fields a key row carries for c in form f.
func (f KeyForm) RowWidth(c Controller) int {
	if f == BezierKeyed {
		return 1 + 3*c.Arity
	}
	return 1 + c.Arity
}

// nodeControllers apply to every node type.
var nodeControllers = [...]Controller{
	{Name: "position", Arity: 3, Axes: 3, Target: TargetObject, Path: "location"},
	{Name: "orientation", Arity: 4, Axes: 4, Target: TargetObject, Path: "rotation_quaternion"},
	{Name: "scale", Arity: 1, Axes: 3, Target: TargetObject, Path: "scale"},
	{Name: "selfillumcolor", Arity: 3, Axes: 3, Target: TargetMaterial, Path: "selfillum_color"},
	{Name: "alpha", Arity: 1, Axes: 1, Target: TargetMaterial, Path: "alpha"},
	{Name: "color", Arity: 3, Axes: 3, Target: TargetLight, Path: "color"},
	{Name: "radius", Arity: 1, Axes: 1, Target: TargetLight, Path: "distance"},
	{Name: "multiplier", Arity: 1, Axes: 1, Target: TargetLight, Path: "energy"},
	{Name: "shadowradius", Arity: 1, Axes: 1, Target: TargetLight, Path: "shadow_radius"},
	{Name: "verticaldisplacement", Arity: 1, Axes: 1, Target: TargetLight, Path: "vertical_displacement"},
}

// emitterControllers apply to emitter nodes only.
var emitterControllers = [...]Controller{
	{Name: "alphaStart", Arity: 1, Axes: 1, Target: TargetEmitter, Path: "alpha_start"},
	{Name: "alphaMid", Arity: 1, Axes: 1, Target: TargetEmitter, Path: "alpha_mid"},
	{Name: "alphaEnd", Arity: 1, Axes: 1, Target: TargetEmitter, Path: "alpha_end"},
	{Name: "birthrate", Arity: 1, Axes: 1, Target: TargetEmitter, Path: "birthrate"},
	{Name: "bounce_co", Arity: 1, Axes: 1, Target: TargetEmitter, Path: "bounce_co"},
	{Name: "combinetime", Arity: 1, Axes: 1, Target: TargetEmitter, Path: "combinetime"},
	{Name: "drag", Arity: 1, Axes: 1, Target: TargetEmitter, Path: "drag"},
	{Name: "fps", Arity: 1, Axes: 1, Target: TargetEmitter, Path: "fps", Conv: ConvInt},
	{Name: "frameStart", Arity: 1, Axes: 1, Target: TargetEmitter, Path: "frame_start", Conv: ConvInt},
	{Name: "frameEnd", Arity: 1, Axes: 1, Target: TargetEmitter, Path: "frame_end", Conv: ConvInt},
	{Name: "grav", Arity: 1, Axes: 1, Target: TargetEmitter, Path: "grav"},
	{Name: "lifeExp", Arity: 1, Axes: 1, Target: TargetEmitter, Path: "life_exp"},
	{Name: "mass", Arity: 1, Axes: 1, Target: TargetEmitter, Path: "mass"},
	{Name: "p2p_bezier2", Arity: 1, Axes: 1, Target: TargetEmitter, Path: "p2p_bezier2"},
	{Name: "p2p_bezier3", Arity: 1, Axes: 1, Target: TargetEmitter, Path: "p2p_bezier3"},
	{Name: "particleRot", Arity: 1, Axes: 1, Target: TargetEmitter, Path: "particle_rot"},
	{Name: "randvel", Arity: 1, Axes: 1, Target: TargetEmitter, Path: "randvel"},
	{Name: "sizeStart", Arity: 1, Axes: 1, Target: TargetEmitter, Path: "size_start"},
	{Name: "sizeMid", Arity: 1, Axes: 1, Target: TargetEmitter, Path: "size_mid"},
	{Name: "sizeEnd", Arity: 1, Axes: 1, Target: TargetEmitter, Path: "size_end"},
	{Name: "sizeStart_y", Arity: 1, Axes: 1, Target: TargetEmitter, Path: "size_start_y"},
	{Name: "sizeMid_y", Arity: 1, Axes: 1, Target: TargetEmitter, Path: "size_mid_y"},
	{Name: "sizeEnd_y", Arity: 1, Axes: 1, Target: TargetEmitter, Path: "size_end_y"},
	{Name: "spread", Arity: 1, Axes: 1, Target: TargetEmitter, Path: "spread"},
	{Name: "threshold", Arity: 1, Axes: 1, Target: TargetEmitter, Path: "threshold"},
	{Name: "velocity", Arity: 1, Axes: 1, Target: TargetEmitter, Path: "velocity"},
	{Name: "xsize", Arity: 1, Axes: 1, Target: TargetEmitter, Path: "xsize"},
	{Name: "ysize", Arity: 1, Axes: 1, Target: TargetEmitter, Path: "ysize"},
	{Name: "blurlength", Arity: 1, Axes: 1, Target: TargetEmitter, Path: "blurlength"},
	{Name: "lightningDelay", Arity: 1, Axes: 1, Target: TargetEmitter, Path: "lightning_delay"},
	{Name: "lightningRadius", Arity: 1, Axes: 1, Target: TargetEmitter, Path: "lightning_radius"},
	{Name: "lightningScale", Arity: 1, Axes: 1, Target: TargetEmitter, Path: "lightning_scale"},
	{Name: "lightningSubDiv", Arity: 1, Axes: 1, Target: TargetEmitter, Path: "lightning_subdiv", Conv: ConvInt},
	{Name: "lightningzigzag", Arity: 1, Axes: 1, Target: TargetEmitter, Path: "lightning_zigzag", Conv: ConvInt},
	{Name: "detonate", Arity: 1, Axes: 1, Target: TargetEmitter, Path: "detonate", Conv: ConvInt},
	{Name: "percentStart", Arity: 1, Axes: 1, Target: TargetEmitter, Path: "percent_start"},
	{Name: "percentMid", Arity: 1, Axes: 1, Target: TargetEmitter, Path: "percent_mid"},
	{Name: "percentEnd", Arity: 1, Axes: 1, Target: TargetEmitter, Path: "percent_end"},
	{Name: "colorStart", Arity: 3, Axes: 3, Target: TargetEmitter, Path: "color_start"},
	{Name: "colorMid", Arity: 3, Axes: 3, Target: TargetEmitter, Path: "color_mid"},
	{Name: "colorEnd", Arity: 3, Axes: 3, Target: TargetEmitter, Path: "color_end"},
	{Name: "targetsize", Arity: 1, Axes: 1, Target: TargetEmitter, Path: "targetsize", Conv: ConvInt},
	{Name: "numcontrolpts", Arity: 1, Axes: 1, Target: TargetEmitter, Path: "numcontrolpts", Conv: ConvInt},
	{Name: "controlptradius", Arity: 1, Axes: 1, Target: TargetEmitter, Path: "controlptradius"},
	{Name: "controlptdelay", Arity: 1, Axes: 1, Target: TargetEmitter, Path: "controlptdelay", Conv: ConvInt},
	{Name: "tangentspread", Arity: 1, Axes: 1, Target: TargetEmitter, Path: "tangentspread", Conv: ConvInt},
	{Name: "tangentlength", Arity: 1, Axes: 1, Target: TargetEmitter, Path: "tangentlength"},
}

type controllerEntry struct {
	ctrl    Controller
	emitter bool
}

// controllerIndex maps lower-cased controller names to their descriptor.
var controllerIndex = buildControllerIndex()

func buildControllerIndex() map[string]controllerEntry {
	index := make(map[string]controllerEntry, len(nodeControllers)+len(emitterControllers))
	add := func(c Controller, emitter bool) {
		key := strings.ToLower(c.Name)
		if _, dup := index[key]; dup {
			panic("formats: duplicate controller " + c.Name)
		}
		if c.Arity > c.Axes {
			panic("formats: controller " + c.Name + " has more values than axes")
		}
		index[key] = controllerEntry{ctrl: c, emitter: emitter}
	}
	for _, c := range nodeControllers {
		add(c, false)
	}
	for _, c := range emitterControllers {
		add(c, true)
	}
	return index
}

// splitLabel strips a key suffix from a lower-cased label.
func splitLabel(label string) (string, KeyForm) {
	if stem, ok := strings.CutSuffix(label, "bezierkey"); ok && stem != "" {
		return stem, BezierKeyed
	}
	if stem, ok := strings.CutSuffix(label, "key"); ok && stem != "" {
		return stem, Keyed
	}
	return label, Unkeyed
}

// LookupController resolves a row label for a node of type typ. The key
// suffix is stripped and the stem matched exactly, so names that prefix
// one another (sizeStart, sizeStart_y) never collide. Emitter controllers
// only resolve for emitter nodes.
func LookupController(label string, typ NodeType) (Controller, KeyForm, bool) {
	label = strings.ToLower(label)
	if e, ok := controllerIndex[label]; ok && (!e.emitter || typ == NodeEmitter) {
		return e.ctrl, Unkeyed, true
	}
	stem, form := splitLabel(label)
	e, ok := controllerIndex[stem]
	if !ok || (e.emitter && typ != NodeEmitter) {
		return Controller{}, Unkeyed, false
	}
	return e.ctrl, form, true
}

// ControllersFor returns the controllers that apply to typ in table order.
func ControllersFor(typ NodeType) []Controller {
	out := append([]Controller(nil), nodeControllers[:]...)
	if typ == NodeEmitter {
		out = append(out, emitterControllers[:]...)
	}
	return out
}

// ControllerKey returns the map key used for c in Node.Controllers.
func ControllerKey(c Controller) string {
	return strings.ToLower(c.Name)
}
