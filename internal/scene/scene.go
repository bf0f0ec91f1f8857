// Package scene holds an in-memory scene graph that imported models are
// materialized into and exported models are read from.
//
// Objects live in an arena and refer to each other by ObjectID. The scene is
// not safe for concurrent use; one import or export owns it at a time.
package scene

import (
	"sort"
	"strings"

	"github.com/Faultbox/midgard-mdl/pkg/formats"
	"github.com/Faultbox/midgard-mdl/pkg/math"
)

// ObjectID addresses an object in a Scene. The zero value means no object.
type ObjectID int

// NoObject is the null ObjectID.
const NoObject ObjectID = 0

// ModelInfo carries model file header values on a model's root object.
type ModelInfo struct {
	Name           string
	Supermodel     string
	Classification string
	AnimationScale float64
	FileDependency string
}

// Object is one node of the scene graph.
type Object struct {
	ID          ObjectID
	Name        string
	Type        formats.NodeType
	Parent      ObjectID
	Children    []ObjectID
	ImportOrder int

	// Static transform.
	Location [3]float64
	Rotation math.Quat
	Scale    float64

	// Properties holds static non-transform controller values keyed by
	// controller name.
	Properties map[string][]float64

	GeometryText BlobRef            // raw mesh rows
	AnimText     map[string]BlobRef // raw animation rows per animation name
	Curves       map[CurveKey]*Curve

	Walkmesh bool
	Model    *ModelInfo // set on model roots only
}

// Animation is an animation laid out on the scene's global frame timeline.
type Animation struct {
	Name       string
	Model      ObjectID // model root the animation belongs to
	Root       string   // animation root object name, empty for none
	FrameStart float64
	FrameEnd   float64
	TransTime  float64 // seconds
	Events     []Event
}

// Event is a named animation marker at a global frame.
type Event struct {
	Frame float64
	Name  string
}

// Scene is an arena of objects plus the animations defined over them.
type Scene struct {
	objects    []*Object // index = ID-1
	animations []*Animation
	Blobs      *BlobStore
}

// New returns an empty scene.
func New() *Scene {
	return &Scene{Blobs: NewBlobStore()}
}

// AddObject creates an object under parent (NoObject for a root) and returns
// its ID. Import order follows creation order.
func (s *Scene) AddObject(name string, typ formats.NodeType, parent ObjectID) ObjectID {
	id := ObjectID(len(s.objects) + 1)
	s.objects = append(s.objects, &Object{
		ID:          id,
		Name:        name,
		Type:        typ,
		ImportOrder: len(s.objects),
		Rotation:    math.QuatIdentity(),
		Scale:       1,
		Properties:  make(map[string][]float64),
		AnimText:    make(map[string]BlobRef),
		Curves:      make(map[CurveKey]*Curve),
	})
	s.SetParent(id, parent)
	return id
}

// Object returns the object with the given ID, or nil.
func (s *Scene) Object(id ObjectID) *Object {
	if id <= 0 || int(id) > len(s.objects) {
		return nil
	}
	return s.objects[id-1]
}

// Len returns the number of objects.
func (s *Scene) Len() int {
	return len(s.objects)
}

// SetParent moves id under parent. Moving an object under itself or one of
// its descendants is ignored and reported as false.
func (s *Scene) SetParent(id, parent ObjectID) bool {
	obj := s.Object(id)
	if obj == nil {
		return false
	}
	for p := s.Object(parent); p != nil; p = s.Object(p.Parent) {
		if p.ID == id {
			return false
		}
	}

	if old := s.Object(obj.Parent); old != nil {
		for i, c := range old.Children {
			if c == id {
				old.Children = append(old.Children[:i], old.Children[i+1:]...)
				break
			}
		}
	}
	obj.Parent = NoObject
	if p := s.Object(parent); p != nil {
		obj.Parent = parent
		p.Children = append(p.Children, id)
	}
	return true
}

// Roots returns objects without a parent in import order.
func (s *Scene) Roots() []ObjectID {
	var roots []ObjectID
	for _, obj := range s.objects {
		if obj.Parent == NoObject {
			roots = append(roots, obj.ID)
		}
	}
	return roots
}

// Children returns the children of id ordered by import order, then name.
func (s *Scene) Children(id ObjectID) []ObjectID {
	obj := s.Object(id)
	if obj == nil {
		return nil
	}
	children := append([]ObjectID(nil), obj.Children...)
	sort.SliceStable(children, func(i, j int) bool {
		a, b := s.Object(children[i]), s.Object(children[j])
		if a.ImportOrder != b.ImportOrder {
			return a.ImportOrder < b.ImportOrder
		}
		return a.Name < b.Name
	})
	return children
}

// FindObject returns the first object in depth-first order under root
// (root included) for which pred is true. A NoObject root searches every
// root in turn.
func (s *Scene) FindObject(root ObjectID, pred func(*Object) bool) ObjectID {
	if root == NoObject {
		for _, r := range s.Roots() {
			if id := s.FindObject(r, pred); id != NoObject {
				return id
			}
		}
		return NoObject
	}

	obj := s.Object(root)
	if obj == nil {
		return NoObject
	}
	if pred(obj) {
		return root
	}
	for _, c := range s.Children(root) {
		if id := s.FindObject(c, pred); id != NoObject {
			return id
		}
	}
	return NoObject
}

// FindByName returns the object under root whose name matches (any case).
func (s *Scene) FindByName(root ObjectID, name string) ObjectID {
	return s.FindObject(root, func(o *Object) bool {
		return strings.EqualFold(o.Name, name)
	})
}

// Walk calls fn for root and every descendant in depth-first order.
func (s *Scene) Walk(root ObjectID, fn func(*Object)) {
	obj := s.Object(root)
	if obj == nil {
		return
	}
	fn(obj)
	for _, c := range s.Children(root) {
		s.Walk(c, fn)
	}
}

// Names returns the names of root and its descendants.
func (s *Scene) Names(root ObjectID) []string {
	var names []string
	s.Walk(root, func(o *Object) { names = append(names, o.Name) })
	return names
}

// CreateCurve returns the curve for key on object id, creating it when
// missing. It returns nil for an unknown object.
func (s *Scene) CreateCurve(id ObjectID, key CurveKey) *Curve {
	obj := s.Object(id)
	if obj == nil {
		return nil
	}
	if c, ok := obj.Curves[key]; ok {
		return c
	}
	c := &Curve{Key: key}
	obj.Curves[key] = c
	return c
}

// AddAnimation registers an animation. An animation with the same name on
// the same model is replaced.
func (s *Scene) AddAnimation(a *Animation) {
	for i, old := range s.animations {
		if old.Model == a.Model && strings.EqualFold(old.Name, a.Name) {
			s.animations[i] = a
			return
		}
	}
	s.animations = append(s.animations, a)
}

// Animations returns the animations of model in registration order.
func (s *Scene) Animations(model ObjectID) []*Animation {
	var out []*Animation
	for _, a := range s.animations {
		if a.Model == model {
			out = append(out, a)
		}
	}
	return out
}

// Animation returns the animation named name on model, or nil.
func (s *Scene) Animation(model ObjectID, name string) *Animation {
	for _, a := range s.animations {
		if a.Model == model && strings.EqualFold(a.Name, name) {
			return a
		}
	}
	return nil
}

// TimelineEnd returns the last frame used by any animation, or 0.
func (s *Scene) TimelineEnd() float64 {
	end := 0.0
	for _, a := range s.animations {
		if a.FrameEnd > end {
			end = a.FrameEnd
		}
	}
	return end
}
