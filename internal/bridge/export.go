package bridge

import (
	"fmt"
	"sort"

	"github.com/Faultbox/midgard-mdl/internal/scene"
	"github.com/Faultbox/midgard-mdl/pkg/formats"
)

// ExportModel builds a model record for the hierarchy under root. Walkmesh
// objects are left out; see ExportWalkmesh.
func (b *Bridge) ExportModel(root scene.ObjectID, animations bool) (*formats.Model, error) {
	obj := b.Scene.Object(root)
	if obj == nil {
		return nil, fmt.Errorf("%w: export root %d", formats.ErrUnresolvedReference, root)
	}

	m := formats.NewModel(obj.Name)
	if info := obj.Model; info != nil {
		if info.Name != "" {
			m.Name = info.Name
		}
		m.Supermodel = info.Supermodel
		m.Classification = info.Classification
		m.AnimationScale = info.AnimationScale
		m.FileDependency = info.FileDependency
	}

	m.Geometry = b.ExportGeometry(root)
	if animations {
		for _, anim := range b.Scene.Animations(root) {
			a := b.ExportAnimation(anim)
			a.Model = m.Name
			m.Animations = append(m.Animations, a)
		}
	}
	return m, nil
}

// ExportGeometry returns static node records for root and its non-walkmesh
// descendants in import order.
func (b *Bridge) ExportGeometry(root scene.ObjectID) []*formats.Node {
	var nodes []*formats.Node
	b.Scene.Walk(root, func(obj *scene.Object) {
		if !obj.Walkmesh {
			nodes = append(nodes, b.staticNode(obj))
		}
	})
	return nodes
}

// ExportWalkmesh returns the walkmesh objects under root.
func (b *Bridge) ExportWalkmesh(root scene.ObjectID) []*formats.Node {
	var nodes []*formats.Node
	b.Scene.Walk(root, func(obj *scene.Object) {
		if obj.Walkmesh {
			nodes = append(nodes, b.staticNode(obj))
		}
	})
	return nodes
}

func (b *Bridge) parentName(obj *scene.Object) string {
	if p := b.Scene.Object(obj.Parent); p != nil {
		return p.Name
	}
	return ""
}

func (b *Bridge) blobText(obj *scene.Object, ref scene.BlobRef) string {
	text, ok := b.Scene.Blobs.Text(ref)
	if !ok {
		b.warn(fmt.Errorf("%w: raw text %s of %q is missing", formats.ErrUnresolvedReference, ref, obj.Name))
	}
	return text
}

// staticNode writes the object's static transform and properties as
// unkeyed controllers. Scale is written only when it is not 1.
func (b *Bridge) staticNode(obj *scene.Object) *formats.Node {
	n := formats.NewNode(obj.Type, obj.Name, b.parentName(obj))
	for _, c := range formats.ControllersFor(obj.Type) {
		var v []float64
		switch {
		case isOrientation(c):
			v = quatAxisAngle(obj.Rotation)
		case c.Target == formats.TargetObject && c.Path == "location":
			v = obj.Location[:]
		case c.Target == formats.TargetObject && c.Path == "scale":
			if obj.Scale != 1 {
				v = []float64{obj.Scale}
			}
		default:
			v = obj.Properties[formats.ControllerKey(c)]
		}
		if v != nil {
			n.SetTrack(c, &formats.Track{Keys: []formats.Keyframe{{Values: append([]float64(nil), v...)}}})
		}
	}
	n.Raw = b.blobText(obj, obj.GeometryText)
	return n
}

// exportNeeded reports whether obj belongs in the export of anim: it is the
// model root, it has curve points inside the animation window, it carries
// raw text for anim, or one of its descendants is needed.
func (b *Bridge) exportNeeded(id scene.ObjectID, anim *scene.Animation) bool {
	obj := b.Scene.Object(id)
	if obj == nil {
		return false
	}
	if obj.Parent == scene.NoObject {
		return true
	}
	if _, ok := obj.AnimText[anim.Name]; ok {
		return true
	}
	for _, c := range obj.Curves {
		if len(c.InWindow(anim.FrameStart, anim.FrameEnd)) > 0 {
			return true
		}
	}
	for _, child := range obj.Children {
		if b.exportNeeded(child, anim) {
			return true
		}
	}
	return false
}

// ExportAnimation samples the curves inside anim's frame window back into
// an animation record. Nodes are emitted depth first from the model root.
func (b *Bridge) ExportAnimation(anim *scene.Animation) *formats.Animation {
	sc := b.Scene
	fps := b.Options.FPS

	a := &formats.Animation{
		Name:      anim.Name,
		Length:    TimeFromFrame(anim.FrameEnd, fps, anim.FrameStart),
		TransTime: anim.TransTime,
		Root:      anim.Root,
	}
	if root := sc.Object(anim.Model); root != nil {
		a.Model = root.Name
	}
	for _, ev := range anim.Events {
		a.Events = append(a.Events, formats.Event{Time: TimeFromFrame(ev.Frame, fps, anim.FrameStart), Name: ev.Name})
	}

	var visit func(id scene.ObjectID)
	visit = func(id scene.ObjectID) {
		obj := sc.Object(id)
		if obj.Walkmesh || !b.exportNeeded(id, anim) {
			return
		}
		a.Nodes = append(a.Nodes, b.animNode(obj, anim))
		for _, child := range sc.Children(id) {
			visit(child)
		}
	}
	if sc.Object(anim.Model) != nil {
		visit(anim.Model)
	}
	return a
}

func (b *Bridge) animNode(obj *scene.Object, anim *scene.Animation) *formats.Node {
	n := formats.NewNode(obj.Type, obj.Name, b.parentName(obj))
	for _, c := range formats.ControllersFor(obj.Type) {
		if t := b.exportTrack(obj, c, anim); t != nil {
			n.SetTrack(c, t)
		}
	}
	if ref, ok := obj.AnimText[anim.Name]; ok {
		n.Raw = b.blobText(obj, ref)
	}
	return n
}

// exportTrack samples controller c at the union of its axes' key frames
// inside the window. The track is bezier when any sampled point is; keys
// without handles then get handles a third of the way towards their
// neighbouring keys.
func (b *Bridge) exportTrack(obj *scene.Object, c formats.Controller, anim *scene.Animation) *formats.Track {
	curves := make([]*scene.Curve, c.Axes)
	seen := make(map[float64]bool)
	bezier := false
	for axis := range curves {
		cv := obj.Curves[scene.CurveKey{Target: c.Target, Path: c.Path, Axis: axis}]
		curves[axis] = cv
		if cv == nil {
			continue
		}
		for _, p := range cv.InWindow(anim.FrameStart, anim.FrameEnd) {
			seen[p.Frame] = true
			if p.Interp == scene.Bezier {
				bezier = true
			}
		}
	}
	if len(seen) == 0 {
		return nil
	}

	frames := make([]float64, 0, len(seen))
	for f := range seen {
		frames = append(frames, f)
	}
	sort.Float64s(frames)

	keys := make([]hostKey, len(frames))
	own := make([][]bool, len(frames)) // axis carries its own handles
	for i, f := range frames {
		keys[i].Value = make([]float64, c.Axes)
		own[i] = make([]bool, c.Axes)
		if bezier {
			keys[i].Left = make([]float64, c.Axes)
			keys[i].Right = make([]float64, c.Axes)
		}
		for axis, cv := range curves {
			if cv == nil {
				keys[i].Value[axis] = staticValue(obj, c, axis)
				continue
			}
			p, ok := cv.PointAt(f)
			if !ok {
				keys[i].Value[axis] = cv.Evaluate(f)
				continue
			}
			keys[i].Value[axis] = p.Value
			if bezier && p.Interp == scene.Bezier {
				keys[i].Left[axis] = p.HandleLeft.Value - p.Value
				keys[i].Right[axis] = p.HandleRight.Value - p.Value
				own[i][axis] = true
			}
		}
	}

	if bezier {
		emulateHandles(keys, own)
	}

	track := &formats.Track{Keyed: true, Keys: make([]formats.Keyframe, len(keys))}
	for i, k := range keys {
		key := fromHost(c, k)
		key.Time = TimeFromFrame(frames[i], b.Options.FPS, anim.FrameStart)
		track.Keys[i] = key
	}
	return track
}

// emulateHandles fills handles of axes without their own, a third of the
// value distance to the previous and next key. End keys get flat handles.
func emulateHandles(keys []hostKey, own [][]bool) {
	for i := range keys {
		for axis := range keys[i].Value {
			if own[i][axis] {
				continue
			}
			v := keys[i].Value[axis]
			if i > 0 {
				keys[i].Left[axis] = (keys[i-1].Value[axis] - v) / 3
			}
			if i+1 < len(keys) {
				keys[i].Right[axis] = (keys[i+1].Value[axis] - v) / 3
			}
		}
	}
}

// staticValue returns the object's static value for an axis of c that has
// no curve.
func staticValue(obj *scene.Object, c formats.Controller, axis int) float64 {
	switch {
	case isOrientation(c):
		return obj.Rotation.WXYZ()[axis]
	case c.Target == formats.TargetObject && c.Path == "location":
		return obj.Location[axis]
	case c.Target == formats.TargetObject && c.Path == "scale":
		return obj.Scale
	}
	v := obj.Properties[formats.ControllerKey(c)]
	if len(v) == 0 {
		return 0
	}
	if c.Arity < c.Axes {
		return v[0]
	}
	if axis < len(v) {
		return v[axis]
	}
	return 0
}
