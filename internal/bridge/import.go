package bridge

import (
	"fmt"
	"math"
	"strings"

	"github.com/Faultbox/midgard-mdl/internal/scene"
	"github.com/Faultbox/midgard-mdl/pkg/formats"
)

// ImportGeometry creates one object per geometry node of m and returns the
// model root. Parents are resolved by name (any case); a parent that cannot
// be found, and a missing parent on any node but the root, is replaced by
// the model root.
func (b *Bridge) ImportGeometry(m *formats.Model) scene.ObjectID {
	sc := b.Scene
	ids := make([]scene.ObjectID, len(m.Geometry))
	byName := make(map[string]scene.ObjectID, len(m.Geometry))
	names := make([]string, 0, len(m.Geometry))

	for i, n := range m.Geometry {
		id := sc.AddObject(n.Name, n.Type, scene.NoObject)
		ids[i] = id
		key := strings.ToLower(n.Name)
		if _, dup := byName[key]; dup {
			b.warn(&formats.LineError{Line: n.Line, Err: fmt.Errorf("%w: duplicate node name %q", formats.ErrMalformedBlock, n.Name)})
		} else {
			byName[key] = id
			names = append(names, n.Name)
		}

		obj := sc.Object(id)
		b.applyStatic(obj, n)
		obj.GeometryText = sc.Blobs.StoreText(n.Raw)
	}

	root, ok := byName[strings.ToLower(m.Name)]
	if !ok {
		for i, n := range m.Geometry {
			if n.Parent == "" {
				root = ids[i]
				break
			}
		}
	}
	if root == scene.NoObject {
		root = sc.AddObject(m.Name, formats.NodeDummy, scene.NoObject)
	}

	rootName := sc.Object(root).Name
	for i, n := range m.Geometry {
		if ids[i] == root {
			continue
		}
		if n.Parent == "" {
			b.warn(&formats.LineError{Line: n.Line, Err: fmt.Errorf("%w: node %q has no parent, attached to %q", formats.ErrUnresolvedReference, n.Name, rootName)})
			sc.SetParent(ids[i], root)
			continue
		}
		parent, ok := byName[strings.ToLower(n.Parent)]
		if !ok {
			b.unresolved(n.Line, "parent", n.Parent, names)
			parent = root
		}
		if !sc.SetParent(ids[i], parent) {
			b.warn(&formats.LineError{Line: n.Line, Err: fmt.Errorf("%w: parent %q of %q forms a cycle", formats.ErrMalformedBlock, n.Parent, n.Name)})
			sc.SetParent(ids[i], root)
		}
	}

	sc.Object(root).Model = &scene.ModelInfo{
		Name:           m.Name,
		Supermodel:     m.Supermodel,
		Classification: m.Classification,
		AnimationScale: m.AnimationScale,
		FileDependency: m.FileDependency,
	}
	return root
}

// ImportWalkmesh adds walkmesh nodes under root.
func (b *Bridge) ImportWalkmesh(root scene.ObjectID, nodes []*formats.Node) {
	sc := b.Scene
	for _, n := range nodes {
		parent := root
		if n.Parent != "" {
			if id := sc.FindByName(root, n.Parent); id != scene.NoObject {
				parent = id
			} else {
				b.unresolved(n.Line, "walkmesh parent", n.Parent, sc.Names(root))
			}
		}
		id := sc.AddObject(n.Name, n.Type, parent)
		obj := sc.Object(id)
		obj.Walkmesh = true
		b.applyStatic(obj, n)
		obj.GeometryText = sc.Blobs.StoreText(n.Raw)
	}
}

// applyStatic copies the first key of each controller into the object's
// static transform or properties.
func (b *Bridge) applyStatic(obj *scene.Object, n *formats.Node) {
	for _, c := range formats.ControllersFor(n.Type) {
		track := n.Controllers[formats.ControllerKey(c)]
		if track == nil || len(track.Keys) == 0 {
			continue
		}
		v := track.Keys[0].Values
		switch {
		case isOrientation(c):
			obj.Rotation = axisAngleQuat(v)
		case c.Target == formats.TargetObject && c.Path == "location":
			copy(obj.Location[:], v)
		case c.Target == formats.TargetObject && c.Path == "scale":
			obj.Scale = v[0]
		default:
			obj.Properties[formats.ControllerKey(c)] = append([]float64(nil), v...)
		}
	}
}

// ImportAnimations lays out anims one after another on the global timeline,
// after any animation already in the scene, and materializes each.
func (b *Bridge) ImportAnimations(root scene.ObjectID, anims []*formats.Animation) []*scene.Animation {
	start := b.Options.StartFrame
	if end := b.Scene.TimelineEnd(); end > 0 {
		start = math.Ceil(end) + b.Options.Padding
	}

	out := make([]*scene.Animation, 0, len(anims))
	for _, a := range anims {
		anim := b.ImportAnimation(root, a, start)
		out = append(out, anim)
		start = math.Ceil(anim.FrameEnd) + b.Options.Padding
	}
	return out
}

// ImportAnimation materializes a starting at global frame start. Nodes that
// cannot be found under root are skipped with a warning.
func (b *Bridge) ImportAnimation(root scene.ObjectID, a *formats.Animation, start float64) *scene.Animation {
	sc := b.Scene
	fps := b.Options.FPS
	names := sc.Names(root)

	if old := sc.Animation(root, a.Name); old != nil {
		b.clearAnimation(root, old)
	}

	anim := &scene.Animation{
		Name:       a.Name,
		Model:      root,
		FrameStart: start,
		FrameEnd:   FrameFromTime(a.Length, fps, start),
		TransTime:  a.TransTime,
	}
	if a.Root != "" {
		if id := sc.FindByName(root, a.Root); id != scene.NoObject {
			anim.Root = sc.Object(id).Name
		} else {
			b.unresolved(a.Line, "animation root", a.Root, names)
			if obj := sc.Object(root); obj != nil {
				anim.Root = obj.Name
			}
		}
	}
	for _, ev := range a.Events {
		anim.Events = append(anim.Events, scene.Event{Frame: FrameFromTime(ev.Time, fps, start), Name: ev.Name})
	}

	for _, n := range a.Nodes {
		id := sc.FindByName(root, n.Name)
		if id == scene.NoObject {
			b.unresolved(n.Line, "node", n.Name, names)
			b.Skipped++
			continue
		}
		obj := sc.Object(id)
		if n.Raw != "" {
			obj.AnimText[a.Name] = sc.Blobs.StoreText(n.Raw)
		}
		for _, c := range formats.ControllersFor(n.Type) {
			track := n.Controllers[formats.ControllerKey(c)]
			if track == nil || len(track.Keys) == 0 {
				continue
			}
			b.materialize(id, c, track, start)
		}
	}

	sc.AddAnimation(anim)
	return anim
}

// clearAnimation drops the raw text and curve points that anim left on the
// objects under root, so a re-import starts from nothing.
func (b *Bridge) clearAnimation(root scene.ObjectID, anim *scene.Animation) {
	b.Scene.Walk(root, func(obj *scene.Object) {
		for name := range obj.AnimText {
			if strings.EqualFold(name, anim.Name) {
				delete(obj.AnimText, name)
			}
		}
		for _, c := range obj.Curves {
			c.DeleteWindow(anim.FrameStart, anim.FrameEnd)
		}
	})
}

// materialize inserts track into one curve per axis of c.
func (b *Bridge) materialize(id scene.ObjectID, c formats.Controller, track *formats.Track, start float64) {
	frames := make([]float64, len(track.Keys))
	for i, k := range track.Keys {
		frames[i] = FrameFromTime(k.Time, b.Options.FPS, start)
	}
	keys := toHost(c, track.Keys)

	for axis := 0; axis < c.Axes; axis++ {
		curve := b.Scene.CreateCurve(id, scene.CurveKey{Target: c.Target, Path: c.Path, Axis: axis})
		for i, k := range keys {
			p := scene.Point{Frame: frames[i], Value: k.Value[axis]}
			if k.Left != nil {
				before, after := handleSpans(frames, i)
				p.Interp = scene.Bezier
				p.HandleLeft = scene.Handle{Frame: frames[i] - before, Value: p.Value + k.Left[axis]}
				p.HandleRight = scene.Handle{Frame: frames[i] + after, Value: p.Value + k.Right[axis]}
			}
			curve.InsertKeyframe(p)
		}
	}
}

// handleSpans returns the frame offsets of the left and right handles of
// key i: a third of the distance to each neighbour. A missing neighbour
// mirrors the other side; a lone key uses one frame.
func handleSpans(frames []float64, i int) (before, after float64) {
	if i > 0 {
		before = (frames[i] - frames[i-1]) / 3
	}
	if i+1 < len(frames) {
		after = (frames[i+1] - frames[i]) / 3
	}
	switch {
	case before <= 0 && after <= 0:
		return 1, 1
	case before <= 0:
		before = after
	case after <= 0:
		after = before
	}
	return before, after
}
