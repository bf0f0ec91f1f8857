package bridge

import (
	"errors"
	"math"
	"strings"
	"testing"

	"github.com/Faultbox/midgard-mdl/internal/scene"
	"github.com/Faultbox/midgard-mdl/pkg/formats"
)

const dogGeometry = `newmodel c_dog
setsupermodel c_dog NULL
classification character
setanimationscale 1
beginmodelgeom c_dog
node dummy c_dog
  parent NULL
  position 0 0 0
  orientation 0 0 1 0
endnode
node trimesh torso
  parent c_dog
  position 0 0 1.25
  orientation 0 0 1 1.570796
  alpha 0.5
  verts 1
  0 0 0
endnode
node trimesh head
  parent torso
  position 0 0.5 0
  orientation 0 0 1 0
endnode
node trimesh tail
  parent c_dog
  position 0 -0.5 0
  orientation 0 0 1 0
endnode
endmodelgeom c_dog
donemodel c_dog
`

func loadDog(t *testing.T) (*Bridge, scene.ObjectID) {
	t.Helper()
	m, err := formats.ParseModel([]byte(dogGeometry))
	if err != nil {
		t.Fatalf("ParseModel: %v", err)
	}
	b := New(scene.New(), DefaultOptions())
	root := b.ImportGeometry(m)
	if len(b.Warnings) != 0 {
		t.Fatalf("unexpected warnings: %v", b.Warnings)
	}
	return b, root
}

func parseAnim(t *testing.T, text string) *formats.Animation {
	t.Helper()
	a, err := formats.ParseAnimation(text)
	if err != nil {
		t.Fatalf("ParseAnimation: %v", err)
	}
	return a
}

func near(a, b float64) bool {
	return math.Abs(a-b) < 1e-6
}

func TestFrameTimeInvertibility(t *testing.T) {
	const fps = 30
	for i := 0; i <= 100000; i++ {
		sec := float64(i) * 0.0100003
		if sec > 1000 {
			break
		}
		for _, start := range []float64{0, 1, 151} {
			got := TimeFromFrame(FrameFromTime(sec, fps, start), fps, start)
			if math.Abs(got-sec) > 1e-5 {
				t.Fatalf("t=%v start=%v: round trip gave %v", sec, start, got)
			}
		}
	}
}

func TestFrameFromTime(t *testing.T) {
	tests := []struct {
		sec, start, want float64
	}{
		{0, 1, 1},
		{1, 1, 31},
		{1.5, 0, 45},
		{0.5, 91, 106},
	}
	for _, tt := range tests {
		if got := FrameFromTime(tt.sec, 30, tt.start); got != tt.want {
			t.Errorf("FrameFromTime(%v, 30, %v) = %v, want %v", tt.sec, tt.start, got, tt.want)
		}
	}
	if got := TimeFromFrame(46, 30, 1); got != 1.5 {
		t.Errorf("TimeFromFrame(46, 30, 1) = %v", got)
	}
}

func TestImportGeometry(t *testing.T) {
	b, root := loadDog(t)
	sc := b.Scene

	obj := sc.Object(root)
	if obj.Name != "c_dog" || obj.Model == nil || obj.Model.Classification != "character" {
		t.Fatalf("root = %+v", obj)
	}

	torso := sc.Object(sc.FindByName(root, "TORSO"))
	if torso == nil || torso.Parent != root {
		t.Fatalf("torso = %+v", torso)
	}
	if torso.Location != [3]float64{0, 0, 1.25} {
		t.Errorf("torso location = %v", torso.Location)
	}
	if !near(torso.Rotation.W, math.Cos(1.570796/2)) || !near(torso.Rotation.Z, math.Sin(1.570796/2)) {
		t.Errorf("torso rotation = %+v", torso.Rotation)
	}
	if v := torso.Properties["alpha"]; len(v) != 1 || v[0] != 0.5 {
		t.Errorf("torso alpha = %v", v)
	}
	if text, _ := sc.Blobs.Text(torso.GeometryText); text != "verts 1\n0 0 0" {
		t.Errorf("torso raw = %q", text)
	}

	head := sc.Object(sc.FindByName(root, "head"))
	if head.Parent != torso.ID {
		t.Errorf("head parent = %v, want torso", head.Parent)
	}
}

func TestImportGeometryUnresolvedParent(t *testing.T) {
	m, err := formats.ParseModel([]byte(`newmodel c_cat
beginmodelgeom c_cat
node dummy c_cat
  parent NULL
endnode
node trimesh body
  parent c_cat
endnode
node trimesh paw
  parent bodyy
endnode
endmodelgeom c_cat
donemodel c_cat`))
	if err != nil {
		t.Fatalf("ParseModel: %v", err)
	}

	b := New(scene.New(), DefaultOptions())
	root := b.ImportGeometry(m)

	paw := b.Scene.Object(b.Scene.FindByName(root, "paw"))
	if paw == nil || paw.Parent != root {
		t.Fatalf("paw should be attached to the root, got %+v", paw)
	}
	if b.Warnings.Count(formats.ErrUnresolvedReference) != 1 {
		t.Fatalf("warnings = %v", b.Warnings)
	}
	if !strings.Contains(b.Warnings[0].Error(), `did you mean "body"`) {
		t.Errorf("warning lacks a hint: %v", b.Warnings[0])
	}
}

func TestUnkeyedBroadcast(t *testing.T) {
	b, root := loadDog(t)
	a := parseAnim(t, `newanim grow c_dog
  length 1
  node trimesh head
    parent torso
    scale 2.0
  endnode
doneanim grow c_dog`)

	b.ImportAnimation(root, a, 1)
	head := b.Scene.Object(b.Scene.FindByName(root, "head"))
	for axis := 0; axis < 3; axis++ {
		c := head.Curves[scene.CurveKey{Target: formats.TargetObject, Path: "scale", Axis: axis}]
		if c == nil || len(c.Points) != 1 {
			t.Fatalf("axis %d curve = %+v", axis, c)
		}
		if p := c.Points[0]; p.Frame != 1 || p.Value != 2 || p.Interp != scene.Linear {
			t.Errorf("axis %d point = %+v", axis, p)
		}
	}
}

func TestImportOrientation(t *testing.T) {
	b, root := loadDog(t)
	a := parseAnim(t, `newanim turn c_dog
  length 1
  node trimesh head
    parent torso
    orientationkey 2
      0 0 0 1 0
      1 0 0 1 4
  endnode
doneanim turn c_dog`)

	b.ImportAnimation(root, a, 1)
	head := b.Scene.Object(b.Scene.FindByName(root, "head"))
	value := func(axis int, frame float64) float64 {
		c := head.Curves[scene.CurveKey{Target: formats.TargetObject, Path: "rotation_quaternion", Axis: axis}]
		p, ok := c.PointAt(frame)
		if !ok {
			t.Fatalf("no point at frame %v on axis %d", frame, axis)
		}
		return p.Value
	}

	if !near(value(0, 1), 1) || !near(value(3, 1), 0) {
		t.Errorf("first key should be identity")
	}
	// A 4 radian turn is stored on the hemisphere of the previous key.
	if !near(value(0, 31), -math.Cos(2)) || !near(value(3, 31), -math.Sin(2)) {
		t.Errorf("second key W=%v Z=%v", value(0, 31), value(3, 31))
	}
}

func TestImportBezierHandles(t *testing.T) {
	b, root := loadDog(t)
	a := parseAnim(t, `newanim hop c_dog
  length 2
  node trimesh tail
    parent c_dog
    positionbezierkey 3
      0 0 0 0 0 0 0 0.1 0.2 0.3
      1 1 1 1 -0.5 0 0 0.5 0 0
      2 2 2 2 -0.1 0 0 0 0 0
  endnode
doneanim hop c_dog`)

	b.ImportAnimation(root, a, 1)
	tail := b.Scene.Object(b.Scene.FindByName(root, "tail"))
	x := tail.Curves[scene.CurveKey{Target: formats.TargetObject, Path: "location", Axis: 0}]
	if x == nil || len(x.Points) != 3 {
		t.Fatalf("x curve = %+v", x)
	}

	mid := x.Points[1]
	if mid.Interp != scene.Bezier || mid.Frame != 31 {
		t.Fatalf("mid point = %+v", mid)
	}
	if !near(mid.HandleLeft.Frame, 21) || !near(mid.HandleRight.Frame, 41) {
		t.Errorf("handle frames = %v / %v", mid.HandleLeft.Frame, mid.HandleRight.Frame)
	}
	if !near(mid.HandleLeft.Value, 0.5) || !near(mid.HandleRight.Value, 1.5) {
		t.Errorf("handle values = %v / %v", mid.HandleLeft.Value, mid.HandleRight.Value)
	}

	first := x.Points[0]
	if !near(first.HandleLeft.Frame, -9) || !near(first.HandleRight.Frame, 11) {
		t.Errorf("end key should mirror its only neighbour: %+v", first)
	}

	out := b.ExportAnimation(b.Scene.Animation(root, "hop"))
	track := out.Node("tail").Track("position")
	if !track.Bezier() || len(track.Keys) != 3 {
		t.Fatalf("exported track = %+v", track)
	}
	for i, k := range a.Node("tail").Track("position").Keys {
		got := track.Keys[i]
		for j := range k.Values {
			if !near(got.Values[j], k.Values[j]) || !near(got.Left[j], k.Left[j]) || !near(got.Right[j], k.Right[j]) {
				t.Errorf("key %d: got %+v, want %+v", i, got, k)
			}
		}
	}
}

func TestImportUnresolvedNode(t *testing.T) {
	b, root := loadDog(t)
	a := parseAnim(t, `newanim sit c_dog
  length 1
  animroot tial
  node trimesh torsoo
    parent c_dog
    positionkey 1
      0 1 2 3
  endnode
doneanim sit c_dog`)

	anim := b.ImportAnimation(root, a, 1)
	if b.Skipped != 1 {
		t.Errorf("skipped = %d, want 1", b.Skipped)
	}
	if got := b.Warnings.Count(formats.ErrUnresolvedReference); got != 2 {
		t.Fatalf("warnings = %v", b.Warnings)
	}
	if anim.Root != "c_dog" {
		t.Errorf("root fallback = %q", anim.Root)
	}
	if !strings.Contains(b.Warnings.Error(), `did you mean "torso"`) {
		t.Errorf("missing hint in %v", b.Warnings)
	}
	var le *formats.LineError
	if !errors.As(b.Warnings[1], &le) || le.Line != 4 {
		t.Errorf("node warning should carry line 4: %v", b.Warnings[1])
	}
}

func TestImportAnimationsLayout(t *testing.T) {
	b, root := loadDog(t)
	anims := b.ImportAnimations(root, []*formats.Animation{
		{Name: "walk", Length: 1},
		{Name: "run", Length: 0.5},
	})

	if anims[0].FrameStart != 1 || anims[0].FrameEnd != 31 {
		t.Errorf("walk window = %v..%v", anims[0].FrameStart, anims[0].FrameEnd)
	}
	if anims[1].FrameStart != 91 || anims[1].FrameEnd != 106 {
		t.Errorf("run window = %v..%v", anims[1].FrameStart, anims[1].FrameEnd)
	}

	more := b.ImportAnimations(root, []*formats.Animation{{Name: "sit", Length: 1}})
	if more[0].FrameStart != 166 {
		t.Errorf("sit start = %v, want 166", more[0].FrameStart)
	}
}

func TestExportNeededPropagation(t *testing.T) {
	b, root := loadDog(t)
	a := parseAnim(t, `newanim nod c_dog
  length 1
  node trimesh head
    parent torso
    positionkey 2
      0 0 0.5 0
      1 0 0.6 0
  endnode
doneanim nod c_dog`)
	b.ImportAnimation(root, a, 1)

	// Curves outside the window do not count.
	tail := b.Scene.FindByName(root, "tail")
	c := b.Scene.CreateCurve(tail, scene.CurveKey{Target: formats.TargetObject, Path: "location", Axis: 0})
	c.InsertKeyframe(scene.Point{Frame: 500, Value: 1})

	out := b.ExportAnimation(b.Scene.Animation(root, "nod"))
	var names []string
	for _, n := range out.Nodes {
		names = append(names, n.Name)
	}
	if got := strings.Join(names, ","); got != "c_dog,torso,head" {
		t.Errorf("exported nodes = %s", got)
	}
	if len(out.Node("torso").Controllers) != 0 {
		t.Error("torso has no curves of its own")
	}
	if out.Node("torso").Parent != "c_dog" || out.Node("c_dog").Parent != "" {
		t.Error("parents not preserved")
	}
}

func TestExportEmulatesLinearHandles(t *testing.T) {
	b, root := loadDog(t)
	anim := &scene.Animation{Name: "fade", Model: root, FrameStart: 1, FrameEnd: 61}
	b.Scene.AddAnimation(anim)

	torso := b.Scene.FindByName(root, "torso")
	c := b.Scene.CreateCurve(torso, scene.CurveKey{Target: formats.TargetMaterial, Path: "alpha"})
	c.InsertKeyframe(scene.Point{
		Frame: 1, Value: 0, Interp: scene.Bezier,
		HandleLeft:  scene.Handle{Frame: 0, Value: 0},
		HandleRight: scene.Handle{Frame: 11, Value: 0.25},
	})
	c.InsertKeyframe(scene.Point{Frame: 31, Value: 3})
	c.InsertKeyframe(scene.Point{Frame: 61, Value: 6})

	track := b.ExportAnimation(anim).Node("torso").Track("alpha")
	if track == nil || !track.Bezier() || len(track.Keys) != 3 {
		t.Fatalf("track = %+v", track)
	}
	want := []formats.Keyframe{
		{Time: 0, Values: []float64{0}, Left: []float64{0}, Right: []float64{0.25}},
		{Time: 1, Values: []float64{3}, Left: []float64{-1}, Right: []float64{1}},
		{Time: 2, Values: []float64{6}, Left: []float64{-1}, Right: []float64{0}},
	}
	for i, w := range want {
		got := track.Keys[i]
		if got.Time != w.Time || !near(got.Values[0], w.Values[0]) || !near(got.Left[0], w.Left[0]) || !near(got.Right[0], w.Right[0]) {
			t.Errorf("key %d = %+v, want %+v", i, got, w)
		}
	}
}

const walkAnim = `newanim walk c_dog
  length 1.5
  transtime 0.25
  animroot c_dog
  event 0.5 hit
  node dummy c_dog
    parent NULL
  endnode
  node trimesh torso
    parent c_dog
    positionkey 2
      0 0 0 1
      1.5 0.1234567 2 3
    orientationkey 2
      0 0 0 1 0
      1.5 0 0 1 1.570796
    alphakey 2
      0 1
      1.5 0.5
    foobar 3
  endnode
doneanim walk c_dog
`

func TestAnimationRoundTripThroughScene(t *testing.T) {
	b, root := loadDog(t)
	a := parseAnim(t, walkAnim)
	b.ImportAnimations(root, []*formats.Animation{a})

	var d formats.Decoder
	if _, err := d.DecodeAnimation(walkAnim); err != nil || len(d.Warnings) != 1 {
		t.Fatalf("expected one raw-text warning, got %v %v", err, d.Warnings)
	}

	out := b.ExportAnimation(b.Scene.Animation(root, "walk"))
	var buf strings.Builder
	if err := formats.EncodeAnimation(&buf, out); err != nil {
		t.Fatalf("EncodeAnimation: %v", err)
	}
	if buf.String() != walkAnim {
		t.Errorf("round trip mismatch:\n--- got\n%s--- want\n%s", buf.String(), walkAnim)
	}
}

func TestExportModel(t *testing.T) {
	b, root := loadDog(t)
	m, err := b.ExportModel(root, false)
	if err != nil {
		t.Fatalf("ExportModel: %v", err)
	}

	var buf strings.Builder
	if err := formats.EncodeModel(&buf, m); err != nil {
		t.Fatalf("EncodeModel: %v", err)
	}
	if buf.String() != dogGeometry {
		t.Errorf("geometry mismatch:\n--- got\n%s--- want\n%s", buf.String(), dogGeometry)
	}

	if _, err := b.ExportModel(99, false); !errors.Is(err, formats.ErrUnresolvedReference) {
		t.Errorf("expected ErrUnresolvedReference, got %v", err)
	}
}

func TestSuggest(t *testing.T) {
	candidates := []string{"torso", "tail", "c_dog"}
	tests := []struct {
		name, want string
	}{
		{"tors", "torso"},
		{"torsoo", "torso"},
		{"TAIL", ""},
		{"xyz", ""},
	}
	for _, tt := range tests {
		if got := suggest(tt.name, candidates); got != tt.want {
			t.Errorf("suggest(%q) = %q, want %q", tt.name, got, tt.want)
		}
	}
}

func TestImportGeometryExtraParentlessNodes(t *testing.T) {
	m, err := formats.ParseModel([]byte(`newmodel m
beginmodelgeom m
node dummy m
  parent NULL
endnode
node dummy other
  parent NULL
endnode
node trimesh child
  parent other
endnode
endmodelgeom m
donemodel m`))
	if err != nil {
		t.Fatalf("ParseModel: %v", err)
	}

	b := New(scene.New(), DefaultOptions())
	root := b.ImportGeometry(m)

	other := b.Scene.Object(b.Scene.FindByName(root, "other"))
	if other == nil || other.Parent != root {
		t.Fatalf("other should be attached to the root, got %+v", other)
	}
	if b.Warnings.Count(formats.ErrUnresolvedReference) != 1 {
		t.Errorf("warnings = %v", b.Warnings)
	}
	if len(b.Scene.Roots()) != 1 {
		t.Errorf("roots = %v", b.Scene.Roots())
	}

	out, err := b.ExportModel(root, false)
	if err != nil {
		t.Fatalf("ExportModel: %v", err)
	}
	var names []string
	for _, n := range out.Geometry {
		names = append(names, n.Name)
	}
	if got := strings.Join(names, ","); got != "m,other,child" {
		t.Errorf("exported nodes = %s", got)
	}
}

func TestReimportReplacesAnimation(t *testing.T) {
	b, root := loadDog(t)
	b.ImportAnimations(root, []*formats.Animation{parseAnim(t, `newanim walk c_dog
  length 1
  node trimesh tail
    parent c_dog
    foobar 1 2 3
    positionkey 1
      0 0 1 0
  endnode
doneanim walk c_dog`)})
	b.ImportAnimations(root, []*formats.Animation{parseAnim(t, `newanim walk c_dog
  length 1
  node trimesh head
    parent torso
    positionkey 1
      0 0 1 0
  endnode
doneanim walk c_dog`)})

	if n := len(b.Scene.Animations(root)); n != 1 {
		t.Fatalf("animations = %d, want 1", n)
	}
	tail := b.Scene.Object(b.Scene.FindByName(root, "tail"))
	if len(tail.AnimText) != 0 {
		t.Errorf("stale raw text on tail: %v", tail.AnimText)
	}
	if c := tail.Curves[scene.CurveKey{Target: formats.TargetObject, Path: "location", Axis: 1}]; c != nil && len(c.Points) != 0 {
		t.Errorf("stale curve points on tail: %+v", c.Points)
	}

	out := b.ExportAnimation(b.Scene.Animation(root, "walk"))
	var names []string
	for _, n := range out.Nodes {
		names = append(names, n.Name)
	}
	if got := strings.Join(names, ","); got != "c_dog,torso,head" {
		t.Errorf("exported nodes = %s", got)
	}
}

func TestExportOrientationHandlesAreClean(t *testing.T) {
	b, root := loadDog(t)
	b.ImportAnimation(root, parseAnim(t, `newanim nod c_dog
  length 1
  node trimesh head
    parent torso
    orientationbezierkey 2
      0 0 0 1 0 0 0 0 0 0 0 0 0.1
      1 0 0 1 1.570796 0 0 0 -0.1 0 0 0 0
  endnode
doneanim nod c_dog`), 1)

	out := b.ExportAnimation(b.Scene.Animation(root, "nod"))
	if !out.Node("head").Track("orientation").Bezier() {
		t.Fatal("orientation should stay bezier")
	}
	var buf strings.Builder
	if err := formats.EncodeAnimation(&buf, out); err != nil {
		t.Fatalf("EncodeAnimation: %v", err)
	}
	for _, f := range strings.Fields(buf.String()) {
		if strings.Contains(f, "0000000") {
			t.Errorf("rounding noise %q in:\n%s", f, buf.String())
		}
	}
}
