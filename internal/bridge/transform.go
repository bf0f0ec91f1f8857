package bridge

import (
	"github.com/Faultbox/midgard-mdl/pkg/formats"
	"github.com/Faultbox/midgard-mdl/pkg/math"
)

// isOrientation reports whether c stores axis-angle rotations that the
// scene keeps as quaternions.
func isOrientation(c formats.Controller) bool {
	return c.Target == formats.TargetObject && c.Path == "rotation_quaternion"
}

// axisAngleQuat converts x y z angle to a unit quaternion.
func axisAngleQuat(v []float64) math.Quat {
	var c [4]float64
	copy(c[:], v)
	return math.QuatFromAxisAngle(math.Vec3{X: c[0], Y: c[1], Z: c[2]}, c[3]).Normalize()
}

// quatAxisAngle converts a quaternion back to x y z angle.
func quatAxisAngle(q math.Quat) []float64 {
	axis, angle := q.AxisAngle()
	return []float64{axis.X, axis.Y, axis.Z, angle}
}

func addVec(a, b []float64) []float64 {
	out := make([]float64, len(a))
	for i := range a {
		out[i] = a[i]
		if i < len(b) {
			out[i] += b[i]
		}
	}
	return out
}

func subVec(a, b []float64) []float64 {
	out := make([]float64, len(a))
	for i := range a {
		out[i] = a[i] - b[i]
	}
	return out
}

// hostKey is one keyframe in scene axis space. Left and Right are value
// deltas and nil for linear keys.
type hostKey struct {
	Value       []float64
	Left, Right []float64
}

// toHost converts a controller's keys to scene axis values. Orientation
// becomes W X Y Z quaternions kept on one hemisphere from key to key, and
// scalar controllers bound to several axes are broadcast.
func toHost(c formats.Controller, keys []formats.Keyframe) []hostKey {
	out := make([]hostKey, len(keys))

	if isOrientation(c) {
		var prev math.Quat
		for i, k := range keys {
			q := axisAngleQuat(k.Values)
			if i > 0 && q.Dot(prev) < 0 {
				q = q.Neg()
			}
			prev = q
			v := q.WXYZ()
			out[i].Value = v[:]
			if k.Bezier() {
				out[i].Left = quatDelta(q, addVec(k.Values, k.Left))
				out[i].Right = quatDelta(q, addVec(k.Values, k.Right))
			}
		}
		return out
	}

	for i, k := range keys {
		out[i].Value = broadcast(c, k.Values)
		if k.Bezier() {
			out[i].Left = broadcast(c, k.Left)
			out[i].Right = broadcast(c, k.Right)
		}
	}
	return out
}

// quatDelta returns the quaternion of the axis-angle h, on the same
// hemisphere as q, minus q.
func quatDelta(q math.Quat, h []float64) []float64 {
	hq := axisAngleQuat(h)
	if hq.Dot(q) < 0 {
		hq = hq.Neg()
	}
	a, b := hq.WXYZ(), q.WXYZ()
	return subVec(a[:], b[:])
}

// broadcast expands v to c.Axes values.
func broadcast(c formats.Controller, v []float64) []float64 {
	out := make([]float64, c.Axes)
	for axis := range out {
		src := axis
		if c.Arity < c.Axes {
			src = 0
		}
		if src < len(v) {
			out[axis] = v[src]
		}
	}
	return out
}

// fromHost converts one sampled key back to controller values. Handle
// deltas are transformed as f(value+delta) - f(value).
func fromHost(c formats.Controller, k hostKey) formats.Keyframe {
	var out formats.Keyframe

	if isOrientation(c) {
		q := math.QuatFromWXYZ([4]float64(k.Value)).Normalize()
		flip := q.W < 0
		if flip {
			q = q.Neg()
		}
		out.Values = quatAxisAngle(q)
		if k.Left != nil {
			out.Left = subVec(quatHandle(addVec(k.Value, k.Left), flip), out.Values)
			out.Right = subVec(quatHandle(addVec(k.Value, k.Right), flip), out.Values)
		}
		return out
	}

	out.Values = append([]float64(nil), k.Value[:c.Arity]...)
	if k.Left != nil {
		out.Left = append([]float64(nil), k.Left[:c.Arity]...)
		out.Right = append([]float64(nil), k.Right[:c.Arity]...)
	}
	return out
}

func quatHandle(wxyz []float64, flip bool) []float64 {
	q := math.QuatFromWXYZ([4]float64(wxyz)).Normalize()
	if flip {
		q = q.Neg()
	}
	return quatAxisAngle(q)
}
