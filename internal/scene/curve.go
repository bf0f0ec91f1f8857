package scene

import (
	"fmt"
	"sort"

	"github.com/Faultbox/midgard-mdl/pkg/formats"
)

// CurveKey identifies one animated scalar channel of an object.
type CurveKey struct {
	Target formats.Target
	Path   string
	Axis   int
}

func (k CurveKey) String() string {
	return fmt.Sprintf("%s.%s[%d]", k.Target, k.Path, k.Axis)
}

// Interpolation is the segment shape leaving a point.
type Interpolation int

const (
	Linear Interpolation = iota
	Bezier
)

func (i Interpolation) String() string {
	if i == Bezier {
		return "bezier"
	}
	return "linear"
}

// Handle is an absolute (frame, value) control point.
type Handle struct {
	Frame float64
	Value float64
}

// Point is a keyframe on a curve.
type Point struct {
	Frame       float64
	Value       float64
	Interp      Interpolation
	HandleLeft  Handle
	HandleRight Handle
}

// Curve is a frame-sorted keyframe list.
type Curve struct {
	Key    CurveKey
	Points []Point
}

// InsertKeyframe adds p, replacing any point already at the same frame.
func (c *Curve) InsertKeyframe(p Point) {
	i := sort.Search(len(c.Points), func(i int) bool { return c.Points[i].Frame >= p.Frame })
	if i < len(c.Points) && c.Points[i].Frame == p.Frame {
		c.Points[i] = p
		return
	}
	c.Points = append(c.Points, Point{})
	copy(c.Points[i+1:], c.Points[i:])
	c.Points[i] = p
}

// PointAt returns the point exactly at frame.
func (c *Curve) PointAt(frame float64) (Point, bool) {
	i := sort.Search(len(c.Points), func(i int) bool { return c.Points[i].Frame >= frame })
	if i < len(c.Points) && c.Points[i].Frame == frame {
		return c.Points[i], true
	}
	return Point{}, false
}

// InWindow returns the points with start <= Frame <= end.
func (c *Curve) InWindow(start, end float64) []Point {
	lo := sort.Search(len(c.Points), func(i int) bool { return c.Points[i].Frame >= start })
	hi := sort.Search(len(c.Points), func(i int) bool { return c.Points[i].Frame > end })
	return c.Points[lo:hi]
}

// DeleteWindow removes the points with start <= Frame <= end and returns
// how many were removed.
func (c *Curve) DeleteWindow(start, end float64) int {
	lo := sort.Search(len(c.Points), func(i int) bool { return c.Points[i].Frame >= start })
	hi := sort.Search(len(c.Points), func(i int) bool { return c.Points[i].Frame > end })
	c.Points = append(c.Points[:lo], c.Points[hi:]...)
	return hi - lo
}

// Evaluate returns the curve value at frame. Values before the first point
// and after the last are held constant.
func (c *Curve) Evaluate(frame float64) float64 {
	n := len(c.Points)
	switch {
	case n == 0:
		return 0
	case frame <= c.Points[0].Frame:
		return c.Points[0].Value
	case frame >= c.Points[n-1].Frame:
		return c.Points[n-1].Value
	}

	i := sort.Search(n, func(i int) bool { return c.Points[i].Frame > frame }) - 1
	a, b := c.Points[i], c.Points[i+1]
	if a.Interp == Linear {
		t := (frame - a.Frame) / (b.Frame - a.Frame)
		return a.Value + t*(b.Value-a.Value)
	}
	return evalBezier(a, b, frame)
}

// evalBezier solves the segment's x(s) = frame by bisection and returns y(s).
func evalBezier(a, b Point, frame float64) float64 {
	x0, x1, x2, x3 := a.Frame, a.HandleRight.Frame, b.HandleLeft.Frame, b.Frame
	y0, y1, y2, y3 := a.Value, a.HandleRight.Value, b.HandleLeft.Value, b.Value

	// Keep the control frames inside the segment so x(s) stays monotonic.
	x1 = clamp(x1, x0, x3)
	x2 = clamp(x2, x0, x3)

	lo, hi := 0.0, 1.0
	s := 0.5
	for iter := 0; iter < 60; iter++ {
		s = (lo + hi) / 2
		if cubic(x0, x1, x2, x3, s) < frame {
			lo = s
		} else {
			hi = s
		}
	}
	return cubic(y0, y1, y2, y3, s)
}

func cubic(p0, p1, p2, p3, s float64) float64 {
	u := 1 - s
	return u*u*u*p0 + 3*u*u*s*p1 + 3*u*s*s*p2 + s*s*s*p3
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
