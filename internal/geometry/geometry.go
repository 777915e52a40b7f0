// Package geometry holds the planar primitives shared by the blueprint and
// lighting engines. Coordinates are pixel-space floats, y grows downwards.
package geometry

import (
	"math"

	"github.com/jbeda/geom"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/planar"
)

// ============================================================
// Types
// ============================================================

type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

type Segment struct {
	A Point
	B Point
}

type Orientation string

const (
	Horizontal Orientation = "horizontal"
	Vertical   Orientation = "vertical"
	Diagonal   Orientation = "diagonal"
)

const (
	parallelEpsilon      = 1e-10 // |det| ниже этого считается параллельными прямыми
	orientationTolerance = 10.0  // допуск в пикселях для горизонтальных/вертикальных стен
)

func (p Point) Add(q Point) Point          { return Point{p.X + q.X, p.Y + q.Y} }
func (p Point) Sub(q Point) Point          { return Point{p.X - q.X, p.Y - q.Y} }
func (p Point) Scale(s float64) Point      { return Point{p.X * s, p.Y * s} }
func (p Point) Equal(q Point) bool         { return p.X == q.X && p.Y == q.Y }
func (s Segment) Length() float64          { return Distance(s.A, s.B) }
func (s Segment) Orientation() Orientation { return Classify(s.A, s.B) }

// ============================================================
// Distances
// ============================================================

func Distance(a, b Point) float64 {
	dx := a.X - b.X
	dy := a.Y - b.Y
	return math.Sqrt(dx*dx + dy*dy)
}

func Midpoint(a, b Point) Point {
	return Point{X: (a.X + b.X) / 2, Y: (a.Y + b.Y) / 2}
}

// Angle returns the direction from -> to in radians, in (-π, π].
func Angle(from, to Point) float64 {
	return math.Atan2(to.Y-from.Y, to.X-from.X)
}

// ClosestOnSegment projects p onto [s, e] and returns the clamped point with
// its projection parameter in [0, 1].
func ClosestOnSegment(p, s, e Point) (Point, float64) {
	dx := e.X - s.X
	dy := e.Y - s.Y
	lenSq := dx*dx + dy*dy
	if lenSq == 0 {
		return s, 0
	}

	t := ((p.X-s.X)*dx + (p.Y-s.Y)*dy) / lenSq
	t = math.Max(0, math.Min(1, t))

	return Point{X: s.X + t*dx, Y: s.Y + t*dy}, t
}

// PointToSegmentDistance returns the distance from p to the nearest point of
// the segment [s, e].
func PointToSegmentDistance(p, s, e Point) float64 {
	closest, _ := ClosestOnSegment(p, s, e)
	return Distance(p, closest)
}

// ============================================================
// Intersection
// ============================================================

// SegmentIntersect returns the intersection point of [a1, a2] and [b1, b2].
// Parallel segments (|det| < 1e-10) and hits outside either segment report false.
func SegmentIntersect(a1, a2, b1, b2 Point) (Point, bool) {
	return IntersectWithin(a1, a2, b1, b2, 0)
}

// IntersectWithin is SegmentIntersect with both parameter ranges widened to
// [-slack, 1+slack]. The shadow caster uses a tiny slack so a ray aimed exactly
// at a shared corner cannot slip between the two walls meeting there.
func IntersectWithin(a1, a2, b1, b2 Point, slack float64) (Point, bool) {
	denom := (a1.X-a2.X)*(b1.Y-b2.Y) - (a1.Y-a2.Y)*(b1.X-b2.X)
	if math.Abs(denom) < parallelEpsilon {
		return Point{}, false
	}

	t := ((a1.X-b1.X)*(b1.Y-b2.Y) - (a1.Y-b1.Y)*(b1.X-b2.X)) / denom
	u := -((a1.X-a2.X)*(a1.Y-b1.Y) - (a1.Y-a2.Y)*(a1.X-b1.X)) / denom

	if t < -slack || t > 1+slack || u < -slack || u > 1+slack {
		return Point{}, false
	}

	return Point{
		X: a1.X + t*(a2.X-a1.X),
		Y: a1.Y + t*(a2.Y-a1.Y),
	}, true
}

// ============================================================
// Classification & transforms
// ============================================================

// Classify: horizontal if |Δy| ≤ 10px, vertical if |Δx| ≤ 10px, иначе diagonal.
func Classify(start, end Point) Orientation {
	dx := math.Abs(end.X - start.X)
	dy := math.Abs(end.Y - start.Y)

	if dy <= orientationTolerance {
		return Horizontal
	}
	if dx <= orientationTolerance {
		return Vertical
	}
	return Diagonal
}

// Rotate turns p around center by the given angle in radians.
func Rotate(p, center Point, radians float64) Point {
	if radians == 0 {
		return p
	}
	sin, cos := math.Sincos(radians)
	dx := p.X - center.X
	dy := p.Y - center.Y
	return Point{
		X: center.X + dx*cos - dy*sin,
		Y: center.Y + dx*sin + dy*cos,
	}
}

// ============================================================
// Polygons
// ============================================================

// Contains reports whether p lies inside the polygon (ray-crossing rule).
func Contains(polygon []Point, p Point) bool {
	if len(polygon) < 3 {
		return false
	}
	return planar.RingContains(toRing(polygon), orb.Point{p.X, p.Y})
}

// Area returns the unsigned area of a simple polygon.
func Area(polygon []Point) float64 {
	if len(polygon) < 3 {
		return 0
	}
	return math.Abs(planar.Area(toRing(polygon)))
}

// Bounds returns the axis-aligned rectangle containing all points.
func Bounds(points []Point) (geom.Rect, bool) {
	if len(points) == 0 {
		return geom.Rect{}, false
	}

	first := ToCoord(points[0])
	r := geom.Rect{Min: first, Max: first}
	for _, p := range points[1:] {
		c := ToCoord(p)
		r.ExpandToContainRect(geom.Rect{Min: c, Max: c})
	}
	return r, true
}

func ToCoord(p Point) geom.Coord   { return geom.Coord{X: p.X, Y: p.Y} }
func FromCoord(c geom.Coord) Point { return Point{X: c.X, Y: c.Y} }
func ToOrb(p Point) orb.Point      { return orb.Point{p.X, p.Y} }
func FromOrb(p orb.Point) Point    { return Point{X: p[0], Y: p[1]} }

func toRing(polygon []Point) orb.Ring {
	ring := make(orb.Ring, 0, len(polygon)+1)
	for _, p := range polygon {
		ring = append(ring, ToOrb(p))
	}
	if !polygon[0].Equal(polygon[len(polygon)-1]) {
		ring = append(ring, ToOrb(polygon[0]))
	}
	return ring
}
