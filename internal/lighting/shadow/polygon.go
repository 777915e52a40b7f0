package shadow

import (
	"fmt"
	"math"

	"lightplan/internal/geometry"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/simplify"
	"github.com/rclancey/earcut"
)

// ============================================================
// Visibility polygon
// ============================================================

// Polygon - веер концов лучей вокруг Origin в порядке возрастания угла.
type Polygon struct {
	Origin   geometry.Point   `json:"origin"`
	Radius   float64          `json:"radius"`
	Angles   []float64        `json:"-"`
	Vertices []geometry.Point `json:"vertices"`
}

func (p Polygon) Empty() bool { return len(p.Vertices) < 3 }

func (p Polygon) Area() float64 { return geometry.Area(p.Vertices) }

func (p Polygon) Contains(pt geometry.Point) bool { return geometry.Contains(p.Vertices, pt) }

// Reach - длина луча, ближайшего по углу к направлению на pt.
func (p Polygon) Reach(pt geometry.Point) float64 {
	if len(p.Vertices) == 0 {
		return 0
	}
	target := normalize(geometry.Angle(p.Origin, pt))

	best, bestDiff := 0, math.Inf(1)
	for i, a := range p.Angles {
		diff := math.Abs(a - target)
		diff = math.Min(diff, 2*math.Pi-diff)
		if diff < bestDiff {
			best, bestDiff = i, diff
		}
	}
	return geometry.Distance(p.Origin, p.Vertices[best])
}

// dedupe убирает подряд идущие совпадающие вершины (по кругу).
func dedupe(pts []geometry.Point, tol float64) []geometry.Point {
	out := make([]geometry.Point, 0, len(pts))
	for _, v := range pts {
		if len(out) > 0 && geometry.Distance(out[len(out)-1], v) <= tol {
			continue
		}
		out = append(out, v)
	}
	for len(out) > 1 && geometry.Distance(out[0], out[len(out)-1]) <= tol {
		out = out[:len(out)-1]
	}
	return out
}

// Corners возвращает вершины, где контур меняет направление.
// tol - синус угла излома, ниже которого вершина считается лежащей на прямой.
func (p Polygon) Corners(tol float64) []geometry.Point {
	pts := dedupe(p.Vertices, 1e-9)
	n := len(pts)
	if n < 3 {
		return pts
	}

	var out []geometry.Point
	for i := range pts {
		a := pts[(i+n-1)%n]
		b := pts[i]
		c := pts[(i+1)%n]

		ab := b.Sub(a)
		bc := c.Sub(b)
		cross := ab.X*bc.Y - ab.Y*bc.X
		if math.Abs(cross) <= tol*geometry.Distance(a, b)*geometry.Distance(b, c) {
			continue
		}
		out = append(out, b)
	}
	return out
}

// Triangles разбивает полигон на треугольники (earcut).
// Индексы указывают в возвращаемый срез вершин.
func (p Polygon) Triangles() ([]geometry.Point, []int, error) {
	pts := p.Corners(1e-9)
	if len(pts) < 3 {
		return pts, nil, nil
	}

	coords := make([]float64, 0, len(pts)*2)
	for _, v := range pts {
		coords = append(coords, v.X, v.Y)
	}

	idx, err := earcut.Earcut(coords, nil, 2)
	if err != nil {
		return nil, nil, fmt.Errorf("triangulate light polygon: %w", err)
	}
	return pts, idx, nil
}

// Simplified сокращает контур для экспорта (Дуглас-Пекер, orb).
func (p Polygon) Simplified(tolerance float64) []geometry.Point {
	if p.Empty() {
		return p.Vertices
	}

	ring := make(orb.Ring, 0, len(p.Vertices)+1)
	for _, v := range p.Vertices {
		ring = append(ring, geometry.ToOrb(v))
	}
	ring = append(ring, ring[0])

	reduced, ok := simplify.DouglasPeucker(tolerance).Simplify(ring.Clone()).(orb.Ring)
	if !ok || len(reduced) < 4 {
		return p.Vertices
	}

	out := make([]geometry.Point, 0, len(reduced)-1)
	for _, v := range reduced[:len(reduced)-1] {
		out = append(out, geometry.FromOrb(v))
	}
	return out
}
