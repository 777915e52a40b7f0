// Package shadow casts visibility polygons from a point light against wall
// segments. Walls are tested exhaustively per ray, O(rays × walls).
package shadow

import (
	"math"
	"sort"

	bpmodels "lightplan/internal/blueprint/models"
	"lightplan/internal/geometry"
	"lightplan/internal/lighting/fixtures"
	"lightplan/internal/lighting/models"
)

const (
	GridRays        = 64
	EndpointEpsilon = 0.001 // рад, лучи по обе стороны от конца стены
	cornerSlack     = 1e-9  // луч точно в общий угол двух стен не проскакивает
)

// Segments переводит стены в отрезки для лучей.
func Segments(walls []bpmodels.Wall) []geometry.Segment {
	out := make([]geometry.Segment, 0, len(walls))
	for _, w := range walls {
		out = append(out, w.Segment())
	}
	return out
}

func normalize(a float64) float64 {
	a = math.Mod(a, 2*math.Pi)
	if a < 0 {
		a += 2 * math.Pi
	}
	return a
}

// RayAngles - 64 равномерных угла плюс тройки углов на каждый конец стены,
// отсортированные по возрастанию в [0, 2π) без повторов.
func RayAngles(origin geometry.Point, walls []geometry.Segment) []float64 {
	angles := make([]float64, 0, GridRays+6*len(walls))
	for i := 0; i < GridRays; i++ {
		angles = append(angles, float64(i)/GridRays*2*math.Pi)
	}

	for _, w := range walls {
		for _, end := range [2]geometry.Point{w.A, w.B} {
			a := geometry.Angle(origin, end)
			angles = append(angles,
				normalize(a-EndpointEpsilon),
				normalize(a),
				normalize(a+EndpointEpsilon))
		}
	}

	sort.Float64s(angles)

	out := angles[:0]
	for i, a := range angles {
		if i > 0 && a == out[len(out)-1] {
			continue
		}
		out = append(out, a)
	}
	return out
}

// Cast пускает лучи из origin и обрезает каждый ближайшей стеной.
func Cast(origin geometry.Point, radius float64, walls []geometry.Segment) Polygon {
	angles := RayAngles(origin, walls)
	poly := Polygon{
		Origin:   origin,
		Radius:   radius,
		Angles:   angles,
		Vertices: make([]geometry.Point, len(angles)),
	}

	for i, a := range angles {
		sin, cos := math.Sincos(a)
		end := geometry.Point{X: origin.X + cos*radius, Y: origin.Y + sin*radius}
		best := radius

		for _, w := range walls {
			hit, ok := geometry.IntersectWithin(origin, end, w.A, w.B, cornerSlack)
			if !ok {
				continue
			}
			if d := geometry.Distance(origin, hit); d < best {
				best = d
				end = hit
			}
		}
		poly.Vertices[i] = end
	}
	return poly
}

// ComputeIllumination - полигон видимости основного излучателя светильника.
// Выключенный светильник не светит: пустой полигон.
func ComputeIllumination(f models.LightFixture, walls []bpmodels.Wall) Polygon {
	if !f.IsOn {
		return Polygon{Origin: f.Position()}
	}
	return Cast(f.Position(), fixtures.ShadowRadius(f), Segments(walls))
}
