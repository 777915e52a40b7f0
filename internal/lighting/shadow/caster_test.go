package shadow

import (
	"math"
	"testing"

	bpmodels "lightplan/internal/blueprint/models"
	"lightplan/internal/geometry"
	"lightplan/internal/lighting/models"
)

func seg(x1, y1, x2, y2 float64) geometry.Segment {
	return geometry.Segment{A: geometry.Point{X: x1, Y: y1}, B: geometry.Point{X: x2, Y: y2}}
}

func box() []geometry.Segment {
	return []geometry.Segment{
		seg(0, 0, 200, 0),
		seg(200, 0, 200, 200),
		seg(200, 200, 0, 200),
		seg(0, 200, 0, 0),
	}
}

func TestCastNoWallsIsCircle(t *testing.T) {
	center := geometry.Point{X: 50, Y: 50}
	poly := Cast(center, 60, nil)

	if len(poly.Vertices) != GridRays {
		t.Fatalf("got %d vertices, want %d", len(poly.Vertices), GridRays)
	}
	for i, v := range poly.Vertices {
		if d := geometry.Distance(center, v); math.Abs(d-60) > 1e-9 {
			t.Fatalf("vertex %d at distance %v", i, d)
		}
	}
	if len(poly.Corners(1e-6)) != GridRays {
		t.Fatal("circle vertices reported as collinear")
	}
}

func TestRayAnglesSortedAndNormalized(t *testing.T) {
	angles := RayAngles(geometry.Point{X: 0, Y: 0}, []geometry.Segment{seg(10, -3, 10, 7)})
	if len(angles) != GridRays+6 {
		t.Fatalf("got %d angles, want %d", len(angles), GridRays+6)
	}
	for i, a := range angles {
		if a < 0 || a >= 2*math.Pi {
			t.Fatalf("angle %d = %v outside [0, 2π)", i, a)
		}
		if i > 0 && a <= angles[i-1] {
			t.Fatalf("angles not strictly increasing at %d", i)
		}
	}
}

func TestBoxRoomHasFourCorners(t *testing.T) {
	poly := Cast(geometry.Point{X: 100, Y: 100}, 400, box())
	corners := poly.Corners(1e-6)

	if len(corners) != 4 {
		t.Fatalf("got %d corners, want 4: %v", len(corners), corners)
	}

	want := []geometry.Point{{X: 0, Y: 0}, {X: 200, Y: 0}, {X: 200, Y: 200}, {X: 0, Y: 200}}
	for _, w := range want {
		found := false
		for _, c := range corners {
			if geometry.Distance(c, w) < 1e-6 {
				found = true
				break
			}
		}
		if !found {
			t.Errorf("corner %v missing from %v", w, corners)
		}
	}

	if a := poly.Area(); math.Abs(a-40000) > 1e-3 {
		t.Fatalf("area = %v, want 40000", a)
	}
}

func TestWallOccludesSamplePoint(t *testing.T) {
	origin := geometry.Point{X: 0, Y: 0}
	sample := geometry.Point{X: 100, Y: 0}

	open := Cast(origin, 150, nil)
	if !open.Contains(sample) {
		t.Fatal("sample not lit without walls")
	}

	blocked := Cast(origin, 150, []geometry.Segment{seg(50, -20, 50, 20)})
	if blocked.Contains(sample) {
		t.Fatal("sample lit behind wall")
	}
	if r := blocked.Reach(sample); r >= geometry.Distance(origin, sample) {
		t.Fatalf("reach toward sample = %v, want < 100", r)
	}
	if r := blocked.Reach(sample); math.Abs(r-50) > 1e-9 {
		t.Fatalf("reach = %v, want 50", r)
	}
}

func TestLightOnWallEndpoint(t *testing.T) {
	walls := []geometry.Segment{seg(0, 0, 100, 0), seg(0, 0, 0, 100)}
	poly := Cast(geometry.Point{X: 0, Y: 0}, 60, walls)

	if len(poly.Vertices) == 0 {
		t.Fatal("no vertices")
	}
	for _, v := range poly.Vertices {
		if math.IsNaN(v.X) || math.IsNaN(v.Y) || math.IsInf(v.X, 0) || math.IsInf(v.Y, 0) {
			t.Fatalf("non-finite vertex %v", v)
		}
	}
	if a := poly.Area(); a > 60*60*math.Pi {
		t.Fatalf("area %v exceeds full disc", a)
	}
}

func TestTriangles(t *testing.T) {
	poly := Cast(geometry.Point{X: 100, Y: 100}, 400, box())
	pts, idx, err := poly.Triangles()
	if err != nil {
		t.Fatal(err)
	}
	if len(pts) != 4 || len(idx) != 6 {
		t.Fatalf("got %d indices for %d points", len(idx), len(pts))
	}
	for _, i := range idx {
		if i < 0 || i >= len(pts) {
			t.Fatalf("index %d out of range", i)
		}
	}
}

func TestSimplified(t *testing.T) {
	poly := Cast(geometry.Point{X: 0, Y: 0}, 100, nil)
	reduced := poly.Simplified(5)
	if len(reduced) >= len(poly.Vertices) || len(reduced) < 3 {
		t.Fatalf("simplified to %d of %d vertices", len(reduced), len(poly.Vertices))
	}
}

func TestComputeIllumination(t *testing.T) {
	walls := []bpmodels.Wall{
		{ID: "w", Start: bpmodels.Point{X: 50, Y: -20}, End: bpmodels.Point{X: 50, Y: 20}},
	}

	f := models.LightFixture{Type: models.Downlight, X: 0, Y: 0, Radius: 60, Size: 1, IsOn: true}
	poly := ComputeIllumination(f, walls)
	if poly.Empty() || poly.Radius != 60 {
		t.Fatalf("poly radius=%v vertices=%d", poly.Radius, len(poly.Vertices))
	}

	f.IsOn = false
	if !ComputeIllumination(f, walls).Empty() {
		t.Fatal("switched off fixture produced light")
	}
}
