package geometry

import (
	"math"
	"testing"
)

func almost(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

func TestPointToSegmentDistance(t *testing.T) {
	cases := []struct {
		name string
		p    Point
		want float64
	}{
		{"above middle", Point{50, 10}, 10},
		{"before start", Point{-3, 4}, 5},
		{"after end", Point{103, -4}, 5},
		{"on segment", Point{25, 0}, 0},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := PointToSegmentDistance(tc.p, Point{0, 0}, Point{100, 0})
			if !almost(got, tc.want) {
				t.Fatalf("distance = %v, want %v", got, tc.want)
			}
		})
	}
}

func TestPointToSegmentDistanceDegenerate(t *testing.T) {
	got := PointToSegmentDistance(Point{3, 4}, Point{0, 0}, Point{0, 0})
	if !almost(got, 5) {
		t.Fatalf("distance = %v, want 5", got)
	}
}

func TestSegmentIntersect(t *testing.T) {
	p, ok := SegmentIntersect(Point{0, 0}, Point{10, 10}, Point{0, 10}, Point{10, 0})
	if !ok {
		t.Fatal("expected intersection")
	}
	if !almost(p.X, 5) || !almost(p.Y, 5) {
		t.Fatalf("intersection = %+v, want (5,5)", p)
	}

	if _, ok := SegmentIntersect(Point{0, 0}, Point{10, 0}, Point{0, 1}, Point{10, 1}); ok {
		t.Fatal("parallel segments must not intersect")
	}
	if _, ok := SegmentIntersect(Point{0, 0}, Point{1, 1}, Point{0, 10}, Point{10, 0}); ok {
		t.Fatal("hit outside the first segment must be rejected")
	}
}

func TestSegmentIntersectSymmetry(t *testing.T) {
	pairs := [][4]Point{
		{{0, 0}, {10, 10}, {0, 10}, {10, 0}},
		{{-5, 3}, {20, 7}, {4, -10}, {6, 30}},
		{{1.5, 2.25}, {100, 50}, {30, 0}, {31, 100}},
		{{0, 0}, {100, 0}, {50, -1}, {50, 0}},
	}

	for _, pr := range pairs {
		p1, ok1 := SegmentIntersect(pr[0], pr[1], pr[2], pr[3])
		p2, ok2 := SegmentIntersect(pr[2], pr[3], pr[0], pr[1])
		if ok1 != ok2 {
			t.Fatalf("asymmetric result for %v: %v vs %v", pr, ok1, ok2)
		}
		if ok1 && (!almost(p1.X, p2.X) || !almost(p1.Y, p2.Y)) {
			t.Fatalf("asymmetric point for %v: %+v vs %+v", pr, p1, p2)
		}
	}
}

func TestIntersectWithinSlack(t *testing.T) {
	// Луч заканчивается чуть раньше стены.
	a1, a2 := Point{0, 0}, Point{0.9999999999, 0}
	b1, b2 := Point{1, -1}, Point{1, 1}
	if _, ok := SegmentIntersect(a1, a2, b1, b2); ok {
		t.Fatal("strict intersection should miss")
	}
	if _, ok := IntersectWithin(a1, a2, b1, b2, 1e-9); !ok {
		t.Fatal("slack intersection should hit")
	}
}

func TestClassify(t *testing.T) {
	cases := []struct {
		start, end Point
		want       Orientation
	}{
		{Point{0, 0}, Point{100, 8}, Horizontal},
		{Point{0, 0}, Point{6, 100}, Vertical},
		{Point{0, 0}, Point{50, 50}, Diagonal},
		{Point{0, 0}, Point{5, 5}, Horizontal},
	}
	for _, tc := range cases {
		if got := Classify(tc.start, tc.end); got != tc.want {
			t.Errorf("Classify(%v, %v) = %s, want %s", tc.start, tc.end, got, tc.want)
		}
	}
}

func TestRotate(t *testing.T) {
	p := Rotate(Point{10, 0}, Point{0, 0}, math.Pi/2)
	if !almost(p.X, 0) || !almost(p.Y, 10) {
		t.Fatalf("rotated = %+v, want (0,10)", p)
	}
}

func TestContainsAndArea(t *testing.T) {
	square := []Point{{0, 0}, {10, 0}, {10, 10}, {0, 10}}

	if !Contains(square, Point{5, 5}) {
		t.Fatal("center must be inside")
	}
	if Contains(square, Point{15, 5}) {
		t.Fatal("outside point reported inside")
	}
	if got := Area(square); !almost(got, 100) {
		t.Fatalf("area = %v, want 100", got)
	}
	if got := Area(square[:2]); got != 0 {
		t.Fatalf("degenerate area = %v, want 0", got)
	}
}

func TestBounds(t *testing.T) {
	r, ok := Bounds([]Point{{3, 4}, {-1, 10}, {7, -2}})
	if !ok {
		t.Fatal("expected bounds")
	}
	if r.Min.X != -1 || r.Min.Y != -2 || r.Max.X != 7 || r.Max.Y != 10 {
		t.Fatalf("bounds = %+v", r)
	}
	if _, ok := Bounds(nil); ok {
		t.Fatal("empty input must report false")
	}
}
