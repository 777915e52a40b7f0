package walls

import (
	"errors"
	"math"
	"testing"

	"lightplan/internal/blueprint/models"
)

func pt(x, y float64) models.Point { return models.Point{X: x, Y: y} }

func near(a, b models.Point) bool {
	return math.Abs(a.X-b.X) < 1e-9 && math.Abs(a.Y-b.Y) < 1e-9
}

func TestAddRejectsDegenerate(t *testing.T) {
	m := New()
	if _, err := m.Add(pt(5, 5), pt(5, 5)); !errors.Is(err, ErrDegenerateWall) {
		t.Fatalf("err = %v, want ErrDegenerateWall", err)
	}
	if m.Len() != 0 {
		t.Fatalf("model has %d walls after degenerate add", m.Len())
	}
}

func TestAddAssignsUniqueIDs(t *testing.T) {
	m := New()
	a, _ := m.Add(pt(0, 0), pt(10, 0))
	b, _ := m.Add(pt(0, 0), pt(0, 10))
	if a.ID != "wall-0" || b.ID != "wall-1" {
		t.Fatalf("ids = %s, %s", a.ID, b.ID)
	}

	if err := m.Remove("wall-0"); err != nil {
		t.Fatal(err)
	}
	c, _ := m.Add(pt(1, 1), pt(2, 2))
	if c.ID == "wall-1" {
		t.Fatal("id collided with existing wall")
	}
	if c.ID != "wall-2" {
		t.Fatalf("id = %s, want wall-2", c.ID)
	}
}

func TestMovePreservesLength(t *testing.T) {
	m := New()
	w, _ := m.Add(pt(0, 0), pt(30, 40))

	moved, err := m.Move(w.ID, pt(5, -5))
	if err != nil {
		t.Fatal(err)
	}
	if !near(moved.Start, pt(5, -5)) || !near(moved.End, pt(35, 35)) {
		t.Fatalf("moved = %v -> %v", moved.Start, moved.End)
	}
	if moved.Length() != 50 {
		t.Fatalf("length = %v", moved.Length())
	}
}

func TestResizeKeepsStartAndDirection(t *testing.T) {
	m := New()
	w, _ := m.Add(pt(10, 10), pt(40, 50))

	resized, err := m.Resize(w.ID, 100)
	if err != nil {
		t.Fatal(err)
	}
	if !near(resized.Start, pt(10, 10)) || !near(resized.End, pt(70, 90)) {
		t.Fatalf("resized = %v -> %v", resized.Start, resized.End)
	}

	if _, err := m.Resize(w.ID, -1); err == nil {
		t.Fatal("expected error for negative length")
	}
	if _, err := m.Resize("nope", 10); !errors.Is(err, ErrWallNotFound) {
		t.Fatalf("err = %v", err)
	}
}

func TestResizeToCalibrated(t *testing.T) {
	m := New()
	ref, _ := m.Add(pt(0, 0), pt(100, 0))
	other, _ := m.Add(pt(0, 0), pt(0, 10))

	if _, err := m.Calibrate(ref.ID, 10, models.Feet); err != nil {
		t.Fatal(err)
	}

	resized, err := m.ResizeTo(other.ID, 5, models.Feet)
	if err != nil {
		t.Fatal(err)
	}
	if !near(resized.End, pt(0, 50)) {
		t.Fatalf("end = %v, want (0,50)", resized.End)
	}
	if resized.Measurement != `5'0"` {
		t.Fatalf("measurement = %q", resized.Measurement)
	}
}

func TestRotateToggles(t *testing.T) {
	m := New()
	w, _ := m.Add(pt(0, 0), pt(100, 0))

	v, _ := m.Rotate(w.ID)
	if !near(v.Start, pt(50, -50)) || !near(v.End, pt(50, 50)) {
		t.Fatalf("vertical = %v -> %v", v.Start, v.End)
	}

	h, _ := m.Rotate(w.ID)
	if !near(h.Start, pt(0, 0)) || !near(h.End, pt(100, 0)) {
		t.Fatalf("horizontal = %v -> %v", h.Start, h.End)
	}
}

func TestSnapPoint(t *testing.T) {
	m := New()
	m.Add(pt(100, 100), pt(200, 100))
	m.Add(pt(300, 300), pt(310, 300))

	if got := m.SnapPoint(pt(108, 104)); !near(got, pt(100, 100)) {
		t.Fatalf("endpoint snap = %v", got)
	}
	if got := m.SnapPoint(pt(302, 301)); !near(got, pt(300, 300)) {
		t.Fatalf("nearest endpoint = %v, want (300,300)", got)
	}
	if got := m.SnapPoint(pt(52.4, 48.6)); !near(got, pt(50, 50)) {
		t.Fatalf("grid snap = %v", got)
	}

	m.SnapToGrid = false
	if got := m.SnapPoint(pt(52.4, 48.6)); !near(got, pt(52.4, 48.6)) {
		t.Fatalf("no grid = %v", got)
	}
}

func TestFindAt(t *testing.T) {
	m := New()
	w, _ := m.Add(pt(0, 0), pt(100, 0))

	if got, ok := m.FindAt(pt(50, 9)); !ok || got.ID != w.ID {
		t.Fatalf("FindAt near wall = %v, %v", got.ID, ok)
	}
	if _, ok := m.FindAt(pt(50, 11)); ok {
		t.Fatal("FindAt matched beyond tolerance")
	}
}

func TestUndoAndClear(t *testing.T) {
	m := New()
	ref, _ := m.Add(pt(0, 0), pt(100, 0))
	m.Add(pt(0, 0), pt(0, 100))
	m.Calibrate(ref.ID, 10, models.Feet)

	if !m.Undo() || m.Len() != 1 {
		t.Fatalf("undo left %d walls", m.Len())
	}

	m.Clear()
	if m.Len() != 0 || m.Calibration().Calibrated() {
		t.Fatal("clear kept state")
	}
	if m.Undo() {
		t.Fatal("undo on empty model")
	}
}

func TestExitScaleMode(t *testing.T) {
	m := New()
	ref, _ := m.Add(pt(0, 0), pt(100, 0))
	m.Calibrate(ref.ID, 10, models.Feet)
	m.ExitScaleMode()

	w, _ := m.Get(ref.ID)
	if w.RealLength != nil || m.Calibration().Calibrated() {
		t.Fatal("scale mode not cleared")
	}
}

func TestConnected(t *testing.T) {
	m := New()
	m.Add(pt(0, 0), pt(100, 0))
	m.Add(pt(100, 0), pt(100, 100))
	m.Add(pt(5, 5), pt(50, 50))

	ids := m.Connected(pt(100, 0))
	if len(ids) != 2 {
		t.Fatalf("connected = %v", ids)
	}
}

func TestFromBlueprintSkipsDegenerate(t *testing.T) {
	ppi := 2.0
	m := FromBlueprint(models.Blueprint{
		Walls: []models.Wall{
			{ID: "wall-0", Start: pt(0, 0), End: pt(48, 0)},
			{ID: "wall-1", Start: pt(7, 7), End: pt(7, 7)},
			{ID: "wall-0", Start: pt(0, 0), End: pt(0, 10)},
		},
		Calibration: models.CalibrationRecord{IsCalibrated: true, PixelsPerInch: ppi, MeasurementUnit: models.Feet},
	})

	if m.Len() != 1 {
		t.Fatalf("walls = %+v", m.Walls())
	}
	w, err := m.Get("wall-0")
	if err != nil {
		t.Fatal(err)
	}
	if w.RealLength == nil || *w.RealLength != 24 {
		t.Fatalf("real length = %v", w.RealLength)
	}
}
