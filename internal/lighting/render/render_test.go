package render

import (
	"bytes"
	"context"
	"errors"
	"image/png"
	"math"
	"strings"
	"testing"

	bpmodels "lightplan/internal/blueprint/models"
	"lightplan/internal/geometry"
	"lightplan/internal/lighting/models"
)

func wall(id string, x1, y1, x2, y2 float64) bpmodels.Wall {
	return bpmodels.Wall{ID: id, Start: geometry.Point{X: x1, Y: y1}, End: geometry.Point{X: x2, Y: y2}}
}

// box - комната 400x300; в кадре 600x500 масштаб 1 и смещение (100, 100).
func box() []bpmodels.Wall {
	return []bpmodels.Wall{
		wall("top", 0, 0, 400, 0),
		wall("right", 400, 0, 400, 300),
		wall("bottom", 400, 300, 0, 300),
		wall("left", 0, 300, 0, 0),
	}
}

func fixture(t models.FixtureType, x, y, radius float64) models.LightFixture {
	return models.LightFixture{
		ID: string(t), Type: t, X: x, Y: y, Intensity: 100, Color: "#ffffff",
		Radius: radius, IsOn: true, Size: 1,
	}
}

func state(walls []bpmodels.Wall, fx ...models.LightFixture) FrameState {
	return FrameState{
		Scene:      models.Scene{Walls: walls, Fixtures: fx},
		Width:      600,
		Height:     500,
		HideLabels: true,
	}
}

func TestFit(t *testing.T) {
	tests := []struct {
		name  string
		walls []bpmodels.Wall
		w, h  int
		want  Transform
	}{
		{"no walls", nil, 600, 500, Transform{Scale: 1}},
		{"exact fit", box(), 600, 500, Transform{Scale: 1, OffsetX: 100, OffsetY: 100}},
		{"height bound", box(), 1200, 900, Transform{Scale: 7.0 / 3, OffsetX: 400.0 / 3, OffsetY: 100}},
		{"single horizontal", []bpmodels.Wall{wall("w", 0, 0, 100, 0)}, 600, 500, Transform{Scale: 4, OffsetX: 100, OffsetY: 250}},
		{"frame smaller than padding", box(), 150, 150, Transform{Scale: 1.0 / 400, OffsetX: 74.5, OffsetY: 74.625}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Fit(tt.walls, tt.w, tt.h)
			if math.Abs(got.Scale-tt.want.Scale) > 1e-9 ||
				math.Abs(got.OffsetX-tt.want.OffsetX) > 1e-9 ||
				math.Abs(got.OffsetY-tt.want.OffsetY) > 1e-9 {
				t.Errorf("Fit = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestTransformInvert(t *testing.T) {
	tr := Transform{Scale: 2.5, OffsetX: 10, OffsetY: -4}
	p := geometry.Point{X: 33, Y: 71}
	back := tr.Invert(tr.Apply(p))
	if math.Abs(back.X-p.X) > 1e-9 || math.Abs(back.Y-p.Y) > 1e-9 {
		t.Fatalf("round trip = %+v", back)
	}
}

func TestRenderWallsAndBackground(t *testing.T) {
	out := Render(state(box()))
	img := out.Image

	if img.Bounds().Dx() != 600 || img.Bounds().Dy() != 500 {
		t.Fatalf("frame size = %v", img.Bounds())
	}
	if c := img.RGBAAt(300, 100); c.R < 250 || c.G < 250 || c.B < 250 {
		t.Fatalf("wall pixel = %+v", c)
	}
	if c := img.RGBAAt(5, 5); c.A != 255 || c.R > 64 {
		t.Fatalf("background pixel = %+v", c)
	}
	if out.ID == "" {
		t.Fatal("frame id not set")
	}

	bright := state(box())
	bright.Scene.AmbientLevel = 100
	lit := Render(bright).Image.RGBAAt(5, 5)
	dark := img.RGBAAt(5, 5)
	if int(lit.R)+int(lit.G)+int(lit.B) <= int(dark.R)+int(dark.G)+int(dark.B) {
		t.Fatalf("ambient 100 not brighter: %+v vs %+v", lit, dark)
	}
}

func TestRenderOcclusion(t *testing.T) {
	walls := append(box(), wall("divider", 200, 50, 200, 250))
	base := Render(state(walls)).Image
	out := Render(state(walls, fixture(models.Downlight, 150, 150, 120)))

	if len(out.Illuminations) != 1 || len(out.Illuminations[0].Emitters) != 1 {
		t.Fatalf("illuminations = %+v", out.Illuminations)
	}

	// (175, 150) перед перегородкой
	front, before := out.Image.RGBAAt(275, 250), base.RGBAAt(275, 250)
	if int(front.R) < int(before.R)+100 {
		t.Fatalf("front pixel not lit: %+v vs %+v", front, before)
	}

	// (230, 150) за перегородкой, но в пределах радиуса
	if got, want := out.Image.RGBAAt(330, 250), base.RGBAAt(330, 250); got != want {
		t.Fatalf("shadowed pixel changed: %+v vs %+v", got, want)
	}
}

func TestRenderConeClip(t *testing.T) {
	base := Render(state(box())).Image
	out := Render(state(box(), fixture(models.AdjustableSpotType6, 150, 150, 60))).Image

	ahead, aheadBase := out.RGBAAt(280, 250), base.RGBAAt(280, 250)
	if int(ahead.R) < int(aheadBase.R)+50 {
		t.Fatalf("pixel ahead of cone not lit: %+v", ahead)
	}
	if got, want := out.RGBAAt(220, 250), base.RGBAAt(220, 250); got != want {
		t.Fatalf("pixel behind cone changed: %+v vs %+v", got, want)
	}
}

func TestRenderSwitchedOff(t *testing.T) {
	f := fixture(models.Downlight, 150, 150, 120)
	f.IsOn = false

	base := Render(state(box())).Image
	out := Render(state(box(), f))
	if len(out.Illuminations[0].Emitters) != 0 {
		t.Fatal("switched off fixture has emitters")
	}
	if got, want := out.Image.RGBAAt(290, 250), base.RGBAAt(290, 250); got != want {
		t.Fatalf("switched off fixture lit the room: %+v vs %+v", got, want)
	}
}

func TestRenderDeterministicAcrossWorkers(t *testing.T) {
	st := state(box(),
		fixture(models.Downlight, 100, 100, 80),
		fixture(models.GimbelSpot, 300, 200, 80),
		fixture(models.LaserBlade, 200, 50, 60),
		fixture(models.WallWasherSpot, 50, 250, 60),
	)

	one, err := New(1).Render(context.Background(), st)
	if err != nil {
		t.Fatal(err)
	}
	many, err := New(8).Render(context.Background(), st)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(one.Image.Pix, many.Image.Pix) {
		t.Fatal("frames differ between worker counts")
	}
}

func TestRenderCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := New(2).Render(ctx, state(box(), fixture(models.Downlight, 100, 100, 60), fixture(models.Downlight, 200, 100, 60)))
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v, want context.Canceled", err)
	}
}

func TestWallLabel(t *testing.T) {
	sixty := 60.0
	px126 := 126.0

	tests := []struct {
		name string
		wall bpmodels.Wall
		rec  bpmodels.CalibrationRecord
		want string
	}{
		{"calibrated", bpmodels.Wall{RealLength: &sixty, End: geometry.Point{X: 50}}, bpmodels.CalibrationRecord{IsCalibrated: true, PixelsPerInch: 0.8333, MeasurementUnit: bpmodels.Feet}, `5'0"`},
		{"estimate", bpmodels.Wall{PixelLength: &px126}, bpmodels.CalibrationRecord{}, `~5'3"`},
		{"estimate under a foot", bpmodels.Wall{End: geometry.Point{X: 12}}, bpmodels.CalibrationRecord{}, `~6"`},
		{"zero length", bpmodels.Wall{}, bpmodels.CalibrationRecord{}, `0'0"`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := WallLabel(tt.wall, tt.rec); got != tt.want {
				t.Errorf("WallLabel = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestSVG(t *testing.T) {
	svg := SVG(state(box(),
		fixture(models.AdjustableSpotType6, 150, 150, 60),
		fixture(models.Downlight, 300, 150, 60),
	))

	for _, want := range []string{"<svg", `<radialGradient id="glow-0-0"`, `clip-path="url(#clip-0)"`, `id="glow-1-0"`, "translate(100 100) scale(1)"} {
		if !strings.Contains(svg, want) {
			t.Errorf("svg missing %q", want)
		}
	}
	if strings.Contains(svg, "clip-1") {
		t.Error("radial fixture got a clip path")
	}
	if n := strings.Count(svg, "<line"); n != 4 {
		t.Errorf("got %d wall lines", n)
	}
}

func TestEncodePNG(t *testing.T) {
	out := Render(state(box()))

	var buf bytes.Buffer
	if err := EncodePNG(&buf, out.Image); err != nil {
		t.Fatal(err)
	}
	img, err := png.Decode(&buf)
	if err != nil {
		t.Fatal(err)
	}
	if img.Bounds() != out.Image.Bounds() {
		t.Fatalf("decoded bounds = %v", img.Bounds())
	}
}
