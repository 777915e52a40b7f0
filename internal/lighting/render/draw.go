package render

import (
	"fmt"
	"image"
	"image/color"
	"math"

	"lightplan/internal/blueprint/calibration"
	bpmodels "lightplan/internal/blueprint/models"
	"lightplan/internal/geometry"
	"lightplan/internal/lighting/fixtures"
	"lightplan/internal/lighting/glow"
	"lightplan/internal/lighting/models"
	"lightplan/internal/lighting/position"
)

var (
	white      = color.RGBA{255, 255, 255, 255}
	magenta    = color.RGBA{255, 0, 255, 255}
	blue       = color.RGBA{0, 0, 255, 255}
	offGrey    = color.RGBA{102, 102, 102, 255}
	selectCyan = color.RGBA{0, 188, 212, 255}
	leaderRed  = color.RGBA{255, 107, 107, 255}
)

const (
	wallWidth     = 3.0
	pixelsPerFoot = 24.0 // 96 dpi при масштабе 1:4
)

// ============================================================
// Blueprint
// ============================================================

func drawWalls(img *image.RGBA, walls []bpmodels.Wall, t Transform) {
	for _, w := range walls {
		strokeLine(img, t.Apply(w.Start), t.Apply(w.End), wallWidth, white)
	}
}

// WallLabel - подпись стены в кадре освещения. Без калибровки длина
// оценивается как 24 px на фут: ~5'3".
func WallLabel(w bpmodels.Wall, rec bpmodels.CalibrationRecord) string {
	if rec.Calibrated() && w.RealLength != nil && *w.RealLength > 0 {
		unit := rec.MeasurementUnit
		if unit == "" {
			unit = bpmodels.Feet
		}
		return calibration.FormatMeasurement(*w.RealLength, unit)
	}

	px := w.Length()
	if w.PixelLength != nil {
		px = *w.PixelLength
	}
	if px <= 0 {
		return `0'0"`
	}

	est := px / pixelsPerFoot
	feet := math.Floor(est)
	inches := math.Floor((est-feet)*12 + 0.5)
	if feet > 0 {
		return fmt.Sprintf("~%d'%d\"", int(feet), int(inches))
	}
	return fmt.Sprintf("~%d\"", int(inches))
}

func drawWallLabels(img *image.RGBA, walls []bpmodels.Wall, rec bpmodels.CalibrationRecord, t Transform) {
	for _, w := range walls {
		mid := t.Apply(geometry.Midpoint(w.Start, w.End))
		text(img, WallLabel(w, rec), mid.X, mid.Y-8, white)
	}
}

func drawRoomLabels(img *image.RGBA, labels []bpmodels.RoomLabel, t Transform) {
	for _, l := range labels {
		p := t.Apply(geometry.Point{X: l.X, Y: l.Y})
		text(img, l.Text, p.X, p.Y, white)
	}
}

func drawFurniture(img *image.RGBA, items []bpmodels.Furniture, t Transform) {
	for _, f := range items {
		hex := f.Color
		if hex == "" {
			hex = "#3a3a3a"
		}
		c := glow.ParseColor(hex)
		pts := rotated(rect(f.X, f.Y, f.Width, f.Height), geometry.Point{X: f.X, Y: f.Y}, f.Rotation*math.Pi/180)
		fill(img, c, t.ApplyAll(pts))
	}
}

// ============================================================
// Fixtures
// ============================================================

// drawIcon рисует условное обозначение в пикселях кадра; размер не зависит от масштаба плана.
func drawIcon(img *image.RGBA, f models.LightFixture, t Transform) {
	c := t.Apply(f.Position())
	s := f.Scale()
	rot := f.DirectionDegrees() * math.Pi / 180

	col := color.Color(magenta)
	if !f.IsOn {
		col = offGrey
	}

	shape := fixtures.IconDisc
	if spec, ok := fixtures.Lookup(f.Type); ok {
		shape = spec.Icon
	}

	switch shape {
	case fixtures.IconRing:
		ring(img, c, 10*s, 6*s, col)
	case fixtures.IconRingDot:
		fill(img, col, circle(c, 6*s))
		ring(img, c, 10*s, 9*s, white)
	case fixtures.IconHalf:
		fill(img, col, rotated(arc(c, 10*s, -math.Pi, 0, 16), c, rot))
	case fixtures.IconWedge:
		pts := append([]geometry.Point{c}, arc(c, 12*s, -math.Pi/4, math.Pi/4, 8)...)
		fill(img, col, rotated(pts, c, rot))
	case fixtures.IconBar:
		fill(img, col, rotated(rect(c.X, c.Y, 40*s, 6*s), c, rot))
	case fixtures.IconTwin:
		for _, dx := range []float64{-5 * s, 5 * s} {
			p := geometry.Rotate(geometry.Point{X: c.X + dx, Y: c.Y}, c, rot)
			fill(img, col, circle(p, 4*s))
		}
	case fixtures.IconSquare:
		fill(img, col, rotated(rect(c.X, c.Y, 16*s, 16*s), c, rot))
	case fixtures.IconLamp:
		if f.IsOn {
			col = blue
		}
		fill(img, col, circle(c, 20*s))
		strokeLine(img, geometry.Point{X: c.X, Y: c.Y - 20*s}, geometry.Point{X: c.X, Y: c.Y + 20*s}, 2, white)
		strokeLine(img, geometry.Point{X: c.X - 20*s, Y: c.Y}, geometry.Point{X: c.X + 20*s, Y: c.Y}, 2, white)
	default:
		fill(img, col, circle(c, 8*s))
	}
}

// drawSelection - пунктирная рамка и линии до ближайших стен с расстояниями.
func drawSelection(img *image.RGBA, f models.LightFixture, scene models.Scene, t Transform) {
	c := t.Apply(f.Position())
	half := fixtures.HitRadius * f.Scale()
	box := rect(c.X, c.Y, 2*half, 2*half)
	for i := range box {
		dashedLine(img, box[i], box[(i+1)%len(box)], 2, 5, selectCyan)
	}

	r := position.Compute(f, scene.Walls, scene.Calibration)
	for i, wd := range []*position.WallDistance{r.Horizontal, r.Vertical} {
		if wd == nil {
			continue
		}
		foot := t.Apply(wd.Foot)
		dashedLine(img, c, foot, 1, 3, leaderRed)

		mid := geometry.Midpoint(c, foot)
		dy := -5.0
		if i == 1 {
			dy = 15
		}
		text(img, wd.Label, mid.X, mid.Y+dy, leaderRed)
	}
}
