// Package glow turns a fixture into emitters, clip regions and gradient
// stops. Visibility comes from the shadow package; this package only decides
// where light is allowed to land and how it fades.
package glow

import (
	"image/color"
	"log"
	"math"
	"strings"

	"lightplan/internal/geometry"
	"lightplan/internal/lighting/fixtures"
	"lightplan/internal/lighting/models"
	"lightplan/internal/lighting/shadow"

	"github.com/lucasb-eyer/go-colorful"
)

// ============================================================
// Clip regions
// ============================================================

type ClipKind string

const (
	ClipNone       ClipKind = "none"
	ClipSemicircle ClipKind = "semicircle"
	ClipWedge      ClipKind = "wedge"
	ClipRect       ClipKind = "rect"
)

const (
	wedgeHalfAngle = math.Pi / 4
	arcSteps       = 48
)

// Clip - область, в которую допускается свет. Углы в радианах уже с учётом поворота.
type Clip struct {
	Kind     ClipKind       `json:"kind"`
	Center   geometry.Point `json:"center"`
	Radius   float64        `json:"radius,omitempty"`
	From     float64        `json:"from,omitempty"`
	To       float64        `json:"to,omitempty"`
	Width    float64        `json:"width,omitempty"`
	Height   float64        `json:"height,omitempty"`
	Rotation float64        `json:"rotation"`
}

// Outline - многоугольник области отсечения; для ClipNone пусто.
func (c Clip) Outline() []geometry.Point {
	switch c.Kind {
	case ClipSemicircle:
		return arc(c.Center, c.Radius, c.From, c.To)
	case ClipWedge:
		return append([]geometry.Point{c.Center}, arc(c.Center, c.Radius, c.From, c.To)...)
	case ClipRect:
		x, y := c.Center.X, c.Center.Y
		corners := []geometry.Point{
			{X: x - c.Width/2, Y: y},
			{X: x + c.Width/2, Y: y},
			{X: x + c.Width/2, Y: y + c.Height},
			{X: x - c.Width/2, Y: y + c.Height},
		}
		for i, p := range corners {
			corners[i] = geometry.Rotate(p, c.Center, c.Rotation)
		}
		return corners
	}
	return nil
}

func arc(center geometry.Point, r, from, to float64) []geometry.Point {
	pts := make([]geometry.Point, 0, arcSteps+1)
	for i := 0; i <= arcSteps; i++ {
		a := from + (to-from)*float64(i)/arcSteps
		sin, cos := math.Sincos(a)
		pts = append(pts, geometry.Point{X: center.X + cos*r, Y: center.Y + sin*r})
	}
	return pts
}

// Contains проверяет точку аналитически, в системе координат до поворота.
func (c Clip) Contains(p geometry.Point) bool {
	if c.Kind == ClipNone {
		return true
	}

	local := geometry.Rotate(p, c.Center, -c.Rotation)
	dx := local.X - c.Center.X
	dy := local.Y - c.Center.Y

	switch c.Kind {
	case ClipRect:
		return dx >= -c.Width/2 && dx <= c.Width/2 && dy >= 0 && dy <= c.Height
	case ClipSemicircle, ClipWedge:
		if math.Hypot(dx, dy) > c.Radius {
			return false
		}
		if dx == 0 && dy == 0 {
			return true
		}
		a := math.Atan2(dy, dx)
		from, to := c.From-c.Rotation, c.To-c.Rotation
		return a >= from-1e-12 && a <= to+1e-12
	}
	return true
}

// ============================================================
// Gradient
// ============================================================

type Stop struct {
	Offset float64 `json:"offset"`
	Color  string  `json:"color"` // #rrggbbaa
	Alpha  uint8   `json:"alpha"`
}

// Gradient - радиальный градиент: альфа intensity*2.55 в центре,
// intensity*1.28 на середине радиуса, 0 на краю.
type Gradient struct {
	Center geometry.Point `json:"center"`
	Radius float64        `json:"radius"`
	Stops  []Stop         `json:"stops"`
	Base   colorful.Color `json:"-"`
}

func jsRound(v float64) float64 { return math.Floor(v + 0.5) }

// ParseColor понимает #rgb и #rrggbb; ошибка даёт белый.
func ParseColor(s string) colorful.Color {
	s = strings.TrimSpace(s)
	if len(s) == 4 && s[0] == '#' {
		s = "#" + strings.Repeat(s[1:2], 2) + strings.Repeat(s[2:3], 2) + strings.Repeat(s[3:4], 2)
	}
	if len(s) == 9 && s[0] == '#' {
		s = s[:7]
	}

	c, err := colorful.Hex(s)
	if err != nil {
		log.Printf("[GLOW] Bad fixture colour %q, using white: %v", s, err)
		return colorful.Color{R: 1, G: 1, B: 1}
	}
	return c
}

func NewGradient(center geometry.Point, radius float64, hex string, intensity float64) Gradient {
	intensity = math.Max(0, math.Min(100, intensity))
	base := ParseColor(hex)

	alphas := []struct {
		offset float64
		alpha  uint8
	}{
		{0, uint8(jsRound(intensity * 2.55))},
		{0.5, uint8(jsRound(intensity * 1.28))},
		{1, 0},
	}

	stops := make([]Stop, len(alphas))
	for i, a := range alphas {
		stops[i] = Stop{Offset: a.offset, Alpha: a.alpha, Color: base.Hex() + hex2(a.alpha)}
	}

	return Gradient{Center: center, Radius: radius, Stops: stops, Base: base}
}

func hex2(v uint8) string {
	const digits = "0123456789abcdef"
	return string([]byte{digits[v>>4], digits[v&0x0f]})
}

// AlphaAt - альфа (0..1) на расстоянии d от центра, линейно между стопами.
func (g Gradient) AlphaAt(d float64) float64 {
	if g.Radius <= 0 || len(g.Stops) == 0 {
		return 0
	}
	t := d / g.Radius
	if t <= g.Stops[0].Offset {
		return float64(g.Stops[0].Alpha) / 255
	}
	for i := 1; i < len(g.Stops); i++ {
		prev, next := g.Stops[i-1], g.Stops[i]
		if t <= next.Offset {
			k := (t - prev.Offset) / (next.Offset - prev.Offset)
			return (float64(prev.Alpha) + (float64(next.Alpha)-float64(prev.Alpha))*k) / 255
		}
	}
	return float64(g.Stops[len(g.Stops)-1].Alpha) / 255
}

// At - цвет градиента в точке, неумноженная альфа.
func (g Gradient) At(p geometry.Point) color.NRGBA {
	r, gg, b := g.Base.RGB255()
	a := g.AlphaAt(geometry.Distance(g.Center, p))
	return color.NRGBA{R: r, G: gg, B: b, A: uint8(jsRound(a * 255))}
}

// ============================================================
// Emitters
// ============================================================

type Emitter struct {
	Origin   geometry.Point `json:"origin"`
	Radius   float64        `json:"radius"`
	Polygon  shadow.Polygon `json:"polygon"`
	Gradient Gradient       `json:"gradient"`
}

// Illumination - всё, что нужно для отрисовки света одного светильника.
type Illumination struct {
	FixtureID string             `json:"fixtureId"`
	Type      models.FixtureType `json:"type"`
	Family    models.Family      `json:"family"`
	Clip      Clip               `json:"clip"`
	Emitters  []Emitter          `json:"emitters"`
}

// Lit проверяет, попадает ли свет хотя бы одного излучателя в точку.
func (il Illumination) Lit(p geometry.Point) bool {
	if !il.Clip.Contains(p) {
		return false
	}
	for _, e := range il.Emitters {
		if geometry.Distance(e.Origin, p) <= e.Radius && e.Polygon.Contains(p) {
			return true
		}
	}
	return false
}

// ClipFor строит область отсечения по семейству светильника.
func ClipFor(f models.LightFixture) Clip {
	pos := f.Position()
	rot := f.DirectionDegrees() * math.Pi / 180
	r := f.Radius * f.Scale()

	switch fixtures.FamilyOf(f.Type) {
	case models.Semicircle:
		return Clip{Kind: ClipSemicircle, Center: pos, Radius: r, From: -math.Pi + rot, To: rot, Rotation: rot}
	case models.Cone:
		return Clip{Kind: ClipWedge, Center: pos, Radius: r, From: -wedgeHalfAngle + rot, To: wedgeHalfAngle + rot, Rotation: rot}
	case models.Rectangle:
		return Clip{Kind: ClipRect, Center: pos, Width: fixtures.RectWidth(f) * f.Scale(), Height: r, Rotation: rot}
	}
	return Clip{Kind: ClipNone, Center: pos, Rotation: rot}
}

// Illuminate считает излучатели, их полигоны видимости и градиенты.
// Стены не поворачиваются вместе со светильником.
func Illuminate(f models.LightFixture, walls []geometry.Segment) Illumination {
	il := Illumination{
		FixtureID: f.ID,
		Type:      f.Type,
		Family:    fixtures.FamilyOf(f.Type),
		Clip:      ClipFor(f),
	}
	if !f.IsOn {
		return il
	}

	pos := f.Position()
	var origins []geometry.Point
	radius := fixtures.ShadowRadius(f)

	if il.Family == models.DualRadial {
		rot := f.DirectionDegrees() * math.Pi / 180
		for _, dx := range []float64{-fixtures.DualEmitterOffset, fixtures.DualEmitterOffset} {
			origins = append(origins, geometry.Rotate(geometry.Point{X: pos.X + dx, Y: pos.Y}, pos, rot))
		}
	} else {
		origins = []geometry.Point{pos}
	}

	for _, o := range origins {
		il.Emitters = append(il.Emitters, Emitter{
			Origin:   o,
			Radius:   radius,
			Polygon:  shadow.Cast(o, radius, walls),
			Gradient: NewGradient(o, radius, f.Color, f.Intensity),
		})
	}
	return il
}
