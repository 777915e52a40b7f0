package render

import (
	"image"
	"image/color"
	"math"

	"lightplan/internal/geometry"
	"lightplan/internal/lighting/glow"

	xdraw "golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
	"golang.org/x/image/vector"
)

const circleSteps = 32

// polygonMask растеризует замкнутые контуры в маску покрытия, обрезанную по bounds.
// Пустое пересечение даёт nil.
func polygonMask(bounds image.Rectangle, paths ...[]geometry.Point) *image.Alpha {
	rect := image.Rectangle{}
	for _, path := range paths {
		if len(path) < 3 {
			continue
		}
		rect = rect.Union(boxOf(path))
	}
	rect = rect.Intersect(bounds)
	if rect.Empty() {
		return nil
	}

	z := vector.NewRasterizer(rect.Dx(), rect.Dy())
	ox, oy := float64(rect.Min.X), float64(rect.Min.Y)
	for _, path := range paths {
		if len(path) < 3 {
			continue
		}
		z.MoveTo(float32(path[0].X-ox), float32(path[0].Y-oy))
		for _, p := range path[1:] {
			z.LineTo(float32(p.X-ox), float32(p.Y-oy))
		}
		z.ClosePath()
	}

	mask := image.NewAlpha(rect)
	z.Draw(mask, rect, image.Opaque, image.Point{})
	return mask
}

func boxOf(pts []geometry.Point) image.Rectangle {
	minX, minY := math.Inf(1), math.Inf(1)
	maxX, maxY := math.Inf(-1), math.Inf(-1)
	for _, p := range pts {
		minX, maxX = math.Min(minX, p.X), math.Max(maxX, p.X)
		minY, maxY = math.Min(minY, p.Y), math.Max(maxY, p.Y)
	}
	return image.Rect(int(math.Floor(minX)), int(math.Floor(minY)), int(math.Ceil(maxX))+1, int(math.Ceil(maxY))+1)
}

// intersect умножает маску m на clip попиксельно.
func intersect(m, clip *image.Alpha) {
	r := m.Rect
	for y := r.Min.Y; y < r.Max.Y; y++ {
		for x := r.Min.X; x < r.Max.X; x++ {
			i := m.PixOffset(x, y)
			m.Pix[i] = uint8(uint16(m.Pix[i]) * uint16(clip.AlphaAt(x, y).A) / 255)
		}
	}
}

func fill(img *image.RGBA, col color.Color, paths ...[]geometry.Point) {
	m := polygonMask(img.Bounds(), paths...)
	if m == nil {
		return
	}
	xdraw.DrawMask(img, m.Rect, image.NewUniform(col), image.Point{}, m, m.Rect.Min, xdraw.Over)
}

// ============================================================
// Gradient source
// ============================================================

// gradientImage отдаёт цвет радиального градиента в пикселях кадра.
type gradientImage struct {
	g glow.Gradient
	t Transform
}

func (gi gradientImage) ColorModel() color.Model { return color.NRGBAModel }
func (gi gradientImage) Bounds() image.Rectangle {
	return image.Rectangle{Min: image.Point{X: -1e9, Y: -1e9}, Max: image.Point{X: 1e9, Y: 1e9}}
}

func (gi gradientImage) At(x, y int) color.Color {
	world := gi.t.Invert(geometry.Point{X: float64(x) + 0.5, Y: float64(y) + 0.5})
	return gi.g.At(world)
}

// ============================================================
// Primitives
// ============================================================

// line - отрезок заданной толщины как четырёхугольник.
func line(a, b geometry.Point, width float64) []geometry.Point {
	d := b.Sub(a)
	l := math.Hypot(d.X, d.Y)
	if l == 0 {
		return nil
	}
	n := geometry.Point{X: -d.Y / l * width / 2, Y: d.X / l * width / 2}
	return []geometry.Point{a.Add(n), b.Add(n), b.Sub(n), a.Sub(n)}
}

func strokeLine(img *image.RGBA, a, b geometry.Point, width float64, col color.Color) {
	fill(img, col, line(a, b, width))
}

// dashedLine рисует штрих-пунктир с одинаковой длиной штриха и пробела.
func dashedLine(img *image.RGBA, a, b geometry.Point, width, dash float64, col color.Color) {
	total := geometry.Distance(a, b)
	if total == 0 {
		return
	}
	dir := b.Sub(a).Scale(1 / total)
	for s := 0.0; s < total; s += 2 * dash {
		e := math.Min(s+dash, total)
		strokeLine(img, a.Add(dir.Scale(s)), a.Add(dir.Scale(e)), width, col)
	}
}

func circle(c geometry.Point, r float64) []geometry.Point {
	return arc(c, r, 0, 2*math.Pi, circleSteps)
}

func arc(c geometry.Point, r, from, to float64, steps int) []geometry.Point {
	pts := make([]geometry.Point, 0, steps+1)
	for i := 0; i <= steps; i++ {
		a := from + (to-from)*float64(i)/float64(steps)
		sin, cos := math.Sincos(a)
		pts = append(pts, geometry.Point{X: c.X + cos*r, Y: c.Y + sin*r})
	}
	return pts
}

func reversed(pts []geometry.Point) []geometry.Point {
	out := make([]geometry.Point, len(pts))
	for i, p := range pts {
		out[len(pts)-1-i] = p
	}
	return out
}

// ring - кольцо из внешней окружности и обратной внутренней.
func ring(img *image.RGBA, c geometry.Point, outer, inner float64, col color.Color) {
	fill(img, col, circle(c, outer), reversed(circle(c, inner)))
}

func rotated(pts []geometry.Point, center geometry.Point, rad float64) []geometry.Point {
	if rad == 0 {
		return pts
	}
	out := make([]geometry.Point, len(pts))
	for i, p := range pts {
		out[i] = geometry.Rotate(p, center, rad)
	}
	return out
}

func rect(cx, cy, w, h float64) []geometry.Point {
	return []geometry.Point{
		{X: cx - w/2, Y: cy - h/2},
		{X: cx + w/2, Y: cy - h/2},
		{X: cx + w/2, Y: cy + h/2},
		{X: cx - w/2, Y: cy + h/2},
	}
}

// text пишет строку с центром по x и базовой линией y.
func text(img *image.RGBA, s string, x, y float64, col color.Color) {
	d := &font.Drawer{Dst: img, Src: image.NewUniform(col), Face: basicfont.Face7x13}
	w := d.MeasureString(s)
	d.Dot = fixed.Point26_6{X: fixed.I(int(math.Round(x))) - w/2, Y: fixed.I(int(math.Round(y)))}
	d.DrawString(s)
}
