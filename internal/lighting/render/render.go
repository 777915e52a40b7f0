// Package render draws a lighting frame: night background, walls, labels,
// furniture, illumination and fixture icons.
package render

import (
	"context"
	"image"
	"log"
	"math"
	"time"

	bpmodels "lightplan/internal/blueprint/models"
	"lightplan/internal/geometry"
	"lightplan/internal/lighting/glow"
	"lightplan/internal/lighting/models"
	"lightplan/internal/lighting/shadow"

	"github.com/google/uuid"
	"github.com/lucasb-eyer/go-colorful"
	xdraw "golang.org/x/image/draw"
	"golang.org/x/sync/errgroup"
)

const (
	DefaultWidth   = 1200
	DefaultHeight  = 900
	DefaultWorkers = 4
	Padding        = 100
)

// FrameState - всё, что нужно для одного кадра.
type FrameState struct {
	Scene      models.Scene `json:"scene"`
	Width      int          `json:"width"`
	Height     int          `json:"height"`
	SelectedID string       `json:"selectedId,omitempty"`
	HideLabels bool         `json:"hideLabels,omitempty"`
}

func (s FrameState) size() (int, int) {
	w, h := s.Width, s.Height
	if w <= 0 {
		w = DefaultWidth
	}
	if h <= 0 {
		h = DefaultHeight
	}
	return w, h
}

type FrameOutput struct {
	ID            string              `json:"id"`
	Image         *image.RGBA         `json:"-"`
	Illuminations []glow.Illumination `json:"illuminations"`
	Transform     Transform           `json:"transform"`
	Elapsed       time.Duration       `json:"elapsed"`
}

// ============================================================
// Transform
// ============================================================

// Transform переводит мировые координаты плана в пиксели кадра.
type Transform struct {
	Scale   float64 `json:"scale"`
	OffsetX float64 `json:"offsetX"`
	OffsetY float64 `json:"offsetY"`
}

func (t Transform) Apply(p geometry.Point) geometry.Point {
	return geometry.Point{X: t.OffsetX + p.X*t.Scale, Y: t.OffsetY + p.Y*t.Scale}
}

func (t Transform) Invert(p geometry.Point) geometry.Point {
	return geometry.Point{X: (p.X - t.OffsetX) / t.Scale, Y: (p.Y - t.OffsetY) / t.Scale}
}

func (t Transform) ApplyAll(pts []geometry.Point) []geometry.Point {
	out := make([]geometry.Point, len(pts))
	for i, p := range pts {
		out[i] = t.Apply(p)
	}
	return out
}

// Fit вписывает стены в кадр с отступом Padding и центрирует.
// Без стен - единичное преобразование.
func Fit(walls []bpmodels.Wall, width, height int) Transform {
	pts := make([]geometry.Point, 0, len(walls)*2)
	for _, w := range walls {
		pts = append(pts, w.Start, w.End)
	}
	b, ok := geometry.Bounds(pts)
	if !ok {
		return Transform{Scale: 1}
	}

	availW := float64(max(width-2*Padding, 1))
	availH := float64(max(height-2*Padding, 1))
	bw, bh := b.Width(), b.Height()

	scale := 1.0
	switch {
	case bw > 0 && bh > 0:
		scale = math.Min(availW/bw, availH/bh)
	case bw > 0:
		scale = availW / bw
	case bh > 0:
		scale = availH / bh
	}

	return Transform{
		Scale:   scale,
		OffsetX: (float64(width)-bw*scale)/2 - b.Min.X*scale,
		OffsetY: (float64(height)-bh*scale)/2 - b.Min.Y*scale,
	}
}

// ============================================================
// Renderer
// ============================================================

type Renderer struct {
	workers int
}

func New(workers int) *Renderer {
	if workers <= 0 {
		workers = DefaultWorkers
	}
	return &Renderer{workers: workers}
}

// Render рисует кадр с фоновым контекстом. Отменить его нельзя, поэтому ошибки нет.
func Render(state FrameState) FrameOutput {
	out, err := New(DefaultWorkers).Render(context.Background(), state)
	if err != nil {
		log.Printf("[LIGHTING] Render failed: %v", err)
	}
	return out
}

// layer - растеризованный свет одного светильника.
type layer struct {
	illumination glow.Illumination
	masks        []*image.Alpha
	gradients    []glow.Gradient
}

// Render считает освещение параллельно по светильникам, а компонует
// слои последовательно в порядке светильников.
func (r *Renderer) Render(ctx context.Context, state FrameState) (FrameOutput, error) {
	started := time.Now()
	w, h := state.size()
	scene := state.Scene

	t := Fit(scene.Walls, w, h)
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	bounds := img.Bounds()
	segs := shadow.Segments(scene.Walls)

	layers := make([]layer, len(scene.Fixtures))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.workers)
	for i, f := range scene.Fixtures {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			layers[i] = rasterize(f, segs, t, bounds)
			return nil
		})
	}

	drawBackground(img, scene.AmbientLevel)
	drawFurniture(img, scene.Furniture, t)

	if err := g.Wait(); err != nil {
		return FrameOutput{}, err
	}

	out := FrameOutput{
		ID:            uuid.NewString(),
		Image:         img,
		Illuminations: make([]glow.Illumination, len(layers)),
		Transform:     t,
	}
	for i, l := range layers {
		out.Illuminations[i] = l.illumination
		for j, m := range l.masks {
			src := gradientImage{g: l.gradients[j], t: t}
			xdraw.DrawMask(img, m.Rect, src, m.Rect.Min, m, m.Rect.Min, xdraw.Over)
		}
	}

	drawWalls(img, scene.Walls, t)
	if !state.HideLabels {
		drawWallLabels(img, scene.Walls, scene.Calibration, t)
		drawRoomLabels(img, scene.RoomLabels, t)
	}
	for _, f := range scene.Fixtures {
		drawIcon(img, f, t)
		if f.ID != "" && f.ID == state.SelectedID {
			drawSelection(img, f, scene, t)
		}
	}

	out.Elapsed = time.Since(started)
	return out, nil
}

func rasterize(f models.LightFixture, segs []geometry.Segment, t Transform, bounds image.Rectangle) layer {
	il := glow.Illuminate(f, segs)
	l := layer{illumination: il}
	if len(il.Emitters) == 0 {
		return l
	}

	var clip *image.Alpha
	if il.Clip.Kind != glow.ClipNone {
		if clip = polygonMask(bounds, t.ApplyAll(il.Clip.Outline())); clip == nil {
			return l
		}
	}

	for _, e := range il.Emitters {
		m := polygonMask(bounds, t.ApplyAll(e.Polygon.Vertices))
		if m == nil {
			continue
		}
		if clip != nil {
			intersect(m, clip)
		}
		l.masks = append(l.masks, m)
		l.gradients = append(l.gradients, e.Gradient)
	}
	return l
}

// ============================================================
// Background
// ============================================================

var (
	nightStops = []string{"#1a1a2e", "#16213e", "#0f1a2e"}
	duskTint   = "#5a6a8e"
)

// drawBackground - радиальный ночной градиент от центра до max(w, h).
// Уровень окружающего света 0..100 подмешивает более светлый оттенок.
func drawBackground(img *image.RGBA, ambient float64) {
	k := math.Max(0, math.Min(100, ambient)) / 100 * 0.6
	tint := glow.ParseColor(duskTint)
	stops := make([]colorful.Color, len(nightStops))
	for i, s := range nightStops {
		stops[i] = glow.ParseColor(s).BlendRgb(tint, k)
	}

	var lut [256]colorful.Color
	for i := range lut {
		v := float64(i) / 255
		if v <= 0.5 {
			lut[i] = stops[0].BlendRgb(stops[1], v/0.5)
		} else {
			lut[i] = stops[1].BlendRgb(stops[2], (v-0.5)/0.5)
		}
	}

	b := img.Bounds()
	cx, cy := float64(b.Dx())/2, float64(b.Dy())/2
	radius := math.Max(float64(b.Dx()), float64(b.Dy()))
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			d := math.Hypot(float64(x)+0.5-cx, float64(y)+0.5-cy) / radius
			r, g, bb := lut[int(math.Min(1, d)*255)].RGB255()
			i := img.PixOffset(x, y)
			img.Pix[i], img.Pix[i+1], img.Pix[i+2], img.Pix[i+3] = r, g, bb, 255
		}
	}
}
