package tracer

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"log"

	"lightplan/internal/blueprint/models"
	"lightplan/internal/blueprint/simplify"

	_ "golang.org/x/image/bmp"
	xdraw "golang.org/x/image/draw"
	_ "golang.org/x/image/webp"
)

// ============================================================
// Blueprint Wall Tracer
// ============================================================

var ErrUnsupportedImage = errors.New("unsupported or corrupt image")

const (
	DefaultThreshold    = 128
	DefaultCanvasWidth  = 1200.0
	DefaultCanvasHeight = 900.0
)

// Порядок обхода соседей влияет на порядок точек контура.
var neighbours = [8][2]int{
	{0, 1}, {1, 0}, {0, -1}, {-1, 0},
	{1, 1}, {1, -1}, {-1, 1}, {-1, -1},
}

// DrawBounds - прямоугольник, в который вписано изображение на холсте
type DrawBounds struct {
	OffsetX float64 `json:"offsetX"`
	OffsetY float64 `json:"offsetY"`
	Width   float64 `json:"width"`
	Height  float64 `json:"height"`
}

// Mask - бинарная карта тёмных пикселей
type Mask struct {
	Width  int
	Height int
	Dark   []bool
}

func (m *Mask) at(x, y int) bool {
	return m.Dark[y*m.Width+x]
}

// Decode читает PNG, JPEG, GIF, BMP или WebP.
func Decode(r io.Reader) (image.Image, string, error) {
	img, format, err := image.Decode(r)
	if err != nil {
		return nil, "", fmt.Errorf("%w: %v", ErrUnsupportedImage, err)
	}
	b := img.Bounds()
	if b.Dx() == 0 || b.Dy() == 0 {
		return nil, "", fmt.Errorf("%w: empty image", ErrUnsupportedImage)
	}
	return img, format, nil
}

// FitBounds вписывает изображение в холст с сохранением пропорций и центрирует его.
func FitBounds(imgW, imgH int, canvasW, canvasH float64) DrawBounds {
	imageAspect := float64(imgW) / float64(imgH)
	canvasAspect := canvasW / canvasH

	if imageAspect > canvasAspect {
		h := canvasW / imageAspect
		return DrawBounds{OffsetX: 0, OffsetY: (canvasH - h) / 2, Width: canvasW, Height: h}
	}

	w := canvasH * imageAspect
	return DrawBounds{OffsetX: (canvasW - w) / 2, OffsetY: 0, Width: w, Height: canvasH}
}

// Binarize масштабирует изображение до размера отрисовки и помечает пиксели
// со средней яркостью ниже порога. Прозрачность смешивается с белым фоном.
func Binarize(img image.Image, bounds DrawBounds, threshold int) Mask {
	w, h := int(bounds.Width), int(bounds.Height)
	if w <= 0 || h <= 0 {
		return Mask{}
	}

	scaled := image.NewNRGBA(image.Rect(0, 0, w, h))
	xdraw.Draw(scaled, scaled.Bounds(), image.NewUniform(color.White), image.Point{}, xdraw.Src)
	xdraw.ApproxBiLinear.Scale(scaled, scaled.Bounds(), img, img.Bounds(), xdraw.Over, nil)

	mask := Mask{Width: w, Height: h, Dark: make([]bool, w*h)}
	for y := 0; y < h; y++ {
		row := scaled.Pix[y*scaled.Stride:]
		for x := 0; x < w; x++ {
			p := row[x*4:]
			avg := (int(p[0]) + int(p[1]) + int(p[2])) / 3
			mask.Dark[y*w+x] = avg < threshold
		}
	}
	return mask
}

// TraceContours собирает связные (8-соседство) группы тёмных пикселей.
// Сканирование построчное, точки контура идут в порядке обхода фронта.
func TraceContours(mask Mask) [][]models.Point {
	if mask.Width == 0 || mask.Height == 0 {
		return nil
	}

	visited := make([]bool, len(mask.Dark))
	var contours [][]models.Point

	for y := 0; y < mask.Height; y++ {
		for x := 0; x < mask.Width; x++ {
			if visited[y*mask.Width+x] || !mask.at(x, y) {
				continue
			}
			contours = append(contours, collect(mask, visited, x, y))
		}
	}
	return contours
}

func collect(mask Mask, visited []bool, sx, sy int) []models.Point {
	type cell struct{ x, y int }

	frontier := []cell{{sx, sy}}
	visited[sy*mask.Width+sx] = true

	for i := 0; i < len(frontier); i++ {
		cur := frontier[i]
		for _, d := range neighbours {
			nx, ny := cur.x+d[0], cur.y+d[1]
			if nx < 0 || ny < 0 || nx >= mask.Width || ny >= mask.Height {
				continue
			}
			idx := ny*mask.Width + nx
			if visited[idx] || !mask.Dark[idx] {
				continue
			}
			visited[idx] = true
			frontier = append(frontier, cell{nx, ny})
		}
	}

	path := make([]models.Point, len(frontier))
	for i, c := range frontier {
		path[i] = models.Point{X: float64(c.x), Y: float64(c.y)}
	}
	return path
}

// Offset переносит контуры из пространства отрисовки в координаты холста.
func Offset(contours [][]models.Point, bounds DrawBounds) [][]models.Point {
	for _, c := range contours {
		for i := range c {
			c[i].X += bounds.OffsetX
			c[i].Y += bounds.OffsetY
		}
	}
	return contours
}

type Options struct {
	Threshold    int
	CanvasWidth  float64
	CanvasHeight float64
	Simplify     simplify.Options
}

func DefaultOptions() Options {
	return Options{
		Threshold:    DefaultThreshold,
		CanvasWidth:  DefaultCanvasWidth,
		CanvasHeight: DefaultCanvasHeight,
		Simplify:     simplify.DefaultOptions(),
	}
}

// Result - итог трассировки
type Result struct {
	Bounds   DrawBounds         `json:"bounds"`
	Contours int                `json:"contours"`
	Walls    []models.Wall      `json:"walls"`
	Image    models.ImageSource `json:"image"`
}

// TraceWalls - полный конвейер: бинаризация, контуры, упрощение, стены.
func TraceWalls(img image.Image, opts Options) Result {
	size := img.Bounds().Size()
	bounds := FitBounds(size.X, size.Y, opts.CanvasWidth, opts.CanvasHeight)

	mask := Binarize(img, bounds, opts.Threshold)
	contours := Offset(TraceContours(mask), bounds)
	walls := simplify.ExtractWalls(contours, opts.Simplify)

	log.Printf("[TRACE] image %dx%d -> %d contours, %d walls", size.X, size.Y, len(contours), len(walls))

	return Result{
		Bounds:   bounds,
		Contours: len(contours),
		Walls:    walls,
		Image:    models.ImageSource{Width: size.X, Height: size.Y},
	}
}
