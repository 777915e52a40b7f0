package mapper

import (
	"fmt"
	"html"
	"math"
	"strconv"
	"strings"

	"lightplan/internal/blueprint/calibration"
	"lightplan/internal/blueprint/models"
	"lightplan/internal/geometry"
)

// ============================================================
// Renderer
// ============================================================

const (
	wallThickness   = 4.0
	labelFontSize   = 16.0
	measureFontSize = 12.0
	fallbackSize    = 1000.0
)

type Renderer struct {
	ShowMeasurements bool
}

func NewRenderer() *Renderer {
	return &Renderer{ShowMeasurements: true}
}

// Render собирает SVG из документа плана.
func (r *Renderer) Render(bp *models.Blueprint) (string, error) {
	if bp == nil {
		return "", fmt.Errorf("blueprint is nil")
	}

	width, height := r.canvasSize(bp)

	var elements []string
	elements = append(elements, r.renderWalls(bp)...)
	elements = append(elements, r.renderFurniture(bp)...)
	elements = append(elements, r.renderLabels(bp)...)
	if r.ShowMeasurements {
		elements = append(elements, r.renderMeasurements(bp)...)
	}

	var builder strings.Builder
	builder.WriteString(`<?xml version="1.0" encoding="UTF-8"?>` + "\n")
	builder.WriteString(fmt.Sprintf(`<svg xmlns="http://www.w3.org/2000/svg" width="%s" height="%s" viewBox="0 0 %s %s">`,
		formatFloat(width), formatFloat(height), formatFloat(width), formatFloat(height)))
	builder.WriteString("\n")

	for _, elem := range elements {
		builder.WriteString("  ")
		builder.WriteString(elem)
		builder.WriteString("\n")
	}

	builder.WriteString(`</svg>`)
	return builder.String(), nil
}

// ============================================================
// Sizing
// ============================================================

func (r *Renderer) canvasSize(bp *models.Blueprint) (float64, float64) {
	dims := bp.Metadata.CanvasDimensions
	if dims.Width > 0 && dims.Height > 0 {
		return dims.Width, dims.Height
	}

	var points []models.Point
	for _, w := range bp.Walls {
		points = append(points, w.Start, w.End)
	}

	rect, ok := geometry.Bounds(points)
	if !ok {
		return fallbackSize, fallbackSize
	}

	width := rect.Max.X
	height := rect.Max.Y
	if width <= 0 {
		width = fallbackSize
	}
	if height <= 0 {
		height = fallbackSize
	}
	return width, height
}

// ============================================================
// Element renderers
// ============================================================

func (r *Renderer) renderWalls(bp *models.Blueprint) []string {
	var out []string

	for _, w := range bp.Walls {
		stroke := "#000"
		if id := bp.Calibration.CalibratedWallID; id != nil && *id == w.ID {
			stroke = "#16a34a"
		}

		out = append(out, fmt.Sprintf(`<line id="%s" x1="%s" y1="%s" x2="%s" y2="%s" stroke="%s" stroke-width="%s" stroke-linecap="round" />`,
			html.EscapeString(w.ID), formatFloat(w.Start.X), formatFloat(w.Start.Y),
			formatFloat(w.End.X), formatFloat(w.End.Y), stroke, formatFloat(wallThickness)))
	}

	return out
}

func (r *Renderer) renderMeasurements(bp *models.Blueprint) []string {
	var out []string

	for _, w := range bp.Walls {
		text := w.Measurement
		if text == "" {
			text = calibration.Describe(w, bp.Calibration, bp.Metadata.Image)
		}

		mid := geometry.Midpoint(w.Start, w.End)
		x, y := mid.X, mid.Y-8
		if geometry.Classify(w.Start, w.End) == geometry.Vertical {
			x, y = mid.X+8, mid.Y
		}

		out = append(out, fmt.Sprintf(`<text x="%s" y="%s" font-size="%s" fill="#2563eb" text-anchor="middle">%s</text>`,
			formatFloat(x), formatFloat(y), formatFloat(measureFontSize), html.EscapeString(text)))
	}

	return out
}

func (r *Renderer) renderLabels(bp *models.Blueprint) []string {
	var out []string

	for _, l := range bp.RoomLabels {
		size := l.FontSize
		if size == 0 {
			size = labelFontSize
		}
		color := l.Color
		if color == "" {
			color = "#111827"
		}

		out = append(out, fmt.Sprintf(`<text id="%s" x="%s" y="%s" font-size="%s" fill="%s" text-anchor="middle">%s</text>`,
			html.EscapeString(l.ID), formatFloat(l.X), formatFloat(l.Y), formatFloat(size),
			html.EscapeString(color), html.EscapeString(l.Text)))
	}

	return out
}

func (r *Renderer) renderFurniture(bp *models.Blueprint) []string {
	var out []string

	for _, item := range bp.Furniture {
		points := rectanglePoints(item.X, item.Y, item.Width, item.Height, item.Rotation)
		fill := item.Color
		if fill == "" {
			fill = "#d1d5db"
		}

		var path strings.Builder
		path.WriteString(`<path id="`)
		path.WriteString(html.EscapeString(item.ID))
		path.WriteString(`" d="M `)
		path.WriteString(formatPoint(points[0]))
		for _, p := range points[1:] {
			path.WriteString(" L ")
			path.WriteString(formatPoint(p))
		}
		path.WriteString(` Z" fill="` + html.EscapeString(fill) + `" stroke="#6b7280" />`)

		out = append(out, path.String())
	}

	return out
}

// ============================================================
// Geometry helpers
// ============================================================

func rectanglePoints(cx, cy, width, height, rotationDeg float64) []models.Point {
	halfW := width / 2
	halfH := height / 2

	points := []models.Point{
		{X: cx - halfW, Y: cy - halfH},
		{X: cx + halfW, Y: cy - halfH},
		{X: cx + halfW, Y: cy + halfH},
		{X: cx - halfW, Y: cy + halfH},
	}

	if rotationDeg == 0 {
		return points
	}

	center := models.Point{X: cx, Y: cy}
	rad := rotationDeg * math.Pi / 180
	for i, p := range points {
		points[i] = geometry.Rotate(p, center, rad)
	}

	return points
}

// ============================================================
// Formatting helpers
// ============================================================

func formatFloat(val float64) string {
	return strconv.FormatFloat(val, 'f', -1, 64)
}

func formatPoint(p models.Point) string {
	return formatFloat(p.X) + " " + formatFloat(p.Y)
}
