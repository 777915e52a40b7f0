package models

import "lightplan/internal/geometry"

// ============================================================
// Geometry primitives
// ============================================================

type Point = geometry.Point

// ============================================================
// Units
// ============================================================

type Unit string

const (
	Inches Unit = "inches"
	Feet   Unit = "feet"
	CM     Unit = "cm"
	Meters Unit = "m"
)

// ============================================================
// Walls
// ============================================================

// Wall - отрезок стены в пиксельных координатах холста.
// PixelLength кешируется, RealLength хранится в дюймах и есть только после калибровки.
type Wall struct {
	ID          string   `json:"id"`
	Start       Point    `json:"start"`
	End         Point    `json:"end"`
	PixelLength *float64 `json:"pixelLength,omitempty"`
	RealLength  *float64 `json:"realLength,omitempty"`
	Measurement string   `json:"measurement,omitempty"`
}

func (w Wall) Segment() geometry.Segment {
	return geometry.Segment{A: w.Start, B: w.End}
}

// Length всегда считается по концам, кеш PixelLength не используется.
func (w Wall) Length() float64 {
	return geometry.Distance(w.Start, w.End)
}

// ============================================================
// Calibration
// ============================================================

// CalibrationRecord - единственный глобальный масштаб. PixelsPerInch == 0 означает
// "не откалибровано", это валидное состояние.
type CalibrationRecord struct {
	IsCalibrated     bool    `json:"isCalibrated"`
	PixelsPerInch    float64 `json:"pixelsPerInch"`
	CalibratedWallID *string `json:"calibratedWallId"`
	MeasurementUnit  Unit    `json:"measurementUnit,omitempty"`
	ReferenceWall    *Wall   `json:"referenceWall,omitempty"`
}

func (c CalibrationRecord) Calibrated() bool {
	return c.PixelsPerInch > 0
}

// ImageSource описывает исходную картинку плана; нужен только для оценочных длин.
type ImageSource struct {
	Width  int `json:"width"`
	Height int `json:"height"`
}

// ============================================================
// Pass-through drawing inputs
// ============================================================

type RoomLabel struct {
	ID       string  `json:"id"`
	X        float64 `json:"x"`
	Y        float64 `json:"y"`
	Text     string  `json:"text"`
	FontSize float64 `json:"fontSize,omitempty"`
	Color    string  `json:"color,omitempty"`
}

type Furniture struct {
	ID       string  `json:"id"`
	Type     string  `json:"type"`
	X        float64 `json:"x"`
	Y        float64 `json:"y"`
	Width    float64 `json:"width"`
	Height   float64 `json:"height"`
	Rotation float64 `json:"rotation"`
	Color    string  `json:"color"`
}

// ============================================================
// Blueprint document
// ============================================================

type CanvasDimensions struct {
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

type Metadata struct {
	Title            string           `json:"title,omitempty"`
	Units            Unit             `json:"units,omitempty"`
	Calibrated       bool             `json:"calibrated"`
	PixelsPerInch    float64          `json:"pixelsPerInch"`
	CanvasDimensions CanvasDimensions `json:"canvasDimensions"`
	Image            *ImageSource     `json:"image,omitempty"`
	WallCount        int              `json:"wallCount"`
	LabelCount       int              `json:"labelCount"`
}

// Blueprint - документ, который сохраняют и передают между сервисами.
type Blueprint struct {
	Version     string            `json:"version"`
	Timestamp   string            `json:"timestamp,omitempty"`
	Metadata    Metadata          `json:"metadata"`
	Walls       []Wall            `json:"walls"`
	RoomLabels  []RoomLabel       `json:"roomLabels"`
	Calibration CalibrationRecord `json:"calibration"`
	Furniture   []Furniture       `json:"furniture,omitempty"`
	ImageData   string            `json:"imageData,omitempty"`
}
