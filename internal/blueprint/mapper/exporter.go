package mapper

import (
	"time"

	"lightplan/internal/blueprint/calibration"
	"lightplan/internal/blueprint/models"
	"lightplan/internal/blueprint/tracer"
	"lightplan/internal/blueprint/walls"
)

// ============================================================
// Blueprint Exporter
// ============================================================

const (
	FormatVersion = "1.0"
	DefaultTitle  = "Floor Plan Blueprint"
)

type ExportOptions struct {
	Title      string
	Unit       models.Unit
	RoomLabels []models.RoomLabel
	Furniture  []models.Furniture
	Now        func() time.Time
}

// Export собирает документ в формате, совместимом с сохранёнными проектами.
func Export(m *walls.Model, opts ExportOptions) models.Blueprint {
	rec := m.Calibration()

	title := opts.Title
	if title == "" {
		title = DefaultTitle
	}
	// Единица откалиброванного плана берётся из записи калибровки,
	// opts.Unit - только для некалиброванного.
	var unit models.Unit
	if rec.Calibrated() {
		unit = rec.MeasurementUnit
	}
	if unit == "" {
		unit = opts.Unit
	}
	if unit == "" {
		unit = rec.MeasurementUnit
	}
	if unit == "" {
		unit = models.Feet
	}
	now := time.Now
	if opts.Now != nil {
		now = opts.Now
	}

	src := m.Source()
	out := make([]models.Wall, 0, m.Len())
	for _, w := range m.Walls() {
		pixelLength := w.Length()
		w.PixelLength = &pixelLength
		w.RealLength = nil
		if rec.Calibrated() {
			realLength := pixelLength / rec.PixelsPerInch
			w.RealLength = &realLength
		}
		w.Measurement = calibration.Describe(w, rec, src)
		out = append(out, w)
	}

	record := models.CalibrationRecord{
		IsCalibrated:     rec.Calibrated(),
		PixelsPerInch:    rec.PixelsPerInch,
		CalibratedWallID: rec.CalibratedWallID,
		MeasurementUnit:  unit,
	}
	if rec.CalibratedWallID != nil {
		if ref, err := m.Get(*rec.CalibratedWallID); err == nil {
			record.ReferenceWall = &ref
		}
	}

	labels := opts.RoomLabels
	if labels == nil {
		labels = []models.RoomLabel{}
	}

	return models.Blueprint{
		Version:   FormatVersion,
		Timestamp: now().UTC().Format(time.RFC3339Nano),
		Metadata: models.Metadata{
			Title:         title,
			Units:         unit,
			Calibrated:    rec.Calibrated(),
			PixelsPerInch: rec.PixelsPerInch,
			CanvasDimensions: models.CanvasDimensions{
				Width:  tracer.DefaultCanvasWidth,
				Height: tracer.DefaultCanvasHeight,
			},
			Image:      src,
			WallCount:  len(out),
			LabelCount: len(labels),
		},
		Walls:       out,
		RoomLabels:  labels,
		Calibration: record,
		Furniture:   opts.Furniture,
	}
}
