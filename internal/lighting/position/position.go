// Package position reports where a fixture sits relative to the nearest
// horizontal and vertical walls.
package position

import (
	"encoding/csv"
	"fmt"
	"io"
	"math"
	"strconv"

	"lightplan/internal/blueprint/calibration"
	bpmodels "lightplan/internal/blueprint/models"
	"lightplan/internal/geometry"
	"lightplan/internal/lighting/models"
)

const (
	UnitFeet   = "feet"
	UnitPixels = "pixels"
)

type Coordinates struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	PixelX float64 `json:"pixelX"`
	PixelY float64 `json:"pixelY"`
}

// WallDistance - ближайшая стена одной ориентации и основание перпендикуляра на ней.
type WallDistance struct {
	Wall   bpmodels.Wall  `json:"wall"`
	Foot   geometry.Point `json:"foot"`
	Pixels float64        `json:"pixels"`
	Value  float64        `json:"value"`
	Label  string         `json:"label"`
}

type Report struct {
	FixtureID      string             `json:"fixtureId"`
	Type           models.FixtureType `json:"type"`
	Position       Coordinates        `json:"position"`
	Horizontal     *WallDistance      `json:"horizontal"`
	Vertical       *WallDistance      `json:"vertical"`
	Unit           string             `json:"unit"`
	HasCalibration bool               `json:"hasCalibration"`
}

// Compute строит отчёт. С калибровкой всё в футах, иначе в пикселях.
// Диагональные стены не учитываются.
func Compute(f models.LightFixture, walls []bpmodels.Wall, rec bpmodels.CalibrationRecord) Report {
	p := f.Position()
	r := Report{
		FixtureID:      f.ID,
		Type:           f.Type,
		Position:       Coordinates{X: p.X, Y: p.Y, PixelX: p.X, PixelY: p.Y},
		Unit:           UnitPixels,
		HasCalibration: rec.Calibrated(),
	}
	if r.HasCalibration {
		r.Position.X = calibration.Convert(p.X, rec.PixelsPerInch, bpmodels.Feet)
		r.Position.Y = calibration.Convert(p.Y, rec.PixelsPerInch, bpmodels.Feet)
		r.Unit = UnitFeet
	}

	for _, w := range walls {
		foot, _ := geometry.ClosestOnSegment(p, w.Start, w.End)
		d := geometry.Distance(p, foot)

		var slot **WallDistance
		switch w.Segment().Orientation() {
		case geometry.Horizontal:
			slot = &r.Horizontal
		case geometry.Vertical:
			slot = &r.Vertical
		default:
			continue
		}
		if *slot != nil && d >= (*slot).Pixels {
			continue
		}
		*slot = &WallDistance{Wall: w, Foot: foot, Pixels: d, Value: d}
	}

	for _, wd := range []*WallDistance{r.Horizontal, r.Vertical} {
		if wd == nil {
			continue
		}
		if r.HasCalibration {
			wd.Value = calibration.Convert(wd.Pixels, rec.PixelsPerInch, bpmodels.Feet)
			wd.Label = strconv.FormatFloat(wd.Value, 'f', 1, 64) + " " + UnitFeet
		} else {
			wd.Label = strconv.FormatFloat(wd.Pixels, 'f', 0, 64) + "px"
		}
	}
	return r
}

// ============================================================
// CSV export
// ============================================================

var csvHeader = []string{
	"Light ID", "Type", "X Position", "Y Position",
	"Distance to H Wall", "Distance to V Wall", "Unit", "Status", "Intensity", "Size",
}

// WriteCSV выгружает позиции всех светильников, нумерация с 1.
func WriteCSV(w io.Writer, fixtures []models.LightFixture, walls []bpmodels.Wall, rec bpmodels.CalibrationRecord) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(csvHeader); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}

	for i, f := range fixtures {
		r := Compute(f, walls, rec)
		status := "OFF"
		if f.IsOn {
			status = "ON"
		}
		row := []string{
			strconv.Itoa(i + 1),
			string(f.Type),
			fixed2(r.Position.X),
			fixed2(r.Position.Y),
			distanceCell(r.Horizontal),
			distanceCell(r.Vertical),
			r.Unit,
			status,
			strconv.FormatFloat(f.Intensity, 'f', -1, 64) + "%",
			strconv.FormatFloat(math.Round(f.Scale()*100), 'f', 0, 64) + "%",
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("write csv row %d: %w", i+1, err)
		}
	}

	cw.Flush()
	return cw.Error()
}

func fixed2(v float64) string { return strconv.FormatFloat(v, 'f', 2, 64) }

func distanceCell(wd *WallDistance) string {
	if wd == nil {
		return "N/A"
	}
	return fixed2(wd.Value)
}
