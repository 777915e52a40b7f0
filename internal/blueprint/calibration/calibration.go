package calibration

import (
	"errors"
	"fmt"
	"log"
	"math"
	"strconv"
	"strings"

	"lightplan/internal/blueprint/models"
)

// ============================================================
// Calibration Engine
// ============================================================

var (
	ErrInvalidMeasurement = errors.New("invalid measurement: length must be a positive finite number")
	ErrUnknownUnit        = errors.New("unknown measurement unit")
)

const (
	inchesPerFoot  = 12.0
	cmPerInch      = 2.54
	metersPerInch  = 0.0254
	largeImageSide = 1000 // порог для оценочного масштаба
)

// ParseUnit принимает полные имена и короткие псевдонимы.
func ParseUnit(s string) (models.Unit, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "inches", "inch", "in", `"`:
		return models.Inches, nil
	case "feet", "foot", "ft", "'":
		return models.Feet, nil
	case "cm", "centimeters":
		return models.CM, nil
	case "m", "meters", "metres":
		return models.Meters, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownUnit, s)
}

func ToInches(value float64, unit models.Unit) float64 {
	switch unit {
	case models.Feet:
		return value * inchesPerFoot
	case models.CM:
		return value / cmPerInch
	case models.Meters:
		return value / metersPerInch
	}
	return value
}

func FromInches(inches float64, unit models.Unit) float64 {
	switch unit {
	case models.Feet:
		return inches / inchesPerFoot
	case models.CM:
		return inches * cmPerInch
	case models.Meters:
		return inches * metersPerInch
	}
	return inches
}

// Calibrate вычисляет масштаб по опорной стене и её реальной длине.
// При ошибке состояние не меняется: запись не создаётся.
func Calibrate(wall models.Wall, length float64, unit models.Unit) (models.CalibrationRecord, error) {
	if math.IsNaN(length) || math.IsInf(length, 0) || length <= 0 {
		return models.CalibrationRecord{}, ErrInvalidMeasurement
	}

	pixelLength := wall.Length()
	if pixelLength == 0 {
		return models.CalibrationRecord{}, fmt.Errorf("%w: reference wall has zero length", ErrInvalidMeasurement)
	}

	ppi := pixelLength / ToInches(length, unit)
	id := wall.ID
	ref := wall

	log.Printf("[CALIBRATE] wall=%s pixels=%.1f length=%g %s -> %.4f px/in", wall.ID, pixelLength, length, unit, ppi)

	return models.CalibrationRecord{
		IsCalibrated:     true,
		PixelsPerInch:    ppi,
		CalibratedWallID: &id,
		MeasurementUnit:  unit,
		ReferenceWall:    &ref,
	}, nil
}

// CalibrateWalls ищет опорную стену по ID, калибрует и пересчитывает весь набор.
func CalibrateWalls(walls []models.Wall, wallID string, length float64, unit models.Unit) ([]models.Wall, models.CalibrationRecord, error) {
	for _, w := range walls {
		if w.ID != wallID {
			continue
		}
		rec, err := Calibrate(w, length, unit)
		if err != nil {
			return walls, models.CalibrationRecord{}, err
		}
		return Apply(walls, rec), rec, nil
	}
	return walls, models.CalibrationRecord{}, fmt.Errorf("calibration wall %q: %w", wallID, models.ErrWallNotFound)
}

// Convert переводит пиксели в единицы. Без калибровки возвращает 0.
func Convert(pixels, pixelsPerInch float64, unit models.Unit) float64 {
	if pixelsPerInch == 0 {
		return 0
	}
	return FromInches(pixels/pixelsPerInch, unit)
}

// Apply возвращает новый набор стен с пересчитанными длинами.
func Apply(walls []models.Wall, rec models.CalibrationRecord) []models.Wall {
	unit := rec.MeasurementUnit
	if unit == "" {
		unit = models.Feet
	}

	out := make([]models.Wall, len(walls))
	for i, w := range walls {
		pixelLength := w.Length()
		w.PixelLength = &pixelLength
		w.RealLength = nil
		w.Measurement = ""

		if rec.Calibrated() {
			realLength := pixelLength / rec.PixelsPerInch
			w.RealLength = &realLength
			w.Measurement = FormatMeasurement(realLength, unit)
		}
		out[i] = w
	}
	return out
}

// Reset - выход из режима масштаба: длины сброшены, запись пустая.
func Reset(walls []models.Wall) ([]models.Wall, models.CalibrationRecord) {
	out := make([]models.Wall, len(walls))
	for i, w := range walls {
		w.PixelLength = nil
		w.RealLength = nil
		w.Measurement = ""
		out[i] = w
	}
	return out, models.CalibrationRecord{}
}

// ============================================================
// Formatting
// ============================================================

// jsRound повторяет Math.round: половина округляется вверх.
func jsRound(v float64) float64 {
	return math.Floor(v + 0.5)
}

func unitLabel(unit models.Unit) string {
	switch unit {
	case models.Feet:
		return "ft"
	case models.Inches:
		return "in"
	}
	return string(unit)
}

func precision(value float64, unit models.Unit) int {
	switch {
	case unit == models.Inches && value < 10:
		return 2
	case unit == models.Feet && value < 1:
		return 2
	case unit == models.Meters && value < 1:
		return 2
	}
	return 1
}

// FormatMeasurement форматирует реальную длину (в дюймах) в единицах записи.
// Футы: 5'4", меньше фута: 7". Остальные единицы: число и подпись.
// Если округление даёт 12 дюймов, результат остаётся n'12".
func FormatMeasurement(inches float64, unit models.Unit) string {
	if unit == models.Feet {
		inches = math.Round(inches*1e6) / 1e6 // шум деления, 59.999999 -> 60
		feet := math.Floor(inches / inchesPerFoot)
		rest := jsRound(math.Mod(inches, inchesPerFoot))
		if feet > 0 {
			return fmt.Sprintf("%d'%d\"", int(feet), int(rest))
		}
		return fmt.Sprintf("%d\"", int(rest))
	}

	value := FromInches(inches, unit)
	return strconv.FormatFloat(value, 'f', precision(value, unit), 64) + " " + string(unit)
}

// FormatCompact - короткая подпись редактора: 5.0ft, 0.75ft, 9.50in.
func FormatCompact(value float64, unit models.Unit) string {
	return strconv.FormatFloat(value, 'f', precision(value, unit), 64) + unitLabel(unit)
}

// ============================================================
// Estimation (uncalibrated)
// ============================================================

// ScaleFactor - футов на пиксель для оценки без калибровки.
func ScaleFactor(src *models.ImageSource) float64 {
	if src == nil {
		return 1.0 / 50
	}
	if min(src.Width, src.Height) > largeImageSide {
		return 0.05
	}
	return 0.1
}

// EstimateFeet возвращает приблизительную длину с префиксом "~".
func EstimateFeet(pixelLength float64, src *models.ImageSource) string {
	return "~" + strconv.FormatFloat(pixelLength*ScaleFactor(src), 'f', 1, 64) + "ft"
}

// Describe - подпись стены: измерение при калибровке, иначе оценка.
func Describe(w models.Wall, rec models.CalibrationRecord, src *models.ImageSource) string {
	if rec.Calibrated() {
		unit := rec.MeasurementUnit
		if unit == "" {
			unit = models.Feet
		}
		return FormatMeasurement(w.Length()/rec.PixelsPerInch, unit)
	}
	return EstimateFeet(w.Length(), src)
}

// LengthToPixels - обратное преобразование для изменения длины стены.
// Без калибровки используется оценочный масштаб.
func LengthToPixels(length float64, unit models.Unit, rec models.CalibrationRecord, src *models.ImageSource) (float64, error) {
	if math.IsNaN(length) || math.IsInf(length, 0) || length <= 0 {
		return 0, ErrInvalidMeasurement
	}

	if rec.Calibrated() {
		return ToInches(length, unit) * rec.PixelsPerInch, nil
	}

	feet := ToInches(length, unit) / inchesPerFoot
	return feet / ScaleFactor(src), nil
}
