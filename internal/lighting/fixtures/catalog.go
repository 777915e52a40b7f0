package fixtures

import (
	"errors"
	"fmt"
	"math"
	"strings"

	"lightplan/internal/geometry"
	"lightplan/internal/lighting/models"

	"github.com/google/uuid"
)

// ============================================================
// Fixture Catalog
// ============================================================

var ErrUnknownType = errors.New("unknown fixture type")

const (
	DefaultIntensity = 70.0
	DefaultColor     = "#ffffff"
	DefaultRadius    = 60.0
	DefaultSize      = 1.0
	HitRadius        = 15.0 // радиус выбора светильника, умножается на size

	defaultRectWidth = 50.0
)

// IconShape - условное обозначение светильника на плане.
type IconShape string

const (
	IconDisc    IconShape = "disc"
	IconRing    IconShape = "ring"
	IconRingDot IconShape = "ring-dot"
	IconHalf    IconShape = "half"
	IconWedge   IconShape = "wedge"
	IconBar     IconShape = "bar"
	IconTwin    IconShape = "twin"
	IconSquare  IconShape = "square"
	IconLamp    IconShape = "lamp"
)

// Spec описывает тип светильника и параметры по умолчанию.
type Spec struct {
	Type        models.FixtureType `json:"type"`
	Label       string             `json:"label"`
	Family      models.Family      `json:"family"`
	Radius      float64            `json:"radius"`
	Width       float64            `json:"width,omitempty"` // 0 - ширина не задаётся при создании
	ClipWidth   float64            `json:"clipWidth,omitempty"`
	Directional bool               `json:"directional"`
	Color       string             `json:"color"`
	Icon        IconShape          `json:"icon"`
}

func radial(t models.FixtureType, label string, icon IconShape) Spec {
	return Spec{Type: t, Label: label, Family: models.Radial, Radius: DefaultRadius, Color: DefaultColor, Icon: icon}
}

func linear(t models.FixtureType, label string, width, clip float64) Spec {
	return Spec{
		Type: t, Label: label, Family: models.Rectangle, Radius: DefaultRadius,
		Width: width, ClipWidth: clip, Directional: true, Color: DefaultColor, Icon: IconBar,
	}
}

var catalog = func() []Spec {
	specs := []Spec{
		radial(models.SpotType1, "Spot Type 1", IconRingDot),
		radial(models.SpotType2, "Spot Type 2", IconRingDot),
		radial(models.SpotType3, "Spot Type 3", IconRing),
		radial(models.SpotType4, "Spot Type 4", IconRingDot),
		{Type: models.SpotType5WallWasher, Label: "Wall Washer", Family: models.Semicircle, Radius: DefaultRadius, Directional: true, Color: DefaultColor, Icon: IconHalf},
		{Type: models.AdjustableSpotType6, Label: "Adjustable Spot", Family: models.Cone, Radius: DefaultRadius, Directional: true, Color: DefaultColor, Icon: IconWedge},
		radial(models.MiniSpot, "Mini Spot", IconDisc),
		radial(models.BedReadingSpot, "Bed Reading Spot", IconDisc),
		radial(models.WaterproofSpot, "Waterproof Spot", IconRing),
		{Type: models.WallWasherSpot, Label: "Wall Washer Spot", Family: models.Semicircle, Radius: DefaultRadius, Directional: true, Color: DefaultColor, Icon: IconHalf},
		linear(models.LaserBlade, "Laser Blade", 50, 60),
		linear(models.LinearWallWasher, "Linear Wall Washer", 50, defaultRectWidth),
		linear(models.LinearProfileLighting, "Linear Profile", 50, defaultRectWidth),
		{Type: models.GimbelSpot, Label: "Gimbel Spot", Family: models.DualRadial, Radius: DefaultRadius, Directional: true, Color: DefaultColor, Icon: IconTwin},
		radial(models.SurfaceSpotLightIndoor, "Surface Spot", IconRing),
		radial(models.SurfaceSpotLightIndoor2, "Surface Spot 2", IconRing),
		radial(models.Downlight, "Downlight", IconDisc),
		radial(models.SurfacePanel, "Surface Panel", IconSquare),
		linear(models.IndoorStripLight, "Indoor Strip", 50, 10),
		linear(models.CurtainGrazer, "Curtain Grazer", 50, 10),
		linear(models.OutdoorProfile, "Outdoor Profile", 50, 10),
		linear(models.MagneticTrack, "Magnetic Track", 50, 10),
		radial(models.TrackSpot, "Track Spot", IconRingDot),
		radial(models.TrackSpot2, "Track Spot 2", IconRingDot),
		linear(models.MagneticLaserBlade, "Magnetic Laser Blade", 50, defaultRectWidth),
		linear(models.MagneticLaserBladeLarge, "Magnetic Laser Blade Large", 100, defaultRectWidth),
		linear(models.MagneticProfile, "Magnetic Profile", 50, defaultRectWidth),
		linear(models.MagneticProfileLarge, "Magnetic Profile Large", 100, defaultRectWidth),
		linear(models.LaserBladeWallWasher, "Laser Blade Wall Washer", 0, defaultRectWidth),
		linear(models.LaserBladeWallWasherLarge, "Laser Blade Wall Washer Large", 100, defaultRectWidth),
		linear(models.MagneticProfileAdjustable, "Magnetic Profile Adjustable", 50, defaultRectWidth),
		linear(models.MagneticProfileAdjustableLarge, "Magnetic Profile Adjustable Large", 100, defaultRectWidth),
		linear(models.StretchCeiling, "Stretch Ceiling", 100, defaultRectWidth),
		linear(models.ModuleSignage, "Module Signage", 100, defaultRectWidth),
		linear(models.TableLamp, "Table Lamp", 0, defaultRectWidth),
		linear(models.FloorLamp, "Floor Lamp", 0, defaultRectWidth),
		linear(models.Chandelier2, "Chandelier", 0, defaultRectWidth),
		linear(models.DiningLinearPendant, "Dining Linear Pendant", 50, defaultRectWidth),
		linear(models.HangingLight, "Hanging Light", 0, defaultRectWidth),
	}

	for i := range specs {
		switch specs[i].Type {
		case models.MiniSpot, models.BedReadingSpot:
			specs[i].Radius = 30
		case models.StretchCeiling:
			specs[i].Radius = 120
			specs[i].Icon = IconSquare
		case models.Chandelier2:
			specs[i].Radius = 80
			specs[i].Icon = IconLamp
		case models.OutdoorProfile:
			specs[i].Color = "#FF0000"
		case models.TrackSpot, models.TrackSpot2:
			specs[i].Directional = true
		case models.TableLamp, models.FloorLamp, models.HangingLight:
			specs[i].Icon = IconLamp
		case models.ModuleSignage:
			specs[i].Icon = IconSquare
		}
	}
	return specs
}()

var index = func() map[models.FixtureType]int {
	m := make(map[models.FixtureType]int, len(catalog))
	for i, s := range catalog {
		m[s.Type] = i
	}
	return m
}()

// Catalog возвращает копию каталога в порядке палитры.
func Catalog() []Spec {
	out := make([]Spec, len(catalog))
	copy(out, catalog)
	return out
}

func Lookup(t models.FixtureType) (Spec, bool) {
	i, ok := index[t]
	if !ok {
		return Spec{}, false
	}
	return catalog[i], true
}

// FamilyOf - неизвестные типы светят как обычный круглый спот.
func FamilyOf(t models.FixtureType) models.Family {
	if s, ok := Lookup(t); ok {
		return s.Family
	}
	return models.Radial
}

func ParseType(s string) (models.FixtureType, error) {
	t := models.FixtureType(strings.TrimSpace(s))
	if _, ok := index[t]; !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownType, s)
	}
	return t, nil
}

// ============================================================
// Placement
// ============================================================

// New создаёт светильник с параметрами по умолчанию для типа.
func New(t models.FixtureType, at geometry.Point) (models.LightFixture, error) {
	spec, ok := Lookup(t)
	if !ok {
		return models.LightFixture{}, fmt.Errorf("%w: %q", ErrUnknownType, t)
	}

	f := models.LightFixture{
		ID:        uuid.NewString(),
		Type:      t,
		X:         at.X,
		Y:         at.Y,
		Intensity: DefaultIntensity,
		Color:     spec.Color,
		Radius:    spec.Radius,
		IsOn:      true,
		Size:      DefaultSize,
	}
	if spec.Directional {
		direction := 0.0
		f.Direction = &direction
	}
	if spec.Width > 0 {
		width := spec.Width
		f.Width = &width
	}
	return f, nil
}

// RectWidth - ширина прямоугольного свечения без учёта size.
// Пустая или нулевая ширина заменяется значением для типа.
func RectWidth(f models.LightFixture) float64 {
	if f.Width != nil && *f.Width != 0 {
		return *f.Width
	}
	if s, ok := Lookup(f.Type); ok && s.ClipWidth > 0 {
		return s.ClipWidth
	}
	return defaultRectWidth
}

// ShadowRadius - радиус лучей для основного излучателя.
func ShadowRadius(f models.LightFixture) float64 {
	r := f.Radius * f.Scale()
	switch FamilyOf(f.Type) {
	case models.Rectangle:
		return math.Max(RectWidth(f)*f.Scale(), r)
	case models.DualRadial:
		return r * DualEmitterRadius
	}
	return r
}

const (
	DualEmitterRadius = 0.6 // доля радиуса для каждого из двух излучателей
	DualEmitterOffset = 5.0 // смещение излучателей от центра по оси x
)

// HitTest возвращает первый светильник в пределах 15*size от точки.
func HitTest(list []models.LightFixture, p geometry.Point) (models.LightFixture, bool) {
	for _, f := range list {
		if geometry.Distance(f.Position(), p) <= HitRadius*f.Scale() {
			return f, true
		}
	}
	return models.LightFixture{}, false
}
