package models

import (
	bpmodels "lightplan/internal/blueprint/models"
	"lightplan/internal/geometry"
)

// ============================================================
// Fixture types
// ============================================================

type FixtureType string

const (
	SpotType1                      FixtureType = "spot-type1"
	SpotType2                      FixtureType = "spot-type2"
	SpotType3                      FixtureType = "spot-type3"
	SpotType4                      FixtureType = "spot-type4"
	SpotType5WallWasher            FixtureType = "spot-type5-wall-washer"
	AdjustableSpotType6            FixtureType = "adjustable-spot-type6"
	MiniSpot                       FixtureType = "mini-spot"
	BedReadingSpot                 FixtureType = "bed-reading-spot"
	WaterproofSpot                 FixtureType = "waterproof-spot"
	WallWasherSpot                 FixtureType = "wall-washer-spot"
	LaserBlade                     FixtureType = "laser-blade"
	LinearWallWasher               FixtureType = "linear-wall-washer"
	LinearProfileLighting          FixtureType = "linear-profile-lighting"
	GimbelSpot                     FixtureType = "gimbel-spot"
	SurfaceSpotLightIndoor         FixtureType = "surface-spot-light-indoor"
	SurfaceSpotLightIndoor2        FixtureType = "surface-spot-light-indoor-2"
	Downlight                      FixtureType = "downlight"
	SurfacePanel                   FixtureType = "surface-panel"
	IndoorStripLight               FixtureType = "indoor-strip-light"
	CurtainGrazer                  FixtureType = "curtain-grazer"
	OutdoorProfile                 FixtureType = "outdoor-profile"
	MagneticTrack                  FixtureType = "magnetic-track"
	TrackSpot                      FixtureType = "track-spot"
	TrackSpot2                     FixtureType = "track-spot-2"
	MagneticLaserBlade             FixtureType = "magnetic-laser-blade"
	MagneticLaserBladeLarge        FixtureType = "magnetic-laser-blade-large"
	MagneticProfile                FixtureType = "magnetic-profile"
	MagneticProfileLarge           FixtureType = "magnetic-profile-large"
	LaserBladeWallWasher           FixtureType = "laser-blade-wall-washer"
	LaserBladeWallWasherLarge      FixtureType = "laser-blade-wall-washer-large"
	MagneticProfileAdjustable      FixtureType = "magnetic-profile-adjustable"
	MagneticProfileAdjustableLarge FixtureType = "magnetic-profile-adjustable-large"
	StretchCeiling                 FixtureType = "stretch-ceiling"
	ModuleSignage                  FixtureType = "module-signage"
	TableLamp                      FixtureType = "table-lamp"
	FloorLamp                      FixtureType = "floor-lamp"
	Chandelier2                    FixtureType = "chandelier-2"
	DiningLinearPendant            FixtureType = "dining-linear-pendant"
	HangingLight                   FixtureType = "hanging-light"
)

// Family - форма свечения; определяет область отсечения.
type Family string

const (
	Radial     Family = "radial"
	Semicircle Family = "semicircle"
	Cone       Family = "cone"
	Rectangle  Family = "rectangle"
	DualRadial Family = "dual-radial"
)

// ============================================================
// Fixtures
// ============================================================

// LightFixture - светильник в проекте. Направление в градусах.
type LightFixture struct {
	ID        string      `json:"id"`
	Type      FixtureType `json:"type"`
	X         float64     `json:"x"`
	Y         float64     `json:"y"`
	Intensity float64     `json:"intensity"`
	Color     string      `json:"color"`
	Radius    float64     `json:"radius"`
	IsOn      bool        `json:"isOn"`
	Direction *float64    `json:"direction,omitempty"`
	Width     *float64    `json:"width,omitempty"`
	Size      float64     `json:"size"`
}

func (f LightFixture) Position() geometry.Point {
	return geometry.Point{X: f.X, Y: f.Y}
}

// Scale - множитель размера; отсутствующее значение трактуется как 1.
func (f LightFixture) Scale() float64 {
	if f.Size <= 0 {
		return 1
	}
	return f.Size
}

func (f LightFixture) DirectionDegrees() float64 {
	if f.Direction == nil {
		return 0
	}
	return *f.Direction
}

// ============================================================
// Frame state
// ============================================================

// Scene - снимок входных данных для одного кадра.
type Scene struct {
	Walls        []bpmodels.Wall            `json:"walls"`
	Calibration  bpmodels.CalibrationRecord `json:"calibration"`
	RoomLabels   []bpmodels.RoomLabel       `json:"roomLabels,omitempty"`
	Furniture    []bpmodels.Furniture       `json:"furniture,omitempty"`
	Fixtures     []LightFixture             `json:"fixtures"`
	AmbientLevel float64                    `json:"ambientLight"`
	Night        bool                       `json:"nightMode"`
}

// DefaultAmbientLevel - уровень окружающего света нового проекта.
const DefaultAmbientLevel = 20.0

type Settings struct {
	AmbientLevel float64 `json:"ambientLightLevel"`
	TotalLights  int     `json:"totalLights,omitempty"`
	ActiveLights int     `json:"activeLights,omitempty"`
}

// LightingData - светильники и настройки, сохраняемые в проекте.
type LightingData struct {
	Fixtures     []LightFixture `json:"lights"`
	AmbientLevel float64        `json:"ambientLightLevel"`
	Settings     Settings       `json:"settings"`
}

func NewLightingData(fixtures []LightFixture, ambient float64) LightingData {
	active := 0
	for _, f := range fixtures {
		if f.IsOn {
			active++
		}
	}
	return LightingData{
		Fixtures:     fixtures,
		AmbientLevel: ambient,
		Settings:     Settings{AmbientLevel: ambient, TotalLights: len(fixtures), ActiveLights: active},
	}
}

// Ambient - сохранённый уровень; ноль считается отсутствующим значением.
func (d LightingData) Ambient() float64 {
	if d.AmbientLevel == 0 {
		return DefaultAmbientLevel
	}
	return d.AmbientLevel
}

// DesignExport - файл "Export Design": план, светильники и настройки в одном документе.
type DesignExport struct {
	bpmodels.Blueprint
	LightFixtures    []LightFixture `json:"lightFixtures"`
	LightingSettings Settings       `json:"lightingSettings"`
}

// Scene собирает сцену из экспортированного файла.
func (d DesignExport) Scene() Scene {
	ambient := d.LightingSettings.AmbientLevel
	if ambient == 0 {
		ambient = DefaultAmbientLevel
	}
	return Scene{
		Walls:        d.Walls,
		Calibration:  d.Calibration,
		RoomLabels:   d.RoomLabels,
		Furniture:    d.Furniture,
		Fixtures:     d.LightFixtures,
		AmbientLevel: ambient,
		Night:        true,
	}
}
