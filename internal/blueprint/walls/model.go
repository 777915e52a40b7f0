package walls

import (
	"fmt"
	"log"
	"math"

	"lightplan/internal/blueprint/calibration"
	"lightplan/internal/blueprint/models"
	"lightplan/internal/geometry"
)

// ============================================================
// Wall Model
// ============================================================

var (
	ErrWallNotFound   = models.ErrWallNotFound
	ErrDegenerateWall = models.ErrDegenerateWall
)

const (
	SnapTolerance   = 15.0 // радиус притяжения к концам стен
	HitTolerance    = 10.0 // радиус выбора стены кликом
	DefaultGridSize = 5.0
	defaultIDPrefix = "wall-"
)

// Model владеет набором стен и записью калибровки.
// Не потокобезопасна: вызывающий сериализует мутации.
type Model struct {
	walls       []models.Wall
	calibration models.CalibrationRecord
	source      *models.ImageSource

	SnapToGrid bool
	GridSize   float64
}

func New() *Model {
	return &Model{SnapToGrid: true, GridSize: DefaultGridSize}
}

// FromBlueprint восстанавливает модель из документа.
// Стены нулевой длины и повторные ID отбрасываются.
func FromBlueprint(bp models.Blueprint) *Model {
	m := New()
	m.calibration = bp.Calibration
	m.source = bp.Metadata.Image
	m.Replace(bp.Walls)
	return m
}

func (m *Model) Walls() []models.Wall {
	out := make([]models.Wall, len(m.walls))
	copy(out, m.walls)
	return out
}

func (m *Model) Calibration() models.CalibrationRecord { return m.calibration }
func (m *Model) Source() *models.ImageSource           { return m.source }
func (m *Model) Len() int                              { return len(m.walls) }
func (m *Model) SetSource(src *models.ImageSource)     { m.source = src }

func (m *Model) index(id string) int {
	for i, w := range m.walls {
		if w.ID == id {
			return i
		}
	}
	return -1
}

func (m *Model) Get(id string) (models.Wall, error) {
	i := m.index(id)
	if i < 0 {
		return models.Wall{}, fmt.Errorf("%w: %s", ErrWallNotFound, id)
	}
	return m.walls[i], nil
}

func (m *Model) nextID() string {
	for n := len(m.walls); ; n++ {
		id := fmt.Sprintf("%s%d", defaultIDPrefix, n)
		if m.index(id) < 0 {
			return id
		}
	}
}

// measure обновляет кешированные длины стены под текущую калибровку.
func (m *Model) measure(w models.Wall) models.Wall {
	return calibration.Apply([]models.Wall{w}, m.calibration)[0]
}

// ============================================================
// Mutations
// ============================================================

// Add создаёт стену; нулевая длина отклоняется.
func (m *Model) Add(start, end models.Point) (models.Wall, error) {
	return m.AddWithID(m.nextID(), start, end)
}

func (m *Model) AddWithID(id string, start, end models.Point) (models.Wall, error) {
	if start.Equal(end) {
		return models.Wall{}, ErrDegenerateWall
	}
	if id == "" {
		id = m.nextID()
	}
	if m.index(id) >= 0 {
		return models.Wall{}, fmt.Errorf("wall %s already exists", id)
	}

	w := m.measure(models.Wall{ID: id, Start: start, End: end})
	m.walls = append(m.walls, w)
	return w, nil
}

// Replace целиком заменяет набор (результат трассировки).
func (m *Model) Replace(walls []models.Wall) int {
	m.walls = m.walls[:0]
	skipped := 0
	for _, w := range walls {
		if _, err := m.AddWithID(w.ID, w.Start, w.End); err != nil {
			skipped++
		}
	}
	if skipped > 0 {
		log.Printf("[WALLS] skipped %d invalid walls", skipped)
	}
	return skipped
}

func (m *Model) Remove(id string) error {
	i := m.index(id)
	if i < 0 {
		return fmt.Errorf("%w: %s", ErrWallNotFound, id)
	}
	m.walls = append(m.walls[:i], m.walls[i+1:]...)
	return nil
}

// Undo удаляет последнюю добавленную стену.
func (m *Model) Undo() bool {
	if len(m.walls) == 0 {
		return false
	}
	m.walls = m.walls[:len(m.walls)-1]
	return true
}

// Clear удаляет все стены и сбрасывает калибровку.
func (m *Model) Clear() {
	m.walls = nil
	m.calibration = models.CalibrationRecord{}
}

func (m *Model) update(id string, fn func(w *models.Wall) error) (models.Wall, error) {
	i := m.index(id)
	if i < 0 {
		return models.Wall{}, fmt.Errorf("%w: %s", ErrWallNotFound, id)
	}
	w := m.walls[i]
	if err := fn(&w); err != nil {
		return models.Wall{}, err
	}
	m.walls[i] = m.measure(w)
	return m.walls[i], nil
}

// Move сдвигает оба конца на delta; длина и направление сохраняются.
func (m *Model) Move(id string, delta models.Point) (models.Wall, error) {
	return m.update(id, func(w *models.Wall) error {
		w.Start = w.Start.Add(delta)
		w.End = w.End.Add(delta)
		return nil
	})
}

// Resize переносит конец вдоль текущего направления так, чтобы длина стала newLength пикселей.
func (m *Model) Resize(id string, newLength float64) (models.Wall, error) {
	if math.IsNaN(newLength) || math.IsInf(newLength, 0) || newLength <= 0 {
		return models.Wall{}, calibration.ErrInvalidMeasurement
	}

	return m.update(id, func(w *models.Wall) error {
		start := geometry.ToCoord(w.Start)
		dir := geometry.ToCoord(w.End).Minus(start).Unit()
		w.End = geometry.FromCoord(dir.Times(newLength).Plus(start))
		return nil
	})
}

// ResizeTo - изменение длины в реальных единицах. Без калибровки используется оценочный масштаб.
func (m *Model) ResizeTo(id string, length float64, unit models.Unit) (models.Wall, error) {
	px, err := calibration.LengthToPixels(length, unit, m.calibration, m.source)
	if err != nil {
		return models.Wall{}, err
	}
	return m.Resize(id, px)
}

// Rotate переключает стену между горизонталью и вертикалью вокруг середины.
func (m *Model) Rotate(id string) (models.Wall, error) {
	return m.update(id, func(w *models.Wall) error {
		length := w.Length()
		c := geometry.Midpoint(w.Start, w.End)
		half := length / 2

		if math.Abs(w.End.X-w.Start.X) > math.Abs(w.End.Y-w.Start.Y) {
			w.Start = models.Point{X: c.X, Y: c.Y - half}
			w.End = models.Point{X: c.X, Y: c.Y + half}
		} else {
			w.Start = models.Point{X: c.X - half, Y: c.Y}
			w.End = models.Point{X: c.X + half, Y: c.Y}
		}
		return nil
	})
}

// ============================================================
// Calibration
// ============================================================

func (m *Model) Calibrate(id string, length float64, unit models.Unit) (models.CalibrationRecord, error) {
	walls, rec, err := calibration.CalibrateWalls(m.walls, id, length, unit)
	if err != nil {
		return m.calibration, err
	}
	m.walls = walls
	m.calibration = rec
	return rec, nil
}

// ExitScaleMode сбрасывает калибровку и кешированные длины.
func (m *Model) ExitScaleMode() {
	m.walls, m.calibration = calibration.Reset(m.walls)
}

// ============================================================
// Queries
// ============================================================

// SnapEndpoint возвращает ближайший конец стены в пределах SnapTolerance.
func (m *Model) SnapEndpoint(p models.Point) (models.Point, bool) {
	var best models.Point
	bestDist := math.Inf(1)

	for _, w := range m.walls {
		for _, e := range [2]models.Point{w.Start, w.End} {
			d := geometry.Distance(p, e)
			if d < SnapTolerance && d < bestDist {
				best, bestDist = e, d
			}
		}
	}
	return best, !math.IsInf(bestDist, 1)
}

// SnapPoint: сначала концы стен, затем сетка (если включена).
func (m *Model) SnapPoint(p models.Point) models.Point {
	if e, ok := m.SnapEndpoint(p); ok {
		return e
	}
	if !m.SnapToGrid || m.GridSize <= 0 {
		return p
	}
	return models.Point{
		X: math.Floor(p.X/m.GridSize+0.5) * m.GridSize,
		Y: math.Floor(p.Y/m.GridSize+0.5) * m.GridSize,
	}
}

// FindAt - первая стена не дальше HitTolerance от точки.
func (m *Model) FindAt(p models.Point) (models.Wall, bool) {
	for _, w := range m.walls {
		if geometry.PointToSegmentDistance(p, w.Start, w.End) <= HitTolerance {
			return w, true
		}
	}
	return models.Wall{}, false
}

// Connected - ID стен, у которых один из концов совпадает с p.
func (m *Model) Connected(p models.Point) []string {
	var ids []string
	for _, w := range m.walls {
		if w.Start.Equal(p) || w.End.Equal(p) {
			ids = append(ids, w.ID)
		}
	}
	return ids
}
