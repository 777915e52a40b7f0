package handlers

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strconv"

	"lightplan/internal/blueprint/calibration"
	"lightplan/internal/blueprint/mapper"
	"lightplan/internal/blueprint/models"
	"lightplan/internal/blueprint/tracer"
	"lightplan/internal/blueprint/walls"

	"github.com/gofiber/fiber/v3"
)

// ============================================================
// Blueprint Handler
// ============================================================

type BlueprintHandler struct {
	trace tracer.Options
}

func NewBlueprintHandler(opts tracer.Options) *BlueprintHandler {
	return &BlueprintHandler{trace: opts}
}

type calibrateRequest struct {
	Blueprint models.Blueprint `json:"blueprint"`
	WallID    string           `json:"wallId"`
	Length    float64          `json:"length"`
	Unit      string           `json:"unit"`
}

type convertRequest struct {
	Pixels      float64                  `json:"pixels"`
	Calibration models.CalibrationRecord `json:"calibration"`
	Unit        string                   `json:"unit"`
}

type wallRequest struct {
	Blueprint models.Blueprint `json:"blueprint"`
	WallID    string           `json:"wallId"`
	Start     *models.Point    `json:"start,omitempty"`
	End       *models.Point    `json:"end,omitempty"`
	Delta     *models.Point    `json:"delta,omitempty"`
	Point     *models.Point    `json:"point,omitempty"`
	Length    float64          `json:"length,omitempty"`
	Unit      string           `json:"unit,omitempty"`
	Pixels    float64          `json:"pixels,omitempty"`
	Snap      bool             `json:"snap,omitempty"`
	All       bool             `json:"all,omitempty"`
	Undo      bool             `json:"undo,omitempty"`
}

type wallResponse struct {
	Blueprint models.Blueprint `json:"blueprint"`
	Wall      *models.Wall     `json:"wall,omitempty"`
	Added     *bool            `json:"added,omitempty"`
}

// Trace распознаёт стены на загруженном изображении плана.
func (h *BlueprintHandler) Trace(c fiber.Ctx) error {
	log.Printf("[TRACE] Received request, Content-Length: %d", len(c.Body()))

	file, err := c.FormFile("file")
	if err != nil {
		return c.Status(http.StatusBadRequest).JSON(fiber.Map{"error": "file required in multipart/form-data"})
	}

	f, err := file.Open()
	if err != nil {
		return c.Status(http.StatusInternalServerError).JSON(fiber.Map{"error": "failed to open file"})
	}
	defer f.Close()

	img, format, err := tracer.Decode(f)
	if err != nil {
		log.Printf("[TRACE] Decode error: %v", err)
		return c.Status(http.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	opts := h.trace
	if v, err := strconv.ParseFloat(c.FormValue("canvasWidth"), 64); err == nil && v > 0 {
		opts.CanvasWidth = v
	}
	if v, err := strconv.ParseFloat(c.FormValue("canvasHeight"), 64); err == nil && v > 0 {
		opts.CanvasHeight = v
	}

	res := tracer.TraceWalls(img, opts)
	if len(res.Walls) == 0 {
		log.Printf("[TRACE] No walls detected in %s (%s)", file.Filename, format)
	}

	m := walls.New()
	m.SetSource(&res.Image)
	m.Replace(res.Walls)
	bp := mapper.Export(m, mapper.ExportOptions{})

	return c.JSON(fiber.Map{
		"walls":     bp.Walls,
		"bounds":    res.Bounds,
		"contours":  res.Contours,
		"format":    format,
		"blueprint": bp,
	})
}

// Calibrate задаёт масштаб по выбранной стене.
func (h *BlueprintHandler) Calibrate(c fiber.Ctx) error {
	var req calibrateRequest
	if err := decode(c, &req); err != nil {
		return c.Status(http.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	unit, err := calibration.ParseUnit(req.Unit)
	if err != nil {
		return fail(c, err)
	}

	m := walls.FromBlueprint(req.Blueprint)
	if _, err := m.Calibrate(req.WallID, req.Length, unit); err != nil {
		log.Printf("[CALIBRATE] Rejected: %v", err)
		return fail(c, err)
	}

	return c.JSON(export(m, req.Blueprint))
}

// Convert переводит пиксели в реальные единицы.
func (h *BlueprintHandler) Convert(c fiber.Ctx) error {
	var req convertRequest
	if err := decode(c, &req); err != nil {
		return c.Status(http.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	unit := req.Calibration.MeasurementUnit
	if req.Unit != "" {
		u, err := calibration.ParseUnit(req.Unit)
		if err != nil {
			return fail(c, err)
		}
		unit = u
	}
	if unit == "" {
		unit = models.Feet
	}

	value := calibration.Convert(req.Pixels, req.Calibration.PixelsPerInch, unit)
	formatted := calibration.EstimateFeet(req.Pixels, nil)
	if req.Calibration.Calibrated() {
		formatted = calibration.FormatCompact(value, unit)
	}

	return c.JSON(fiber.Map{
		"value":      value,
		"unit":       unit,
		"formatted":  formatted,
		"calibrated": req.Calibration.Calibrated(),
	})
}

// Render отдаёт SVG представление документа.
func (h *BlueprintHandler) Render(c fiber.Ctx) error {
	var bp models.Blueprint
	if err := decode(c, &bp); err != nil {
		return c.Status(http.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	svg, err := mapper.NewRenderer().Render(&bp)
	if err != nil {
		log.Printf("[RENDER] Render error: %v", err)
		return c.Status(http.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}

	c.Set("Content-Type", "image/svg+xml")
	return c.SendString(svg)
}

// ============================================================
// Wall editing
// ============================================================

func (h *BlueprintHandler) AddWall(c fiber.Ctx) error {
	var req wallRequest
	if err := decode(c, &req); err != nil {
		return c.Status(http.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}
	if req.Start == nil || req.End == nil {
		return c.Status(http.StatusBadRequest).JSON(fiber.Map{"error": "start and end required"})
	}

	m := walls.FromBlueprint(req.Blueprint)
	start, end := *req.Start, *req.End
	if req.Snap {
		start, end = m.SnapPoint(start), m.SnapPoint(end)
	}

	added := true
	w, err := m.Add(start, end)
	if errors.Is(err, walls.ErrDegenerateWall) {
		log.Printf("[WALLS] Ignored zero-length wall at (%.1f, %.1f)", start.X, start.Y)
		added = false
	} else if err != nil {
		return fail(c, err)
	}

	resp := wallResponse{Blueprint: export(m, req.Blueprint), Added: &added}
	if added {
		resp.Wall = &w
	}
	return c.JSON(resp)
}

func (h *BlueprintHandler) MoveWall(c fiber.Ctx) error {
	var req wallRequest
	if err := decode(c, &req); err != nil {
		return c.Status(http.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}
	if req.Delta == nil {
		return c.Status(http.StatusBadRequest).JSON(fiber.Map{"error": "delta required"})
	}

	return h.edit(c, req, func(m *walls.Model) (models.Wall, error) {
		return m.Move(req.WallID, *req.Delta)
	})
}

func (h *BlueprintHandler) ResizeWall(c fiber.Ctx) error {
	var req wallRequest
	if err := decode(c, &req); err != nil {
		return c.Status(http.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	return h.edit(c, req, func(m *walls.Model) (models.Wall, error) {
		if req.Pixels > 0 {
			return m.Resize(req.WallID, req.Pixels)
		}

		unit := m.Calibration().MeasurementUnit
		if req.Unit != "" {
			u, err := calibration.ParseUnit(req.Unit)
			if err != nil {
				return models.Wall{}, err
			}
			unit = u
		}
		if unit == "" {
			unit = models.Feet
		}
		return m.ResizeTo(req.WallID, req.Length, unit)
	})
}

func (h *BlueprintHandler) RotateWall(c fiber.Ctx) error {
	var req wallRequest
	if err := decode(c, &req); err != nil {
		return c.Status(http.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	return h.edit(c, req, func(m *walls.Model) (models.Wall, error) {
		return m.Rotate(req.WallID)
	})
}

// RemoveWall удаляет одну стену, последнюю (undo) или все (all).
func (h *BlueprintHandler) RemoveWall(c fiber.Ctx) error {
	var req wallRequest
	if err := decode(c, &req); err != nil {
		return c.Status(http.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	m := walls.FromBlueprint(req.Blueprint)
	switch {
	case req.All:
		m.Clear()
	case req.Undo:
		m.Undo()
	default:
		if err := m.Remove(req.WallID); err != nil {
			return fail(c, err)
		}
	}

	return c.JSON(wallResponse{Blueprint: export(m, req.Blueprint)})
}

// SnapPoint возвращает точку, притянутую к концу стены или к сетке.
func (h *BlueprintHandler) SnapPoint(c fiber.Ctx) error {
	var req wallRequest
	if err := decode(c, &req); err != nil {
		return c.Status(http.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}
	if req.Point == nil {
		return c.Status(http.StatusBadRequest).JSON(fiber.Map{"error": "point required"})
	}

	m := walls.FromBlueprint(req.Blueprint)
	_, onEndpoint := m.SnapEndpoint(*req.Point)
	resp := fiber.Map{
		"point":      m.SnapPoint(*req.Point),
		"onEndpoint": onEndpoint,
	}
	if w, ok := m.FindAt(*req.Point); ok {
		resp["wallId"] = w.ID
	}
	return c.JSON(resp)
}

func (h *BlueprintHandler) edit(c fiber.Ctx, req wallRequest, fn func(m *walls.Model) (models.Wall, error)) error {
	m := walls.FromBlueprint(req.Blueprint)
	w, err := fn(m)
	if err != nil {
		log.Printf("[WALLS] Edit of %s failed: %v", req.WallID, err)
		return fail(c, err)
	}
	return c.JSON(wallResponse{Blueprint: export(m, req.Blueprint), Wall: &w})
}

// ============================================================
// Helpers
// ============================================================

func export(m *walls.Model, src models.Blueprint) models.Blueprint {
	return mapper.Export(m, mapper.ExportOptions{
		Title:      src.Metadata.Title,
		Unit:       src.Metadata.Units,
		RoomLabels: src.RoomLabels,
		Furniture:  src.Furniture,
	})
}

var (
	errEmptyBody   = errors.New("body required")
	errInvalidJSON = errors.New("invalid JSON payload")
)

func decode(c fiber.Ctx, v any) error {
	if len(c.Body()) == 0 {
		return errEmptyBody
	}
	if err := json.Unmarshal(c.Body(), v); err != nil {
		log.Printf("[BLUEPRINT] Decode error: %v", err)
		return errInvalidJSON
	}
	return nil
}

func fail(c fiber.Ctx, err error) error {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, walls.ErrWallNotFound):
		status = http.StatusNotFound
	case errors.Is(err, calibration.ErrInvalidMeasurement),
		errors.Is(err, calibration.ErrUnknownUnit),
		errors.Is(err, walls.ErrDegenerateWall),
		errors.Is(err, tracer.ErrUnsupportedImage):
		status = http.StatusBadRequest
	}
	return c.Status(status).JSON(fiber.Map{"error": err.Error()})
}

// Register подключает маршруты сервиса планов.
func (h *BlueprintHandler) Register(r fiber.Router) {
	r.Post("/trace", h.Trace)
	r.Post("/calibrate", h.Calibrate)
	r.Post("/convert", h.Convert)
	r.Post("/render", h.Render)

	w := r.Group("/walls")
	w.Post("/add", h.AddWall)
	w.Post("/move", h.MoveWall)
	w.Post("/resize", h.ResizeWall)
	w.Post("/rotate", h.RotateWall)
	w.Post("/remove", h.RemoveWall)
	w.Post("/snap", h.SnapPoint)
}
