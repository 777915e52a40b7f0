package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strconv"
	"time"

	bpmodels "lightplan/internal/blueprint/models"
	"lightplan/internal/geometry"
	"lightplan/internal/lighting/fixtures"
	"lightplan/internal/lighting/glow"
	"lightplan/internal/lighting/models"
	"lightplan/internal/lighting/position"
	"lightplan/internal/lighting/render"
	"lightplan/internal/lighting/shadow"
	"lightplan/internal/store"

	"github.com/gofiber/fiber/v3"
)

// ProjectStore - хранилище снимков проектов.
type ProjectStore interface {
	Save(ctx context.Context, p *store.Project) error
	Get(ctx context.Context, id string) (*store.Project, error)
	List(ctx context.Context) ([]store.Summary, error)
	Delete(ctx context.Context, id string) error
}

// ============================================================
// Lighting Handler
// ============================================================

type LightingHandler struct {
	renderer *render.Renderer
	projects ProjectStore
}

func NewLightingHandler(renderer *render.Renderer, projects ProjectStore) *LightingHandler {
	return &LightingHandler{renderer: renderer, projects: projects}
}

const simplifyTolerance = 1.0

type fixtureRequest struct {
	Type string  `json:"type"`
	X    float64 `json:"x"`
	Y    float64 `json:"y"`
}

type hitRequest struct {
	Fixtures []models.LightFixture `json:"fixtures"`
	Point    geometry.Point        `json:"point"`
}

type illuminateRequest struct {
	Fixture models.LightFixture `json:"fixture"`
	Walls   []bpmodels.Wall     `json:"walls"`
}

type positionRequest struct {
	Fixture     models.LightFixture        `json:"fixture"`
	Fixtures    []models.LightFixture      `json:"fixtures,omitempty"`
	Walls       []bpmodels.Wall            `json:"walls"`
	Calibration bpmodels.CalibrationRecord `json:"calibration"`
}

type exportRequest struct {
	Blueprint    bpmodels.Blueprint    `json:"blueprint"`
	Fixtures     []models.LightFixture `json:"fixtures"`
	AmbientLevel *float64              `json:"ambientLightLevel,omitempty"`
}

type triangles struct {
	Points  []geometry.Point `json:"points"`
	Indices []int            `json:"indices"`
}

type emitterResponse struct {
	Origin     geometry.Point   `json:"origin"`
	Radius     float64          `json:"radius"`
	Polygon    []geometry.Point `json:"polygon"`
	Simplified []geometry.Point `json:"simplified"`
	Triangles  *triangles       `json:"triangles,omitempty"`
	Area       float64          `json:"area"`
	Gradient   glow.Gradient    `json:"gradient"`
}

// ============================================================
// Fixtures
// ============================================================

// Catalog отдаёт все типы светильников с параметрами по умолчанию.
func (h *LightingHandler) Catalog(c fiber.Ctx) error {
	return c.JSON(fiber.Map{"fixtures": fixtures.Catalog()})
}

// CreateFixture ставит светильник выбранного типа с параметрами по умолчанию.
func (h *LightingHandler) CreateFixture(c fiber.Ctx) error {
	var req fixtureRequest
	if err := decode(c, &req); err != nil {
		return c.Status(http.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	t, err := fixtures.ParseType(req.Type)
	if err != nil {
		return fail(c, err)
	}
	f, err := fixtures.New(t, geometry.Point{X: req.X, Y: req.Y})
	if err != nil {
		return fail(c, err)
	}

	log.Printf("[LIGHTING] Placed %s at (%.1f, %.1f) as %s", f.Type, f.X, f.Y, f.ID)
	return c.Status(http.StatusCreated).JSON(f)
}

func (h *LightingHandler) HitTest(c fiber.Ctx) error {
	var req hitRequest
	if err := decode(c, &req); err != nil {
		return c.Status(http.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	f, ok := fixtures.HitTest(req.Fixtures, req.Point)
	if !ok {
		return c.JSON(fiber.Map{"hit": false})
	}
	return c.JSON(fiber.Map{"hit": true, "fixture": f})
}

// ============================================================
// Illumination
// ============================================================

// Illuminate считает полигоны видимости, область отсечения и градиенты светильника.
func (h *LightingHandler) Illuminate(c fiber.Ctx) error {
	var req illuminateRequest
	if err := decode(c, &req); err != nil {
		return c.Status(http.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}
	if _, ok := fixtures.Lookup(req.Fixture.Type); !ok {
		return fail(c, fixtures.ErrUnknownType)
	}

	il := glow.Illuminate(req.Fixture, shadow.Segments(req.Walls))
	emitters := make([]emitterResponse, 0, len(il.Emitters))
	for _, e := range il.Emitters {
		resp := emitterResponse{
			Origin:     e.Origin,
			Radius:     e.Radius,
			Polygon:    e.Polygon.Vertices,
			Simplified: e.Polygon.Simplified(simplifyTolerance),
			Area:       e.Polygon.Area(),
			Gradient:   e.Gradient,
		}
		if pts, idx, err := e.Polygon.Triangles(); err != nil {
			log.Printf("[LIGHTING] Triangulation failed for %s: %v", req.Fixture.ID, err)
		} else {
			resp.Triangles = &triangles{Points: pts, Indices: idx}
		}
		emitters = append(emitters, resp)
	}

	return c.JSON(fiber.Map{
		"fixtureId": il.FixtureID,
		"type":      il.Type,
		"family":    il.Family,
		"clip":      il.Clip,
		"outline":   il.Clip.Outline(),
		"emitters":  emitters,
	})
}

// Position - расстояния от светильника до ближайших горизонтальной и вертикальной стен.
func (h *LightingHandler) Position(c fiber.Ctx) error {
	var req positionRequest
	if err := decode(c, &req); err != nil {
		return c.Status(http.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}
	return c.JSON(position.Compute(req.Fixture, req.Walls, req.Calibration))
}

// PositionsCSV выгружает таблицу позиций всех светильников.
func (h *LightingHandler) PositionsCSV(c fiber.Ctx) error {
	var req positionRequest
	if err := decode(c, &req); err != nil {
		return c.Status(http.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	var buf bytes.Buffer
	if err := position.WriteCSV(&buf, req.Fixtures, req.Walls, req.Calibration); err != nil {
		return fail(c, err)
	}

	c.Set("Content-Type", "text/csv")
	c.Set("Content-Disposition", `attachment; filename="light-positions-`+strconv.FormatInt(time.Now().UnixMilli(), 10)+`.csv"`)
	return c.Send(buf.Bytes())
}

// ============================================================
// Frames
// ============================================================

// Frame рисует кадр и отдаёт PNG.
func (h *LightingHandler) Frame(c fiber.Ctx) error {
	var st render.FrameState
	if err := decode(c, &st); err != nil {
		return c.Status(http.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	out, err := h.renderer.Render(c.Context(), st)
	if err != nil {
		return fail(c, err)
	}

	var buf bytes.Buffer
	if err := render.EncodePNG(&buf, out.Image); err != nil {
		return fail(c, err)
	}

	log.Printf("[LIGHTING] Frame %s: %d fixtures in %v", out.ID, len(st.Scene.Fixtures), out.Elapsed)
	c.Set("Content-Type", "image/png")
	c.Set("X-Frame-Id", out.ID)
	c.Set("X-Render-Time", out.Elapsed.String())
	return c.Send(buf.Bytes())
}

func (h *LightingHandler) FrameSVG(c fiber.Ctx) error {
	var st render.FrameState
	if err := decode(c, &st); err != nil {
		return c.Status(http.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	c.Set("Content-Type", "image/svg+xml")
	return c.SendString(render.SVG(st))
}

// Export собирает файл дизайна: план, мебель, светильники и уровень окружающего света.
func (h *LightingHandler) Export(c fiber.Ctx) error {
	var req exportRequest
	if err := decode(c, &req); err != nil {
		return c.Status(http.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	ambient := models.DefaultAmbientLevel
	if req.AmbientLevel != nil {
		ambient = *req.AmbientLevel
	}
	fx := req.Fixtures
	if fx == nil {
		fx = []models.LightFixture{}
	}

	c.Set("Content-Disposition", `attachment; filename="lighting-design-`+strconv.FormatInt(time.Now().UnixMilli(), 10)+`.json"`)
	return c.JSON(models.DesignExport{
		Blueprint:        req.Blueprint,
		LightFixtures:    fx,
		LightingSettings: models.Settings{AmbientLevel: ambient},
	})
}

// ============================================================
// Projects
// ============================================================

func (h *LightingHandler) SaveProject(c fiber.Ctx) error {
	var p store.Project
	if err := decode(c, &p); err != nil {
		return c.Status(http.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}
	p.ID = c.Params("id")
	if p.Lighting.Fixtures != nil {
		p.Lighting = models.NewLightingData(p.Lighting.Fixtures, p.Lighting.Ambient())
	}

	if err := h.projects.Save(c.Context(), &p); err != nil {
		return fail(c, err)
	}
	return c.JSON(p)
}

func (h *LightingHandler) GetProject(c fiber.Ctx) error {
	p, err := h.projects.Get(c.Context(), c.Params("id"))
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(fiber.Map{"project": p})
}

func (h *LightingHandler) ListProjects(c fiber.Ctx) error {
	list, err := h.projects.List(c.Context())
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(fiber.Map{"projects": list})
}

func (h *LightingHandler) DeleteProject(c fiber.Ctx) error {
	if err := h.projects.Delete(c.Context(), c.Params("id")); err != nil {
		return fail(c, err)
	}
	return c.SendStatus(http.StatusNoContent)
}

// ============================================================
// Helpers
// ============================================================

var (
	errEmptyBody   = errors.New("body required")
	errInvalidJSON = errors.New("invalid JSON payload")
)

func decode(c fiber.Ctx, v any) error {
	if len(c.Body()) == 0 {
		return errEmptyBody
	}
	if err := json.Unmarshal(c.Body(), v); err != nil {
		log.Printf("[LIGHTING] Decode error: %v", err)
		return errInvalidJSON
	}
	return nil
}

func fail(c fiber.Ctx, err error) error {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, store.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, fixtures.ErrUnknownType):
		status = http.StatusBadRequest
	case errors.Is(err, context.Canceled):
		status = http.StatusServiceUnavailable
	}
	if status == http.StatusInternalServerError {
		log.Printf("[LIGHTING] Internal error: %v", err)
	}
	return c.Status(status).JSON(fiber.Map{"error": err.Error()})
}

// Register подключает маршруты сервиса освещения.
func (h *LightingHandler) Register(r fiber.Router) {
	r.Get("/fixtures/catalog", h.Catalog)
	r.Post("/fixtures", h.CreateFixture)
	r.Post("/fixtures/hit", h.HitTest)

	r.Post("/illuminate", h.Illuminate)
	r.Post("/position", h.Position)
	r.Post("/positions.csv", h.PositionsCSV)
	r.Post("/frame", h.Frame)
	r.Post("/frame.svg", h.FrameSVG)
	r.Post("/export", h.Export)

	r.Get("/projects", h.ListProjects)
	r.Put("/projects/:id", h.SaveProject)
	r.Get("/projects/:id", h.GetProject)
	r.Delete("/projects/:id", h.DeleteProject)
}
