package handlers

import (
	"bytes"
	"encoding/json"
	"image/png"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	bpmodels "lightplan/internal/blueprint/models"
	"lightplan/internal/geometry"
	"lightplan/internal/lighting/models"
	"lightplan/internal/lighting/render"
	"lightplan/internal/store"

	"github.com/gofiber/fiber/v3"
)

func newApp(t *testing.T) *fiber.App {
	t.Helper()

	db, err := store.OpenSQLite(filepath.Join(t.TempDir(), "lighting.db"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { db.Close() })

	repo := store.New(db)
	if err := repo.Init(t.Context()); err != nil {
		t.Fatal(err)
	}

	app := fiber.New()
	NewLightingHandler(render.New(2), repo).Register(app)
	return app
}

func do(t *testing.T, app *fiber.App, method, path string, body any) (*http.Response, []byte) {
	t.Helper()

	var r io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			t.Fatal(err)
		}
		r = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, r)
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req)
	if err != nil {
		t.Fatal(err)
	}
	data, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	return resp, data
}

func room() []bpmodels.Wall {
	return []bpmodels.Wall{
		{ID: "top", Start: geometry.Point{X: 0, Y: 0}, End: geometry.Point{X: 400, Y: 0}},
		{ID: "right", Start: geometry.Point{X: 400, Y: 0}, End: geometry.Point{X: 400, Y: 300}},
		{ID: "bottom", Start: geometry.Point{X: 400, Y: 300}, End: geometry.Point{X: 0, Y: 300}},
		{ID: "left", Start: geometry.Point{X: 0, Y: 300}, End: geometry.Point{X: 0, Y: 0}},
	}
}

func light(t models.FixtureType, x, y float64) models.LightFixture {
	return models.LightFixture{ID: "l-" + string(t), Type: t, X: x, Y: y, Intensity: 70, Color: "#ffffff", Radius: 60, IsOn: true, Size: 1}
}

func TestCatalogEndpoint(t *testing.T) {
	resp, data := do(t, newApp(t), http.MethodGet, "/fixtures/catalog", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}

	var out struct {
		Fixtures []map[string]any `json:"fixtures"`
	}
	if err := json.Unmarshal(data, &out); err != nil {
		t.Fatal(err)
	}
	if len(out.Fixtures) != 39 {
		t.Fatalf("catalog has %d entries", len(out.Fixtures))
	}
}

func TestCreateFixtureEndpoint(t *testing.T) {
	app := newApp(t)

	resp, data := do(t, app, http.MethodPost, "/fixtures", fixtureRequest{Type: "adjustable-spot-type6", X: 10, Y: 20})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("status = %d: %s", resp.StatusCode, data)
	}
	var f models.LightFixture
	if err := json.Unmarshal(data, &f); err != nil {
		t.Fatal(err)
	}
	if f.ID == "" || f.Intensity != 70 || !f.IsOn || f.Direction == nil || f.X != 10 {
		t.Fatalf("fixture = %+v", f)
	}

	resp, _ = do(t, app, http.MethodPost, "/fixtures", fixtureRequest{Type: "lava-lamp"})
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("unknown type status = %d", resp.StatusCode)
	}
}

func TestHitTestEndpoint(t *testing.T) {
	app := newApp(t)
	list := []models.LightFixture{light(models.Downlight, 100, 100)}

	_, data := do(t, app, http.MethodPost, "/fixtures/hit", hitRequest{Fixtures: list, Point: geometry.Point{X: 110, Y: 100}})
	if !strings.Contains(string(data), `"hit":true`) {
		t.Fatalf("expected hit: %s", data)
	}
	_, data = do(t, app, http.MethodPost, "/fixtures/hit", hitRequest{Fixtures: list, Point: geometry.Point{X: 130, Y: 100}})
	if !strings.Contains(string(data), `"hit":false`) {
		t.Fatalf("expected miss: %s", data)
	}
}

func TestIlluminateEndpoint(t *testing.T) {
	app := newApp(t)

	resp, data := do(t, app, http.MethodPost, "/illuminate", illuminateRequest{Fixture: light(models.Downlight, 200, 150), Walls: room()})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d: %s", resp.StatusCode, data)
	}

	var out struct {
		Family   string            `json:"family"`
		Emitters []emitterResponse `json:"emitters"`
	}
	if err := json.Unmarshal(data, &out); err != nil {
		t.Fatal(err)
	}
	if out.Family != "radial" || len(out.Emitters) != 1 {
		t.Fatalf("illumination = %s", data)
	}
	e := out.Emitters[0]
	if e.Triangles == nil || len(e.Triangles.Indices) == 0 || len(e.Triangles.Indices)%3 != 0 {
		t.Fatalf("triangles = %+v", e.Triangles)
	}
	if len(e.Simplified) == 0 || len(e.Simplified) > len(e.Polygon) {
		t.Fatalf("simplified %d of %d vertices", len(e.Simplified), len(e.Polygon))
	}

	_, data = do(t, app, http.MethodPost, "/illuminate", illuminateRequest{Fixture: light(models.GimbelSpot, 200, 150), Walls: room()})
	if err := json.Unmarshal(data, &out); err != nil {
		t.Fatal(err)
	}
	if len(out.Emitters) != 2 {
		t.Fatalf("gimbel emitters = %d", len(out.Emitters))
	}
}

func TestPositionEndpoints(t *testing.T) {
	app := newApp(t)
	req := positionRequest{
		Fixture:     light(models.Downlight, 96, 240),
		Fixtures:    []models.LightFixture{light(models.Downlight, 96, 240)},
		Walls:       room(),
		Calibration: bpmodels.CalibrationRecord{IsCalibrated: true, PixelsPerInch: 2},
	}

	_, data := do(t, app, http.MethodPost, "/position", req)
	if !strings.Contains(string(data), `"label":"2.5 feet"`) || !strings.Contains(string(data), `"unit":"feet"`) {
		t.Fatalf("position = %s", data)
	}

	resp, data := do(t, app, http.MethodPost, "/positions.csv", req)
	if ct := resp.Header.Get("Content-Type"); !strings.HasPrefix(ct, "text/csv") {
		t.Fatalf("content type = %s", ct)
	}
	if lines := strings.Split(strings.TrimSpace(string(data)), "\n"); len(lines) != 2 {
		t.Fatalf("csv = %q", data)
	}
}

func TestFrameEndpoints(t *testing.T) {
	app := newApp(t)
	st := render.FrameState{
		Scene:  models.Scene{Walls: room(), Fixtures: []models.LightFixture{light(models.Downlight, 200, 150)}, AmbientLevel: 20},
		Width:  300,
		Height: 200,
	}

	resp, data := do(t, app, http.MethodPost, "/frame", st)
	if resp.StatusCode != http.StatusOK || resp.Header.Get("Content-Type") != "image/png" {
		t.Fatalf("status = %d, type = %s", resp.StatusCode, resp.Header.Get("Content-Type"))
	}
	if resp.Header.Get("X-Frame-Id") == "" {
		t.Fatal("missing frame id header")
	}
	img, err := png.Decode(bytes.NewReader(data))
	if err != nil {
		t.Fatal(err)
	}
	if img.Bounds().Dx() != 300 || img.Bounds().Dy() != 200 {
		t.Fatalf("frame bounds = %v", img.Bounds())
	}

	_, data = do(t, app, http.MethodPost, "/frame.svg", st)
	if !strings.HasPrefix(string(data), "<svg") {
		t.Fatalf("svg = %.80s", data)
	}
}

func TestExportEndpoint(t *testing.T) {
	bp := bpmodels.Blueprint{Version: "1.0", Walls: room(), RoomLabels: []bpmodels.RoomLabel{}}
	_, data := do(t, newApp(t), http.MethodPost, "/export", exportRequest{Blueprint: bp, Fixtures: []models.LightFixture{light(models.Downlight, 1, 2)}})

	var out map[string]any
	if err := json.Unmarshal(data, &out); err != nil {
		t.Fatal(err)
	}
	for _, key := range []string{"version", "walls", "lightFixtures", "lightingSettings"} {
		if _, ok := out[key]; !ok {
			t.Errorf("export missing %q", key)
		}
	}
	settings, _ := out["lightingSettings"].(map[string]any)
	if settings["ambientLightLevel"] != 20.0 {
		t.Fatalf("settings = %v", settings)
	}
}

func TestProjectsEndpoints(t *testing.T) {
	app := newApp(t)
	project := store.Project{
		Title:     "Lighting Design",
		Blueprint: bpmodels.Blueprint{Version: "1.0", Walls: room(), RoomLabels: []bpmodels.RoomLabel{}},
		Lighting:  models.LightingData{Fixtures: []models.LightFixture{light(models.Downlight, 1, 2)}},
		Status:    store.StatusLightingComplete,
	}

	resp, data := do(t, app, http.MethodPut, "/projects/p1", project)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("save status = %d: %s", resp.StatusCode, data)
	}

	_, data = do(t, app, http.MethodGet, "/projects/p1", nil)
	var got struct {
		Project store.Project `json:"project"`
	}
	if err := json.Unmarshal(data, &got); err != nil {
		t.Fatal(err)
	}
	if got.Project.ID != "p1" || len(got.Project.Blueprint.Walls) != 4 {
		t.Fatalf("project = %+v", got.Project)
	}
	if got.Project.Lighting.AmbientLevel != models.DefaultAmbientLevel || got.Project.Lighting.Settings.TotalLights != 1 {
		t.Fatalf("lighting = %+v", got.Project.Lighting)
	}

	_, data = do(t, app, http.MethodGet, "/projects", nil)
	if !strings.Contains(string(data), `"projectId":"p1"`) {
		t.Fatalf("list = %s", data)
	}

	resp, _ = do(t, app, http.MethodDelete, "/projects/p1", nil)
	if resp.StatusCode != http.StatusNoContent {
		t.Fatalf("delete status = %d", resp.StatusCode)
	}
	resp, _ = do(t, app, http.MethodGet, "/projects/p1", nil)
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("missing project status = %d", resp.StatusCode)
	}
}

func TestInvalidBody(t *testing.T) {
	app := newApp(t)

	req := httptest.NewRequest(http.MethodPost, "/illuminate", strings.NewReader("{not json"))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req)
	if err != nil {
		t.Fatal(err)
	}
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("status = %d", resp.StatusCode)
	}

	resp, _ = do(t, app, http.MethodPost, "/position", nil)
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("empty body status = %d", resp.StatusCode)
	}
}
