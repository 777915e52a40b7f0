package handlers

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/gofiber/fiber/v3"
)

func readyServer(status int) *httptest.Server {
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/health/ready" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		w.WriteHeader(status)
	}))
}

func TestReadinessProbe(t *testing.T) {
	ok := readyServer(http.StatusOK)
	defer ok.Close()
	busy := readyServer(http.StatusServiceUnavailable)
	defer busy.Close()

	tests := []struct {
		name      string
		upstreams map[string]string
		want      int
		services  map[string]string
	}{
		{"all ready", map[string]string{"blueprint": ok.URL, "lighting": ok.URL}, http.StatusOK,
			map[string]string{"blueprint": "ready", "lighting": "ready"}},
		{"one not ready", map[string]string{"blueprint": ok.URL, "lighting": busy.URL}, http.StatusServiceUnavailable,
			map[string]string{"blueprint": "ready", "lighting": "not ready"}},
		{"unreachable", map[string]string{"lighting": "http://127.0.0.1:1"}, http.StatusServiceUnavailable,
			map[string]string{"lighting": "unreachable"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			app := fiber.New()
			app.Get("/health/ready", NewReadiness(tt.upstreams).Probe)

			resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/health/ready", nil))
			if err != nil {
				t.Fatal(err)
			}
			if resp.StatusCode != tt.want {
				t.Fatalf("status = %d, want %d", resp.StatusCode, tt.want)
			}

			var out struct {
				Services map[string]string `json:"services"`
			}
			if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
				t.Fatal(err)
			}
			for name, want := range tt.services {
				if out.Services[name] != want {
					t.Errorf("%s = %q, want %q", name, out.Services[name], want)
				}
			}
		})
	}
}

func TestLivenessProbe(t *testing.T) {
	app := fiber.New()
	app.Get("/health/live", LivenessProbe)

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/health/live", nil))
	if err != nil {
		t.Fatal(err)
	}
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
}

func TestSwaggerSpec(t *testing.T) {
	path := filepath.Join(t.TempDir(), "openapi.yaml")
	if err := os.WriteFile(path, []byte("openapi: 3.0.3\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	app := fiber.New()
	app.Get("/docs/openapi.yaml", SwaggerSpec(path))
	app.Get("/missing.yaml", SwaggerSpec(filepath.Join(t.TempDir(), "nope.yaml")))

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/docs/openapi.yaml", nil))
	if err != nil {
		t.Fatal(err)
	}
	body, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != http.StatusOK || string(body) != "openapi: 3.0.3\n" {
		t.Fatalf("status %d body %q", resp.StatusCode, body)
	}

	resp, err = app.Test(httptest.NewRequest(http.MethodGet, "/missing.yaml", nil))
	if err != nil {
		t.Fatal(err)
	}
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("missing status = %d", resp.StatusCode)
	}
}
