package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gofiber/fiber/v3"
)

// ============================================================
// Health Check Handlers
// ============================================================

// LivenessProbe проверяет, что приложение работает
func LivenessProbe(c fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"status": "alive",
	})
}

// StartupProbe проверяет, что приложение успешно запустилось
func StartupProbe(c fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"status": "started",
	})
}

// Readiness опрашивает /health/ready сервисов планов и освещения.
type Readiness struct {
	upstreams map[string]string
	client    *http.Client
}

func NewReadiness(upstreams map[string]string) *Readiness {
	return &Readiness{upstreams: upstreams, client: &http.Client{Timeout: 2 * time.Second}}
}

// Probe отвечает 503, если хотя бы один сервис не готов.
func (r *Readiness) Probe(c fiber.Ctx) error {
	services := fiber.Map{}
	ready := true
	for name, base := range r.upstreams {
		status := r.check(c.Context(), base)
		if status != "ready" {
			ready = false
		}
		services[name] = status
	}

	if !ready {
		return c.Status(http.StatusServiceUnavailable).JSON(fiber.Map{"status": "degraded", "services": services})
	}
	return c.JSON(fiber.Map{"status": "ready", "services": services})
}

func (r *Readiness) check(ctx context.Context, base string) string {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, base+"/health/ready", nil)
	if err != nil {
		return "invalid"
	}
	resp, err := r.client.Do(req)
	if err != nil {
		return "unreachable"
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "not ready"
	}
	return "ready"
}
