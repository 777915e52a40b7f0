package main

import (
	"fmt"
	"log"
	"time"

	"lightplan/internal/common/config"
	"lightplan/internal/common/middleware"
	"lightplan/internal/gateway/handlers"
	"lightplan/internal/gateway/proxy"

	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/recover"
)

// ============================================================
// API Gateway
// ============================================================

func main() {
	cfg := config.Load()

	app := fiber.New(fiber.Config{
		ReadTimeout:  time.Duration(cfg.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.WriteTimeout) * time.Second,
		BodyLimit:    cfg.BodyLimit(),
		AppName:      "Lightplan Gateway",
	})

	// ============================================================
	// Global Middleware
	// ============================================================

	app.Use(recover.New())
	app.Use(middleware.Logger("GATEWAY"))
	app.Use(middleware.CORS())

	// ============================================================
	// Health Check Routes
	// ============================================================

	readiness := handlers.NewReadiness(map[string]string{
		"blueprint": cfg.BlueprintURL,
		"lighting":  cfg.LightingURL,
	})

	app.Get("/health/live", handlers.LivenessProbe)
	app.Get("/health/ready", readiness.Probe)
	app.Get("/health/startup", handlers.StartupProbe)

	// ============================================================
	// Docs
	// ============================================================

	app.Get("/docs", handlers.SwaggerUI)
	app.Get("/docs/openapi.yaml", handlers.SwaggerSpec(handlers.DefaultSpecPath))

	// ============================================================
	// API Routes
	// ============================================================

	api := app.Group("/api/v1")

	api.Get("/", func(c fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"message": "Lightplan API v1",
			"status":  "ok",
		})
	})

	// ============================================================
	// Service Routes (Proxy)
	// ============================================================

	// Трассировка, калибровка и редактирование стен
	blueprint := proxy.NewUpstream("blueprint", cfg.BlueprintURL, time.Duration(cfg.WriteTimeout)*time.Second)
	api.All("/blueprint/*", blueprint.Handler())

	// Светильники, кадры и проекты
	lighting := proxy.NewUpstream("lighting", cfg.LightingURL, time.Duration(cfg.WriteTimeout)*time.Second)
	api.All("/lighting/*", lighting.Handler())

	// ============================================================
	// Server Start
	// ============================================================

	addr := fmt.Sprintf(":%s", cfg.Port)
	log.Printf("Starting Lightplan Gateway on %s (env: %s)", addr, cfg.Environment)
	log.Printf("Proxying /blueprint to %s, /lighting to %s", cfg.BlueprintURL, cfg.LightingURL)

	if err := app.Listen(addr); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}
