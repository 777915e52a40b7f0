package main

import (
	"fmt"
	"log"
	"time"

	"lightplan/internal/blueprint/handlers"
	"lightplan/internal/blueprint/tracer"
	"lightplan/internal/common/config"
	"lightplan/internal/common/middleware"
	health "lightplan/internal/gateway/handlers"

	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/recover"
)

// ============================================================
// Blueprint Service
// ============================================================

func main() {
	cfg := config.LoadService("3001")

	app := fiber.New(fiber.Config{
		ReadTimeout:  time.Duration(cfg.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.WriteTimeout) * time.Second,
		BodyLimit:    cfg.BodyLimit(),
		AppName:      "Blueprint Service",
	})

	// ============================================================
	// Global Middleware
	// ============================================================

	app.Use(recover.New())
	app.Use(middleware.Logger("BLUEPRINT"))
	app.Use(middleware.CORS())

	// ============================================================
	// Health Check Routes
	// ============================================================

	app.Get("/health/live", health.LivenessProbe)
	app.Get("/health/ready", func(c fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ready"})
	})
	app.Get("/health/startup", health.StartupProbe)

	// ============================================================
	// Blueprint Routes
	// ============================================================

	handlers.NewBlueprintHandler(tracer.DefaultOptions()).Register(app)

	// ============================================================
	// Server Start
	// ============================================================

	addr := fmt.Sprintf(":%s", cfg.Port)
	log.Printf("Starting Blueprint Service on %s (env: %s)", addr, cfg.Environment)

	if err := app.Listen(addr); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}
