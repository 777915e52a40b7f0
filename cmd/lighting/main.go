package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"time"

	"lightplan/internal/common/config"
	"lightplan/internal/common/middleware"
	health "lightplan/internal/gateway/handlers"
	"lightplan/internal/lighting/handlers"
	"lightplan/internal/lighting/render"
	"lightplan/internal/store"

	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/recover"
)

// ============================================================
// Lighting Service
// ============================================================

func main() {
	cfg := config.LoadService("3002")

	db, err := store.OpenSQLite(cfg.DBPath)
	if err != nil {
		log.Fatalf("open db: %v", err)
	}
	defer db.Close()

	repo := store.New(db)
	if err := repo.Init(context.Background()); err != nil {
		log.Fatalf("init db: %v", err)
	}

	renderer := render.New(cfg.RenderWorkers)
	lightingHandler := handlers.NewLightingHandler(renderer, repo)

	app := fiber.New(fiber.Config{
		ReadTimeout:  time.Duration(cfg.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.WriteTimeout) * time.Second,
		BodyLimit:    cfg.BodyLimit(),
		AppName:      "Lighting Service",
	})

	// ============================================================
	// Global Middleware
	// ============================================================

	app.Use(recover.New())
	app.Use(middleware.Logger("LIGHTING"))
	app.Use(middleware.CORS())

	// ============================================================
	// Health Check Routes
	// ============================================================

	app.Get("/health/live", health.LivenessProbe)
	app.Get("/health/ready", func(c fiber.Ctx) error {
		if err := db.PingContext(c.Context()); err != nil {
			return c.Status(http.StatusServiceUnavailable).JSON(fiber.Map{"status": "db unavailable"})
		}
		return c.JSON(fiber.Map{"status": "ready"})
	})
	app.Get("/health/startup", health.StartupProbe)

	// ============================================================
	// Lighting Routes
	// ============================================================

	lightingHandler.Register(app)

	// ============================================================
	// Server Start
	// ============================================================

	addr := fmt.Sprintf(":%s", cfg.Port)
	log.Printf("Starting Lighting Service on %s (env: %s, workers: %d, db: %s)", addr, cfg.Environment, cfg.RenderWorkers, cfg.DBPath)

	if err := app.Listen(addr); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}
