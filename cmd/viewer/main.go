package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"

	"lightplan/internal/lighting/loop"
	"lightplan/internal/lighting/models"
	"lightplan/internal/lighting/render"

	"github.com/hajimehoshi/ebiten/v2"
)

// ============================================================
// Lighting Viewer
// ============================================================

func main() {
	var (
		designPath = flag.String("design", "", "exported design JSON (plan + lightFixtures)")
		width      = flag.Int("width", render.DefaultWidth, "frame width")
		height     = flag.Int("height", render.DefaultHeight, "frame height")
		fps        = flag.Int("fps", 30, "frame rate")
		workers    = flag.Int("workers", render.DefaultWorkers, "render workers")
		animate    = flag.Bool("animate", false, "redraw on every tick")
		out        = flag.String("out", "", "render a single PNG to this path and exit")
	)
	flag.Parse()

	if *designPath == "" {
		log.Fatal("-design is required")
	}

	scene, err := loadScene(*designPath)
	if err != nil {
		log.Fatalf("load design: %v", err)
	}

	state := render.FrameState{Scene: scene, Width: *width, Height: *height}
	renderer := render.New(*workers)

	if *out != "" {
		if err := renderOnce(renderer, state, *out); err != nil {
			log.Fatalf("render: %v", err)
		}
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	game := newGame(loop.NewState(state), *width, *height)
	runner := loop.New(renderer, game.state, *fps, *animate, game.receive)
	go func() {
		if err := runner.Run(ctx); err != nil {
			log.Printf("[VIEWER] Loop failed: %v", err)
		}
	}()

	ebiten.SetWindowSize(*width, *height)
	ebiten.SetWindowTitle(fmt.Sprintf("Lightplan - %s", *designPath))
	ebiten.SetTPS(*fps)

	if err := ebiten.RunGame(game); err != nil && !errors.Is(err, ebiten.Termination) {
		log.Fatalf("viewer: %v", err)
	}
}

func loadScene(path string) (models.Scene, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return models.Scene{}, err
	}

	var design models.DesignExport
	if err := json.Unmarshal(raw, &design); err != nil {
		return models.Scene{}, fmt.Errorf("decode %s: %w", path, err)
	}
	log.Printf("[VIEWER] Loaded %d walls, %d fixtures", len(design.Walls), len(design.LightFixtures))
	return design.Scene(), nil
}

func renderOnce(r *render.Renderer, state render.FrameState, path string) error {
	frame, err := r.Render(context.Background(), state)
	if err != nil {
		return err
	}

	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	if err := render.EncodePNG(f, frame.Image); err != nil {
		return err
	}
	log.Printf("[VIEWER] Frame %s written to %s in %v", frame.ID, path, frame.Elapsed)
	return nil
}
