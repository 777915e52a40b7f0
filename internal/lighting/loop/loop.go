// Package loop schedules frame rendering: on every tick while animating,
// otherwise only after the scene changed.
package loop

import (
	"context"
	"errors"
	"log"
	"slices"
	"sync"
	"time"

	"lightplan/internal/lighting/models"
	"lightplan/internal/lighting/render"
)

// ============================================================
// Shared state
// ============================================================

// State - текущее состояние кадра. Мутации идут между кадрами,
// рендер получает копию.
type State struct {
	mu      sync.RWMutex
	frame   render.FrameState
	version uint64
}

func NewState(initial render.FrameState) *State {
	return &State{frame: initial, version: 1}
}

// Update применяет изменение и увеличивает версию.
func (s *State) Update(fn func(*render.FrameState)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fn(&s.frame)
	s.version++
}

// Snapshot возвращает копию состояния и его версию.
func (s *State) Snapshot() (render.FrameState, uint64) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	fs := s.frame
	fs.Scene.Walls = slices.Clone(fs.Scene.Walls)
	fs.Scene.Fixtures = slices.Clone(fs.Scene.Fixtures)
	fs.Scene.RoomLabels = slices.Clone(fs.Scene.RoomLabels)
	fs.Scene.Furniture = slices.Clone(fs.Scene.Furniture)
	return fs, s.version
}

// SetFixtures заменяет набор светильников.
func (s *State) SetFixtures(fixtures []models.LightFixture) {
	s.Update(func(fs *render.FrameState) {
		fs.Scene.Fixtures = slices.Clone(fixtures)
	})
}

// ============================================================
// Runner
// ============================================================

type Runner struct {
	renderer *render.Renderer
	state    *State
	interval time.Duration
	animate  bool
	sink     func(render.FrameOutput)

	mu       sync.Mutex
	rendered uint64
	skipped  uint64
	last     uint64
}

// New создаёт планировщик на fps кадров в секунду; fps <= 0 даёт 30.
func New(r *render.Renderer, state *State, fps int, animate bool, sink func(render.FrameOutput)) *Runner {
	if fps <= 0 {
		fps = 30
	}
	return &Runner{
		renderer: r,
		state:    state,
		interval: time.Second / time.Duration(fps),
		animate:  animate,
		sink:     sink,
	}
}

// Tick рисует один кадр, если он нужен. Без анимации кадр рисуется
// только после изменения состояния.
func (r *Runner) Tick(ctx context.Context) (bool, error) {
	fs, version := r.state.Snapshot()

	r.mu.Lock()
	due := r.animate || version != r.last
	r.mu.Unlock()
	if !due {
		return false, nil
	}

	out, err := r.renderer.Render(ctx, fs)
	if err != nil {
		r.mu.Lock()
		r.skipped++
		r.mu.Unlock()
		return false, err
	}

	r.mu.Lock()
	r.rendered++
	r.last = version
	r.mu.Unlock()

	if r.sink != nil {
		r.sink(out)
	}
	return true, nil
}

// Run крутит кадры до отмены контекста. Прерванный кадр пропускается целиком.
func (r *Runner) Run(ctx context.Context) error {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	log.Printf("[LOOP] Started at %v per frame (animate: %v)", r.interval, r.animate)
	for {
		select {
		case <-ctx.Done():
			rendered, skipped := r.Stats()
			log.Printf("[LOOP] Stopped: %d frames rendered, %d skipped", rendered, skipped)
			return nil
		case <-ticker.C:
			if _, err := r.Tick(ctx); err != nil {
				if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
					continue
				}
				return err
			}
		}
	}
}

func (r *Runner) Stats() (rendered, skipped uint64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rendered, r.skipped
}
