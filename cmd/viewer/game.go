package main

import (
	"log"
	"sync"

	"lightplan/internal/geometry"
	"lightplan/internal/lighting/fixtures"
	"lightplan/internal/lighting/loop"
	"lightplan/internal/lighting/render"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
)

const ambientStep = 5

// Game показывает последний готовый кадр и переводит ввод в изменения состояния.
//
//	ЛКМ       - выбрать светильник
//	Пробел    - вкл/выкл выбранный
//	L         - подписи
//	Up/Down   - окружающий свет
//	Esc       - выход
type Game struct {
	state  *loop.State
	width  int
	height int

	mu        sync.Mutex
	pending   *render.FrameOutput
	transform render.Transform

	frame *ebiten.Image
}

func newGame(state *loop.State, width, height int) *Game {
	return &Game{state: state, width: width, height: height}
}

// receive вызывается из цикла рендера.
func (g *Game) receive(out render.FrameOutput) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.pending = &out
	g.transform = out.Transform
}

func (g *Game) Update() error {
	if inpututil.IsKeyJustPressed(ebiten.KeyEscape) {
		return ebiten.Termination
	}

	if inpututil.IsMouseButtonJustPressed(ebiten.MouseButtonLeft) {
		x, y := ebiten.CursorPosition()
		g.selectAt(geometry.Point{X: float64(x), Y: float64(y)})
	}

	switch {
	case inpututil.IsKeyJustPressed(ebiten.KeySpace):
		g.toggleSelected()
	case inpututil.IsKeyJustPressed(ebiten.KeyL):
		g.state.Update(func(fs *render.FrameState) { fs.HideLabels = !fs.HideLabels })
	case inpututil.IsKeyJustPressed(ebiten.KeyUp):
		g.adjustAmbient(ambientStep)
	case inpututil.IsKeyJustPressed(ebiten.KeyDown):
		g.adjustAmbient(-ambientStep)
	}
	return nil
}

func (g *Game) Draw(screen *ebiten.Image) {
	g.mu.Lock()
	pending := g.pending
	g.pending = nil
	g.mu.Unlock()

	if pending != nil && pending.Image != nil {
		if g.frame != nil {
			g.frame.Deallocate()
		}
		g.frame = ebiten.NewImageFromImage(pending.Image)
	}
	if g.frame != nil {
		screen.DrawImage(g.frame, nil)
	}
}

func (g *Game) Layout(_, _ int) (int, int) {
	return g.width, g.height
}

func (g *Game) selectAt(screenPt geometry.Point) {
	g.mu.Lock()
	world := g.transform.Invert(screenPt)
	g.mu.Unlock()

	fs, _ := g.state.Snapshot()
	hit, ok := fixtures.HitTest(fs.Scene.Fixtures, world)

	g.state.Update(func(fs *render.FrameState) {
		if ok {
			fs.SelectedID = hit.ID
		} else {
			fs.SelectedID = ""
		}
	})
	if ok {
		log.Printf("[VIEWER] Selected %s (%s)", hit.ID, hit.Type)
	}
}

func (g *Game) toggleSelected() {
	g.state.Update(func(fs *render.FrameState) {
		for i := range fs.Scene.Fixtures {
			if fs.Scene.Fixtures[i].ID == fs.SelectedID {
				fs.Scene.Fixtures[i].IsOn = !fs.Scene.Fixtures[i].IsOn
			}
		}
	})
}

func (g *Game) adjustAmbient(delta float64) {
	g.state.Update(func(fs *render.FrameState) {
		fs.Scene.AmbientLevel = min(100, max(0, fs.Scene.AmbientLevel+delta))
	})
}
