// Package ebiten provides Dear ImGui backend integration for the Ebiten game engine.
package ebiten

import (
	ebitenbackend "github.com/AllenDang/cimgui-go/backend/ebiten-backend"
	"github.com/AllenDang/cimgui-go/imgui"
	"github.com/hajimehoshi/ebiten/v2"
	"github.com/plus3/scenecore/ecs"
)

// ImguiBackend wraps the Ebiten-specific Dear ImGui backend implementation.
// Use this to integrate Dear ImGui rendering into Ebiten game loops.
type ImguiBackend struct {
	*ebitenbackend.EbitenBackend
}

// NewImguiBackend creates the backend and its window. The ini file is disabled.
func NewImguiBackend(title string, width, height int) ImguiBackend {
	backend := ebitenbackend.NewEbitenBackend()
	backend.CreateWindow(title, width, height)
	imgui.CurrentIO().SetIniFilename("")
	return ImguiBackend{EbitenBackend: backend}
}

// Game implements ebiten.Game. Each tick runs the scheduler once between the ImGui
// frame markers; the backend lives in the scene as a singleton.
type Game struct {
	Scheduler *ecs.Scheduler
	TickRate  float64

	backend *ecs.Singleton[ImguiBackend]
}

// NewGame registers backend as a singleton of the scheduler's scene.
func NewGame(scheduler *ecs.Scheduler, backend ImguiBackend) *Game {
	return &Game{
		Scheduler: scheduler,
		TickRate:  60,
		backend:   ecs.NewSingleton(scheduler.Scene(), backend),
	}
}

func (g *Game) Update() error {
	b := g.backend.Get()
	b.BeginFrame()
	g.Scheduler.Once(1.0 / g.TickRate)
	b.EndFrame()
	return nil
}

func (g *Game) Draw(screen *ebiten.Image) {
	g.backend.Get().Draw(screen)
}

func (g *Game) Layout(outsideWidth, outsideHeight int) (int, int) {
	g.backend.Get().Layout(outsideWidth, outsideHeight)
	return outsideWidth, outsideHeight
}
