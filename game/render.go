package game

import (
	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/pthm-cable/flock/camera"
	"github.com/pthm-cable/flock/renderer"
	"github.com/pthm-cable/flock/sim"
	"github.com/pthm-cable/flock/ui"
)

const (
	controlsWidth = 200
	controlsHint  = "[1-3] mode  [SPACE] pause  [</>] speed  [G] grid  [B] bounds  [P] perf  [S] snapshot  [R] view  [TAB] panel"
)

// initRendering creates the camera and UI. Requires an open raylib window.
func (g *Game) initRendering() {
	g.screenWidth = float32(rl.GetScreenWidth())
	g.screenHeight = float32(rl.GetScreenHeight())

	g.camera = camera.New(float32(g.sim.HalfExtent()))
	g.flockRenderer = renderer.NewFlockRenderer(g.sim.HalfExtent(), g.cfg.Motion.MaxSpeed)
	g.hud = ui.NewHUD()
	g.perfPanel = ui.NewPerfPanel(0, 0)

	names := make([]string, 0, len(sim.Modes()))
	for _, m := range sim.Modes() {
		names = append(names, m.String())
	}
	g.controls = ui.NewControlsPanel(0, 0, controlsWidth, names)
	g.layoutPanels()
}

// layoutPanels anchors side panels to the right edge.
func (g *Game) layoutPanels() {
	x := int32(g.screenWidth) - controlsWidth - 10
	g.controls.SetPosition(x, 10)
	g.perfPanel.SetPosition(x, 20+g.controls.Height())
}

// Draw renders one frame.
func (g *Game) Draw() {
	g.perfCollector.RecordFrame()
	g.sim.ExportStateInto(&g.state)

	rl.BeginDrawing()
	rl.ClearBackground(rl.Color{R: 12, G: 14, B: 20, A: 255})

	g.flockRenderer.Draw(g.camera, g.state.Pos, g.state.Vel, g.sim.Geometry())
	g.drawUI()

	rl.EndDrawing()
}

func (g *Game) drawUI() {
	g.hud.Draw(ui.HUDData{
		Title:          "Flock",
		Particles:      g.sim.Len(),
		Tick:           g.sim.Tick(),
		Mode:           g.mode.String(),
		StepsPerUpdate: g.stepsPerUpdate,
		FPS:            rl.GetFPS(),
		Paused:         g.paused,
		GPU:            g.sim.UsingGPU(),
		Polarization:   g.lastStats.Polarization,
		OccupiedCells:  g.lastStats.OccupiedCells,
	})
	g.hud.DrawControls(int32(g.screenHeight), controlsHint)

	res := g.controls.Draw(g.mode.String(), g.stepsPerUpdate, g.paused)
	if res.Mode != "" {
		if mode, err := sim.ParseMode(res.Mode); err == nil {
			g.SetMode(mode)
		}
	}
	g.stepsPerUpdate = res.StepsPerUpdate
	if res.TogglePause {
		g.paused = !g.paused
	}
	if res.ResetCamera {
		g.camera.Reset()
	}

	if g.showPerf {
		g.perfPanel.Draw(g.perfCollector.Stats())
	}
}
