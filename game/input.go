package game

import (
	"log/slog"

	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/pthm-cable/flock/sim"
)

// Radians of orbit per pixel of mouse drag.
const orbitSensitivity = 0.005

// handleInput processes keyboard input.
func (g *Game) handleInput() {
	g.handleResize()

	if rl.IsKeyPressed(rl.KeyF11) {
		rl.ToggleFullscreen()
	}

	if rl.IsKeyPressed(rl.KeySpace) {
		g.paused = !g.paused
	}

	// Steps-per-update control with < > keys (comma and period)
	if rl.IsKeyPressed(rl.KeyComma) && g.stepsPerUpdate > 1 {
		g.stepsPerUpdate--
	}
	if rl.IsKeyPressed(rl.KeyPeriod) && g.stepsPerUpdate < 10 {
		g.stepsPerUpdate++
	}

	// Mode hotkeys follow the order of sim.Modes()
	keys := []int32{rl.KeyOne, rl.KeyTwo, rl.KeyThree}
	for i, mode := range sim.Modes() {
		if i < len(keys) && rl.IsKeyPressed(keys[i]) {
			g.SetMode(mode)
		}
	}

	if rl.IsKeyPressed(rl.KeyG) {
		g.flockRenderer.ShowGrid = !g.flockRenderer.ShowGrid
	}
	if rl.IsKeyPressed(rl.KeyB) {
		g.flockRenderer.ShowBounds = !g.flockRenderer.ShowBounds
	}
	if rl.IsKeyPressed(rl.KeyP) {
		g.showPerf = !g.showPerf
	}
	if rl.IsKeyPressed(rl.KeyTab) {
		g.controls.Toggle()
	}
	if rl.IsKeyPressed(rl.KeyS) {
		if path, err := g.SaveSnapshot(); err != nil {
			slog.Error("failed to save snapshot", "error", err)
		} else if path != "" {
			slog.Info("snapshot saved", "path", path, "tick", g.sim.Tick())
		}
	}

	g.handleCameraInput()
}

// handleResize checks for window resize and propagates new dimensions.
func (g *Game) handleResize() {
	if !rl.IsWindowResized() {
		return
	}
	w := float32(rl.GetScreenWidth())
	h := float32(rl.GetScreenHeight())
	if w == g.screenWidth && h == g.screenHeight {
		return
	}
	g.screenWidth = w
	g.screenHeight = h
	g.layoutPanels()
}

// handleCameraInput orbits with the right mouse button or arrow keys and
// zooms with the wheel.
func (g *Game) handleCameraInput() {
	if rl.IsMouseButtonDown(rl.MouseButtonRight) {
		d := rl.GetMouseDelta()
		g.camera.Orbit(d.X*orbitSensitivity, d.Y*orbitSensitivity)
	}

	const keyOrbit = 0.03
	if rl.IsKeyDown(rl.KeyLeft) {
		g.camera.Orbit(-keyOrbit, 0)
	}
	if rl.IsKeyDown(rl.KeyRight) {
		g.camera.Orbit(keyOrbit, 0)
	}
	if rl.IsKeyDown(rl.KeyUp) {
		g.camera.Orbit(0, keyOrbit)
	}
	if rl.IsKeyDown(rl.KeyDown) {
		g.camera.Orbit(0, -keyOrbit)
	}

	if wheel := rl.GetMouseWheelMove(); wheel != 0 {
		g.camera.ZoomBy(1 + wheel*0.1)
	}
	if rl.IsKeyPressed(rl.KeyR) {
		g.camera.Reset()
	}
}
