package ui

import (
	"fmt"

	gui "github.com/gen2brain/raylib-go/raygui"
	rl "github.com/gen2brain/raylib-go/raylib"
)

// ControlsResult reports what the user changed this frame.
type ControlsResult struct {
	// Mode is the mode whose button was pressed, or empty.
	Mode           string
	StepsPerUpdate int
	TogglePause    bool
	ResetCamera    bool
}

// ControlsPanel renders the mode buttons and stepping controls.
type ControlsPanel struct {
	renderer *Renderer
	x, y     int32
	width    int32
	modes    []string
	visible  bool
}

// NewControlsPanel creates a panel with one button per mode name.
func NewControlsPanel(x, y, width int32, modes []string) *ControlsPanel {
	return &ControlsPanel{
		renderer: NewRenderer(),
		x:        x,
		y:        y,
		width:    width,
		modes:    modes,
		visible:  true,
	}
}

// SetPosition updates the panel position.
func (c *ControlsPanel) SetPosition(x, y int32) {
	c.x = x
	c.y = y
}

// IsVisible returns whether the panel is shown.
func (c *ControlsPanel) IsVisible() bool {
	return c.visible
}

// Toggle switches panel visibility.
func (c *ControlsPanel) Toggle() bool {
	c.visible = !c.visible
	return c.visible
}

// Height returns the panel height for its mode count.
func (c *ControlsPanel) Height() int32 {
	t := c.renderer.Theme
	rows := int32(len(c.modes)) + 3
	return t.Padding*2 + t.LineHeight + rows*36
}

// Draw renders the panel and returns the user's changes.
func (c *ControlsPanel) Draw(currentMode string, stepsPerUpdate int, paused bool) ControlsResult {
	res := ControlsResult{StepsPerUpdate: stepsPerUpdate}
	if !c.visible {
		return res
	}

	r := c.renderer
	padding := r.Theme.Padding
	r.DrawPanel(c.x, c.y, c.width, c.Height())

	y := r.DrawSectionHeader(c.x+padding, c.y+padding, "Neighbor Search")
	bx := float32(c.x + padding)
	bw := float32(c.width - padding*2)

	for _, mode := range c.modes {
		label := mode
		if mode == currentMode {
			label = "> " + mode
		}
		if gui.Button(rl.Rectangle{X: bx, Y: float32(y), Width: bw, Height: 30}, label) && mode != currentMode {
			res.Mode = mode
		}
		y += 36
	}

	rl.DrawText(fmt.Sprintf("Steps per frame: %d", stepsPerUpdate), c.x+padding, y, r.Theme.FontSize, r.Theme.LabelColor)
	y += r.Theme.LineHeight
	steps := gui.SliderBar(
		rl.Rectangle{X: bx, Y: float32(y), Width: bw - 30, Height: 16},
		"1", "10",
		float32(stepsPerUpdate), 1, 10,
	)
	res.StepsPerUpdate = clampSteps(int(steps + 0.5))
	y += 24

	if gui.Button(rl.Rectangle{X: bx, Y: float32(y), Width: bw/2 - 4, Height: 30}, toggleText(paused, "Resume", "Pause")) {
		res.TogglePause = true
	}
	if gui.Button(rl.Rectangle{X: bx + bw/2 + 4, Y: float32(y), Width: bw/2 - 4, Height: 30}, "Reset View") {
		res.ResetCamera = true
	}

	return res
}

func clampSteps(n int) int {
	if n < 1 {
		return 1
	}
	if n > 10 {
		return 10
	}
	return n
}

func toggleText(on bool, onText, offText string) string {
	if on {
		return onText
	}
	return offText
}
