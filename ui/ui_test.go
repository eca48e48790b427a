package ui

import (
	"testing"

	rl "github.com/gen2brain/raylib-go/raylib"
)

func TestBarColor(t *testing.T) {
	r := NewRenderer()

	tests := []struct {
		value float32
		want  rl.Color
	}{
		{0, r.Theme.BarFillLow},
		{0.29, r.Theme.BarFillLow},
		{0.3, r.Theme.BarFillMedium},
		{0.59, r.Theme.BarFillMedium},
		{0.6, r.Theme.BarFillHigh},
		{1, r.Theme.BarFillHigh},
	}

	for _, tt := range tests {
		if got := r.BarColor(tt.value); got != tt.want {
			t.Errorf("BarColor(%v) = %v, want %v", tt.value, got, tt.want)
		}
	}
}

func TestClampSteps(t *testing.T) {
	for in, want := range map[int]int{-3: 1, 0: 1, 1: 1, 5: 5, 10: 10, 11: 10} {
		if got := clampSteps(in); got != want {
			t.Errorf("clampSteps(%d) = %d, want %d", in, got, want)
		}
	}
}

func TestPhaseColor(t *testing.T) {
	if phaseColor(60) != rl.Red || phaseColor(30) != rl.Orange || phaseColor(5) != rl.LightGray {
		t.Error("phase colors do not follow thresholds")
	}
}
