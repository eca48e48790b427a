package sim

import (
	"fmt"
	"strings"
)

// Mode selects the neighbor-search strategy of a step.
type Mode int

const (
	// ModeBruteForce checks every pair of particles.
	ModeBruteForce Mode = iota
	// ModeScattered searches grid cells through the sorted index array.
	ModeScattered
	// ModeCoherent reshuffles particle state into cell order before searching.
	ModeCoherent
)

var modeNames = map[Mode]string{
	ModeBruteForce: "naive",
	ModeScattered:  "scattered",
	ModeCoherent:   "coherent",
}

// Modes returns every mode, slowest first.
func Modes() []Mode {
	return []Mode{ModeBruteForce, ModeScattered, ModeCoherent}
}

func (m Mode) String() string {
	if name, ok := modeNames[m]; ok {
		return name
	}
	return fmt.Sprintf("Mode(%d)", int(m))
}

// UsesGrid reports whether the mode runs the bucketing stages.
func (m Mode) UsesGrid() bool {
	return m == ModeScattered || m == ModeCoherent
}

// ParseMode parses a mode name as used in config files and flags.
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "naive", "brute", "bruteforce", "brute-force":
		return ModeBruteForce, nil
	case "scattered", "uniform":
		return ModeScattered, nil
	case "coherent":
		return ModeCoherent, nil
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownMode, s)
}
