package telemetry

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gonum.org/v1/gonum/spatial/r3"
)

// SnapshotVersion is incremented when the format changes.
const SnapshotVersion = 1

// ErrSnapshotMismatch is returned when a snapshot does not fit the flock
// it is restored into.
var ErrSnapshotMismatch = errors.New("snapshot does not match simulation")

// Snapshot holds the complete flock state in original particle order.
type Snapshot struct {
	Version int     `json:"version"`
	RNGSeed int64   `json:"rng_seed"`
	Scale   float64 `json:"scale"`
	Tick    int32   `json:"tick"`
	Mode    string  `json:"mode"`

	Particles []ParticleState `json:"particles"`

	Bookmark *Bookmark `json:"bookmark,omitempty"`
}

// ParticleState holds one particle's position and velocity.
type ParticleState struct {
	X    float64 `json:"x"`
	Y    float64 `json:"y"`
	Z    float64 `json:"z"`
	VelX float64 `json:"vel_x"`
	VelY float64 `json:"vel_y"`
	VelZ float64 `json:"vel_z"`
}

// NewSnapshot captures pos and vel, which must be in particle order.
func NewSnapshot(tick int32, mode string, seed int64, scale float64, pos, vel []r3.Vec) *Snapshot {
	s := &Snapshot{
		Version:   SnapshotVersion,
		RNGSeed:   seed,
		Scale:     scale,
		Tick:      tick,
		Mode:      mode,
		Particles: make([]ParticleState, len(pos)),
	}
	for i := range pos {
		s.Particles[i] = ParticleState{
			X: pos[i].X, Y: pos[i].Y, Z: pos[i].Z,
			VelX: vel[i].X, VelY: vel[i].Y, VelZ: vel[i].Z,
		}
	}
	return s
}

// Restore copies the snapshot into pos and vel, which must hold exactly one
// entry per snapshot particle.
func (s *Snapshot) Restore(pos, vel []r3.Vec) error {
	if len(pos) != len(s.Particles) || len(vel) != len(s.Particles) {
		return fmt.Errorf("%w: %d particles, simulation has %d", ErrSnapshotMismatch, len(s.Particles), len(pos))
	}
	for i, p := range s.Particles {
		pos[i] = r3.Vec{X: p.X, Y: p.Y, Z: p.Z}
		vel[i] = r3.Vec{X: p.VelX, Y: p.VelY, Z: p.VelZ}
	}
	return nil
}

// SaveSnapshot writes a snapshot to disk.
// Returns the filepath where it was saved.
func SaveSnapshot(snapshot *Snapshot, dir string) (string, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("create snapshot dir: %w", err)
	}

	// Build filename
	name := fmt.Sprintf("snapshot_%d", snapshot.Tick)
	if snapshot.Bookmark != nil {
		sanitized := strings.ReplaceAll(string(snapshot.Bookmark.Type), " ", "_")
		name = fmt.Sprintf("snapshot_%d_%s", snapshot.Tick, sanitized)
	}
	name += ".json"

	path := filepath.Join(dir, name)

	data, err := json.MarshalIndent(snapshot, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal snapshot: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("write snapshot: %w", err)
	}

	return path, nil
}

// LoadSnapshot reads a snapshot from disk.
func LoadSnapshot(path string) (*Snapshot, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read snapshot: %w", err)
	}

	var snapshot Snapshot
	if err := json.Unmarshal(data, &snapshot); err != nil {
		return nil, fmt.Errorf("unmarshal snapshot: %w", err)
	}
	if snapshot.Version != SnapshotVersion {
		return nil, fmt.Errorf("%w: version %d, want %d", ErrSnapshotMismatch, snapshot.Version, SnapshotVersion)
	}

	return &snapshot, nil
}
