package telemetry

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"gonum.org/v1/gonum/spatial/r3"
)

func TestSnapshotSaveLoadRestore(t *testing.T) {
	tmpDir := t.TempDir()

	pos := []r3.Vec{{X: 1, Y: 2, Z: 3}, {X: -4, Y: 5.5, Z: -6}}
	vel := []r3.Vec{{X: 0.1}, {Y: -0.2, Z: 0.3}}
	snapshot := NewSnapshot(1000, "coherent", 42, 100, pos, vel)
	snapshot.Bookmark = &Bookmark{Type: BookmarkAligned, Tick: 1000}

	path, err := SaveSnapshot(snapshot, tmpDir)
	if err != nil {
		t.Fatalf("SaveSnapshot: %v", err)
	}
	if filepath.Base(path) != "snapshot_1000_aligned.json" {
		t.Errorf("filename = %s", filepath.Base(path))
	}

	loaded, err := LoadSnapshot(path)
	if err != nil {
		t.Fatalf("LoadSnapshot: %v", err)
	}
	if loaded.Tick != 1000 || loaded.Mode != "coherent" || loaded.RNGSeed != 42 || loaded.Scale != 100 {
		t.Errorf("header = %+v", loaded)
	}

	gotPos, gotVel := make([]r3.Vec, 2), make([]r3.Vec, 2)
	if err := loaded.Restore(gotPos, gotVel); err != nil {
		t.Fatalf("Restore: %v", err)
	}
	for i := range pos {
		if gotPos[i] != pos[i] || gotVel[i] != vel[i] {
			t.Errorf("particle %d = %v/%v, want %v/%v", i, gotPos[i], gotVel[i], pos[i], vel[i])
		}
	}
}

func TestSnapshotRestoreSizeMismatch(t *testing.T) {
	s := NewSnapshot(0, "naive", 1, 10, make([]r3.Vec, 3), make([]r3.Vec, 3))
	err := s.Restore(make([]r3.Vec, 4), make([]r3.Vec, 4))
	if !errors.Is(err, ErrSnapshotMismatch) {
		t.Errorf("err = %v, want ErrSnapshotMismatch", err)
	}
}

func TestLoadSnapshotRejectsVersion(t *testing.T) {
	path := filepath.Join(t.TempDir(), "old.json")
	if err := os.WriteFile(path, []byte(`{"version": 99, "particles": []}`), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadSnapshot(path); !errors.Is(err, ErrSnapshotMismatch) {
		t.Errorf("err = %v, want ErrSnapshotMismatch", err)
	}
	if _, err := LoadSnapshot(filepath.Join(t.TempDir(), "missing.json")); err == nil {
		t.Error("expected error for missing file")
	}
}
