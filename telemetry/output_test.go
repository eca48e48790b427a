package telemetry

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pthm-cable/flock/config"
)

func TestOutputManagerDisabled(t *testing.T) {
	om, err := NewOutputManager("")
	if err != nil || om != nil {
		t.Fatalf("NewOutputManager(\"\") = %v, %v", om, err)
	}
	// Every method is a no-op on the nil manager.
	if err := om.WriteTelemetry(WindowStats{}); err != nil {
		t.Error(err)
	}
	if err := om.WritePerf(PerfStats{}, 1, "naive"); err != nil {
		t.Error(err)
	}
	if err := om.Close(); err != nil {
		t.Error(err)
	}
}

func TestOutputManagerWritesCSV(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "run")
	om, err := NewOutputManager(dir)
	if err != nil {
		t.Fatalf("NewOutputManager: %v", err)
	}

	for i := 1; i <= 3; i++ {
		if err := om.WriteTelemetry(WindowStats{WindowEndTick: int32(i * 300), Mode: "coherent", Particles: 5000}); err != nil {
			t.Fatal(err)
		}
		if err := om.WritePerf(PerfStats{}, int32(i*300), "coherent"); err != nil {
			t.Fatal(err)
		}
	}
	if err := om.WriteBookmark(Bookmark{Type: BookmarkAligned, Tick: 600, Description: "polarization reached 0.91"}); err != nil {
		t.Fatal(err)
	}
	if err := om.WriteConfig(config.Default()); err != nil {
		t.Fatal(err)
	}
	if err := om.Close(); err != nil {
		t.Fatal(err)
	}

	flock := readLines(t, filepath.Join(dir, "flock.csv"))
	if len(flock) != 4 {
		t.Fatalf("flock.csv has %d lines, want header + 3", len(flock))
	}
	if !strings.HasPrefix(flock[0], "window_end,sim_time,mode,particles") {
		t.Errorf("flock.csv header = %q", flock[0])
	}
	if strings.Contains(flock[0], "WindowStartTick") {
		t.Error("skipped column written to flock.csv")
	}

	perf := readLines(t, filepath.Join(dir, "perf.csv"))
	if len(perf) != 4 || !strings.Contains(perf[0], "velocity_pct") {
		t.Errorf("perf.csv = %q", perf)
	}

	bookmarks := readLines(t, filepath.Join(dir, "bookmarks.csv"))
	if len(bookmarks) != 2 || !strings.HasPrefix(bookmarks[1], "aligned,600,") {
		t.Errorf("bookmarks.csv = %q", bookmarks)
	}

	if _, err := config.Load(filepath.Join(dir, "config.yaml")); err != nil {
		t.Errorf("config.yaml does not load back: %v", err)
	}
}

func readLines(t *testing.T, path string) []string {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("reading %s: %v", path, err)
	}
	return strings.Split(strings.TrimSpace(string(data)), "\n")
}
