package game

import (
	"log/slog"

	"github.com/pthm-cable/flock/telemetry"
)

// flushTelemetry checks if the stats window should be flushed and handles bookmarks.
func (g *Game) flushTelemetry() {
	tick := int32(g.sim.Tick())
	if !g.collector.ShouldFlush(tick) {
		return
	}

	g.sim.ExportStateInto(&g.state)
	g.occupancy = g.sim.Occupancy(g.occupancy[:0])

	stats := g.collector.Flush(tick, g.state.Pos, g.state.Vel, g.occupancy)
	perfStats := g.perfCollector.Stats()
	g.lastStats = stats

	if g.logStats {
		stats.LogStats()
		slog.Info("perf", "tick", tick, "stats", perfStats)
	}

	if err := g.outputManager.WriteTelemetry(stats); err != nil {
		slog.Error("failed to write telemetry", "error", err)
	}
	if err := g.outputManager.WritePerf(perfStats, stats.WindowEndTick, stats.Mode); err != nil {
		slog.Error("failed to write perf", "error", err)
	}

	for _, bm := range g.bookmarkDetector.Check(stats) {
		if g.logStats {
			bm.LogBookmark()
		}
		if err := g.outputManager.WriteBookmark(bm); err != nil {
			slog.Error("failed to write bookmark", "error", err)
		}
		if g.snapshotDir != "" {
			g.saveSnapshot(&bm)
		}
	}
}

// SaveSnapshot writes the current flock to the snapshot directory, or to
// the output directory's snapshots/ when none was given.
func (g *Game) SaveSnapshot() (string, error) {
	return g.writeSnapshot(nil)
}

// saveSnapshot logs instead of returning errors, for use from the step loop.
func (g *Game) saveSnapshot(bookmark *telemetry.Bookmark) {
	path, err := g.writeSnapshot(bookmark)
	if err != nil {
		slog.Error("failed to save snapshot", "error", err)
		return
	}
	if path != "" {
		slog.Info("snapshot saved", "path", path, "tick", g.sim.Tick())
	}
}

func (g *Game) writeSnapshot(bookmark *telemetry.Bookmark) (string, error) {
	snapshot := g.createSnapshot(bookmark)
	if g.snapshotDir != "" {
		return telemetry.SaveSnapshot(snapshot, g.snapshotDir)
	}
	return g.outputManager.WriteSnapshot(snapshot)
}

// createSnapshot builds a snapshot from the current state.
func (g *Game) createSnapshot(bookmark *telemetry.Bookmark) *telemetry.Snapshot {
	g.sim.ExportStateInto(&g.state)
	snapshot := telemetry.NewSnapshot(int32(g.sim.Tick()), g.mode.String(), g.rngSeed, g.sim.HalfExtent(), g.state.Pos, g.state.Vel)
	snapshot.Bookmark = bookmark
	return snapshot
}
