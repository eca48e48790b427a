package telemetry

import (
	"fmt"
	"log/slog"
)

// BookmarkType identifies the type of bookmark.
type BookmarkType string

const (
	BookmarkAligned     BookmarkType = "aligned"
	BookmarkDispersed   BookmarkType = "dispersed"
	BookmarkClustering  BookmarkType = "clustering"
	BookmarkSpeedSurge  BookmarkType = "speed_surge"
	BookmarkSteadyFlock BookmarkType = "steady_flock"
)

// Polarization thresholds for the aligned/dispersed transitions.
const (
	alignedPolarization   = 0.9
	dispersedPolarization = 0.5
)

// Bookmark represents an automatically triggered bookmark.
type Bookmark struct {
	Type        BookmarkType `csv:"type"`
	Tick        int32        `csv:"tick"`
	Description string       `csv:"description"`
}

// LogBookmark logs the bookmark using slog.
func (b Bookmark) LogBookmark() {
	slog.Info("bookmark",
		"type", string(b.Type),
		"tick", b.Tick,
		"description", b.Description,
	)
}

// BookmarkDetector detects notable moments in the flock's evolution.
type BookmarkDetector struct {
	// Rolling history (circular buffer)
	history     []WindowStats
	historySize int
	historyIdx  int
	historyFull bool

	// State tracking
	aligned            bool // last reported polarization regime
	steadyWindowsCount int  // consecutive windows with stable polarization
	steadyReported     bool
}

// NewBookmarkDetector creates a detector with the given history size.
func NewBookmarkDetector(historySize int) *BookmarkDetector {
	if historySize < 5 {
		historySize = 5 // minimum for steady flock detection
	}
	return &BookmarkDetector{
		history:     make([]WindowStats, historySize),
		historySize: historySize,
	}
}

// Check analyzes the latest stats and returns any triggered bookmarks.
func (bd *BookmarkDetector) Check(stats WindowStats) []Bookmark {
	var bookmarks []Bookmark

	if b := bd.checkPolarization(stats); b != nil {
		bookmarks = append(bookmarks, *b)
	}
	if b := bd.checkClustering(stats); b != nil {
		bookmarks = append(bookmarks, *b)
	}
	if b := bd.checkSpeedSurge(stats); b != nil {
		bookmarks = append(bookmarks, *b)
	}
	if b := bd.checkSteadyFlock(stats); b != nil {
		bookmarks = append(bookmarks, *b)
	}

	bd.addToHistory(stats)
	return bookmarks
}

func (bd *BookmarkDetector) addToHistory(stats WindowStats) {
	bd.history[bd.historyIdx] = stats
	bd.historyIdx = (bd.historyIdx + 1) % bd.historySize
	if bd.historyIdx == 0 {
		bd.historyFull = true
	}
}

func (bd *BookmarkDetector) getHistory() []WindowStats {
	if bd.historyFull {
		return bd.history
	}
	return bd.history[:bd.historyIdx]
}

// checkPolarization reports crossings between the dispersed and aligned
// regimes. The gap between the two thresholds keeps it from flapping.
func (bd *BookmarkDetector) checkPolarization(stats WindowStats) *Bookmark {
	switch {
	case !bd.aligned && stats.Polarization >= alignedPolarization:
		bd.aligned = true
		return &Bookmark{
			Type:        BookmarkAligned,
			Tick:        stats.WindowEndTick,
			Description: fmt.Sprintf("polarization reached %.2f", stats.Polarization),
		}
	case bd.aligned && stats.Polarization < dispersedPolarization:
		bd.aligned = false
		return &Bookmark{
			Type:        BookmarkDispersed,
			Tick:        stats.WindowEndTick,
			Description: fmt.Sprintf("polarization fell to %.2f", stats.Polarization),
		}
	}
	return nil
}

// checkClustering fires when the fullest cell holds more than twice the
// rolling average maximum.
func (bd *BookmarkDetector) checkClustering(stats WindowStats) *Bookmark {
	history := bd.getHistory()
	if len(history) < 3 {
		return nil
	}

	var total int
	for _, h := range history {
		total += h.CellPopMax
	}
	avg := float64(total) / float64(len(history))
	if avg > 0 && float64(stats.CellPopMax) > 2*avg {
		return &Bookmark{
			Type:        BookmarkClustering,
			Tick:        stats.WindowEndTick,
			Description: fmt.Sprintf("densest cell %d particles (avg max %.1f)", stats.CellPopMax, avg),
		}
	}
	return nil
}

// checkSpeedSurge fires when mean speed doubles the rolling average.
func (bd *BookmarkDetector) checkSpeedSurge(stats WindowStats) *Bookmark {
	history := bd.getHistory()
	if len(history) < 3 {
		return nil
	}

	var total float64
	for _, h := range history {
		total += h.SpeedMean
	}
	avg := total / float64(len(history))
	if avg > 0 && stats.SpeedMean > 2*avg {
		return &Bookmark{
			Type:        BookmarkSpeedSurge,
			Tick:        stats.WindowEndTick,
			Description: fmt.Sprintf("mean speed %.3f vs avg %.3f", stats.SpeedMean, avg),
		}
	}
	return nil
}

// checkSteadyFlock fires once polarization has stayed within 0.05 of its
// rolling mean for five consecutive windows while aligned.
func (bd *BookmarkDetector) checkSteadyFlock(stats WindowStats) *Bookmark {
	history := bd.getHistory()
	if len(history) < 5 || !bd.aligned {
		bd.steadyWindowsCount = 0
		return nil
	}

	var total float64
	for _, h := range history {
		total += h.Polarization
	}
	avg := total / float64(len(history))
	if d := stats.Polarization - avg; d > 0.05 || d < -0.05 {
		bd.steadyWindowsCount = 0
		bd.steadyReported = false
		return nil
	}

	bd.steadyWindowsCount++
	if bd.steadyWindowsCount >= 5 && !bd.steadyReported {
		bd.steadyReported = true
		return &Bookmark{
			Type:        BookmarkSteadyFlock,
			Tick:        stats.WindowEndTick,
			Description: fmt.Sprintf("polarization steady near %.2f", avg),
		}
	}
	return nil
}
