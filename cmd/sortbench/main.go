// Sort benchmark - times the cell-key sort at several particle counts.
//
// Usage: go run ./cmd/sortbench -sizes 1000,10000,100000 -reps 20
package main

import (
	"flag"
	"fmt"
	"log/slog"
	"math/rand"
	"os"
	"slices"
	"strconv"
	"strings"
	"time"

	"gonum.org/v1/gonum/stat"

	"github.com/pthm-cable/flock/config"
	"github.com/pthm-cable/flock/systems"
)

func main() {
	sizes := flag.String("sizes", "1000,10000,100000,1000000", "Comma-separated particle counts")
	reps := flag.Int("reps", 20, "Timed sorts per size")
	seed := flag.Int64("seed", 1, "RNG seed for keys")
	flag.Parse()

	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stdout, nil)))

	if err := checkScenario(); err != nil {
		slog.Error("sort check failed", "error", err)
		os.Exit(1)
	}

	counts, err := parseSizes(*sizes)
	if err != nil {
		slog.Error("bad -sizes", "error", err)
		os.Exit(1)
	}

	cfg := config.Default()
	geom, err := systems.NewGeometry(cfg.Scene.Scale, cfg.Derived.MaxRadius, cfg.Grid.DoubleWidth)
	if err != nil {
		slog.Error("sizing grid", "error", err)
		os.Exit(1)
	}

	rng := rand.New(rand.NewSource(*seed))
	for _, n := range counts {
		res := bench(rng, n, geom.CellCount, *reps)
		slog.Info("sort",
			"particles", n,
			"cells", geom.CellCount,
			"reps", *reps,
			"mean_us", res.mean,
			"std_us", res.std,
			"min_us", res.min,
			"ns_per_key", res.mean*1000/float64(n),
		)
	}
}

type benchResult struct {
	mean, std, min float64
}

// bench sorts fresh random keys reps times. Key generation is not timed.
func bench(rng *rand.Rand, n, cells, reps int) benchResult {
	keys := make([]int, n)
	values := make([]int, n)
	samples := make([]float64, 0, reps)

	for r := 0; r < reps; r++ {
		for i := range keys {
			keys[i] = rng.Intn(cells)
			values[i] = i
		}
		start := time.Now()
		systems.SortByKey(keys, values)
		samples = append(samples, float64(time.Since(start).Microseconds()))
	}

	mean, std := stat.MeanStdDev(samples, nil)
	return benchResult{mean: mean, std: std, min: slices.Min(samples)}
}

// checkScenario sorts a small known key set and verifies keys come out
// ascending with every value carried along.
func checkScenario() error {
	keys := []int{0, 1, 0, 3, 0, 2, 2, 0, 5, 6}
	values := []int{0, 1, 2, 3, 4, 5, 6, 7, 8, 9}
	orig := slices.Clone(keys)

	systems.SortByKey(keys, values)

	if !slices.IsSorted(keys) {
		return fmt.Errorf("keys not ascending: %v", keys)
	}
	for i, v := range values {
		if orig[v] != keys[i] {
			return fmt.Errorf("value %d moved to key %d, originally %d", v, keys[i], orig[v])
		}
	}
	slog.Info("sort check passed", "keys", keys, "values", values)
	return nil
}

func parseSizes(s string) ([]int, error) {
	var out []int
	for _, f := range strings.Split(s, ",") {
		f = strings.TrimSpace(f)
		if f == "" {
			continue
		}
		n, err := strconv.Atoi(f)
		if err != nil || n < 1 {
			return nil, fmt.Errorf("invalid size %q", f)
		}
		out = append(out, n)
	}
	return out, nil
}
