// Package sweep runs a scenario over a grid of parameter values.
package sweep

import (
	"context"
	"fmt"
	"maps"
	"runtime"
	"sync"

	"github.com/san-kum/sandsim/internal/config"
	"github.com/san-kum/sandsim/internal/metrics"
	"github.com/san-kum/sandsim/internal/scenario"
	"github.com/san-kum/sandsim/internal/sim"
)

// Point is the outcome of one grid cell.
type Point struct {
	Params    map[string]float64
	TicksRun  int
	Fractures int
	Metrics   map[string]float64
}

type GridSearch struct {
	params  []Param
	workers int
}

func NewGridSearch(params []Param) *GridSearch {
	return &GridSearch{params: params, workers: runtime.NumCPU()}
}

// SetWorkers bounds how many grid points run at once.
func (g *GridSearch) SetWorkers(n int) { g.workers = max(n, 1) }

// Points expands the grid, the last parameter varying fastest.
func (g *GridSearch) Points() []map[string]float64 {
	var out []map[string]float64
	g.expand(0, map[string]float64{}, &out)
	return out
}

func (g *GridSearch) expand(depth int, current map[string]float64, out *[]map[string]float64) {
	if depth == len(g.params) {
		*out = append(*out, maps.Clone(current))
		return
	}
	p := g.params[depth]
	for _, v := range p.Values {
		next := maps.Clone(current)
		next[p.Name] = v
		g.expand(depth+1, next, out)
	}
}

// Run builds base with every grid point applied and runs each for the
// configured number of ticks.
func (g *GridSearch) Run(ctx context.Context, base *config.Config) ([]Point, error) {
	grid := g.Points()
	results := make([]Point, len(grid))
	errs := make([]error, len(grid))

	parallelFor(len(grid), g.workers, func(start, end int) {
		for i := start; i < end; i++ {
			results[i], errs[i] = runPoint(ctx, base, grid[i])
		}
	})

	for i, err := range errs {
		if err != nil {
			return results, fmt.Errorf("point %v: %w", grid[i], err)
		}
	}
	return results, nil
}

func runPoint(ctx context.Context, base *config.Config, params map[string]float64) (Point, error) {
	pt := Point{Params: params}

	cfg := base.Clone()
	for name, v := range params {
		if err := Apply(cfg, name, v); err != nil {
			return pt, err
		}
	}
	if err := config.Validate(cfg); err != nil {
		return pt, err
	}

	s, err := scenario.Build(cfg)
	if err != nil {
		return pt, err
	}
	metrics.Attach(s, metrics.Default()...)

	res, err := s.Run(ctx, sim.RunConfig{Ticks: cfg.Ticks, StatsEvery: max(cfg.Ticks, 1)})
	if res != nil {
		pt.TicksRun = res.TicksRun
		pt.Fractures = len(res.Fractures)
		pt.Metrics = res.Metrics
	}
	return pt, err
}

// Best picks the point with the lowest metric value, or the highest when
// maximize is set. Points missing the metric are skipped.
func Best(points []Point, metric string, maximize bool) (Point, bool) {
	var best Point
	found := false
	for _, p := range points {
		v, ok := p.Metrics[metric]
		if !ok {
			continue
		}
		if !found {
			best, found = p, true
			continue
		}
		cur := best.Metrics[metric]
		if (maximize && v > cur) || (!maximize && v < cur) {
			best = p
		}
	}
	return best, found
}

// parallelFor splits [0, n) into at most workers contiguous chunks.
func parallelFor(n, workers int, fn func(start, end int)) {
	if n <= 1 || workers <= 1 {
		fn(0, n)
		return
	}
	workers = min(workers, n)
	chunk := (n + workers - 1) / workers

	var wg sync.WaitGroup
	for start := 0; start < n; start += chunk {
		end := min(start+chunk, n)
		wg.Add(1)
		go func(s, e int) {
			defer wg.Done()
			fn(s, e)
		}(start, end)
	}
	wg.Wait()
}
