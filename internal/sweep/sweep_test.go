package sweep

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/san-kum/sandsim/internal/config"
)

func TestParseParam(t *testing.T) {
	tests := []struct {
		in   string
		want Param
	}{
		{"gravity=-0.5:-2:4", Param{Name: "gravity", Values: []float64{-0.5, -1, -1.5, -2}}},
		{"seed=1,2, 5", Param{Name: "seed", Values: []float64{1, 2, 5}}},
		{"ticks=10:99:1", Param{Name: "ticks", Values: []float64{10}}},
	}
	for _, tt := range tests {
		got, err := ParseParam(tt.in)
		if err != nil {
			t.Errorf("ParseParam(%q): %v", tt.in, err)
			continue
		}
		if diff := cmp.Diff(tt.want, got); diff != "" {
			t.Errorf("ParseParam(%q) mismatch (-want +got):\n%s", tt.in, diff)
		}
	}
}

func TestParseParamErrors(t *testing.T) {
	tests := []struct {
		in   string
		want error
	}{
		{"gravity", ErrBadRange},
		{"gravity=", ErrBadRange},
		{"gravity=a:b:3", ErrBadRange},
		{"gravity=1:2:0", ErrBadRange},
		{"gravity=1,x", ErrBadRange},
		{"spin=1,2", ErrUnknownParam},
	}
	for _, tt := range tests {
		if _, err := ParseParam(tt.in); !errors.Is(err, tt.want) {
			t.Errorf("ParseParam(%q) = %v, want %v", tt.in, err, tt.want)
		}
	}
}

func TestApply(t *testing.T) {
	cfg := config.GetPreset("seam")
	for name, v := range map[string]float64{"gravity": -2, "width": 14, "object_vy": -1, "seed": 9} {
		if err := Apply(cfg, name, v); err != nil {
			t.Fatalf("Apply(%s): %v", name, err)
		}
	}
	if cfg.Gravity != -2 || cfg.Width != 14 || cfg.Seed != 9 || cfg.Objects[0].VY != -1 {
		t.Errorf("Apply left config at %+v", cfg)
	}
	if err := Apply(cfg, "spin", 1); !errors.Is(err, ErrUnknownParam) {
		t.Errorf("Apply(spin) = %v", err)
	}
	for _, n := range Names() {
		if err := Apply(config.DefaultConfig(), n, 1); err != nil {
			t.Errorf("listed parameter %s rejected: %v", n, err)
		}
	}
}

func TestPoints(t *testing.T) {
	g := NewGridSearch([]Param{
		{Name: "gravity", Values: []float64{-1, -2}},
		{Name: "seed", Values: []float64{1, 2, 3}},
	})
	pts := g.Points()
	if len(pts) != 6 {
		t.Fatalf("got %d points, want 6", len(pts))
	}
	want := map[string]float64{"gravity": -1, "seed": 2}
	if diff := cmp.Diff(want, pts[1]); diff != "" {
		t.Errorf("second point mismatch (-want +got):\n%s", diff)
	}
	if len(NewGridSearch(nil).Points()) != 1 {
		t.Error("an empty grid should have the base point only")
	}
}

func TestParallelForCoversRange(t *testing.T) {
	for _, workers := range []int{1, 3, 8, 50} {
		var hits [17]int32
		parallelFor(len(hits), workers, func(start, end int) {
			for i := start; i < end; i++ {
				atomic.AddInt32(&hits[i], 1)
			}
		})
		for i, h := range hits {
			if h != 1 {
				t.Errorf("workers=%d: index %d visited %d times", workers, i, h)
			}
		}
	}
}

func TestRunSeamGravity(t *testing.T) {
	g := NewGridSearch([]Param{{Name: "gravity", Values: []float64{-0.5}}, {Name: "seed", Values: []float64{1, 2}}})
	g.SetWorkers(2)
	points, err := g.Run(context.Background(), config.GetPreset("seam"))
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(points) != 2 {
		t.Fatalf("got %d points, want 2", len(points))
	}
	for _, p := range points {
		if p.Fractures < 1 || p.Metrics["fractures"] < 1 {
			t.Errorf("point %v: no fracture recorded", p.Params)
		}
		if p.Metrics["mass_drift"] > 1e-9 {
			t.Errorf("point %v: mass drift %v", p.Params, p.Metrics["mass_drift"])
		}
		if p.TicksRun != 20 {
			t.Errorf("point %v ran %d ticks", p.Params, p.TicksRun)
		}
	}
}

func TestRunRejectsInvalidPoint(t *testing.T) {
	g := NewGridSearch([]Param{{Name: "width", Values: []float64{0}}})
	if _, err := g.Run(context.Background(), config.GetPreset("stack")); !errors.Is(err, config.ErrInvalidConfig) {
		t.Errorf("Run with width 0 = %v, want ErrInvalidConfig", err)
	}
}

func TestBest(t *testing.T) {
	points := []Point{
		{Params: map[string]float64{"gravity": -1}, Metrics: map[string]float64{"fractures": 2}},
		{Params: map[string]float64{"gravity": -2}, Metrics: map[string]float64{"fractures": 5}},
		{Params: map[string]float64{"gravity": -3}},
		{Params: map[string]float64{"gravity": -4}, Metrics: map[string]float64{"fractures": 0}},
	}
	if p, _ := Best(points, "fractures", false); p.Params["gravity"] != -4 {
		t.Errorf("min best = %v", p.Params)
	}
	if p, _ := Best(points, "fractures", true); p.Params["gravity"] != -2 {
		t.Errorf("max best = %v", p.Params)
	}
	if _, ok := Best(points, "missing", false); ok {
		t.Error("unknown metric should find nothing")
	}
}
