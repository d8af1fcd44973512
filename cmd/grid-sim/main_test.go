package main

import (
	"bytes"
	"context"
	"math"
	"strings"
	"testing"
	"time"

	"github.com/signalsfoundry/cablegrid/core"
	"github.com/signalsfoundry/cablegrid/internal/config"
	"github.com/signalsfoundry/cablegrid/internal/logging"
)

func loadTestInputs(t *testing.T) (config.Config, *core.Scenario) {
	t.Helper()
	cfg, err := config.Load(config.New(), "")
	if err != nil {
		t.Fatalf("config.Load: %v", err)
	}
	cfg.Sim.Tick = 100 * time.Millisecond
	cfg.Sim.Duration = 2 * time.Second
	cfg.Sim.Accelerated = true

	sc, err := core.LoadScenarioFile("../../configs/scenario.json")
	if err != nil {
		t.Fatalf("LoadScenarioFile: %v", err)
	}
	return cfg, sc
}

// TestSimulateScenarioLine runs the bundled scenario for two simulated
// seconds in accelerated mode.
func TestSimulateScenarioLine(t *testing.T) {
	cfg, sc := loadTestInputs(t)

	var out bytes.Buffer
	sum, err := simulate(context.Background(), cfg, sc, logging.Noop(), &out)
	if err != nil {
		t.Fatalf("simulate: %v", err)
	}

	if sum.Ticks != 20 {
		t.Fatalf("ticks = %d, want 20", sum.Ticks)
	}
	if sum.TraversalErrors != 0 {
		t.Fatalf("traversal errors = %d, want 0\n%s", sum.TraversalErrors, out.String())
	}
	if sum.Crossings != 2 {
		t.Fatalf("junction crossings = %d, want 2", sum.Crossings)
	}
	if len(sum.Final) != 2 {
		t.Fatalf("final positions = %d, want 2", len(sum.Final))
	}
	if got := sum.Final[0].DistAlong; math.Abs(got-0.6) > 1e-6 {
		t.Fatalf("forward spark dist_along = %v, want 0.6", got)
	}
	if got := sum.Final[1].DistAlong; math.Abs(got-0.2) > 1e-6 {
		t.Fatalf("backward spark dist_along = %v, want 0.2", got)
	}
	if !strings.Contains(out.String(), "Loaded scenario: 4 towers, 9 cables (9 generated), 2 sparks") {
		t.Fatalf("missing load summary in output:\n%s", out.String())
	}
}

func TestSimulateRejectsUnboundedAcceleratedRun(t *testing.T) {
	cfg, sc := loadTestInputs(t)
	cfg.Sim.Duration = 0

	if _, err := simulate(context.Background(), cfg, sc, logging.Noop(), &bytes.Buffer{}); err == nil {
		t.Fatalf("simulate with accelerated zero duration succeeded, want error")
	}
}

func TestSimulateStopsOnCancel(t *testing.T) {
	cfg, sc := loadTestInputs(t)
	cfg.Sim.Accelerated = false
	cfg.Sim.Tick = 10 * time.Millisecond
	cfg.Sim.Duration = time.Hour

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	sum, err := simulate(ctx, cfg, sc, logging.Noop(), &bytes.Buffer{})
	if err != nil && ctx.Err() == nil {
		t.Fatalf("simulate: %v", err)
	}
	if sum.Ticks == 0 {
		t.Fatalf("expected at least one real-time tick before cancel")
	}
}
