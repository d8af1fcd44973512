package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"time"

	"github.com/signalsfoundry/cablegrid/core"
	"github.com/signalsfoundry/cablegrid/internal/config"
	"github.com/signalsfoundry/cablegrid/internal/logging"
	"github.com/signalsfoundry/cablegrid/internal/observability"
	sim "github.com/signalsfoundry/cablegrid/internal/sim/state"
	"github.com/signalsfoundry/cablegrid/timectrl"
	"github.com/spf13/pflag"
)

func main() {
	fs := pflag.NewFlagSet("grid-sim", pflag.ExitOnError)
	configPath := fs.String("config", "", "path to a JSON or YAML config file")
	config.AddCommonFlags(fs)
	fs.Duration("duration", 10*time.Second, "total simulation duration; 0 runs until interrupted")
	fs.Bool("accelerated", true, "run in accelerated mode (vs real-time)")
	_ = fs.Parse(os.Args[1:])

	v := config.New()
	v.SetDefault("sim.scenario", "configs/scenario.json")
	if err := config.BindFlags(v, fs); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}
	cfg, err := config.Load(v, *configPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}

	log := logging.New(cfg.Logging())
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	shutdownTracing, err := observability.InitTracing(ctx, cfg.Tracing, log)
	if err != nil {
		log.Error(ctx, "failed to initialise tracing", logging.Err(err))
		os.Exit(1)
	}
	defer observability.ShutdownWithTimeout(context.Background(), shutdownTracing, log)

	sc, err := core.LoadScenarioFile(cfg.Sim.Scenario)
	if err != nil {
		log.Error(ctx, "failed to load scenario", logging.String("path", cfg.Sim.Scenario), logging.Err(err))
		os.Exit(1)
	}

	summary, err := simulate(ctx, cfg, sc, log, os.Stdout)
	if err != nil {
		log.Error(ctx, "simulation failed", logging.Err(err))
		os.Exit(1)
	}
	fmt.Printf("Simulation complete: %d ticks, %d junction crossings, %d traversal errors.\n",
		summary.Ticks, summary.Crossings, summary.TraversalErrors)
}

// summary totals what a run did.
type summary struct {
	Ticks           int
	Crossings       int
	TraversalErrors int
	Final           []core.SparkPosition
}

// simulate applies sc to a fresh grid and runs it for cfg.Sim.Duration,
// writing one line per spark per tick to out.
func simulate(ctx context.Context, cfg config.Config, sc *core.Scenario, log logging.Logger, out io.Writer) (summary, error) {
	state := sim.NewGridState(nil, nil, log,
		sim.WithCableDefaults(cfg.Grid.Hang, cfg.Grid.Segments),
		sim.WithSparkSpeed(cfg.Grid.SparkSpeed),
	)
	sparkIDs, err := state.ApplyScenario(ctx, sc)
	if err != nil {
		return summary{}, fmt.Errorf("apply scenario: %w", err)
	}

	counts := state.Grid().Counts()
	fmt.Fprintf(out, "Loaded scenario: %d towers, %d cables (%d generated), %d sparks\n",
		len(sc.Towers), counts.Cables, counts.Generated, len(sparkIDs))

	mode := timectrl.RealTime
	if cfg.Sim.Accelerated {
		mode = timectrl.Accelerated
	}
	if mode == timectrl.Accelerated && cfg.Sim.Duration == 0 {
		return summary{}, errors.New("accelerated mode needs a non-zero duration")
	}
	tc := timectrl.NewTimeController(time.Date(2000, 1, 1, 0, 0, 0, 0, time.UTC), cfg.Sim.Tick, mode)

	var sum summary
	tc.AddListener(func(simTime time.Time, dt time.Duration) {
		res := state.Tick(ctx, dt)
		sum.Ticks++
		elapsed := simTime.Sub(tc.StartTime)
		for _, step := range res.Steps {
			sum.Crossings += step.Hops
			if step.Err != nil {
				sum.TraversalErrors++
				fmt.Fprintf(out, "[%8s] %-10s error: %v\n", elapsed, step.SparkID, step.Err)
				continue
			}
			fmt.Fprintf(out, "[%8s] %-10s on %-10s t=%.3f @ (%.2f, %.2f, %.2f) hops=%d clamped=%v\n",
				elapsed, step.SparkID, step.CableID, step.DistAlong,
				step.Position.X, step.Position.Y, step.Position.Z,
				step.Hops, step.Clamped,
			)
		}
	})

	fmt.Fprintf(out, "Starting simulation: duration=%s, tick=%s, accelerated=%v\n", cfg.Sim.Duration, cfg.Sim.Tick, cfg.Sim.Accelerated)
	if err := tc.Run(ctx, cfg.Sim.Duration); err != nil && !errors.Is(err, context.Canceled) {
		return sum, err
	}

	for _, id := range sparkIDs {
		pos, err := state.SparkWorldPosition(id)
		if err != nil {
			return sum, err
		}
		sum.Final = append(sum.Final, pos)
	}
	return sum, nil
}
