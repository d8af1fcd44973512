//go:build perf || perf_large

package perf

import (
	"context"
	"testing"
	"time"

	core "github.com/signalsfoundry/cablegrid/core"
	"github.com/signalsfoundry/cablegrid/internal/logging"
	"github.com/signalsfoundry/cablegrid/internal/nbi"
	sim "github.com/signalsfoundry/cablegrid/internal/sim/state"
	"github.com/signalsfoundry/cablegrid/model"
	"google.golang.org/protobuf/types/known/structpb"
)

type perfConfig struct {
	Cables  int
	Towers  int
	Sparks  int
	Ticks   int
	TickDur float64
}

// benchmarkCables spawns and generates cables through the NBI handlers.
func benchmarkCables(b *testing.B, cfg perfConfig) {
	ctx := context.Background()
	b.ReportAllocs()

	for i := 0; i < b.N; i++ {
		state := newGridState()
		svc := nbi.NewGridService(state, logging.Noop())

		pointIDs := make([]string, 0, cfg.Cables+1)
		for j := 0; j <= cfg.Cables; j++ {
			pointIDs = append(pointIDs, state.CreateConnectionPoint(core.Vec3{X: float64(j) * 10}, core.Vec3{Y: 8}, nil))
		}

		b.ResetTimer()
		for j := 0; j < cfg.Cables; j++ {
			out, err := svc.SpawnCable(ctx, mustStruct(b, map[string]any{
				"start_id": pointIDs[j],
				"end_id":   pointIDs[j+1],
			}))
			if err != nil {
				b.Fatalf("SpawnCable(%d): %v", j, err)
			}
			if _, err := svc.GenerateCable(ctx, mustStruct(b, map[string]any{"id": out.GetFields()["id"].GetStringValue()})); err != nil {
				b.Fatalf("GenerateCable(%d): %v", j, err)
			}
		}
		b.StopTimer()
	}
}

// benchmarkTowerLine instances a tower line, signals readiness and generates
// every resulting cable in one tick.
func benchmarkTowerLine(b *testing.B, cfg perfConfig) {
	ctx := context.Background()
	b.ReportAllocs()

	positions := linePositions(cfg.Towers)
	for i := 0; i < b.N; i++ {
		state := newGridState()

		b.ResetTimer()
		towers, err := state.SpawnTowerLine(ctx, threePhaseTemplate(), positions)
		if err != nil {
			b.Fatalf("SpawnTowerLine: %v", err)
		}
		for _, id := range towers {
			if _, err := state.InstanceReady(ctx, id); err != nil {
				b.Fatalf("InstanceReady(%s): %v", id, err)
			}
		}
		res := state.Tick(ctx, 0)
		b.StopTimer()

		if want := 3 * (cfg.Towers - 1); len(res.Generations) != want {
			b.Fatalf("generated %d cables, want %d", len(res.Generations), want)
		}
	}
}

// benchmarkSparkTicks drives sparks along a generated tower line.
func benchmarkSparkTicks(b *testing.B, cfg perfConfig) {
	ctx := context.Background()
	b.ReportAllocs()

	for i := 0; i < b.N; i++ {
		state := newGridState()
		towers, err := state.SpawnTowerLine(ctx, threePhaseTemplate(), linePositions(cfg.Towers))
		if err != nil {
			b.Fatalf("SpawnTowerLine: %v", err)
		}
		for _, id := range towers {
			if _, err := state.InstanceReady(ctx, id); err != nil {
				b.Fatalf("InstanceReady(%s): %v", id, err)
			}
		}
		state.Tick(ctx, 0)

		cables := state.Grid().ListCables()
		for j := 0; j < cfg.Sparks; j++ {
			speed := 1.0 + float64(j%5)
			id, err := state.CreateSpark(cables[j%len(cables)].ID, &speed)
			if err != nil {
				b.Fatalf("CreateSpark(%d): %v", j, err)
			}
			if err := state.SetSparkDirection(id, 1-2*(j%2)); err != nil {
				b.Fatalf("SetSparkDirection(%s): %v", id, err)
			}
		}

		dt := time.Duration(cfg.TickDur * float64(time.Second))
		b.ResetTimer()
		for j := 0; j < cfg.Ticks; j++ {
			for _, step := range state.Tick(ctx, dt).Steps {
				if step.Err != nil {
					b.Fatalf("tick %d: spark %s: %v", j, step.SparkID, step.Err)
				}
			}
		}
		b.StopTimer()
	}
}

func newGridState() *sim.GridState {
	return sim.NewGridState(nil, nil, logging.Noop())
}

func threePhaseTemplate() model.TowerTemplate {
	return model.TowerTemplate{
		Name: "three-phase",
		Connectors: []model.ConnectorDef{
			{Slot: 0, Local: model.Position{Y: 24, Z: 4}},
			{Slot: 1, Local: model.Position{Y: 27}},
			{Slot: 2, Local: model.Position{Y: 24, Z: -4}},
		},
	}
}

// linePositions lays towers along a gentle zig-zag so headings vary.
func linePositions(n int) []core.Vec3 {
	out := make([]core.Vec3, 0, n)
	for i := 0; i < n; i++ {
		z := 0.0
		if i%2 == 1 {
			z = 5
		}
		out = append(out, core.Vec3{X: float64(i) * 50, Z: z})
	}
	return out
}

func mustStruct(b *testing.B, fields map[string]any) *structpb.Struct {
	b.Helper()
	s, err := structpb.NewStruct(fields)
	if err != nil {
		b.Fatalf("structpb.NewStruct: %v", err)
	}
	return s
}
