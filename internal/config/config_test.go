package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load(New(), "")
	if err != nil {
		t.Fatalf("Load error: %v", err)
	}

	if cfg.Grid.Hang != 2.0 || cfg.Grid.Segments != 10 || cfg.Grid.SparkSpeed != 0.5 {
		t.Fatalf("grid defaults = %+v", cfg.Grid)
	}
	if cfg.Sim.Tick != 100*time.Millisecond || cfg.Sim.Duration != 10*time.Second || !cfg.Sim.Accelerated {
		t.Fatalf("sim defaults = %+v", cfg.Sim)
	}
	if cfg.Server.GRPCAddr != ":50061" || cfg.Server.MetricsAddr != ":9091" {
		t.Fatalf("server defaults = %+v", cfg.Server)
	}
	if cfg.Tracing.Enabled || cfg.Tracing.ServiceName != "cablegrid" || cfg.Tracing.SampleRatio != 1 {
		t.Fatalf("tracing defaults = %+v", cfg.Tracing)
	}
	if lc := cfg.Logging(); lc.Level != "info" || lc.Backend != "slog" {
		t.Fatalf("logging defaults = %+v", lc)
	}
}

func TestLoadFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "cablegrid.json")
	data := `{
		"log": { "level": "debug", "backend": "zerolog" },
		"grid": { "hang": 0.75, "segments": 24 },
		"sim": { "tick": "50ms", "scenario": "configs/scenario.json" },
		"tracing": { "enabled": true, "exporter": "otlp", "endpoint": "collector:4317" }
	}`
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := Load(New(), path)
	if err != nil {
		t.Fatalf("Load error: %v", err)
	}
	if cfg.Log.Level != "debug" || cfg.Log.Backend != "zerolog" {
		t.Fatalf("log = %+v", cfg.Log)
	}
	if cfg.Grid.Hang != 0.75 || cfg.Grid.Segments != 24 {
		t.Fatalf("grid = %+v", cfg.Grid)
	}
	if cfg.Sim.Tick != 50*time.Millisecond || cfg.Sim.Scenario != "configs/scenario.json" {
		t.Fatalf("sim = %+v", cfg.Sim)
	}
	// Untouched keys keep their defaults.
	if cfg.Sim.Duration != 10*time.Second || cfg.Grid.SparkSpeed != 0.5 {
		t.Fatalf("defaults lost: %+v", cfg)
	}
	if !cfg.Tracing.Enabled || cfg.Tracing.Exporter != "otlp" || cfg.Tracing.Endpoint != "collector:4317" {
		t.Fatalf("tracing = %+v", cfg.Tracing)
	}
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("CABLEGRID_GRID_SEGMENTS", "32")
	t.Setenv("CABLEGRID_SERVER_GRPC_ADDR", "127.0.0.1:6000")

	cfg, err := Load(New(), "")
	if err != nil {
		t.Fatalf("Load error: %v", err)
	}
	if cfg.Grid.Segments != 32 {
		t.Fatalf("segments = %d, want 32", cfg.Grid.Segments)
	}
	if cfg.Server.GRPCAddr != "127.0.0.1:6000" {
		t.Fatalf("grpc addr = %q", cfg.Server.GRPCAddr)
	}
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(New(), "/nonexistent/cablegrid.json")
	if err == nil || !strings.Contains(err.Error(), "error reading config file") {
		t.Fatalf("expected read error, got %v", err)
	}
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	cases := []struct {
		name string
		key  string
		val  any
		want string
	}{
		{"negative hang", "grid.hang", -1.0, "grid.hang"},
		{"zero segments", "grid.segments", 0, "grid.segments"},
		{"zero tick", "sim.tick", "0s", "sim.tick"},
		{"ratio above one", "tracing.sample_ratio", 1.5, "sample_ratio"},
		{"unknown exporter", "tracing.exporter", "zipkin", "tracing.exporter"},
		{"unknown backend", "log.backend", "logrus", "log.backend"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			v := New()
			v.Set(tc.key, tc.val)
			_, err := Load(v, "")
			if err == nil || !strings.Contains(err.Error(), tc.want) {
				t.Fatalf("Load error = %v, want mention of %q", err, tc.want)
			}
		})
	}
}
