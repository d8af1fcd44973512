package config

import (
	"testing"
	"time"

	"github.com/spf13/pflag"
)

func TestBindFlagsOverridesOnlyWhenSet(t *testing.T) {
	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	AddCommonFlags(fs)
	fs.String("grpc-addr", ":50061", "")
	fs.Bool("unrelated", false, "")

	v := New()
	if err := BindFlags(v, fs); err != nil {
		t.Fatalf("BindFlags: %v", err)
	}
	if err := fs.Parse([]string{"--hang=0.25", "--tick=40ms", "--grpc-addr=127.0.0.1:0"}); err != nil {
		t.Fatalf("Parse: %v", err)
	}

	cfg, err := Load(v, "")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Grid.Hang != 0.25 {
		t.Fatalf("hang = %v, want 0.25", cfg.Grid.Hang)
	}
	if cfg.Sim.Tick != 40*time.Millisecond {
		t.Fatalf("tick = %v, want 40ms", cfg.Sim.Tick)
	}
	if cfg.Server.GRPCAddr != "127.0.0.1:0" {
		t.Fatalf("grpc addr = %q", cfg.Server.GRPCAddr)
	}
	if cfg.Grid.Segments != 10 || cfg.Sim.Duration != 10*time.Second {
		t.Fatalf("unset flags changed defaults: %+v %+v", cfg.Grid, cfg.Sim)
	}
}

func TestBindFlagsRejectsInvalidValue(t *testing.T) {
	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	AddCommonFlags(fs)

	v := New()
	if err := BindFlags(v, fs); err != nil {
		t.Fatalf("BindFlags: %v", err)
	}
	if err := fs.Parse([]string{"--segments=0"}); err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if _, err := Load(v, ""); err == nil {
		t.Fatalf("Load with zero segments succeeded, want error")
	}
}
