package main

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/signalsfoundry/cablegrid/internal/config"
	"github.com/signalsfoundry/cablegrid/internal/logging"
	"github.com/signalsfoundry/cablegrid/internal/nbi"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
)

func testConfig(t *testing.T) config.Config {
	t.Helper()
	cfg, err := config.Load(config.New(), "")
	if err != nil {
		t.Fatalf("config.Load: %v", err)
	}
	cfg.Server.MetricsAddr = ""
	cfg.Sim.Tick = 20 * time.Millisecond
	cfg.Log.Level = "warn"
	return cfg
}

func TestGridServerStartupSmoke(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	lis, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("net.Listen: %v", err)
	}

	cfg := testConfig(t)
	cfg.Sim.Scenario = "../../configs/scenario.json"

	errCh := make(chan error, 1)
	go func() {
		errCh <- run(ctx, cfg, logging.Noop(), lis)
	}()

	conn, err := grpc.NewClient(lis.Addr().String(), grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		t.Fatalf("grpc.NewClient: %v", err)
	}
	defer conn.Close()

	client := nbi.NewGridClient(conn)
	snap, err := client.Call(ctx, "GetSnapshot", nil, grpc.WaitForReady(true))
	if err != nil {
		t.Fatalf("GetSnapshot: %v", err)
	}
	if got := len(snap.GetFields()["structures"].GetListValue().GetValues()); got != 4 {
		t.Fatalf("got %d structures, want 4", got)
	}
	if got := len(snap.GetFields()["cables"].GetListValue().GetValues()); got != 9 {
		t.Fatalf("got %d cables, want 9", got)
	}
	if got := len(snap.GetFields()["sparks"].GetListValue().GetValues()); got != 2 {
		t.Fatalf("got %d sparks, want 2", got)
	}

	cancel()

	select {
	case err := <-errCh:
		if err != nil {
			t.Fatalf("server returned error: %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatalf("server did not stop after cancel")
	}
}

func TestGridServerRejectsMissingScenario(t *testing.T) {
	lis, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("net.Listen: %v", err)
	}
	defer lis.Close()

	cfg := testConfig(t)
	cfg.Sim.Scenario = "does-not-exist.json"

	if err := run(context.Background(), cfg, logging.Noop(), lis); err == nil {
		t.Fatalf("run with a missing scenario succeeded, want error")
	}
}
