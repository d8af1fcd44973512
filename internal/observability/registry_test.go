package observability

import (
	"context"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"google.golang.org/grpc"
)

func TestRegisterRejectsIncompatibleCollector(t *testing.T) {
	reg := prometheus.NewRegistry()
	if _, err := register(reg, prometheus.NewGauge(prometheus.GaugeOpts{Name: "grid_cables", Help: "h"}), "grid_cables"); err != nil {
		t.Fatalf("first register: %v", err)
	}

	_, err := register(reg, prometheus.NewCounterVec(prometheus.CounterOpts{Name: "grid_cables", Help: "h"}, []string{"kind"}), "grid_cables")
	if err == nil {
		t.Fatalf("registering a counter vec over a gauge succeeded, want error")
	}
}

func TestInFlightGaugeSettlesAtZero(t *testing.T) {
	collector, err := NewNBICollector(prometheus.NewRegistry())
	if err != nil {
		t.Fatalf("NewNBICollector: %v", err)
	}

	interceptor := collector.UnaryServerInterceptor()
	info := &grpc.UnaryServerInfo{FullMethod: "/cablegrid.nbi.v1.GridService/Tick"}

	var during float64
	_, _ = interceptor(context.Background(), nil, info, func(context.Context, interface{}) (interface{}, error) {
		during = testutil.ToFloat64(collector.InFlight)
		return nil, nil
	})

	if during != 1 {
		t.Fatalf("in-flight during call = %v, want 1", during)
	}
	if got := testutil.ToFloat64(collector.InFlight); got != 0 {
		t.Fatalf("in-flight after call = %v, want 0", got)
	}
}

func TestNilNBICollectorPassesThrough(t *testing.T) {
	var collector *NBICollector
	resp, err := collector.UnaryServerInterceptor()(context.Background(), nil, &grpc.UnaryServerInfo{}, func(context.Context, interface{}) (interface{}, error) {
		return "ok", nil
	})
	if err != nil || resp != "ok" {
		t.Fatalf("nil collector interceptor = (%v, %v), want (ok, nil)", resp, err)
	}
}
