package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/signalsfoundry/cablegrid/core"
	"github.com/signalsfoundry/cablegrid/internal/config"
	"github.com/signalsfoundry/cablegrid/internal/logging"
	"github.com/signalsfoundry/cablegrid/internal/nbi"
	"github.com/signalsfoundry/cablegrid/internal/observability"
	sim "github.com/signalsfoundry/cablegrid/internal/sim/state"
	"github.com/signalsfoundry/cablegrid/timectrl"
	"github.com/spf13/pflag"
	"go.opentelemetry.io/contrib/instrumentation/google.golang.org/grpc/otelgrpc"
	"google.golang.org/grpc"
)

func main() {
	fs := pflag.NewFlagSet("grid-server", pflag.ExitOnError)
	configPath := fs.String("config", "", "path to a JSON or YAML config file")
	config.AddCommonFlags(fs)
	fs.String("grpc-addr", ":50061", "TCP address the NBI gRPC server listens on")
	fs.String("metrics-addr", ":9091", "HTTP address for Prometheus /metrics; empty disables it")
	_ = fs.Parse(os.Args[1:])

	v := config.New()
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

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	lis, err := net.Listen("tcp", cfg.Server.GRPCAddr)
	if err != nil {
		log.Error(ctx, "failed to listen for gRPC", logging.String("addr", cfg.Server.GRPCAddr), logging.Err(err))
		os.Exit(1)
	}

	if err := run(ctx, cfg, log, lis); err != nil {
		log.Error(ctx, "grid server exited", logging.Err(err))
		os.Exit(1)
	}
}

// run serves the grid NBI on lis until ctx is done. The simulation loop
// ticks the grid on wall-clock time for the server's lifetime.
func run(ctx context.Context, cfg config.Config, log logging.Logger, lis net.Listener) error {
	shutdownTracing, err := observability.InitTracing(ctx, cfg.Tracing, log)
	if err != nil {
		return fmt.Errorf("init tracing: %w", err)
	}
	defer observability.ShutdownWithTimeout(context.Background(), shutdownTracing, log)

	reg := prometheus.NewRegistry()
	nbiMetrics, err := observability.NewNBICollector(reg)
	if err != nil {
		return fmt.Errorf("init nbi metrics: %w", err)
	}
	gridMetrics, err := observability.NewGridCollector(reg)
	if err != nil {
		return fmt.Errorf("init grid metrics: %w", err)
	}

	state := sim.NewGridState(nil, nil, log,
		sim.WithMetricsRecorder(gridMetrics),
		sim.WithCableDefaults(cfg.Grid.Hang, cfg.Grid.Segments),
		sim.WithSparkSpeed(cfg.Grid.SparkSpeed),
	)
	if cfg.Sim.Scenario != "" {
		if err := loadScenario(ctx, state, cfg.Sim.Scenario, log); err != nil {
			return err
		}
	}

	server := grpc.NewServer(
		grpc.StatsHandler(otelgrpc.NewServerHandler()),
		grpc.ChainUnaryInterceptor(
			nbi.RequestIDUnaryServerInterceptor(log),
			nbi.TracingUnaryServerInterceptor(),
			nbiMetrics.UnaryServerInterceptor(),
		),
	)
	nbi.RegisterGridServiceServer(server, nbi.NewGridService(state, log))

	metricsSrv := serveMetrics(cfg.Server.MetricsAddr, gridMetrics, log)

	loopCtx, stopLoop := context.WithCancel(ctx)
	defer stopLoop()
	tc := timectrl.NewTimeController(time.Now().UTC(), cfg.Sim.Tick, timectrl.RealTime)
	loopDone := make(chan struct{})
	go func() {
		defer close(loopDone)
		runSimLoop(loopCtx, tc, state, log)
	}()

	serveErr := make(chan error, 1)
	log.Info(ctx, "starting grid NBI server", logging.String("addr", lis.Addr().String()))
	go func() {
		serveErr <- server.Serve(lis)
	}()

	var runErr error
	select {
	case <-ctx.Done():
		log.Info(context.Background(), "shutting down grid server")
		server.GracefulStop()
		<-serveErr
	case err := <-serveErr:
		if err != nil && !errors.Is(err, grpc.ErrServerStopped) {
			runErr = fmt.Errorf("gRPC server: %w", err)
		}
	}

	stopLoop()
	<-loopDone

	if metricsSrv != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = metricsSrv.Shutdown(shutdownCtx)
	}
	return runErr
}

// runSimLoop ticks state on every controller step until ctx is done.
func runSimLoop(ctx context.Context, tc *timectrl.TimeController, state *sim.GridState, log logging.Logger) {
	tc.AddListener(func(simTime time.Time, dt time.Duration) {
		res := state.Tick(ctx, dt)
		for _, gen := range res.Generations {
			if gen.Err != nil {
				log.Warn(ctx, "cable generation failed",
					logging.String("cable_id", gen.CableID),
					logging.Err(gen.Err),
				)
			}
		}
		for _, step := range res.Steps {
			if step.Err != nil {
				log.Debug(ctx, "spark step failed",
					logging.String("spark_id", step.SparkID),
					logging.String("sim_time", simTime.Format(time.RFC3339Nano)),
					logging.Err(step.Err),
				)
			}
		}
	})

	if err := tc.Run(ctx, 0); err != nil && !errors.Is(err, context.Canceled) {
		log.Warn(context.Background(), "simulation loop stopped", logging.Err(err))
	}
}

func loadScenario(ctx context.Context, state *sim.GridState, path string, log logging.Logger) error {
	sc, err := core.LoadScenarioFile(path)
	if err != nil {
		return err
	}
	sparkIDs, err := state.ApplyScenario(ctx, sc)
	if err != nil {
		return fmt.Errorf("apply scenario %q: %w", path, err)
	}
	log.Info(ctx, "loaded scenario",
		logging.String("path", path),
		logging.Int("towers", len(sc.Towers)),
		logging.Int("sparks", len(sparkIDs)),
	)
	return nil
}

func serveMetrics(addr string, collector *observability.GridCollector, log logging.Logger) *http.Server {
	if addr == "" || collector == nil {
		return nil
	}
	mux := http.NewServeMux()
	mux.Handle("/metrics", collector.Handler())

	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Warn(context.Background(), "metrics server exited", logging.Err(err))
		}
	}()

	log.Info(context.Background(), "serving Prometheus metrics", logging.String("addr", addr))
	return srv
}
