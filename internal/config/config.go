package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/signalsfoundry/cablegrid/internal/logging"
	"github.com/signalsfoundry/cablegrid/internal/observability"
	"github.com/spf13/viper"
)

// EnvPrefix is prepended to every environment override, e.g.
// CABLEGRID_GRID_HANG or CABLEGRID_SERVER_GRPC_ADDR.
const EnvPrefix = "CABLEGRID"

// LogConfig selects the logging backend.
type LogConfig struct {
	Level   string `mapstructure:"level"`
	Format  string `mapstructure:"format"`
	Backend string `mapstructure:"backend"`
}

// GridConfig holds defaults used when cables and sparks are spawned.
type GridConfig struct {
	Hang       float64 `mapstructure:"hang"`
	Segments   int     `mapstructure:"segments"`
	SparkSpeed float64 `mapstructure:"spark_speed"`
}

// SimConfig drives the simulation loop.
type SimConfig struct {
	Tick        time.Duration `mapstructure:"tick"`
	Duration    time.Duration `mapstructure:"duration"`
	Accelerated bool          `mapstructure:"accelerated"`
	Scenario    string        `mapstructure:"scenario"`
}

// ServerConfig holds listen addresses for the gRPC and metrics servers.
type ServerConfig struct {
	GRPCAddr    string `mapstructure:"grpc_addr"`
	MetricsAddr string `mapstructure:"metrics_addr"`
}

// Config is the full process configuration.
type Config struct {
	Log     LogConfig                   `mapstructure:"log"`
	Grid    GridConfig                  `mapstructure:"grid"`
	Sim     SimConfig                   `mapstructure:"sim"`
	Server  ServerConfig                `mapstructure:"server"`
	Tracing observability.TracingConfig `mapstructure:"tracing"`
}

// New returns a viper instance with defaults and environment overrides
// installed. Callers may bind flags to it before calling Load.
func New() *viper.Viper {
	v := viper.New()

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")
	v.SetDefault("log.backend", "slog")

	v.SetDefault("grid.hang", 2.0)
	v.SetDefault("grid.segments", 10)
	v.SetDefault("grid.spark_speed", 0.5)

	v.SetDefault("sim.tick", "100ms")
	v.SetDefault("sim.duration", "10s")
	v.SetDefault("sim.accelerated", true)
	v.SetDefault("sim.scenario", "")

	v.SetDefault("server.grpc_addr", ":50061")
	v.SetDefault("server.metrics_addr", ":9091")

	v.SetDefault("tracing.enabled", false)
	v.SetDefault("tracing.exporter", "stdout")
	v.SetDefault("tracing.endpoint", "")
	v.SetDefault("tracing.service_name", "cablegrid")
	v.SetDefault("tracing.sample_ratio", 1.0)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

// Load reads the optional config file at path into v and decodes the result.
// An empty path uses defaults, environment and bound flags only.
func Load(v *viper.Viper, path string) (Config, error) {
	if v == nil {
		v = New()
	}
	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate rejects values the grid and loop cannot run with.
func (c Config) Validate() error {
	var errs []error
	if c.Grid.Hang < 0 {
		errs = append(errs, fmt.Errorf("grid.hang must be >= 0, got %g", c.Grid.Hang))
	}
	if c.Grid.Segments <= 0 {
		errs = append(errs, fmt.Errorf("grid.segments must be > 0, got %d", c.Grid.Segments))
	}
	if c.Sim.Tick <= 0 {
		errs = append(errs, fmt.Errorf("sim.tick must be > 0, got %s", c.Sim.Tick))
	}
	if c.Sim.Duration < 0 {
		errs = append(errs, fmt.Errorf("sim.duration must be >= 0, got %s", c.Sim.Duration))
	}
	if r := c.Tracing.SampleRatio; r < 0 || r > 1 {
		errs = append(errs, fmt.Errorf("tracing.sample_ratio must be within [0,1], got %g", r))
	}
	switch strings.ToLower(c.Tracing.Exporter) {
	case "", "stdout", "otlp", "otlpgrpc":
	default:
		errs = append(errs, fmt.Errorf("tracing.exporter %q is not supported", c.Tracing.Exporter))
	}
	switch strings.ToLower(c.Log.Backend) {
	case "", "slog", "zerolog":
	default:
		errs = append(errs, fmt.Errorf("log.backend %q is not supported", c.Log.Backend))
	}
	if len(errs) > 0 {
		return fmt.Errorf("invalid config: %w", errors.Join(errs...))
	}
	return nil
}

// Logging converts the log section into a logger config.
func (c Config) Logging() logging.Config {
	return logging.Config{
		Level:     c.Log.Level,
		Format:    c.Log.Format,
		Backend:   c.Log.Backend,
		AddSource: true,
	}
}
