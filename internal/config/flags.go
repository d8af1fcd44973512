package config

import (
	"fmt"
	"sort"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// flagKeys maps command-line flag names to config keys.
var flagKeys = map[string]string{
	"log-level":      "log.level",
	"log-format":     "log.format",
	"log-backend":    "log.backend",
	"hang":           "grid.hang",
	"segments":       "grid.segments",
	"spark-speed":    "grid.spark_speed",
	"tick":           "sim.tick",
	"duration":       "sim.duration",
	"accelerated":    "sim.accelerated",
	"scenario":       "sim.scenario",
	"grpc-addr":      "server.grpc_addr",
	"metrics-addr":   "server.metrics_addr",
	"tracing":        "tracing.enabled",
	"trace-exporter": "tracing.exporter",
	"trace-endpoint": "tracing.endpoint",
}

// BindFlags binds every flag in fs that names a config key. Flags override
// file and environment values only when set on the command line.
func BindFlags(v *viper.Viper, fs *pflag.FlagSet) error {
	names := make([]string, 0, len(flagKeys))
	for name := range flagKeys {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		f := fs.Lookup(name)
		if f == nil {
			continue
		}
		if err := v.BindPFlag(flagKeys[name], f); err != nil {
			return fmt.Errorf("bind flag --%s: %w", name, err)
		}
	}
	return nil
}

// AddCommonFlags registers the flags shared by every binary.
func AddCommonFlags(fs *pflag.FlagSet) {
	fs.String("log-level", "info", "log level (debug, info, warn, error)")
	fs.String("log-format", "text", "log format (text, json)")
	fs.String("log-backend", "slog", "log backend (slog, zerolog)")
	fs.Float64("hang", 2.0, "default cable hang")
	fs.Int("segments", 10, "default cable segment count")
	fs.Float64("spark-speed", 0.5, "default spark speed in normalised distance per second")
	fs.Duration("tick", 100*time.Millisecond, "simulation tick")
	fs.String("scenario", "", "path to a JSON scenario file")
	fs.Bool("tracing", false, "enable OpenTelemetry tracing")
	fs.String("trace-exporter", "stdout", "trace exporter (stdout, otlp)")
	fs.String("trace-endpoint", "", "OTLP collector endpoint")
}
