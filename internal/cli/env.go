package cli

import (
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/kelseyhightower/envconfig"
)

// envPrefix scopes environment overrides to RESTGEN_*.
const envPrefix = "restgen"

// envOverrides holds RESTGEN_* variables. Pointer fields stay nil when the
// variable is unset so they never clobber values from the config file.
type envOverrides struct {
	Config      string   `envconfig:"CONFIG"`
	Root        string   `envconfig:"ROOT"`
	Folders     []string `envconfig:"FOLDERS"`
	Revision    string   `envconfig:"REVISION"`
	Out         string   `envconfig:"OUT"`
	Emit        []string `envconfig:"EMIT"`
	PackageName string   `envconfig:"PACKAGE_NAME"`
	Concurrency *int     `envconfig:"CONCURRENCY"`
	Verbose     *bool    `envconfig:"VERBOSE"`
	LogLevel    string   `envconfig:"LOG_LEVEL"`
}

func loadEnv() (*envOverrides, error) {
	var env envOverrides
	if err := envconfig.Process(envPrefix, &env); err != nil {
		return nil, newUsageError(fmt.Sprintf("environment: %v", err))
	}
	return &env, nil
}

func (e *envOverrides) apply(cfg *GenerateConfig) {
	if v := strings.TrimSpace(e.Root); v != "" {
		cfg.Root = v
	}
	if len(e.Folders) > 0 {
		cfg.Folders = e.Folders
	}
	if v := strings.TrimSpace(e.Revision); v != "" {
		cfg.Revision = v
	}
	if v := strings.TrimSpace(e.Out); v != "" {
		cfg.Out = v
	}
	if len(e.Emit) > 0 {
		cfg.Emit = e.Emit
	}
	if v := strings.TrimSpace(e.PackageName); v != "" {
		cfg.PackageName = v
	}
	if e.Concurrency != nil {
		cfg.Concurrency = *e.Concurrency
	}
	if e.Verbose != nil {
		cfg.Verbose = *e.Verbose
	}
}

// parsedLogLevel maps RESTGEN_LOG_LEVEL onto a slog level. Verbose always
// wins and selects debug output.
func (e *envOverrides) parsedLogLevel(verbose bool) slog.Level {
	if verbose {
		return slog.LevelDebug
	}
	switch strings.ToLower(strings.TrimSpace(e.LogLevel)) {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "error":
		return slog.LevelError
	default:
		return slog.LevelWarn
	}
}

func newLogger(w io.Writer, level slog.Level) *slog.Logger {
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}
