package cli

import (
	"bytes"
	"fmt"
	"log/slog"
	"maps"
	"os"
	"strings"

	"github.com/spf13/pflag"
	"gopkg.in/yaml.v3"

	"github.com/mark3labs/restgen/internal/spec"
)

// Emitter names accepted by --emit.
const (
	emitGo      = "go"
	emitOpenAPI = "openapi"
)

// GenerateConfig captures all inputs that influence ingestion and emission
// after merging defaults, config file values, environment and CLI overrides.
type GenerateConfig struct {
	Root          string
	Folders       []string
	Revision      string
	Out           string
	Emit          []string
	PackageName   string
	OpenAPIFormat string
	OpenAPITitle  string
	Concurrency   int
	Denylist      []string
	Overrides     *spec.Overrides
	ConfigPath    string
	DryRun        bool
	Force         bool
	Progress      bool
	Verbose       bool
	LogLevel      slog.Level
}

func defaultGenerateConfig() GenerateConfig {
	return GenerateConfig{
		Out:           "generated",
		Emit:          []string{emitGo, emitOpenAPI},
		OpenAPIFormat: "yaml",
		Concurrency:   1,
	}
}

// resolveConfig layers defaults, the config file, RESTGEN_* variables and
// explicitly set flags, in that order.
func resolveConfig(flags *pflag.FlagSet) (*GenerateConfig, error) {
	cfg := defaultGenerateConfig()

	env, err := loadEnv()
	if err != nil {
		return nil, err
	}

	configPath, err := flags.GetString("config")
	if err != nil {
		return nil, err
	}
	configPath = strings.TrimSpace(configPath)
	if configPath == "" && !flags.Changed("config") {
		configPath = strings.TrimSpace(env.Config)
	}
	if configPath != "" {
		cfg.ConfigPath = configPath
		if err := applyConfigFromFile(&cfg, configPath); err != nil {
			return nil, err
		}
	}

	env.apply(&cfg)

	if err := applyFlagOverrides(flags, &cfg); err != nil {
		return nil, err
	}
	cfg.LogLevel = env.parsedLogLevel(cfg.Verbose)

	cfg.normalize()
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func applyFlagOverrides(flags *pflag.FlagSet, cfg *GenerateConfig) error {
	for _, f := range []struct {
		name string
		dst  *string
	}{
		{"root", &cfg.Root},
		{"revision", &cfg.Revision},
		{"out", &cfg.Out},
		{"package-name", &cfg.PackageName},
		{"openapi-format", &cfg.OpenAPIFormat},
		{"openapi-title", &cfg.OpenAPITitle},
	} {
		if flags.Lookup(f.name) == nil || !flags.Changed(f.name) {
			continue
		}
		value, err := flags.GetString(f.name)
		if err != nil {
			return err
		}
		*f.dst = strings.TrimSpace(value)
	}

	for _, f := range []struct {
		name string
		dst  *[]string
	}{
		{"folders", &cfg.Folders},
		{"emit", &cfg.Emit},
	} {
		if flags.Lookup(f.name) == nil || !flags.Changed(f.name) {
			continue
		}
		value, err := flags.GetStringSlice(f.name)
		if err != nil {
			return err
		}
		*f.dst = sanitizeList(value)
	}

	for _, f := range []struct {
		name string
		dst  *bool
	}{
		{"dry-run", &cfg.DryRun},
		{"force", &cfg.Force},
		{"progress", &cfg.Progress},
		{"verbose", &cfg.Verbose},
	} {
		if flags.Lookup(f.name) == nil || !flags.Changed(f.name) {
			continue
		}
		value, err := flags.GetBool(f.name)
		if err != nil {
			return err
		}
		*f.dst = value
	}

	if flags.Lookup("concurrency") != nil && flags.Changed("concurrency") {
		value, err := flags.GetInt("concurrency")
		if err != nil {
			return err
		}
		cfg.Concurrency = value
	}
	return nil
}

func (c *GenerateConfig) normalize() {
	c.Root = strings.TrimSpace(c.Root)
	c.Revision = strings.TrimSpace(c.Revision)
	c.Out = strings.TrimSpace(c.Out)
	c.PackageName = strings.TrimSpace(c.PackageName)
	c.OpenAPIFormat = strings.ToLower(strings.TrimSpace(c.OpenAPIFormat))
	c.OpenAPITitle = strings.TrimSpace(c.OpenAPITitle)
	c.Folders = sanitizeList(c.Folders)
	c.Denylist = sanitizeList(c.Denylist)
	emit := sanitizeList(c.Emit)
	for i := range emit {
		emit[i] = strings.ToLower(emit[i])
	}
	c.Emit = sanitizeList(emit)
}

func (c *GenerateConfig) validate() error {
	if c.Root == "" {
		return newUsageError("--root is required (set via flag, RESTGEN_ROOT or config file)")
	}
	if c.Concurrency < 1 {
		return newUsageError(fmt.Sprintf("--concurrency must be at least 1, got %d", c.Concurrency))
	}
	for _, e := range c.Emit {
		switch e {
		case emitGo, emitOpenAPI:
		default:
			return newUsageError(fmt.Sprintf("unsupported --emit %q (allowed: go, openapi)", e))
		}
	}
	switch c.OpenAPIFormat {
	case "", "yaml", "json":
	default:
		return newUsageError(fmt.Sprintf("unsupported --openapi-format %q (allowed: yaml, json)", c.OpenAPIFormat))
	}
	return nil
}

func (c *GenerateConfig) emits(name string) bool {
	for _, e := range c.Emit {
		if e == name {
			return true
		}
	}
	return false
}

// loadOptions maps the configuration onto ingestion options.
func (c *GenerateConfig) loadOptions() []spec.Option {
	deny := spec.DefaultDenylist
	if len(c.Denylist) > 0 {
		deny = spec.NewDenylist(c.Denylist...)
		maps.Copy(deny, spec.DefaultDenylist)
	}
	return []spec.Option{
		spec.WithFolders(c.Folders...),
		spec.WithRevision(c.Revision),
		spec.WithDenylist(deny),
		spec.WithOverrides(c.Overrides),
		spec.WithConcurrency(c.Concurrency),
	}
}

func sanitizeList(items []string) []string {
	if len(items) == 0 {
		return nil
	}
	seen := make(map[string]struct{}, len(items))
	result := make([]string, 0, len(items))
	for _, item := range items {
		trimmed := strings.TrimSpace(item)
		if trimmed == "" {
			continue
		}
		if _, exists := seen[trimmed]; exists {
			continue
		}
		seen[trimmed] = struct{}{}
		result = append(result, trimmed)
	}
	if len(result) == 0 {
		return nil
	}
	return result
}

func applyConfigFromFile(cfg *GenerateConfig, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return newUsageError(fmt.Sprintf("read config file %q: %v", path, err))
	}

	var raw map[string]any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return newUsageError(fmt.Sprintf("parse config file %q: %v", path, err))
	}

	for key, value := range raw {
		var err error
		switch normalizeKey(key) {
		case "root":
			cfg.Root, err = valueAsString(value)
		case "folders":
			cfg.Folders, err = valueAsStringSlice(value)
		case "revision":
			cfg.Revision, err = valueAsString(value)
		case "out":
			cfg.Out, err = valueAsString(value)
		case "emit":
			cfg.Emit, err = valueAsStringSlice(value)
		case "packagename":
			cfg.PackageName, err = valueAsString(value)
		case "openapiformat":
			cfg.OpenAPIFormat, err = valueAsString(value)
		case "openapititle":
			cfg.OpenAPITitle, err = valueAsString(value)
		case "concurrency":
			cfg.Concurrency, err = valueAsInt(value)
		case "denylist":
			cfg.Denylist, err = valueAsStringSlice(value)
		case "overrides":
			cfg.Overrides, err = valueAsOverrides(value)
		case "dryrun":
			cfg.DryRun, err = valueAsBool(value)
		case "force":
			cfg.Force, err = valueAsBool(value)
		case "progress":
			cfg.Progress, err = valueAsBool(value)
		case "verbose":
			cfg.Verbose, err = valueAsBool(value)
		default:
			return newUsageError(fmt.Sprintf("config file %q: unknown field %q", path, key))
		}
		if err != nil {
			return newUsageError(fmt.Sprintf("config field %q: %v", key, err))
		}
	}

	return nil
}

func normalizeKey(raw string) string {
	lowered := strings.ToLower(strings.TrimSpace(raw))
	lowered = strings.ReplaceAll(lowered, "-", "")
	lowered = strings.ReplaceAll(lowered, "_", "")
	return lowered
}

func valueAsString(v any) (string, error) {
	switch val := v.(type) {
	case string:
		return strings.TrimSpace(val), nil
	case nil:
		return "", nil
	case int, float64:
		return fmt.Sprint(val), nil
	default:
		return "", fmt.Errorf("expected string, got %T", v)
	}
}

func valueAsStringSlice(v any) ([]string, error) {
	switch val := v.(type) {
	case nil:
		return nil, nil
	case string:
		if strings.TrimSpace(val) == "" {
			return nil, nil
		}
		return splitAndTrim(val), nil
	case []any:
		items := make([]string, 0, len(val))
		for idx, elem := range val {
			str, err := valueAsString(elem)
			if err != nil {
				return nil, fmt.Errorf("element %d: %w", idx, err)
			}
			if str != "" {
				items = append(items, str)
			}
		}
		return items, nil
	default:
		return nil, fmt.Errorf("expected string or list, got %T", v)
	}
}

func valueAsBool(v any) (bool, error) {
	switch val := v.(type) {
	case bool:
		return val, nil
	case string:
		trimmed := strings.ToLower(strings.TrimSpace(val))
		switch trimmed {
		case "true", "t", "1", "yes", "y":
			return true, nil
		case "false", "f", "0", "no", "n":
			return false, nil
		case "":
			return false, nil
		default:
			return false, fmt.Errorf("invalid boolean value %q", val)
		}
	case nil:
		return false, nil
	default:
		return false, fmt.Errorf("expected boolean, got %T", v)
	}
}

func valueAsInt(v any) (int, error) {
	switch val := v.(type) {
	case int:
		return val, nil
	case string:
		var n int
		if _, err := fmt.Sscanf(strings.TrimSpace(val), "%d", &n); err != nil {
			return 0, fmt.Errorf("invalid integer value %q", val)
		}
		return n, nil
	default:
		return 0, fmt.Errorf("expected integer, got %T", v)
	}
}

// valueAsOverrides re-decodes the overrides section strictly so misspelled
// keys are reported instead of ignored.
func valueAsOverrides(v any) (*spec.Overrides, error) {
	if v == nil {
		return nil, nil
	}
	data, err := yaml.Marshal(v)
	if err != nil {
		return nil, err
	}
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	var ov spec.Overrides
	if err := dec.Decode(&ov); err != nil {
		return nil, err
	}
	return &ov, nil
}

func splitAndTrim(csv string) []string {
	parts := strings.Split(csv, ",")
	cleaned := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			cleaned = append(cleaned, trimmed)
		}
	}
	return cleaned
}
