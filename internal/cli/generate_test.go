package cli

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// captureConfig runs the root command with args and returns the resolved
// generate config without generating anything.
func captureConfig(t *testing.T, args ...string) (*GenerateConfig, error) {
	t.Helper()
	root := NewRootCmd()
	root.SetOut(io.Discard)
	root.SetErr(io.Discard)

	var captured *GenerateConfig
	generateRunner = func(ctx context.Context, cfg *GenerateConfig) error {
		captured = cfg
		return nil
	}
	t.Cleanup(func() { generateRunner = runGenerate })

	root.SetArgs(args)
	err := root.Execute()
	return captured, err
}

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "restgen.yaml")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestGenerateConfigFromFlags(t *testing.T) {
	captured, err := captureConfig(t,
		"--verbose",
		"generate",
		"--root", "./rest-api-spec",
		"--folders", "Core,XPack",
		"--revision", "6.4",
		"--out", "./build",
		"--emit", "go",
		"--package-name", "esapi",
		"--openapi-format", "JSON",
		"--concurrency", "4",
		"--dry-run",
		"--force",
		"--progress",
	)
	if err != nil {
		t.Fatalf("execute: %v", err)
	}
	if captured == nil {
		t.Fatalf("expected config to be captured")
	}

	if captured.Root != "./rest-api-spec" {
		t.Errorf("root mismatch: got %q", captured.Root)
	}
	if want := []string{"Core", "XPack"}; !equalStringSlices(captured.Folders, want) {
		t.Errorf("folders mismatch: got %v", captured.Folders)
	}
	if captured.Revision != "6.4" {
		t.Errorf("revision mismatch: got %q", captured.Revision)
	}
	if captured.Out != "./build" {
		t.Errorf("out mismatch: got %q", captured.Out)
	}
	if want := []string{"go"}; !equalStringSlices(captured.Emit, want) {
		t.Errorf("emit mismatch: got %v", captured.Emit)
	}
	if captured.PackageName != "esapi" {
		t.Errorf("package name mismatch: got %q", captured.PackageName)
	}
	if captured.OpenAPIFormat != "json" {
		t.Errorf("openapi format mismatch: got %q", captured.OpenAPIFormat)
	}
	if captured.Concurrency != 4 {
		t.Errorf("concurrency mismatch: got %d", captured.Concurrency)
	}
	if !captured.DryRun || !captured.Force || !captured.Progress {
		t.Errorf("expected dry-run, force and progress to be true: %+v", captured)
	}
	if !captured.Verbose {
		t.Errorf("expected verbose true")
	}
	if captured.LogLevel != slog.LevelDebug {
		t.Errorf("expected debug log level with --verbose, got %v", captured.LogLevel)
	}
}

func TestGenerateConfig_Defaults(t *testing.T) {
	captured, err := captureConfig(t, "generate", "--root", "spec")
	if err != nil {
		t.Fatalf("execute: %v", err)
	}
	if captured.Out != "generated" {
		t.Errorf("default out mismatch: got %q", captured.Out)
	}
	if want := []string{"go", "openapi"}; !equalStringSlices(captured.Emit, want) {
		t.Errorf("default emit mismatch: got %v", captured.Emit)
	}
	if captured.Concurrency != 1 {
		t.Errorf("default concurrency mismatch: got %d", captured.Concurrency)
	}
	if captured.OpenAPIFormat != "yaml" {
		t.Errorf("default openapi format mismatch: got %q", captured.OpenAPIFormat)
	}
}

func TestGenerateConfig_FileThenFlags(t *testing.T) {
	cfgPath := writeConfig(t, `
root: ./from-file
out: ./file-out
emit: openapi
package_name: fileclient
concurrency: 2
denylist: [cat.health.json]
overrides:
  global:
    skipCommon: [human]
  endpoints:
    search:
      skip: [typed_keys]
      rename:
        _source: source_
`)

	captured, err := captureConfig(t, "--config", cfgPath, "generate", "--out", "./flag-out")
	if err != nil {
		t.Fatalf("execute: %v", err)
	}
	if captured.ConfigPath != cfgPath {
		t.Errorf("config path mismatch: got %q", captured.ConfigPath)
	}
	if captured.Root != "./from-file" {
		t.Errorf("root should come from file, got %q", captured.Root)
	}
	if captured.Out != "./flag-out" {
		t.Errorf("flag should override file out, got %q", captured.Out)
	}
	if want := []string{"openapi"}; !equalStringSlices(captured.Emit, want) {
		t.Errorf("emit mismatch: got %v", captured.Emit)
	}
	if captured.PackageName != "fileclient" {
		t.Errorf("package name mismatch: got %q", captured.PackageName)
	}
	if captured.Concurrency != 2 {
		t.Errorf("concurrency mismatch: got %d", captured.Concurrency)
	}
	if want := []string{"cat.health.json"}; !equalStringSlices(captured.Denylist, want) {
		t.Errorf("denylist mismatch: got %v", captured.Denylist)
	}
	if captured.Overrides == nil {
		t.Fatalf("expected overrides to be decoded")
	}
	search := captured.Overrides.For("search")
	if want := []string{"human"}; !equalStringSlices(search.SkipCommon, want) {
		t.Errorf("skipCommon mismatch: got %v", search.SkipCommon)
	}
	if want := []string{"typed_keys"}; !equalStringSlices(search.Skip, want) {
		t.Errorf("skip mismatch: got %v", search.Skip)
	}
	if search.Rename["_source"] != "source_" {
		t.Errorf("rename mismatch: got %v", search.Rename)
	}
}

func TestGenerateConfig_EnvBetweenFileAndFlags(t *testing.T) {
	cfgPath := writeConfig(t, "root: ./from-file\nout: ./file-out\nrevision: '6.0'\n")
	t.Setenv("RESTGEN_OUT", "./env-out")
	t.Setenv("RESTGEN_REVISION", "6.4")
	t.Setenv("RESTGEN_CONCURRENCY", "3")
	t.Setenv("RESTGEN_EMIT", "go")

	captured, err := captureConfig(t, "--config", cfgPath, "generate", "--revision", "7.0")
	if err != nil {
		t.Fatalf("execute: %v", err)
	}
	if captured.Root != "./from-file" {
		t.Errorf("root should come from file, got %q", captured.Root)
	}
	if captured.Out != "./env-out" {
		t.Errorf("env should override file out, got %q", captured.Out)
	}
	if captured.Revision != "7.0" {
		t.Errorf("flag should override env revision, got %q", captured.Revision)
	}
	if captured.Concurrency != 3 {
		t.Errorf("concurrency from env mismatch: got %d", captured.Concurrency)
	}
	if want := []string{"go"}; !equalStringSlices(captured.Emit, want) {
		t.Errorf("emit from env mismatch: got %v", captured.Emit)
	}
}

func TestGenerateConfig_ConfigPathFromEnv(t *testing.T) {
	cfgPath := writeConfig(t, "root: ./env-config-root\n")
	t.Setenv("RESTGEN_CONFIG", cfgPath)

	captured, err := captureConfig(t, "generate")
	if err != nil {
		t.Fatalf("execute: %v", err)
	}
	if captured.Root != "./env-config-root" {
		t.Errorf("root mismatch: got %q", captured.Root)
	}
}

func TestGenerateConfig_LogLevelFromEnv(t *testing.T) {
	t.Setenv("RESTGEN_LOG_LEVEL", "info")

	captured, err := captureConfig(t, "generate", "--root", "spec")
	if err != nil {
		t.Fatalf("execute: %v", err)
	}
	if captured.LogLevel != slog.LevelInfo {
		t.Errorf("log level mismatch: got %v", captured.LogLevel)
	}
}

func TestGenerateConfig_InvalidEnv(t *testing.T) {
	t.Setenv("RESTGEN_CONCURRENCY", "many")

	_, err := captureConfig(t, "generate", "--root", "spec")
	if err == nil || !errors.Is(err, ErrUsage) {
		t.Fatalf("expected usage error, got %v", err)
	}
}

func TestGenerateConfig_UnknownField(t *testing.T) {
	cfgPath := writeConfig(t, "root: ./spec\nlang: go\n")

	_, err := captureConfig(t, "--config", cfgPath, "generate")
	if err == nil {
		t.Fatalf("expected error for unknown field")
	}
	if !errors.Is(err, ErrUsage) {
		t.Fatalf("expected usage error, got %T: %v", err, err)
	}
	if !strings.Contains(err.Error(), `unknown field "lang"`) {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestGenerateConfig_UnknownOverrideKey(t *testing.T) {
	cfgPath := writeConfig(t, "root: ./spec\noverrides:\n  global:\n    skipp: [pretty]\n")

	_, err := captureConfig(t, "--config", cfgPath, "generate")
	if err == nil || !errors.Is(err, ErrUsage) {
		t.Fatalf("expected usage error, got %v", err)
	}
	if !strings.Contains(err.Error(), "overrides") {
		t.Fatalf("error should name the overrides field: %v", err)
	}
}

func TestGenerateConfig_Validation(t *testing.T) {
	cases := []struct {
		name string
		args []string
		want string
	}{
		{"missing root", []string{"generate"}, "--root is required"},
		{"bad emit", []string{"generate", "--root", "spec", "--emit", "rust"}, `unsupported --emit "rust"`},
		{"bad concurrency", []string{"generate", "--root", "spec", "--concurrency", "0"}, "--concurrency must be at least 1"},
		{"bad format", []string{"generate", "--root", "spec", "--openapi-format", "toml"}, `unsupported --openapi-format "toml"`},
	}
	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			_, err := captureConfig(t, tc.args...)
			if err == nil {
				t.Fatalf("expected error")
			}
			if !errors.Is(err, ErrUsage) {
				t.Fatalf("expected usage error, got %T: %v", err, err)
			}
			if !strings.Contains(err.Error(), tc.want) {
				t.Fatalf("error %q does not contain %q", err, tc.want)
			}
		})
	}
}

func TestValueAsStringSlice(t *testing.T) {
	got, err := valueAsStringSlice("a, b,,c")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if want := []string{"a", "b", "c"}; !equalStringSlices(got, want) {
		t.Errorf("got %v", got)
	}
	if _, err := valueAsStringSlice(42); err == nil {
		t.Errorf("expected error for non-list value")
	}
}

func TestNormalizeKey(t *testing.T) {
	for _, in := range []string{"packageName", "package-name", "package_name", " PackageName "} {
		if got := normalizeKey(in); got != "packagename" {
			t.Errorf("normalizeKey(%q) = %q", in, got)
		}
	}
}

func equalStringSlices(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
