package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/mark3labs/restgen/internal/emitter"
	"github.com/mark3labs/restgen/internal/emitter/goemitter"
	"github.com/mark3labs/restgen/internal/emitter/openapiemitter"
	"github.com/mark3labs/restgen/internal/pipeline"
	"github.com/mark3labs/restgen/internal/spec"
)

var generateRunner = runGenerate

// target is one emitter taking part in a generate run.
type target interface {
	Prepare() error
	Steps() []pipeline.Step
	Planned() []emitter.PlannedFile
}

func newGenerateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Generate a typed client and OpenAPI document from a REST API specification tree",
		Long: "Generate a typed Go client and an OpenAPI document from a directory of JSON " +
			"endpoint definitions. Options can be provided via flags, RESTGEN_* environment " +
			"variables, config files, or defaults.",
		Example: strings.TrimSpace(`  restgen generate --root ./rest-api-spec --revision 6.4 --out ./esapi
  restgen --config restgen.yaml generate --emit go --force
  RESTGEN_ROOT=./rest-api-spec restgen generate --dry-run`),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := resolveConfig(cmd.Flags())
			if err != nil {
				return err
			}
			return generateRunner(cmd.Context(), cfg)
		},
	}

	flags := cmd.Flags()
	addSourceFlags(cmd)
	flags.String("out", "", "Output directory (default \"generated\")")
	flags.StringSlice("emit", nil, "Emitters to run (go, openapi); defaults to both")
	flags.String("package-name", "", "Package name of the generated Go client (default \"lowlevel\")")
	flags.String("openapi-format", "", "OpenAPI document format (yaml|json)")
	flags.String("openapi-title", "", "OpenAPI info.title")
	flags.Bool("dry-run", false, "Preview planned outputs without writing files")
	flags.Bool("force", false, "Overwrite existing output when set")
	flags.Bool("progress", false, "Show a progress bar on stderr while generating")

	return cmd
}

// addSourceFlags registers the flags that select and shape ingestion.
func addSourceFlags(cmd *cobra.Command) {
	flags := cmd.Flags()
	flags.String("root", "", "Root directory of the specification tree")
	flags.StringSlice("folders", nil, "Only ingest directories with these names")
	flags.String("revision", "", "Revision recorded as the specification commit")
	flags.Int("concurrency", 0, "Number of files ingested in parallel (default 1)")
}

func runGenerate(ctx context.Context, cfg *GenerateConfig) error {
	log := newLogger(os.Stderr, cfg.LogLevel)
	warnings := spec.NewWarnings()

	// 1) Ingest the specification tree
	opts := append(cfg.loadOptions(), spec.WithLogger(log), spec.WithWarnings(warnings))
	model, err := spec.Load(ctx, cfg.Root, opts...)
	if err != nil {
		return specUsageError(err)
	}

	absOut := cfg.Out
	if ap, err := filepath.Abs(cfg.Out); err == nil {
		absOut = ap
	}

	// 2) Build the requested emitters and check their targets before any write
	var (
		targets []target
		goOut   *goemitter.Emitter
	)
	if cfg.emits(emitGo) {
		e, err := goemitter.New(goemitter.Options{
			OutDir:      cfg.Out,
			PackageName: cfg.PackageName,
			Force:       cfg.Force,
			DryRun:      cfg.DryRun,
			Warnings:    warnings,
			Logger:      log,
		})
		if err != nil {
			return newUsageError(err.Error())
		}
		goOut = e
		targets = append(targets, e)
	}
	if cfg.emits(emitOpenAPI) {
		e, err := openapiemitter.New(openapiemitter.Options{
			OutDir:   cfg.Out,
			Format:   cfg.OpenAPIFormat,
			Title:    cfg.OpenAPITitle,
			Force:    cfg.Force,
			DryRun:   cfg.DryRun,
			Warnings: warnings,
			Logger:   log,
		})
		if err != nil {
			return newUsageError(err.Error())
		}
		targets = append(targets, e)
	}

	var steps []pipeline.Step
	for _, t := range targets {
		if err := t.Prepare(); err != nil {
			return wrapOutputError(err, absOut)
		}
		steps = append(steps, t.Steps()...)
	}

	// 3) Run every step in order and report warnings at the end
	runOpts := pipeline.Options{Logger: log, Warnings: warnings, Out: os.Stdout}
	if cfg.Progress {
		runOpts.Progress = pipeline.NewProgressBar(len(steps), os.Stderr)
	}
	if _, err := pipeline.New(steps, runOpts).Run(ctx, model); err != nil {
		return wrapOutputError(err, absOut)
	}

	if cfg.DryRun {
		var rels []string
		for _, t := range targets {
			for _, p := range t.Planned() {
				rels = append(rels, p.RelPath)
			}
		}
		printPlan(absOut, len(rels), rels)
		if goOut != nil {
			fmt.Fprintf(os.Stdout, "Go package: %s\n", goOut.PackageName())
		}
	}
	return nil
}

func printPlan(outDir string, count int, relPaths []string) {
	fmt.Fprintf(os.Stdout, "Planned writes to %s (%d files):\n", outDir, count)
	for _, p := range relPaths {
		fmt.Fprintf(os.Stdout, "- %s\n", p)
	}
}

func wrapOutputError(err error, outDir string) error {
	if errors.Is(err, emitter.ErrOutputNotEmpty) {
		return newUsageError(fmt.Sprintf("output error for %s: %v\nHint: choose a different --out or pass --force.", outDir, err))
	}
	msg := err.Error()
	lower := strings.ToLower(msg)
	if strings.Contains(lower, "permission") || strings.Contains(lower, "read-only") || strings.Contains(lower, "mkdir") || strings.Contains(lower, "rename") {
		return newUsageError(fmt.Sprintf("output error for %s: %s\nHint: choose a different --out or check directory permissions.", outDir, msg))
	}
	return err
}
