// Package openapiemitter renders the ingested specification as an OpenAPI 3
// document.
package openapiemitter

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/mark3labs/restgen/internal/emitter"
	"github.com/mark3labs/restgen/internal/pipeline"
	"github.com/mark3labs/restgen/internal/spec"
)

// StepLabel names the pipeline step of this emitter.
const StepLabel = "OpenAPI document"

// Options controls how the OpenAPI emitter renders the document.
type Options struct {
	OutDir   string // required
	Format   string // yaml (default) or json
	Title    string // info.title; defaults to "REST API"
	Force    bool   // overwrite an existing document
	DryRun   bool
	Warnings *spec.Warnings
	Logger   *slog.Logger
}

// Result returns the planned files.
type Result struct {
	Planned []emitter.PlannedFile
}

// Emitter renders one OpenAPI document per run.
type Emitter struct {
	opts Options
	file string
	out  *emitter.Output
	log  *slog.Logger
}

// New validates opts and returns an Emitter.
func New(opts Options) (*Emitter, error) {
	if strings.TrimSpace(opts.OutDir) == "" {
		return nil, fmt.Errorf("openapiemitter: OutDir is required")
	}
	format := strings.ToLower(strings.TrimSpace(opts.Format))
	switch format {
	case "", "yaml", "yml":
		format = "yaml"
	case "json":
	default:
		return nil, fmt.Errorf("openapiemitter: unsupported format %q (allowed: yaml, json)", opts.Format)
	}
	opts.Format = format
	if strings.TrimSpace(opts.Title) == "" {
		opts.Title = "REST API"
	}
	out, err := emitter.NewOutput(opts.OutDir, opts.DryRun)
	if err != nil {
		return nil, fmt.Errorf("openapiemitter: %w", err)
	}
	log := opts.Logger
	if log == nil {
		log = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Emitter{opts: opts, file: "openapi." + format, out: out, log: log.With("component", "openapiemitter")}, nil
}

// Prepare rejects an existing document unless Force is set.
func (e *Emitter) Prepare() error {
	if e.opts.DryRun {
		return nil
	}
	if err := e.out.Preflight("", e.opts.Force, e.file); err != nil {
		return fmt.Errorf("openapiemitter: %w", err)
	}
	return nil
}

// Steps returns the single step of this emitter.
func (e *Emitter) Steps() []pipeline.Step {
	return []pipeline.Step{{Label: StepLabel, Run: e.emit}}
}

// Planned returns the files written (or planned) so far.
func (e *Emitter) Planned() []emitter.PlannedFile { return e.out.Planned() }

func (e *Emitter) emit(ctx context.Context, model *spec.Specification) error {
	doc := Build(model, e.opts.Title, e.opts.Warnings)
	if err := doc.Validate(ctx); err != nil {
		return fmt.Errorf("validate document: %w", err)
	}

	var (
		data []byte
		err  error
	)
	if e.opts.Format == "json" {
		data, err = json.MarshalIndent(doc, "", "  ")
		data = append(data, '\n')
	} else {
		data, err = yaml.Marshal(doc)
	}
	if err != nil {
		return fmt.Errorf("marshal %s: %w", e.file, err)
	}
	if err := e.out.Write(e.file, data); err != nil {
		return err
	}
	e.log.Debug("Rendered document", slog.String("file", e.file), slog.Int("paths", doc.Paths.Len()))
	return nil
}

// Emit renders the OpenAPI document for model.
func Emit(ctx context.Context, model *spec.Specification, opts Options) (*Result, error) {
	if model == nil {
		return nil, fmt.Errorf("openapiemitter: nil Specification")
	}
	e, err := New(opts)
	if err != nil {
		return nil, err
	}
	if err := e.Prepare(); err != nil {
		return nil, err
	}
	if _, err := pipeline.New(e.Steps(), pipeline.Options{Logger: opts.Logger, Warnings: opts.Warnings}).Run(ctx, model); err != nil {
		return nil, err
	}
	return &Result{Planned: e.Planned()}, nil
}
