package goemitter

import (
	"bytes"
	"context"
	"embed"
	"fmt"
	"io"
	"log/slog"
	"path"
	"strings"
	"text/template"

	"golang.org/x/tools/imports"

	"github.com/mark3labs/restgen/internal/emitter"
	"github.com/mark3labs/restgen/internal/pipeline"
	"github.com/mark3labs/restgen/internal/spec"
)

// DefaultPackage is the package name used when Options.PackageName is empty.
const DefaultPackage = "lowlevel"

//go:embed templates/*.tmpl
var templateFS embed.FS

var templates = template.Must(template.New("goemitter").ParseFS(templateFS, "templates/*.tmpl"))

// Options controls how the Go emitter renders the client package.
type Options struct {
	OutDir      string // required; the package is written to <OutDir>/<PackageName>
	PackageName string // defaults to DefaultPackage
	Force       bool   // overwrite a non-empty package directory
	DryRun      bool   // don't write, only plan
	Warnings    *spec.Warnings
	Logger      *slog.Logger
}

// Result returns the planned files and the resolved package name.
type Result struct {
	PackageName string
	Planned     []emitter.PlannedFile
}

// stage is one generated file, in emission order.
type stage struct {
	label    string
	template string
	file     string
}

var stages = []stage{
	{"Client interface", "client.go.tmpl", "client"},
	{"Request parameters", "parameters.go.tmpl", "request_parameters"},
	{"Descriptors", "descriptors.go.tmpl", "descriptors"},
	{"Requests", "requests.go.tmpl", "requests"},
	{"Enums", "enums.go.tmpl", "enums"},
	{"Lowlevel client", "lowlevel.go.tmpl", "lowlevel"},
	{"Dispatch", "dispatch.go.tmpl", "dispatch"},
}

// Emitter renders a Go low-level client for a specification.
type Emitter struct {
	opts Options
	pkg  string
	out  *emitter.Output
	log  *slog.Logger

	view     *packageView
	viewFrom *spec.Specification
}

// New validates opts and returns an Emitter.
func New(opts Options) (*Emitter, error) {
	if strings.TrimSpace(opts.OutDir) == "" {
		return nil, fmt.Errorf("goemitter: OutDir is required")
	}
	pkg := sanitizePackageName(opts.PackageName)
	if pkg == "" {
		pkg = DefaultPackage
	}
	out, err := emitter.NewOutput(opts.OutDir, opts.DryRun)
	if err != nil {
		return nil, fmt.Errorf("goemitter: %w", err)
	}
	log := opts.Logger
	if log == nil {
		log = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Emitter{opts: opts, pkg: pkg, out: out, log: log.With("component", "goemitter")}, nil
}

// PackageName returns the resolved package name.
func (e *Emitter) PackageName() string { return e.pkg }

// Prepare rejects a non-empty package directory unless Force is set.
func (e *Emitter) Prepare() error {
	if e.opts.DryRun {
		return nil
	}
	if err := e.out.Preflight(e.pkg, e.opts.Force); err != nil {
		return fmt.Errorf("goemitter: %w", err)
	}
	return nil
}

// Steps returns one pipeline step per generated file, in emission order.
func (e *Emitter) Steps() []pipeline.Step {
	steps := make([]pipeline.Step, 0, len(stages))
	for _, st := range stages {
		st := st
		steps = append(steps, pipeline.Step{
			Label: st.label,
			Run: func(ctx context.Context, model *spec.Specification) error {
				return e.emit(ctx, model, st)
			},
		})
	}
	return steps
}

// Planned returns the files written (or planned) so far.
func (e *Emitter) Planned() []emitter.PlannedFile { return e.out.Planned() }

func (e *Emitter) emit(ctx context.Context, model *spec.Specification, st stage) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	view := e.viewOf(model)
	rel := path.Join(e.pkg, st.file+".generated.go")

	var buf bytes.Buffer
	if err := templates.ExecuteTemplate(&buf, st.template, view); err != nil {
		return fmt.Errorf("render %s: %w", rel, err)
	}
	src, err := format(rel, buf.Bytes())
	if err != nil {
		return err
	}
	if err := e.out.Write(rel, src); err != nil {
		return err
	}
	e.log.Debug("Rendered file", slog.String("file", rel), slog.Int("bytes", len(src)), slog.Bool("dry_run", e.opts.DryRun))
	return nil
}

// viewOf builds the template view once per model.
func (e *Emitter) viewOf(model *spec.Specification) *packageView {
	if e.view == nil || e.viewFrom != model {
		v := buildView(model, e.pkg, e.opts.Warnings)
		e.view, e.viewFrom = &v, model
	}
	return e.view
}

// format runs goimports over generated source. Templates declare exactly the
// imports they use, so only formatting and import grouping are applied.
func format(filename string, src []byte) ([]byte, error) {
	out, err := imports.Process(filename, src, &imports.Options{
		Comments:   true,
		TabIndent:  true,
		TabWidth:   8,
		FormatOnly: true,
	})
	if err != nil {
		return nil, fmt.Errorf("format %s: %w", filename, err)
	}
	return out, nil
}

// Emit renders every file of the client package for model.
func Emit(ctx context.Context, model *spec.Specification, opts Options) (*Result, error) {
	if model == nil {
		return nil, fmt.Errorf("goemitter: nil Specification")
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
	return &Result{PackageName: e.pkg, Planned: e.Planned()}, nil
}

func sanitizePackageName(name string) string {
	name = strings.ToLower(strings.TrimSpace(name))
	var b strings.Builder
	for _, r := range name {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
		}
	}
	out := strings.TrimLeft(b.String(), "0123456789")
	return out
}
