// Package pipeline sequences the emitters that run over an ingested
// specification.
package pipeline

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/mark3labs/restgen/internal/spec"
)

// Step is one named emitter. Run must treat the model as read-only.
type Step struct {
	Label string
	Run   func(ctx context.Context, model *spec.Specification) error
}

// StepError reports the step that aborted a run.
type StepError struct {
	Label string
	Err   error
}

func (e *StepError) Error() string {
	return fmt.Sprintf("%s: %v", e.Label, e.Err)
}

func (e *StepError) Unwrap() error { return e.Err }

// Report summarizes a run.
type Report struct {
	// Completed lists the labels of the steps that succeeded, in order.
	Completed []string
	// Warnings is the distinct, sorted content of the warning sink.
	Warnings []string
}

// Clean reports whether the run produced no warnings.
func (r *Report) Clean() bool { return len(r.Warnings) == 0 }

// Options configures a Runner.
type Options struct {
	Logger   *slog.Logger
	Warnings *spec.Warnings
	// Out receives the closing warning report. Nothing is written when nil.
	Out      io.Writer
	Progress Progress
}

// Runner executes steps strictly in order.
type Runner struct {
	steps    []Step
	log      *slog.Logger
	warnings *spec.Warnings
	out      io.Writer
	progress Progress
}

// New returns a Runner over steps.
func New(steps []Step, opts Options) *Runner {
	log := opts.Logger
	if log == nil {
		log = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	progress := opts.Progress
	if progress == nil {
		progress = noProgress{}
	}
	return &Runner{
		steps:    append([]Step(nil), steps...),
		log:      log.With("component", "pipeline"),
		warnings: opts.Warnings,
		out:      opts.Out,
		progress: progress,
	}
}

// Labels returns the step labels in execution order.
func (r *Runner) Labels() []string {
	labels := make([]string, 0, len(r.steps))
	for _, s := range r.steps {
		labels = append(labels, s.Label)
	}
	return labels
}

// Run executes every step against model. The first failing step aborts the
// run with a *StepError; outputs of earlier steps are left in place. On
// success the accumulated warnings are written to the report writer.
func (r *Runner) Run(ctx context.Context, model *spec.Specification) (*Report, error) {
	if model == nil {
		return nil, fmt.Errorf("pipeline: nil specification")
	}
	report := &Report{}
	defer r.progress.Finish()

	for _, step := range r.steps {
		if err := ctx.Err(); err != nil {
			report.Warnings = r.warnings.Sorted()
			return report, &StepError{Label: step.Label, Err: err}
		}
		r.progress.Start(step.Label)
		started := time.Now()
		r.log.Debug("Running step", slog.String("step", step.Label))
		if err := step.Run(ctx, model); err != nil {
			r.log.Error("Step failed", slog.String("step", step.Label), slog.String("error", err.Error()))
			report.Warnings = r.warnings.Sorted()
			return report, &StepError{Label: step.Label, Err: err}
		}
		r.progress.Done()
		report.Completed = append(report.Completed, step.Label)
		r.log.Info("Step completed", slog.String("step", step.Label), slog.Duration("elapsed", time.Since(started)))
	}

	report.Warnings = r.warnings.Sorted()
	if err := r.writeReport(report); err != nil {
		return report, fmt.Errorf("pipeline: write report: %w", err)
	}
	return report, nil
}

func (r *Runner) writeReport(report *Report) error {
	if r.out == nil || report.Clean() {
		return nil
	}
	if _, err := fmt.Fprintf(r.out, "%d warning(s):\n", len(report.Warnings)); err != nil {
		return err
	}
	for _, w := range report.Warnings {
		if _, err := fmt.Fprintf(r.out, "  - %s\n", w); err != nil {
			return err
		}
	}
	return nil
}
