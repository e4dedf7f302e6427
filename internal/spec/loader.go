package spec

import (
	"context"
	"io"
	"log/slog"
	"strings"

	"golang.org/x/sync/errgroup"
)

// Settings configures ingestion.
type Settings struct {
	// Folders restricts ingestion to directories with these names.
	Folders []string
	// Revision is stored verbatim as Specification.Commit.
	Revision string
	// Denylist names base files that are never ingested.
	Denylist Denylist
	// Overrides adjusts parameter reconciliation.
	Overrides *Overrides
	// Concurrency bounds how many files are ingested at once. Values below
	// 1 mean sequential ingestion.
	Concurrency int
	// Warnings receives reconciliation anomalies. A fresh sink is used when nil.
	Warnings *Warnings
	Logger   *slog.Logger
}

// DefaultSettings returns recommended defaults.
func DefaultSettings() Settings {
	return Settings{
		Denylist:    DefaultDenylist,
		Concurrency: 1,
	}
}

// Option mutates Settings.
type Option func(*Settings)

func WithFolders(folders ...string) Option { return func(s *Settings) { s.Folders = folders } }
func WithRevision(rev string) Option { return func(s *Settings) { s.Revision = rev } }
func WithDenylist(d Denylist) Option { return func(s *Settings) { s.Denylist = d } }
func WithOverrides(o *Overrides) Option { return func(s *Settings) { s.Overrides = o } }
func WithConcurrency(n int) Option { return func(s *Settings) { s.Concurrency = n } }
func WithWarnings(w *Warnings) Option { return func(s *Settings) { s.Warnings = w } }
func WithLogger(l *slog.Logger) Option { return func(s *Settings) { s.Logger = l } }

// Load ingests the specification tree under root and returns the finished
// model. Fatal ingestion errors are *SpecError values; when ctx is cancelled
// its error is returned as is. On error no model is returned.
func Load(ctx context.Context, root string, opts ...Option) (*Specification, error) {
	if strings.TrimSpace(root) == "" {
		return nil, &SpecError{Code: InputError, Message: "root directory is empty"}
	}
	settings := DefaultSettings()
	for _, opt := range opts {
		opt(&settings)
	}
	if settings.Warnings == nil {
		settings.Warnings = NewWarnings()
	}
	log := settings.Logger
	if log == nil {
		log = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	log = log.With("component", "spec_loader")

	files, err := Walk(root, settings.Folders, settings.Denylist)
	if err != nil {
		return nil, err
	}
	log.Debug("Discovered specification files", slog.Int("count", len(files)), slog.String("root", root))

	common, err := LoadCommonParameters(CommonFile(root), settings.Overrides.For(commonLabel), settings.Warnings)
	if err != nil {
		return nil, err
	}
	log.Debug("Loaded common parameters", slog.Int("count", len(common)))

	table := NewEndpointTable()
	g, gctx := errgroup.WithContext(ctx)
	limit := settings.Concurrency
	if limit < 1 {
		limit = 1
	}
	g.SetLimit(limit)
	for _, file := range files {
		file := file
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			return ingestFile(file, common, &settings, table, log)
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	log.Info("Ingested specification", slog.Int("endpoints", table.Len()), slog.Int("warnings", settings.Warnings.Len()))
	return &Specification{
		Commit:           settings.Revision,
		Endpoints:        table.Endpoints(),
		CommonParameters: common,
	}, nil
}

func ingestFile(file string, common map[string]*QueryParameter, settings *Settings, table *EndpointTable, log *slog.Logger) error {
	doc, ov, err := MergeFile(file)
	if err != nil {
		return err
	}
	source := file
	if ov.Kind == ReplaceOverlay {
		source = ov.Path
	}
	key, ep, err := DecodeEndpoint(source, doc)
	if err != nil {
		return err
	}
	ep.Parameters = PatchParameters(key, ep.Parameters, common, settings.Overrides.For(key), settings.Warnings)
	if err := table.Insert(key, source, ep); err != nil {
		return err
	}
	log.Debug("Ingested endpoint", slog.String("key", key), slog.String("file", file), slog.String("overlay", ov.Kind.String()))
	return nil
}
