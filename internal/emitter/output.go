// Package emitter holds the file output plumbing shared by the emitters.
package emitter

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"sync"
)

// ErrOutputNotEmpty is returned by Preflight when the target already holds
// files and overwriting was not requested.
var ErrOutputNotEmpty = errors.New("output directory is not empty")

// PlannedFile describes a file an emitter writes (or would write on a dry run).
type PlannedFile struct {
	RelPath string
	Size    int
	Mode    os.FileMode
}

// Output writes files below a root directory.
type Output struct {
	Root   string
	DryRun bool

	mu      sync.Mutex
	planned []PlannedFile
}

// NewOutput resolves root to an absolute path.
func NewOutput(root string, dryRun bool) (*Output, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("resolve out dir: %w", err)
	}
	return &Output{Root: abs, DryRun: dryRun}, nil
}

// Preflight fails when any of rels already exists below Root, or when dir
// (relative to Root, "" for Root itself) is a non-empty directory, unless
// force is set.
func (o *Output) Preflight(dir string, force bool, rels ...string) error {
	if force {
		return nil
	}
	if dir != "" || len(rels) == 0 {
		target := filepath.Join(o.Root, dir)
		entries, err := os.ReadDir(target)
		if err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("read output directory %q: %w", target, err)
		}
		if len(entries) > 0 {
			return fmt.Errorf("%w: %q (use --force to overwrite)", ErrOutputNotEmpty, target)
		}
	}
	for _, rel := range rels {
		p := filepath.Join(o.Root, filepath.FromSlash(rel))
		if _, err := os.Stat(p); err == nil {
			return fmt.Errorf("%w: %q exists (use --force to overwrite)", ErrOutputNotEmpty, p)
		}
	}
	return nil
}

// Write records rel in the plan and, unless this is a dry run, writes
// content atomically via a temp file and rename.
func (o *Output) Write(rel string, content []byte) error {
	rel = filepath.ToSlash(rel)
	o.mu.Lock()
	o.planned = append(o.planned, PlannedFile{RelPath: rel, Size: len(content), Mode: 0o644})
	o.mu.Unlock()
	if o.DryRun {
		return nil
	}

	p := filepath.Join(o.Root, filepath.FromSlash(rel))
	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		return fmt.Errorf("mkdir: %w", err)
	}
	tmp, err := os.CreateTemp(filepath.Dir(p), "."+filepath.Base(p)+".tmp-*")
	if err != nil {
		return fmt.Errorf("write temp %s: %w", rel, err)
	}
	if _, err := tmp.Write(content); err != nil {
		tmp.Close()
		_ = os.Remove(tmp.Name())
		return fmt.Errorf("write temp %s: %w", rel, err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmp.Name())
		return fmt.Errorf("write temp %s: %w", rel, err)
	}
	if err := os.Chmod(tmp.Name(), 0o644); err != nil {
		_ = os.Remove(tmp.Name())
		return fmt.Errorf("chmod %s: %w", rel, err)
	}
	if err := os.Rename(tmp.Name(), p); err != nil {
		_ = os.Remove(tmp.Name())
		return fmt.Errorf("rename %s: %w", rel, err)
	}
	return nil
}

// Planned returns the recorded files ordered by path.
func (o *Output) Planned() []PlannedFile {
	o.mu.Lock()
	defer o.mu.Unlock()
	out := append([]PlannedFile(nil), o.planned...)
	sort.Slice(out, func(i, j int) bool { return out[i].RelPath < out[j].RelPath })
	return out
}
