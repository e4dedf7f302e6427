package spec

import (
	"fmt"
	"sort"
	"sync"
)

// Warnings accumulates non-fatal anomalies found while ingesting and
// generating. It is safe for concurrent use. The zero value is ready to use.
type Warnings struct {
	mu   sync.Mutex
	seen map[string]struct{}
	list []string
}

// NewWarnings returns an empty sink.
func NewWarnings() *Warnings { return &Warnings{} }

// Add records msg. Repeated messages are kept once.
func (w *Warnings) Add(msg string) {
	if w == nil || msg == "" {
		return
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.seen == nil {
		w.seen = make(map[string]struct{})
	}
	if _, ok := w.seen[msg]; ok {
		return
	}
	w.seen[msg] = struct{}{}
	w.list = append(w.list, msg)
}

// Addf formats and records a warning.
func (w *Warnings) Addf(format string, args ...any) {
	w.Add(fmt.Sprintf(format, args...))
}

// Len returns the number of distinct warnings recorded so far.
func (w *Warnings) Len() int {
	if w == nil {
		return 0
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	return len(w.list)
}

// Sorted returns the distinct warnings in lexicographic order.
func (w *Warnings) Sorted() []string {
	if w == nil {
		return nil
	}
	w.mu.Lock()
	out := make([]string, len(w.list))
	copy(out, w.list)
	w.mu.Unlock()
	sort.Strings(out)
	return out
}
