package spec

import (
	"bytes"
	"encoding/json"
	"errors"
	"io/fs"
	"os"
	"strings"

	"github.com/TwiN/deepmerge"
)

// Document is a decoded JSON specification document.
type Document map[string]any

// OverlayKind tags the overlay resolved for a base file.
type OverlayKind int

const (
	NoOverlay OverlayKind = iota
	PatchOverlay
	ReplaceOverlay
)

func (k OverlayKind) String() string {
	switch k {
	case PatchOverlay:
		return "patch"
	case ReplaceOverlay:
		return "replace"
	default:
		return "none"
	}
}

// Overlay is the overlay applicable to one base file. Document is nil for
// NoOverlay.
type Overlay struct {
	Kind     OverlayKind
	Path     string
	Document Document
}

// OverlayPaths returns the patch and replace file names that belong to base.
func OverlayPaths(base string) (patch, replace string) {
	stem := strings.TrimSuffix(base, specExt)
	return stem + patchSuffix, stem + replaceSuffix
}

// ResolveOverlay looks for overlay files next to base. A replace overlay takes
// priority over a patch overlay.
func ResolveOverlay(base string) (Overlay, error) {
	patch, replace := OverlayPaths(base)
	for _, cand := range []struct {
		kind OverlayKind
		path string
	}{
		{ReplaceOverlay, replace},
		{PatchOverlay, patch},
	} {
		doc, err := readDocument(cand.path)
		if errors.Is(err, fs.ErrNotExist) {
			continue
		}
		if err != nil {
			return Overlay{}, err
		}
		return Overlay{Kind: cand.kind, Path: cand.path, Document: doc}, nil
	}
	return Overlay{Kind: NoOverlay}, nil
}

// MergeFile returns the document for base with its overlay applied. With a
// replace overlay the base file is not read.
func MergeFile(base string) (Document, Overlay, error) {
	ov, err := ResolveOverlay(base)
	if err != nil {
		return nil, ov, err
	}
	if ov.Kind == ReplaceOverlay {
		return ov.Document, ov, nil
	}
	doc, err := readDocument(base)
	if err != nil {
		return nil, ov, err
	}
	merged, err := ov.Apply(doc)
	if err != nil {
		return nil, ov, newSpecError(ParseError, ov.Path, err, "apply %s overlay: %v", ov.Kind, err)
	}
	return merged, ov, nil
}

// Apply applies the overlay to base. base may be modified in place.
func (o Overlay) Apply(base Document) (Document, error) {
	switch o.Kind {
	case ReplaceOverlay:
		return o.Document, nil
	case PatchOverlay:
		return patchDocument(base, o.Document)
	default:
		return base, nil
	}
}

// patchDocument deep-merges patch into base. Arrays are unioned, except the
// url.paths list of each endpoint which the patch replaces outright.
func patchDocument(base, patch Document) (Document, error) {
	if base == nil {
		base = Document{}
	}
	pathsOverride := make(map[string][]any)
	for key, v := range patch {
		if paths, ok := lookup(v, "url", "paths").([]any); ok {
			pathsOverride[key] = append([]any(nil), paths...)
		}
	}

	src := prepareMerge(base, patch)
	if err := deepmerge.DeepMerge(base, src, deepmerge.Config{PreventMultipleDefinitionsOfKeysWithPrimitiveValue: false}); err != nil {
		return nil, err
	}
	unionArrays(base, src)

	for key, paths := range pathsOverride {
		if url, ok := lookup(base[key], "url").(map[string]any); ok {
			url["paths"] = paths
		}
	}
	return base, nil
}

// prepareMerge returns a copy of src without null values. Where dst holds a
// value whose shape conflicts with a map in src, the dst value is dropped so
// the src map takes its place.
func prepareMerge(dst, src map[string]any) map[string]any {
	out := make(map[string]any, len(src))
	for k, v := range src {
		switch sv := v.(type) {
		case nil:
			continue
		case map[string]any:
			dv, exists := dst[k]
			dm, isMap := dv.(map[string]any)
			if exists && !isMap {
				delete(dst, k)
				dm = nil
			}
			if dm == nil {
				dm = map[string]any{}
			}
			out[k] = prepareMerge(dm, sv)
		default:
			out[k] = v
		}
	}
	return out
}

// unionArrays removes duplicates from every array in dst that src also
// contributed to, keeping the first occurrence.
func unionArrays(dst, src map[string]any) {
	for k, v := range src {
		switch sv := v.(type) {
		case []any:
			if arr, ok := dst[k].([]any); ok {
				dst[k] = dedupe(arr)
			}
		case map[string]any:
			if dm, ok := dst[k].(map[string]any); ok {
				unionArrays(dm, sv)
			}
		}
	}
}

func dedupe(arr []any) []any {
	seen := make(map[string]struct{}, len(arr))
	out := make([]any, 0, len(arr))
	for _, v := range arr {
		key := canonical(v)
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, v)
	}
	return out
}

// canonical encodes v with sorted map keys so structurally equal values
// compare equal.
func canonical(v any) string {
	b, err := json.Marshal(v)
	if err != nil {
		return ""
	}
	return string(b)
}

func lookup(v any, path ...string) any {
	for _, p := range path {
		m, ok := v.(map[string]any)
		if !ok {
			return nil
		}
		v = m[p]
	}
	return v
}

func readDocument(path string) (Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		// the cause stays reachable so callers can test for fs.ErrNotExist
		return nil, newSpecError(InputError, path, err, "read %s: %v", path, err)
	}
	return decodeDocument(path, data)
}

func decodeDocument(path string, data []byte) (Document, error) {
	data = bytes.TrimPrefix(data, []byte("\xef\xbb\xbf"))
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var doc Document
	if err := dec.Decode(&doc); err != nil {
		return nil, newSpecError(ParseError, path, err, "parse %s: %v", path, err)
	}
	if doc == nil {
		return nil, newSpecError(ParseError, path, nil, "parse %s: document is not a JSON object", path)
	}
	return doc, nil
}
