package spec

import (
	"encoding/json"
	"errors"
	"io/fs"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const barBazJSON = `{"bar.baz": {"url": {"paths": ["/bar"]}, "methods": ["GET"]}}`

func decodeString(t *testing.T, s string) Document {
	t.Helper()
	doc, err := decodeDocument("inline", []byte(s))
	require.NoError(t, err)
	return doc
}

func TestMergeFile_NoOverlayReturnsBase(t *testing.T) {
	root := writeTree(t, map[string]string{"foo/bar_baz.json": barBazJSON})

	doc, ov, err := MergeFile(filepath.Join(root, "foo", "bar_baz.json"))
	require.NoError(t, err)
	assert.Equal(t, NoOverlay, ov.Kind)
	assert.Equal(t, decodeString(t, barBazJSON), doc)
}

func TestMergeFile_PatchReplacesPaths(t *testing.T) {
	root := writeTree(t, map[string]string{
		"foo/bar_baz.json":       barBazJSON,
		"foo/bar_baz.patch.json": `{"bar.baz":{"url":{"paths":["/bar/{id}"]}}}`,
	})

	doc, ov, err := MergeFile(filepath.Join(root, "foo", "bar_baz.json"))
	require.NoError(t, err)
	assert.Equal(t, PatchOverlay, ov.Kind)
	assert.Equal(t, []any{"/bar/{id}"}, lookup(doc["bar.baz"], "url", "paths"))
	assert.Equal(t, []any{"GET"}, lookup(doc["bar.baz"], "methods"))
}

func TestPatchDocument_UnionAndNewKeys(t *testing.T) {
	base := decodeString(t, `{"a": {
		"methods":       ["GET", "HEAD"],
		"url":           {"path": "/a", "paths": ["/a", "/a/{id}"]},
		"documentation": "old",
		"count":         1
	}}`)
	patch := decodeString(t, `{"a": {
		"methods":       ["POST", "GET"],
		"url":           {"paths": ["/b"], "parts": {"id": {"type": "string"}}},
		"documentation": "new",
		"body":          {"required": true}
	}}`)

	merged, err := patchDocument(base, patch)
	require.NoError(t, err)

	a := merged["a"].(map[string]any)
	assert.ElementsMatch(t, []any{"GET", "HEAD", "POST"}, a["methods"])
	assert.Len(t, a["methods"], 3)
	assert.Equal(t, []any{"/b"}, lookup(a, "url", "paths"))
	assert.Equal(t, "/a", lookup(a, "url", "path"))
	assert.Equal(t, "string", lookup(a, "url", "parts", "id", "type"))
	assert.Equal(t, "new", a["documentation"])
	assert.Equal(t, json.Number("1"), a["count"])
	assert.Equal(t, true, lookup(a, "body", "required"))
}

func TestPatchDocument_NullIgnoredAndShapeConflict(t *testing.T) {
	base := decodeString(t, `{"a": {"documentation": "keep", "body": "none"}}`)
	patch := decodeString(t, `{"a": {"documentation": null, "body": {"required": false}}}`)

	merged, err := patchDocument(base, patch)
	require.NoError(t, err)
	assert.Equal(t, "keep", lookup(merged, "a", "documentation"))
	assert.Equal(t, false, lookup(merged, "a", "body", "required"))
}

func TestPatchDocument_UnionOfObjectArrays(t *testing.T) {
	base := decodeString(t, `{"a": {"tags": [{"n": 1, "m": 2}]}}`)
	patch := decodeString(t, `{"a": {"tags": [{"m": 2, "n": 1}, {"n": 3}]}}`)

	merged, err := patchDocument(base, patch)
	require.NoError(t, err)
	assert.Len(t, lookup(merged, "a", "tags"), 2)
}

func TestMergeFile_ReplaceSupersedesBase(t *testing.T) {
	replace := `{"bar.baz": {"url": {"paths": ["/replaced"]}, "methods": ["PUT"]}}`
	root := writeTree(t, map[string]string{
		// the base is never parsed when a replace overlay exists
		"foo/bar_baz.json":         `this is not json`,
		"foo/bar_baz.patch.json":   `{"bar.baz": {"methods": ["DELETE"]}}`,
		"foo/bar_baz.replace.json": replace,
	})

	doc, ov, err := MergeFile(filepath.Join(root, "foo", "bar_baz.json"))
	require.NoError(t, err)
	assert.Equal(t, ReplaceOverlay, ov.Kind)
	assert.Equal(t, decodeString(t, replace), doc)
}

func TestMergeFile_Errors(t *testing.T) {
	root := writeTree(t, map[string]string{
		"foo/bad.json":            `{"a": `,
		"foo/badpatch.json":       `{"a": {}}`,
		"foo/badpatch.patch.json": `[1, 2]`,
	})

	_, _, err := MergeFile(filepath.Join(root, "foo", "bad.json"))
	var se *SpecError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, ParseError, se.Code)

	_, _, err = MergeFile(filepath.Join(root, "foo", "badpatch.json"))
	require.ErrorAs(t, err, &se)
	assert.Equal(t, ParseError, se.Code)

	_, _, err = MergeFile(filepath.Join(root, "foo", "missing.json"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, fs.ErrNotExist))
}

func TestOverlayPaths(t *testing.T) {
	patch, replace := OverlayPaths(filepath.Join("x", "indices.create.json"))
	assert.Equal(t, filepath.Join("x", "indices.create.patch.json"), patch)
	assert.Equal(t, filepath.Join("x", "indices.create.replace.json"), replace)
}
