package spec

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

const commonJSON = `{
  "documentation": "https://example.com/common",
  "params": {
    "pretty": {"type": "boolean", "description": "Pretty format the returned JSON response.", "default": false},
    "human": {"type": "boolean", "description": "Return human readable values.", "default": true},
    "filter_path": {"type": "list", "description": "Filter the returned response."}
  }
}`

// writeTree writes files (slash-separated relative path -> content) below a
// fresh temp dir and returns its path.
func writeTree(t *testing.T, files map[string]string) string {
	t.Helper()
	root := t.TempDir()
	for rel, content := range files {
		p := filepath.Join(root, filepath.FromSlash(rel))
		require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o755))
		require.NoError(t, os.WriteFile(p, []byte(content), 0o600))
	}
	return root
}
