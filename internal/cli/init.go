package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
)

const defaultConfigFile = "restgen.yaml"

// InitConfig captures the options for the init command.
type InitConfig struct {
	OutputPath string
	Force      bool
	Verbose    bool
}

var initRunner = runInit

func newInitCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Scaffold a sample restgen configuration file",
		Long:  "Scaffold a commented restgen configuration file that documents available options, including parameter overrides.",
		RunE: func(cmd *cobra.Command, args []string) error {
			out, err := cmd.Flags().GetString("out")
			if err != nil {
				return err
			}
			force, err := cmd.Flags().GetBool("force")
			if err != nil {
				return err
			}
			verbose, err := cmd.Flags().GetBool("verbose")
			if err != nil {
				return err
			}
			return initRunner(cmd.Context(), &InitConfig{
				OutputPath: out,
				Force:      force,
				Verbose:    verbose,
			})
		},
	}

	cmd.Flags().String("out", defaultConfigFile, "Where to write the sample config file")
	cmd.Flags().Bool("force", false, "Overwrite the target file if it already exists")

	return cmd
}

func runInit(ctx context.Context, cfg *InitConfig) error {
	_ = ctx

	out := strings.TrimSpace(cfg.OutputPath)
	if out == "" {
		out = defaultConfigFile
	}
	absPath, err := filepath.Abs(out)
	if err != nil {
		return fmt.Errorf("init: resolve output path: %w", err)
	}

	if st, err := os.Stat(absPath); err == nil && !cfg.Force && st.Mode().IsRegular() {
		return newUsageError(fmt.Sprintf("init: %q already exists (use --force to overwrite)", absPath))
	}

	if err := os.MkdirAll(filepath.Dir(absPath), 0o755); err != nil {
		return newUsageError(fmt.Sprintf("init: cannot create parent directory: %v", err))
	}

	content := strings.TrimSpace(sampleConfigYAML) + "\n"

	tmp := absPath + ".tmp"
	if err := os.WriteFile(tmp, []byte(content), 0o644); err != nil {
		return newUsageError(fmt.Sprintf("init: cannot write temp file: %v\nHint: choose a different --out or check directory permissions.", err))
	}
	if err := os.Rename(tmp, absPath); err != nil {
		_ = os.Remove(tmp)
		return newUsageError(fmt.Sprintf("init: cannot place file at %s: %v", absPath, err))
	}
	fmt.Fprintf(os.Stdout, "Wrote sample config to %s\n", absPath)
	return nil
}

// sampleConfigYAML documents every option. Flags override environment
// variables, which override values from this file.
const sampleConfigYAML = `# restgen configuration (YAML)
# All fields except root are optional.
# Precedence: flags > RESTGEN_* environment variables > this file > defaults.

# Root of the specification tree (must contain Core/_common.json).
root: ./rest-api-spec

# Only ingest directories with these names (comma-separated or list).
# folders: [Core, XPack]

# Revision recorded in generated headers and the OpenAPI info.version.
# revision: "6.4"

# Output directory shared by all emitters.
out: ./generated

# Emitters to run (go, openapi).
emit: [go, openapi]

# Package name of the generated Go client.
# packageName: lowlevel

# OpenAPI document format (yaml|json) and title.
# openapiFormat: yaml
# openapiTitle: REST API

# Number of files ingested in parallel.
# concurrency: 4

# Extra base file names never ingested, on top of the built-in denylist.
# denylist: [xpack.ml.find_file_structure.json]

# Parameter overrides. Endpoint entries extend the global lists.
# overrides:
#   global:
#     skipCommon: [source]
#   endpoints:
#     search:
#       skip: [typed_keys]
#       rename:
#         _source: source_
#       obsolete:
#         ts: use time instead

# Preview planned outputs without writing files.
# dryRun: false

# Overwrite existing output.
# force: false

# Show a progress bar on stderr.
# progress: false

# Enable verbose logging.
# verbose: false
`
