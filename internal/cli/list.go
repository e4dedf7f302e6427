package cli

import (
	"context"
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/mark3labs/restgen/internal/spec"
)

var listRunner = runList

func newListCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List the endpoints ingested from a specification tree",
		Long:  "Ingest the specification tree and print every endpoint key with its method name and HTTP methods, without generating code.",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := resolveConfig(cmd.Flags())
			if err != nil {
				return err
			}
			return listRunner(cmd.Context(), cfg)
		},
	}
	addSourceFlags(cmd)
	return cmd
}

func runList(ctx context.Context, cfg *GenerateConfig) error {
	log := newLogger(os.Stderr, cfg.LogLevel)
	warnings := spec.NewWarnings()

	opts := append(cfg.loadOptions(), spec.WithLogger(log), spec.WithWarnings(warnings))
	model, err := spec.Load(ctx, cfg.Root, opts...)
	if err != nil {
		return specUsageError(err)
	}

	tw := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	for _, ep := range model.Sorted() {
		fmt.Fprintf(tw, "%s\t%s\t%s\n", ep.Key, ep.MethodName, strings.Join(ep.Methods, ","))
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	fmt.Fprintf(os.Stdout, "%d endpoints, %d warnings\n", len(model.Endpoints), warnings.Len())
	return nil
}
