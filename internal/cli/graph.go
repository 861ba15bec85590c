package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/loomproc/loom/pkg/pipeline"
)

// graphOpts holds the command-line flags for the graph command.
type graphOpts struct {
	output   string // output file (single format) or base path (multiple)
	formats  []string
	detailed bool
	noCache  bool
	refresh  bool
}

// graphCommand creates the graph command for rendering the bean graph.
func (c *CLI) graphCommand() *cobra.Command {
	var formatsStr string
	var opts graphOpts

	cmd := &cobra.Command{
		Use:   "graph [archive]",
		Short: "Render the bean graph as JSON, DOT, or SVG",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.formats = parseGraphFormats(formatsStr)
			return c.runGraph(cmd.Context(), args[0], &opts)
		},
	}

	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "output file (single format) or base path (multiple)")
	cmd.Flags().StringVarP(&formatsStr, "format", "f", "", "output format(s): dot (default), json, svg (comma-separated)")
	cmd.Flags().BoolVar(&opts.detailed, "detailed", false, "include scope and metadata in node labels")
	cmd.Flags().BoolVar(&opts.noCache, "no-cache", false, "disable the result cache")
	cmd.Flags().BoolVar(&opts.refresh, "refresh", false, "recompute cached stages")

	return cmd
}

// parseGraphFormats parses the --format flag, defaulting to DOT output.
func parseGraphFormats(s string) []string {
	if s == "" {
		return []string{pipeline.FormatDOT}
	}
	return strings.Split(s, ",")
}

func (c *CLI) runGraph(ctx context.Context, archive string, opts *graphOpts) error {
	runner, err := c.newRunner(ctx, opts.noCache)
	if err != nil {
		return err
	}
	defer runner.Cache.Close()

	sp := newSpinner(ctx, "Rendering bean graph...")
	sp.Start()

	result, err := runner.Execute(ctx, pipeline.Options{
		IndexPath: archive,
		Formats:   opts.formats,
		Detailed:  opts.detailed,
		Refresh:   opts.refresh,
	})
	if err != nil {
		sp.StopWithError(err.Error())
		return err
	}
	sp.StopWithSuccess(fmt.Sprintf("Rendered %d nodes, %d edges", result.Graph.NodeCount(), len(result.Graph.Edges())))

	base := graphBasePath(opts.output, archive)
	for _, format := range opts.formats {
		data, ok := result.Artifacts[format]
		if !ok {
			continue
		}
		path := base + "." + format
		if len(opts.formats) == 1 && opts.output != "" {
			path = opts.output
		}
		if err := os.WriteFile(path, data, 0644); err != nil {
			return fmt.Errorf("write %s: %w", path, err)
		}
		printFile(path)
	}
	return nil
}

// graphBasePath derives the base output path from the output and input paths.
// If output is empty, the archive path with its extension stripped is used.
// If output carries a format extension, that extension is stripped.
func graphBasePath(output, input string) string {
	if output == "" {
		return strings.TrimSuffix(input, filepath.Ext(input))
	}
	switch ext := filepath.Ext(output); ext {
	case ".json", ".dot", ".svg":
		return strings.TrimSuffix(output, ext)
	}
	return output
}
