package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/loomproc/loom/pkg/errors"
	"github.com/loomproc/loom/pkg/pipeline"
	"github.com/loomproc/loom/pkg/report"
)

// processOpts holds the command-line flags for the process command.
type processOpts struct {
	output       string // output directory for artifacts (default: alongside the archive)
	formats      []string
	detailed     bool // include scope and metadata in DOT labels
	noCache      bool // disable the result cache
	refresh      bool // recompute even when a cached entry exists
	strictCycles bool // treat injection cycles as a deployment error
	noReport     bool // skip storing a report
}

// processCommand creates the process command. It loads an index archive,
// builds and validates the deployment, writes the requested artifacts, and
// stores a report of the run.
func (c *CLI) processCommand() *cobra.Command {
	var formatsStr string
	var opts processOpts

	cmd := &cobra.Command{
		Use:   "process [archive]",
		Short: "Build and validate a deployment from an index archive",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.formats = parseFormats(formatsStr)
			return c.runProcess(cmd.Context(), args[0], &opts)
		},
	}

	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "output directory for artifacts")
	cmd.Flags().StringVarP(&formatsStr, "format", "f", "", "output format(s): json (default), dot, svg (comma-separated)")
	cmd.Flags().BoolVar(&opts.detailed, "detailed", false, "include scope and metadata in graph labels")
	cmd.Flags().BoolVar(&opts.noCache, "no-cache", false, "disable the result cache")
	cmd.Flags().BoolVar(&opts.refresh, "refresh", false, "recompute cached stages")
	cmd.Flags().BoolVar(&opts.strictCycles, "strict-cycles", false, "fail on injection cycles instead of warning")
	cmd.Flags().BoolVar(&opts.noReport, "no-report", false, "do not store a processing report")

	return cmd
}

func (c *CLI) runProcess(ctx context.Context, archive string, opts *processOpts) error {
	runner, err := c.newRunner(ctx, opts.noCache)
	if err != nil {
		return err
	}
	defer runner.Cache.Close()

	result, err := runner.Execute(ctx, pipeline.Options{
		IndexPath:    archive,
		Formats:      opts.formats,
		Detailed:     opts.detailed,
		Refresh:      opts.refresh,
		StrictCycles: opts.strictCycles,
	})
	if err != nil {
		return err
	}

	printSuccess("Processed %s", filepath.Base(archive))
	printStats(result.Stats.BeanCount, result.Stats.InterceptorCount, result.CacheInfo.GraphHit)
	for _, w := range result.Deployment.Warnings() {
		printWarning("%s", w)
	}

	if err := writeArtifacts(result, archive, opts.output, opts.formats); err != nil {
		return err
	}

	if !opts.noReport {
		if err := c.storeReport(ctx, result, archive); err != nil {
			return errors.Wrap(errors.ErrCodeInternal, err, "store report")
		}
		printInfo("Report %s stored", result.RunID)
	}

	return nil
}

// storeReport persists the run's report in the configured store.
func (c *CLI) storeReport(ctx context.Context, result *pipeline.Result, archive string) error {
	store, err := c.Config.OpenReportStore(ctx)
	if err != nil {
		return err
	}
	defer store.Close()

	r := report.Build(result.Deployment, archive, result.IndexHash)
	r.ID = result.RunID
	return store.Put(ctx, r)
}

// writeArtifacts writes each rendered artifact next to the archive, or into
// outDir when set. File names derive from the archive name plus the format
// extension.
func writeArtifacts(result *pipeline.Result, archive, outDir string, formats []string) error {
	base := strings.TrimSuffix(filepath.Base(archive), filepath.Ext(archive))
	dir := outDir
	if dir == "" {
		dir = filepath.Dir(archive)
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}

	for _, format := range formats {
		data, ok := result.Artifacts[format]
		if !ok {
			continue
		}
		path := filepath.Join(dir, base+"."+format)
		if err := os.WriteFile(path, data, 0644); err != nil {
			return fmt.Errorf("write %s: %w", path, err)
		}
		printFile(path)
	}
	return nil
}
