package cli

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/loomproc/loom/pkg/report"
)

// reportCommand creates the report management command.
func (c *CLI) reportCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "report",
		Short: "Manage stored processing reports",
	}

	cmd.AddCommand(c.reportListCommand())
	cmd.AddCommand(c.reportShowCommand())
	cmd.AddCommand(c.reportDeleteCommand())

	return cmd
}

// reportListCommand creates the "report list" subcommand.
func (c *CLI) reportListCommand() *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List stored reports, newest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.withReportStore(cmd.Context(), func(ctx context.Context, store report.Store) error {
				reports, err := store.List(ctx, limit)
				if err != nil {
					return err
				}
				if len(reports) == 0 {
					printInfo("No reports stored")
					return nil
				}
				for _, r := range reports {
					line := fmt.Sprintf("%s  %s  %s", r.ID, r.CreatedAt.Format("2006-01-02 15:04:05"), r.Source)
					fmt.Println(StyleValue.Render(line) + StyleDim.Render(fmt.Sprintf("  %d beans, %d interceptors", len(r.Beans), len(r.Interceptors))))
				}
				return nil
			})
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "maximum number of reports to list")
	return cmd
}

// reportShowCommand creates the "report show" subcommand.
func (c *CLI) reportShowCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "show [id]",
		Short: "Show a stored report",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.withReportStore(cmd.Context(), func(ctx context.Context, store report.Store) error {
				r, err := store.Get(ctx, args[0])
				if err != nil {
					return err
				}
				printReport(r)
				return nil
			})
		},
	}
}

// reportDeleteCommand creates the "report delete" subcommand.
func (c *CLI) reportDeleteCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "delete [id]",
		Short: "Delete a stored report",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.withReportStore(cmd.Context(), func(ctx context.Context, store report.Store) error {
				if err := store.Delete(ctx, args[0]); err != nil {
					return err
				}
				printSuccess("Deleted report %s", args[0])
				return nil
			})
		},
	}
}

// withReportStore opens the configured store, runs fn, and closes the store.
func (c *CLI) withReportStore(ctx context.Context, fn func(context.Context, report.Store) error) error {
	store, err := c.Config.OpenReportStore(ctx)
	if err != nil {
		return err
	}
	defer store.Close()
	return fn(ctx, store)
}

// printReport prints a full report to stdout.
func printReport(r *report.Report) {
	fmt.Println(StyleTitle.Render("Report " + r.ID))
	printKeyValue("created", r.CreatedAt.Format("2006-01-02 15:04:05"))
	printKeyValue("source", r.Source)
	printKeyValue("index hash", r.IndexHash)
	fmt.Println()

	fmt.Println(StyleTitle.Render(fmt.Sprintf("Beans (%d)", len(r.Beans))))
	for _, b := range r.Beans {
		detail := b.Kind
		if b.Scope != "" {
			detail += ", " + b.Scope
		}
		if len(b.Qualifiers) > 0 {
			detail += ", " + strings.Join(b.Qualifiers, " ")
		}
		fmt.Println("  " + StyleValue.Render(b.Class) + StyleDim.Render("  ("+detail+")"))
	}
	fmt.Println()

	fmt.Println(StyleTitle.Render(fmt.Sprintf("Interceptors (%d)", len(r.Interceptors))))
	for _, i := range r.Interceptors {
		callbacks := make([]string, 0, len(i.Callbacks))
		for kind, n := range i.Callbacks {
			callbacks = append(callbacks, fmt.Sprintf("%s×%d", kind, n))
		}
		sort.Strings(callbacks)
		fmt.Println("  " + StyleValue.Render(i.Class) + StyleDim.Render(fmt.Sprintf("  priority %d, %s", i.Priority, strings.Join(callbacks, " "))))
	}

	if len(r.Warnings) > 0 {
		fmt.Println()
		for _, w := range r.Warnings {
			printWarning("%s", w)
		}
	}
}
