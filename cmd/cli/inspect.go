package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/dvloznov/expense-dashboard/internal/aggregate"
	"github.com/spf13/cobra"
)

var (
	inspectView string
	inspectJSON bool
)

var inspectCmd = &cobra.Command{
	Use:   "inspect",
	Short: "Print the current views without publishing",
	Long: `Fetches and aggregates the expenses and prints the views.
Nothing is rendered and the stored fingerprint is neither read nor written.`,
	Args: cobra.NoArgs,
	RunE: runInspect,
}

func init() {
	inspectCmd.Flags().StringVar(&inspectView, "view", "", "only print the named view")
	inspectCmd.Flags().BoolVar(&inspectJSON, "json", false, "output views as JSON")
	rootCmd.AddCommand(inspectCmd)
}

func runInspect(cmd *cobra.Command, _ []string) error {
	a, ctx, cancel, log, err := setup(cmd)
	if err != nil {
		return err
	}
	defer cancel()
	defer func() {
		if err := a.Close(); err != nil {
			log.Warn().Err(err).Msg("Failed to close clients")
		}
	}()

	res, err := a.Orchestrator.Preview(ctx)
	if err != nil {
		return fmt.Errorf("preview failed: %w", err)
	}

	views := res.Views
	if inspectView != "" {
		views = selectView(views, inspectView)
		if len(views) == 0 {
			return fmt.Errorf("unknown view %q", inspectView)
		}
	}

	if inspectJSON {
		data, err := json.MarshalIndent(views, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal views: %w", err)
		}
		cmd.Println(string(data))
		return nil
	}

	cmd.Printf("%d records, fingerprint %s\n\n", res.Run.RecordCount, res.Run.Fingerprint)
	return printViews(cmd.OutOrStdout(), views)
}

func selectView(views []aggregate.View, name string) []aggregate.View {
	for _, v := range views {
		if v.Name == name {
			return []aggregate.View{v}
		}
	}
	return nil
}

// printViews writes each view as an aligned table.
func printViews(out io.Writer, views []aggregate.View) error {
	for _, v := range views {
		fmt.Fprintf(out, "=== %s (%s) ===\n", v.Title, v.Name)
		if v.Empty() {
			fmt.Fprintln(out, "(no data)")
			fmt.Fprintln(out)
			continue
		}

		tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', tabwriter.AlignRight)
		for _, r := range v.Rows {
			key := make([]string, len(r.Key))
			for i, k := range r.Key {
				if k == "" {
					k = "-"
				}
				key[i] = k
			}
			fmt.Fprintf(tw, "%s\t%s\t%d\t\n", strings.Join(key, " / "), r.Total.StringFixed(2), r.Count)
		}
		if err := tw.Flush(); err != nil {
			return err
		}
		fmt.Fprintln(out)
	}
	return nil
}
