package cmd

import (
	"encoding/json"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/kilianp07/pfexport/core/normalize"
)

var summaryFlags struct {
	headerRow int
	json      bool
}

var summaryCmd = &cobra.Command{
	Use:   "summary FILE",
	Short: "Print count, min, max and mean of every numeric column",
	Args:  cobra.ExactArgs(1),
	RunE:  runSummary,
}

func init() {
	addHeaderRowFlag(summaryCmd, &summaryFlags.headerRow)
	summaryCmd.Flags().BoolVar(&summaryFlags.json, "json", false, "print JSON")
	rootCmd.AddCommand(summaryCmd)
}

func runSummary(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	df, err := normalize.ReadFile(args[0], headerRow(cmd, summaryFlags.headerRow, cfg.Normalize.Row()))
	if err != nil {
		return err
	}
	channels := normalize.Summarize(df)
	if summaryFlags.json {
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(channels)
	}
	tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', tabwriter.AlignRight)
	fmt.Fprintln(tw, "CHANNEL\tCOUNT\tMIN\tMAX\tMEAN\t")
	for _, c := range channels {
		fmt.Fprintf(tw, "%s\t%d\t%g\t%g\t%g\t\n", c.Name, c.Count, c.Min, c.Max, c.Mean)
	}
	return tw.Flush()
}
