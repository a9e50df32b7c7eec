package cmd

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/kilianp07/pfexport/core/normalize"
)

var columnsHeaderRow int

var columnsCmd = &cobra.Command{
	Use:   "columns [FILE]",
	Short: "Show the column mapping, or how the columns of FILE would be renamed",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runColumns,
}

func init() {
	addHeaderRowFlag(columnsCmd, &columnsHeaderRow)
	rootCmd.AddCommand(columnsCmd)
}

func runColumns(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	mapping := cfg.Normalize.Mapping()
	tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)

	if len(args) == 0 {
		fmt.Fprintln(tw, "LABEL\tNAME")
		for _, l := range mapping.Labels() {
			fmt.Fprintf(tw, "%s\t%s\n", l, mapping[l])
		}
		return tw.Flush()
	}

	df, err := normalize.ReadFile(args[0], headerRow(cmd, columnsHeaderRow, cfg.Normalize.Row()))
	if err != nil {
		return err
	}
	fmt.Fprintln(tw, "COLUMN\tNAME")
	for _, c := range df.Names() {
		name, ok := mapping[c]
		if !ok {
			name = "(unmapped)"
		}
		fmt.Fprintf(tw, "%s\t%s\n", c, name)
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	if left := mapping.Unmapped(df.Names()); len(left) > 1 {
		return fmt.Errorf("%w: %d unmapped columns", normalize.ErrUnknownSignals, len(left))
	}
	return nil
}
