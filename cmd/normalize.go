package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/kilianp07/pfexport/core/normalize"
	"github.com/kilianp07/pfexport/infra/logger"
)

var normalizeFlags struct {
	refName   string
	refScale  float64
	headerRow int
}

var normalizeCmd = &cobra.Command{
	Use:   "normalize FILE",
	Short: "Rename the columns of an exported result file in place",
	Args:  cobra.ExactArgs(1),
	RunE:  runNormalize,
}

func init() {
	f := normalizeCmd.Flags()
	f.StringVar(&normalizeFlags.refName, "ref-name", "", "name given to the reference column")
	f.Float64Var(&normalizeFlags.refScale, "ref-scale", 0, "divisor applied to the reference column")
	addHeaderRowFlag(normalizeCmd, &normalizeFlags.headerRow)
	rootCmd.AddCommand(normalizeCmd)
}

func runNormalize(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	ref := normalize.Reference{Name: cfg.Export.RefName, Scale: cfg.Export.RefScale}
	if cmd.Flags().Changed("ref-name") {
		ref.Name = normalizeFlags.refName
	}
	if cmd.Flags().Changed("ref-scale") {
		ref.Scale = normalizeFlags.refScale
	}
	row := headerRow(cmd, normalizeFlags.headerRow, cfg.Normalize.Row())

	n := normalize.NewNormalizer(cfg.Normalize.Mapping(), row, logger.New("normalizer"))
	res, err := n.NormalizeFile(args[0], ref)
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "renamed %d columns\n", res.Renamed)
	if res.Reference != "" {
		fmt.Fprintf(out, "reference %q -> %q (scale 1/%g)\n", res.Reference, res.ReferenceName, ref.Scale)
	}
	return nil
}

func addHeaderRowFlag(cmd *cobra.Command, dst *int) {
	cmd.Flags().IntVar(dst, "header-row", normalize.DefaultHeaderRow, "zero based row holding the column labels")
}

// headerRow returns the flag value when given, the configured row otherwise.
func headerRow(cmd *cobra.Command, flag, configured int) int {
	if cmd.Flags().Changed("header-row") {
		return flag
	}
	return configured
}
