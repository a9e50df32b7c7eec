package cmd

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/kilianp07/pfexport/core/normalize"
	pkgexport "github.com/kilianp07/pfexport/pkg/export"
)

var previewFlags struct {
	headerRow int
	out       string
	xlsx      bool
}

var previewCmd = &cobra.Command{
	Use:   "preview FILE",
	Short: "Render a result file as an HTML line chart",
	Args:  cobra.ExactArgs(1),
	RunE:  runPreview,
}

func init() {
	addHeaderRowFlag(previewCmd, &previewFlags.headerRow)
	previewCmd.Flags().StringVarP(&previewFlags.out, "out", "o", "", "output file (default FILE with .html)")
	previewCmd.Flags().BoolVar(&previewFlags.xlsx, "xlsx", false, "also write the table as .xlsx next to the output")
	rootCmd.AddCommand(previewCmd)
}

func runPreview(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	src := args[0]
	df, err := normalize.ReadFile(src, headerRow(cmd, previewFlags.headerRow, cfg.Normalize.Row()))
	if err != nil {
		return err
	}
	base := strings.TrimSuffix(src, filepath.Ext(src))
	out := previewFlags.out
	if out == "" {
		out = base + ".html"
	}
	if err := pkgexport.SavePreview(out, df, filepath.Base(base)); err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), out)
	if previewFlags.xlsx {
		file := strings.TrimSuffix(out, filepath.Ext(out)) + ".xlsx"
		if err := pkgexport.SaveXLSX(file, df, normalize.Summarize(df)); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), file)
	}
	return nil
}
