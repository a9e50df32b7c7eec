package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/kilianp07/pfexport/app"
	"github.com/kilianp07/pfexport/core/export"
	"github.com/kilianp07/pfexport/infra/logger"
	pkgexport "github.com/kilianp07/pfexport/pkg/export"
)

var exportFlags struct {
	name       string
	path       string
	refName    string
	refScale   float64
	fromScript bool
	normalize  bool
	host       string
	url        string
	xlsx       bool
	preview    bool
}

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Write every plot page and the study case results to files",
	Long: `Connects to the host application, writes every plot page of the active
study case to <path>/<name>_<page>.png and the results object to
<path>/<name>.csv. With --normalize the CSV columns are renamed to the short
schema and the single unmapped reference column is renamed and rescaled.`,
	RunE: runExport,
}

func init() {
	f := exportCmd.Flags()
	f.StringVar(&exportFlags.name, "name", "", "case name used as file prefix")
	f.StringVar(&exportFlags.path, "path", "", "output directory")
	f.StringVar(&exportFlags.refName, "ref-name", "", "name given to the reference column")
	f.Float64Var(&exportFlags.refScale, "ref-scale", 0, "divisor applied to the reference column")
	f.BoolVar(&exportFlags.fromScript, "from-script", false, "read name, path, refName and refScale from the host script")
	f.BoolVar(&exportFlags.normalize, "normalize", false, "normalize the result columns")
	f.StringVar(&exportFlags.host, "host", "", `host connector: "bridge" or "demo"`)
	f.StringVar(&exportFlags.url, "url", "", "bridge gateway URL")
	f.BoolVar(&exportFlags.xlsx, "xlsx", false, "also write <name>.xlsx")
	f.BoolVar(&exportFlags.preview, "preview", false, "also write <name>.html with a chart of every channel")
	rootCmd.AddCommand(exportCmd)
}

func runExport(cmd *cobra.Command, _ []string) error {
	ctx, stop := signalContext()
	defer stop()

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	flags := cmd.Flags()
	if flags.Changed("host") {
		cfg.Host.Mode = exportFlags.host
	}
	if flags.Changed("url") {
		cfg.Host.Bridge.URL = exportFlags.url
	}
	if flags.Changed("xlsx") {
		cfg.Output.XLSX = exportFlags.xlsx
	}
	if flags.Changed("preview") {
		cfg.Output.Preview = exportFlags.preview
	}
	if err := cfg.Host.Validate(); err != nil {
		return err
	}

	var opts []app.Option
	if flags.Changed("normalize") {
		opts = append(opts, app.WithNormalize(exportFlags.normalize))
	}
	svc, err := app.New(cfg, opts...)
	if err != nil {
		return err
	}
	defer func() {
		if err := svc.Close(); err != nil {
			logger.New("main").Errorf("service close: %v", err)
		}
	}()

	p := cfg.Export.Params()
	if exportFlags.fromScript {
		if p, err = svc.ParamsFromHost(ctx); err != nil {
			return fmt.Errorf("script parameters: %w", err)
		}
	}
	p = overrideParams(cmd, p)

	report, err := svc.Export(ctx, p)
	if werr := pkgexport.WriteJSON(cmd.OutOrStdout(), report); werr != nil && err == nil {
		err = werr
	}
	return err
}

// overrideParams applies the flags given explicitly on the command line.
func overrideParams(cmd *cobra.Command, p export.Params) export.Params {
	flags := cmd.Flags()
	if flags.Changed("name") {
		p.Name = exportFlags.name
	}
	if flags.Changed("path") {
		p.Path = exportFlags.path
	}
	if flags.Changed("ref-name") {
		p.RefName = exportFlags.refName
	}
	if flags.Changed("ref-scale") {
		p.RefScale = exportFlags.refScale
	}
	return p
}
