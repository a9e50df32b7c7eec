package cmd

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"

	"github.com/kilianp07/pfexport/infra/host"
)

var mockAddr string

var mockCmd = &cobra.Command{
	Use:   "mock",
	Short: "Serve the demo host over the gateway protocol",
	Long: `Starts a gateway that answers like the automation gateway inside the host
application, backed by an in-memory test bench project. Point host.bridge.url
at it to run exports without the simulation program.`,
	RunE: runMock,
}

func init() {
	mockCmd.Flags().StringVar(&mockAddr, "addr", "127.0.0.1:8765", "listen address")
	rootCmd.AddCommand(mockCmd)
}

func runMock(_ *cobra.Command, _ []string) error {
	ctx, stop := signalContext()
	defer stop()
	if _, err := loadConfig(); err != nil {
		return err
	}
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector())
	return host.NewGatewayMock(mockAddr, host.NewDemoHost(), reg).Start(ctx)
}
