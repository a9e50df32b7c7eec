package metrics

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/kilianp07/pfexport/core/factory"
	coremetrics "github.com/kilianp07/pfexport/core/metrics"
)

// init registers built-in export sinks.
func init() {
	_ = coremetrics.RegisterExportSink("nop", func(map[string]any) (coremetrics.ExportSink, error) {
		return coremetrics.NopSink{}, nil
	})

	_ = coremetrics.RegisterExportSink("prometheus", func(conf map[string]any) (coremetrics.ExportSink, error) {
		var c struct {
			Textfile string `json:"textfile"`
		}
		if err := factory.Decode(conf, &c); err != nil {
			return nil, err
		}
		return NewPromSinkWithRegistry(c.Textfile, prometheus.DefaultRegisterer)
	})

	_ = coremetrics.RegisterExportSink("influx", func(conf map[string]any) (coremetrics.ExportSink, error) {
		var c struct {
			URL    string `json:"url"`
			Token  string `json:"token"`
			Org    string `json:"org"`
			Bucket string `json:"bucket"`
			Series bool   `json:"series"`
		}
		if err := factory.Decode(conf, &c); err != nil {
			return nil, err
		}
		return NewInfluxSinkWithFallback(c.URL, c.Token, c.Org, c.Bucket, c.Series), nil
	})
}
