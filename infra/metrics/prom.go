package metrics

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/kilianp07/pfexport/core/export"
	coremetrics "github.com/kilianp07/pfexport/core/metrics"
)

// PromSink records export runs in Prometheus metrics. A CLI run does not
// live long enough to be scraped, so the sink can also write the registry to
// a node_exporter textfile after every report.
type PromSink struct {
	runs     *prometheus.CounterVec
	plots    prometheus.Counter
	renamed  prometheus.Counter
	duration prometheus.Histogram
	lastRun  *prometheus.GaugeVec

	gatherer prometheus.Gatherer
	textfile string
}

// NewPromSink registers export metrics on the default Prometheus registry.
func NewPromSink(textfile string) (coremetrics.ExportSink, error) {
	return NewPromSinkWithRegistry(textfile, prometheus.DefaultRegisterer)
}

// NewPromSinkWithRegistry registers metrics on the provided registerer. A nil
// registerer defaults to the global Prometheus registerer. The textfile is
// only written when reg is also a Gatherer.
func NewPromSinkWithRegistry(textfile string, reg prometheus.Registerer) (coremetrics.ExportSink, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	runs := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "pfexport_runs_total",
		Help: "Export runs by outcome",
	}, []string{"status"})
	plots := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "pfexport_plots_exported_total",
		Help: "Plot pages written to image files",
	})
	renamed := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "pfexport_columns_renamed_total",
		Help: "Result columns renamed to the canonical schema",
	})
	duration := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "pfexport_run_duration_seconds",
		Help:    "Duration of an export run",
		Buckets: []float64{0.5, 1, 2, 5, 10, 30, 60, 120, 300},
	})
	lastRun := prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "pfexport_last_run_timestamp_seconds",
		Help: "Unix time of the last export run per case name",
	}, []string{"name", "status"})

	var err error
	if runs, err = register(reg, runs); err != nil {
		return nil, err
	}
	if plots, err = register(reg, plots); err != nil {
		return nil, err
	}
	if renamed, err = register(reg, renamed); err != nil {
		return nil, err
	}
	if duration, err = register(reg, duration); err != nil {
		return nil, err
	}
	if lastRun, err = register(reg, lastRun); err != nil {
		return nil, err
	}

	s := &PromSink{runs: runs, plots: plots, renamed: renamed, duration: duration, lastRun: lastRun, textfile: textfile}
	if g, ok := reg.(prometheus.Gatherer); ok {
		s.gatherer = g
	}
	return s, nil
}

// register adds c to reg or returns the collector already registered under
// the same descriptor.
func register[C prometheus.Collector](reg prometheus.Registerer, c C) (C, error) {
	if err := reg.Register(c); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(C); ok {
				return existing, nil
			}
		}
		return c, err
	}
	return c, nil
}

// RecordExport updates the counters for one run.
func (s *PromSink) RecordExport(r export.Report) error {
	s.runs.WithLabelValues(r.Status()).Inc()
	s.plots.Add(float64(len(r.Plots)))
	s.renamed.Add(float64(r.Renamed))
	s.duration.Observe(r.Duration.Seconds())
	s.lastRun.WithLabelValues(r.Name, r.Status()).Set(float64(r.Started.Unix()))
	return s.Flush()
}

// Flush writes the textfile when one is configured.
func (s *PromSink) Flush() error {
	if s.textfile == "" || s.gatherer == nil {
		return nil
	}
	return prometheus.WriteToTextfile(s.textfile, s.gatherer)
}
