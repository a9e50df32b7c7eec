// Package metrics defines the sinks export runs are reported to. Sinks like
// PromSink and InfluxSink (infra/metrics) receive the run Report; sinks that
// also implement SeriesRecorder receive the normalized result channels.
// NewExportSink builds a MultiSink automatically when several sinks are
// configured.
package metrics
