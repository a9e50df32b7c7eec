package metrics

import (
	"time"

	"github.com/kilianp07/pfexport/core/export"
)

// ExportSink records export run reports.
type ExportSink interface {
	RecordExport(r export.Report) error
}

// ResultSeries is the content of a result table keyed by channel name.
type ResultSeries struct {
	RunID string
	Name  string
	// Start anchors simulation time zero.
	Start time.Time
	// Time holds the simulation time of each sample in seconds.
	Time     []float64
	Channels map[string][]float64
}

// SeriesRecorder is implemented by sinks able to store result channels.
type SeriesRecorder interface {
	RecordSeries(s ResultSeries) error
}

// WantsSeries reports whether sink stores result channels. Sinks may opt out
// at runtime with a SeriesEnabled method.
func WantsSeries(sink ExportSink) bool {
	switch s := sink.(type) {
	case NopSink:
		return false
	case *MultiSink:
		for _, c := range s.Sinks {
			if WantsSeries(c) {
				return true
			}
		}
		return false
	}
	if o, ok := sink.(interface{ SeriesEnabled() bool }); ok {
		return o.SeriesEnabled()
	}
	_, ok := sink.(SeriesRecorder)
	return ok
}

// Flusher is implemented by sinks holding buffered state.
type Flusher interface {
	Flush() error
}

// NopSink implements every recorder with no-op methods.
type NopSink struct{}

func (NopSink) RecordExport(export.Report) error { return nil }
func (NopSink) RecordSeries(ResultSeries) error  { return nil }
func (NopSink) Flush() error                     { return nil }

// MultiSink fans reports out to several sinks.
type MultiSink struct {
	Sinks []ExportSink
}

// NewMultiSink creates a MultiSink with the provided sinks.
func NewMultiSink(sinks ...ExportSink) *MultiSink {
	return &MultiSink{Sinks: sinks}
}

// RecordExport forwards the report to all sinks, returning the first error
// encountered.
func (m *MultiSink) RecordExport(r export.Report) error {
	for _, s := range m.Sinks {
		if err := s.RecordExport(r); err != nil {
			return err
		}
	}
	return nil
}

// RecordSeries forwards the series to sinks implementing SeriesRecorder.
func (m *MultiSink) RecordSeries(rs ResultSeries) error {
	for _, s := range m.Sinks {
		if rec, ok := s.(SeriesRecorder); ok {
			if err := rec.RecordSeries(rs); err != nil {
				return err
			}
		}
	}
	return nil
}

// Flush flushes every sink implementing Flusher.
func (m *MultiSink) Flush() error {
	for _, s := range m.Sinks {
		if f, ok := s.(Flusher); ok {
			if err := f.Flush(); err != nil {
				return err
			}
		}
	}
	return nil
}
