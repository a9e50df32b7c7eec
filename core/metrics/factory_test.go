package metrics_test

import (
	"testing"

	"github.com/kilianp07/pfexport/core/factory"
	metrics "github.com/kilianp07/pfexport/core/metrics"
	_ "github.com/kilianp07/pfexport/infra/metrics"
)

/*
TestExportSinkFactory_Builtins verifies registration via infra/metrics/factory.go.

	Cases:
	- instantiate builtin nop sink
	- unknown type returns error
*/
func TestExportSinkFactory_Builtins(t *testing.T) {
	s, err := metrics.NewExportSink([]factory.ModuleConfig{{Type: "nop"}})
	if err != nil {
		t.Fatalf("create nop: %v", err)
	}
	if s == nil {
		t.Fatal("expected sink instance")
	}
	if _, err := metrics.NewExportSink([]factory.ModuleConfig{{Type: "missing"}}); err == nil {
		t.Fatal("expected error for unknown type")
	}
	types := metrics.SinkTypes()
	if len(types) < 3 {
		t.Fatalf("expected nop, prometheus and influx, got %v", types)
	}
}

/*
TestNewExportSink_Multi validates NewExportSink behavior with zero, one, and multiple configs.
Cases:
  - no config -> NopSink
  - two configs -> MultiSink with two sub-sinks
*/
func TestNewExportSink_Multi(t *testing.T) {
	s, err := metrics.NewExportSink(nil)
	if err != nil {
		t.Fatalf("create nop default: %v", err)
	}
	if _, ok := s.(metrics.NopSink); !ok {
		t.Fatalf("expected NopSink, got %T", s)
	}

	cfgs := []factory.ModuleConfig{{Type: "nop"}, {Type: "nop"}}
	s, err = metrics.NewExportSink(cfgs)
	if err != nil {
		t.Fatalf("create multi: %v", err)
	}
	m, ok := s.(*metrics.MultiSink)
	if !ok {
		t.Fatalf("expected MultiSink, got %T", s)
	}
	if len(m.Sinks) != 2 {
		t.Fatalf("expected 2 sinks, got %d", len(m.Sinks))
	}
}
