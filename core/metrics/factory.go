package metrics

import "github.com/kilianp07/pfexport/core/factory"

var sinkRegistry = factory.NewRegistry[ExportSink]()

// RegisterExportSink adds a sink factory identified by name.
func RegisterExportSink(name string, f factory.Factory[ExportSink]) error {
	return sinkRegistry.Register(name, f)
}

// SinkTypes lists the registered sink types.
func SinkTypes() []string { return sinkRegistry.Types() }

// NewExportSink creates an ExportSink from the provided configuration.
func NewExportSink(cfgs []factory.ModuleConfig) (ExportSink, error) {
	if len(cfgs) == 0 {
		return NopSink{}, nil
	}
	if len(cfgs) == 1 {
		return sinkRegistry.Create(cfgs[0])
	}
	sinks := make([]ExportSink, len(cfgs))
	for i, c := range cfgs {
		s, err := sinkRegistry.Create(c)
		if err != nil {
			return nil, err
		}
		sinks[i] = s
	}
	return NewMultiSink(sinks...), nil
}
