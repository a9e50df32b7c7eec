package metrics

import "github.com/kilianp07/pfexport/core/factory"

// Config defines the report sinks.
type Config struct {
	Sinks []factory.ModuleConfig `json:"sinks"`
}
