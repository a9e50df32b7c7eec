package config

// OutputConfig selects side outputs written next to the result file.
type OutputConfig struct {
	// XLSX writes <path>/<name>.xlsx.
	XLSX bool `json:"xlsx"`
	// Preview writes <path>/<name>.html with a chart of every channel.
	Preview bool `json:"preview"`
	// Report writes <path>/<name>.report.json.
	Report bool `json:"report"`
	// Summary computes per-channel statistics for the report.
	Summary bool `json:"summary"`
}

// Any reports whether a side output needs the result table.
func (c OutputConfig) Any() bool { return c.XLSX || c.Preview || c.Summary }
