package export

import (
	"time"

	"github.com/kilianp07/pfexport/core/normalize"
)

// Report summarizes one export run.
type Report struct {
	RunID      string        `json:"run_id"`
	Name       string        `json:"name"`
	Project    string        `json:"project"`
	Plots      []string      `json:"plots"`
	ResultFile string        `json:"result_file"`
	SideFiles  []string      `json:"side_files,omitempty"`
	Started    time.Time     `json:"started"`
	Duration   time.Duration `json:"duration"`

	Normalized      bool     `json:"normalized"`
	ReferenceColumn string   `json:"reference_column,omitempty"`
	ReferenceName   string   `json:"reference_name,omitempty"`
	Renamed         int      `json:"renamed"`
	Columns         []string `json:"columns,omitempty"`

	Channels []normalize.ChannelSummary `json:"channels,omitempty"`

	// Err holds the failure message of an unsuccessful run.
	Err string `json:"error,omitempty"`
}

// Succeeded reports whether the run finished without error.
func (r Report) Succeeded() bool { return r.Err == "" }

// Status returns "ok" or "error".
func (r Report) Status() string {
	if r.Succeeded() {
		return "ok"
	}
	return "error"
}
