package export

import (
	"errors"
	"fmt"

	"github.com/kilianp07/pfexport/core/host"
	"github.com/kilianp07/pfexport/core/logger"
)

// ErrCommandFailed is returned when a host command reports a non-zero result.
var ErrCommandFailed = errors.New("host command failed")

// CSVOptions configures the host result export command.
type CSVOptions struct {
	// Format selects the export format; 6 is CSV.
	Format int `json:"format"`
	// CustomSeparators disables the system separators when true.
	CustomSeparators bool `json:"custom_separators"`
	// Header selects the header mode; 1 writes object and variable rows.
	Header int `json:"header"`
	// DecimalSep is the decimal separator.
	DecimalSep string `json:"decimal_sep"`
	// ColumnSep is the column separator.
	ColumnSep string `json:"column_sep"`
}

// DefaultCSVOptions returns the settings the normalizer expects.
func DefaultCSVOptions() CSVOptions {
	return CSVOptions{Format: 6, CustomSeparators: true, Header: 1, DecimalSep: ",", ColumnSep: ";"}
}

// ResultExporter writes the study case results object to CSV.
type ResultExporter struct {
	opts CSVOptions
	log  logger.Logger
}

// NewResultExporter creates a ResultExporter with the given options.
func NewResultExporter(opts CSVOptions, log logger.Logger) *ResultExporter {
	if log == nil {
		log = logger.NopLogger{}
	}
	return &ResultExporter{opts: opts, log: log}
}

// Export configures the study case export command and runs it. It returns
// the path of the written file.
func (e *ResultExporter) Export(app host.Application, p Params) (string, error) {
	comRes, err := app.FromStudyCase(host.ClassResultExport)
	if err != nil {
		return "", fmt.Errorf("result export command: %w", err)
	}
	elmRes, err := app.FromStudyCase(host.ClassResults)
	if err != nil {
		return "", fmt.Errorf("results object: %w", err)
	}

	file := p.ResultFile()
	sep := 1
	if e.opts.CustomSeparators {
		sep = 0
	}
	attrs := []struct {
		name  string
		value any
	}{
		{"pResult", elmRes},
		{"iopt_exp", e.opts.Format},
		{"iopt_sep", sep},
		{"ciopt_head", e.opts.Header},
		{"dec_Sep", e.opts.DecimalSep},
		{"col_Sep", e.opts.ColumnSep},
		{"f_name", file},
	}
	for _, a := range attrs {
		if err := comRes.SetAttribute(a.name, a.value); err != nil {
			return "", fmt.Errorf("set %s: %w", a.name, err)
		}
	}
	if err := execute(comRes); err != nil {
		return "", fmt.Errorf("export results: %w", err)
	}
	e.log.Infof("exported results to %s", file)
	return file, nil
}
