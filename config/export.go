package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/kilianp07/pfexport/core/export"
)

// ErrTableFormat is returned when the result export settings do not produce
// the table layout the normalizer and the side outputs read.
var ErrTableFormat = errors.New("result table format not readable")

// ExportConfig holds the defaults of an export run. Name and Path are
// usually given on the command line or read from the host script.
type ExportConfig struct {
	Name         string    `json:"name"`
	Path         string    `json:"path"`
	RefName      string    `json:"ref_name"`
	RefScale     float64   `json:"ref_scale"`
	GraphCommand string    `json:"graph_command"`
	CSV          CSVConfig `json:"csv"`
}

// CSVConfig configures the host result export command.
type CSVConfig struct {
	Header     *int   `json:"header"`
	DecimalSep string `json:"decimal_sep"`
	ColumnSep  string `json:"column_sep"`
}

// SetDefaults applies sane defaults.
func (c *ExportConfig) SetDefaults() {
	if c.GraphCommand == "" {
		c.GraphCommand = export.DefaultGraphCommand
	}
	def := export.DefaultCSVOptions()
	if c.CSV.Header == nil {
		h := def.Header
		c.CSV.Header = &h
	}
	if c.CSV.DecimalSep == "" {
		c.CSV.DecimalSep = def.DecimalSep
	}
	if c.CSV.ColumnSep == "" {
		c.CSV.ColumnSep = def.ColumnSep
	}
}

// Validate checks the command path and separators.
func (c ExportConfig) Validate() error {
	if !strings.HasSuffix(c.GraphCommand, ".ComWr") {
		return fmt.Errorf("export.graph_command must name a ComWr object, got %q", c.GraphCommand)
	}
	if len(c.CSV.DecimalSep) != 1 || len(c.CSV.ColumnSep) != 1 {
		return fmt.Errorf("export.csv separators must be single characters")
	}
	if c.CSV.DecimalSep == c.CSV.ColumnSep {
		return fmt.Errorf("export.csv decimal and column separators must differ")
	}
	if c.CSV.Header != nil && (*c.CSV.Header < 0 || *c.CSV.Header > 2) {
		return fmt.Errorf("export.csv.header must be 0, 1 or 2")
	}
	return nil
}

// ValidateTableFormat checks that the result export writes ';' separated
// columns, decimal commas and the full two row header. Unset values count as
// the defaults.
func (c ExportConfig) ValidateTableFormat() error {
	def := export.DefaultCSVOptions()
	got := c.CSVOptions()
	if got.ColumnSep != def.ColumnSep || got.DecimalSep != def.DecimalSep || got.Header != def.Header {
		return fmt.Errorf("%w: normalize and side outputs need column_sep %q, decimal_sep %q and header %d, got %q, %q and %d",
			ErrTableFormat, def.ColumnSep, def.DecimalSep, def.Header, got.ColumnSep, got.DecimalSep, got.Header)
	}
	return nil
}

// Params returns the run parameters configured in the file.
func (c ExportConfig) Params() export.Params {
	return export.Params{Name: c.Name, Path: c.Path, RefName: c.RefName, RefScale: c.RefScale}
}

// CSVOptions converts the CSV section to exporter options.
func (c ExportConfig) CSVOptions() export.CSVOptions {
	opts := export.DefaultCSVOptions()
	if c.CSV.Header != nil {
		opts.Header = *c.CSV.Header
	}
	if c.CSV.DecimalSep != "" {
		opts.DecimalSep = c.CSV.DecimalSep
	}
	if c.CSV.ColumnSep != "" {
		opts.ColumnSep = c.CSV.ColumnSep
	}
	return opts
}
