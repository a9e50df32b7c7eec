package config

import (
	"fmt"

	"github.com/kilianp07/pfexport/core/normalize"
)

// NormalizeConfig controls the optional column normalization step.
type NormalizeConfig struct {
	Enabled bool `json:"enabled"`
	// HeaderRow is the zero based row holding the variable labels.
	HeaderRow *int `json:"header_row"`
	// Columns adds or replaces mapping entries. An empty name removes the
	// label from the mapping.
	Columns []ColumnOverride `json:"columns"`
}

// ColumnOverride maps a host label to a canonical name. Labels are values
// rather than keys because most of them contain the config key delimiter.
type ColumnOverride struct {
	Label string `json:"label"`
	Name  string `json:"name"`
}

// SetDefaults applies sane defaults.
func (c *NormalizeConfig) SetDefaults() {
	if c.HeaderRow == nil {
		h := normalize.DefaultHeaderRow
		c.HeaderRow = &h
	}
}

// Validate checks the header row index.
func (c NormalizeConfig) Validate() error {
	if c.HeaderRow != nil && *c.HeaderRow < 0 {
		return fmt.Errorf("normalize.header_row must not be negative")
	}
	for i, o := range c.Columns {
		if o.Label == "" {
			return fmt.Errorf("normalize.columns[%d]: label is required", i)
		}
	}
	return nil
}

// Mapping returns the default rename table with the configured overrides.
func (c NormalizeConfig) Mapping() normalize.Mapping {
	overrides := make(map[string]string, len(c.Columns))
	for _, o := range c.Columns {
		overrides[o.Label] = o.Name
	}
	return normalize.DefaultMapping().With(overrides)
}

// Row returns the header row index.
func (c NormalizeConfig) Row() int {
	if c.HeaderRow == nil {
		return normalize.DefaultHeaderRow
	}
	return *c.HeaderRow
}
