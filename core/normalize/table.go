package normalize

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-gota/gota/dataframe"
	"github.com/go-gota/gota/series"
)

const (
	// Separator is the column separator of host result files.
	Separator = ';'
	// DefaultHeaderRow is the index of the variable label row in a file
	// exported with the full header option.
	DefaultHeaderRow = 1
)

// ErrEmptyTable is returned when a file has no header row to read.
var ErrEmptyTable = errors.New("result file has no header")

// ReadTable loads a ';' separated result table. Rows before headerRow are
// discarded; the row at headerRow supplies the column names. All cells are
// kept as text so untouched columns round-trip byte for byte.
func ReadTable(r io.Reader, headerRow int) (dataframe.DataFrame, error) {
	cr := csv.NewReader(r)
	cr.Comma = Separator
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true
	records, err := cr.ReadAll()
	if err != nil {
		return dataframe.DataFrame{}, fmt.Errorf("read csv: %w", err)
	}
	if headerRow < 0 {
		headerRow = 0
	}
	if len(records) <= headerRow {
		return dataframe.DataFrame{}, ErrEmptyTable
	}
	records = trimTrailingEmpty(records[headerRow:])
	if err := checkHeader(records[0]); err != nil {
		return dataframe.DataFrame{}, err
	}
	if len(records) == 1 {
		return headerOnly(records[0])
	}
	df := dataframe.LoadRecords(records,
		dataframe.HasHeader(true),
		dataframe.DetectTypes(false),
		dataframe.DefaultType(series.String),
	)
	if df.Err != nil {
		return dataframe.DataFrame{}, fmt.Errorf("load table: %w", df.Err)
	}
	return df, nil
}

// checkHeader rejects labels that appear more than once in the header row.
func checkHeader(header []string) error {
	seen := make(map[string]bool, len(header))
	var dups []string
	for _, name := range header {
		if name == "" {
			continue
		}
		if seen[name] {
			dups = append(dups, name)
		}
		seen[name] = true
	}
	if len(dups) > 0 {
		return fmt.Errorf("%w: %s repeated in header", ErrDuplicateColumn, strings.Join(dups, ", "))
	}
	return nil
}

// headerOnly builds an empty table for a file without data rows.
func headerOnly(header []string) (dataframe.DataFrame, error) {
	cols := make([]series.Series, len(header))
	for i, name := range header {
		cols[i] = series.New([]string{}, series.String, name)
	}
	df := dataframe.New(cols...)
	if df.Err != nil {
		return dataframe.DataFrame{}, fmt.Errorf("load table: %w", df.Err)
	}
	return df, nil
}

// ReadFile opens path and calls ReadTable.
func ReadFile(path string, headerRow int) (dataframe.DataFrame, error) {
	f, err := os.Open(path)
	if err != nil {
		return dataframe.DataFrame{}, err
	}
	defer func() { _ = f.Close() }()
	return ReadTable(f, headerRow)
}

// WriteTable writes df with a single header row using the host separators.
func WriteTable(w io.Writer, df dataframe.DataFrame) error {
	cw := csv.NewWriter(w)
	cw.Comma = Separator
	if err := cw.WriteAll(df.Records()); err != nil {
		return err
	}
	return cw.Error()
}

// WriteFile replaces path with df. The table is written to a temporary file
// in the same directory first and renamed over the target.
func WriteFile(path string, df dataframe.DataFrame) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".*.tmp")
	if err != nil {
		return err
	}
	defer func() { _ = os.Remove(tmp.Name()) }()
	if err := WriteTable(tmp, df); err != nil {
		_ = tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}

// trimTrailingEmpty drops columns produced by a trailing separator: an empty
// header cell with no data below it. It also pads short rows so every record
// has the header width.
func trimTrailingEmpty(records [][]string) [][]string {
	header := records[0]
	width := len(header)
	for width > 0 && header[width-1] == "" && columnEmpty(records[1:], width-1) {
		width--
	}
	out := make([][]string, len(records))
	for i, rec := range records {
		row := make([]string, width)
		copy(row, rec)
		out[i] = row
	}
	return out
}

func columnEmpty(rows [][]string, idx int) bool {
	for _, r := range rows {
		if idx < len(r) && r[idx] != "" {
			return false
		}
	}
	return true
}

// Column returns the values of a column parsed as decimal-comma numbers.
func Column(df dataframe.DataFrame, name string) ([]float64, error) {
	col := df.Col(name)
	if col.Err != nil {
		return nil, col.Err
	}
	cells := col.Records()
	vals := make([]float64, len(cells))
	for i, c := range cells {
		v, err := ParseDecimal(c)
		if err != nil {
			return nil, fmt.Errorf("column %q row %d: %w", name, i+1, err)
		}
		vals[i] = v
	}
	return vals, nil
}
