package export

import (
	"fmt"
	"io"
	"math"

	"github.com/go-gota/gota/dataframe"
	"github.com/xuri/excelize/v2"

	"github.com/kilianp07/pfexport/core/normalize"
)

const (
	resultsSheet = "results"
	summarySheet = "summary"
)

// WriteXLSX renders the result table as a workbook. Decimal-comma cells are
// stored as numbers; other cells stay text. When channels are given a second
// sheet lists the per-channel statistics.
func WriteXLSX(w io.Writer, df dataframe.DataFrame, channels []normalize.ChannelSummary) error {
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	if err := f.SetSheetName(f.GetSheetName(0), resultsSheet); err != nil {
		return err
	}
	for i, rec := range df.Records() {
		row := make([]interface{}, len(rec))
		for j, cell := range rec {
			row[j] = cellValue(cell, i == 0)
		}
		if err := setRow(f, resultsSheet, i+1, row); err != nil {
			return err
		}
	}
	if err := f.SetPanes(resultsSheet, &excelize.Panes{
		Freeze:      true,
		YSplit:      1,
		TopLeftCell: "A2",
		ActivePane:  "bottomLeft",
	}); err != nil {
		return err
	}

	if len(channels) > 0 {
		if _, err := f.NewSheet(summarySheet); err != nil {
			return err
		}
		if err := setRow(f, summarySheet, 1, []interface{}{"channel", "count", "min", "max", "mean"}); err != nil {
			return err
		}
		for i, c := range channels {
			if err := setRow(f, summarySheet, i+2, []interface{}{c.Name, c.Count, c.Min, c.Max, c.Mean}); err != nil {
				return err
			}
		}
	}
	return f.Write(w)
}

// SaveXLSX writes the workbook to path.
func SaveXLSX(path string, df dataframe.DataFrame, channels []normalize.ChannelSummary) error {
	return writeFile(path, func(w io.Writer) error { return WriteXLSX(w, df, channels) })
}

func setRow(f *excelize.File, sheet string, row int, values []interface{}) error {
	cell, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return err
	}
	if err := f.SetSheetRow(sheet, cell, &values); err != nil {
		return fmt.Errorf("write %s row %d: %w", sheet, row, err)
	}
	return nil
}

func cellValue(cell string, header bool) interface{} {
	if header || cell == "" {
		return cell
	}
	v, err := normalize.ParseDecimal(cell)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return cell
	}
	return v
}
