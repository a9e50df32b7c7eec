package export

import (
	"fmt"
	"io"
	"math"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"
	"github.com/go-gota/gota/dataframe"

	"github.com/kilianp07/pfexport/core/normalize"
)

// PreviewHTML renders every numeric channel of df as a line chart over the
// first column, which holds the simulation time.
func PreviewHTML(w io.Writer, df dataframe.DataFrame, title string) error {
	names := df.Names()
	if len(names) < 2 {
		return fmt.Errorf("preview needs a time column and at least one channel")
	}
	timeCol, err := normalize.Column(df, names[0])
	if err != nil {
		return fmt.Errorf("time column: %w", err)
	}
	xAxis := make([]string, len(timeCol))
	for i, t := range timeCol {
		xAxis[i] = normalize.FormatDecimal(t)
	}

	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{PageTitle: title, Width: "1200px", Height: "600px"}),
		charts.WithTitleOpts(opts.Title{Title: title}),
		charts.WithXAxisOpts(opts.XAxis{Name: names[0]}),
		charts.WithDataZoomOpts(opts.DataZoom{Type: "slider", Start: 0, End: 100}),
	)
	line.SetXAxis(xAxis)

	added := 0
	for _, name := range names[1:] {
		vals, err := normalize.Column(df, name)
		if err != nil {
			continue
		}
		data := make([]opts.LineData, len(vals))
		for i, v := range vals {
			if math.IsNaN(v) || math.IsInf(v, 0) {
				data[i] = opts.LineData{Value: nil}
				continue
			}
			data[i] = opts.LineData{Value: v}
		}
		line.AddSeries(name, data)
		added++
	}
	if added == 0 {
		return fmt.Errorf("no numeric channel to preview")
	}
	if err := line.Render(w); err != nil {
		return fmt.Errorf("failed to render chart: %w", err)
	}
	return nil
}

// SavePreview writes the preview page to path.
func SavePreview(path string, df dataframe.DataFrame, title string) error {
	return writeFile(path, func(w io.Writer) error { return PreviewHTML(w, df, title) })
}
