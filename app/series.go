package app

import (
	"math"
	"time"

	"github.com/go-gota/gota/dataframe"

	coremetrics "github.com/kilianp07/pfexport/core/metrics"
	"github.com/kilianp07/pfexport/core/normalize"
)

// seriesFromTable uses the first column as simulation time and every other
// numeric column as a channel. It reports false when the time column is not
// numeric.
func seriesFromTable(df dataframe.DataFrame, runID, name string, start time.Time) (coremetrics.ResultSeries, bool) {
	names := df.Names()
	if len(names) == 0 {
		return coremetrics.ResultSeries{}, false
	}
	t, err := normalize.Column(df, names[0])
	if err != nil || allNaN(t) {
		return coremetrics.ResultSeries{}, false
	}
	rs := coremetrics.ResultSeries{
		RunID:    runID,
		Name:     name,
		Start:    start,
		Time:     t,
		Channels: make(map[string][]float64, len(names)-1),
	}
	for _, n := range names[1:] {
		vals, err := normalize.Column(df, n)
		if err != nil {
			continue
		}
		rs.Channels[n] = vals
	}
	return rs, true
}

func allNaN(vals []float64) bool {
	for _, v := range vals {
		if !math.IsNaN(v) {
			return false
		}
	}
	return true
}
