package normalize

import (
	"math"

	"github.com/go-gota/gota/dataframe"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// ChannelSummary holds basic statistics of one numeric column.
type ChannelSummary struct {
	Name  string  `json:"name"`
	Count int     `json:"count"`
	Min   float64 `json:"min"`
	Max   float64 `json:"max"`
	Mean  float64 `json:"mean"`
}

// Summarize computes statistics for every numeric column of df. Columns with
// text cells or without values are skipped. Empty cells are ignored.
func Summarize(df dataframe.DataFrame) []ChannelSummary {
	var out []ChannelSummary
	for _, name := range df.Names() {
		vals, err := Column(df, name)
		if err != nil {
			continue
		}
		vals = dropNaN(vals)
		if len(vals) == 0 {
			continue
		}
		out = append(out, ChannelSummary{
			Name:  name,
			Count: len(vals),
			Min:   floats.Min(vals),
			Max:   floats.Max(vals),
			Mean:  stat.Mean(vals, nil),
		})
	}
	return out
}

func dropNaN(vals []float64) []float64 {
	out := vals[:0]
	for _, v := range vals {
		if !math.IsNaN(v) {
			out = append(out, v)
		}
	}
	return out
}
