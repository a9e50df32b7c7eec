package normalize

import (
	"math"
	"strconv"
	"strings"
)

// ParseDecimal parses a number written with a decimal comma. Empty cells and
// NaN markers yield NaN.
func ParseDecimal(s string) (float64, error) {
	s = strings.TrimSpace(s)
	switch s {
	case "", "NaN", "nan", "NA":
		return math.NaN(), nil
	}
	return strconv.ParseFloat(strings.Replace(s, ",", ".", 1), 64)
}

// FormatDecimal renders v with a decimal comma. NaN becomes an empty cell.
func FormatDecimal(v float64) string {
	if math.IsNaN(v) {
		return ""
	}
	return strings.Replace(strconv.FormatFloat(v, 'g', -1, 64), ".", ",", 1)
}
