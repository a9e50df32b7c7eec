package normalize

import (
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/go-gota/gota/dataframe"
	"github.com/go-gota/gota/series"
	"gonum.org/v1/gonum/floats"

	"github.com/kilianp07/pfexport/core/logger"
)

var (
	// ErrUnknownSignals is returned when more than one column is missing
	// from the mapping.
	ErrUnknownSignals = errors.New("unknown signals in result file")
	// ErrInvalidReference is returned when the reference column cannot be
	// renamed or rescaled with the supplied parameters.
	ErrInvalidReference = errors.New("invalid reference signal parameters")
	// ErrDuplicateColumn is returned when renaming would produce two columns
	// with the same name.
	ErrDuplicateColumn = errors.New("duplicate column after rename")
)

// Reference names the externally supplied signal and its scale divisor.
type Reference struct {
	Name  string
	Scale float64
}

// Result describes what a normalization pass changed.
type Result struct {
	// Renamed counts mapped columns that were renamed.
	Renamed int
	// Reference is the original label of the reference column, empty when
	// the table had no unmapped column.
	Reference string
	// ReferenceName is the name the reference column was given.
	ReferenceName string
	// Columns lists the final column names.
	Columns []string
}

// Normalizer applies a Mapping to result tables.
type Normalizer struct {
	mapping   Mapping
	headerRow int
	log       logger.Logger
}

// NewNormalizer returns a Normalizer for the given mapping. A nil mapping
// selects DefaultMapping and a nil logger discards output.
func NewNormalizer(m Mapping, headerRow int, log logger.Logger) *Normalizer {
	if m == nil {
		m = DefaultMapping()
	}
	if log == nil {
		log = logger.NopLogger{}
	}
	return &Normalizer{mapping: m, headerRow: headerRow, log: log}
}

// Mapping returns the label table in use.
func (n *Normalizer) Mapping() Mapping { return n.mapping }

// Apply renames the columns of df and rescales the reference column. The
// input frame is left untouched.
func (n *Normalizer) Apply(df dataframe.DataFrame, ref Reference) (dataframe.DataFrame, Result, error) {
	names := df.Names()
	left := n.mapping.Unmapped(names)
	if len(left) > 1 {
		return df, Result{}, fmt.Errorf("%w: %s", ErrUnknownSignals, strings.Join(left, ", "))
	}

	target := make(map[string]string, len(names))
	res := Result{}
	for _, c := range names {
		if canon, ok := n.mapping[c]; ok {
			target[c] = canon
		}
	}
	if len(left) == 1 {
		if ref.Name == "" || ref.Scale == 0 || math.IsNaN(ref.Scale) {
			return df, Result{}, fmt.Errorf("%w: name %q scale %v", ErrInvalidReference, ref.Name, ref.Scale)
		}
		target[left[0]] = ref.Name
		res.Reference = left[0]
		res.ReferenceName = ref.Name
	}
	if err := checkUnique(names, target); err != nil {
		return df, Result{}, err
	}

	out := df
	if res.Reference != "" {
		scaled, err := rescale(df, res.Reference, ref.Scale)
		if err != nil {
			return df, Result{}, err
		}
		out = out.Mutate(scaled)
		if out.Err != nil {
			return df, Result{}, out.Err
		}
		n.log.Debugw("reference signal rescaled", map[string]any{
			"column": res.Reference, "name": ref.Name, "scale": ref.Scale,
		})
	}
	for _, c := range names {
		newName, ok := target[c]
		if !ok || newName == c {
			continue
		}
		out = out.Rename(newName, c)
		if out.Err != nil {
			return df, Result{}, fmt.Errorf("rename %q: %w", c, out.Err)
		}
		if c != res.Reference {
			res.Renamed++
		}
	}
	res.Columns = out.Names()
	return out, res, nil
}

// NormalizeFile rewrites the result file at path in place. Nothing is
// written when the table fails validation.
func (n *Normalizer) NormalizeFile(path string, ref Reference) (Result, error) {
	df, err := ReadFile(path, n.headerRow)
	if err != nil {
		return Result{}, fmt.Errorf("read %s: %w", path, err)
	}
	out, res, err := n.Apply(df, ref)
	if err != nil {
		return Result{}, err
	}
	if err := WriteFile(path, out); err != nil {
		return Result{}, fmt.Errorf("write %s: %w", path, err)
	}
	n.log.Infof("normalized %s: %d columns renamed, reference %q", path, res.Renamed, res.ReferenceName)
	return res, nil
}

func rescale(df dataframe.DataFrame, name string, scale float64) (series.Series, error) {
	vals, err := Column(df, name)
	if err != nil {
		return series.Series{}, fmt.Errorf("%w: %v", ErrInvalidReference, err)
	}
	if len(vals) > 0 {
		div := make([]float64, len(vals))
		floats.AddConst(scale, div)
		floats.Div(vals, div)
	}
	cells := make([]string, len(vals))
	for i, v := range vals {
		cells[i] = FormatDecimal(v)
	}
	return series.New(cells, series.String, name), nil
}

func checkUnique(names []string, target map[string]string) error {
	seen := make(map[string]string, len(names))
	for _, c := range names {
		final := c
		if t, ok := target[c]; ok {
			final = t
		}
		if prev, ok := seen[final]; ok {
			return fmt.Errorf("%w: %q from %q and %q", ErrDuplicateColumn, final, prev, c)
		}
		seen[final] = c
	}
	return nil
}
