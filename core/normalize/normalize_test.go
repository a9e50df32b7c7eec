package normalize

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// hostCSV builds a result file the way the host writes it: an object row, a
// variable row and the data rows.
func hostCSV(labels []string, rows ...[]string) string {
	var b strings.Builder
	objects := make([]string, len(labels))
	for i := range objects {
		objects[i] = "Grid\\bus2.ElmTerm"
	}
	b.WriteString(strings.Join(objects, ";") + "\n")
	b.WriteString(strings.Join(labels, ";") + "\n")
	for _, r := range rows {
		b.WriteString(strings.Join(r, ";") + "\n")
	}
	return b.String()
}

func writeTemp(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "run.csv")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func readLines(t *testing.T, path string) []string {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	return strings.Split(strings.TrimRight(string(data), "\n"), "\n")
}

func TestNormalizeFileRenamesAndRescalesReference(t *testing.T) {
	path := writeTemp(t, hostCSV(
		[]string{"b:tnow in s", "m:fehz in Hz", "extSignal"},
		[]string{"0", "50", "3"},
		[]string{"0,01", "49,95", "1,5"},
	))

	n := NewNormalizer(nil, DefaultHeaderRow, nil)
	res, err := n.NormalizeFile(path, Reference{Name: "uRef", Scale: 2.0})
	require.NoError(t, err)

	assert.Equal(t, 2, res.Renamed)
	assert.Equal(t, "extSignal", res.Reference)
	assert.Equal(t, "uRef", res.ReferenceName)
	assert.Equal(t, []string{"t[s]", "f[hz]", "uRef"}, res.Columns)

	lines := readLines(t, path)
	require.Len(t, lines, 3)
	assert.Equal(t, "t[s];f[hz];uRef", lines[0])
	assert.Equal(t, "0;50;1,5", lines[1])
	assert.Equal(t, "0,01;49,95;0,75", lines[2])
}

func TestApplyExactMappingLeavesNoReference(t *testing.T) {
	m := DefaultMapping()
	labels := m.Labels()
	row := make([]string, len(labels))
	for i := range row {
		row[i] = "1,0"
	}
	df, err := ReadTable(strings.NewReader(hostCSV(labels, row)), DefaultHeaderRow)
	require.NoError(t, err)

	out, res, err := NewNormalizer(m, DefaultHeaderRow, nil).Apply(df, Reference{})
	require.NoError(t, err)
	assert.Empty(t, res.Reference)
	assert.Equal(t, len(labels), res.Renamed)
	for i, label := range labels {
		assert.Equal(t, m[label], out.Names()[i])
	}
	// untouched cells keep their original text
	assert.Equal(t, "1,0", out.Records()[1][0])
}

func TestNormalizeFileFailsOnTwoUnknownSignals(t *testing.T) {
	content := hostCSV(
		[]string{"b:tnow in s", "extA", "extB"},
		[]string{"0", "1", "2"},
	)
	path := writeTemp(t, content)

	_, err := NewNormalizer(nil, DefaultHeaderRow, nil).NormalizeFile(path, Reference{Name: "uRef", Scale: 1})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrUnknownSignals))
	assert.Contains(t, err.Error(), "extA")
	assert.Contains(t, err.Error(), "extB")

	data, rerr := os.ReadFile(path)
	require.NoError(t, rerr)
	assert.Equal(t, content, string(data), "file must not be rewritten")
}

func TestNormalizeFileHeaderOnly(t *testing.T) {
	path := writeTemp(t, hostCSV([]string{"b:tnow in s", "m:fehz in Hz", "extSignal"}))

	res, err := NewNormalizer(nil, DefaultHeaderRow, nil).NormalizeFile(path, Reference{Name: "uRef", Scale: 2})
	require.NoError(t, err)
	assert.Equal(t, 2, res.Renamed)
	assert.Equal(t, "extSignal", res.Reference)
	assert.Equal(t, []string{"t[s];f[hz];uRef"}, readLines(t, path))
}

func TestReadTableRejectsRepeatedLabel(t *testing.T) {
	content := hostCSV(
		[]string{"b:tnow in s", "s:p in p.u.", "s:p in p.u."},
		[]string{"0", "1", "2"},
	)
	path := writeTemp(t, content)

	_, err := NewNormalizer(nil, DefaultHeaderRow, nil).NormalizeFile(path, Reference{Name: "uRef", Scale: 1})
	require.ErrorIs(t, err, ErrDuplicateColumn)
	assert.Contains(t, err.Error(), "s:p in p.u. repeated")
	assert.NotContains(t, err.Error(), "_0")

	data, rerr := os.ReadFile(path)
	require.NoError(t, rerr)
	assert.Equal(t, content, string(data), "file must not be rewritten")
}

func TestApplyRejectsZeroScale(t *testing.T) {
	df, err := ReadTable(strings.NewReader(hostCSV([]string{"b:tnow in s", "ext"}, []string{"0", "1"})), DefaultHeaderRow)
	require.NoError(t, err)
	_, _, err = NewNormalizer(nil, DefaultHeaderRow, nil).Apply(df, Reference{Name: "uRef", Scale: 0})
	assert.ErrorIs(t, err, ErrInvalidReference)
}

func TestApplyRejectsReferenceNameCollision(t *testing.T) {
	df, err := ReadTable(strings.NewReader(hostCSV([]string{"b:tnow in s", "ext"}, []string{"0", "1"})), DefaultHeaderRow)
	require.NoError(t, err)
	_, _, err = NewNormalizer(nil, DefaultHeaderRow, nil).Apply(df, Reference{Name: "t[s]", Scale: 1})
	assert.ErrorIs(t, err, ErrDuplicateColumn)
}

func TestApplyRejectsNonNumericReference(t *testing.T) {
	df, err := ReadTable(strings.NewReader(hostCSV([]string{"b:tnow in s", "ext"}, []string{"0", "abc"})), DefaultHeaderRow)
	require.NoError(t, err)
	_, _, err = NewNormalizer(nil, DefaultHeaderRow, nil).Apply(df, Reference{Name: "uRef", Scale: 1})
	assert.ErrorIs(t, err, ErrInvalidReference)
}

func TestReferenceKeepsEmptyCells(t *testing.T) {
	df, err := ReadTable(strings.NewReader(hostCSV([]string{"b:tnow in s", "ext"}, []string{"0", ""}, []string{"1", "4"})), DefaultHeaderRow)
	require.NoError(t, err)
	out, _, err := NewNormalizer(nil, DefaultHeaderRow, nil).Apply(df, Reference{Name: "uRef", Scale: 4})
	require.NoError(t, err)
	recs := out.Records()
	assert.Equal(t, "", recs[1][1])
	assert.Equal(t, "1", recs[2][1])
}

func TestReadTableDropsTrailingSeparator(t *testing.T) {
	data := "obj;obj;\nb:tnow in s;m:fehz in Hz;\n0;50;\n"
	df, err := ReadTable(strings.NewReader(data), DefaultHeaderRow)
	require.NoError(t, err)
	assert.Equal(t, []string{"b:tnow in s", "m:fehz in Hz"}, df.Names())
}

func TestReadTableWithoutHeader(t *testing.T) {
	_, err := ReadTable(strings.NewReader("only one row\n"), DefaultHeaderRow)
	assert.ErrorIs(t, err, ErrEmptyTable)
}

func TestMappingWithOverrides(t *testing.T) {
	m := DefaultMapping().With(map[string]string{
		"m:fehz in Hz": "",
		"s:p in MW":    "P[MW]",
	})
	_, ok := m["m:fehz in Hz"]
	assert.False(t, ok)
	assert.Equal(t, "P[MW]", m["s:p in MW"])
	assert.Equal(t, "t[s]", m["b:tnow in s"])
	// the built-in table is not modified
	assert.Equal(t, "f[hz]", DefaultMapping()["m:fehz in Hz"])
}

func TestDecimalRoundTrip(t *testing.T) {
	v, err := ParseDecimal("-0,125")
	require.NoError(t, err)
	assert.Equal(t, -0.125, v)
	assert.Equal(t, "-0,125", FormatDecimal(v))

	v, err = ParseDecimal("1,5E-03")
	require.NoError(t, err)
	assert.InDelta(t, 0.0015, v, 1e-12)

	_, err = ParseDecimal("x")
	assert.Error(t, err)
}

func TestSummarize(t *testing.T) {
	df, err := ReadTable(strings.NewReader(hostCSV(
		[]string{"b:tnow in s", "m:fehz in Hz", "name"},
		[]string{"0", "50", "a"},
		[]string{"1", "49", "b"},
		[]string{"2", "", "c"},
	)), DefaultHeaderRow)
	require.NoError(t, err)

	sum := Summarize(df)
	require.Len(t, sum, 2)
	assert.Equal(t, ChannelSummary{Name: "b:tnow in s", Count: 3, Min: 0, Max: 2, Mean: 1}, sum[0])
	assert.Equal(t, "m:fehz in Hz", sum[1].Name)
	assert.Equal(t, 2, sum[1].Count)
	assert.Equal(t, 49.5, sum[1].Mean)
}
