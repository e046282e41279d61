package extract

import (
	"errors"
	"fmt"
	"strings"
)

// Defaults used by Extract when the corresponding Options field is zero.
const (
	DefaultMarker           = "DATA PANTAUAN"
	DefaultThreshold        = 90.0
	DefaultMinCount         = 2
	DefaultPressureMinCount = 5
)

var (
	ErrAnchorNotFound            = errors.New("anchor row not found")
	ErrTemperatureColumnNotFound = errors.New("temperature column not found")
	ErrEmptySeries               = errors.New("temperature column has no numeric values")
)

// Options controls the detection heuristics.
type Options struct {
	// Marker is the text identifying the header row. Empty means the first
	// row of the table is the header and data starts on the second.
	Marker string

	// HeaderKeyword, when set, selects the first column whose header cell
	// contains it (case-insensitive) before the numeric heuristic runs.
	HeaderKeyword string

	// Threshold and MinCount drive the numeric heuristic: a column qualifies
	// when more than MinCount of its values are strictly above Threshold.
	Threshold float64
	MinCount  int

	// FallbackColumn is used when no column qualifies. Negative disables the
	// fallback, so detection failure is an error.
	FallbackColumn int

	// PressureMinCount is the number of positive values a column must
	// exceed to be reported as the pressure column. Zero or negative
	// disables pressure detection.
	PressureMinCount int
}

// DefaultOptions returns the strict policy: "DATA PANTAUAN" marker, more
// than 2 values above 90, no fallback column.
func DefaultOptions() Options {
	return Options{
		Marker:           DefaultMarker,
		Threshold:        DefaultThreshold,
		MinCount:         DefaultMinCount,
		FallbackColumn:   -1,
		PressureMinCount: DefaultPressureMinCount,
	}
}

// Extraction is the temperature series located in a table, plus enough
// positional detail for the caller to explain where it came from.
type Extraction struct {
	Series []float64

	HeaderRow         int
	DataStartRow      int
	TemperatureColumn int
	// UsedFallback is true when the column came from FallbackColumn.
	UsedFallback bool

	// Gaps lists absolute row indices of missing cells between the first
	// and last sample. Each one shifts later minute indices down by one.
	Gaps []int

	// Pressure is the cleaned series of the first other column with enough
	// positive values, for display only. The check does not look at
	// magnitudes, so a leading minute-index column is reported here ahead of
	// a real pressure column. PressureColumn is -1 when none was found.
	Pressure       []float64
	PressureColumn int
}

// LocateAnchorRow returns the index of the first row with a cell containing
// marker, compared case-insensitively.
func LocateAnchorRow(t Table, marker string) (int, bool) {
	needle := strings.ToUpper(marker)
	for r, row := range t {
		for _, cell := range row {
			if strings.Contains(strings.ToUpper(cell), needle) {
				return r, true
			}
		}
	}
	return -1, false
}

// LocateNumericColumn returns the first column, scanning rows from start,
// whose numeric cells satisfy pred. pred receives the column's numeric
// values in row order with missing cells already removed.
func LocateNumericColumn(t Table, start int, pred func(values []float64) bool) (int, bool) {
	for c := 0; c < t.Width(start); c++ {
		if pred(columnValues(t, start, c)) {
			return c, true
		}
	}
	return -1, false
}

// LocateHeaderColumn returns the first column whose cell in header row
// contains keyword, compared case-insensitively.
func LocateHeaderColumn(t Table, header int, keyword string) (int, bool) {
	if header < 0 || header >= len(t) || keyword == "" {
		return -1, false
	}
	needle := strings.ToLower(keyword)
	for c, cell := range t[header] {
		if strings.Contains(strings.ToLower(cell), needle) {
			return c, true
		}
	}
	return -1, false
}

// CountAbove returns a predicate accepting columns with more than minCount
// values strictly greater than threshold.
func CountAbove(threshold float64, minCount int) func([]float64) bool {
	return func(values []float64) bool {
		n := 0
		for _, v := range values {
			if v > threshold {
				n++
			}
		}
		return n > minCount
	}
}

// Extract locates and cleans the temperature series in t.
func Extract(t Table, opts Options) (*Extraction, error) {
	header := 0
	if opts.Marker != "" {
		r, ok := LocateAnchorRow(t, opts.Marker)
		if !ok {
			return nil, fmt.Errorf("%w: no row contains %q", ErrAnchorNotFound, opts.Marker)
		}
		header = r
	} else if len(t) == 0 {
		return nil, fmt.Errorf("%w: table is empty", ErrAnchorNotFound)
	}
	start := header + 1

	out := &Extraction{HeaderRow: header, DataStartRow: start, PressureColumn: -1}

	col, ok := LocateHeaderColumn(t, header, opts.HeaderKeyword)
	if !ok {
		col, ok = LocateNumericColumn(t, start, CountAbove(opts.Threshold, opts.MinCount))
	}
	if !ok && opts.FallbackColumn >= 0 && opts.FallbackColumn < t.Width(start) {
		col, ok = opts.FallbackColumn, true
		out.UsedFallback = true
	}
	if !ok {
		return nil, fmt.Errorf("%w: no column below row %d has more than %d values above %g",
			ErrTemperatureColumnNotFound, header+1, opts.MinCount, opts.Threshold)
	}
	out.TemperatureColumn = col

	out.Series, out.Gaps = cleanColumn(t, start, col)
	if len(out.Series) == 0 {
		return nil, fmt.Errorf("%w: column %d", ErrEmptySeries, col+1)
	}

	if opts.PressureMinCount > 0 {
		if pc, ok := locatePressureColumn(t, start, col, opts.PressureMinCount); ok {
			out.PressureColumn = pc
			out.Pressure, _ = cleanColumn(t, start, pc)
		}
	}
	return out, nil
}

// locatePressureColumn returns the first column other than skip with more
// than minCount positive values.
func locatePressureColumn(t Table, start, skip, minCount int) (int, bool) {
	for c := 0; c < t.Width(start); c++ {
		if c == skip {
			continue
		}
		n := 0
		for _, v := range columnValues(t, start, c) {
			if v > 0 {
				n++
			}
		}
		if n > minCount {
			return c, true
		}
	}
	return -1, false
}

func columnValues(t Table, start, col int) []float64 {
	var out []float64
	for r := start; r < len(t); r++ {
		if v, ok := t.Number(r, col); ok {
			out = append(out, v)
		}
	}
	return out
}

// cleanColumn returns the numeric values of col in row order and the rows of
// missing cells that fall between the first and last value.
func cleanColumn(t Table, start, col int) ([]float64, []int) {
	var (
		values  []float64
		gaps    []int
		pending []int
	)
	for r := start; r < len(t); r++ {
		v, ok := t.Number(r, col)
		if !ok {
			if len(values) > 0 {
				pending = append(pending, r)
			}
			continue
		}
		gaps = append(gaps, pending...)
		pending = pending[:0]
		values = append(values, v)
	}
	return values, gaps
}
