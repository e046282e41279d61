package extract

import (
	"math"
	"strconv"
	"strings"
)

// Table is an untyped grid of cells as read from the first sheet of a
// workbook or a CSV file. Rows may have different lengths.
type Table [][]string

// Width returns the number of columns of the widest row at or after start.
func (t Table) Width(start int) int {
	w := 0
	for r := start; r < len(t); r++ {
		if len(t[r]) > w {
			w = len(t[r])
		}
	}
	return w
}

// Cell returns the raw text at (row, col), or "" when out of range.
func (t Table) Cell(row, col int) string {
	if row < 0 || row >= len(t) || col < 0 || col >= len(t[row]) {
		return ""
	}
	return t[row][col]
}

// Number coerces the cell at (row, col) to a float. Empty, non-numeric and
// non-finite cells are missing.
func (t Table) Number(row, col int) (float64, bool) {
	return ParseNumber(t.Cell(row, col))
}

// ParseNumber coerces a cell to a float the way a spreadsheet reader would:
// surrounding space is ignored, anything that is not a finite number is
// missing.
func ParseNumber(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	return v, true
}
