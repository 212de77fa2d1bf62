package table

import (
	"strconv"

	"github.com/mattn/go-runewidth"
)

// MaxColumnWidth is the widest a fitted column may grow, in terminal cells.
const MaxColumnWidth = 32

// IndexTitle heads the leading row-number column.
const IndexTitle = "#"

// FitColumns sizes one column per header to the widest of the header and its
// cells, capped at limit. A leading index column numbers the rows from 1.
func FitColumns(headers []string, cells [][]string, limit int) []Column {
	if limit <= 0 {
		limit = MaxColumnWidth
	}
	cols := make([]Column, 0, len(headers)+1)
	cols = append(cols, Column{Title: IndexTitle, Width: runewidth.StringWidth(strconv.Itoa(len(cells)))})
	if cols[0].Width < len(IndexTitle) {
		cols[0].Width = len(IndexTitle)
	}
	for i, h := range headers {
		w := runewidth.StringWidth(h)
		for _, row := range cells {
			if i < len(row) {
				w = max(w, runewidth.StringWidth(row[i]))
			}
		}
		cols = append(cols, Column{Title: Clip(h, limit), Width: min(w, limit)})
	}
	return cols
}

// IndexedRow prefixes cells with the 1-based row number and clips each cell to its column.
func IndexedRow(n int, cells []string, cols []Column) Row {
	row := make(Row, 0, len(cells)+1)
	row = append(row, strconv.Itoa(n+1))
	for i, c := range cells {
		w := MaxColumnWidth
		if i+1 < len(cols) {
			w = cols[i+1].Width
		}
		row = append(row, Clip(c, w))
	}
	return row
}

// Clip truncates s to width cells, marking the cut with an ellipsis.
func Clip(s string, width int) string {
	if runewidth.StringWidth(s) <= width {
		return s
	}
	return runewidth.Truncate(s, width, "…")
}
