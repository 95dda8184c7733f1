// Package grid renders a month as a fixed-width, Monday-first text grid.
package grid

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/fatih/color"

	"hyprcal/internal/datemath"
)

// HeaderRow is the first line of every rendered grid.
const HeaderRow = "Mo Tu We Th Fr Sa Su"

// Cell is one day slot. Day is 0 for padding cells.
type Cell struct {
	Day         int
	Highlighted bool
}

// Blank reports whether the cell is padding.
func (c Cell) Blank() bool {
	return c.Day == 0
}

// MonthGrid is the week-by-week layout of a single month. Every row holds
// seven cells; padding fills the first and the last row.
type MonthGrid struct {
	Year  int
	Month int
	Rows  [][]Cell
}

// Build lays out the month. A highlightDay outside the month marks nothing.
func Build(year, month, highlightDay int) MonthGrid {
	offset := datemath.FirstWeekdayOffset(year, month)
	days := datemath.DaysInMonth(year, month)

	g := MonthGrid{Year: year, Month: month}
	row := make([]Cell, 0, 7)
	for i := 0; i < offset; i++ {
		row = append(row, Cell{})
	}
	for d := 1; d <= days; d++ {
		row = append(row, Cell{Day: d, Highlighted: d == highlightDay})
		if len(row) == 7 {
			g.Rows = append(g.Rows, row)
			row = make([]Cell, 0, 7)
		}
	}
	if len(row) > 0 {
		for len(row) < 7 {
			row = append(row, Cell{})
		}
		g.Rows = append(g.Rows, row)
	}
	return g
}

// Render is Build followed by String.
func Render(year, month, highlightDay int) string {
	return Build(year, month, highlightDay).String()
}

// Header returns the "2025 March" caption for a month.
func Header(year, month int) string {
	return fmt.Sprintf("%d %s", year, time.Month(month).String())
}

// String renders the header row followed by one line per week. Each day
// takes two columns plus a separator, so a row lines up under HeaderRow. The
// highlighted day is written as "[15]", its brackets taking the place of the
// separators on either side. Trailing blanks are trimmed and there is no
// final newline.
func (g MonthGrid) String() string {
	var b strings.Builder
	b.WriteString(HeaderRow)
	for _, row := range g.Rows {
		b.WriteByte('\n')
		b.WriteString(renderRow(row, func(c Cell, s string) string { return s }))
	}
	return b.String()
}

// Fprint writes the grid for a terminal, emphasising the highlighted day.
func (g MonthGrid) Fprint(w io.Writer) error {
	hl := color.New(color.Bold, color.FgHiWhite)
	dim := color.New(color.Faint)

	if _, err := fmt.Fprintln(w, dim.Sprint(HeaderRow)); err != nil {
		return err
	}
	for _, row := range g.Rows {
		line := renderRow(row, func(c Cell, s string) string {
			if c.Highlighted {
				return hl.Sprint(s)
			}
			return s
		})
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	return nil
}

func renderRow(row []Cell, paint func(Cell, string) string) string {
	var b strings.Builder
	for i, c := range row {
		// The brackets of a highlighted day stand in for its separators.
		if i > 0 && !row[i-1].Highlighted && !c.Highlighted {
			b.WriteByte(' ')
		}
		switch {
		case c.Blank():
			b.WriteString("  ")
		case c.Highlighted:
			b.WriteString(paint(c, fmt.Sprintf("[%2d]", c.Day)))
		default:
			b.WriteString(paint(c, fmt.Sprintf("%2d", c.Day)))
		}
	}
	return strings.TrimRight(b.String(), " ")
}
