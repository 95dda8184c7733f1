package grid

import (
	"bytes"
	"strconv"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hyprcal/internal/datemath"
)

func TestRenderMarch2025(t *testing.T) {
	out := Render(2025, 3, 15)
	lines := strings.Split(out, "\n")

	require.Len(t, lines, 7)
	assert.Equal(t, HeaderRow, lines[0])
	// March 1st 2025 is a Saturday: five blank cells precede it.
	assert.Equal(t, strings.Repeat(" ", 15)+" 1  2", lines[1])
	assert.Equal(t, " 3  4  5  6  7  8  9", lines[2])
	assert.Equal(t, "10 11 12 13 14[15]16", lines[3])
	assert.Equal(t, "31", lines[6])
}

func TestRenderHasOneCellPerDay(t *testing.T) {
	for year := 2000; year <= 2030; year++ {
		for month := 1; month <= 12; month++ {
			out := Render(year, month, 0)
			lines := strings.Split(out, "\n")
			require.Equal(t, HeaderRow, lines[0])

			var days []int
			for _, line := range lines[1:] {
				assert.NotContains(t, line, HeaderRow)
				for _, f := range strings.Fields(line) {
					n, err := strconv.Atoi(f)
					require.NoError(t, err)
					days = append(days, n)
				}
			}
			require.Len(t, days, datemath.DaysInMonth(year, month), "%d-%02d", year, month)
			for i, d := range days {
				assert.Equal(t, i+1, d)
			}
		}
	}
}

func TestRenderHighlightOutOfRange(t *testing.T) {
	testCases := []struct {
		name string
		day  int
	}{
		{name: "zero", day: 0},
		{name: "negative", day: -3},
		{name: "past month end", day: 31},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			out := Render(2025, 4, tc.day)
			assert.NotContains(t, out, "[")
			assert.Equal(t, Render(2025, 4, 0), out)
		})
	}
}

func TestRenderHighlightMonday(t *testing.T) {
	lines := strings.Split(Render(2025, 3, 3), "\n")
	assert.Equal(t, "[ 3] 4  5  6  7  8  9", lines[2])
}

func TestBuild(t *testing.T) {
	g := Build(2025, 6, 10)
	require.Len(t, g.Rows, 6)
	for _, row := range g.Rows {
		assert.Len(t, row, 7)
	}
	// June 2025 starts on a Sunday.
	assert.True(t, g.Rows[0][5].Blank())
	assert.Equal(t, 1, g.Rows[0][6].Day)

	highlighted := 0
	for _, row := range g.Rows {
		for _, c := range row {
			if c.Highlighted {
				highlighted++
				assert.Equal(t, 10, c.Day)
			}
		}
	}
	assert.Equal(t, 1, highlighted)
}

func TestHeader(t *testing.T) {
	assert.Equal(t, "2025 March", Header(2025, 3))
}

func TestFprint(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Build(2025, 3, 15).Fprint(&buf))
	assert.Contains(t, buf.String(), "[15]")
	assert.Contains(t, buf.String(), "Mo Tu We")
}
