// Package grid holds the raw cell grid read from a marking spreadsheet.
package grid

import (
	"math"
	"strconv"
	"strings"
)

// Kind tells which of the three cell shapes a Cell holds.
type Kind int

const (
	Empty Kind = iota
	String
	Number
)

func (k Kind) String() string {
	switch k {
	case String:
		return "string"
	case Number:
		return "number"
	default:
		return "empty"
	}
}

// Cell is a single spreadsheet value: empty, text or a number.
type Cell struct {
	Kind Kind
	Str  string
	Num  float64
}

// Text returns a string cell.
func Text(s string) Cell { return Cell{Kind: String, Str: s} }

// Num returns a numeric cell.
func Num(v float64) Cell { return Cell{Kind: Number, Num: v} }

// IsEmpty reports whether the cell holds no value.
func (c Cell) IsEmpty() bool { return c.Kind == Empty }

// Float returns the numeric value of the cell. Empty and text cells count as 0.
func (c Cell) Float() float64 {
	if c.Kind == Number {
		return c.Num
	}
	return 0
}

// Value returns the cell as a JSON-like value: nil, string or float64.
func (c Cell) Value() any {
	switch c.Kind {
	case String:
		return c.Str
	case Number:
		return c.Num
	default:
		return nil
	}
}

// String formats the cell for display. Numbers use the shortest exact form.
func (c Cell) String() string {
	switch c.Kind {
	case String:
		return c.Str
	case Number:
		return strconv.FormatFloat(c.Num, 'f', -1, 64)
	default:
		return ""
	}
}

// Grid is a rows × columns table with one header row of labels.
// Every row has exactly len(Header) cells.
type Grid struct {
	Header []string
	Rows   [][]Cell
}

// ParseCell converts a raw spreadsheet string into a typed cell.
// Decimal commas ("1,5") are accepted.
func ParseCell(raw string) Cell {
	s := strings.TrimSpace(raw)
	if s == "" {
		return Cell{}
	}
	if v, ok := parseNumber(s); ok {
		return Num(v)
	}
	return Text(raw)
}

func parseNumber(s string) (float64, bool) {
	if strings.Count(s, ",") == 1 && !strings.Contains(s, ".") {
		s = strings.Replace(s, ",", ".", 1)
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	return v, true
}

// Parse builds a grid from a header and raw string records. Short records are
// padded with empty cells, long ones truncated, and trailing blank records
// dropped.
func Parse(header []string, records [][]string) *Grid {
	g := &Grid{Header: append([]string(nil), header...)}
	for _, rec := range records {
		row := make([]Cell, len(header))
		for i := range row {
			if i < len(rec) {
				row[i] = ParseCell(rec[i])
			}
		}
		g.Rows = append(g.Rows, row)
	}
	for len(g.Rows) > 0 && blank(g.Rows[len(g.Rows)-1]) {
		g.Rows = g.Rows[:len(g.Rows)-1]
	}
	return g
}

func blank(row []Cell) bool {
	for _, c := range row {
		if !c.IsEmpty() {
			return false
		}
	}
	return true
}

// Width returns the number of columns.
func (g *Grid) Width() int { return len(g.Header) }

// Clone returns a deep copy of the grid.
func (g *Grid) Clone() *Grid {
	c := &Grid{Header: append([]string(nil), g.Header...), Rows: make([][]Cell, len(g.Rows))}
	for i, row := range g.Rows {
		c.Rows[i] = append([]Cell(nil), row...)
	}
	return c
}

// ReplaceString returns a copy of the grid in which every text cell equal to
// marker is replaced by with.
func (g *Grid) ReplaceString(marker string, with Cell) *Grid {
	c := g.Clone()
	for _, row := range c.Rows {
		for j, cell := range row {
			if cell.Kind == String && strings.TrimSpace(cell.Str) == marker {
				row[j] = with
			}
		}
	}
	return c
}
