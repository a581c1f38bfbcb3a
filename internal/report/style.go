package report

import (
	"strconv"
	"strings"

	"github.com/witanlabs/marksheet/internal/evaluation"
)

// Style is the small style sheet shared by every output format.
type Style struct {
	Border         string
	BorderCollapse bool
	TextAlign      string
	// Precision is the number of decimals shown in markup and PDF tables.
	Precision      int
	WrapWidth      int
	SeparatorWidth int
}

// DefaultStyle has thin right borders, centered cells and two decimals.
// Remarks wrap at 50 columns.
func DefaultStyle() Style {
	return Style{
		Border:         "1px solid black",
		BorderCollapse: true,
		TextAlign:      "center",
		Precision:      2,
		WrapWidth:      50,
		SeparatorWidth: 50,
	}
}

// CSS renders the table rules of the style sheet.
func (s Style) CSS() string {
	rules := []string{"border-right: " + s.Border}
	if s.BorderCollapse {
		rules = append(rules, "border-collapse: collapse")
	}
	rules = append(rules, "text-align: "+s.TextAlign)
	return "td,tr,th { " + strings.Join(rules, "; ") + "; }"
}

// Separator is the rule printed between two report cards.
func (s Style) Separator() string {
	return strings.Repeat("=", s.SeparatorWidth)
}

// fixed formats a value with the style's precision ("2.00").
func (s Style) fixed(v Value) string {
	if v.Missing {
		return "-"
	}
	return strconv.FormatFloat(v.V, 'f', s.Precision, 64)
}

// short formats a value in its shortest exact form after rounding ("2", "1.5").
func (s Style) short(v Value) string {
	if v.Missing {
		return "-"
	}
	return formatNumber(evaluation.Round(v.V, s.Precision))
}

func formatNumber(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func formatRatio(v float64) string {
	return formatNumber(evaluation.Round(v, 2))
}
