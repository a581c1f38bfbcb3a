package report

import (
	"strings"

	"charm.land/lipgloss/v2"
	"charm.land/lipgloss/v2/table"
)

const (
	rubricRowLabel  = "BAREME"
	studentRowLabel = "NOTE"
)

// writePlainCard renders a card as terminal text, using line breaks as block
// separators.
func writePlainCard(b *strings.Builder, c Card, style Style) {
	b.WriteString(c.Heading())
	b.WriteString("\n\n")
	for _, t := range c.Tables {
		b.WriteString(plainTable(t, style))
		b.WriteString("\n")
	}
	if len(c.Remarks) > 0 {
		b.WriteString("\nREMARQUE : ")
		b.WriteString(strings.Join(c.Remarks, "\n"))
		b.WriteString("\n")
	}
	b.WriteString("\n" + c.FinalLine() + "\n")
	if line := c.AccommodationLine(); line != "" {
		b.WriteString("\n" + line + "\n")
	}
	b.WriteString("\n\n" + style.Separator() + "\n\n")
}

func plainTable(t Table, style Style) string {
	rubric := []string{rubricRowLabel}
	student := []string{studentRowLabel}
	for i := range t.Columns {
		rubric = append(rubric, style.short(t.Rubric[i]))
		student = append(student, style.short(t.Student[i]))
	}
	return table.New().
		Border(lipgloss.NormalBorder()).
		Headers(append([]string{""}, t.Columns...)...).
		Row(rubric...).
		Row(student...).
		String()
}
