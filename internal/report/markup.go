package report

import (
	"html"
	"strings"
)

const lineBreak = "<br>"

func writeMarkupHeader(b *strings.Builder, title string, style Style) {
	b.WriteString("<!DOCTYPE html>\n<html>\n<head>\n<meta charset=\"utf-8\">\n")
	b.WriteString("<title>" + html.EscapeString(title) + "</title>\n")
	b.WriteString("<style>\n" + style.CSS() + "\n</style>\n</head>\n<body>\n")
}

func writeMarkupFooter(b *strings.Builder) {
	b.WriteString("</body>\n</html>\n")
}

// writeMarkupCard renders a card as an HTML block that should not be split
// across pages.
func writeMarkupCard(b *strings.Builder, c Card, style Style) {
	b.WriteString("<div style='page-break-inside: avoid;'>\n")
	b.WriteString(html.EscapeString(c.Heading()) + lineBreak + "\n")
	for _, t := range c.Tables {
		b.WriteString(markupTable(t, style))
	}
	if len(c.Remarks) > 0 {
		lines := make([]string, len(c.Remarks))
		for i, l := range c.Remarks {
			lines[i] = html.EscapeString(l)
		}
		b.WriteString(lineBreak + "REMARQUE : " + strings.Join(lines, lineBreak) + "\n")
	}
	b.WriteString(lineBreak + html.EscapeString(c.FinalLine()) + "\n")
	if line := c.AccommodationLine(); line != "" {
		b.WriteString(lineBreak + html.EscapeString(line) + "\n")
	}
	b.WriteString(strings.Repeat(lineBreak, 2) + style.Separator() + strings.Repeat(lineBreak, 2) + "\n")
	b.WriteString("</div>\n")
}

func markupTable(t Table, style Style) string {
	var b strings.Builder
	b.WriteString("<table>\n<thead>\n<tr><th></th>")
	for _, c := range t.Columns {
		b.WriteString("<th>" + html.EscapeString(c) + "</th>")
	}
	b.WriteString("</tr>\n</thead>\n<tbody>\n")
	writeMarkupRow(&b, rubricRowLabel, t.Rubric, style)
	writeMarkupRow(&b, studentRowLabel, t.Student, style)
	b.WriteString("</tbody>\n</table>\n")
	return b.String()
}

func writeMarkupRow(b *strings.Builder, label string, values []Value, style Style) {
	b.WriteString("<tr><th>" + label + "</th>")
	for _, v := range values {
		b.WriteString("<td>" + style.fixed(v) + "</td>")
	}
	b.WriteString("</tr>\n")
}
