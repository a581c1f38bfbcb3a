// Package pdf writes report cards to a paginated PDF document.
package pdf

import (
	"strconv"

	"github.com/go-pdf/fpdf"

	"github.com/witanlabs/marksheet/internal/report"
)

const (
	lineHeight  = 6.0
	labelWidth  = 22.0
	maxColWidth = 26.0
	tableGap    = 2.0
	fontFamily  = "Helvetica"
	fontSize    = 10.0
)

// RenderError reports a failure to produce the output document.
type RenderError struct {
	Path string
	Err  error
}

func (e *RenderError) Error() string {
	return "writing " + e.Path + ": " + e.Err.Error()
}

func (e *RenderError) Unwrap() error { return e.Err }

// Write renders doc to an A4 PDF at path. A card starts on a new page when it
// would not fit on the current one. progress, when non-nil, is called after
// each card.
func Write(path string, doc report.Document, style report.Style, progress func(done, total int)) error {
	p := fpdf.New("P", "mm", "A4", "")
	p.SetTitle(doc.Title, true)
	p.SetCreator("marksheet", true)
	tr := p.UnicodeTranslatorFromDescriptor("")

	p.AddPage()
	p.SetFont(fontFamily, "", fontSize)

	w := &writer{pdf: p, tr: tr, style: style}
	_, pageH := p.GetPageSize()
	_, top, _, bottom := p.GetMargins()
	usableH := pageH - top - bottom

	for i, c := range doc.Cards {
		h := cardHeight(c)
		if p.GetY()+h > pageH-bottom && h <= usableH {
			p.AddPage()
		}
		w.card(c)
		if progress != nil {
			progress(i+1, len(doc.Cards))
		}
	}
	if line := doc.AbsentLine(); line != "" {
		w.line(line)
	}

	if err := p.OutputFileAndClose(path); err != nil {
		return &RenderError{Path: path, Err: err}
	}
	return nil
}

type writer struct {
	pdf   *fpdf.Fpdf
	tr    func(string) string
	style report.Style
}

func (w *writer) line(s string) {
	w.pdf.CellFormat(0, lineHeight, w.tr(s), "", 1, "L", false, 0, "")
}

func (w *writer) card(c report.Card) {
	w.pdf.SetFont(fontFamily, "B", fontSize+1)
	w.line(c.Heading())
	w.pdf.SetFont(fontFamily, "", fontSize)
	w.pdf.Ln(tableGap)

	for _, t := range c.Tables {
		w.table(t)
	}
	if len(c.Remarks) > 0 {
		w.line("REMARQUE :")
		for _, r := range c.Remarks {
			w.line("  " + r)
		}
	}
	w.line(c.FinalLine())
	if l := c.AccommodationLine(); l != "" {
		w.line(l)
	}

	pageW, _ := w.pdf.GetPageSize()
	left, _, right, _ := w.pdf.GetMargins()
	y := w.pdf.GetY() + lineHeight/2
	w.pdf.Line(left, y, pageW-right, y)
	w.pdf.SetY(y + lineHeight/2)
}

func (w *writer) table(t report.Table) {
	pageW, _ := w.pdf.GetPageSize()
	left, _, right, _ := w.pdf.GetMargins()
	colW := (pageW - left - right - labelWidth) / float64(len(t.Columns))
	if colW > maxColWidth {
		colW = maxColWidth
	}
	align := alignment(w.style.TextAlign)

	w.pdf.SetFont(fontFamily, "B", fontSize)
	w.pdf.CellFormat(labelWidth, lineHeight, "", "1", 0, align, false, 0, "")
	for _, c := range t.Columns {
		w.pdf.CellFormat(colW, lineHeight, w.tr(c), "1", 0, align, false, 0, "")
	}
	w.pdf.Ln(-1)

	w.row("BAREME", t.Rubric, colW, align)
	w.row("NOTE", t.Student, colW, align)
	w.pdf.Ln(tableGap)
}

func (w *writer) row(label string, values []report.Value, colW float64, align string) {
	w.pdf.SetFont(fontFamily, "B", fontSize)
	w.pdf.CellFormat(labelWidth, lineHeight, label, "1", 0, align, false, 0, "")
	w.pdf.SetFont(fontFamily, "", fontSize)
	for _, v := range values {
		text := "-"
		if !v.Missing {
			text = strconv.FormatFloat(v.V, 'f', w.style.Precision, 64)
		}
		w.pdf.CellFormat(colW, lineHeight, text, "1", 0, align, false, 0, "")
	}
	w.pdf.Ln(-1)
}

func alignment(textAlign string) string {
	switch textAlign {
	case "left":
		return "L"
	case "right":
		return "R"
	default:
		return "C"
	}
}

// cardHeight estimates the vertical space a card takes, in mm.
func cardHeight(c report.Card) float64 {
	h := lineHeight + tableGap
	h += float64(len(c.Tables)) * (3*lineHeight + tableGap)
	if len(c.Remarks) > 0 {
		h += float64(len(c.Remarks)+1) * lineHeight
	}
	h += lineHeight
	if c.Accommodated {
		h += lineHeight
	}
	return h + lineHeight
}
