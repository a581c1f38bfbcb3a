package report

import (
	"fmt"
	"html"
	"io"
	"strings"

	"github.com/witanlabs/marksheet/internal/evaluation"
)

// Format selects plain text or HTML markup output.
type Format int

const (
	Plain Format = iota
	Markup
)

// Renderer writes reports for one evaluation.
type Renderer struct {
	Format Format
	Style  Style
	// Progress, when set, is called after each card is written.
	Progress func(done, total int)
}

// Individual writes one card per present student followed by the absentee
// summary. Each card is written to w as a separate chunk.
func (r Renderer) Individual(w io.Writer, doc Document) error {
	var b strings.Builder
	if r.Format == Markup {
		writeMarkupHeader(&b, doc.Title, r.Style)
		if err := flush(w, &b); err != nil {
			return err
		}
	}

	for i, c := range doc.Cards {
		if r.Format == Markup {
			writeMarkupCard(&b, c, r.Style)
		} else {
			writePlainCard(&b, c, r.Style)
		}
		if err := flush(w, &b); err != nil {
			return err
		}
		if r.Progress != nil {
			r.Progress(i+1, len(doc.Cards))
		}
	}

	if line := doc.AbsentLine(); line != "" {
		if r.Format == Markup {
			b.WriteString("<p>" + html.EscapeString(line) + "</p>\n")
		} else {
			b.WriteString(line + "\n")
		}
	}
	if r.Format == Markup {
		writeMarkupFooter(&b)
	}
	return flush(w, &b)
}

// Class writes descriptive statistics of the students' totals.
func (r Renderer) Class(w io.Writer, ev *evaluation.Evaluation) error {
	st := Describe(ev)
	_, err := io.WriteString(w, st.Text(r.Style.Precision))
	return err
}

func flush(w io.Writer, b *strings.Builder) error {
	if b.Len() == 0 {
		return nil
	}
	_, err := io.WriteString(w, b.String())
	b.Reset()
	if err != nil {
		return fmt.Errorf("writing report: %w", err)
	}
	return nil
}
