package report

import (
	"bytes"
	"encoding/json"
	"errors"
	"math"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/witanlabs/marksheet/internal/evaluation"
	"github.com/witanlabs/marksheet/internal/grid"
)

func build(t *testing.T, target float64, header []string, rows ...[]string) *evaluation.Evaluation {
	t.Helper()
	ev, err := evaluation.Build(grid.Parse(header, rows), evaluation.Options{Target: target, AbsentMarker: "ABS"})
	require.NoError(t, err)
	return ev
}

func classEvaluation(t *testing.T) *evaluation.Evaluation {
	return build(t, -1,
		[]string{"NOM", "CLASSE", "E1.a", "E1.b", "E2", "Bonus", "PAP", "Remarques"},
		[]string{"Barême", "", "2", "1", "1.5", "1", "0.5", ""},
		[]string{"Zoé", "3A", "1", "1", "1.5", "", "", "Bon travail, continue ainsi."},
		[]string{"Adam", "3B", "0.5", "", "1", "1", "oui", ""},
		[]string{"Basile", "3A", "ABS", "ABS", "ABS", "", "", ""},
		[]string{"Léa", "3A", "2", "1", "0", "", "", ""},
	)
}

func render(t *testing.T, r Renderer, doc Document) string {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, r.Individual(&buf, doc))
	return buf.String()
}

func TestNewDocument_OrderAndContent(t *testing.T) {
	ev := classEvaluation(t)
	doc := NewDocument("marks", ev, DefaultStyle())

	require.Len(t, doc.Cards, 3)
	assert.Equal(t, []string{"Léa", "Zoé", "Adam"}, []string{doc.Cards[0].Name, doc.Cards[1].Name, doc.Cards[2].Name})
	assert.Equal(t, []string{"Basile"}, doc.Absent)
	assert.Equal(t, "ABSENT : Basile", doc.AbsentLine())

	zoe := doc.Cards[1]
	assert.Equal(t, "NOM : Zoé -- 3A", zoe.Heading())
	require.Len(t, zoe.Tables, 3)
	assert.Equal(t, []string{"E1.A", "E1.B", "TOTAL E1"}, zoe.Tables[0].Columns)
	assert.Equal(t, []Value{{V: 2}, {V: 1}, {V: 3}}, zoe.Tables[0].Rubric)
	assert.Equal(t, []Value{{V: 1}, {V: 1}, {V: 2}}, zoe.Tables[0].Student)
	assert.Equal(t, []string{"E2", "TOTAL E2"}, zoe.Tables[1].Columns)
	assert.Equal(t, []string{"BONUS"}, zoe.Tables[2].Columns)
	assert.True(t, zoe.Tables[2].Student[0].Missing)
	assert.Equal(t, []string{"Bon travail, continue ainsi."}, zoe.Remarks)
	assert.Equal(t, "NOTE FINALE : 3.5/4.5", zoe.FinalLine())
	assert.Empty(t, zoe.AccommodationLine())

	adam := doc.Cards[2]
	assert.True(t, adam.Accommodated)
	assert.Equal(t, "COEFFICIENT PAP : 1.13", adam.AccommodationLine())
	assert.Equal(t, evaluation.Round(2.5*4.5/4, 2), adam.Final)
}

func TestDocument_AbsentLinePlural(t *testing.T) {
	assert.Equal(t, "", Document{}.AbsentLine())
	assert.Equal(t, "ABSENTS : A, B", Document{Absent: []string{"A", "B"}}.AbsentLine())
}

func TestCard_WithoutClass(t *testing.T) {
	ev := build(t, 10,
		[]string{"NOM", "E1", "E2", "E3"},
		[]string{"Barême", "2", "1", "1.5"},
		[]string{"Alice", "1", "1", "1.5"},
	)
	doc := NewDocument("scenario", ev, DefaultStyle())
	require.Len(t, doc.Cards, 1)
	assert.Equal(t, "NOM : Alice", doc.Cards[0].Heading())
	assert.Equal(t, "NOTE FINALE : 7.78/10", doc.Cards[0].FinalLine())
}

func TestRenderer_Plain(t *testing.T) {
	ev := classEvaluation(t)
	doc := NewDocument("marks", ev, DefaultStyle())
	out := render(t, Renderer{Format: Plain, Style: DefaultStyle()}, doc)

	assert.True(t, strings.HasPrefix(out, "NOM : Léa -- 3A\n\n"))
	assert.Contains(t, out, "BAREME")
	assert.Contains(t, out, "TOTAL E1")
	assert.Contains(t, out, "\nREMARQUE : Bon travail, continue ainsi.\n")
	assert.Contains(t, out, "\nNOTE FINALE : 3.5/4.5\n")
	assert.Contains(t, out, "\nCOEFFICIENT PAP : 1.13\n")
	assert.Equal(t, 3, strings.Count(out, strings.Repeat("=", 50)))
	assert.NotContains(t, out, "Basile --")
	assert.True(t, strings.HasSuffix(out, "ABSENT : Basile\n"))
	assert.NotContains(t, out, "<div")
}

func TestRenderer_PlainIsIdempotent(t *testing.T) {
	ev := classEvaluation(t)
	r := Renderer{Format: Plain, Style: DefaultStyle()}
	first := render(t, r, NewDocument("marks", ev, DefaultStyle()))
	second := render(t, r, NewDocument("marks", ev, DefaultStyle()))
	assert.Equal(t, first, second)
}

func TestRenderer_Markup(t *testing.T) {
	ev := classEvaluation(t)
	doc := NewDocument("marks <3A>", ev, DefaultStyle())

	var calls []int
	r := Renderer{Format: Markup, Style: DefaultStyle(), Progress: func(done, total int) {
		assert.Equal(t, 3, total)
		calls = append(calls, done)
	}}
	out := render(t, r, doc)

	assert.True(t, strings.HasPrefix(out, "<!DOCTYPE html>"))
	assert.Contains(t, out, `<meta charset="utf-8">`)
	assert.Contains(t, out, "<title>marks &lt;3A&gt;</title>")
	assert.Contains(t, out, "td,tr,th { border-right: 1px solid black; border-collapse: collapse; text-align: center; }")
	assert.Equal(t, 3, strings.Count(out, "<div style='page-break-inside: avoid;'>"))
	assert.Contains(t, out, "<tr><th>BAREME</th><td>2.00</td><td>1.00</td><td>3.00</td></tr>")
	assert.Contains(t, out, "<br>NOTE FINALE : 3.5/4.5")
	assert.Contains(t, out, "<p>ABSENT : Basile</p>")
	assert.True(t, strings.HasSuffix(out, "</html>\n"))
	assert.Equal(t, []int{1, 2, 3}, calls)
}

func TestRenderer_RemarksWrap(t *testing.T) {
	long := strings.Repeat("très bon travail ", 10)
	ev := build(t, -1,
		[]string{"NOM", "E1", "REMARQUES"},
		[]string{"Barême", "2", ""},
		[]string{"Alice", "1", long},
	)
	style := DefaultStyle()
	doc := NewDocument("wrap", ev, style)
	require.Greater(t, len(doc.Cards[0].Remarks), 1)
	for _, line := range doc.Cards[0].Remarks {
		assert.LessOrEqual(t, len([]rune(line)), style.WrapWidth)
	}
}

type failingWriter struct{}

func (failingWriter) Write([]byte) (int, error) { return 0, errors.New("disk full") }

func TestRenderer_WriteError(t *testing.T) {
	ev := classEvaluation(t)
	err := Renderer{Style: DefaultStyle()}.Individual(failingWriter{}, NewDocument("x", ev, DefaultStyle()))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "disk full")
}

func TestDescribe(t *testing.T) {
	ev := classEvaluation(t)
	st := Describe(ev)

	// Léa 3, Zoé 3.5, Adam 2.5; Basile is absent.
	assert.Equal(t, 3, st.Count)
	assert.InDelta(t, 3, st.Mean, 1e-9)
	assert.InDelta(t, 0.5, st.Std, 1e-9)
	assert.Equal(t, 2.5, st.Min)
	assert.Equal(t, 3.5, st.Max)
	assert.InDelta(t, 2.75, st.Q1, 1e-9)
	assert.InDelta(t, 3, st.Median, 1e-9)
	assert.InDelta(t, 3.25, st.Q3, 1e-9)
}

func TestDescribe_EvenCountQuartiles(t *testing.T) {
	ev := build(t, -1,
		[]string{"NOM", "E1"},
		[]string{"Barême", "4"},
		[]string{"Alice", "1"},
		[]string{"Bob", "2"},
		[]string{"Chloé", "3"},
		[]string{"David", "4"},
	)
	st := Describe(ev)
	assert.Equal(t, 4, st.Count)
	assert.InDelta(t, 1.75, st.Q1, 1e-9)
	assert.InDelta(t, 2.5, st.Median, 1e-9)
	assert.InDelta(t, 3.25, st.Q3, 1e-9)

	text := st.Text(2)
	assert.Contains(t, text, "25%    1.75\n")
	assert.Contains(t, text, "50%    2.50\n")
	assert.Contains(t, text, "75%    3.25\n")
}

func TestQuantile(t *testing.T) {
	for _, tt := range []struct {
		x    []float64
		p    float64
		want float64
	}{
		{[]float64{5}, 0.25, 5},
		{[]float64{1, 2}, 0.5, 1.5},
		{[]float64{1, 2, 3, 4, 5}, 0.25, 2},
		{[]float64{0, 10}, 0.75, 7.5},
		{[]float64{1, 2, 3}, 1, 3},
	} {
		assert.InDelta(t, tt.want, quantile(tt.x, tt.p), 1e-9, "quantile(%v, %v)", tt.x, tt.p)
	}
}

func TestDescribe_SingleStudent(t *testing.T) {
	ev := build(t, -1,
		[]string{"NOM", "E1"},
		[]string{"Barême", "4"},
		[]string{"Alice", "3"},
	)
	st := Describe(ev)
	assert.Equal(t, 1, st.Count)
	assert.Equal(t, 3.0, st.Mean)
	assert.True(t, math.IsNaN(st.Std))
	assert.Equal(t, 3.0, st.Median)

	raw, err := json.Marshal(st)
	require.NoError(t, err)
	assert.Contains(t, string(raw), `"std":null`)
	assert.Contains(t, string(raw), `"count":1`)

	text := st.Text(2)
	assert.Contains(t, text, "count  1\n")
	assert.Contains(t, text, "mean   3.00\n")
	assert.Contains(t, text, "std    NaN\n")
}

func TestRenderer_Class(t *testing.T) {
	ev := classEvaluation(t)
	var buf bytes.Buffer
	require.NoError(t, Renderer{Style: DefaultStyle()}.Class(&buf, ev))
	out := buf.String()
	assert.True(t, strings.HasPrefix(out, "count  3\n"))
	assert.Contains(t, out, "min    2.50\n")
	assert.Contains(t, out, "25%    2.75\n")
	assert.Contains(t, out, "50%    3.00\n")
	assert.Contains(t, out, "75%    3.25\n")
	assert.Contains(t, out, "max    3.50\n")
}

func TestStyle(t *testing.T) {
	s := DefaultStyle()
	assert.Equal(t, "2.00", s.fixed(Value{V: 2}))
	assert.Equal(t, "-", s.fixed(Value{Missing: true}))
	assert.Equal(t, "1.5", s.short(Value{V: 1.5}))
	assert.Equal(t, "0.33", s.short(Value{V: 1.0 / 3}))
	s.BorderCollapse = false
	assert.Equal(t, "td,tr,th { border-right: 1px solid black; text-align: center; }", s.CSS())
}
