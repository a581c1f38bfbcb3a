// Package report projects an evaluation into per-student report cards and
// class statistics, as plain text or HTML markup.
package report

import (
	"cmp"
	"slices"
	"strings"

	"github.com/mitchellh/go-wordwrap"

	"github.com/witanlabs/marksheet/internal/evaluation"
)

// Value is one table cell of a report card.
type Value struct {
	V       float64
	Missing bool
}

// Table compares the rubric with a student's scores over a set of columns.
type Table struct {
	Columns []string
	Rubric  []Value
	Student []Value
}

// Card is the report of a single student.
type Card struct {
	Name         string
	Class        string
	Tables       []Table
	Remarks      []string
	Final        float64
	Target       float64
	Accommodated bool
	Ratio        float64
}

// Heading is the first line of the card.
func (c Card) Heading() string {
	if c.Class != "" {
		return "NOM : " + c.Name + " -- " + c.Class
	}
	return "NOM : " + c.Name
}

// FinalLine reports the final score out of the target total.
func (c Card) FinalLine() string {
	return "NOTE FINALE : " + formatNumber(c.Final) + "/" + formatNumber(c.Target)
}

// AccommodationLine reports the PAP coefficient; empty for other students.
func (c Card) AccommodationLine() string {
	if !c.Accommodated {
		return ""
	}
	return "COEFFICIENT PAP : " + formatRatio(c.Ratio)
}

// Document is everything the individual report prints.
type Document struct {
	Title  string
	Cards  []Card
	Absent []string
}

// AbsentLine summarizes absent students; empty when nobody was absent.
func (d Document) AbsentLine() string {
	switch len(d.Absent) {
	case 0:
		return ""
	case 1:
		return "ABSENT : " + d.Absent[0]
	default:
		return "ABSENTS : " + strings.Join(d.Absent, ", ")
	}
}

// NewDocument builds one card per present student, ordered by class then
// name. Duplicate names each keep their own card.
func NewDocument(title string, ev *evaluation.Evaluation, style Style) Document {
	students := ev.Present()
	slices.SortStableFunc(students, func(a, b evaluation.Student) int {
		if ev.Capabilities.HasClass {
			if c := cmp.Compare(a.Class, b.Class); c != 0 {
				return c
			}
		}
		return cmp.Compare(a.Name, b.Name)
	})

	doc := Document{Title: title, Absent: ev.Absentees()}
	for _, s := range students {
		doc.Cards = append(doc.Cards, newCard(ev, s, style))
	}
	return doc
}

func newCard(ev *evaluation.Evaluation, s evaluation.Student, style Style) Card {
	c := Card{
		Name:         s.Name,
		Final:        ev.FinalScore(s),
		Target:       ev.Target,
		Accommodated: s.Accommodated,
	}
	if ev.Capabilities.HasClass {
		c.Class = s.Class
	}
	if s.Accommodated {
		c.Ratio = ev.AccommodationRatio()
	}
	for _, ex := range ev.Exercises {
		c.Tables = append(c.Tables, newTable(ev, s, ev.ExerciseColumns(ex)))
	}
	for _, label := range ev.Other {
		c.Tables = append(c.Tables, newTable(ev, s, []string{label}))
	}
	if s.Remarks != "" {
		c.Remarks = strings.Split(wordwrap.WrapString(s.Remarks, uint(style.WrapWidth)), "\n")
	}
	return c
}

func newTable(ev *evaluation.Evaluation, s evaluation.Student, labels []string) Table {
	t := Table{Columns: labels}
	for _, l := range labels {
		r, ok := ev.RubricScore(l)
		t.Rubric = append(t.Rubric, Value{V: r.Value, Missing: !ok || r.Missing})
		v, ok := ev.Score(s.Row, l)
		t.Student = append(t.Student, Value{V: v.Value, Missing: !ok || v.Missing})
	}
	return t
}
