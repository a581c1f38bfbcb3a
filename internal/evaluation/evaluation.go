// Package evaluation turns a marking grid into per-student totals, exercise
// totals and rescaling coefficients.
package evaluation

import (
	"fmt"
	"math"
	"strings"

	"github.com/witanlabs/marksheet/internal/grid"
)

// DefaultAbsentMarker is the cell value meaning a student missed the test.
const DefaultAbsentMarker = "ABS"

// Options control how an evaluation is built.
type Options struct {
	// Target is the total to rescale final scores to. Negative means use the
	// rubric total unscaled.
	Target       float64
	AbsentMarker string
}

// DefaultOptions returns unscaled options with the default absence marker.
func DefaultOptions() Options {
	return Options{Target: -1, AbsentMarker: DefaultAbsentMarker}
}

// Student is one data row of the grid.
type Student struct {
	Row          int
	Name         string
	Class        string
	Absent       bool
	Accommodated bool
	Total        float64
	Remarks      string
}

// Exercise groups the question columns sharing a label prefix.
type Exercise struct {
	Name      string
	Questions []string
}

// TotalLabel is the label of the computed exercise total column.
func (e Exercise) TotalLabel() string {
	return LabelTotal + " " + e.Name
}

// Score is one cell of the long index.
type Score struct {
	Value   float64
	Missing bool
}

type cellKey struct {
	row   int
	label string
}

// Evaluation is the aggregated model of a marking grid. It is built once by
// Build and only read afterwards.
type Evaluation struct {
	Columns      []Column
	Exercises    []Exercise
	Other        []string
	Capabilities Capabilities

	// Rubric is nil when no row carries an accepted rubric label.
	Rubric   *Student
	Students []Student

	Nominal             float64
	Target              float64
	Rescale             float64
	AccommodationBudget float64

	scores  map[cellKey]Score
	scored  int
	missing int
}

// Build aggregates a grid. The grid is not modified.
func Build(g *grid.Grid, opts Options) (*Evaluation, error) {
	if g == nil || len(g.Rows) < 2 {
		return nil, &StructuralError{Reason: "expected a rubric row and at least one student row"}
	}
	if opts.AbsentMarker == "" {
		opts.AbsentMarker = DefaultAbsentMarker
	}

	cols := Classify(g.Header)
	ev := &Evaluation{
		Columns:      cols,
		Capabilities: capabilitiesOf(cols),
		scores:       make(map[cellKey]Score),
	}

	nameCol, classCol, papCol, remarksCol := -1, -1, -1, -1
	var questions []Column
	exIndex := map[string]int{}
	for _, c := range cols {
		switch c.Category {
		case CategoryName:
			nameCol = c.Index
		case CategoryClass:
			classCol = c.Index
		case CategoryAccommodation:
			papCol = c.Index
		case CategoryRemarks:
			remarksCol = c.Index
		case CategoryQuestion:
			questions = append(questions, c)
			i, ok := exIndex[c.Exercise]
			if !ok {
				i = len(ev.Exercises)
				exIndex[c.Exercise] = i
				ev.Exercises = append(ev.Exercises, Exercise{Name: c.Exercise})
			}
			ev.Exercises[i].Questions = append(ev.Exercises[i].Questions, c.Label)
		case CategoryOther:
			ev.Other = append(ev.Other, c.Label)
		}
		if c.Scored() {
			ev.scored++
		}
	}
	if nameCol < 0 {
		return nil, &StructuralError{Reason: fmt.Sprintf("missing %q column", LabelName)}
	}
	if len(questions) == 0 {
		return nil, &StructuralError{Reason: "no question column (labels like E1, E2.a)"}
	}

	rubricRow := -1
	for i, row := range g.Rows {
		if IsRubricLabel(row[nameCol].String()) {
			rubricRow = i
			break
		}
	}

	// Absent students are detected before the sentinel turns into zero.
	absent := map[int]bool{}
	for i, row := range g.Rows {
		if i == rubricRow {
			continue
		}
		all := true
		for _, q := range questions {
			c := row[q.Index]
			if c.Kind != grid.String || strings.TrimSpace(c.Str) != opts.AbsentMarker {
				all = false
				break
			}
		}
		absent[i] = all
	}
	g = g.ReplaceString(opts.AbsentMarker, grid.Num(0))

	for i, row := range g.Rows {
		s := Student{
			Row:     i,
			Name:    strings.TrimSpace(row[nameCol].String()),
			Absent:  absent[i],
			Remarks: cellText(row, remarksCol),
			Class:   cellText(row, classCol),
		}
		exTotals := make([]float64, len(ev.Exercises))
		for _, c := range cols {
			if !c.Scored() {
				continue
			}
			cell := row[c.Index]
			sc := Score{Value: cell.Float(), Missing: cell.IsEmpty()}
			ev.scores[cellKey{i, c.Label}] = sc
			s.Total += sc.Value
			if c.Category == CategoryQuestion {
				exTotals[exIndex[c.Exercise]] += sc.Value
			}
			if sc.Missing && i != rubricRow {
				ev.missing++
			}
		}
		for j, ex := range ev.Exercises {
			ev.scores[cellKey{i, ex.TotalLabel()}] = Score{Value: exTotals[j]}
		}
		ev.scores[cellKey{i, LabelTotal}] = Score{Value: s.Total}

		if i == rubricRow {
			r := s
			ev.Rubric = &r
			if papCol >= 0 {
				ev.AccommodationBudget = row[papCol].Float()
			}
			continue
		}
		s.Accommodated = papCol >= 0 && !row[papCol].IsEmpty()
		ev.Students = append(ev.Students, s)
	}

	if ev.Rubric != nil {
		bonus := 0.0
		for _, c := range cols {
			if c.Bonus {
				bonus += ev.scores[cellKey{rubricRow, c.Label}].Value
			}
		}
		ev.Nominal = ev.Rubric.Total - bonus
	}
	if ev.Nominal <= 0 {
		return nil, &ArithmeticError{Err: ErrZeroTotal, Nominal: ev.Nominal}
	}

	ev.Target, ev.Rescale = ev.Nominal, 1
	if opts.Target >= 0 {
		ev.Target = opts.Target
		ev.Rescale = opts.Target / ev.Nominal
	}

	if ev.Nominal-ev.AccommodationBudget <= 0 {
		for _, s := range ev.Students {
			if s.Accommodated {
				return nil, &ArithmeticError{Err: ErrZeroAccommodationTotal, Nominal: ev.Nominal, Budget: ev.AccommodationBudget}
			}
		}
	}
	return ev, nil
}

func cellText(row []grid.Cell, col int) string {
	if col < 0 {
		return ""
	}
	return strings.TrimSpace(row[col].String())
}

// Score returns a student's value for a column label, including the
// computed TOTAL and TOTAL <exercise> columns.
func (ev *Evaluation) Score(row int, label string) (Score, bool) {
	s, ok := ev.scores[cellKey{row, label}]
	return s, ok
}

// RubricScore returns the rubric row's value for a column label.
func (ev *Evaluation) RubricScore(label string) (Score, bool) {
	if ev.Rubric == nil {
		return Score{}, false
	}
	return ev.Score(ev.Rubric.Row, label)
}

// ExerciseColumns lists an exercise's question labels followed by its total.
func (ev *Evaluation) ExerciseColumns(ex Exercise) []string {
	return append(append([]string(nil), ex.Questions...), ex.TotalLabel())
}

// AccommodationRatio is the multiplier applied to PAP recipients before
// rescaling.
func (ev *Evaluation) AccommodationRatio() float64 {
	return ev.Nominal / (ev.Nominal - ev.AccommodationBudget)
}

// Coefficient is the multiplier turning a student's raw total into the final
// score.
func (ev *Evaluation) Coefficient(s Student) float64 {
	if s.Accommodated {
		return ev.AccommodationRatio() * ev.Rescale
	}
	return ev.Rescale
}

// FinalScore is the student's rescaled total, rounded to 2 decimals.
func (ev *Evaluation) FinalScore(s Student) float64 {
	return Round(s.Total*ev.Coefficient(s), 2)
}

// Present returns the students who sat the test, in grid order.
func (ev *Evaluation) Present() []Student {
	out := make([]Student, 0, len(ev.Students))
	for _, s := range ev.Students {
		if !s.Absent {
			out = append(out, s)
		}
	}
	return out
}

// Absentees returns the names of absent students, in grid order.
func (ev *Evaluation) Absentees() []string {
	var out []string
	for _, s := range ev.Students {
		if s.Absent {
			out = append(out, s.Name)
		}
	}
	return out
}

// Round rounds v to the given number of decimals.
func Round(v float64, decimals int) float64 {
	p := math.Pow(10, float64(decimals))
	return math.Round(v*p) / p
}
