package evaluation

import (
	"regexp"
	"strings"
)

// Column labels recognized in a marking spreadsheet, compared upper-cased.
const (
	LabelName          = "NOM"
	LabelClass         = "CLASSE"
	LabelAccommodation = "PAP"
	LabelRemarks       = "REMARQUES"
	LabelTotal         = "TOTAL"
	bonusMarker        = "BONUS"
)

// QuestionPattern matches question labels: E1, E2.a, E2.1.b.
const QuestionPattern = `^E\d+(\.[.0-9A-Z]+)?$`

var questionRe = regexp.MustCompile(QuestionPattern)

// RubricLabels are the accepted name-column values of the rubric row,
// upper-cased.
var RubricLabels = []string{"BARÊME", "BAREME", "POINTS"}

// Category is the role a column plays in the evaluation.
type Category int

const (
	CategoryOther Category = iota
	CategoryName
	CategoryClass
	CategoryQuestion
	CategoryAccommodation
	CategoryRemarks
	CategoryIgnored
)

func (c Category) String() string {
	switch c {
	case CategoryName:
		return "name"
	case CategoryClass:
		return "class"
	case CategoryQuestion:
		return "question"
	case CategoryAccommodation:
		return "accommodation"
	case CategoryRemarks:
		return "remarks"
	case CategoryIgnored:
		return "ignored"
	default:
		return "other"
	}
}

// Column is a classified spreadsheet column.
type Column struct {
	Index    int
	Label    string
	Category Category
	// Exercise is set for question columns: the label up to the first dot.
	Exercise string
	// Bonus marks extra-credit columns, excluded from the nominal total.
	Bonus bool
}

// Scored reports whether the column counts towards a student's total.
func (c Column) Scored() bool {
	return c.Category == CategoryQuestion || c.Category == CategoryOther
}

// NormalizeLabel trims and upper-cases a column label.
func NormalizeLabel(label string) string {
	return strings.ToUpper(strings.TrimSpace(label))
}

// IsQuestion reports whether a normalized label names a question column.
func IsQuestion(label string) bool {
	return questionRe.MatchString(label)
}

// ExerciseName returns the exercise a question label belongs to.
func ExerciseName(label string) string {
	name, _, _ := strings.Cut(label, ".")
	return name
}

// IsRubricLabel reports whether a name-column value marks the rubric row.
func IsRubricLabel(name string) bool {
	n := NormalizeLabel(name)
	for _, l := range RubricLabels {
		if n == l {
			return true
		}
	}
	return false
}

// Classify assigns a category to every header label. Identity, PAP and
// remarks labels are only honored once; blank labels and labels that clash
// with computed totals are ignored.
func Classify(header []string) []Column {
	cols := make([]Column, len(header))
	seen := map[string]bool{}
	for i, raw := range header {
		label := NormalizeLabel(raw)
		col := Column{Index: i, Label: label}
		switch {
		case label == "" || label == LabelTotal || strings.HasPrefix(label, LabelTotal+" "):
			col.Category = CategoryIgnored
		case label == LabelName, label == LabelClass, label == LabelAccommodation, label == LabelRemarks:
			if seen[label] {
				col.Category = CategoryIgnored
				break
			}
			seen[label] = true
			col.Category = map[string]Category{
				LabelName:          CategoryName,
				LabelClass:         CategoryClass,
				LabelAccommodation: CategoryAccommodation,
				LabelRemarks:       CategoryRemarks,
			}[label]
		case IsQuestion(label):
			col.Category = CategoryQuestion
			col.Exercise = ExerciseName(label)
		default:
			col.Category = CategoryOther
			col.Bonus = strings.Contains(label, bonusMarker)
		}
		cols[i] = col
	}
	return cols
}

// Capabilities records which optional columns the spreadsheet carries.
type Capabilities struct {
	HasClass         bool
	HasAccommodation bool
	HasRemarks       bool
}

func capabilitiesOf(cols []Column) Capabilities {
	var c Capabilities
	for _, col := range cols {
		switch col.Category {
		case CategoryClass:
			c.HasClass = true
		case CategoryAccommodation:
			c.HasAccommodation = true
		case CategoryRemarks:
			c.HasRemarks = true
		}
	}
	return c
}
