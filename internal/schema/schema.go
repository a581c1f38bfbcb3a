// Package schema checks a marking grid against the expected spreadsheet
// layout. Violations are reported as diagnostics and never stop processing.
package schema

import (
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v6"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/witanlabs/marksheet/internal/evaluation"
	"github.com/witanlabs/marksheet/internal/grid"
)

// Kind identifies the rule a diagnostic comes from.
type Kind string

const (
	KindMissingColumn    Kind = "missing_column"
	KindType             Kind = "type"
	KindRubricLabel      Kind = "rubric_label"
	KindRubricIncomplete Kind = "rubric_incomplete"
	KindRubricTotal      Kind = "rubric_total"
)

// Diagnostic is a single schema violation.
type Diagnostic struct {
	Kind    Kind   `json:"kind"`
	Message string `json:"message"`
	Column  string `json:"column,omitempty"`
	// Row is the 0-indexed data row, or -1 for column-wide rules.
	Row  int    `json:"row"`
	Cell string `json:"cell,omitempty"`
}

// Location returns the most precise place the diagnostic points at.
func (d Diagnostic) Location() string {
	switch {
	case d.Cell != "":
		return d.Cell
	case d.Column != "":
		return d.Column
	default:
		return "-"
	}
}

// rowSchema holds rules (a) to (e): one JSON object per grid row, keyed by
// normalized column label.
func rowSchema() map[string]any {
	nullable := func(t string) map[string]any {
		return map[string]any{"type": []any{t, "null"}}
	}
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			evaluation.LabelName:          map[string]any{"type": "string"},
			evaluation.LabelClass:         nullable("string"),
			evaluation.LabelAccommodation: nullable("number"),
			evaluation.LabelRemarks:       nullable("string"),
		},
		"patternProperties": map[string]any{
			evaluation.QuestionPattern: nullable("number"),
		},
	}
}

const schemaURL = "schema://marksheet-row.json"

var compiledSchema = sync.OnceValues(func() (*jsonschema.Schema, error) {
	// The jsonschema library expects a parsed JSON value, so round-trip the
	// definition through encoding/json.
	raw, err := json.Marshal(rowSchema())
	if err != nil {
		return nil, fmt.Errorf("marshal schema definition: %w", err)
	}
	var def any
	if err := json.Unmarshal(raw, &def); err != nil {
		return nil, fmt.Errorf("parse schema definition: %w", err)
	}
	c := jsonschema.NewCompiler()
	if err := c.AddResource(schemaURL, def); err != nil {
		return nil, fmt.Errorf("add resource: %w", err)
	}
	return c.Compile(schemaURL)
})

var printer = message.NewPrinter(language.English)

// Validate checks g. Cells equal to absentMarker count as 0 for this check.
func Validate(g *grid.Grid, absentMarker string) ([]Diagnostic, error) {
	sch, err := compiledSchema()
	if err != nil {
		return nil, fmt.Errorf("compile row schema: %w", err)
	}
	if absentMarker != "" {
		g = g.ReplaceString(absentMarker, grid.Num(0))
	}

	cols := evaluation.Classify(g.Header)
	nameCol := -1
	for _, c := range cols {
		if c.Category == evaluation.CategoryName {
			nameCol = c.Index
		}
	}

	var diags []Diagnostic
	if nameCol < 0 {
		diags = append(diags, Diagnostic{
			Kind:    KindMissingColumn,
			Message: fmt.Sprintf("missing required column %q", evaluation.LabelName),
			Column:  evaluation.LabelName,
			Row:     -1,
		})
	}

	labelIndex := map[string]int{}
	for _, c := range cols {
		if c.Category != evaluation.CategoryIgnored {
			labelIndex[c.Label] = c.Index
		}
	}

	for i, row := range g.Rows {
		obj := make(map[string]any, len(labelIndex))
		for label, idx := range labelIndex {
			obj[label] = row[idx].Value()
		}
		err := sch.Validate(obj)
		if err == nil {
			continue
		}
		var ve *jsonschema.ValidationError
		if !errors.As(err, &ve) {
			return nil, fmt.Errorf("validating row %d: %w", i+2, err)
		}
		var rowDiags []Diagnostic
		for _, leaf := range leaves(ve) {
			d := Diagnostic{Kind: KindType, Row: i}
			if len(leaf.InstanceLocation) > 0 {
				d.Column = leaf.InstanceLocation[0]
				if idx, ok := labelIndex[d.Column]; ok {
					d.Cell = grid.CellAddress(i, idx)
				}
			}
			d.Message = fmt.Sprintf("%s: %s", d.Column, leaf.ErrorKind.LocalizedString(printer))
			rowDiags = append(rowDiags, d)
		}
		// Causes follow map order; report cells left to right.
		slices.SortStableFunc(rowDiags, func(a, b Diagnostic) int {
			return labelIndex[a.Column] - labelIndex[b.Column]
		})
		diags = append(diags, rowDiags...)
	}

	return append(diags, rubricChecks(g, cols, nameCol)...), nil
}

func leaves(ve *jsonschema.ValidationError) []*jsonschema.ValidationError {
	if len(ve.Causes) == 0 {
		return []*jsonschema.ValidationError{ve}
	}
	var out []*jsonschema.ValidationError
	for _, c := range ve.Causes {
		out = append(out, leaves(c)...)
	}
	return out
}

// rubricChecks holds rules (f) to (h), applied to the first data row.
// Only scored columns count as missing rubric points.
func rubricChecks(g *grid.Grid, cols []evaluation.Column, nameCol int) []Diagnostic {
	if len(g.Rows) == 0 {
		return []Diagnostic{{
			Kind:    KindRubricLabel,
			Message: "no rubric row: the spreadsheet has no data rows",
			Row:     -1,
		}}
	}
	first := g.Rows[0]
	var diags []Diagnostic

	if nameCol >= 0 && !evaluation.IsRubricLabel(first[nameCol].String()) {
		diags = append(diags, Diagnostic{
			Kind:    KindRubricLabel,
			Message: fmt.Sprintf("first row should be labeled Barême, Bareme or Points (got %q)", first[nameCol].String()),
			Column:  evaluation.LabelName,
			Row:     0,
			Cell:    grid.CellAddress(0, nameCol),
		})
	}

	missing := 0
	sum := 0.0
	for i, c := range first {
		// Only scored columns need a rubric value; class and remarks stay blank.
		if cols[i].Scored() && c.IsEmpty() {
			missing++
		}
		sum += c.Float()
	}
	if missing > 1 {
		diags = append(diags, Diagnostic{
			Kind:    KindRubricIncomplete,
			Message: fmt.Sprintf("rubric row has %d missing points (at most 1 allowed)", missing),
			Row:     0,
		})
	}
	if sum <= 0 {
		diags = append(diags, Diagnostic{
			Kind:    KindRubricTotal,
			Message: fmt.Sprintf("rubric row total must be positive (got %g)", sum),
			Row:     0,
		})
	}
	return diags
}
