package schema

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/witanlabs/marksheet/internal/grid"
)

func validGrid() *grid.Grid {
	return grid.Parse(
		[]string{"Nom", "Classe", "E1.a", "E1.b", "Bonus", "PAP", "Remarques"},
		[][]string{
			{"Barême", "", "2", "1.5", "1", "1", ""},
			{"Alice", "3A", "2", "", "", "oui", "Très bien"},
			{"Bob", "3B", "ABS", "ABS", "", "", ""},
		},
	)
}

func kinds(diags []Diagnostic) []Kind {
	var out []Kind
	for _, d := range diags {
		out = append(out, d.Kind)
	}
	return out
}

func TestValidate_Valid(t *testing.T) {
	g := grid.Parse(
		[]string{"NOM", "E1", "E2", "REMARQUES"},
		[][]string{
			{"Barême", "2", "3", ""},
			{"Alice", "1", "2.5", "Bien"},
			{"Bob", "ABS", "ABS", ""},
		},
	)
	diags, err := Validate(g, "ABS")
	require.NoError(t, err)
	assert.Empty(t, diags)
}

func TestValidate_AccommodationMustBeNumeric(t *testing.T) {
	diags, err := Validate(validGrid(), "ABS")
	require.NoError(t, err)

	require.Len(t, diags, 1)
	d := diags[0]
	assert.Equal(t, KindType, d.Kind)
	assert.Equal(t, "PAP", d.Column)
	assert.Equal(t, 1, d.Row)
	assert.Equal(t, "F3", d.Cell)
	assert.Contains(t, d.Message, "PAP")
}

func TestValidate_TypeErrors(t *testing.T) {
	g := grid.Parse(
		[]string{"NOM", "E1", "E2", "REMARQUES"},
		[][]string{
			{"Barême", "2", "3", ""},
			{"12", "bad", "x", "5"},
		},
	)
	diags, err := Validate(g, "ABS")
	require.NoError(t, err)

	require.Len(t, diags, 4)
	assert.Equal(t, []string{"NOM", "E1", "E2", "REMARQUES"},
		[]string{diags[0].Column, diags[1].Column, diags[2].Column, diags[3].Column})
	assert.Equal(t, "B3", diags[1].Cell)
	for _, d := range diags {
		assert.Equal(t, KindType, d.Kind)
	}
}

func TestValidate_WithoutMarkerReplacementFlagsSentinel(t *testing.T) {
	g := grid.Parse(
		[]string{"NOM", "E1"},
		[][]string{{"Barême", "2"}, {"Alice", "ABS"}},
	)
	diags, err := Validate(g, "")
	require.NoError(t, err)
	assert.Equal(t, []Kind{KindType}, kinds(diags))
}

func TestValidate_MissingNameColumn(t *testing.T) {
	g := grid.Parse(
		[]string{"ELEVE", "E1"},
		[][]string{{"Barême", "2"}, {"Alice", "1"}},
	)
	diags, err := Validate(g, "ABS")
	require.NoError(t, err)

	require.NotEmpty(t, diags)
	assert.Equal(t, KindMissingColumn, diags[0].Kind)
	assert.Equal(t, "NOM", diags[0].Location())
}

func TestValidate_RubricRules(t *testing.T) {
	t.Run("mislabeled", func(t *testing.T) {
		g := grid.Parse([]string{"NOM", "E1"}, [][]string{{"Max", "2"}, {"A", "1"}})
		diags, err := Validate(g, "ABS")
		require.NoError(t, err)
		assert.Equal(t, []Kind{KindRubricLabel}, kinds(diags))
		assert.Equal(t, "A2", diags[0].Location())
	})

	t.Run("missing points", func(t *testing.T) {
		g := grid.Parse([]string{"NOM", "E1", "E2", "E3"}, [][]string{{"Barême", "2", "", ""}, {"A", "1", "1", "1"}})
		diags, err := Validate(g, "ABS")
		require.NoError(t, err)
		assert.Equal(t, []Kind{KindRubricIncomplete}, kinds(diags))
	})

	t.Run("one missing point is tolerated", func(t *testing.T) {
		g := grid.Parse([]string{"NOM", "E1", "E2"}, [][]string{{"Barême", "2", ""}, {"A", "1", "1"}})
		diags, err := Validate(g, "ABS")
		require.NoError(t, err)
		assert.Empty(t, diags)
	})

	t.Run("zero total", func(t *testing.T) {
		g := grid.Parse([]string{"NOM", "E1", "E2"}, [][]string{{"Barême", "0", "0"}, {"A", "1", "1"}})
		diags, err := Validate(g, "ABS")
		require.NoError(t, err)
		assert.Equal(t, []Kind{KindRubricTotal}, kinds(diags))
	})

	t.Run("no rows", func(t *testing.T) {
		g := grid.Parse([]string{"NOM", "E1"}, nil)
		diags, err := Validate(g, "ABS")
		require.NoError(t, err)
		assert.Equal(t, []Kind{KindRubricLabel}, kinds(diags))
	})
}

func TestDiagnostic_Location(t *testing.T) {
	assert.Equal(t, "C4", Diagnostic{Cell: "C4", Column: "E1"}.Location())
	assert.Equal(t, "E1", Diagnostic{Column: "E1"}.Location())
	assert.Equal(t, "-", Diagnostic{}.Location())
}
