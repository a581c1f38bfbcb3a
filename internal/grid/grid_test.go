package grid

import "testing"

func TestParseCell(t *testing.T) {
	tests := []struct {
		raw  string
		want Cell
	}{
		{"", Cell{}},
		{"   ", Cell{}},
		{"1.5", Num(1.5)},
		{" 2 ", Num(2)},
		{"1,25", Num(1.25)},
		{"-3", Num(-3)},
		{"ABS", Text("ABS")},
		{"Barême", Text("Barême")},
		{"NaN", Text("NaN")},
		{"1,000.5", Text("1,000.5")},
	}
	for _, tt := range tests {
		if got := ParseCell(tt.raw); got != tt.want {
			t.Errorf("ParseCell(%q) = %+v, want %+v", tt.raw, got, tt.want)
		}
	}
}

func TestParse_PadsAndTrims(t *testing.T) {
	g := Parse(
		[]string{"NOM", "E1", "E2"},
		[][]string{
			{"Barême", "2", "3"},
			{"Alice", "1"},
			{"Bob", "2", "1", "extra"},
			{"", "", ""},
			{},
		},
	)
	if len(g.Rows) != 3 {
		t.Fatalf("expected 3 rows after trimming blanks, got %d", len(g.Rows))
	}
	for i, row := range g.Rows {
		if len(row) != 3 {
			t.Errorf("row %d has %d cells, want 3", i, len(row))
		}
	}
	if !g.Rows[1][2].IsEmpty() {
		t.Errorf("expected padded cell to be empty, got %+v", g.Rows[1][2])
	}
	if g.Rows[2][2] != Num(1) {
		t.Errorf("unexpected cell: %+v", g.Rows[2][2])
	}
}

func TestGrid_ReplaceString(t *testing.T) {
	g := Parse([]string{"NOM", "E1"}, [][]string{{"Alice", "ABS"}, {"Bob", "2"}})
	r := g.ReplaceString("ABS", Num(0))

	if r.Rows[0][1] != Num(0) {
		t.Errorf("sentinel not replaced: %+v", r.Rows[0][1])
	}
	if g.Rows[0][1] != Text("ABS") {
		t.Errorf("original grid was modified: %+v", g.Rows[0][1])
	}
	if r.Rows[0][0] != Text("Alice") {
		t.Errorf("unrelated cell changed: %+v", r.Rows[0][0])
	}
}

func TestCell_StringAndValue(t *testing.T) {
	if got := Num(3.5).String(); got != "3.5" {
		t.Errorf("Num(3.5).String() = %q", got)
	}
	if got := Num(10).String(); got != "10" {
		t.Errorf("Num(10).String() = %q", got)
	}
	if v := (Cell{}).Value(); v != nil {
		t.Errorf("empty Value() = %v, want nil", v)
	}
	if v := Text("x").Value(); v != "x" {
		t.Errorf("text Value() = %v", v)
	}
	if f := Text("x").Float(); f != 0 {
		t.Errorf("text Float() = %v, want 0", f)
	}
}
