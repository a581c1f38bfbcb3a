package grid

import "testing"

func TestColToLetter(t *testing.T) {
	tests := []struct {
		col  int
		want string
	}{
		{1, "A"},
		{26, "Z"},
		{27, "AA"},
		{52, "AZ"},
		{702, "ZZ"},
	}
	for _, tt := range tests {
		if got := ColToLetter(tt.col); got != tt.want {
			t.Errorf("ColToLetter(%d) = %q, want %q", tt.col, got, tt.want)
		}
	}
}

func TestCellAddress(t *testing.T) {
	tests := []struct {
		row, col int
		want     string
	}{
		{0, 0, "A2"},
		{2, 3, "D4"},
		{9, 26, "AA11"},
	}
	for _, tt := range tests {
		if got := CellAddress(tt.row, tt.col); got != tt.want {
			t.Errorf("CellAddress(%d, %d) = %q, want %q", tt.row, tt.col, got, tt.want)
		}
	}
}
