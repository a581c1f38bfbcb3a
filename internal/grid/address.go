package grid

import "strconv"

// ColToLetter converts a 1-indexed column number to Excel letter(s)
func ColToLetter(col int) string {
	result := ""
	for col > 0 {
		col--
		result = string(rune('A'+col%26)) + result
		col /= 26
	}
	return result
}

// CellAddress returns the spreadsheet address ("C4") of a grid cell given its
// 0-indexed data row and column. The header occupies spreadsheet row 1.
func CellAddress(row, col int) string {
	return ColToLetter(col+1) + strconv.Itoa(row+2)
}
