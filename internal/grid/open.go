package grid

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"
)

// Format is the detected storage format of a spreadsheet file.
type Format int

const (
	FormatUnknown Format = iota
	FormatOLE2           // Binary .xls (magic: d0cf11e0a1b11ae1)
	FormatOOXML          // ZIP-based .xlsx (magic: 504b0304)
	FormatCSV
)

// ErrLegacyFormat is returned for binary .xls workbooks, which cannot be read.
var ErrLegacyFormat = errors.New("legacy .xls (OLE2) workbooks are not supported: re-save the file as .xlsx")

// DetectFormat reads the first bytes of a file and returns the detected
// format. Files without a known signature are treated as CSV when their
// extension says so.
func DetectFormat(filePath string) (Format, error) {
	f, err := os.Open(filePath)
	if err != nil {
		return FormatUnknown, err
	}
	defer f.Close()

	buf := make([]byte, 8)
	n, err := f.Read(buf)
	if err != nil && err != io.EOF {
		return FormatUnknown, err
	}

	if n >= 4 {
		// OLE2 Compound Document: d0 cf 11 e0
		if buf[0] == 0xd0 && buf[1] == 0xcf && buf[2] == 0x11 && buf[3] == 0xe0 {
			return FormatOLE2, nil
		}
		// ZIP (OOXML): PK\x03\x04
		if buf[0] == 0x50 && buf[1] == 0x4b && buf[2] == 0x03 && buf[3] == 0x04 {
			return FormatOOXML, nil
		}
	}

	switch strings.ToLower(filepath.Ext(filePath)) {
	case ".csv", ".txt":
		return FormatCSV, nil
	}
	return FormatUnknown, nil
}

// Open loads the first sheet of a spreadsheet file into a grid. The first
// row is the header.
func Open(filePath string) (*Grid, error) {
	format, err := DetectFormat(filePath)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", filepath.Base(filePath), err)
	}

	var rows [][]string
	switch format {
	case FormatOOXML:
		rows, err = readWorkbook(filePath)
	case FormatCSV:
		rows, err = readCSV(filePath)
	case FormatOLE2:
		return nil, fmt.Errorf("%s: %w", filepath.Base(filePath), ErrLegacyFormat)
	default:
		return nil, fmt.Errorf("%s: unrecognized spreadsheet format (expected .xlsx, .xlsm or .csv)", filepath.Base(filePath))
	}
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", filepath.Base(filePath), err)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("%s: spreadsheet is empty", filepath.Base(filePath))
	}
	return Parse(rows[0], rows[1:]), nil
}

func readWorkbook(filePath string) ([][]string, error) {
	f, err := excelize.OpenFile(filePath)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, errors.New("workbook has no sheets")
	}
	return f.GetRows(sheets[0], excelize.Options{RawCellValue: true})
}

func readCSV(filePath string) ([][]string, error) {
	f, err := os.Open(filePath)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	r.Comma = sniffDelimiter(filePath)
	rows, err := r.ReadAll()
	if err != nil {
		return nil, err
	}
	// Excel writes a byte order mark at the start of UTF-8 exports.
	if len(rows) > 0 && len(rows[0]) > 0 {
		rows[0][0] = strings.TrimPrefix(rows[0][0], "\ufeff")
	}
	return rows, nil
}

// sniffDelimiter picks ';' for files whose first line has more semicolons
// than commas, as spreadsheet exports in decimal-comma locales do.
func sniffDelimiter(filePath string) rune {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return ','
	}
	first, _, _ := strings.Cut(string(data), "\n")
	if strings.Count(first, ";") > strings.Count(first, ",") {
		return ';'
	}
	return ','
}
