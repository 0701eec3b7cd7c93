package dataset

import (
	"fmt"
	"path/filepath"
	"strings"
)

// Format identifies how an uploaded table is encoded.
type Format int

const (
	// FormatCSV is comma-separated text with a header row.
	FormatCSV Format = iota + 1
	// FormatSpreadsheet is an Office Open XML workbook (.xlsx).
	FormatSpreadsheet
)

func (f Format) String() string {
	switch f {
	case FormatCSV:
		return "csv"
	case FormatSpreadsheet:
		return "xlsx"
	default:
		return "unknown"
	}
}

// DetectFormat decides the format from the file name extension.
func DetectFormat(filename string) (Format, error) {
	switch strings.ToLower(filepath.Ext(strings.TrimSpace(filename))) {
	case ".csv":
		return FormatCSV, nil
	case ".xlsx":
		return FormatSpreadsheet, nil
	default:
		return 0, fmt.Errorf("%w: %q (expected .csv or .xlsx)", ErrUnsupportedFormat, filename)
	}
}
