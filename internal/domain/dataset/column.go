package dataset

import (
	"math"
	"strconv"
	"strings"
)

// Kind tells which imputation and encoding path applies to a column.
type Kind int

const (
	// KindNumeric columns hold values that all parse as numbers.
	KindNumeric Kind = iota + 1
	// KindCategorical columns hold at least one non-numeric text value.
	KindCategorical
)

func (k Kind) String() string {
	switch k {
	case KindNumeric:
		return "numeric"
	case KindCategorical:
		return "categorical"
	default:
		return "unknown"
	}
}

// missingTokens are the cell values read as "no value".
var missingTokens = map[string]struct{}{ //nolint:gochecknoglobals // read-only lookup table
	"":     {},
	"NA":   {},
	"N/A":  {},
	"n/a":  {},
	"NaN":  {},
	"nan":  {},
	"null": {},
	"NULL": {},
	"None": {},
	"#N/A": {},
	"<NA>": {},
}

// IsMissing reports whether a raw cell carries no value.
func IsMissing(cell string) bool {
	_, ok := missingTokens[strings.TrimSpace(cell)]
	return ok
}

// Column is an immutable named vector of cells with a fixed kind.
type Column struct {
	name    string
	kind    Kind
	cells   []string
	missing []bool
	nums    []float64
}

// NewColumn builds a column from raw text cells and infers its kind:
// numeric when every non-missing cell parses as a float, categorical otherwise.
func NewColumn(name string, cells []string) *Column {
	c := &Column{
		name:    name,
		cells:   make([]string, len(cells)),
		missing: make([]bool, len(cells)),
	}
	nums := make([]float64, len(cells))
	numeric := true
	for i, raw := range cells {
		cell := strings.TrimSpace(raw)
		if IsMissing(cell) {
			c.missing[i] = true
			nums[i] = math.NaN()
			continue
		}
		c.cells[i] = cell
		if !numeric {
			continue
		}
		v, ok := parseNumber(cell)
		if !ok {
			numeric = false
			continue
		}
		nums[i] = v
	}
	if numeric {
		c.kind = KindNumeric
		c.nums = nums
	} else {
		c.kind = KindCategorical
	}
	return c
}

// NewNumericColumn builds a numeric column; NaN entries are missing.
func NewNumericColumn(name string, values []float64) *Column {
	c := &Column{
		name:    name,
		kind:    KindNumeric,
		cells:   make([]string, len(values)),
		missing: make([]bool, len(values)),
		nums:    make([]float64, len(values)),
	}
	for i, v := range values {
		c.nums[i] = v
		if math.IsNaN(v) {
			c.missing[i] = true
			continue
		}
		c.cells[i] = strconv.FormatFloat(v, 'g', -1, 64)
	}
	return c
}

// NewCategoricalColumn builds a categorical column whose labels are all present.
func NewCategoricalColumn(name string, labels []string) *Column {
	c := &Column{
		name:    name,
		kind:    KindCategorical,
		cells:   make([]string, len(labels)),
		missing: make([]bool, len(labels)),
	}
	copy(c.cells, labels)
	return c
}

// Name returns the column header.
func (c *Column) Name() string { return c.name }

// Kind returns the inferred column kind.
func (c *Column) Kind() Kind { return c.kind }

// Len returns the number of cells.
func (c *Column) Len() int { return len(c.cells) }

// Missing reports whether row i has no value.
func (c *Column) Missing(i int) bool { return c.missing[i] }

// MissingCount returns how many rows have no value.
func (c *Column) MissingCount() int {
	n := 0
	for _, m := range c.missing {
		if m {
			n++
		}
	}
	return n
}

// Cell returns the trimmed text of row i ("" when missing).
func (c *Column) Cell(i int) string { return c.cells[i] }

// Cells returns a copy of the trimmed text cells.
func (c *Column) Cells() []string {
	out := make([]string, len(c.cells))
	copy(out, c.cells)
	return out
}

// Floats returns a copy of the parsed values with NaN for missing rows.
// Only numeric columns carry parsed values; categorical columns return nil.
func (c *Column) Floats() []float64 {
	if c.kind != KindNumeric {
		return nil
	}
	out := make([]float64, len(c.nums))
	copy(out, c.nums)
	return out
}

// parseNumber accepts finite decimal values only; "inf" and "nan" stay text.
func parseNumber(cell string) (float64, bool) {
	v, err := strconv.ParseFloat(cell, 64)
	if err != nil || math.IsInf(v, 0) || math.IsNaN(v) {
		return 0, false
	}
	return v, true
}

// ParseFloats parses every present cell as a number regardless of the
// inferred kind. Missing rows yield NaN.
func (c *Column) ParseFloats() ([]float64, error) {
	if c.kind == KindNumeric {
		return c.Floats(), nil
	}
	out := make([]float64, len(c.cells))
	for i, cell := range c.cells {
		if c.missing[i] {
			out[i] = math.NaN()
			continue
		}
		v, ok := parseNumber(cell)
		if !ok {
			return nil, &ColumnError{Column: c.name, Err: ErrNotNumeric}
		}
		out[i] = v
	}
	return out, nil
}

// head returns a column restricted to the first n rows.
func (c *Column) head(n int) *Column {
	if n >= len(c.cells) {
		return c
	}
	out := &Column{
		name:    c.name,
		kind:    c.kind,
		cells:   c.cells[:n:n],
		missing: c.missing[:n:n],
	}
	if c.nums != nil {
		out.nums = c.nums[:n:n]
	}
	return out
}
