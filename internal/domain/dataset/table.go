// Package dataset turns uploaded tabular files into immutable, typed tables.
//
// Every column kind is decided once when the table is built and threaded
// through the rest of the pipeline; operations never mutate a table in place,
// they return a new one.
package dataset

import (
	"fmt"
	"strings"
)

// Table is an ordered set of equally long named columns.
type Table struct {
	columns []*Column
	index   map[string]int
	rows    int
}

// New assembles a table from columns. Names must be unique and non-blank and
// all columns must have the same length.
func New(columns ...*Column) (*Table, error) {
	t := &Table{
		columns: make([]*Column, 0, len(columns)),
		index:   make(map[string]int, len(columns)),
	}
	for i, c := range columns {
		if strings.TrimSpace(c.Name()) == "" {
			return nil, fmt.Errorf("%w: column %d has a blank header", ErrMalformed, i+1)
		}
		if _, dup := t.index[c.Name()]; dup {
			return nil, fmt.Errorf("%w: duplicate column %q", ErrMalformed, c.Name())
		}
		if i == 0 {
			t.rows = c.Len()
		} else if c.Len() != t.rows {
			return nil, fmt.Errorf("%w: column %q has %d rows, expected %d", ErrMalformed, c.Name(), c.Len(), t.rows)
		}
		t.index[c.Name()] = len(t.columns)
		t.columns = append(t.columns, c)
	}
	return t, nil
}

// FromRecords builds a table from a header and row records. Short rows are
// padded with missing cells; rows longer than the header are rejected.
func FromRecords(header []string, records [][]string) (*Table, error) {
	if len(header) == 0 {
		return nil, ErrEmptyDataset
	}
	width := len(header)
	cells := make([][]string, width)
	for c := range cells {
		cells[c] = make([]string, 0, len(records))
	}
	for r, rec := range records {
		if len(rec) > width {
			return nil, fmt.Errorf("%w: row %d has %d fields, header has %d", ErrMalformed, r+2, len(rec), width)
		}
		for c := 0; c < width; c++ {
			if c < len(rec) {
				cells[c] = append(cells[c], rec[c])
			} else {
				cells[c] = append(cells[c], "")
			}
		}
	}
	if len(records) == 0 {
		return nil, ErrEmptyDataset
	}
	columns := make([]*Column, width)
	for c, name := range header {
		columns[c] = NewColumn(strings.TrimSpace(name), cells[c])
	}
	return New(columns...)
}

// Len returns the number of rows.
func (t *Table) Len() int { return t.rows }

// Width returns the number of columns.
func (t *Table) Width() int { return len(t.columns) }

// Names returns the column names in order.
func (t *Table) Names() []string {
	out := make([]string, len(t.columns))
	for i, c := range t.columns {
		out[i] = c.Name()
	}
	return out
}

// Has reports whether a column exists.
func (t *Table) Has(name string) bool {
	_, ok := t.index[name]
	return ok
}

// Column returns the named column or a ColumnError wrapping ErrMissingColumn.
func (t *Table) Column(name string) (*Column, error) {
	i, ok := t.index[name]
	if !ok {
		return nil, MissingColumn(name)
	}
	return t.columns[i], nil
}

// Columns returns the columns in order. The slice is a copy.
func (t *Table) Columns() []*Column {
	out := make([]*Column, len(t.columns))
	copy(out, t.columns)
	return out
}

// Drop returns a table without the named columns. Unknown names are ignored.
func (t *Table) Drop(names ...string) *Table {
	skip := make(map[string]struct{}, len(names))
	for _, n := range names {
		skip[n] = struct{}{}
	}
	kept := make([]*Column, 0, len(t.columns))
	for _, c := range t.columns {
		if _, ok := skip[c.Name()]; !ok {
			kept = append(kept, c)
		}
	}
	out, _ := New(kept...) // subset of a valid table stays valid
	if len(kept) == 0 {
		out.rows = t.rows
	}
	return out
}

// WithColumn returns a table with c appended, or replacing the column of the
// same name in place.
func (t *Table) WithColumn(c *Column) (*Table, error) {
	cols := t.Columns()
	if i, ok := t.index[c.Name()]; ok {
		cols[i] = c
	} else {
		cols = append(cols, c)
	}
	return New(cols...)
}

// Head returns a table with at most n rows.
func (t *Table) Head(n int) *Table {
	if n < 0 {
		n = 0
	}
	if n >= t.rows {
		return t
	}
	cols := make([]*Column, len(t.columns))
	for i, c := range t.columns {
		cols[i] = c.head(n)
	}
	out, _ := New(cols...)
	return out
}

// Records returns the header and the text rows, with "" for missing cells.
func (t *Table) Records() ([]string, [][]string) {
	rows := make([][]string, t.rows)
	for r := range rows {
		row := make([]string, len(t.columns))
		for c, col := range t.columns {
			row[c] = col.Cell(r)
		}
		rows[r] = row
	}
	return t.Names(), rows
}
