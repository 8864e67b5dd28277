package models

import "fmt"

// Row is one fixed-width tabular record. A nil value is a null cell.
type Row struct {
	Columns []string
	Values  []any
}

// NewRow returns an all-null row over columns. The slice is shared, not copied.
func NewRow(columns []string) Row {
	return Row{Columns: columns, Values: make([]any, len(columns))}
}

// Width is the number of cells.
func (r Row) Width() int { return len(r.Values) }

// Get returns the value of a named column.
func (r Row) Get(column string) (any, bool) {
	for i, name := range r.Columns {
		if name == column {
			return r.Values[i], true
		}
	}
	return nil, false
}

// IsNull reports whether every cell in [from, to) is null.
func (r Row) IsNull(from, to int) bool {
	for i := from; i < to && i < len(r.Values); i++ {
		if r.Values[i] != nil {
			return false
		}
	}
	return true
}

// Reindex stacks partial rows into one row over columns, placing each cell by
// column name. Columns no part populates stay null.
func Reindex(columns []string, parts ...Row) (Row, error) {
	index := make(map[string]int, len(columns))
	for i, name := range columns {
		index[name] = i
	}

	out := NewRow(columns)
	for _, part := range parts {
		if len(part.Columns) != len(part.Values) {
			return Row{}, fmt.Errorf("row has %d columns but %d values", len(part.Columns), len(part.Values))
		}
		for i, name := range part.Columns {
			idx, ok := index[name]
			if !ok {
				return Row{}, fmt.Errorf("column %q is not part of the output schema", name)
			}
			if part.Values[i] != nil {
				out.Values[idx] = part.Values[i]
			}
		}
	}
	return out, nil
}
