package domain

import (
	"fmt"
	"time"
)

// FeatureTable is the model-ready relation. Date and Id are key columns
// kept beside the numeric columns; Id is set only for test tables.
type FeatureTable struct {
	Columns []string
	Dates   []time.Time
	IDs     []int
	Rows    [][]float64
}

// Len returns the number of rows.
func (t *FeatureTable) Len() int {
	if t == nil {
		return 0
	}
	return len(t.Rows)
}

// HasIDs reports whether the table carries test row ids.
func (t *FeatureTable) HasIDs() bool {
	return t != nil && t.IDs != nil
}

// ColumnIndex returns the position of name in Columns, or -1.
func (t *FeatureTable) ColumnIndex(name string) int {
	for i, c := range t.Columns {
		if c == name {
			return i
		}
	}
	return -1
}

// Column returns a copy of the named column.
func (t *FeatureTable) Column(name string) ([]float64, error) {
	idx := t.ColumnIndex(name)
	if idx < 0 {
		return nil, fmt.Errorf("column %s not found", name)
	}
	out := make([]float64, len(t.Rows))
	for i, row := range t.Rows {
		out[i] = row[idx]
	}
	return out, nil
}

// Value returns the cell at row i in the named column.
func (t *FeatureTable) Value(i int, name string) (float64, bool) {
	idx := t.ColumnIndex(name)
	if idx < 0 || i < 0 || i >= len(t.Rows) {
		return Missing, false
	}
	return t.Rows[i][idx], true
}
