package evaluation

import (
	apperrors "github.com/ViennaKaggle/prudential-life-insurance-assessment/internal/errors"
	"github.com/ViennaKaggle/prudential-life-insurance-assessment/pkg/contracts/domain"
)

// RawValues is the numeric projection of a feature table
type RawValues struct {
	Columns []string
	X       [][]float64
	// Y is nil when the table has no Sales column
	Y []float64
}

// ColumnIndex returns the position of name in Columns, or -1
func (r *RawValues) ColumnIndex(name string) int {
	for i, c := range r.Columns {
		if c == name {
			return i
		}
	}
	return -1
}

// GetRawValues returns every column except Sales as X and Sales as y.
// Date and Id are key columns and never part of X. y is nil when the
// table carries no Sales column.
func GetRawValues(table *domain.FeatureTable) ([][]float64, []float64, error) {
	values, err := Project(table)
	if err != nil {
		return nil, nil, err
	}
	return values.X, values.Y, nil
}

// Project is GetRawValues keeping the X column names
func Project(table *domain.FeatureTable) (*RawValues, error) {
	if table == nil {
		return nil, apperrors.NewAppValidationError("feature table is nil")
	}

	salesIdx := table.ColumnIndex(domain.ColumnSales)
	columns := make([]string, 0, len(table.Columns))
	keep := make([]int, 0, len(table.Columns))
	for i, c := range table.Columns {
		if i == salesIdx {
			continue
		}
		columns = append(columns, c)
		keep = append(keep, i)
	}

	values := &RawValues{Columns: columns, X: make([][]float64, len(table.Rows))}
	if salesIdx >= 0 {
		values.Y = make([]float64, len(table.Rows))
	}
	for r, row := range table.Rows {
		if len(row) != len(table.Columns) {
			return nil, apperrors.NewAppValidationError("feature row width does not match columns").
				WithContext("row", r).
				WithContext("width", len(row))
		}
		x := make([]float64, len(keep))
		for j, idx := range keep {
			x[j] = row[idx]
		}
		values.X[r] = x
		if salesIdx >= 0 {
			values.Y[r] = row[salesIdx]
		}
	}
	return values, nil
}

// subset returns the rows of X and y at idx
func subset(X [][]float64, y []float64, idx []int) ([][]float64, []float64) {
	xs := make([][]float64, len(idx))
	var ys []float64
	if y != nil {
		ys = make([]float64, len(idx))
	}
	for i, row := range idx {
		xs[i] = X[row]
		if y != nil {
			ys[i] = y[row]
		}
	}
	return xs, ys
}

// copyMatrix returns a deep copy of X
func copyMatrix(X [][]float64) [][]float64 {
	out := make([][]float64, len(X))
	for i, row := range X {
		out[i] = append([]float64(nil), row...)
	}
	return out
}
