package evaluation

import (
	"fmt"
	"math"

	"github.com/go-playground/validator/v10"

	apperrors "github.com/ViennaKaggle/prudential-life-insurance-assessment/internal/errors"
)

// Log1pConfig selects the columns to transform; empty means every column
type Log1pConfig struct {
	Columns []int `validate:"unique,dive,min=0"`
}

// Log1pTransform applies log(1+x) to the configured columns
type Log1pTransform struct {
	columns []int
}

// NewLog1pTransform validates cfg and returns the transform
func NewLog1pTransform(cfg Log1pConfig) (*Log1pTransform, error) {
	if err := validator.New().Struct(cfg); err != nil {
		return nil, apperrors.NewAppValidationError("invalid log1p config: " + err.Error())
	}
	return &Log1pTransform{columns: append([]int(nil), cfg.Columns...)}, nil
}

// Log1pColumns maps column names to indices in columns
func Log1pColumns(columns []string, names []string) (Log1pConfig, error) {
	cfg := Log1pConfig{Columns: make([]int, 0, len(names))}
	for _, name := range names {
		idx := -1
		for i, c := range columns {
			if c == name {
				idx = i
				break
			}
		}
		if idx < 0 {
			return Log1pConfig{}, apperrors.NewSchemaError("features", name)
		}
		cfg.Columns = append(cfg.Columns, idx)
	}
	return cfg, nil
}

// Transform returns a copy of X with log1p applied
func (t *Log1pTransform) Transform(X [][]float64) ([][]float64, error) {
	return t.apply(X, math.Log1p)
}

// InverseTransform returns a copy of X with expm1 applied
func (t *Log1pTransform) InverseTransform(X [][]float64) ([][]float64, error) {
	return t.apply(X, math.Expm1)
}

func (t *Log1pTransform) apply(X [][]float64, fn func(float64) float64) ([][]float64, error) {
	out := copyMatrix(X)
	for r, row := range out {
		if len(t.columns) == 0 {
			for c := range row {
				row[c] = fn(row[c])
			}
			continue
		}
		for _, c := range t.columns {
			if c >= len(row) {
				return nil, apperrors.NewAppValidationError(fmt.Sprintf("log1p column %d out of range for row %d", c, r))
			}
			row[c] = fn(row[c])
		}
	}
	return out, nil
}
