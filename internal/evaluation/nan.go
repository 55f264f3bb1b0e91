package evaluation

import (
	"math"
)

// NanPreProcessor replaces NaN cells. Per-column values are applied first,
// then Fill, when set, replaces whatever NaN remains.
type NanPreProcessor struct {
	Columns map[int]float64
	Fill    *float64
}

// Transform returns a copy of X with NaN replaced. Columns outside a row are ignored.
func (p NanPreProcessor) Transform(X [][]float64) ([][]float64, error) {
	out := copyMatrix(X)
	for _, row := range out {
		for c, value := range p.Columns {
			if c >= 0 && c < len(row) && math.IsNaN(row[c]) {
				row[c] = value
			}
		}
		if p.Fill == nil {
			continue
		}
		for c := range row {
			if math.IsNaN(row[c]) {
				row[c] = *p.Fill
			}
		}
	}
	return out, nil
}
