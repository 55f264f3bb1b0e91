package evaluation

import (
	"fmt"

	apperrors "github.com/ViennaKaggle/prudential-life-insurance-assessment/internal/errors"
	"github.com/ViennaKaggle/prudential-life-insurance-assessment/pkg/contracts/domain"
)

// Estimator is a regression model
type Estimator interface {
	Fit(X [][]float64, y []float64) error
	Predict(X [][]float64) ([]float64, error)
}

// EstimatorFactory returns a fresh, unfitted estimator
type EstimatorFactory func() Estimator

// Transformer maps a feature matrix to a new one without modifying its input
type Transformer interface {
	Transform(X [][]float64) ([][]float64, error)
}

// chain applies transformers in order before delegating to an estimator
type chain struct {
	steps []Transformer
	est   Estimator
}

// Chain returns an estimator that transforms X with every step before
// fitting or predicting with est
func Chain(est Estimator, steps ...Transformer) Estimator {
	return &chain{steps: steps, est: est}
}

func (c *chain) transform(X [][]float64) ([][]float64, error) {
	var err error
	for i, step := range c.steps {
		if X, err = step.Transform(X); err != nil {
			return nil, fmt.Errorf("transform step %d: %w", i, err)
		}
	}
	return X, nil
}

func (c *chain) Fit(X [][]float64, y []float64) error {
	Xt, err := c.transform(X)
	if err != nil {
		return err
	}
	return c.est.Fit(Xt, y)
}

func (c *chain) Predict(X [][]float64) ([]float64, error) {
	Xt, err := c.transform(X)
	if err != nil {
		return nil, err
	}
	return c.est.Predict(Xt)
}

// DistributionBaseline predicts the store's Sales_mean on open days and 0 on closed days
type DistributionBaseline struct {
	meanIdx int
	openIdx int
	width   int
	fitted  bool
}

// NewDistributionBaseline locates Sales_mean and Open in columns
func NewDistributionBaseline(columns []string) (*DistributionBaseline, error) {
	b := &DistributionBaseline{meanIdx: -1, openIdx: -1, width: len(columns)}
	for i, c := range columns {
		switch c {
		case domain.ColumnSalesMean:
			b.meanIdx = i
		case domain.ColumnOpen:
			b.openIdx = i
		}
	}
	if b.meanIdx < 0 {
		return nil, apperrors.NewSchemaError("features", domain.ColumnSalesMean)
	}
	if b.openIdx < 0 {
		return nil, apperrors.NewSchemaError("features", domain.ColumnOpen)
	}
	return b, nil
}

// Fit checks the matrix shape; the baseline has no parameters to learn
func (b *DistributionBaseline) Fit(X [][]float64, y []float64) error {
	if len(X) != len(y) {
		return apperrors.NewAppValidationError(fmt.Sprintf("fit: %d rows but %d targets", len(X), len(y)))
	}
	if err := b.checkWidth(X); err != nil {
		return err
	}
	b.fitted = true
	return nil
}

// Predict returns Sales_mean for open rows and 0 otherwise. A missing mean predicts 0.
func (b *DistributionBaseline) Predict(X [][]float64) ([]float64, error) {
	if !b.fitted {
		return nil, apperrors.NewAppValidationError("predict called before fit")
	}
	if err := b.checkWidth(X); err != nil {
		return nil, err
	}
	out := make([]float64, len(X))
	for i, row := range X {
		mean := row[b.meanIdx]
		if row[b.openIdx] == 0 || domain.IsMissing(mean) {
			continue
		}
		out[i] = mean
	}
	return out, nil
}

func (b *DistributionBaseline) checkWidth(X [][]float64) error {
	for i, row := range X {
		if len(row) != b.width {
			return apperrors.NewAppValidationError(fmt.Sprintf("row %d has %d columns, want %d", i, len(row), b.width))
		}
	}
	return nil
}
