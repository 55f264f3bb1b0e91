package evaluation

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/stat"

	apperrors "github.com/ViennaKaggle/prudential-life-insurance-assessment/internal/errors"
)

// ScoreFunc compares true and predicted targets; weights may be nil
type ScoreFunc func(yTrue, yPred, sampleWeight []float64) (float64, error)

// Scorer evaluates a fitted estimator on X against yTrue
type Scorer func(est Estimator, X [][]float64, yTrue, sampleWeight []float64) (float64, error)

type scorerOptions struct {
	greaterIsBetter bool
}

// ScorerOption configures MakeScorer
type ScorerOption func(*scorerOptions)

// GreaterIsBetter marks whether higher raw scores are better. Loss
// functions pass false and their score is negated.
func GreaterIsBetter(greater bool) ScorerOption {
	return func(o *scorerOptions) {
		o.greaterIsBetter = greater
	}
}

// MakeScorer wraps fn into a Scorer that predicts with the estimator first
func MakeScorer(fn ScoreFunc, opts ...ScorerOption) Scorer {
	options := scorerOptions{greaterIsBetter: true}
	for _, opt := range opts {
		opt(&options)
	}
	sign := 1.0
	if !options.greaterIsBetter {
		sign = -1.0
	}

	return func(est Estimator, X [][]float64, yTrue, sampleWeight []float64) (float64, error) {
		yPred, err := est.Predict(X)
		if err != nil {
			return 0, fmt.Errorf("predict: %w", err)
		}
		score, err := fn(yTrue, yPred, sampleWeight)
		if err != nil {
			return 0, err
		}
		return sign * score, nil
	}
}

// RMSPE is the root mean square percentage error over rows where yTrue is not 0
func RMSPE(yTrue, yPred, sampleWeight []float64) (float64, error) {
	if len(yTrue) != len(yPred) {
		return 0, apperrors.NewAppValidationError(fmt.Sprintf("rmspe: %d targets but %d predictions", len(yTrue), len(yPred)))
	}
	if sampleWeight != nil && len(sampleWeight) != len(yTrue) {
		return 0, apperrors.NewAppValidationError(fmt.Sprintf("rmspe: %d targets but %d weights", len(yTrue), len(sampleWeight)))
	}

	var sum, weights float64
	for i, actual := range yTrue {
		if actual == 0 {
			continue
		}
		w := 1.0
		if sampleWeight != nil {
			w = sampleWeight[i]
		}
		pct := (actual - yPred[i]) / actual
		sum += w * pct * pct
		weights += w
	}
	if weights == 0 {
		return 0, apperrors.NewAppValidationError("rmspe: no rows with a non-zero target")
	}
	return math.Sqrt(sum / weights), nil
}

// RMSPEScorer scores with RMSPE and reports it negated
func RMSPEScorer() Scorer {
	return MakeScorer(RMSPE, GreaterIsBetter(false))
}

// Summarize returns the mean and sample standard deviation of scores
func Summarize(scores []float64) (mean, std float64) {
	if len(scores) == 0 {
		return math.NaN(), math.NaN()
	}
	if len(scores) == 1 {
		return scores[0], 0
	}
	return stat.MeanStdDev(scores, nil)
}
