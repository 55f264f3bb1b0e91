package evaluation

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	apperrors "github.com/ViennaKaggle/prudential-life-insurance-assessment/internal/errors"
)

// CrossValScore fits a fresh estimator on each fold's training rows and
// scores it on the fold's test rows. Scores are returned in fold order.
// At most jobs folds run at once; jobs <= 0 runs every fold concurrently.
func CrossValScore(ctx context.Context, newEstimator EstimatorFactory, X [][]float64, y []float64, folds []Fold, scorer Scorer, jobs int) ([]float64, error) {
	if newEstimator == nil || scorer == nil {
		return nil, apperrors.NewAppValidationError("cross validation needs an estimator factory and a scorer")
	}
	if len(X) != len(y) {
		return nil, apperrors.NewAppValidationError(fmt.Sprintf("cross validation: %d rows but %d targets", len(X), len(y)))
	}
	if len(folds) == 0 {
		return nil, apperrors.NewAppValidationError("cross validation needs at least one fold")
	}
	for f, fold := range folds {
		for _, idx := range append(append([]int(nil), fold.Train...), fold.Test...) {
			if idx < 0 || idx >= len(X) {
				return nil, apperrors.NewAppValidationError(fmt.Sprintf("fold %d references row %d of %d", f, idx, len(X)))
			}
		}
	}

	scores := make([]float64, len(folds))
	g, gctx := errgroup.WithContext(ctx)
	if jobs > 0 {
		g.SetLimit(jobs)
	}

	for f, fold := range folds {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			est := newEstimator()
			trainX, trainY := subset(X, y, fold.Train)
			if err := est.Fit(trainX, trainY); err != nil {
				return fmt.Errorf("fold %d fit: %w", f, err)
			}
			testX, testY := subset(X, y, fold.Test)
			score, err := scorer(est, testX, testY, nil)
			if err != nil {
				return fmt.Errorf("fold %d score: %w", f, err)
			}
			scores[f] = score
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return scores, nil
}
