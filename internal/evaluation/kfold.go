package evaluation

import (
	"fmt"
	"math/rand/v2"

	apperrors "github.com/ViennaKaggle/prudential-life-insurance-assessment/internal/errors"
)

// Fold defaults
const (
	DefaultFolds = 4
	DefaultSeed  = 42
)

// Fold holds the row indices of one train/test split
type Fold struct {
	Train []int
	Test  []int
}

// KFold splits n rows into k consecutive test blocks. The first n mod k
// folds are one row larger. With shuffle the row order is permuted first
// using a generator seeded with seed, so equal arguments give equal folds.
func KFold(n, k int, shuffle bool, seed uint64) ([]Fold, error) {
	if k < 2 {
		return nil, apperrors.NewAppValidationError(fmt.Sprintf("k-fold needs at least 2 folds, got %d", k))
	}
	if n < k {
		return nil, apperrors.NewAppValidationError(fmt.Sprintf("cannot split %d rows into %d folds", n, k))
	}

	order := make([]int, n)
	for i := range order {
		order[i] = i
	}
	if shuffle {
		rng := rand.New(rand.NewPCG(seed, seed))
		rng.Shuffle(n, func(i, j int) { order[i], order[j] = order[j], order[i] })
	}

	folds := make([]Fold, 0, k)
	start := 0
	for f := 0; f < k; f++ {
		size := n / k
		if f < n%k {
			size++
		}
		end := start + size

		test := append([]int(nil), order[start:end]...)
		train := make([]int, 0, n-size)
		train = append(train, order[:start]...)
		train = append(train, order[end:]...)

		folds = append(folds, Fold{Train: train, Test: test})
		start = end
	}
	return folds, nil
}

// DefaultKFold returns the shuffled four-fold split with seed 42
func DefaultKFold(n int) ([]Fold, error) {
	return KFold(n, DefaultFolds, true, DefaultSeed)
}
