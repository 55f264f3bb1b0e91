package evaluation

import (
	"context"
	"errors"
	"math"
	"sort"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/ViennaKaggle/prudential-life-insurance-assessment/internal/errors"
	"github.com/ViennaKaggle/prudential-life-insurance-assessment/pkg/contracts/domain"
)

func featureTable() *domain.FeatureTable {
	day := time.Date(2015, 7, 31, 0, 0, 0, 0, time.UTC)
	return &domain.FeatureTable{
		Columns: []string{"Store", "Sales", "Open", "Sales_mean"},
		Dates:   []time.Time{day, day, day},
		Rows: [][]float64{
			{1, 100, 1, 90},
			{2, 0, 0, 50},
			{3, 200, 1, 210},
		},
	}
}

func TestGetRawValues(t *testing.T) {
	X, y, err := GetRawValues(featureTable())
	require.NoError(t, err)
	assert.Equal(t, [][]float64{{1, 1, 90}, {2, 0, 50}, {3, 1, 210}}, X)
	assert.Equal(t, []float64{100, 0, 200}, y)

	values, err := Project(featureTable())
	require.NoError(t, err)
	assert.Equal(t, []string{"Store", "Open", "Sales_mean"}, values.Columns)
	assert.Equal(t, 2, values.ColumnIndex("Sales_mean"))
	assert.Equal(t, -1, values.ColumnIndex("Sales"))

	test := &domain.FeatureTable{Columns: []string{"Store", "Open"}, IDs: []int{7}, Rows: [][]float64{{1, 1}}}
	X, y, err = GetRawValues(test)
	require.NoError(t, err)
	assert.Equal(t, [][]float64{{1, 1}}, X)
	assert.Nil(t, y)

	ragged := &domain.FeatureTable{Columns: []string{"Store", "Open"}, Rows: [][]float64{{1}}}
	_, _, err = GetRawValues(ragged)
	assert.True(t, apperrors.IsType(err, apperrors.ErrTypeValidation))
}

func TestKFold(t *testing.T) {
	tests := []struct {
		name      string
		n, k      int
		shuffle   bool
		wantSizes []int
	}{
		{name: "even split", n: 8, k: 4, wantSizes: []int{2, 2, 2, 2}},
		{name: "remainder goes to first folds", n: 10, k: 4, wantSizes: []int{3, 3, 2, 2}},
		{name: "shuffled", n: 11, k: 3, shuffle: true, wantSizes: []int{4, 4, 3}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			folds, err := KFold(tt.n, tt.k, tt.shuffle, DefaultSeed)
			require.NoError(t, err)
			require.Len(t, folds, tt.k)

			var seen []int
			for i, fold := range folds {
				assert.Len(t, fold.Test, tt.wantSizes[i])
				assert.Len(t, fold.Train, tt.n-tt.wantSizes[i])
				all := append(append([]int(nil), fold.Train...), fold.Test...)
				sort.Ints(all)
				for j, idx := range all {
					assert.Equal(t, j, idx)
				}
				seen = append(seen, fold.Test...)
			}
			sort.Ints(seen)
			assert.Len(t, seen, tt.n)
			for j, idx := range seen {
				assert.Equal(t, j, idx)
			}
		})
	}
}

func TestKFoldUnshuffledBlocks(t *testing.T) {
	folds, err := KFold(5, 2, false, 0)
	require.NoError(t, err)
	assert.Equal(t, []int{0, 1, 2}, folds[0].Test)
	assert.Equal(t, []int{3, 4}, folds[0].Train)
	assert.Equal(t, []int{3, 4}, folds[1].Test)
}

func TestKFoldDeterministic(t *testing.T) {
	a, err := DefaultKFold(50)
	require.NoError(t, err)
	b, err := DefaultKFold(50)
	require.NoError(t, err)
	assert.Equal(t, a, b)

	c, err := KFold(50, DefaultFolds, true, 7)
	require.NoError(t, err)
	assert.NotEqual(t, a, c)
}

func TestKFoldRejectsBadArguments(t *testing.T) {
	_, err := KFold(10, 1, false, 0)
	assert.Error(t, err)
	_, err = KFold(3, 4, false, 0)
	assert.Error(t, err)
}

func TestRMSPE(t *testing.T) {
	tests := []struct {
		name    string
		yTrue   []float64
		yPred   []float64
		weights []float64
		want    float64
		wantErr bool
	}{
		{name: "perfect", yTrue: []float64{10, 20}, yPred: []float64{10, 20}, want: 0},
		{name: "ten percent", yTrue: []float64{100, 200}, yPred: []float64{110, 180}, want: 0.1},
		{name: "zero targets skipped", yTrue: []float64{0, 100}, yPred: []float64{50, 90}, want: 0.1},
		{name: "weighted", yTrue: []float64{100, 100}, yPred: []float64{100, 80}, weights: []float64{3, 1}, want: math.Sqrt(0.04 / 4)},
		{name: "length mismatch", yTrue: []float64{1}, yPred: []float64{1, 2}, wantErr: true},
		{name: "all zero", yTrue: []float64{0, 0}, yPred: []float64{1, 1}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := RMSPE(tt.yTrue, tt.yPred, tt.weights)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.InDelta(t, tt.want, got, 1e-12)
		})
	}
}

// constantEstimator predicts one value and counts fits
type constantEstimator struct {
	value float64
	fits  int
	err   error
}

func (c *constantEstimator) Fit(X [][]float64, y []float64) error {
	c.fits++
	return c.err
}

func (c *constantEstimator) Predict(X [][]float64) ([]float64, error) {
	out := make([]float64, len(X))
	for i := range out {
		out[i] = c.value
	}
	return out, nil
}

func TestMakeScorer(t *testing.T) {
	est := &constantEstimator{value: 90}
	X := [][]float64{{0}, {0}}
	y := []float64{100, 100}

	loss, err := MakeScorer(RMSPE, GreaterIsBetter(false))(est, X, y, nil)
	require.NoError(t, err)
	assert.InDelta(t, -0.1, loss, 1e-12)

	raw, err := MakeScorer(RMSPE)(est, X, y, nil)
	require.NoError(t, err)
	assert.InDelta(t, 0.1, raw, 1e-12)

	failing := MakeScorer(func(_, _, _ []float64) (float64, error) { return 0, errors.New("bad") })
	_, err = failing(est, X, y, nil)
	assert.ErrorContains(t, err, "bad")
}

func TestCrossValScore(t *testing.T) {
	X := make([][]float64, 12)
	y := make([]float64, 12)
	for i := range X {
		X[i] = []float64{float64(i)}
		y[i] = 100
	}
	folds, err := KFold(len(X), 3, true, DefaultSeed)
	require.NoError(t, err)

	for _, jobs := range []int{0, 1, 2} {
		scores, err := CrossValScore(context.Background(), func() Estimator {
			return &constantEstimator{value: 80}
		}, X, y, folds, RMSPEScorer(), jobs)
		require.NoError(t, err)
		require.Len(t, scores, 3)
		for _, s := range scores {
			assert.InDelta(t, -0.2, s, 1e-12)
		}
	}

	_, err = CrossValScore(context.Background(), func() Estimator {
		return &constantEstimator{err: errors.New("cannot fit")}
	}, X, y, folds, RMSPEScorer(), 1)
	assert.ErrorContains(t, err, "cannot fit")

	badFolds := []Fold{{Train: []int{0}, Test: []int{99}}}
	_, err = CrossValScore(context.Background(), func() Estimator { return &constantEstimator{} }, X, y, badFolds, RMSPEScorer(), 1)
	assert.True(t, apperrors.IsType(err, apperrors.ErrTypeValidation))
}

func TestCrossValScoreCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	X := [][]float64{{1}, {2}, {3}, {4}}
	y := []float64{1, 2, 3, 4}
	folds, err := KFold(4, 2, false, 0)
	require.NoError(t, err)

	_, err = CrossValScore(ctx, func() Estimator { return &constantEstimator{value: 1} }, X, y, folds, RMSPEScorer(), 1)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestLog1pTransform(t *testing.T) {
	X := [][]float64{{0, math.E - 1}, {1, 3}}

	all, err := NewLog1pTransform(Log1pConfig{})
	require.NoError(t, err)
	out, err := all.Transform(X)
	require.NoError(t, err)
	assert.InDelta(t, 0, out[0][0], 1e-12)
	assert.InDelta(t, 1, out[0][1], 1e-12)
	assert.InDelta(t, math.Log(2), out[1][0], 1e-12)
	assert.Equal(t, 1.0, X[1][0], "input must not change")

	second, err := NewLog1pTransform(Log1pConfig{Columns: []int{1}})
	require.NoError(t, err)
	out, err = second.Transform(X)
	require.NoError(t, err)
	assert.Equal(t, 1.0, out[1][0])
	assert.InDelta(t, math.Log(4), out[1][1], 1e-12)

	back, err := second.InverseTransform(out)
	require.NoError(t, err)
	assert.InDelta(t, 3, back[1][1], 1e-12)

	wide, err := NewLog1pTransform(Log1pConfig{Columns: []int{5}})
	require.NoError(t, err)
	_, err = wide.Transform(X)
	assert.Error(t, err)

	_, err = NewLog1pTransform(Log1pConfig{Columns: []int{-1}})
	assert.True(t, apperrors.IsType(err, apperrors.ErrTypeValidation))
	_, err = NewLog1pTransform(Log1pConfig{Columns: []int{1, 1}})
	assert.Error(t, err)
}

func TestLog1pColumns(t *testing.T) {
	cfg, err := Log1pColumns([]string{"Store", "CompetitionDistance", "Sales_mean"}, []string{"Sales_mean", "CompetitionDistance"})
	require.NoError(t, err)
	assert.Equal(t, []int{2, 1}, cfg.Columns)

	_, err = Log1pColumns([]string{"Store"}, []string{"Customers"})
	assert.True(t, apperrors.IsType(err, apperrors.ErrTypeSchema))
}

func TestNanPreProcessor(t *testing.T) {
	nan := math.NaN()
	X := [][]float64{{nan, nan, 1}, {2, nan, nan}}
	fill := -1.0

	tests := []struct {
		name string
		p    NanPreProcessor
		want [][]float64
	}{
		{
			name: "per column then global",
			p:    NanPreProcessor{Columns: map[int]float64{0: 9, 7: 5}, Fill: &fill},
			want: [][]float64{{9, -1, 1}, {2, -1, -1}},
		},
		{
			name: "global only",
			p:    NanPreProcessor{Fill: &fill},
			want: [][]float64{{-1, -1, 1}, {2, -1, -1}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := tt.p.Transform(X)
			require.NoError(t, err)
			assert.Equal(t, tt.want, out)
			assert.True(t, math.IsNaN(X[0][0]), "input must not change")
		})
	}

	out, err := NanPreProcessor{Columns: map[int]float64{1: 0}}.Transform(X)
	require.NoError(t, err)
	assert.Equal(t, 0.0, out[0][1])
	assert.True(t, math.IsNaN(out[0][0]))
}

func TestDistributionBaseline(t *testing.T) {
	values, err := Project(featureTable())
	require.NoError(t, err)

	baseline, err := NewDistributionBaseline(values.Columns)
	require.NoError(t, err)

	_, err = baseline.Predict(values.X)
	assert.Error(t, err, "predict before fit")

	require.NoError(t, baseline.Fit(values.X, values.Y))
	preds, err := baseline.Predict(values.X)
	require.NoError(t, err)
	assert.Equal(t, []float64{90, 0, 210}, preds)

	missingMean := [][]float64{{4, 1, math.NaN()}}
	preds, err = baseline.Predict(missingMean)
	require.NoError(t, err)
	assert.Equal(t, []float64{0}, preds)

	_, err = baseline.Predict([][]float64{{1, 2}})
	assert.Error(t, err)

	_, err = NewDistributionBaseline([]string{"Store", "Open"})
	assert.True(t, apperrors.IsType(err, apperrors.ErrTypeSchema))
}

func TestChainAppliesTransforms(t *testing.T) {
	values, err := Project(featureTable())
	require.NoError(t, err)
	values.X[0][2] = math.NaN()

	baseline, err := NewDistributionBaseline(values.Columns)
	require.NoError(t, err)
	fill := 42.0
	est := Chain(baseline, NanPreProcessor{Fill: &fill})

	require.NoError(t, est.Fit(values.X, values.Y))
	preds, err := est.Predict(values.X)
	require.NoError(t, err)
	assert.Equal(t, []float64{42, 0, 210}, preds)
}

func TestSummarize(t *testing.T) {
	mean, std := Summarize([]float64{-0.1, -0.2, -0.3})
	assert.InDelta(t, -0.2, mean, 1e-12)
	assert.InDelta(t, 0.1, std, 1e-12)

	mean, std = Summarize([]float64{-0.5})
	assert.Equal(t, -0.5, mean)
	assert.Equal(t, 0.0, std)

	mean, _ = Summarize(nil)
	assert.True(t, math.IsNaN(mean))
}
