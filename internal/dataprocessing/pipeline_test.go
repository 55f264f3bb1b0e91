package dataprocessing

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/ViennaKaggle/prudential-life-insurance-assessment/internal/errors"
	"github.com/ViennaKaggle/prudential-life-insurance-assessment/pkg/contracts/domain"
)

const pipelineTrainCSV = `Store,DayOfWeek,Date,Sales,Customers,Open,Promo,StateHoliday,SchoolHoliday
1,5,2014-08-08,5000,500,1,1,0,1
1,6,2014-08-09,4000,400,1,0,0,0
1,7,2014-08-10,0,0,0,0,0,0
1,7,2014-08-17,0,0,0,0,0,0
2,5,2014-08-08,6000,600,1,1,a,0
2,6,2014-08-09,6500,650,1,0,0,0
`

const pipelineTestCSV = `Id,Store,DayOfWeek,Date,Open,Promo,Promo2Extra,StateHoliday,SchoolHoliday
2,3,4,2015-09-17,,1,7,0,0
1,1,4,2015-09-17,1,1,7,0,1
`

func newTestPipeline(t *testing.T) *Pipeline {
	t.Helper()
	pipeline, err := NewPipeline(testLogger(), DefaultPipelineOptions())
	require.NoError(t, err)
	return pipeline
}

func TestNewPipelineValidatesOptions(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*PipelineOptions)
	}{
		{name: "bad month", mutate: func(o *PipelineOptions) { o.HolidayEndingFromMonth = 13 }},
		{name: "inverted window", mutate: func(o *PipelineOptions) { o.HolidayEndingFromMonth, o.HolidayEndingToMonth = 9, 7 }},
		{name: "unknown policy", mutate: func(o *PipelineOptions) { o.UnseenStorePolicy = "median" }},
		{name: "zero year", mutate: func(o *PipelineOptions) { o.TrainExcludeYear = 0 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opts := DefaultPipelineOptions()
			tt.mutate(&opts)
			_, err := NewPipeline(testLogger(), opts)
			assert.True(t, apperrors.IsType(err, apperrors.ErrTypeValidation), "got %v", err)
		})
	}
}

func TestTransformTrain(t *testing.T) {
	pipeline := newTestPipeline(t)
	ctx := context.Background()

	result, err := pipeline.TransformTrain(ctx, parseSalesCSV(t, pipelineTrainCSV), parseStoreCSV(t, testStoreCSV))
	require.NoError(t, err)

	wantColumns := []string{
		"Store", "DayOfWeek", "Sales", "Open", "Promo", "SchoolHoliday", "woy", "month", "year",
		"Seasonal_4_sin", "StateHoliday_0", "StateHoliday_a", "CompetitionDistance",
		"StoreType_a", "StoreType_c", "Assortment_a", "Assortment_c",
		"SchoolHolidayEnding", "Sales_mean", "Sales_std",
	}
	assert.Equal(t, wantColumns, result.Features.Columns)
	assert.Equal(t, 6, result.Features.Len())
	assert.False(t, result.Features.HasIDs())

	// Friday holiday extends into the weekend and the Sunday ends the summer break.
	store, _ := result.Features.Column(domain.ColumnStore)
	holiday, _ := result.Features.Column(domain.ColumnSchoolHoliday)
	ending, _ := result.Features.Column(domain.ColumnSchoolHolidayEnding)
	for i, day := range result.Features.Dates {
		if store[i] != 1 {
			continue
		}
		switch day.Format(domain.DateLayout) {
		case "2014-08-08", "2014-08-09":
			assert.Equal(t, 1.0, holiday[i], day)
		case "2014-08-10":
			assert.Equal(t, 1.0, holiday[i], day)
			assert.Equal(t, 1.0, ending[i], day)
		case "2014-08-17":
			assert.Equal(t, 0.0, holiday[i], day)
			assert.Equal(t, 0.0, ending[i], day)
		}
	}

	assert.Len(t, result.Distributions.Rows, 4)
	assert.Len(t, result.Stores.Stores, 3)
}

func TestTransformTrainRequiresSales(t *testing.T) {
	pipeline := newTestPipeline(t)

	_, err := pipeline.TransformTrain(context.Background(), parseSalesCSV(t, pipelineTestCSV), parseStoreCSV(t, testStoreCSV))

	assert.True(t, apperrors.IsType(err, apperrors.ErrTypeSchema))
}

func TestTransformTest(t *testing.T) {
	pipeline := newTestPipeline(t)
	ctx := context.Background()

	train, err := pipeline.TransformTrain(ctx, parseSalesCSV(t, pipelineTrainCSV), parseStoreCSV(t, testStoreCSV))
	require.NoError(t, err)

	test, err := pipeline.TransformTest(ctx, parseSalesCSV(t, pipelineTestCSV), train)
	require.NoError(t, err)

	assert.Equal(t, train.Features.Columns, test.Columns)
	assert.Equal(t, -1, test.ColumnIndex("Promo2Extra"))
	require.Equal(t, 2, test.Len())
	assert.Equal(t, []int{1, 2}, test.IDs)

	sales, err := test.Column(domain.ColumnSales)
	require.NoError(t, err)
	assert.Equal(t, []float64{0, 0}, sales)

	stateA, err := test.Column("StateHoliday_a")
	require.NoError(t, err)
	assert.Equal(t, []float64{0, 0}, stateA)

	open, _ := test.Value(1, domain.ColumnOpen)
	assert.Equal(t, 1.0, open)

	// Store 3 has no training rows and falls back to the global statistics.
	mean, _ := test.Value(1, domain.ColumnSalesMean)
	assert.InDelta(t, train.Distributions.GlobalMean, mean, 1e-9)
}

func TestTransformIsDeterministic(t *testing.T) {
	pipeline := newTestPipeline(t)
	ctx := context.Background()

	run := func() (*domain.FeatureTable, *domain.FeatureTable) {
		train, err := pipeline.TransformTrain(ctx, parseSalesCSV(t, pipelineTrainCSV), parseStoreCSV(t, testStoreCSV))
		require.NoError(t, err)
		test, err := pipeline.TransformTest(ctx, parseSalesCSV(t, pipelineTestCSV), train)
		require.NoError(t, err)
		return train.Features, test
	}

	firstTrain, firstTest := run()
	secondTrain, secondTest := run()

	assert.Equal(t, firstTrain, secondTrain)
	assert.Equal(t, firstTest, secondTest)
}

func TestTransformTestNeedsTrainResult(t *testing.T) {
	pipeline := newTestPipeline(t)

	_, err := pipeline.TransformTest(context.Background(), parseSalesCSV(t, pipelineTestCSV), nil)

	assert.Error(t, err)
}

func TestEnrichHonoursCancellation(t *testing.T) {
	pipeline := newTestPipeline(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	stores := pipeline.NormalizeStores(parseStoreCSV(t, testStoreCSV))
	_, err := pipeline.Enrich(ctx, parseSalesCSV(t, pipelineTrainCSV), stores, 2015)

	assert.ErrorIs(t, err, context.Canceled)
}

func TestReindexColumns(t *testing.T) {
	table := &domain.FeatureTable{
		Columns: []string{"a", "b", "extra"},
		IDs:     []int{7},
		Rows:    [][]float64{{1, 2, 3}},
	}

	out := ReindexColumns(table, []string{"b", "missing", "a"})

	assert.Equal(t, []string{"b", "missing", "a"}, out.Columns)
	assert.Equal(t, [][]float64{{2, 0, 1}}, out.Rows)
	assert.Equal(t, []int{7}, out.IDs)
	assert.Equal(t, []string{"missing"}, MissingColumns(table, out.Columns))
}
