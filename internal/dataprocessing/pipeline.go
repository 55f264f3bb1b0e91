package dataprocessing

import (
	"context"
	"fmt"
	"log/slog"

	apperrors "github.com/ViennaKaggle/prudential-life-insurance-assessment/internal/errors"
	"github.com/ViennaKaggle/prudential-life-insurance-assessment/pkg/contracts/domain"
)

// Pipeline turns parsed sales and store tables into feature tables
type Pipeline struct {
	logger *slog.Logger
	opts   PipelineOptions
}

// TrainResult carries everything the test transform and the reports reuse
type TrainResult struct {
	Features      *domain.FeatureTable
	Distributions *domain.DistributionTable
	Stores        *domain.NormalizedStores
}

// NewPipeline validates opts and returns a pipeline
func NewPipeline(logger *slog.Logger, opts PipelineOptions) (*Pipeline, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Pipeline{logger: logger.With(slog.String("component", "pipeline")), opts: opts}, nil
}

// Options returns the pipeline options
func (p *Pipeline) Options() PipelineOptions {
	return p.opts
}

// NormalizeStores normalizes the store table shared by train and test
func (p *Pipeline) NormalizeStores(stores *domain.StoreTable) *domain.NormalizedStores {
	normalized := NormalizeStores(stores, p.opts)
	p.logger.Info("stores_normalized",
		slog.Int("stores", len(normalized.Stores)),
		slog.Any("store_types", normalized.StoreTypeLevels),
		slog.Any("assortments", normalized.AssortmentLevels),
		slog.Float64("max_competition_distance", normalized.MaxCompetitionDistance))
	return normalized
}

// Enrich runs sales normalization, the store merge and both holiday stages
func (p *Pipeline) Enrich(ctx context.Context, sales *domain.SalesTable, stores *domain.NormalizedStores, excludeYear int) (*domain.EnrichedTable, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	features := NormalizeSales(sales)
	merged, dropped := Merge(features, stores)
	if dropped > 0 {
		p.logger.WarnContext(ctx, "sales_rows_without_store",
			slog.Int("dropped", dropped),
			slog.Int("kept", len(merged.Records)))
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	merged = HarmonizeSchoolHolidays(merged)
	merged = AddLastHolidayWeekInWindow(merged, excludeYear, p.opts.HolidayEndingFromMonth, p.opts.HolidayEndingToMonth)

	p.logger.InfoContext(ctx, "sales_enriched",
		slog.Int("rows", len(merged.Records)),
		slog.Int("exclude_year", excludeYear),
		slog.Any("state_holidays", merged.StateHolidayLevels))
	return merged, nil
}

// Distributions computes the per-store distribution table
func (p *Pipeline) Distributions(ctx context.Context, train *domain.EnrichedTable) (*domain.DistributionTable, error) {
	dist, err := CalcStoreDistributions(train)
	if err != nil {
		return nil, err
	}
	synthesized := 0
	for _, row := range dist.Rows {
		if row.Synthesized {
			synthesized++
		}
	}
	p.logger.InfoContext(ctx, "distributions_calculated",
		slog.Int("rows", len(dist.Rows)),
		slog.Int("synthesized", synthesized),
		slog.Float64("global_mean", dist.GlobalMean))
	return dist, nil
}

// FeatureTable merges the distributions into an enriched table
func (p *Pipeline) FeatureTable(ctx context.Context, table *domain.EnrichedTable, dist *domain.DistributionTable) (*domain.FeatureTable, error) {
	features, unseen, err := mergeDistributions(table, dist, p.opts.UnseenStorePolicy)
	if err != nil {
		return nil, err
	}
	if len(unseen) > 0 {
		p.logger.WarnContext(ctx, "stores_without_distribution",
			slog.Any("stores", unseen),
			slog.String("policy", string(p.opts.UnseenStorePolicy)))
	}
	return features, nil
}

// TransformTrain builds the training feature table
func (p *Pipeline) TransformTrain(ctx context.Context, sales *domain.SalesTable, stores *domain.StoreTable) (*TrainResult, error) {
	if !sales.HasSales {
		return nil, apperrors.NewSchemaError("train", domain.ColumnSales)
	}

	normalized := p.NormalizeStores(stores)
	enriched, err := p.Enrich(ctx, sales, normalized, p.opts.TrainExcludeYear)
	if err != nil {
		return nil, fmt.Errorf("enrich train: %w", err)
	}
	dist, err := p.Distributions(ctx, enriched)
	if err != nil {
		return nil, fmt.Errorf("train distributions: %w", err)
	}
	features, err := p.FeatureTable(ctx, enriched, dist)
	if err != nil {
		return nil, fmt.Errorf("train features: %w", err)
	}

	p.logger.InfoContext(ctx, "train_table_built",
		slog.Int("rows", features.Len()),
		slog.Int("columns", len(features.Columns)))
	return &TrainResult{Features: features, Distributions: dist, Stores: normalized}, nil
}

// TransformTest builds the test feature table aligned to the training columns
func (p *Pipeline) TransformTest(ctx context.Context, sales *domain.SalesTable, train *TrainResult) (*domain.FeatureTable, error) {
	if train == nil || train.Features == nil {
		return nil, apperrors.NewAppValidationError("test transform needs the training result")
	}

	enriched, err := p.Enrich(ctx, sales, train.Stores, p.opts.TestExcludeYear)
	if err != nil {
		return nil, fmt.Errorf("enrich test: %w", err)
	}
	features, err := p.FeatureTable(ctx, enriched, train.Distributions)
	if err != nil {
		return nil, fmt.Errorf("test features: %w", err)
	}
	return p.Align(ctx, features, train.Features.Columns), nil
}

// Align reindexes a test table to the training column list
func (p *Pipeline) Align(ctx context.Context, test *domain.FeatureTable, columns []string) *domain.FeatureTable {
	if missing := MissingColumns(test, columns); len(missing) > 0 {
		p.logger.InfoContext(ctx, "test_columns_zero_filled", slog.Any("columns", missing))
	}
	aligned := ReindexColumns(test, columns)
	p.logger.InfoContext(ctx, "test_table_built",
		slog.Int("rows", aligned.Len()),
		slog.Int("columns", len(aligned.Columns)))
	return aligned
}
