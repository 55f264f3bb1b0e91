package operations

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/ViennaKaggle/prudential-life-insurance-assessment/internal/config"
	"github.com/ViennaKaggle/prudential-life-insurance-assessment/internal/dataprocessing"
	apperrors "github.com/ViennaKaggle/prudential-life-insurance-assessment/internal/errors"
	"github.com/ViennaKaggle/prudential-life-insurance-assessment/internal/exporter"
	"github.com/ViennaKaggle/prudential-life-insurance-assessment/internal/store"
	"github.com/ViennaKaggle/prudential-life-insurance-assessment/pkg/contracts/domain"
)

// StepDeps holds the collaborators shared by the pipeline steps.
// Reports and Store are optional; a nil value disables that output.
type StepDeps struct {
	Paths    *config.Paths
	Parser   *dataprocessing.CSVParser
	Pipeline *dataprocessing.Pipeline
	Features *exporter.FeatureExporter
	Reports  *exporter.ReportExporter
	Store    *store.Store
	Tracer   *OperationTracer
	Logger   *slog.Logger
}

// RegisterPipelineSteps registers the feature pipeline steps in execution order
func RegisterPipelineSteps(registry *Registry, deps StepDeps) error {
	if deps.Paths == nil || deps.Parser == nil || deps.Pipeline == nil || deps.Features == nil {
		return fmt.Errorf("paths, parser, pipeline and feature exporter are required")
	}
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}

	steps := []Step{
		NewLoadStep(deps),
		NewStoresStep(deps),
		NewTrainFeaturesStep(deps),
		NewDistributionsStep(deps),
		NewTrainTableStep(deps),
		NewTestFeaturesStep(deps),
		NewTestTableStep(deps),
		NewExportStep(deps),
	}
	for _, step := range steps {
		if err := registry.Register(step); err != nil {
			return err
		}
	}
	return registry.ValidateDependencies()
}

// LoadStep parses the training sales and store files
type LoadStep struct {
	BaseStep
	deps StepDeps
}

// NewLoadStep creates the load step
func NewLoadStep(deps StepDeps) *LoadStep {
	return &LoadStep{
		BaseStep: NewBaseStep(StepIDLoad, StepNameLoad).WithOutputs(
			DataOutput{Key: ContextKeyTrainSales, Description: "parsed train.csv"},
			DataOutput{Key: ContextKeyStoreTable, Description: "parsed store.csv"},
		),
		deps: deps,
	}
}

// Execute parses both files concurrently
func (s *LoadStep) Execute(ctx context.Context, state *OperationState) error {
	paths := s.deps.Paths
	if err := paths.ValidateInputFiles(paths.TrainFile, paths.StoreFile); err != nil {
		return NewExecutionError(s.ID(), err, false)
	}

	var (
		sales  *domain.SalesTable
		stores *domain.StoreTable
	)
	var g errgroup.Group
	g.Go(func() error {
		var err error
		sales, err = s.deps.Parser.ParseSalesFile(paths.TrainFile)
		return err
	})
	g.Go(func() error {
		var err error
		stores, err = s.deps.Parser.ParseStoreFile(paths.StoreFile)
		return err
	})
	if err := g.Wait(); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	if !sales.HasSales {
		return apperrors.NewSchemaError(paths.TrainFile, domain.ColumnSales)
	}

	state.Put(ContextKeyTrainSales, sales)
	state.Put(ContextKeyStoreTable, stores)
	state.Step(s.ID()).SetMetadata("train_rows", sales.Len())
	state.Step(s.ID()).SetMetadata("stores", len(stores.Stores))
	return nil
}

// StoresStep normalizes the store metadata
type StoresStep struct {
	BaseStep
	deps StepDeps
}

// NewStoresStep creates the store normalization step
func NewStoresStep(deps StepDeps) *StoresStep {
	return &StoresStep{
		BaseStep: NewBaseStep(StepIDStores, StepNameStores, StepIDLoad).
			WithInputs(ContextKeyStoreTable).
			WithOutputs(DataOutput{Key: ContextKeyStores, Description: "normalized stores"}),
		deps: deps,
	}
}

// Execute normalizes the parsed store table
func (s *StoresStep) Execute(ctx context.Context, state *OperationState) error {
	table, err := ContextValue[*domain.StoreTable](state, ContextKeyStoreTable)
	if err != nil {
		return NewExecutionError(s.ID(), err, false)
	}
	state.Put(ContextKeyStores, s.deps.Pipeline.NormalizeStores(table))
	return nil
}

// TrainFeaturesStep enriches the training sales
type TrainFeaturesStep struct {
	BaseStep
	deps StepDeps
}

// NewTrainFeaturesStep creates the training enrichment step
func NewTrainFeaturesStep(deps StepDeps) *TrainFeaturesStep {
	return &TrainFeaturesStep{
		BaseStep: NewBaseStep(StepIDTrainFeatures, StepNameTrainFeatures, StepIDLoad, StepIDStores).
			WithInputs(ContextKeyTrainSales, ContextKeyStores).
			WithOutputs(DataOutput{Key: ContextKeyTrainEnriched, Description: "enriched training rows"}),
		deps: deps,
	}
}

// Execute merges the stores and derives the holiday features
func (s *TrainFeaturesStep) Execute(ctx context.Context, state *OperationState) error {
	sales, err := ContextValue[*domain.SalesTable](state, ContextKeyTrainSales)
	if err != nil {
		return NewExecutionError(s.ID(), err, false)
	}
	stores, err := ContextValue[*domain.NormalizedStores](state, ContextKeyStores)
	if err != nil {
		return NewExecutionError(s.ID(), err, false)
	}

	enriched, err := s.deps.Pipeline.Enrich(ctx, sales, stores, s.deps.Pipeline.Options().TrainExcludeYear)
	if err != nil {
		return err
	}
	state.Put(ContextKeyTrainEnriched, enriched)
	state.Step(s.ID()).SetMetadata("rows", len(enriched.Records))
	return nil
}

// DistributionsStep computes the per-store sales distributions
type DistributionsStep struct {
	BaseStep
	deps StepDeps
}

// NewDistributionsStep creates the distribution step
func NewDistributionsStep(deps StepDeps) *DistributionsStep {
	return &DistributionsStep{
		BaseStep: NewBaseStep(StepIDDistributions, StepNameDistributions, StepIDTrainFeatures).
			WithInputs(ContextKeyTrainEnriched).
			WithOutputs(DataOutput{Key: ContextKeyDistributions, Description: "store distributions"}),
		deps: deps,
	}
}

// Execute computes the distributions of the enriched training rows
func (s *DistributionsStep) Execute(ctx context.Context, state *OperationState) error {
	train, err := ContextValue[*domain.EnrichedTable](state, ContextKeyTrainEnriched)
	if err != nil {
		return NewExecutionError(s.ID(), err, false)
	}
	dist, err := s.deps.Pipeline.Distributions(ctx, train)
	if err != nil {
		return err
	}
	state.Put(ContextKeyDistributions, dist)
	state.Step(s.ID()).SetMetadata("rows", len(dist.Rows))
	return nil
}

// TrainTableStep builds the training feature table
type TrainTableStep struct {
	BaseStep
	deps StepDeps
}

// NewTrainTableStep creates the training table step
func NewTrainTableStep(deps StepDeps) *TrainTableStep {
	return &TrainTableStep{
		BaseStep: NewBaseStep(StepIDTrainTable, StepNameTrainTable, StepIDDistributions).
			WithInputs(ContextKeyTrainEnriched, ContextKeyDistributions).
			WithOutputs(DataOutput{Key: ContextKeyTrainTable, Description: "training feature table"}),
		deps: deps,
	}
}

// Execute merges the distributions into the training rows
func (s *TrainTableStep) Execute(ctx context.Context, state *OperationState) error {
	train, err := ContextValue[*domain.EnrichedTable](state, ContextKeyTrainEnriched)
	if err != nil {
		return NewExecutionError(s.ID(), err, false)
	}
	dist, err := ContextValue[*domain.DistributionTable](state, ContextKeyDistributions)
	if err != nil {
		return NewExecutionError(s.ID(), err, false)
	}
	table, err := s.deps.Pipeline.FeatureTable(ctx, train, dist)
	if err != nil {
		return err
	}
	state.Put(ContextKeyTrainTable, table)
	state.Step(s.ID()).SetMetadata("rows", table.Len())
	state.Step(s.ID()).SetMetadata("columns", len(table.Columns))
	return nil
}

// TestFeaturesStep parses and enriches the test sales
type TestFeaturesStep struct {
	BaseStep
	deps StepDeps
}

// NewTestFeaturesStep creates the test enrichment step
func NewTestFeaturesStep(deps StepDeps) *TestFeaturesStep {
	return &TestFeaturesStep{
		BaseStep: NewBaseStep(StepIDTestFeatures, StepNameTestFeatures, StepIDStores).
			WithInputs(ContextKeyStores).
			WithOutputs(
				DataOutput{Key: ContextKeyTestSales, Description: "parsed test.csv"},
				DataOutput{Key: ContextKeyTestEnriched, Description: "enriched test rows"},
			),
		deps: deps,
	}
}

// Execute parses test.csv and enriches it with the training stores
func (s *TestFeaturesStep) Execute(ctx context.Context, state *OperationState) error {
	paths := s.deps.Paths
	if err := paths.ValidateInputFiles(paths.TestFile); err != nil {
		return NewExecutionError(s.ID(), err, false)
	}
	stores, err := ContextValue[*domain.NormalizedStores](state, ContextKeyStores)
	if err != nil {
		return NewExecutionError(s.ID(), err, false)
	}

	sales, err := s.deps.Parser.ParseSalesFile(paths.TestFile)
	if err != nil {
		return err
	}
	enriched, err := s.deps.Pipeline.Enrich(ctx, sales, stores, s.deps.Pipeline.Options().TestExcludeYear)
	if err != nil {
		return err
	}
	state.Put(ContextKeyTestSales, sales)
	state.Put(ContextKeyTestEnriched, enriched)
	state.Step(s.ID()).SetMetadata("rows", len(enriched.Records))
	return nil
}

// TestTableStep builds the test feature table aligned with the training columns
type TestTableStep struct {
	BaseStep
	deps StepDeps
}

// NewTestTableStep creates the test table step
func NewTestTableStep(deps StepDeps) *TestTableStep {
	return &TestTableStep{
		BaseStep: NewBaseStep(StepIDTestTable, StepNameTestTable, StepIDTestFeatures, StepIDTrainTable).
			WithInputs(ContextKeyTestEnriched, ContextKeyDistributions, ContextKeyTrainTable).
			WithOutputs(DataOutput{Key: ContextKeyTestTable, Description: "test feature table"}),
		deps: deps,
	}
}

// Execute merges the training distributions and reindexes the columns
func (s *TestTableStep) Execute(ctx context.Context, state *OperationState) error {
	test, err := ContextValue[*domain.EnrichedTable](state, ContextKeyTestEnriched)
	if err != nil {
		return NewExecutionError(s.ID(), err, false)
	}
	dist, err := ContextValue[*domain.DistributionTable](state, ContextKeyDistributions)
	if err != nil {
		return NewExecutionError(s.ID(), err, false)
	}
	train, err := ContextValue[*domain.FeatureTable](state, ContextKeyTrainTable)
	if err != nil {
		return NewExecutionError(s.ID(), err, false)
	}

	table, err := s.deps.Pipeline.FeatureTable(ctx, test, dist)
	if err != nil {
		return err
	}
	aligned := s.deps.Pipeline.Align(ctx, table, train.Columns)
	state.Put(ContextKeyTestTable, aligned)
	state.Step(s.ID()).SetMetadata("rows", aligned.Len())
	return nil
}

// ExportStep writes the feature tables and the optional report and run record
type ExportStep struct {
	BaseStep
	deps StepDeps
}

// NewExportStep creates the export step
func NewExportStep(deps StepDeps) *ExportStep {
	return &ExportStep{
		BaseStep: NewBaseStep(StepIDExport, StepNameExport, StepIDTrainTable, StepIDTestTable).
			WithInputs(ContextKeyTrainTable, ContextKeyTestTable, ContextKeyDistributions, ContextKeyStores).
			WithOutputs(DataOutput{Key: ContextKeyOutputs, Description: "written file paths by name"}),
		deps: deps,
	}
}

// Execute writes every configured output
func (s *ExportStep) Execute(ctx context.Context, state *OperationState) error {
	train, err := ContextValue[*domain.FeatureTable](state, ContextKeyTrainTable)
	if err != nil {
		return NewExecutionError(s.ID(), err, false)
	}
	test, err := ContextValue[*domain.FeatureTable](state, ContextKeyTestTable)
	if err != nil {
		return NewExecutionError(s.ID(), err, false)
	}
	dist, err := ContextValue[*domain.DistributionTable](state, ContextKeyDistributions)
	if err != nil {
		return NewExecutionError(s.ID(), err, false)
	}
	stores, err := ContextValue[*domain.NormalizedStores](state, ContextKeyStores)
	if err != nil {
		return NewExecutionError(s.ID(), err, false)
	}

	outputs := make(map[string]string)

	trainPath, err := s.deps.Features.WriteFeatures(config.TrainFeaturesFile, train)
	if err != nil {
		return err
	}
	outputs["train"] = trainPath
	s.deps.Tracer.RecordRows(ctx, "train", train.Len())

	testPath, err := s.deps.Features.WriteFeatures(config.TestFeaturesFile, test)
	if err != nil {
		return err
	}
	outputs["test"] = testPath
	s.deps.Tracer.RecordRows(ctx, "test", test.Len())

	if s.deps.Reports != nil {
		reportPath := s.deps.Paths.GetReportPath(config.DistributionsFile)
		if err := s.deps.Reports.WriteDistributionReport(reportPath, dist, stores); err != nil {
			return err
		}
		outputs["report"] = reportPath
	}

	if s.deps.Store != nil {
		runID, err := ContextValue[string](state, ContextKeyRunID)
		if err == nil && runID == "" {
			err = fmt.Errorf("context value %s is empty", ContextKeyRunID)
		}
		if err != nil {
			return NewExecutionError(s.ID(), err, false)
		}
		run := store.Run{
			ID:         runID,
			StartedAt:  state.StartedAt().UTC().Truncate(time.Second),
			TrainRows:  train.Len(),
			TestRows:   test.Len(),
			GlobalMean: dist.GlobalMean,
			GlobalStd:  dist.GlobalStd,
		}
		if err := s.deps.Store.SaveDistributions(run, dist); err != nil {
			return NewExecutionError(s.ID(), err, true)
		}
		outputs["run"] = runID
	}

	state.Put(ContextKeyOutputs, outputs)
	s.deps.Logger.InfoContext(ctx, "features_exported",
		slog.String("train", trainPath),
		slog.String("test", testPath),
		slog.Int("train_rows", train.Len()),
		slog.Int("test_rows", test.Len()))
	return nil
}
