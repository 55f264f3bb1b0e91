package main

import (
	"log/slog"
	"sort"

	"github.com/spf13/cobra"

	"github.com/ViennaKaggle/prudential-life-insurance-assessment/internal/dataprocessing"
	"github.com/ViennaKaggle/prudential-life-insurance-assessment/internal/exporter"
	"github.com/ViennaKaggle/prudential-life-insurance-assessment/internal/infrastructure"
	"github.com/ViennaKaggle/prudential-life-insurance-assessment/internal/operations"
)

func newFeaturizeCmd(root *rootOptions) *cobra.Command {
	var (
		noReport  bool
		noPersist bool
		steps     []string
	)

	cmd := &cobra.Command{
		Use:   "featurize",
		Short: "Build the training and test feature tables",
		Long: `Run the feature pipeline over train.csv, test.csv and store.csv.

Writes features_train.csv and features_test.csv to the reports directory,
the distributions.xlsx report and a run record with the per-store
distributions in the run database. Use --steps to run a subset; the
dependencies of every listed step run as well.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			a, err := newApp(ctx, root)
			if err != nil {
				return err
			}
			defer a.close(ctx)

			pipeline, err := dataprocessing.NewPipeline(a.logger, dataprocessing.OptionsFromConfig(a.cfg.Pipeline))
			if err != nil {
				return err
			}

			deps := operations.StepDeps{
				Paths:    a.paths,
				Parser:   dataprocessing.NewCSVParser(a.logger),
				Pipeline: pipeline,
				Features: exporter.NewFeatureExporter(exporter.NewCSVWriter(a.paths, a.logger), a.logger),
				Tracer:   a.tracer,
				Logger:   a.logger,
			}
			if a.cfg.Pipeline.WriteReport && !noReport {
				deps.Reports = exporter.NewReportExporter(a.logger)
			}
			if a.cfg.Pipeline.PersistDistributions && !noPersist {
				db, err := a.openStore()
				if err != nil {
					return err
				}
				deps.Store = db
			}

			registry := operations.NewRegistry()
			if err := operations.RegisterPipelineSteps(registry, deps); err != nil {
				return err
			}
			manager := operations.NewManager(registry, operations.NewConfig(), a.logger, a.tracer)

			resp, state, err := manager.Execute(ctx, operations.OperationRequest{
				ID:    infrastructure.GenerateRunID(),
				Steps: steps,
			})
			for _, id := range resp.Order {
				step := resp.Steps[id]
				a.logger.InfoContext(ctx, "step_summary",
					slog.String("step", id),
					slog.String("status", string(step.Status)),
					slog.Int("attempts", step.Attempts),
					slog.Any("metadata", step.Metadata))
			}
			if err != nil {
				return err
			}

			outputs, _ := operations.ContextValue[map[string]string](state, operations.ContextKeyOutputs)
			names := make([]string, 0, len(outputs))
			for name := range outputs {
				names = append(names, name)
			}
			sort.Strings(names)

			cmd.Printf("run %s %s in %s\n", resp.ID, resp.Status, resp.Duration.Round(1e6))
			for _, name := range names {
				cmd.Printf("  %-7s %s\n", name, outputs[name])
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&noReport, "no-report", false, "skip the distributions.xlsx report")
	cmd.Flags().BoolVar(&noPersist, "no-persist", false, "do not record the run in the database")
	cmd.Flags().StringSliceVar(&steps, "steps", nil, "run only these steps and their dependencies")
	return cmd
}
