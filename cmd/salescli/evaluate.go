package main

import (
	"fmt"
	"log/slog"
	"path/filepath"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/ViennaKaggle/prudential-life-insurance-assessment/internal/config"
	apperrors "github.com/ViennaKaggle/prudential-life-insurance-assessment/internal/errors"
	"github.com/ViennaKaggle/prudential-life-insurance-assessment/internal/evaluation"
	"github.com/ViennaKaggle/prudential-life-insurance-assessment/internal/exporter"
	"github.com/ViennaKaggle/prudential-life-insurance-assessment/internal/infrastructure"
	"github.com/ViennaKaggle/prudential-life-insurance-assessment/internal/store"
)

const scorerRMSPE = "rmspe"

func newEvaluateCmd(root *rootOptions) *cobra.Command {
	var (
		featuresPath string
		folds        int
		jobs         int
		runID        string
		noPersist    bool
	)

	cmd := &cobra.Command{
		Use:   "evaluate",
		Short: "Cross-validate the distribution baseline on the training features",
		Long: `Read the training feature table, fill missing values, apply the configured
log1p columns and score the distribution baseline with k-fold
cross-validation. Scores are negated RMSPE, so higher is better.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			a, err := newApp(ctx, root)
			if err != nil {
				return err
			}
			defer a.close(ctx)

			evalCfg := a.cfg.Evaluation
			if cmd.Flags().Changed("folds") {
				evalCfg.Folds = folds
			}
			if cmd.Flags().Changed("jobs") {
				evalCfg.Jobs = jobs
			}
			if featuresPath == "" {
				featuresPath = a.paths.GetReportPath(config.TrainFeaturesFile)
			}

			table, err := exporter.NewFeatureExporter(nil, a.logger).ReadFeatures(featuresPath)
			if err != nil {
				return err
			}
			values, err := evaluation.Project(table)
			if err != nil {
				return err
			}
			if values.Y == nil {
				return apperrors.NewSchemaError(featuresPath, "Sales")
			}

			factory, err := baselineFactory(values.Columns, evalCfg)
			if err != nil {
				return err
			}
			kfolds, err := evaluation.KFold(len(values.X), evalCfg.Folds, evalCfg.Shuffle, evalCfg.Seed)
			if err != nil {
				return err
			}

			scores, err := evaluation.CrossValScore(ctx, factory, values.X, values.Y, kfolds, evaluation.RMSPEScorer(), evalCfg.Jobs)
			if err != nil {
				return err
			}

			metrics := a.tracer.Metrics()
			records := make([]store.Score, 0, len(scores))
			for i, score := range scores {
				a.logger.InfoContext(ctx, "fold_scored",
					slog.Int("fold", i),
					slog.Int("test_rows", len(kfolds[i].Test)),
					slog.Float64("score", score))
				infrastructure.RecordScore(ctx, metrics, scorerRMSPE, strconv.Itoa(i), score)
				records = append(records, store.Score{Scorer: scorerRMSPE, Fold: i, Score: score})
			}
			mean, std := evaluation.Summarize(scores)
			infrastructure.RecordScore(ctx, metrics, scorerRMSPE, "mean", mean)
			a.logger.InfoContext(ctx, "evaluation_complete",
				slog.String("features", featuresPath),
				slog.Int("folds", len(scores)),
				slog.Float64("mean", mean),
				slog.Float64("std", std))

			if !noPersist {
				if err := saveScores(a, runID, records); err != nil {
					return err
				}
			}

			for i, score := range scores {
				cmd.Printf("fold %d  %.6f\n", i, score)
			}
			cmd.Printf("%s %.6f +/- %.6f (%s)\n", scorerRMSPE, mean, std, filepath.Base(featuresPath))
			return nil
		},
	}

	cmd.Flags().StringVar(&featuresPath, "features", "", "training feature table (default <reports>/features_train.csv)")
	cmd.Flags().IntVar(&folds, "folds", evaluation.DefaultFolds, "number of cross-validation folds")
	cmd.Flags().IntVar(&jobs, "jobs", 0, "folds scored concurrently (0 = all)")
	cmd.Flags().StringVar(&runID, "run", "", "run id the scores belong to (default latest run)")
	cmd.Flags().BoolVar(&noPersist, "no-persist", false, "do not store the scores")
	return cmd
}

// baselineFactory builds the estimator chain configured for evaluation
func baselineFactory(columns []string, cfg config.EvaluationConfig) (evaluation.EstimatorFactory, error) {
	var transforms []evaluation.Transformer

	fill := cfg.FillValue
	transforms = append(transforms, evaluation.NanPreProcessor{Fill: &fill})

	if len(cfg.Log1pColumns) > 0 {
		log1pCfg, err := evaluation.Log1pColumns(columns, cfg.Log1pColumns)
		if err != nil {
			return nil, err
		}
		log1p, err := evaluation.NewLog1pTransform(log1pCfg)
		if err != nil {
			return nil, err
		}
		transforms = append(transforms, log1p)
	}

	if _, err := evaluation.NewDistributionBaseline(columns); err != nil {
		return nil, err
	}
	return func() evaluation.Estimator {
		baseline, _ := evaluation.NewDistributionBaseline(columns)
		return evaluation.Chain(baseline, transforms...)
	}, nil
}

// saveScores attaches the scores to runID, or to the latest run when empty
func saveScores(a *app, runID string, scores []store.Score) error {
	db, err := a.openStore()
	if err != nil {
		return err
	}
	if runID == "" {
		run, _, err := db.LatestDistributions()
		if err != nil {
			return err
		}
		if run == nil {
			a.logger.Warn("scores_not_saved", slog.String("reason", "no featurize run recorded"))
			return nil
		}
		runID = run.ID
	}
	for i := range scores {
		scores[i].RunID = runID
	}
	if err := db.SaveScores(scores); err != nil {
		return fmt.Errorf("save scores: %w", err)
	}
	a.logger.Info("scores_saved", slog.String("run_id", runID), slog.Int("folds", len(scores)))
	return nil
}
