package main

import (
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/ViennaKaggle/prudential-life-insurance-assessment/internal/config"
	apperrors "github.com/ViennaKaggle/prudential-life-insurance-assessment/internal/errors"
	"github.com/ViennaKaggle/prudential-life-insurance-assessment/internal/evaluation"
	"github.com/ViennaKaggle/prudential-life-insurance-assessment/internal/exporter"
)

func newSubmitCmd(root *rootOptions) *cobra.Command {
	var trainPath, testPath string

	cmd := &cobra.Command{
		Use:   "submit",
		Short: "Fit the baseline on the training features and write a submission",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			a, err := newApp(ctx, root)
			if err != nil {
				return err
			}
			defer a.close(ctx)

			if trainPath == "" {
				trainPath = a.paths.GetReportPath(config.TrainFeaturesFile)
			}
			if testPath == "" {
				testPath = a.paths.GetReportPath(config.TestFeaturesFile)
			}

			features := exporter.NewFeatureExporter(nil, a.logger)
			trainTable, err := features.ReadFeatures(trainPath)
			if err != nil {
				return err
			}
			testTable, err := features.ReadFeatures(testPath)
			if err != nil {
				return err
			}
			if !testTable.HasIDs() {
				return apperrors.NewSchemaError(testPath, "Id")
			}

			train, err := evaluation.Project(trainTable)
			if err != nil {
				return err
			}
			if train.Y == nil {
				return apperrors.NewSchemaError(trainPath, "Sales")
			}
			test, err := evaluation.Project(testTable)
			if err != nil {
				return err
			}

			factory, err := baselineFactory(train.Columns, a.cfg.Evaluation)
			if err != nil {
				return err
			}
			model := factory()
			if err := model.Fit(train.X, train.Y); err != nil {
				return err
			}
			values, err := model.Predict(test.X)
			if err != nil {
				return err
			}

			predictions := make([]exporter.Prediction, len(values))
			for i, v := range values {
				predictions[i] = exporter.Prediction{ID: testTable.IDs[i], Value: v}
			}
			path, err := exporter.NewSubmissionWriter(a.paths, a.logger).Write(predictions)
			if err != nil {
				return err
			}

			a.logger.InfoContext(ctx, "submission_complete",
				slog.String("train", trainPath),
				slog.String("test", testPath),
				slog.Int("predictions", len(predictions)))
			cmd.Println(path)
			return nil
		},
	}

	cmd.Flags().StringVar(&trainPath, "train", "", "training feature table (default <reports>/features_train.csv)")
	cmd.Flags().StringVar(&testPath, "test", "", "test feature table (default <reports>/features_test.csv)")
	return cmd
}
