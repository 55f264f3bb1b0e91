package main

import (
	"fmt"
	"path/filepath"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	apperrors "github.com/ViennaKaggle/prudential-life-insurance-assessment/internal/errors"
	"github.com/ViennaKaggle/prudential-life-insurance-assessment/internal/exporter"
	"github.com/ViennaKaggle/prudential-life-insurance-assessment/internal/store"
	"github.com/ViennaKaggle/prudential-life-insurance-assessment/pkg/contracts/domain"
)

const (
	formatCSV  = "csv"
	formatXLSX = "xlsx"
)

func newDistributionsCmd(root *rootOptions) *cobra.Command {
	var (
		list      bool
		runID     string
		output    string
		format    string
		pruneDays int
	)

	cmd := &cobra.Command{
		Use:   "distributions",
		Short: "Inspect per-store distributions recorded by featurize",
		Long: `Print or export the per-store sales distributions of a recorded run.

Without --run the latest run is used. Printed output also lists the
evaluation scores recorded for the run. --output writes the table as csv or
xlsx instead of printing it; the format follows --format or the file
extension. --prune removes runs older than the given number of days.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			a, err := newApp(ctx, root)
			if err != nil {
				return err
			}
			defer a.close(ctx)

			db, err := a.openStore()
			if err != nil {
				return err
			}
			if err := db.CheckIntegrity(); err != nil {
				return err
			}

			if pruneDays > 0 {
				deleted, err := db.DeleteRunsBefore(time.Now().UTC().AddDate(0, 0, -pruneDays))
				if err != nil {
					return err
				}
				cmd.Printf("pruned %d runs\n", deleted)
				return nil
			}

			if list {
				return printRuns(cmd, db)
			}

			run, dist, err := loadRun(db, runID)
			if err != nil {
				return err
			}

			if output == "" {
				if err := printDistributions(cmd, run, dist); err != nil {
					return err
				}
				return printScores(cmd, db, run.ID)
			}

			if format == "" {
				format = strings.TrimPrefix(strings.ToLower(filepath.Ext(output)), ".")
			}
			switch format {
			case formatCSV:
				path, err := exporter.NewCSVWriter(a.paths, a.logger).WriteDistributions(output, dist)
				if err != nil {
					return err
				}
				cmd.Println(path)
			case formatXLSX:
				if !filepath.IsAbs(output) {
					output = a.paths.GetReportPath(output)
				}
				if err := exporter.NewReportExporter(a.logger).WriteDistributionReport(output, dist, nil); err != nil {
					return err
				}
				cmd.Println(output)
			default:
				return apperrors.NewAppValidationError(fmt.Sprintf("unsupported format %q (want csv or xlsx)", format))
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&list, "list", false, "list recorded runs")
	cmd.Flags().StringVar(&runID, "run", "", "run id (default latest run)")
	cmd.Flags().StringVarP(&output, "output", "o", "", "write the distributions to this file")
	cmd.Flags().StringVar(&format, "format", "", "output format: csv or xlsx")
	cmd.Flags().IntVar(&pruneDays, "prune", 0, "delete runs older than this many days")
	return cmd
}

func loadRun(db *store.Store, runID string) (*store.Run, *domain.DistributionTable, error) {
	if runID == "" {
		run, dist, err := db.LatestDistributions()
		if err != nil {
			return nil, nil, err
		}
		if run == nil {
			return nil, nil, apperrors.NewNotFoundError("featurize run")
		}
		return run, dist, nil
	}

	run, err := db.GetRun(runID)
	if err != nil {
		return nil, nil, err
	}
	if run == nil {
		return nil, nil, apperrors.NewNotFoundError("run " + runID)
	}
	dist, err := db.LoadDistributions(runID)
	if err != nil {
		return nil, nil, err
	}
	return run, dist, nil
}

func printRuns(cmd *cobra.Command, db *store.Store) error {
	runs, err := db.ListRuns()
	if err != nil {
		return err
	}
	tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "RUN\tSTARTED\tTRAIN\tTEST\tMEAN\tSTD")
	for _, run := range runs {
		fmt.Fprintf(tw, "%s\t%s\t%d\t%d\t%.2f\t%.2f\n",
			run.ID, run.StartedAt.Format(time.RFC3339), run.TrainRows, run.TestRows, run.GlobalMean, run.GlobalStd)
	}
	return tw.Flush()
}

func printDistributions(cmd *cobra.Command, run *store.Run, dist *domain.DistributionTable) error {
	cmd.Printf("run %s (%s)\n", run.ID, run.StartedAt.Format(time.RFC3339))
	tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, strings.Join(exporter.DistributionHeaders, "\t"))
	for _, record := range exporter.DistributionRecords(dist) {
		fmt.Fprintln(tw, strings.Join(record, "\t"))
	}
	return tw.Flush()
}

// printScores lists the evaluation scores recorded against runID, if any
func printScores(cmd *cobra.Command, db *store.Store, runID string) error {
	scores, err := db.GetScores(runID)
	if err != nil {
		return err
	}
	if len(scores) == 0 {
		return nil
	}
	cmd.Println()
	tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "SCORER\tFOLD\tSCORE")
	for _, score := range scores {
		fmt.Fprintf(tw, "%s\t%d\t%.6f\n", score.Scorer, score.Fold, score.Score)
	}
	return tw.Flush()
}
