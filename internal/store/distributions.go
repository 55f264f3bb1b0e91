package store

import (
	"database/sql"
	"fmt"
	"math"
	"time"

	apperrors "github.com/ViennaKaggle/prudential-life-insurance-assessment/internal/errors"
	"github.com/ViennaKaggle/prudential-life-insurance-assessment/pkg/contracts/domain"
)

// SaveDistributions records a run and its distribution table in one transaction
func (s *Store) SaveDistributions(run Run, table *domain.DistributionTable) error {
	err := s.Transaction(func(tx *sql.Tx) error {
		_, err := tx.Exec(`
			INSERT INTO runs (id, started_at, train_rows, test_rows, global_mean, global_std)
			VALUES (?, ?, ?, ?, ?, ?)
			ON CONFLICT(id) DO UPDATE SET
			  started_at = excluded.started_at,
			  train_rows = excluded.train_rows,
			  test_rows = excluded.test_rows,
			  global_mean = excluded.global_mean,
			  global_std = excluded.global_std
		`, run.ID, run.StartedAt.UTC(), run.TrainRows, run.TestRows, nullable(table.GlobalMean), nullable(table.GlobalStd))
		if err != nil {
			return fmt.Errorf("failed to insert run: %w", err)
		}

		if _, err := tx.Exec("DELETE FROM store_distributions WHERE run_id = ?", run.ID); err != nil {
			return fmt.Errorf("failed to clear distributions: %w", err)
		}

		stmt, err := tx.Prepare(`
			INSERT INTO store_distributions
			(run_id, store, post_comp, sales_mean, sales_std, row_count, synthesized)
			VALUES (?, ?, ?, ?, ?, ?, ?)
		`)
		if err != nil {
			return fmt.Errorf("failed to prepare insert: %w", err)
		}
		defer stmt.Close()

		for _, row := range table.Rows {
			_, err := stmt.Exec(run.ID, row.Store, boolInt(row.PostComp), nullable(row.SalesMean),
				nullable(row.SalesStd), row.Count, boolInt(row.Synthesized))
			if err != nil {
				return fmt.Errorf("failed to insert distribution for store %d: %w", row.Store, err)
			}
		}
		return nil
	})
	if err != nil {
		return apperrors.NewStorageError("failed to save distributions", err).WithContext("run_id", run.ID)
	}
	return nil
}

// GetRun returns a run by id, or nil when it does not exist
func (s *Store) GetRun(id string) (*Run, error) {
	var run Run
	var mean, std sql.NullFloat64

	err := s.db.QueryRow(`
		SELECT id, started_at, train_rows, test_rows, global_mean, global_std
		FROM runs
		WHERE id = ?
	`, id).Scan(&run.ID, &run.StartedAt, &run.TrainRows, &run.TestRows, &mean, &std)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	run.GlobalMean = fromNullable(mean)
	run.GlobalStd = fromNullable(std)
	return &run, nil
}

// ListRuns returns all runs, newest first
func (s *Store) ListRuns() ([]*Run, error) {
	rows, err := s.db.Query(`
		SELECT id, started_at, train_rows, test_rows, global_mean, global_std
		FROM runs
		ORDER BY started_at DESC, id
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var runs []*Run
	for rows.Next() {
		var run Run
		var mean, std sql.NullFloat64
		if err := rows.Scan(&run.ID, &run.StartedAt, &run.TrainRows, &run.TestRows, &mean, &std); err != nil {
			return nil, err
		}
		run.GlobalMean = fromNullable(mean)
		run.GlobalStd = fromNullable(std)
		runs = append(runs, &run)
	}

	return runs, rows.Err()
}

// LoadDistributions returns the distribution table saved for a run
func (s *Store) LoadDistributions(runID string) (*domain.DistributionTable, error) {
	run, err := s.GetRun(runID)
	if err != nil {
		return nil, err
	}
	if run == nil {
		return nil, apperrors.NewNotFoundError(fmt.Sprintf("run %s", runID))
	}

	rows, err := s.db.Query(`
		SELECT store, post_comp, sales_mean, sales_std, row_count, synthesized
		FROM store_distributions
		WHERE run_id = ?
		ORDER BY store, post_comp
	`, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	table := &domain.DistributionTable{GlobalMean: run.GlobalMean, GlobalStd: run.GlobalStd}
	for rows.Next() {
		var row domain.StoreDistribution
		var postComp, synthesized int
		var mean, std sql.NullFloat64
		if err := rows.Scan(&row.Store, &postComp, &mean, &std, &row.Count, &synthesized); err != nil {
			return nil, err
		}
		row.PostComp = postComp == 1
		row.Synthesized = synthesized == 1
		row.SalesMean = fromNullable(mean)
		row.SalesStd = fromNullable(std)
		table.Rows = append(table.Rows, row)
	}

	return table, rows.Err()
}

// LatestDistributions returns the newest run and its distribution table, or nil when empty
func (s *Store) LatestDistributions() (*Run, *domain.DistributionTable, error) {
	runs, err := s.ListRuns()
	if err != nil {
		return nil, nil, err
	}
	if len(runs) == 0 {
		return nil, nil, nil
	}

	table, err := s.LoadDistributions(runs[0].ID)
	if err != nil {
		return nil, nil, err
	}
	return runs[0], table, nil
}

// DeleteRunsBefore removes runs started before cutoff and their distributions
func (s *Store) DeleteRunsBefore(cutoff time.Time) (int64, error) {
	var deleted int64
	err := s.Transaction(func(tx *sql.Tx) error {
		if _, err := tx.Exec(`
			DELETE FROM store_distributions
			WHERE run_id IN (SELECT id FROM runs WHERE started_at < ?)
		`, cutoff.UTC()); err != nil {
			return err
		}
		res, err := tx.Exec("DELETE FROM runs WHERE started_at < ?", cutoff.UTC())
		if err != nil {
			return err
		}
		deleted, err = res.RowsAffected()
		return err
	})
	return deleted, err
}

func nullable(v float64) sql.NullFloat64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: v, Valid: true}
}

func fromNullable(v sql.NullFloat64) float64 {
	if !v.Valid {
		return domain.Missing
	}
	return v.Float64
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
