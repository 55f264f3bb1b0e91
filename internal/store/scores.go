package store

// SaveScores records cross-validation fold scores
func (s *Store) SaveScores(scores []Score) error {
	for _, score := range scores {
		_, err := s.db.Exec(`
			INSERT OR REPLACE INTO evaluation_scores (run_id, scorer, fold, score)
			VALUES (?, ?, ?, ?)
		`, score.RunID, score.Scorer, score.Fold, score.Score)
		if err != nil {
			return err
		}
	}
	return nil
}

// GetScores returns the fold scores of a run ordered by scorer and fold
func (s *Store) GetScores(runID string) ([]Score, error) {
	rows, err := s.db.Query(`
		SELECT run_id, scorer, fold, score
		FROM evaluation_scores
		WHERE run_id = ?
		ORDER BY scorer, fold
	`, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var scores []Score
	for rows.Next() {
		var score Score
		if err := rows.Scan(&score.RunID, &score.Scorer, &score.Fold, &score.Score); err != nil {
			return nil, err
		}
		scores = append(scores, score)
	}

	return scores, rows.Err()
}
