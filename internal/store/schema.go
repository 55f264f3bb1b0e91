package store

// Schema v1 - runs and their store distributions
const schemaV1 = `
-- Schema version tracking
CREATE TABLE IF NOT EXISTS schema_version (
  version INTEGER PRIMARY KEY,
  applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
);

-- One row per featurize run
CREATE TABLE IF NOT EXISTS runs (
  id TEXT PRIMARY KEY,
  started_at DATETIME NOT NULL,
  train_rows INTEGER NOT NULL DEFAULT 0,
  test_rows INTEGER NOT NULL DEFAULT 0,
  global_mean REAL,
  global_std REAL
);

-- Sales statistics per store and competition era
CREATE TABLE IF NOT EXISTS store_distributions (
  run_id TEXT NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
  store INTEGER NOT NULL,
  post_comp INTEGER NOT NULL,
  sales_mean REAL,
  sales_std REAL,
  row_count INTEGER NOT NULL DEFAULT 0,
  synthesized INTEGER NOT NULL DEFAULT 0,
  PRIMARY KEY (run_id, store, post_comp)
);
`

// Schema v2 - cross-validation scores and lookup indexes
const schemaV2 = `
CREATE TABLE IF NOT EXISTS evaluation_scores (
  run_id TEXT NOT NULL,
  scorer TEXT NOT NULL,
  fold INTEGER NOT NULL,
  score REAL NOT NULL,
  recorded_at DATETIME DEFAULT CURRENT_TIMESTAMP,
  PRIMARY KEY (run_id, scorer, fold)
);

CREATE INDEX IF NOT EXISTS idx_runs_started_at ON runs(started_at);
CREATE INDEX IF NOT EXISTS idx_store_distributions_store ON store_distributions(store);
`
