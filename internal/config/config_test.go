package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ViennaKaggle/prudential-life-insurance-assessment/internal/errors"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestDefault_IsValid(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())

	assert.Equal(t, 2015, cfg.Pipeline.TrainExcludeYear)
	assert.Equal(t, 2050, cfg.Pipeline.TestExcludeYear)
	assert.Equal(t, 7, cfg.Pipeline.HolidayEndingFromMonth)
	assert.Equal(t, 9, cfg.Pipeline.HolidayEndingToMonth)
	assert.Equal(t, "global", cfg.Pipeline.UnseenStorePolicy)
	assert.Equal(t, 4, cfg.Evaluation.Folds)
	assert.Equal(t, uint64(42), cfg.Evaluation.Seed)
	assert.True(t, cfg.Evaluation.Shuffle)
}

func TestLoad_FileOverlaysDefaults(t *testing.T) {
	path := writeConfig(t, `
paths:
  data_dir: /srv/rossmann
pipeline:
  unseen_store_policy: zero
evaluation:
  shuffle: false
  log1p_columns: [Sales_mean]
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "/srv/rossmann", cfg.Paths.DataDir)
	assert.Equal(t, "train.csv", cfg.Paths.TrainFile)
	assert.Equal(t, "zero", cfg.Pipeline.UnseenStorePolicy)
	assert.False(t, cfg.Evaluation.Shuffle)
	assert.Equal(t, []string{"Sales_mean"}, cfg.Evaluation.Log1pColumns)
	assert.Equal(t, 2015, cfg.Pipeline.TrainExcludeYear)
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	path := writeConfig(t, `
logging:
  level: warn
pipeline:
  train_exclude_year: 2014
`)
	t.Setenv("SALES_LOGGING_LEVEL", "debug")
	t.Setenv("SALES_EVALUATION_FOLDS", "5")
	t.Setenv("SALES_EVALUATION_LOG1P_COLUMNS", "Sales_mean,Sales_std")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Equal(t, 5, cfg.Evaluation.Folds)
	assert.Equal(t, 2014, cfg.Pipeline.TrainExcludeYear)
	assert.Equal(t, []string{"Sales_mean", "Sales_std"}, cfg.Evaluation.Log1pColumns)
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"unknown policy", "pipeline:\n  unseen_store_policy: mean\n"},
		{"inverted month window", "pipeline:\n  holiday_ending_from_month: 9\n  holiday_ending_to_month: 7\n"},
		{"too few folds", "evaluation:\n  folds: 1\n"},
		{"bad log output", "logging:\n  output: syslog\n"},
		{"bad pushgateway url", "telemetry:\n  pushgateway_url: not a url\n"},
		{"malformed yaml", "pipeline: [\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tt.content))
			require.Error(t, err)
			assert.True(t, errors.IsType(err, errors.ErrTypeConfig))
		})
	}
}

func TestLoad_MissingExplicitFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.ErrTypeConfig))
}
