package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// Paths contains every resolved file system location used by a run
type Paths struct {
	DataDir        string
	TrainFile      string
	TestFile       string
	StoreFile      string
	ReportsDir     string
	SubmissionsDir string
	LogsDir        string
	DatabaseFile   string
}

// SubmissionTimeLayout formats the timestamp in submission file names
const SubmissionTimeLayout = "20060102_150405"

// Well-known output files
const (
	TrainFeaturesFile = "features_train.csv"
	TestFeaturesFile  = "features_test.csv"
	DistributionsFile = "distributions.xlsx"
)

// ResolvePaths turns the configured locations into concrete paths
func ResolvePaths(cfg PathsConfig) *Paths {
	inData := func(name string) string {
		if filepath.IsAbs(name) {
			return name
		}
		return filepath.Join(cfg.DataDir, name)
	}

	return &Paths{
		DataDir:        cfg.DataDir,
		TrainFile:      inData(cfg.TrainFile),
		TestFile:       inData(cfg.TestFile),
		StoreFile:      inData(cfg.StoreFile),
		ReportsDir:     cfg.ReportsDir,
		SubmissionsDir: cfg.SubmissionsDir,
		LogsDir:        cfg.LogsDir,
		DatabaseFile:   cfg.DatabaseFile,
	}
}

// EnsureDirectories creates all output directories if they don't exist
func (p *Paths) EnsureDirectories() error {
	directories := []string{
		p.ReportsDir,
		p.SubmissionsDir,
		p.LogsDir,
		filepath.Dir(p.DatabaseFile),
	}

	logger := slog.Default()
	for _, dir := range directories {
		if dir == "" || dir == "." {
			continue
		}
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
		logger.Debug("ensured_directory", slog.String("directory", dir))
	}

	return nil
}

// GetReportPath returns the path of a report file
func (p *Paths) GetReportPath(filename string) string {
	return filepath.Join(p.ReportsDir, filename)
}

// GetSubmissionPath returns the timestamped submission file path for t
func (p *Paths) GetSubmissionPath(t time.Time) string {
	return filepath.Join(p.SubmissionsDir, fmt.Sprintf("predictions_%s.csv", t.Format(SubmissionTimeLayout)))
}

// LogPathResolution logs the resolved paths for debugging
func (p *Paths) LogPathResolution() {
	slog.Default().Info("path_resolution",
		slog.Group("inputs",
			slog.String("train", p.TrainFile),
			slog.String("test", p.TestFile),
			slog.String("store", p.StoreFile),
		),
		slog.Group("outputs",
			slog.String("reports", p.ReportsDir),
			slog.String("submissions", p.SubmissionsDir),
			slog.String("logs", p.LogsDir),
			slog.String("database", p.DatabaseFile),
		))
}

// ValidateInputFiles checks that the given input files exist
func (p *Paths) ValidateInputFiles(files ...string) error {
	var missing []string
	for _, path := range files {
		if !FileExists(path) {
			missing = append(missing, path)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("required files missing: %s", strings.Join(missing, ", "))
	}
	return nil
}

// FileExists checks if a file exists
func FileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
