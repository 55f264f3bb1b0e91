package exporter

import (
	"bufio"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/ViennaKaggle/prudential-life-insurance-assessment/internal/config"
	apperrors "github.com/ViennaKaggle/prudential-life-insurance-assessment/internal/errors"
)

// SubmissionHeaders are the columns of a prediction file
var SubmissionHeaders = []string{"Id", "Response"}

// Prediction is one submitted value
type Prediction struct {
	ID    int
	Value float64
}

// SubmissionWriter writes timestamped prediction files
type SubmissionWriter struct {
	paths  *config.Paths
	logger *slog.Logger
	now    func() time.Time
}

// NewSubmissionWriter creates a writer placing files in the submissions directory
func NewSubmissionWriter(paths *config.Paths, logger *slog.Logger) *SubmissionWriter {
	if logger == nil {
		logger = slog.Default()
	}
	return &SubmissionWriter{paths: paths, logger: logger, now: time.Now}
}

// Write stores predictions sorted by Id in predictions_<timestamp>.csv and returns the path
func (w *SubmissionWriter) Write(predictions []Prediction) (string, error) {
	path := w.paths.GetSubmissionPath(w.now())
	if err := WriteSubmissionFile(path, predictions); err != nil {
		return "", err
	}
	w.logger.Info("submission_written",
		slog.String("path", path),
		slog.Int("rows", len(predictions)))
	return path, nil
}

// WriteSubmissionFile writes predictions to path. The header and non-numeric values
// are quoted; numbers are written bare.
func WriteSubmissionFile(path string, predictions []Prediction) error {
	sorted := make([]Prediction, len(predictions))
	copy(sorted, predictions)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].ID < sorted[j].ID })

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return apperrors.NewExportError("failed to create submission directory", err).WithContext("file", path)
	}
	file, err := os.Create(path)
	if err != nil {
		return apperrors.NewExportError("failed to create submission file", err).WithContext("file", path)
	}
	defer file.Close()

	buf := bufio.NewWriter(file)
	quoted := make([]string, len(SubmissionHeaders))
	for i, h := range SubmissionHeaders {
		quoted[i] = quote(h)
	}
	fmt.Fprintln(buf, strings.Join(quoted, ","))
	for _, p := range sorted {
		fmt.Fprintf(buf, "%d,%s\n", p.ID, formatReprFloat(p.Value))
	}
	if err := buf.Flush(); err != nil {
		return apperrors.NewExportError("failed to write submission file", err).WithContext("file", path)
	}
	return file.Close()
}

func quote(s string) string {
	return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
}
