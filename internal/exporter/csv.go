package exporter

import (
	"encoding/csv"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/ViennaKaggle/prudential-life-insurance-assessment/internal/config"
	apperrors "github.com/ViennaKaggle/prudential-life-insurance-assessment/internal/errors"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// CSVWriter writes CSV files, placing relative paths in the reports directory
type CSVWriter struct {
	paths  *config.Paths
	logger *slog.Logger
}

// NewCSVWriter creates a writer rooted at paths; nil paths leaves relative paths as given
func NewCSVWriter(paths *config.Paths, logger *slog.Logger) *CSVWriter {
	if logger == nil {
		logger = slog.Default()
	}
	return &CSVWriter{paths: paths, logger: logger}
}

// WriteOptions is one in-memory CSV document
type WriteOptions struct {
	Headers []string
	Records [][]string
	// BOMPrefix adds a UTF-8 byte order mark for spreadsheet tools
	BOMPrefix bool
}

// WriteCSV writes a whole document and returns the resolved path
func (w *CSVWriter) WriteCSV(filePath string, options WriteOptions) (string, error) {
	stream, err := w.CreateStreamWriter(filePath, options.Headers, options.BOMPrefix)
	if err != nil {
		return "", err
	}
	for i, record := range options.Records {
		if err := stream.WriteRecord(record); err != nil {
			stream.file.Close()
			return "", apperrors.NewExportError(fmt.Sprintf("failed to write record %d", i), err).WithContext("file", stream.path)
		}
	}
	return stream.Path(), stream.Close()
}

// StreamWriter writes records one at a time, for tables too large to render up front
type StreamWriter struct {
	path   string
	file   *os.File
	writer *csv.Writer
	rows   int
	logger *slog.Logger
}

// CreateStreamWriter creates the file, its directory and the header row
func (w *CSVWriter) CreateStreamWriter(filePath string, headers []string, bom bool) (*StreamWriter, error) {
	fullPath := w.resolvePath(filePath)
	if err := os.MkdirAll(filepath.Dir(fullPath), 0755); err != nil {
		return nil, apperrors.NewExportError("failed to create directory", err).WithContext("file", fullPath)
	}

	file, err := os.Create(fullPath)
	if err != nil {
		return nil, apperrors.NewExportError("failed to create file", err).WithContext("file", fullPath)
	}
	if bom {
		if _, err := file.Write(utf8BOM); err != nil {
			file.Close()
			return nil, apperrors.NewExportError("failed to write BOM", err).WithContext("file", fullPath)
		}
	}

	writer := csv.NewWriter(file)
	if len(headers) > 0 {
		if err := writer.Write(headers); err != nil {
			file.Close()
			return nil, apperrors.NewExportError("failed to write headers", err).WithContext("file", fullPath)
		}
	}

	w.logger.Debug("csv_stream_created",
		slog.String("path", fullPath),
		slog.Int("columns", len(headers)))
	return &StreamWriter{path: fullPath, file: file, writer: writer, logger: w.logger}, nil
}

// WriteRecord appends one row
func (s *StreamWriter) WriteRecord(record []string) error {
	if err := s.writer.Write(record); err != nil {
		return err
	}
	s.rows++
	return nil
}

// Path returns the resolved output path
func (s *StreamWriter) Path() string {
	return s.path
}

// Rows returns the number of records written, excluding the header
func (s *StreamWriter) Rows() int {
	return s.rows
}

// Close flushes buffered rows and closes the file
func (s *StreamWriter) Close() error {
	s.writer.Flush()
	if err := s.writer.Error(); err != nil {
		s.file.Close()
		return apperrors.NewExportError("failed to flush csv", err).WithContext("file", s.path)
	}
	if err := s.file.Close(); err != nil {
		return apperrors.NewExportError("failed to close csv", err).WithContext("file", s.path)
	}
	s.logger.Info("csv_written", slog.String("path", s.path), slog.Int("rows", s.rows))
	return nil
}

func (w *CSVWriter) resolvePath(filePath string) string {
	if filepath.IsAbs(filePath) || w.paths == nil {
		return filePath
	}
	return w.paths.GetReportPath(filePath)
}
