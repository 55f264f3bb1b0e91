package exporter

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	apperrors "github.com/ViennaKaggle/prudential-life-insurance-assessment/internal/errors"
	"github.com/ViennaKaggle/prudential-life-insurance-assessment/pkg/contracts/domain"
)

// FeatureExporter writes and reads feature tables as CSV
type FeatureExporter struct {
	writer *CSVWriter
	logger *slog.Logger
}

// NewFeatureExporter creates a feature exporter on top of writer
func NewFeatureExporter(writer *CSVWriter, logger *slog.Logger) *FeatureExporter {
	if logger == nil {
		logger = slog.Default()
	}
	return &FeatureExporter{writer: writer, logger: logger}
}

// WriteFeatures writes table with leading key columns [Id,] Date and returns the path
func (e *FeatureExporter) WriteFeatures(filePath string, table *domain.FeatureTable) (string, error) {
	headers := make([]string, 0, len(table.Columns)+2)
	if table.HasIDs() {
		headers = append(headers, domain.ColumnID)
	}
	headers = append(headers, domain.ColumnDate)
	headers = append(headers, table.Columns...)

	stream, err := e.writer.CreateStreamWriter(filePath, headers, false)
	if err != nil {
		return "", apperrors.NewExportError("failed to create feature file", err).WithContext("file", filePath)
	}

	record := make([]string, len(headers))
	for i, row := range table.Rows {
		col := 0
		if table.HasIDs() {
			record[col] = formatInt(table.IDs[i])
			col++
		}
		record[col] = formatDate(table.Dates[i])
		col++
		for _, v := range row {
			record[col] = formatFloat(v)
			col++
		}
		if err := stream.WriteRecord(record); err != nil {
			stream.Close()
			return "", apperrors.NewExportError("failed to write feature row", err).
				WithContext("file", filePath).
				WithContext("row", i)
		}
	}

	if err := stream.Close(); err != nil {
		return "", apperrors.NewExportError("failed to close feature file", err).WithContext("file", filePath)
	}

	e.logger.Info("features_written",
		slog.String("path", stream.Path()),
		slog.Int("rows", stream.Rows()),
		slog.Int("columns", len(table.Columns)))
	return stream.Path(), nil
}

// ReadFeatures loads a table written by WriteFeatures
func (e *FeatureExporter) ReadFeatures(path string) (*domain.FeatureTable, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, apperrors.NewParsingError("failed to open feature file", err).WithContext("file", path)
	}
	defer file.Close()

	table, err := ReadFeatureTable(file, path)
	if err != nil {
		return nil, err
	}
	e.logger.Info("features_read",
		slog.String("path", path),
		slog.Int("rows", table.Len()),
		slog.Int("columns", len(table.Columns)))
	return table, nil
}

// ReadFeatureTable parses a feature CSV from r; name identifies it in errors
func ReadFeatureTable(r io.Reader, name string) (*domain.FeatureTable, error) {
	reader := csv.NewReader(r)
	reader.ReuseRecord = true

	header, err := reader.Read()
	if err != nil {
		return nil, apperrors.NewParsingError("failed to read feature header", err).WithContext("file", name)
	}
	header = append([]string(nil), header...)
	if len(header) > 0 {
		header[0] = strings.TrimPrefix(header[0], "\ufeff")
	}

	offset := 0
	hasIDs := len(header) > 0 && header[0] == domain.ColumnID
	if hasIDs {
		offset++
	}
	if len(header) <= offset || header[offset] != domain.ColumnDate {
		return nil, apperrors.NewSchemaError(name, domain.ColumnDate)
	}
	offset++

	table := &domain.FeatureTable{Columns: header[offset:]}
	if hasIDs {
		table.IDs = []int{}
	}

	line := 1
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		line++
		if err != nil {
			return nil, apperrors.NewParsingError("malformed feature record", err).
				WithContext("file", name).
				WithContext("line", line)
		}

		cellErr := func(col string, value string, cause error) error {
			return apperrors.NewParsingError(fmt.Sprintf("invalid %s value %q", col, value), cause).
				WithContext("file", name).
				WithContext("line", line).
				WithContext("column", col)
		}

		if hasIDs {
			id, err := strconv.Atoi(record[0])
			if err != nil {
				return nil, cellErr(domain.ColumnID, record[0], err)
			}
			table.IDs = append(table.IDs, id)
		}
		day, err := time.Parse(domain.DateLayout, record[offset-1])
		if err != nil {
			return nil, cellErr(domain.ColumnDate, record[offset-1], err)
		}
		table.Dates = append(table.Dates, day)

		row := make([]float64, len(table.Columns))
		for i, cell := range record[offset:] {
			v, err := parseFloat(cell)
			if err != nil {
				return nil, cellErr(table.Columns[i], cell, err)
			}
			row[i] = v
		}
		table.Rows = append(table.Rows, row)
	}

	return table, nil
}
