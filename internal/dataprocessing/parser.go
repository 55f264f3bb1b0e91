package dataprocessing

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	apperrors "github.com/ViennaKaggle/prudential-life-insurance-assessment/internal/errors"
	"github.com/ViennaKaggle/prudential-life-insurance-assessment/pkg/contracts/domain"
)

var (
	salesRequiredColumns = []string{
		domain.ColumnStore,
		domain.ColumnDayOfWeek,
		domain.ColumnDate,
		domain.ColumnOpen,
		domain.ColumnStateHoliday,
		domain.ColumnSchoolHoliday,
	}
	// salesKnownColumns are consumed by name; every other column passes through.
	salesKnownColumns = map[string]bool{
		domain.ColumnID:            true,
		domain.ColumnStore:         true,
		domain.ColumnDayOfWeek:     true,
		domain.ColumnDate:          true,
		domain.ColumnSales:         true,
		domain.ColumnCustomers:     true,
		domain.ColumnOpen:          true,
		domain.ColumnStateHoliday:  true,
		domain.ColumnSchoolHoliday: true,
	}
	storeRequiredColumns = []string{
		domain.ColumnStore,
		domain.ColumnStoreType,
		domain.ColumnAssortment,
		domain.ColumnCompetitionDistance,
		domain.ColumnCompetitionOpenSinceMonth,
		domain.ColumnCompetitionOpenSinceYear,
	}
)

// CSVParser reads the raw sales and store files
type CSVParser struct {
	logger *slog.Logger
}

// NewCSVParser creates a parser logging through logger
func NewCSVParser(logger *slog.Logger) *CSVParser {
	if logger == nil {
		logger = slog.Default()
	}
	return &CSVParser{logger: logger}
}

// ParseSalesFile reads train.csv or test.csv
func (p *CSVParser) ParseSalesFile(path string) (*domain.SalesTable, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, apperrors.NewParsingError("failed to open sales file", err).WithContext("file", path)
	}
	defer file.Close()

	return p.ParseSales(file, filepath.Base(path))
}

// ParseSales reads a sales relation from r; name identifies it in errors
func (p *CSVParser) ParseSales(r io.Reader, name string) (*domain.SalesTable, error) {
	rows, err := newRowReader(r, name, salesRequiredColumns)
	if err != nil {
		return nil, err
	}

	table := &domain.SalesTable{
		HasID:    rows.has(domain.ColumnID),
		HasSales: rows.has(domain.ColumnSales),
	}
	var extraIdx []int
	for i, col := range rows.header {
		if !salesKnownColumns[col] {
			table.ExtraColumns = append(table.ExtraColumns, col)
			extraIdx = append(extraIdx, i)
		}
	}

	seen := make(map[storeDay]int)
	for rows.next() {
		rec := domain.SalesRecord{Sales: domain.Missing}
		if table.HasID {
			rec.ID = rows.int(domain.ColumnID)
		}
		rec.Store = rows.int(domain.ColumnStore)
		rec.DayOfWeek = rows.int(domain.ColumnDayOfWeek)
		rec.Date = rows.date(domain.ColumnDate)
		if table.HasSales {
			rec.Sales = rows.float(domain.ColumnSales)
		}
		rec.Open = rows.float(domain.ColumnOpen)
		rec.StateHoliday = rows.string(domain.ColumnStateHoliday)
		rec.SchoolHoliday = rows.optionalInt(domain.ColumnSchoolHoliday)
		if len(extraIdx) > 0 {
			rec.Extras = make([]float64, len(extraIdx))
			for j, idx := range extraIdx {
				rec.Extras[j] = rows.floatAt(idx)
			}
		}
		if rows.err != nil {
			return nil, rows.err
		}

		key := dayKey(rec.Store, rec.Date)
		if line, dup := seen[key]; dup {
			return nil, apperrors.NewAppValidationError(fmt.Sprintf("duplicate record for store %d on %s", rec.Store, rec.Date.Format(domain.DateLayout))).
				WithContext("file", name).
				WithContext("line", rows.line).
				WithContext("first_line", line)
		}
		seen[key] = rows.line
		table.Records = append(table.Records, rec)
	}
	if rows.err != nil {
		return nil, rows.err
	}

	p.logger.Info("sales_parsed",
		slog.String("file", name),
		slog.Int("records", len(table.Records)),
		slog.Bool("has_sales", table.HasSales),
		slog.Bool("has_id", table.HasID),
		slog.Any("extra_columns", table.ExtraColumns))

	return table, nil
}

// ParseStoreFile reads store.csv
func (p *CSVParser) ParseStoreFile(path string) (*domain.StoreTable, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, apperrors.NewParsingError("failed to open store file", err).WithContext("file", path)
	}
	defer file.Close()

	return p.ParseStores(file, filepath.Base(path))
}

// ParseStores reads a store relation from r; name identifies it in errors
func (p *CSVParser) ParseStores(r io.Reader, name string) (*domain.StoreTable, error) {
	rows, err := newRowReader(r, name, storeRequiredColumns)
	if err != nil {
		return nil, err
	}

	table := &domain.StoreTable{}
	seen := make(map[int]bool)
	for rows.next() {
		meta := domain.StoreMeta{
			Store:                     rows.int(domain.ColumnStore),
			StoreType:                 rows.string(domain.ColumnStoreType),
			Assortment:                rows.string(domain.ColumnAssortment),
			CompetitionDistance:       rows.float(domain.ColumnCompetitionDistance),
			CompetitionOpenSinceMonth: rows.float(domain.ColumnCompetitionOpenSinceMonth),
			CompetitionOpenSinceYear:  rows.float(domain.ColumnCompetitionOpenSinceYear),
			Promo2SinceWeek:           domain.Missing,
			Promo2SinceYear:           domain.Missing,
		}
		if rows.has(domain.ColumnPromo2) {
			meta.Promo2 = rows.optionalInt(domain.ColumnPromo2)
		}
		if rows.has(domain.ColumnPromo2SinceWeek) {
			meta.Promo2SinceWeek = rows.float(domain.ColumnPromo2SinceWeek)
		}
		if rows.has(domain.ColumnPromo2SinceYear) {
			meta.Promo2SinceYear = rows.float(domain.ColumnPromo2SinceYear)
		}
		if rows.has(domain.ColumnPromoInterval) {
			meta.PromoInterval = rows.string(domain.ColumnPromoInterval)
		}
		if rows.err != nil {
			return nil, rows.err
		}

		if seen[meta.Store] {
			return nil, apperrors.NewAppValidationError(fmt.Sprintf("duplicate store %d", meta.Store)).
				WithContext("file", name).
				WithContext("line", rows.line)
		}
		seen[meta.Store] = true
		table.Stores = append(table.Stores, meta)
	}
	if rows.err != nil {
		return nil, rows.err
	}

	p.logger.Info("stores_parsed",
		slog.String("file", name),
		slog.Int("stores", len(table.Stores)))

	return table, nil
}

// rowReader walks CSV records by column name and keeps the first cell error
type rowReader struct {
	reader  *csv.Reader
	name    string
	header  []string
	columns map[string]int
	record  []string
	line    int
	err     error
}

func newRowReader(r io.Reader, name string, required []string) (*rowReader, error) {
	reader := csv.NewReader(r)
	reader.ReuseRecord = true

	header, err := reader.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, apperrors.NewParsingError("file is empty", nil).WithContext("file", name)
		}
		return nil, apperrors.NewParsingError("failed to read header", err).WithContext("file", name)
	}

	rows := &rowReader{
		reader:  reader,
		name:    name,
		header:  make([]string, len(header)),
		columns: make(map[string]int, len(header)),
		line:    1,
	}
	for i, col := range header {
		col = strings.TrimSpace(col)
		if i == 0 {
			col = strings.TrimPrefix(col, "\ufeff")
		}
		rows.header[i] = col
		rows.columns[col] = i
	}

	for _, col := range required {
		if !rows.has(col) {
			return nil, apperrors.NewSchemaError(name, col)
		}
	}

	return rows, nil
}

func (r *rowReader) next() bool {
	if r.err != nil {
		return false
	}
	record, err := r.reader.Read()
	if errors.Is(err, io.EOF) {
		return false
	}
	r.line++
	if err != nil {
		r.err = apperrors.NewParsingError("malformed csv record", err).
			WithContext("file", r.name).
			WithContext("line", r.line)
		return false
	}
	r.record = record
	return true
}

func (r *rowReader) has(col string) bool {
	_, ok := r.columns[col]
	return ok
}

func (r *rowReader) cell(col string) string {
	return strings.TrimSpace(r.record[r.columns[col]])
}

func (r *rowReader) fail(col, value string, cause error) {
	if r.err != nil {
		return
	}
	r.err = apperrors.NewParsingError(fmt.Sprintf("invalid %s value %q", col, value), cause).
		WithContext("file", r.name).
		WithContext("line", r.line).
		WithContext("column", col)
}

func (r *rowReader) string(col string) string {
	return r.cell(col)
}

func (r *rowReader) int(col string) int {
	value := r.cell(col)
	n, err := parseInt(value)
	if err != nil {
		r.fail(col, value, err)
	}
	return n
}

// optionalInt treats an empty cell as zero
func (r *rowReader) optionalInt(col string) int {
	if r.cell(col) == "" {
		return 0
	}
	return r.int(col)
}

func (r *rowReader) float(col string) float64 {
	value := r.cell(col)
	f, err := parseNullableFloat(value)
	if err != nil {
		r.fail(col, value, err)
	}
	return f
}

func (r *rowReader) floatAt(idx int) float64 {
	value := strings.TrimSpace(r.record[idx])
	f, err := parseNullableFloat(value)
	if err != nil {
		r.fail(r.header[idx], value, err)
	}
	return f
}

func (r *rowReader) date(col string) time.Time {
	value := r.cell(col)
	d, err := time.Parse(domain.DateLayout, value)
	if err != nil {
		r.fail(col, value, err)
	}
	return d
}

// parseInt accepts integers and integral floats such as "3.0"
func parseInt(value string) (int, error) {
	if n, err := strconv.Atoi(value); err == nil {
		return n, nil
	}
	f, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return 0, err
	}
	if f != math.Trunc(f) || math.IsInf(f, 0) || math.IsNaN(f) {
		return 0, fmt.Errorf("not an integer")
	}
	return int(f), nil
}

// parseNullableFloat maps empty and NaN cells to the missing marker
func parseNullableFloat(value string) (float64, error) {
	switch strings.ToLower(value) {
	case "", "nan", "na", "null":
		return domain.Missing, nil
	}
	return strconv.ParseFloat(value, 64)
}
