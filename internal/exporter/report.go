package exporter

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/xuri/excelize/v2"

	apperrors "github.com/ViennaKaggle/prudential-life-insurance-assessment/internal/errors"
	"github.com/ViennaKaggle/prudential-life-insurance-assessment/pkg/contracts/domain"
)

// Sheet names of the distribution workbook
const (
	SheetDistributions = "Distributions"
	SheetStores        = "Stores"
)

var (
	distributionHeaders = []interface{}{"Store", "PostComp", "Sales_mean", "Sales_std", "Count", "Synthesized"}
	storeHeaders        = []interface{}{"Store", "StoreType", "Assortment", "CompetitionDistance", "CompetitionOpenSince", "Promo2Since"}
)

// ReportExporter writes the distribution workbook
type ReportExporter struct {
	logger *slog.Logger
}

// NewReportExporter creates a report exporter
func NewReportExporter(logger *slog.Logger) *ReportExporter {
	if logger == nil {
		logger = slog.Default()
	}
	return &ReportExporter{logger: logger}
}

// WriteDistributionReport writes the distribution table and the normalized
// store metadata to an xlsx workbook at path. stores may be nil.
func (e *ReportExporter) WriteDistributionReport(path string, dist *domain.DistributionTable, stores *domain.NormalizedStores) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", SheetDistributions); err != nil {
		return apperrors.NewExportError("failed to name sheet", err)
	}
	if err := writeSheetRow(f, SheetDistributions, 1, distributionHeaders); err != nil {
		return err
	}
	for i, row := range dist.Rows {
		values := []interface{}{row.Store, boolCell(row.PostComp), cellFloat(row.SalesMean), cellFloat(row.SalesStd), row.Count, row.Synthesized}
		if err := writeSheetRow(f, SheetDistributions, i+2, values); err != nil {
			return err
		}
	}

	if stores != nil {
		if _, err := f.NewSheet(SheetStores); err != nil {
			return apperrors.NewExportError("failed to add sheet", err)
		}
		if err := writeSheetRow(f, SheetStores, 1, storeHeaders); err != nil {
			return err
		}
		for i, store := range stores.Stores {
			promo := ""
			if !store.Promo2Since.IsZero() {
				promo = formatDate(store.Promo2Since)
			}
			values := []interface{}{
				store.Store,
				store.StoreType,
				store.Assortment,
				cellFloat(store.CompetitionDistance),
				formatDate(store.CompetitionOpenSince),
				promo,
			}
			if err := writeSheetRow(f, SheetStores, i+2, values); err != nil {
				return err
			}
		}
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return apperrors.NewExportError("failed to create report directory", err).WithContext("file", path)
	}
	if err := f.SaveAs(path); err != nil {
		return apperrors.NewExportError("failed to save report", err).WithContext("file", path)
	}

	e.logger.Info("distribution_report_written",
		slog.String("path", path),
		slog.Int("rows", len(dist.Rows)))
	return nil
}

func writeSheetRow(f *excelize.File, sheet string, row int, values []interface{}) error {
	cell, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return apperrors.NewExportError("invalid cell", err)
	}
	if err := f.SetSheetRow(sheet, cell, &values); err != nil {
		return apperrors.NewExportError(fmt.Sprintf("failed to write %s row %d", sheet, row), err)
	}
	return nil
}

// cellFloat leaves missing values as empty cells
func cellFloat(v float64) interface{} {
	if domain.IsMissing(v) {
		return nil
	}
	return v
}

func boolCell(b bool) int {
	if b {
		return 1
	}
	return 0
}
