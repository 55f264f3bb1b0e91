package dataprocessing

import (
	"github.com/ViennaKaggle/prudential-life-insurance-assessment/pkg/contracts/domain"
)

// featureLayout fixes the column order of a feature table:
// Store, DayOfWeek, [Sales], Open, extras, SchoolHoliday, woy, month, year,
// Seasonal_4_sin, StateHoliday_*, CompetitionDistance, StoreType_*,
// Assortment_*, SchoolHolidayEnding, Sales_mean, Sales_std.
type featureLayout struct {
	columns  []string
	hasSales bool
}

func newFeatureLayout(table *domain.EnrichedTable) featureLayout {
	columns := []string{domain.ColumnStore, domain.ColumnDayOfWeek}
	if table.HasSales {
		columns = append(columns, domain.ColumnSales)
	}
	columns = append(columns, domain.ColumnOpen)
	columns = append(columns, table.ExtraColumns...)
	columns = append(columns,
		domain.ColumnSchoolHoliday,
		domain.ColumnWeekOfYear,
		domain.ColumnMonth,
		domain.ColumnYear,
		domain.ColumnSeasonal4Sin,
	)
	columns = append(columns, prefixed(domain.ColumnStateHoliday, table.StateHolidayLevels)...)
	columns = append(columns, domain.ColumnCompetitionDistance)
	columns = append(columns, prefixed(domain.ColumnStoreType, table.StoreTypeLevels)...)
	columns = append(columns, prefixed(domain.ColumnAssortment, table.AssortmentLevels)...)
	columns = append(columns, domain.ColumnSchoolHolidayEnding, domain.ColumnSalesMean, domain.ColumnSalesStd)

	return featureLayout{columns: columns, hasSales: table.HasSales}
}

func (l featureLayout) row(rec *domain.EnrichedRecord, mean, std float64) []float64 {
	row := make([]float64, 0, len(l.columns))
	row = append(row, float64(rec.Store), float64(rec.DayOfWeek))
	if l.hasSales {
		row = append(row, rec.Sales)
	}
	row = append(row, rec.Open)
	row = append(row, rec.Extras...)
	row = append(row,
		float64(rec.SchoolHoliday),
		float64(rec.WeekOfYear),
		float64(rec.Month),
		float64(rec.Year),
		rec.Seasonal4Sin,
	)
	row = append(row, rec.StateHolidayFlags...)
	row = append(row, rec.CompetitionDistance)
	row = append(row, rec.StoreTypeFlags...)
	row = append(row, rec.AssortmentFlags...)
	row = append(row, float64(rec.SchoolHolidayEnding), mean, std)
	return row
}

func prefixed(prefix string, levels []string) []string {
	out := make([]string, len(levels))
	for i, level := range levels {
		out[i] = prefix + "_" + level
	}
	return out
}

// ReindexColumns projects table onto columns: missing columns are zero-filled,
// columns not listed are dropped. Dates and IDs are carried unchanged.
func ReindexColumns(table *domain.FeatureTable, columns []string) *domain.FeatureTable {
	source := make(map[string]int, len(table.Columns))
	for i, col := range table.Columns {
		source[col] = i
	}
	positions := make([]int, len(columns))
	for i, col := range columns {
		if idx, ok := source[col]; ok {
			positions[i] = idx
		} else {
			positions[i] = -1
		}
	}

	out := &domain.FeatureTable{
		Columns: append([]string(nil), columns...),
		Dates:   table.Dates,
		IDs:     table.IDs,
		Rows:    make([][]float64, len(table.Rows)),
	}
	for r, row := range table.Rows {
		projected := make([]float64, len(columns))
		for i, idx := range positions {
			if idx >= 0 {
				projected[i] = row[idx]
			}
		}
		out.Rows[r] = projected
	}
	return out
}

// MissingColumns lists the entries of want that table does not have
func MissingColumns(table *domain.FeatureTable, want []string) []string {
	have := make(map[string]bool, len(table.Columns))
	for _, col := range table.Columns {
		have[col] = true
	}
	var missing []string
	for _, col := range want {
		if !have[col] {
			missing = append(missing, col)
		}
	}
	return missing
}
