package dataprocessing

import (
	"math"
	"sort"

	"github.com/ViennaKaggle/prudential-life-insurance-assessment/pkg/contracts/domain"
)

// NormalizeSales derives the calendar features and the StateHoliday encoding.
// Customers is never carried past parsing, so the output has no Customers column.
func NormalizeSales(table *domain.SalesTable) *domain.SalesFeatures {
	levels := sortedLevels(len(table.Records), func(i int) string {
		return table.Records[i].StateHoliday
	})

	out := &domain.SalesFeatures{
		Records:            make([]domain.SalesFeatureRecord, len(table.Records)),
		ExtraColumns:       table.ExtraColumns,
		StateHolidayLevels: levels,
		HasID:              table.HasID,
		HasSales:           table.HasSales,
	}
	for i, rec := range table.Records {
		_, week := rec.Date.ISOWeek()
		out.Records[i] = domain.SalesFeatureRecord{
			SalesRecord:       rec,
			WeekOfYear:        week,
			Month:             int(rec.Date.Month()),
			Year:              rec.Date.Year(),
			Seasonal4Sin:      seasonalSin(rec.Date.YearDay()),
			StateHolidayFlags: oneHot(levels, rec.StateHoliday),
		}
	}
	return out
}

// seasonalSin encodes the day of year with four cycles per year
func seasonalSin(dayOfYear int) float64 {
	return math.Sin(float64(dayOfYear) / 365 * 4 * 2 * math.Pi)
}

// sortedLevels returns the distinct non-empty values in ascending order
func sortedLevels(n int, value func(i int) string) []string {
	seen := make(map[string]bool)
	levels := []string{}
	for i := 0; i < n; i++ {
		v := value(i)
		if v == "" || seen[v] {
			continue
		}
		seen[v] = true
		levels = append(levels, v)
	}
	sort.Strings(levels)
	return levels
}

func oneHot(levels []string, value string) []float64 {
	flags := make([]float64, len(levels))
	for i, level := range levels {
		if level == value {
			flags[i] = 1
		}
	}
	return flags
}
