package domain

import (
	"math"
	"time"
)

// Column names shared by the raw files and the feature table.
const (
	ColumnID            = "Id"
	ColumnStore         = "Store"
	ColumnDayOfWeek     = "DayOfWeek"
	ColumnDate          = "Date"
	ColumnSales         = "Sales"
	ColumnCustomers     = "Customers"
	ColumnOpen          = "Open"
	ColumnStateHoliday  = "StateHoliday"
	ColumnSchoolHoliday = "SchoolHoliday"

	ColumnStoreType                 = "StoreType"
	ColumnAssortment                = "Assortment"
	ColumnCompetitionDistance       = "CompetitionDistance"
	ColumnCompetitionOpenSinceMonth = "CompetitionOpenSinceMonth"
	ColumnCompetitionOpenSinceYear  = "CompetitionOpenSinceYear"
	ColumnPromo2                    = "Promo2"
	ColumnPromo2SinceWeek           = "Promo2SinceWeek"
	ColumnPromo2SinceYear           = "Promo2SinceYear"
	ColumnPromoInterval             = "PromoInterval"

	ColumnWeekOfYear          = "woy"
	ColumnMonth               = "month"
	ColumnYear                = "year"
	ColumnSeasonal4Sin        = "Seasonal_4_sin"
	ColumnSchoolHolidayEnding = "SchoolHolidayEnding"
	ColumnSalesMean           = "Sales_mean"
	ColumnSalesStd            = "Sales_std"
)

// DateLayout is the calendar date format used by every CSV file.
const DateLayout = "2006-01-02"

// Missing is the marker for an absent numeric value.
var Missing = math.NaN()

// IsMissing reports whether v marks an absent numeric value.
func IsMissing(v float64) bool {
	return math.IsNaN(v)
}

// SalesRecord is one row of train.csv or test.csv.
// Numeric fields that may be absent hold NaN.
type SalesRecord struct {
	ID            int
	Store         int
	DayOfWeek     int
	Date          time.Time
	Sales         float64
	Open          float64
	StateHoliday  string
	SchoolHoliday int
	// Extras holds pass-through numeric columns, aligned with SalesTable.ExtraColumns.
	Extras []float64
}

// SalesTable is a parsed sales file.
type SalesTable struct {
	Records      []SalesRecord
	ExtraColumns []string
	HasID        bool
	HasSales     bool
}

// Len returns the number of records.
func (t *SalesTable) Len() int {
	if t == nil {
		return 0
	}
	return len(t.Records)
}

// SalesFeatureRecord is a sales record with its calendar features.
type SalesFeatureRecord struct {
	SalesRecord
	WeekOfYear   int
	Month        int
	Year         int
	Seasonal4Sin float64
	// StateHolidayFlags is the one-hot encoding against SalesFeatures.StateHolidayLevels.
	StateHolidayFlags []float64
}

// SalesFeatures is the output of sales normalization.
type SalesFeatures struct {
	Records            []SalesFeatureRecord
	ExtraColumns       []string
	StateHolidayLevels []string
	HasID              bool
	HasSales           bool
}
