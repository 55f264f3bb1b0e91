package dataprocessing

import (
	"time"

	"github.com/ViennaKaggle/prudential-life-insurance-assessment/pkg/contracts/domain"
)

const (
	saturday = 6
	sunday   = 7
	// endingLookAhead is how far ahead a holiday must have ended
	endingLookAhead = 7
)

// storeDay keys a store's record for a calendar day
type storeDay struct {
	store int
	day   int64
}

func dayKey(store int, date time.Time) storeDay {
	return storeDay{store: store, day: date.Unix() / 86400}
}

func shiftDays(key storeDay, days int) storeDay {
	return storeDay{store: key.store, day: key.day + int64(days)}
}

func schoolHolidayIndex(records []domain.EnrichedRecord) map[storeDay]int {
	index := make(map[storeDay]int, len(records))
	for _, rec := range records {
		index[dayKey(rec.Store, rec.Date)] = rec.SchoolHoliday
	}
	return index
}

// ExtendSchoolHolidays marks a record as a school holiday when its DayOfWeek is
// targetWeekday and the same store was on school holiday offsetDays earlier.
// The lookup reads the input table, not records updated in the same pass.
func ExtendSchoolHolidays(table *domain.EnrichedTable, offsetDays, targetWeekday int) *domain.EnrichedTable {
	index := schoolHolidayIndex(table.Records)
	records := table.CloneRecords()
	for i := range records {
		rec := &records[i]
		if rec.SchoolHoliday == 1 || rec.DayOfWeek != targetWeekday {
			continue
		}
		if index[shiftDays(dayKey(rec.Store, rec.Date), -offsetDays)] == 1 {
			rec.SchoolHoliday = 1
		}
	}
	return table.WithRecords(records)
}

// HarmonizeSchoolHolidays carries a Friday holiday into the weekend
func HarmonizeSchoolHolidays(table *domain.EnrichedTable) *domain.EnrichedTable {
	table = ExtendSchoolHolidays(table, 1, saturday)
	return ExtendSchoolHolidays(table, 2, sunday)
}

// AddLastHolidayWeek flags the final week of the summer school holidays
// using the default July to September window.
func AddLastHolidayWeek(table *domain.EnrichedTable, excludeYear int) *domain.EnrichedTable {
	opts := DefaultPipelineOptions()
	return AddLastHolidayWeekInWindow(table, excludeYear, opts.HolidayEndingFromMonth, opts.HolidayEndingToMonth)
}

// AddLastHolidayWeekInWindow sets SchoolHolidayEnding on holiday records whose
// store is no longer on holiday seven days later, for months in [fromMonth, toMonth]
// and years before excludeYear.
func AddLastHolidayWeekInWindow(table *domain.EnrichedTable, excludeYear, fromMonth, toMonth int) *domain.EnrichedTable {
	index := schoolHolidayIndex(table.Records)
	records := table.CloneRecords()
	for i := range records {
		rec := &records[i]
		rec.SchoolHolidayEnding = 0
		if rec.SchoolHoliday != 1 {
			continue
		}
		if rec.Month < fromMonth || rec.Month > toMonth || rec.Year >= excludeYear {
			continue
		}
		if index[shiftDays(dayKey(rec.Store, rec.Date), endingLookAhead)] != 1 {
			rec.SchoolHolidayEnding = 1
		}
	}
	return table.WithRecords(records)
}
