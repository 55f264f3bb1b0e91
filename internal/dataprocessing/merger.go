package dataprocessing

import (
	"sort"

	"github.com/ViennaKaggle/prudential-life-insurance-assessment/pkg/contracts/domain"
)

// Merge inner-joins sales onto stores, derives PostComp and sorts by (Date, Store).
// Rows whose store is unknown are dropped; the second result counts them.
func Merge(sales *domain.SalesFeatures, stores *domain.NormalizedStores) (*domain.EnrichedTable, int) {
	index := stores.Index()

	records := make([]domain.EnrichedRecord, 0, len(sales.Records))
	dropped := 0
	for _, rec := range sales.Records {
		store, ok := index[rec.Store]
		if !ok {
			dropped++
			continue
		}
		enriched := domain.EnrichedRecord{
			SalesFeatureRecord:  rec,
			CompetitionDistance: store.CompetitionDistance,
			StoreTypeFlags:      store.StoreTypeFlags,
			AssortmentFlags:     store.AssortmentFlags,
		}
		if rec.Date.After(store.CompetitionOpenSince) {
			enriched.PostComp = 1
		}
		if domain.IsMissing(enriched.Open) {
			enriched.Open = 1
		}
		records = append(records, enriched)
	}

	// Competition distance only matters once the competitor exists.
	maxDistance := maxValue(len(records), func(i int) float64 {
		return records[i].CompetitionDistance
	})
	for i := range records {
		if records[i].PostComp == 0 {
			records[i].CompetitionDistance = maxDistance
		}
	}

	sort.SliceStable(records, func(i, j int) bool {
		if !records[i].Date.Equal(records[j].Date) {
			return records[i].Date.Before(records[j].Date)
		}
		return records[i].Store < records[j].Store
	})

	return &domain.EnrichedTable{
		Records:            records,
		ExtraColumns:       sales.ExtraColumns,
		StateHolidayLevels: sales.StateHolidayLevels,
		StoreTypeLevels:    stores.StoreTypeLevels,
		AssortmentLevels:   stores.AssortmentLevels,
		HasID:              sales.HasID,
		HasSales:           sales.HasSales,
	}, dropped
}
