package dataprocessing

import (
	"math"
	"sort"

	"github.com/ViennaKaggle/prudential-life-insurance-assessment/internal/calendar"
	"github.com/ViennaKaggle/prudential-life-insurance-assessment/pkg/contracts/domain"
)

// NormalizeStores imputes the competition fields and encodes the categoricals
func NormalizeStores(table *domain.StoreTable, opts PipelineOptions) *domain.NormalizedStores {
	maxDistance := maxValue(len(table.Stores), func(i int) float64 {
		return table.Stores[i].CompetitionDistance
	})
	typeLevels := sortedLevels(len(table.Stores), func(i int) string { return table.Stores[i].StoreType })
	assortmentLevels := sortedLevels(len(table.Stores), func(i int) string { return table.Stores[i].Assortment })

	out := &domain.NormalizedStores{
		Stores:                 make([]domain.NormalizedStore, len(table.Stores)),
		StoreTypeLevels:        typeLevels,
		AssortmentLevels:       assortmentLevels,
		MaxCompetitionDistance: maxDistance,
	}
	for i, meta := range table.Stores {
		distance := meta.CompetitionDistance
		if domain.IsMissing(distance) {
			distance = maxDistance
		}
		year := meta.CompetitionOpenSinceYear
		if domain.IsMissing(year) {
			year = float64(opts.MissingCompetitionYear)
		}
		month := meta.CompetitionOpenSinceMonth
		if domain.IsMissing(month) {
			month = float64(opts.MissingCompetitionMonth)
		}

		store := domain.NormalizedStore{
			Store:                meta.Store,
			CompetitionDistance:  distance,
			CompetitionOpenSince: calendar.ConvertToDate(year, month),
			StoreType:            meta.StoreType,
			Assortment:           meta.Assortment,
			StoreTypeFlags:       oneHot(typeLevels, meta.StoreType),
			AssortmentFlags:      oneHot(assortmentLevels, meta.Assortment),
		}
		if meta.Promo2 == 1 {
			if since, ok := calendar.DateFromYearWeek(meta.Promo2SinceYear, meta.Promo2SinceWeek); ok {
				store.Promo2Since = since
			}
		}
		out.Stores[i] = store
	}

	sort.SliceStable(out.Stores, func(i, j int) bool {
		return out.Stores[i].Store < out.Stores[j].Store
	})
	return out
}

// maxValue returns the largest non-missing value, or Missing when there is none
func maxValue(n int, value func(i int) float64) float64 {
	best := domain.Missing
	for i := 0; i < n; i++ {
		v := value(i)
		if domain.IsMissing(v) {
			continue
		}
		if domain.IsMissing(best) || v > best {
			best = v
		}
	}
	return best
}

// finite reports whether v is neither missing nor infinite
func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
