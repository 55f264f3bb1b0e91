package dataprocessing

import (
	"fmt"
	"sort"
	"time"

	"gonum.org/v1/gonum/stat"

	apperrors "github.com/ViennaKaggle/prudential-life-insurance-assessment/internal/errors"
	"github.com/ViennaKaggle/prudential-life-insurance-assessment/pkg/contracts/domain"
)

// CalcStoreDistributions computes Sales mean and sample standard deviation per
// (Store, PostComp) and back-fills the era a store never saw.
func CalcStoreDistributions(table *domain.EnrichedTable) (*domain.DistributionTable, error) {
	if !table.HasSales {
		return nil, apperrors.NewAppValidationError("store distributions need a table with Sales")
	}

	groups := make(map[domain.DistributionKey][]float64)
	var all []float64
	for _, rec := range table.Records {
		// A partition with only blank Sales still exists, with missing stats.
		key := domain.DistributionKey{Store: rec.Store, PostComp: rec.PostComp == 1}
		values, ok := groups[key]
		if !ok {
			values = []float64{}
		}
		if finite(rec.Sales) {
			values = append(values, rec.Sales)
			all = append(all, rec.Sales)
		}
		groups[key] = values
	}
	if len(all) == 0 {
		return nil, apperrors.NewAppValidationError("no Sales values to build distributions from")
	}

	byStore := make(map[int]map[bool]domain.StoreDistribution)
	for key, values := range groups {
		mean, std := meanStd(values)
		if byStore[key.Store] == nil {
			byStore[key.Store] = make(map[bool]domain.StoreDistribution, 2)
		}
		byStore[key.Store][key.PostComp] = domain.StoreDistribution{
			Store:     key.Store,
			PostComp:  key.PostComp,
			SalesMean: mean,
			SalesStd:  std,
			Count:     len(values),
		}
	}

	out := &domain.DistributionTable{}
	out.GlobalMean, out.GlobalStd = meanStd(all)
	for _, eras := range byStore {
		for _, postComp := range []bool{false, true} {
			if _, ok := eras[postComp]; ok {
				continue
			}
			other := eras[!postComp]
			other.PostComp = postComp
			other.Synthesized = true
			eras[postComp] = other
		}
		out.Rows = append(out.Rows, eras[false], eras[true])
	}

	sort.Slice(out.Rows, func(i, j int) bool {
		if out.Rows[i].Store != out.Rows[j].Store {
			return out.Rows[i].Store < out.Rows[j].Store
		}
		return !out.Rows[i].PostComp && out.Rows[j].PostComp
	})
	return out, nil
}

// meanStd returns the mean and the n-1 standard deviation; std is missing for
// one value and both are missing for none
func meanStd(values []float64) (float64, float64) {
	switch len(values) {
	case 0:
		return domain.Missing, domain.Missing
	case 1:
		return values[0], domain.Missing
	}
	return stat.MeanStdDev(values, nil)
}

// distributionLookup resolves Sales_mean and Sales_std for a record
type distributionLookup struct {
	index  map[domain.DistributionKey]domain.StoreDistribution
	policy UnseenStorePolicy
	global [2]float64
	unseen map[int]bool
}

func newDistributionLookup(dist *domain.DistributionTable, policy UnseenStorePolicy) (*distributionLookup, error) {
	switch policy {
	case UnseenGlobal, UnseenZero, UnseenNull:
	default:
		return nil, apperrors.NewAppValidationError(fmt.Sprintf("unknown unseen store policy %q", policy))
	}
	return &distributionLookup{
		index:  dist.Index(),
		policy: policy,
		global: [2]float64{dist.GlobalMean, dist.GlobalStd},
		unseen: make(map[int]bool),
	}, nil
}

func (l *distributionLookup) values(rec *domain.EnrichedRecord) (float64, float64) {
	row, ok := l.index[domain.DistributionKey{Store: rec.Store, PostComp: rec.PostComp == 1}]
	if ok {
		return zeroIfMissing(row.SalesMean), zeroIfMissing(row.SalesStd)
	}

	l.unseen[rec.Store] = true
	switch l.policy {
	case UnseenZero:
		return 0, 0
	case UnseenNull:
		return domain.Missing, domain.Missing
	default:
		return l.global[0], l.global[1]
	}
}

func zeroIfMissing(v float64) float64 {
	if domain.IsMissing(v) {
		return 0
	}
	return v
}

func (l *distributionLookup) unseenStores() []int {
	stores := make([]int, 0, len(l.unseen))
	for store := range l.unseen {
		stores = append(stores, store)
	}
	sort.Ints(stores)
	return stores
}

// MergeDistributions attaches Sales_mean and Sales_std to every record and
// returns the flat feature table with PostComp dropped.
func MergeDistributions(table *domain.EnrichedTable, dist *domain.DistributionTable, policy UnseenStorePolicy) (*domain.FeatureTable, error) {
	features, _, err := mergeDistributions(table, dist, policy)
	return features, err
}

func mergeDistributions(table *domain.EnrichedTable, dist *domain.DistributionTable, policy UnseenStorePolicy) (*domain.FeatureTable, []int, error) {
	lookup, err := newDistributionLookup(dist, policy)
	if err != nil {
		return nil, nil, err
	}

	layout := newFeatureLayout(table)
	out := &domain.FeatureTable{
		Columns: layout.columns,
		Dates:   make([]time.Time, len(table.Records)),
		Rows:    make([][]float64, len(table.Records)),
	}
	if table.HasID {
		out.IDs = make([]int, len(table.Records))
	}
	for i := range table.Records {
		rec := &table.Records[i]
		mean, std := lookup.values(rec)
		out.Rows[i] = layout.row(rec, mean, std)
		out.Dates[i] = rec.Date
		if table.HasID {
			out.IDs[i] = rec.ID
		}
	}
	return out, lookup.unseenStores(), nil
}
