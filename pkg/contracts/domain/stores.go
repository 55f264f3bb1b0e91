package domain

import "time"

// StoreMeta is one row of store.csv. Missing numeric values hold NaN.
type StoreMeta struct {
	Store                     int
	StoreType                 string
	Assortment                string
	CompetitionDistance       float64
	CompetitionOpenSinceMonth float64
	CompetitionOpenSinceYear  float64
	Promo2                    int
	Promo2SinceWeek           float64
	Promo2SinceYear           float64
	PromoInterval             string
}

// StoreTable is a parsed store metadata file.
type StoreTable struct {
	Stores []StoreMeta
}

// NormalizedStore is store metadata after imputation and encoding.
type NormalizedStore struct {
	Store                int
	CompetitionDistance  float64
	CompetitionOpenSince time.Time
	StoreType            string
	Assortment           string
	StoreTypeFlags       []float64
	AssortmentFlags      []float64
	// Promo2Since is the Monday Promo2 started; zero when unknown.
	Promo2Since time.Time
}

// NormalizedStores is the normalized store relation, sorted by Store.
type NormalizedStores struct {
	Stores                 []NormalizedStore
	StoreTypeLevels        []string
	AssortmentLevels       []string
	MaxCompetitionDistance float64
}

// Index returns the stores keyed by store id.
func (n *NormalizedStores) Index() map[int]*NormalizedStore {
	idx := make(map[int]*NormalizedStore, len(n.Stores))
	for i := range n.Stores {
		idx[n.Stores[i].Store] = &n.Stores[i]
	}
	return idx
}
