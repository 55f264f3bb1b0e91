package domain

// StoreDistribution holds sales statistics for one store in one competition era.
type StoreDistribution struct {
	Store     int
	PostComp  bool
	SalesMean float64
	// SalesStd is the sample standard deviation; NaN for single-row partitions.
	SalesStd    float64
	Count       int
	Synthesized bool
}

// DistributionKey identifies a distribution row.
type DistributionKey struct {
	Store    int
	PostComp bool
}

// DistributionTable is the per-store distribution relation, sorted by Store then PostComp.
type DistributionTable struct {
	Rows       []StoreDistribution
	GlobalMean float64
	GlobalStd  float64
}

// Index returns the rows keyed by (Store, PostComp).
func (t *DistributionTable) Index() map[DistributionKey]StoreDistribution {
	idx := make(map[DistributionKey]StoreDistribution, len(t.Rows))
	for _, row := range t.Rows {
		idx[DistributionKey{Store: row.Store, PostComp: row.PostComp}] = row
	}
	return idx
}

// Stores returns the distinct store ids in table order.
func (t *DistributionTable) Stores() []int {
	var stores []int
	seen := make(map[int]bool)
	for _, row := range t.Rows {
		if !seen[row.Store] {
			seen[row.Store] = true
			stores = append(stores, row.Store)
		}
	}
	return stores
}
