package domain

// EnrichedRecord is a sales record joined with its store.
type EnrichedRecord struct {
	SalesFeatureRecord
	CompetitionDistance float64
	StoreTypeFlags      []float64
	AssortmentFlags     []float64
	PostComp            int
	SchoolHolidayEnding int
}

// EnrichedTable is the merged relation, sorted by Date then Store.
type EnrichedTable struct {
	Records            []EnrichedRecord
	ExtraColumns       []string
	StateHolidayLevels []string
	StoreTypeLevels    []string
	AssortmentLevels   []string
	HasID              bool
	HasSales           bool
}

// WithRecords returns a copy of the table header carrying records.
func (t *EnrichedTable) WithRecords(records []EnrichedRecord) *EnrichedTable {
	clone := *t
	clone.Records = records
	return &clone
}

// CloneRecords returns a shallow copy of the record slice.
func (t *EnrichedTable) CloneRecords() []EnrichedRecord {
	out := make([]EnrichedRecord, len(t.Records))
	copy(out, t.Records)
	return out
}
