package dataprocessing

import (
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/ViennaKaggle/prudential-life-insurance-assessment/pkg/contracts/domain"
)

const testStoreCSV = `Store,StoreType,Assortment,CompetitionDistance,CompetitionOpenSinceMonth,CompetitionOpenSinceYear,Promo2,Promo2SinceWeek,Promo2SinceYear,PromoInterval
1,c,a,1270,9,2008,0,,,
2,a,a,570,11,2007,1,13,2010,"Jan,Apr,Jul,Oct"
3,a,c,,,,1,14,2011,"Jan,Apr,Jul,Oct"
`

func testLogger() *slog.Logger {
	return slog.New(slog.NewJSONHandler(io.Discard, nil))
}

func date(s string) time.Time {
	d, err := time.Parse(domain.DateLayout, s)
	if err != nil {
		panic(err)
	}
	return d
}

func parseSalesCSV(t *testing.T, content string) *domain.SalesTable {
	t.Helper()
	table, err := NewCSVParser(testLogger()).ParseSales(strings.NewReader(content), "sales.csv")
	require.NoError(t, err)
	return table
}

func parseStoreCSV(t *testing.T, content string) *domain.StoreTable {
	t.Helper()
	table, err := NewCSVParser(testLogger()).ParseStores(strings.NewReader(content), "store.csv")
	require.NoError(t, err)
	return table
}

func mergedFromCSV(t *testing.T, salesCSV, storeCSV string) *domain.EnrichedTable {
	t.Helper()
	stores := NormalizeStores(parseStoreCSV(t, storeCSV), DefaultPipelineOptions())
	merged, _ := Merge(NormalizeSales(parseSalesCSV(t, salesCSV)), stores)
	return merged
}

func findRecord(t *testing.T, table *domain.EnrichedTable, store int, day string) domain.EnrichedRecord {
	t.Helper()
	for _, rec := range table.Records {
		if rec.Store == store && rec.Date.Equal(date(day)) {
			return rec
		}
	}
	t.Fatalf("no record for store %d on %s", store, day)
	return domain.EnrichedRecord{}
}
