package exporter

import (
	"strconv"

	"github.com/ViennaKaggle/prudential-life-insurance-assessment/pkg/contracts/domain"
)

// DistributionHeaders are the columns of a distribution CSV
var DistributionHeaders = []string{"Store", "PostComp", "Sales_mean", "Sales_std", "Count", "Synthesized"}

// DistributionRecords renders dist as CSV records; a missing std is empty
func DistributionRecords(dist *domain.DistributionTable) [][]string {
	records := make([][]string, len(dist.Rows))
	for i, row := range dist.Rows {
		records[i] = []string{
			formatInt(row.Store),
			formatInt(boolCell(row.PostComp)),
			formatFloat(row.SalesMean),
			formatFloat(row.SalesStd),
			formatInt(row.Count),
			strconv.FormatBool(row.Synthesized),
		}
	}
	return records
}

// WriteDistributions writes dist to filePath and returns the resolved path
func (w *CSVWriter) WriteDistributions(filePath string, dist *domain.DistributionTable) (string, error) {
	return w.WriteCSV(filePath, WriteOptions{
		Headers: DistributionHeaders,
		Records: DistributionRecords(dist),
	})
}
