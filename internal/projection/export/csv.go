// Package export renders computed projections for callers.
package export

import (
	"encoding/csv"
	"io"
	"strconv"

	"github.com/odyssey-erp/cashplan/internal/projection"
)

// WriteTableCSV serialises the projection table with raw numbers. Separator
// rows become empty records.
func WriteTableCSV(w io.Writer, result *projection.Result) error {
	writer := csv.NewWriter(w)
	defer writer.Flush()

	header := append([]string{"Line"}, result.MonthLabels...)
	if err := writer.Write(header); err != nil {
		return err
	}
	for _, row := range result.Table {
		if row.IsSeparator() {
			if err := writer.Write(make([]string, len(header))); err != nil {
				return err
			}
			continue
		}
		record := make([]string, 0, len(header))
		record = append(record, row.Label)
		for _, v := range row.Values {
			record = append(record, formatFloat(v))
		}
		record = append(record, formatFloat(row.Total))
		if err := writer.Write(record); err != nil {
			return err
		}
	}
	writer.Flush()
	return writer.Error()
}

// WriteIndicatorsCSV emits the summary indicators as metric/value pairs.
func WriteIndicatorsCSV(w io.Writer, indicators projection.Indicators) error {
	writer := csv.NewWriter(w)
	defer writer.Flush()

	if err := writer.Write([]string{"Metric", "Value"}); err != nil {
		return err
	}
	records := [][]string{
		{"Total Sales", formatFloat(indicators.TotalSales)},
		{"Total Receipts", formatFloat(indicators.TotalReceipts)},
		{"Total Expenses", formatFloat(indicators.TotalExpenses)},
		{"Ending Balance", formatFloat(indicators.EndingBalance)},
		{"Net Margin %", formatFloat(indicators.NetMarginPct)},
	}
	for _, record := range records {
		if err := writer.Write(record); err != nil {
			return err
		}
	}
	writer.Flush()
	return writer.Error()
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', 2, 64)
}
