package export

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/odyssey-erp/cashplan/internal/money"
	"github.com/odyssey-erp/cashplan/internal/projection"
)

// WriteTableText renders the projection as an aligned text table followed by
// the summary indicators, formatting amounts with f.
func WriteTableText(w io.Writer, result *projection.Result, f *money.Formatter) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', tabwriter.AlignRight)

	header := append([]string{""}, result.MonthLabels...)
	if _, err := fmt.Fprintln(tw, strings.Join(header, "\t")+"\t"); err != nil {
		return err
	}
	for _, row := range result.Table {
		if row.IsSeparator() {
			if _, err := fmt.Fprintln(tw, strings.Repeat("\t", len(header))); err != nil {
				return err
			}
			continue
		}
		cells := make([]string, 0, len(header))
		cells = append(cells, row.Label)
		for _, v := range row.Values {
			cells = append(cells, f.Number(v))
		}
		cells = append(cells, f.Number(row.Total))
		if _, err := fmt.Fprintln(tw, strings.Join(cells, "\t")+"\t"); err != nil {
			return err
		}
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	ind := result.Indicators
	lines := []struct {
		label string
		value string
	}{
		{"Total sales", f.Format(ind.TotalSales)},
		{"Total receipts", f.Format(ind.TotalReceipts)},
		{"Total expenses", f.Format(ind.TotalExpenses)},
		{"Ending balance", f.Format(ind.EndingBalance)},
		{"Net margin", f.Percent(ind.NetMarginPct)},
	}
	if _, err := fmt.Fprintln(w); err != nil {
		return err
	}
	for _, line := range lines {
		if _, err := fmt.Fprintf(w, "%-16s %s\n", line.label+":", line.value); err != nil {
			return err
		}
	}
	return nil
}
