package projection

import (
	"encoding/json"
	"fmt"
	"math"
)

// TotalLabel is the last entry of Result.MonthLabels.
const TotalLabel = "TOTAL"

// Aggregation decides how a row's total is derived from its values.
type Aggregation int

const (
	// AggregateSum totals a flow row across months.
	AggregateSum Aggregation = iota
	// AggregateLast reports the final month of a level row.
	AggregateLast
)

// RowKind tags the variant of a table row.
type RowKind int

const (
	// RowData carries a labeled series.
	RowData RowKind = iota
	// RowSeparator is a blank line between groups.
	RowSeparator
)

// Row is one line of the projection table.
type Row struct {
	Kind        RowKind
	Label       string
	Values      []float64
	Aggregation Aggregation
	Total       float64
}

// Separator returns a blank group separator.
func Separator() Row {
	return Row{Kind: RowSeparator}
}

// FlowRow returns a row totalled by summing its values.
func FlowRow(label string, values []float64) Row {
	return newDataRow(label, values, AggregateSum)
}

// LevelRow returns a row totalled by its last value.
func LevelRow(label string, values []float64) Row {
	return newDataRow(label, values, AggregateLast)
}

func newDataRow(label string, values []float64, agg Aggregation) Row {
	row := Row{Kind: RowData, Label: label, Values: append([]float64(nil), values...), Aggregation: agg}
	switch agg {
	case AggregateLast:
		if len(values) > 0 {
			row.Total = values[len(values)-1]
		}
	default:
		row.Total = sum(values)
	}
	return row
}

// IsSeparator reports whether the row is a group separator.
func (r Row) IsSeparator() bool {
	return r.Kind == RowSeparator
}

type rowJSON struct {
	Separator bool      `json:"separator,omitempty"`
	Label     string    `json:"label,omitempty"`
	Values    []float64 `json:"values,omitempty"`
	Total     *float64  `json:"total,omitempty"`
	Level     bool      `json:"level,omitempty"`
}

// MarshalJSON renders data rows as {label, values, total} and separators as {"separator": true}.
func (r Row) MarshalJSON() ([]byte, error) {
	if r.IsSeparator() {
		return json.Marshal(rowJSON{Separator: true})
	}
	total := r.Total
	return json.Marshal(rowJSON{
		Label:  r.Label,
		Values: r.Values,
		Total:  &total,
		Level:  r.Aggregation == AggregateLast,
	})
}

// UnmarshalJSON restores a row produced by MarshalJSON.
func (r *Row) UnmarshalJSON(data []byte) error {
	var raw rowJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	if raw.Separator {
		*r = Separator()
		return nil
	}
	*r = Row{Kind: RowData, Label: raw.Label, Values: raw.Values}
	if raw.Level {
		r.Aggregation = AggregateLast
	}
	if raw.Total != nil {
		r.Total = *raw.Total
	}
	return nil
}

// Indicators summarises the projection.
type Indicators struct {
	TotalSales    float64 `json:"total_sales"`
	TotalReceipts float64 `json:"total_receipts"`
	TotalExpenses float64 `json:"total_expenses"`
	EndingBalance float64 `json:"ending_balance"`
	NetMarginPct  float64 `json:"net_margin_pct"`
}

// ChartSeries bundles the series a chart renderer needs.
type ChartSeries struct {
	Months            []string  `json:"months"`
	CumulativeBalance []float64 `json:"cumulative_balance"`
	Receipts          []float64 `json:"receipts"`
	Expenses          []float64 `json:"expenses"`
}

// Result is the output of one projection.
type Result struct {
	Setup       Setup       `json:"setup"`
	Table       []Row       `json:"table"`
	Indicators  Indicators  `json:"indicators"`
	Chart       ChartSeries `json:"chart_series"`
	MonthLabels []string    `json:"month_labels"`
	Series      Series      `json:"-"`
}

func assemble(setup Setup, in Input, s Series) *Result {
	labels := monthLabels(setup.Horizon, in)
	return &Result{
		Setup:       setup,
		Table:       buildTable(s),
		Indicators:  buildIndicators(s, in.OpeningCashBalance),
		Chart:       buildChart(labels, s),
		MonthLabels: append(labels, TotalLabel),
		Series:      s,
	}
}

func buildTable(s Series) []Row {
	rows := []Row{
		FlowRow("Forecast sales", s.Forecast),
		FlowRow("Escalated sales", s.EscalatedSales),
		Separator(),
		FlowRow("Cash sales", s.CashSales),
	}
	rows = append(rows, ledgerRows("Receivable installment", s.Receivables)...)
	rows = append(rows,
		FlowRow("Carried-over receivables", s.CarriedOverReceivables),
		FlowRow("Total receipts", s.TotalReceipts),
		Separator(),
		FlowRow("Commission expense", s.CommissionExpense),
		FlowRow("Cash commission", s.CashCommission),
	)
	rows = append(rows, ledgerRows("Commission installment", s.CommissionPayable)...)
	rows = append(rows,
		FlowRow("Carried-over commissions", s.CarriedOverCommissions),
		FlowRow("Total commission payable", s.TotalCommissionPayable),
		Separator(),
		FlowRow("Planned purchases", s.PlannedPurchases),
		FlowRow("Cash purchases", s.CashPurchases),
	)
	rows = append(rows, ledgerRows("Payable installment", s.Payables)...)
	rows = append(rows,
		FlowRow("Carried-over payables", s.CarriedOverPayables),
		FlowRow("Total supplier payments", s.TotalSupplierPayments),
		Separator(),
		FlowRow("Variable expenses", s.VariableExpenses),
		FlowRow("Fixed expenses", s.FixedExpenses),
		FlowRow("Total expenses", s.TotalExpenses),
		Separator(),
		FlowRow("Operating balance", s.OperatingBalance),
		LevelRow("Cumulative cash balance", s.CumulativeCash),
	)
	return rows
}

func ledgerRows(prefix string, ledger Ledger) []Row {
	rows := make([]Row, 0, len(ledger))
	for i, values := range ledger {
		rows = append(rows, FlowRow(fmt.Sprintf("%s %d", prefix, i+1), values))
	}
	return rows
}

func buildIndicators(s Series, opening float64) Indicators {
	ind := Indicators{
		TotalSales:    sum(s.Forecast),
		TotalReceipts: sum(s.TotalReceipts),
		TotalExpenses: sum(s.TotalExpenses),
		EndingBalance: opening,
	}
	if n := len(s.CumulativeCash); n > 0 {
		ind.EndingBalance = s.CumulativeCash[n-1]
	}
	if ind.TotalReceipts != 0 {
		ind.NetMarginPct = sum(s.OperatingBalance) / ind.TotalReceipts * 100
	}
	return ind
}

func (ind Indicators) checkFinite() error {
	named := []struct {
		name string
		v    float64
	}{
		{"total_sales", ind.TotalSales},
		{"total_receipts", ind.TotalReceipts},
		{"total_expenses", ind.TotalExpenses},
		{"ending_balance", ind.EndingBalance},
		{"net_margin_pct", ind.NetMarginPct},
	}
	for _, item := range named {
		if math.IsNaN(item.v) || math.IsInf(item.v, 0) {
			return &ComputationError{Series: item.name, Month: -1}
		}
	}
	return nil
}

func buildChart(labels []string, s Series) ChartSeries {
	return ChartSeries{
		Months:            append([]string(nil), labels...),
		CumulativeBalance: append([]float64(nil), s.CumulativeCash...),
		Receipts:          append([]float64(nil), s.TotalReceipts...),
		Expenses:          append([]float64(nil), s.TotalExpenses...),
	}
}

func monthLabels(n int, in Input) []string {
	labels := make([]string, 0, n+1)
	start, ok := in.startMonth()
	for m := 0; m < n; m++ {
		if ok {
			labels = append(labels, start.AddDate(0, m, 0).Format("Jan/2006"))
			continue
		}
		labels = append(labels, fmt.Sprintf("Month %d", m+1))
	}
	return labels
}

// Row returns the first data row with the given label.
func (r *Result) Row(label string) (Row, bool) {
	for _, row := range r.Table {
		if !row.IsSeparator() && row.Label == label {
			return row, true
		}
	}
	return Row{}, false
}
