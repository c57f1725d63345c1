package projection

import (
	"fmt"
	"math"
)

// Series holds every derived monthly series of one projection.
type Series struct {
	Forecast               []float64 `json:"forecast"`
	EscalatedSales         []float64 `json:"escalated_sales"`
	CashSales              []float64 `json:"cash_sales"`
	CreditSales            []float64 `json:"credit_sales"`
	Receivables            Ledger    `json:"receivables"`
	CarriedOverReceivables []float64 `json:"carried_over_receivables"`
	TotalReceipts          []float64 `json:"total_receipts"`

	CommissionExpense      []float64 `json:"commission_expense"`
	CashCommission         []float64 `json:"cash_commission"`
	CommissionPayable      Ledger    `json:"commission_payable"`
	CarriedOverCommissions []float64 `json:"carried_over_commissions"`
	TotalCommissionPayable []float64 `json:"total_commission_payable"`

	PlannedPurchases      []float64 `json:"planned_purchases"`
	CashPurchases         []float64 `json:"cash_purchases"`
	CreditPurchases       []float64 `json:"credit_purchases"`
	Payables              Ledger    `json:"payables"`
	CarriedOverPayables   []float64 `json:"carried_over_payables"`
	TotalSupplierPayments []float64 `json:"total_supplier_payments"`

	VariableExpenses []float64 `json:"variable_expenses"`
	FixedExpenses    []float64 `json:"fixed_expenses"`
	TotalExpenses    []float64 `json:"total_expenses"`

	OperatingBalance []float64 `json:"operating_balance"`
	CumulativeCash   []float64 `json:"cumulative_cash"`
}

// Compute loads the setup from in.Setup and runs the projection.
func Compute(in Input) (*Result, error) {
	setup, err := LoadSetup(in.Setup)
	if err != nil {
		return nil, err
	}
	return ComputeSetup(setup, in)
}

// ComputeSetup runs the projection with an already loaded setup. in.Setup is ignored.
func ComputeSetup(setup Setup, in Input) (*Result, error) {
	if err := setup.Validate(); err != nil {
		return nil, err
	}
	if err := in.checkShape(setup.Horizon); err != nil {
		return nil, err
	}
	series, err := project(setup, in)
	if err != nil {
		return nil, err
	}
	if err := series.checkFinite(); err != nil {
		return nil, err
	}
	result := assemble(setup, in, series)
	if err := result.Indicators.checkFinite(); err != nil {
		return nil, err
	}
	return result, nil
}

func project(setup Setup, in Input) (Series, error) {
	n := setup.Horizon
	s := Series{
		Forecast:               seriesOrZeros(in.ForecastSales, n),
		CarriedOverReceivables: seriesOrZeros(in.CarriedOverReceivables, n),
		CarriedOverCommissions: seriesOrZeros(in.CarriedOverCommissions, n),
		CarriedOverPayables:    seriesOrZeros(in.CarriedOverPayables, n),
		FixedExpenses:          seriesOrZeros(in.FixedExpenses, n),
	}

	// Sales and receipts.
	s.EscalatedSales = scale(s.Forecast, 1+setup.SalesUplift)
	s.CashSales = scale(s.EscalatedSales, setup.CashSalesRatio)
	s.CreditSales = subtract(s.EscalatedSales, s.CashSales)
	receivables, err := Schedule(s.CreditSales, setup.SalesInstallments, setup.InstallmentStartOffset)
	if err != nil {
		return Series{}, fmt.Errorf("schedule receivables: %w", err)
	}
	s.Receivables = receivables
	s.TotalReceipts = add(s.CashSales, receivables.MonthTotals(), s.CarriedOverReceivables)

	// Commissions.
	s.CommissionExpense = scale(s.EscalatedSales, setup.CommissionRatio)
	s.CashCommission = scale(s.CommissionExpense, setup.CommissionCashUpfrontRatio)
	deferred := subtract(s.CommissionExpense, s.CashCommission)
	commissions, err := Schedule(deferred, setup.CommissionInstallments, setup.InstallmentStartOffset)
	if err != nil {
		return Series{}, fmt.Errorf("schedule commissions: %w", err)
	}
	s.CommissionPayable = commissions
	s.TotalCommissionPayable = add(s.CashCommission, commissions.MonthTotals(), s.CarriedOverCommissions)

	// Purchases and payables.
	purchaseBase := timed(s.EscalatedSales, setup.PurchaseTiming)
	s.PlannedPurchases = scale(purchaseBase, setup.COGSRatio*setup.PurchaseRatio)
	s.CashPurchases = scale(s.PlannedPurchases, setup.CashPurchaseRatio)
	s.CreditPurchases = subtract(s.PlannedPurchases, s.CashPurchases)
	payables, err := Schedule(s.CreditPurchases, setup.PurchaseInstallments, setup.InstallmentStartOffset)
	if err != nil {
		return Series{}, fmt.Errorf("schedule payables: %w", err)
	}
	s.Payables = payables
	s.TotalSupplierPayments = add(s.CashPurchases, payables.MonthTotals(), s.CarriedOverPayables)

	// Expenses.
	s.VariableExpenses = scale(timed(s.EscalatedSales, setup.ExpenseTiming), setup.VariableExpenseRatio)
	s.TotalExpenses = add(s.TotalCommissionPayable, s.TotalSupplierPayments, s.VariableExpenses, s.FixedExpenses)

	s.OperatingBalance = subtract(s.TotalReceipts, s.TotalExpenses)
	s.CumulativeCash = make([]float64, n)
	running := in.OpeningCashBalance
	for m, v := range s.OperatingBalance {
		running += v
		s.CumulativeCash[m] = running
	}
	return s, nil
}

func (s Series) checkFinite() error {
	named := []struct {
		name   string
		values []float64
	}{
		{"escalated_sales", s.EscalatedSales},
		{"total_receipts", s.TotalReceipts},
		{"total_commission_payable", s.TotalCommissionPayable},
		{"total_supplier_payments", s.TotalSupplierPayments},
		{"variable_expenses", s.VariableExpenses},
		{"total_expenses", s.TotalExpenses},
		{"operating_balance", s.OperatingBalance},
		{"cumulative_cash", s.CumulativeCash},
	}
	for _, series := range named {
		for m, v := range series.values {
			if math.IsNaN(v) || math.IsInf(v, 0) {
				return &ComputationError{Series: series.name, Month: m}
			}
		}
	}
	return nil
}

// timed returns base unchanged for current timing, or shifted one month later
// for lagged timing. Month 0 of a lagged series has no prior month and is zero.
func timed(base []float64, timing Timing) []float64 {
	out := make([]float64, len(base))
	if timing == TimingLagged {
		if len(base) > 1 {
			copy(out[1:], base[:len(base)-1])
		}
		return out
	}
	copy(out, base)
	return out
}

func scale(values []float64, factor float64) []float64 {
	out := make([]float64, len(values))
	for i, v := range values {
		out[i] = v * factor
	}
	return out
}

func subtract(a, b []float64) []float64 {
	out := make([]float64, len(a))
	for i := range a {
		out[i] = a[i] - b[i]
	}
	return out
}

func add(series ...[]float64) []float64 {
	if len(series) == 0 {
		return nil
	}
	out := make([]float64, len(series[0]))
	for _, values := range series {
		for i, v := range values {
			out[i] += v
		}
	}
	return out
}

func sum(values []float64) float64 {
	var total float64
	for _, v := range values {
		total += v
	}
	return total
}
