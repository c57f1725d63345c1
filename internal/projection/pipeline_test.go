package projection

import (
	"math"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	_ "github.com/odyssey-erp/cashplan/testing"
)

const tolerance = 1e-6

func scenarioInput() Input {
	return Input{ForecastSales: []float64{1200, 1100, 1200, 1100, 700}}
}

func TestComputeReferenceScenario(t *testing.T) {
	result, err := Compute(scenarioInput())
	require.NoError(t, err)
	s := result.Series

	require.Equal(t, []float64{1200, 1100, 1200, 1100, 700}, s.EscalatedSales)
	require.InDelta(t, 360.0, s.CashSales[0], tolerance)
	require.InDelta(t, 91.32, s.CommissionExpense[0], tolerance)
	require.InDelta(t, 102.0, s.PlannedPurchases[0], tolerance)

	// Receivables start the same month by default: 840 / 5 lands in month 0.
	require.InDelta(t, 168.0, s.Receivables[0][0], tolerance)
	require.InDelta(t, 360.0+168.0, s.TotalReceipts[0], tolerance)

	// Full commission is deferred over four installments.
	require.InDelta(t, 91.32/4, s.TotalCommissionPayable[0], tolerance)

	// 102 planned, 20.4 paid in cash, 81.6 over six installments.
	require.InDelta(t, 20.4+81.6/6, s.TotalSupplierPayments[0], tolerance)
	require.InDelta(t, 102.0, s.VariableExpenses[0], tolerance)
}

func TestComputeCumulativeRecurrence(t *testing.T) {
	in := scenarioInput()
	in.OpeningCashBalance = 250
	in.FixedExpenses = []float64{100, 100, 120, 120, 90}
	in.CarriedOverReceivables = []float64{300, 200, 100, 0, 0}
	result, err := Compute(in)
	require.NoError(t, err)

	s := result.Series
	require.InDelta(t, 250+s.OperatingBalance[0], s.CumulativeCash[0], tolerance)
	for m := 1; m < len(s.CumulativeCash); m++ {
		require.InDelta(t, s.CumulativeCash[m-1]+s.OperatingBalance[m], s.CumulativeCash[m], tolerance)
	}
	for m := range s.OperatingBalance {
		want := s.TotalReceipts[m] - s.TotalCommissionPayable[m] - s.TotalSupplierPayments[m] - s.VariableExpenses[m] - s.FixedExpenses[m]
		require.InDelta(t, want, s.OperatingBalance[m], tolerance)
	}
	require.InDelta(t, s.CumulativeCash[4], result.Indicators.EndingBalance, tolerance)
}

func TestComputeZeroForecast(t *testing.T) {
	result, err := Compute(Input{ForecastSales: make([]float64, 5)})
	require.NoError(t, err)
	for _, series := range [][]float64{
		result.Series.TotalReceipts,
		result.Series.TotalExpenses,
		result.Series.OperatingBalance,
		result.Series.CumulativeCash,
	} {
		require.Equal(t, []float64{0, 0, 0, 0, 0}, series)
	}
	require.Zero(t, result.Indicators.NetMarginPct)
	require.False(t, math.IsNaN(result.Indicators.NetMarginPct))
}

func TestComputeMarginGuardWithExpensesOnly(t *testing.T) {
	result, err := Compute(Input{
		ForecastSales: make([]float64, 5),
		FixedExpenses: []float64{10, 10, 10, 10, 10},
	})
	require.NoError(t, err)
	require.Zero(t, result.Indicators.TotalReceipts)
	require.Zero(t, result.Indicators.NetMarginPct)
	require.InDelta(t, -50, result.Indicators.EndingBalance, tolerance)
	require.InDelta(t, 50, result.Indicators.TotalExpenses, tolerance)
}

func TestComputeUpliftAndCarryOvers(t *testing.T) {
	in := Input{
		Setup:                  map[string]any{"sales_uplift": 0.1, "horizon": 3},
		ForecastSales:          []float64{1000, 1000, 1000},
		CarriedOverCommissions: []float64{5, 5, 5},
		CarriedOverPayables:    []float64{7, 0, 0},
	}
	result, err := Compute(in)
	require.NoError(t, err)
	s := result.Series
	require.InDelta(t, 1100, s.EscalatedSales[0], tolerance)
	require.InDelta(t, 1100*0.0761/4+5, s.TotalCommissionPayable[0], tolerance)
	require.InDelta(t, 1100*0.425*0.2*0.2+1100*0.425*0.2*0.8/6+7, s.TotalSupplierPayments[0], tolerance)
	require.InDelta(t, 3000, result.Indicators.TotalSales, tolerance)
}

func TestComputeLaggedTiming(t *testing.T) {
	in := scenarioInput()
	in.Setup = map[string]any{"purchase_timing": "lagged", "expense_timing": "LAGGED"}
	result, err := Compute(in)
	require.NoError(t, err)
	s := result.Series
	require.Zero(t, s.PlannedPurchases[0])
	require.Zero(t, s.VariableExpenses[0])
	require.InDelta(t, 1200*0.425*0.2, s.PlannedPurchases[1], tolerance)
	require.InDelta(t, 1100*0.085, s.VariableExpenses[2], tolerance)
}

func TestComputeCommissionUpfrontSplit(t *testing.T) {
	in := scenarioInput()
	in.Setup = map[string]any{"commission_cash_upfront_ratio": 0.3}
	result, err := Compute(in)
	require.NoError(t, err)
	s := result.Series
	require.InDelta(t, 91.32*0.3, s.CashCommission[0], tolerance)
	require.InDelta(t, 91.32*0.3+91.32*0.7/4, s.TotalCommissionPayable[0], tolerance)

	single := Input{
		Setup:         map[string]any{"commission_cash_upfront_ratio": 0.3, "horizon": 6},
		ForecastSales: []float64{1000, 0, 0, 0, 0, 0},
	}
	result, err = Compute(single)
	require.NoError(t, err)
	require.InDelta(t, 76.1, sumOf(result.Series.TotalCommissionPayable), tolerance)
}

func TestComputeNextMonthInstallments(t *testing.T) {
	in := scenarioInput()
	in.Setup = map[string]any{"installment_start_offset": 1}
	result, err := Compute(in)
	require.NoError(t, err)
	s := result.Series
	require.InDelta(t, 360.0, s.TotalReceipts[0], tolerance)
	require.Zero(t, s.TotalCommissionPayable[0])
	require.InDelta(t, 20.4, s.TotalSupplierPayments[0], tolerance)
	require.InDelta(t, 168.0, s.Receivables[0][1], tolerance)
}

func TestComputeShapeErrors(t *testing.T) {
	cases := []struct {
		name  string
		in    Input
		field string
	}{
		{"missing forecast", Input{}, "forecast_sales"},
		{"short forecast", Input{ForecastSales: []float64{1, 2, 3}}, "forecast_sales"},
		{"long fixed expenses", Input{ForecastSales: make([]float64, 5), FixedExpenses: make([]float64, 6)}, "fixed_expenses"},
		{"short payables", Input{ForecastSales: make([]float64, 5), CarriedOverPayables: []float64{}}, "carried_over_payables"},
		{"non-finite forecast", Input{ForecastSales: []float64{1, math.NaN(), 0, 0, 0}}, "forecast_sales[1]"},
		{"non-finite opening", Input{ForecastSales: make([]float64, 5), OpeningCashBalance: math.Inf(1)}, "opening_cash_balance"},
		{"bad start month", Input{ForecastSales: make([]float64, 5), StartMonth: "2025/01"}, "start_month"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			result, err := Compute(tc.in)
			require.Nil(t, result)
			require.ErrorIs(t, err, ErrShape)
			var shapeErr *ShapeError
			require.ErrorAs(t, err, &shapeErr)
			require.Equal(t, tc.field, shapeErr.Field)
		})
	}
}

func TestComputeConfigurationErrors(t *testing.T) {
	cases := []map[string]any{
		{"cash_sales_ratio": "thirty percent"},
		{"sales_installments": 0},
		{"purchase_installments": -1},
		{"horizon": 2.5},
		{"installment_start_offset": 2},
		{"purchase_timing": "someday"},
	}
	for _, setup := range cases {
		result, err := Compute(Input{Setup: setup, ForecastSales: make([]float64, 5)})
		require.Nil(t, result)
		require.ErrorIs(t, err, ErrConfiguration, "setup %v", setup)
	}
}

func TestComputeOverflowIsComputationError(t *testing.T) {
	result, err := Compute(Input{
		Setup:         map[string]any{"sales_uplift": 1},
		ForecastSales: []float64{math.MaxFloat64, 0, 0, 0, 0},
	})
	require.Nil(t, result)
	require.ErrorIs(t, err, ErrComputation)
}

func TestComputeSetupValidatesHandBuiltSetup(t *testing.T) {
	setup := DefaultSetup()
	setup.CommissionInstallments = 0
	_, err := ComputeSetup(setup, scenarioInput())
	require.ErrorIs(t, err, ErrConfiguration)

	setup = DefaultSetup()
	setup.PurchaseTiming = ""
	_, err = ComputeSetup(setup, scenarioInput())
	require.ErrorIs(t, err, ErrConfiguration)
}

func TestComputeConcurrentCallsAreIndependent(t *testing.T) {
	want, err := Compute(scenarioInput())
	require.NoError(t, err)

	var wg sync.WaitGroup
	results := make([]*Result, 16)
	errs := make([]error, 16)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			in := scenarioInput()
			if i%2 == 1 {
				in.ForecastSales = []float64{5, 5, 5, 5, 5}
			}
			results[i], errs[i] = Compute(in)
		}(i)
	}
	wg.Wait()
	for i, result := range results {
		require.NoError(t, errs[i])
		if i%2 == 0 {
			require.Equal(t, want.Series.CumulativeCash, result.Series.CumulativeCash)
		}
	}
}

func TestComputeDoesNotAliasInput(t *testing.T) {
	in := scenarioInput()
	result, err := Compute(in)
	require.NoError(t, err)
	result.Series.Forecast[0] = 0
	require.Equal(t, 1200.0, in.ForecastSales[0])
}

func sumOf(values []float64) float64 {
	var total float64
	for _, v := range values {
		total += v
	}
	return total
}
