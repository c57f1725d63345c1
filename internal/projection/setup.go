package projection

import (
	"encoding/json"
	"fmt"
	"math"
	"strings"

	"github.com/spf13/cast"
)

// Timing selects which month's escalated sales a derived series is based on.
type Timing string

const (
	// TimingCurrent bases month m on the escalated sales of month m.
	TimingCurrent Timing = "current"
	// TimingLagged bases month m on the escalated sales of month m-1.
	TimingLagged Timing = "lagged"
)

// CommissionInstallments is the number of periods commissions settle over.
const CommissionInstallments = 4

// Setup keys accepted by LoadSetup.
const (
	KeyHorizon                    = "horizon"
	KeyCashSalesRatio             = "cash_sales_ratio"
	KeySalesInstallments          = "sales_installments"
	KeySalesUplift                = "sales_uplift"
	KeyCOGSRatio                  = "cogs_ratio"
	KeyPurchaseRatio              = "purchase_ratio"
	KeyCashPurchaseRatio          = "cash_purchase_ratio"
	KeyPurchaseInstallments       = "purchase_installments"
	KeyCommissionRatio            = "commission_ratio"
	KeyVariableExpenseRatio       = "variable_expense_ratio"
	KeyPurchaseTiming             = "purchase_timing"
	KeyExpenseTiming              = "expense_timing"
	KeyInstallmentStartOffset     = "installment_start_offset"
	KeyCommissionCashUpfrontRatio = "commission_cash_upfront_ratio"
)

// Setup is a fully populated set of business rules for one projection.
type Setup struct {
	Horizon                    int     `json:"horizon"`
	CashSalesRatio             float64 `json:"cash_sales_ratio"`
	SalesInstallments          int     `json:"sales_installments"`
	SalesUplift                float64 `json:"sales_uplift"`
	COGSRatio                  float64 `json:"cogs_ratio"`
	PurchaseRatio              float64 `json:"purchase_ratio"`
	CashPurchaseRatio          float64 `json:"cash_purchase_ratio"`
	PurchaseInstallments       int     `json:"purchase_installments"`
	CommissionRatio            float64 `json:"commission_ratio"`
	VariableExpenseRatio       float64 `json:"variable_expense_ratio"`
	PurchaseTiming             Timing  `json:"purchase_timing"`
	ExpenseTiming              Timing  `json:"expense_timing"`
	InstallmentStartOffset     int     `json:"installment_start_offset"`
	CommissionCashUpfrontRatio float64 `json:"commission_cash_upfront_ratio"`
	CommissionInstallments     int     `json:"commission_installments"`
}

// DefaultSetup returns the documented defaults.
func DefaultSetup() Setup {
	return Setup{
		Horizon:                5,
		CashSalesRatio:         0.30,
		SalesInstallments:      5,
		SalesUplift:            0,
		COGSRatio:              0.425,
		PurchaseRatio:          0.20,
		CashPurchaseRatio:      0.20,
		PurchaseInstallments:   6,
		CommissionRatio:        0.0761,
		VariableExpenseRatio:   0.085,
		PurchaseTiming:         TimingCurrent,
		ExpenseTiming:          TimingCurrent,
		InstallmentStartOffset: 0,
		CommissionInstallments: CommissionInstallments,
	}
}

// LoadSetup merges overrides onto DefaultSetup. Unknown keys are ignored.
func LoadSetup(overrides map[string]any) (Setup, error) {
	setup := DefaultSetup()

	ratios := map[string]*float64{
		KeyCashSalesRatio:             &setup.CashSalesRatio,
		KeySalesUplift:                &setup.SalesUplift,
		KeyCOGSRatio:                  &setup.COGSRatio,
		KeyPurchaseRatio:              &setup.PurchaseRatio,
		KeyCashPurchaseRatio:          &setup.CashPurchaseRatio,
		KeyCommissionRatio:            &setup.CommissionRatio,
		KeyVariableExpenseRatio:       &setup.VariableExpenseRatio,
		KeyCommissionCashUpfrontRatio: &setup.CommissionCashUpfrontRatio,
	}
	for key, dest := range ratios {
		raw, ok := overrides[key]
		if !ok {
			continue
		}
		v, err := toRatio(key, raw)
		if err != nil {
			return Setup{}, err
		}
		*dest = v
	}

	counts := map[string]*int{
		KeyHorizon:              &setup.Horizon,
		KeySalesInstallments:    &setup.SalesInstallments,
		KeyPurchaseInstallments: &setup.PurchaseInstallments,
	}
	for key, dest := range counts {
		raw, ok := overrides[key]
		if !ok {
			continue
		}
		v, err := toCount(key, raw)
		if err != nil {
			return Setup{}, err
		}
		if v <= 0 {
			return Setup{}, &ConfigurationError{Key: key, Value: raw, Reason: "must be a positive integer"}
		}
		*dest = v
	}

	if raw, ok := overrides[KeyInstallmentStartOffset]; ok {
		v, err := toCount(KeyInstallmentStartOffset, raw)
		if err != nil {
			return Setup{}, err
		}
		if v != 0 && v != 1 {
			return Setup{}, &ConfigurationError{Key: KeyInstallmentStartOffset, Value: raw, Reason: "must be 0 or 1"}
		}
		setup.InstallmentStartOffset = v
	}

	timings := map[string]*Timing{
		KeyPurchaseTiming: &setup.PurchaseTiming,
		KeyExpenseTiming:  &setup.ExpenseTiming,
	}
	for key, dest := range timings {
		raw, ok := overrides[key]
		if !ok {
			continue
		}
		t, err := toTiming(key, raw)
		if err != nil {
			return Setup{}, err
		}
		*dest = t
	}

	return setup, nil
}

// Validate checks the structural rules LoadSetup enforces, for setups built by hand.
func (s Setup) Validate() error {
	if s.Horizon <= 0 {
		return &ConfigurationError{Key: KeyHorizon, Value: s.Horizon, Reason: "must be a positive integer"}
	}
	if s.SalesInstallments <= 0 {
		return &ConfigurationError{Key: KeySalesInstallments, Value: s.SalesInstallments, Reason: "must be a positive integer"}
	}
	if s.PurchaseInstallments <= 0 {
		return &ConfigurationError{Key: KeyPurchaseInstallments, Value: s.PurchaseInstallments, Reason: "must be a positive integer"}
	}
	if s.CommissionInstallments <= 0 {
		return &ConfigurationError{Key: "commission_installments", Value: s.CommissionInstallments, Reason: "must be a positive integer"}
	}
	if s.InstallmentStartOffset != 0 && s.InstallmentStartOffset != 1 {
		return &ConfigurationError{Key: KeyInstallmentStartOffset, Value: s.InstallmentStartOffset, Reason: "must be 0 or 1"}
	}
	if _, err := toTiming(KeyPurchaseTiming, string(s.PurchaseTiming)); err != nil {
		return err
	}
	if _, err := toTiming(KeyExpenseTiming, string(s.ExpenseTiming)); err != nil {
		return err
	}
	ratios := []struct {
		key string
		v   float64
	}{
		{KeyCashSalesRatio, s.CashSalesRatio},
		{KeySalesUplift, s.SalesUplift},
		{KeyCOGSRatio, s.COGSRatio},
		{KeyPurchaseRatio, s.PurchaseRatio},
		{KeyCashPurchaseRatio, s.CashPurchaseRatio},
		{KeyCommissionRatio, s.CommissionRatio},
		{KeyVariableExpenseRatio, s.VariableExpenseRatio},
		{KeyCommissionCashUpfrontRatio, s.CommissionCashUpfrontRatio},
	}
	for _, r := range ratios {
		if math.IsNaN(r.v) || math.IsInf(r.v, 0) {
			return &ConfigurationError{Key: r.key, Value: r.v, Reason: "must be a finite number"}
		}
	}
	return nil
}

func toRatio(key string, raw any) (float64, error) {
	var (
		v   float64
		err error
	)
	switch val := raw.(type) {
	case bool, nil:
		return 0, &ConfigurationError{Key: key, Value: raw, Reason: "not a number"}
	case json.Number:
		v, err = val.Float64()
	case string:
		v, err = cast.ToFloat64E(strings.TrimSpace(val))
	default:
		v, err = cast.ToFloat64E(val)
	}
	if err != nil {
		return 0, &ConfigurationError{Key: key, Value: raw, Reason: "not a number"}
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, &ConfigurationError{Key: key, Value: raw, Reason: "must be a finite number"}
	}
	return v, nil
}

func toCount(key string, raw any) (int, error) {
	v, err := toRatio(key, raw)
	if err != nil {
		return 0, err
	}
	if v != math.Trunc(v) || math.Abs(v) > math.MaxInt32 {
		return 0, &ConfigurationError{Key: key, Value: raw, Reason: "must be an integer"}
	}
	return int(v), nil
}

func toTiming(key string, raw any) (Timing, error) {
	s, err := cast.ToStringE(raw)
	if err != nil {
		return "", &ConfigurationError{Key: key, Value: raw, Reason: "not a string"}
	}
	switch t := Timing(strings.ToLower(strings.TrimSpace(s))); t {
	case TimingCurrent, TimingLagged:
		return t, nil
	default:
		return "", &ConfigurationError{Key: key, Value: raw, Reason: fmt.Sprintf("must be %q or %q", TimingCurrent, TimingLagged)}
	}
}
