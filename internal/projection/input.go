package projection

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"reflect"
	"strings"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// Input is the caller-supplied bundle for one projection.
type Input struct {
	Setup                  map[string]any `json:"setup,omitempty" yaml:"setup"`
	ForecastSales          []float64      `json:"forecast_sales" yaml:"forecast_sales" validate:"required,dive,finite"`
	CarriedOverReceivables []float64      `json:"carried_over_receivables,omitempty" yaml:"carried_over_receivables" validate:"omitempty,dive,finite"`
	CarriedOverCommissions []float64      `json:"carried_over_commissions,omitempty" yaml:"carried_over_commissions" validate:"omitempty,dive,finite"`
	CarriedOverPayables    []float64      `json:"carried_over_payables,omitempty" yaml:"carried_over_payables" validate:"omitempty,dive,finite"`
	FixedExpenses          []float64      `json:"fixed_expenses,omitempty" yaml:"fixed_expenses" validate:"omitempty,dive,finite"`
	OpeningCashBalance     float64        `json:"opening_cash_balance,omitempty" yaml:"opening_cash_balance" validate:"finite"`
	StartMonth             string         `json:"start_month,omitempty" yaml:"start_month" validate:"omitempty,datetime=2006-01"`
}

// InputFormat identifies the encoding of an input document.
type InputFormat string

const (
	// FormatJSON decodes JSON documents.
	FormatJSON InputFormat = "json"
	// FormatYAML decodes YAML documents.
	FormatYAML InputFormat = "yaml"
)

// FormatFromPath guesses the input format from a file extension.
func FormatFromPath(path string) InputFormat {
	lower := strings.ToLower(path)
	if strings.HasSuffix(lower, ".yaml") || strings.HasSuffix(lower, ".yml") {
		return FormatYAML
	}
	return FormatJSON
}

// DecodeInput reads an Input document.
func DecodeInput(r io.Reader, format InputFormat) (Input, error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return Input{}, fmt.Errorf("projection: read input: %w", err)
	}
	var in Input
	switch format {
	case FormatYAML:
		if err := yaml.Unmarshal(raw, &in); err != nil {
			return Input{}, fmt.Errorf("projection: decode yaml input: %w", err)
		}
	case FormatJSON, "":
		dec := json.NewDecoder(bytes.NewReader(raw))
		dec.UseNumber()
		if err := dec.Decode(&in); err != nil {
			return Input{}, fmt.Errorf("projection: decode json input: %w", err)
		}
	default:
		return Input{}, fmt.Errorf("projection: unsupported input format %q", format)
	}
	return in, nil
}

var (
	validateOnce sync.Once
	validate     *validator.Validate
)

func inputValidator() *validator.Validate {
	validateOnce.Do(func() {
		v := validator.New(validator.WithRequiredStructEnabled())
		v.RegisterTagNameFunc(func(field reflect.StructField) string {
			name := strings.SplitN(field.Tag.Get("json"), ",", 2)[0]
			if name == "-" {
				return ""
			}
			return name
		})
		_ = v.RegisterValidation("finite", func(fl validator.FieldLevel) bool {
			f := fl.Field().Float()
			return !math.IsNaN(f) && !math.IsInf(f, 0)
		})
		validate = v
	})
	return validate
}

// checkShape validates the structural rules of the input against the horizon.
func (in Input) checkShape(horizon int) error {
	if err := inputValidator().Struct(in); err != nil {
		var fieldErrs validator.ValidationErrors
		if errors.As(err, &fieldErrs) && len(fieldErrs) > 0 {
			fe := fieldErrs[0]
			return &ShapeError{Field: fieldName(fe.Namespace()), Reason: shapeReason(fe)}
		}
		return &ShapeError{Field: "input", Reason: err.Error()}
	}
	if got := len(in.ForecastSales); got != horizon {
		return &ShapeError{Field: "forecast_sales", Want: horizon, Got: got}
	}
	optional := []struct {
		name   string
		values []float64
	}{
		{"carried_over_receivables", in.CarriedOverReceivables},
		{"carried_over_commissions", in.CarriedOverCommissions},
		{"carried_over_payables", in.CarriedOverPayables},
		{"fixed_expenses", in.FixedExpenses},
	}
	for _, series := range optional {
		if series.values == nil {
			continue
		}
		if got := len(series.values); got != horizon {
			return &ShapeError{Field: series.name, Want: horizon, Got: got}
		}
	}
	return nil
}

func (in Input) startMonth() (time.Time, bool) {
	if in.StartMonth == "" {
		return time.Time{}, false
	}
	t, err := time.Parse("2006-01", in.StartMonth)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

func fieldName(namespace string) string {
	if idx := strings.Index(namespace, "."); idx >= 0 {
		return namespace[idx+1:]
	}
	return namespace
}

func shapeReason(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "finite":
		return "must contain only finite numbers"
	case "datetime":
		return "must be formatted as YYYY-MM"
	default:
		return fmt.Sprintf("failed %q validation", fe.Tag())
	}
}

func seriesOrZeros(values []float64, n int) []float64 {
	if values == nil {
		return make([]float64, n)
	}
	out := make([]float64, n)
	copy(out, values)
	return out
}
