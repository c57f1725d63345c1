// Package money renders monetary amounts for display.
package money

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
	"golang.org/x/text/currency"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"
)

// Formatter renders amounts for one locale and currency.
type Formatter struct {
	tag     language.Tag
	unit    currency.Unit
	scale   int
	printer *message.Printer
	symbol  string
}

// NewFormatter builds a formatter for a BCP 47 locale and an ISO 4217 currency code.
func NewFormatter(locale, code string) (*Formatter, error) {
	tag, err := language.Parse(strings.TrimSpace(locale))
	if err != nil {
		return nil, fmt.Errorf("money: parse locale %q: %w", locale, err)
	}
	unit, err := currency.ParseISO(strings.ToUpper(strings.TrimSpace(code)))
	if err != nil {
		return nil, fmt.Errorf("money: parse currency %q: %w", code, err)
	}
	scale, _ := currency.Standard.Rounding(unit)
	printer := message.NewPrinter(tag)
	return &Formatter{
		tag:     tag,
		unit:    unit,
		scale:   scale,
		printer: printer,
		symbol:  printer.Sprint(currency.Symbol(unit)),
	}, nil
}

// Locale returns the formatter's language tag.
func (f *Formatter) Locale() language.Tag {
	return f.tag
}

// Currency returns the formatter's currency unit.
func (f *Formatter) Currency() currency.Unit {
	return f.unit
}

// Round rounds half away from zero to the currency's minor unit.
func (f *Formatter) Round(v float64) float64 {
	return decimal.NewFromFloat(v).Round(int32(f.scale)).InexactFloat64()
}

// Format renders v with the currency symbol and locale digit grouping.
func (f *Formatter) Format(v float64) string {
	return f.symbol + " " + f.Number(v)
}

// Number renders v with locale digit grouping and no currency symbol.
func (f *Formatter) Number(v float64) string {
	rounded := f.Round(v)
	// normalise negative zero
	if rounded == 0 {
		rounded = 0
	}
	return f.printer.Sprint(number.Decimal(rounded, number.Scale(f.scale)))
}

// Percent renders a percentage value such as 12.5 as "12.50%" in the locale.
func (f *Formatter) Percent(v float64) string {
	rounded := decimal.NewFromFloat(v).Round(2).InexactFloat64()
	if rounded == 0 {
		rounded = 0
	}
	return f.printer.Sprint(number.Decimal(rounded, number.Scale(2))) + "%"
}
