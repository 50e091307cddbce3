package pricing

import (
	"fmt"
	"math"
	"sort"
)

// ReferenceCurrency is the currency all exchange rates are expressed against.
const ReferenceCurrency = "USD"

// RateTable maps a currency code to its rate relative to ReferenceCurrency.
type RateTable map[string]float64

// Converter performs conversions over a fixed, closed set of currencies.
// The table is validated once at construction; an unknown code at runtime is
// a deployment misconfiguration, not a recoverable condition.
type Converter struct {
	rates RateTable
}

// NewConverter validates the rate table and builds a Converter. The reference
// currency must be present with rate 1 and every rate must be positive.
func NewConverter(rates RateTable) (*Converter, error) {
	if len(rates) == 0 {
		return nil, fmt.Errorf("exchange rate table is empty")
	}
	ref, ok := rates[ReferenceCurrency]
	if !ok {
		return nil, fmt.Errorf("exchange rate table missing reference currency %s", ReferenceCurrency)
	}
	if ref != 1 {
		return nil, fmt.Errorf("reference currency %s must have rate 1, got %v", ReferenceCurrency, ref)
	}
	for code, rate := range rates {
		if len(code) != 3 {
			return nil, fmt.Errorf("invalid currency code %q", code)
		}
		if rate <= 0 {
			return nil, fmt.Errorf("non-positive rate %v for currency %s", rate, code)
		}
	}
	copied := make(RateTable, len(rates))
	for code, rate := range rates {
		copied[code] = rate
	}
	return &Converter{rates: copied}, nil
}

// Supported reports whether the currency code is in the table.
func (c *Converter) Supported(code string) bool {
	_, ok := c.rates[code]
	return ok
}

// Currencies returns the supported codes in sorted order.
func (c *Converter) Currencies() []string {
	codes := make([]string, 0, len(c.rates))
	for code := range c.rates {
		codes = append(codes, code)
	}
	sort.Strings(codes)
	return codes
}

// ExchangeRate returns rate[to]/rate[from], the multiplier that converts an
// amount in from-currency into to-currency.
func (c *Converter) ExchangeRate(from, to string) (float64, error) {
	fromRate, ok := c.rates[from]
	if !ok {
		return 0, fmt.Errorf("unsupported currency %s", from)
	}
	toRate, ok := c.rates[to]
	if !ok {
		return 0, fmt.Errorf("unsupported currency %s", to)
	}
	return toRate / fromRate, nil
}

// Convert converts amount from one currency to another, rounded half-up to
// two decimal places. Identity conversions return the input exactly, with no
// rounding applied.
func (c *Converter) Convert(amount float64, from, to string) (float64, error) {
	if from == to {
		if !c.Supported(from) {
			return 0, fmt.Errorf("unsupported currency %s", from)
		}
		return amount, nil
	}
	rate, err := c.ExchangeRate(from, to)
	if err != nil {
		return 0, err
	}
	return Round2(amount * rate), nil
}

// Round2 rounds to two decimal places, half away from zero.
func Round2(x float64) float64 {
	return math.Round(x*100) / 100
}
