// Package currency provides the static currency table and the pure conversion
// arithmetic used everywhere money crosses a currency boundary.
//
// Every currency carries a factor relative to an implicit base unit: amount ×
// factor converts a base-unit amount into that currency. Converting between two
// currencies divides by the source factor and multiplies by the destination
// factor. No rounding happens here; callers round at presentation time only.
package currency

import (
	"fmt"
	"strconv"
	"strings"
)

// Currency is one entry in the conversion table.
type Currency struct {
	// Code is the unique identifier, e.g. "SEK".
	Code string `json:"code"`

	// Name is the human-readable name, e.g. "Swedish kronor".
	Name string `json:"name"`

	// Factor is units of this currency per one base unit. Must be positive.
	Factor float64 `json:"factor"`
}

// Table is a static, process-wide set of currencies. The zero value is empty;
// build one with NewTable or DefaultTable. A Table is immutable after
// construction and safe for concurrent use.
type Table struct {
	byCode map[string]Currency
	codes  []string
}

// NewTable builds a table from the given currencies, preserving their order
// for deterministic listings.
func NewTable(currencies ...Currency) Table {
	t := Table{byCode: make(map[string]Currency, len(currencies))}
	for _, c := range currencies {
		if _, dup := t.byCode[c.Code]; dup {
			continue
		}
		t.byCode[c.Code] = c
		t.codes = append(t.codes, c.Code)
	}
	return t
}

// DefaultTable returns the built-in table: SEK (the base unit), JPY and USD.
func DefaultTable() Table {
	return NewTable(
		Currency{Code: "SEK", Name: "Swedish kronor", Factor: 1},
		Currency{Code: "JPY", Name: "Japanese Yen", Factor: 12.6},
		Currency{Code: "USD", Name: "US Dollar", Factor: 0.11},
	)
}

// Lookup returns the currency for the given code.
func (t Table) Lookup(code string) (Currency, bool) {
	c, ok := t.byCode[code]
	return c, ok
}

// Has reports whether the code resolves in the table.
func (t Table) Has(code string) bool {
	_, ok := t.byCode[code]
	return ok
}

// Codes returns all currency codes in table order.
func (t Table) Codes() []string {
	out := make([]string, len(t.codes))
	copy(out, t.codes)
	return out
}

// Currencies returns all entries in table order.
func (t Table) Currencies() []Currency {
	out := make([]Currency, 0, len(t.codes))
	for _, code := range t.codes {
		out = append(out, t.byCode[code])
	}
	return out
}

// Convert converts amount from one currency to another. Dividing by the source
// factor normalizes to the base unit; multiplying by the destination factor
// expresses it in the target currency. Pure; no rounding.
func (t Table) Convert(amount float64, fromCode, toCode string) (float64, error) {
	from, ok := t.byCode[fromCode]
	if !ok {
		return 0, &UnknownCurrencyError{Code: fromCode}
	}
	to, ok := t.byCode[toCode]
	if !ok {
		return 0, &UnknownCurrencyError{Code: toCode}
	}
	return (amount / from.Factor) * to.Factor, nil
}

// Normalize expresses an amount recorded in currencyCode in the target
// (reporting) currency. It is used identically for event costs and payments.
func (t Table) Normalize(amount float64, currencyCode, targetCode string) (float64, error) {
	return t.Convert(amount, currencyCode, targetCode)
}

// ParseAmount parses a recorded monetary amount. Amounts are base-10 integer
// strings; anything else is a MalformedAmountError rather than a NaN that
// would poison downstream arithmetic.
func ParseAmount(s string) (float64, error) {
	v, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	if err != nil {
		return 0, &MalformedAmountError{Value: s}
	}
	return float64(v), nil
}

// UnknownCurrencyError reports a code with no entry in the table.
type UnknownCurrencyError struct {
	Code string
}

func (e *UnknownCurrencyError) Error() string {
	return fmt.Sprintf("unknown currency %q", e.Code)
}

// MalformedAmountError reports a recorded amount that does not parse as a
// base-10 integer.
type MalformedAmountError struct {
	Value string
}

func (e *MalformedAmountError) Error() string {
	return fmt.Sprintf("malformed amount %q", e.Value)
}
