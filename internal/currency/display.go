package currency

import "math"

// DisplayAmount is a human-readable rendering of a monetary amount: the value
// rounded up to the nearest whole unit in its own currency, plus approximate
// (also ceiling-rounded) equivalents in every other configured currency.
type DisplayAmount struct {
	Amount   int64           `json:"amount"`
	Currency string          `json:"currency"`
	Approx   []Approximation `json:"approx"`
}

// Approximation is a ceiling-rounded equivalent in another currency.
type Approximation struct {
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
}

// Display renders amount (denominated in code) for presentation. Rounding
// happens here and only here; the conversion arithmetic itself is exact.
// Approximations appear in table order, skipping the amount's own currency.
func (t Table) Display(amount float64, code string) (DisplayAmount, error) {
	if !t.Has(code) {
		return DisplayAmount{}, &UnknownCurrencyError{Code: code}
	}

	d := DisplayAmount{
		Amount:   int64(math.Ceil(amount)),
		Currency: code,
	}
	for _, other := range t.codes {
		if other == code {
			continue
		}
		converted, err := t.Convert(amount, code, other)
		if err != nil {
			return DisplayAmount{}, err
		}
		d.Approx = append(d.Approx, Approximation{
			Amount:   int64(math.Ceil(converted)),
			Currency: other,
		})
	}
	return d, nil
}
