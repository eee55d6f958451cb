package core

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// ExchangeRateSet is a snapshot of conversion rates relative to one base
// currency: one unit of Base times Rates[code] yields that currency.
type ExchangeRateSet struct {
	Base      string                     `json:"base"`
	Rates     map[string]decimal.Decimal `json:"rates"`
	FetchedAt time.Time                  `json:"fetchedAt"`
}

func (s ExchangeRateSet) Validate() error {
	if !ValidCurrencyCode(s.Base) {
		return fmt.Errorf("%w: bad base currency %q", ErrRateFetch, s.Base)
	}
	if len(s.Rates) == 0 {
		return fmt.Errorf("%w: empty rate table", ErrRateFetch)
	}
	for code, rate := range s.Rates {
		if !ValidCurrencyCode(code) {
			return fmt.Errorf("%w: bad currency code %q", ErrRateFetch, code)
		}
		if !rate.IsPositive() {
			return fmt.Errorf("%w: non-positive rate %s for %s", ErrRateFetch, rate, code)
		}
	}
	return nil
}

// Rate returns the multiplicative factor converting from one currency into
// another. Both codes must be the base or present in the rate table.
func (s ExchangeRateSet) Rate(from, to string) (decimal.Decimal, error) {
	if from == to {
		if _, err := s.factor(from); err != nil {
			return decimal.Decimal{}, err
		}
		return decimal.NewFromInt(1), nil
	}
	fromFactor, err := s.factor(from)
	if err != nil {
		return decimal.Decimal{}, err
	}
	toFactor, err := s.factor(to)
	if err != nil {
		return decimal.Decimal{}, err
	}
	return toFactor.Div(fromFactor), nil
}

func (s ExchangeRateSet) factor(code string) (decimal.Decimal, error) {
	if code == s.Base {
		return decimal.NewFromInt(1), nil
	}
	rate, ok := s.Rates[code]
	if !ok {
		return decimal.Decimal{}, fmt.Errorf("%w: %s", ErrUnknownCurrency, code)
	}
	return rate, nil
}
