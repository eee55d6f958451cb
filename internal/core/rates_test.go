package core

import (
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func testSet() ExchangeRateSet {
	return ExchangeRateSet{
		Base: "USD",
		Rates: map[string]decimal.Decimal{
			"USD": decimal.NewFromInt(1),
			"EUR": decimal.RequireFromString("1.1"),
			"GBP": decimal.RequireFromString("0.8"),
		},
		FetchedAt: time.Now(),
	}
}

func TestExchangeRateSet_Validate(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*ExchangeRateSet)
		ok     bool
	}{
		{"valid", func(s *ExchangeRateSet) {}, true},
		{"bad base", func(s *ExchangeRateSet) { s.Base = "usd" }, false},
		{"empty rates", func(s *ExchangeRateSet) { s.Rates = nil }, false},
		{"zero rate", func(s *ExchangeRateSet) { s.Rates["EUR"] = decimal.Zero }, false},
		{"negative rate", func(s *ExchangeRateSet) { s.Rates["EUR"] = decimal.NewFromInt(-1) }, false},
		{"bad code", func(s *ExchangeRateSet) { s.Rates["eur"] = decimal.NewFromInt(1) }, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			s := testSet()
			tc.mutate(&s)
			err := s.Validate()
			if tc.ok && err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if !tc.ok {
				if !errors.Is(err, ErrRateFetch) {
					t.Fatalf("expected ErrRateFetch wrap, got %v", err)
				}
			}
		})
	}
}

func TestExchangeRateSet_Rate(t *testing.T) {
	s := testSet()

	cases := []struct {
		from, to string
		want     string
	}{
		{"USD", "USD", "1"},
		{"EUR", "EUR", "1"},
		{"USD", "EUR", "1.1"},
		{"EUR", "USD", "0.9090909090909091"},
		{"EUR", "GBP", "0.7272727272727273"},
	}
	for _, tc := range cases {
		got, err := s.Rate(tc.from, tc.to)
		if err != nil {
			t.Fatalf("Rate(%s, %s): %v", tc.from, tc.to, err)
		}
		want := decimal.RequireFromString(tc.want)
		if !got.Equal(want) {
			t.Fatalf("Rate(%s, %s) = %s, want %s", tc.from, tc.to, got, want)
		}
	}
}

func TestExchangeRateSet_Rate_UnknownCurrency(t *testing.T) {
	s := testSet()
	for _, pair := range [][2]string{{"USD", "JPY"}, {"JPY", "USD"}, {"JPY", "JPY"}} {
		_, err := s.Rate(pair[0], pair[1])
		if !errors.Is(err, ErrUnknownCurrency) {
			t.Fatalf("Rate(%s, %s) expected ErrUnknownCurrency, got %v", pair[0], pair[1], err)
		}
	}
}
