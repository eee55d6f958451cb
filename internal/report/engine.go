// Package report computes monthly totals and category breakdowns over cost
// records, converted into a single target currency.
package report

import (
	"fmt"
	"sort"

	"costwatch/internal/core"

	"github.com/shopspring/decimal"
)

// Totals are rounded to this many decimal places, half-to-even, after exact
// summation.
const DisplayPlaces = 2

// RateSource supplies conversion factors between currency codes. Satisfied
// by *rates.Cache.
type RateSource interface {
	GetRate(from, to string) (decimal.Decimal, error)
}

type Engine struct {
	rates RateSource
}

func NewEngine(rates RateSource) *Engine {
	return &Engine{rates: rates}
}

// MonthlyTotals groups records by (year, month) and sums their amounts
// converted into targetCurrency, ordered chronologically. A conversion
// failure for any record fails the whole call; partial totals would be
// misleading.
func (e *Engine) MonthlyTotals(records []core.CostRecord, targetCurrency string) ([]core.MonthlyTotal, error) {
	type yearMonth struct {
		year  int
		month int
	}
	sums := make(map[yearMonth]decimal.Decimal)

	for _, rec := range records {
		converted, err := e.convert(rec, targetCurrency)
		if err != nil {
			return nil, err
		}
		key := yearMonth{rec.Date.Year(), rec.Date.Month()}
		sums[key] = sums[key].Add(converted)
	}

	totals := make([]core.MonthlyTotal, 0, len(sums))
	for key, sum := range sums {
		totals = append(totals, core.MonthlyTotal{
			Year:  key.year,
			Month: key.month,
			Total: sum.RoundBank(DisplayPlaces),
		})
	}
	sort.Slice(totals, func(i, j int) bool {
		if totals[i].Year != totals[j].Year {
			return totals[i].Year < totals[j].Year
		}
		return totals[i].Month < totals[j].Month
	})

	return totals, nil
}

// CategoryBreakdown sums converted amounts per category. Categories with no
// matching records are absent from the result.
func (e *Engine) CategoryBreakdown(records []core.CostRecord, targetCurrency string) (core.CategoryBreakdown, error) {
	sums := make(map[string]decimal.Decimal)

	for _, rec := range records {
		converted, err := e.convert(rec, targetCurrency)
		if err != nil {
			return nil, err
		}
		sums[rec.Category] = sums[rec.Category].Add(converted)
	}

	breakdown := make(core.CategoryBreakdown, len(sums))
	for category, sum := range sums {
		breakdown[category] = sum.RoundBank(DisplayPlaces)
	}
	return breakdown, nil
}

func (e *Engine) convert(rec core.CostRecord, targetCurrency string) (decimal.Decimal, error) {
	rate, err := e.rates.GetRate(rec.Currency, targetCurrency)
	if err != nil {
		return decimal.Decimal{}, fmt.Errorf("convert record %d (%s): %w", rec.ID, rec.Currency, err)
	}
	return rec.Amount.Mul(rate), nil
}
