package core

import "github.com/shopspring/decimal"

// MonthlyTotal is the converted total for one (year, month) group.
type MonthlyTotal struct {
	Year  int             `json:"year"`
	Month int             `json:"month"` // 1-12
	Total decimal.Decimal `json:"total"`
}

// CategoryBreakdown maps category name to converted total. Categories with
// no matching records are absent, never present as zero.
type CategoryBreakdown map[string]decimal.Decimal
