// Package core holds the domain types shared by the store, the rate cache
// and the aggregation engine, plus the error taxonomy the whole application
// branches on with errors.Is.
package core

import "errors"

var (
	// ErrValidation marks a cost record that violates an input invariant.
	// Surfaced to the caller before storage is touched.
	ErrValidation = errors.New("validation failed")

	// ErrSchema marks a store open or migration failure. Fatal for the
	// session; never retried automatically.
	ErrSchema = errors.New("schema error")

	// ErrRateFetch marks a failed rate refresh (network or parse). The
	// previously cached rate set is retained.
	ErrRateFetch = errors.New("rate fetch failed")

	// ErrUnknownCurrency marks a conversion for a currency code absent from
	// the cached rate set. There is no implicit 1:1 fallback.
	ErrUnknownCurrency = errors.New("unknown currency")

	// ErrTimeout marks an I/O operation that exceeded its deadline.
	ErrTimeout = errors.New("operation timed out")
)
