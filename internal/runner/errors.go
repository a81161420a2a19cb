package runner

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrCeilingReached = errors.New("open position ceiling reached")
	ErrAlreadyTracked = errors.New("position already tracked")

	errEmptyOrderID = errors.New("exchange returned no order id")
)

// TransientFetchError: a market data, account or order-status call failed.
// The symbol is skipped for this cycle and nothing is mutated.
type TransientFetchError struct {
	Op     string
	Symbol string
	Err    error
}

func (e *TransientFetchError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Op, e.Symbol, e.Err)
}

func (e *TransientFetchError) Unwrap() error { return e.Err }

// SizingRejection: the signal cannot be sized to a positive quantity. Not a failure.
type SizingRejection struct {
	Reason string
}

func (e *SizingRejection) Error() string { return "sizing rejected: " + e.Reason }

// PlacementFailure: the entry leg was refused, no exposure exists.
type PlacementFailure struct {
	Symbol string
	Err    error
}

func (e *PlacementFailure) Error() string {
	return fmt.Sprintf("entry order %s: %v", e.Symbol, e.Err)
}

func (e *PlacementFailure) Unwrap() error { return e.Err }

// PartialBracketFailure: the entry is live but at least one protective leg was refused.
// This is unprotected exposure.
type PartialBracketFailure struct {
	Symbol string
	Legs   []string
	Errs   []error
}

func (e *PartialBracketFailure) Error() string {
	parts := make([]string, len(e.Legs))
	for i := range e.Legs {
		parts[i] = fmt.Sprintf("%s: %v", e.Legs[i], e.Errs[i])
	}
	return fmt.Sprintf("unprotected %s, failed legs [%s]", e.Symbol, strings.Join(parts, "; "))
}

func (e *PartialBracketFailure) Unwrap() []error { return e.Errs }
