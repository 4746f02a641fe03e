package models

import (
	"errors"
	"fmt"
)

// InsufficientHistoryError reports a series shorter than an indicator's
// required window. It is recoverable: the symbol is skipped with a
// diagnostic, never a neutral value.
type InsufficientHistoryError struct {
	Indicator string
	Need      int
	Have      int
}

func (e *InsufficientHistoryError) Error() string {
	return fmt.Sprintf("%s needs %d bars, have %d", e.Indicator, e.Need, e.Have)
}

// InvalidRiskError reports a degenerate stop-loss computation where the
// stop did not land strictly below the entry price.
type InvalidRiskError struct {
	Entry float64
	Stop  float64
}

func (e *InvalidRiskError) Error() string {
	return fmt.Sprintf("stop %.8f not below entry %.8f", e.Stop, e.Entry)
}

// UpstreamDataError reports malformed or missing bars handed in by the
// fetch collaborator. Rejects the affected symbol only.
type UpstreamDataError struct {
	Symbol    string
	Timeframe string
	Reason    string
}

func (e *UpstreamDataError) Error() string {
	return fmt.Sprintf("upstream data for %s %s: %s", e.Symbol, e.Timeframe, e.Reason)
}

// IsInsufficientHistory reports whether err is an InsufficientHistoryError.
func IsInsufficientHistory(err error) bool {
	var target *InsufficientHistoryError
	return errors.As(err, &target)
}

// IsInvalidRisk reports whether err is an InvalidRiskError.
func IsInvalidRisk(err error) bool {
	var target *InvalidRiskError
	return errors.As(err, &target)
}

// IsUpstreamData reports whether err is an UpstreamDataError.
func IsUpstreamData(err error) bool {
	var target *UpstreamDataError
	return errors.As(err, &target)
}
