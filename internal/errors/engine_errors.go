package errors

import (
	"errors"
	"fmt"
)

// Sentinel errors for the recoverable/fatal taxonomy. Recoverable errors
// are absorbed at the day-transition boundary; fatal ones abort before any
// simulation state exists.
var (
	// ErrInsufficientHistory: not enough price points to assess risk.
	// Recoverable; forces hold for one ticker on one day.
	ErrInsufficientHistory = errors.New("insufficient price history")

	// ErrDataGap: no price observation for a ticker on a day.
	// Recoverable; excludes the ticker (or skips the day when all tickers gap).
	ErrDataGap = errors.New("no price data available")

	// ErrInvalidConfig: fatal at startup, before the engine is constructed.
	ErrInvalidConfig = errors.New("invalid run configuration")

	// ErrCashInvariant must never reach a caller: decisions are clamped to
	// affordability before commit. Tests treat any surfacing as a defect.
	ErrCashInvariant = errors.New("cash invariant violation")
)

// Category groups errors by how the engine reacts to them.
type Category string

const (
	CategoryConfig   Category = "CONFIG"
	CategoryData     Category = "DATA"
	CategoryRisk     Category = "RISK"
	CategoryDecision Category = "DECISION"
	CategoryInternal Category = "INTERNAL"
)

// EngineError carries category and origin alongside the wrapped cause.
type EngineError struct {
	Category   Category
	Component  string
	Operation  string
	Message    string
	Underlying error
}

func (e *EngineError) Error() string {
	if e.Underlying != nil {
		return fmt.Sprintf("[%s:%s] %s: %s: %v", e.Category, e.Component, e.Operation, e.Message, e.Underlying)
	}
	return fmt.Sprintf("[%s:%s] %s: %s", e.Category, e.Component, e.Operation, e.Message)
}

func (e *EngineError) Unwrap() error {
	return e.Underlying
}

// IsFatal reports whether the error must abort the run rather than be
// absorbed at a day boundary.
func (e *EngineError) IsFatal() bool {
	return e.Category == CategoryConfig || e.Category == CategoryInternal
}

// Wrap attaches category and origin to an existing error.
func Wrap(err error, category Category, component, operation string) *EngineError {
	if err == nil {
		return nil
	}
	return &EngineError{
		Category:   category,
		Component:  component,
		Operation:  operation,
		Message:    "operation failed",
		Underlying: err,
	}
}

// NewConfigError builds a fatal configuration error wrapping ErrInvalidConfig.
func NewConfigError(component, message string) *EngineError {
	return &EngineError{
		Category:   CategoryConfig,
		Component:  component,
		Operation:  "validate",
		Message:    message,
		Underlying: ErrInvalidConfig,
	}
}

// IsRecoverable reports whether the error may be absorbed as a per-ticker
// (or per-day) exclusion instead of halting the run.
func IsRecoverable(err error) bool {
	if errors.Is(err, ErrInsufficientHistory) || errors.Is(err, ErrDataGap) {
		return true
	}
	var ee *EngineError
	if errors.As(err, &ee) {
		return !ee.IsFatal()
	}
	return false
}
