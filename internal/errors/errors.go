// Package errors provides custom error types for domain-specific errors.
package errors

import (
	"errors"
	"fmt"
)

// Standard sentinel errors
var (
	ErrNotFound            = errors.New("not found")
	ErrSymbolNotFound      = errors.New("symbol not found")
	ErrPositionGone        = errors.New("position no longer exists")
	ErrNoSupportedFillMode = errors.New("instrument declares no usable fill mode")
	ErrAllModesExhausted   = errors.New("all fill modes exhausted")
	ErrMarketClosed        = errors.New("market is closed")
	ErrNoMoney             = errors.New("insufficient funds")
	ErrRequote             = errors.New("venue requoted")
	ErrInvalidStops        = errors.New("invalid stop levels")
	ErrOrderRejected       = errors.New("order rejected")
	ErrTimeout             = errors.New("operation timed out")
	ErrConnectionFailed    = errors.New("connection failed")
	ErrGuardStopped        = errors.New("guard is not running")
	ErrConfigInvalid       = errors.New("invalid configuration")
	ErrStaleQuote          = errors.New("quote is stale")
)

// VenueError represents an error returned by the trading venue.
type VenueError struct {
	Status  string // venue status code, e.g. REJECTED, REQUOTE
	Message string
	Err     error
}

func (e *VenueError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("venue error [%s]: %s: %v", e.Status, e.Message, e.Err)
	}
	return fmt.Sprintf("venue error [%s]: %s", e.Status, e.Message)
}

func (e *VenueError) Unwrap() error {
	return e.Err
}

// NewVenueError creates a new VenueError.
func NewVenueError(status, message string, err error) *VenueError {
	return &VenueError{
		Status:  status,
		Message: message,
		Err:     err,
	}
}

// OrderError represents an error related to order submission or modification.
type OrderError struct {
	Ticket uint64
	Symbol string
	Action string
	Reason string
	Err    error
}

func (e *OrderError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("order error [%d] %s %s: %s: %v", e.Ticket, e.Action, e.Symbol, e.Reason, e.Err)
	}
	return fmt.Sprintf("order error [%d] %s %s: %s", e.Ticket, e.Action, e.Symbol, e.Reason)
}

func (e *OrderError) Unwrap() error {
	return e.Err
}

// NewOrderError creates a new OrderError.
func NewOrderError(ticket uint64, symbol, action, reason string, err error) *OrderError {
	return &OrderError{
		Ticket: ticket,
		Symbol: symbol,
		Action: action,
		Reason: reason,
		Err:    err,
	}
}

// ValidationError represents a pre-venue validation failure. Requests that
// fail validation are rejected before any venue call is made.
type ValidationError struct {
	Field   string
	Value   interface{}
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation error: %s (%v): %s", e.Field, e.Value, e.Message)
}

// NewValidationError creates a new ValidationError.
func NewValidationError(field string, value interface{}, message string) *ValidationError {
	return &ValidationError{
		Field:   field,
		Value:   value,
		Message: message,
	}
}

// IsTransient reports whether the error is a transient transport failure
// eligible for a bounded, backoff-delayed retry at the call site.
func IsTransient(err error) bool {
	return errors.Is(err, ErrTimeout) || errors.Is(err, ErrConnectionFailed)
}

// Wrap wraps an error with additional context.
func Wrap(err error, message string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", message, err)
}

// Wrapf wraps an error with formatted context.
func Wrapf(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", fmt.Sprintf(format, args...), err)
}

// Is reports whether any error in err's chain matches target.
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As finds the first error in err's chain that matches target.
func As(err error, target interface{}) bool {
	return errors.As(err, target)
}
