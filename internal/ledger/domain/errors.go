package domain

import (
	"errors"
	"fmt"
)

// Sentinel errors returned by the store and the engine
var (
	// ErrNotFound is returned when a referenced record does not exist
	ErrNotFound = errors.New("record not found")

	// ErrVersionConflict is returned by a conditional write when another
	// writer committed first
	ErrVersionConflict = errors.New("version conflict")

	// ErrConcurrencyExhausted is returned when the optimistic retry budget
	// is spent without a successful commit
	ErrConcurrencyExhausted = errors.New("concurrent update retries exhausted")

	// ErrNoTransaction is returned when there is no active transaction to cancel
	ErrNoTransaction = errors.New("no cancellable transaction")
)

// InsufficientStockError is returned when an issue would drive stock negative.
// Available carries the committed stock level for display.
type InsufficientStockError struct {
	ItemID    uint
	Available int
	Requested int
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("insufficient stock for item %d: requested %d, available %d",
		e.ItemID, e.Requested, e.Available)
}

// ValidationError marks bad caller input. Field names the offending field.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed on %s: %s", e.Field, e.Message)
}

// NewValidationError creates a validation error for a field
func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{Field: field, Message: message}
}
