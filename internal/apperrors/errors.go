package apperrors

import (
	"errors"
	"fmt"
)

// Sentinel errors shared across the service and repository layers. The
// HTTP handlers map these to status codes with errors.Is.
var (
	ErrNotFound              = errors.New("not found")
	ErrForbidden             = errors.New("forbidden")
	ErrValidation            = errors.New("validation failed")
	ErrInvalidState          = errors.New("invalid state for operation")
	ErrConflict              = errors.New("conflict")
	ErrNotAvailable          = errors.New("resource not available")
	ErrInsufficientInventory = errors.New("insufficient inventory")
	ErrTooLateToCancel       = errors.New("too late to cancel")
)

// InsufficientInventoryError carries the figures behind a rejected
// equipment allocation so the API can report them to the caller.
type InsufficientInventoryError struct {
	EquipmentID int64
	Requested   int
	Available   int
}

func (e *InsufficientInventoryError) Error() string {
	return fmt.Sprintf("equipment %d: requested %d, only %d available",
		e.EquipmentID, e.Requested, e.Available)
}

func (e *InsufficientInventoryError) Unwrap() error {
	return ErrInsufficientInventory
}
