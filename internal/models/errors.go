package models

import "errors"

// Error kinds every public operation reports. Services wrap these with %w and
// handlers map them to HTTP statuses with errors.Is.
var (
	ErrNotAuthenticated    = errors.New("not authenticated")
	ErrNotAuthorized       = errors.New("not authorized")
	ErrNotFound            = errors.New("not found")
	ErrInvalidState        = errors.New("invalid state")
	ErrValidation          = errors.New("validation failed")
	ErrConcurrencyConflict = errors.New("concurrent update conflict")
	ErrExternalDependency  = errors.New("external dependency failed")

	// ErrLedgerCorrupt signals a broken ledger invariant (balance diverged from
	// the transaction fold, negative lifetime earnings). It is never
	// self-healed; callers must abort the operation and alert.
	ErrLedgerCorrupt = errors.New("ledger invariant violated")
)
