package core

import (
	"errors"
	"fmt"
)

// Error taxonomy. Every error returned by the ledger, importer, or reports
// wraps one of the three roots, so callers can branch with errors.Is.
var (
	// ErrValidation covers bad input: amounts, dates, ranges. Never persisted.
	ErrValidation = errors.New("validation error")

	// ErrStore covers an unreachable backend or a rejected write. Callers
	// must not assume a partial write succeeded.
	ErrStore = errors.New("store error")

	// ErrImport covers unparseable CSV rows. An import aborts on the first one.
	ErrImport = errors.New("import error")
)

var (
	ErrInvalidAmount = fmt.Errorf("%w: amount must be positive", ErrValidation)
	ErrInvalidDate   = fmt.Errorf("%w: invalid date", ErrValidation)
	ErrInvalidType   = fmt.Errorf("%w: transaction type must be income or expense", ErrValidation)
	ErrInvalidDueDay = fmt.Errorf("%w: due day must be between 1 and 28", ErrValidation)
	ErrEmptyName     = fmt.Errorf("%w: name is required", ErrValidation)

	// ErrNotFound is returned by operations that need an existing row
	// (goal increment, toggle). Deletes stay idempotent and never return it.
	ErrNotFound = fmt.Errorf("%w: not found", ErrValidation)

	// ErrCategoryInUse blocks deleting a category that transactions or
	// recurring bills still reference.
	ErrCategoryInUse = fmt.Errorf("%w: category is referenced and cannot be deleted", ErrValidation)
)

// StoreErr wraps err into the store taxonomy with an operation label.
func StoreErr(op string, err error) error {
	return fmt.Errorf("%w: %s: %v", ErrStore, op, err)
}
