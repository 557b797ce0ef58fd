package ledger

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
)

var (
	// ErrNotFound is returned when the referenced transaction does not exist.
	ErrNotFound = errors.New("transaction not found")

	// ErrOwnerNotFound is returned when the referenced owner does not exist.
	ErrOwnerNotFound = errors.New("owner not found")

	// ErrInvalidInput is returned when required transaction fields are missing
	// or inconsistent. It is detected before any write.
	ErrInvalidInput = errors.New("invalid input")
)

// RecalcError reports that the primary mutation committed but the follow-up
// summary recalculation failed. The owner's stored summary may be stale until
// recalculation is retried; the transaction write itself is not rolled back.
type RecalcError struct {
	OwnerID uuid.UUID
	Err     error
}

func (e *RecalcError) Error() string {
	return fmt.Sprintf("transaction saved but summary recalculation failed for owner %s: %v", e.OwnerID, e.Err)
}

func (e *RecalcError) Unwrap() error {
	return e.Err
}
