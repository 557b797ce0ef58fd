package owner

import (
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/jswalia/karigar/internal/ledger"
)

var ErrNotFound = errors.New("owner not found")

// Kind distinguishes the two sorts of owners a transaction can be attributed
// to. Both live in one collection so every mutation path reads and writes the
// same place.
type Kind string

const (
	KindClient   Kind = "client"
	KindEmployee Kind = "employee"
)

// Owner is a client or employee who brings jewelry for processing. The
// Summary fields are derived from the owner's transactions and are written
// only by the ledger recalculation engine.
type Owner struct {
	ID      uuid.UUID
	Kind    Kind
	Name    string
	Phone   string
	Email   string
	Address string
	Notes   string
	Active  bool

	Summary ledger.Summary

	CreatedAt time.Time
	UpdatedAt *time.Time
}
