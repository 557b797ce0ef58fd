package ledger

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Transaction represents one jewelry-work record attributed to an owner
// (a client or an employee).
type Transaction struct {
	ID        uuid.UUID
	TxnID     string // human-readable id, e.g. TXN-20250101-001
	Date      string // YYYY-MM-DD, local calendar date at creation
	Time      string // HH:MM:SS, local wall clock at creation
	OwnerID   uuid.UUID
	OwnerName string

	Items []Item
	Total Total

	// GoldBar is an optional bullion settlement attached to the transaction.
	GoldBar *GoldBar

	// ClosingBalance snapshots the owner's balance as of this transaction.
	ClosingBalance *ClosingBalance

	Notes         string
	CreatedBy     string
	CreatedByName string

	CreatedAt time.Time
	UpdatedAt *time.Time
}

// Item is a single line of a transaction. Weights carry three decimal places.
type Item struct {
	Description string
	Pcs         int64
	NetWt       decimal.Decimal
	AddWt       decimal.Decimal
	InchIbr     decimal.Decimal
	Gold        decimal.Decimal
}

// Total is the denormalized sum over a transaction's items. It is written by
// the service and must always equal the fold of Items.
type Total struct {
	Pcs     int64
	NetWt   decimal.Decimal
	InchIbr decimal.Decimal
	Gold    decimal.Decimal
}

type GoldBar struct {
	Weight decimal.Decimal
	Amount decimal.Decimal
}

type ClosingBalance struct {
	Gold decimal.Decimal
	Cash decimal.Decimal
}

// Summary holds the derived aggregate fields stored on an owner record.
// Outside a mutation in flight it always equals Aggregate over the owner's
// current transactions.
type Summary struct {
	TotalPcs           int64
	TotalNetWt         decimal.Decimal
	TotalInchIbr       decimal.Decimal
	TotalGold          decimal.Decimal
	TotalGoldBarWeight decimal.Decimal
	TotalGoldBarAmount decimal.Decimal
	ClosingGoldBalance decimal.Decimal
	ClosingCashBalance decimal.Decimal

	// LastTransactionDate is nil when the owner has no transactions.
	LastTransactionDate *string
}

// Equal reports whether two summaries carry the same values. decimal.Decimal
// is not comparable with ==, so the summary compares field by field.
func (s Summary) Equal(o Summary) bool {
	if s.TotalPcs != o.TotalPcs {
		return false
	}

	if !s.TotalNetWt.Equal(o.TotalNetWt) ||
		!s.TotalInchIbr.Equal(o.TotalInchIbr) ||
		!s.TotalGold.Equal(o.TotalGold) ||
		!s.TotalGoldBarWeight.Equal(o.TotalGoldBarWeight) ||
		!s.TotalGoldBarAmount.Equal(o.TotalGoldBarAmount) ||
		!s.ClosingGoldBalance.Equal(o.ClosingGoldBalance) ||
		!s.ClosingCashBalance.Equal(o.ClosingCashBalance) {
		return false
	}

	if (s.LastTransactionDate == nil) != (o.LastTransactionDate == nil) {
		return false
	}

	if s.LastTransactionDate != nil && *s.LastTransactionDate != *o.LastTransactionDate {
		return false
	}

	return true
}
