package ledger_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/jswalia/karigar/internal/ledger"
)

func TestFormatTxnID(t *testing.T) {
	day := time.Date(2025, 1, 1, 10, 30, 0, 0, time.UTC)

	assert.Equal(t, "TXN-20250101-001", ledger.FormatTxnID(day, 1))
	assert.Equal(t, "TXN-20250101-042", ledger.FormatTxnID(day, 42))
	assert.Equal(t, "TXN-20250101-999", ledger.FormatTxnID(day, 999))
}

func TestFormatTxnID_WidensPastThreeDigits(t *testing.T) {
	day := time.Date(2025, 1, 1, 10, 30, 0, 0, time.UTC)

	// A thousandth transaction in one day widens the field rather than
	// truncating or wrapping.
	assert.Equal(t, "TXN-20250101-1000", ledger.FormatTxnID(day, 1000))
}

func TestSequenceKey_ScopedPerDay(t *testing.T) {
	day1 := time.Date(2025, 1, 1, 23, 59, 59, 0, time.UTC)
	day2 := time.Date(2025, 1, 2, 0, 0, 1, 0, time.UTC)

	assert.Equal(t, "txn-20250101", ledger.SequenceKey(day1))
	assert.Equal(t, "txn-20250102", ledger.SequenceKey(day2))
	assert.NotEqual(t, ledger.SequenceKey(day1), ledger.SequenceKey(day2))
}
