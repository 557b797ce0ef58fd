package ledger

import (
	"fmt"
	"time"
)

const txnIDDateLayout = "20060102"

// FormatTxnID renders a transaction identifier as TXN-YYYYMMDD-NNN. The
// sequence is zero-padded to three digits and widens naturally past 999
// instead of truncating.
func FormatTxnID(date time.Time, seq int64) string {
	return fmt.Sprintf("TXN-%s-%03d", date.Format(txnIDDateLayout), seq)
}

// SequenceKey is the per-day counter document key the sequence repository
// increments atomically. Keeping the counter in the store (rather than in
// process memory) makes it correct across restarts and multiple processes.
func SequenceKey(date time.Time) string {
	return "txn-" + date.Format(txnIDDateLayout)
}
