package ledger

import "sort"

// Aggregate folds a set of one owner's transactions into a fresh Summary.
//
// The sums are order-independent, but the closing balances are taken from the
// last transaction in the slice that carries one, so the input MUST be sorted
// chronologically (date then time, ascending). Callers that fetch from the
// store get that order from ListByOwner; anything else should go through
// SortChronological first.
func Aggregate(txns []*Transaction) Summary {
	var s Summary

	for _, t := range txns {
		s.TotalPcs += t.Total.Pcs
		s.TotalNetWt = s.TotalNetWt.Add(t.Total.NetWt)
		s.TotalInchIbr = s.TotalInchIbr.Add(t.Total.InchIbr)
		s.TotalGold = s.TotalGold.Add(t.Total.Gold)

		if t.GoldBar != nil {
			s.TotalGoldBarWeight = s.TotalGoldBarWeight.Add(t.GoldBar.Weight)
			s.TotalGoldBarAmount = s.TotalGoldBarAmount.Add(t.GoldBar.Amount)
		}

		if t.ClosingBalance != nil {
			s.ClosingGoldBalance = t.ClosingBalance.Gold
			s.ClosingCashBalance = t.ClosingBalance.Cash
		}
	}

	if n := len(txns); n > 0 {
		date := txns[n-1].Date
		s.LastTransactionDate = &date
	}

	return s
}

// SortChronological orders transactions by date then time, ascending. Dates
// and times are fixed-width ISO strings, so plain string comparison is
// chronological.
func SortChronological(txns []*Transaction) {
	sort.SliceStable(txns, func(i, j int) bool {
		if txns[i].Date != txns[j].Date {
			return txns[i].Date < txns[j].Date
		}

		return txns[i].Time < txns[j].Time
	})
}

// SumItems folds a transaction's line items into a Total.
func SumItems(items []Item) Total {
	var t Total

	for _, it := range items {
		t.Pcs += it.Pcs
		t.NetWt = t.NetWt.Add(it.NetWt)
		t.InchIbr = t.InchIbr.Add(it.InchIbr)
		t.Gold = t.Gold.Add(it.Gold)
	}

	return t
}
