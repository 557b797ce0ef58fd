package transaction

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/jswalia/karigar/internal/ledger"
)

type itemRequest struct {
	Description string          `json:"description"`
	Pcs         int64           `json:"pcs"`
	NetWt       decimal.Decimal `json:"net_wt"`
	AddWt       decimal.Decimal `json:"add_wt"`
	InchIbr     decimal.Decimal `json:"inch_ibr"`
	Gold        decimal.Decimal `json:"gold"`
}

type totalRequest struct {
	Pcs     int64           `json:"pcs"`
	NetWt   decimal.Decimal `json:"net_wt"`
	InchIbr decimal.Decimal `json:"inch_ibr"`
	Gold    decimal.Decimal `json:"gold"`
}

type goldBarRequest struct {
	Weight decimal.Decimal `json:"weight"`
	Amount decimal.Decimal `json:"amount"`
}

type closingBalanceRequest struct {
	Gold decimal.Decimal `json:"gold"`
	Cash decimal.Decimal `json:"cash"`
}

func itemsFromRequest(items []itemRequest) []ledger.Item {
	out := make([]ledger.Item, len(items))
	for i, it := range items {
		out[i] = ledger.Item{
			Description: it.Description,
			Pcs:         it.Pcs,
			NetWt:       it.NetWt,
			AddWt:       it.AddWt,
			InchIbr:     it.InchIbr,
			Gold:        it.Gold,
		}
	}

	return out
}

func (r totalRequest) toDomain() ledger.Total {
	return ledger.Total{
		Pcs:     r.Pcs,
		NetWt:   r.NetWt,
		InchIbr: r.InchIbr,
		Gold:    r.Gold,
	}
}

func (r *goldBarRequest) toDomain() *ledger.GoldBar {
	if r == nil {
		return nil
	}

	return &ledger.GoldBar{Weight: r.Weight, Amount: r.Amount}
}

func (r *closingBalanceRequest) toDomain() *ledger.ClosingBalance {
	if r == nil {
		return nil
	}

	return &ledger.ClosingBalance{Gold: r.Gold, Cash: r.Cash}
}

type transactionResponse struct {
	ID             uuid.UUID               `json:"id"`
	TxnID          string                  `json:"txn_id"`
	Date           string                  `json:"date"`
	Time           string                  `json:"time"`
	OwnerID        uuid.UUID               `json:"owner_id"`
	OwnerName      string                  `json:"owner_name"`
	Items          []itemResponse          `json:"items"`
	Total          totalResponse           `json:"total"`
	GoldBar        *goldBarResponse        `json:"gold_bar,omitempty"`
	ClosingBalance *closingBalanceResponse `json:"closing_balance,omitempty"`
	Notes          string                  `json:"notes,omitempty"`
	CreatedBy      string                  `json:"created_by"`
	CreatedByName  string                  `json:"created_by_name"`
	CreatedAt      time.Time               `json:"created_at"`
	UpdatedAt      *time.Time              `json:"updated_at,omitempty"`
}

type itemResponse struct {
	Description string          `json:"description"`
	Pcs         int64           `json:"pcs"`
	NetWt       decimal.Decimal `json:"net_wt"`
	AddWt       decimal.Decimal `json:"add_wt"`
	InchIbr     decimal.Decimal `json:"inch_ibr"`
	Gold        decimal.Decimal `json:"gold"`
}

type totalResponse struct {
	Pcs     int64           `json:"pcs"`
	NetWt   decimal.Decimal `json:"net_wt"`
	InchIbr decimal.Decimal `json:"inch_ibr"`
	Gold    decimal.Decimal `json:"gold"`
}

type goldBarResponse struct {
	Weight decimal.Decimal `json:"weight"`
	Amount decimal.Decimal `json:"amount"`
}

type closingBalanceResponse struct {
	Gold decimal.Decimal `json:"gold"`
	Cash decimal.Decimal `json:"cash"`
}

type staleResponse struct {
	Transaction  transactionResponse `json:"transaction,omitzero"`
	SummaryStale bool                `json:"summary_stale"`
}

func toResponse(txn *ledger.Transaction) transactionResponse {
	resp := transactionResponse{
		ID:            txn.ID,
		TxnID:         txn.TxnID,
		Date:          txn.Date,
		Time:          txn.Time,
		OwnerID:       txn.OwnerID,
		OwnerName:     txn.OwnerName,
		Items:         make([]itemResponse, len(txn.Items)),
		Notes:         txn.Notes,
		CreatedBy:     txn.CreatedBy,
		CreatedByName: txn.CreatedByName,
		CreatedAt:     txn.CreatedAt,
		UpdatedAt:     txn.UpdatedAt,
	}

	for i, it := range txn.Items {
		resp.Items[i] = itemResponse{
			Description: it.Description,
			Pcs:         it.Pcs,
			NetWt:       it.NetWt,
			AddWt:       it.AddWt,
			InchIbr:     it.InchIbr,
			Gold:        it.Gold,
		}
	}

	resp.Total = totalResponse{
		Pcs:     txn.Total.Pcs,
		NetWt:   txn.Total.NetWt,
		InchIbr: txn.Total.InchIbr,
		Gold:    txn.Total.Gold,
	}

	if txn.GoldBar != nil {
		resp.GoldBar = &goldBarResponse{Weight: txn.GoldBar.Weight, Amount: txn.GoldBar.Amount}
	}

	if txn.ClosingBalance != nil {
		resp.ClosingBalance = &closingBalanceResponse{Gold: txn.ClosingBalance.Gold, Cash: txn.ClosingBalance.Cash}
	}

	return resp
}

func toResponseList(txns []*ledger.Transaction) []transactionResponse {
	resp := make([]transactionResponse, len(txns))
	for i, txn := range txns {
		resp[i] = toResponse(txn)
	}

	return resp
}
