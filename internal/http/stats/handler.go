package stats

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/jswalia/karigar/internal/stats"
)

type Handler struct {
	svc *stats.Service
}

func NewHandler(svc *stats.Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) Routes(r chi.Router) {
	r.Get("/dashboard", h.dashboard)
}

type dashboardResponse struct {
	TotalTransactions int64           `json:"total_transactions"`
	TotalClients      int64           `json:"total_clients"`
	TotalEmployees    int64           `json:"total_employees"`
	TodayTransactions int64           `json:"today_transactions"`
	TotalGold         decimal.Decimal `json:"total_gold"`
	Recent            []recentTxn     `json:"recent"`
}

type recentTxn struct {
	ID        string          `json:"id"`
	TxnID     string          `json:"txn_id"`
	Date      string          `json:"date"`
	OwnerName string          `json:"owner_name"`
	Gold      decimal.Decimal `json:"gold"`
}

func (h *Handler) dashboard(w http.ResponseWriter, r *http.Request) {
	d, err := h.svc.Dashboard(r.Context())
	if err != nil {
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	resp := dashboardResponse{
		TotalTransactions: d.TotalTransactions,
		TotalClients:      d.TotalClients,
		TotalEmployees:    d.TotalEmployees,
		TodayTransactions: d.TodayTransactions,
		TotalGold:         d.TotalGold,
		Recent:            make([]recentTxn, len(d.Recent)),
	}

	for i, txn := range d.Recent {
		resp.Recent[i] = recentTxn{
			ID:        txn.ID.String(),
			TxnID:     txn.TxnID,
			Date:      txn.Date,
			OwnerName: txn.OwnerName,
			Gold:      txn.Total.Gold,
		}
	}

	w.Header().Set("Content-Type", "application/json")

	if err := json.NewEncoder(w).Encode(resp); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}
