package owner

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/jswalia/karigar/internal/owner"
)

type Handler struct {
	svc *owner.Service
}

func NewHandler(svc *owner.Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) Routes(r chi.Router) {
	r.Post("/", h.create)
	r.Get("/", h.list)
	r.Get("/{id}", h.get)
	r.Patch("/{id}", h.update)
	r.Delete("/{id}", h.delete)
}

type createOwnerRequest struct {
	Kind    owner.Kind `json:"kind"`
	Name    string     `json:"name"`
	Phone   string     `json:"phone"`
	Email   string     `json:"email"`
	Address string     `json:"address"`
	Notes   string     `json:"notes"`
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	var req createOwnerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	o, err := h.svc.Create(r.Context(), owner.CreateParams{
		Kind:    req.Kind,
		Name:    req.Name,
		Phone:   req.Phone,
		Email:   req.Email,
		Address: req.Address,
		Notes:   req.Notes,
	})
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	writeJSON(w, http.StatusCreated, toResponse(o))
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	filter := owner.ListFilter{}

	if s := r.URL.Query().Get("search"); s != "" {
		filter.Search = s
	}

	if s := r.URL.Query().Get("kind"); s != "" {
		kind := owner.Kind(s)
		if kind != owner.KindClient && kind != owner.KindEmployee {
			http.Error(w, "invalid kind", http.StatusBadRequest)
			return
		}

		filter.Kind = &kind
	}

	owners, err := h.svc.List(r.Context(), filter)
	if err != nil {
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	resp := make([]ownerResponse, len(owners))
	for i, o := range owners {
		resp[i] = toResponse(o)
	}

	writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		http.Error(w, "invalid id", http.StatusBadRequest)
		return
	}

	o, err := h.svc.Get(r.Context(), id)
	if err != nil {
		if errors.Is(err, owner.ErrNotFound) {
			http.Error(w, "owner not found", http.StatusNotFound)
			return
		}

		http.Error(w, "internal error", http.StatusInternalServerError)

		return
	}

	writeJSON(w, http.StatusOK, toResponse(o))
}

type updateOwnerRequest struct {
	Name    *string `json:"name,omitempty"`
	Phone   *string `json:"phone,omitempty"`
	Email   *string `json:"email,omitempty"`
	Address *string `json:"address,omitempty"`
	Notes   *string `json:"notes,omitempty"`
	Active  *bool   `json:"active,omitempty"`
}

func (h *Handler) update(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		http.Error(w, "invalid id", http.StatusBadRequest)
		return
	}

	var req updateOwnerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	o, err := h.svc.Update(r.Context(), id, owner.UpdateParams{
		Name:    req.Name,
		Phone:   req.Phone,
		Email:   req.Email,
		Address: req.Address,
		Notes:   req.Notes,
		Active:  req.Active,
	})
	if err != nil {
		if errors.Is(err, owner.ErrNotFound) {
			http.Error(w, "owner not found", http.StatusNotFound)
			return
		}

		http.Error(w, err.Error(), http.StatusBadRequest)

		return
	}

	writeJSON(w, http.StatusOK, toResponse(o))
}

func (h *Handler) delete(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		http.Error(w, "invalid id", http.StatusBadRequest)
		return
	}

	if err := h.svc.Delete(r.Context(), id); err != nil {
		if errors.Is(err, owner.ErrNotFound) {
			http.Error(w, "owner not found", http.StatusNotFound)
			return
		}

		http.Error(w, "internal error", http.StatusInternalServerError)

		return
	}

	w.WriteHeader(http.StatusNoContent)
}

type ownerResponse struct {
	ID        uuid.UUID       `json:"id"`
	Kind      owner.Kind      `json:"kind"`
	Name      string          `json:"name"`
	Phone     string          `json:"phone"`
	Email     string          `json:"email,omitempty"`
	Address   string          `json:"address,omitempty"`
	Notes     string          `json:"notes,omitempty"`
	Active    bool            `json:"active"`
	Summary   summaryResponse `json:"summary"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt *time.Time      `json:"updated_at,omitempty"`
}

type summaryResponse struct {
	TotalPcs            int64           `json:"total_pcs"`
	TotalNetWt          decimal.Decimal `json:"total_net_wt"`
	TotalInchIbr        decimal.Decimal `json:"total_inch_ibr"`
	TotalGold           decimal.Decimal `json:"total_gold"`
	TotalGoldBarWeight  decimal.Decimal `json:"total_gold_bar_weight"`
	TotalGoldBarAmount  decimal.Decimal `json:"total_gold_bar_amount"`
	ClosingGoldBalance  decimal.Decimal `json:"closing_gold_balance"`
	ClosingCashBalance  decimal.Decimal `json:"closing_cash_balance"`
	LastTransactionDate *string         `json:"last_transaction_date,omitempty"`
}

func toResponse(o *owner.Owner) ownerResponse {
	return ownerResponse{
		ID:      o.ID,
		Kind:    o.Kind,
		Name:    o.Name,
		Phone:   o.Phone,
		Email:   o.Email,
		Address: o.Address,
		Notes:   o.Notes,
		Active:  o.Active,
		Summary: summaryResponse{
			TotalPcs:            o.Summary.TotalPcs,
			TotalNetWt:          o.Summary.TotalNetWt,
			TotalInchIbr:        o.Summary.TotalInchIbr,
			TotalGold:           o.Summary.TotalGold,
			TotalGoldBarWeight:  o.Summary.TotalGoldBarWeight,
			TotalGoldBarAmount:  o.Summary.TotalGoldBarAmount,
			ClosingGoldBalance:  o.Summary.ClosingGoldBalance,
			ClosingCashBalance:  o.Summary.ClosingCashBalance,
			LastTransactionDate: o.Summary.LastTransactionDate,
		},
		CreatedAt: o.CreatedAt,
		UpdatedAt: o.UpdatedAt,
	}
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(body); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}
