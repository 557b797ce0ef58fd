package transaction

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/jswalia/karigar/internal/auth"
	"github.com/jswalia/karigar/internal/ledger"
)

type Handler struct {
	svc *ledger.Service
}

func NewHandler(svc *ledger.Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) Routes(r chi.Router) {
	r.Post("/", h.create)
	r.Get("/", h.list)
	r.Get("/{id}", h.get)
	r.Patch("/{id}", h.update)
	r.Delete("/{id}", h.delete)
	r.Post("/recalculate/{ownerID}", h.recalculate)
}

type createTransactionRequest struct {
	OwnerID        uuid.UUID              `json:"owner_id"`
	OwnerName      string                 `json:"owner_name"`
	Items          []itemRequest          `json:"items"`
	Total          totalRequest           `json:"total"`
	GoldBar        *goldBarRequest        `json:"gold_bar,omitempty"`
	ClosingBalance *closingBalanceRequest `json:"closing_balance,omitempty"`
	Notes          string                 `json:"notes"`
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	claims, ok := auth.FromContext(r.Context())
	if !ok || !claims.Permissions.CanCreate {
		http.Error(w, "forbidden", http.StatusForbidden)
		return
	}

	var req createTransactionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	txn, err := h.svc.Create(r.Context(), ledger.CreateParams{
		OwnerID:        req.OwnerID,
		OwnerName:      req.OwnerName,
		Items:          itemsFromRequest(req.Items),
		Total:          req.Total.toDomain(),
		GoldBar:        req.GoldBar.toDomain(),
		ClosingBalance: req.ClosingBalance.toDomain(),
		Notes:          req.Notes,
		CreatedBy:      claims.UserID(),
		CreatedByName:  claims.Name,
	})
	if err != nil {
		var recalcErr *ledger.RecalcError
		if errors.As(err, &recalcErr) {
			// The transaction is persisted; the owner's displayed totals lag
			// until the reconciler catches up.
			writeJSON(w, http.StatusAccepted, staleResponse{
				Transaction:  toResponse(txn),
				SummaryStale: true,
			})

			return
		}

		writeServiceError(w, err)

		return
	}

	writeJSON(w, http.StatusCreated, toResponse(txn))
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	filter := ledger.ListFilter{Limit: 50}

	if s := r.URL.Query().Get("search"); s != "" {
		filter.Search = s
	}

	if s := r.URL.Query().Get("start_date"); s != "" {
		filter.StartDate = &s
	}

	if s := r.URL.Query().Get("end_date"); s != "" {
		filter.EndDate = &s
	}

	if s := r.URL.Query().Get("owner_id"); s != "" {
		id, err := uuid.Parse(s)
		if err != nil {
			http.Error(w, "invalid owner_id", http.StatusBadRequest)
			return
		}

		filter.OwnerID = &id
	}

	if s := r.URL.Query().Get("limit"); s != "" {
		limit, err := strconv.ParseInt(s, 10, 64)
		if err != nil || limit < 1 {
			http.Error(w, "invalid limit", http.StatusBadRequest)
			return
		}

		filter.Limit = limit
	}

	txns, err := h.svc.List(r.Context(), filter)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toResponseList(txns))
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		http.Error(w, "invalid id", http.StatusBadRequest)
		return
	}

	txn, err := h.svc.Get(r.Context(), id)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toResponse(txn))
}

type updateTransactionRequest struct {
	OwnerID        *uuid.UUID             `json:"owner_id,omitempty"`
	OwnerName      *string                `json:"owner_name,omitempty"`
	Items          []itemRequest          `json:"items,omitempty"`
	Total          *totalRequest          `json:"total,omitempty"`
	GoldBar        *goldBarRequest        `json:"gold_bar,omitempty"`
	ClosingBalance *closingBalanceRequest `json:"closing_balance,omitempty"`
	Notes          *string                `json:"notes,omitempty"`
}

func (h *Handler) update(w http.ResponseWriter, r *http.Request) {
	claims, ok := auth.FromContext(r.Context())
	if !ok || !claims.Permissions.CanEdit {
		http.Error(w, "forbidden", http.StatusForbidden)
		return
	}

	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		http.Error(w, "invalid id", http.StatusBadRequest)
		return
	}

	var req updateTransactionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	patch := ledger.UpdateParams{
		OwnerID:        req.OwnerID,
		OwnerName:      req.OwnerName,
		GoldBar:        req.GoldBar.toDomain(),
		ClosingBalance: req.ClosingBalance.toDomain(),
		Notes:          req.Notes,
	}

	if req.Items != nil {
		patch.Items = itemsFromRequest(req.Items)
	}

	if req.Total != nil {
		total := req.Total.toDomain()
		patch.Total = &total
	}

	if err := h.svc.Update(r.Context(), id, patch); err != nil {
		var recalcErr *ledger.RecalcError
		if errors.As(err, &recalcErr) {
			writeJSON(w, http.StatusAccepted, staleResponse{SummaryStale: true})
			return
		}

		writeServiceError(w, err)

		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) delete(w http.ResponseWriter, r *http.Request) {
	claims, ok := auth.FromContext(r.Context())
	if !ok || !claims.Permissions.CanDelete {
		http.Error(w, "forbidden", http.StatusForbidden)
		return
	}

	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		http.Error(w, "invalid id", http.StatusBadRequest)
		return
	}

	if err := h.svc.Delete(r.Context(), id); err != nil {
		var recalcErr *ledger.RecalcError
		if errors.As(err, &recalcErr) {
			writeJSON(w, http.StatusAccepted, staleResponse{SummaryStale: true})
			return
		}

		writeServiceError(w, err)

		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// recalculate lets callers refresh a stale summary without resubmitting the
// underlying transaction.
func (h *Handler) recalculate(w http.ResponseWriter, r *http.Request) {
	ownerID, err := uuid.Parse(chi.URLParam(r, "ownerID"))
	if err != nil {
		http.Error(w, "invalid owner id", http.StatusBadRequest)
		return
	}

	if err := h.svc.Recalculate(r.Context(), ownerID); err != nil {
		writeServiceError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ledger.ErrInvalidInput):
		http.Error(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, ledger.ErrNotFound):
		http.Error(w, "transaction not found", http.StatusNotFound)
	case errors.Is(err, ledger.ErrOwnerNotFound):
		http.Error(w, "owner not found", http.StatusNotFound)
	default:
		http.Error(w, "internal error", http.StatusInternalServerError)
	}
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(body); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}
