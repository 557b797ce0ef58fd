package transaction_test

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/jswalia/karigar/internal/auth"
	txHandler "github.com/jswalia/karigar/internal/http/transaction"
	"github.com/jswalia/karigar/internal/ledger"
	"github.com/jswalia/karigar/internal/user"
)

type handlerMocks struct {
	txns    *ledger.MockTransactionRepository
	owners  *ledger.MockOwnerRepository
	seqs    *ledger.MockSequenceRepository
	pending *ledger.MockPendingRepository
}

func setupHandler(t *testing.T, perms user.Permissions, setupMock func(m handlerMocks)) http.Handler {
	t.Helper()

	ctrl := gomock.NewController(t)

	m := handlerMocks{
		txns:    ledger.NewMockTransactionRepository(ctrl),
		owners:  ledger.NewMockOwnerRepository(ctrl),
		seqs:    ledger.NewMockSequenceRepository(ctrl),
		pending: ledger.NewMockPendingRepository(ctrl),
	}

	if setupMock != nil {
		setupMock(m)
	}

	svc := ledger.NewService(m.txns, m.owners, m.seqs, m.pending)
	h := txHandler.NewHandler(svc)

	tokens := auth.NewManager("test-secret", time.Hour)

	router := chi.NewRouter()
	router.Route("/transactions", func(r chi.Router) {
		r.Use(tokens.Middleware)
		h.Routes(r)
	})

	token, err := tokens.Generate(&user.User{
		ID:          uuid.New(),
		Name:        "Asha",
		Permissions: perms,
	})
	require.NoError(t, err)

	return authedHandler{next: router, token: token}
}

// authedHandler attaches the session token so tests exercise the real
// middleware instead of bypassing it.
type authedHandler struct {
	next  http.Handler
	token string
}

func (a authedHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	r.Header.Set("Authorization", "Bearer "+a.token)
	a.next.ServeHTTP(w, r)
}

func allPerms() user.Permissions {
	return user.Permissions{CanCreate: true, CanEdit: true, CanDelete: true, CanViewAll: true}
}

func createBody(ownerID uuid.UUID) string {
	return fmt.Sprintf(`{
		"owner_id": %q,
		"owner_name": "Meera",
		"items": [{"description": "ring", "pcs": 2, "net_wt": "10.5", "add_wt": "0.2", "inch_ibr": "1.1", "gold": "11.6"}],
		"total": {"pcs": 2, "net_wt": "10.5", "inch_ibr": "1.1", "gold": "11.6"}
	}`, ownerID)
}

func TestHandler_Create(t *testing.T) {
	ownerID := uuid.New()

	handler := setupHandler(t, allPerms(), func(m handlerMocks) {
		m.owners.EXPECT().Exists(gomock.Any(), ownerID).Return(true, nil)
		m.seqs.EXPECT().Next(gomock.Any(), gomock.Any()).Return(int64(1), nil)
		m.txns.EXPECT().Insert(gomock.Any(), gomock.Any()).Return(nil)
		m.txns.EXPECT().ListByOwner(gomock.Any(), ownerID).Return([]*ledger.Transaction{}, nil)
		m.owners.EXPECT().PatchSummary(gomock.Any(), ownerID, gomock.Any()).Return(nil)
		m.pending.EXPECT().Clear(gomock.Any(), ownerID).Return(nil)
	})

	req := httptest.NewRequest(http.MethodPost, "/transactions/", strings.NewReader(createBody(ownerID)))
	req.Header.Set("Content-Type", "application/json")

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	require.Equal(t, http.StatusCreated, rec.Code)

	var resp struct {
		TxnID     string `json:"txn_id"`
		OwnerName string `json:"owner_name"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.True(t, strings.HasPrefix(resp.TxnID, "TXN-"), "txn_id %q", resp.TxnID)
	assert.Equal(t, "Meera", resp.OwnerName)
}

func TestHandler_Create_RecalcFailureReturnsAccepted(t *testing.T) {
	ownerID := uuid.New()

	handler := setupHandler(t, allPerms(), func(m handlerMocks) {
		m.owners.EXPECT().Exists(gomock.Any(), ownerID).Return(true, nil)
		m.seqs.EXPECT().Next(gomock.Any(), gomock.Any()).Return(int64(1), nil)
		m.txns.EXPECT().Insert(gomock.Any(), gomock.Any()).Return(nil)
		m.txns.EXPECT().ListByOwner(gomock.Any(), ownerID).
			Return(nil, fmt.Errorf("replica set unavailable"))
		m.pending.EXPECT().Mark(gomock.Any(), ownerID).Return(nil)
	})

	req := httptest.NewRequest(http.MethodPost, "/transactions/", strings.NewReader(createBody(ownerID)))
	req.Header.Set("Content-Type", "application/json")

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	require.Equal(t, http.StatusAccepted, rec.Code)

	var resp struct {
		SummaryStale bool `json:"summary_stale"`
		Transaction  struct {
			TxnID string `json:"txn_id"`
		} `json:"transaction"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.True(t, resp.SummaryStale)
	assert.NotEmpty(t, resp.Transaction.TxnID, "accepted response must still carry the stored transaction")
}

func TestHandler_Create_Forbidden(t *testing.T) {
	handler := setupHandler(t, user.Permissions{CanViewAll: true}, nil)

	req := httptest.NewRequest(http.MethodPost, "/transactions/", strings.NewReader(createBody(uuid.New())))
	req.Header.Set("Content-Type", "application/json")

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestHandler_Get(t *testing.T) {
	id := uuid.New()

	tests := []struct {
		name       string
		target     string
		setupMock  func(m handlerMocks)
		wantStatus int
	}{
		{
			name:   "Found",
			target: "/transactions/" + id.String(),
			setupMock: func(m handlerMocks) {
				m.txns.EXPECT().Get(gomock.Any(), id).
					Return(&ledger.Transaction{ID: id, TxnID: "TXN-20250101-001"}, nil)
			},
			wantStatus: http.StatusOK,
		},
		{
			name:   "NotFound",
			target: "/transactions/" + id.String(),
			setupMock: func(m handlerMocks) {
				m.txns.EXPECT().Get(gomock.Any(), id).Return(nil, ledger.ErrNotFound)
			},
			wantStatus: http.StatusNotFound,
		},
		{
			name:       "InvalidID",
			target:     "/transactions/not-a-uuid",
			wantStatus: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handler := setupHandler(t, allPerms(), tt.setupMock)

			req := httptest.NewRequest(http.MethodGet, tt.target, nil)
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)

			assert.Equal(t, tt.wantStatus, rec.Code)
		})
	}
}

func TestHandler_Unauthenticated(t *testing.T) {
	handler := setupHandler(t, allPerms(), nil)

	// Bypass authedHandler so no token is attached.
	inner := handler.(authedHandler).next

	req := httptest.NewRequest(http.MethodGet, "/transactions/", nil)
	rec := httptest.NewRecorder()
	inner.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}
