package ledger_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/jswalia/karigar/internal/ledger"
)

// fakeSequences is an in-memory stand-in for the store-backed atomic counter.
// Next is a single locked read-modify-write, mirroring the upsert-and-increment
// the Mongo implementation performs.
type fakeSequences struct {
	mu   sync.Mutex
	seqs map[string]int64
}

func (f *fakeSequences) Next(_ context.Context, key string) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.seqs == nil {
		f.seqs = map[string]int64{}
	}

	f.seqs[key]++

	return f.seqs[key], nil
}

func validParams(ownerID uuid.UUID, gold string) ledger.CreateParams {
	items := []ledger.Item{
		{Description: "Bangle", Pcs: 2, NetWt: dec("2.500"), Gold: dec(gold)},
	}

	return ledger.CreateParams{
		OwnerID:   ownerID,
		OwnerName: "Asha Devi",
		Items:     items,
		Total:     ledger.SumItems(items),
	}
}

func ownedTxn(id, ownerID uuid.UUID, date string, gold string) *ledger.Transaction {
	items := []ledger.Item{
		{Description: "Chain", Pcs: 1, NetWt: dec("1.000"), Gold: dec(gold)},
	}

	return &ledger.Transaction{
		ID:      id,
		OwnerID: ownerID,
		Date:    date,
		Time:    "10:00:00",
		Items:   items,
		Total:   ledger.SumItems(items),
	}
}

func TestService_Create(t *testing.T) {
	ownerID := uuid.New()

	type testCase struct {
		name      string
		params    ledger.CreateParams
		setupMock func(txns *ledger.MockTransactionRepository, owners *ledger.MockOwnerRepository, pending *ledger.MockPendingRepository)
		wantErr   error
	}

	tests := []testCase{
		{
			name:   "Success",
			params: validParams(ownerID, "2.000"),
			setupMock: func(txns *ledger.MockTransactionRepository, owners *ledger.MockOwnerRepository, pending *ledger.MockPendingRepository) {
				owners.EXPECT().Exists(gomock.Any(), ownerID).Return(true, nil)
				txns.EXPECT().Insert(gomock.Any(), gomock.Any()).Return(nil)
				txns.EXPECT().ListByOwner(gomock.Any(), ownerID).Return(nil, nil)
				owners.EXPECT().PatchSummary(gomock.Any(), ownerID, gomock.Any()).Return(nil)
				pending.EXPECT().Clear(gomock.Any(), ownerID).Return(nil)
			},
		},
		{
			name:    "MissingItems",
			params:  ledger.CreateParams{OwnerID: ownerID},
			wantErr: ledger.ErrInvalidInput,
		},
		{
			name:    "MissingOwnerReference",
			params:  validParams(uuid.Nil, "2.000"),
			wantErr: ledger.ErrInvalidInput,
		},
		{
			name: "TotalMismatch",
			params: func() ledger.CreateParams {
				p := validParams(ownerID, "2.000")
				p.Total.Gold = dec("9.000")
				return p
			}(),
			wantErr: ledger.ErrInvalidInput,
		},
		{
			name: "NegativeItemQuantity",
			params: func() ledger.CreateParams {
				p := validParams(ownerID, "2.000")
				p.Items[0].NetWt = dec("-1.000")
				p.Total = ledger.SumItems(p.Items)
				return p
			}(),
			wantErr: ledger.ErrInvalidInput,
		},
		{
			name:   "OwnerMissing",
			params: validParams(ownerID, "2.000"),
			setupMock: func(txns *ledger.MockTransactionRepository, owners *ledger.MockOwnerRepository, pending *ledger.MockPendingRepository) {
				owners.EXPECT().Exists(gomock.Any(), ownerID).Return(false, nil)
			},
			wantErr: ledger.ErrOwnerNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			defer ctrl.Finish()

			txns := ledger.NewMockTransactionRepository(ctrl)
			owners := ledger.NewMockOwnerRepository(ctrl)
			pending := ledger.NewMockPendingRepository(ctrl)

			if tt.setupMock != nil {
				tt.setupMock(txns, owners, pending)
			}

			svc := ledger.NewService(txns, owners, &fakeSequences{}, pending)
			got, err := svc.Create(context.Background(), tt.params)

			if tt.wantErr != nil {
				require.Error(t, err)
				assert.ErrorIs(t, err, tt.wantErr)
				assert.Nil(t, got)

				return
			}

			require.NoError(t, err)
			require.NotNil(t, got)
			assert.NotEmpty(t, got.ID)
			assert.NotEmpty(t, got.TxnID)
			assert.NotEmpty(t, got.Date)
			assert.NotEmpty(t, got.Time)
		})
	}
}

func TestService_Create_SequentialIDsResetDaily(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	ownerID := uuid.New()

	txns := ledger.NewMockTransactionRepository(ctrl)
	owners := ledger.NewMockOwnerRepository(ctrl)
	pending := ledger.NewMockPendingRepository(ctrl)

	owners.EXPECT().Exists(gomock.Any(), ownerID).Return(true, nil).AnyTimes()
	txns.EXPECT().Insert(gomock.Any(), gomock.Any()).Return(nil).AnyTimes()
	txns.EXPECT().ListByOwner(gomock.Any(), ownerID).Return(nil, nil).AnyTimes()
	owners.EXPECT().PatchSummary(gomock.Any(), ownerID, gomock.Any()).Return(nil).AnyTimes()
	pending.EXPECT().Clear(gomock.Any(), ownerID).Return(nil).AnyTimes()

	day := time.Date(2025, 1, 1, 9, 0, 0, 0, time.UTC)
	svc := ledger.NewService(txns, owners, &fakeSequences{}, pending).
		WithClock(func() time.Time { return day })

	for i, want := range []string{"TXN-20250101-001", "TXN-20250101-002", "TXN-20250101-003"} {
		got, err := svc.Create(context.Background(), validParams(ownerID, "1.000"))
		require.NoError(t, err, "create %d", i)
		assert.Equal(t, want, got.TxnID)
	}

	// Next calendar day: the sequence starts over at 001.
	day = day.AddDate(0, 0, 1)

	got, err := svc.Create(context.Background(), validParams(ownerID, "1.000"))
	require.NoError(t, err)
	assert.Equal(t, "TXN-20250102-001", got.TxnID)
}

// The naive read-max-then-increment generator could hand two concurrent
// creations the same identifier. The store-backed atomic counter cannot:
// every Next call observes a distinct sequence value.
func TestService_Create_ConcurrentIDsUnique(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	ownerID := uuid.New()

	txns := ledger.NewMockTransactionRepository(ctrl)
	owners := ledger.NewMockOwnerRepository(ctrl)
	pending := ledger.NewMockPendingRepository(ctrl)

	owners.EXPECT().Exists(gomock.Any(), ownerID).Return(true, nil).AnyTimes()
	txns.EXPECT().Insert(gomock.Any(), gomock.Any()).Return(nil).AnyTimes()
	txns.EXPECT().ListByOwner(gomock.Any(), ownerID).Return(nil, nil).AnyTimes()
	owners.EXPECT().PatchSummary(gomock.Any(), ownerID, gomock.Any()).Return(nil).AnyTimes()
	pending.EXPECT().Clear(gomock.Any(), ownerID).Return(nil).AnyTimes()

	day := time.Date(2025, 1, 1, 9, 0, 0, 0, time.UTC)
	svc := ledger.NewService(txns, owners, &fakeSequences{}, pending).
		WithClock(func() time.Time { return day })

	const n = 50

	var (
		wg  sync.WaitGroup
		mu  sync.Mutex
		ids = make(map[string]struct{}, n)
	)

	for i := 0; i < n; i++ {
		wg.Add(1)

		go func() {
			defer wg.Done()

			got, err := svc.Create(context.Background(), validParams(ownerID, "1.000"))
			assert.NoError(t, err)

			mu.Lock()
			ids[got.TxnID] = struct{}{}
			mu.Unlock()
		}()
	}

	wg.Wait()

	assert.Len(t, ids, n, "duplicate transaction ids under concurrent creation")
}

func TestService_Recalculate_Idempotent(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	ownerID := uuid.New()
	stored := []*ledger.Transaction{
		ownedTxn(uuid.New(), ownerID, "2025-02-01", "10.000"),
		ownedTxn(uuid.New(), ownerID, "2025-02-02", "20.000"),
	}

	txns := ledger.NewMockTransactionRepository(ctrl)
	owners := ledger.NewMockOwnerRepository(ctrl)
	pending := ledger.NewMockPendingRepository(ctrl)

	txns.EXPECT().ListByOwner(gomock.Any(), ownerID).Return(stored, nil).Times(2)
	pending.EXPECT().Clear(gomock.Any(), ownerID).Return(nil).Times(2)

	var summaries []ledger.Summary

	owners.EXPECT().
		PatchSummary(gomock.Any(), ownerID, gomock.Any()).
		DoAndReturn(func(_ context.Context, _ uuid.UUID, s ledger.Summary) error {
			summaries = append(summaries, s)
			return nil
		}).
		Times(2)

	svc := ledger.NewService(txns, owners, &fakeSequences{}, pending)

	require.NoError(t, svc.Recalculate(context.Background(), ownerID))
	require.NoError(t, svc.Recalculate(context.Background(), ownerID))

	require.Len(t, summaries, 2)
	assert.True(t, summaries[0].Equal(summaries[1]), "recalculation is not idempotent")
	assert.True(t, summaries[0].TotalGold.Equal(dec("30.000")))
}

func TestService_Update_ReassignsOwner(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	ownerA := uuid.New()
	ownerB := uuid.New()

	txn10 := ownedTxn(uuid.New(), ownerA, "2025-02-01", "10.000")
	txn20 := ownedTxn(uuid.New(), ownerA, "2025-02-02", "20.000")
	txn30 := ownedTxn(uuid.New(), ownerA, "2025-02-03", "30.000")

	moved := *txn20
	moved.OwnerID = ownerB

	txns := ledger.NewMockTransactionRepository(ctrl)
	owners := ledger.NewMockOwnerRepository(ctrl)
	pending := ledger.NewMockPendingRepository(ctrl)

	txns.EXPECT().Get(gomock.Any(), txn20.ID).Return(txn20, nil)
	owners.EXPECT().Exists(gomock.Any(), ownerB).Return(true, nil)

	txns.EXPECT().
		Update(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, got *ledger.Transaction) error {
			assert.Equal(t, ownerB, got.OwnerID)
			assert.NotNil(t, got.UpdatedAt)
			return nil
		})

	// Both owners are refolded over their post-mutation transaction sets.
	txns.EXPECT().ListByOwner(gomock.Any(), ownerA).Return([]*ledger.Transaction{txn10, txn30}, nil)
	txns.EXPECT().ListByOwner(gomock.Any(), ownerB).Return([]*ledger.Transaction{&moved}, nil)

	owners.EXPECT().
		PatchSummary(gomock.Any(), ownerA, gomock.Any()).
		DoAndReturn(func(_ context.Context, _ uuid.UUID, s ledger.Summary) error {
			assert.True(t, s.TotalGold.Equal(dec("40.000")), "owner A gold: %s", s.TotalGold)
			return nil
		})
	owners.EXPECT().
		PatchSummary(gomock.Any(), ownerB, gomock.Any()).
		DoAndReturn(func(_ context.Context, _ uuid.UUID, s ledger.Summary) error {
			assert.True(t, s.TotalGold.Equal(dec("20.000")), "owner B gold: %s", s.TotalGold)
			return nil
		})

	pending.EXPECT().Clear(gomock.Any(), ownerA).Return(nil)
	pending.EXPECT().Clear(gomock.Any(), ownerB).Return(nil)

	svc := ledger.NewService(txns, owners, &fakeSequences{}, pending)

	err := svc.Update(context.Background(), txn20.ID, ledger.UpdateParams{OwnerID: &ownerB})
	require.NoError(t, err)
}

func TestService_Update_NotFound(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	txns := ledger.NewMockTransactionRepository(ctrl)
	owners := ledger.NewMockOwnerRepository(ctrl)
	pending := ledger.NewMockPendingRepository(ctrl)

	id := uuid.New()
	txns.EXPECT().Get(gomock.Any(), id).Return(nil, ledger.ErrNotFound)

	svc := ledger.NewService(txns, owners, &fakeSequences{}, pending)

	err := svc.Update(context.Background(), id, ledger.UpdateParams{})
	assert.ErrorIs(t, err, ledger.ErrNotFound)
}

func TestService_Update_RecomputesTotalFromItems(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	ownerID := uuid.New()
	txn := ownedTxn(uuid.New(), ownerID, "2025-02-01", "10.000")

	newItems := []ledger.Item{
		{Description: "Necklace", Pcs: 1, NetWt: dec("5.000"), Gold: dec("4.500")},
	}

	txns := ledger.NewMockTransactionRepository(ctrl)
	owners := ledger.NewMockOwnerRepository(ctrl)
	pending := ledger.NewMockPendingRepository(ctrl)

	txns.EXPECT().Get(gomock.Any(), txn.ID).Return(txn, nil)
	txns.EXPECT().
		Update(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, got *ledger.Transaction) error {
			assert.True(t, got.Total.Gold.Equal(dec("4.500")))
			assert.True(t, got.Total.NetWt.Equal(dec("5.000")))
			return nil
		})
	txns.EXPECT().ListByOwner(gomock.Any(), ownerID).Return(nil, nil)
	owners.EXPECT().PatchSummary(gomock.Any(), ownerID, gomock.Any()).Return(nil)
	pending.EXPECT().Clear(gomock.Any(), ownerID).Return(nil)

	svc := ledger.NewService(txns, owners, &fakeSequences{}, pending)

	err := svc.Update(context.Background(), txn.ID, ledger.UpdateParams{Items: newItems})
	require.NoError(t, err)
}

func TestService_Delete_ResetsSummaryToZero(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	ownerID := uuid.New()

	items := []ledger.Item{
		{Description: "Bangle set", Pcs: 5, NetWt: dec("2.500"), Gold: dec("2.000")},
	}
	txn := &ledger.Transaction{
		ID:      uuid.New(),
		OwnerID: ownerID,
		Date:    "2025-02-01",
		Time:    "10:00:00",
		Items:   items,
		Total:   ledger.SumItems(items),
	}

	txns := ledger.NewMockTransactionRepository(ctrl)
	owners := ledger.NewMockOwnerRepository(ctrl)
	pending := ledger.NewMockPendingRepository(ctrl)

	txns.EXPECT().Get(gomock.Any(), txn.ID).Return(txn, nil)
	txns.EXPECT().Delete(gomock.Any(), txn.ID).Return(nil)
	txns.EXPECT().ListByOwner(gomock.Any(), ownerID).Return(nil, nil)

	owners.EXPECT().
		PatchSummary(gomock.Any(), ownerID, gomock.Any()).
		DoAndReturn(func(_ context.Context, _ uuid.UUID, s ledger.Summary) error {
			assert.Zero(t, s.TotalPcs)
			assert.True(t, s.TotalNetWt.IsZero())
			assert.True(t, s.TotalGold.IsZero())
			assert.True(t, s.ClosingGoldBalance.IsZero())
			assert.True(t, s.ClosingCashBalance.IsZero())
			assert.Nil(t, s.LastTransactionDate)
			return nil
		})
	pending.EXPECT().Clear(gomock.Any(), ownerID).Return(nil)

	svc := ledger.NewService(txns, owners, &fakeSequences{}, pending)

	require.NoError(t, svc.Delete(context.Background(), txn.ID))
}

func TestService_Delete_NotFound(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	txns := ledger.NewMockTransactionRepository(ctrl)
	owners := ledger.NewMockOwnerRepository(ctrl)
	pending := ledger.NewMockPendingRepository(ctrl)

	id := uuid.New()
	txns.EXPECT().Get(gomock.Any(), id).Return(nil, ledger.ErrNotFound)

	svc := ledger.NewService(txns, owners, &fakeSequences{}, pending)

	assert.ErrorIs(t, svc.Delete(context.Background(), id), ledger.ErrNotFound)
}

// A failed summary write-back after a committed insert is a distinct
// condition: the transaction is saved, the owner is queued for the
// reconciler, and the caller gets a *RecalcError rather than a mutation
// failure.
func TestService_Create_RecalcFailureIsDistinct(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	ownerID := uuid.New()

	txns := ledger.NewMockTransactionRepository(ctrl)
	owners := ledger.NewMockOwnerRepository(ctrl)
	pending := ledger.NewMockPendingRepository(ctrl)

	owners.EXPECT().Exists(gomock.Any(), ownerID).Return(true, nil)
	txns.EXPECT().Insert(gomock.Any(), gomock.Any()).Return(nil)
	txns.EXPECT().ListByOwner(gomock.Any(), ownerID).Return(nil, nil)
	owners.EXPECT().
		PatchSummary(gomock.Any(), ownerID, gomock.Any()).
		Return(errors.New("write rejected"))
	pending.EXPECT().Mark(gomock.Any(), ownerID).Return(nil)

	svc := ledger.NewService(txns, owners, &fakeSequences{}, pending)

	got, err := svc.Create(context.Background(), validParams(ownerID, "1.000"))

	require.Error(t, err)

	var recalcErr *ledger.RecalcError
	require.ErrorAs(t, err, &recalcErr)
	assert.Equal(t, ownerID, recalcErr.OwnerID)

	// The transaction itself was persisted and is returned to the caller.
	require.NotNil(t, got)
	assert.NotEmpty(t, got.TxnID)
}
