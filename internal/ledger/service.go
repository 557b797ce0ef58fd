package ledger

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

//go:generate mockgen -source=service.go -destination=repository_mock.go -package=ledger
type TransactionRepository interface {
	Insert(ctx context.Context, txn *Transaction) error
	Get(ctx context.Context, id uuid.UUID) (*Transaction, error)
	Update(ctx context.Context, txn *Transaction) error
	Delete(ctx context.Context, id uuid.UUID) error

	// ListByOwner returns every transaction attributed to the owner, sorted
	// by date then time, ascending.
	ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]*Transaction, error)
	List(ctx context.Context, filter ListFilter) ([]*Transaction, error)
}

// OwnerRepository is the summary-subset view of the owner record the engine
// writes back to. It never touches name/contact/permission fields.
type OwnerRepository interface {
	Exists(ctx context.Context, id uuid.UUID) (bool, error)
	PatchSummary(ctx context.Context, id uuid.UUID, summary Summary) error
}

// SequenceRepository hands out day-scoped sequence numbers. Next must be
// atomic (a single upsert-and-increment on the keyed counter document) so
// that concurrent creations can never observe the same value.
type SequenceRepository interface {
	Next(ctx context.Context, key string) (int64, error)
}

// PendingRepository tracks owners whose summary write-back failed after the
// primary mutation committed. The reconciler drains it.
type PendingRepository interface {
	Mark(ctx context.Context, ownerID uuid.UUID) error
	List(ctx context.Context) ([]uuid.UUID, error)
	Clear(ctx context.Context, ownerID uuid.UUID) error
}

// Service is the single entry point for transaction mutations. Every create,
// update and delete persists first and then refolds the affected owner's
// transactions into a fresh summary.
type Service struct {
	txns     TransactionRepository
	owners   OwnerRepository
	seqs     SequenceRepository
	pending  PendingRepository
	validate *validator.Validate
	now      func() time.Time
}

func NewService(txns TransactionRepository, owners OwnerRepository, seqs SequenceRepository, pending PendingRepository) *Service {
	return &Service{
		txns:     txns,
		owners:   owners,
		seqs:     seqs,
		pending:  pending,
		validate: validator.New(),
		now:      time.Now,
	}
}

// WithClock overrides the service clock. Tests use it to pin the calendar day
// the identifier generator stamps.
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

type CreateParams struct {
	OwnerID        uuid.UUID `validate:"required"`
	OwnerName      string
	Items          []Item `validate:"required,min=1,dive"`
	Total          Total
	GoldBar        *GoldBar
	ClosingBalance *ClosingBalance
	Notes          string
	CreatedBy      string
	CreatedByName  string
}

// Create validates the input, verifies the owner, stamps the generated
// identifier plus date/time, persists the transaction and recalculates the
// owner's summary.
//
// When recalculation fails the transaction is already committed: Create
// returns the persisted transaction together with a *RecalcError so callers
// can report "saved, totals may lag" instead of a failed mutation.
func (s *Service) Create(ctx context.Context, params CreateParams) (*Transaction, error) {
	if err := s.validate.Struct(params); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}

	if err := checkAmounts(params.Items, params.GoldBar); err != nil {
		return nil, err
	}

	if totalKey(SumItems(params.Items)) != totalKey(params.Total) {
		return nil, fmt.Errorf("%w: total does not match the fold of items", ErrInvalidInput)
	}

	ok, err := s.owners.Exists(ctx, params.OwnerID)
	if err != nil {
		return nil, fmt.Errorf("checking owner: %w", err)
	}

	if !ok {
		return nil, ErrOwnerNotFound
	}

	now := s.now()

	seq, err := s.seqs.Next(ctx, SequenceKey(now))
	if err != nil {
		return nil, fmt.Errorf("generating transaction id: %w", err)
	}

	txn := &Transaction{
		ID:             uuid.New(),
		TxnID:          FormatTxnID(now, seq),
		Date:           now.Format(time.DateOnly),
		Time:           now.Format(time.TimeOnly),
		OwnerID:        params.OwnerID,
		OwnerName:      params.OwnerName,
		Items:          params.Items,
		Total:          params.Total,
		GoldBar:        params.GoldBar,
		ClosingBalance: params.ClosingBalance,
		Notes:          params.Notes,
		CreatedBy:      params.CreatedBy,
		CreatedByName:  params.CreatedByName,
		CreatedAt:      now,
	}

	if err := s.txns.Insert(ctx, txn); err != nil {
		return nil, fmt.Errorf("inserting transaction: %w", err)
	}

	if err := s.Recalculate(ctx, txn.OwnerID); err != nil {
		return txn, err
	}

	return txn, nil
}

// UpdateParams is a partial patch; nil fields are left unchanged.
type UpdateParams struct {
	OwnerID        *uuid.UUID
	OwnerName      *string
	Items          []Item
	Total          *Total
	GoldBar        *GoldBar
	ClosingBalance *ClosingBalance
	Notes          *string
}

// Update patches the transaction and recalculates the pre-patch owner. When
// the patch reassigns the transaction to another owner, both owners are
// recalculated; each refold is independent.
func (s *Service) Update(ctx context.Context, id uuid.UUID, patch UpdateParams) error {
	old, err := s.txns.Get(ctx, id)
	if err != nil {
		return err
	}

	updated := *old
	updated.Items = append([]Item(nil), old.Items...)

	if patch.OwnerName != nil {
		updated.OwnerName = *patch.OwnerName
	}

	if patch.Items != nil {
		updated.Items = patch.Items
		updated.Total = SumItems(patch.Items)
	}

	if patch.Total != nil {
		updated.Total = *patch.Total
	}

	if patch.GoldBar != nil {
		updated.GoldBar = patch.GoldBar
	}

	if patch.ClosingBalance != nil {
		updated.ClosingBalance = patch.ClosingBalance
	}

	if patch.Notes != nil {
		updated.Notes = *patch.Notes
	}

	if err := checkAmounts(updated.Items, updated.GoldBar); err != nil {
		return err
	}

	if totalKey(SumItems(updated.Items)) != totalKey(updated.Total) {
		return fmt.Errorf("%w: total does not match the fold of items", ErrInvalidInput)
	}

	ownerChanged := patch.OwnerID != nil && *patch.OwnerID != old.OwnerID
	if ownerChanged {
		ok, err := s.owners.Exists(ctx, *patch.OwnerID)
		if err != nil {
			return fmt.Errorf("checking owner: %w", err)
		}

		if !ok {
			return ErrOwnerNotFound
		}

		updated.OwnerID = *patch.OwnerID
	}

	now := s.now()
	updated.UpdatedAt = &now

	if err := s.txns.Update(ctx, &updated); err != nil {
		return fmt.Errorf("updating transaction: %w", err)
	}

	recalcErr := s.Recalculate(ctx, old.OwnerID)

	if ownerChanged {
		if err := s.Recalculate(ctx, updated.OwnerID); err != nil {
			recalcErr = errors.Join(recalcErr, err)
		}
	}

	return recalcErr
}

// Delete removes the transaction and recalculates its owner over the
// remaining set. The deletion stands even if recalculation fails.
func (s *Service) Delete(ctx context.Context, id uuid.UUID) error {
	txn, err := s.txns.Get(ctx, id)
	if err != nil {
		return err
	}

	if err := s.txns.Delete(ctx, id); err != nil {
		return fmt.Errorf("deleting transaction: %w", err)
	}

	return s.Recalculate(ctx, txn.OwnerID)
}

// Recalculate refolds all of the owner's current transactions into a fresh
// summary and writes it onto the owner record. It always recomputes from the
// full set, which makes it idempotent. On failure the owner is queued for the
// reconciler and a *RecalcError is returned.
func (s *Service) Recalculate(ctx context.Context, ownerID uuid.UUID) error {
	txns, err := s.txns.ListByOwner(ctx, ownerID)
	if err != nil {
		return s.deferRecalc(ctx, ownerID, fmt.Errorf("listing owner transactions: %w", err))
	}

	// ListByOwner already sorts; re-sorting keeps the calculator's ordering
	// contract independent of the fetch.
	SortChronological(txns)

	summary := Aggregate(txns)

	if err := s.owners.PatchSummary(ctx, ownerID, summary); err != nil {
		return s.deferRecalc(ctx, ownerID, fmt.Errorf("writing owner summary: %w", err))
	}

	if err := s.pending.Clear(ctx, ownerID); err != nil {
		slog.Warn("failed to clear pending recalculation", "owner_id", ownerID, "error", err)
	}

	return nil
}

// PendingOwners lists owners whose summaries are known to be stale.
func (s *Service) PendingOwners(ctx context.Context) ([]uuid.UUID, error) {
	return s.pending.List(ctx)
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*Transaction, error) {
	return s.txns.Get(ctx, id)
}

type ListFilter struct {
	// Search matches the transaction id or owner name, case-insensitive.
	Search    string
	StartDate *string
	EndDate   *string
	OwnerID   *uuid.UUID
	Limit     int64
}

func (s *Service) List(ctx context.Context, filter ListFilter) ([]*Transaction, error) {
	return s.txns.List(ctx, filter)
}

func (s *Service) deferRecalc(ctx context.Context, ownerID uuid.UUID, cause error) error {
	if err := s.pending.Mark(ctx, ownerID); err != nil {
		slog.Error("failed to queue recalculation retry", "owner_id", ownerID, "error", err)
	}

	return &RecalcError{OwnerID: ownerID, Err: cause}
}

func checkAmounts(items []Item, bar *GoldBar) error {
	for _, it := range items {
		if it.Pcs < 0 || it.NetWt.IsNegative() || it.AddWt.IsNegative() || it.InchIbr.IsNegative() || it.Gold.IsNegative() {
			return fmt.Errorf("%w: item quantities must be non-negative", ErrInvalidInput)
		}
	}

	if bar != nil && (bar.Weight.IsNegative() || bar.Amount.IsNegative()) {
		return fmt.Errorf("%w: gold bar values must be non-negative", ErrInvalidInput)
	}

	return nil
}

// totalComparable is a ==-comparable projection of a Total, normalized so
// that 2.5 and 2.500 compare equal.
type totalComparable struct {
	pcs                  int64
	netWt, inchIbr, gold string
}

func totalKey(t Total) totalComparable {
	return totalComparable{
		pcs:     t.Pcs,
		netWt:   t.NetWt.String(),
		inchIbr: t.InchIbr.String(),
		gold:    t.Gold.String(),
	}
}
