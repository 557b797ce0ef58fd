package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/jswalia/karigar/internal/ledger"
)

const (
	transactionsCollection = "transactions"
	countersCollection     = "counters"
	pendingCollection      = "recalc_pending"
)

type Store struct {
	txns     *mongo.Collection
	counters *mongo.Collection
	pending  *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{
		txns:     db.Collection(transactionsCollection),
		counters: db.Collection(countersCollection),
		pending:  db.Collection(pendingCollection),
	}
}

func (s *Store) Insert(ctx context.Context, txn *ledger.Transaction) error {
	doc, err := toDoc(txn)
	if err != nil {
		return fmt.Errorf("encoding transaction: %w", err)
	}

	if _, err := s.txns.InsertOne(ctx, doc); err != nil {
		return fmt.Errorf("inserting transaction: %w", err)
	}

	return nil
}

func (s *Store) Get(ctx context.Context, id uuid.UUID) (*ledger.Transaction, error) {
	var doc transactionDoc

	err := s.txns.FindOne(ctx, bson.M{"_id": id.String()}).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ledger.ErrNotFound
		}

		return nil, fmt.Errorf("getting transaction: %w", err)
	}

	return fromDoc(&doc)
}

func (s *Store) Update(ctx context.Context, txn *ledger.Transaction) error {
	doc, err := toDoc(txn)
	if err != nil {
		return fmt.Errorf("encoding transaction: %w", err)
	}

	res, err := s.txns.ReplaceOne(ctx, bson.M{"_id": txn.ID.String()}, doc)
	if err != nil {
		return fmt.Errorf("updating transaction: %w", err)
	}

	if res.MatchedCount == 0 {
		return ledger.ErrNotFound
	}

	return nil
}

func (s *Store) Delete(ctx context.Context, id uuid.UUID) error {
	res, err := s.txns.DeleteOne(ctx, bson.M{"_id": id.String()})
	if err != nil {
		return fmt.Errorf("deleting transaction: %w", err)
	}

	if res.DeletedCount == 0 {
		return ledger.ErrNotFound
	}

	return nil
}

// ListByOwner returns the owner's transactions in chronological order, the
// order the aggregation calculator requires.
func (s *Store) ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]*ledger.Transaction, error) {
	opts := options.Find().SetSort(bson.D{{Key: "date", Value: 1}, {Key: "time", Value: 1}})

	cur, err := s.txns.Find(ctx, bson.M{"ownerId": ownerID.String()}, opts)
	if err != nil {
		return nil, fmt.Errorf("listing owner transactions: %w", err)
	}

	return decodeAll(ctx, cur)
}

func (s *Store) List(ctx context.Context, filter ledger.ListFilter) ([]*ledger.Transaction, error) {
	query := bson.M{}

	if filter.Search != "" {
		query["$or"] = bson.A{
			bson.M{"transactionId": bson.M{"$regex": filter.Search, "$options": "i"}},
			bson.M{"ownerName": bson.M{"$regex": filter.Search, "$options": "i"}},
		}
	}

	if filter.StartDate != nil || filter.EndDate != nil {
		dateRange := bson.M{}
		if filter.StartDate != nil {
			dateRange["$gte"] = *filter.StartDate
		}

		if filter.EndDate != nil {
			dateRange["$lte"] = *filter.EndDate
		}

		query["date"] = dateRange
	}

	if filter.OwnerID != nil {
		query["ownerId"] = filter.OwnerID.String()
	}

	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}})
	if filter.Limit > 0 {
		opts.SetLimit(filter.Limit)
	}

	cur, err := s.txns.Find(ctx, query, opts)
	if err != nil {
		return nil, fmt.Errorf("listing transactions: %w", err)
	}

	return decodeAll(ctx, cur)
}

// Next increments the day-scoped counter document and returns the new value.
// The upsert-and-increment is a single atomic operation on the server, so two
// concurrent calls can never observe the same sequence number.
func (s *Store) Next(ctx context.Context, key string) (int64, error) {
	opts := options.FindOneAndUpdate().
		SetUpsert(true).
		SetReturnDocument(options.After)

	var doc struct {
		Seq int64 `bson:"seq"`
	}

	err := s.counters.FindOneAndUpdate(ctx,
		bson.M{"_id": key},
		bson.M{"$inc": bson.M{"seq": 1}},
		opts,
	).Decode(&doc)
	if err != nil {
		return 0, fmt.Errorf("incrementing sequence %q: %w", key, err)
	}

	return doc.Seq, nil
}

func (s *Store) Mark(ctx context.Context, ownerID uuid.UUID) error {
	_, err := s.pending.UpdateOne(ctx,
		bson.M{"_id": ownerID.String()},
		bson.M{"$set": bson.M{"markedAt": time.Now().UTC()}},
		options.Update().SetUpsert(true),
	)
	if err != nil {
		return fmt.Errorf("marking pending recalculation: %w", err)
	}

	return nil
}

func (s *Store) ListPending(ctx context.Context) ([]uuid.UUID, error) {
	cur, err := s.pending.Find(ctx, bson.M{})
	if err != nil {
		return nil, fmt.Errorf("listing pending recalculations: %w", err)
	}
	defer cur.Close(ctx)

	var owners []uuid.UUID

	for cur.Next(ctx) {
		var doc struct {
			ID string `bson:"_id"`
		}

		if err := cur.Decode(&doc); err != nil {
			return nil, fmt.Errorf("decoding pending entry: %w", err)
		}

		id, err := uuid.Parse(doc.ID)
		if err != nil {
			return nil, fmt.Errorf("parsing pending owner id %q: %w", doc.ID, err)
		}

		owners = append(owners, id)
	}

	if err := cur.Err(); err != nil {
		return nil, fmt.Errorf("iterating pending entries: %w", err)
	}

	return owners, nil
}

func (s *Store) Clear(ctx context.Context, ownerID uuid.UUID) error {
	if _, err := s.pending.DeleteOne(ctx, bson.M{"_id": ownerID.String()}); err != nil {
		return fmt.Errorf("clearing pending recalculation: %w", err)
	}

	return nil
}

// EnsureIndexes creates the indexes the ledger relies on: the unique
// human-readable id and the owner/date listing index.
func EnsureIndexes(ctx context.Context, db *mongo.Database) error {
	_, err := db.Collection(transactionsCollection).Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "transactionId", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{
			Keys: bson.D{{Key: "ownerId", Value: 1}, {Key: "date", Value: 1}, {Key: "time", Value: 1}},
		},
	})
	if err != nil {
		return fmt.Errorf("creating transaction indexes: %w", err)
	}

	return nil
}

func decodeAll(ctx context.Context, cur *mongo.Cursor) ([]*ledger.Transaction, error) {
	defer cur.Close(ctx)

	var txns []*ledger.Transaction

	for cur.Next(ctx) {
		var doc transactionDoc
		if err := cur.Decode(&doc); err != nil {
			return nil, fmt.Errorf("decoding transaction: %w", err)
		}

		txn, err := fromDoc(&doc)
		if err != nil {
			return nil, err
		}

		txns = append(txns, txn)
	}

	if err := cur.Err(); err != nil {
		return nil, fmt.Errorf("iterating transactions: %w", err)
	}

	return txns, nil
}

var _ ledger.TransactionRepository = (*Store)(nil)
var _ ledger.SequenceRepository = (*Store)(nil)

// Pending wraps the store under the PendingRepository method names.
type Pending struct {
	*Store
}

func (p Pending) List(ctx context.Context) ([]uuid.UUID, error) {
	return p.ListPending(ctx)
}

var _ ledger.PendingRepository = Pending{}
