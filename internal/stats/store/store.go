package store

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

type Store struct {
	txns   *mongo.Collection
	owners *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{
		txns:   db.Collection("transactions"),
		owners: db.Collection("owners"),
	}
}

func (s *Store) CountTransactions(ctx context.Context) (int64, error) {
	count, err := s.txns.CountDocuments(ctx, bson.M{})
	if err != nil {
		return 0, fmt.Errorf("counting transactions: %w", err)
	}

	return count, nil
}

func (s *Store) CountTransactionsSince(ctx context.Context, date string) (int64, error) {
	count, err := s.txns.CountDocuments(ctx, bson.M{"date": bson.M{"$gte": date}})
	if err != nil {
		return 0, fmt.Errorf("counting transactions since %s: %w", date, err)
	}

	return count, nil
}

func (s *Store) CountOwners(ctx context.Context, kind string) (int64, error) {
	count, err := s.owners.CountDocuments(ctx, bson.M{"kind": kind})
	if err != nil {
		return 0, fmt.Errorf("counting owners: %w", err)
	}

	return count, nil
}

// TotalGold sums total.gold across every transaction server-side.
func (s *Store) TotalGold(ctx context.Context) (decimal.Decimal, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$group", Value: bson.M{
			"_id":  nil,
			"gold": bson.M{"$sum": "$total.gold"},
		}}},
	}

	cur, err := s.txns.Aggregate(ctx, pipeline)
	if err != nil {
		return decimal.Decimal{}, fmt.Errorf("aggregating gold total: %w", err)
	}
	defer cur.Close(ctx)

	var result struct {
		Gold primitive.Decimal128 `bson:"gold"`
	}

	if cur.Next(ctx) {
		if err := cur.Decode(&result); err != nil {
			return decimal.Decimal{}, fmt.Errorf("decoding gold total: %w", err)
		}
	}

	if err := cur.Err(); err != nil {
		return decimal.Decimal{}, fmt.Errorf("iterating gold total: %w", err)
	}

	total, err := decimal.NewFromString(result.Gold.String())
	if err != nil {
		return decimal.Decimal{}, fmt.Errorf("parsing gold total: %w", err)
	}

	return total, nil
}
