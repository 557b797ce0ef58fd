package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/jswalia/karigar/internal/ledger"
	"github.com/jswalia/karigar/internal/owner"
)

const ownersCollection = "owners"

type Store struct {
	owners *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{owners: db.Collection(ownersCollection)}
}

// ownerDoc flattens the summary fields onto the owner document, matching how
// the dashboard and statements read them.
type ownerDoc struct {
	ID      string `bson:"_id"`
	Kind    string `bson:"kind"`
	Name    string `bson:"name"`
	Phone   string `bson:"phone,omitempty"`
	Email   string `bson:"email,omitempty"`
	Address string `bson:"address,omitempty"`
	Notes   string `bson:"notes,omitempty"`
	Active  bool   `bson:"isActive"`

	TotalPcs            int64                `bson:"totalPcs"`
	TotalNetWt          primitive.Decimal128 `bson:"totalNetWt"`
	TotalInchIbr        primitive.Decimal128 `bson:"totalInchIbr"`
	TotalGold           primitive.Decimal128 `bson:"totalGold"`
	TotalGoldBarWeight  primitive.Decimal128 `bson:"totalGoldBarWeight"`
	TotalGoldBarAmount  primitive.Decimal128 `bson:"totalGoldBarAmount"`
	ClosingGoldBalance  primitive.Decimal128 `bson:"closingGoldBalance"`
	ClosingCashBalance  primitive.Decimal128 `bson:"closingCashBalance"`
	LastTransactionDate *string              `bson:"lastTransactionDate"`

	CreatedAt time.Time  `bson:"createdAt"`
	UpdatedAt *time.Time `bson:"updatedAt,omitempty"`
}

func (s *Store) Insert(ctx context.Context, o *owner.Owner) error {
	doc, err := toDoc(o)
	if err != nil {
		return fmt.Errorf("encoding owner: %w", err)
	}

	if _, err := s.owners.InsertOne(ctx, doc); err != nil {
		return fmt.Errorf("inserting owner: %w", err)
	}

	return nil
}

func (s *Store) Get(ctx context.Context, id uuid.UUID) (*owner.Owner, error) {
	var doc ownerDoc

	err := s.owners.FindOne(ctx, bson.M{"_id": id.String()}).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, owner.ErrNotFound
		}

		return nil, fmt.Errorf("getting owner: %w", err)
	}

	return fromDoc(&doc)
}

func (s *Store) List(ctx context.Context, filter owner.ListFilter) ([]*owner.Owner, error) {
	query := bson.M{}

	if filter.Search != "" {
		query["$or"] = bson.A{
			bson.M{"name": bson.M{"$regex": filter.Search, "$options": "i"}},
			bson.M{"phone": bson.M{"$regex": filter.Search, "$options": "i"}},
			bson.M{"email": bson.M{"$regex": filter.Search, "$options": "i"}},
		}
	}

	if filter.Kind != nil {
		query["kind"] = string(*filter.Kind)
	}

	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}})

	cur, err := s.owners.Find(ctx, query, opts)
	if err != nil {
		return nil, fmt.Errorf("listing owners: %w", err)
	}
	defer cur.Close(ctx)

	var owners []*owner.Owner

	for cur.Next(ctx) {
		var doc ownerDoc
		if err := cur.Decode(&doc); err != nil {
			return nil, fmt.Errorf("decoding owner: %w", err)
		}

		o, err := fromDoc(&doc)
		if err != nil {
			return nil, err
		}

		owners = append(owners, o)
	}

	if err := cur.Err(); err != nil {
		return nil, fmt.Errorf("iterating owners: %w", err)
	}

	return owners, nil
}

func (s *Store) Update(ctx context.Context, o *owner.Owner) error {
	update := bson.M{
		"name":    o.Name,
		"phone":   o.Phone,
		"email":   o.Email,
		"address": o.Address,
		"notes":   o.Notes,
		"isActive": o.Active,
	}

	if o.UpdatedAt != nil {
		update["updatedAt"] = *o.UpdatedAt
	}

	res, err := s.owners.UpdateOne(ctx, bson.M{"_id": o.ID.String()}, bson.M{"$set": update})
	if err != nil {
		return fmt.Errorf("updating owner: %w", err)
	}

	if res.MatchedCount == 0 {
		return owner.ErrNotFound
	}

	return nil
}

func (s *Store) Delete(ctx context.Context, id uuid.UUID) error {
	res, err := s.owners.DeleteOne(ctx, bson.M{"_id": id.String()})
	if err != nil {
		return fmt.Errorf("deleting owner: %w", err)
	}

	if res.DeletedCount == 0 {
		return owner.ErrNotFound
	}

	return nil
}

func (s *Store) Exists(ctx context.Context, id uuid.UUID) (bool, error) {
	count, err := s.owners.CountDocuments(ctx, bson.M{"_id": id.String()})
	if err != nil {
		return false, fmt.Errorf("checking owner existence: %w", err)
	}

	return count > 0, nil
}

// PatchSummary writes only the derived summary fields plus the updatedAt
// stamp; contact and permission fields are never touched here.
func (s *Store) PatchSummary(ctx context.Context, id uuid.UUID, summary ledger.Summary) error {
	set := bson.M{
		"totalPcs":            summary.TotalPcs,
		"lastTransactionDate": summary.LastTransactionDate,
		"updatedAt":           time.Now().UTC(),
	}

	fields := map[string]decimal.Decimal{
		"totalNetWt":         summary.TotalNetWt,
		"totalInchIbr":       summary.TotalInchIbr,
		"totalGold":          summary.TotalGold,
		"totalGoldBarWeight": summary.TotalGoldBarWeight,
		"totalGoldBarAmount": summary.TotalGoldBarAmount,
		"closingGoldBalance": summary.ClosingGoldBalance,
		"closingCashBalance": summary.ClosingCashBalance,
	}
	for key, val := range fields {
		d, err := primitive.ParseDecimal128(val.String())
		if err != nil {
			return fmt.Errorf("encoding summary field %s: %w", key, err)
		}

		set[key] = d
	}

	res, err := s.owners.UpdateOne(ctx, bson.M{"_id": id.String()}, bson.M{"$set": set})
	if err != nil {
		return fmt.Errorf("patching owner summary: %w", err)
	}

	if res.MatchedCount == 0 {
		return owner.ErrNotFound
	}

	return nil
}

// EnsureIndexes backs the contact search.
func EnsureIndexes(ctx context.Context, db *mongo.Database) error {
	_, err := db.Collection(ownersCollection).Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "kind", Value: 1}, {Key: "name", Value: 1}},
	})
	if err != nil {
		return fmt.Errorf("creating owner indexes: %w", err)
	}

	return nil
}

func toDoc(o *owner.Owner) (*ownerDoc, error) {
	doc := &ownerDoc{
		ID:                  o.ID.String(),
		Kind:                string(o.Kind),
		Name:                o.Name,
		Phone:               o.Phone,
		Email:               o.Email,
		Address:             o.Address,
		Notes:               o.Notes,
		Active:              o.Active,
		TotalPcs:            o.Summary.TotalPcs,
		LastTransactionDate: o.Summary.LastTransactionDate,
		CreatedAt:           o.CreatedAt,
		UpdatedAt:           o.UpdatedAt,
	}

	var err error

	if doc.TotalNetWt, err = dec128(o.Summary.TotalNetWt); err != nil {
		return nil, err
	}

	if doc.TotalInchIbr, err = dec128(o.Summary.TotalInchIbr); err != nil {
		return nil, err
	}

	if doc.TotalGold, err = dec128(o.Summary.TotalGold); err != nil {
		return nil, err
	}

	if doc.TotalGoldBarWeight, err = dec128(o.Summary.TotalGoldBarWeight); err != nil {
		return nil, err
	}

	if doc.TotalGoldBarAmount, err = dec128(o.Summary.TotalGoldBarAmount); err != nil {
		return nil, err
	}

	if doc.ClosingGoldBalance, err = dec128(o.Summary.ClosingGoldBalance); err != nil {
		return nil, err
	}

	if doc.ClosingCashBalance, err = dec128(o.Summary.ClosingCashBalance); err != nil {
		return nil, err
	}

	return doc, nil
}

func fromDoc(doc *ownerDoc) (*owner.Owner, error) {
	id, err := uuid.Parse(doc.ID)
	if err != nil {
		return nil, fmt.Errorf("parsing owner id %q: %w", doc.ID, err)
	}

	o := &owner.Owner{
		ID:      id,
		Kind:    owner.Kind(doc.Kind),
		Name:    doc.Name,
		Phone:   doc.Phone,
		Email:   doc.Email,
		Address: doc.Address,
		Notes:   doc.Notes,
		Active:  doc.Active,
		Summary: ledger.Summary{
			TotalPcs:            doc.TotalPcs,
			LastTransactionDate: doc.LastTransactionDate,
		},
		CreatedAt: doc.CreatedAt,
		UpdatedAt: doc.UpdatedAt,
	}

	if o.Summary.TotalNetWt, err = dec(doc.TotalNetWt); err != nil {
		return nil, err
	}

	if o.Summary.TotalInchIbr, err = dec(doc.TotalInchIbr); err != nil {
		return nil, err
	}

	if o.Summary.TotalGold, err = dec(doc.TotalGold); err != nil {
		return nil, err
	}

	if o.Summary.TotalGoldBarWeight, err = dec(doc.TotalGoldBarWeight); err != nil {
		return nil, err
	}

	if o.Summary.TotalGoldBarAmount, err = dec(doc.TotalGoldBarAmount); err != nil {
		return nil, err
	}

	if o.Summary.ClosingGoldBalance, err = dec(doc.ClosingGoldBalance); err != nil {
		return nil, err
	}

	if o.Summary.ClosingCashBalance, err = dec(doc.ClosingCashBalance); err != nil {
		return nil, err
	}

	return o, nil
}

func dec128(d decimal.Decimal) (primitive.Decimal128, error) {
	v, err := primitive.ParseDecimal128(d.String())
	if err != nil {
		return primitive.Decimal128{}, fmt.Errorf("encoding decimal %s: %w", d, err)
	}

	return v, nil
}

func dec(d primitive.Decimal128) (decimal.Decimal, error) {
	v, err := decimal.NewFromString(d.String())
	if err != nil {
		return decimal.Decimal{}, fmt.Errorf("decoding decimal %s: %w", d, err)
	}

	return v, nil
}

var _ owner.Repository = (*Store)(nil)
var _ ledger.OwnerRepository = (*Store)(nil)
