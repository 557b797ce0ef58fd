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

	"github.com/jswalia/karigar/internal/user"
)

const usersCollection = "users"

type Store struct {
	users *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{users: db.Collection(usersCollection)}
}

type userDoc struct {
	ID           string         `bson:"_id"`
	Name         string         `bson:"name"`
	Email        string         `bson:"email"`
	Phone        string         `bson:"phone,omitempty"`
	PasswordHash string         `bson:"password"`
	Role         string         `bson:"role"`
	Permissions  permissionsDoc `bson:"permissions"`
	CreatedAt    time.Time      `bson:"createdAt"`
	UpdatedAt    *time.Time     `bson:"updatedAt,omitempty"`
}

type permissionsDoc struct {
	CanCreate  bool `bson:"canCreate"`
	CanEdit    bool `bson:"canEdit"`
	CanDelete  bool `bson:"canDelete"`
	CanViewAll bool `bson:"canViewAll"`
}

func (s *Store) Insert(ctx context.Context, u *user.User) error {
	if _, err := s.users.InsertOne(ctx, toDoc(u)); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return user.ErrEmailTaken
		}

		return fmt.Errorf("inserting user: %w", err)
	}

	return nil
}

func (s *Store) Get(ctx context.Context, id uuid.UUID) (*user.User, error) {
	return s.findOne(ctx, bson.M{"_id": id.String()})
}

func (s *Store) GetByEmail(ctx context.Context, email string) (*user.User, error) {
	return s.findOne(ctx, bson.M{"email": email})
}

func (s *Store) findOne(ctx context.Context, filter bson.M) (*user.User, error) {
	var doc userDoc

	err := s.users.FindOne(ctx, filter).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, user.ErrNotFound
		}

		return nil, fmt.Errorf("getting user: %w", err)
	}

	return fromDoc(&doc)
}

func (s *Store) List(ctx context.Context) ([]*user.User, error) {
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}})

	cur, err := s.users.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, fmt.Errorf("listing users: %w", err)
	}
	defer cur.Close(ctx)

	var users []*user.User

	for cur.Next(ctx) {
		var doc userDoc
		if err := cur.Decode(&doc); err != nil {
			return nil, fmt.Errorf("decoding user: %w", err)
		}

		u, err := fromDoc(&doc)
		if err != nil {
			return nil, err
		}

		users = append(users, u)
	}

	if err := cur.Err(); err != nil {
		return nil, fmt.Errorf("iterating users: %w", err)
	}

	return users, nil
}

func (s *Store) Update(ctx context.Context, u *user.User) error {
	res, err := s.users.ReplaceOne(ctx, bson.M{"_id": u.ID.String()}, toDoc(u))
	if err != nil {
		return fmt.Errorf("updating user: %w", err)
	}

	if res.MatchedCount == 0 {
		return user.ErrNotFound
	}

	return nil
}

func (s *Store) Delete(ctx context.Context, id uuid.UUID) error {
	res, err := s.users.DeleteOne(ctx, bson.M{"_id": id.String()})
	if err != nil {
		return fmt.Errorf("deleting user: %w", err)
	}

	if res.DeletedCount == 0 {
		return user.ErrNotFound
	}

	return nil
}

// EnsureIndexes enforces email uniqueness at the store level.
func EnsureIndexes(ctx context.Context, db *mongo.Database) error {
	_, err := db.Collection(usersCollection).Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "email", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	if err != nil {
		return fmt.Errorf("creating user indexes: %w", err)
	}

	return nil
}

func toDoc(u *user.User) *userDoc {
	return &userDoc{
		ID:           u.ID.String(),
		Name:         u.Name,
		Email:        u.Email,
		Phone:        u.Phone,
		PasswordHash: u.PasswordHash,
		Role:         u.Role,
		Permissions: permissionsDoc{
			CanCreate:  u.Permissions.CanCreate,
			CanEdit:    u.Permissions.CanEdit,
			CanDelete:  u.Permissions.CanDelete,
			CanViewAll: u.Permissions.CanViewAll,
		},
		CreatedAt: u.CreatedAt,
		UpdatedAt: u.UpdatedAt,
	}
}

func fromDoc(doc *userDoc) (*user.User, error) {
	id, err := uuid.Parse(doc.ID)
	if err != nil {
		return nil, fmt.Errorf("parsing user id %q: %w", doc.ID, err)
	}

	return &user.User{
		ID:           id,
		Name:         doc.Name,
		Email:        doc.Email,
		Phone:        doc.Phone,
		PasswordHash: doc.PasswordHash,
		Role:         doc.Role,
		Permissions: user.Permissions{
			CanCreate:  doc.Permissions.CanCreate,
			CanEdit:    doc.Permissions.CanEdit,
			CanDelete:  doc.Permissions.CanDelete,
			CanViewAll: doc.Permissions.CanViewAll,
		},
		CreatedAt: doc.CreatedAt,
		UpdatedAt: doc.UpdatedAt,
	}, nil
}

var _ user.Repository = (*Store)(nil)
