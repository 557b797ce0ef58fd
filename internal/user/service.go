package user

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

type Repository interface {
	Insert(ctx context.Context, u *User) error
	Get(ctx context.Context, id uuid.UUID) (*User, error)
	GetByEmail(ctx context.Context, email string) (*User, error)
	List(ctx context.Context) ([]*User, error)
	Update(ctx context.Context, u *User) error
	Delete(ctx context.Context, id uuid.UUID) error
}

type Service struct {
	repo       Repository
	bcryptCost int
	validate   *validator.Validate
}

func NewService(repo Repository, bcryptCost int) *Service {
	if bcryptCost == 0 {
		bcryptCost = bcrypt.DefaultCost
	}

	return &Service{repo: repo, bcryptCost: bcryptCost, validate: validator.New()}
}

type CreateParams struct {
	Name        string `validate:"required"`
	Email       string `validate:"required,email"`
	Phone       string
	Password    string `validate:"required,min=8"`
	Permissions Permissions
}

func (s *Service) Create(ctx context.Context, params CreateParams) (*User, error) {
	if err := s.validate.Struct(params); err != nil {
		return nil, fmt.Errorf("validating user: %w", err)
	}

	if _, err := s.repo.GetByEmail(ctx, params.Email); err == nil {
		return nil, ErrEmailTaken
	} else if !errors.Is(err, ErrNotFound) {
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(params.Password), s.bcryptCost)
	if err != nil {
		return nil, fmt.Errorf("hashing password: %w", err)
	}

	u := &User{
		ID:           uuid.New(),
		Name:         params.Name,
		Email:        params.Email,
		Phone:        params.Phone,
		PasswordHash: string(hash),
		Role:         "admin",
		Permissions:  params.Permissions,
		CreatedAt:    time.Now(),
	}

	if err := s.repo.Insert(ctx, u); err != nil {
		return nil, err
	}

	return u, nil
}

// Authenticate checks the credentials and returns the matching account.
// Unknown email and wrong password collapse into the same error so the login
// response does not leak which one was wrong.
func (s *Service) Authenticate(ctx context.Context, email, password string) (*User, error) {
	u, err := s.repo.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, ErrInvalidCredentials
		}

		return nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	return u, nil
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*User, error) {
	return s.repo.Get(ctx, id)
}

func (s *Service) List(ctx context.Context) ([]*User, error) {
	return s.repo.List(ctx)
}

type UpdateParams struct {
	Name        *string
	Phone       *string
	Password    *string
	Permissions *Permissions
}

func (s *Service) Update(ctx context.Context, id uuid.UUID, patch UpdateParams) (*User, error) {
	u, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if patch.Name != nil {
		u.Name = *patch.Name
	}

	if patch.Phone != nil {
		u.Phone = *patch.Phone
	}

	if patch.Password != nil {
		hash, err := bcrypt.GenerateFromPassword([]byte(*patch.Password), s.bcryptCost)
		if err != nil {
			return nil, fmt.Errorf("hashing password: %w", err)
		}

		u.PasswordHash = string(hash)
	}

	if patch.Permissions != nil {
		u.Permissions = *patch.Permissions
	}

	now := time.Now()
	u.UpdatedAt = &now

	if err := s.repo.Update(ctx, u); err != nil {
		return nil, err
	}

	return u, nil
}

func (s *Service) Delete(ctx context.Context, id uuid.UUID) error {
	return s.repo.Delete(ctx, id)
}
