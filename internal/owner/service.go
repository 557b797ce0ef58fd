package owner

import (
	"context"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

type Repository interface {
	Insert(ctx context.Context, o *Owner) error
	Get(ctx context.Context, id uuid.UUID) (*Owner, error)
	List(ctx context.Context, filter ListFilter) ([]*Owner, error)
	Update(ctx context.Context, o *Owner) error
	Delete(ctx context.Context, id uuid.UUID) error
}

type Service struct {
	repo     Repository
	validate *validator.Validate
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo, validate: validator.New()}
}

type CreateParams struct {
	Kind    Kind   `validate:"required,oneof=client employee"`
	Name    string `validate:"required"`
	Phone   string `validate:"required"`
	Email   string `validate:"omitempty,email"`
	Address string
	Notes   string
}

// Create inserts a new owner with an empty summary. Totals stay zero until
// the first transaction is recorded against them.
func (s *Service) Create(ctx context.Context, params CreateParams) (*Owner, error) {
	if err := s.validate.Struct(params); err != nil {
		return nil, fmt.Errorf("validating owner: %w", err)
	}

	o := &Owner{
		ID:        uuid.New(),
		Kind:      params.Kind,
		Name:      params.Name,
		Phone:     params.Phone,
		Email:     params.Email,
		Address:   params.Address,
		Notes:     params.Notes,
		Active:    true,
		CreatedAt: time.Now(),
	}

	if err := s.repo.Insert(ctx, o); err != nil {
		return nil, err
	}

	return o, nil
}

type ListFilter struct {
	// Search matches name, phone or email, case-insensitive.
	Search string
	Kind   *Kind
}

func (s *Service) List(ctx context.Context, filter ListFilter) ([]*Owner, error) {
	return s.repo.List(ctx, filter)
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*Owner, error) {
	return s.repo.Get(ctx, id)
}

type UpdateParams struct {
	Name    *string
	Phone   *string
	Email   *string
	Address *string
	Notes   *string
	Active  *bool
}

// Update patches contact fields only; the derived summary is never touched
// here.
func (s *Service) Update(ctx context.Context, id uuid.UUID, patch UpdateParams) (*Owner, error) {
	o, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if patch.Name != nil {
		o.Name = *patch.Name
	}

	if patch.Phone != nil {
		o.Phone = *patch.Phone
	}

	if patch.Email != nil {
		o.Email = *patch.Email
	}

	if patch.Address != nil {
		o.Address = *patch.Address
	}

	if patch.Notes != nil {
		o.Notes = *patch.Notes
	}

	if patch.Active != nil {
		o.Active = *patch.Active
	}

	now := time.Now()
	o.UpdatedAt = &now

	if err := s.repo.Update(ctx, o); err != nil {
		return nil, err
	}

	return o, nil
}

func (s *Service) Delete(ctx context.Context, id uuid.UUID) error {
	return s.repo.Delete(ctx, id)
}
