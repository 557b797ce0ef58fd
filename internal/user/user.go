package user

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

var (
	ErrNotFound           = errors.New("user not found")
	ErrEmailTaken         = errors.New("email already registered")
	ErrInvalidCredentials = errors.New("invalid email or password")
)

// User is a back-office admin account. Only admins log in; clients and
// employees are tracked as owners and have no credentials.
type User struct {
	ID           uuid.UUID
	Name         string
	Email        string
	Phone        string
	PasswordHash string
	Role         string
	Permissions  Permissions
	CreatedAt    time.Time
	UpdatedAt    *time.Time
}

// Permissions are the per-account capability flags checked by the HTTP layer.
type Permissions struct {
	CanCreate  bool `json:"can_create"`
	CanEdit    bool `json:"can_edit"`
	CanDelete  bool `json:"can_delete"`
	CanViewAll bool `json:"can_view_all"`
}
