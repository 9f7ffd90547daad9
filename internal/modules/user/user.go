package user

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// User is a registered customer account.
type User struct {
	ID           uuid.UUID `json:"id"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	FirstName    string    `json:"first_name,omitempty"`
	LastName     string    `json:"last_name,omitempty"`
	Phone        string    `json:"phone,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// Repository defines data access for users.
type Repository interface {
	CreateUser(ctx context.Context, user *User) error
	GetUserByEmail(ctx context.Context, email string) (*User, error)
	GetUserByID(ctx context.Context, id string) (*User, error)
	UpdateProfile(ctx context.Context, id string, firstName, lastName, phone string) error
}

// Service defines the interface for user-related business logic.
type Service interface {
	RegisterUser(ctx context.Context, email, password, firstName, lastName string) (*User, error)
	GetUser(ctx context.Context, id string) (*User, error)
	UpdateProfile(ctx context.Context, id string, firstName, lastName, phone string) (*User, error)
}
