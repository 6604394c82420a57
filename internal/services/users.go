package services

import (
	"context"
	"errors"
	"fmt"

	"mailbox-server/internal/models"
	"mailbox-server/internal/store"
)

// UserService exposes read access to the user directory.
type UserService struct {
	users store.Users
}

// NewUserService creates a UserService.
func NewUserService(users store.Users) *UserService {
	return &UserService{users: users}
}

// GetByID returns the user or ErrNotFound.
func (s *UserService) GetByID(ctx context.Context, id uint) (*models.User, error) {
	return lookupUser(ctx, s.users, id)
}

// GetByUsername returns the user or ErrNotFound.
func (s *UserService) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	user, err := s.users.GetByUsername(ctx, username)
	if errors.Is(err, store.ErrNotFound) {
		return nil, fmt.Errorf("user %q: %w", username, ErrNotFound)
	}
	return user, err
}

// ListAll returns every user. Not paginated.
func (s *UserService) ListAll(ctx context.Context) ([]models.User, error) {
	return s.users.List(ctx)
}

func lookupUser(ctx context.Context, users store.Users, id uint) (*models.User, error) {
	user, err := users.GetByID(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		return nil, fmt.Errorf("user %d: %w", id, ErrNotFound)
	}
	return user, err
}
