package badger

import (
	"context"
	"fmt"

	"github.com/networth-app/networth/internal/common"
	"github.com/networth-app/networth/internal/models"
	"github.com/timshannon/badgerhold/v4"
)

type userStorage struct {
	store  *Store
	logger *common.Logger
}

// NewUserStorage creates a UserStore backed by BadgerHold.
func NewUserStorage(store *Store, logger *common.Logger) *userStorage {
	return &userStorage{store: store, logger: logger}
}

func (s *userStorage) SaveUser(_ context.Context, user *models.User) error {
	if err := s.store.db.Upsert(user.ID, user); err != nil {
		return fmt.Errorf("failed to save user: %w", err)
	}
	s.logger.Debug().Str("id", user.ID).Msg("User saved")
	return nil
}

func (s *userStorage) GetUser(_ context.Context, id string) (*models.User, error) {
	var user models.User
	err := s.store.db.Get(id, &user)
	if err != nil {
		if err == badgerhold.ErrNotFound {
			return nil, fmt.Errorf("user '%s' not found", id)
		}
		return nil, fmt.Errorf("failed to get user '%s': %w", id, err)
	}
	return &user, nil
}

func (s *userStorage) GetUserByEmail(_ context.Context, email string) (*models.User, error) {
	var users []models.User
	if err := s.store.db.Find(&users, badgerhold.Where("Email").Eq(email)); err != nil {
		return nil, fmt.Errorf("failed to find user by email: %w", err)
	}
	if len(users) == 0 {
		return nil, fmt.Errorf("user with email '%s' not found", email)
	}
	return &users[0], nil
}

func (s *userStorage) DeleteUser(_ context.Context, id string) error {
	err := s.store.db.Delete(id, models.User{})
	if err != nil && err != badgerhold.ErrNotFound {
		return fmt.Errorf("failed to delete user '%s': %w", id, err)
	}
	s.logger.Debug().Str("id", id).Msg("User deleted")
	return nil
}
