package interfaces

import (
	"context"

	"github.com/networth-app/networth/internal/models"
)

// InstitutionStore persists linked-institution credentials. Access secrets
// are encrypted by the store before hitting disk and decrypted on read.
type InstitutionStore interface {
	SaveInstitution(ctx context.Context, inst *models.LinkedInstitution) error
	GetInstitution(ctx context.Context, id string) (*models.LinkedInstitution, error)
	GetInstitutionsByOwner(ctx context.Context, ownerID string) ([]*models.LinkedInstitution, error)
	DeleteInstitution(ctx context.Context, id string) error
}

// UserStore persists registered users.
type UserStore interface {
	SaveUser(ctx context.Context, user *models.User) error
	GetUser(ctx context.Context, id string) (*models.User, error)
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	DeleteUser(ctx context.Context, id string) error
}

// StorageManager owns the storage areas and their shared lifecycle.
type StorageManager interface {
	InstitutionStore() InstitutionStore
	UserStore() UserStore
	Close() error
}
