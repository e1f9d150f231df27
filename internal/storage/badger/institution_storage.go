package badger

import (
	"context"
	"fmt"

	"github.com/networth-app/networth/internal/common"
	"github.com/networth-app/networth/internal/models"
	"github.com/timshannon/badgerhold/v4"
)

type institutionStorage struct {
	store  *Store
	cipher *common.Cipher
	logger *common.Logger
}

// NewInstitutionStorage creates an InstitutionStore backed by BadgerHold.
// Access secrets pass through the cipher on the way in and out; the
// plaintext secret never reaches disk.
func NewInstitutionStorage(store *Store, cipher *common.Cipher, logger *common.Logger) *institutionStorage {
	return &institutionStorage{store: store, cipher: cipher, logger: logger}
}

func (s *institutionStorage) SaveInstitution(_ context.Context, inst *models.LinkedInstitution) error {
	encrypted, err := s.cipher.Encrypt(inst.AccessSecret)
	if err != nil {
		return fmt.Errorf("failed to encrypt access secret: %w", err)
	}

	record := *inst
	record.AccessSecret = encrypted

	if err := s.store.db.Upsert(record.ID, &record); err != nil {
		return fmt.Errorf("failed to save institution: %w", err)
	}
	s.logger.Debug().Str("id", inst.ID).Msg("Institution saved")
	return nil
}

func (s *institutionStorage) GetInstitution(_ context.Context, id string) (*models.LinkedInstitution, error) {
	var inst models.LinkedInstitution
	err := s.store.db.Get(id, &inst)
	if err != nil {
		if err == badgerhold.ErrNotFound {
			return nil, fmt.Errorf("institution '%s' not found", id)
		}
		return nil, fmt.Errorf("failed to get institution '%s': %w", id, err)
	}

	secret, err := s.cipher.Decrypt(inst.AccessSecret)
	if err != nil {
		return nil, fmt.Errorf("failed to decrypt access secret for '%s': %w", id, err)
	}
	inst.AccessSecret = secret

	return &inst, nil
}

func (s *institutionStorage) GetInstitutionsByOwner(_ context.Context, ownerID string) ([]*models.LinkedInstitution, error) {
	var records []models.LinkedInstitution
	if err := s.store.db.Find(&records, badgerhold.Where("OwnerID").Eq(ownerID)); err != nil {
		return nil, fmt.Errorf("failed to list institutions for owner '%s': %w", ownerID, err)
	}

	institutions := make([]*models.LinkedInstitution, len(records))
	for i := range records {
		secret, err := s.cipher.Decrypt(records[i].AccessSecret)
		if err != nil {
			return nil, fmt.Errorf("failed to decrypt access secret for '%s': %w", records[i].ID, err)
		}
		records[i].AccessSecret = secret
		institutions[i] = &records[i]
	}
	return institutions, nil
}

func (s *institutionStorage) DeleteInstitution(_ context.Context, id string) error {
	err := s.store.db.Delete(id, models.LinkedInstitution{})
	if err != nil && err != badgerhold.ErrNotFound {
		return fmt.Errorf("failed to delete institution '%s': %w", id, err)
	}
	s.logger.Debug().Str("id", id).Msg("Institution deleted")
	return nil
}
