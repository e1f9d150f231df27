// Package storage wires the storage areas behind the StorageManager interface.
package storage

import (
	"fmt"

	"github.com/networth-app/networth/internal/common"
	"github.com/networth-app/networth/internal/interfaces"
	"github.com/networth-app/networth/internal/storage/badger"
)

// Manager implements interfaces.StorageManager over a single BadgerHold
// store.
type Manager struct {
	store        *badger.Store
	institutions interfaces.InstitutionStore
	users        interfaces.UserStore
}

// NewManager opens the store and initializes the storage areas. The cipher
// key encrypts linked-institution access secrets at rest.
func NewManager(logger *common.Logger, config *common.Config) (*Manager, error) {
	cipher, err := common.NewCipher(config.Storage.CipherKey)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize secret cipher: %w", err)
	}

	store, err := badger.NewStore(logger, config.Storage.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to open storage: %w", err)
	}

	return &Manager{
		store:        store,
		institutions: badger.NewInstitutionStorage(store, cipher, logger),
		users:        badger.NewUserStorage(store, logger),
	}, nil
}

// InstitutionStore returns the linked-institution storage area.
func (m *Manager) InstitutionStore() interfaces.InstitutionStore {
	return m.institutions
}

// UserStore returns the user storage area.
func (m *Manager) UserStore() interfaces.UserStore {
	return m.users
}

// Close closes the underlying store.
func (m *Manager) Close() error {
	return m.store.Close()
}

// Ensure Manager implements StorageManager
var _ interfaces.StorageManager = (*Manager)(nil)
