// Package link manages linked-institution credentials
package link

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/networth-app/networth/internal/common"
	"github.com/networth-app/networth/internal/interfaces"
	"github.com/networth-app/networth/internal/models"
)

// Service implements LinkService
type Service struct {
	storage  interfaces.StorageManager
	provider interfaces.ProviderClient
	logger   *common.Logger
}

// NewService creates a new link service
func NewService(storage interfaces.StorageManager, provider interfaces.ProviderClient, logger *common.Logger) *Service {
	return &Service{
		storage:  storage,
		provider: provider,
		logger:   logger,
	}
}

// CreateLinkToken starts the provider link flow.
func (s *Service) CreateLinkToken(ctx context.Context) (string, error) {
	token, err := s.provider.CreateLinkToken(ctx)
	if err != nil {
		return "", fmt.Errorf("failed to create link token: %w", err)
	}
	return token, nil
}

// LinkInstitution exchanges a public token for a permanent access secret
// and persists the credential. The institution's display name is resolved
// and cached on the record so a later reauth failure can still present it.
func (s *Service) LinkInstitution(ctx context.Context, ownerID, publicToken string) (*models.LinkedInstitution, error) {
	exchange, err := s.provider.ExchangePublicToken(ctx, publicToken)
	if err != nil {
		return nil, fmt.Errorf("failed to exchange public token: %w", err)
	}

	inst := &models.LinkedInstitution{
		ID:           uuid.New().String(),
		OwnerID:      ownerID,
		AccessSecret: exchange.AccessToken,
		ItemID:       exchange.ItemID,
		CreatedAt:    time.Now().UTC(),
	}

	inst.InstitutionName = s.resolveName(ctx, exchange.AccessToken)

	if err := s.storage.InstitutionStore().SaveInstitution(ctx, inst); err != nil {
		return nil, fmt.Errorf("failed to save linked institution: %w", err)
	}

	s.logger.Info().
		Str("id", inst.ID).
		Str("owner", ownerID).
		Str("institution", inst.InstitutionName).
		Msg("Institution linked")

	return inst, nil
}

// RotateSecret replaces the stored access secret after the user completed
// the re-authentication flow. The record keeps its id and item id; the
// secret is rotated in place, never appended.
func (s *Service) RotateSecret(ctx context.Context, institutionID, publicToken string) (*models.LinkedInstitution, error) {
	inst, err := s.storage.InstitutionStore().GetInstitution(ctx, institutionID)
	if err != nil {
		return nil, fmt.Errorf("failed to load institution: %w", err)
	}

	exchange, err := s.provider.ExchangePublicToken(ctx, publicToken)
	if err != nil {
		return nil, fmt.Errorf("failed to exchange public token: %w", err)
	}

	inst.AccessSecret = exchange.AccessToken
	if name := s.resolveName(ctx, exchange.AccessToken); name != "" {
		inst.InstitutionName = name
	}

	if err := s.storage.InstitutionStore().SaveInstitution(ctx, inst); err != nil {
		return nil, fmt.Errorf("failed to save rotated secret: %w", err)
	}

	s.logger.Info().Str("id", inst.ID).Msg("Access secret rotated")

	return inst, nil
}

// Unlink deletes the credential.
func (s *Service) Unlink(ctx context.Context, institutionID string) error {
	if err := s.storage.InstitutionStore().DeleteInstitution(ctx, institutionID); err != nil {
		return fmt.Errorf("failed to unlink institution: %w", err)
	}
	s.logger.Info().Str("id", institutionID).Msg("Institution unlinked")
	return nil
}

// resolveName looks up the institution's display name for caching. Best
// effort: a failure here never blocks linking.
func (s *Service) resolveName(ctx context.Context, accessSecret string) string {
	institutionID, err := s.provider.GetItemInstitution(ctx, accessSecret)
	if err != nil {
		s.logger.Warn().Err(err).Msg("Could not resolve item institution for name cache")
		return ""
	}
	meta, err := s.provider.GetInstitution(ctx, institutionID)
	if err != nil {
		s.logger.Warn().Err(err).Msg("Could not fetch institution metadata for name cache")
		return ""
	}
	return meta.Name
}

// Ensure Service implements LinkService
var _ interfaces.LinkService = (*Service)(nil)
