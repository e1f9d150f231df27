package interfaces

import (
	"context"

	"github.com/networth-app/networth/internal/models"
)

// OverviewService aggregates a user's linked institutions into a
// consolidated financial overview with a net-worth history.
type OverviewService interface {
	// GetOverview aggregates every institution linked by the user. It
	// fails only on unclassified provider errors; per-institution reauth
	// failures are reported inside the overview.
	GetOverview(ctx context.Context, userID string) (*models.PortfolioOverview, error)
}

// LinkService manages linked-institution credentials.
type LinkService interface {
	// CreateLinkToken starts the provider link flow.
	CreateLinkToken(ctx context.Context) (string, error)

	// LinkInstitution exchanges a public token and persists the resulting
	// credential for the owner. Returns the stored record.
	LinkInstitution(ctx context.Context, ownerID, publicToken string) (*models.LinkedInstitution, error)

	// RotateSecret replaces the stored access secret after the user
	// re-authenticates. The record keeps its id and item id.
	RotateSecret(ctx context.Context, institutionID, publicToken string) (*models.LinkedInstitution, error)

	// Unlink deletes the credential.
	Unlink(ctx context.Context, institutionID string) error
}
