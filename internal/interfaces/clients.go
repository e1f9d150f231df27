// Package interfaces defines service contracts for the networth server
package interfaces

import (
	"context"

	"github.com/networth-app/networth/internal/models"
)

// ProviderClient provides access to the external financial-data provider.
// All methods return *models.ProviderError for provider-reported failures,
// classified at this boundary; callers switch on the error kind only.
type ProviderClient interface {
	// CreateLinkToken creates a short-lived token for the link flow.
	CreateLinkToken(ctx context.Context) (string, error)

	// ExchangePublicToken exchanges a link public token for a permanent
	// access secret and the provider's item id.
	ExchangePublicToken(ctx context.Context, publicToken string) (*models.TokenExchange, error)

	// GetItemInstitution resolves the provider institution id behind an
	// access secret.
	GetItemInstitution(ctx context.Context, accessSecret string) (string, error)

	// GetInstitution retrieves display metadata for an institution.
	GetInstitution(ctx context.Context, institutionID string) (*models.ProviderInstitution, error)

	// GetTransactions retrieves one page of transactions plus the account
	// list for the item. startDate and endDate are "YYYY-MM-DD".
	GetTransactions(ctx context.Context, accessSecret, startDate, endDate string, offset, count int) (*models.TransactionPage, error)

	// GetInvestmentTransactions retrieves one page of investment
	// transactions.
	GetInvestmentTransactions(ctx context.Context, accessSecret, startDate, endDate string, offset, count int) (*models.InvestmentTransactionPage, error)
}
