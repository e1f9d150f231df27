package overview

import (
	"context"
	"fmt"

	"github.com/networth-app/networth/internal/models"
)

// aggregateInstitution builds the overview for one linked institution:
// resolve its provider identity, fetch every transaction page (accounts
// ride along with the first page), conditionally fetch investment
// transactions, and partition the merged feed into per-account ledgers.
//
// A reauth failure at any step is recoverable for the institution alone:
// the result carries ErrorReauthRequired and an empty account list, and the
// returned error is nil. Every other provider failure propagates and
// aborts the whole overview call.
func (s *Service) aggregateInstitution(ctx context.Context, inst *models.LinkedInstitution) (*models.InstitutionOverview, error) {
	institutionID, err := s.provider.GetItemInstitution(ctx, inst.AccessSecret)
	if err != nil {
		if models.IsProviderErrorKind(err, models.ErrorKindReauth) {
			s.logger.Info().Str("institution", inst.ID).Msg("Item requires re-authentication")
			return reauthOverview(inst, inst.InstitutionName), nil
		}
		return nil, fmt.Errorf("failed to resolve item institution: %w", err)
	}

	meta, err := s.provider.GetInstitution(ctx, institutionID)
	if err != nil {
		if models.IsProviderErrorKind(err, models.ErrorKindReauth) {
			return reauthOverview(inst, inst.InstitutionName), nil
		}
		return nil, fmt.Errorf("failed to get institution metadata: %w", err)
	}

	startDate, endDate := s.dateRange()

	var accounts []models.Account
	transactions, err := fetchAllPages(ctx, func(ctx context.Context, offset int) ([]models.Transaction, int, error) {
		page, err := s.provider.GetTransactions(ctx, inst.AccessSecret, startDate, endDate, offset, s.pageSize)
		if err != nil {
			return nil, 0, err
		}
		if accounts == nil {
			accounts = page.Accounts
		}
		return page.Transactions, page.Total, nil
	}, s.maxReadyRetries)
	if err != nil {
		if models.IsProviderErrorKind(err, models.ErrorKindReauth) {
			return reauthOverview(inst, meta.Name), nil
		}
		return nil, fmt.Errorf("failed to fetch transactions for %s: %w", meta.Name, err)
	}

	if meta.SupportsInvestments() {
		investments, err := fetchAllPages(ctx, func(ctx context.Context, offset int) ([]models.Transaction, int, error) {
			page, err := s.provider.GetInvestmentTransactions(ctx, inst.AccessSecret, startDate, endDate, offset, s.pageSize)
			if err != nil {
				return nil, 0, err
			}
			return page.Transactions, page.Total, nil
		}, s.maxReadyRetries)
		if err != nil {
			if models.IsProviderErrorKind(err, models.ErrorKindReauth) {
				return reauthOverview(inst, meta.Name), nil
			}
			return nil, fmt.Errorf("failed to fetch investment transactions for %s: %w", meta.Name, err)
		}
		transactions = append(transactions, investments...)
	}

	return &models.InstitutionOverview{
		Name:          meta.Name,
		InstitutionID: inst.ID,
		ItemID:        inst.ItemID,
		Accounts:      partitionByAccount(accounts, transactions),
	}, nil
}

// reauthOverview is the partial result for an institution whose credential
// is stale. The cached display name is used when the provider could not be
// asked for one.
func reauthOverview(inst *models.LinkedInstitution, name string) *models.InstitutionOverview {
	return &models.InstitutionOverview{
		Name:          name,
		InstitutionID: inst.ID,
		ItemID:        inst.ItemID,
		Accounts:      []models.Account{},
		Error:         models.ErrorReauthRequired,
	}
}

// partitionByAccount attaches each transaction to its owning account's
// ledger. Accounts with no transactions keep an empty ledger. Transactions
// for unknown accounts are dropped.
func partitionByAccount(accounts []models.Account, transactions []models.Transaction) []models.Account {
	if accounts == nil {
		return []models.Account{}
	}

	byAccount := make(map[string][]models.Transaction)
	for _, txn := range transactions {
		byAccount[txn.AccountID] = append(byAccount[txn.AccountID], txn)
	}

	result := make([]models.Account, len(accounts))
	for i, acct := range accounts {
		acct.Transactions = byAccount[acct.AccountID]
		if acct.Transactions == nil {
			acct.Transactions = []models.Transaction{}
		}
		result[i] = acct
	}
	return result
}
