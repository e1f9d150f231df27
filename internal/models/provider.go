package models

import (
	"errors"
	"fmt"
)

// ProviderErrorKind classifies provider failures at the client boundary so
// the layers above never inspect provider-specific error shapes.
type ProviderErrorKind string

const (
	// ErrorKindNotReady means the provider is still preparing the
	// requested data; retry the same page after a short delay.
	ErrorKindNotReady ProviderErrorKind = "not_ready"

	// ErrorKindReauth means the stored credential is stale. The
	// institution is skipped; the rest of the overview proceeds.
	ErrorKindReauth ProviderErrorKind = "reauth"

	// ErrorKindUnavailable means readiness retries were exhausted
	// (only produced when a retry cap is configured).
	ErrorKindUnavailable ProviderErrorKind = "unavailable"

	// ErrorKindUnclassified covers everything else and aborts the
	// entire aggregation call.
	ErrorKindUnclassified ProviderErrorKind = "unclassified"
)

// ProviderError is a classified failure from the financial-data provider.
type ProviderError struct {
	Kind       ProviderErrorKind
	Code       string // provider error_code, e.g. "ITEM_LOGIN_REQUIRED"
	StatusCode int
	Message    string
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("provider error: %s (kind: %s, status: %d)", e.Code, e.Kind, e.StatusCode)
}

// IsProviderErrorKind reports whether err is, or wraps, a *ProviderError of
// the given kind.
func IsProviderErrorKind(err error, kind ProviderErrorKind) bool {
	var pe *ProviderError
	return errors.As(err, &pe) && pe.Kind == kind
}

// TokenExchange is the result of exchanging a public token for a
// permanent access secret.
type TokenExchange struct {
	AccessToken string `json:"access_token"`
	ItemID      string `json:"item_id"`
}

// ProviderInstitution is the provider's metadata for one institution.
type ProviderInstitution struct {
	Name     string   `json:"name"`
	Products []string `json:"products"`
}

// ProductInvestments is the provider product name for investment data.
const ProductInvestments = "investments"

// SupportsInvestments reports whether the institution exposes
// investment transactions.
func (i *ProviderInstitution) SupportsInvestments() bool {
	for _, p := range i.Products {
		if p == ProductInvestments {
			return true
		}
	}
	return false
}

// TransactionPage is one page of ordinary transactions. Accounts ride
// along with every page; Total is the provider's full count for the
// requested date range.
type TransactionPage struct {
	Accounts     []Account
	Transactions []Transaction
	Total        int
}

// InvestmentTransactionPage is one page of investment transactions.
type InvestmentTransactionPage struct {
	Transactions []Transaction
	Total        int
}
