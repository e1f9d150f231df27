// Package models defines the data structures for the networth server
package models

import "time"

// LinkedInstitution is a stored credential granting access to one external
// financial institution through the data provider. The AccessSecret is
// encrypted before it reaches storage and must never be logged.
type LinkedInstitution struct {
	ID              string    `json:"id" badgerhold:"key"`
	OwnerID         string    `json:"owner"`
	AccessSecret    string    `json:"accessToken"`
	ItemID          string    `json:"itemId" badgerhold:"unique"`
	InstitutionName string    `json:"institutionName,omitempty"`
	CreatedAt       time.Time `json:"createdAt"`
}

// AccountType is the closed set of account categories the provider reports.
type AccountType string

const (
	AccountTypeDepository AccountType = "depository"
	AccountTypeCredit     AccountType = "credit"
	AccountTypeLoan       AccountType = "loan"
	AccountTypeInvestment AccountType = "investment"
)

// IsAsset reports whether balances of this account type add to net worth.
// Credit and loan accounts are liabilities and subtract from it.
func (t AccountType) IsAsset() bool {
	switch t {
	case AccountTypeDepository, AccountTypeInvestment:
		return true
	case AccountTypeCredit, AccountTypeLoan:
		return false
	}
	return false
}

// Valid reports whether t is one of the known account types.
func (t AccountType) Valid() bool {
	switch t {
	case AccountTypeDepository, AccountTypeCredit, AccountTypeLoan, AccountTypeInvestment:
		return true
	}
	return false
}

// Transaction is one provider transaction, ordinary or investment.
// Amount is signed per the provider's convention. Date is "YYYY-MM-DD".
type Transaction struct {
	AccountID string  `json:"accountId"`
	Amount    float64 `json:"amount"`
	Date      string  `json:"date"`
}

// Account is one account at a linked institution, rebuilt on every
// aggregation call together with its transaction ledger.
type Account struct {
	AccountID      string        `json:"accountId"`
	Name           string        `json:"name"`
	Type           AccountType   `json:"type"`
	CurrentBalance float64       `json:"currentBalance"`
	Transactions   []Transaction `json:"transactions"`
}

// ErrorReauthRequired is the per-institution failure tag surfaced to
// callers when the stored credential is stale and the user must
// re-authenticate with the institution.
const ErrorReauthRequired = "ITEM_LOGIN_REQUIRED"

// InstitutionOverview is the aggregation result for one linked institution.
// Error is empty on success, or a classified per-institution failure tag
// (ErrorReauthRequired) with an empty account list.
type InstitutionOverview struct {
	Name          string    `json:"name"`
	InstitutionID string    `json:"institutionId"`
	ItemID        string    `json:"itemId"`
	Accounts      []Account `json:"accounts"`
	Error         string    `json:"error,omitempty"`
}

// NetWorthPoint is one date in the reconstructed net-worth history.
// EpochTimestamp is the UTC-midnight epoch millisecond timestamp of Date.
type NetWorthPoint struct {
	Date           string  `json:"date"`
	Value          float64 `json:"value"`
	EpochTimestamp int64   `json:"epochTimestamp"`
}

// PortfolioOverview is the full aggregation response for one user. It is
// recomputed on every request, never persisted.
type PortfolioOverview struct {
	Institutions []InstitutionOverview `json:"institutions"`
	NetWorths    []NetWorthPoint       `json:"netWorths"`
}
