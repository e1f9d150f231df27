package server

import (
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/networth-app/networth/internal/models"
)

func TestOverviewRequiresAuth(t *testing.T) {
	h := newTestServer(t)

	rec := h.do(t, http.MethodGet, "/api/overview", "", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestOverviewReturnsAggregation(t *testing.T) {
	h := newTestServer(t)
	user, token := h.createUser(t, "alex@example.com", "user")

	h.overview.overview = &models.PortfolioOverview{
		Institutions: []models.InstitutionOverview{
			{
				Name:          "First Bank",
				InstitutionID: "b1",
				ItemID:        "item-1",
				Accounts: []models.Account{{
					AccountID:      "a1",
					Name:           "Checking",
					Type:           models.AccountTypeDepository,
					CurrentBalance: 100,
					Transactions:   []models.Transaction{},
				}},
			},
			{
				Name:          "Stale Bank",
				InstitutionID: "b2",
				ItemID:        "item-2",
				Accounts:      []models.Account{},
				Error:         models.ErrorReauthRequired,
			},
		},
		NetWorths: []models.NetWorthPoint{
			{Date: "2026-08-28", Value: 100, EpochTimestamp: 1787875200000},
		},
	}

	rec := h.do(t, http.MethodGet, "/api/overview", token, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, user.ID, h.overview.lastUser, "overview is scoped to the caller")

	var resp struct {
		Institutions []map[string]interface{} `json:"institutions"`
		NetWorths    []map[string]interface{} `json:"netWorths"`
	}
	decodeBody(t, rec, &resp)

	require.Len(t, resp.Institutions, 2)
	assert.Equal(t, "First Bank", resp.Institutions[0]["name"])
	assert.Nil(t, resp.Institutions[0]["error"], "successful institutions omit the error field")
	assert.Equal(t, models.ErrorReauthRequired, resp.Institutions[1]["error"])

	require.Len(t, resp.NetWorths, 1)
	assert.Equal(t, float64(100), resp.NetWorths[0]["value"])
	assert.Equal(t, float64(1787875200000), resp.NetWorths[0]["epochTimestamp"])
}

func TestOverviewAggregationFailure(t *testing.T) {
	h := newTestServer(t)
	_, token := h.createUser(t, "alex@example.com", "user")

	h.overview.err = errors.New("provider exploded")

	rec := h.do(t, http.MethodGet, "/api/overview", token, nil)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestOverviewMethodNotAllowed(t *testing.T) {
	h := newTestServer(t)
	_, token := h.createUser(t, "alex@example.com", "user")

	rec := h.do(t, http.MethodPost, "/api/overview", token, nil)
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}
