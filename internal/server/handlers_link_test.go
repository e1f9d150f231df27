package server

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/networth-app/networth/internal/models"
)

func TestCreateLinkToken(t *testing.T) {
	h := newTestServer(t)
	_, token := h.createUser(t, "alex@example.com", "user")

	rec := h.do(t, http.MethodPost, "/api/create_link_token", token, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var resp map[string]interface{}
	decodeBody(t, rec, &resp)
	assert.Equal(t, "link-sandbox-token", resp["link_token"])
}

func TestCreateLinkTokenRequiresAuth(t *testing.T) {
	h := newTestServer(t)

	rec := h.do(t, http.MethodPost, "/api/create_link_token", "", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestCreateLinkTokenProviderFailure(t *testing.T) {
	h := newTestServer(t)
	_, token := h.createUser(t, "alex@example.com", "user")
	h.link.err = &models.ProviderError{Kind: models.ErrorKindUnclassified, Code: "INTERNAL_SERVER_ERROR"}

	rec := h.do(t, http.MethodPost, "/api/create_link_token", token, nil)
	assert.Equal(t, http.StatusBadGateway, rec.Code)
}

func TestExchangeTokenSavesBank(t *testing.T) {
	h := newTestServer(t)
	user, token := h.createUser(t, "alex@example.com", "user")

	rec := h.do(t, http.MethodPost, "/api/exchange_token_and_save_bank", token, map[string]string{
		"public_token": "public-abc",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var resp map[string]interface{}
	decodeBody(t, rec, &resp)
	assert.Equal(t, user.ID, resp["owner"])
	assert.Equal(t, "item-public-abc", resp["itemId"])
	assert.NotContains(t, rec.Body.String(), "access-public-abc", "the exchanged secret stays server-side")

	banks := h.do(t, http.MethodGet, "/api/banks", token, nil)
	var list []map[string]interface{}
	decodeBody(t, banks, &list)
	assert.Len(t, list, 1)
}

func TestExchangeTokenValidation(t *testing.T) {
	h := newTestServer(t)
	_, token := h.createUser(t, "alex@example.com", "user")

	rec := h.do(t, http.MethodPost, "/api/exchange_token_and_save_bank", token, map[string]string{})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = h.do(t, http.MethodPost, "/api/exchange_token_and_save_bank", "", map[string]string{
		"public_token": "public-abc",
	})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}
