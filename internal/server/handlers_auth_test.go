package server

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUserCreateAndLogin(t *testing.T) {
	h := newTestServer(t)

	rec := h.do(t, http.MethodPost, "/api/users", "", map[string]string{
		"email":    "Alex@Example.com",
		"password": "password123",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var created map[string]interface{}
	decodeBody(t, rec, &created)
	assert.Equal(t, "alex@example.com", created["email"], "email is normalized")
	assert.Equal(t, "user", created["role"])
	assert.NotEmpty(t, created["id"])
	assert.NotContains(t, rec.Body.String(), "password")

	rec = h.do(t, http.MethodPost, "/api/auth/login", "", map[string]string{
		"email":    "alex@example.com",
		"password": "password123",
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var login map[string]interface{}
	decodeBody(t, rec, &login)
	assert.NotEmpty(t, login["access_token"])
	assert.Equal(t, "Bearer", login["token_type"])

	// The issued token must authenticate subsequent requests.
	rec = h.do(t, http.MethodGet, "/api/overview", login["access_token"].(string), nil)
	assert.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
}

func TestUserCreateValidation(t *testing.T) {
	h := newTestServer(t)

	rec := h.do(t, http.MethodPost, "/api/users", "", map[string]string{
		"email":    "not-an-email",
		"password": "password123",
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = h.do(t, http.MethodPost, "/api/users", "", map[string]string{
		"email":    "short@example.com",
		"password": "short",
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestUserCreateDuplicateEmail(t *testing.T) {
	h := newTestServer(t)
	h.createUser(t, "taken@example.com", "user")

	rec := h.do(t, http.MethodPost, "/api/users", "", map[string]string{
		"email":    "taken@example.com",
		"password": "password123",
	})
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestLoginRejectsBadCredentials(t *testing.T) {
	h := newTestServer(t)
	h.createUser(t, "alex@example.com", "user")

	rec := h.do(t, http.MethodPost, "/api/auth/login", "", map[string]string{
		"email":    "alex@example.com",
		"password": "wrong-password",
	})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = h.do(t, http.MethodPost, "/api/auth/login", "", map[string]string{
		"email":    "nobody@example.com",
		"password": "password123",
	})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestBearerTokenValidation(t *testing.T) {
	h := newTestServer(t)

	rec := h.do(t, http.MethodGet, "/api/overview", "garbage-token", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "Bearer", rec.Header().Get("WWW-Authenticate"))

	// A token signed for a deleted user is rejected.
	user, token := h.createUser(t, "gone@example.com", "user")
	require.NoError(t, h.storage.users.DeleteUser(context.Background(), user.ID))
	rec = h.do(t, http.MethodGet, "/api/overview", token, nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}
