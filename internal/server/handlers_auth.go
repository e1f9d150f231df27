package server

import (
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/networth-app/networth/internal/models"
)

type userCreateRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type userResponse struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	Role      string    `json:"role"`
	CreatedAt time.Time `json:"createdAt"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginResponse struct {
	AccessToken string       `json:"access_token"`
	TokenType   string       `json:"token_type"`
	ExpiresIn   int64        `json:"expires_in"`
	User        userResponse `json:"user"`
}

func toUserResponse(u *models.User) userResponse {
	return userResponse{
		ID:        u.ID,
		Email:     u.Email,
		Role:      u.Role,
		CreatedAt: u.CreatedAt,
	}
}

// handleUserCreate serves POST /api/users: registers a new account holder.
func (s *Server) handleUserCreate(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodPost) {
		return
	}

	var req userCreateRequest
	if !DecodeJSON(w, r, &req) {
		return
	}

	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	if req.Email == "" || !strings.Contains(req.Email, "@") {
		WriteError(w, http.StatusBadRequest, "A valid email is required")
		return
	}
	if len(req.Password) < 8 {
		WriteError(w, http.StatusBadRequest, "Password must be at least 8 characters")
		return
	}

	if existing, err := s.app.Storage.UserStore().GetUserByEmail(r.Context(), req.Email); err == nil && existing != nil {
		WriteError(w, http.StatusConflict, "Email already registered")
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		s.logger.Error().Err(err).Msg("Password hash failed")
		WriteError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	user := &models.User{
		ID:           uuid.New().String(),
		Email:        req.Email,
		PasswordHash: string(hash),
		Role:         models.RoleUser,
		CreatedAt:    time.Now().UTC(),
	}

	if err := s.app.Storage.UserStore().SaveUser(r.Context(), user); err != nil {
		s.logger.Error().Err(err).Msg("User save failed")
		WriteError(w, http.StatusInternalServerError, "Storage error")
		return
	}

	WriteJSON(w, http.StatusCreated, toUserResponse(user))
}

// handleAuthLogin serves POST /api/auth/login: verifies credentials and
// issues a bearer token.
func (s *Server) handleAuthLogin(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodPost) {
		return
	}

	var req loginRequest
	if !DecodeJSON(w, r, &req) {
		return
	}

	req.Email = strings.ToLower(strings.TrimSpace(req.Email))

	user, err := s.app.Storage.UserStore().GetUserByEmail(r.Context(), req.Email)
	if err != nil || user == nil {
		// Same response as a bad password so lookups cannot probe emails.
		WriteError(w, http.StatusUnauthorized, "Invalid email or password")
		return
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		WriteError(w, http.StatusUnauthorized, "Invalid email or password")
		return
	}

	token, err := signAccessToken(user, s.app.Config)
	if err != nil {
		s.logger.Error().Err(err).Msg("Token signing failed")
		WriteError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	WriteJSON(w, http.StatusOK, loginResponse{
		AccessToken: token,
		TokenType:   "Bearer",
		ExpiresIn:   int64(s.app.Config.Auth.GetTokenExpiry().Seconds()),
		User:        toUserResponse(user),
	})
}
