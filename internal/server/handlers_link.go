package server

import (
	"net/http"

	"github.com/networth-app/networth/internal/common"
)

type linkTokenResponse struct {
	LinkToken string `json:"link_token"`
}

type exchangeTokenRequest struct {
	PublicToken string `json:"public_token"`
}

// handleCreateLinkToken serves POST /api/create_link_token: starts the
// provider link flow and hands the short-lived link token to the web UI.
func (s *Server) handleCreateLinkToken(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodPost) {
		return
	}

	uc := common.UserContextFrom(r.Context())
	if uc == nil {
		WriteError(w, http.StatusUnauthorized, "Authentication required")
		return
	}

	token, err := s.app.LinkService.CreateLinkToken(r.Context())
	if err != nil {
		s.logger.Error().Err(err).Msg("Link token creation failed")
		WriteError(w, http.StatusBadGateway, "Provider link token error")
		return
	}

	WriteJSON(w, http.StatusOK, linkTokenResponse{LinkToken: token})
}

// handleExchangeToken serves POST /api/exchange_token_and_save_bank:
// exchanges the public token produced by the link flow for a durable
// credential and stores it for the authenticated user.
func (s *Server) handleExchangeToken(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodPost) {
		return
	}

	uc := common.UserContextFrom(r.Context())
	if uc == nil {
		WriteError(w, http.StatusUnauthorized, "Authentication required")
		return
	}

	var req exchangeTokenRequest
	if !DecodeJSON(w, r, &req) {
		return
	}
	if req.PublicToken == "" {
		WriteError(w, http.StatusBadRequest, "public_token is required")
		return
	}

	inst, err := s.app.LinkService.LinkInstitution(r.Context(), uc.UserID, req.PublicToken)
	if err != nil {
		s.logger.Error().Err(err).Str("user", uc.UserID).Msg("Token exchange failed")
		WriteError(w, http.StatusBadGateway, "Provider token exchange error")
		return
	}

	WriteJSON(w, http.StatusCreated, toBankResponse(inst))
}
