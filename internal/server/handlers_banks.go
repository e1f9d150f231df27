package server

import (
	"net/http"
	"time"

	"github.com/networth-app/networth/internal/common"
	"github.com/networth-app/networth/internal/models"
)

// bankResponse is the API view of a linked institution. The stored access
// secret never leaves the server.
type bankResponse struct {
	ID              string    `json:"id"`
	OwnerID         string    `json:"owner"`
	ItemID          string    `json:"itemId"`
	InstitutionName string    `json:"institutionName,omitempty"`
	CreatedAt       time.Time `json:"createdAt"`
}

func toBankResponse(inst *models.LinkedInstitution) bankResponse {
	return bankResponse{
		ID:              inst.ID,
		OwnerID:         inst.OwnerID,
		ItemID:          inst.ItemID,
		InstitutionName: inst.InstitutionName,
		CreatedAt:       inst.CreatedAt,
	}
}

type bankUpdateRequest struct {
	PublicToken string `json:"public_token"`
}

type bankCreateRequest struct {
	Owner       string `json:"owner"`
	PublicToken string `json:"public_token"`
}

// handleBanksRoot serves /api/banks: GET lists the caller's linked
// institutions, POST lets an admin link an institution on behalf of a user.
func (s *Server) handleBanksRoot(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		s.handleBanksList(w, r)
	case http.MethodPost:
		s.handleBankCreate(w, r)
	default:
		w.Header().Set("Allow", "GET, POST")
		WriteError(w, http.StatusMethodNotAllowed, "Method not allowed")
	}
}

func (s *Server) handleBanksList(w http.ResponseWriter, r *http.Request) {
	uc := common.UserContextFrom(r.Context())
	if uc == nil {
		WriteError(w, http.StatusUnauthorized, "Authentication required")
		return
	}

	insts, err := s.app.Storage.InstitutionStore().GetInstitutionsByOwner(r.Context(), uc.UserID)
	if err != nil {
		s.logger.Error().Err(err).Str("user", uc.UserID).Msg("Institution list failed")
		WriteError(w, http.StatusInternalServerError, "Storage error")
		return
	}

	banks := make([]bankResponse, 0, len(insts))
	for _, inst := range insts {
		banks = append(banks, toBankResponse(inst))
	}
	WriteJSON(w, http.StatusOK, banks)
}

// handleBankCreate links an institution for an arbitrary owner. Admin only;
// regular users link through the exchange endpoint.
func (s *Server) handleBankCreate(w http.ResponseWriter, r *http.Request) {
	uc := common.UserContextFrom(r.Context())
	if uc == nil {
		WriteError(w, http.StatusUnauthorized, "Authentication required")
		return
	}
	if uc.Role != models.RoleAdmin {
		WriteError(w, http.StatusForbidden, "Admin role required")
		return
	}

	var req bankCreateRequest
	if !DecodeJSON(w, r, &req) {
		return
	}
	if req.Owner == "" || req.PublicToken == "" {
		WriteError(w, http.StatusBadRequest, "owner and public_token are required")
		return
	}

	inst, err := s.app.LinkService.LinkInstitution(r.Context(), req.Owner, req.PublicToken)
	if err != nil {
		s.logger.Error().Err(err).Str("owner", req.Owner).Msg("Admin link failed")
		WriteError(w, http.StatusBadGateway, "Provider token exchange error")
		return
	}

	WriteJSON(w, http.StatusCreated, toBankResponse(inst))
}

// authorizeBank loads the institution and checks that the caller owns it or
// holds the admin role. Writes the error response itself on failure.
func (s *Server) authorizeBank(w http.ResponseWriter, r *http.Request, id string) *models.LinkedInstitution {
	uc := common.UserContextFrom(r.Context())
	if uc == nil {
		WriteError(w, http.StatusUnauthorized, "Authentication required")
		return nil
	}

	inst, err := s.app.Storage.InstitutionStore().GetInstitution(r.Context(), id)
	if err != nil {
		WriteError(w, http.StatusNotFound, "Institution not found")
		return nil
	}

	if inst.OwnerID != uc.UserID && uc.Role != models.RoleAdmin {
		WriteError(w, http.StatusForbidden, "Forbidden")
		return nil
	}
	return inst
}

func (s *Server) handleBankGet(w http.ResponseWriter, r *http.Request, id string) {
	inst := s.authorizeBank(w, r, id)
	if inst == nil {
		return
	}
	WriteJSON(w, http.StatusOK, toBankResponse(inst))
}

// handleBankUpdate rotates the stored access secret after the user has
// completed the re-authentication link flow.
func (s *Server) handleBankUpdate(w http.ResponseWriter, r *http.Request, id string) {
	inst := s.authorizeBank(w, r, id)
	if inst == nil {
		return
	}

	var req bankUpdateRequest
	if !DecodeJSON(w, r, &req) {
		return
	}
	if req.PublicToken == "" {
		WriteError(w, http.StatusBadRequest, "public_token is required")
		return
	}

	updated, err := s.app.LinkService.RotateSecret(r.Context(), inst.ID, req.PublicToken)
	if err != nil {
		s.logger.Error().Err(err).Str("institution", inst.ID).Msg("Secret rotation failed")
		WriteError(w, http.StatusBadGateway, "Provider token exchange error")
		return
	}

	WriteJSON(w, http.StatusOK, toBankResponse(updated))
}

func (s *Server) handleBankDelete(w http.ResponseWriter, r *http.Request, id string) {
	inst := s.authorizeBank(w, r, id)
	if inst == nil {
		return
	}

	if err := s.app.LinkService.Unlink(r.Context(), inst.ID); err != nil {
		s.logger.Error().Err(err).Str("institution", inst.ID).Msg("Unlink failed")
		WriteError(w, http.StatusInternalServerError, "Storage error")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
