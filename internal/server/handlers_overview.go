package server

import (
	"fmt"
	"net/http"

	"github.com/networth-app/networth/internal/common"
)

// handleOverview serves GET /api/overview: the consolidated view of every
// institution the authenticated user has linked, plus the derived
// net-worth series. Per-institution reauth failures are reported inside
// the body; an unclassified provider failure aborts with 500 and no
// partial result.
func (s *Server) handleOverview(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}

	uc := common.UserContextFrom(r.Context())
	if uc == nil {
		WriteError(w, http.StatusUnauthorized, "Authentication required")
		return
	}

	overview, err := s.app.OverviewService.GetOverview(r.Context(), uc.UserID)
	if err != nil {
		s.logger.Error().Err(err).Str("user", uc.UserID).Msg("Overview aggregation failed")
		WriteError(w, http.StatusInternalServerError, fmt.Sprintf("Overview error: %v", err))
		return
	}

	WriteJSON(w, http.StatusOK, overview)
}
