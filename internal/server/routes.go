package server

import (
	"net/http"
	"strings"

	"github.com/networth-app/networth/internal/common"
)

// registerRoutes sets up all REST API routes on the mux.
func (s *Server) registerRoutes(mux *http.ServeMux) {
	// System
	mux.HandleFunc("/api/health", s.handleHealth)
	mux.HandleFunc("/api/version", s.handleVersion)

	// Users and auth
	mux.HandleFunc("/api/users", s.handleUserCreate)
	mux.HandleFunc("/api/auth/login", s.handleAuthLogin)

	// Provider link flow
	mux.HandleFunc("/api/create_link_token", s.handleCreateLinkToken)
	mux.HandleFunc("/api/exchange_token_and_save_bank", s.handleExchangeToken)

	// Aggregated overview
	mux.HandleFunc("/api/overview", s.handleOverview)

	// Linked-institution administration
	mux.HandleFunc("/api/banks/", s.routeBanks)
	mux.HandleFunc("/api/banks", s.handleBanksRoot)
}

// routeBanks dispatches /api/banks/{id} to the appropriate handler.
func (s *Server) routeBanks(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimPrefix(r.URL.Path, "/api/banks/")
	if id == "" || strings.Contains(id, "/") {
		WriteError(w, http.StatusNotFound, "Not found")
		return
	}

	switch r.Method {
	case http.MethodGet:
		s.handleBankGet(w, r, id)
	case http.MethodPut:
		s.handleBankUpdate(w, r, id)
	case http.MethodDelete:
		s.handleBankDelete(w, r, id)
	default:
		w.Header().Set("Allow", "GET, PUT, DELETE")
		WriteError(w, http.StatusMethodNotAllowed, "Method not allowed")
	}
}

// --- System handlers ---

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet, http.MethodHead) {
		return
	}
	WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleVersion(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet, http.MethodHead) {
		return
	}
	WriteJSON(w, http.StatusOK, map[string]string{
		"version": common.GetVersion(),
		"build":   common.GetBuild(),
		"commit":  common.GetGitCommit(),
	})
}
