package http

import (
	"net/http"

	"tourney/internal/services"
)

// handleFinance serves the finance tab; ?team= narrows it to one team.
func (s *Server) handleFinance(w http.ResponseWriter, r *http.Request) {
	view, err := s.dashboard.Finance(r.Context(), pathID(r), TeamParam(r))
	writeResult(w, r, http.StatusOK, view, err)
}

func (s *Server) handleMasterFinance(w http.ResponseWriter, r *http.Request) {
	summary, err := s.dashboard.MasterFinance(r.Context())
	writeResult(w, r, http.StatusOK, summary, err)
}

func (s *Server) handleCreateTransaction(w http.ResponseWriter, r *http.Request) {
	var req services.CreateTransactionRequest
	if err := DecodeJSON(w, r, &req); err != nil {
		FromError(r, err).Write(w)
		return
	}
	tx, err := s.mutations.CreateTransaction(r.Context(), pathID(r), req)
	writeResult(w, r, http.StatusCreated, tx, err)
}

func (s *Server) handleUpdateTransaction(w http.ResponseWriter, r *http.Request) {
	var req services.UpdateTransactionRequest
	if err := DecodeJSON(w, r, &req); err != nil {
		FromError(r, err).Write(w)
		return
	}
	tx, err := s.mutations.UpdateTransaction(r.Context(), pathID(r), req)
	writeResult(w, r, http.StatusOK, tx, err)
}

func (s *Server) handleDeleteTransaction(w http.ResponseWriter, r *http.Request) {
	writeDeleted(w, r, s.mutations.DeleteTransaction(r.Context(), pathID(r)))
}
