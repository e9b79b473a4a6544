package http

import (
	"net/http"

	"tourney/internal/services"
)

func (s *Server) handleReminders(w http.ResponseWriter, r *http.Request) {
	view, err := s.dashboard.Reminders(r.Context(), pathID(r))
	writeResult(w, r, http.StatusOK, view, err)
}

func (s *Server) handleCreateReminder(w http.ResponseWriter, r *http.Request) {
	var req services.CreateReminderRequest
	if err := DecodeJSON(w, r, &req); err != nil {
		FromError(r, err).Write(w)
		return
	}
	rem, err := s.mutations.CreateReminder(r.Context(), pathID(r), req)
	writeResult(w, r, http.StatusCreated, rem, err)
}

func (s *Server) handleUpdateReminder(w http.ResponseWriter, r *http.Request) {
	var req services.UpdateReminderRequest
	if err := DecodeJSON(w, r, &req); err != nil {
		FromError(r, err).Write(w)
		return
	}
	rem, err := s.mutations.UpdateReminder(r.Context(), pathID(r), req)
	writeResult(w, r, http.StatusOK, rem, err)
}

func (s *Server) handleSetReminderStatus(w http.ResponseWriter, r *http.Request) {
	var req services.ReminderStatusRequest
	if err := DecodeJSON(w, r, &req); err != nil {
		FromError(r, err).Write(w)
		return
	}
	rem, err := s.mutations.SetReminderStatus(r.Context(), pathID(r), req)
	writeResult(w, r, http.StatusOK, rem, err)
}

func (s *Server) handleDeleteReminder(w http.ResponseWriter, r *http.Request) {
	writeDeleted(w, r, s.mutations.DeleteReminder(r.Context(), pathID(r)))
}
