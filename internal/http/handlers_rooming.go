package http

import (
	"net/http"

	"tourney/internal/services"
)

func (s *Server) handleRooming(w http.ResponseWriter, r *http.Request) {
	view, err := s.dashboard.Rooming(r.Context(), pathID(r))
	writeResult(w, r, http.StatusOK, view, err)
}

func (s *Server) handleCreateRoom(w http.ResponseWriter, r *http.Request) {
	var req services.CreateRoomRequest
	if err := DecodeJSON(w, r, &req); err != nil {
		FromError(r, err).Write(w)
		return
	}
	room, err := s.mutations.CreateRoom(r.Context(), pathID(r), req)
	writeResult(w, r, http.StatusCreated, room, err)
}

func (s *Server) handleUpdateRoom(w http.ResponseWriter, r *http.Request) {
	var req services.UpdateRoomRequest
	if err := DecodeJSON(w, r, &req); err != nil {
		FromError(r, err).Write(w)
		return
	}
	room, err := s.mutations.UpdateRoom(r.Context(), pathID(r), req)
	writeResult(w, r, http.StatusOK, room, err)
}

func (s *Server) handleDeleteRoom(w http.ResponseWriter, r *http.Request) {
	writeDeleted(w, r, s.mutations.DeleteRoom(r.Context(), pathID(r)))
}

func (s *Server) handleCreateCoach(w http.ResponseWriter, r *http.Request) {
	var req services.CreateCoachRequest
	if err := DecodeJSON(w, r, &req); err != nil {
		FromError(r, err).Write(w)
		return
	}
	coach, err := s.mutations.CreateCoach(r.Context(), pathID(r), req)
	writeResult(w, r, http.StatusCreated, coach, err)
}

func (s *Server) handleUpdateCoach(w http.ResponseWriter, r *http.Request) {
	var req services.UpdateCoachRequest
	if err := DecodeJSON(w, r, &req); err != nil {
		FromError(r, err).Write(w)
		return
	}
	coach, err := s.mutations.UpdateCoach(r.Context(), pathID(r), req)
	writeResult(w, r, http.StatusOK, coach, err)
}

// handleDeleteCoach leaves rooms untouched; their occupant lists render the
// removed coach as Unknown.
func (s *Server) handleDeleteCoach(w http.ResponseWriter, r *http.Request) {
	writeDeleted(w, r, s.mutations.DeleteCoach(r.Context(), pathID(r)))
}
