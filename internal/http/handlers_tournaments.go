package http

import (
	"net/http"

	"tourney/internal/services"
)

// writeResult sends v with status, or the mapped error.
func writeResult(w http.ResponseWriter, r *http.Request, status int, v any, err error) {
	if err != nil {
		FromError(r, err).Write(w)
		return
	}
	NewJSONResponse().Status(status).Data(v).Write(w)
}

func writeDeleted(w http.ResponseWriter, r *http.Request, err error) {
	if err != nil {
		FromError(r, err).Write(w)
		return
	}
	NoContent().Write(w)
}

func (s *Server) handleListTournaments(w http.ResponseWriter, r *http.Request) {
	list, err := s.dashboard.ListTournaments(r.Context())
	writeResult(w, r, http.StatusOK, list, err)
}

func (s *Server) handleGetTournament(w http.ResponseWriter, r *http.Request) {
	t, err := s.dashboard.GetTournament(r.Context(), pathID(r))
	writeResult(w, r, http.StatusOK, t, err)
}

func (s *Server) handleCreateTournament(w http.ResponseWriter, r *http.Request) {
	var req services.CreateTournamentRequest
	if err := DecodeJSON(w, r, &req); err != nil {
		FromError(r, err).Write(w)
		return
	}
	t, err := s.mutations.CreateTournament(r.Context(), req)
	writeResult(w, r, http.StatusCreated, t, err)
}

func (s *Server) handleUpdateTournament(w http.ResponseWriter, r *http.Request) {
	var req services.UpdateTournamentRequest
	if err := DecodeJSON(w, r, &req); err != nil {
		FromError(r, err).Write(w)
		return
	}
	t, err := s.mutations.UpdateTournament(r.Context(), pathID(r), req)
	writeResult(w, r, http.StatusOK, t, err)
}

func (s *Server) handleListTeams(w http.ResponseWriter, r *http.Request) {
	teams, err := s.dashboard.ListTeams(r.Context())
	writeResult(w, r, http.StatusOK, teams, err)
}

func (s *Server) handleCreateTeam(w http.ResponseWriter, r *http.Request) {
	var req services.CreateTeamRequest
	if err := DecodeJSON(w, r, &req); err != nil {
		FromError(r, err).Write(w)
		return
	}
	team, err := s.mutations.CreateTeam(r.Context(), req)
	writeResult(w, r, http.StatusCreated, team, err)
}

func (s *Server) handleUpdateTeam(w http.ResponseWriter, r *http.Request) {
	var req services.UpdateTeamRequest
	if err := DecodeJSON(w, r, &req); err != nil {
		FromError(r, err).Write(w)
		return
	}
	team, err := s.mutations.UpdateTeam(r.Context(), pathID(r), req)
	writeResult(w, r, http.StatusOK, team, err)
}

func (s *Server) handleTournamentTeams(w http.ResponseWriter, r *http.Request) {
	teams, err := s.dashboard.TournamentTeams(r.Context(), pathID(r))
	writeResult(w, r, http.StatusOK, teams, err)
}

func (s *Server) handleLinkTeam(w http.ResponseWriter, r *http.Request) {
	var req services.LinkTeamRequest
	if err := DecodeJSON(w, r, &req); err != nil {
		FromError(r, err).Write(w)
		return
	}
	link, err := s.mutations.LinkTeam(r.Context(), pathID(r), req)
	writeResult(w, r, http.StatusCreated, link, err)
}

func (s *Server) handleUnlinkTeam(w http.ResponseWriter, r *http.Request) {
	writeDeleted(w, r, s.mutations.UnlinkTeam(r.Context(), pathID(r)))
}
