package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"tourney/internal/amqp"
	"tourney/internal/cache"
	"tourney/internal/core"
	applog "tourney/internal/log"
	"tourney/internal/reminders"
	"tourney/internal/store"
)

// Publisher announces committed writes to other processes.
type Publisher interface {
	PublishMutation(ctx context.Context, msg *amqp.MutationMessage) error
}

// MutationService is the single write path. Every operation validates its
// input, writes to the store, bumps the generations of every view derived from
// the written collection and then publishes a mutation event. Publish failures
// are logged and never fail the write.
type MutationService struct {
	store     *store.Store
	inv       *cache.Invalidator
	publisher Publisher
	origin    string
}

// NewMutationService wires the write path. publisher may be nil.
func NewMutationService(st *store.Store, inv *cache.Invalidator, publisher Publisher, origin string) *MutationService {
	return &MutationService{
		store:     st,
		inv:       inv,
		publisher: publisher,
		origin:    origin,
	}
}

// invalidationScope is the scope a write to entity invalidates. Tournaments
// are scoped by their own id; teams have no scope.
func invalidationScope(entity core.EntityType, entityID, tournamentID string) string {
	switch entity {
	case core.EntityTournament:
		return entityID
	case core.EntityTeam:
		return cache.ScopeAll
	}
	return tournamentID
}

func (s *MutationService) committed(ctx context.Context, entity core.EntityType, action amqp.Action, id, tournamentID string, record any) {
	if err := s.inv.Invalidate(ctx, entity, invalidationScope(entity, id, tournamentID)); err != nil {
		slog.ErrorContext(ctx, "Failed to invalidate views after write",
			"entity", entity, "entity_id", id, "error", err)
	}

	applog.NewStructuredLogger(applog.FromContext(ctx)).LogMutation(ctx, string(action), string(entity), id, tournamentID)

	if s.publisher == nil {
		return
	}
	msg, err := amqp.NewMutationMessage(s.origin, entity, action, id, tournamentID, record)
	if err != nil {
		slog.ErrorContext(ctx, "Failed to build mutation event", "entity", entity, "entity_id", id, "error", err)
		return
	}
	if err := s.publisher.PublishMutation(ctx, msg); err != nil {
		slog.ErrorContext(ctx, "Failed to publish mutation event",
			"entity", entity, "entity_id", id, "error", err)
	}
}

// housedTournament loads the tournament and rejects writes that need housing
// when the tournament does not require it.
func (s *MutationService) housedTournament(ctx context.Context, tournamentID, what string) (core.Tournament, error) {
	t, err := s.store.Tournaments.Get(ctx, tournamentID)
	if err != nil {
		return core.Tournament{}, fmt.Errorf("get tournament: %w", err)
	}
	if !t.HousingRequired {
		return core.Tournament{}, core.NewValidationError("tournament_id",
			fmt.Sprintf("tournament %s does not require housing; %s are disabled", t.ID, what))
	}
	return t, nil
}

func (s *MutationService) requireTournament(ctx context.Context, tournamentID string) error {
	if _, err := s.store.Tournaments.Get(ctx, tournamentID); err != nil {
		return fmt.Errorf("get tournament: %w", err)
	}
	return nil
}

func (s *MutationService) requireTeam(ctx context.Context, teamID string) error {
	if teamID == "" {
		return nil
	}
	if _, err := s.store.Teams.Get(ctx, teamID); err != nil {
		return fmt.Errorf("get team: %w", err)
	}
	return nil
}

// requireCoaches checks that every occupant is a coach of the tournament.
func (s *MutationService) requireCoaches(ctx context.Context, tournamentID string, occupants []string) error {
	if len(occupants) == 0 {
		return nil
	}
	coaches, err := s.store.Coaches.Filter(ctx, store.ByTournament(tournamentID))
	if err != nil {
		return fmt.Errorf("list coaches: %w", err)
	}
	known := make(map[string]struct{}, len(coaches))
	for _, c := range coaches {
		known[c.ID] = struct{}{}
	}
	for _, id := range occupants {
		if _, ok := known[id]; !ok {
			return core.NewNotFoundError(core.EntityCoachTravel, id)
		}
	}
	return nil
}

// Tournaments

func (s *MutationService) CreateTournament(ctx context.Context, req CreateTournamentRequest) (core.Tournament, error) {
	if err := validateRequest(req); err != nil {
		return core.Tournament{}, err
	}
	t := core.Tournament{
		Name:            strings.TrimSpace(req.Name),
		LeagueID:        strings.TrimSpace(req.LeagueID),
		Status:          core.TournamentStatus(req.Status),
		HousingRequired: *req.HousingRequired,
	}
	if t.Status == "" {
		t.Status = core.StatusScheduled
	}
	var err error
	if t.StartDate, err = parseDateField("start_date", req.StartDate); err != nil {
		return core.Tournament{}, err
	}
	if t.EndDate, err = parseDateField("end_date", req.EndDate); err != nil {
		return core.Tournament{}, err
	}
	if err := t.Validate(); err != nil {
		return core.Tournament{}, err
	}

	created, err := s.store.Tournaments.Create(ctx, t)
	if err != nil {
		return core.Tournament{}, fmt.Errorf("create tournament: %w", err)
	}
	s.committed(ctx, core.EntityTournament, amqp.ActionCreated, created.ID, created.ID, created)
	return created, nil
}

func (s *MutationService) UpdateTournament(ctx context.Context, id string, req UpdateTournamentRequest) (core.Tournament, error) {
	if err := validateRequest(req); err != nil {
		return core.Tournament{}, err
	}
	t, err := s.store.Tournaments.Get(ctx, id)
	if err != nil {
		return core.Tournament{}, fmt.Errorf("get tournament: %w", err)
	}
	if req.Name != nil {
		t.Name = strings.TrimSpace(*req.Name)
	}
	if req.LeagueID != nil {
		t.LeagueID = strings.TrimSpace(*req.LeagueID)
	}
	if req.Status != nil {
		t.Status = core.TournamentStatus(*req.Status)
	}
	if req.HousingRequired != nil {
		t.HousingRequired = *req.HousingRequired
	}
	if req.StartDate != nil {
		if t.StartDate, err = parseDateField("start_date", *req.StartDate); err != nil {
			return core.Tournament{}, err
		}
	}
	if req.EndDate != nil {
		if t.EndDate, err = parseDateField("end_date", *req.EndDate); err != nil {
			return core.Tournament{}, err
		}
	}
	if err := t.Validate(); err != nil {
		return core.Tournament{}, err
	}

	updated, err := s.store.Tournaments.Update(ctx, t)
	if err != nil {
		return core.Tournament{}, fmt.Errorf("update tournament: %w", err)
	}
	s.committed(ctx, core.EntityTournament, amqp.ActionUpdated, updated.ID, updated.ID, updated)
	return updated, nil
}

// Teams

func (s *MutationService) CreateTeam(ctx context.Context, req CreateTeamRequest) (core.Team, error) {
	if err := validateRequest(req); err != nil {
		return core.Team{}, err
	}
	team := core.Team{Name: strings.TrimSpace(req.Name)}
	if err := team.Validate(); err != nil {
		return core.Team{}, err
	}
	created, err := s.store.Teams.Create(ctx, team)
	if err != nil {
		return core.Team{}, fmt.Errorf("create team: %w", err)
	}
	s.committed(ctx, core.EntityTeam, amqp.ActionCreated, created.ID, "", created)
	return created, nil
}

// UpdateTeam renames a team. Team names appear in every tournament's views.
func (s *MutationService) UpdateTeam(ctx context.Context, id string, req UpdateTeamRequest) (core.Team, error) {
	if err := validateRequest(req); err != nil {
		return core.Team{}, err
	}
	team, err := s.store.Teams.Get(ctx, id)
	if err != nil {
		return core.Team{}, fmt.Errorf("get team: %w", err)
	}
	if req.Name != nil {
		team.Name = strings.TrimSpace(*req.Name)
	}
	if err := team.Validate(); err != nil {
		return core.Team{}, err
	}
	updated, err := s.store.Teams.Update(ctx, team)
	if err != nil {
		return core.Team{}, fmt.Errorf("update team: %w", err)
	}
	s.committed(ctx, core.EntityTeam, amqp.ActionUpdated, updated.ID, "", updated)
	return updated, nil
}

// LinkTeam records that a team attends a tournament. A team is linked at most
// once per tournament.
func (s *MutationService) LinkTeam(ctx context.Context, tournamentID string, req LinkTeamRequest) (core.TournamentTeam, error) {
	if err := validateRequest(req); err != nil {
		return core.TournamentTeam{}, err
	}
	if err := s.requireTournament(ctx, tournamentID); err != nil {
		return core.TournamentTeam{}, err
	}
	if err := s.requireTeam(ctx, req.TeamID); err != nil {
		return core.TournamentTeam{}, err
	}
	existing, err := s.store.TournamentTeams.Filter(ctx, store.Filter{
		core.FieldTournamentID: tournamentID,
		core.FieldTeamID:       req.TeamID,
	})
	if err != nil {
		return core.TournamentTeam{}, fmt.Errorf("list tournament teams: %w", err)
	}
	if len(existing) > 0 {
		return core.TournamentTeam{}, core.NewValidationError("team_id",
			fmt.Sprintf("team %s is already linked to tournament %s", req.TeamID, tournamentID))
	}

	link := core.TournamentTeam{TournamentID: tournamentID, TeamID: req.TeamID}
	created, err := s.store.TournamentTeams.Create(ctx, link)
	if err != nil {
		return core.TournamentTeam{}, fmt.Errorf("link team: %w", err)
	}
	s.committed(ctx, core.EntityTournamentTeam, amqp.ActionCreated, created.ID, tournamentID, created)
	return created, nil
}

func (s *MutationService) UnlinkTeam(ctx context.Context, linkID string) error {
	link, err := s.store.TournamentTeams.Get(ctx, linkID)
	if err != nil {
		return fmt.Errorf("get tournament team: %w", err)
	}
	if err := s.store.TournamentTeams.Delete(ctx, linkID); err != nil {
		return fmt.Errorf("unlink team: %w", err)
	}
	s.committed(ctx, core.EntityTournamentTeam, amqp.ActionDeleted, linkID, link.TournamentID, nil)
	return nil
}

// Finance

func (s *MutationService) CreateTransaction(ctx context.Context, tournamentID string, req CreateTransactionRequest) (core.FinanceTransaction, error) {
	if err := validateRequest(req); err != nil {
		return core.FinanceTransaction{}, err
	}
	amount, err := parseMoney("amount", req.Amount)
	if err != nil {
		return core.FinanceTransaction{}, err
	}
	date, err := parseDateField("date", req.Date)
	if err != nil {
		return core.FinanceTransaction{}, err
	}
	if _, err := s.housedTournament(ctx, tournamentID, "finance transactions"); err != nil {
		return core.FinanceTransaction{}, err
	}
	teamID := strings.TrimSpace(req.TeamID)
	if err := s.requireTeam(ctx, teamID); err != nil {
		return core.FinanceTransaction{}, err
	}

	tx := core.FinanceTransaction{
		TournamentID: tournamentID,
		TeamID:       teamID,
		Category:     core.Category(req.Category),
		Amount:       amount,
		Description:  strings.TrimSpace(req.Description),
		Date:         date,
		Notes:        req.Notes,
	}
	if err := tx.Validate(); err != nil {
		return core.FinanceTransaction{}, err
	}

	created, err := s.store.Transactions.Create(ctx, tx)
	if err != nil {
		return core.FinanceTransaction{}, fmt.Errorf("create transaction: %w", err)
	}
	s.committed(ctx, core.EntityFinanceTransaction, amqp.ActionCreated, created.ID, tournamentID, created)
	return created, nil
}

func (s *MutationService) UpdateTransaction(ctx context.Context, id string, req UpdateTransactionRequest) (core.FinanceTransaction, error) {
	if err := validateRequest(req); err != nil {
		return core.FinanceTransaction{}, err
	}
	tx, err := s.store.Transactions.Get(ctx, id)
	if err != nil {
		return core.FinanceTransaction{}, fmt.Errorf("get transaction: %w", err)
	}
	if _, err := s.housedTournament(ctx, tx.TournamentID, "finance transactions"); err != nil {
		return core.FinanceTransaction{}, err
	}

	if req.TeamID != nil {
		tx.TeamID = strings.TrimSpace(*req.TeamID)
		if err := s.requireTeam(ctx, tx.TeamID); err != nil {
			return core.FinanceTransaction{}, err
		}
	}
	if req.Category != nil {
		tx.Category = core.Category(*req.Category)
	}
	if req.Amount != nil {
		if tx.Amount, err = parseMoney("amount", *req.Amount); err != nil {
			return core.FinanceTransaction{}, err
		}
	}
	if req.Description != nil {
		tx.Description = strings.TrimSpace(*req.Description)
	}
	if req.Date != nil {
		if tx.Date, err = parseDateField("date", *req.Date); err != nil {
			return core.FinanceTransaction{}, err
		}
	}
	if req.Notes != nil {
		tx.Notes = *req.Notes
	}
	if err := tx.Validate(); err != nil {
		return core.FinanceTransaction{}, err
	}

	updated, err := s.store.Transactions.Update(ctx, tx)
	if err != nil {
		return core.FinanceTransaction{}, fmt.Errorf("update transaction: %w", err)
	}
	s.committed(ctx, core.EntityFinanceTransaction, amqp.ActionUpdated, updated.ID, updated.TournamentID, updated)
	return updated, nil
}

func (s *MutationService) DeleteTransaction(ctx context.Context, id string) error {
	tx, err := s.store.Transactions.Get(ctx, id)
	if err != nil {
		return fmt.Errorf("get transaction: %w", err)
	}
	if err := s.store.Transactions.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete transaction: %w", err)
	}
	s.committed(ctx, core.EntityFinanceTransaction, amqp.ActionDeleted, id, tx.TournamentID, nil)
	return nil
}

// Rooms

func (s *MutationService) CreateRoom(ctx context.Context, tournamentID string, req CreateRoomRequest) (core.Room, error) {
	if err := validateRequest(req); err != nil {
		return core.Room{}, err
	}
	cost, err := parseMoney("cost_per_night", req.CostPerNight)
	if err != nil {
		return core.Room{}, err
	}
	nights, err := parseNights(req.Nights)
	if err != nil {
		return core.Room{}, err
	}
	if _, err := s.housedTournament(ctx, tournamentID, "rooms"); err != nil {
		return core.Room{}, err
	}

	room := core.Room{
		TournamentID: tournamentID,
		RoomNumber:   strings.TrimSpace(req.RoomNumber),
		Hotel:        strings.TrimSpace(req.Hotel),
		RoomType:     strings.TrimSpace(req.RoomType),
		CostPerNight: cost,
		Nights:       nights,
		Occupants:    append([]string(nil), req.Occupants...),
	}
	if err := room.Validate(); err != nil {
		return core.Room{}, err
	}
	if err := s.requireCoaches(ctx, tournamentID, room.Occupants); err != nil {
		return core.Room{}, err
	}

	created, err := s.store.Rooms.Create(ctx, room)
	if err != nil {
		return core.Room{}, fmt.Errorf("create room: %w", err)
	}
	s.committed(ctx, core.EntityRoom, amqp.ActionCreated, created.ID, tournamentID, created)
	return created, nil
}

func (s *MutationService) UpdateRoom(ctx context.Context, id string, req UpdateRoomRequest) (core.Room, error) {
	if err := validateRequest(req); err != nil {
		return core.Room{}, err
	}
	room, err := s.store.Rooms.Get(ctx, id)
	if err != nil {
		return core.Room{}, fmt.Errorf("get room: %w", err)
	}
	if _, err := s.housedTournament(ctx, room.TournamentID, "rooms"); err != nil {
		return core.Room{}, err
	}

	if req.RoomNumber != nil {
		room.RoomNumber = strings.TrimSpace(*req.RoomNumber)
	}
	if req.Hotel != nil {
		room.Hotel = strings.TrimSpace(*req.Hotel)
	}
	if req.RoomType != nil {
		room.RoomType = strings.TrimSpace(*req.RoomType)
	}
	if req.CostPerNight != nil {
		if room.CostPerNight, err = parseMoney("cost_per_night", *req.CostPerNight); err != nil {
			return core.Room{}, err
		}
	}
	if req.Nights != nil {
		if room.Nights, err = parseNights(*req.Nights); err != nil {
			return core.Room{}, err
		}
	}
	if req.Occupants != nil {
		room.Occupants = append([]string(nil), (*req.Occupants)...)
	}
	if err := room.Validate(); err != nil {
		return core.Room{}, err
	}
	if req.Occupants != nil {
		if err := s.requireCoaches(ctx, room.TournamentID, room.Occupants); err != nil {
			return core.Room{}, err
		}
	}

	updated, err := s.store.Rooms.Update(ctx, room)
	if err != nil {
		return core.Room{}, fmt.Errorf("update room: %w", err)
	}
	s.committed(ctx, core.EntityRoom, amqp.ActionUpdated, updated.ID, updated.TournamentID, updated)
	return updated, nil
}

func (s *MutationService) DeleteRoom(ctx context.Context, id string) error {
	room, err := s.store.Rooms.Get(ctx, id)
	if err != nil {
		return fmt.Errorf("get room: %w", err)
	}
	if err := s.store.Rooms.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete room: %w", err)
	}
	s.committed(ctx, core.EntityRoom, amqp.ActionDeleted, id, room.TournamentID, nil)
	return nil
}

// Coaches

func (s *MutationService) CreateCoach(ctx context.Context, tournamentID string, req CreateCoachRequest) (core.CoachTravel, error) {
	if err := validateRequest(req); err != nil {
		return core.CoachTravel{}, err
	}
	if err := s.requireTournament(ctx, tournamentID); err != nil {
		return core.CoachTravel{}, err
	}
	coach := core.CoachTravel{
		TournamentID: tournamentID,
		CoachName:    strings.TrimSpace(req.CoachName),
		FlightBooked: req.FlightBooked,
		HotelBooked:  req.HotelBooked,
		RoomingNotes: req.RoomingNotes,
	}
	if err := coach.Validate(); err != nil {
		return core.CoachTravel{}, err
	}
	created, err := s.store.Coaches.Create(ctx, coach)
	if err != nil {
		return core.CoachTravel{}, fmt.Errorf("create coach: %w", err)
	}
	s.committed(ctx, core.EntityCoachTravel, amqp.ActionCreated, created.ID, tournamentID, created)
	return created, nil
}

func (s *MutationService) UpdateCoach(ctx context.Context, id string, req UpdateCoachRequest) (core.CoachTravel, error) {
	if err := validateRequest(req); err != nil {
		return core.CoachTravel{}, err
	}
	coach, err := s.store.Coaches.Get(ctx, id)
	if err != nil {
		return core.CoachTravel{}, fmt.Errorf("get coach: %w", err)
	}
	if req.CoachName != nil {
		coach.CoachName = strings.TrimSpace(*req.CoachName)
	}
	if req.FlightBooked != nil {
		coach.FlightBooked = *req.FlightBooked
	}
	if req.HotelBooked != nil {
		coach.HotelBooked = *req.HotelBooked
	}
	if req.RoomingNotes != nil {
		coach.RoomingNotes = *req.RoomingNotes
	}
	if err := coach.Validate(); err != nil {
		return core.CoachTravel{}, err
	}
	updated, err := s.store.Coaches.Update(ctx, coach)
	if err != nil {
		return core.CoachTravel{}, fmt.Errorf("update coach: %w", err)
	}
	s.committed(ctx, core.EntityCoachTravel, amqp.ActionUpdated, updated.ID, updated.TournamentID, updated)
	return updated, nil
}

// DeleteCoach removes the coach. Rooms that still list the coach keep the id;
// the rooming view shows it as unknown until the room is edited.
func (s *MutationService) DeleteCoach(ctx context.Context, id string) error {
	coach, err := s.store.Coaches.Get(ctx, id)
	if err != nil {
		return fmt.Errorf("get coach: %w", err)
	}
	if err := s.store.Coaches.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete coach: %w", err)
	}
	s.committed(ctx, core.EntityCoachTravel, amqp.ActionDeleted, id, coach.TournamentID, nil)
	return nil
}

// Reminders

func (s *MutationService) CreateReminder(ctx context.Context, tournamentID string, req CreateReminderRequest) (core.ActionReminder, error) {
	if err := validateRequest(req); err != nil {
		return core.ActionReminder{}, err
	}
	due, err := parseDateField("due_date", req.DueDate)
	if err != nil {
		return core.ActionReminder{}, err
	}
	if err := s.requireTournament(ctx, tournamentID); err != nil {
		return core.ActionReminder{}, err
	}
	r := core.ActionReminder{
		TournamentID: tournamentID,
		Description:  strings.TrimSpace(req.Description),
		DueDate:      due,
		Notes:        req.Notes,
		Status:       core.ReminderStatus(req.Status),
	}
	if r.Status == "" {
		r.Status = core.ReminderToDo
	}
	if err := r.Validate(); err != nil {
		return core.ActionReminder{}, err
	}
	created, err := s.store.Reminders.Create(ctx, r)
	if err != nil {
		return core.ActionReminder{}, fmt.Errorf("create reminder: %w", err)
	}
	s.committed(ctx, core.EntityActionReminder, amqp.ActionCreated, created.ID, tournamentID, created)
	return created, nil
}

func (s *MutationService) UpdateReminder(ctx context.Context, id string, req UpdateReminderRequest) (core.ActionReminder, error) {
	if err := validateRequest(req); err != nil {
		return core.ActionReminder{}, err
	}
	r, err := s.store.Reminders.Get(ctx, id)
	if err != nil {
		return core.ActionReminder{}, fmt.Errorf("get reminder: %w", err)
	}
	if req.Description != nil {
		r.Description = strings.TrimSpace(*req.Description)
	}
	if req.DueDate != nil {
		if r.DueDate, err = parseDateField("due_date", *req.DueDate); err != nil {
			return core.ActionReminder{}, err
		}
	}
	if req.Notes != nil {
		r.Notes = *req.Notes
	}
	if req.Status != nil {
		if r, err = reminders.ApplyStatusTransition(r, core.ReminderStatus(*req.Status)); err != nil {
			return core.ActionReminder{}, err
		}
	}
	if err := r.Validate(); err != nil {
		return core.ActionReminder{}, err
	}
	return s.saveReminder(ctx, r)
}

// SetReminderStatus moves a reminder to any status.
func (s *MutationService) SetReminderStatus(ctx context.Context, id string, req ReminderStatusRequest) (core.ActionReminder, error) {
	if err := validateRequest(req); err != nil {
		return core.ActionReminder{}, err
	}
	r, err := s.store.Reminders.Get(ctx, id)
	if err != nil {
		return core.ActionReminder{}, fmt.Errorf("get reminder: %w", err)
	}
	next, err := reminders.ApplyStatusTransition(r, core.ReminderStatus(req.Status))
	if err != nil {
		return core.ActionReminder{}, err
	}
	return s.saveReminder(ctx, next)
}

func (s *MutationService) saveReminder(ctx context.Context, r core.ActionReminder) (core.ActionReminder, error) {
	updated, err := s.store.Reminders.Update(ctx, r)
	if err != nil {
		return core.ActionReminder{}, fmt.Errorf("update reminder: %w", err)
	}
	s.committed(ctx, core.EntityActionReminder, amqp.ActionUpdated, updated.ID, updated.TournamentID, updated)
	return updated, nil
}

func (s *MutationService) DeleteReminder(ctx context.Context, id string) error {
	r, err := s.store.Reminders.Get(ctx, id)
	if err != nil {
		return fmt.Errorf("get reminder: %w", err)
	}
	if err := s.store.Reminders.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete reminder: %w", err)
	}
	s.committed(ctx, core.EntityActionReminder, amqp.ActionDeleted, id, r.TournamentID, nil)
	return nil
}

// IsClientError reports whether err was caused by the request rather than
// the backend.
func IsClientError(err error) bool {
	return errors.Is(err, core.ErrValidation) || errors.Is(err, core.ErrNotFound)
}
