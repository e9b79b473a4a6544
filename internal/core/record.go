package core

import "time"

// EntityType names a stored collection. It doubles as the first half of a view cache key.
type EntityType string

const (
	EntityTournament         EntityType = "tournament"
	EntityTeam               EntityType = "team"
	EntityTournamentTeam     EntityType = "tournament_team"
	EntityFinanceTransaction EntityType = "finance_transaction"
	EntityRoom               EntityType = "room"
	EntityCoachTravel        EntityType = "coach_travel"
	EntityActionReminder     EntityType = "action_reminder"
)

// Filterable field names.
const (
	FieldID           = "id"
	FieldTournamentID = "tournament_id"
	FieldTeamID       = "team_id"
	FieldStatus       = "status"
	FieldCategory     = "category"
	FieldLeagueID     = "league_id"
	FieldHotel        = "hotel"
	FieldName         = "name"
)

// AllEntityTypes lists every collection in a stable order.
func AllEntityTypes() []EntityType {
	return []EntityType{
		EntityTournament,
		EntityTeam,
		EntityTournamentTeam,
		EntityFinanceTransaction,
		EntityRoom,
		EntityCoachTravel,
		EntityActionReminder,
	}
}

func (e EntityType) Valid() bool {
	for _, t := range AllEntityTypes() {
		if t == e {
			return true
		}
	}
	return false
}

// Record is implemented by every stored entity.
type Record interface {
	RecordID() string
	// FieldValue returns the string form of a filterable field.
	FieldValue(field string) (string, bool)
}

func (t Tournament) RecordID() string { return t.ID }
func (t Tournament) WithID(id string) Tournament {
	t.ID = id
	return t
}
func (t Tournament) Touch(now time.Time) Tournament {
	if t.CreatedAt.IsZero() {
		t.CreatedAt = now
	}
	t.UpdatedAt = now
	return t
}
func (t Tournament) FieldValue(field string) (string, bool) {
	switch field {
	case FieldID:
		return t.ID, true
	case FieldStatus:
		return string(t.Status), true
	case FieldLeagueID:
		return t.LeagueID, true
	case FieldName:
		return t.Name, true
	}
	return "", false
}

func (t Team) RecordID() string { return t.ID }
func (t Team) WithID(id string) Team {
	t.ID = id
	return t
}
func (t Team) Touch(now time.Time) Team {
	if t.CreatedAt.IsZero() {
		t.CreatedAt = now
	}
	t.UpdatedAt = now
	return t
}
func (t Team) FieldValue(field string) (string, bool) {
	switch field {
	case FieldID:
		return t.ID, true
	case FieldName:
		return t.Name, true
	}
	return "", false
}

func (tt TournamentTeam) RecordID() string { return tt.ID }
func (tt TournamentTeam) WithID(id string) TournamentTeam {
	tt.ID = id
	return tt
}
func (tt TournamentTeam) Touch(now time.Time) TournamentTeam {
	if tt.CreatedAt.IsZero() {
		tt.CreatedAt = now
	}
	tt.UpdatedAt = now
	return tt
}
func (tt TournamentTeam) FieldValue(field string) (string, bool) {
	switch field {
	case FieldID:
		return tt.ID, true
	case FieldTournamentID:
		return tt.TournamentID, true
	case FieldTeamID:
		return tt.TeamID, true
	}
	return "", false
}

func (f FinanceTransaction) RecordID() string { return f.ID }
func (f FinanceTransaction) WithID(id string) FinanceTransaction {
	f.ID = id
	return f
}
func (f FinanceTransaction) Touch(now time.Time) FinanceTransaction {
	if f.CreatedAt.IsZero() {
		f.CreatedAt = now
	}
	f.UpdatedAt = now
	return f
}
func (f FinanceTransaction) FieldValue(field string) (string, bool) {
	switch field {
	case FieldID:
		return f.ID, true
	case FieldTournamentID:
		return f.TournamentID, true
	case FieldTeamID:
		return f.TeamID, true
	case FieldCategory:
		return string(f.Category), true
	}
	return "", false
}

func (r Room) RecordID() string { return r.ID }
func (r Room) WithID(id string) Room {
	r.ID = id
	return r
}
func (r Room) Touch(now time.Time) Room {
	if r.CreatedAt.IsZero() {
		r.CreatedAt = now
	}
	r.UpdatedAt = now
	return r
}
func (r Room) FieldValue(field string) (string, bool) {
	switch field {
	case FieldID:
		return r.ID, true
	case FieldTournamentID:
		return r.TournamentID, true
	case FieldHotel:
		return r.Hotel, true
	}
	return "", false
}

func (c CoachTravel) RecordID() string { return c.ID }
func (c CoachTravel) WithID(id string) CoachTravel {
	c.ID = id
	return c
}
func (c CoachTravel) Touch(now time.Time) CoachTravel {
	if c.CreatedAt.IsZero() {
		c.CreatedAt = now
	}
	c.UpdatedAt = now
	return c
}
func (c CoachTravel) FieldValue(field string) (string, bool) {
	switch field {
	case FieldID:
		return c.ID, true
	case FieldTournamentID:
		return c.TournamentID, true
	case FieldName:
		return c.CoachName, true
	}
	return "", false
}

func (a ActionReminder) RecordID() string { return a.ID }
func (a ActionReminder) WithID(id string) ActionReminder {
	a.ID = id
	return a
}
func (a ActionReminder) Touch(now time.Time) ActionReminder {
	if a.CreatedAt.IsZero() {
		a.CreatedAt = now
	}
	a.UpdatedAt = now
	return a
}
func (a ActionReminder) FieldValue(field string) (string, bool) {
	switch field {
	case FieldID:
		return a.ID, true
	case FieldTournamentID:
		return a.TournamentID, true
	case FieldStatus:
		return string(a.Status), true
	}
	return "", false
}
