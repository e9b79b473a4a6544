package core

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"
)

const dateLayout = "2006-01-02"

const (
	StatusScheduled  TournamentStatus = "Scheduled"
	StatusInProgress TournamentStatus = "In Progress"
	StatusComplete   TournamentStatus = "Complete"
	StatusCancelled  TournamentStatus = "Cancelled"
)

const (
	CategoryFlight Category = "Flight"
	CategoryHotel  Category = "Hotel"
	CategoryMeals  Category = "Meals"
	CategoryMisc   Category = "Misc"
)

const (
	ReminderToDo       ReminderStatus = "To Do"
	ReminderInProgress ReminderStatus = "In Progress"
	ReminderDone       ReminderStatus = "Done"
)

type (
	TournamentStatus string
	Category         string
	ReminderStatus   string

	// Date is a calendar day. The zero value means "not set".
	Date struct {
		time.Time
	}

	Money struct {
		Cents int64
	}

	Tournament struct {
		ID              string           `json:"id"`
		Name            string           `json:"name"`
		LeagueID        string           `json:"league_id,omitempty"`
		Status          TournamentStatus `json:"status"`
		HousingRequired bool             `json:"housing_required"`
		StartDate       Date             `json:"start_date"`
		EndDate         Date             `json:"end_date"`
		CreatedAt       time.Time        `json:"created_at"`
		UpdatedAt       time.Time        `json:"updated_at"`
	}

	Team struct {
		ID        string    `json:"id"`
		Name      string    `json:"name"`
		CreatedAt time.Time `json:"created_at"`
		UpdatedAt time.Time `json:"updated_at"`
	}

	// TournamentTeam links a team to a tournament it attends.
	TournamentTeam struct {
		ID           string    `json:"id"`
		TournamentID string    `json:"tournament_id"`
		TeamID       string    `json:"team_id"`
		CreatedAt    time.Time `json:"created_at"`
		UpdatedAt    time.Time `json:"updated_at"`
	}

	FinanceTransaction struct {
		ID           string    `json:"id"`
		TournamentID string    `json:"tournament_id"`
		TeamID       string    `json:"team_id,omitempty"` // empty: not attributed to a team
		Category     Category  `json:"category"`
		Amount       Money     `json:"amount"`
		Description  string    `json:"description"`
		Date         Date      `json:"date"`
		Notes        string    `json:"notes,omitempty"`
		CreatedAt    time.Time `json:"created_at"`
		UpdatedAt    time.Time `json:"updated_at"`
	}

	Room struct {
		ID           string    `json:"id"`
		TournamentID string    `json:"tournament_id"`
		RoomNumber   string    `json:"room_number"`
		Hotel        string    `json:"hotel"`
		RoomType     string    `json:"room_type"`
		CostPerNight Money     `json:"cost_per_night"`
		Nights       int       `json:"nights"`
		Occupants    []string  `json:"occupants"` // CoachTravel ids
		CreatedAt    time.Time `json:"created_at"`
		UpdatedAt    time.Time `json:"updated_at"`
	}

	CoachTravel struct {
		ID           string    `json:"id"`
		TournamentID string    `json:"tournament_id"`
		CoachName    string    `json:"coach_name"`
		FlightBooked bool      `json:"flight_booked"`
		HotelBooked  bool      `json:"hotel_booked"`
		RoomingNotes string    `json:"rooming_notes,omitempty"`
		CreatedAt    time.Time `json:"created_at"`
		UpdatedAt    time.Time `json:"updated_at"`
	}

	ActionReminder struct {
		ID           string         `json:"id"`
		TournamentID string         `json:"tournament_id"`
		Description  string         `json:"description"`
		DueDate      Date           `json:"due_date"`
		Notes        string         `json:"notes,omitempty"`
		Status       ReminderStatus `json:"status"`
		CreatedAt    time.Time      `json:"created_at"`
		UpdatedAt    time.Time      `json:"updated_at"`
	}
)

var (
	ErrInvalidDay       = errors.New("invalid day")
	ErrInvalidMonth     = errors.New("invalid month")
	ErrInvalidAmount    = errors.New("invalid amount")
	ErrEmptyDescription = errors.New("empty description")
	ErrEmptyName        = errors.New("empty name")
)

func (s TournamentStatus) Valid() bool {
	switch s {
	case StatusScheduled, StatusInProgress, StatusComplete, StatusCancelled:
		return true
	}
	return false
}

func (c Category) Valid() bool {
	switch c {
	case CategoryFlight, CategoryHotel, CategoryMeals, CategoryMisc:
		return true
	}
	return false
}

func (s ReminderStatus) Valid() bool {
	switch s {
	case ReminderToDo, ReminderInProgress, ReminderDone:
		return true
	}
	return false
}

// NewDate creates a new Date from year, month, day
func NewDate(year, month, day int) Date {
	return Date{Time: time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)}
}

// ParseDate parses a YYYY-MM-DD string. Blank input yields the zero Date.
func ParseDate(s string) (Date, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Date{}, nil
	}
	t, err := time.Parse(dateLayout, s)
	if err != nil {
		return Date{}, fmt.Errorf("parse date %q: %w", s, err)
	}
	return Date{Time: t}, nil
}

func (d Date) Validate() error {
	if d.IsZero() {
		return errors.New("date cannot be zero")
	}
	_, month, day := d.Date()
	if day < 1 || day > 31 {
		return ErrInvalidDay
	}
	if month < 1 || month > 12 {
		return ErrInvalidMonth
	}
	return nil
}

func (d Date) String() string {
	if d.IsZero() {
		return ""
	}
	return d.Format(dateLayout)
}

func (d Date) MarshalJSON() ([]byte, error) {
	if d.IsZero() {
		return []byte("null"), nil
	}
	return json.Marshal(d.Format(dateLayout))
}

func (d *Date) UnmarshalJSON(b []byte) error {
	if bytes.Equal(b, []byte("null")) {
		*d = Date{}
		return nil
	}
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	parsed, err := ParseDate(s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

func (t Tournament) Validate() error {
	if strings.TrimSpace(t.Name) == "" {
		return NewValidationError("name", ErrEmptyName.Error())
	}
	if !t.Status.Valid() {
		return NewValidationError("status", fmt.Sprintf("unknown tournament status %q", t.Status))
	}
	if !t.EndDate.IsZero() && !t.StartDate.IsZero() && t.EndDate.Before(t.StartDate.Time) {
		return NewValidationError("end_date", "end date must not be before start date")
	}
	return nil
}

func (t Team) Validate() error {
	if strings.TrimSpace(t.Name) == "" {
		return NewValidationError("name", ErrEmptyName.Error())
	}
	return nil
}

func (tt TournamentTeam) Validate() error {
	if strings.TrimSpace(tt.TournamentID) == "" {
		return NewValidationError("tournament_id", "required")
	}
	if strings.TrimSpace(tt.TeamID) == "" {
		return NewValidationError("team_id", "required")
	}
	return nil
}

func (f FinanceTransaction) Validate() error {
	if strings.TrimSpace(f.TournamentID) == "" {
		return NewValidationError("tournament_id", "required")
	}
	if strings.TrimSpace(string(f.Category)) == "" {
		return NewValidationError("category", "required")
	}
	if err := f.Amount.Validate(); err != nil {
		return NewValidationError("amount", "must be a non-negative amount no larger than 1000000000")
	}
	if len(f.Description) > 200 {
		return NewValidationError("description", "too long (max 200 characters)")
	}
	return nil
}

func (r Room) Validate() error {
	if strings.TrimSpace(r.TournamentID) == "" {
		return NewValidationError("tournament_id", "required")
	}
	if err := r.CostPerNight.Validate(); err != nil {
		return NewValidationError("cost_per_night", "must be a non-negative amount no larger than 1000000000")
	}
	if r.Nights < 0 || r.Nights > MaxNights {
		return NewValidationError("nights", fmt.Sprintf("must be between 0 and %d", MaxNights))
	}
	seen := make(map[string]struct{}, len(r.Occupants))
	for _, id := range r.Occupants {
		if strings.TrimSpace(id) == "" {
			return NewValidationError("occupants", "occupant id cannot be blank")
		}
		if _, dup := seen[id]; dup {
			return NewValidationError("occupants", fmt.Sprintf("coach %s listed more than once", id))
		}
		seen[id] = struct{}{}
	}
	return nil
}

// MaxNights bounds a single room booking.
const MaxNights = 365

// TotalCost is cost per night times nights.
func (r Room) TotalCost() Money {
	return r.CostPerNight.Times(int64(r.Nights))
}

func (c CoachTravel) Validate() error {
	if strings.TrimSpace(c.TournamentID) == "" {
		return NewValidationError("tournament_id", "required")
	}
	if strings.TrimSpace(c.CoachName) == "" {
		return NewValidationError("coach_name", ErrEmptyName.Error())
	}
	return nil
}

// WantsRoom reports whether the coach left rooming notes.
func (c CoachTravel) WantsRoom() bool {
	return strings.TrimSpace(c.RoomingNotes) != ""
}

func (a ActionReminder) Validate() error {
	if strings.TrimSpace(a.TournamentID) == "" {
		return NewValidationError("tournament_id", "required")
	}
	if strings.TrimSpace(a.Description) == "" {
		return NewValidationError("description", ErrEmptyDescription.Error())
	}
	if !a.Status.Valid() {
		return NewValidationError("status", fmt.Sprintf("unknown reminder status %q", a.Status))
	}
	return nil
}
