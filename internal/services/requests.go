package services

import (
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"

	"tourney/internal/core"
)

// Request DTOs decoded by the HTTP layer. Create requests carry required
// fields; patch requests use pointers so absent fields keep their value.
// Money and nights arrive as json.Number so malformed values are reported as
// validation errors instead of being coerced.

type CreateTournamentRequest struct {
	Name            string `json:"name" validate:"required,max=120"`
	LeagueID        string `json:"league_id" validate:"max=64"`
	Status          string `json:"status" validate:"omitempty,oneof=Scheduled 'In Progress' Complete Cancelled"`
	HousingRequired *bool  `json:"housing_required" validate:"required"`
	StartDate       string `json:"start_date" validate:"omitempty,datetime=2006-01-02"`
	EndDate         string `json:"end_date" validate:"omitempty,datetime=2006-01-02"`
}

type UpdateTournamentRequest struct {
	Name            *string `json:"name" validate:"omitempty,min=1,max=120"`
	LeagueID        *string `json:"league_id" validate:"omitempty,max=64"`
	Status          *string `json:"status" validate:"omitempty,oneof=Scheduled 'In Progress' Complete Cancelled"`
	HousingRequired *bool   `json:"housing_required"`
	StartDate       *string `json:"start_date" validate:"omitempty,datetime=2006-01-02"`
	EndDate         *string `json:"end_date" validate:"omitempty,datetime=2006-01-02"`
}

type CreateTeamRequest struct {
	Name string `json:"name" validate:"required,max=120"`
}

type UpdateTeamRequest struct {
	Name *string `json:"name" validate:"omitempty,min=1,max=120"`
}

type LinkTeamRequest struct {
	TeamID string `json:"team_id" validate:"required"`
}

type CreateTransactionRequest struct {
	TeamID      string      `json:"team_id"`
	Category    string      `json:"category" validate:"required,oneof=Flight Hotel Meals Misc"`
	Amount      json.Number `json:"amount" validate:"required"`
	Description string      `json:"description" validate:"max=200"`
	Date        string      `json:"date" validate:"omitempty,datetime=2006-01-02"`
	Notes       string      `json:"notes" validate:"max=1000"`
}

type UpdateTransactionRequest struct {
	TeamID      *string      `json:"team_id"`
	Category    *string      `json:"category" validate:"omitempty,oneof=Flight Hotel Meals Misc"`
	Amount      *json.Number `json:"amount"`
	Description *string      `json:"description" validate:"omitempty,max=200"`
	Date        *string      `json:"date" validate:"omitempty,datetime=2006-01-02"`
	Notes       *string      `json:"notes" validate:"omitempty,max=1000"`
}

type CreateRoomRequest struct {
	RoomNumber   string      `json:"room_number" validate:"max=32"`
	Hotel        string      `json:"hotel" validate:"max=120"`
	RoomType     string      `json:"room_type" validate:"max=64"`
	CostPerNight json.Number `json:"cost_per_night" validate:"required"`
	Nights       json.Number `json:"nights" validate:"required"`
	Occupants    []string    `json:"occupants" validate:"dive,required"`
}

type UpdateRoomRequest struct {
	RoomNumber   *string      `json:"room_number" validate:"omitempty,max=32"`
	Hotel        *string      `json:"hotel" validate:"omitempty,max=120"`
	RoomType     *string      `json:"room_type" validate:"omitempty,max=64"`
	CostPerNight *json.Number `json:"cost_per_night"`
	Nights       *json.Number `json:"nights"`
	Occupants    *[]string    `json:"occupants" validate:"omitempty,dive,required"`
}

type CreateCoachRequest struct {
	CoachName    string `json:"coach_name" validate:"required,max=120"`
	FlightBooked bool   `json:"flight_booked"`
	HotelBooked  bool   `json:"hotel_booked"`
	RoomingNotes string `json:"rooming_notes" validate:"max=1000"`
}

type UpdateCoachRequest struct {
	CoachName    *string `json:"coach_name" validate:"omitempty,min=1,max=120"`
	FlightBooked *bool   `json:"flight_booked"`
	HotelBooked  *bool   `json:"hotel_booked"`
	RoomingNotes *string `json:"rooming_notes" validate:"omitempty,max=1000"`
}

type CreateReminderRequest struct {
	Description string `json:"description" validate:"required,max=500"`
	DueDate     string `json:"due_date" validate:"omitempty,datetime=2006-01-02"`
	Notes       string `json:"notes" validate:"max=1000"`
	Status      string `json:"status" validate:"omitempty,oneof='To Do' 'In Progress' Done"`
}

type UpdateReminderRequest struct {
	Description *string `json:"description" validate:"omitempty,min=1,max=500"`
	DueDate     *string `json:"due_date" validate:"omitempty,datetime=2006-01-02"`
	Notes       *string `json:"notes" validate:"omitempty,max=1000"`
	Status      *string `json:"status" validate:"omitempty,oneof='To Do' 'In Progress' Done"`
}

type ReminderStatusRequest struct {
	Status string `json:"status" validate:"required"`
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	// Report JSON field names so errors match the request body.
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// validateRequest runs the struct tags and converts the first failure into a
// *core.ValidationError.
func validateRequest(req any) error {
	err := validate.Struct(req)
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if errors.As(err, &fieldErrs) && len(fieldErrs) > 0 {
		fe := fieldErrs[0]
		return core.NewValidationError(fe.Field(), describe(fe))
	}
	return core.NewValidationError("", err.Error())
}

func describe(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "oneof":
		return "must be one of: " + fe.Param()
	case "max":
		return "must be at most " + fe.Param() + " characters"
	case "min":
		return "must be at least " + fe.Param() + " characters"
	case "datetime":
		return "must be a date in YYYY-MM-DD format"
	}
	return fmt.Sprintf("failed %s validation", fe.Tag())
}

func parseMoney(field string, n json.Number) (core.Money, error) {
	cents, err := core.ParseDecimalToCents(n.String())
	if err != nil {
		return core.Money{}, core.NewValidationError(field, fmt.Sprintf("invalid amount %q: must be a non-negative decimal", n.String()))
	}
	return core.Money{Cents: cents}, nil
}

func parseNights(n json.Number) (int, error) {
	v, err := strconv.Atoi(n.String())
	if err != nil {
		return 0, core.NewValidationError("nights", fmt.Sprintf("invalid nights %q: must be a whole number", n.String()))
	}
	if v < 0 || v > core.MaxNights {
		return 0, core.NewValidationError("nights", fmt.Sprintf("must be between 0 and %d", core.MaxNights))
	}
	return v, nil
}

func parseDateField(field, s string) (core.Date, error) {
	d, err := core.ParseDate(s)
	if err != nil {
		return core.Date{}, core.NewValidationError(field, "must be a date in YYYY-MM-DD format")
	}
	return d, nil
}
