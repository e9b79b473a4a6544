package reminders

// This file implements the Strategy Pattern for reminder dueness.
// Each checker decides whether a reminder falls into one Dueness class;
// checkers run in registration order and the first match wins.

import (
	"time"

	"tourney/internal/core"
)

type Dueness string

const (
	DuenessDone      Dueness = "done"
	DuenessNoDueDate Dueness = "no_due_date"
	DuenessOverdue   Dueness = "overdue"
	DuenessDueSoon   Dueness = "due_soon"
	DuenessUpcoming  Dueness = "upcoming"
)

// DueSoonWindow is how far ahead a due date counts as "due soon".
const DueSoonWindow = 48 * time.Hour

// DuenessChecker is the strategy interface for classifying a reminder.
type DuenessChecker interface {
	// Matches reports whether r belongs to the checker's class at time now.
	Matches(r core.ActionReminder, now time.Time) bool
}

// DoneChecker matches completed reminders regardless of due date.
type DoneChecker struct{}

func (DoneChecker) Matches(r core.ActionReminder, _ time.Time) bool {
	return r.Status == core.ReminderDone
}

// NoDueDateChecker matches reminders without a due date.
type NoDueDateChecker struct{}

func (NoDueDateChecker) Matches(r core.ActionReminder, _ time.Time) bool {
	return r.DueDate.IsZero()
}

// OverdueChecker matches reminders due before today.
type OverdueChecker struct{}

func (OverdueChecker) Matches(r core.ActionReminder, now time.Time) bool {
	return r.DueDate.Before(startOfDay(now))
}

// DueSoonChecker matches reminders due within Window from the start of today.
type DueSoonChecker struct {
	Window time.Duration
}

func (c DueSoonChecker) Matches(r core.ActionReminder, now time.Time) bool {
	return !r.DueDate.After(startOfDay(now).Add(c.Window))
}

type registered struct {
	class   Dueness
	checker DuenessChecker
}

var duenessStrategies = []registered{
	{DuenessDone, DoneChecker{}},
	{DuenessNoDueDate, NoDueDateChecker{}},
	{DuenessOverdue, OverdueChecker{}},
	{DuenessDueSoon, DueSoonChecker{Window: DueSoonWindow}},
}

// Classify returns the dueness class of r at time now.
// Anything not matched by a registered checker is Upcoming.
func Classify(r core.ActionReminder, now time.Time) Dueness {
	for _, s := range duenessStrategies {
		if s.checker.Matches(r, now) {
			return s.class
		}
	}
	return DuenessUpcoming
}

func startOfDay(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
