// Package reminders implements the action reminder board: status changes,
// display ordering and due-date classification.
package reminders

import (
	"fmt"
	"sort"
	"time"

	"tourney/internal/core"
)

// ApplyStatusTransition returns r with its status set. Every transition
// between known statuses is allowed, including moving Done back to To Do.
func ApplyStatusTransition(r core.ActionReminder, status core.ReminderStatus) (core.ActionReminder, error) {
	if !status.Valid() {
		return r, core.NewValidationError("status", fmt.Sprintf("unknown reminder status %q", status))
	}
	r.Status = status
	return r, nil
}

// Order sorts by due date, latest first. Reminders without a due date go
// last and ties keep their input order. The input slice is not modified.
func Order(rs []core.ActionReminder) []core.ActionReminder {
	out := make([]core.ActionReminder, len(rs))
	copy(out, rs)
	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i].DueDate, out[j].DueDate
		switch {
		case a.IsZero():
			return false
		case b.IsZero():
			return true
		default:
			return a.After(b.Time)
		}
	})
	return out
}

// CountByStatus tallies reminders per status. Every known status is present.
func CountByStatus(rs []core.ActionReminder) map[core.ReminderStatus]int {
	counts := map[core.ReminderStatus]int{
		core.ReminderToDo:       0,
		core.ReminderInProgress: 0,
		core.ReminderDone:       0,
	}
	for _, r := range rs {
		counts[r.Status]++
	}
	return counts
}

// Overdue returns the open reminders whose due date has passed, in board order.
func Overdue(rs []core.ActionReminder, now time.Time) []core.ActionReminder {
	var out []core.ActionReminder
	for _, r := range Order(rs) {
		if Classify(r, now) == DuenessOverdue {
			out = append(out, r)
		}
	}
	return out
}
