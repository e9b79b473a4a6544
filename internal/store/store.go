// Package store defines the EntityStore contract shared by the memory and
// SQLite backends.
package store

import (
	"context"
	"errors"
	"time"

	"tourney/internal/core"
)

// Filter is a set of exact-match field predicates, e.g. {"tournament_id": "t1"}.
type Filter map[string]string

// ByTournament is shorthand for the most common scope filter.
func ByTournament(id string) Filter {
	return Filter{core.FieldTournamentID: id}
}

// Matches reports whether every predicate holds for r. Unknown fields never match.
func (f Filter) Matches(r core.Record) bool {
	for field, want := range f {
		got, ok := r.FieldValue(field)
		if !ok || got != want {
			return false
		}
	}
	return true
}

// Entity is the constraint satisfied by every stored type.
type Entity[T any] interface {
	core.Record
	WithID(id string) T
	Touch(now time.Time) T
	Validate() error
}

// Collection is the query surface for one entity type.
//
// Filter returns records in insertion order. Get, Update and Delete return a
// *core.NotFoundError for unknown ids. Backend failures are reported as
// *core.StoreUnavailableError.
type Collection[T core.Record] interface {
	Filter(ctx context.Context, f Filter) ([]T, error)
	Get(ctx context.Context, id string) (T, error)
	Create(ctx context.Context, v T) (T, error)
	Update(ctx context.Context, v T) (T, error)
	Delete(ctx context.Context, id string) error
}

// Store groups the collections of one backend.
type Store struct {
	Tournaments     Collection[core.Tournament]
	Teams           Collection[core.Team]
	TournamentTeams Collection[core.TournamentTeam]
	Transactions    Collection[core.FinanceTransaction]
	Rooms           Collection[core.Room]
	Coaches         Collection[core.CoachTravel]
	Reminders       Collection[core.ActionReminder]

	// Ping checks backend health. Nil means always healthy.
	Ping func(ctx context.Context) error
	// Closer releases backend resources. Nil means nothing to release.
	Closer func() error
}

// Healthy reports backend readiness.
func (s *Store) Healthy(ctx context.Context) error {
	if s.Ping == nil {
		return nil
	}
	return s.Ping(ctx)
}

func (s *Store) Close() error {
	if s.Closer == nil {
		return nil
	}
	return s.Closer()
}

// IsNotFound is a convenience wrapper around errors.Is(err, core.ErrNotFound).
func IsNotFound(err error) bool {
	return errors.Is(err, core.ErrNotFound)
}
