// Package memory is an in-process EntityStore for development and tests.
package memory

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"

	"tourney/internal/core"
	"tourney/internal/store"
)

// Backend holds the typed collections behind a store.Store.
type Backend struct {
	Tournaments     *Collection[core.Tournament]
	Teams           *Collection[core.Team]
	TournamentTeams *Collection[core.TournamentTeam]
	Transactions    *Collection[core.FinanceTransaction]
	Rooms           *Collection[core.Room]
	Coaches         *Collection[core.CoachTravel]
	Reminders       *Collection[core.ActionReminder]
}

func NewBackend() *Backend {
	return &Backend{
		Tournaments:     NewCollection[core.Tournament](core.EntityTournament),
		Teams:           NewCollection[core.Team](core.EntityTeam),
		TournamentTeams: NewCollection[core.TournamentTeam](core.EntityTournamentTeam),
		Transactions:    NewCollection[core.FinanceTransaction](core.EntityFinanceTransaction),
		Rooms:           NewCollection[core.Room](core.EntityRoom),
		Coaches:         NewCollection[core.CoachTravel](core.EntityCoachTravel),
		Reminders:       NewCollection[core.ActionReminder](core.EntityActionReminder),
	}
}

// Store exposes the backend through the shared contract.
func (b *Backend) Store() *store.Store {
	return &store.Store{
		Tournaments:     b.Tournaments,
		Teams:           b.Teams,
		TournamentTeams: b.TournamentTeams,
		Transactions:    b.Transactions,
		Rooms:           b.Rooms,
		Coaches:         b.Coaches,
		Reminders:       b.Reminders,
	}
}

// New returns an empty memory store.
func New() *store.Store {
	return NewBackend().Store()
}

// NewFromFiles returns a memory store seeded from <base>/<entity_type>.json
// files. Missing files are skipped; malformed files are logged and skipped.
func NewFromFiles(base string) *store.Store {
	b := NewBackend()
	seedFile(base, core.EntityTournament, b.Tournaments)
	seedFile(base, core.EntityTeam, b.Teams)
	seedFile(base, core.EntityTournamentTeam, b.TournamentTeams)
	seedFile(base, core.EntityFinanceTransaction, b.Transactions)
	seedFile(base, core.EntityRoom, b.Rooms)
	seedFile(base, core.EntityCoachTravel, b.Coaches)
	seedFile(base, core.EntityActionReminder, b.Reminders)
	return b.Store()
}

// seedRequired lists keys a seed record must carry with a non-null value.
// Their zero values would otherwise pass validation.
var seedRequired = map[core.EntityType][]string{
	core.EntityFinanceTransaction: {"amount"},
	core.EntityRoom:               {"cost_per_night", "nights"},
}

func seedFile[T store.Entity[T]](base string, entity core.EntityType, c *Collection[T]) {
	path := filepath.Join(base, string(entity)+".json")
	raws, err := readSeed(path)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			slog.Warn("Skipping seed file", "path", path, "error", err)
		}
		return
	}
	records := make([]T, 0, len(raws))
	for i, raw := range raws {
		v, err := decodeSeedRecord[T](entity, raw)
		if err != nil {
			slog.Warn("Skipping seed record", "path", path, "index", i, "error", err)
			continue
		}
		records = append(records, v)
	}
	added := c.seed(records)
	slog.Info("Seeded memory collection", "entity", entity, "count", added, "path", path)
}

func readSeed(path string) ([]json.RawMessage, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var out []json.RawMessage
	if err := json.Unmarshal(b, &out); err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	return out, nil
}

// decodeSeedRecord applies the same checks a create would.
func decodeSeedRecord[T store.Entity[T]](entity core.EntityType, raw json.RawMessage) (T, error) {
	var v T
	if required := seedRequired[entity]; len(required) > 0 {
		var fields map[string]json.RawMessage
		if err := json.Unmarshal(raw, &fields); err != nil {
			return v, err
		}
		for _, key := range required {
			if f, ok := fields[key]; !ok || string(f) == "null" {
				return v, core.NewValidationError(key, "required")
			}
		}
	}
	if err := json.Unmarshal(raw, &v); err != nil {
		return v, err
	}
	if err := v.Validate(); err != nil {
		return v, err
	}
	return v, nil
}
