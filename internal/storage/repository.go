package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"tourney/internal/core"
	"tourney/internal/store"

	_ "modernc.org/sqlite"
)

type SQLiteRepository struct {
	db *sql.DB
}

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath+"?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)")
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteRepository{db: db}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

func (r *SQLiteRepository) Ping(ctx context.Context) error {
	if err := r.db.PingContext(ctx); err != nil {
		return core.NewStoreUnavailable("ping", err)
	}
	return nil
}

// Store exposes every entity table through the shared contract.
func (r *SQLiteRepository) Store() *store.Store {
	return &store.Store{
		Tournaments:     NewTable[core.Tournament](r, core.EntityTournament),
		Teams:           NewTable[core.Team](r, core.EntityTeam),
		TournamentTeams: NewTable[core.TournamentTeam](r, core.EntityTournamentTeam),
		Transactions:    NewTable[core.FinanceTransaction](r, core.EntityFinanceTransaction),
		Rooms:           NewTable[core.Room](r, core.EntityRoom),
		Coaches:         NewTable[core.CoachTravel](r, core.EntityCoachTravel),
		Reminders:       NewTable[core.ActionReminder](r, core.EntityActionReminder),
		Ping:            r.Ping,
		Closer:          r.Close,
	}
}

// CountByEntity returns the number of stored records per entity type.
func (r *SQLiteRepository) CountByEntity(ctx context.Context) (map[core.EntityType]int, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT entity_type, COUNT(*) FROM records GROUP BY entity_type`)
	if err != nil {
		return nil, core.NewStoreUnavailable("count", err)
	}
	defer rows.Close()

	out := make(map[core.EntityType]int)
	for rows.Next() {
		var (
			entity string
			n      int
		)
		if err := rows.Scan(&entity, &n); err != nil {
			return nil, core.NewStoreUnavailable("count", err)
		}
		out[core.EntityType(entity)] = n
	}
	if err := rows.Err(); err != nil {
		return nil, core.NewStoreUnavailable("count", err)
	}
	return out, nil
}

func isNoRows(err error) bool {
	return errors.Is(err, sql.ErrNoRows)
}
