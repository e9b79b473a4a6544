package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"tourney/internal/core"
	"tourney/internal/store"
)

// Table stores one entity type as JSON documents in the records table.
// The tournament id is kept in scope_id so tournament-scoped filters run in SQL;
// any other predicates are applied after decoding.
type Table[T store.Entity[T]] struct {
	repo   *SQLiteRepository
	entity core.EntityType
	now    func() time.Time
}

func NewTable[T store.Entity[T]](repo *SQLiteRepository, entity core.EntityType) *Table[T] {
	return &Table[T]{repo: repo, entity: entity, now: time.Now}
}

var _ store.Collection[core.FinanceTransaction] = (*Table[core.FinanceTransaction])(nil)

func scopeOf(r core.Record) string {
	scope, _ := r.FieldValue(core.FieldTournamentID)
	return scope
}

func (t *Table[T]) Filter(ctx context.Context, f store.Filter) ([]T, error) {
	query := `SELECT data FROM records WHERE entity_type = ? ORDER BY seq`
	args := []any{string(t.entity)}
	rest := f
	if scope, ok := f[core.FieldTournamentID]; ok {
		query = `SELECT data FROM records WHERE entity_type = ? AND scope_id = ? ORDER BY seq`
		args = append(args, scope)
		rest = make(store.Filter, len(f))
		for k, v := range f {
			if k != core.FieldTournamentID {
				rest[k] = v
			}
		}
	}

	rows, err := t.repo.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, core.NewStoreUnavailable("filter "+string(t.entity), err)
	}
	defer rows.Close()

	out := make([]T, 0)
	for rows.Next() {
		var data string
		if err := rows.Scan(&data); err != nil {
			return nil, core.NewStoreUnavailable("filter "+string(t.entity), err)
		}
		var v T
		if err := json.Unmarshal([]byte(data), &v); err != nil {
			slog.WarnContext(ctx, "Skipping undecodable record", "entity", t.entity, "error", err)
			continue
		}
		if rest.Matches(v) {
			out = append(out, v)
		}
	}
	if err := rows.Err(); err != nil {
		return nil, core.NewStoreUnavailable("filter "+string(t.entity), err)
	}
	return out, nil
}

func (t *Table[T]) Get(ctx context.Context, id string) (T, error) {
	var zero T
	var data string
	err := t.repo.db.QueryRowContext(ctx,
		`SELECT data FROM records WHERE entity_type = ? AND id = ?`,
		string(t.entity), id).Scan(&data)
	if isNoRows(err) {
		return zero, core.NewNotFoundError(t.entity, id)
	}
	if err != nil {
		return zero, core.NewStoreUnavailable("get "+string(t.entity), err)
	}
	var v T
	if err := json.Unmarshal([]byte(data), &v); err != nil {
		return zero, fmt.Errorf("decode %s %s: %w", t.entity, id, err)
	}
	return v, nil
}

func (t *Table[T]) Create(ctx context.Context, v T) (T, error) {
	var zero T
	if v.RecordID() == "" {
		v = v.WithID(uuid.NewString())
	}
	now := t.now()
	v = v.Touch(now)
	data, err := json.Marshal(v)
	if err != nil {
		return zero, fmt.Errorf("encode %s: %w", t.entity, err)
	}

	// A duplicate id leaves the row untouched and reports zero affected rows.
	res, err := t.repo.db.ExecContext(ctx,
		`INSERT INTO records (entity_type, id, scope_id, data, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?)
		 ON CONFLICT (entity_type, id) DO NOTHING`,
		string(t.entity), v.RecordID(), scopeOf(v), string(data), now, now)
	if err != nil {
		return zero, core.NewStoreUnavailable("create "+string(t.entity), err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return zero, core.NewValidationError("id", "already exists")
	}
	return v, nil
}

func (t *Table[T]) Update(ctx context.Context, v T) (T, error) {
	var zero T
	now := t.now()
	v = v.Touch(now)
	data, err := json.Marshal(v)
	if err != nil {
		return zero, fmt.Errorf("encode %s: %w", t.entity, err)
	}
	res, err := t.repo.db.ExecContext(ctx,
		`UPDATE records SET data = ?, scope_id = ?, updated_at = ? WHERE entity_type = ? AND id = ?`,
		string(data), scopeOf(v), now, string(t.entity), v.RecordID())
	if err != nil {
		return zero, core.NewStoreUnavailable("update "+string(t.entity), err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return zero, core.NewStoreUnavailable("update "+string(t.entity), err)
	}
	if n == 0 {
		return zero, core.NewNotFoundError(t.entity, v.RecordID())
	}
	return v, nil
}

func (t *Table[T]) Delete(ctx context.Context, id string) error {
	res, err := t.repo.db.ExecContext(ctx,
		`DELETE FROM records WHERE entity_type = ? AND id = ?`, string(t.entity), id)
	if err != nil {
		return core.NewStoreUnavailable("delete "+string(t.entity), err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return core.NewStoreUnavailable("delete "+string(t.entity), err)
	}
	if n == 0 {
		return core.NewNotFoundError(t.entity, id)
	}
	return nil
}
