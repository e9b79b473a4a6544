package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"tourney/internal/amqp"
	"tourney/internal/core"
	"tourney/internal/ledger"
	applog "tourney/internal/log"
	"tourney/internal/sheets"
	"tourney/internal/store"
)

// LedgerWorker mirrors finance transactions into the ledger sheet. It reacts
// to mutation events and can reconcile the whole sheet at startup to recover
// from missed events.
type LedgerWorker struct {
	store    *store.Store
	exporter sheets.LedgerExporter
}

func NewLedgerWorker(st *store.Store, exporter sheets.LedgerExporter) *LedgerWorker {
	return &LedgerWorker{store: st, exporter: exporter}
}

// RoutingKeys are the mutation events the worker consumes. Tournament and
// team events matter because exported rows carry their names.
func RoutingKeys() []string {
	return []string{
		amqp.RoutingKey(core.EntityFinanceTransaction),
		amqp.RoutingKey(core.EntityTournament),
		amqp.RoutingKey(core.EntityTeam),
	}
}

// HandleMutation processes a single mutation event from AMQP
func (w *LedgerWorker) HandleMutation(ctx context.Context, msg *amqp.MutationMessage) error {
	switch msg.Entity {
	case core.EntityFinanceTransaction:
		if msg.Action == amqp.ActionDeleted {
			return w.deleteRow(ctx, msg.EntityID)
		}
		return w.exportTransaction(ctx, msg.EntityID)
	case core.EntityTournament:
		if msg.Action != amqp.ActionUpdated {
			return nil
		}
		return w.exportMatching(ctx, store.ByTournament(msg.EntityID))
	case core.EntityTeam:
		if msg.Action != amqp.ActionUpdated {
			return nil
		}
		return w.exportMatching(ctx, store.Filter{core.FieldTeamID: msg.EntityID})
	}
	return nil
}

func (w *LedgerWorker) deleteRow(ctx context.Context, id string) error {
	if err := w.exporter.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete ledger row %s: %w", id, err)
	}
	slog.InfoContext(ctx, "Removed transaction from ledger", "entity_id", id)
	return nil
}

// exportTransaction re-reads the transaction so the sheet always reflects the
// stored state, whatever order events arrive in.
func (w *LedgerWorker) exportTransaction(ctx context.Context, id string) error {
	tx, err := w.store.Transactions.Get(ctx, id)
	if store.IsNotFound(err) {
		return w.deleteRow(ctx, id)
	}
	if err != nil {
		return fmt.Errorf("get transaction: %w", err)
	}

	names, err := w.loadNames(ctx)
	if err != nil {
		return err
	}
	return w.upsert(ctx, tx, names.row(tx))
}

func (w *LedgerWorker) exportMatching(ctx context.Context, f store.Filter) error {
	txs, err := w.store.Transactions.Filter(ctx, f)
	if err != nil {
		return fmt.Errorf("list transactions: %w", err)
	}
	if len(txs) == 0 {
		return nil
	}
	names, err := w.loadNames(ctx)
	if err != nil {
		return err
	}
	for _, tx := range txs {
		if err := w.upsert(ctx, tx, names.row(tx)); err != nil {
			return err
		}
	}
	return nil
}

func (w *LedgerWorker) upsert(ctx context.Context, tx core.FinanceTransaction, row sheets.LedgerRow) error {
	ref, err := w.exporter.Upsert(ctx, row)
	if err != nil {
		return fmt.Errorf("export transaction %s: %w", tx.ID, err)
	}
	applog.NewStructuredLogger(applog.FromContext(ctx)).
		LogExport(ctx, tx.ID, tx.TournamentID, string(tx.Category), tx.Amount.Cents, ref)
	return nil
}

// ReconcileResult counts the changes a reconcile made.
type ReconcileResult struct {
	Exported  int
	Deleted   int
	Unchanged int
}

// Reconcile makes the sheet match the store: missing or stale rows are
// written and rows without a stored transaction are removed.
func (w *LedgerWorker) Reconcile(ctx context.Context) (ReconcileResult, error) {
	var res ReconcileResult

	rows, err := w.exporter.ListRows(ctx)
	if err != nil {
		return res, fmt.Errorf("list ledger rows: %w", err)
	}
	txs, err := w.store.Transactions.Filter(ctx, nil)
	if err != nil {
		return res, fmt.Errorf("list transactions: %w", err)
	}
	names, err := w.loadNames(ctx)
	if err != nil {
		return res, err
	}

	existing := make(map[string]sheets.LedgerRow, len(rows))
	for _, r := range rows {
		existing[r.ID] = r
	}

	var errs []error
	stored := make(map[string]struct{}, len(txs))
	for _, tx := range txs {
		stored[tx.ID] = struct{}{}
		row := names.row(tx)
		if cur, ok := existing[tx.ID]; ok && cur == row {
			res.Unchanged++
			continue
		}
		if err := w.upsert(ctx, tx, row); err != nil {
			errs = append(errs, err)
			continue
		}
		res.Exported++
	}
	for _, r := range rows {
		if _, ok := stored[r.ID]; ok {
			continue
		}
		if err := w.deleteRow(ctx, r.ID); err != nil {
			errs = append(errs, err)
			continue
		}
		res.Deleted++
	}

	slog.InfoContext(ctx, "Ledger reconcile completed",
		"exported", res.Exported,
		"deleted", res.Deleted,
		"unchanged", res.Unchanged,
		"errors", len(errs))

	return res, errors.Join(errs...)
}

type nameIndex struct {
	tournaments map[string]string
	teams       map[string]string
}

func (w *LedgerWorker) loadNames(ctx context.Context) (nameIndex, error) {
	tournaments, err := w.store.Tournaments.Filter(ctx, nil)
	if err != nil {
		return nameIndex{}, fmt.Errorf("list tournaments: %w", err)
	}
	teams, err := w.store.Teams.Filter(ctx, nil)
	if err != nil {
		return nameIndex{}, fmt.Errorf("list teams: %w", err)
	}
	idx := nameIndex{
		tournaments: make(map[string]string, len(tournaments)),
		teams:       make(map[string]string, len(teams)),
	}
	for _, t := range tournaments {
		idx.tournaments[t.ID] = t.Name
	}
	for _, t := range teams {
		idx.teams[t.ID] = t.Name
	}
	return idx, nil
}

func (n nameIndex) row(tx core.FinanceTransaction) sheets.LedgerRow {
	tournament, ok := n.tournaments[tx.TournamentID]
	if !ok {
		tournament = ledger.UnknownName
	}
	team := ledger.UnassignedName
	if tx.TeamID != "" {
		if name, ok := n.teams[tx.TeamID]; ok {
			team = name
		} else {
			team = ledger.UnknownName
		}
	}
	return sheets.LedgerRow{
		ID:          tx.ID,
		Tournament:  tournament,
		Date:        tx.Date.String(),
		Category:    string(tx.Category),
		Team:        team,
		Description: tx.Description,
		Amount:      tx.Amount,
	}
}
