package worker

import (
	"context"
	"testing"

	"tourney/internal/amqp"
	"tourney/internal/core"
	"tourney/internal/ledger"
	"tourney/internal/sheets"
	sheetsmem "tourney/internal/sheets/memory"
	"tourney/internal/store"
	"tourney/internal/store/memory"
)

type fixture struct {
	store      *store.Store
	exporter   *sheetsmem.Exporter
	worker     *LedgerWorker
	tournament core.Tournament
	team       core.Team
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	ctx := context.Background()
	st := memory.New()
	exp := sheetsmem.New()

	tournament, err := st.Tournaments.Create(ctx, core.Tournament{Name: "Spring Open", Status: core.StatusScheduled, HousingRequired: true})
	if err != nil {
		t.Fatalf("create tournament: %v", err)
	}
	team, err := st.Teams.Create(ctx, core.Team{Name: "Falcons"})
	if err != nil {
		t.Fatalf("create team: %v", err)
	}
	return &fixture{store: st, exporter: exp, worker: NewLedgerWorker(st, exp), tournament: tournament, team: team}
}

func (f *fixture) addTx(t *testing.T, teamID string, cents int64) core.FinanceTransaction {
	t.Helper()
	tx, err := f.store.Transactions.Create(context.Background(), core.FinanceTransaction{
		TournamentID: f.tournament.ID,
		TeamID:       teamID,
		Category:     core.CategoryFlight,
		Amount:       core.Money{Cents: cents},
		Description:  "Charter",
		Date:         core.NewDate(2025, 3, 14),
	})
	if err != nil {
		t.Fatalf("create transaction: %v", err)
	}
	return tx
}

func event(entity core.EntityType, action amqp.Action, id string) *amqp.MutationMessage {
	return &amqp.MutationMessage{Entity: entity, Action: action, EntityID: id, Origin: "test"}
}

func TestHandleMutationExportsTransaction(t *testing.T) {
	f := newFixture(t)
	tx := f.addTx(t, f.team.ID, 125050)

	if err := f.worker.HandleMutation(context.Background(), event(core.EntityFinanceTransaction, amqp.ActionCreated, tx.ID)); err != nil {
		t.Fatalf("HandleMutation: %v", err)
	}

	row, ok := f.exporter.Row(tx.ID)
	if !ok {
		t.Fatal("expected exported row")
	}
	want := sheets.LedgerRow{
		ID:          tx.ID,
		Tournament:  "Spring Open",
		Date:        "2025-03-14",
		Category:    "Flight",
		Team:        "Falcons",
		Description: "Charter",
		Amount:      core.Money{Cents: 125050},
	}
	if row != want {
		t.Errorf("row = %+v, want %+v", row, want)
	}
}

func TestHandleMutationUnassignedTeam(t *testing.T) {
	f := newFixture(t)
	tx := f.addTx(t, "", 1000)

	if err := f.worker.HandleMutation(context.Background(), event(core.EntityFinanceTransaction, amqp.ActionCreated, tx.ID)); err != nil {
		t.Fatalf("HandleMutation: %v", err)
	}
	row, _ := f.exporter.Row(tx.ID)
	if row.Team != ledger.UnassignedName {
		t.Errorf("team = %q, want %q", row.Team, ledger.UnassignedName)
	}
}

func TestHandleMutationDeletedTransaction(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	tx := f.addTx(t, f.team.ID, 1000)
	f.worker.HandleMutation(ctx, event(core.EntityFinanceTransaction, amqp.ActionCreated, tx.ID))

	if err := f.store.Transactions.Delete(ctx, tx.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if err := f.worker.HandleMutation(ctx, event(core.EntityFinanceTransaction, amqp.ActionDeleted, tx.ID)); err != nil {
		t.Fatalf("HandleMutation: %v", err)
	}
	if _, ok := f.exporter.Row(tx.ID); ok {
		t.Error("row should be removed after delete event")
	}
}

func TestHandleMutationStaleUpdateRemovesRow(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	tx := f.addTx(t, f.team.ID, 1000)
	f.worker.HandleMutation(ctx, event(core.EntityFinanceTransaction, amqp.ActionCreated, tx.ID))

	// The delete event may arrive after the update event for the same record.
	f.store.Transactions.Delete(ctx, tx.ID)
	if err := f.worker.HandleMutation(ctx, event(core.EntityFinanceTransaction, amqp.ActionUpdated, tx.ID)); err != nil {
		t.Fatalf("HandleMutation: %v", err)
	}
	if _, ok := f.exporter.Row(tx.ID); ok {
		t.Error("row for a vanished transaction should be removed")
	}
}

func TestHandleMutationRenameReexports(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	tx := f.addTx(t, f.team.ID, 1000)
	f.worker.HandleMutation(ctx, event(core.EntityFinanceTransaction, amqp.ActionCreated, tx.ID))

	team := f.team
	team.Name = "Hawks"
	if _, err := f.store.Teams.Update(ctx, team); err != nil {
		t.Fatalf("update team: %v", err)
	}
	if err := f.worker.HandleMutation(ctx, event(core.EntityTeam, amqp.ActionUpdated, team.ID)); err != nil {
		t.Fatalf("HandleMutation: %v", err)
	}
	row, _ := f.exporter.Row(tx.ID)
	if row.Team != "Hawks" {
		t.Errorf("team = %q, want Hawks", row.Team)
	}

	tournament := f.tournament
	tournament.Name = "Spring Classic"
	if _, err := f.store.Tournaments.Update(ctx, tournament); err != nil {
		t.Fatalf("update tournament: %v", err)
	}
	if err := f.worker.HandleMutation(ctx, event(core.EntityTournament, amqp.ActionUpdated, tournament.ID)); err != nil {
		t.Fatalf("HandleMutation: %v", err)
	}
	row, _ = f.exporter.Row(tx.ID)
	if row.Tournament != "Spring Classic" {
		t.Errorf("tournament = %q, want Spring Classic", row.Tournament)
	}
}

func TestHandleMutationIgnoresOtherEntities(t *testing.T) {
	f := newFixture(t)
	if err := f.worker.HandleMutation(context.Background(), event(core.EntityRoom, amqp.ActionCreated, "room-1")); err != nil {
		t.Fatalf("HandleMutation: %v", err)
	}
	rows, _ := f.exporter.ListRows(context.Background())
	if len(rows) != 0 {
		t.Errorf("expected no rows, got %d", len(rows))
	}
}

func TestReconcile(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	fresh := f.addTx(t, f.team.ID, 1000)
	stale := f.addTx(t, f.team.ID, 2000)
	missing := f.addTx(t, "", 3000)

	f.worker.HandleMutation(ctx, event(core.EntityFinanceTransaction, amqp.ActionCreated, fresh.ID))
	f.exporter.Upsert(ctx, sheets.LedgerRow{ID: stale.ID, Amount: core.Money{Cents: 1}})
	f.exporter.Upsert(ctx, sheets.LedgerRow{ID: "orphan"})

	res, err := f.worker.Reconcile(ctx)
	if err != nil {
		t.Fatalf("Reconcile: %v", err)
	}
	if res.Exported != 2 || res.Deleted != 1 || res.Unchanged != 1 {
		t.Errorf("result = %+v, want exported=2 deleted=1 unchanged=1", res)
	}
	if _, ok := f.exporter.Row("orphan"); ok {
		t.Error("orphan row should be removed")
	}
	if row, _ := f.exporter.Row(stale.ID); row.Amount.Cents != 2000 {
		t.Errorf("stale row amount = %d, want 2000", row.Amount.Cents)
	}
	if _, ok := f.exporter.Row(missing.ID); !ok {
		t.Error("missing row should be exported")
	}
}

func TestRoutingKeys(t *testing.T) {
	keys := RoutingKeys()
	want := map[string]bool{
		"mutation.finance_transaction": true,
		"mutation.tournament":          true,
		"mutation.team":                true,
	}
	if len(keys) != len(want) {
		t.Fatalf("got %v", keys)
	}
	for _, k := range keys {
		if !want[k] {
			t.Errorf("unexpected routing key %q", k)
		}
	}
}
