package services

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tourney/internal/amqp"
	"tourney/internal/cache"
	"tourney/internal/core"
	applog "tourney/internal/log"
	"tourney/internal/store/memory"
)

func TestCreateTournament(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)

	t.Run("defaults status", func(t *testing.T) {
		tr, err := env.mut.CreateTournament(ctx, CreateTournamentRequest{Name: "  Spring Open ", HousingRequired: boolPtr(true)})
		require.NoError(t, err)
		assert.NotEmpty(t, tr.ID)
		assert.Equal(t, "Spring Open", tr.Name)
		assert.Equal(t, core.StatusScheduled, tr.Status)
		assert.True(t, tr.HousingRequired)
	})

	t.Run("housing flag required", func(t *testing.T) {
		_, err := env.mut.CreateTournament(ctx, CreateTournamentRequest{Name: "Fall Cup"})
		requireValidation(t, err, "housing_required")
	})

	t.Run("unknown status", func(t *testing.T) {
		_, err := env.mut.CreateTournament(ctx, CreateTournamentRequest{Name: "Fall Cup", Status: "Postponed", HousingRequired: boolPtr(false)})
		requireValidation(t, err, "status")
	})

	t.Run("bad date", func(t *testing.T) {
		_, err := env.mut.CreateTournament(ctx, CreateTournamentRequest{Name: "Fall Cup", StartDate: "2025-13-01", HousingRequired: boolPtr(false)})
		requireValidation(t, err, "start_date")
	})

	t.Run("end before start", func(t *testing.T) {
		_, err := env.mut.CreateTournament(ctx, CreateTournamentRequest{
			Name: "Fall Cup", StartDate: "2025-10-10", EndDate: "2025-10-01", HousingRequired: boolPtr(false),
		})
		requireValidation(t, err, "end_date")
	})
}

func TestUpdateTournamentPatchesOnlyGivenFields(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	tr := env.tournament(t, "Spring Open", true)

	updated, err := env.mut.UpdateTournament(ctx, tr.ID, UpdateTournamentRequest{Status: strPtr("In Progress")})
	require.NoError(t, err)
	assert.Equal(t, core.StatusInProgress, updated.Status)
	assert.Equal(t, "Spring Open", updated.Name)
	assert.True(t, updated.HousingRequired)

	_, err = env.mut.UpdateTournament(ctx, "missing", UpdateTournamentRequest{Name: strPtr("x")})
	assert.ErrorIs(t, err, core.ErrNotFound)
}

func TestCreateTransactionValidation(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	housed := env.tournament(t, "Spring Open", true)
	unhoused := env.tournament(t, "Local Meet", false)

	tests := []struct {
		name         string
		tournamentID string
		req          CreateTransactionRequest
		field        string
		notFound     bool
	}{
		{"negative amount", housed.ID, CreateTransactionRequest{Category: "Flight", Amount: "-5"}, "amount", false},
		{"non-numeric amount", housed.ID, CreateTransactionRequest{Category: "Flight", Amount: "abc"}, "amount", false},
		{"missing amount", housed.ID, CreateTransactionRequest{Category: "Flight"}, "amount", false},
		{"unknown category", housed.ID, CreateTransactionRequest{Category: "Taxi", Amount: "5"}, "category", false},
		{"housing not required", unhoused.ID, CreateTransactionRequest{Category: "Flight", Amount: "5"}, "tournament_id", false},
		{"unknown team", housed.ID, CreateTransactionRequest{TeamID: "ghost", Category: "Flight", Amount: "5"}, "", true},
		{"unknown tournament", "ghost", CreateTransactionRequest{Category: "Flight", Amount: "5"}, "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := env.mut.CreateTransaction(ctx, tt.tournamentID, tt.req)
			if tt.notFound {
				assert.ErrorIs(t, err, core.ErrNotFound)
				return
			}
			requireValidation(t, err, tt.field)
		})
	}

	txs, err := env.store.Transactions.Filter(ctx, nil)
	require.NoError(t, err)
	assert.Empty(t, txs, "rejected writes must not reach the store")
}

func TestCreateTransactionParsesAmount(t *testing.T) {
	env := newTestEnv(t)
	tr := env.tournament(t, "Spring Open", true)

	tx := env.transaction(t, tr.ID, "", "Hotel", "12,345")
	assert.Equal(t, int64(1235), tx.Amount.Cents)
	assert.Equal(t, core.CategoryHotel, tx.Category)
}

func TestUpdateAndDeleteTransaction(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	tr := env.tournament(t, "Spring Open", true)
	team := env.team(t, "Falcons")
	tx := env.transaction(t, tr.ID, "", "Flight", "100")

	amount := jsonNumber("250.50")
	updated, err := env.mut.UpdateTransaction(ctx, tx.ID, UpdateTransactionRequest{TeamID: strPtr(team.ID), Amount: &amount})
	require.NoError(t, err)
	assert.Equal(t, team.ID, updated.TeamID)
	assert.Equal(t, int64(25050), updated.Amount.Cents)
	assert.Equal(t, core.CategoryFlight, updated.Category)

	require.NoError(t, env.mut.DeleteTransaction(ctx, tx.ID))
	_, err = env.store.Transactions.Get(ctx, tx.ID)
	assert.ErrorIs(t, err, core.ErrNotFound)
	assert.ErrorIs(t, env.mut.DeleteTransaction(ctx, tx.ID), core.ErrNotFound)
}

func TestCreateRoomValidation(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	housed := env.tournament(t, "Spring Open", true)
	unhoused := env.tournament(t, "Local Meet", false)
	other := env.tournament(t, "Other", true)
	coach := env.coach(t, housed.ID, "Dana", "")
	foreign := env.coach(t, other.ID, "Lee", "")

	t.Run("missing cost per night", func(t *testing.T) {
		_, err := env.mut.CreateRoom(ctx, housed.ID, CreateRoomRequest{Nights: "2"})
		requireValidation(t, err, "cost_per_night")
	})
	t.Run("fractional nights", func(t *testing.T) {
		_, err := env.mut.CreateRoom(ctx, housed.ID, CreateRoomRequest{CostPerNight: "100", Nights: "2.5"})
		requireValidation(t, err, "nights")
	})
	t.Run("negative nights", func(t *testing.T) {
		_, err := env.mut.CreateRoom(ctx, housed.ID, CreateRoomRequest{CostPerNight: "100", Nights: "-1"})
		requireValidation(t, err, "nights")
	})
	t.Run("nights beyond a year", func(t *testing.T) {
		_, err := env.mut.CreateRoom(ctx, housed.ID, CreateRoomRequest{CostPerNight: "1000000", Nights: "99999999999999"})
		requireValidation(t, err, "nights")
	})
	t.Run("cost above cap", func(t *testing.T) {
		_, err := env.mut.CreateRoom(ctx, housed.ID, CreateRoomRequest{CostPerNight: "1000000000.01", Nights: "1"})
		requireValidation(t, err, "cost_per_night")
	})
	t.Run("housing not required", func(t *testing.T) {
		_, err := env.mut.CreateRoom(ctx, unhoused.ID, CreateRoomRequest{CostPerNight: "100", Nights: "2"})
		requireValidation(t, err, "tournament_id")
	})
	t.Run("duplicate occupant", func(t *testing.T) {
		_, err := env.mut.CreateRoom(ctx, housed.ID, CreateRoomRequest{CostPerNight: "100", Nights: "2", Occupants: []string{coach.ID, coach.ID}})
		requireValidation(t, err, "occupants")
	})
	t.Run("unknown occupant", func(t *testing.T) {
		_, err := env.mut.CreateRoom(ctx, housed.ID, CreateRoomRequest{CostPerNight: "100", Nights: "2", Occupants: []string{"ghost"}})
		assert.ErrorIs(t, err, core.ErrNotFound)
	})
	t.Run("coach from another tournament", func(t *testing.T) {
		_, err := env.mut.CreateRoom(ctx, housed.ID, CreateRoomRequest{CostPerNight: "100", Nights: "2", Occupants: []string{foreign.ID}})
		assert.ErrorIs(t, err, core.ErrNotFound)
	})
	t.Run("valid", func(t *testing.T) {
		room, err := env.mut.CreateRoom(ctx, housed.ID, CreateRoomRequest{
			RoomNumber: "101", Hotel: "Marriott", CostPerNight: "89.99", Nights: "3", Occupants: []string{coach.ID},
		})
		require.NoError(t, err)
		assert.Equal(t, int64(26997), room.TotalCost().Cents)
		assert.Equal(t, []string{coach.ID}, room.Occupants)
	})
}

func TestUpdateRoomKeepsOccupantsWhenAbsent(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	tr := env.tournament(t, "Spring Open", true)
	coach := env.coach(t, tr.ID, "Dana", "")
	room, err := env.mut.CreateRoom(ctx, tr.ID, CreateRoomRequest{CostPerNight: "100", Nights: "1", Occupants: []string{coach.ID}})
	require.NoError(t, err)

	nights := jsonNumber("4")
	updated, err := env.mut.UpdateRoom(ctx, room.ID, UpdateRoomRequest{Nights: &nights})
	require.NoError(t, err)
	assert.Equal(t, 4, updated.Nights)
	assert.Equal(t, []string{coach.ID}, updated.Occupants)

	empty := []string{}
	updated, err = env.mut.UpdateRoom(ctx, room.ID, UpdateRoomRequest{Occupants: &empty})
	require.NoError(t, err)
	assert.Empty(t, updated.Occupants)
}

func TestLinkTeam(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	tr := env.tournament(t, "Spring Open", false)
	team := env.team(t, "Falcons")

	link, err := env.mut.LinkTeam(ctx, tr.ID, LinkTeamRequest{TeamID: team.ID})
	require.NoError(t, err)

	_, err = env.mut.LinkTeam(ctx, tr.ID, LinkTeamRequest{TeamID: team.ID})
	requireValidation(t, err, "team_id")

	_, err = env.mut.LinkTeam(ctx, tr.ID, LinkTeamRequest{TeamID: "ghost"})
	assert.ErrorIs(t, err, core.ErrNotFound)

	require.NoError(t, env.mut.UnlinkTeam(ctx, link.ID))
	_, err = env.mut.LinkTeam(ctx, tr.ID, LinkTeamRequest{TeamID: team.ID})
	assert.NoError(t, err, "team can be linked again after unlinking")
}

func TestReminderStatusTransitions(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	tr := env.tournament(t, "Spring Open", false)

	r, err := env.mut.CreateReminder(ctx, tr.ID, CreateReminderRequest{Description: "Book buses", DueDate: "2025-05-01"})
	require.NoError(t, err)
	assert.Equal(t, core.ReminderToDo, r.Status)

	r, err = env.mut.SetReminderStatus(ctx, r.ID, ReminderStatusRequest{Status: "Done"})
	require.NoError(t, err)
	assert.Equal(t, core.ReminderDone, r.Status)

	r, err = env.mut.SetReminderStatus(ctx, r.ID, ReminderStatusRequest{Status: "To Do"})
	require.NoError(t, err, "done reminders can be reopened")
	assert.Equal(t, core.ReminderToDo, r.Status)

	_, err = env.mut.SetReminderStatus(ctx, r.ID, ReminderStatusRequest{Status: "Blocked"})
	requireValidation(t, err, "status")

	_, err = env.mut.UpdateReminder(ctx, r.ID, UpdateReminderRequest{Description: strPtr("")})
	requireValidation(t, err, "description")
}

func TestDeleteCoachLeavesRoomOccupant(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	tr := env.tournament(t, "Spring Open", true)
	coach := env.coach(t, tr.ID, "Dana", "")
	room, err := env.mut.CreateRoom(ctx, tr.ID, CreateRoomRequest{CostPerNight: "100", Nights: "1", Occupants: []string{coach.ID}})
	require.NoError(t, err)

	require.NoError(t, env.mut.DeleteCoach(ctx, coach.ID))

	stored, err := env.store.Rooms.Get(ctx, room.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{coach.ID}, stored.Occupants)
}

func TestMutationPublishesEvents(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	tr := env.tournament(t, "Spring Open", true)

	msg := env.pub.last()
	require.NotNil(t, msg)
	assert.Equal(t, core.EntityTournament, msg.Entity)
	assert.Equal(t, amqp.ActionCreated, msg.Action)
	assert.Equal(t, tr.ID, msg.EntityID)
	assert.Equal(t, testOrigin, msg.Origin)

	tx := env.transaction(t, tr.ID, "", "Meals", "20")
	msg = env.pub.last()
	assert.Equal(t, core.EntityFinanceTransaction, msg.Entity)
	assert.Equal(t, tr.ID, msg.TournamentID)

	var decoded core.FinanceTransaction
	require.NoError(t, msg.DecodeRecord(&decoded))
	assert.Equal(t, tx.ID, decoded.ID)

	require.NoError(t, env.mut.DeleteTransaction(ctx, tx.ID))
	msg = env.pub.last()
	assert.Equal(t, amqp.ActionDeleted, msg.Action)
	assert.Empty(t, msg.Record)
}

func TestMutationSurvivesPublishFailure(t *testing.T) {
	env := newTestEnv(t)
	env.pub.err = errors.New("broker down")

	tr := env.tournament(t, "Spring Open", true)
	_, err := env.store.Tournaments.Get(context.Background(), tr.ID)
	assert.NoError(t, err)
}

func TestMutationWithoutPublisher(t *testing.T) {
	st := memory.New()
	mut := NewMutationService(st, cache.NewInvalidator(cache.NewMemoryGenerations()), nil, testOrigin)

	_, err := mut.CreateTeam(context.Background(), CreateTeamRequest{Name: "Falcons"})
	assert.NoError(t, err)
}

func TestMutationBumpsGenerations(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	tr := env.tournament(t, "Spring Open", true)

	scoped := cache.NewKey(core.EntityFinanceTransaction, tr.ID)
	all := cache.NewKey(core.EntityFinanceTransaction, cache.ScopeAll)
	beforeScoped, _ := env.gens.Current(ctx, scoped)
	beforeAll, _ := env.gens.Current(ctx, all)

	env.transaction(t, tr.ID, "", "Flight", "10")

	afterScoped, _ := env.gens.Current(ctx, scoped)
	afterAll, _ := env.gens.Current(ctx, all)
	assert.Greater(t, afterScoped, beforeScoped)
	assert.Greater(t, afterAll, beforeAll)

	// Rejected writes leave generations alone.
	_, err := env.mut.CreateTransaction(ctx, tr.ID, CreateTransactionRequest{Category: "Flight", Amount: "-1"})
	require.Error(t, err)
	unchanged, _ := env.gens.Current(ctx, scoped)
	assert.Equal(t, afterScoped, unchanged)
}

func TestMutationLogTagsComponentOnce(t *testing.T) {
	env := newTestEnv(t)
	var buf bytes.Buffer
	logger := applog.New(applog.Config{
		Component: applog.ComponentHTTP,
		Handler:   slog.NewTextHandler(&buf, nil),
	})
	ctx := applog.NewContext(context.Background(), logger.With(applog.FieldRequestID, "req_1"))

	_, err := env.mut.CreateTeam(ctx, CreateTeamRequest{Name: "Lions"})
	require.NoError(t, err)

	var line string
	for _, l := range strings.Split(buf.String(), "\n") {
		if strings.Contains(l, "Mutation committed") {
			line = l
		}
	}
	require.NotEmpty(t, line, buf.String())
	assert.Equal(t, 1, strings.Count(line, "component="), line)
	assert.Contains(t, line, "component=mutation")
	assert.Contains(t, line, "request_id=req_1")
}

func TestInvalidationScope(t *testing.T) {
	assert.Equal(t, "t1", invalidationScope(core.EntityTournament, "t1", ""))
	assert.Equal(t, cache.ScopeAll, invalidationScope(core.EntityTeam, "team-1", ""))
	assert.Equal(t, "t9", invalidationScope(core.EntityRoom, "room-1", "t9"))
	assert.Equal(t, "t9", invalidationScope(core.EntityFinanceTransaction, "tx-1", "t9"))
}

func TestIsClientError(t *testing.T) {
	assert.True(t, IsClientError(core.NewValidationError("amount", "bad")))
	assert.True(t, IsClientError(core.NewNotFoundError(core.EntityRoom, "r1")))
	assert.False(t, IsClientError(core.NewStoreUnavailable("filter", errors.New("timeout"))))
	assert.False(t, IsClientError(errors.New("boom")))
}
