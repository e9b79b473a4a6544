package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tourney/internal/core"
	"tourney/internal/ledger"
	"tourney/internal/reminders"
	"tourney/internal/rooming"
)

func TestFinanceReadsThroughCache(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	tr := env.tournament(t, "Spring Open", true)
	env.transaction(t, tr.ID, "", "Flight", "100")

	view, err := env.dash.Finance(ctx, tr.ID, ledger.AllTeams)
	require.NoError(t, err)
	require.NotNil(t, view.Summary)
	assert.Equal(t, int64(10000), view.Summary.Total.Cents)

	// A write that bypasses the mutation path does not bump generations,
	// so the cached view is served.
	_, err = env.store.Transactions.Create(ctx, core.FinanceTransaction{
		TournamentID: tr.ID, Category: core.CategoryMisc, Amount: core.Money{Cents: 500},
	})
	require.NoError(t, err)
	view, err = env.dash.Finance(ctx, tr.ID, ledger.AllTeams)
	require.NoError(t, err)
	assert.Equal(t, int64(10000), view.Summary.Total.Cents)

	// A write through the mutation path invalidates and the next read sees
	// every stored transaction.
	env.transaction(t, tr.ID, "", "Hotel", "50")
	view, err = env.dash.Finance(ctx, tr.ID, ledger.AllTeams)
	require.NoError(t, err)
	assert.Equal(t, int64(15500), view.Summary.Total.Cents)
	assert.Equal(t, int64(10000), view.Summary.Flights.Cents)
	assert.Equal(t, int64(5000), view.Summary.Hotels.Cents)
	assert.Equal(t, int64(500), view.Summary.Misc.Cents)
	assert.Len(t, view.Transactions, 3)
}

func TestFinanceTeamFilter(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	tr := env.tournament(t, "Spring Open", true)
	falcons := env.team(t, "Falcons")
	hawks := env.team(t, "Hawks")
	env.transaction(t, tr.ID, falcons.ID, "Flight", "300")
	env.transaction(t, tr.ID, hawks.ID, "Meals", "40")
	env.transaction(t, tr.ID, "", "Misc", "10")

	view, err := env.dash.Finance(ctx, tr.ID, falcons.ID)
	require.NoError(t, err)
	assert.Equal(t, falcons.ID, view.Team)
	assert.Equal(t, int64(30000), view.Summary.Total.Cents)
	assert.Len(t, view.Transactions, 1)
	assert.Equal(t, []core.Slice{{Label: ledger.LabelFlights, Value: core.Money{Cents: 30000}}}, view.Distribution)

	// The per-team breakdown always covers the whole tournament.
	require.Len(t, view.ByTeam, 3)
	assert.Equal(t, "Falcons", view.ByTeam[0].TeamName)
	assert.Equal(t, "Hawks", view.ByTeam[1].TeamName)
	assert.Equal(t, ledger.UnassignedName, view.ByTeam[2].TeamName)

	view, err = env.dash.Finance(ctx, tr.ID, "")
	require.NoError(t, err)
	assert.Equal(t, ledger.AllTeams, view.Team)
	assert.Equal(t, int64(35000), view.Summary.Total.Cents)
}

func TestFinanceWithoutHousing(t *testing.T) {
	env := newTestEnv(t)
	tr := env.tournament(t, "Local Meet", false)

	view, err := env.dash.Finance(context.Background(), tr.ID, ledger.AllTeams)
	require.NoError(t, err)
	assert.False(t, view.HousingRequired)
	assert.Nil(t, view.Summary)
	assert.Empty(t, view.Transactions)
}

func TestFinanceUnknownTournament(t *testing.T) {
	env := newTestEnv(t)
	_, err := env.dash.Finance(context.Background(), "ghost", ledger.AllTeams)
	assert.ErrorIs(t, err, core.ErrNotFound)
}

func TestHousingToggleInvalidatesTournamentView(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	tr := env.tournament(t, "Spring Open", true)
	env.transaction(t, tr.ID, "", "Flight", "100")

	view, err := env.dash.Finance(ctx, tr.ID, ledger.AllTeams)
	require.NoError(t, err)
	require.True(t, view.HousingRequired)

	_, err = env.mut.UpdateTournament(ctx, tr.ID, UpdateTournamentRequest{HousingRequired: boolPtr(false)})
	require.NoError(t, err)

	view, err = env.dash.Finance(ctx, tr.ID, ledger.AllTeams)
	require.NoError(t, err)
	assert.False(t, view.HousingRequired)
	assert.Nil(t, view.Summary)
}

func TestMasterFinanceSeesEveryTournament(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	spring := env.tournament(t, "Spring Open", true)
	fall := env.tournament(t, "Fall Cup", true)
	env.transaction(t, spring.ID, "", "Flight", "100")

	master, err := env.dash.MasterFinance(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(10000), master.Overall.Total.Cents)
	assert.Equal(t, 1, master.Transactions)

	// A write scoped to one tournament also invalidates the cross-tournament view.
	env.transaction(t, fall.ID, "", "Hotel", "25")
	master, err = env.dash.MasterFinance(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(12500), master.Overall.Total.Cents)
	assert.Equal(t, 2, master.Transactions)
	require.Len(t, master.ByTournament, 2)
	assert.Equal(t, "Spring Open", master.ByTournament[0].TournamentName)
	assert.Equal(t, int64(2500), master.ByTournament[1].Summary.Total.Cents)
}

func TestRooming(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	tr := env.tournament(t, "Spring Open", true)
	dana := env.coach(t, tr.ID, "Dana", "")
	lee := env.coach(t, tr.ID, "Lee", "needs ground floor")
	sam := env.coach(t, tr.ID, "Sam", "")

	_, err := env.mut.CreateRoom(ctx, tr.ID, CreateRoomRequest{
		RoomNumber: "101", CostPerNight: "100", Nights: "2", Occupants: []string{dana.ID, sam.ID},
	})
	require.NoError(t, err)
	_, err = env.mut.CreateRoom(ctx, tr.ID, CreateRoomRequest{RoomNumber: "102", CostPerNight: "80.50", Nights: "1"})
	require.NoError(t, err)

	view, err := env.dash.Rooming(ctx, tr.ID)
	require.NoError(t, err)
	assert.True(t, view.HousingRequired)
	require.Len(t, view.Rooms, 2)
	assert.Equal(t, []string{"Dana", "Sam"}, view.Rooms[0].OccupantNames)
	assert.Equal(t, int64(20000), view.Rooms[0].TotalCost.Cents)
	require.NotNil(t, view.TotalCost)
	assert.Equal(t, int64(28050), view.TotalCost.Cents)
	require.NotNil(t, view.Occupancy)
	assert.Equal(t, 2, view.Occupancy.Housed)
	assert.Equal(t, 1, view.Occupancy.Unhoused)
	require.Len(t, view.Occupancy.UnassignedWithPreference, 1)
	assert.Equal(t, lee.ID, view.Occupancy.UnassignedWithPreference[0].ID)

	require.NoError(t, env.mut.DeleteCoach(ctx, sam.ID))
	view, err = env.dash.Rooming(ctx, tr.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"Dana", rooming.UnknownName}, view.Rooms[0].OccupantNames)
	assert.Len(t, view.Coaches, 2)
}

func TestRoomingWithoutHousing(t *testing.T) {
	env := newTestEnv(t)
	tr := env.tournament(t, "Local Meet", false)

	view, err := env.dash.Rooming(context.Background(), tr.ID)
	require.NoError(t, err)
	assert.False(t, view.HousingRequired)
	assert.Nil(t, view.Rooms)
	assert.Nil(t, view.Occupancy)
}

func TestRemindersBoard(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	env.dash.now = func() time.Time { return time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC) }
	tr := env.tournament(t, "Spring Open", false)

	create := func(desc, due, status string) {
		_, err := env.mut.CreateReminder(ctx, tr.ID, CreateReminderRequest{Description: desc, DueDate: due, Status: status})
		require.NoError(t, err)
	}
	create("Order shirts", "", "")
	create("Book buses", "2025-05-01", "")
	create("Send roster", "2025-06-02", "In Progress")
	create("Confirm hotel", "2025-07-15", "Done")

	view, err := env.dash.Reminders(ctx, tr.ID)
	require.NoError(t, err)
	require.Len(t, view.Reminders, 4)

	var order []string
	for _, r := range view.Reminders {
		order = append(order, r.Description)
	}
	assert.Equal(t, []string{"Confirm hotel", "Send roster", "Book buses", "Order shirts"}, order)
	assert.Equal(t, reminders.DuenessDone, view.Reminders[0].Dueness)
	assert.Equal(t, reminders.DuenessDueSoon, view.Reminders[1].Dueness)
	assert.Equal(t, reminders.DuenessOverdue, view.Reminders[2].Dueness)
	assert.Equal(t, reminders.DuenessNoDueDate, view.Reminders[3].Dueness)
	assert.Equal(t, 1, view.Overdue)
	assert.Equal(t, 2, view.Counts[core.ReminderToDo])
	assert.Equal(t, 1, view.Counts[core.ReminderInProgress])
	assert.Equal(t, 1, view.Counts[core.ReminderDone])
}

func TestTournamentTeamsFollowRenames(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	tr := env.tournament(t, "Spring Open", false)
	team := env.team(t, "Falcons")
	_, err := env.mut.LinkTeam(ctx, tr.ID, LinkTeamRequest{TeamID: team.ID})
	require.NoError(t, err)

	teams, err := env.dash.TournamentTeams(ctx, tr.ID)
	require.NoError(t, err)
	require.Len(t, teams, 1)
	assert.Equal(t, "Falcons", teams[0].Name)

	_, err = env.mut.UpdateTeam(ctx, team.ID, UpdateTeamRequest{Name: strPtr("Hawks")})
	require.NoError(t, err)

	teams, err = env.dash.TournamentTeams(ctx, tr.ID)
	require.NoError(t, err)
	assert.Equal(t, "Hawks", teams[0].Name)
}

func TestListTournamentsInvalidatedByCreate(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	env.tournament(t, "Spring Open", false)

	list, err := env.dash.ListTournaments(ctx)
	require.NoError(t, err)
	assert.Len(t, list, 1)

	env.tournament(t, "Fall Cup", true)
	list, err = env.dash.ListTournaments(ctx)
	require.NoError(t, err)
	assert.Len(t, list, 2)

	hits, misses := env.dash.views.Tournaments.Stats()
	assert.Equal(t, int64(0), hits)
	assert.Equal(t, int64(2), misses)
}
