package ledger

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tourney/internal/core"
)

func tx(id, team string, cat core.Category, units int64) core.FinanceTransaction {
	return core.FinanceTransaction{
		ID:           id,
		TournamentID: "t1",
		TeamID:       team,
		Category:     cat,
		Amount:       core.NewMoney(units, 0),
	}
}

func sample() []core.FinanceTransaction {
	return []core.FinanceTransaction{
		tx("1", "a", core.CategoryFlight, 500),
		tx("2", "b", core.CategoryHotel, 300),
		tx("3", "a", core.CategoryMeals, 50),
		tx("4", "", core.CategoryMisc, 20),
		tx("5", "b", core.Category("Parking"), 5),
	}
}

func TestSummarizeBuckets(t *testing.T) {
	txs := []core.FinanceTransaction{
		tx("1", "", core.CategoryFlight, 500),
		tx("2", "", core.CategoryHotel, 300),
		tx("3", "", core.CategoryMeals, 50),
	}

	s := Summarize(txs)

	assert.Equal(t, core.NewMoney(850, 0), s.Total)
	assert.Equal(t, core.NewMoney(500, 0), s.Flights)
	assert.Equal(t, core.NewMoney(300, 0), s.Hotels)
	assert.Equal(t, core.NewMoney(50, 0), s.Misc)
	assert.Equal(t, []core.Slice{
		{Label: LabelFlights, Value: core.NewMoney(500, 0)},
		{Label: LabelHotels, Value: core.NewMoney(300, 0)},
		{Label: LabelMisc, Value: core.NewMoney(50, 0)},
	}, Distribution(s))
}

func TestSummarizeTotalsAreConsistent(t *testing.T) {
	txs := sample()
	s := Summarize(txs)

	var manual int64
	for _, f := range txs {
		manual += f.Amount.Cents
	}
	assert.Equal(t, manual, s.Total.Cents)
	assert.Equal(t, s.Total, s.Flights.Add(s.Hotels).Add(s.Misc))
	// Meals, Misc and unknown categories fold into Misc.
	assert.Equal(t, core.NewMoney(75, 0), s.Misc)
}

func TestSummarizeEmpty(t *testing.T) {
	s := Summarize(nil)
	assert.Equal(t, core.Summary{}, s)
	assert.Empty(t, Distribution(s))
}

func TestDistributionOmitsZeroBuckets(t *testing.T) {
	s := Summarize([]core.FinanceTransaction{tx("1", "", core.CategoryMeals, 12)})
	assert.Equal(t, []core.Slice{{Label: LabelMisc, Value: core.NewMoney(12, 0)}}, Distribution(s))
}

func TestFilterByTeamAllReturnsInput(t *testing.T) {
	txs := sample()
	got := FilterByTeam(txs, AllTeams)
	assert.Equal(t, txs, got)
}

func TestFilterByTeamSpecific(t *testing.T) {
	txs := sample()
	got := FilterByTeam(txs, "a")

	require.Len(t, got, 2)
	var manual int64
	for _, f := range got {
		assert.Equal(t, "a", f.TeamID)
		manual += f.Amount.Cents
	}
	assert.Equal(t, manual, Summarize(got).Total.Cents)
	assert.Equal(t, []string{"1", "3"}, []string{got[0].ID, got[1].ID})
}

func TestFilterByTeamExcludesUnattributed(t *testing.T) {
	got := FilterByTeam(sample(), "")
	assert.Empty(t, got)

	got = FilterByTeam(sample(), "missing")
	assert.Empty(t, got)
}

func TestSpendByTeam(t *testing.T) {
	teams := []core.Team{{ID: "a", Name: "Lions"}}
	rows := SpendByTeam(sample(), teams)

	require.Len(t, rows, 3)
	assert.Equal(t, "Lions", rows[0].TeamName)
	assert.Equal(t, core.NewMoney(550, 0), rows[0].Total)
	assert.Equal(t, 2, rows[0].Count)
	assert.Equal(t, UnknownName, rows[1].TeamName)
	assert.Equal(t, core.NewMoney(305, 0), rows[1].Total)
	assert.Equal(t, UnassignedName, rows[2].TeamName)
}

func TestSummarizeByTournament(t *testing.T) {
	txs := []core.FinanceTransaction{
		{TournamentID: "t1", Category: core.CategoryFlight, Amount: core.NewMoney(100, 0)},
		{TournamentID: "t2", Category: core.CategoryHotel, Amount: core.NewMoney(40, 0)},
		{TournamentID: "gone", Category: core.CategoryMisc, Amount: core.NewMoney(1, 0)},
	}
	tournaments := []core.Tournament{{ID: "t1", Name: "Spring"}, {ID: "t2", Name: "Summer"}, {ID: "t3", Name: "Fall"}}

	m := SummarizeByTournament(txs, tournaments)

	assert.Equal(t, core.NewMoney(141, 0), m.Overall.Total)
	assert.Equal(t, 3, m.Transactions)
	require.Len(t, m.ByTournament, 4)
	assert.Equal(t, "Spring", m.ByTournament[0].TournamentName)
	assert.Equal(t, core.NewMoney(100, 0), m.ByTournament[0].Summary.Flights)
	assert.True(t, m.ByTournament[2].Summary.Total.IsZero())
	assert.Equal(t, UnknownName, m.ByTournament[3].TournamentName)
}
