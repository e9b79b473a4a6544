// Package ledger aggregates finance transactions into totals, category
// buckets and per-team or per-tournament breakdowns. All functions are pure.
package ledger

import (
	"sort"

	"tourney/internal/core"
)

// AllTeams is the team filter value that keeps every transaction.
const AllTeams = "all"

const (
	LabelFlights = "Flights"
	LabelHotels  = "Hotels"
	LabelMisc    = "Misc"

	UnknownName    = "Unknown"
	UnassignedName = "Unassigned"
)

// Summarize totals the transactions and buckets them by category.
// Flight and Hotel get their own buckets; every other category lands in Misc.
func Summarize(txs []core.FinanceTransaction) core.Summary {
	var s core.Summary
	for _, tx := range txs {
		s.Total = s.Total.Add(tx.Amount)
		switch tx.Category {
		case core.CategoryFlight:
			s.Flights = s.Flights.Add(tx.Amount)
		case core.CategoryHotel:
			s.Hotels = s.Hotels.Add(tx.Amount)
		default:
			s.Misc = s.Misc.Add(tx.Amount)
		}
	}
	return s
}

// Distribution lists the nonzero buckets in Flights, Hotels, Misc order.
func Distribution(s core.Summary) []core.Slice {
	out := make([]core.Slice, 0, 3)
	for _, sl := range []core.Slice{
		{Label: LabelFlights, Value: s.Flights},
		{Label: LabelHotels, Value: s.Hotels},
		{Label: LabelMisc, Value: s.Misc},
	} {
		if !sl.Value.IsZero() {
			out = append(out, sl)
		}
	}
	return out
}

// FilterByTeam keeps the transactions attributed to teamID.
// AllTeams returns the input unchanged. Unattributed transactions never
// match a specific team.
func FilterByTeam(txs []core.FinanceTransaction, teamID string) []core.FinanceTransaction {
	if teamID == AllTeams {
		return txs
	}
	out := make([]core.FinanceTransaction, 0, len(txs))
	for _, tx := range txs {
		if tx.TeamID != "" && tx.TeamID == teamID {
			out = append(out, tx)
		}
	}
	return out
}

// SpendByTeam groups spend per team, largest first.
// Team ids that do not resolve are shown as Unknown; transactions without a
// team are grouped under Unassigned.
func SpendByTeam(txs []core.FinanceTransaction, teams []core.Team) []core.TeamSpend {
	names := make(map[string]string, len(teams))
	for _, t := range teams {
		names[t.ID] = t.Name
	}

	idx := make(map[string]int)
	var out []core.TeamSpend
	for _, tx := range txs {
		i, ok := idx[tx.TeamID]
		if !ok {
			row := core.TeamSpend{TeamID: tx.TeamID}
			switch name, found := names[tx.TeamID]; {
			case tx.TeamID == "":
				row.TeamName = UnassignedName
			case found:
				row.TeamName = name
			default:
				row.TeamName = UnknownName
			}
			out = append(out, row)
			i = len(out) - 1
			idx[tx.TeamID] = i
		}
		out[i].Total = out[i].Total.Add(tx.Amount)
		out[i].Count++
	}

	sort.SliceStable(out, func(a, b int) bool {
		if out[a].Total.Cents != out[b].Total.Cents {
			return out[a].Total.Cents > out[b].Total.Cents
		}
		return out[a].TeamName < out[b].TeamName
	})
	return out
}

// SummarizeByTournament builds the cross-tournament ledger. Rows follow the
// order of tournaments, then any tournament ids only seen on transactions.
func SummarizeByTournament(txs []core.FinanceTransaction, tournaments []core.Tournament) core.MasterSummary {
	byID := make(map[string][]core.FinanceTransaction)
	var order []string
	for _, tx := range txs {
		if _, seen := byID[tx.TournamentID]; !seen {
			order = append(order, tx.TournamentID)
		}
		byID[tx.TournamentID] = append(byID[tx.TournamentID], tx)
	}

	overall := Summarize(txs)
	master := core.MasterSummary{
		Overall:      overall,
		Distribution: Distribution(overall),
		ByTournament: make([]core.TournamentSpend, 0, len(tournaments)),
		Transactions: len(txs),
	}

	listed := make(map[string]bool, len(tournaments))
	for _, t := range tournaments {
		listed[t.ID] = true
		master.ByTournament = append(master.ByTournament, core.TournamentSpend{
			TournamentID:   t.ID,
			TournamentName: t.Name,
			Summary:        Summarize(byID[t.ID]),
		})
	}
	for _, id := range order {
		if listed[id] {
			continue
		}
		master.ByTournament = append(master.ByTournament, core.TournamentSpend{
			TournamentID:   id,
			TournamentName: UnknownName,
			Summary:        Summarize(byID[id]),
		})
	}
	return master
}
