package core

// Summary buckets a set of finance transactions.
// Flights + Hotels + Misc always equals Total.
type Summary struct {
	Total   Money `json:"total"`
	Flights Money `json:"flights"`
	Hotels  Money `json:"hotels"`
	Misc    Money `json:"misc"`
}

// Slice is one labelled share of a Summary, used for distribution charts.
type Slice struct {
	Label string `json:"label"`
	Value Money  `json:"value"`
}

// TeamSpend is the amount attributed to a single team.
type TeamSpend struct {
	TeamID   string `json:"team_id,omitempty"`
	TeamName string `json:"team_name"`
	Total    Money  `json:"total"`
	Count    int    `json:"count"`
}

// TournamentSpend is one row of the cross-tournament ledger.
type TournamentSpend struct {
	TournamentID   string  `json:"tournament_id"`
	TournamentName string  `json:"tournament_name"`
	Summary        Summary `json:"summary"`
}

// MasterSummary aggregates finance across all tournaments.
type MasterSummary struct {
	Overall      Summary           `json:"overall"`
	Distribution []Slice           `json:"distribution"`
	ByTournament []TournamentSpend `json:"by_tournament"`
	Transactions int               `json:"transactions"`
}
