package services

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"tourney/internal/cache"
	"tourney/internal/core"
	"tourney/internal/ledger"
	"tourney/internal/reminders"
	"tourney/internal/rooming"
	"tourney/internal/store"
)

// ViewCaches holds one generation-checked cache per collection.
type ViewCaches struct {
	Tournaments  *cache.Views[core.Tournament]
	Teams        *cache.Views[core.Team]
	Links        *cache.Views[core.TournamentTeam]
	Transactions *cache.Views[core.FinanceTransaction]
	Rooms        *cache.Views[core.Room]
	Coaches      *cache.Views[core.CoachTravel]
	Reminders    *cache.Views[core.ActionReminder]
}

func NewViewCaches(gens cache.GenerationStore, maxSize int, ttl time.Duration) *ViewCaches {
	return &ViewCaches{
		Tournaments:  cache.NewViews[core.Tournament]("tournaments", gens, maxSize, ttl),
		Teams:        cache.NewViews[core.Team]("teams", gens, maxSize, ttl),
		Links:        cache.NewViews[core.TournamentTeam]("tournament_teams", gens, maxSize, ttl),
		Transactions: cache.NewViews[core.FinanceTransaction]("transactions", gens, maxSize, ttl),
		Rooms:        cache.NewViews[core.Room]("rooms", gens, maxSize, ttl),
		Coaches:      cache.NewViews[core.CoachTravel]("coaches", gens, maxSize, ttl),
		Reminders:    cache.NewViews[core.ActionReminder]("reminders", gens, maxSize, ttl),
	}
}

// Cleaners lists the caches for periodic expiry.
func (v *ViewCaches) Cleaners() []cache.Cleaner {
	return []cache.Cleaner{v.Tournaments, v.Teams, v.Links, v.Transactions, v.Rooms, v.Coaches, v.Reminders}
}

// FinanceView is the finance tab of one tournament.
type FinanceView struct {
	TournamentID    string                    `json:"tournament_id"`
	HousingRequired bool                      `json:"housing_required"`
	Team            string                    `json:"team"`
	Summary         *core.Summary             `json:"summary,omitempty"`
	Distribution    []core.Slice              `json:"distribution,omitempty"`
	ByTeam          []core.TeamSpend          `json:"by_team,omitempty"`
	Transactions    []core.FinanceTransaction `json:"transactions,omitempty"`
}

// RoomLine is a room with resolved occupant names.
type RoomLine struct {
	core.Room
	OccupantNames []string   `json:"occupant_names"`
	TotalCost     core.Money `json:"total_cost"`
}

// RoomingView is the rooming tab of one tournament.
type RoomingView struct {
	TournamentID    string                   `json:"tournament_id"`
	HousingRequired bool                     `json:"housing_required"`
	Rooms           []RoomLine               `json:"rooms,omitempty"`
	Coaches         []core.CoachTravel       `json:"coaches,omitempty"`
	TotalCost       *core.Money              `json:"total_cost,omitempty"`
	Occupancy       *rooming.OccupancyReport `json:"occupancy,omitempty"`
}

// ReminderLine is a reminder with its dueness class.
type ReminderLine struct {
	core.ActionReminder
	Dueness reminders.Dueness `json:"dueness"`
}

// ReminderView is the reminder board of one tournament.
type ReminderView struct {
	TournamentID string                      `json:"tournament_id"`
	Reminders    []ReminderLine              `json:"reminders"`
	Counts       map[core.ReminderStatus]int `json:"counts"`
	Overdue      int                         `json:"overdue"`
}

// AttendingTeam is a team linked to a tournament.
type AttendingTeam struct {
	LinkID string `json:"link_id"`
	TeamID string `json:"team_id"`
	Name   string `json:"name"`
}

// DashboardService builds read models from cached store reads. Aggregation is
// always recomputed from the cached collections.
type DashboardService struct {
	store *store.Store
	views *ViewCaches
	now   func() time.Time
}

func NewDashboardService(st *store.Store, views *ViewCaches) *DashboardService {
	return &DashboardService{store: st, views: views, now: time.Now}
}

func (d *DashboardService) tournament(ctx context.Context, id string) (core.Tournament, error) {
	ts, err := d.views.Tournaments.Get(ctx, cache.NewKey(core.EntityTournament, id), func(ctx context.Context) ([]core.Tournament, error) {
		t, err := d.store.Tournaments.Get(ctx, id)
		if err != nil {
			return nil, err
		}
		return []core.Tournament{t}, nil
	})
	if err != nil {
		return core.Tournament{}, fmt.Errorf("get tournament: %w", err)
	}
	return ts[0], nil
}

func (d *DashboardService) teams(ctx context.Context) ([]core.Team, error) {
	return d.views.Teams.Get(ctx, cache.NewKey(core.EntityTeam, cache.ScopeAll), func(ctx context.Context) ([]core.Team, error) {
		return d.store.Teams.Filter(ctx, nil)
	})
}

func (d *DashboardService) transactions(ctx context.Context, tournamentID string) ([]core.FinanceTransaction, error) {
	return d.views.Transactions.Get(ctx, cache.NewKey(core.EntityFinanceTransaction, tournamentID), func(ctx context.Context) ([]core.FinanceTransaction, error) {
		return d.store.Transactions.Filter(ctx, scopeFilter(tournamentID))
	})
}

func (d *DashboardService) rooms(ctx context.Context, tournamentID string) ([]core.Room, error) {
	return d.views.Rooms.Get(ctx, cache.NewKey(core.EntityRoom, tournamentID), func(ctx context.Context) ([]core.Room, error) {
		return d.store.Rooms.Filter(ctx, store.ByTournament(tournamentID))
	})
}

func (d *DashboardService) coaches(ctx context.Context, tournamentID string) ([]core.CoachTravel, error) {
	return d.views.Coaches.Get(ctx, cache.NewKey(core.EntityCoachTravel, tournamentID), func(ctx context.Context) ([]core.CoachTravel, error) {
		return d.store.Coaches.Filter(ctx, store.ByTournament(tournamentID))
	})
}

func (d *DashboardService) reminders(ctx context.Context, tournamentID string) ([]core.ActionReminder, error) {
	return d.views.Reminders.Get(ctx, cache.NewKey(core.EntityActionReminder, tournamentID), func(ctx context.Context) ([]core.ActionReminder, error) {
		return d.store.Reminders.Filter(ctx, scopeFilter(tournamentID))
	})
}

func scopeFilter(tournamentID string) store.Filter {
	if tournamentID == "" || tournamentID == cache.ScopeAll {
		return nil
	}
	return store.ByTournament(tournamentID)
}

func (d *DashboardService) ListTournaments(ctx context.Context) ([]core.Tournament, error) {
	return d.views.Tournaments.Get(ctx, cache.NewKey(core.EntityTournament, cache.ScopeAll), func(ctx context.Context) ([]core.Tournament, error) {
		return d.store.Tournaments.Filter(ctx, nil)
	})
}

func (d *DashboardService) GetTournament(ctx context.Context, id string) (core.Tournament, error) {
	return d.tournament(ctx, id)
}

func (d *DashboardService) ListTeams(ctx context.Context) ([]core.Team, error) {
	return d.teams(ctx)
}

// TournamentTeams lists the teams attending a tournament in link order.
func (d *DashboardService) TournamentTeams(ctx context.Context, tournamentID string) ([]AttendingTeam, error) {
	var (
		links []core.TournamentTeam
		teams []core.Team
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		_, err := d.tournament(gctx, tournamentID)
		return err
	})
	g.Go(func() error {
		var err error
		links, err = d.views.Links.Get(gctx, cache.NewKey(core.EntityTournamentTeam, tournamentID), func(ctx context.Context) ([]core.TournamentTeam, error) {
			return d.store.TournamentTeams.Filter(ctx, store.ByTournament(tournamentID))
		})
		return err
	})
	g.Go(func() error {
		var err error
		teams, err = d.teams(gctx)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	names := make(map[string]string, len(teams))
	for _, t := range teams {
		names[t.ID] = t.Name
	}
	out := make([]AttendingTeam, 0, len(links))
	for _, l := range links {
		name, ok := names[l.TeamID]
		if !ok {
			name = ledger.UnknownName
		}
		out = append(out, AttendingTeam{LinkID: l.ID, TeamID: l.TeamID, Name: name})
	}
	return out, nil
}

// Finance returns the finance view for a tournament filtered by team
// (ledger.AllTeams or a team id). Tournaments that do not require housing
// report no data.
func (d *DashboardService) Finance(ctx context.Context, tournamentID, team string) (FinanceView, error) {
	if team == "" {
		team = ledger.AllTeams
	}
	view := FinanceView{TournamentID: tournamentID, Team: team}

	var (
		t     core.Tournament
		txs   []core.FinanceTransaction
		teams []core.Team
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		t, err = d.tournament(gctx, tournamentID)
		return err
	})
	g.Go(func() error {
		var err error
		txs, err = d.transactions(gctx, tournamentID)
		return err
	})
	g.Go(func() error {
		var err error
		teams, err = d.teams(gctx)
		return err
	})
	if err := g.Wait(); err != nil {
		return FinanceView{}, err
	}

	view.HousingRequired = t.HousingRequired
	if !t.HousingRequired {
		return view, nil
	}

	filtered := ledger.FilterByTeam(txs, team)
	summary := ledger.Summarize(filtered)
	view.Summary = &summary
	view.Distribution = ledger.Distribution(summary)
	view.ByTeam = ledger.SpendByTeam(txs, teams)
	view.Transactions = filtered
	return view, nil
}

// MasterFinance aggregates finance across every tournament.
func (d *DashboardService) MasterFinance(ctx context.Context) (core.MasterSummary, error) {
	var (
		txs         []core.FinanceTransaction
		tournaments []core.Tournament
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		txs, err = d.transactions(gctx, cache.ScopeAll)
		return err
	})
	g.Go(func() error {
		var err error
		tournaments, err = d.ListTournaments(gctx)
		return err
	})
	if err := g.Wait(); err != nil {
		return core.MasterSummary{}, err
	}
	return ledger.SummarizeByTournament(txs, tournaments), nil
}

// Rooming returns rooms, coaches and occupancy for a tournament.
func (d *DashboardService) Rooming(ctx context.Context, tournamentID string) (RoomingView, error) {
	view := RoomingView{TournamentID: tournamentID}

	var (
		t       core.Tournament
		rooms   []core.Room
		coaches []core.CoachTravel
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		t, err = d.tournament(gctx, tournamentID)
		return err
	})
	g.Go(func() error {
		var err error
		rooms, err = d.rooms(gctx, tournamentID)
		return err
	})
	g.Go(func() error {
		var err error
		coaches, err = d.coaches(gctx, tournamentID)
		return err
	})
	if err := g.Wait(); err != nil {
		return RoomingView{}, err
	}

	view.HousingRequired = t.HousingRequired
	if !t.HousingRequired {
		return view, nil
	}

	view.Rooms = make([]RoomLine, 0, len(rooms))
	for _, r := range rooms {
		view.Rooms = append(view.Rooms, RoomLine{
			Room:          r,
			OccupantNames: rooming.ResolveOccupants(r, coaches),
			TotalCost:     r.TotalCost(),
		})
	}
	total := rooming.TotalRoomCost(rooms)
	occupancy := rooming.ComputeOccupancy(rooms, coaches)
	view.Coaches = coaches
	view.TotalCost = &total
	view.Occupancy = &occupancy
	return view, nil
}

// Reminders returns the ordered reminder board of a tournament.
func (d *DashboardService) Reminders(ctx context.Context, tournamentID string) (ReminderView, error) {
	var rs []core.ActionReminder
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		_, err := d.tournament(gctx, tournamentID)
		return err
	})
	g.Go(func() error {
		var err error
		rs, err = d.reminders(gctx, tournamentID)
		return err
	})
	if err := g.Wait(); err != nil {
		return ReminderView{}, err
	}

	now := d.now()
	ordered := reminders.Order(rs)
	lines := make([]ReminderLine, 0, len(ordered))
	overdue := 0
	for _, r := range ordered {
		class := reminders.Classify(r, now)
		if class == reminders.DuenessOverdue {
			overdue++
		}
		lines = append(lines, ReminderLine{ActionReminder: r, Dueness: class})
	}
	return ReminderView{
		TournamentID: tournamentID,
		Reminders:    lines,
		Counts:       reminders.CountByStatus(rs),
		Overdue:      overdue,
	}, nil
}
