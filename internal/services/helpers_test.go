package services

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"tourney/internal/amqp"
	"tourney/internal/cache"
	"tourney/internal/core"
	"tourney/internal/store"
	"tourney/internal/store/memory"
)

const testOrigin = "instance-a"

type recordingPublisher struct {
	mu   sync.Mutex
	msgs []*amqp.MutationMessage
	err  error
}

func (p *recordingPublisher) PublishMutation(_ context.Context, msg *amqp.MutationMessage) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.msgs = append(p.msgs, msg)
	return p.err
}

func (p *recordingPublisher) last() *amqp.MutationMessage {
	p.mu.Lock()
	defer p.mu.Unlock()
	if len(p.msgs) == 0 {
		return nil
	}
	return p.msgs[len(p.msgs)-1]
}

type testEnv struct {
	store *store.Store
	gens  *cache.MemoryGenerations
	pub   *recordingPublisher
	mut   *MutationService
	dash  *DashboardService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	st := memory.New()
	gens := cache.NewMemoryGenerations()
	pub := &recordingPublisher{}
	return &testEnv{
		store: st,
		gens:  gens,
		pub:   pub,
		mut:   NewMutationService(st, cache.NewInvalidator(gens), pub, testOrigin),
		dash:  NewDashboardService(st, NewViewCaches(gens, 100, time.Minute)),
	}
}

func boolPtr(b bool) *bool { return &b }
func strPtr(s string) *string { return &s }

func jsonNumber(s string) json.Number { return json.Number(s) }

func (e *testEnv) tournament(t *testing.T, name string, housing bool) core.Tournament {
	t.Helper()
	tr, err := e.mut.CreateTournament(context.Background(), CreateTournamentRequest{
		Name:            name,
		HousingRequired: boolPtr(housing),
	})
	require.NoError(t, err)
	return tr
}

func (e *testEnv) team(t *testing.T, name string) core.Team {
	t.Helper()
	team, err := e.mut.CreateTeam(context.Background(), CreateTeamRequest{Name: name})
	require.NoError(t, err)
	return team
}

func (e *testEnv) coach(t *testing.T, tournamentID, name, notes string) core.CoachTravel {
	t.Helper()
	c, err := e.mut.CreateCoach(context.Background(), tournamentID, CreateCoachRequest{CoachName: name, RoomingNotes: notes})
	require.NoError(t, err)
	return c
}

func (e *testEnv) transaction(t *testing.T, tournamentID, teamID, category, amount string) core.FinanceTransaction {
	t.Helper()
	tx, err := e.mut.CreateTransaction(context.Background(), tournamentID, CreateTransactionRequest{
		TeamID:   teamID,
		Category: category,
		Amount:   jsonNumber(amount),
	})
	require.NoError(t, err)
	return tx
}

func requireValidation(t *testing.T, err error, field string) {
	t.Helper()
	require.Error(t, err)
	require.ErrorIs(t, err, core.ErrValidation)
	var ve *core.ValidationError
	require.True(t, errors.As(err, &ve))
	require.Equal(t, field, ve.Field)
}
