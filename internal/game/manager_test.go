package game

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/coder/quartz"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeLedger struct {
	mu      sync.Mutex
	turns   []TurnResult
	results []int
}

func (l *fakeLedger) RecordTurn(_ context.Context, _ string, res TurnResult) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.turns = append(l.turns, res)
	return nil
}

func (l *fakeLedger) RecordResult(_ context.Context, _ string, winner int, _ Reason, _ int) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.results = append(l.results, winner)
	return nil
}

type fakePublisher struct {
	mu     sync.Mutex
	events []MatchEvent
}

func (p *fakePublisher) Publish(_ context.Context, ev MatchEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, ev)
	return nil
}

func (p *fakePublisher) types() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	var out []string
	for _, ev := range p.events {
		out = append(out, ev.Type)
	}
	return out
}

// fixedBot always strikes straight up the board from the centre.
type fixedBot struct{ calls int }

func (b *fixedBot) ChooseStrike(_ context.Context, m *Match) (StrikeParams, error) {
	b.calls++
	lo, hi := m.Board().StrikerXLimits()
	return StrikeParams{X: lo + (hi-lo)*float64(b.calls%7)/7, Speed: 60, Angle: 10}, nil
}

type testManager struct {
	*Manager
	clock  *quartz.Mock
	ledger *fakeLedger
	events *fakePublisher
	bot    *fixedBot
}

func newTestManager(t *testing.T) *testManager {
	t.Helper()
	tm := &testManager{
		clock:  quartz.NewMock(t),
		ledger: &fakeLedger{},
		events: &fakePublisher{},
		bot:    &fixedBot{},
	}
	mgr, err := NewManager(DefaultManagerConfig(), Deps{
		Ledger: tm.ledger,
		Events: tm.events,
		Bot:    tm.bot,
		Clock:  tm.clock,
	})
	require.NoError(t, err)
	tm.Manager = mgr
	return tm
}

func TestNewManagerValidatesConfig(t *testing.T) {
	cfg := DefaultManagerConfig()
	cfg.Sim.DT = 0
	_, err := NewManager(cfg, Deps{})
	assert.ErrorIs(t, err, ErrInvalidConfiguration)

	cfg = DefaultManagerConfig()
	cfg.BoardWidth = -1
	_, err = NewManager(cfg, Deps{})
	assert.ErrorIs(t, err, ErrInvalidConfiguration)

	cfg = DefaultManagerConfig()
	cfg.Limits.MaxSpeed = 0
	_, err = NewManager(cfg, Deps{})
	assert.ErrorIs(t, err, ErrInvalidConfiguration)
}

func TestCreateAndJoinMatch(t *testing.T) {
	ctx := context.Background()
	tm := newTestManager(t)

	s, err := tm.CreateMatch(CreateOptions{Name: "alice"})
	require.NoError(t, err)
	assert.Equal(t, StatusWaiting, s.GetStatus())
	assert.Equal(t, 1, tm.ActiveCount())

	got, err := tm.Get(s.ID)
	require.NoError(t, err)
	assert.Same(t, s, got)

	_, err = s.Strike(0, StrikeParams{X: 350, Speed: 50}, nil)
	assert.ErrorIs(t, err, ErrGameNotActive)

	_, seat, err := tm.JoinMatch(ctx, s.ID, "bob", "")
	require.NoError(t, err)
	assert.Equal(t, 1, seat)
	assert.Equal(t, StatusInProgress, s.GetStatus())

	_, _, err = tm.JoinMatch(ctx, s.ID, "carol", "")
	assert.ErrorIs(t, err, ErrSeatTaken)

	_, _, err = tm.JoinMatch(ctx, "missing", "carol", "")
	assert.ErrorIs(t, err, ErrMatchNotFound)

	view := s.StateFor(0)
	assert.True(t, view.MyTurn)
	assert.Equal(t, "alice", view.Seats[0].Name)
	assert.Equal(t, "bob", view.Seats[1].Name)
	assert.False(t, s.StateFor(1).MyTurn)
	assert.Contains(t, tm.events.types(), EventMatchState)
}

func TestPrivateMatchPassword(t *testing.T) {
	ctx := context.Background()
	tm := newTestManager(t)

	s, err := tm.CreateMatch(CreateOptions{Name: "alice", Password: "sesame"})
	require.NoError(t, err)
	assert.True(t, s.Private)

	_, _, err = tm.JoinMatch(ctx, s.ID, "bob", "wrong")
	assert.ErrorIs(t, err, ErrWrongPassword)

	_, _, err = tm.JoinMatch(ctx, s.ID, "bob", "sesame")
	assert.NoError(t, err)
}

func TestStrikeThroughManager(t *testing.T) {
	ctx := context.Background()
	tm := newTestManager(t)
	s, err := tm.CreateMatch(CreateOptions{Name: "alice"})
	require.NoError(t, err)
	_, _, err = tm.JoinMatch(ctx, s.ID, "bob", "")
	require.NoError(t, err)

	_, err = tm.Strike(ctx, s.ID, 1, StrikeParams{X: 350, Speed: 50}, nil)
	assert.ErrorIs(t, err, ErrNotYourTurn)

	_, err = tm.Strike(ctx, s.ID, 0, StrikeParams{X: 10, Speed: 50}, nil)
	assert.ErrorIs(t, err, ErrIllegalStrikerPlacement)

	_, err = tm.Strike(ctx, s.ID, 2, StrikeParams{X: 350, Speed: 50}, nil)
	assert.ErrorIs(t, err, ErrBadSeat)

	frames := 0
	results, err := tm.Strike(ctx, s.ID, 0, StrikeParams{X: 330, Speed: 100, Angle: 4}, func(int, *Match) { frames++ })
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Positive(t, frames)
	assert.Len(t, tm.ledger.turns, 1)
	assert.Contains(t, tm.events.types(), EventTurnResult)
	assert.Equal(t, 1, s.Snapshot().Turns)

	if !results[0].TurnChange {
		return
	}
	assert.Equal(t, 1, s.StateFor(1).Match.PlayerTurn)
	assert.True(t, s.StateFor(1).MyTurn)
}

func TestRotateBeforeBreakOnly(t *testing.T) {
	ctx := context.Background()
	tm := newTestManager(t)
	s, err := tm.CreateMatch(CreateOptions{Name: "alice"})
	require.NoError(t, err)
	_, _, err = tm.JoinMatch(ctx, s.ID, "bob", "")
	require.NoError(t, err)

	assert.ErrorIs(t, tm.Rotate(ctx, s.ID, 1, 20), ErrNotYourTurn)
	require.NoError(t, tm.Rotate(ctx, s.ID, 0, 20))

	_, err = tm.Strike(ctx, s.ID, 0, StrikeParams{X: 330, Speed: 100}, nil)
	require.NoError(t, err)
	seat, _ := s.SeatToMove()
	assert.ErrorIs(t, tm.Rotate(ctx, s.ID, seat, 40), ErrRotationLocked)
}

func TestConcede(t *testing.T) {
	ctx := context.Background()
	tm := newTestManager(t)
	s, err := tm.CreateMatch(CreateOptions{Name: "alice"})
	require.NoError(t, err)

	assert.ErrorIs(t, tm.Concede(ctx, s.ID, 0), ErrGameNotActive)

	_, _, err = tm.JoinMatch(ctx, s.ID, "bob", "")
	require.NoError(t, err)
	require.NoError(t, tm.Concede(ctx, s.ID, 1))

	assert.Equal(t, StatusCompleted, s.GetStatus())
	assert.Equal(t, []int{0}, tm.ledger.results)
	assert.Equal(t, ReasonConceded, s.Snapshot().Reason)
	assert.Equal(t, 0, tm.ActiveCount())

	_, err = s.Strike(0, StrikeParams{X: 350, Speed: 50}, nil)
	assert.ErrorIs(t, err, ErrGameNotActive)
}

func TestBotReplies(t *testing.T) {
	ctx := context.Background()
	tm := newTestManager(t)
	s, err := tm.CreateMatch(CreateOptions{Name: "alice", VsBot: true})
	require.NoError(t, err)
	assert.Equal(t, StatusInProgress, s.GetStatus())
	assert.True(t, s.Seats[1].Bot)

	// Pass turns until the bot has had a go.
	for i := 0; i < 20 && tm.bot.calls == 0 && s.GetStatus() == StatusInProgress; i++ {
		seat, isBot := s.SeatToMove()
		require.False(t, isBot)
		_, err := tm.Strike(ctx, s.ID, seat, StrikeParams{X: 330, Speed: 5, Angle: 89}, nil)
		require.NoError(t, err)
	}
	assert.Positive(t, tm.bot.calls)
	assert.Len(t, tm.ledger.turns, tm.bot.calls+countHumanTurns(tm.ledger.turns))

	if s.GetStatus() == StatusInProgress {
		_, isBot := s.SeatToMove()
		assert.False(t, isBot)
	}
}

func countHumanTurns(turns []TurnResult) int {
	n := 0
	for _, r := range turns {
		if r.Player == 0 {
			n++
		}
	}
	return n
}

func TestVsBotWithoutBot(t *testing.T) {
	mgr, err := NewManager(DefaultManagerConfig(), Deps{})
	require.NoError(t, err)
	_, err = mgr.CreateMatch(CreateOptions{VsBot: true})
	assert.ErrorIs(t, err, ErrInvalidConfiguration)
}

func TestCheckExpired(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	tm := newTestManager(t)

	idle, err := tm.CreateMatch(CreateOptions{Name: "alice"})
	require.NoError(t, err)

	tm.clock.Advance(5 * time.Minute).MustWait(ctx)
	busy, err := tm.CreateMatch(CreateOptions{Name: "bob"})
	require.NoError(t, err)

	assert.Empty(t, tm.CheckExpired(ctx))

	tm.clock.Advance(6 * time.Minute).MustWait(ctx)
	cancelled := tm.CheckExpired(ctx)
	assert.Equal(t, []string{idle.ID}, cancelled)
	assert.Equal(t, StatusCancelled, idle.GetStatus())
	assert.Equal(t, StatusWaiting, busy.GetStatus())
	assert.Contains(t, tm.events.types(), EventMatchCancelled)

	_, _, err = tm.JoinMatch(ctx, idle.ID, "carol", "")
	assert.ErrorIs(t, err, ErrGameNotActive)

	// Ended sessions are dropped one expiry period later.
	tm.clock.Advance(11 * time.Minute).MustWait(ctx)
	tm.CheckExpired(ctx)
	_, err = tm.Get(idle.ID)
	assert.ErrorIs(t, err, ErrMatchNotFound)
	assert.Len(t, tm.List(), 1)
}
