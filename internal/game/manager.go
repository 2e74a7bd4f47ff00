package game

import (
	"context"
	"fmt"
	"io"
	"sort"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/coder/quartz"
	"github.com/google/uuid"

	"github.com/playmatatu/carrom/internal/auth"
)

// ManagerConfig holds the table settings every new match is created with.
type ManagerConfig struct {
	BoardWidth    float64
	Sim           SimParams
	Limits        StrikeLimits
	FrameEvery    int
	Expiry        time.Duration
	CheckInterval time.Duration
}

// DefaultManagerConfig is a table with the reference settings.
func DefaultManagerConfig() ManagerConfig {
	return ManagerConfig{
		BoardWidth:    DefaultBoardWidth,
		Sim:           DefaultSimParams(),
		Limits:        DefaultStrikeLimits(),
		FrameEvery:    DefaultFrameEvery,
		Expiry:        10 * time.Minute,
		CheckInterval: 30 * time.Second,
	}
}

// Ledger records finished turns and match outcomes.
type Ledger interface {
	RecordTurn(ctx context.Context, matchID string, res TurnResult) error
	RecordResult(ctx context.Context, matchID string, winner int, reason Reason, turns int) error
}

// Publisher fans match events out to other listeners.
type Publisher interface {
	Publish(ctx context.Context, ev MatchEvent) error
}

// BotPlayer picks a strike for the player on turn in m. m is a private copy.
type BotPlayer interface {
	ChooseStrike(ctx context.Context, m *Match) (StrikeParams, error)
}

// Deps are the optional collaborators of a Manager.
type Deps struct {
	Ledger Ledger
	Events Publisher
	Bot    BotPlayer
	Clock  quartz.Clock
	Logger *log.Logger
}

// Manager owns every live session on this server.
type Manager struct {
	sessions map[string]*Session
	cfg      ManagerConfig
	board    *Board
	ledger   Ledger
	events   Publisher
	bot      BotPlayer
	clock    quartz.Clock
	logger   *log.Logger
	mu       sync.RWMutex
}

// NewManager validates cfg and builds a manager. Zero-valued deps are
// replaced by a real clock and a discarding logger.
func NewManager(cfg ManagerConfig, deps Deps) (*Manager, error) {
	if err := cfg.Sim.Validate(); err != nil {
		return nil, err
	}
	if cfg.Limits.MaxSpeed <= 0 || cfg.Limits.MaxAngle < 0 {
		return nil, fmt.Errorf("%w: strike limits %+v", ErrInvalidConfiguration, cfg.Limits)
	}
	if cfg.FrameEvery <= 0 {
		cfg.FrameEvery = DefaultFrameEvery
	}
	board, err := NewStandardBoard(cfg.BoardWidth)
	if err != nil {
		return nil, err
	}
	if deps.Clock == nil {
		deps.Clock = quartz.NewReal()
	}
	if deps.Logger == nil {
		deps.Logger = log.New(io.Discard)
	}
	return &Manager{
		sessions: make(map[string]*Session),
		cfg:      cfg,
		board:    board,
		ledger:   deps.Ledger,
		events:   deps.Events,
		bot:      deps.Bot,
		clock:    deps.Clock,
		logger:   deps.Logger.WithPrefix("[MATCH]"),
	}, nil
}

// CreateOptions configure a new match.
type CreateOptions struct {
	Name     string
	Password string
	VsBot    bool
}

// CreateMatch racks a new match and seats the creator at seat 0.
func (gm *Manager) CreateMatch(opts CreateOptions) (*Session, error) {
	id := uuid.NewString()
	m, err := NewMatch(gm.board, gm.logger.With("match", id))
	if err != nil {
		return nil, err
	}
	s := newSession(id, m, gm.cfg, gm.clock)
	if opts.Password != "" {
		hashed, err := auth.HashPassword(opts.Password)
		if err != nil {
			return nil, err
		}
		s.passwordHash = hashed
		s.Private = true
	}
	if err := s.join(0, opts.Name, false); err != nil {
		return nil, err
	}
	if opts.VsBot {
		if gm.bot == nil {
			return nil, fmt.Errorf("%w: no bot configured", ErrInvalidConfiguration)
		}
		if err := s.join(1, "bot", true); err != nil {
			return nil, err
		}
	}

	gm.mu.Lock()
	gm.sessions[id] = s
	gm.mu.Unlock()

	gm.logger.Info("Match created", "match", id, "private", s.Private, "bot", opts.VsBot)
	return s, nil
}

// Get returns a session by id.
func (gm *Manager) Get(id string) (*Session, error) {
	gm.mu.RLock()
	defer gm.mu.RUnlock()
	s, ok := gm.sessions[id]
	if !ok {
		return nil, ErrMatchNotFound
	}
	return s, nil
}

// JoinMatch takes the open seat of a waiting match.
func (gm *Manager) JoinMatch(ctx context.Context, id, name, password string) (*Session, int, error) {
	s, err := gm.Get(id)
	if err != nil {
		return nil, 0, err
	}
	if s.Private && !auth.CheckPassword(s.passwordHash, password) {
		return nil, 0, ErrWrongPassword
	}
	seat, ok := s.openSeat()
	if !ok {
		return nil, 0, ErrSeatTaken
	}
	if err := s.join(seat, name, false); err != nil {
		return nil, 0, err
	}
	gm.logger.Info("Player joined", "match", id, "seat", seat)
	gm.publish(ctx, MatchEvent{MatchID: id, Type: EventMatchState, Data: s.StateFor(NoOwner)})
	return s, seat, nil
}

// Strike plays seat's strike, records the outcome and lets a bot opponent
// reply. The returned slice holds the human turn first, then any bot turns.
func (gm *Manager) Strike(ctx context.Context, id string, seat int, p StrikeParams, frameFn FrameFunc) ([]TurnResult, error) {
	s, err := gm.Get(id)
	if err != nil {
		return nil, err
	}
	res, err := s.Strike(seat, p, frameFn)
	if err != nil {
		return nil, err
	}
	gm.recordTurn(ctx, s, res)

	results := []TurnResult{res}
	bots, err := gm.PlayBotTurns(ctx, id, frameFn)
	results = append(results, bots...)
	return results, err
}

// PlayBotTurns strikes for bot seats until a human is on turn or the match
// ends.
func (gm *Manager) PlayBotTurns(ctx context.Context, id string, frameFn FrameFunc) ([]TurnResult, error) {
	s, err := gm.Get(id)
	if err != nil {
		return nil, err
	}
	var results []TurnResult
	for s.GetStatus() == StatusInProgress {
		seat, isBot := s.SeatToMove()
		if !isBot || gm.bot == nil {
			break
		}
		if err := ctx.Err(); err != nil {
			return results, err
		}
		p, err := gm.bot.ChooseStrike(ctx, s.MatchClone())
		if err != nil {
			return results, fmt.Errorf("bot strike for match %s: %w", id, err)
		}
		res, err := s.Strike(seat, p, frameFn)
		if err != nil {
			return results, err
		}
		gm.recordTurn(ctx, s, res)
		results = append(results, res)
	}
	return results, nil
}

// Concede ends a match on behalf of seat.
func (gm *Manager) Concede(ctx context.Context, id string, seat int) error {
	s, err := gm.Get(id)
	if err != nil {
		return err
	}
	if err := s.Concede(seat); err != nil {
		return err
	}
	snap := s.Snapshot()
	gm.logger.Info("Match conceded", "match", id, "seat", seat)
	gm.recordResult(ctx, id, snap)
	gm.publish(ctx, MatchEvent{MatchID: id, Type: EventMatchState, Data: s.StateFor(NoOwner)})
	return nil
}

// Rotate turns the coin formation of a match that has not been broken yet.
func (gm *Manager) Rotate(ctx context.Context, id string, seat int, orientation float64) error {
	s, err := gm.Get(id)
	if err != nil {
		return err
	}
	if err := s.Rotate(seat, orientation); err != nil {
		return err
	}
	gm.publish(ctx, MatchEvent{MatchID: id, Type: EventMatchState, Data: s.StateFor(NoOwner)})
	return nil
}

// ActiveCount returns the number of sessions that have not ended.
func (gm *Manager) ActiveCount() int {
	gm.mu.RLock()
	defer gm.mu.RUnlock()
	n := 0
	for _, s := range gm.sessions {
		if s.GetStatus().Open() {
			n++
		}
	}
	return n
}

// List returns all sessions, newest first.
func (gm *Manager) List() []*Session {
	gm.mu.RLock()
	out := make([]*Session, 0, len(gm.sessions))
	for _, s := range gm.sessions {
		out = append(out, s)
	}
	gm.mu.RUnlock()
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out
}

func (gm *Manager) recordTurn(ctx context.Context, s *Session, res TurnResult) {
	for _, f := range res.Fouls {
		gm.logger.Warn("Foul", "match", s.ID, "player", PlayerName(f.Player), "type", f.Type)
	}
	if gm.ledger != nil {
		if err := gm.ledger.RecordTurn(ctx, s.ID, res); err != nil {
			gm.logger.Error("Failed to record turn", "match", s.ID, "err", err)
		}
	}
	gm.publish(ctx, MatchEvent{MatchID: s.ID, Type: EventTurnResult, Data: res})
	if res.GameOver {
		gm.logger.Info("Match over", "match", s.ID, "winner", PlayerName(res.Winner), "reason", res.Reason)
		gm.recordResult(ctx, s.ID, s.Snapshot())
	}
	gm.publish(ctx, MatchEvent{MatchID: s.ID, Type: EventMatchState, Data: s.StateFor(NoOwner)})
}

func (gm *Manager) recordResult(ctx context.Context, id string, snap Snapshot) {
	if gm.ledger == nil {
		return
	}
	if err := gm.ledger.RecordResult(ctx, id, snap.Winner, snap.Reason, snap.Turns); err != nil {
		gm.logger.Error("Failed to record result", "match", id, "err", err)
	}
}

func (gm *Manager) publish(ctx context.Context, ev MatchEvent) {
	if gm.events == nil {
		return
	}
	if err := gm.events.Publish(ctx, ev); err != nil {
		gm.logger.Error("Failed to publish event", "match", ev.MatchID, "type", ev.Type, "err", err)
	}
}

// StartExpiryChecker cancels idle sessions until ctx is done.
func (gm *Manager) StartExpiryChecker(ctx context.Context) {
	ticker := gm.clock.NewTicker(gm.cfg.CheckInterval, "expiry")
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			gm.CheckExpired(ctx)
		}
	}
}

// CheckExpired cancels sessions with no activity for longer than the
// configured expiry and drops them from the manager. It returns the ids it
// cancelled.
func (gm *Manager) CheckExpired(ctx context.Context) []string {
	now := gm.clock.Now()

	gm.mu.RLock()
	var candidates []*Session
	for _, s := range gm.sessions {
		if s.expired(now, gm.cfg.Expiry) {
			candidates = append(candidates, s)
		}
	}
	gm.mu.RUnlock()

	var cancelled []string
	for _, s := range candidates {
		if !s.cancel() {
			continue
		}
		gm.logger.Info("Match expired", "match", s.ID)
		gm.publish(ctx, MatchEvent{MatchID: s.ID, Type: EventMatchCancelled, Data: s.StateFor(NoOwner)})
		cancelled = append(cancelled, s.ID)
	}

	gm.mu.Lock()
	for id, s := range gm.sessions {
		if s.endedBefore(now.Add(-gm.cfg.Expiry)) {
			delete(gm.sessions, id)
		}
	}
	gm.mu.Unlock()
	return cancelled
}
