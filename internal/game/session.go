package game

import (
	"sync"
	"time"

	"github.com/coder/quartz"
)

// Seat is one side of a match.
type Seat struct {
	Name      string `json:"name"`
	Joined    bool   `json:"joined"`
	Connected bool   `json:"connected"`
	Bot       bool   `json:"bot"`
}

// Session hosts a single match: seats, lifecycle and serialised access to the
// underlying Match.
type Session struct {
	ID           string     `json:"id"`
	Seats        [2]Seat    `json:"seats"`
	Status       GameStatus `json:"status"`
	Private      bool       `json:"private"`
	CreatedAt    time.Time  `json:"created_at"`
	StartedAt    *time.Time `json:"started_at,omitempty"`
	CompletedAt  *time.Time `json:"completed_at,omitempty"`
	LastActivity time.Time  `json:"last_activity"`

	passwordHash string
	match        *Match
	params       SimParams
	limits       StrikeLimits
	frameEvery   int
	striking     bool
	clock        quartz.Clock
	mu           sync.RWMutex
}

func newSession(id string, m *Match, cfg ManagerConfig, clock quartz.Clock) *Session {
	now := clock.Now()
	return &Session{
		ID:           id,
		Status:       StatusWaiting,
		CreatedAt:    now,
		LastActivity: now,
		match:        m,
		params:       cfg.Sim,
		limits:       cfg.Limits,
		frameEvery:   cfg.FrameEvery,
		clock:        clock,
	}
}

// join seats a player. The match starts once both seats are filled.
func (s *Session) join(seat int, name string, bot bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if seat != 0 && seat != 1 {
		return ErrBadSeat
	}
	if s.Status != StatusWaiting {
		return ErrGameNotActive
	}
	if s.Seats[seat].Joined {
		return ErrSeatTaken
	}
	s.Seats[seat] = Seat{Name: name, Joined: true, Bot: bot, Connected: bot}
	s.LastActivity = s.clock.Now()

	if s.Seats[0].Joined && s.Seats[1].Joined {
		now := s.clock.Now()
		s.StartedAt = &now
		s.Status = StatusInProgress
	}
	return nil
}

// openSeat returns the first unfilled seat.
func (s *Session) openSeat() (int, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for i := range s.Seats {
		if !s.Seats[i].Joined {
			return i, true
		}
	}
	return 0, false
}

// validateStrike checks that seat may strike now.
func (s *Session) validateStrike(seat int) error {
	if seat != 0 && seat != 1 {
		return ErrBadSeat
	}
	if s.Status != StatusInProgress {
		return ErrGameNotActive
	}
	if s.striking {
		return ErrShotInFlight
	}
	if s.match.PlayerTurn() != seat {
		return ErrNotYourTurn
	}
	return nil
}

// Strike plays one turn for seat. The turn is simulated on a copy of the
// match so readers see the pre-strike state until the turn has settled.
func (s *Session) Strike(seat int, p StrikeParams, frameFn FrameFunc) (TurnResult, error) {
	s.mu.Lock()
	if err := s.validateStrike(seat); err != nil {
		s.mu.Unlock()
		return TurnResult{}, err
	}
	m := s.match.Clone()
	if err := m.Strike(p, s.limits); err != nil {
		s.mu.Unlock()
		return TurnResult{}, err
	}
	s.striking = true
	params, every := s.params, s.frameEvery
	s.mu.Unlock()

	res, err := PlayTurn(m, params, every, frameFn)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.striking = false
	if err != nil {
		return TurnResult{}, err
	}
	s.match = m
	s.LastActivity = s.clock.Now()
	if res.GameOver {
		s.complete()
	}
	return res, nil
}

// Rotate turns the coin formation before the break.
func (s *Session) Rotate(seat int, orientation float64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.validateStrike(seat); err != nil {
		return err
	}
	if err := s.match.RotateCoins(orientation); err != nil {
		return err
	}
	s.LastActivity = s.clock.Now()
	return nil
}

// Concede ends the match in favour of the other seat.
func (s *Session) Concede(seat int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if seat != 0 && seat != 1 {
		return ErrBadSeat
	}
	if s.Status != StatusInProgress {
		return ErrGameNotActive
	}
	if s.striking {
		return ErrShotInFlight
	}
	s.match.Concede(seat)
	s.complete()
	return nil
}

func (s *Session) complete() {
	now := s.clock.Now()
	s.Status = StatusCompleted
	s.CompletedAt = &now
	s.LastActivity = now
}

// cancel marks a session that never finished. It reports false if the
// session had already ended.
func (s *Session) cancel() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.Status.Open() || s.striking {
		return false
	}
	now := s.clock.Now()
	s.Status = StatusCancelled
	s.CompletedAt = &now
	return true
}

func (s *Session) expired(now time.Time, ttl time.Duration) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.Status.Open() && !s.striking && now.Sub(s.LastActivity) > ttl
}

// endedBefore reports whether the session ended before cutoff.
func (s *Session) endedBefore(cutoff time.Time) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.CompletedAt != nil && s.CompletedAt.Before(cutoff)
}

// SetConnected records whether a seat has a live connection.
func (s *Session) SetConnected(seat int, connected bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if seat != 0 && seat != 1 || s.Seats[seat].Bot {
		return
	}
	s.Seats[seat].Connected = connected
}

// GetStatus returns the lifecycle status.
func (s *Session) GetStatus() GameStatus {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.Status
}

// SeatToMove returns the seat on strike and whether it is a bot.
func (s *Session) SeatToMove() (int, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	seat := s.match.PlayerTurn()
	return seat, s.Seats[seat].Bot
}

// MatchClone returns a private copy of the match for analysis.
func (s *Session) MatchClone() *Match {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.match.Clone()
}

// Limits returns the striker input limits the session enforces.
func (s *Session) Limits() StrikeLimits {
	return s.limits
}

// Snapshot returns the current match state.
func (s *Session) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.match.Snapshot()
}

// SessionView is what a client sees of a session.
type SessionView struct {
	ID           string     `json:"id"`
	Status       GameStatus `json:"status"`
	Seat         int        `json:"seat"`
	MyTurn       bool       `json:"my_turn"`
	Seats        [2]Seat    `json:"seats"`
	Private      bool       `json:"private"`
	Board        *Board     `json:"board"`
	StrikerRange [2]float64 `json:"striker_range"`
	Match        Snapshot   `json:"match"`
}

// StateFor returns the session as seen from seat. Spectators pass NoOwner.
func (s *Session) StateFor(seat int) SessionView {
	s.mu.RLock()
	defer s.mu.RUnlock()
	lo, hi := s.match.Board().StrikerXLimits()
	return SessionView{
		ID:           s.ID,
		Status:       s.Status,
		Seat:         seat,
		MyTurn:       s.Status == StatusInProgress && s.match.PlayerTurn() == seat,
		Seats:        s.Seats,
		Private:      s.Private,
		Board:        s.match.Board(),
		StrikerRange: [2]float64{lo, hi},
		Match:        s.match.Snapshot(),
	}
}
