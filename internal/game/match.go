package game

import (
	"fmt"
	"io"
	"math"
	"slices"

	"github.com/charmbracelet/log"
)

// Reason explains why a match ended.
type Reason string

const (
	ReasonNone              Reason = ""
	ReasonClearedOwnCoins   Reason = "emptied own coins with queen secured"
	ReasonOpponentExhausted Reason = "opponent's coins exhausted by current player"
	ReasonConceded          Reason = "opponent conceded"
)

// Match is the complete state of a two-player carrom match. Discs live in a
// fixed arena indexed by id; every collection below holds ids, so a coin's
// location is decided by which collection contains its id.
//
// A Match has a single writer. Callers that want to explore alternatives,
// such as an AI, work on a Clone.
type Match struct {
	board *Board
	discs [NumDiscs]Disc

	playerCoins     [2][]int
	pocketedCoins   [2][]int
	currentPocketed []int

	firstCollision    [2]int
	hasFirstCollision bool

	foulCount       [2]int
	hasQueen        [2]bool
	pocketedQueen   bool
	queenOnHold     bool
	pocketedStriker bool

	playerTurn int
	gameOver   bool
	winner     int
	reason     Reason

	turns  int
	struck bool

	logger *log.Logger
}

// NewMatch racks the coins on board with the default orientation and puts
// player 0 on strike. A nil logger discards rule events.
func NewMatch(board *Board, logger *log.Logger) (*Match, error) {
	if board == nil {
		return nil, fmt.Errorf("%w: nil board", ErrInvalidConfiguration)
	}
	if logger == nil {
		logger = log.New(io.Discard)
	}
	m := &Match{board: board, winner: NoOwner, logger: logger}
	container := &board.Container
	center := board.Center()

	var err error
	m.discs[StrikerID], err = NewDisc(StrikerID, KindStriker, NoOwner, board.StrikerRadius, StrikerMass, board.StrikerStart(0), container)
	if err != nil {
		return nil, err
	}
	m.discs[QueenID], err = NewDisc(QueenID, KindQueen, NoOwner, board.CoinRadius, CoinMass, center, container)
	if err != nil {
		return nil, err
	}
	for i := 0; i < 2*CoinsPerPlayer; i++ {
		id := i + 2
		owner := formationOwner(i)
		m.discs[id], err = NewDisc(id, KindCoin, owner, board.CoinRadius, CoinMass, center, container)
		if err != nil {
			return nil, err
		}
		m.playerCoins[owner] = append(m.playerCoins[owner], id)
	}
	m.layoutCoins(DefaultOrientation)

	if err := m.validatePlacement(); err != nil {
		return nil, err
	}
	return m, nil
}

// formationOwner gives the owner of the i-th coin of the formation: the inner
// ring alternates, then six white and six black coins make up the outer ring.
func formationOwner(i int) int {
	switch {
	case i < 6:
		return i % 2
	case i < 12:
		return 0
	default:
		return 1
	}
}

// layoutCoins places the formation around the centre, rotated by orientation
// degrees. The queen stays in the middle.
func (m *Match) layoutCoins(orientation float64) {
	r := m.board.CoinRadius
	center := m.board.Center()
	vec := Vec2{X: 0, Y: -1}.Rotate(orientation).ScaleTo(2 * r)
	for i := 0; i < 2*CoinsPerPlayer; i++ {
		switch i {
		case 6:
			vec = vec.ScaleTo(4 * r)
		case 12:
			vec = vec.ScaleTo(2 * math.Sqrt(3) * r).Rotate(30)
		}
		d := &m.discs[i+2]
		d.Position = center.Plus(vec)
		d.Velocity = Vec2{}
		vec = vec.Rotate(60)
	}
	m.discs[QueenID].Position = center
}

// validatePlacement rejects a board too small to hold the formation.
func (m *Match) validatePlacement() error {
	c := m.board.Container
	for i := range m.discs {
		d := &m.discs[i]
		if d.Position.X-d.Radius < c.Left || d.Position.X+d.Radius > c.Right ||
			d.Position.Y-d.Radius < c.Top || d.Position.Y+d.Radius > c.Bottom {
			return fmt.Errorf("%w: %s does not fit inside the board", ErrInvalidConfiguration, d)
		}
	}
	return nil
}

// RotateCoins re-racks the formation at a new orientation. It is only allowed
// before the first strike of the match.
func (m *Match) RotateCoins(orientation float64) error {
	if m.struck {
		return ErrRotationLocked
	}
	m.layoutCoins(orientation)
	return nil
}

// Clone returns an independent deep copy. Only the board and the logger are
// shared, and neither is mutated by a match.
func (m *Match) Clone() *Match {
	c := *m
	for p := 0; p < 2; p++ {
		c.playerCoins[p] = slices.Clone(m.playerCoins[p])
		c.pocketedCoins[p] = slices.Clone(m.pocketedCoins[p])
	}
	c.currentPocketed = slices.Clone(m.currentPocketed)
	return &c
}

// SetLogger swaps the rule event logger. A nil logger discards events.
func (m *Match) SetLogger(logger *log.Logger) {
	if logger == nil {
		logger = log.New(io.Discard)
	}
	m.logger = logger
}

// === Striker input ===

// StrikeParams is a launch request from the player on strike: the striker's
// x on the baseline, its speed, and the angle of attack in degrees away from
// straight ahead (positive to the player's left).
type StrikeParams struct {
	X     float64 `json:"x"`
	Speed float64 `json:"speed"`
	Angle float64 `json:"angle"`
}

// StrikeLimits bounds striker input.
type StrikeLimits struct {
	MaxSpeed float64
	MaxAngle float64
}

// DefaultStrikeLimits are the limits of the reference table.
func DefaultStrikeLimits() StrikeLimits {
	return StrikeLimits{MaxSpeed: DefaultMaxSpeed, MaxAngle: DefaultMaxAngle}
}

// ClampStrikerX clamps x into the legal baseline range.
func (m *Match) ClampStrikerX(x float64) float64 {
	lo, hi := m.board.StrikerXLimits()
	return math.Min(hi, math.Max(lo, x))
}

// PlaceStriker puts the striker at rest on the current player's baseline.
func (m *Match) PlaceStriker(x float64) error {
	if m.gameOver {
		return ErrGameOver
	}
	lo, hi := m.board.StrikerXLimits()
	if math.IsNaN(x) || x < lo || x > hi {
		return fmt.Errorf("%w: x=%.2f outside [%.2f, %.2f]", ErrIllegalStrikerPlacement, x, lo, hi)
	}
	s := &m.discs[StrikerID]
	s.Position = Vec2{X: x, Y: m.board.StrikerY(m.playerTurn)}
	s.Velocity = Vec2{}
	return nil
}

// Heading converts an angle of attack into an absolute direction for player.
// Player 0 shoots up the board, player 1 down it.
func Heading(player int, angle float64) float64 {
	if player == 0 {
		return -90 - angle
	}
	return 90 - angle
}

// Launch sets the striker's velocity from speed and angle of attack.
func (m *Match) Launch(speed, angle float64, limits StrikeLimits) error {
	if m.gameOver {
		return ErrGameOver
	}
	if math.IsNaN(speed) || speed < 0 || speed > limits.MaxSpeed {
		return fmt.Errorf("%w: speed %.2f outside [0, %.2f]", ErrIllegalStrikerPlacement, speed, limits.MaxSpeed)
	}
	if math.IsNaN(angle) || math.Abs(angle) > limits.MaxAngle {
		return fmt.Errorf("%w: angle %.2f outside ±%.2f", ErrIllegalStrikerPlacement, angle, limits.MaxAngle)
	}
	m.discs[StrikerID].Velocity = FromPolar(speed, Heading(m.playerTurn, angle))
	m.struck = true
	return nil
}

// Strike places and launches the striker in one call.
func (m *Match) Strike(p StrikeParams, limits StrikeLimits) error {
	if err := m.PlaceStriker(p.X); err != nil {
		return err
	}
	return m.Launch(p.Speed, p.Angle, limits)
}

// === Accessors ===

func (m *Match) Board() *Board         { return m.board }
func (m *Match) PlayerTurn() int       { return m.playerTurn }
func (m *Match) GameOver() bool        { return m.gameOver }
func (m *Match) Reason() Reason        { return m.reason }
func (m *Match) Turns() int            { return m.turns }
func (m *Match) QueenPocketed() bool   { return m.pocketedQueen }
func (m *Match) QueenOnHold() bool     { return m.queenOnHold }
func (m *Match) StrikerPocketed() bool { return m.pocketedStriker }
func (m *Match) CanRotate() bool       { return !m.struck }

// Winner returns the winning player, if the match is over.
func (m *Match) Winner() (int, bool) {
	if !m.gameOver || m.winner == NoOwner {
		return NoOwner, false
	}
	return m.winner, true
}

func (m *Match) CoinsOnBoard(player int) int  { return len(m.playerCoins[player]) }
func (m *Match) CoinsPocketed(player int) int { return len(m.pocketedCoins[player]) }
func (m *Match) Fouls(player int) int         { return m.foulCount[player] }
func (m *Match) HasQueen(player int) bool     { return m.hasQueen[player] }

// Disc returns a copy of the disc with the given id.
func (m *Match) Disc(id int) Disc { return m.discs[id] }

// Striker exposes the striker so an input handler can adjust it before a
// strike.
func (m *Match) Striker() *Disc { return &m.discs[StrikerID] }

// OnBoardCoins returns the ids of a player's coins still in play.
func (m *Match) OnBoardCoins(player int) []int {
	return slices.Clone(m.playerCoins[player])
}

// PocketedCoinIDs returns a player's pocketed coins, oldest first.
func (m *Match) PocketedCoinIDs(player int) []int {
	return slices.Clone(m.pocketedCoins[player])
}

// Concede ends the match in favour of the other player.
func (m *Match) Concede(player int) {
	if m.gameOver {
		return
	}
	m.gameOver = true
	m.winner = 1 - player
	m.reason = ReasonConceded
	m.logger.Info("Conceded", "player", PlayerName(player))
}

// PlayerName is the colour name of a player.
func PlayerName(player int) string {
	if player == 0 {
		return "WHITE"
	}
	return "BLACK"
}

// === Snapshot ===

// Snapshot is a read-only, serialisable view of a match.
type Snapshot struct {
	PlayerTurn      int      `json:"player_turn"`
	GameOver        bool     `json:"game_over"`
	Winner          int      `json:"winner"`
	Reason          Reason   `json:"reason,omitempty"`
	Turns           int      `json:"turns"`
	Discs           []Disc   `json:"discs"`
	CoinsOnBoard    [2]int   `json:"coins_on_board"`
	PocketedCoins   [2][]int `json:"pocketed_coins"`
	FoulCount       [2]int   `json:"foul_count"`
	HasQueen        [2]bool  `json:"has_queen"`
	QueenPocketed   bool     `json:"queen_pocketed"`
	QueenOnHold     bool     `json:"queen_on_hold"`
	StrikerPocketed bool     `json:"striker_pocketed"`
}

// Snapshot captures the discs in play and the rule state.
func (m *Match) Snapshot() Snapshot {
	s := Snapshot{
		PlayerTurn:      m.playerTurn,
		GameOver:        m.gameOver,
		Winner:          m.winner,
		Reason:          m.reason,
		Turns:           m.turns,
		FoulCount:       m.foulCount,
		HasQueen:        m.hasQueen,
		QueenPocketed:   m.pocketedQueen,
		QueenOnHold:     m.queenOnHold,
		StrikerPocketed: m.pocketedStriker,
	}
	for _, d := range m.activeDiscs() {
		s.Discs = append(s.Discs, *d)
	}
	for p := 0; p < 2; p++ {
		s.CoinsOnBoard[p] = len(m.playerCoins[p])
		s.PocketedCoins[p] = slices.Clone(m.pocketedCoins[p])
	}
	return s
}
