package ai

import (
	"context"
	"errors"
	"math/rand"
	"runtime"
	"sync"

	"github.com/charmbracelet/log"
	"golang.org/x/sync/errgroup"

	"github.com/playmatatu/carrom/internal/game"
)

// Score weights. A covered queen outweighs any realistic coin difference; a
// queen on hold is worth a little since it may still be covered.
const (
	opponentCoinWeight = 2
	foulWeight         = 3
	queenCoveredBonus  = 15
	queenOnHoldBonus   = 3

	// Formation rotations are drawn from [0, maxOrientation). The formation
	// repeats every 120 degrees.
	maxOrientation = 120.0
)

// Config tunes the random search.
type Config struct {
	Candidates    int
	Workers       int
	Sim           game.SimParams
	Limits        game.StrikeLimits
	AllowRotation bool
}

// Choice is a strike picked by the search, with the score it achieved.
type Choice struct {
	Strike      game.StrikeParams
	Orientation float64
	Rotate      bool
	Score       int
}

// Searcher samples random strikes, plays each out on a copy of the match and
// keeps the one that leaves the striking player best off.
type Searcher struct {
	cfg    Config
	rng    *rand.Rand
	logger *log.Logger
	mu     sync.Mutex
}

// NewSearcher builds a searcher seeded with seed. Equal seeds give equal
// choices for equal matches.
func NewSearcher(cfg Config, seed int64, logger *log.Logger) *Searcher {
	if cfg.Candidates <= 0 {
		cfg.Candidates = 10
	}
	if cfg.Workers <= 0 {
		cfg.Workers = runtime.NumCPU()
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Searcher{cfg: cfg, rng: rand.New(rand.NewSource(seed)), logger: logger.WithPrefix("[AI]")}
}

// Score rates m from player's point of view.
func Score(player int, m *game.Match) int {
	opp := 1 - player
	score := m.CoinsPocketed(player) - opponentCoinWeight*m.CoinsPocketed(opp) - foulWeight*m.Fouls(player)
	if m.HasQueen(player) {
		score += queenCoveredBonus
	} else if m.QueenOnHold() {
		score += queenOnHoldBonus
	}
	return score
}

// candidates draws the strikes to try. Sampling happens up front so the
// outcome does not depend on how work is split between workers.
func (s *Searcher) candidates(m *game.Match) []Choice {
	s.mu.Lock()
	defer s.mu.Unlock()

	lo, hi := m.Board().StrikerXLimits()
	rotate := s.cfg.AllowRotation && m.CanRotate()
	out := make([]Choice, s.cfg.Candidates)
	for i := range out {
		angle := (s.rng.Float64()*2 - 1) * s.cfg.Limits.MaxAngle
		x := lo + s.rng.Float64()*(hi-lo)
		orientation := s.rng.Float64() * maxOrientation
		out[i] = Choice{
			Strike:      game.StrikeParams{X: x, Speed: s.cfg.Limits.MaxSpeed, Angle: angle},
			Orientation: orientation,
			Rotate:      rotate,
		}
	}
	return out
}

// Best evaluates every candidate in parallel and returns the highest scoring
// one. Ties go to the earliest candidate.
func (s *Searcher) Best(ctx context.Context, m *game.Match) (Choice, error) {
	if m.GameOver() {
		return Choice{}, game.ErrGameOver
	}
	choices := s.candidates(m)
	player := m.PlayerTurn()

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(s.cfg.Workers)
	for i := range choices {
		i := i
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			score, err := s.evaluate(m, player, choices[i])
			if err != nil {
				return err
			}
			choices[i].Score = score
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return Choice{}, err
	}

	best := 0
	for i := 1; i < len(choices); i++ {
		if choices[i].Score > choices[best].Score {
			best = i
		}
	}
	s.logger.Debug("Strike chosen", "player", game.PlayerName(player), "score", choices[best].Score,
		"x", choices[best].Strike.X, "angle", choices[best].Strike.Angle)
	return choices[best], nil
}

func (s *Searcher) evaluate(m *game.Match, player int, c Choice) (int, error) {
	clone := m.Clone()
	clone.SetLogger(nil)
	if c.Rotate {
		if err := clone.RotateCoins(c.Orientation); err != nil {
			return 0, err
		}
	}
	if err := clone.Strike(c.Strike, s.cfg.Limits); err != nil {
		return 0, err
	}
	if _, err := game.PlayTurn(clone, s.cfg.Sim, game.DefaultFrameEvery, nil); err != nil {
		if errors.Is(err, game.ErrSimulationDidNotSettle) {
			return minScore, nil
		}
		return 0, err
	}
	return Score(player, clone), nil
}

// minScore ranks a candidate that never came to rest below every other.
const minScore = -1 << 31

// ChooseStrike lets a Searcher act as a bot seat.
func (s *Searcher) ChooseStrike(ctx context.Context, m *game.Match) (game.StrikeParams, error) {
	c, err := s.Best(ctx, m)
	if err != nil {
		return game.StrikeParams{}, err
	}
	return c.Strike, nil
}
