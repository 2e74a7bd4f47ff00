package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/playmatatu/carrom/internal/game"
)

// Ledger is the append-only history of turns and match outcomes.
type Ledger struct {
	db *sqlx.DB
}

func NewLedger(db *sqlx.DB) *Ledger {
	return &Ledger{db: db}
}

// turnRow is one row of match_turns.
type turnRow struct {
	MatchID         string `db:"match_id"`
	TurnNumber      int    `db:"turn_number"`
	Player          int    `db:"player"`
	Pocketed        string `db:"pocketed"`
	Fouls           string `db:"fouls"`
	StrikerPocketed bool   `db:"striker_pocketed"`
	Queen           string `db:"queen"`
	TurnChange      bool   `db:"turn_change"`
	GameOver        bool   `db:"game_over"`
}

func newTurnRow(matchID string, turn int, res game.TurnResult) (turnRow, error) {
	pocketed := res.Pocketed
	if pocketed == nil {
		pocketed = []int{}
	}
	pocketedJSON, err := json.Marshal(pocketed)
	if err != nil {
		return turnRow{}, err
	}
	fouls := res.Fouls
	if fouls == nil {
		fouls = []game.FoulInfo{}
	}
	foulsJSON, err := json.Marshal(fouls)
	if err != nil {
		return turnRow{}, err
	}
	return turnRow{
		MatchID:         matchID,
		TurnNumber:      turn,
		Player:          res.Player,
		Pocketed:        string(pocketedJSON),
		Fouls:           string(foulsJSON),
		StrikerPocketed: res.StrikerPocketed,
		Queen:           string(res.Queen),
		TurnChange:      res.TurnChange,
		GameOver:        res.GameOver,
	}, nil
}

// RecordTurn appends a settled turn to match_turns.
func (l *Ledger) RecordTurn(ctx context.Context, matchID string, res game.TurnResult) error {
	var maxTurn int
	if err := l.db.GetContext(ctx, &maxTurn, `SELECT COALESCE(MAX(turn_number), 0) FROM match_turns WHERE match_id = $1`, matchID); err != nil {
		return fmt.Errorf("get max turn for match %s: %w", matchID, err)
	}

	row, err := newTurnRow(matchID, maxTurn+1, res)
	if err != nil {
		return fmt.Errorf("marshal turn for match %s: %w", matchID, err)
	}

	_, err = l.db.NamedExecContext(ctx, `
		INSERT INTO match_turns (match_id, turn_number, player, pocketed, fouls, striker_pocketed, queen, turn_change, game_over, created_at)
		VALUES (:match_id, :turn_number, :player, CAST(:pocketed AS jsonb), CAST(:fouls AS jsonb), :striker_pocketed, :queen, :turn_change, :game_over, NOW())`,
		row,
	)
	if err != nil {
		return fmt.Errorf("insert turn for match %s: %w", matchID, err)
	}
	return nil
}

// RecordResult stores the outcome of a finished match. Recording the same
// match twice keeps the latest outcome.
func (l *Ledger) RecordResult(ctx context.Context, matchID string, winner int, reason game.Reason, turns int) error {
	_, err := l.db.ExecContext(ctx, `
		INSERT INTO matches (match_id, winner, reason, turns, completed_at)
		VALUES ($1, $2, $3, $4, NOW())
		ON CONFLICT (match_id) DO UPDATE
		SET winner = EXCLUDED.winner, reason = EXCLUDED.reason, turns = EXCLUDED.turns, completed_at = EXCLUDED.completed_at`,
		matchID, winnerColumn(winner), string(reason), turns,
	)
	if err != nil {
		return fmt.Errorf("record result for match %s: %w", matchID, err)
	}
	return nil
}

// MatchResult is a finished match as stored in the ledger.
type MatchResult struct {
	MatchID     string        `db:"match_id" json:"match_id"`
	Winner      sql.NullInt64 `db:"winner" json:"-"`
	Reason      string        `db:"reason" json:"reason"`
	Turns       int           `db:"turns" json:"turns"`
	CompletedAt time.Time     `db:"completed_at" json:"completed_at"`
}

// WinnerSeat returns the winning seat, or game.NoOwner for a match without one.
func (r MatchResult) WinnerSeat() int {
	if !r.Winner.Valid {
		return game.NoOwner
	}
	return int(r.Winner.Int64)
}

// RecentResults returns up to limit finished matches, newest first.
func (l *Ledger) RecentResults(ctx context.Context, limit int) ([]MatchResult, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	results := []MatchResult{}
	err := l.db.SelectContext(ctx, &results, `
		SELECT match_id, winner, reason, turns, completed_at
		FROM matches
		ORDER BY completed_at DESC
		LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("query recent results: %w", err)
	}
	return results, nil
}

func winnerColumn(winner int) sql.NullInt64 {
	if winner != 0 && winner != 1 {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: int64(winner), Valid: true}
}
