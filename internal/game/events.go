package game

// Event types published for a match.
const (
	EventMatchState     = "match_state"
	EventTurnResult     = "turn_result"
	EventFrame          = "frame"
	EventMatchCancelled = "match_cancelled"
)

// MatchEvent is a notification about a match, fanned out to every server
// that may hold connections for it.
type MatchEvent struct {
	MatchID string      `json:"match_id"`
	Type    string      `json:"type"`
	Data    interface{} `json:"data"`
}
