package game

// GameStatus is the lifecycle stage of a hosted match.
type GameStatus string

const (
	StatusWaiting    GameStatus = "WAITING"
	StatusInProgress GameStatus = "IN_PROGRESS"
	StatusCompleted  GameStatus = "COMPLETED"
	StatusCancelled  GameStatus = "CANCELLED"
)

// Open reports whether the match has not ended yet.
func (s GameStatus) Open() bool {
	return s == StatusWaiting || s == StatusInProgress
}
