package game

// Physical dimensions of a standard carrom board, in centimetres and grams.
// Board geometry is derived from these by scaling to the requested pixel width.
const (
	BoardLength       = 74.0
	FrameLength       = 7.6
	TotalLength       = BoardLength + 2*FrameLength
	PocketRadiusCM    = 2.25
	StrikerMass       = 15.0
	StrikerRadiusCM   = 2.065
	CoinRadiusCM      = 1.59
	CoinMass          = 5.5
	BaseLength        = 47.0
	BaseHeight        = 3.18
	BaseRadius        = BaseHeight / 2
	BaseDistance      = 10.15
	BaseOffset        = (BoardLength - BaseLength) / 2
	CoinsPerPlayer    = 9
	NumDiscs          = 2 + 2*CoinsPerPlayer // striker, queen, 18 coins
	StrikerID         = 0
	QueenID           = 1
	DefaultBoardWidth = 700.0

	// Simulation defaults of the reference table.
	DefaultDT           = 0.1
	DefaultDeceleration = 0.3
	DefaultRestitution  = 0.9
	DefaultFrameEvery   = 10
	DefaultMaxSteps     = 200000

	// Striker input limits.
	DefaultMaxSpeed = 100.0
	DefaultMaxAngle = 90.0

	// Initial rotation of the coin formation.
	DefaultOrientation = 60.0

	// Penalty assessed when a player clears a side of the board before the
	// queen is covered.
	ClearancePenalty = 2
)
