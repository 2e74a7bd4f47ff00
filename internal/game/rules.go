package game

// FoulKind classifies why a foul was assessed.
type FoulKind string

const (
	FoulWrongFirstContact FoulKind = "wrong_first_contact"
	FoulStrikerPocketed   FoulKind = "striker_pocketed"
	FoulClearedOwnEarly   FoulKind = "cleared_own_before_queen"
	FoulClearedOpponent   FoulKind = "cleared_opponent_before_queen"
)

// FoulInfo describes a foul assessed while applying the rules.
type FoulInfo struct {
	Player  int      `json:"player"`
	Type    FoulKind `json:"type"`
	Count   int      `json:"count"`
	Message string   `json:"message"`
}

// QueenOutcome is what happened to the queen during a turn.
type QueenOutcome string

const (
	QueenUnchanged QueenOutcome = ""
	QueenCovered   QueenOutcome = "covered"
	QueenOnHold    QueenOutcome = "on_hold"
	QueenReturned  QueenOutcome = "returned"
)

// TurnResult reports the outcome of one completed turn. Exactly one of
// TurnChange and GameOver may be true; if neither is, the player continues.
type TurnResult struct {
	Player          int          `json:"player"`
	Pocketed        []int        `json:"pocketed"`
	StrikerPocketed bool         `json:"striker_pocketed"`
	Fouls           []FoulInfo   `json:"fouls,omitempty"`
	Returned        []int        `json:"returned,omitempty"`
	Queen           QueenOutcome `json:"queen,omitempty"`
	TurnChange      bool         `json:"turn_change"`
	NextTurn        int          `json:"next_turn"`
	GameOver        bool         `json:"game_over"`
	Winner          int          `json:"winner"`
	Reason          Reason       `json:"reason,omitempty"`
	FoulCount       [2]int       `json:"foul_count"`
}

// maxSettleRounds bounds the settlement loop. Every extra round puts at least
// one coin back on the board, and there are only 2*CoinsPerPlayer coins.
const maxSettleRounds = 2*CoinsPerPlayer + 1

// ApplyRules resolves the turn that just came to rest: fouls, queen custody,
// win conditions and who strikes next. Call it once per strike, after
// IsMoving reports false.
func (m *Match) ApplyRules() TurnResult {
	player := m.playerTurn
	res := TurnResult{
		Player:          player,
		Pocketed:        append([]int(nil), m.currentPocketed...),
		StrikerPocketed: m.pocketedStriker,
		NextTurn:        player,
		Winner:          NoOwner,
	}
	if m.gameOver {
		res.GameOver = true
		res.Winner, res.Reason = m.winner, m.reason
		res.FoulCount = m.foulCount
		return res
	}
	m.turns++

	if m.hasFirstCollision {
		m.checkFirstContact(&res)
		m.hasFirstCollision = false
	}

	switch {
	case m.pocketedStriker:
		if m.queenUncovered() {
			m.releaseQueen()
			res.Queen = QueenReturned
			m.logger.Debug(PlayerName(player) + " Pocketed Striker, Queen Reset")
		}
		for _, id := range m.currentPocketed {
			m.returnToBoard(id)
			res.Returned = append(res.Returned, id)
			m.logger.Debug(PlayerName(player)+" Pocketed Striker, Coin Reset", "coin", id)
		}
		m.addFoul(&res, player, FoulStrikerPocketed, 1, "Striker pocketed")
		m.logger.Warn(PlayerName(player) + " Pocketed Striker, Incurred Foul")
		m.settle(&res, true)

	case m.queenUncovered():
		switch {
		case m.pocketedOwnThisTurn():
			m.hasQueen[player] = true
			m.queenOnHold = false
			res.Queen = QueenCovered
			m.logger.Debug(PlayerName(player) + " Pocketed Queen, With Follow")
			m.settle(&res, false)
		case m.queenOnHold:
			m.releaseQueen()
			res.Queen = QueenReturned
			m.logger.Debug(PlayerName(player) + " Lost Queen From Hold, No Follow")
			m.settle(&res, true)
		default:
			m.queenOnHold = true
			res.Queen = QueenOnHold
			m.logger.Debug(PlayerName(player) + " Pocketed Queen, On Hold")
			m.settle(&res, false)
		}

	default:
		if m.pocketedOwnThisTurn() {
			m.logger.Debug(PlayerName(player) + " Pocketed Coin(s)")
			m.settle(&res, false)
		} else {
			m.logger.Debug(PlayerName(player) + " Pocketed Nothing")
			m.settle(&res, true)
		}
	}

	m.checkInvariants()

	res.NextTurn = m.playerTurn
	res.TurnChange = !m.gameOver && m.playerTurn != player
	res.GameOver = m.gameOver
	res.Winner = m.winner
	res.Reason = m.reason
	res.FoulCount = m.foulCount
	return res
}

// checkFirstContact fouls the player on strike when the striker's first
// contact was an opponent's coin. Striking the queen first is never a foul.
func (m *Match) checkFirstContact(res *TurnResult) {
	a, b := &m.discs[m.firstCollision[0]], &m.discs[m.firstCollision[1]]
	var other *Disc
	switch {
	case a.Kind == KindStriker:
		other = b
	case b.Kind == KindStriker:
		other = a
	default:
		return
	}
	if other.Kind == KindCoin && other.Owner != m.playerTurn {
		m.addFoul(res, m.playerTurn, FoulWrongFirstContact, 1, "Struck an opponent's coin first")
		m.logger.Warn(PlayerName(m.playerTurn) + " Incurred Foul Hitting Other Players Coin")
	}
}

// settle pays outstanding fouls, checks the clearance rules and passes the
// turn if change is set. A clearance penalty forces a turn change and runs
// another round, so fouls it adds are paid before control returns.
func (m *Match) settle(res *TurnResult, change bool) {
	progress := -1
	for round := 0; ; round++ {
		invariant(round < maxSettleRounds, "settlement did not terminate after %d rounds", round)

		m.payFouls(res, 0)
		m.payFouls(res, 1)

		onBoard := len(m.playerCoins[0]) + len(m.playerCoins[1])
		invariant(onBoard > progress, "settlement round %d made no progress (%d coins on board)", round, onBoard)
		progress = onBoard

		p, opp := m.playerTurn, 1-m.playerTurn

		if len(m.playerCoins[p]) == 0 {
			if m.queenCovered() {
				m.finish(p, ReasonClearedOwnCoins)
				m.logger.Info(PlayerName(p) + " Pocketed All Coins, Declared Winner!!")
				return
			}
			if m.pocketedQueen {
				m.releaseQueen()
				res.Queen = QueenReturned
			}
			m.addFoul(res, p, FoulClearedOwnEarly, ClearancePenalty, "Pocketed all own coins before covering the queen")
			m.logger.Warn(PlayerName(p) + " Pocketed All Coins without Capturing Queen, Incurs Heavy Penalty")
			change = true
			continue
		}

		if len(m.playerCoins[opp]) == 0 {
			if m.queenCovered() {
				m.finish(opp, ReasonOpponentExhausted)
				m.logger.Info(PlayerName(p) + " Pocketed All Enemy Coins, " + PlayerName(opp) + " Declared Winner!!")
				return
			}
			id, ok := m.popPocketed(opp)
			invariant(ok, "%s has no coins on the board or in the pocket", PlayerName(opp))
			res.Returned = append(res.Returned, id)
			if m.pocketedQueen {
				m.releaseQueen()
				res.Queen = QueenReturned
				m.logger.Debug(PlayerName(p) + " Pocketed All Enemy Coins When Queen On Hold, Queen Reset")
			}
			m.addFoul(res, p, FoulClearedOpponent, ClearancePenalty, "Pocketed all opponent coins before covering the queen")
			m.logger.Warn(PlayerName(p) + " Pocketed All Enemy Coins without Capturing Queen, Incurs Heavy Penalty")
			change = true
			continue
		}
		break
	}

	m.currentPocketed = nil
	m.pocketedStriker = false
	if change {
		m.logger.Debug(PlayerName(m.playerTurn) + " Lost Turn.")
		m.playerTurn = 1 - m.playerTurn
		m.logger.Debug(PlayerName(m.playerTurn) + " Turn Begins")
	}
	striker := &m.discs[StrikerID]
	striker.Velocity = Vec2{}
	striker.Position = m.board.StrikerStart(m.playerTurn)
}

// payFouls settles a player's fouls with pocketed coins, most recent first,
// then with the queen if the player holds it. Fouls that cannot be paid stay
// on the books for a later turn.
func (m *Match) payFouls(res *TurnResult, player int) {
	for m.foulCount[player] > 0 {
		if id, ok := m.popPocketed(player); ok {
			m.foulCount[player]--
			res.Returned = append(res.Returned, id)
			m.logger.Info(PlayerName(player)+" Coin Reset, Foul Reduced", "coin", id)
			continue
		}
		invariant(!(m.hasQueen[0] && m.hasQueen[1]), "both players hold the queen")
		if m.hasQueen[player] {
			m.releaseQueen()
			m.foulCount[player]--
			res.Queen = QueenReturned
			m.logger.Info(PlayerName(player) + " Queen Reset, Foul Reduced")
		}
		return
	}
}

func (m *Match) addFoul(res *TurnResult, player int, kind FoulKind, count int, msg string) {
	m.foulCount[player] += count
	res.Fouls = append(res.Fouls, FoulInfo{Player: player, Type: kind, Count: count, Message: msg})
}

// releaseQueen clears all custody state and puts the queen back in the centre.
func (m *Match) releaseQueen() {
	m.hasQueen = [2]bool{}
	m.queenOnHold = false
	m.pocketedQueen = false
	m.discs[QueenID].Reset()
}

func (m *Match) finish(winner int, reason Reason) {
	m.gameOver = true
	m.winner = winner
	m.reason = reason
}

// queenUncovered is true while the queen is pocketed but nobody holds it.
func (m *Match) queenUncovered() bool {
	return m.pocketedQueen && !m.hasQueen[0] && !m.hasQueen[1]
}

// queenCovered is true once the queen is pocketed and held by a player.
func (m *Match) queenCovered() bool {
	return m.pocketedQueen && (m.hasQueen[0] || m.hasQueen[1])
}

func (m *Match) pocketedOwnThisTurn() bool {
	for _, id := range m.currentPocketed {
		if m.discs[id].Owner == m.playerTurn {
			return true
		}
	}
	return false
}

// checkInvariants panics if the rule state is inconsistent.
func (m *Match) checkInvariants() {
	invariant(!(m.hasQueen[0] && m.hasQueen[1]), "both players hold the queen")
	invariant(!m.queenOnHold || m.pocketedQueen, "queen on hold but not pocketed")
	invariant(!(m.hasQueen[0] || m.hasQueen[1]) || m.pocketedQueen, "queen held but not pocketed")
	invariant(m.foulCount[0] >= 0 && m.foulCount[1] >= 0, "negative foul count %v", m.foulCount)

	var seen [NumDiscs]int
	for p := 0; p < 2; p++ {
		for _, id := range m.playerCoins[p] {
			invariant(m.discs[id].Owner == p, "coin %d on player %d's board belongs to %d", id, p, m.discs[id].Owner)
			seen[id]++
		}
		for _, id := range m.pocketedCoins[p] {
			invariant(m.discs[id].Owner == p, "coin %d in player %d's pocket belongs to %d", id, p, m.discs[id].Owner)
			seen[id]++
		}
	}
	for id := range m.discs {
		if m.discs[id].Kind != KindCoin {
			continue
		}
		invariant(seen[id] == 1, "coin %d appears in %d collections", id, seen[id])
	}
}
