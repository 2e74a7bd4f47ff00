package game

// activeDiscs lists the discs in play: the player on strike's coins, then the
// opponent's, then the striker and the queen unless pocketed. The order fixes
// which pair is seen first when several collide on the same step.
func (m *Match) activeDiscs() []*Disc {
	p, opp := m.playerTurn, 1-m.playerTurn
	active := make([]*Disc, 0, NumDiscs)
	for _, id := range m.playerCoins[p] {
		active = append(active, &m.discs[id])
	}
	for _, id := range m.playerCoins[opp] {
		active = append(active, &m.discs[id])
	}
	if !m.pocketedStriker {
		active = append(active, &m.discs[StrikerID])
	}
	if !m.pocketedQueen {
		active = append(active, &m.discs[QueenID])
	}
	return active
}

// Step advances the match by dt: resolve collisions between approaching
// pairs, integrate every disc, then capture discs that fell into a pocket.
func (m *Match) Step(dt, deceleration, restitution float64) {
	active := m.activeDiscs()

	for i := 0; i < len(active); i++ {
		for j := i + 1; j < len(active); j++ {
			a, b := active[i], active[j]
			if !a.CollidesWith(b) {
				continue
			}
			if !m.hasFirstCollision && (a.IsMoving() || b.IsMoving()) {
				m.firstCollision = [2]int{a.ID, b.ID}
				m.hasFirstCollision = true
			}
			a.ResolveCollision(b, restitution)
		}
	}

	for _, d := range active {
		d.Integrate(dt, deceleration)
		if m.board.Pocketed(d) {
			m.capture(d)
		}
	}
}

// capture takes a disc out of play.
func (m *Match) capture(d *Disc) {
	d.Velocity = Vec2{}
	switch d.Kind {
	case KindStriker:
		m.pocketedStriker = true
	case KindQueen:
		m.pocketedQueen = true
	case KindCoin:
		m.moveToPocketed(d.ID)
		m.currentPocketed = append(m.currentPocketed, d.ID)
	}
}

// IsMoving reports whether any disc in play has a nonzero velocity.
func (m *Match) IsMoving() bool {
	for _, d := range m.activeDiscs() {
		if d.IsMoving() {
			return true
		}
	}
	return false
}

// moveToPocketed transfers a coin from its owner's board set onto the top of
// the owner's pocketed stack.
func (m *Match) moveToPocketed(id int) {
	owner := m.discs[id].Owner
	idx := indexOf(m.playerCoins[owner], id)
	invariant(idx >= 0, "coin %d is not on the board", id)
	m.playerCoins[owner] = append(m.playerCoins[owner][:idx], m.playerCoins[owner][idx+1:]...)
	m.pocketedCoins[owner] = append(m.pocketedCoins[owner], id)
}

// returnToBoard removes a coin from its owner's pocketed stack, wherever it
// sits, and puts it back at the centre.
func (m *Match) returnToBoard(id int) {
	owner := m.discs[id].Owner
	idx := indexOf(m.pocketedCoins[owner], id)
	invariant(idx >= 0, "coin %d is not pocketed", id)
	m.pocketedCoins[owner] = append(m.pocketedCoins[owner][:idx], m.pocketedCoins[owner][idx+1:]...)
	m.playerCoins[owner] = append(m.playerCoins[owner], id)
	m.discs[id].Reset()
}

// popPocketed returns the most recently pocketed coin of player to the board.
func (m *Match) popPocketed(player int) (int, bool) {
	n := len(m.pocketedCoins[player])
	if n == 0 {
		return 0, false
	}
	id := m.pocketedCoins[player][n-1]
	m.returnToBoard(id)
	return id, true
}

func indexOf(ids []int, id int) int {
	for i, v := range ids {
		if v == id {
			return i
		}
	}
	return -1
}
