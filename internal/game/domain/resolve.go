package domain

// roundDeltas computes each player's score delta for one round: the count
// of opponents that player individually beats. Every ordered pair is
// examined, so a player can score up to n-1 points in a single round and
// an n-way tie awards nothing.
//
// Callers must only invoke this once every participating player is
// revealed; ChoiceNone entries are treated as automatic losses.
func roundDeltas(players []Player, variant Variant) []int {
	deltas := make([]int, len(players))
	if len(players) < 2 {
		return deltas
	}
	for i := range players {
		for j := range players {
			if i == j {
				continue
			}
			if Beats(players[i].Choice, players[j].Choice, variant) {
				deltas[i]++
			}
		}
	}
	return deltas
}

// applyRound accrues one round of score deltas onto cumulative scores.
func applyRound(players []Player, variant Variant) {
	deltas := roundDeltas(players, variant)
	for i := range players {
		players[i].Score += deltas[i]
	}
}
