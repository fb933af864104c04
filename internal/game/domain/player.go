package domain

// Player is a seat at the table. Identity is unique within a game.
type Player struct {
	ID         string
	Choice     Choice
	Commitment Commitment
	Revealed   bool
	Score      int
	Claimed    bool
	Bot        bool
}

// resetRound clears the round-local fields at a commit-phase boundary.
// The cumulative score is untouched.
func (p *Player) resetRound() {
	p.Choice = ChoiceNone
	p.Commitment = Commitment{}
	p.Revealed = false
}

// newPlayer seats a fresh player with empty round state.
func newPlayer(id string, bot bool) Player {
	return Player{ID: id, Choice: ChoiceNone, Bot: bot}
}
