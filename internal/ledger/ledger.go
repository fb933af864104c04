// Package ledger defines the fund-movement contract between the game
// engine and the host ledger.
//
// The engine never moves funds itself. Each state-machine operation
// returns the transfers it requires; whichever store persists the new
// aggregate must execute them atomically with the state write, or fail
// the whole action.
package ledger

// Reason labels why a transfer was requested.
type Reason string

const (
	// ReasonEntryFee is a player's buy-in moving into the pot.
	ReasonEntryFee Reason = "ENTRY_FEE"
	// ReasonWinnings is a winner's share moving out of the pot.
	ReasonWinnings Reason = "WINNINGS"
	// ReasonRefund is an entry fee returned after an abandoned game.
	ReasonRefund Reason = "REFUND"
)

// Transfer describes a single fund movement to execute atomically with
// the state write that produced it.
type Transfer struct {
	From   string
	To     string
	Amount uint64
	Reason Reason
}

// PotAccount returns the ledger account holding a game's pot.
func PotAccount(gameID string) string {
	return "pot/" + gameID
}
