package domain

import (
	"time"

	"github.com/mbrekke/throwdown/internal/ledger"
	"github.com/mbrekke/throwdown/internal/platform/errors"
)

// MaxScore returns the highest cumulative score at the table.
func (g Game) MaxScore() int {
	max := 0
	for _, p := range g.Players {
		if p.Score > max {
			max = p.Score
		}
	}
	return max
}

// Winners returns every player tied for the maximum cumulative score.
// It is a pure query; claim idempotency is enforced by ClaimWinnings
// zeroing a claimant's score, not here.
func (g Game) Winners() []Player {
	max := g.MaxScore()
	var winners []Player
	for _, p := range g.Players {
		if p.Score == max {
			winners = append(winners, p)
		}
	}
	return winners
}

// WinnerShare returns each winner's equal share of the pot. Floor
// division: any remainder stays in the pot undistributed.
func (g Game) WinnerShare() uint64 {
	winners := g.Winners()
	if len(winners) == 0 {
		return 0
	}
	return g.Pot / uint64(len(winners))
}

// ClaimWinnings pays the caller their share of the pot. Legal only in
// Finished; the caller must be in the winner set. A successful claim
// zeroes the caller's score so a repeat claim fails with NotAWinner.
func (g Game) ClaimWinnings(playerID string, now time.Time) (Game, []ledger.Transfer, error) {
	if g.Phase != PhaseFinished {
		return Game{}, nil, g.wrongPhase("claim winnings")
	}
	idx := g.playerIndex(playerID)
	if idx < 0 {
		return Game{}, nil, errors.New(errors.CodeUnknownParticipant, "actor is not a player in this game")
	}

	// Zeroing the score is the primary double-claim guard; the claimed
	// flag closes the gap when every remaining score is already zero.
	max := g.MaxScore()
	if g.Players[idx].Score != max || g.Players[idx].Claimed {
		return Game{}, nil, errors.New(errors.CodeNotAWinner, "caller is not in the winner set")
	}

	share := g.WinnerShare()

	g = g.clone()
	g.Players[idx].Score = 0
	g.Players[idx].Claimed = true
	g.Pot -= share

	var transfers []ledger.Transfer
	if share > 0 {
		transfers = append(transfers, ledger.Transfer{
			From:   ledger.PotAccount(g.ID),
			To:     playerID,
			Amount: share,
			Reason: ledger.ReasonWinnings,
		})
	}
	return g, transfers, nil
}
