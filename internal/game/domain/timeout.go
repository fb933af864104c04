package domain

import (
	"time"

	"github.com/mbrekke/throwdown/internal/ledger"
	"github.com/mbrekke/throwdown/internal/platform/errors"
)

// ResolveTimeout forces the game forward after the timeout window has
// elapsed since the last accepted action. Any signer may call it; the
// elapsed-time gate is the only precondition. Behavior depends on phase:
//
//   - WaitingForPlayers: the table never filled. Entry fees are refunded
//     to the real players and the game finishes.
//   - CommitPhase: seats without a commitment are dropped. If enough
//     committed players remain the reveal phase starts, otherwise the
//     game finishes.
//   - RevealPhase: unrevealed seats are scored as ChoiceNone losses and
//     the round resolves normally.
//   - Finished: always an error; there is nothing left to force.
func (g Game) ResolveTimeout(now time.Time) (Game, []ledger.Transfer, error) {
	if g.Phase == PhaseFinished {
		return Game{}, nil, errors.New(errors.CodeAlreadyFinished, "game is already finished")
	}

	elapsed := now.UTC().Sub(g.LastActionAt)
	if elapsed < g.Timeout {
		return Game{}, nil, errors.WithMetadata(errors.CodeTimeoutNotElapsed,
			"timeout window has not elapsed",
			map[string]string{
				"elapsed":  elapsed.String(),
				"required": g.Timeout.String(),
			})
	}

	g = g.clone()
	var transfers []ledger.Transfer

	switch g.Phase {
	case PhaseWaitingForPlayers:
		transfers = g.refundEntryFees()
		g.Phase = PhaseFinished

	case PhaseCommit:
		committed := g.Players[:0:0]
		for _, p := range g.Players {
			if !p.Commitment.IsZero() {
				committed = append(committed, p)
			}
		}
		if len(committed) >= g.MinPlayers {
			g.Players = committed
			g.Phase = PhaseReveal
		} else {
			g.Phase = PhaseFinished
		}

	case PhaseReveal:
		for i := range g.Players {
			if !g.Players[i].Revealed {
				g.Players[i].Choice = ChoiceNone
				g.Players[i].Revealed = true
			}
		}
		g.completeRound()
	}

	g.LastActionAt = now.UTC()
	return g, transfers, nil
}

// refundEntryFees returns each real player's entry fee out of the pot.
// Bot fees were an accounting fiction with no funding account; whatever
// they contributed stays behind.
func (g *Game) refundEntryFees() []ledger.Transfer {
	if g.EntryFee == 0 {
		return nil
	}
	var transfers []ledger.Transfer
	for _, p := range g.Players {
		if p.Bot {
			continue
		}
		if g.Pot < g.EntryFee {
			break
		}
		transfers = append(transfers, ledger.Transfer{
			From:   ledger.PotAccount(g.ID),
			To:     p.ID,
			Amount: g.EntryFee,
			Reason: ledger.ReasonRefund,
		})
		g.Pot -= g.EntryFee
	}
	return transfers
}
