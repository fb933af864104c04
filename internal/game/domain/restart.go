package domain

import (
	"encoding/hex"
	"fmt"
	"strconv"
	"time"

	"github.com/mbrekke/throwdown/internal/digest"
	"github.com/mbrekke/throwdown/internal/ledger"
	"github.com/mbrekke/throwdown/internal/platform/errors"
	"github.com/mbrekke/throwdown/internal/random"
)

// Rejoin lets a loser buy back in after a finished game, when the game
// was created with loser rejoin enabled. The caller must have scored
// strictly below the maximum. Only the caller's round-local fields are
// reset; everyone else's seats and scores are untouched.
func (g Game) Rejoin(playerID string, now time.Time) (Game, []ledger.Transfer, error) {
	if g.Phase != PhaseFinished {
		return Game{}, nil, g.wrongPhase("rejoin")
	}
	if !g.LosersCanRejoin {
		return Game{}, nil, errors.New(errors.CodeNotEligible, "this game does not allow losers to rejoin")
	}
	idx := g.playerIndex(playerID)
	if idx < 0 || g.Players[idx].Score >= g.MaxScore() {
		return Game{}, nil, errors.New(errors.CodeNotEligible, "caller was not a loser in the previous game")
	}

	g = g.clone()
	g.Players[idx].resetRound()
	g.Pot += g.EntryFee
	g.LastActionAt = now.UTC()

	var transfers []ledger.Transfer
	if g.EntryFee > 0 {
		transfers = append(transfers, ledger.Transfer{
			From:   playerID,
			To:     ledger.PotAccount(g.ID),
			Amount: g.EntryFee,
			Reason: ledger.ReasonEntryFee,
		})
	}
	return g, transfers, nil
}

// StartNewGameRound restarts a finished game with the same membership:
// round one, all round-local state and scores cleared, commit phase. The
// realized player count is re-flipped when the game allows a range. The
// initiator must be the host or a seated player.
func (g Game) StartNewGameRound(actorID string, now time.Time, flip random.CoinFlip) (Game, error) {
	if g.Phase != PhaseFinished {
		return Game{}, g.wrongPhase("start new game round")
	}
	if !g.isParticipant(actorID) {
		return Game{}, errors.New(errors.CodeUnknownParticipant, "initiator is not part of this game")
	}

	g = g.clone()
	g.restart(now, flip)
	return g, nil
}

// AutoPlayNextRound is StartNewGameRound for automated games, metered by
// the auto-round budget fixed at initialization.
func (g Game) AutoPlayNextRound(actorID string, now time.Time, flip random.CoinFlip) (Game, error) {
	if g.Mode != ModeAutomated {
		return Game{}, errors.New(errors.CodeNotEligible, "game is not in automated mode")
	}
	if g.Phase != PhaseFinished {
		return Game{}, g.wrongPhase("auto-play next round")
	}
	if g.AutoRoundsPlayed >= g.MaxAutoRounds {
		return Game{}, errors.WithMetadata(errors.CodeAutoRoundLimitReached,
			"auto-round budget exhausted",
			map[string]string{"max_auto_rounds": strconv.Itoa(g.MaxAutoRounds)})
	}
	if !g.isParticipant(actorID) {
		return Game{}, errors.New(errors.CodeUnknownParticipant, "initiator is not part of this game")
	}

	g = g.clone()
	g.AutoRoundsPlayed++
	g.restart(now, flip)
	return g, nil
}

// restart resets the aggregate for a fresh game with current membership.
func (g *Game) restart(now time.Time, flip random.CoinFlip) {
	if flip == nil {
		flip = random.ClockParity(nil)
	}
	g.CurrentRound = 1
	g.Phase = PhaseCommit
	if g.MinPlayers != g.MaxPlayers {
		g.PlayerCount = pickPlayerCount(g.MinPlayers, g.MaxPlayers, flip)
	}
	for i := range g.Players {
		g.Players[i].resetRound()
		g.Players[i].Score = 0
		g.Players[i].Claimed = false
	}
	g.LastActionAt = now.UTC()
}

// AddBots fills open seats with synthetic players. Bots have no control
// over secrecy: they never commit or reveal and stay at ChoiceNone unless
// driven externally. Each bot's entry fee is credited to the pot as an
// accounting fiction with no funding account behind it. Filling the last
// seat starts the commit phase.
func (g Game) AddBots(count int, hash digest.Func, now time.Time) (Game, error) {
	if g.Phase != PhaseWaitingForPlayers {
		return Game{}, g.wrongPhase("add bot players")
	}
	open := g.PlayerCount - len(g.Players)
	if open <= 0 || count <= 0 {
		return Game{}, errors.New(errors.CodeNoRoomAvailable, "no open seats for bot players")
	}
	if count > open {
		count = open
	}

	g = g.clone()
	for i := 0; i < count; i++ {
		g.Players = append(g.Players, newPlayer(botIdentity(hash, g.ID, len(g.Players)), true))
		g.Pot += g.EntryFee
	}
	if len(g.Players) >= g.PlayerCount {
		g.Phase = PhaseCommit
	}
	g.LastActionAt = now.UTC()
	return g, nil
}

// botIdentity derives a deterministic synthetic identity from the game id
// and seat index, so replays reproduce the same bots.
func botIdentity(hash digest.Func, gameID string, seat int) string {
	sum := hash(fmt.Appendf(nil, "bot/%s/%d", gameID, seat))
	return "bot-" + hex.EncodeToString(sum[:8])
}
