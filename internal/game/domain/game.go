// Package domain implements the game state machine and its commit-reveal
// protocol.
//
// A Game is an aggregate owned by the host runtime: every operation takes
// the aggregate by value, validates phase legality and actor membership
// before touching anything, and returns the updated aggregate plus the
// fund transfers the host ledger must execute atomically with the state
// write. Operations never mutate the receiver's backing storage, so a
// rejected action leaves the persisted state untouched.
package domain

import (
	"strconv"
	"strings"
	"time"

	"github.com/mbrekke/throwdown/internal/digest"
	"github.com/mbrekke/throwdown/internal/id"
	"github.com/mbrekke/throwdown/internal/ledger"
	"github.com/mbrekke/throwdown/internal/platform/errors"
	"github.com/mbrekke/throwdown/internal/random"
)

// Player-count bounds accepted at initialization.
const (
	minTableSize = 3
	maxTableSize = 4
)

// Game is the aggregate root for one table. It is persisted whole and
// reloaded on every action; the engine assumes the host serializes all
// actions against one game.
type Game struct {
	ID               string
	Host             string
	Players          []Player
	MinPlayers       int
	MaxPlayers       int
	PlayerCount      int
	Phase            Phase
	CurrentRound     int
	TotalRounds      int
	EntryFee         uint64
	Pot              uint64
	Timeout          time.Duration
	LastActionAt     time.Time
	LosersCanRejoin  bool
	Mode             Mode
	AutoRoundDelay   time.Duration
	MaxAutoRounds    int
	AutoRoundsPlayed int
	Currency         Currency
	Variant          Variant
	TimeLimit        time.Duration // zero when the game has no time limit
	Spectators       []string
	ChatEnabled      bool
	TournamentID     string // empty when the game is standalone
	NFTPrize         bool
}

// NewGameInput describes the parameters needed to initialize a game.
type NewGameInput struct {
	Host            string
	MinPlayers      int
	MaxPlayers      int
	TotalRounds     int
	EntryFee        uint64
	Timeout         time.Duration
	LosersCanRejoin bool
	Mode            Mode
	AutoRoundDelay  time.Duration
	MaxAutoRounds   int
	Currency        Currency
	Variant         Variant
	TimeLimit       time.Duration
	ChatEnabled     bool
	NFTPrize        bool
	TournamentID    string
}

// NewGame initializes a game in WaitingForPlayers with the host seated as
// the first player. The realized player count is fixed here: when the
// input allows a range, a single bit from the flip collaborator picks it.
// The host pays the entry fee into the pot.
func NewGame(input NewGameInput, now func() time.Time, flip random.CoinFlip, idGenerator func() (string, error)) (Game, []ledger.Transfer, error) {
	if now == nil {
		now = time.Now
	}
	if flip == nil {
		flip = random.ClockParity(now)
	}
	if idGenerator == nil {
		idGenerator = id.NewID
	}

	if err := validateNewGameInput(input); err != nil {
		return Game{}, nil, err
	}

	gameID, err := idGenerator()
	if err != nil {
		return Game{}, nil, errors.Wrap(errors.CodeUnknown, "generate game id", err)
	}

	game := Game{
		ID:              gameID,
		Host:            input.Host,
		Players:         []Player{newPlayer(input.Host, false)},
		MinPlayers:      input.MinPlayers,
		MaxPlayers:      input.MaxPlayers,
		PlayerCount:     pickPlayerCount(input.MinPlayers, input.MaxPlayers, flip),
		Phase:           PhaseWaitingForPlayers,
		CurrentRound:    1,
		TotalRounds:     input.TotalRounds,
		EntryFee:        input.EntryFee,
		Pot:             input.EntryFee,
		Timeout:         input.Timeout,
		LastActionAt:    now().UTC(),
		LosersCanRejoin: input.LosersCanRejoin,
		Mode:            input.Mode,
		AutoRoundDelay:  input.AutoRoundDelay,
		MaxAutoRounds:   input.MaxAutoRounds,
		Currency:        input.Currency,
		Variant:         input.Variant,
		TimeLimit:       input.TimeLimit,
		ChatEnabled:     input.ChatEnabled,
		TournamentID:    input.TournamentID,
		NFTPrize:        input.NFTPrize,
	}

	var transfers []ledger.Transfer
	if input.EntryFee > 0 {
		transfers = append(transfers, ledger.Transfer{
			From:   input.Host,
			To:     ledger.PotAccount(gameID),
			Amount: input.EntryFee,
			Reason: ledger.ReasonEntryFee,
		})
	}

	return game, transfers, nil
}

func validateNewGameInput(input NewGameInput) error {
	if strings.TrimSpace(input.Host) == "" {
		return errors.New(errors.CodeInvalidParameters, "host identity is required")
	}
	if input.MinPlayers < minTableSize || input.MinPlayers > maxTableSize ||
		input.MaxPlayers < minTableSize || input.MaxPlayers > maxTableSize ||
		input.MinPlayers > input.MaxPlayers {
		return errors.WithMetadata(errors.CodeInvalidParameters,
			"player bounds must be 3 or 4 with min <= max",
			map[string]string{
				"min_players": strconv.Itoa(input.MinPlayers),
				"max_players": strconv.Itoa(input.MaxPlayers),
			})
	}
	if input.TotalRounds < 1 {
		return errors.New(errors.CodeInvalidParameters, "total rounds must be at least 1")
	}
	if input.Mode != ModeManual && input.Mode != ModeAutomated {
		return errors.New(errors.CodeInvalidParameters, "unknown game mode")
	}
	if input.Currency != CurrencyNative && input.Currency != CurrencyToken {
		return errors.New(errors.CodeInvalidParameters, "unknown currency mode")
	}
	if input.Variant < VariantClassic || input.Variant > VariantTournament {
		return errors.New(errors.CodeInvalidParameters, "unknown game variant")
	}
	return nil
}

// pickPlayerCount fixes the realized table size. The flip bit is weak
// randomness; callers must not rely on it being unpredictable.
func pickPlayerCount(min, max int, flip random.CoinFlip) int {
	if min == max {
		return min
	}
	if flip() {
		return max
	}
	return min
}

// Join seats a player. Legal only in WaitingForPlayers; reaching the
// realized player count starts the commit phase.
func (g Game) Join(playerID string, now time.Time) (Game, []ledger.Transfer, error) {
	if g.Phase != PhaseWaitingForPlayers {
		return Game{}, nil, g.wrongPhase("join")
	}
	if g.hasPlayer(playerID) {
		return Game{}, nil, errors.New(errors.CodeDuplicateParticipant, "player already joined this game")
	}
	if len(g.Players) >= g.PlayerCount {
		return Game{}, nil, errors.New(errors.CodeGameFull, "game already has its full player count")
	}

	g = g.clone()
	g.Players = append(g.Players, newPlayer(playerID, false))
	g.Pot += g.EntryFee
	if len(g.Players) >= g.PlayerCount {
		g.Phase = PhaseCommit
	}
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

// Commit stores a player's commitment digest. Re-committing is allowed
// while the commit phase lasts; there is no lock-in beyond the phase
// gate. When every seat holds a non-zero digest the reveal phase starts.
func (g Game) Commit(playerID string, commitment Commitment, now time.Time) (Game, error) {
	if g.Phase != PhaseCommit {
		return Game{}, g.wrongPhase("commit")
	}
	idx := g.playerIndex(playerID)
	if idx < 0 {
		return Game{}, errors.New(errors.CodeUnknownParticipant, "actor is not a player in this game")
	}

	g = g.clone()
	g.Players[idx].Commitment = commitment

	allCommitted := true
	for _, p := range g.Players {
		if p.Commitment.IsZero() {
			allCommitted = false
			break
		}
	}
	if allCommitted {
		g.Phase = PhaseReveal
	}
	g.LastActionAt = now.UTC()
	return g, nil
}

// Reveal checks a player's (choice, salt) pair against their stored
// commitment and records the choice. When the last player reveals, the
// round is resolved: scores accrue pairwise and the game either advances
// to the next commit phase or finishes.
func (g Game) Reveal(playerID string, choice Choice, salt [SaltSize]byte, hash digest.Func, now time.Time) (Game, error) {
	if g.Phase != PhaseReveal {
		return Game{}, g.wrongPhase("reveal")
	}
	idx := g.playerIndex(playerID)
	if idx < 0 {
		return Game{}, errors.New(errors.CodeUnknownParticipant, "actor is not a player in this game")
	}
	if err := VerifyCommitment(hash, choice, salt, g.Players[idx].Commitment); err != nil {
		return Game{}, err
	}

	g = g.clone()
	g.Players[idx].Choice = choice
	g.Players[idx].Revealed = true

	allRevealed := true
	for _, p := range g.Players {
		if !p.Revealed {
			allRevealed = false
			break
		}
	}
	if allRevealed {
		g.completeRound()
	}
	g.LastActionAt = now.UTC()
	return g, nil
}

// completeRound applies the round resolution and either advances to the
// next commit phase or finishes the game. Callers must ensure every seat
// is revealed first.
func (g *Game) completeRound() {
	applyRound(g.Players, g.Variant)
	if g.CurrentRound >= g.TotalRounds {
		g.Phase = PhaseFinished
		return
	}
	g.CurrentRound++
	g.Phase = PhaseCommit
	for i := range g.Players {
		g.Players[i].resetRound()
	}
}

// clone returns a copy whose slices are detached from the receiver's
// backing arrays, so operations never alias previously persisted state.
func (g Game) clone() Game {
	players := make([]Player, len(g.Players))
	copy(players, g.Players)
	g.Players = players
	if len(g.Spectators) > 0 {
		spectators := make([]string, len(g.Spectators))
		copy(spectators, g.Spectators)
		g.Spectators = spectators
	}
	return g
}

func (g Game) hasPlayer(playerID string) bool {
	return g.playerIndex(playerID) >= 0
}

func (g Game) playerIndex(playerID string) int {
	for i, p := range g.Players {
		if p.ID == playerID {
			return i
		}
	}
	return -1
}

// isParticipant reports whether the actor is the host or any seated
// player.
func (g Game) isParticipant(actorID string) bool {
	return g.Host == actorID || g.hasPlayer(actorID)
}

func (g Game) wrongPhase(action string) error {
	return errors.WithMetadata(errors.CodeWrongPhase,
		action+" is not legal in the current phase",
		map[string]string{"phase": g.Phase.String()})
}
