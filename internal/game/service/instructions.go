package service

import (
	"context"
	"time"

	"github.com/mbrekke/throwdown/internal/game/domain"
	apperrors "github.com/mbrekke/throwdown/internal/platform/errors"
)

// Actor identifies the caller of an instruction. Grant is the signed
// token proving control of the identity; it is ignored by permissive
// authorizers.
type Actor struct {
	ID    string
	Grant string
}

// InitializeGameRequest carries the parameters for a new game. The actor
// becomes the host and pays the first entry fee.
type InitializeGameRequest struct {
	Actor           Actor
	MinPlayers      int
	MaxPlayers      int
	TotalRounds     int
	EntryFee        uint64
	Timeout         time.Duration
	LosersCanRejoin bool
	Mode            domain.Mode
	AutoRoundDelay  time.Duration
	MaxAutoRounds   int
	Currency        domain.Currency
	Variant         domain.Variant
	TimeLimit       time.Duration
	ChatEnabled     bool
	NFTPrize        bool
	TournamentID    string
}

// InitializeGame creates a game with the actor seated as host.
func (e *Engine) InitializeGame(ctx context.Context, req InitializeGameRequest) (domain.Game, error) {
	ctx, span := e.startSpan(ctx, "InitializeGame", "", req.Actor.ID)
	var err error
	defer func() { finishSpan(span, err) }()

	if err = e.authorize(ctx, req.Actor.Grant, req.Actor.ID); err != nil {
		return domain.Game{}, err
	}

	game, transfers, err := domain.NewGame(domain.NewGameInput{
		Host:            req.Actor.ID,
		MinPlayers:      req.MinPlayers,
		MaxPlayers:      req.MaxPlayers,
		TotalRounds:     req.TotalRounds,
		EntryFee:        req.EntryFee,
		Timeout:         req.Timeout,
		LosersCanRejoin: req.LosersCanRejoin,
		Mode:            req.Mode,
		AutoRoundDelay:  req.AutoRoundDelay,
		MaxAutoRounds:   req.MaxAutoRounds,
		Currency:        req.Currency,
		Variant:         req.Variant,
		TimeLimit:       req.TimeLimit,
		ChatEnabled:     req.ChatEnabled,
		NFTPrize:        req.NFTPrize,
		TournamentID:    req.TournamentID,
	}, e.now, e.flip, e.newID)
	if err != nil {
		return domain.Game{}, err
	}

	if err = e.store.PutGame(ctx, game, transfers); err != nil {
		return domain.Game{}, err
	}
	e.emit(ctx, "game.initialize", game, req.Actor.ID, map[string]any{
		"entry_fee":    game.EntryFee,
		"player_count": game.PlayerCount,
		"total_rounds": game.TotalRounds,
	})
	return game, nil
}

// JoinGame seats the actor in a waiting game and collects the entry fee.
func (e *Engine) JoinGame(ctx context.Context, gameID string, actor Actor) (domain.Game, error) {
	ctx, span := e.startSpan(ctx, "JoinGame", gameID, actor.ID)
	var err error
	defer func() { finishSpan(span, err) }()

	if err = e.authorize(ctx, actor.Grant, actor.ID); err != nil {
		return domain.Game{}, err
	}
	game, err := e.store.GetGame(ctx, gameID)
	if err != nil {
		return domain.Game{}, err
	}
	game, transfers, err := game.Join(actor.ID, e.now())
	if err != nil {
		return domain.Game{}, err
	}
	if err = e.store.PutGame(ctx, game, transfers); err != nil {
		return domain.Game{}, err
	}
	e.emit(ctx, "game.join", game, actor.ID, nil)
	return game, nil
}

// CommitChoice records the actor's commitment digest for this round.
func (e *Engine) CommitChoice(ctx context.Context, gameID string, actor Actor, commitment domain.Commitment) (domain.Game, error) {
	ctx, span := e.startSpan(ctx, "CommitChoice", gameID, actor.ID)
	var err error
	defer func() { finishSpan(span, err) }()

	if err = e.authorize(ctx, actor.Grant, actor.ID); err != nil {
		return domain.Game{}, err
	}
	game, err := e.store.GetGame(ctx, gameID)
	if err != nil {
		return domain.Game{}, err
	}
	game, err = game.Commit(actor.ID, commitment, e.now())
	if err != nil {
		return domain.Game{}, err
	}
	if err = e.store.PutGame(ctx, game, nil); err != nil {
		return domain.Game{}, err
	}
	e.emit(ctx, "game.commit", game, actor.ID, nil)
	return game, nil
}

// RevealChoice opens the actor's commitment. The last reveal of a round
// resolves it.
func (e *Engine) RevealChoice(ctx context.Context, gameID string, actor Actor, choice domain.Choice, salt [domain.SaltSize]byte) (domain.Game, error) {
	ctx, span := e.startSpan(ctx, "RevealChoice", gameID, actor.ID)
	var err error
	defer func() { finishSpan(span, err) }()

	if err = e.authorize(ctx, actor.Grant, actor.ID); err != nil {
		return domain.Game{}, err
	}
	game, err := e.store.GetGame(ctx, gameID)
	if err != nil {
		return domain.Game{}, err
	}
	game, err = game.Reveal(actor.ID, choice, salt, e.hash, e.now())
	if err != nil {
		return domain.Game{}, err
	}
	if err = e.store.PutGame(ctx, game, nil); err != nil {
		return domain.Game{}, err
	}
	e.emit(ctx, "game.reveal", game, actor.ID, map[string]any{
		"choice": choice.String(),
	})
	return game, nil
}

// ResolveTimeout advances a stalled game. Anyone may call it; the clock
// is the authority, not the caller.
func (e *Engine) ResolveTimeout(ctx context.Context, gameID string) (domain.Game, error) {
	ctx, span := e.startSpan(ctx, "ResolveTimeout", gameID, "")
	var err error
	defer func() { finishSpan(span, err) }()

	game, err := e.store.GetGame(ctx, gameID)
	if err != nil {
		return domain.Game{}, err
	}
	game, transfers, err := game.ResolveTimeout(e.now())
	if err != nil {
		return domain.Game{}, err
	}
	if err = e.store.PutGame(ctx, game, transfers); err != nil {
		return domain.Game{}, err
	}
	e.emit(ctx, "game.resolve_timeout", game, "", map[string]any{
		"refunds": len(transfers),
	})
	return game, nil
}

// ClaimWinnings pays the actor's share of the pot.
func (e *Engine) ClaimWinnings(ctx context.Context, gameID string, actor Actor) (domain.Game, error) {
	ctx, span := e.startSpan(ctx, "ClaimWinnings", gameID, actor.ID)
	var err error
	defer func() { finishSpan(span, err) }()

	if err = e.authorize(ctx, actor.Grant, actor.ID); err != nil {
		return domain.Game{}, err
	}
	game, err := e.store.GetGame(ctx, gameID)
	if err != nil {
		return domain.Game{}, err
	}
	game, transfers, err := game.ClaimWinnings(actor.ID, e.now())
	if err != nil {
		return domain.Game{}, err
	}
	if err = e.store.PutGame(ctx, game, transfers); err != nil {
		return domain.Game{}, err
	}
	var share uint64
	for _, t := range transfers {
		share += t.Amount
	}
	e.emit(ctx, "game.claim", game, actor.ID, map[string]any{
		"share": share,
	})
	return game, nil
}

// RejoinGame lets a loser buy back into a finished game.
func (e *Engine) RejoinGame(ctx context.Context, gameID string, actor Actor) (domain.Game, error) {
	ctx, span := e.startSpan(ctx, "RejoinGame", gameID, actor.ID)
	var err error
	defer func() { finishSpan(span, err) }()

	if err = e.authorize(ctx, actor.Grant, actor.ID); err != nil {
		return domain.Game{}, err
	}
	game, err := e.store.GetGame(ctx, gameID)
	if err != nil {
		return domain.Game{}, err
	}
	game, transfers, err := game.Rejoin(actor.ID, e.now())
	if err != nil {
		return domain.Game{}, err
	}
	if err = e.store.PutGame(ctx, game, transfers); err != nil {
		return domain.Game{}, err
	}
	e.emit(ctx, "game.rejoin", game, actor.ID, nil)
	return game, nil
}

// StartNewGameRound restarts a finished game with the same players.
func (e *Engine) StartNewGameRound(ctx context.Context, gameID string, actor Actor) (domain.Game, error) {
	ctx, span := e.startSpan(ctx, "StartNewGameRound", gameID, actor.ID)
	var err error
	defer func() { finishSpan(span, err) }()

	if err = e.authorize(ctx, actor.Grant, actor.ID); err != nil {
		return domain.Game{}, err
	}
	game, err := e.store.GetGame(ctx, gameID)
	if err != nil {
		return domain.Game{}, err
	}
	game, err = game.StartNewGameRound(actor.ID, e.now(), e.flip)
	if err != nil {
		return domain.Game{}, err
	}
	if err = e.store.PutGame(ctx, game, nil); err != nil {
		return domain.Game{}, err
	}
	e.emit(ctx, "game.start_new", game, actor.ID, nil)
	return game, nil
}

// AutoPlayNextRound restarts an automated game within its budget.
func (e *Engine) AutoPlayNextRound(ctx context.Context, gameID string, actor Actor) (domain.Game, error) {
	ctx, span := e.startSpan(ctx, "AutoPlayNextRound", gameID, actor.ID)
	var err error
	defer func() { finishSpan(span, err) }()

	if err = e.authorize(ctx, actor.Grant, actor.ID); err != nil {
		return domain.Game{}, err
	}
	game, err := e.store.GetGame(ctx, gameID)
	if err != nil {
		return domain.Game{}, err
	}
	game, err = game.AutoPlayNextRound(actor.ID, e.now(), e.flip)
	if err != nil {
		return domain.Game{}, err
	}
	if err = e.store.PutGame(ctx, game, nil); err != nil {
		return domain.Game{}, err
	}
	e.emit(ctx, "game.auto_play", game, actor.ID, map[string]any{
		"auto_rounds_played": game.AutoRoundsPlayed,
	})
	return game, nil
}

// AddBotPlayers fills open seats with synthetic players. Only the host
// may add bots.
func (e *Engine) AddBotPlayers(ctx context.Context, gameID string, actor Actor, count int) (domain.Game, error) {
	ctx, span := e.startSpan(ctx, "AddBotPlayers", gameID, actor.ID)
	var err error
	defer func() { finishSpan(span, err) }()

	if err = e.authorize(ctx, actor.Grant, actor.ID); err != nil {
		return domain.Game{}, err
	}
	game, err := e.store.GetGame(ctx, gameID)
	if err != nil {
		return domain.Game{}, err
	}
	if game.Host != actor.ID {
		err = apperrors.New(apperrors.CodeUnauthorized, "only the host may add bot players")
		return domain.Game{}, err
	}
	game, err = game.AddBots(count, e.hash, e.now())
	if err != nil {
		return domain.Game{}, err
	}
	if err = e.store.PutGame(ctx, game, nil); err != nil {
		return domain.Game{}, err
	}
	e.emit(ctx, "game.add_bots", game, actor.ID, map[string]any{
		"bots": count,
	})
	return game, nil
}
