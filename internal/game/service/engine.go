// Package service orchestrates game instructions: it authorizes the
// acting player, loads the aggregate, applies the domain transition, and
// persists the result together with its ledger transfers in one store
// write. Every accepted instruction leaves a telemetry event behind.
package service

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/mbrekke/throwdown/internal/auth"
	"github.com/mbrekke/throwdown/internal/digest"
	"github.com/mbrekke/throwdown/internal/game/domain"
	"github.com/mbrekke/throwdown/internal/id"
	apperrors "github.com/mbrekke/throwdown/internal/platform/errors"
	"github.com/mbrekke/throwdown/internal/random"
	"github.com/mbrekke/throwdown/internal/storage"
	"github.com/mbrekke/throwdown/internal/telemetry"
)

const tracerName = "github.com/mbrekke/throwdown/internal/game/service"

// Config carries the engine's collaborators. Store is required; all other
// fields default to production implementations.
type Config struct {
	Store storage.Store
	Auth  auth.Authorizer
	Hash  digest.Func
	Now   func() time.Time
	Flip  random.CoinFlip
	NewID func() (string, error)
	Audit *telemetry.Emitter
}

// Engine executes game instructions against the store.
type Engine struct {
	store  storage.Store
	auth   auth.Authorizer
	hash   digest.Func
	now    func() time.Time
	flip   random.CoinFlip
	newID  func() (string, error)
	audit  *telemetry.Emitter
	tracer trace.Tracer
}

// New creates an engine from config.
func New(cfg Config) (*Engine, error) {
	if cfg.Store == nil {
		return nil, apperrors.New(apperrors.CodeInvalidParameters, "store is required")
	}
	if cfg.Auth == nil {
		cfg.Auth = auth.AllowAll{}
	}
	if cfg.Hash == nil {
		cfg.Hash = digest.SHA256
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	if cfg.Flip == nil {
		cfg.Flip = random.ClockParity(cfg.Now)
	}
	if cfg.NewID == nil {
		cfg.NewID = id.NewID
	}
	return &Engine{
		store:  cfg.Store,
		auth:   cfg.Auth,
		hash:   cfg.Hash,
		now:    cfg.Now,
		flip:   cfg.Flip,
		newID:  cfg.NewID,
		audit:  cfg.Audit,
		tracer: otel.Tracer(tracerName),
	}, nil
}

// GetGame returns the current state of a game.
func (e *Engine) GetGame(ctx context.Context, gameID string) (domain.Game, error) {
	return e.store.GetGame(ctx, gameID)
}

// Deposit funds an account so it can cover entry fees.
func (e *Engine) Deposit(ctx context.Context, account string, amount uint64) error {
	return e.store.Deposit(ctx, account, amount)
}

// startSpan opens an instruction span with the shared attributes.
func (e *Engine) startSpan(ctx context.Context, name, gameID, actorID string) (context.Context, trace.Span) {
	return e.tracer.Start(ctx, name, trace.WithAttributes(
		attribute.String("game.id", gameID),
		attribute.String("game.actor", actorID),
	))
}

// finishSpan records the outcome on the span before ending it.
func finishSpan(span trace.Span, err error) {
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		span.SetAttributes(attribute.String("error.code", string(apperrors.GetCode(err))))
	}
	span.End()
}

// emit appends an audit event for an accepted instruction.
func (e *Engine) emit(ctx context.Context, name string, game domain.Game, actorID string, attrs map[string]any) {
	if e.audit == nil {
		return
	}
	base := map[string]any{
		"phase": game.Phase.String(),
		"round": game.CurrentRound,
	}
	for key, value := range attrs {
		base[key] = value
	}
	// Audit failures never fail the instruction.
	_ = e.audit.EmitInstruction(ctx, name, game.ID, actorID, telemetry.SeverityInfo, base)
}

// authorize verifies the grant asserts control of the actor.
func (e *Engine) authorize(ctx context.Context, grant, actorID string) error {
	if actorID == "" {
		return apperrors.New(apperrors.CodeInvalidParameters, "actor id is required")
	}
	return e.auth.Authorize(ctx, grant, actorID)
}
