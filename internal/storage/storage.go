// Package storage defines the persistence boundary for game aggregates,
// player account balances, and operational telemetry. Implementations must
// apply a game write and its ledger transfers in one atomic step so a failed
// transfer never leaves a half-updated game behind.
package storage

import (
	"context"
	"time"

	"github.com/mbrekke/throwdown/internal/game/domain"
	"github.com/mbrekke/throwdown/internal/ledger"
	apperrors "github.com/mbrekke/throwdown/internal/platform/errors"
)

// ErrNotFound indicates a requested persistence record is missing.
// Callers use this to differentiate between legitimate "no such game"
// states and transport or data corruption failures.
var ErrNotFound = apperrors.New(apperrors.CodeNotFound, "record not found")

// ErrInsufficientFunds indicates a ledger transfer would overdraw the
// paying account. The enclosing game write is rolled back.
var ErrInsufficientFunds = apperrors.New(apperrors.CodeTransferFailed, "insufficient funds for transfer")

// GameStore persists game aggregates together with the ledger movements
// each state transition produced.
type GameStore interface {
	// PutGame atomically stores a game and applies the given transfers.
	// Either everything commits or nothing does.
	PutGame(ctx context.Context, game domain.Game, transfers []ledger.Transfer) error
	// GetGame retrieves a game aggregate by id.
	GetGame(ctx context.Context, id string) (domain.Game, error)
	// ListGameIDs returns ids of all stored games, ordered ascending.
	ListGameIDs(ctx context.Context) ([]string, error)
}

// LedgerStore owns account balances and the transfer journal.
type LedgerStore interface {
	// Deposit credits an account from outside the game economy, funding
	// it so it can cover entry fees.
	Deposit(ctx context.Context, account string, amount uint64) error
	// Balance returns the current balance for an account. Unknown
	// accounts report zero.
	Balance(ctx context.Context, account string) (uint64, error)
	// ListTransfers returns the transfer journal entries touching an
	// account, oldest first.
	ListTransfers(ctx context.Context, account string) ([]TransferRecord, error)
}

// TransferRecord is one journal entry written when a transfer is applied.
type TransferRecord struct {
	Seq       uint64
	From      string
	To        string
	Amount    uint64
	Reason    ledger.Reason
	CreatedAt time.Time
}

// TelemetryEvent captures operational observations emitted during
// instruction execution.
type TelemetryEvent struct {
	Timestamp      time.Time
	EventName      string
	Severity       string
	GameID         string
	ActorID        string
	TraceID        string
	SpanID         string
	AttributesJSON []byte
}

// TelemetryStore persists operational telemetry records for audits and
// incident analysis.
type TelemetryStore interface {
	AppendTelemetryEvent(ctx context.Context, evt TelemetryEvent) error
	// ListTelemetryEvents returns events for a game, oldest first.
	ListTelemetryEvents(ctx context.Context, gameID string) ([]TelemetryEvent, error)
}

// Store is a composite interface for all persistence concerns the engine
// uses.
type Store interface {
	GameStore
	LedgerStore
	TelemetryStore
	Close() error
}
