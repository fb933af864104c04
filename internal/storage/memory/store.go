// Package memory provides an in-memory store used by tests and the local
// demo runner. State is isolated from callers by round-tripping game
// aggregates through JSON, matching the durability stores' behavior.
package memory

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/mbrekke/throwdown/internal/game/domain"
	"github.com/mbrekke/throwdown/internal/ledger"
	"github.com/mbrekke/throwdown/internal/storage"
)

// Store keeps all records in process memory.
type Store struct {
	mu        sync.Mutex
	games     map[string][]byte
	balances  map[string]uint64
	transfers []storage.TransferRecord
	telemetry []storage.TelemetryEvent
	seq       uint64
	clock     func() time.Time
}

// New creates an empty in-memory store.
func New() *Store {
	return &Store{
		games:    make(map[string][]byte),
		balances: make(map[string]uint64),
		clock:    time.Now,
	}
}

// Close is a no-op for the in-memory store.
func (s *Store) Close() error { return nil }

// PutGame stores a game and applies its transfers under one lock, so a
// failed transfer leaves neither the game nor the balances changed.
func (s *Store) PutGame(ctx context.Context, game domain.Game, transfers []ledger.Transfer) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if game.ID == "" {
		return fmt.Errorf("game id is required")
	}
	payload, err := json.Marshal(game)
	if err != nil {
		return fmt.Errorf("marshal game: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, t := range transfers {
		if s.balances[t.From] < t.Amount {
			return storage.ErrInsufficientFunds
		}
	}
	for _, t := range transfers {
		s.balances[t.From] -= t.Amount
		s.balances[t.To] += t.Amount
		s.seq++
		s.transfers = append(s.transfers, storage.TransferRecord{
			Seq:       s.seq,
			From:      t.From,
			To:        t.To,
			Amount:    t.Amount,
			Reason:    t.Reason,
			CreatedAt: s.clock().UTC(),
		})
	}
	s.games[game.ID] = payload
	return nil
}

// GetGame retrieves a game by id.
func (s *Store) GetGame(ctx context.Context, id string) (domain.Game, error) {
	if err := ctx.Err(); err != nil {
		return domain.Game{}, err
	}
	if id == "" {
		return domain.Game{}, fmt.Errorf("game id is required")
	}

	s.mu.Lock()
	payload, ok := s.games[id]
	s.mu.Unlock()
	if !ok {
		return domain.Game{}, storage.ErrNotFound
	}

	var game domain.Game
	if err := json.Unmarshal(payload, &game); err != nil {
		return domain.Game{}, fmt.Errorf("unmarshal game: %w", err)
	}
	return game, nil
}

// ListGameIDs returns ids of all stored games, ordered ascending.
func (s *Store) ListGameIDs(ctx context.Context) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	ids := make([]string, 0, len(s.games))
	for id := range s.games {
		ids = append(ids, id)
	}
	s.mu.Unlock()

	sort.Strings(ids)
	return ids, nil
}

// Deposit credits an account from outside the game economy.
func (s *Store) Deposit(ctx context.Context, account string, amount uint64) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if account == "" {
		return fmt.Errorf("account is required")
	}

	s.mu.Lock()
	s.balances[account] += amount
	s.mu.Unlock()
	return nil
}

// Balance returns the current balance for an account.
func (s *Store) Balance(ctx context.Context, account string) (uint64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	s.mu.Lock()
	balance := s.balances[account]
	s.mu.Unlock()
	return balance, nil
}

// ListTransfers returns journal entries touching an account, oldest first.
func (s *Store) ListTransfers(ctx context.Context, account string) ([]storage.TransferRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	var records []storage.TransferRecord
	for _, rec := range s.transfers {
		if rec.From == account || rec.To == account {
			records = append(records, rec)
		}
	}
	return records, nil
}

// AppendTelemetryEvent records one telemetry event.
func (s *Store) AppendTelemetryEvent(ctx context.Context, evt storage.TelemetryEvent) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	s.telemetry = append(s.telemetry, evt)
	s.mu.Unlock()
	return nil
}

// ListTelemetryEvents returns events for a game, oldest first.
func (s *Store) ListTelemetryEvents(ctx context.Context, gameID string) ([]storage.TelemetryEvent, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	var events []storage.TelemetryEvent
	for _, evt := range s.telemetry {
		if evt.GameID == gameID {
			events = append(events, evt)
		}
	}
	return events, nil
}

var _ storage.Store = (*Store)(nil)
