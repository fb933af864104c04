// Package sqlite provides a SQLite-backed engine store. Game writes and
// their ledger transfers share a single transaction.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"github.com/mbrekke/throwdown/internal/game/domain"
	"github.com/mbrekke/throwdown/internal/ledger"
	sqlitemigrate "github.com/mbrekke/throwdown/internal/platform/storage/sqlitemigrate"
	"github.com/mbrekke/throwdown/internal/storage"
	"github.com/mbrekke/throwdown/internal/storage/sqlite/migrations"
)

// Store persists engine state in SQLite.
type Store struct {
	sqlDB *sql.DB
	clock func() time.Time
}

func toMillis(value time.Time) int64 {
	return value.UTC().UnixMilli()
}

func fromMillis(value int64) time.Time {
	return time.UnixMilli(value).UTC()
}

// Open opens a SQLite engine store and applies embedded migrations.
func Open(path string) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("storage path is required")
	}
	cleanPath := filepath.Clean(path)
	dsn := cleanPath + "?_journal_mode=WAL&_foreign_keys=ON&_busy_timeout=5000&_synchronous=NORMAL"
	sqlDB, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	if err := sqlDB.Ping(); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}
	if err := sqlitemigrate.ApplyMigrations(sqlDB, migrations.FS, ""); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	return &Store{sqlDB: sqlDB, clock: time.Now}, nil
}

// Close closes the SQLite handle.
func (s *Store) Close() error {
	if s == nil || s.sqlDB == nil {
		return nil
	}
	return s.sqlDB.Close()
}

// PutGame persists a game and applies its transfers in one transaction.
func (s *Store) PutGame(ctx context.Context, game domain.Game, transfers []ledger.Transfer) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s == nil || s.sqlDB == nil {
		return fmt.Errorf("storage is not configured")
	}
	if strings.TrimSpace(game.ID) == "" {
		return fmt.Errorf("game id is required")
	}

	payload, err := json.Marshal(game)
	if err != nil {
		return fmt.Errorf("marshal game: %w", err)
	}

	tx, err := s.sqlDB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin put game: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	now := toMillis(s.clock())
	for _, t := range transfers {
		if err := applyTransfer(ctx, tx, t, now); err != nil {
			return err
		}
	}

	_, err = tx.ExecContext(
		ctx,
		`INSERT INTO games (id, phase, payload, updated_at)
		 VALUES (?, ?, ?, ?)
		 ON CONFLICT (id) DO UPDATE SET
		   phase = excluded.phase,
		   payload = excluded.payload,
		   updated_at = excluded.updated_at`,
		game.ID,
		int(game.Phase),
		payload,
		now,
	)
	if err != nil {
		return fmt.Errorf("put game: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit put game: %w", err)
	}
	return nil
}

func applyTransfer(ctx context.Context, tx *sql.Tx, t ledger.Transfer, nowMillis int64) error {
	var balance int64
	err := tx.QueryRowContext(ctx,
		`SELECT balance FROM accounts WHERE account = ?`, t.From).Scan(&balance)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("read balance for %s: %w", t.From, err)
	}
	if balance < int64(t.Amount) {
		return storage.ErrInsufficientFunds
	}

	if _, err := tx.ExecContext(ctx,
		`UPDATE accounts SET balance = balance - ? WHERE account = ?`,
		int64(t.Amount), t.From); err != nil {
		return fmt.Errorf("debit %s: %w", t.From, err)
	}
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO accounts (account, balance) VALUES (?, ?)
		 ON CONFLICT (account) DO UPDATE SET balance = balance + excluded.balance`,
		t.To, int64(t.Amount)); err != nil {
		return fmt.Errorf("credit %s: %w", t.To, err)
	}
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO transfers (from_account, to_account, amount, reason, created_at)
		 VALUES (?, ?, ?, ?, ?)`,
		t.From, t.To, int64(t.Amount), string(t.Reason), nowMillis); err != nil {
		return fmt.Errorf("append transfer: %w", err)
	}
	return nil
}

// GetGame returns one game by id.
func (s *Store) GetGame(ctx context.Context, id string) (domain.Game, error) {
	if err := ctx.Err(); err != nil {
		return domain.Game{}, err
	}
	if s == nil || s.sqlDB == nil {
		return domain.Game{}, fmt.Errorf("storage is not configured")
	}
	id = strings.TrimSpace(id)
	if id == "" {
		return domain.Game{}, fmt.Errorf("game id is required")
	}

	var payload []byte
	err := s.sqlDB.QueryRowContext(ctx,
		`SELECT payload FROM games WHERE id = ?`, id).Scan(&payload)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Game{}, storage.ErrNotFound
		}
		return domain.Game{}, fmt.Errorf("get game: %w", err)
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
	if s == nil || s.sqlDB == nil {
		return nil, fmt.Errorf("storage is not configured")
	}

	rows, err := s.sqlDB.QueryContext(ctx,
		`SELECT id FROM games ORDER BY id ASC`)
	if err != nil {
		return nil, fmt.Errorf("list game ids: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("list game ids: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list game ids: %w", err)
	}
	return ids, nil
}

// Deposit credits an account from outside the game economy.
func (s *Store) Deposit(ctx context.Context, account string, amount uint64) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s == nil || s.sqlDB == nil {
		return fmt.Errorf("storage is not configured")
	}
	account = strings.TrimSpace(account)
	if account == "" {
		return fmt.Errorf("account is required")
	}

	_, err := s.sqlDB.ExecContext(ctx,
		`INSERT INTO accounts (account, balance) VALUES (?, ?)
		 ON CONFLICT (account) DO UPDATE SET balance = balance + excluded.balance`,
		account, int64(amount))
	if err != nil {
		return fmt.Errorf("deposit: %w", err)
	}
	return nil
}

// Balance returns the current balance for an account.
func (s *Store) Balance(ctx context.Context, account string) (uint64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	if s == nil || s.sqlDB == nil {
		return 0, fmt.Errorf("storage is not configured")
	}

	var balance int64
	err := s.sqlDB.QueryRowContext(ctx,
		`SELECT balance FROM accounts WHERE account = ?`, account).Scan(&balance)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, nil
		}
		return 0, fmt.Errorf("read balance: %w", err)
	}
	return uint64(balance), nil
}

// ListTransfers returns journal entries touching an account, oldest first.
func (s *Store) ListTransfers(ctx context.Context, account string) ([]storage.TransferRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if s == nil || s.sqlDB == nil {
		return nil, fmt.Errorf("storage is not configured")
	}

	rows, err := s.sqlDB.QueryContext(ctx,
		`SELECT seq, from_account, to_account, amount, reason, created_at
		   FROM transfers
		  WHERE from_account = ? OR to_account = ?
		  ORDER BY seq ASC`,
		account, account)
	if err != nil {
		return nil, fmt.Errorf("list transfers: %w", err)
	}
	defer rows.Close()

	var records []storage.TransferRecord
	for rows.Next() {
		var rec storage.TransferRecord
		var amount int64
		var reason string
		var createdAt int64
		if err := rows.Scan(&rec.Seq, &rec.From, &rec.To, &amount, &reason, &createdAt); err != nil {
			return nil, fmt.Errorf("list transfers: %w", err)
		}
		rec.Amount = uint64(amount)
		rec.Reason = ledger.Reason(reason)
		rec.CreatedAt = fromMillis(createdAt)
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list transfers: %w", err)
	}
	return records, nil
}

// AppendTelemetryEvent records one telemetry event.
func (s *Store) AppendTelemetryEvent(ctx context.Context, evt storage.TelemetryEvent) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s == nil || s.sqlDB == nil {
		return fmt.Errorf("storage is not configured")
	}

	timestamp := evt.Timestamp
	if timestamp.IsZero() {
		timestamp = s.clock()
	}
	_, err := s.sqlDB.ExecContext(ctx,
		`INSERT INTO telemetry_events
		   (timestamp, event_name, severity, game_id, actor_id, trace_id, span_id, attributes)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		toMillis(timestamp),
		evt.EventName,
		evt.Severity,
		evt.GameID,
		evt.ActorID,
		evt.TraceID,
		evt.SpanID,
		evt.AttributesJSON,
	)
	if err != nil {
		return fmt.Errorf("append telemetry event: %w", err)
	}
	return nil
}

// ListTelemetryEvents returns events for a game, oldest first.
func (s *Store) ListTelemetryEvents(ctx context.Context, gameID string) ([]storage.TelemetryEvent, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if s == nil || s.sqlDB == nil {
		return nil, fmt.Errorf("storage is not configured")
	}

	rows, err := s.sqlDB.QueryContext(ctx,
		`SELECT timestamp, event_name, severity, game_id, actor_id, trace_id, span_id, attributes
		   FROM telemetry_events
		  WHERE game_id = ?
		  ORDER BY seq ASC`,
		gameID)
	if err != nil {
		return nil, fmt.Errorf("list telemetry events: %w", err)
	}
	defer rows.Close()

	var events []storage.TelemetryEvent
	for rows.Next() {
		var evt storage.TelemetryEvent
		var timestamp int64
		if err := rows.Scan(
			&timestamp,
			&evt.EventName,
			&evt.Severity,
			&evt.GameID,
			&evt.ActorID,
			&evt.TraceID,
			&evt.SpanID,
			&evt.AttributesJSON,
		); err != nil {
			return nil, fmt.Errorf("list telemetry events: %w", err)
		}
		evt.Timestamp = fromMillis(timestamp)
		events = append(events, evt)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list telemetry events: %w", err)
	}
	return events, nil
}

var _ storage.Store = (*Store)(nil)
