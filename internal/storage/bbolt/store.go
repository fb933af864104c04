// Package bbolt provides a BoltDB-backed store. Game writes and their
// ledger transfers share a single update transaction.
package bbolt

import (
	"context"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"go.etcd.io/bbolt"

	"github.com/mbrekke/throwdown/internal/game/domain"
	"github.com/mbrekke/throwdown/internal/ledger"
	"github.com/mbrekke/throwdown/internal/storage"
)

const (
	gameBucket      = "game"
	balanceBucket   = "balance"
	transferBucket  = "transfer"
	telemetryBucket = "telemetry"
)

// Store provides a BoltDB-backed engine store.
type Store struct {
	db    *bbolt.DB
	clock func() time.Time
}

// Open opens a BoltDB-backed store at the provided path.
func Open(path string) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("storage path is required")
	}

	cleanPath := filepath.Clean(path)
	db, err := bbolt.Open(cleanPath, 0o600, &bbolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("open storage db: %w", err)
	}

	store := &Store{db: db, clock: time.Now}
	if err := store.ensureBuckets(); err != nil {
		_ = db.Close()
		return nil, err
	}

	return store, nil
}

// Close closes the underlying BoltDB database.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// PutGame persists a game and applies its transfers in one transaction.
func (s *Store) PutGame(ctx context.Context, game domain.Game, transfers []ledger.Transfer) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s == nil || s.db == nil {
		return fmt.Errorf("storage is not configured")
	}
	if strings.TrimSpace(game.ID) == "" {
		return fmt.Errorf("game id is required")
	}

	payload, err := json.Marshal(game)
	if err != nil {
		return fmt.Errorf("marshal game: %w", err)
	}

	return s.db.Update(func(tx *bbolt.Tx) error {
		balances := tx.Bucket([]byte(balanceBucket))
		journal := tx.Bucket([]byte(transferBucket))
		games := tx.Bucket([]byte(gameBucket))
		if balances == nil || journal == nil || games == nil {
			return fmt.Errorf("storage buckets are missing")
		}

		for _, t := range transfers {
			from := readBalance(balances, t.From)
			if from < t.Amount {
				return storage.ErrInsufficientFunds
			}
			if err := writeBalance(balances, t.From, from-t.Amount); err != nil {
				return err
			}
			if err := writeBalance(balances, t.To, readBalance(balances, t.To)+t.Amount); err != nil {
				return err
			}

			seq, err := journal.NextSequence()
			if err != nil {
				return fmt.Errorf("next transfer seq: %w", err)
			}
			record, err := json.Marshal(storage.TransferRecord{
				Seq:       seq,
				From:      t.From,
				To:        t.To,
				Amount:    t.Amount,
				Reason:    t.Reason,
				CreatedAt: s.clock().UTC(),
			})
			if err != nil {
				return fmt.Errorf("marshal transfer: %w", err)
			}
			if err := journal.Put(seqKey(seq), record); err != nil {
				return fmt.Errorf("append transfer: %w", err)
			}
		}

		return games.Put([]byte(game.ID), payload)
	})
}

// GetGame fetches a game record by id.
func (s *Store) GetGame(ctx context.Context, id string) (domain.Game, error) {
	if err := ctx.Err(); err != nil {
		return domain.Game{}, err
	}
	if s == nil || s.db == nil {
		return domain.Game{}, fmt.Errorf("storage is not configured")
	}
	if strings.TrimSpace(id) == "" {
		return domain.Game{}, fmt.Errorf("game id is required")
	}

	var game domain.Game
	err := s.db.View(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket([]byte(gameBucket))
		if bucket == nil {
			return fmt.Errorf("game bucket is missing")
		}
		payload := bucket.Get([]byte(id))
		if payload == nil {
			return storage.ErrNotFound
		}
		if err := json.Unmarshal(payload, &game); err != nil {
			return fmt.Errorf("unmarshal game: %w", err)
		}
		return nil
	})
	if err != nil {
		return domain.Game{}, err
	}
	return game, nil
}

// ListGameIDs returns ids of all stored games, ordered ascending.
func (s *Store) ListGameIDs(ctx context.Context) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if s == nil || s.db == nil {
		return nil, fmt.Errorf("storage is not configured")
	}

	var ids []string
	err := s.db.View(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket([]byte(gameBucket))
		if bucket == nil {
			return fmt.Errorf("game bucket is missing")
		}
		return bucket.ForEach(func(key, _ []byte) error {
			ids = append(ids, string(key))
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	return ids, nil
}

// Deposit credits an account from outside the game economy.
func (s *Store) Deposit(ctx context.Context, account string, amount uint64) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s == nil || s.db == nil {
		return fmt.Errorf("storage is not configured")
	}
	if strings.TrimSpace(account) == "" {
		return fmt.Errorf("account is required")
	}

	return s.db.Update(func(tx *bbolt.Tx) error {
		balances := tx.Bucket([]byte(balanceBucket))
		if balances == nil {
			return fmt.Errorf("balance bucket is missing")
		}
		return writeBalance(balances, account, readBalance(balances, account)+amount)
	})
}

// Balance returns the current balance for an account.
func (s *Store) Balance(ctx context.Context, account string) (uint64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	if s == nil || s.db == nil {
		return 0, fmt.Errorf("storage is not configured")
	}

	var balance uint64
	err := s.db.View(func(tx *bbolt.Tx) error {
		balances := tx.Bucket([]byte(balanceBucket))
		if balances == nil {
			return fmt.Errorf("balance bucket is missing")
		}
		balance = readBalance(balances, account)
		return nil
	})
	if err != nil {
		return 0, err
	}
	return balance, nil
}

// ListTransfers returns journal entries touching an account, oldest first.
func (s *Store) ListTransfers(ctx context.Context, account string) ([]storage.TransferRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if s == nil || s.db == nil {
		return nil, fmt.Errorf("storage is not configured")
	}

	var records []storage.TransferRecord
	err := s.db.View(func(tx *bbolt.Tx) error {
		journal := tx.Bucket([]byte(transferBucket))
		if journal == nil {
			return fmt.Errorf("transfer bucket is missing")
		}
		return journal.ForEach(func(_, payload []byte) error {
			var rec storage.TransferRecord
			if err := json.Unmarshal(payload, &rec); err != nil {
				return fmt.Errorf("unmarshal transfer: %w", err)
			}
			if rec.From == account || rec.To == account {
				records = append(records, rec)
			}
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	return records, nil
}

// AppendTelemetryEvent records one telemetry event.
func (s *Store) AppendTelemetryEvent(ctx context.Context, evt storage.TelemetryEvent) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s == nil || s.db == nil {
		return fmt.Errorf("storage is not configured")
	}

	payload, err := json.Marshal(evt)
	if err != nil {
		return fmt.Errorf("marshal telemetry event: %w", err)
	}

	return s.db.Update(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket([]byte(telemetryBucket))
		if bucket == nil {
			return fmt.Errorf("telemetry bucket is missing")
		}
		seq, err := bucket.NextSequence()
		if err != nil {
			return fmt.Errorf("next telemetry seq: %w", err)
		}
		return bucket.Put(telemetryKey(evt.GameID, seq), payload)
	})
}

// ListTelemetryEvents returns events for a game, oldest first.
func (s *Store) ListTelemetryEvents(ctx context.Context, gameID string) ([]storage.TelemetryEvent, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if s == nil || s.db == nil {
		return nil, fmt.Errorf("storage is not configured")
	}

	prefix := []byte(gameID + "/")
	var events []storage.TelemetryEvent
	err := s.db.View(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket([]byte(telemetryBucket))
		if bucket == nil {
			return fmt.Errorf("telemetry bucket is missing")
		}
		cursor := bucket.Cursor()
		for key, payload := cursor.Seek(prefix); key != nil && strings.HasPrefix(string(key), string(prefix)); key, payload = cursor.Next() {
			var evt storage.TelemetryEvent
			if err := json.Unmarshal(payload, &evt); err != nil {
				return fmt.Errorf("unmarshal telemetry event: %w", err)
			}
			events = append(events, evt)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return events, nil
}

func (s *Store) ensureBuckets() error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		for _, name := range []string{gameBucket, balanceBucket, transferBucket, telemetryBucket} {
			if _, err := tx.CreateBucketIfNotExists([]byte(name)); err != nil {
				return fmt.Errorf("create %s bucket: %w", name, err)
			}
		}
		return nil
	})
}

func readBalance(bucket *bbolt.Bucket, account string) uint64 {
	payload := bucket.Get([]byte(account))
	if len(payload) != 8 {
		return 0
	}
	return binary.BigEndian.Uint64(payload)
}

func writeBalance(bucket *bbolt.Bucket, account string, balance uint64) error {
	var payload [8]byte
	binary.BigEndian.PutUint64(payload[:], balance)
	if err := bucket.Put([]byte(account), payload[:]); err != nil {
		return fmt.Errorf("write balance for %s: %w", account, err)
	}
	return nil
}

func seqKey(seq uint64) []byte {
	var key [8]byte
	binary.BigEndian.PutUint64(key[:], seq)
	return key[:]
}

func telemetryKey(gameID string, seq uint64) []byte {
	key := make([]byte, 0, len(gameID)+9)
	key = append(key, gameID...)
	key = append(key, '/')
	var seqBytes [8]byte
	binary.BigEndian.PutUint64(seqBytes[:], seq)
	return append(key, seqBytes[:]...)
}
