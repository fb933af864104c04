package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/mbrekke/throwdown/internal/game/domain"
	"github.com/mbrekke/throwdown/internal/ledger"
	"github.com/mbrekke/throwdown/internal/storage"
)

func testGame(id string) domain.Game {
	return domain.Game{
		ID:          id,
		Host:        "host",
		MinPlayers:  3,
		MaxPlayers:  3,
		PlayerCount: 3,
		Phase:       domain.PhaseWaitingForPlayers,
		Players:     []domain.Player{{ID: "host"}},
		EntryFee:    100,
		Pot:         100,
		TotalRounds: 1,
		Timeout:     time.Minute,
	}
}

func TestPutGameRoundTrip(t *testing.T) {
	store := New()
	ctx := context.Background()

	if err := store.PutGame(ctx, testGame("game1"), nil); err != nil {
		t.Fatalf("put game: %v", err)
	}

	got, err := store.GetGame(ctx, "game1")
	if err != nil {
		t.Fatalf("get game: %v", err)
	}
	if got.ID != "game1" || got.Pot != 100 || len(got.Players) != 1 {
		t.Fatalf("unexpected game: %+v", got)
	}
}

func TestGetGameNotFound(t *testing.T) {
	store := New()
	_, err := store.GetGame(context.Background(), "missing")
	if !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestPutGameAppliesTransfers(t *testing.T) {
	store := New()
	ctx := context.Background()

	if err := store.Deposit(ctx, "host", 150); err != nil {
		t.Fatalf("deposit: %v", err)
	}

	transfers := []ledger.Transfer{{
		From:   "host",
		To:     ledger.PotAccount("game1"),
		Amount: 100,
		Reason: ledger.ReasonEntryFee,
	}}
	if err := store.PutGame(ctx, testGame("game1"), transfers); err != nil {
		t.Fatalf("put game: %v", err)
	}

	balance, err := store.Balance(ctx, "host")
	if err != nil {
		t.Fatalf("balance: %v", err)
	}
	if balance != 50 {
		t.Fatalf("expected host balance 50, got %d", balance)
	}
	potBalance, err := store.Balance(ctx, ledger.PotAccount("game1"))
	if err != nil {
		t.Fatalf("pot balance: %v", err)
	}
	if potBalance != 100 {
		t.Fatalf("expected pot balance 100, got %d", potBalance)
	}

	records, err := store.ListTransfers(ctx, "host")
	if err != nil {
		t.Fatalf("list transfers: %v", err)
	}
	if len(records) != 1 || records[0].Reason != ledger.ReasonEntryFee || records[0].Seq == 0 {
		t.Fatalf("unexpected journal: %+v", records)
	}
}

func TestPutGameInsufficientFundsRollsBack(t *testing.T) {
	store := New()
	ctx := context.Background()

	transfers := []ledger.Transfer{{
		From:   "broke",
		To:     ledger.PotAccount("game1"),
		Amount: 100,
		Reason: ledger.ReasonEntryFee,
	}}
	err := store.PutGame(ctx, testGame("game1"), transfers)
	if !errors.Is(err, storage.ErrInsufficientFunds) {
		t.Fatalf("expected ErrInsufficientFunds, got %v", err)
	}

	// Neither the game nor the balances changed.
	if _, err := store.GetGame(ctx, "game1"); !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("expected game absent after failed put, got %v", err)
	}
	if balance, _ := store.Balance(ctx, ledger.PotAccount("game1")); balance != 0 {
		t.Fatalf("expected pot untouched, got %d", balance)
	}
}

func TestGetGameDetachedFromStore(t *testing.T) {
	store := New()
	ctx := context.Background()

	if err := store.PutGame(ctx, testGame("game1"), nil); err != nil {
		t.Fatalf("put game: %v", err)
	}

	first, err := store.GetGame(ctx, "game1")
	if err != nil {
		t.Fatalf("get game: %v", err)
	}
	first.Players[0].Score = 99

	second, err := store.GetGame(ctx, "game1")
	if err != nil {
		t.Fatalf("get game again: %v", err)
	}
	if second.Players[0].Score != 0 {
		t.Fatalf("stored game mutated through a read copy")
	}
}

func TestListGameIDsOrdered(t *testing.T) {
	store := New()
	ctx := context.Background()

	for _, id := range []string{"c", "a", "b"} {
		if err := store.PutGame(ctx, testGame(id), nil); err != nil {
			t.Fatalf("put game %s: %v", id, err)
		}
	}

	ids, err := store.ListGameIDs(ctx)
	if err != nil {
		t.Fatalf("list game ids: %v", err)
	}
	if len(ids) != 3 || ids[0] != "a" || ids[1] != "b" || ids[2] != "c" {
		t.Fatalf("unexpected ids: %v", ids)
	}
}

func TestTelemetryEventsByGame(t *testing.T) {
	store := New()
	ctx := context.Background()

	events := []storage.TelemetryEvent{
		{EventName: "game.initialize", GameID: "game1"},
		{EventName: "game.join", GameID: "game1"},
		{EventName: "game.initialize", GameID: "game2"},
	}
	for _, evt := range events {
		if err := store.AppendTelemetryEvent(ctx, evt); err != nil {
			t.Fatalf("append telemetry: %v", err)
		}
	}

	got, err := store.ListTelemetryEvents(ctx, "game1")
	if err != nil {
		t.Fatalf("list telemetry: %v", err)
	}
	if len(got) != 2 || got[0].EventName != "game.initialize" || got[1].EventName != "game.join" {
		t.Fatalf("unexpected events: %+v", got)
	}
}
