package domain

import (
	"testing"
	"time"

	"github.com/mbrekke/throwdown/internal/digest"
	"github.com/mbrekke/throwdown/internal/ledger"
	platformerrors "github.com/mbrekke/throwdown/internal/platform/errors"
)

func TestResolveTimeoutRequiresElapsedWindow(t *testing.T) {
	game := newTestGame(t)

	_, _, err := game.ResolveTimeout(testStart.Add(30 * time.Second))
	if !platformerrors.IsCode(err, platformerrors.CodeTimeoutNotElapsed) {
		t.Fatalf("expected TIMEOUT_NOT_ELAPSED, got %v", err)
	}
}

func TestResolveTimeoutWaitingRefundsRealPlayers(t *testing.T) {
	game, _, err := NewGame(testInput(), fixedClock(testStart), flipTo(false), staticID("game1"))
	if err != nil {
		t.Fatalf("new game: %v", err)
	}
	game, _, err = game.Join("p2", testStart)
	if err != nil {
		t.Fatalf("join p2: %v", err)
	}

	after := testStart.Add(2 * time.Minute)
	game, transfers, err := game.ResolveTimeout(after)
	if err != nil {
		t.Fatalf("resolve timeout: %v", err)
	}

	if game.Phase != PhaseFinished {
		t.Fatalf("expected finished, got %v", game.Phase)
	}
	if len(transfers) != 2 {
		t.Fatalf("expected 2 refunds, got %+v", transfers)
	}
	for _, tr := range transfers {
		if tr.Reason != ledger.ReasonRefund || tr.Amount != 100 {
			t.Fatalf("expected 100 refund, got %+v", tr)
		}
		if tr.From != ledger.PotAccount("game1") {
			t.Fatalf("expected refund from pot account, got %+v", tr)
		}
	}
	if game.Pot != 0 {
		t.Fatalf("expected drained pot, got %d", game.Pot)
	}
}

func TestResolveTimeoutCommitPhaseRetainsCommittedSeats(t *testing.T) {
	// Four seats, three committed, min three: the uncommitted seat is
	// dropped and the reveal phase starts.
	input := testInput()
	input.MaxPlayers = 4
	game, _, err := NewGame(input, fixedClock(testStart), flipTo(true), staticID("game1"))
	if err != nil {
		t.Fatalf("new game: %v", err)
	}
	for _, player := range []string{"p2", "p3", "p4"} {
		game, _, err = game.Join(player, testStart)
		if err != nil {
			t.Fatalf("join %s: %v", player, err)
		}
	}
	if game.Phase != PhaseCommit {
		t.Fatalf("expected commit phase, got %v", game.Phase)
	}

	game, _ = commitAll(t, game, map[string]Choice{
		"host": ChoiceRock,
		"p2":   ChoicePaper,
		"p3":   ChoiceScissors,
	})

	game, transfers, err := game.ResolveTimeout(testStart.Add(time.Hour))
	if err != nil {
		t.Fatalf("resolve timeout: %v", err)
	}
	if len(transfers) != 0 {
		t.Fatalf("expected no transfers, got %+v", transfers)
	}
	if game.Phase != PhaseReveal {
		t.Fatalf("expected reveal with 3 committed seats, got %v", game.Phase)
	}
	if len(game.Players) != 3 {
		t.Fatalf("expected uncommitted seat dropped, got %d seats", len(game.Players))
	}
	if game.hasPlayer("p4") {
		t.Fatal("expected p4 dropped for not committing")
	}
}

func TestResolveTimeoutCommitPhaseFinishesBelowMinimum(t *testing.T) {
	// Four seats, two committed, min three: the game finishes without
	// invoking the resolver.
	input := testInput()
	input.MaxPlayers = 4
	game, _, err := NewGame(input, fixedClock(testStart), flipTo(true), staticID("game1"))
	if err != nil {
		t.Fatalf("new game: %v", err)
	}
	for _, player := range []string{"p2", "p3", "p4"} {
		game, _, err = game.Join(player, testStart)
		if err != nil {
			t.Fatalf("join %s: %v", player, err)
		}
	}

	game, _ = commitAll(t, game, map[string]Choice{
		"host": ChoiceRock,
		"p2":   ChoicePaper,
	})

	game, _, err = game.ResolveTimeout(testStart.Add(time.Hour))
	if err != nil {
		t.Fatalf("resolve timeout: %v", err)
	}
	if game.Phase != PhaseFinished {
		t.Fatalf("expected finished below minimum, got %v", game.Phase)
	}
	for _, p := range game.Players {
		if p.Score != 0 {
			t.Fatalf("expected no scores awarded, got %+v", p)
		}
	}
}

func TestResolveTimeoutRevealPhaseScoresMissingSeatsAsNone(t *testing.T) {
	game := newTestGame(t)
	choices := map[string]Choice{
		"host": ChoiceRock,
		"p2":   ChoiceScissors,
		"p3":   ChoicePaper,
	}
	game, salts := commitAll(t, game, choices)

	var err error
	game, err = game.Reveal("host", ChoiceRock, salts["host"], digest.SHA256, testStart)
	if err != nil {
		t.Fatalf("reveal host: %v", err)
	}

	game, _, err = game.ResolveTimeout(testStart.Add(time.Hour))
	if err != nil {
		t.Fatalf("resolve timeout: %v", err)
	}

	if game.Phase != PhaseFinished {
		t.Fatalf("expected finished after final round, got %v", game.Phase)
	}
	// Host's rock beats both forced-none seats; they score nothing.
	if game.Players[0].Score != 2 {
		t.Fatalf("host: expected 2, got %d", game.Players[0].Score)
	}
	if game.Players[1].Score != 0 || game.Players[2].Score != 0 {
		t.Fatalf("expected unrevealed seats to score 0, got %+v", game.Players)
	}
}

func TestResolveTimeoutFinishedGameErrors(t *testing.T) {
	game := newTestGame(t)
	game.Phase = PhaseFinished

	_, _, err := game.ResolveTimeout(testStart.Add(time.Hour))
	if !platformerrors.IsCode(err, platformerrors.CodeAlreadyFinished) {
		t.Fatalf("expected ALREADY_FINISHED, got %v", err)
	}
}
