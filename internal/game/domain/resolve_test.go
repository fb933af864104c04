package domain

import "testing"

func TestRoundDeltasClassicThreeWayTie(t *testing.T) {
	// Rock beats scissors, scissors beats paper, paper beats rock: every
	// player beats exactly one other, a three-way tie.
	players := []Player{
		{ID: "p1", Choice: ChoiceRock, Revealed: true},
		{ID: "p2", Choice: ChoiceScissors, Revealed: true},
		{ID: "p3", Choice: ChoicePaper, Revealed: true},
	}

	deltas := roundDeltas(players, VariantClassic)
	for i, want := range []int{1, 1, 1} {
		if deltas[i] != want {
			t.Fatalf("player %s: expected delta %d, got %d", players[i].ID, want, deltas[i])
		}
	}
}

func TestRoundDeltasExtendedWithNoneSeat(t *testing.T) {
	// Lizard beats spock; spock does not beat lizard; both real throws
	// beat the unrevealed none seat.
	players := []Player{
		{ID: "spock", Choice: ChoiceSpock, Revealed: true},
		{ID: "lizard", Choice: ChoiceLizard, Revealed: true},
		{ID: "ghost", Choice: ChoiceNone, Revealed: true},
	}

	deltas := roundDeltas(players, VariantExtended)
	if deltas[0] != 1 {
		t.Fatalf("spock: expected 1, got %d", deltas[0])
	}
	if deltas[1] != 2 {
		t.Fatalf("lizard: expected 2, got %d", deltas[1])
	}
	if deltas[2] != 0 {
		t.Fatalf("ghost: expected 0, got %d", deltas[2])
	}
}

func TestRoundDeltasOrderIndependent(t *testing.T) {
	base := []Player{
		{ID: "a", Choice: ChoiceRock, Revealed: true},
		{ID: "b", Choice: ChoiceRock, Revealed: true},
		{ID: "c", Choice: ChoiceScissors, Revealed: true},
		{ID: "d", Choice: ChoicePaper, Revealed: true},
	}

	expected := map[string]int{}
	for i, d := range roundDeltas(base, VariantClassic) {
		expected[base[i].ID] = d
	}

	permutations := [][]int{
		{3, 2, 1, 0},
		{1, 3, 0, 2},
		{2, 0, 3, 1},
	}
	for _, perm := range permutations {
		shuffled := make([]Player, len(base))
		for i, from := range perm {
			shuffled[i] = base[from]
		}
		for i, d := range roundDeltas(shuffled, VariantClassic) {
			if expected[shuffled[i].ID] != d {
				t.Fatalf("player %s: expected %d in permutation %v, got %d",
					shuffled[i].ID, expected[shuffled[i].ID], perm, d)
			}
		}
	}
}

func TestRoundDeltasMaxPointsPerRound(t *testing.T) {
	// A single winning throw scores n-1 against a table of losers.
	players := []Player{
		{ID: "w", Choice: ChoiceRock, Revealed: true},
		{ID: "l1", Choice: ChoiceScissors, Revealed: true},
		{ID: "l2", Choice: ChoiceScissors, Revealed: true},
		{ID: "l3", Choice: ChoiceNone, Revealed: true},
	}
	deltas := roundDeltas(players, VariantClassic)
	if deltas[0] != 3 {
		t.Fatalf("winner: expected 3, got %d", deltas[0])
	}
	// The scissors seats beat only the none seat, not each other.
	if deltas[1] != 1 || deltas[2] != 1 {
		t.Fatalf("scissors seats: expected 1 and 1, got %d and %d", deltas[1], deltas[2])
	}
}

func TestApplyRoundAccumulates(t *testing.T) {
	players := []Player{
		{ID: "p1", Choice: ChoiceRock, Revealed: true, Score: 2},
		{ID: "p2", Choice: ChoiceScissors, Revealed: true, Score: 5},
	}
	applyRound(players, VariantClassic)
	if players[0].Score != 3 {
		t.Fatalf("p1: expected cumulative 3, got %d", players[0].Score)
	}
	if players[1].Score != 5 {
		t.Fatalf("p2: expected cumulative 5, got %d", players[1].Score)
	}
}

func TestRoundDeltasDegenerateTables(t *testing.T) {
	if got := roundDeltas(nil, VariantClassic); len(got) != 0 {
		t.Fatalf("expected no deltas for empty table, got %v", got)
	}
	solo := []Player{{ID: "p1", Choice: ChoiceRock, Revealed: true}}
	if got := roundDeltas(solo, VariantClassic); got[0] != 0 {
		t.Fatalf("expected zero delta for solo table, got %d", got[0])
	}
}
