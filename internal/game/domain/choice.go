package domain

// Choice is a throw a player can reveal in a round.
type Choice int

const (
	// ChoiceNone is the sentinel for "no committed or revealed choice
	// yet". It loses to every concrete choice and ties with itself.
	ChoiceNone Choice = iota
	// ChoiceRock beats Scissors (and Lizard in the extended variant).
	ChoiceRock
	// ChoicePaper beats Rock (and Spock in the extended variant).
	ChoicePaper
	// ChoiceScissors beats Paper (and Lizard in the extended variant).
	ChoiceScissors
	// ChoiceLizard beats Paper and Spock. Extended variant only.
	ChoiceLizard
	// ChoiceSpock beats Rock and Scissors. Extended variant only.
	ChoiceSpock
)

// String returns the lowercase name of the choice.
func (c Choice) String() string {
	switch c {
	case ChoiceNone:
		return "none"
	case ChoiceRock:
		return "rock"
	case ChoicePaper:
		return "paper"
	case ChoiceScissors:
		return "scissors"
	case ChoiceLizard:
		return "lizard"
	case ChoiceSpock:
		return "spock"
	default:
		return "invalid"
	}
}

// Variant selects the rule set used to adjudicate a round.
type Variant int

const (
	// VariantClassic plays Rock-Paper-Scissors.
	VariantClassic Variant = iota
	// VariantExtended plays Rock-Paper-Scissors-Lizard-Spock.
	VariantExtended
	// VariantTimed currently adjudicates with classic rules.
	VariantTimed
	// VariantStreak currently adjudicates with classic rules.
	VariantStreak
	// VariantTournament currently adjudicates with classic rules.
	VariantTournament
)

// Mode describes whether rounds advance manually or automatically.
type Mode int

const (
	// ModeManual requires a participant to start each follow-up game.
	ModeManual Mode = iota
	// ModeAutomated allows AutoPlayNextRound up to a configured budget.
	ModeAutomated
)

// Currency labels the unit the entry fee and pot are denominated in.
// The engine only does arithmetic; the host ledger interprets the unit.
type Currency int

const (
	// CurrencyNative is the host ledger's native unit.
	CurrencyNative Currency = iota
	// CurrencyToken is a token-denominated game.
	CurrencyToken
)

// Phase is the lifecycle stage of a game, controlling which actions are
// legal.
type Phase int

const (
	// PhaseWaitingForPlayers accepts joins until the table is full.
	PhaseWaitingForPlayers Phase = iota
	// PhaseCommit accepts hidden choice commitments.
	PhaseCommit
	// PhaseReveal accepts choice reveals checked against commitments.
	PhaseReveal
	// PhaseFinished is terminal for play; only settlement and restart
	// actions are legal.
	PhaseFinished
)

// String returns the phase name.
func (p Phase) String() string {
	switch p {
	case PhaseWaitingForPlayers:
		return "waiting_for_players"
	case PhaseCommit:
		return "commit"
	case PhaseReveal:
		return "reveal"
	case PhaseFinished:
		return "finished"
	default:
		return "invalid"
	}
}
