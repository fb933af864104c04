package domain

// Beats reports whether a defeats b under the given variant. The relation
// is asymmetric: Beats(a, b, v) implies !Beats(b, a, v) for distinct
// concrete choices, and Beats(a, a, v) is always false.
//
// ChoiceNone never wins and always loses to a concrete choice; a pair of
// ChoiceNone is a tie.
func Beats(a, b Choice, variant Variant) bool {
	if a == ChoiceNone {
		return false
	}
	if b == ChoiceNone {
		return true
	}
	if a == b {
		return false
	}

	switch variant {
	case VariantClassic:
		switch {
		case a == ChoiceRock && b == ChoiceScissors:
			return true
		case a == ChoicePaper && b == ChoiceRock:
			return true
		case a == ChoiceScissors && b == ChoicePaper:
			return true
		}
		return false
	case VariantExtended:
		switch a {
		case ChoiceRock:
			return b == ChoiceScissors || b == ChoiceLizard
		case ChoicePaper:
			return b == ChoiceRock || b == ChoiceSpock
		case ChoiceScissors:
			return b == ChoicePaper || b == ChoiceLizard
		case ChoiceLizard:
			return b == ChoicePaper || b == ChoiceSpock
		case ChoiceSpock:
			return b == ChoiceRock || b == ChoiceScissors
		}
		return false
	default:
		// Timed, streak and tournament games adjudicate with classic
		// rules until differentiated win conditions are designed.
		return Beats(a, b, VariantClassic)
	}
}
