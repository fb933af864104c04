package domain

import (
	"crypto/subtle"

	"github.com/mbrekke/throwdown/internal/digest"
	"github.com/mbrekke/throwdown/internal/platform/errors"
)

// SaltSize is the commitment salt width in bytes.
const SaltSize = 32

// commitBufferSize is the hashed buffer width: 32 bytes of salt, one
// choice code byte, zero padding for the rest.
const commitBufferSize = 64

// Commitment is a stored commitment digest. The zero value means "not
// yet committed".
type Commitment [digest.Size]byte

// IsZero reports whether no commitment has been stored.
func (c Commitment) IsZero() bool {
	return c == Commitment{}
}

// choiceCode returns the numeric reveal code for a choice. Only the
// classic throws have codes; lizard, spock and none are rejected as
// reveal inputs.
func choiceCode(c Choice) (byte, error) {
	switch c {
	case ChoiceRock:
		return 1, nil
	case ChoicePaper:
		return 2, nil
	case ChoiceScissors:
		return 3, nil
	default:
		return 0, errors.WithMetadata(errors.CodeInvalidChoice,
			"choice has no reveal code",
			map[string]string{"choice": c.String()})
	}
}

// commitBuffer assembles the hashed buffer for a (choice, salt) pair.
func commitBuffer(choice Choice, salt [SaltSize]byte) ([]byte, error) {
	code, err := choiceCode(choice)
	if err != nil {
		return nil, err
	}
	buf := make([]byte, commitBufferSize)
	copy(buf[:SaltSize], salt[:])
	buf[SaltSize] = code
	return buf, nil
}

// ComputeCommitment builds the commitment digest for a (choice, salt)
// pair. Clients use it during the commit phase; the engine uses it to
// check reveals.
func ComputeCommitment(hash digest.Func, choice Choice, salt [SaltSize]byte) (Commitment, error) {
	buf, err := commitBuffer(choice, salt)
	if err != nil {
		return Commitment{}, err
	}
	return Commitment(hash(buf)), nil
}

// VerifyCommitment checks a revealed (choice, salt) pair against the
// stored commitment digest.
func VerifyCommitment(hash digest.Func, choice Choice, salt [SaltSize]byte, stored Commitment) error {
	computed, err := ComputeCommitment(hash, choice, salt)
	if err != nil {
		return err
	}
	if subtle.ConstantTimeCompare(computed[:], stored[:]) != 1 {
		return errors.WithMetadata(errors.CodeCommitmentMismatch,
			"revealed choice does not match commitment",
			map[string]string{"choice": choice.String()})
	}
	return nil
}
