// Package random provides the randomness collaborators consumed by the
// game engine.
//
// The engine only needs a single bit per decision (picking the realized
// player count when a game allows a range). ClockParity reproduces the
// historical behavior of deriving that bit from the host clock; it is not
// adversarial-resistant and callers must not rely on it being
// unpredictable. Crypto draws the bit from crypto/rand for deployments
// that want a stronger source without touching the state machine.
package random

import (
	crand "crypto/rand"
	"time"
)

// CoinFlip returns a single random bit.
type CoinFlip func() bool

// ClockParity derives a coin flip from the parity of the clock's Unix
// timestamp. Not cryptographically secure.
func ClockParity(now func() time.Time) CoinFlip {
	if now == nil {
		now = time.Now
	}
	return func() bool {
		return now().Unix()&1 == 1
	}
}

// Crypto derives a coin flip from crypto/rand. It falls back to clock
// parity if the system randomness source fails.
func Crypto() CoinFlip {
	return func() bool {
		var b [1]byte
		if _, err := crand.Read(b[:]); err != nil {
			return ClockParity(nil)()
		}
		return b[0]&1 == 1
	}
}
