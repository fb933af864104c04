// Package auth verifies that the actor named in an instruction is the
// caller it claims to be. The engine itself never mints grants; a host
// runtime signs them and the engine only verifies.
package auth

import "context"

// Authorizer decides whether a grant proves control of an actor identity.
type Authorizer interface {
	// Authorize verifies the grant asserts control of actorID. A nil
	// return means the instruction may proceed as that actor.
	Authorize(ctx context.Context, grant, actorID string) error
}

// AllowAll trusts the declared actor without verification. Intended for
// local runs and tests only.
type AllowAll struct{}

// Authorize always succeeds.
func (AllowAll) Authorize(context.Context, string, string) error { return nil }
