// Package errors provides structured error handling for the game engine.
package errors

import "google.golang.org/grpc/codes"

// Code is a machine-readable error code.
type Code string

const (
	// CodeUnknown represents an unknown error.
	CodeUnknown Code = "UNKNOWN"

	// Authorization errors
	CodeUnauthorized Code = "UNAUTHORIZED"

	// Construction errors
	CodeInvalidParameters Code = "INVALID_PARAMETERS"

	// Phase errors
	CodeWrongPhase      Code = "WRONG_PHASE"
	CodeAlreadyFinished Code = "ALREADY_FINISHED"

	// Membership errors
	CodeDuplicateParticipant Code = "DUPLICATE_PARTICIPANT"
	CodeGameFull             Code = "GAME_FULL"
	CodeUnknownParticipant   Code = "UNKNOWN_PARTICIPANT"
	CodeNoRoomAvailable      Code = "NO_ROOM_AVAILABLE"

	// Commit-reveal errors
	CodeCommitmentMismatch Code = "COMMITMENT_MISMATCH"
	CodeInvalidChoice      Code = "INVALID_CHOICE"

	// Timeout errors
	CodeTimeoutNotElapsed Code = "TIMEOUT_NOT_ELAPSED"

	// Settlement errors
	CodeNotAWinner            Code = "NOT_A_WINNER"
	CodeNotEligible           Code = "NOT_ELIGIBLE"
	CodeAutoRoundLimitReached Code = "AUTO_ROUND_LIMIT_REACHED"

	// Storage errors
	CodeNotFound Code = "NOT_FOUND"

	// Ledger errors
	CodeTransferFailed Code = "TRANSFER_FAILED"
)

// GRPCCode maps domain codes to gRPC status codes.
func (c Code) GRPCCode() codes.Code {
	switch c {
	// InvalidArgument - validation failures, bad input
	case CodeInvalidParameters,
		CodeInvalidChoice:
		return codes.InvalidArgument

	// FailedPrecondition - state doesn't allow operation
	case CodeWrongPhase,
		CodeAlreadyFinished,
		CodeGameFull,
		CodeNoRoomAvailable,
		CodeCommitmentMismatch,
		CodeTimeoutNotElapsed,
		CodeAutoRoundLimitReached:
		return codes.FailedPrecondition

	// PermissionDenied - actor may not perform the operation
	case CodeUnauthorized,
		CodeNotAWinner,
		CodeNotEligible:
		return codes.PermissionDenied

	// AlreadyExists - duplicate membership
	case CodeDuplicateParticipant:
		return codes.AlreadyExists

	// NotFound - missing aggregate or participant
	case CodeNotFound,
		CodeUnknownParticipant:
		return codes.NotFound

	// Aborted - external collaborator rejected the side effect
	case CodeTransferFailed:
		return codes.Aborted

	default:
		return codes.Internal
	}
}
