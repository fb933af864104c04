package errors

import (
	stderrors "errors"
	"fmt"
	"testing"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

func TestErrorIsMatchesByCode(t *testing.T) {
	err := New(CodeWrongPhase, "commit is not legal in Finished")
	if !stderrors.Is(err, New(CodeWrongPhase, "different message")) {
		t.Fatal("expected errors with same code to match")
	}
	if stderrors.Is(err, New(CodeGameFull, "game is full")) {
		t.Fatal("expected errors with different codes not to match")
	}
}

func TestGetCodeUnwrapsChains(t *testing.T) {
	inner := New(CodeNotAWinner, "caller did not reach the max score")
	wrapped := fmt.Errorf("claim winnings: %w", inner)

	if got := GetCode(wrapped); got != CodeNotAWinner {
		t.Fatalf("expected NOT_A_WINNER, got %v", got)
	}
	if got := GetCode(stderrors.New("plain")); got != CodeUnknown {
		t.Fatalf("expected UNKNOWN for plain error, got %v", got)
	}
}

func TestWrapPreservesCause(t *testing.T) {
	cause := stderrors.New("disk full")
	err := Wrap(CodeTransferFailed, "apply transfers", cause)
	if !stderrors.Is(err, cause) {
		t.Fatal("expected wrapped cause to be reachable")
	}
}

func TestGRPCCodeMapping(t *testing.T) {
	tests := []struct {
		code Code
		want codes.Code
	}{
		{CodeInvalidParameters, codes.InvalidArgument},
		{CodeInvalidChoice, codes.InvalidArgument},
		{CodeWrongPhase, codes.FailedPrecondition},
		{CodeTimeoutNotElapsed, codes.FailedPrecondition},
		{CodeAlreadyFinished, codes.FailedPrecondition},
		{CodeUnauthorized, codes.PermissionDenied},
		{CodeNotAWinner, codes.PermissionDenied},
		{CodeNotEligible, codes.PermissionDenied},
		{CodeDuplicateParticipant, codes.AlreadyExists},
		{CodeUnknownParticipant, codes.NotFound},
		{CodeNotFound, codes.NotFound},
		{CodeTransferFailed, codes.Aborted},
		{CodeUnknown, codes.Internal},
	}

	for _, tt := range tests {
		if got := tt.code.GRPCCode(); got != tt.want {
			t.Fatalf("code %s: expected %v, got %v", tt.code, tt.want, got)
		}
	}
}

func TestToGRPCStatusCarriesReason(t *testing.T) {
	err := WithMetadata(CodeGameFull, "table is full", map[string]string{"player_count": "4"}).ToGRPCStatus()
	st, ok := status.FromError(err)
	if !ok {
		t.Fatal("expected a gRPC status error")
	}
	if st.Code() != codes.FailedPrecondition {
		t.Fatalf("expected FailedPrecondition, got %v", st.Code())
	}
	if len(st.Details()) == 0 {
		t.Fatal("expected errdetails attached")
	}
}
