// Package telemetry records operational events alongside instruction
// execution so operators can audit what happened to a game and when.
package telemetry

import (
	"context"
	"encoding/json"
	"time"

	"go.opentelemetry.io/otel/trace"

	"github.com/mbrekke/throwdown/internal/storage"
)

// Severity describes the telemetry severity level.
type Severity string

const (
	SeverityInfo  Severity = "INFO"
	SeverityWarn  Severity = "WARN"
	SeverityError Severity = "ERROR"
)

// Emitter records operational telemetry events.
type Emitter struct {
	store storage.TelemetryStore
	clock func() time.Time
}

// NewEmitter creates a new telemetry emitter.
func NewEmitter(store storage.TelemetryStore) *Emitter {
	return &Emitter{store: store, clock: time.Now}
}

// Emit records a telemetry event. It is a no-op when the store is nil.
// The active span's trace and span ids are attached when the context
// carries a recording span.
func (e *Emitter) Emit(ctx context.Context, evt storage.TelemetryEvent) error {
	if e == nil || e.store == nil {
		return nil
	}
	if evt.Timestamp.IsZero() {
		if e.clock == nil {
			evt.Timestamp = time.Now().UTC()
		} else {
			evt.Timestamp = e.clock().UTC()
		}
	}
	if spanCtx := trace.SpanContextFromContext(ctx); spanCtx.IsValid() {
		evt.TraceID = spanCtx.TraceID().String()
		evt.SpanID = spanCtx.SpanID().String()
	}
	return e.store.AppendTelemetryEvent(ctx, evt)
}

// EmitInstruction records one instruction outcome with flat attributes.
func (e *Emitter) EmitInstruction(ctx context.Context, name, gameID, actorID string, severity Severity, attributes map[string]any) error {
	if e == nil || e.store == nil {
		return nil
	}
	evt := storage.TelemetryEvent{
		EventName: name,
		Severity:  string(severity),
		GameID:    gameID,
		ActorID:   actorID,
	}
	if len(attributes) > 0 {
		payload, err := json.Marshal(attributes)
		if err == nil {
			evt.AttributesJSON = payload
		}
	}
	return e.Emit(ctx, evt)
}
