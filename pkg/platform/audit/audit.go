// Package audit captures credential lifecycle actions for operator trails.
package audit

import (
	"context"
	"log/slog"
	"time"
)

// Event is emitted from domain logic to capture key lifecycle actions. Keep it
// transport-agnostic so sinks can fan out.
type Event struct {
	Timestamp time.Time
	Action    string
	TokenID   string
	Account   string
	Decision  string
	Reason    string
	RequestID string
}

// Lifecycle actions emitted by the engine services.
const (
	ActionCredentialIssued      = "credential_issued"
	ActionCredentialVerified    = "credential_verified"
	ActionCredentialRevoked     = "credential_revoked"
	ActionCredentialSuspended   = "credential_suspended"
	ActionCredentialTransferred = "credential_transferred"
	ActionOfferCreated          = "offer_created"
	ActionOfferCancelled        = "offer_cancelled"
)

// Emitter is the interface for audit event emission.
type Emitter interface {
	Emit(ctx context.Context, event Event) error
}

// Logger is a slog-backed Emitter. All durable state lives on the ledger, so
// the default trail is structured log output an operator can ship anywhere.
type Logger struct {
	log *slog.Logger
}

// NewLogger creates an audit logger on top of a structured logger.
func NewLogger(log *slog.Logger) *Logger {
	return &Logger{log: log}
}

// Emit writes the event as a structured log record. Never fails.
func (l *Logger) Emit(ctx context.Context, event Event) error {
	if l.log == nil {
		return nil
	}
	ts := event.Timestamp
	if ts.IsZero() {
		ts = time.Now().UTC()
	}
	l.log.InfoContext(ctx, event.Action,
		"log_type", "audit",
		"timestamp", ts,
		"token_id", event.TokenID,
		"account", event.Account,
		"decision", event.Decision,
		"reason", event.Reason,
		"request_id", event.RequestID,
	)
	return nil
}
