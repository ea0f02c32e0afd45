// Package revocation manages credential status transitions: hard revocation
// by burning the token and soft revocation through append-only status events.
package revocation

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	contract "chaincred/contracts/ledger"
	"chaincred/internal/credential/codec"
	"chaincred/internal/credential/domain/status"
	"chaincred/internal/credential/history"
	"chaincred/internal/credential/models"
	"chaincred/internal/ledger"
	"chaincred/internal/platform/metrics"
	dErrors "chaincred/pkg/domain-errors"
	"chaincred/pkg/platform/audit"
	psync "chaincred/pkg/platform/sync"
)

// Revocation modes.
const (
	ModeHard = "hard"
	ModeSoft = "soft"
)

// RevokeRequest identifies the credential to revoke and who is asking.
// Issuer is required: only the minting account may revoke, and the issuer
// account anchors the history scan that makes revocation idempotent.
type RevokeRequest struct {
	TokenID string
	Issuer  string
	Hard    bool
	Reason  string
}

// Result reports one status transition. TxID is empty when the call was an
// idempotent no-op.
type Result struct {
	TokenID        string `json:"token_id"`
	TxID           string `json:"tx_id,omitempty"`
	LedgerSeq      uint64 `json:"ledger_seq,omitempty"`
	Mode           string `json:"mode"`
	AlreadyRevoked bool   `json:"already_revoked,omitempty"`
}

// Option configures the revocation service.
type Option func(*Service)

// WithLogger configures a logger for the service.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

// WithAuditor configures an audit publisher for the service.
func WithAuditor(auditor audit.Emitter) Option {
	return func(s *Service) { s.auditor = auditor }
}

// WithMetrics wires lifecycle metrics.
func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

// WithClock overrides the timestamp source.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// Service applies revocations and suspensions. Both paths are idempotent:
// revoking an already-revoked credential reports success, because the caller
// wanted it revoked and it is.
type Service struct {
	client    ledger.Client
	submitter *ledger.Submitter
	resolver  *history.Resolver
	locks     *psync.ShardedMutex
	metrics   *metrics.Metrics
	auditor   audit.Emitter
	logger    *slog.Logger
	now       func() time.Time
}

// NewService creates a revocation service over the given ledger access.
func NewService(client ledger.Client, submitter *ledger.Submitter, resolver *history.Resolver, opts ...Option) *Service {
	s := &Service{
		client:    client,
		submitter: submitter,
		resolver:  resolver,
		locks:     psync.NewShardedMutex(),
		now:       func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Revoke permanently invalidates a credential. Hard revocation burns the
// token and tombstones its id; soft revocation appends a revoked status
// event and keeps the token resolvable for audit.
func (s *Service) Revoke(ctx context.Context, req RevokeRequest) (*Result, error) {
	if req.TokenID == "" || req.Issuer == "" {
		return nil, dErrors.New(dErrors.CodeBadRequest, "token id and issuer are required")
	}
	mode := ModeSoft
	if req.Hard {
		mode = ModeHard
	}

	tok, err := s.client.TokenInfo(ctx, req.TokenID)
	if err != nil {
		if !dErrors.HasCode(err, dErrors.CodeNotFound) {
			return nil, err
		}
		// Token gone. If this issuer ever minted it, the burn already
		// happened and the desired end state holds.
		if s.wasMintedBy(ctx, req.Issuer, req.TokenID) {
			return &Result{TokenID: req.TokenID, Mode: mode, AlreadyRevoked: true}, nil
		}
		return nil, err
	}
	if tok.Issuer != req.Issuer {
		return nil, dErrors.New(dErrors.CodeForbidden, "only the minting issuer can revoke a credential")
	}

	if req.Hard {
		return s.revokeHard(ctx, req, tok)
	}
	return s.revokeSoft(ctx, req)
}

func (s *Service) revokeHard(ctx context.Context, req RevokeRequest, tok ledger.TokenObject) (*Result, error) {
	if !tok.Flags.Burnable {
		return nil, dErrors.New(dErrors.CodeNotBurnable, "token was minted without the burnable flag")
	}

	var res ledger.SubmitResult
	err := s.locks.Do(req.Issuer, func() error {
		var err error
		res, err = s.submitter.Submit(ctx, ledger.Transaction{
			Kind:         contract.TxKindBurn,
			Account:      req.Issuer,
			TokenID:      req.TokenID,
			SubmissionID: uuid.New().String(),
		})
		return err
	})
	if err != nil {
		// Lost the race against another burn of the same token.
		if dErrors.HasCode(err, dErrors.CodeNotFound) {
			return &Result{TokenID: req.TokenID, Mode: ModeHard, AlreadyRevoked: true}, nil
		}
		return nil, err
	}

	s.finish(ctx, req.TokenID, req.Issuer, ModeHard, req.Reason)
	return &Result{TokenID: req.TokenID, TxID: res.TxID, LedgerSeq: res.LedgerSeq, Mode: ModeHard}, nil
}

func (s *Service) revokeSoft(ctx context.Context, req RevokeRequest) (*Result, error) {
	current, err := s.foldStatus(ctx, req.Issuer, req.TokenID)
	if err != nil {
		return nil, err
	}
	if current == models.CredentialRevoked {
		return &Result{TokenID: req.TokenID, Mode: ModeSoft, AlreadyRevoked: true}, nil
	}

	res, err := s.appendStatus(ctx, req.Issuer, models.StatusEvent{
		Kind:    models.StatusRevoked,
		TokenID: req.TokenID,
		Actor:   req.Issuer,
		Reason:  req.Reason,
	})
	if err != nil {
		return nil, err
	}

	s.finish(ctx, req.TokenID, req.Issuer, ModeSoft, req.Reason)
	return &Result{TokenID: req.TokenID, TxID: res.TxID, LedgerSeq: res.LedgerSeq, Mode: ModeSoft}, nil
}

// Suspend marks a credential temporarily invalid. Suspension of a revoked
// credential is rejected rather than silently shadowed, since revocation is
// terminal.
func (s *Service) Suspend(ctx context.Context, tokenID, issuer, reason string) (*Result, error) {
	if tokenID == "" || issuer == "" {
		return nil, dErrors.New(dErrors.CodeBadRequest, "token id and issuer are required")
	}

	tok, err := s.client.TokenInfo(ctx, tokenID)
	if err != nil {
		return nil, err
	}
	if tok.Issuer != issuer {
		return nil, dErrors.New(dErrors.CodeForbidden, "only the minting issuer can suspend a credential")
	}

	current, err := s.foldStatus(ctx, issuer, tokenID)
	if err != nil {
		return nil, err
	}
	switch current {
	case models.CredentialRevoked:
		return nil, dErrors.New(dErrors.CodeBadRequest, "cannot suspend a revoked credential")
	case models.CredentialSuspended:
		return &Result{TokenID: tokenID, Mode: "suspend"}, nil
	}

	res, err := s.appendStatus(ctx, issuer, models.StatusEvent{
		Kind:    models.StatusSuspended,
		TokenID: tokenID,
		Actor:   issuer,
		Reason:  reason,
	})
	if err != nil {
		return nil, err
	}

	if s.metrics != nil {
		s.metrics.RecordSuspended()
	}
	s.emitAudit(ctx, audit.ActionCredentialSuspended, tokenID, issuer, "suspended", reason)
	return &Result{TokenID: tokenID, TxID: res.TxID, LedgerSeq: res.LedgerSeq, Mode: "suspend"}, nil
}

// Reinstate clears a suspension by appending an issued event. It cannot
// reopen a revoked credential.
func (s *Service) Reinstate(ctx context.Context, tokenID, issuer string) (*Result, error) {
	if tokenID == "" || issuer == "" {
		return nil, dErrors.New(dErrors.CodeBadRequest, "token id and issuer are required")
	}
	tok, err := s.client.TokenInfo(ctx, tokenID)
	if err != nil {
		return nil, err
	}
	if tok.Issuer != issuer {
		return nil, dErrors.New(dErrors.CodeForbidden, "only the minting issuer can reinstate a credential")
	}

	current, err := s.foldStatus(ctx, issuer, tokenID)
	if err != nil {
		return nil, err
	}
	if current == models.CredentialRevoked {
		return nil, dErrors.New(dErrors.CodeBadRequest, "cannot reinstate a revoked credential")
	}
	if current != models.CredentialSuspended {
		return &Result{TokenID: tokenID, Mode: "reinstate"}, nil
	}

	res, err := s.appendStatus(ctx, issuer, models.StatusEvent{
		Kind:    models.StatusIssued,
		TokenID: tokenID,
		Actor:   issuer,
	})
	if err != nil {
		return nil, err
	}
	return &Result{TokenID: tokenID, TxID: res.TxID, LedgerSeq: res.LedgerSeq, Mode: "reinstate"}, nil
}

func (s *Service) foldStatus(ctx context.Context, issuer, tokenID string) (models.CredentialStatus, error) {
	records, _, err := s.resolver.IssuerRecords(ctx, issuer)
	if err != nil {
		return "", err
	}
	return status.Fold(history.StatusEvents(records, tokenID)), nil
}

func (s *Service) wasMintedBy(ctx context.Context, issuer, tokenID string) bool {
	records, _, err := s.resolver.IssuerRecords(ctx, issuer)
	if err != nil {
		return false
	}
	_, ok := history.MintRecord(records, tokenID)
	return ok
}

func (s *Service) appendStatus(ctx context.Context, issuer string, ev models.StatusEvent) (ledger.SubmitResult, error) {
	ev.Timestamp = s.now()
	memo, err := codec.EncodeStatusMemo(ev)
	if err != nil {
		return ledger.SubmitResult{}, err
	}

	var res ledger.SubmitResult
	err = s.locks.Do(issuer, func() error {
		var err error
		res, err = s.submitter.Submit(ctx, ledger.Transaction{
			Kind:         contract.TxKindStatus,
			Account:      issuer,
			TokenID:      ev.TokenID,
			Memos:        []contract.Memo{memo},
			SubmissionID: uuid.New().String(),
		})
		return err
	})
	return res, err
}

func (s *Service) finish(ctx context.Context, tokenID, issuer, mode, reason string) {
	if s.metrics != nil {
		s.metrics.RecordRevoked(mode)
	}
	s.emitAudit(ctx, audit.ActionCredentialRevoked, tokenID, issuer, mode, reason)
}

func (s *Service) emitAudit(ctx context.Context, action, tokenID, issuer, decision, reason string) {
	if s.auditor == nil {
		return
	}
	err := s.auditor.Emit(ctx, audit.Event{
		Action:   action,
		TokenID:  tokenID,
		Account:  issuer,
		Decision: decision,
		Reason:   reason,
	})
	if err != nil && s.logger != nil {
		s.logger.ErrorContext(ctx, "failed to emit revocation audit event",
			"error", err,
			"token_id", tokenID,
		)
	}
}
