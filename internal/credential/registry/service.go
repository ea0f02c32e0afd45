// Package registry materializes read views of credentials by replaying
// ledger transaction history. Nothing here is stored; every listing is a
// fresh deterministic fold over the chain.
package registry

import (
	"context"
	"log/slog"
	"sort"
	"time"

	contract "chaincred/contracts/ledger"
	"chaincred/internal/credential/codec"
	"chaincred/internal/credential/domain/status"
	"chaincred/internal/credential/history"
	"chaincred/internal/credential/models"
	"chaincred/internal/credential/verification"
	"chaincred/internal/ledger"
	"chaincred/internal/platform/metrics"
	dErrors "chaincred/pkg/domain-errors"
)

// Tracer abstracts span creation so the service does not depend on a
// concrete tracing backend. The returned func ends the span, recording err
// when non-nil.
type Tracer interface {
	Start(ctx context.Context, name string) (context.Context, func(err error))
}

// Verifier is the verification capability the registry embeds into full
// credential views.
type Verifier interface {
	Verify(ctx context.Context, tokenID string, level models.VerificationLevel, params verification.Params) (models.VerificationResult, error)
}

// ListOptions filter a registry listing. Zero values match everything.
type ListOptions struct {
	Taxon  *uint32
	Holder string
	Status models.CredentialStatus
}

// Option configures the registry service.
type Option func(*Service)

// WithLogger configures a logger for the service.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

// WithMetrics wires registry scan metrics.
func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

// WithTracer enables span instrumentation on registry reads.
func WithTracer(t Tracer) Option {
	return func(s *Service) { s.tracer = t }
}

// WithVerifier lets full credential views embed a verification result.
func WithVerifier(v Verifier) Option {
	return func(s *Service) { s.verifier = v }
}

// WithClock overrides the timestamp source.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// Service answers registry queries.
type Service struct {
	client   ledger.Client
	resolver *history.Resolver
	codec    *codec.Codec
	verifier Verifier
	tracer   Tracer
	metrics  *metrics.Metrics
	logger   *slog.Logger
	now      func() time.Time
}

// NewService creates a registry over the given ledger access.
func NewService(client ledger.Client, resolver *history.Resolver, c *codec.Codec, opts ...Option) *Service {
	s := &Service{
		client:   client,
		resolver: resolver,
		codec:    c,
		now:      func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// tokenView accumulates one credential's facts during a replay.
type tokenView struct {
	summary    models.CredentialSummary
	events     []models.StatusEvent
	expiration *time.Time
	burned     bool
}

// ListByIssuer replays the issuer's full history into credential summaries,
// ordered by mint ledger sequence. Hard-revoked credentials stay listed with
// a revoked status; the registry is an audit view, not a wallet.
func (s *Service) ListByIssuer(ctx context.Context, issuer string, opts ListOptions) (_ []models.CredentialSummary, err error) {
	if s.tracer != nil {
		var end func(error)
		ctx, end = s.tracer.Start(ctx, "registry.list_by_issuer")
		defer func() { end(err) }()
	}

	views, err := s.replay(ctx, issuer)
	if err != nil {
		return nil, err
	}

	now := s.now()
	out := make([]models.CredentialSummary, 0, len(views))
	for _, v := range views {
		// Secondary transfers settle between the two holders and never touch
		// the issuer's history; the live token object is authoritative for
		// current ownership.
		if !v.burned {
			if tok, err := s.client.TokenInfo(ctx, v.summary.TokenID); err == nil {
				v.summary.Holder = tok.Owner
			}
		}
		v.summary.Status = s.resolveStatus(v, now)
		if !matches(v.summary, opts) {
			continue
		}
		out = append(out, v.summary)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].LedgerSeq < out[j].LedgerSeq })
	return out, nil
}

// GetInfo assembles the full view of one credential: handle, document,
// status history, and optionally a verification at the requested level.
func (s *Service) GetInfo(ctx context.Context, tokenID string, level models.VerificationLevel) (_ *models.CredentialInfo, err error) {
	if s.tracer != nil {
		var end func(error)
		ctx, end = s.tracer.Start(ctx, "registry.get_info")
		defer func() { end(err) }()
	}

	tok, err := s.client.TokenInfo(ctx, tokenID)
	if err != nil {
		return nil, err
	}

	records, pages, err := s.resolver.IssuerRecords(ctx, tok.Issuer)
	if err != nil {
		return nil, err
	}
	if s.metrics != nil {
		s.metrics.ObserveRegistryPages(pages)
	}

	info := &models.CredentialInfo{
		Handle: models.TokenHandle{
			TokenID: tok.TokenID,
			Owner:   tok.Owner,
			Issuer:  tok.Issuer,
			Taxon:   tok.Taxon,
			Flags:   tok.Flags,
		},
		StatusHistory: history.StatusEvents(records, tokenID),
	}
	if mint, ok := history.MintRecord(records, tokenID); ok {
		info.Handle.MintTxID = mint.TxID
	}

	doc, docErr := s.resolver.DocumentFromRecords(ctx, tok, records)
	if docErr != nil {
		if s.logger != nil {
			s.logger.WarnContext(ctx, "credential document unresolvable",
				"token_id", tokenID,
				"error", docErr,
			)
		}
	} else {
		info.Document = &doc
	}

	if s.verifier != nil && level != "" {
		res, err := s.verifier.Verify(ctx, tokenID, level, verification.Params{})
		if err != nil {
			return nil, err
		}
		info.Verification = res
	}
	return info, nil
}

// StatusHistory returns the ordered lifecycle event stream for one
// credential, including the terminal burn for hard-revoked tokens.
func (s *Service) StatusHistory(ctx context.Context, issuer, tokenID string) ([]models.StatusEvent, error) {
	records, _, err := s.resolver.IssuerRecords(ctx, issuer)
	if err != nil {
		return nil, err
	}
	events := history.StatusEvents(records, tokenID)
	for _, rec := range records {
		if rec.Kind == contract.TxKindBurn && rec.TokenID == tokenID {
			events = append(events, models.StatusEvent{
				Kind:      models.StatusRevoked,
				TokenID:   tokenID,
				TxID:      rec.TxID,
				LedgerSeq: rec.LedgerSeq,
				Timestamp: rec.Timestamp,
				Actor:     rec.Account,
				Reason:    "token burned",
			})
		}
	}
	if len(events) == 0 {
		return nil, dErrors.New(dErrors.CodeNotFound, "no history for token in issuer account")
	}
	sort.SliceStable(events, func(i, j int) bool { return events[i].LedgerSeq < events[j].LedgerSeq })
	return events, nil
}

func (s *Service) replay(ctx context.Context, issuer string) (map[string]*tokenView, error) {
	records, pages, err := s.resolver.IssuerRecords(ctx, issuer)
	if err != nil {
		return nil, err
	}
	if s.metrics != nil {
		s.metrics.ObserveRegistryPages(pages)
	}

	views := make(map[string]*tokenView)
	for _, rec := range records {
		switch rec.Kind {
		case contract.TxKindMint:
			if rec.Account != issuer {
				continue
			}
			v := &tokenView{
				summary: models.CredentialSummary{
					TokenID:   rec.TokenID,
					Issuer:    issuer,
					Holder:    rec.Account,
					Taxon:     rec.Taxon,
					IssuedAt:  rec.Timestamp,
					LedgerSeq: rec.LedgerSeq,
				},
			}
			if rec.Destination != "" {
				v.summary.Holder = rec.Destination
			}
			if doc, err := s.decodeMint(rec); err == nil {
				v.summary.Types = doc.Types
				v.summary.IssuedAt = doc.IssuedAt
				v.expiration = doc.Expiration
			}
			v.events = append(v.events, models.StatusEvent{
				Kind:      models.StatusIssued,
				TokenID:   rec.TokenID,
				TxID:      rec.TxID,
				LedgerSeq: rec.LedgerSeq,
				Timestamp: rec.Timestamp,
				Actor:     rec.Account,
			})
			views[rec.TokenID] = v

		case contract.TxKindOfferAccept:
			if v, ok := views[rec.TokenID]; ok {
				v.summary.Holder = rec.Account
			}

		case contract.TxKindBurn:
			if v, ok := views[rec.TokenID]; ok {
				v.burned = true
			}

		case contract.TxKindStatus:
			for _, m := range rec.Memos {
				ev, err := codec.DecodeStatusMemo(m)
				if err != nil {
					continue
				}
				if v, ok := views[ev.TokenID]; ok {
					ev.TxID = rec.TxID
					ev.LedgerSeq = rec.LedgerSeq
					ev.Timestamp = rec.Timestamp
					ev.Actor = rec.Account
					v.events = append(v.events, ev)
				}
			}
		}
	}
	return views, nil
}

func (s *Service) decodeMint(rec ledger.TxRecord) (models.Document, error) {
	chunks, err := codec.ChunksFromMemos(rec.URI, rec.Memos)
	if err != nil {
		return models.Document{}, err
	}
	return s.codec.Decode(rec.URI, chunks)
}

func (s *Service) resolveStatus(v *tokenView, now time.Time) models.CredentialStatus {
	if v.burned {
		return models.CredentialRevoked
	}
	return status.Resolve(v.events, v.expiration, now)
}

func matches(sum models.CredentialSummary, opts ListOptions) bool {
	if opts.Taxon != nil && sum.Taxon != *opts.Taxon {
		return false
	}
	if opts.Holder != "" && sum.Holder != opts.Holder {
		return false
	}
	if opts.Status != "" && sum.Status != opts.Status {
		return false
	}
	return true
}
