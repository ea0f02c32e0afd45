// Package issuance mints credential tokens onto the ledger.
package issuance

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	contract "chaincred/contracts/ledger"
	"chaincred/internal/credential/codec"
	"chaincred/internal/credential/models"
	"chaincred/internal/ledger"
	"chaincred/internal/platform/metrics"
	dErrors "chaincred/pkg/domain-errors"
	"chaincred/pkg/platform/audit"
	psync "chaincred/pkg/platform/sync"
)

// Issuance phases reported on partial failure.
const (
	PhaseMint        = "mint"
	PhaseOfferCreate = "offer_create"
	PhaseOfferAccept = "offer_accept"
)

// recoverPageBudget bounds the history scan when recovering a timed-out mint.
const recoverPageBudget = 3

// IssueRequest carries everything needed to mint one credential.
type IssueRequest struct {
	Document   models.Document
	Flags      contract.TokenFlags
	Taxon      uint32
	Expiration *time.Time
}

// IssuanceResult reports the ledger writes behind one logical issue call.
type IssuanceResult struct {
	TokenID      string `json:"token_id"`
	MintTxID     string `json:"mint_tx_id"`
	TransferTxID string `json:"transfer_tx_id,omitempty"`
	LedgerSeq    uint64 `json:"ledger_seq"`
}

// PhaseError reports a two-phase issuance that failed after the mint landed.
// It carries the mint transaction id so the caller can complete or reconcile
// the credential manually instead of re-issuing a duplicate.
type PhaseError struct {
	Phase    string
	TokenID  string
	MintTxID string
	Err      error
}

func (e *PhaseError) Error() string {
	return fmt.Sprintf("issuance failed at phase %s (mint tx %s): %v", e.Phase, e.MintTxID, e.Err)
}

func (e *PhaseError) Unwrap() error {
	return e.Err
}

// ProofGenerator produces a portable cryptographic proof over a credential
// document. Implemented by the proof adapter; optional.
type ProofGenerator interface {
	GenerateProof(doc models.Document) (string, error)
}

// Option configures the issuance service.
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

// WithProofGenerator makes issuance attach a document proof when the caller
// did not supply one.
func WithProofGenerator(g ProofGenerator) Option {
	return func(s *Service) { s.proofs = g }
}

// WithDefaultExpiry overrides the expiration applied when the caller
// supplies none. Default is one year.
func WithDefaultExpiry(d time.Duration) Option {
	return func(s *Service) {
		if d > 0 {
			s.defaultExpiry = d
		}
	}
}

// Service is the issuance engine. Writes for one issuer account are
// serialized through a sharded lock because the ledger orders an account's
// transactions by sequence number; reads never take the lock.
type Service struct {
	client        ledger.Client
	submitter     *ledger.Submitter
	codec         *codec.Codec
	locks         *psync.ShardedMutex
	defaultExpiry time.Duration
	proofs        ProofGenerator
	metrics       *metrics.Metrics
	auditor       audit.Emitter
	logger        *slog.Logger
	now           func() time.Time
}

// NewService creates an issuance engine over the given ledger access.
func NewService(client ledger.Client, submitter *ledger.Submitter, c *codec.Codec, opts ...Option) *Service {
	s := &Service{
		client:        client,
		submitter:     submitter,
		codec:         c,
		locks:         psync.NewShardedMutex(),
		defaultExpiry: 365 * 24 * time.Hour,
		now:           func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Issue packs the document, mints the token, and, when the ledger cannot
// mint directly to the holder, runs the offer/accept second phase. Exposed
// as one logical operation; internally two ledger writes with their own
// partial-failure reporting.
func (s *Service) Issue(ctx context.Context, req IssueRequest) (*IssuanceResult, error) {
	doc := req.Document
	if doc.Issuer == "" {
		return nil, dErrors.New(dErrors.CodeBadRequest, "issuer is required")
	}
	if doc.Holder == "" {
		return nil, dErrors.New(dErrors.CodeBadRequest, "holder is required")
	}
	if doc.Claims == nil {
		return nil, dErrors.New(dErrors.CodeBadRequest, "claims cannot be nil")
	}

	now := s.now()
	if doc.IssuedAt.IsZero() {
		doc.IssuedAt = now
	}
	if req.Expiration != nil {
		doc.Expiration = req.Expiration
	}
	if doc.Expiration == nil {
		exp := now.Add(s.defaultExpiry)
		doc.Expiration = &exp
	}
	if s.proofs != nil && doc.ProofRef == "" {
		proof, err := s.proofs.GenerateProof(doc)
		if err != nil {
			return nil, dErrors.Wrap(err, dErrors.CodeInternal, "proof generation failed")
		}
		doc.ProofRef = proof
	}

	primary, chunks, err := s.codec.Encode(doc)
	if err != nil {
		return nil, err
	}

	directMint := s.client.SupportsMintDestination()

	var mintRes ledger.SubmitResult
	mintErr := s.locks.Do(doc.Issuer, func() error {
		tx := ledger.Transaction{
			Kind:         contract.TxKindMint,
			Account:      doc.Issuer,
			Taxon:        req.Taxon,
			Flags:        req.Flags,
			Expiration:   doc.Expiration,
			URI:          primary,
			Memos:        codec.MemosFromChunks(chunks),
			SubmissionID: uuid.New().String(),
		}
		if directMint {
			tx.Destination = doc.Holder
		}
		var err error
		mintRes, err = s.submitter.Submit(ctx, tx)
		return err
	})
	if mintErr != nil {
		// A finality timeout does not mean the mint failed. Check the ledger
		// for the expected token before reporting failure, so the caller is
		// never pushed into minting a duplicate.
		if !dErrors.HasCode(mintErr, dErrors.CodeTimeout) {
			return nil, mintErr
		}
		recovered, ok := s.recoverMint(ctx, doc.Issuer, req.Taxon, primary, doc.Holder, directMint)
		if !ok {
			return nil, mintErr
		}
		if s.logger != nil {
			s.logger.InfoContext(ctx, "recovered timed-out mint from ledger state",
				"token_id", recovered.TokenID,
				"issuer", doc.Issuer,
			)
		}
		mintRes = recovered
	}

	result := &IssuanceResult{
		TokenID:   mintRes.TokenID,
		MintTxID:  mintRes.TxID,
		LedgerSeq: mintRes.LedgerSeq,
	}

	// Second phase: move the self-minted token to the holder.
	if !directMint && doc.Holder != doc.Issuer {
		transferTxID, err := s.transferToHolder(ctx, doc.Issuer, doc.Holder, result)
		if err != nil {
			return nil, err
		}
		result.TransferTxID = transferTxID
	}

	if s.metrics != nil {
		s.metrics.RecordIssued()
	}
	s.emitAudit(ctx, result.TokenID, doc.Issuer, "issued")
	return result, nil
}

func (s *Service) transferToHolder(ctx context.Context, issuer, holder string, minted *IssuanceResult) (string, error) {
	var offerRes ledger.SubmitResult
	err := s.locks.Do(issuer, func() error {
		var err error
		offerRes, err = s.submitter.Submit(ctx, ledger.Transaction{
			Kind:         contract.TxKindOfferCreate,
			Account:      issuer,
			TokenID:      minted.TokenID,
			Destination:  holder,
			Amount:       0,
			SubmissionID: uuid.New().String(),
		})
		return err
	})
	if err != nil {
		return "", &PhaseError{Phase: PhaseOfferCreate, TokenID: minted.TokenID, MintTxID: minted.MintTxID, Err: err}
	}

	var acceptRes ledger.SubmitResult
	err = s.locks.Do(holder, func() error {
		var err error
		acceptRes, err = s.submitter.Submit(ctx, ledger.Transaction{
			Kind:         contract.TxKindOfferAccept,
			Account:      holder,
			OfferID:      offerRes.OfferID,
			SubmissionID: uuid.New().String(),
		})
		return err
	})
	if err != nil {
		return "", &PhaseError{Phase: PhaseOfferAccept, TokenID: minted.TokenID, MintTxID: minted.MintTxID, Err: err}
	}
	return acceptRes.TxID, nil
}

// recoverMint looks for a token matching the attempted mint: right owner,
// right taxon, identical primary field. When found, the mint transaction id
// is pulled from recent history on a best-effort basis.
func (s *Service) recoverMint(ctx context.Context, issuer string, taxon uint32, primary []byte, holder string, directMint bool) (ledger.SubmitResult, bool) {
	owner := issuer
	if directMint {
		owner = holder
	}
	tokens, err := s.client.TokensOwnedBy(ctx, owner)
	if err != nil {
		return ledger.SubmitResult{}, false
	}

	var match *ledger.TokenObject
	for i := range tokens {
		tok := tokens[i]
		if tok.Issuer == issuer && tok.Taxon == taxon && bytes.Equal(tok.URI, primary) {
			match = &tok
			break
		}
	}
	if match == nil {
		return ledger.SubmitResult{}, false
	}

	res := ledger.SubmitResult{Code: contract.ResultSuccess, TokenID: match.TokenID}
	page := ledger.Page{Limit: 50}
	for i := 0; i < recoverPageBudget; i++ {
		tp, err := s.client.AccountTransactions(ctx, issuer, page)
		if err != nil {
			break
		}
		for _, rec := range tp.Transactions {
			if rec.Kind == contract.TxKindMint && rec.TokenID == match.TokenID {
				res.TxID = rec.TxID
				res.LedgerSeq = rec.LedgerSeq
				return res, true
			}
		}
		if tp.Marker == "" {
			break
		}
		page.Marker = tp.Marker
	}
	return res, true
}

func (s *Service) emitAudit(ctx context.Context, tokenID, issuer, decision string) {
	if s.auditor == nil {
		return
	}
	event := audit.Event{
		Action:   audit.ActionCredentialIssued,
		TokenID:  tokenID,
		Account:  issuer,
		Decision: decision,
	}
	if err := s.auditor.Emit(ctx, event); err != nil && s.logger != nil {
		s.logger.ErrorContext(ctx, "failed to emit issuance audit event",
			"error", err,
			"token_id", tokenID,
		)
	}
}
