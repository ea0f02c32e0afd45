// Package transfer moves credentials between holders through ledger-native
// two-phase offers. Ownership changes only on acceptance; a pending offer is
// just a standing proposal either side can walk away from.
package transfer

import (
	"context"
	"log/slog"

	"github.com/google/uuid"

	contract "chaincred/contracts/ledger"
	"chaincred/internal/credential/history"
	"chaincred/internal/credential/models"
	"chaincred/internal/ledger"
	"chaincred/internal/platform/metrics"
	dErrors "chaincred/pkg/domain-errors"
	"chaincred/pkg/platform/audit"
	psync "chaincred/pkg/platform/sync"
)

// CreateOfferRequest proposes moving a token from its current owner to a
// destination account. To may be empty for an open offer any account can take.
type CreateOfferRequest struct {
	TokenID string
	From    string
	To      string
}

// AcceptResult reports a completed transfer.
type AcceptResult struct {
	OfferID   string `json:"offer_id"`
	TokenID   string `json:"token_id"`
	NewOwner  string `json:"new_owner"`
	TxID      string `json:"tx_id"`
	LedgerSeq uint64 `json:"ledger_seq"`
}

// Option configures the transfer service.
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

// Service manages transfer offers.
type Service struct {
	client    ledger.Client
	submitter *ledger.Submitter
	resolver  *history.Resolver
	locks     *psync.ShardedMutex
	metrics   *metrics.Metrics
	auditor   audit.Emitter
	logger    *slog.Logger
}

// NewService creates a transfer service over the given ledger access.
func NewService(client ledger.Client, submitter *ledger.Submitter, resolver *history.Resolver, opts ...Option) *Service {
	s := &Service{
		client:    client,
		submitter: submitter,
		resolver:  resolver,
		locks:     psync.NewShardedMutex(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// CreateOffer opens a zero-amount transfer offer for a credential. Only the
// current owner can offer, and a non-transferable credential can only be
// offered by its issuer.
func (s *Service) CreateOffer(ctx context.Context, req CreateOfferRequest) (*models.TransferOffer, error) {
	if req.TokenID == "" || req.From == "" {
		return nil, dErrors.New(dErrors.CodeBadRequest, "token id and owner are required")
	}

	tok, err := s.client.TokenInfo(ctx, req.TokenID)
	if err != nil {
		return nil, err
	}
	if tok.Owner != req.From {
		return nil, dErrors.New(dErrors.CodeForbidden, "only the current owner can offer a credential")
	}
	if !tok.Flags.Transferable && req.From != tok.Issuer {
		return nil, dErrors.New(dErrors.CodeNotTransferable, "token was minted without the transferable flag")
	}

	var res ledger.SubmitResult
	err = s.locks.Do(req.From, func() error {
		var err error
		res, err = s.submitter.Submit(ctx, ledger.Transaction{
			Kind:         contract.TxKindOfferCreate,
			Account:      req.From,
			TokenID:      req.TokenID,
			Destination:  req.To,
			Amount:       0,
			SubmissionID: uuid.New().String(),
		})
		return err
	})
	if err != nil {
		return nil, err
	}

	s.emitAudit(ctx, audit.ActionOfferCreated, req.TokenID, req.From, "offer_created", "")
	return &models.TransferOffer{
		OfferID: res.OfferID,
		TokenID: req.TokenID,
		From:    req.From,
		To:      req.To,
		Amount:  0,
		State:   models.OfferPending,
	}, nil
}

// AcceptOffer completes a transfer. The ledger enforces that only the
// destination of a directed offer can accept; that rejection surfaces as an
// offer-invalid error rather than a generic failure.
func (s *Service) AcceptOffer(ctx context.Context, offerID, acceptor string) (*AcceptResult, error) {
	if offerID == "" || acceptor == "" {
		return nil, dErrors.New(dErrors.CodeBadRequest, "offer id and acceptor are required")
	}

	var res ledger.SubmitResult
	err := s.locks.Do(acceptor, func() error {
		var err error
		res, err = s.submitter.Submit(ctx, ledger.Transaction{
			Kind:         contract.TxKindOfferAccept,
			Account:      acceptor,
			OfferID:      offerID,
			SubmissionID: uuid.New().String(),
		})
		return err
	})
	if err != nil {
		if dErrors.HasCode(err, dErrors.CodeNotFound) {
			// Wrap preserves domain codes, so re-code explicitly: a missing
			// offer object means the offer is not acceptable, not that some
			// resource is absent.
			return nil, &dErrors.Error{Code: dErrors.CodeOfferInvalid, Message: "offer does not exist or is no longer pending", Err: err}
		}
		return nil, err
	}

	if s.metrics != nil {
		s.metrics.RecordTransferred()
	}
	s.emitAudit(ctx, audit.ActionCredentialTransferred, res.TokenID, acceptor, "accepted", "")
	return &AcceptResult{
		OfferID:   offerID,
		TokenID:   res.TokenID,
		NewOwner:  acceptor,
		TxID:      res.TxID,
		LedgerSeq: res.LedgerSeq,
	}, nil
}

// CancelOffer withdraws a pending offer. Only its creator can cancel.
func (s *Service) CancelOffer(ctx context.Context, offerID, owner string) error {
	if offerID == "" || owner == "" {
		return dErrors.New(dErrors.CodeBadRequest, "offer id and owner are required")
	}

	err := s.locks.Do(owner, func() error {
		_, err := s.submitter.Submit(ctx, ledger.Transaction{
			Kind:         contract.TxKindOfferCancel,
			Account:      owner,
			OfferID:      offerID,
			SubmissionID: uuid.New().String(),
		})
		return err
	})
	if err != nil {
		if dErrors.HasCode(err, dErrors.CodeNotFound) {
			return &dErrors.Error{Code: dErrors.CodeOfferInvalid, Message: "offer does not exist or is no longer pending", Err: err}
		}
		return err
	}

	s.emitAudit(ctx, audit.ActionOfferCancelled, "", owner, "offer_cancelled", "")
	return nil
}

// OfferInfo resolves an offer's current state by replaying the creator's
// transaction history. The ledger object for a resolved offer is gone; the
// history is not, so pending is reported distinctly from accepted, cancelled,
// and implicitly-cancelled-by-burn.
func (s *Service) OfferInfo(ctx context.Context, owner, offerID string) (*models.TransferOffer, error) {
	records, _, err := s.resolver.IssuerRecords(ctx, owner)
	if err != nil {
		return nil, err
	}

	var offer *models.TransferOffer
	for _, rec := range records {
		switch rec.Kind {
		case contract.TxKindOfferCreate:
			if rec.OfferID == offerID {
				offer = &models.TransferOffer{
					OfferID: offerID,
					TokenID: rec.TokenID,
					From:    rec.Account,
					To:      rec.Destination,
					Amount:  rec.Amount,
					State:   models.OfferPending,
				}
			}
		case contract.TxKindOfferAccept:
			if offer != nil && rec.OfferID == offerID {
				offer.State = models.OfferAccepted
			}
		case contract.TxKindOfferCancel:
			if offer != nil && rec.OfferID == offerID {
				offer.State = models.OfferCancelled
			}
		case contract.TxKindBurn:
			if offer != nil && rec.TokenID == offer.TokenID && offer.State == models.OfferPending {
				offer.State = models.OfferCancelled
			}
		}
	}
	if offer == nil {
		return nil, dErrors.New(dErrors.CodeNotFound, "offer not found in account history")
	}
	return offer, nil
}

func (s *Service) emitAudit(ctx context.Context, action, tokenID, account, decision, reason string) {
	if s.auditor == nil {
		return
	}
	err := s.auditor.Emit(ctx, audit.Event{
		Action:   action,
		TokenID:  tokenID,
		Account:  account,
		Decision: decision,
		Reason:   reason,
	})
	if err != nil && s.logger != nil {
		s.logger.ErrorContext(ctx, "failed to emit transfer audit event",
			"error", err,
			"token_id", tokenID,
		)
	}
}
