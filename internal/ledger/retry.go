package ledger

import (
	"context"
	"log/slog"
	"time"

	contract "chaincred/contracts/ledger"
	dErrors "chaincred/pkg/domain-errors"
	"chaincred/pkg/platform/circuit"
)

// RetryPolicy bounds local retries for transient submission failures. It is
// passed in explicitly rather than living as hidden state inside the client.
type RetryPolicy struct {
	MaxAttempts int
	BaseDelay   time.Duration
	MaxDelay    time.Duration
}

// DefaultRetryPolicy suits interactive issuance flows.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxAttempts: 3,
		BaseDelay:   250 * time.Millisecond,
		MaxDelay:    5 * time.Second,
	}
}

// Delay returns the backoff before the given retry attempt (0-based).
func (p RetryPolicy) Delay(attempt int) time.Duration {
	d := p.BaseDelay << uint(attempt)
	if d > p.MaxDelay || d <= 0 {
		return p.MaxDelay
	}
	return d
}

// SubmitObserver receives submission telemetry. Satisfied by the platform
// metrics type; nil-safe everywhere it is used.
type SubmitObserver interface {
	ObserveSubmit(d time.Duration)
	RecordSubmitRetry()
}

// Submitter signs and submits transactions with retry, freshness re-query,
// and circuit breaking. Raw submission is never retried blindly: after a
// timeout or transport failure the account history is checked for the
// submission's idempotency key first, so a write that actually landed is
// reported as success instead of duplicated.
type Submitter struct {
	client         Client
	signer         Signer
	policy         RetryPolicy
	attemptTimeout time.Duration
	breaker        *circuit.Breaker
	observer       SubmitObserver
	logger         *slog.Logger
	sleep          func(ctx context.Context, d time.Duration) error
}

// SubmitterOption configures a Submitter.
type SubmitterOption func(*Submitter)

// WithRetryPolicy overrides the default retry policy.
func WithRetryPolicy(p RetryPolicy) SubmitterOption {
	return func(s *Submitter) {
		if p.MaxAttempts > 0 {
			s.policy = p
		}
	}
}

// WithSubmitTimeout bounds each submit-and-wait attempt. Zero means the
// caller's context deadline is the only bound.
func WithSubmitTimeout(d time.Duration) SubmitterOption {
	return func(s *Submitter) { s.attemptTimeout = d }
}

// WithBreaker guards the submission path with a circuit breaker.
func WithBreaker(b *circuit.Breaker) SubmitterOption {
	return func(s *Submitter) { s.breaker = b }
}

// WithObserver wires submission telemetry.
func WithObserver(o SubmitObserver) SubmitterOption {
	return func(s *Submitter) { s.observer = o }
}

// WithLogger configures a logger for the submitter.
func WithLogger(logger *slog.Logger) SubmitterOption {
	return func(s *Submitter) { s.logger = logger }
}

// NewSubmitter creates a Submitter over the given client and signer.
func NewSubmitter(client Client, signer Signer, opts ...SubmitterOption) *Submitter {
	s := &Submitter{
		client: client,
		signer: signer,
		policy: DefaultRetryPolicy(),
		sleep:  sleepCtx,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Submit signs tx and runs submit-and-wait under the retry policy. Each
// attempt re-signs so a sequence-conflict retry picks up a fresh account
// sequence from the signer.
func (s *Submitter) Submit(ctx context.Context, tx Transaction) (SubmitResult, error) {
	if s.breaker != nil && !s.breaker.Allow() {
		return SubmitResult{}, dErrors.New(dErrors.CodeNetworkError, "ledger submission circuit open")
	}

	var lastErr error
	for attempt := 0; attempt < s.policy.MaxAttempts; attempt++ {
		if attempt > 0 {
			if s.observer != nil {
				s.observer.RecordSubmitRetry()
			}
			if err := s.sleep(ctx, s.policy.Delay(attempt-1)); err != nil {
				return SubmitResult{}, dErrors.Wrap(err, dErrors.CodeTimeout, "submission abandoned while backing off")
			}
		}

		signed, err := s.signer.Sign(ctx, tx, tx.Account)
		if err != nil {
			return SubmitResult{}, dErrors.Wrap(err, dErrors.CodeInternal, "signing failed")
		}

		attemptCtx, cancel := ctx, context.CancelFunc(func() {})
		if s.attemptTimeout > 0 {
			attemptCtx, cancel = context.WithTimeout(ctx, s.attemptTimeout)
		}
		start := time.Now()
		res, err := s.client.SubmitAndWait(attemptCtx, signed)
		cancel()
		if s.observer != nil {
			s.observer.ObserveSubmit(time.Since(start))
		}
		if err == nil {
			err = ResultError(res.Code)
		}
		if err == nil {
			if s.breaker != nil {
				s.breaker.RecordSuccess()
			}
			return res, nil
		}
		if !dErrors.IsRetryable(err) {
			// Deterministic rejection; the node itself is healthy.
			return SubmitResult{}, err
		}
		lastErr = err

		transport := dErrors.HasCode(err, dErrors.CodeNetworkError) || dErrors.HasCode(err, dErrors.CodeTimeout)
		if transport && s.breaker != nil {
			s.breaker.RecordFailure()
		}

		// Freshness check: the submission may have taken effect even though
		// we never observed finality.
		if transport && tx.SubmissionID != "" {
			if rec, ok := s.findBySubmissionID(ctx, tx.Account, tx.SubmissionID); ok {
				if s.logger != nil {
					s.logger.InfoContext(ctx, "timed-out submission found validated on re-query",
						"submission_id", tx.SubmissionID,
						"tx_id", rec.TxID,
					)
				}
				if s.breaker != nil {
					s.breaker.RecordSuccess()
				}
				return SubmitResult{
					TxID:      rec.TxID,
					LedgerSeq: rec.LedgerSeq,
					Code:      contract.ResultSuccess,
					TokenID:   rec.TokenID,
					OfferID:   rec.OfferID,
				}, nil
			}
		}
	}
	return SubmitResult{}, lastErr
}

// findBySubmissionID scans recent account history for a validated transaction
// carrying the given idempotency key.
func (s *Submitter) findBySubmissionID(ctx context.Context, account, submissionID string) (TxRecord, bool) {
	page := Page{Limit: 50}
	for {
		tp, err := s.client.AccountTransactions(ctx, account, page)
		if err != nil {
			return TxRecord{}, false
		}
		for _, rec := range tp.Transactions {
			if rec.SubmissionID == submissionID {
				return rec, true
			}
		}
		if tp.Marker == "" {
			return TxRecord{}, false
		}
		page.Marker = tp.Marker
	}
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
