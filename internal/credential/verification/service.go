// Package verification checks credentials against live ledger state at three
// depths: basic existence and ownership, enhanced status resolution, and
// cryptographic proof validation.
package verification

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"chaincred/internal/credential/domain/status"
	"chaincred/internal/credential/history"
	"chaincred/internal/credential/models"
	"chaincred/internal/ledger"
	"chaincred/internal/platform/metrics"
	dErrors "chaincred/pkg/domain-errors"
)

// ProofVerifier validates a portable document proof. Implemented by the
// proof adapter.
type ProofVerifier interface {
	VerifyProof(ctx context.Context, documentBytes []byte, proofRef string) error
}

// CanonicalFunc produces the byte form a proof is computed over.
type CanonicalFunc func(doc models.Document) ([]byte, error)

// Params carries the verifier's expectations. Empty fields are not checked.
type Params struct {
	Issuer string
	Holder string
}

type cacheEntry struct {
	result models.VerificationResult
	at     time.Time
}

// Option configures the verification service.
type Option func(*Service)

// WithLogger configures a logger for the service.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

// WithMetrics wires verification outcome metrics.
func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

// WithProofVerifier enables the cryptographic level.
func WithProofVerifier(pv ProofVerifier, canonical CanonicalFunc) Option {
	return func(s *Service) {
		s.proofs = pv
		s.canonical = canonical
	}
}

// WithClock overrides the timestamp source.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// WithCacheTTL overrides how long a verification result is served from cache.
// Zero disables caching.
func WithCacheTTL(ttl time.Duration) Option {
	return func(s *Service) { s.cacheTTL = ttl }
}

// Service verifies credentials. Results are cached briefly and concurrent
// identical verifications are collapsed, since a verification fans out into
// several ledger reads.
type Service struct {
	client    ledger.Client
	resolver  *history.Resolver
	proofs    ProofVerifier
	canonical CanonicalFunc
	metrics   *metrics.Metrics
	logger    *slog.Logger
	now       func() time.Time
	cacheTTL  time.Duration

	group singleflight.Group
	mu    sync.Mutex
	cache map[string]cacheEntry
}

// NewService creates a verification service over the given ledger access.
func NewService(client ledger.Client, resolver *history.Resolver, opts ...Option) *Service {
	s := &Service{
		client:   client,
		resolver: resolver,
		now:      func() time.Time { return time.Now().UTC() },
		cacheTTL: 30 * time.Second,
		cache:    make(map[string]cacheEntry),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Verify runs the selected level's checks against live ledger state. Every
// sub-check the level computes is reported even when an earlier one already
// failed. A missing or burned token is a not-found error, not a result.
func (s *Service) Verify(ctx context.Context, tokenID string, level models.VerificationLevel, params Params) (models.VerificationResult, error) {
	switch level {
	case models.LevelBasic, models.LevelEnhanced, models.LevelCryptographic:
	case "":
		level = models.LevelBasic
	default:
		return models.VerificationResult{}, dErrors.New(dErrors.CodeBadRequest, fmt.Sprintf("unknown verification level %q", level))
	}

	key := tokenID + "|" + string(level) + "|" + params.Issuer + "|" + params.Holder
	if res, ok := s.cached(key); ok {
		return res, nil
	}

	v, err, _ := s.group.Do(key, func() (any, error) {
		res, err := s.verify(ctx, tokenID, level, params)
		if err != nil {
			return models.VerificationResult{}, err
		}
		s.store(key, res)
		return res, nil
	})
	if err != nil {
		return models.VerificationResult{}, err
	}

	res := v.(models.VerificationResult)
	if s.metrics != nil {
		s.metrics.RecordVerified(string(level), res.Valid)
	}
	return res, nil
}

func (s *Service) verify(ctx context.Context, tokenID string, level models.VerificationLevel, params Params) (models.VerificationResult, error) {
	tok, err := s.client.TokenInfo(ctx, tokenID)
	if err != nil {
		return models.VerificationResult{}, err
	}

	res := models.VerificationResult{Level: level}
	fail := func(format string, args ...any) {
		res.Errors = append(res.Errors, fmt.Sprintf(format, args...))
	}

	res.IssuerVerified = params.Issuer == "" || tok.Issuer == params.Issuer
	if !res.IssuerVerified {
		fail("issuer mismatch: token minted by %s", tok.Issuer)
	}
	res.HolderVerified = params.Holder == "" || tok.Owner == params.Holder
	if !res.HolderVerified {
		fail("holder mismatch: token owned by %s", tok.Owner)
	}

	if level == models.LevelBasic {
		if _, err := s.client.AccountInfo(ctx, tok.Owner); err != nil {
			fail("owner account %s not on ledger", tok.Owner)
		} else if res.IssuerVerified && res.HolderVerified {
			res.Valid = true
		}
		// Existence itself rules out a hard revocation.
		res.NotRevoked = true
		res.NotExpired = true
		return res, nil
	}

	// Enhanced and up: owner account and issuer history in parallel.
	var (
		ownerOK bool
		records []ledger.TxRecord
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		_, err := s.client.AccountInfo(gctx, tok.Owner)
		ownerOK = err == nil
		if err != nil && !dErrors.HasCode(err, dErrors.CodeNotFound) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		var err error
		records, _, err = s.resolver.IssuerRecords(gctx, tok.Issuer)
		return err
	})
	if err := g.Wait(); err != nil {
		return models.VerificationResult{}, dErrors.Wrap(err, dErrors.CodeNetworkError, "ledger reads failed during verification")
	}
	if !ownerOK {
		fail("owner account %s not on ledger", tok.Owner)
	}

	events := history.StatusEvents(records, tokenID)
	if mint, ok := history.MintRecord(records, tokenID); ok {
		res.LedgerSeq = mint.LedgerSeq
	}

	now := s.now()
	doc, docErr := s.resolver.DocumentFromRecords(ctx, tok, records)
	if docErr != nil {
		fail("document unresolvable: %v", docErr)
		res.Status = status.Resolve(events, nil, now)
	} else {
		res.ResolvedDocument = &doc
		res.Status = status.Resolve(events, doc.Expiration, now)
		if tok.Issuer != doc.Issuer {
			res.IssuerVerified = false
			fail("document names issuer %s but token was minted by %s", doc.Issuer, tok.Issuer)
		}
	}

	res.NotRevoked = res.Status != models.CredentialRevoked
	if !res.NotRevoked {
		fail("credential is revoked")
	}
	res.NotExpired = res.Status != models.CredentialExpired
	if docErr == nil && doc.Expiration != nil && !now.Before(*doc.Expiration) {
		res.NotExpired = false
	}
	if !res.NotExpired {
		fail("credential expired")
	}

	if level == models.LevelCryptographic {
		res.ProofValid = s.checkProof(ctx, doc, docErr, fail)
	}

	res.Valid = ownerOK &&
		res.IssuerVerified &&
		res.HolderVerified &&
		res.Status == models.CredentialActive &&
		docErr == nil &&
		(level != models.LevelCryptographic || res.ProofValid)
	return res, nil
}

func (s *Service) checkProof(ctx context.Context, doc models.Document, docErr error, fail func(string, ...any)) bool {
	if docErr != nil {
		fail("proof not checkable without a resolved document")
		return false
	}
	if s.proofs == nil || s.canonical == nil {
		fail("no proof verifier configured")
		return false
	}
	if doc.ProofRef == "" {
		fail("document carries no proof")
		return false
	}

	// The proof is computed over the document without its own reference.
	unsigned := doc
	unsigned.ProofRef = ""
	b, err := s.canonical(unsigned)
	if err != nil {
		fail("document not canonicalizable: %v", err)
		return false
	}
	if err := s.proofs.VerifyProof(ctx, b, doc.ProofRef); err != nil {
		fail("proof invalid: %v", err)
		return false
	}
	return true
}

func (s *Service) cached(key string) (models.VerificationResult, bool) {
	if s.cacheTTL <= 0 {
		return models.VerificationResult{}, false
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.cache[key]
	if !ok || s.now().Sub(e.at) > s.cacheTTL {
		return models.VerificationResult{}, false
	}
	return e.result, true
}

func (s *Service) store(key string, res models.VerificationResult) {
	if s.cacheTTL <= 0 {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cache[key] = cacheEntry{result: res, at: s.now()}
}
