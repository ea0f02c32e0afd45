// Package httptransport is the thin HTTP layer. Handlers delegate to domain
// services without embedding business logic so transport concerns remain
// isolated.
package httptransport

import (
	"context"
	"log/slog"
	"maps"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"chaincred/internal/credential/issuance"
	"chaincred/internal/credential/models"
	"chaincred/internal/credential/registry"
	"chaincred/internal/credential/revocation"
	"chaincred/internal/credential/transfer"
	"chaincred/internal/credential/verification"
	"chaincred/internal/platform/metrics"
	"chaincred/internal/platform/middleware"
)

// Service ports consumed by the transport layer. Declared here so handlers
// depend on behavior, not on concrete service types.
type (
	IssuanceService interface {
		Issue(ctx context.Context, req issuance.IssueRequest) (*issuance.IssuanceResult, error)
	}

	VerificationService interface {
		Verify(ctx context.Context, tokenID string, level models.VerificationLevel, params verification.Params) (models.VerificationResult, error)
	}

	RevocationService interface {
		Revoke(ctx context.Context, req revocation.RevokeRequest) (*revocation.Result, error)
		Suspend(ctx context.Context, tokenID, issuer, reason string) (*revocation.Result, error)
		Reinstate(ctx context.Context, tokenID, issuer string) (*revocation.Result, error)
	}

	TransferService interface {
		CreateOffer(ctx context.Context, req transfer.CreateOfferRequest) (*models.TransferOffer, error)
		AcceptOffer(ctx context.Context, offerID, acceptor string) (*transfer.AcceptResult, error)
		CancelOffer(ctx context.Context, offerID, owner string) error
		OfferInfo(ctx context.Context, owner, offerID string) (*models.TransferOffer, error)
	}

	RegistryService interface {
		ListByIssuer(ctx context.Context, issuer string, opts registry.ListOptions) ([]models.CredentialSummary, error)
		GetInfo(ctx context.Context, tokenID string, level models.VerificationLevel) (*models.CredentialInfo, error)
		StatusHistory(ctx context.Context, issuer, tokenID string) ([]models.StatusEvent, error)
	}

	StatsProvider interface {
		Snapshot() metrics.Stats
	}
)

// CheckFunc reports the health of one dependency. Nil error means up.
type CheckFunc func(ctx context.Context) error

// Handler carries the wired services for all endpoints.
type Handler struct {
	logger       *slog.Logger
	issuance     IssuanceService
	verification VerificationService
	revocation   RevocationService
	transfers    TransferService
	registry     RegistryService
	stats        StatsProvider

	mu     sync.RWMutex
	checks map[string]CheckFunc
}

// NewHandler creates the HTTP handler set.
func NewHandler(
	logger *slog.Logger,
	issuanceSvc IssuanceService,
	verificationSvc VerificationService,
	revocationSvc RevocationService,
	transferSvc TransferService,
	registrySvc RegistryService,
	stats StatsProvider,
) *Handler {
	return &Handler{
		logger:       logger,
		issuance:     issuanceSvc,
		verification: verificationSvc,
		revocation:   revocationSvc,
		transfers:    transferSvc,
		registry:     registrySvc,
		stats:        stats,
		checks:       make(map[string]CheckFunc),
	}
}

// RegisterCheck adds a named dependency check to the health endpoint.
func (h *Handler) RegisterCheck(name string, check CheckFunc) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.checks[name] = check
}

// NewRouter wires all public endpoints with the middleware stack.
func NewRouter(h *Handler, logger *slog.Logger) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.Recovery(logger))
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger(logger))
	r.Use(middleware.Timeout(30 * time.Second))
	r.Use(middleware.ContentTypeJSON)

	// Credential lifecycle
	r.Post("/credentials", h.handleIssue)
	r.Post("/credentials/{tokenID}/verify", h.handleVerify)
	r.Post("/credentials/{tokenID}/revoke", h.handleRevoke)
	r.Post("/credentials/{tokenID}/suspend", h.handleSuspend)
	r.Post("/credentials/{tokenID}/reinstate", h.handleReinstate)

	// Registry reads
	r.Get("/credentials/{tokenID}", h.handleGetCredential)
	r.Get("/credentials/{tokenID}/status", h.handleStatusHistory)
	r.Get("/issuers/{account}/credentials", h.handleListByIssuer)

	// Transfer offers
	r.Post("/offers", h.handleCreateOffer)
	r.Post("/offers/{offerID}/accept", h.handleAcceptOffer)
	r.Delete("/offers/{offerID}", h.handleCancelOffer)
	r.Get("/offers/{offerID}", h.handleOfferInfo)

	// Operational
	r.Get("/stats", h.handleStats)
	r.Get("/healthz", h.handleHealthz)
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	return r
}

func (h *Handler) handleHealthz(w http.ResponseWriter, r *http.Request) {
	h.mu.RLock()
	checks := make(map[string]CheckFunc, len(h.checks))
	maps.Copy(checks, h.checks)
	h.mu.RUnlock()

	resp := struct {
		Status string            `json:"status"`
		Checks map[string]string `json:"checks,omitempty"`
	}{Status: "ok"}

	for name, check := range checks {
		if resp.Checks == nil {
			resp.Checks = make(map[string]string, len(checks))
		}
		if err := check(r.Context()); err != nil {
			resp.Checks[name] = "down: " + err.Error()
			resp.Status = "degraded"
		} else {
			resp.Checks[name] = "up"
		}
	}

	if resp.Status != "ok" {
		writeJSON(w, http.StatusServiceUnavailable, resp)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) handleStats(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, h.stats.Snapshot())
}
