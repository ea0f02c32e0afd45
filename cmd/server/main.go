package main

import (
	"context"
	"crypto/ed25519"
	"crypto/rand"
	"encoding/hex"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"time"

	"chaincred/internal/credential/codec"
	"chaincred/internal/credential/history"
	"chaincred/internal/credential/issuance"
	"chaincred/internal/credential/registry"
	"chaincred/internal/credential/registry/tracer"
	"chaincred/internal/credential/revocation"
	"chaincred/internal/credential/transfer"
	"chaincred/internal/credential/verification"
	"chaincred/internal/ledger"
	"chaincred/internal/ledger/memledger"
	"chaincred/internal/platform/config"
	"chaincred/internal/platform/httpserver"
	"chaincred/internal/platform/logger"
	"chaincred/internal/platform/metrics"
	"chaincred/internal/proof"
	httptransport "chaincred/internal/transport/http"
	dErrors "chaincred/pkg/domain-errors"
	"chaincred/pkg/platform/audit"
	"chaincred/pkg/platform/circuit"
)

// main wires high-level dependencies, exposes the HTTP router, and keeps the
// server lifecycle small. Business logic lives in internal services packages.
func main() {
	cfg := config.FromEnv()
	log := logger.New()

	log.Info("initializing chaincred",
		"addr", cfg.Addr,
		"primary_capacity", cfg.PrimaryCapacity,
		"chunk_size", cfg.ChunkSize,
	)

	// The only ledger client in this build is the embedded one; a remote
	// client plugs in through the same interfaces.
	if cfg.LedgerURL != "" {
		log.Error("remote ledger clients are wired by the embedding deployment; unset CHAINCRED_LEDGER_URL to run standalone")
		os.Exit(1)
	}
	led := memledger.New()

	m := metrics.New()
	auditor := audit.NewLogger(log)
	c := codec.New(
		codec.WithPrimaryCapacity(cfg.PrimaryCapacity),
		codec.WithChunkSize(cfg.ChunkSize),
	)
	resolver := history.NewResolver(led, c, cfg.PageSize)

	submitter := ledger.NewSubmitter(led, led,
		ledger.WithBreaker(circuit.New("ledger-submit")),
		ledger.WithSubmitTimeout(cfg.SubmitTimeout),
		ledger.WithObserver(m),
		ledger.WithLogger(log),
	)

	prover := proof.New(proofKey(log), "chaincred")

	issuanceSvc := issuance.NewService(led, submitter, c,
		issuance.WithLogger(log),
		issuance.WithAuditor(auditor),
		issuance.WithMetrics(m),
		issuance.WithDefaultExpiry(cfg.DefaultExpiry),
		issuance.WithProofGenerator(prover),
	)
	verificationSvc := verification.NewService(led, resolver,
		verification.WithLogger(log),
		verification.WithMetrics(m),
		verification.WithProofVerifier(prover, codec.CanonicalBytes),
	)
	revocationSvc := revocation.NewService(led, submitter, resolver,
		revocation.WithLogger(log),
		revocation.WithAuditor(auditor),
		revocation.WithMetrics(m),
	)
	transferSvc := transfer.NewService(led, submitter, resolver,
		transfer.WithLogger(log),
		transfer.WithAuditor(auditor),
		transfer.WithMetrics(m),
	)
	registrySvc := registry.NewService(led, resolver, c,
		registry.WithLogger(log),
		registry.WithMetrics(m),
		registry.WithTracer(tracer.NewOTel("chaincred/registry")),
		registry.WithVerifier(verificationSvc),
	)

	handler := httptransport.NewHandler(log, issuanceSvc, verificationSvc, revocationSvc, transferSvc, registrySvc, m)
	handler.RegisterCheck("ledger", func(ctx context.Context) error {
		// A not-found probe account still proves the ledger answers reads.
		_, err := led.AccountInfo(ctx, "chaincred-health-probe")
		if err != nil && !dErrors.HasCode(err, dErrors.CodeNotFound) {
			return err
		}
		return nil
	})
	router := httptransport.NewRouter(handler, log)

	srv := httpserver.New(cfg.Addr, router)

	log.Info("starting http server", "addr", cfg.Addr)

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	// Graceful shutdown on SIGINT
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt)
	<-quit

	log.Info("shutting down server gracefully")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Error("graceful shutdown failed", "error", err)
		os.Exit(1)
	}

	log.Info("server stopped")
}

// proofKey loads the issuer proof key from CHAINCRED_PROOF_SEED (hex-encoded
// 32-byte Ed25519 seed) or generates an ephemeral one. Ephemeral keys make
// proofs unverifiable across restarts; fine for local runs, not production.
func proofKey(log *slog.Logger) ed25519.PrivateKey {
	if seedHex := os.Getenv("CHAINCRED_PROOF_SEED"); seedHex != "" {
		seed, err := hex.DecodeString(seedHex)
		if err == nil && len(seed) == ed25519.SeedSize {
			return ed25519.NewKeyFromSeed(seed)
		}
		log.Warn("CHAINCRED_PROOF_SEED is not a hex-encoded 32-byte seed; generating an ephemeral key")
	} else {
		log.Warn("no proof seed configured; generating an ephemeral key")
	}
	_, private, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		panic(err)
	}
	return private
}
