package metrics

import (
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for the credential engine.
type Metrics struct {
	CredentialsIssued      prometheus.Counter
	CredentialsRevoked     *prometheus.CounterVec // mode: hard|soft
	CredentialsSuspended   prometheus.Counter
	CredentialsTransferred prometheus.Counter
	VerificationOutcomes   *prometheus.CounterVec // level, outcome
	SubmitLatency          prometheus.Histogram
	SubmitRetries          prometheus.Counter
	RegistryPagesScanned   prometheus.Histogram

	// Plain counters backing the /stats snapshot; Prometheus counters are
	// write-only from application code.
	issued   atomic.Int64
	verified atomic.Int64
	revoked  atomic.Int64
}

// Stats is a point-in-time snapshot of lifecycle counts.
type Stats struct {
	Issued    int64     `json:"issued"`
	Verified  int64     `json:"verified"`
	Revoked   int64     `json:"revoked"`
	Timestamp time.Time `json:"timestamp"`
}

// New creates and registers all Prometheus metrics.
func New() *Metrics {
	return &Metrics{
		CredentialsIssued: promauto.NewCounter(prometheus.CounterOpts{
			Name: "chaincred_credentials_issued_total",
			Help: "Total number of credentials minted",
		}),
		CredentialsRevoked: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "chaincred_credentials_revoked_total",
			Help: "Total number of credentials revoked, by mode",
		}, []string{"mode"}),
		CredentialsSuspended: promauto.NewCounter(prometheus.CounterOpts{
			Name: "chaincred_credentials_suspended_total",
			Help: "Total number of credentials suspended",
		}),
		CredentialsTransferred: promauto.NewCounter(prometheus.CounterOpts{
			Name: "chaincred_credentials_transferred_total",
			Help: "Total number of accepted credential transfers",
		}),
		VerificationOutcomes: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "chaincred_verifications_total",
			Help: "Verification outcomes by level",
		}, []string{"level", "outcome"}),
		SubmitLatency: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "chaincred_submit_latency_seconds",
			Help:    "Latency of submit-and-wait ledger writes",
			Buckets: prometheus.DefBuckets,
		}),
		SubmitRetries: promauto.NewCounter(prometheus.CounterOpts{
			Name: "chaincred_submit_retries_total",
			Help: "Total number of ledger submission retries",
		}),
		RegistryPagesScanned: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "chaincred_registry_pages_scanned",
			Help:    "Transaction history pages scanned per registry replay",
			Buckets: []float64{1, 2, 5, 10, 25, 50, 100},
		}),
	}
}

// RecordIssued increments issuance counters.
func (m *Metrics) RecordIssued() {
	m.CredentialsIssued.Inc()
	m.issued.Add(1)
}

// RecordVerified increments verification counters for the given level.
func (m *Metrics) RecordVerified(level string, valid bool) {
	outcome := "valid"
	if !valid {
		outcome = "invalid"
	}
	m.VerificationOutcomes.WithLabelValues(level, outcome).Inc()
	m.verified.Add(1)
}

// RecordRevoked increments revocation counters. Mode is "hard" or "soft".
func (m *Metrics) RecordRevoked(mode string) {
	m.CredentialsRevoked.WithLabelValues(mode).Inc()
	m.revoked.Add(1)
}

// RecordSuspended counts one credential suspension.
func (m *Metrics) RecordSuspended() {
	m.CredentialsSuspended.Inc()
}

// RecordTransferred counts one accepted credential transfer.
func (m *Metrics) RecordTransferred() {
	m.CredentialsTransferred.Inc()
}

// ObserveRegistryPages records how many history pages one registry replay read.
func (m *Metrics) ObserveRegistryPages(n int) {
	m.RegistryPagesScanned.Observe(float64(n))
}

// ObserveSubmit records the latency of one submit-and-wait ledger write.
func (m *Metrics) ObserveSubmit(d time.Duration) {
	m.SubmitLatency.Observe(d.Seconds())
}

// RecordSubmitRetry counts one ledger submission retry.
func (m *Metrics) RecordSubmitRetry() {
	m.SubmitRetries.Inc()
}

// Snapshot returns current lifecycle counts for the stats endpoint.
func (m *Metrics) Snapshot() Stats {
	return Stats{
		Issued:    m.issued.Load(),
		Verified:  m.verified.Load(),
		Revoked:   m.revoked.Load(),
		Timestamp: time.Now().UTC(),
	}
}
