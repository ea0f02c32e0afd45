package config

import (
	"os"
	"strconv"
	"time"
)

// Server captures process level configuration for the credential engine.
type Server struct {
	Addr            string
	LedgerURL       string
	SubmitTimeout   time.Duration
	PrimaryCapacity int
	ChunkSize       int
	PageSize        int
	DefaultExpiry   time.Duration
}

// Defaults chosen to match common ledger field limits: 256-byte primary
// metadata field, 512-byte auxiliary chunks.
var (
	SubmitTimeout   = 20 * time.Second
	PrimaryCapacity = 256
	ChunkSize       = 512
	PageSize        = 50
	DefaultExpiry   = 365 * 24 * time.Hour // 1 year
)

// FromEnv builds a Server config from environment variables so main stays lean.
func FromEnv() Server {
	addr := os.Getenv("CHAINCRED_ADDR")
	if addr == "" {
		addr = ":8080"
	}

	// Empty ledger URL selects the in-memory standalone ledger for local/dev.
	ledgerURL := os.Getenv("CHAINCRED_LEDGER_URL")

	if v := os.Getenv("CHAINCRED_SUBMIT_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			SubmitTimeout = d
		}
	}
	if v := os.Getenv("CHAINCRED_DEFAULT_EXPIRY"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			DefaultExpiry = d
		}
	}
	if v := os.Getenv("CHAINCRED_PRIMARY_CAPACITY"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			PrimaryCapacity = n
		}
	}
	if v := os.Getenv("CHAINCRED_CHUNK_SIZE"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			ChunkSize = n
		}
	}
	if v := os.Getenv("CHAINCRED_PAGE_SIZE"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			PageSize = n
		}
	}

	return Server{
		Addr:            addr,
		LedgerURL:       ledgerURL,
		SubmitTimeout:   SubmitTimeout,
		PrimaryCapacity: PrimaryCapacity,
		ChunkSize:       ChunkSize,
		PageSize:        PageSize,
		DefaultExpiry:   DefaultExpiry,
	}
}
