// Package models defines the credential lifecycle data model shared by the
// engine services. All durable state lives on the ledger; these types are the
// in-memory materialization the services derive from it.
package models

import (
	"time"

	contract "chaincred/contracts/ledger"
)

// CredentialType tags the kind of claim a credential carries. The claims
// payload itself stays an opaque structured map; no type-specific schema
// exists at this layer.
type CredentialType string

const (
	CredentialTypeGeneric          CredentialType = "VerifiableCredential"
	CredentialTypeDriverLicense    CredentialType = "DriverLicense"
	CredentialTypeDiploma          CredentialType = "Diploma"
	CredentialTypeEmploymentRecord CredentialType = "EmploymentRecord"
)

// Document is the credential document packed into ledger-token metadata.
// Immutable once hashed: the canonical bytes are what gets chunked and hashed,
// so any mutation after issuance invalidates the on-ledger hash.
type Document struct {
	Issuer     string           `json:"issuer"`
	Holder     string           `json:"holder"`
	Types      []CredentialType `json:"types"`
	Claims     map[string]any   `json:"claims"`
	IssuedAt   time.Time        `json:"issued_at"`
	Expiration *time.Time       `json:"expiration,omitempty"`
	ProofRef   string           `json:"proof_ref,omitempty"`
}

// TokenHandle identifies one minted credential on the ledger. Exactly one
// handle exists per minted credential; the owner changes only through an
// accepted transfer offer, and the handle is tombstoned by a hard revocation.
type TokenHandle struct {
	TokenID  string              `json:"token_id"`
	Owner    string              `json:"owner"`
	Issuer   string              `json:"issuer"`
	Taxon    uint32              `json:"taxon"`
	Flags    contract.TokenFlags `json:"flags"`
	MintTxID string              `json:"mint_tx_id"`
}

// StatusKind enumerates the soft status event kinds.
type StatusKind string

const (
	StatusIssued      StatusKind = "issued"
	StatusSuspended   StatusKind = "suspended"
	StatusRevoked     StatusKind = "revoked"
	StatusReactivated StatusKind = "reactivated"
)

// StatusEvent is one append-only lifecycle event for a token. Current status
// is the fold of all events ordered by ledger sequence, never by wall clock:
// timestamps on some ledgers are attacker-influenceable, sequence is not.
type StatusEvent struct {
	Kind      StatusKind `json:"kind"`
	TokenID   string     `json:"token_id"`
	TxID      string     `json:"tx_id"`
	LedgerSeq uint64     `json:"ledger_seq"`
	Timestamp time.Time  `json:"timestamp"`
	Actor     string     `json:"actor"`
	Reason    string     `json:"reason,omitempty"`
}

// CredentialStatus is the resolved status of a credential.
type CredentialStatus string

const (
	CredentialActive    CredentialStatus = "active"
	CredentialSuspended CredentialStatus = "suspended"
	CredentialRevoked   CredentialStatus = "revoked"
	CredentialExpired   CredentialStatus = "expired"
)

// OfferState tracks a transfer offer through its lifecycle.
type OfferState string

const (
	OfferPending   OfferState = "pending"
	OfferAccepted  OfferState = "accepted"
	OfferCancelled OfferState = "cancelled"
	OfferExpired   OfferState = "expired"
)

// TransferOffer is a ledger-native proposal to transfer a token. A pending
// offer never changes ownership; only acceptance does.
type TransferOffer struct {
	OfferID string     `json:"offer_id"`
	TokenID string     `json:"token_id"`
	From    string     `json:"from"`
	To      string     `json:"to"`
	Amount  uint64     `json:"amount"` // always zero for credential transfers
	State   OfferState `json:"state"`
}

// VerificationLevel selects how deep a verification goes. The levels are
// independent entry points, not a strict hierarchy the caller climbs.
type VerificationLevel string

const (
	LevelBasic         VerificationLevel = "basic"
	LevelEnhanced      VerificationLevel = "enhanced"
	LevelCryptographic VerificationLevel = "cryptographic"
)

// VerificationResult reports every sub-check the selected level computes.
// Checks are populated even when Valid is already false, so audit consumers
// always see the full picture.
type VerificationResult struct {
	Valid            bool              `json:"valid"`
	Level            VerificationLevel `json:"level"`
	Status           CredentialStatus  `json:"status"`
	IssuerVerified   bool              `json:"issuer_verified"`
	HolderVerified   bool              `json:"holder_verified"`
	NotExpired       bool              `json:"not_expired"`
	NotRevoked       bool              `json:"not_revoked"`
	ProofValid       bool              `json:"proof_valid"`
	ResolvedDocument *Document         `json:"resolved_metadata,omitempty"`
	LedgerSeq        uint64            `json:"ledger_seq"`
	Errors           []string          `json:"errors,omitempty"`
}

// CredentialSummary is one row of a registry materialized view.
type CredentialSummary struct {
	TokenID   string           `json:"token_id"`
	Holder    string           `json:"holder"`
	Issuer    string           `json:"issuer"`
	Taxon     uint32           `json:"taxon"`
	Types     []CredentialType `json:"types,omitempty"`
	Status    CredentialStatus `json:"status"`
	IssuedAt  time.Time        `json:"issued_at"`
	LedgerSeq uint64           `json:"ledger_seq"`
}

// CredentialInfo is the full registry view of one credential.
type CredentialInfo struct {
	Handle        TokenHandle        `json:"handle"`
	Document      *Document          `json:"metadata,omitempty"`
	StatusHistory []StatusEvent      `json:"status_history"`
	Verification  VerificationResult `json:"verification"`
}
