// Package ledger defines the narrow interface the credential engine consumes
// to read and write the underlying ledger. The engine never constructs raw
// wire bytes of the ledger protocol; a collaborator-supplied Client does that.
package ledger

//go:generate mockgen -source=client.go -destination=mocks/mocks.go -package=mocks Client,Signer

import (
	"context"
	"time"

	contract "chaincred/contracts/ledger"
)

// AccountInfo is the subset of ledger account state the engine needs.
type AccountInfo struct {
	Account  string
	Balance  uint64 // smallest ledger unit
	Sequence uint32
}

// TokenObject is a ledger token object as returned by object lookups.
type TokenObject struct {
	TokenID string
	Owner   string
	Issuer  string
	Taxon   uint32
	Flags   contract.TokenFlags
	URI     []byte // primary metadata field attached at mint
}

// Transaction is an unsigned ledger transaction built by the engine.
// Field relevance depends on Kind; unused fields stay zero.
type Transaction struct {
	Kind        contract.TxKind
	Account     string // submitting account
	TokenID     string // burn / offer_create / status target
	Destination string // mint-time destination or offer recipient
	Amount      uint64 // offer amount; always zero for credential transfers
	OfferID     string // offer_accept / offer_cancel target
	Taxon       uint32
	Flags       contract.TokenFlags
	Expiration  *time.Time
	URI         []byte
	Memos       []contract.Memo

	// SubmissionID is a client-side idempotency key. It travels in a memo so
	// the engine can re-query whether a timed-out submission actually landed
	// before retrying with side effects.
	SubmissionID string
}

// SignedTransaction is the opaque signed form produced by the Signer capability.
type SignedTransaction struct {
	Transaction
	Blob []byte
}

// SubmitResult reports the finalized outcome of a submit-and-wait write.
type SubmitResult struct {
	TxID      string
	LedgerSeq uint64
	Code      contract.ResultCode

	// TokenID is populated for mint results; OfferID for offer_create results.
	TokenID string
	OfferID string
}

// Page is an opaque history paging cursor.
type Page struct {
	Marker string
	Limit  int
}

// TxRecord is one historical transaction affecting an account. History APIs
// return records unordered by type and paginated; callers merge by LedgerSeq.
type TxRecord struct {
	TxID         string
	LedgerSeq    uint64
	Kind         contract.TxKind
	Account      string
	TokenID      string
	Destination  string
	OfferID      string
	Amount       uint64
	Taxon        uint32
	Flags        contract.TokenFlags
	Expiration   *time.Time
	URI          []byte
	Memos        []contract.Memo
	SubmissionID string
	Timestamp    time.Time
}

// TransactionPage is one page of account history. An empty Marker means the
// history is exhausted.
type TransactionPage struct {
	Transactions []TxRecord
	Marker       string
}

// Client abstracts ledger reads and writes. Implementations must return
// domain errors from pkg/domain-errors: CodeNotFound for absent objects,
// CodeNetworkError for transport failures, CodeTimeout when finality was not
// observed within the call's budget.
type Client interface {
	AccountInfo(ctx context.Context, account string) (AccountInfo, error)
	TokensOwnedBy(ctx context.Context, account string) ([]TokenObject, error)
	TokenInfo(ctx context.Context, tokenID string) (TokenObject, error)
	AccountTransactions(ctx context.Context, account string, page Page) (TransactionPage, error)
	SubmitAndWait(ctx context.Context, tx SignedTransaction) (SubmitResult, error)

	// SupportsMintDestination reports whether the ledger accepts a mint-time
	// destination field. When false, issuance runs the two-phase
	// mint-to-issuer + offer/accept path.
	SupportsMintDestination() bool
}

// Signer is the injected wallet capability. Key custody and the signing UX
// live outside this engine.
type Signer interface {
	Sign(ctx context.Context, tx Transaction, account string) (SignedTransaction, error)
}
