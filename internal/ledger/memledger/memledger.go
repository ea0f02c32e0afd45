// Package memledger is an in-memory ledger implementation of the client and
// signer capabilities, for tests or standalone local use. It models the
// engine-visible semantics of a token ledger: per-account sequences, reserve
// checks, mint/burn, two-phase offers, and paginated transaction history.
// It does not persist across process restarts.
package memledger

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sort"
	"strconv"
	"sync"
	"time"

	contract "chaincred/contracts/ledger"
	"chaincred/internal/ledger"
	dErrors "chaincred/pkg/domain-errors"
)

const (
	baseReserve   = 10
	objectReserve = 2
	defaultFunds  = 1000
)

type accountState struct {
	balance  uint64
	sequence uint32
}

type offerState struct {
	offerID     string
	tokenID     string
	owner       string
	destination string
	amount      uint64
	state       string // pending | accepted | cancelled
}

type injectedFault struct {
	err        error
	kind       contract.TxKind // empty matches any transaction kind
	applyFirst bool            // submitted-but-unconfirmed: effects land, caller sees the error
}

// Ledger implements ledger.Client and ledger.Signer in memory.
type Ledger struct {
	mu              sync.Mutex
	seq             uint64
	accounts        map[string]*accountState
	tokens          map[string]ledger.TokenObject
	offers          map[string]*offerState
	history         map[string][]ledger.TxRecord
	faults          []injectedFault
	mintDestination bool
	now             func() time.Time
}

// Option configures the in-memory ledger.
type Option func(*Ledger)

// WithMintDestination controls whether the ledger accepts a mint-time
// destination field. Off by default, which exercises the two-phase path.
func WithMintDestination(enabled bool) Option {
	return func(l *Ledger) { l.mintDestination = enabled }
}

// WithClock overrides the timestamp source.
func WithClock(now func() time.Time) Option {
	return func(l *Ledger) { l.now = now }
}

// New constructs an empty in-memory ledger.
func New(opts ...Option) *Ledger {
	l := &Ledger{
		seq:      1000, // arbitrary starting height
		accounts: make(map[string]*accountState),
		tokens:   make(map[string]ledger.TokenObject),
		offers:   make(map[string]*offerState),
		history:  make(map[string][]ledger.TxRecord),
		now:      func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// FundAccount creates or tops up an account with the given balance.
func (l *Ledger) FundAccount(account string, balance uint64) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.ensureAccount(account).balance = balance
}

// FailNextSubmit makes the next SubmitAndWait fail with err without applying
// the transaction.
func (l *Ledger) FailNextSubmit(err error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.faults = append(l.faults, injectedFault{err: err})
}

// FailNextSubmitKind makes the next SubmitAndWait of the given transaction
// kind fail with err; submissions of other kinds pass through untouched.
func (l *Ledger) FailNextSubmitKind(kind contract.TxKind, err error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.faults = append(l.faults, injectedFault{err: err, kind: kind})
}

// TimeoutNextSubmit makes the next SubmitAndWait apply the transaction but
// report a finality timeout, simulating a submitted-but-unconfirmed write.
func (l *Ledger) TimeoutNextSubmit() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.faults = append(l.faults, injectedFault{
		err:        dErrors.New(dErrors.CodeTimeout, "finality not observed within budget"),
		applyFirst: true,
	})
}

// CurrentSeq returns the current ledger height.
func (l *Ledger) CurrentSeq() uint64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.seq
}

// Sign implements ledger.Signer. The in-memory wallet knows every account.
func (l *Ledger) Sign(_ context.Context, tx ledger.Transaction, account string) (ledger.SignedTransaction, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	st := l.ensureAccount(account)
	st.sequence++
	return ledger.SignedTransaction{
		Transaction: tx,
		Blob:        fmt.Appendf(nil, "signed:%s:%d", account, st.sequence),
	}, nil
}

// SupportsMintDestination implements ledger.Client.
func (l *Ledger) SupportsMintDestination() bool {
	return l.mintDestination
}

// AccountInfo implements ledger.Client.
func (l *Ledger) AccountInfo(_ context.Context, account string) (ledger.AccountInfo, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	st, ok := l.accounts[account]
	if !ok {
		return ledger.AccountInfo{}, dErrors.New(dErrors.CodeNotFound, "account not found")
	}
	return ledger.AccountInfo{Account: account, Balance: st.balance, Sequence: st.sequence}, nil
}

// TokensOwnedBy implements ledger.Client.
func (l *Ledger) TokensOwnedBy(_ context.Context, account string) ([]ledger.TokenObject, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	var out []ledger.TokenObject
	for _, tok := range l.tokens {
		if tok.Owner == account {
			out = append(out, tok)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].TokenID < out[j].TokenID })
	return out, nil
}

// TokenInfo implements ledger.Client.
func (l *Ledger) TokenInfo(_ context.Context, tokenID string) (ledger.TokenObject, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	tok, ok := l.tokens[tokenID]
	if !ok {
		return ledger.TokenObject{}, dErrors.New(dErrors.CodeNotFound, "token not found")
	}
	return tok, nil
}

// AccountTransactions implements ledger.Client. History is returned newest
// first and paginated; callers merge pages and order by ledger sequence
// before folding.
func (l *Ledger) AccountTransactions(_ context.Context, account string, page ledger.Page) (ledger.TransactionPage, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	recs := l.history[account]
	limit := page.Limit
	if limit <= 0 {
		limit = 20
	}
	offset := 0
	if page.Marker != "" {
		n, err := strconv.Atoi(page.Marker)
		if err != nil {
			return ledger.TransactionPage{}, dErrors.New(dErrors.CodeBadRequest, "malformed history marker")
		}
		offset = n
	}

	// Newest first.
	total := len(recs)
	var out []ledger.TxRecord
	for i := total - 1 - offset; i >= 0 && len(out) < limit; i-- {
		out = append(out, recs[i])
	}
	next := ""
	if offset+len(out) < total {
		next = strconv.Itoa(offset + len(out))
	}
	return ledger.TransactionPage{Transactions: out, Marker: next}, nil
}

// SubmitAndWait implements ledger.Client.
func (l *Ledger) SubmitAndWait(_ context.Context, tx ledger.SignedTransaction) (ledger.SubmitResult, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	var fault *injectedFault
	if len(l.faults) > 0 && (l.faults[0].kind == "" || l.faults[0].kind == tx.Transaction.Kind) {
		fault = &l.faults[0]
		l.faults = l.faults[1:]
		if !fault.applyFirst {
			return ledger.SubmitResult{}, fault.err
		}
	}

	res, err := l.apply(tx.Transaction)
	if err != nil {
		return ledger.SubmitResult{}, err
	}
	if fault != nil {
		// Effects are on the ledger but the caller never saw finality.
		return ledger.SubmitResult{}, fault.err
	}
	return res, nil
}

func (l *Ledger) apply(tx ledger.Transaction) (ledger.SubmitResult, error) {
	l.seq++
	st := l.ensureAccount(tx.Account)

	rec := ledger.TxRecord{
		TxID:         l.txID(tx.Account),
		LedgerSeq:    l.seq,
		Kind:         tx.Kind,
		Account:      tx.Account,
		TokenID:      tx.TokenID,
		Destination:  tx.Destination,
		OfferID:      tx.OfferID,
		Amount:       tx.Amount,
		Taxon:        tx.Taxon,
		Flags:        tx.Flags,
		Expiration:   tx.Expiration,
		URI:          tx.URI,
		Memos:        tx.Memos,
		SubmissionID: tx.SubmissionID,
		Timestamp:    l.now(),
	}
	result := ledger.SubmitResult{TxID: rec.TxID, LedgerSeq: l.seq, Code: contract.ResultSuccess}

	switch tx.Kind {
	case contract.TxKindMint:
		if st.balance < l.reserveFor(tx.Account)+objectReserve {
			return l.reject(rec, contract.ResultInsufficientReserve)
		}
		owner := tx.Account
		if l.mintDestination && tx.Destination != "" {
			owner = tx.Destination
		}
		tokenID := l.tokenID(tx.Account, tx.Taxon)
		l.tokens[tokenID] = ledger.TokenObject{
			TokenID: tokenID,
			Owner:   owner,
			Issuer:  tx.Account,
			Taxon:   tx.Taxon,
			Flags:   tx.Flags,
			URI:     append([]byte(nil), tx.URI...),
		}
		rec.TokenID = tokenID
		result.TokenID = tokenID

	case contract.TxKindBurn:
		tok, ok := l.tokens[tx.TokenID]
		if !ok {
			return l.reject(rec, contract.ResultObjectNotFound)
		}
		if tx.Account != tok.Issuer && tx.Account != tok.Owner {
			return l.reject(rec, contract.ResultNoPermission)
		}
		if tok.Owner != tx.Account {
			// The owner loses the token; the burn shows in their history too.
			rec.Destination = tok.Owner
		}
		delete(l.tokens, tx.TokenID)
		for _, off := range l.offers {
			if off.tokenID == tx.TokenID && off.state == "pending" {
				off.state = "cancelled"
			}
		}

	case contract.TxKindOfferCreate:
		tok, ok := l.tokens[tx.TokenID]
		if !ok {
			return l.reject(rec, contract.ResultNoEntry)
		}
		if tok.Owner != tx.Account {
			return l.reject(rec, contract.ResultNoPermission)
		}
		// The issuer may always move its own mint; the transferable flag
		// binds subsequent holders only.
		if !tok.Flags.Transferable && tx.Account != tok.Issuer {
			return l.reject(rec, contract.ResultNoPermission)
		}
		offerID := l.offerID(tx.Account)
		l.offers[offerID] = &offerState{
			offerID:     offerID,
			tokenID:     tx.TokenID,
			owner:       tx.Account,
			destination: tx.Destination,
			amount:      tx.Amount,
			state:       "pending",
		}
		rec.OfferID = offerID
		result.OfferID = offerID

	case contract.TxKindOfferAccept:
		off, ok := l.offers[tx.OfferID]
		if !ok || off.state != "pending" {
			return l.reject(rec, contract.ResultNoEntry)
		}
		if off.destination != "" && off.destination != tx.Account {
			return l.reject(rec, contract.ResultNoPermission)
		}
		tok, ok := l.tokens[off.tokenID]
		if !ok {
			return l.reject(rec, contract.ResultNoEntry)
		}
		tok.Owner = tx.Account
		l.tokens[off.tokenID] = tok
		off.state = "accepted"
		rec.TokenID = off.tokenID
		result.TokenID = off.tokenID
		// Counterparty; puts the acceptance in the offer owner's history.
		rec.Destination = off.owner

	case contract.TxKindOfferCancel:
		off, ok := l.offers[tx.OfferID]
		if !ok || off.state != "pending" {
			return l.reject(rec, contract.ResultNoEntry)
		}
		if off.owner != tx.Account {
			return l.reject(rec, contract.ResultNoPermission)
		}
		off.state = "cancelled"
		rec.TokenID = off.tokenID

	case contract.TxKindStatus:
		// Zero-value memo carrier; no structural effect.

	default:
		return ledger.SubmitResult{}, dErrors.New(dErrors.CodeBadRequest, fmt.Sprintf("unknown transaction kind %q", tx.Kind))
	}

	l.record(rec)
	return result, nil
}

// reject records nothing and reports the engine code, which the submitter
// maps to a domain error.
func (l *Ledger) reject(rec ledger.TxRecord, code contract.ResultCode) (ledger.SubmitResult, error) {
	return ledger.SubmitResult{TxID: rec.TxID, LedgerSeq: l.seq, Code: code}, nil
}

func (l *Ledger) record(rec ledger.TxRecord) {
	l.history[rec.Account] = append(l.history[rec.Account], rec)
	if rec.Destination != "" && rec.Destination != rec.Account {
		l.history[rec.Destination] = append(l.history[rec.Destination], rec)
	}
}

func (l *Ledger) ensureAccount(account string) *accountState {
	st, ok := l.accounts[account]
	if !ok {
		st = &accountState{balance: defaultFunds}
		l.accounts[account] = st
	}
	return st
}

func (l *Ledger) reserveFor(account string) uint64 {
	var owned uint64
	for _, tok := range l.tokens {
		if tok.Owner == account {
			owned++
		}
	}
	return baseReserve + owned*objectReserve
}

func (l *Ledger) txID(account string) string {
	sum := sha256.Sum256(fmt.Appendf(nil, "tx:%s:%d", account, l.seq))
	return hex.EncodeToString(sum[:])
}

func (l *Ledger) tokenID(issuer string, taxon uint32) string {
	sum := sha256.Sum256(fmt.Appendf(nil, "token:%s:%d:%d", issuer, taxon, l.seq))
	return hex.EncodeToString(sum[:])
}

func (l *Ledger) offerID(owner string) string {
	sum := sha256.Sum256(fmt.Appendf(nil, "offer:%s:%d", owner, l.seq))
	return hex.EncodeToString(sum[:])
}
