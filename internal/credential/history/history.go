// Package history replays ledger transaction history into credential
// lifecycle facts. The ledger's per-account history is the only durable
// store; every view here is a deterministic fold over it.
package history

import (
	"context"
	"sort"

	contract "chaincred/contracts/ledger"
	"chaincred/internal/credential/codec"
	"chaincred/internal/credential/models"
	"chaincred/internal/ledger"
	dErrors "chaincred/pkg/domain-errors"
)

const defaultPageSize = 50

// Resolver reads and decodes account history.
type Resolver struct {
	client   ledger.Client
	codec    *codec.Codec
	pageSize int
}

// NewResolver creates a Resolver over the given ledger client.
func NewResolver(client ledger.Client, c *codec.Codec, pageSize int) *Resolver {
	if pageSize <= 0 {
		pageSize = defaultPageSize
	}
	return &Resolver{client: client, codec: c, pageSize: pageSize}
}

// IssuerRecords merges every history page for an account and returns the
// records in ascending ledger-sequence order, plus the number of pages read.
func (r *Resolver) IssuerRecords(ctx context.Context, account string) ([]ledger.TxRecord, int, error) {
	var all []ledger.TxRecord
	page := ledger.Page{Limit: r.pageSize}
	pages := 0
	for {
		tp, err := r.client.AccountTransactions(ctx, account, page)
		if err != nil {
			return nil, pages, err
		}
		pages++
		all = append(all, tp.Transactions...)
		if tp.Marker == "" {
			break
		}
		page.Marker = tp.Marker
	}
	sort.SliceStable(all, func(i, j int) bool { return all[i].LedgerSeq < all[j].LedgerSeq })
	return all, pages, nil
}

// MintRecord finds the mint transaction for a token in a record set.
func MintRecord(records []ledger.TxRecord, tokenID string) (ledger.TxRecord, bool) {
	for _, rec := range records {
		if rec.Kind == contract.TxKindMint && rec.TokenID == tokenID {
			return rec, true
		}
	}
	return ledger.TxRecord{}, false
}

// StatusEvents extracts the lifecycle event stream for one token from a
// record set: an implicit issued event at mint, then every status memo
// naming the token. Sequence and transaction id always come from the ledger
// record, never from the memo payload, so event ordering cannot be forged
// by the memo author.
func StatusEvents(records []ledger.TxRecord, tokenID string) []models.StatusEvent {
	var events []models.StatusEvent
	for _, rec := range records {
		switch rec.Kind {
		case contract.TxKindMint:
			if rec.TokenID == tokenID {
				events = append(events, models.StatusEvent{
					Kind:      models.StatusIssued,
					TokenID:   tokenID,
					TxID:      rec.TxID,
					LedgerSeq: rec.LedgerSeq,
					Timestamp: rec.Timestamp,
					Actor:     rec.Account,
				})
			}
		case contract.TxKindStatus:
			for _, m := range rec.Memos {
				ev, err := codec.DecodeStatusMemo(m)
				if err != nil || ev.TokenID != tokenID {
					continue
				}
				ev.TxID = rec.TxID
				ev.LedgerSeq = rec.LedgerSeq
				ev.Timestamp = rec.Timestamp
				ev.Actor = rec.Account
				events = append(events, ev)
			}
		}
	}
	return events
}

// Document decodes a token's credential document. Inline primaries decode
// straight from the token object; chunked ones need the mint transaction's
// memos, looked up in issuer history.
func (r *Resolver) Document(ctx context.Context, tok ledger.TokenObject) (models.Document, error) {
	doc, err := r.documentFromRecords(ctx, tok, nil)
	return doc, err
}

// DocumentFromRecords is Document with an already-fetched issuer record set,
// so callers replaying history anyway do not fetch it twice.
func (r *Resolver) DocumentFromRecords(ctx context.Context, tok ledger.TokenObject, records []ledger.TxRecord) (models.Document, error) {
	return r.documentFromRecords(ctx, tok, records)
}

func (r *Resolver) documentFromRecords(ctx context.Context, tok ledger.TokenObject, records []ledger.TxRecord) (models.Document, error) {
	if !codec.IsChunked(tok.URI) {
		return r.codec.Decode(tok.URI, nil)
	}

	if records == nil {
		var err error
		records, _, err = r.IssuerRecords(ctx, tok.Issuer)
		if err != nil {
			return models.Document{}, err
		}
	}
	mint, ok := MintRecord(records, tok.TokenID)
	if !ok {
		return models.Document{}, dErrors.New(dErrors.CodeDecodeTruncated, "mint transaction not found in issuer history")
	}
	chunks, err := codec.ChunksFromMemos(tok.URI, mint.Memos)
	if err != nil {
		return models.Document{}, err
	}
	return r.codec.Decode(tok.URI, chunks)
}
