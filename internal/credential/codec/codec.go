// Package codec serializes credential documents into ledger-field-sized
// fragments and back. The canonical byte form is deterministic, so the
// content hash stored in the token's primary field pins the document forever.
package codec

import (
	"bytes"
	"crypto/sha256"
	"encoding/binary"
	"encoding/json"
	"fmt"

	contract "chaincred/contracts/ledger"
	"chaincred/internal/credential/models"
	dErrors "chaincred/pkg/domain-errors"
)

// Primary field layout markers.
const (
	markerInline  = 0x01 // primary holds the complete canonical document
	markerChunked = 0x02 // primary holds {totalChunks, hash}; bytes travel as chunks
)

// chunkedHeaderLen is marker + uint16 chunk count + sha256 sum.
const chunkedHeaderLen = 1 + 2 + sha256.Size

// Memo kinds used for auxiliary transaction attachments.
const (
	MemoKindChunk  = "credchunk"
	MemoKindStatus = "credstatus"
)

// Chunk is one ordered fragment of a canonical document. Sum is the content
// hash of the reassembled whole, repeated on every chunk so a single fragment
// is self-describing.
type Chunk struct {
	Index   int
	Total   int
	Payload []byte
	Sum     [sha256.Size]byte
}

// Codec packs documents under the ledger's field size limits.
type Codec struct {
	primaryCapacity int
	chunkSize       int
}

// Option configures a Codec.
type Option func(*Codec)

// WithPrimaryCapacity overrides the primary metadata field capacity in bytes.
func WithPrimaryCapacity(n int) Option {
	return func(c *Codec) {
		if n > chunkedHeaderLen {
			c.primaryCapacity = n
		}
	}
}

// WithChunkSize overrides the auxiliary chunk payload size in bytes.
func WithChunkSize(n int) Option {
	return func(c *Codec) {
		if n > 0 {
			c.chunkSize = n
		}
	}
}

// New creates a Codec. Defaults match common ledger limits: a 256-byte
// primary field and 512-byte auxiliary chunks.
func New(opts ...Option) *Codec {
	c := &Codec{primaryCapacity: 256, chunkSize: 512}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// IsChunked reports whether a primary field declares a chunked document.
func IsChunked(primary []byte) bool {
	return len(primary) > 0 && primary[0] == markerChunked
}

// CanonicalBytes returns the deterministic byte form of a document: JSON with
// lexicographically ordered object keys and no insignificant whitespace.
// encoding/json sorts map keys, and struct field order is fixed by the type.
func CanonicalBytes(doc models.Document) ([]byte, error) {
	b, err := json.Marshal(doc)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeBadRequest, "document not serializable")
	}
	return b, nil
}

// Encode canonicalizes the document and packs it for mint. When the canonical
// form fits the primary field, chunks is empty and the primary holds the full
// document behind an inline marker. Otherwise the primary holds only the
// chunk count and content hash, and the bytes split into fixed-size chunks.
func (c *Codec) Encode(doc models.Document) (primary []byte, chunks []Chunk, err error) {
	canonical, err := CanonicalBytes(doc)
	if err != nil {
		return nil, nil, err
	}
	sum := sha256.Sum256(canonical)

	if 1+len(canonical) <= c.primaryCapacity {
		primary = make([]byte, 0, 1+len(canonical))
		primary = append(primary, markerInline)
		primary = append(primary, canonical...)
		return primary, nil, nil
	}

	total := (len(canonical) + c.chunkSize - 1) / c.chunkSize
	if total > 0xFFFF {
		return nil, nil, dErrors.New(dErrors.CodeBadRequest, fmt.Sprintf("document needs %d chunks, limit is 65535", total))
	}

	primary = make([]byte, chunkedHeaderLen)
	primary[0] = markerChunked
	binary.BigEndian.PutUint16(primary[1:3], uint16(total))
	copy(primary[3:], sum[:])

	chunks = make([]Chunk, 0, total)
	for i := 0; i < total; i++ {
		start := i * c.chunkSize
		end := min(start+c.chunkSize, len(canonical))
		chunks = append(chunks, Chunk{
			Index:   i,
			Total:   total,
			Payload: append([]byte(nil), canonical[start:end]...),
			Sum:     sum,
		})
	}
	return primary, chunks, nil
}

// Decode reconstructs a document from the primary field and its chunk set.
// Chunk order does not matter; duplicates are tolerated only when their
// content is identical.
func (c *Codec) Decode(primary []byte, chunks []Chunk) (models.Document, error) {
	if len(primary) == 0 {
		return models.Document{}, dErrors.New(dErrors.CodeDecodeMalformed, "empty primary field")
	}

	switch primary[0] {
	case markerInline:
		return unmarshalDocument(primary[1:])

	case markerChunked:
		if len(primary) != chunkedHeaderLen {
			return models.Document{}, dErrors.New(dErrors.CodeDecodeMalformed, "malformed chunked header")
		}
		total := int(binary.BigEndian.Uint16(primary[1:3]))
		var declared [sha256.Size]byte
		copy(declared[:], primary[3:])

		// De-duplicate by (index, content). A retried submission can attach
		// the same chunk twice; identical copies are fine, diverging ones
		// mean the chunk set cannot be trusted.
		seen := make(map[int][]byte, total)
		for _, ch := range chunks {
			if ch.Index < 0 || ch.Index >= total {
				return models.Document{}, dErrors.New(dErrors.CodeDecodeMalformed,
					fmt.Sprintf("chunk index %d outside [0,%d)", ch.Index, total))
			}
			if prev, ok := seen[ch.Index]; ok {
				if !bytes.Equal(prev, ch.Payload) {
					return models.Document{}, dErrors.New(dErrors.CodeDecodeConflicting,
						fmt.Sprintf("chunk index %d has two different payloads", ch.Index))
				}
				continue
			}
			seen[ch.Index] = ch.Payload
		}
		if len(seen) != total {
			return models.Document{}, dErrors.New(dErrors.CodeDecodeTruncated,
				fmt.Sprintf("have %d of %d chunks", len(seen), total))
		}

		var canonical []byte
		for i := 0; i < total; i++ {
			canonical = append(canonical, seen[i]...)
		}
		if sha256.Sum256(canonical) != declared {
			return models.Document{}, dErrors.New(dErrors.CodeDecodeHashMismatch,
				"reassembled bytes do not match declared hash")
		}
		return unmarshalDocument(canonical)

	default:
		return models.Document{}, dErrors.New(dErrors.CodeDecodeMalformed,
			fmt.Sprintf("unknown primary field marker 0x%02x", primary[0]))
	}
}

// MemosFromChunks converts a chunk set to transaction memo attachments.
func MemosFromChunks(chunks []Chunk) []contract.Memo {
	memos := make([]contract.Memo, 0, len(chunks))
	for _, ch := range chunks {
		memos = append(memos, contract.Memo{
			Kind:  MemoKindChunk,
			Index: ch.Index,
			Data:  ch.Payload,
		})
	}
	return memos
}

// ChunksFromMemos extracts the chunk set for a token from mint transaction
// memos, using the primary field header for total and declared hash. For an
// inline primary it returns nil.
func ChunksFromMemos(primary []byte, memos []contract.Memo) ([]Chunk, error) {
	if len(primary) == 0 {
		return nil, dErrors.New(dErrors.CodeDecodeMalformed, "empty primary field")
	}
	if primary[0] != markerChunked {
		return nil, nil
	}
	if len(primary) != chunkedHeaderLen {
		return nil, dErrors.New(dErrors.CodeDecodeMalformed, "malformed chunked header")
	}
	total := int(binary.BigEndian.Uint16(primary[1:3]))
	var sum [sha256.Size]byte
	copy(sum[:], primary[3:])

	var chunks []Chunk
	for _, m := range memos {
		if m.Kind != MemoKindChunk {
			continue
		}
		chunks = append(chunks, Chunk{
			Index:   m.Index,
			Total:   total,
			Payload: m.Data,
			Sum:     sum,
		})
	}
	return chunks, nil
}

// EncodeStatusMemo packs a status event into a memo for a zero-value status
// transaction.
func EncodeStatusMemo(ev models.StatusEvent) (contract.Memo, error) {
	b, err := json.Marshal(ev)
	if err != nil {
		return contract.Memo{}, dErrors.Wrap(err, dErrors.CodeInternal, "status event not serializable")
	}
	return contract.Memo{Kind: MemoKindStatus, Data: b}, nil
}

// DecodeStatusMemo unpacks a status event memo.
func DecodeStatusMemo(m contract.Memo) (models.StatusEvent, error) {
	if m.Kind != MemoKindStatus {
		return models.StatusEvent{}, dErrors.New(dErrors.CodeDecodeMalformed, "not a status memo")
	}
	var ev models.StatusEvent
	if err := json.Unmarshal(m.Data, &ev); err != nil {
		return models.StatusEvent{}, dErrors.Wrap(err, dErrors.CodeDecodeMalformed, "malformed status memo")
	}
	return ev, nil
}

func unmarshalDocument(b []byte) (models.Document, error) {
	var doc models.Document
	if err := json.Unmarshal(b, &doc); err != nil {
		return models.Document{}, dErrors.Wrap(err, dErrors.CodeDecodeMalformed, "document bytes not parseable")
	}
	return doc, nil
}
