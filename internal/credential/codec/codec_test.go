package codec_test

import (
	"math/rand"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"chaincred/internal/credential/codec"
	"chaincred/internal/credential/models"
	dErrors "chaincred/pkg/domain-errors"
)

type CodecSuite struct {
	suite.Suite
	codec *codec.Codec
}

func TestCodecSuite(t *testing.T) {
	suite.Run(t, new(CodecSuite))
}

func (s *CodecSuite) SetupTest() {
	s.codec = codec.New()
}

func smallDocument() models.Document {
	return models.Document{
		Issuer:   "rIssuer",
		Holder:   "rHolder",
		Types:    []models.CredentialType{models.CredentialTypeDriverLicense},
		Claims:   map[string]any{"class": "B"},
		IssuedAt: time.Date(2026, 8, 1, 10, 0, 0, 0, time.UTC),
	}
}

func largeDocument() models.Document {
	// Roughly 4KB of claims, well past a 256-byte primary field.
	doc := smallDocument()
	doc.Claims = map[string]any{
		"transcript": strings.Repeat("course:A,grade:1;", 250),
	}
	return doc
}

func (s *CodecSuite) TestInlineRoundTrip() {
	doc := smallDocument()

	primary, chunks, err := s.codec.Encode(doc)
	s.Require().NoError(err)
	s.Empty(chunks, "small documents must not chunk")
	s.LessOrEqual(len(primary), 256)

	decoded, err := s.codec.Decode(primary, nil)
	s.Require().NoError(err)
	s.Equal(doc, decoded)
}

func (s *CodecSuite) TestChunkedRoundTrip() {
	doc := largeDocument()

	primary, chunks, err := s.codec.Encode(doc)
	s.Require().NoError(err)
	s.Require().NotEmpty(chunks)
	s.Len(primary, 35, "chunked primary is marker+count+hash")

	canonical, err := codec.CanonicalBytes(doc)
	s.Require().NoError(err)
	wantChunks := (len(canonical) + 511) / 512
	s.Len(chunks, wantChunks, "chunk count is ceil(len/chunkSize)")

	decoded, err := s.codec.Decode(primary, chunks)
	s.Require().NoError(err)
	s.Equal(doc, decoded)
}

func (s *CodecSuite) TestChunkOrderDoesNotMatter() {
	doc := largeDocument()
	primary, chunks, err := s.codec.Encode(doc)
	s.Require().NoError(err)
	s.Require().Greater(len(chunks), 1)

	shuffled := make([]codec.Chunk, len(chunks))
	copy(shuffled, chunks)
	rand.New(rand.NewSource(1)).Shuffle(len(shuffled), func(i, j int) {
		shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
	})

	decoded, err := s.codec.Decode(primary, shuffled)
	s.Require().NoError(err)
	s.Equal(doc, decoded)
}

func (s *CodecSuite) TestCorruptedChunkFailsHashCheck() {
	primary, chunks, err := s.codec.Encode(largeDocument())
	s.Require().NoError(err)
	s.Require().NotEmpty(chunks)

	chunks[0].Payload[0] ^= 0xFF

	_, err = s.codec.Decode(primary, chunks)
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeDecodeHashMismatch))
}

func (s *CodecSuite) TestMissingChunkIsTruncated() {
	primary, chunks, err := s.codec.Encode(largeDocument())
	s.Require().NoError(err)
	s.Require().Greater(len(chunks), 1)

	_, err = s.codec.Decode(primary, chunks[1:])
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeDecodeTruncated))
}

func (s *CodecSuite) TestDuplicateChunks() {
	primary, chunks, err := s.codec.Encode(largeDocument())
	s.Require().NoError(err)
	s.Require().NotEmpty(chunks)

	s.Run("identical duplicate is tolerated", func() {
		withDup := append([]codec.Chunk{chunks[0]}, chunks...)
		_, err := s.codec.Decode(primary, withDup)
		s.NoError(err)
	})

	s.Run("diverging duplicate is conflicting", func() {
		evil := chunks[0]
		evil.Payload = append([]byte(nil), evil.Payload...)
		evil.Payload[3] ^= 0x01
		withDup := append([]codec.Chunk{evil}, chunks...)

		_, err := s.codec.Decode(primary, withDup)
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeDecodeConflicting))
	})
}

func (s *CodecSuite) TestMalformedInputs() {
	s.Run("empty primary", func() {
		_, err := s.codec.Decode(nil, nil)
		s.True(dErrors.HasCode(err, dErrors.CodeDecodeMalformed))
	})

	s.Run("unknown marker", func() {
		_, err := s.codec.Decode([]byte{0x7F, 'x'}, nil)
		s.True(dErrors.HasCode(err, dErrors.CodeDecodeMalformed))
	})

	s.Run("inline garbage", func() {
		_, err := s.codec.Decode([]byte{0x01, '{', 'x'}, nil)
		s.True(dErrors.HasCode(err, dErrors.CodeDecodeMalformed))
	})

	s.Run("chunk index out of range", func() {
		primary, chunks, err := s.codec.Encode(largeDocument())
		s.Require().NoError(err)
		chunks[0].Index = len(chunks) + 10
		_, err = s.codec.Decode(primary, chunks)
		s.True(dErrors.HasCode(err, dErrors.CodeDecodeMalformed))
	})
}

func (s *CodecSuite) TestCanonicalBytesAreDeterministic() {
	doc := smallDocument()
	doc.Claims = map[string]any{"b": "2", "a": "1", "c": "3"}

	first, err := codec.CanonicalBytes(doc)
	s.Require().NoError(err)
	for i := 0; i < 10; i++ {
		again, err := codec.CanonicalBytes(doc)
		s.Require().NoError(err)
		s.Equal(first, again)
	}
}

func (s *CodecSuite) TestMemoConversionRoundTrip() {
	primary, chunks, err := s.codec.Encode(largeDocument())
	s.Require().NoError(err)

	memos := codec.MemosFromChunks(chunks)
	back, err := codec.ChunksFromMemos(primary, memos)
	s.Require().NoError(err)

	decoded, err := s.codec.Decode(primary, back)
	s.Require().NoError(err)
	s.Equal(largeDocument(), decoded)
}

func (s *CodecSuite) TestStatusMemoRoundTrip() {
	ev := models.StatusEvent{
		Kind:      models.StatusRevoked,
		TokenID:   "TOK1",
		TxID:      "AB12",
		LedgerSeq: 99,
		Timestamp: time.Date(2026, 8, 27, 9, 0, 0, 0, time.UTC),
		Actor:     "rIssuer",
		Reason:    "lost card",
	}

	memo, err := codec.EncodeStatusMemo(ev)
	s.Require().NoError(err)
	s.Equal(codec.MemoKindStatus, memo.Kind)

	back, err := codec.DecodeStatusMemo(memo)
	s.Require().NoError(err)
	s.Equal(ev, back)

	_, err = codec.DecodeStatusMemo(codec.MemosFromChunks([]codec.Chunk{{Index: 0}})[0])
	s.True(dErrors.HasCode(err, dErrors.CodeDecodeMalformed))
}
