// Package proof produces and checks portable credential proofs. A proof is a
// compact JWS over the document's content hash, so a verifier holding only
// the document bytes and the issuer's public key can check authenticity
// without any ledger access.
package proof

import (
	"context"
	"crypto/ed25519"
	"crypto/sha256"
	"encoding/hex"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"chaincred/internal/credential/codec"
	"chaincred/internal/credential/models"
	dErrors "chaincred/pkg/domain-errors"
)

// Claims is the proof payload. The document travels outside the token; only
// its hash is signed.
type Claims struct {
	DocumentSHA256 string `json:"doc_sha256"`
	jwt.RegisteredClaims
}

// Option configures the JWT prover.
type Option func(*JWT)

// WithClock overrides the timestamp source.
func WithClock(now func() time.Time) Option {
	return func(p *JWT) { p.now = now }
}

// JWT signs and verifies document proofs with Ed25519. A verify-only
// instance carries just the public key.
type JWT struct {
	private ed25519.PrivateKey
	public  ed25519.PublicKey
	issuer  string
	now     func() time.Time
}

// New creates a prover that can both generate and verify proofs.
func New(private ed25519.PrivateKey, issuer string, opts ...Option) *JWT {
	p := &JWT{
		private: private,
		public:  private.Public().(ed25519.PublicKey),
		issuer:  issuer,
		now:     func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// NewVerifier creates a verify-only instance for a known issuer key.
func NewVerifier(public ed25519.PublicKey) *JWT {
	return &JWT{public: public, now: func() time.Time { return time.Now().UTC() }}
}

// GenerateProof signs the document's canonical content hash. The document's
// own proof reference is excluded from the signed bytes.
func (p *JWT) GenerateProof(doc models.Document) (string, error) {
	if p.private == nil {
		return "", dErrors.New(dErrors.CodeInternal, "prover has no signing key")
	}
	doc.ProofRef = ""
	b, err := codec.CanonicalBytes(doc)
	if err != nil {
		return "", err
	}
	sum := sha256.Sum256(b)

	token := jwt.NewWithClaims(jwt.SigningMethodEdDSA, Claims{
		DocumentSHA256: hex.EncodeToString(sum[:]),
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:   p.issuer,
			IssuedAt: jwt.NewNumericDate(p.now()),
		},
	})
	signed, err := token.SignedString(p.private)
	if err != nil {
		return "", dErrors.Wrap(err, dErrors.CodeInternal, "proof signing failed")
	}
	return signed, nil
}

// VerifyProof checks that proofRef is a valid signature over the given
// document bytes.
func (p *JWT) VerifyProof(_ context.Context, documentBytes []byte, proofRef string) error {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(proofRef, claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodEd25519); !ok {
			return nil, dErrors.New(dErrors.CodeBadRequest, "unexpected proof signing method")
		}
		return p.public, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodEdDSA.Alg()}))
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeBadRequest, "proof not parseable or signature invalid")
	}
	if !token.Valid {
		return dErrors.New(dErrors.CodeBadRequest, "proof token invalid")
	}

	sum := sha256.Sum256(documentBytes)
	if claims.DocumentSHA256 != hex.EncodeToString(sum[:]) {
		return dErrors.New(dErrors.CodeDecodeHashMismatch, "proof was signed over different document bytes")
	}
	return nil
}
