// Full-lifecycle tests over the embedded ledger: every engine service wired
// together the way cmd/server wires them.
package integration_test

import (
	"context"
	"crypto/ed25519"
	"crypto/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	contract "chaincred/contracts/ledger"
	"chaincred/internal/credential/codec"
	"chaincred/internal/credential/history"
	"chaincred/internal/credential/issuance"
	"chaincred/internal/credential/models"
	"chaincred/internal/credential/registry"
	"chaincred/internal/credential/revocation"
	"chaincred/internal/credential/transfer"
	"chaincred/internal/credential/verification"
	"chaincred/internal/ledger"
	"chaincred/internal/ledger/memledger"
	"chaincred/internal/proof"
	dErrors "chaincred/pkg/domain-errors"
	"chaincred/pkg/platform/circuit"
)

const (
	university = "rUniversity"
	student    = "rStudent"
	employer   = "rEmployer"
)

type LifecycleSuite struct {
	suite.Suite
	now      time.Time
	ledger   *memledger.Ledger
	issuer   *issuance.Service
	verifier *verification.Service
	revoker  *revocation.Service
	mover    *transfer.Service
	registry *registry.Service
}

func TestLifecycleSuite(t *testing.T) {
	suite.Run(t, new(LifecycleSuite))
}

func (s *LifecycleSuite) SetupTest() {
	s.now = time.Date(2026, 8, 27, 12, 0, 0, 0, time.UTC)
	clock := func() time.Time { return s.now }

	s.ledger = memledger.New(memledger.WithClock(clock))
	sub := ledger.NewSubmitter(s.ledger, s.ledger,
		ledger.WithBreaker(circuit.New("ledger-submit")),
		ledger.WithRetryPolicy(ledger.RetryPolicy{MaxAttempts: 3, BaseDelay: time.Millisecond, MaxDelay: time.Millisecond}),
	)
	c := codec.New()
	resolver := history.NewResolver(s.ledger, c, 50)

	_, private, err := ed25519.GenerateKey(rand.Reader)
	s.Require().NoError(err)
	prover := proof.New(private, university, proof.WithClock(clock))

	s.issuer = issuance.NewService(s.ledger, sub, c,
		issuance.WithClock(clock),
		issuance.WithProofGenerator(prover),
	)
	s.verifier = verification.NewService(s.ledger, resolver,
		verification.WithClock(clock),
		verification.WithCacheTTL(0),
		verification.WithProofVerifier(prover, codec.CanonicalBytes),
	)
	s.revoker = revocation.NewService(s.ledger, sub, resolver, revocation.WithClock(clock))
	s.mover = transfer.NewService(s.ledger, sub, resolver)
	s.registry = registry.NewService(s.ledger, resolver, c,
		registry.WithClock(clock),
		registry.WithVerifier(s.verifier),
	)
}

func (s *LifecycleSuite) issueDiploma() string {
	res, err := s.issuer.Issue(context.Background(), issuance.IssueRequest{
		Document: models.Document{
			Issuer: university,
			Holder: student,
			Types:  []models.CredentialType{models.CredentialTypeDiploma},
			Claims: map[string]any{"degree": "BSc", "field": "physics"},
		},
		Flags: contract.TokenFlags{Transferable: true, Burnable: true},
		Taxon: 2026,
	})
	s.Require().NoError(err)
	return res.TokenID
}

func (s *LifecycleSuite) verify(tokenID string, level models.VerificationLevel) models.VerificationResult {
	res, err := s.verifier.Verify(context.Background(), tokenID, level, verification.Params{})
	s.Require().NoError(err)
	return res
}

func (s *LifecycleSuite) TestIssueVerifyTransferVerify() {
	tokenID := s.issueDiploma()

	s.True(s.verify(tokenID, models.LevelBasic).Valid)
	s.True(s.verify(tokenID, models.LevelEnhanced).Valid)
	s.True(s.verify(tokenID, models.LevelCryptographic).Valid, "issuance attached a checkable proof")

	offer, err := s.mover.CreateOffer(context.Background(), transfer.CreateOfferRequest{
		TokenID: tokenID, From: student, To: employer,
	})
	s.Require().NoError(err)
	_, err = s.mover.AcceptOffer(context.Background(), offer.OfferID, employer)
	s.Require().NoError(err)

	res, err := s.verifier.Verify(context.Background(), tokenID, models.LevelEnhanced, verification.Params{Holder: employer})
	s.Require().NoError(err)
	s.True(res.Valid, "transfer moved the credential without invalidating it")

	res, err = s.verifier.Verify(context.Background(), tokenID, models.LevelEnhanced, verification.Params{Holder: student})
	s.Require().NoError(err)
	s.False(res.Valid)
	s.False(res.HolderVerified, "the previous holder no longer owns it")
}

func (s *LifecycleSuite) TestHardRevocationTombstones() {
	tokenID := s.issueDiploma()

	_, err := s.revoker.Revoke(context.Background(), revocation.RevokeRequest{
		TokenID: tokenID, Issuer: university, Hard: true, Reason: "degree rescinded",
	})
	s.Require().NoError(err)

	_, err = s.verifier.Verify(context.Background(), tokenID, models.LevelBasic, verification.Params{})
	s.True(dErrors.HasCode(err, dErrors.CodeNotFound))

	list, err := s.registry.ListByIssuer(context.Background(), university, registry.ListOptions{})
	s.Require().NoError(err)
	s.Require().Len(list, 1)
	s.Equal(models.CredentialRevoked, list[0].Status, "the registry still remembers the burned credential")

	events, err := s.registry.StatusHistory(context.Background(), university, tokenID)
	s.Require().NoError(err)
	s.Equal(models.StatusRevoked, events[len(events)-1].Kind)
}

func (s *LifecycleSuite) TestSoftRevocationKeepsAuditTrail() {
	tokenID := s.issueDiploma()

	_, err := s.revoker.Revoke(context.Background(), revocation.RevokeRequest{
		TokenID: tokenID, Issuer: university, Reason: "administrative error",
	})
	s.Require().NoError(err)

	res := s.verify(tokenID, models.LevelEnhanced)
	s.False(res.Valid)
	s.Equal(models.CredentialRevoked, res.Status)
	s.NotNil(res.ResolvedDocument, "the document stays resolvable after a soft revoke")

	info, err := s.registry.GetInfo(context.Background(), tokenID, "")
	s.Require().NoError(err)
	s.Len(info.StatusHistory, 2)
	s.Equal("administrative error", info.StatusHistory[1].Reason)
}

func (s *LifecycleSuite) TestSuspensionIsReversibleRevocationIsNot() {
	tokenID := s.issueDiploma()

	_, err := s.revoker.Suspend(context.Background(), tokenID, university, "records audit")
	s.Require().NoError(err)
	s.Equal(models.CredentialSuspended, s.verify(tokenID, models.LevelEnhanced).Status)

	_, err = s.revoker.Reinstate(context.Background(), tokenID, university)
	s.Require().NoError(err)
	s.Equal(models.CredentialActive, s.verify(tokenID, models.LevelEnhanced).Status)

	_, err = s.revoker.Revoke(context.Background(), revocation.RevokeRequest{TokenID: tokenID, Issuer: university})
	s.Require().NoError(err)
	_, err = s.revoker.Suspend(context.Background(), tokenID, university, "too late")
	s.True(dErrors.HasCode(err, dErrors.CodeBadRequest))
	s.Equal(models.CredentialRevoked, s.verify(tokenID, models.LevelEnhanced).Status)
}

func (s *LifecycleSuite) TestUnconfirmedWriteNeverDuplicates() {
	s.ledger.TimeoutNextSubmit()

	res, err := s.issuer.Issue(context.Background(), issuance.IssueRequest{
		Document: models.Document{
			Issuer: university,
			Holder: student,
			Types:  []models.CredentialType{models.CredentialTypeDiploma},
			Claims: map[string]any{"degree": "MSc"},
		},
		Flags: contract.TokenFlags{Transferable: true, Burnable: true},
		Taxon: 2026,
	})
	s.Require().NoError(err)

	list, err := s.registry.ListByIssuer(context.Background(), university, registry.ListOptions{})
	s.Require().NoError(err)
	s.Require().Len(list, 1, "the timed-out mint landed exactly once")
	s.Equal(res.TokenID, list[0].TokenID)
	s.True(s.verify(res.TokenID, models.LevelEnhanced).Valid)
}

func (s *LifecycleSuite) TestReserveExhaustionSurfacesCleanly() {
	s.ledger.FundAccount(university, 11)

	_, err := s.issuer.Issue(context.Background(), issuance.IssueRequest{
		Document: models.Document{
			Issuer: university,
			Holder: student,
			Claims: map[string]any{"degree": "BSc"},
		},
		Flags: contract.TokenFlags{Burnable: true},
		Taxon: 1,
	})
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeInsufficientFunds))

	list, err := s.registry.ListByIssuer(context.Background(), university, registry.ListOptions{})
	s.Require().NoError(err)
	s.Empty(list, "a rejected mint leaves no registry trace")
}
