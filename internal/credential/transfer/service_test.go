package transfer_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/suite"

	contract "chaincred/contracts/ledger"
	"chaincred/internal/credential/codec"
	"chaincred/internal/credential/history"
	"chaincred/internal/credential/issuance"
	"chaincred/internal/credential/models"
	"chaincred/internal/credential/revocation"
	"chaincred/internal/credential/transfer"
	"chaincred/internal/ledger"
	"chaincred/internal/ledger/memledger"
	dErrors "chaincred/pkg/domain-errors"
)

const (
	issuerAcct = "rIssuerAcct"
	holderAcct = "rHolderAcct"
	otherAcct  = "rOtherAcct"
)

type TransferSuite struct {
	suite.Suite
	ledger *memledger.Ledger
	issuer *issuance.Service
	svc    *transfer.Service
}

func TestTransferSuite(t *testing.T) {
	suite.Run(t, new(TransferSuite))
}

func (s *TransferSuite) SetupTest() {
	s.ledger = memledger.New()
	sub := ledger.NewSubmitter(s.ledger, s.ledger)
	resolver := history.NewResolver(s.ledger, codec.New(), 50)
	s.issuer = issuance.NewService(s.ledger, sub, codec.New())
	s.svc = transfer.NewService(s.ledger, sub, resolver)
}

func (s *TransferSuite) issue(mutate ...func(*issuance.IssueRequest)) string {
	req := issuance.IssueRequest{
		Document: models.Document{
			Issuer: issuerAcct,
			Holder: holderAcct,
			Types:  []models.CredentialType{models.CredentialTypeGeneric},
			Claims: map[string]any{"membership": "gold"},
		},
		Flags: contract.TokenFlags{Transferable: true, Burnable: true},
		Taxon: 11,
	}
	for _, m := range mutate {
		m(&req)
	}
	res, err := s.issuer.Issue(context.Background(), req)
	s.Require().NoError(err)
	return res.TokenID
}

func (s *TransferSuite) TestOfferAcceptMovesOwnership() {
	tokenID := s.issue()

	offer, err := s.svc.CreateOffer(context.Background(), transfer.CreateOfferRequest{
		TokenID: tokenID,
		From:    holderAcct,
		To:      otherAcct,
	})
	s.Require().NoError(err)
	s.Equal(models.OfferPending, offer.State)

	tok, err := s.ledger.TokenInfo(context.Background(), tokenID)
	s.Require().NoError(err)
	s.Equal(holderAcct, tok.Owner, "a pending offer never changes ownership")

	accepted, err := s.svc.AcceptOffer(context.Background(), offer.OfferID, otherAcct)
	s.Require().NoError(err)
	s.Equal(tokenID, accepted.TokenID)
	s.Equal(otherAcct, accepted.NewOwner)

	tok, err = s.ledger.TokenInfo(context.Background(), tokenID)
	s.Require().NoError(err)
	s.Equal(otherAcct, tok.Owner)
}

func (s *TransferSuite) TestOnlyOwnerCanOffer() {
	tokenID := s.issue()

	_, err := s.svc.CreateOffer(context.Background(), transfer.CreateOfferRequest{
		TokenID: tokenID,
		From:    otherAcct,
		To:      issuerAcct,
	})
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeForbidden))
}

func (s *TransferSuite) TestNonTransferableHolderCannotOffer() {
	tokenID := s.issue(func(r *issuance.IssueRequest) { r.Flags.Transferable = false })

	_, err := s.svc.CreateOffer(context.Background(), transfer.CreateOfferRequest{
		TokenID: tokenID,
		From:    holderAcct,
		To:      otherAcct,
	})
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeNotTransferable))
}

func (s *TransferSuite) TestWrongAcceptorIsOfferInvalid() {
	tokenID := s.issue()

	offer, err := s.svc.CreateOffer(context.Background(), transfer.CreateOfferRequest{
		TokenID: tokenID,
		From:    holderAcct,
		To:      otherAcct,
	})
	s.Require().NoError(err)

	_, err = s.svc.AcceptOffer(context.Background(), offer.OfferID, "rStranger")
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeOfferInvalid))

	tok, err := s.ledger.TokenInfo(context.Background(), tokenID)
	s.Require().NoError(err)
	s.Equal(holderAcct, tok.Owner)
}

func (s *TransferSuite) TestAcceptUnknownOfferIsOfferInvalid() {
	_, err := s.svc.AcceptOffer(context.Background(), "NO-SUCH-OFFER", otherAcct)
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeOfferInvalid))
}

func (s *TransferSuite) TestCancelledOfferCannotBeAccepted() {
	tokenID := s.issue()

	offer, err := s.svc.CreateOffer(context.Background(), transfer.CreateOfferRequest{
		TokenID: tokenID,
		From:    holderAcct,
		To:      otherAcct,
	})
	s.Require().NoError(err)

	s.Require().NoError(s.svc.CancelOffer(context.Background(), offer.OfferID, holderAcct))

	_, err = s.svc.AcceptOffer(context.Background(), offer.OfferID, otherAcct)
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeOfferInvalid))
}

func (s *TransferSuite) TestOnlyCreatorCanCancel() {
	tokenID := s.issue()

	offer, err := s.svc.CreateOffer(context.Background(), transfer.CreateOfferRequest{
		TokenID: tokenID,
		From:    holderAcct,
		To:      otherAcct,
	})
	s.Require().NoError(err)

	err = s.svc.CancelOffer(context.Background(), offer.OfferID, otherAcct)
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeOfferInvalid))

	state, err := s.svc.OfferInfo(context.Background(), holderAcct, offer.OfferID)
	s.Require().NoError(err)
	s.Equal(models.OfferPending, state.State)
}

func (s *TransferSuite) TestOfferInfoTracksLifecycle() {
	tokenID := s.issue()

	offer, err := s.svc.CreateOffer(context.Background(), transfer.CreateOfferRequest{
		TokenID: tokenID,
		From:    holderAcct,
		To:      otherAcct,
	})
	s.Require().NoError(err)

	state, err := s.svc.OfferInfo(context.Background(), holderAcct, offer.OfferID)
	s.Require().NoError(err)
	s.Equal(models.OfferPending, state.State)
	s.Equal(otherAcct, state.To)

	_, err = s.svc.AcceptOffer(context.Background(), offer.OfferID, otherAcct)
	s.Require().NoError(err)

	state, err = s.svc.OfferInfo(context.Background(), holderAcct, offer.OfferID)
	s.Require().NoError(err)
	s.Equal(models.OfferAccepted, state.State)
}

func (s *TransferSuite) TestBurnImplicitlyCancelsPendingOffer() {
	tokenID := s.issue()

	offer, err := s.svc.CreateOffer(context.Background(), transfer.CreateOfferRequest{
		TokenID: tokenID,
		From:    holderAcct,
		To:      otherAcct,
	})
	s.Require().NoError(err)

	sub := ledger.NewSubmitter(s.ledger, s.ledger)
	resolver := history.NewResolver(s.ledger, codec.New(), 50)
	rev := revocation.NewService(s.ledger, sub, resolver)
	_, err = rev.Revoke(context.Background(), revocation.RevokeRequest{TokenID: tokenID, Issuer: issuerAcct, Hard: true})
	s.Require().NoError(err)

	state, err := s.svc.OfferInfo(context.Background(), holderAcct, offer.OfferID)
	s.Require().NoError(err)
	s.Equal(models.OfferCancelled, state.State)

	_, err = s.svc.AcceptOffer(context.Background(), offer.OfferID, otherAcct)
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeOfferInvalid))
}
