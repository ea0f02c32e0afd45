package registry_test

import (
	"context"
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
	dErrors "chaincred/pkg/domain-errors"
)

const (
	issuerAcct = "rIssuerAcct"
	holderAcct = "rHolderAcct"
	otherAcct  = "rOtherAcct"
)

type RegistrySuite struct {
	suite.Suite
	now      time.Time
	ledger   *memledger.Ledger
	issuer   *issuance.Service
	revoker  *revocation.Service
	transfop *transfer.Service
	svc      *registry.Service
}

func TestRegistrySuite(t *testing.T) {
	suite.Run(t, new(RegistrySuite))
}

func (s *RegistrySuite) SetupTest() {
	s.now = time.Date(2026, 8, 27, 12, 0, 0, 0, time.UTC)
	clock := func() time.Time { return s.now }

	s.ledger = memledger.New(memledger.WithClock(clock))
	sub := ledger.NewSubmitter(s.ledger, s.ledger)
	resolver := history.NewResolver(s.ledger, codec.New(), 50)

	s.issuer = issuance.NewService(s.ledger, sub, codec.New(), issuance.WithClock(clock))
	s.revoker = revocation.NewService(s.ledger, sub, resolver, revocation.WithClock(clock))
	s.transfop = transfer.NewService(s.ledger, sub, resolver)

	verifier := verification.NewService(s.ledger, resolver,
		verification.WithClock(clock),
		verification.WithCacheTTL(0),
	)
	s.svc = registry.NewService(s.ledger, resolver, codec.New(),
		registry.WithClock(clock),
		registry.WithVerifier(verifier),
	)
}

func (s *RegistrySuite) issue(taxon uint32, mutate ...func(*issuance.IssueRequest)) string {
	req := issuance.IssueRequest{
		Document: models.Document{
			Issuer: issuerAcct,
			Holder: holderAcct,
			Types:  []models.CredentialType{models.CredentialTypeDriverLicense},
			Claims: map[string]any{"class": "B"},
		},
		Flags: contract.TokenFlags{Transferable: true, Burnable: true},
		Taxon: taxon,
	}
	for _, m := range mutate {
		m(&req)
	}
	res, err := s.issuer.Issue(context.Background(), req)
	s.Require().NoError(err)
	return res.TokenID
}

func (s *RegistrySuite) TestListByIssuerOrderedByMintSequence() {
	first := s.issue(1)
	second := s.issue(2)
	third := s.issue(3)

	list, err := s.svc.ListByIssuer(context.Background(), issuerAcct, registry.ListOptions{})
	s.Require().NoError(err)
	s.Require().Len(list, 3)
	s.Equal([]string{first, second, third}, []string{list[0].TokenID, list[1].TokenID, list[2].TokenID})

	for _, sum := range list {
		s.Equal(issuerAcct, sum.Issuer)
		s.Equal(holderAcct, sum.Holder)
		s.Equal(models.CredentialActive, sum.Status)
		s.Equal([]models.CredentialType{models.CredentialTypeDriverLicense}, sum.Types)
	}
}

func (s *RegistrySuite) TestListReflectsLifecycleChanges() {
	kept := s.issue(1)
	softRevoked := s.issue(2)
	hardRevoked := s.issue(3)
	suspended := s.issue(4)

	_, err := s.revoker.Revoke(context.Background(), revocation.RevokeRequest{TokenID: softRevoked, Issuer: issuerAcct})
	s.Require().NoError(err)
	_, err = s.revoker.Revoke(context.Background(), revocation.RevokeRequest{TokenID: hardRevoked, Issuer: issuerAcct, Hard: true})
	s.Require().NoError(err)
	_, err = s.revoker.Suspend(context.Background(), suspended, issuerAcct, "review")
	s.Require().NoError(err)

	list, err := s.svc.ListByIssuer(context.Background(), issuerAcct, registry.ListOptions{})
	s.Require().NoError(err)
	s.Require().Len(list, 4, "hard-revoked credentials stay listed")

	byID := make(map[string]models.CredentialSummary, len(list))
	for _, sum := range list {
		byID[sum.TokenID] = sum
	}
	s.Equal(models.CredentialActive, byID[kept].Status)
	s.Equal(models.CredentialRevoked, byID[softRevoked].Status)
	s.Equal(models.CredentialRevoked, byID[hardRevoked].Status)
	s.Equal(models.CredentialSuspended, byID[suspended].Status)
}

func (s *RegistrySuite) TestListTracksTransferredHolder() {
	tokenID := s.issue(1)

	offer, err := s.transfop.CreateOffer(context.Background(), transfer.CreateOfferRequest{
		TokenID: tokenID, From: holderAcct, To: otherAcct,
	})
	s.Require().NoError(err)
	_, err = s.transfop.AcceptOffer(context.Background(), offer.OfferID, otherAcct)
	s.Require().NoError(err)

	list, err := s.svc.ListByIssuer(context.Background(), issuerAcct, registry.ListOptions{})
	s.Require().NoError(err)
	s.Require().Len(list, 1)
	s.Equal(otherAcct, list[0].Holder)

	list, err = s.svc.ListByIssuer(context.Background(), issuerAcct, registry.ListOptions{Holder: otherAcct})
	s.Require().NoError(err)
	s.Len(list, 1, "holder filter follows the transfer")

	list, err = s.svc.ListByIssuer(context.Background(), issuerAcct, registry.ListOptions{Holder: holderAcct})
	s.Require().NoError(err)
	s.Empty(list, "the previous holder no longer matches")
}

func (s *RegistrySuite) TestListFilters() {
	s.issue(1)
	s.issue(2)
	revoked := s.issue(2)
	_, err := s.revoker.Revoke(context.Background(), revocation.RevokeRequest{TokenID: revoked, Issuer: issuerAcct})
	s.Require().NoError(err)

	taxon := uint32(2)
	list, err := s.svc.ListByIssuer(context.Background(), issuerAcct, registry.ListOptions{Taxon: &taxon})
	s.Require().NoError(err)
	s.Len(list, 2)

	list, err = s.svc.ListByIssuer(context.Background(), issuerAcct, registry.ListOptions{
		Taxon:  &taxon,
		Status: models.CredentialActive,
	})
	s.Require().NoError(err)
	s.Len(list, 1)
}

func (s *RegistrySuite) TestListExpirationDerivedAtReadTime() {
	exp := s.now.Add(time.Hour)
	s.issue(1, func(r *issuance.IssueRequest) { r.Expiration = &exp })

	list, err := s.svc.ListByIssuer(context.Background(), issuerAcct, registry.ListOptions{})
	s.Require().NoError(err)
	s.Require().Len(list, 1)
	s.Equal(models.CredentialActive, list[0].Status)

	s.now = s.now.Add(2 * time.Hour)

	list, err = s.svc.ListByIssuer(context.Background(), issuerAcct, registry.ListOptions{})
	s.Require().NoError(err)
	s.Require().Len(list, 1)
	s.Equal(models.CredentialExpired, list[0].Status)
}

func (s *RegistrySuite) TestGetInfoAssemblesFullView() {
	tokenID := s.issue(9)
	_, err := s.revoker.Suspend(context.Background(), tokenID, issuerAcct, "review")
	s.Require().NoError(err)

	info, err := s.svc.GetInfo(context.Background(), tokenID, models.LevelEnhanced)
	s.Require().NoError(err)

	s.Equal(tokenID, info.Handle.TokenID)
	s.Equal(issuerAcct, info.Handle.Issuer)
	s.Equal(holderAcct, info.Handle.Owner)
	s.NotEmpty(info.Handle.MintTxID)

	s.Require().NotNil(info.Document)
	s.Equal(issuerAcct, info.Document.Issuer)

	s.Require().Len(info.StatusHistory, 2, "issued then suspended")
	s.Equal(models.StatusIssued, info.StatusHistory[0].Kind)
	s.Equal(models.StatusSuspended, info.StatusHistory[1].Kind)

	s.Equal(models.LevelEnhanced, info.Verification.Level)
	s.False(info.Verification.Valid, "suspended credential does not verify")
	s.Equal(models.CredentialSuspended, info.Verification.Status)
}

func (s *RegistrySuite) TestGetInfoBurnedTokenIsNotFound() {
	tokenID := s.issue(1)
	_, err := s.revoker.Revoke(context.Background(), revocation.RevokeRequest{TokenID: tokenID, Issuer: issuerAcct, Hard: true})
	s.Require().NoError(err)

	_, err = s.svc.GetInfo(context.Background(), tokenID, models.LevelBasic)
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
}

func (s *RegistrySuite) TestStatusHistoryIncludesTerminalBurn() {
	tokenID := s.issue(1)
	_, err := s.revoker.Revoke(context.Background(), revocation.RevokeRequest{TokenID: tokenID, Issuer: issuerAcct, Hard: true})
	s.Require().NoError(err)

	events, err := s.svc.StatusHistory(context.Background(), issuerAcct, tokenID)
	s.Require().NoError(err)
	s.Require().Len(events, 2)
	s.Equal(models.StatusIssued, events[0].Kind)
	s.Equal(models.StatusRevoked, events[1].Kind)
	s.Equal("token burned", events[1].Reason)
}

func (s *RegistrySuite) TestEmptyIssuerListsNothing() {
	list, err := s.svc.ListByIssuer(context.Background(), "rNobody", registry.ListOptions{})
	s.Require().NoError(err)
	s.Empty(list)
}
