package status_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"chaincred/internal/credential/domain/status"
	"chaincred/internal/credential/models"
)

type FoldSuite struct {
	suite.Suite
}

func TestFoldSuite(t *testing.T) {
	suite.Run(t, new(FoldSuite))
}

func ev(kind models.StatusKind, seq uint64) models.StatusEvent {
	return models.StatusEvent{Kind: kind, LedgerSeq: seq, TokenID: "TOK1"}
}

func (s *FoldSuite) TestFold() {
	cases := []struct {
		name   string
		events []models.StatusEvent
		want   models.CredentialStatus
	}{
		{
			name:   "no events resolves active",
			events: nil,
			want:   models.CredentialActive,
		},
		{
			name:   "issued only",
			events: []models.StatusEvent{ev(models.StatusIssued, 1)},
			want:   models.CredentialActive,
		},
		{
			name: "suspend then resume via issued",
			events: []models.StatusEvent{
				ev(models.StatusIssued, 1),
				ev(models.StatusSuspended, 2),
				ev(models.StatusIssued, 3),
			},
			want: models.CredentialActive,
		},
		{
			name: "revoked is terminal over issued",
			events: []models.StatusEvent{
				ev(models.StatusIssued, 1),
				ev(models.StatusRevoked, 2),
				ev(models.StatusIssued, 3),
				ev(models.StatusSuspended, 4),
			},
			want: models.CredentialRevoked,
		},
		{
			name: "explicit reactivation reopens",
			events: []models.StatusEvent{
				ev(models.StatusRevoked, 2),
				ev(models.StatusReactivated, 3),
			},
			want: models.CredentialActive,
		},
		{
			name: "ordering is by ledger sequence not slice order",
			events: []models.StatusEvent{
				ev(models.StatusIssued, 9),
				ev(models.StatusRevoked, 2),
			},
			want: models.CredentialRevoked,
		},
	}

	for _, tc := range cases {
		s.Run(tc.name, func() {
			s.Equal(tc.want, status.Fold(tc.events))
		})
	}
}

func (s *FoldSuite) TestResolveExpirationOverlay() {
	now := time.Date(2026, 8, 27, 12, 0, 0, 0, time.UTC)
	past := now.Add(-time.Hour)
	future := now.Add(time.Hour)

	s.Run("expired overlays active", func() {
		got := status.Resolve([]models.StatusEvent{ev(models.StatusIssued, 1)}, &past, now)
		s.Equal(models.CredentialExpired, got)
	})

	s.Run("unexpired stays active", func() {
		got := status.Resolve([]models.StatusEvent{ev(models.StatusIssued, 1)}, &future, now)
		s.Equal(models.CredentialActive, got)
	})

	s.Run("revocation wins over expiration", func() {
		got := status.Resolve([]models.StatusEvent{ev(models.StatusRevoked, 1)}, &past, now)
		s.Equal(models.CredentialRevoked, got)
	})

	s.Run("nil expiration never expires", func() {
		got := status.Resolve(nil, nil, now)
		s.Equal(models.CredentialActive, got)
	})
}
