// Package status derives a credential's current status by folding its
// append-only event history.
//
// Domain Purity: this package contains only pure logic with no I/O,
// no context.Context, and no time.Now() calls. Callers supply the clock.
package status

import (
	"sort"
	"time"

	"chaincred/internal/credential/models"
)

// Fold replays events in ledger-sequence order and returns the resolved
// status. Folding is monotonic for revoked: once a revoked event is folded
// in, later issued or suspended events cannot reopen the credential; only an
// explicit reactivated event can.
func Fold(events []models.StatusEvent) models.CredentialStatus {
	ordered := make([]models.StatusEvent, len(events))
	copy(ordered, events)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].LedgerSeq < ordered[j].LedgerSeq
	})

	current := models.CredentialActive
	revoked := false
	for _, ev := range ordered {
		switch ev.Kind {
		case models.StatusIssued:
			if !revoked {
				current = models.CredentialActive
			}
		case models.StatusSuspended:
			if !revoked {
				current = models.CredentialSuspended
			}
		case models.StatusRevoked:
			revoked = true
			current = models.CredentialRevoked
		case models.StatusReactivated:
			revoked = false
			current = models.CredentialActive
		}
	}
	return current
}

// Resolve folds events and overlays expiration. Expiration is derived at
// read time from the document, never stored as an event, and never masks a
// revocation.
func Resolve(events []models.StatusEvent, expiration *time.Time, now time.Time) models.CredentialStatus {
	folded := Fold(events)
	if folded == models.CredentialRevoked {
		return folded
	}
	if expiration != nil && !now.Before(*expiration) {
		return models.CredentialExpired
	}
	return folded
}
