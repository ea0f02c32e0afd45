package ledger

import (
	"fmt"

	contract "chaincred/contracts/ledger"
	dErrors "chaincred/pkg/domain-errors"
)

// ResultError translates an engine result code into a domain error, or nil
// for success. The translation never collapses distinct failure classes: a
// reserve shortfall and a sequence conflict must stay distinguishable so the
// retry policy treats them differently.
func ResultError(code contract.ResultCode) error {
	switch code {
	case contract.ResultSuccess:
		return nil
	case contract.ResultInsufficientReserve, contract.ResultInsufficientFee:
		return dErrors.New(dErrors.CodeInsufficientFunds, fmt.Sprintf("ledger rejected transaction: %s", code))
	case contract.ResultPastSequence, contract.ResultPreSequence:
		return dErrors.New(dErrors.CodeSequenceConflict, fmt.Sprintf("account sequence conflict: %s", code))
	case contract.ResultNoEntry, contract.ResultObjectNotFound:
		return dErrors.New(dErrors.CodeNotFound, fmt.Sprintf("ledger object not found: %s", code))
	case contract.ResultNoPermission:
		return dErrors.New(dErrors.CodeOfferInvalid, fmt.Sprintf("ledger denied operation: %s", code))
	default:
		return dErrors.New(dErrors.CodeInternal, fmt.Sprintf("unexpected engine result: %s", code))
	}
}
