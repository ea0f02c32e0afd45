// Package httpErrors translates transport-agnostic domain error codes into
// HTTP statuses. It is the only place that knows both vocabularies.
package httpErrors

import (
	"net/http"

	dErrors "chaincred/pkg/domain-errors"
)

// ToHTTPStatus maps a domain error code onto an HTTP status code.
func ToHTTPStatus(code dErrors.Code) int {
	switch code {
	case dErrors.CodeNotFound:
		return http.StatusNotFound
	case dErrors.CodeBadRequest:
		return http.StatusBadRequest
	case dErrors.CodeForbidden:
		return http.StatusForbidden
	case dErrors.CodeNotBurnable, dErrors.CodeNotTransferable,
		dErrors.CodeOfferInvalid, dErrors.CodeSequenceConflict:
		return http.StatusConflict
	case dErrors.CodeInsufficientFunds:
		return http.StatusPaymentRequired
	case dErrors.CodeTimeout:
		return http.StatusGatewayTimeout
	case dErrors.CodeNetworkError:
		return http.StatusBadGateway
	case dErrors.CodeDecodeTruncated, dErrors.CodeDecodeHashMismatch,
		dErrors.CodeDecodeMalformed, dErrors.CodeDecodeConflicting:
		// On-ledger metadata that cannot be reassembled is an upstream data
		// problem, not a client one.
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}
