package domainerrors

import "errors"

// Code represents a domain error category independent of transport layer.
// These codes describe what went wrong in credential-lifecycle terms, not
// HTTP or ledger-engine terms.
type Code string

const (
	CodeNotFound          Code = "not_found"
	CodeBadRequest        Code = "bad_request"
	CodeForbidden         Code = "forbidden"
	CodeInternal          Code = "internal_error"
	CodeNotBurnable       Code = "not_burnable"
	CodeNotTransferable   Code = "not_transferable"
	CodeInsufficientFunds Code = "insufficient_funds"
	CodeTimeout           Code = "timeout"
	CodeOfferInvalid      Code = "offer_invalid"
	CodeSequenceConflict  Code = "sequence_conflict"
	CodeNetworkError      Code = "network_error"

	// Codec failure modes. Kept distinct so callers never see a hash
	// mismatch downgraded into a generic decode failure.
	CodeDecodeTruncated    Code = "decode_truncated"
	CodeDecodeHashMismatch Code = "decode_hash_mismatch"
	CodeDecodeMalformed    Code = "decode_malformed"
	CodeDecodeConflicting  Code = "decode_conflicting"
)

// Error wraps domain or infrastructure failures with a stable code.
// It is transport-agnostic and can be used across service, ledger, and other layers.
type Error struct {
	Code    Code
	Message string
	Err     error
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return string(e.Code)
}

// Unwrap implements error unwrapping for error chains.
func (e *Error) Unwrap() error {
	return e.Err
}

// Is enables errors.Is() to match errors by code.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Code == t.Code
}

// New creates a new domain error with the given code and message.
func New(code Code, msg string) error {
	return &Error{Code: code, Message: msg}
}

// Wrap creates a new domain error wrapping an existing error.
// If the wrapped error is already a domain error, the original code is preserved.
func Wrap(err error, code Code, msg string) error {
	var existing *Error
	if errors.As(err, &existing) {
		// Preserve the original domain code, update message
		return &Error{Code: existing.Code, Message: msg, Err: err}
	}
	return &Error{Code: code, Message: msg, Err: err}
}

// HasCode checks if an error is a domain error with the given code.
func HasCode(err error, code Code) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Code == code
	}
	return false
}

// IsRetryable reports whether the error represents a transient condition the
// ledger wrapper may retry after a freshness re-query. All other codes must
// surface to the caller unmodified.
func IsRetryable(err error) bool {
	return HasCode(err, CodeNetworkError) ||
		HasCode(err, CodeTimeout) ||
		HasCode(err, CodeSequenceConflict)
}

// IsDecodeError reports whether the error is any of the codec failure modes.
func IsDecodeError(err error) bool {
	return HasCode(err, CodeDecodeTruncated) ||
		HasCode(err, CodeDecodeHashMismatch) ||
		HasCode(err, CodeDecodeMalformed) ||
		HasCode(err, CodeDecodeConflicting)
}
