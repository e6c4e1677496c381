package apperr

import (
	"errors"
	"fmt"
)

// Sentinel categories. Every DomainError wraps exactly one of these so
// callers can branch with errors.Is without inspecting codes.
var (
	ErrValidation = errors.New("validation failed")
	ErrNotFound   = errors.New("not found")
	ErrForbidden  = errors.New("forbidden")
	ErrConflict   = errors.New("conflict")
	ErrState      = errors.New("invalid state")
	ErrSignature  = errors.New("signature mismatch")
	ErrUpstream   = errors.New("upstream failure")
)

// Stable machine-readable codes surfaced to API clients.
const (
	CodeValidation         = "VALIDATION"
	CodeNotFound           = "NOT_FOUND"
	CodeForbidden          = "FORBIDDEN"
	CodeSlotUnavailable    = "SLOT_UNAVAILABLE"
	CodeConflictAtApproval = "CONFLICT_AT_APPROVAL"
	CodeBlockOverlap       = "BLOCK_OVERLAP"
	CodeAlreadyDecided     = "ALREADY_DECIDED"
	CodeExpired            = "EXPIRED"
	CodeInvalidState       = "INVALID_STATE"
	CodeSignatureMismatch  = "SIGNATURE_MISMATCH"
	CodeUpstream           = "UPSTREAM"
	CodeCouponBelowMin     = "COUPON_BELOW_MINIMUM"
	CodeCouponExpired      = "COUPON_EXPIRED"
)

// DomainError is the error type crossing the application boundary. Code is
// stable for machine consumption, Message is for humans.
type DomainError struct {
	Code    string
	Message string
	Err     error
}

func (e *DomainError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *DomainError) Unwrap() error { return e.Err }

// NewValidationError reports malformed input rejected before touching storage.
func NewValidationError(message string) *DomainError {
	return &DomainError{Code: CodeValidation, Message: message, Err: ErrValidation}
}

// NewNotFoundError reports an absent resource.
func NewNotFoundError(resource, id string) *DomainError {
	return &DomainError{
		Code:    CodeNotFound,
		Message: fmt.Sprintf("%s %s not found", resource, id),
		Err:     ErrNotFound,
	}
}

// NewForbiddenError reports an actor acting on a resource it does not own.
func NewForbiddenError(message string) *DomainError {
	return &DomainError{Code: CodeForbidden, Message: message, Err: ErrForbidden}
}

// NewConflictError reports a mutual-exclusion loss with a specific code
// (SLOT_UNAVAILABLE, CONFLICT_AT_APPROVAL, BLOCK_OVERLAP).
func NewConflictError(code, message string) *DomainError {
	return &DomainError{Code: code, Message: message, Err: ErrConflict}
}

// NewStateError reports an operation applied in the wrong lifecycle state.
func NewStateError(code, message string) *DomainError {
	return &DomainError{Code: code, Message: message, Err: ErrState}
}

// NewInvalidStateError reports an illegal aggregate transition.
func NewInvalidStateError(from, to string) *DomainError {
	return &DomainError{
		Code:    CodeInvalidState,
		Message: fmt.Sprintf("cannot transition from %s to %s", from, to),
		Err:     ErrState,
	}
}

// NewSignatureError reports a payment callback that failed authenticity
// verification. State is never mutated when this is returned.
func NewSignatureError() *DomainError {
	return &DomainError{
		Code:    CodeSignatureMismatch,
		Message: "payment signature verification failed",
		Err:     ErrSignature,
	}
}

// NewUpstreamError wraps a failure from an external collaborator.
func NewUpstreamError(op string, err error) *DomainError {
	return &DomainError{
		Code:    CodeUpstream,
		Message: fmt.Sprintf("%s failed", op),
		Err:     fmt.Errorf("%w: %s: %v", ErrUpstream, op, err),
	}
}

// CodeOf extracts the machine code from err, or empty when err is not a
// DomainError.
func CodeOf(err error) string {
	var de *DomainError
	if errors.As(err, &de) {
		return de.Code
	}
	return ""
}
