// Package handlers defines HTTP-layer error codes used across all API endpoints.
//
// Codes are lowercase snake_case and stable: clients branch on them for
// programmatic handling, with the HTTP status carrying the broad semantics
// and the code the specific cause.
package handlers

const (
	ErrCodeBadRequest  = "bad_request"
	ErrCodeNotFound    = "not_found"
	ErrCodeConflict    = "conflict"
	ErrCodeGone        = "gone"
	ErrCodeRateLimited = "too_many_requests"
	ErrCodeInternal    = "internal_error"

	// Domain-specific:
	ErrCodeInvalidAccount     = "invalid_account"
	ErrCodeInvalidSignature   = "invalid_signature"
	ErrCodeVerificationFailed = "verification_failed"
	ErrCodeIssueFailed        = "issue_failed"
	ErrCodeAnalyzeFailed      = "analyze_failed"
	ErrCodeSubmitFailed       = "submit_failed"
	ErrCodeMatchFailed        = "match_failed"
	ErrCodeMethodNotAllowed   = "method_not_allowed"
)
