// Package handlers provides HTTP handler implementations for the public API.
//
// This file defines the response utilities shared across all endpoints:
// the structured error envelope, the protocol CORS helper for action
// endpoints, and small helpers for consistent JSON success responses.
//
// Conventions:
//   - All error responses return an ErrorResponse with a stable `code`.
//   - `fail()` centralizes error logging and formatting; 5xx responses are
//     logged with request context.
//   - Action endpoints (Blinks) always carry the protocol CORS headers, on
//     success and on failure alike, so wallet clients can read the body.
//
// Example error response:
//
//	HTTP/1.1 404 Not Found
//	{
//	  "request_id": "123e4567-e89b-12d3-a456-426614174000",
//	  "code": "not_found",
//	  "message": "coupon not found"
//	}
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/dappshunt/actions-backend/internal/actions"
	"github.com/dappshunt/actions-backend/internal/http/middleware"
)

// ErrorResponse is the standard error envelope returned by all endpoints.
//
// RequestID correlates server logs with client-side errors; Code is a stable
// machine-readable string (see errors.go); Message is safe to display.
type ErrorResponse struct {
	RequestID string `json:"request_id,omitempty"`
	Code      string `json:"code"`
	Message   string `json:"message"`
}

// fail aborts the request with a structured error and logs server-side errors.
func fail(c *gin.Context, status int, code, msg string) {
	reqID := c.Writer.Header().Get("X-Request-ID")
	resp := ErrorResponse{
		RequestID: reqID,
		Code:      code,
		Message:   msg,
	}

	if status >= http.StatusInternalServerError {
		lg := middleware.LoggerFrom(c)
		lg.Error().
			Int("status", status).
			Str("code", code).
			Str("message", msg).
			Msg("api error")
	}

	c.AbortWithStatusJSON(status, resp)
}

// Fail is the exported variant of fail(), for router-level fallbacks
// (NoRoute/NoMethod).
func Fail(c *gin.Context, status int, code, msg string) { fail(c, status, code, msg) }

// ok writes a success JSON response.
func ok(c *gin.Context, status int, body any) {
	c.JSON(status, body)
}

// actionCORS sets the Solana Actions protocol CORS headers on the response.
// Call it first in every action handler, including error paths.
func actionCORS(c *gin.Context) {
	h := c.Writer.Header()
	for k, v := range actions.CORSHeaders {
		h.Set(k, v)
	}
}

// ActionOptions answers CORS preflight for action endpoints with no body.
func ActionOptions(c *gin.Context) {
	actionCORS(c)
	c.Status(http.StatusNoContent)
}
