// Package middleware contains shared Gin middleware used by the HTTP layer.
//
// This file provides SecurityHeaders, a hardening middleware suited to a JSON
// API behind a reverse proxy. HSTS is opt-in and only emitted on HTTPS
// requests; no CSP is set since no HTML is served.
package middleware

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
)

// SecurityOptions configures the headers emitted by SecurityHeaders.
type SecurityOptions struct {
	// EnableHSTS emits Strict-Transport-Security for HTTPS requests. Only
	// enable when traffic is HTTPS end-to-end, including proxy to app.
	EnableHSTS bool
	// HSTSMaxAge is the HSTS lifetime; defaults to 180 days when unset.
	HSTSMaxAge time.Duration
	// NoStore adds Cache-Control: no-store for sensitive responses.
	NoStore bool
	// EnablePolicy includes browser feature policies (Permissions-Policy).
	EnablePolicy bool
}

// SecurityHeaders returns a Gin middleware that attaches conservative HTTP
// security headers: nosniff, frame denial, and referrer suppression always;
// feature policies, no-store caching, and HSTS per SecurityOptions. When
// X-Request-ID is present it is exposed to browser clients.
func SecurityHeaders(opt SecurityOptions) gin.HandlerFunc {
	maxAge := int(opt.HSTSMaxAge.Seconds())
	if maxAge <= 0 {
		maxAge = int((180 * 24 * time.Hour).Seconds())
	}
	return func(c *gin.Context) {
		h := c.Writer.Header()

		h.Set("X-Content-Type-Options", "nosniff")
		h.Set("X-Frame-Options", "DENY")
		h.Set("Referrer-Policy", "no-referrer")

		if opt.EnablePolicy {
			h.Set("Permissions-Policy", "geolocation=(), microphone=(), camera=(), payment=()")
			h.Set("X-Permitted-Cross-Domain-Policies", "none")
		}

		if opt.NoStore {
			h.Set("Cache-Control", "no-store")
			h.Set("Pragma", "no-cache")
			h.Set("Expires", "0")
		}

		if opt.EnableHSTS && isHTTPS(c.Request) {
			h.Set("Strict-Transport-Security",
				"max-age="+strconv.Itoa(maxAge)+"; includeSubDomains; preload")
		}

		if rid := h.Get("X-Request-ID"); rid != "" {
			const hdr = "Access-Control-Expose-Headers"
			cur := h.Get(hdr)
			if cur == "" {
				h.Set(hdr, "X-Request-ID")
			} else if !strings.Contains(cur, "X-Request-ID") {
				h.Set(hdr, cur+", X-Request-ID")
			}
		}

		c.Next()
	}
}

// isHTTPS reports whether the request used HTTPS directly or arrived through
// a proxy that set X-Forwarded-Proto: https.
func isHTTPS(r *http.Request) bool {
	if r.TLS != nil {
		return true
	}
	return strings.EqualFold(r.Header.Get("X-Forwarded-Proto"), "https")
}
