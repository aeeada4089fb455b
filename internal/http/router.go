// Package httpapi wires the HTTP transport (Gin) to application services,
// middleware, and route handlers. It centralizes cross-cutting concerns such
// as tracing, correlation IDs, logging, panic recovery, metrics, CORS,
// security headers, and rate limiting.
//
// Design goals:
//   - Observability first (OTel + Prometheus)
//   - Safe-by-default middleware ordering (RequestID → logging → recovery)
//   - Deterministic, minimal router setup; all dependencies injected
package httpapi

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"gorm.io/gorm"

	"github.com/dappshunt/actions-backend/internal/config"
	"github.com/dappshunt/actions-backend/internal/http/handlers"
	"github.com/dappshunt/actions-backend/internal/http/middleware"
	"github.com/dappshunt/actions-backend/internal/services"
	"github.com/dappshunt/actions-backend/internal/session"
	solanaledger "github.com/dappshunt/actions-backend/internal/solana"
)

// RegisterRoutes attaches all middleware and HTTP endpoints to the given Gin
// engine: observability (tracing, metrics), rate limiting, CORS and security
// headers, health and metrics endpoints, the actions.json manifest, the
// action endpoints, and the Telegram webhook.
//
// Middleware order matters:
//  1. OpenTelemetry: trace everything
//  2. RequestID: generate/propagate correlation id
//  3. Logger: structured access logs
//  4. Recovery: capture panics after logger
//  5. Body size limiter
//  6. Metrics
//  7. Rate limiter (per IP)
//  8. CORS and Security headers
func RegisterRoutes(r *gin.Engine, db *gorm.DB, ledger solanaledger.Ledger, sender handlers.Sender, cfg config.Config) {
	r.HandleMethodNotAllowed = true

	// 1) Trace all HTTP requests
	r.Use(otelgin.Middleware(cfg.OTEL.ServiceName))

	// 2) Correlate requests and logs
	r.Use(middleware.RequestID())

	// 3) Structured access logging
	r.Use(middleware.Logger())

	// 4) Panic recovery to JSON 500 (with request id)
	r.Use(middleware.Recovery())

	// 5) Global body size limit (1 MiB)
	r.Use(limitBody(1 << 20))

	// 6) Prometheus metrics and /metrics endpoint
	r.Use(middleware.Metrics())
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// 7) Token-bucket rate limiter per IP
	rl := middleware.NewRateLimiter(cfg.RateRPS, cfg.RateBurst, middleware.KeyByIP())
	r.Use(rl.Handler())

	// 8) CORS posture. Action endpoints additionally set the Actions
	// protocol headers themselves; the global layer covers everything else.
	if len(cfg.CORS.AllowedOrigins) == 0 {
		r.Use(func(c *gin.Context) {
			c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
			c.Next()
		})
		r.Use(cors.New(cors.Config{
			AllowAllOrigins:  true,
			AllowMethods:     []string{"GET", "POST", "PUT", "OPTIONS"},
			AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization", "Content-Encoding", "Accept-Encoding"},
			ExposeHeaders:    []string{"X-Request-ID", "Content-Length"},
			AllowCredentials: false, // must remain false with AllowAllOrigins
			MaxAge:           12 * time.Hour,
		}))
	} else {
		r.Use(cors.New(cors.Config{
			AllowOrigins:     cfg.CORS.AllowedOrigins,
			AllowMethods:     []string{"GET", "POST", "PUT", "OPTIONS"},
			AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization", "Content-Encoding", "Accept-Encoding"},
			ExposeHeaders:    []string{"X-Request-ID", "Content-Length"},
			AllowCredentials: false,
			MaxAge:           12 * time.Hour,
		}))
	}

	// Security headers (HSTS only when enabled and request is HTTPS)
	r.Use(middleware.SecurityHeaders(middleware.SecurityOptions{
		EnableHSTS:   cfg.Security.EnableHSTS,
		HSTSMaxAge:   cfg.Security.HSTSMaxAge,
		NoStore:      false,
		EnablePolicy: true,
	}))

	// Fallbacks
	r.NoRoute(func(c *gin.Context) {
		handlers.Fail(c, http.StatusNotFound, handlers.ErrCodeNotFound, "route not found")
	})
	r.NoMethod(func(c *gin.Context) {
		handlers.Fail(c, http.StatusMethodNotAllowed, handlers.ErrCodeMethodNotAllowed, "method not allowed")
	})

	// Liveness/health
	r.GET("/health", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"status": "ok"}) })

	// Dependency injection: services ← repo/db/ledger
	verifier := &services.PaymentVerifier{Ledger: ledger}
	couponSvc := &services.CouponService{
		DB:             db,
		Verifier:       verifier,
		Recipient:      cfg.Solana.RecipientAddress,
		AmountLamports: cfg.Solana.PaymentLamports,
		MaxAttempts:    cfg.MaxAttempts,
		ExpiryWindow:   cfg.ExpiryWindow,
	}
	machine := &session.Machine{
		Store:         session.NewMemoryStore(),
		Coupons:       couponSvc,
		CollectWallet: cfg.Telegram.CollectWallet,
		RewardURL:     cfg.Telegram.RewardURL,
	}

	h := &handlers.Handlers{
		Coupons:            couponSvc,
		Analyzer:           &services.AnalyzeService{Ledger: ledger},
		Jobs:               &services.JobService{DB: db},
		Matcher:            &services.MatchService{DB: db},
		Machine:            machine,
		Sender:             sender,
		Ledger:             ledger,
		Recipient:          cfg.Solana.RecipientAddress,
		PaymentLamports:    cfg.Solana.PaymentLamports,
		AnalyzeFeeLamports: cfg.Solana.AnalyzeFeeLamports,
	}

	// Blink manifest
	r.GET("/actions.json", handlers.Manifest)
	r.OPTIONS("/actions.json", handlers.Manifest)

	// Action endpoints
	api := r.Group("/api")
	{
		act := api.Group("/actions")
		{
			act.GET("/coupon", h.CouponDescriptor)
			act.POST("/coupon", h.CouponAction)
			act.OPTIONS("/coupon", handlers.ActionOptions)

			act.GET("/analyze", h.AnalyzeDescriptor)
			act.POST("/analyze", h.AnalyzeAction)
			act.OPTIONS("/analyze", handlers.ActionOptions)

			act.GET("/job", h.JobDescriptor)
			act.POST("/job", h.JobAction)
			act.OPTIONS("/job", handlers.ActionOptions)

			act.GET("/hackathon", h.HackathonDescriptor)
			act.POST("/hackathon", h.HackathonAction)
			act.OPTIONS("/hackathon", handlers.ActionOptions)
		}

		// Telegram webhook
		api.GET("/webhook", handlers.WebhookStatus)
		api.POST("/webhook", h.Webhook)
	}
}

// limitBody returns a Gin middleware that caps the request body size for all
// endpoints using http.MaxBytesReader. Requests exceeding the cap cause
// downstream body reads to error.
func limitBody(maxBytes int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes)
		c.Next()
	}
}
