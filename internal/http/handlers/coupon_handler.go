// Coupon action handlers.
//
// This file exposes the coupon purchase Blink:
//   - GET     /api/actions/coupon              (action descriptor)
//   - POST    /api/actions/coupon              (build payment tx + issue coupon)
//   - POST    /api/actions/coupon?webhook=true (verify payment, activate coupon)
//   - OPTIONS /api/actions/coupon              (protocol preflight)
//
// Handlers are transport-thin: they validate input, call application services,
// and translate results into HTTP responses with the Actions protocol CORS
// headers attached.
package handlers

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/dappshunt/actions-backend/internal/actions"
	"github.com/dappshunt/actions-backend/internal/domain"
	"github.com/dappshunt/actions-backend/internal/services"
	solanaledger "github.com/dappshunt/actions-backend/internal/solana"
)

//
// Service contracts (context-aware)
//

// CouponService defines the coupon operations consumed by HTTP handlers.
//
// Implementations should be safe for concurrent use and must honor the
// provided context for cancellation and timeouts.
type CouponService interface {
	// Issue generates a unique coupon code for the paying account.
	Issue(ctx context.Context, userAccount string) (*domain.Coupon, error)
	// ActivateOnPayment verifies a payment signature and activates the
	// payer's coupon, issuing one first when none is pending.
	ActivateOnPayment(ctx context.Context, signature string) (*domain.Coupon, error)
}

// AnalyzeService produces the wallet activity report behind the analyze action.
type AnalyzeService interface {
	Analyze(ctx context.Context, account string) (*services.WalletReport, error)
}

// JobService records job-board profile submissions.
type JobService interface {
	Submit(ctx context.Context, walletAddress, profileLink string) (*domain.JobSubmission, error)
}

// MatchService runs hackathon buddy matchmaking and returns the user-facing
// result message.
type MatchService interface {
	FindBuddy(ctx context.Context, p services.MatchProfile) (string, error)
}

// SessionMachine advances one redemption conversation per inbound message.
type SessionMachine interface {
	Handle(ctx context.Context, chatID int64, text string) string
}

// Sender delivers a reply to a chat. The production implementation wraps the
// Telegram Bot API.
type Sender interface {
	Send(chatID int64, text string) error
}

//
// Handler wiring
//

// Handlers groups the HTTP endpoints for actions, the manifest, and the
// Telegram webhook. It depends on abstract service interfaces to keep
// transport concerns separate from business logic.
type Handlers struct {
	Coupons  CouponService
	Analyzer AnalyzeService
	Jobs     JobService
	Matcher  MatchService
	Machine  SessionMachine
	Sender   Sender

	// Ledger supplies blockhashes and fee estimates for transaction building.
	Ledger solanaledger.Ledger

	// Recipient receives coupon payments and analyze fees.
	Recipient string
	// PaymentLamports is the coupon price.
	PaymentLamports uint64
	// AnalyzeFeeLamports is the analyze action fee.
	AnalyzeFeeLamports uint64
}

// origin reconstructs the external origin of the request (scheme + host),
// honoring X-Forwarded-Proto when set by a reverse proxy. Used to build
// absolute icon and action URLs in descriptors.
func origin(c *gin.Context) string {
	scheme := "http"
	if c.Request.TLS != nil || strings.EqualFold(c.GetHeader("X-Forwarded-Proto"), "https") {
		scheme = "https"
	}
	return scheme + "://" + c.Request.Host
}

// solAmount renders a lamport amount as a decimal SOL string without
// trailing zeros (5800000 -> "0.0058").
func solAmount(lamports uint64) string {
	return strconv.FormatFloat(float64(lamports)/solanaledger.LamportsPerSOL, 'f', -1, 64)
}

//
// DTOs
//

// WebhookActivateRequest is the JSON payload of the payment-webhook branch.
type WebhookActivateRequest struct {
	// Signature of the confirmed payment transaction.
	Signature string `json:"signature"`
}

// WebhookActivateResponse returns the activated coupon code.
type WebhookActivateResponse struct {
	Code string `json:"code"`
}

//
// Handlers
//

// CouponDescriptor serves the coupon action descriptor.
func (h *Handlers) CouponDescriptor(c *gin.Context) {
	actionCORS(c)
	ok(c, http.StatusOK, actions.GetResponse{
		Title:       "Generate Coupon",
		Icon:        origin(c) + "/coupon.png",
		Description: "Pay " + solAmount(h.PaymentLamports) + " SOL to generate a unique coupon code and redeem it for the report on our Telegram channel",
		Label:       "Generate Coupon",
	})
}

// CouponAction handles POST on the coupon action. The ?webhook=true variant
// activates an existing coupon from a confirmed payment; the default variant
// issues a fresh coupon and returns the unsigned payment transaction.
func (h *Handlers) CouponAction(c *gin.Context) {
	actionCORS(c)

	if c.Query("webhook") == "true" {
		h.couponWebhook(c)
		return
	}

	var req actions.PostRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "invalid JSON body")
		return
	}
	account, err := solanaledger.ValidateAddress(req.Account)
	if err != nil {
		fail(c, http.StatusBadRequest, ErrCodeInvalidAccount, `invalid "account" provided`)
		return
	}

	ctx := c.Request.Context()
	blockhash, err := h.Ledger.LatestBlockhash(ctx)
	if err != nil {
		fail(c, http.StatusBadGateway, ErrCodeInternal, "ledger unavailable")
		return
	}
	tx, err := solanaledger.BuildTransfer(account, h.Recipient, h.PaymentLamports, blockhash)
	if err != nil {
		fail(c, http.StatusInternalServerError, ErrCodeInternal, "failed to build transaction")
		return
	}

	coupon, err := h.Coupons.Issue(ctx, account)
	switch {
	case err == nil:
	case errors.Is(err, services.ErrExhaustedRetries):
		fail(c, http.StatusBadRequest, ErrCodeIssueFailed, "failed to generate a unique code")
		return
	default:
		fail(c, http.StatusInternalServerError, ErrCodeIssueFailed, "failed to generate a unique code")
		return
	}

	ok(c, http.StatusOK, actions.PostResponse{
		Transaction: tx.TransactionBase64,
		Message:     "Your coupon code is: " + coupon.Code,
	})
}

// couponWebhook verifies the payment signature and activates the coupon.
func (h *Handlers) couponWebhook(c *gin.Context) {
	var req WebhookActivateRequest
	if err := c.ShouldBindJSON(&req); err != nil || strings.TrimSpace(req.Signature) == "" {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "missing transaction signature")
		return
	}
	sig, err := solanaledger.ValidateSignature(req.Signature)
	if err != nil {
		fail(c, http.StatusBadRequest, ErrCodeInvalidSignature, "invalid transaction signature")
		return
	}

	coupon, err := h.Coupons.ActivateOnPayment(c.Request.Context(), sig)
	switch {
	case err == nil:
		ok(c, http.StatusOK, WebhookActivateResponse{Code: coupon.Code})
	case errors.Is(err, services.ErrVerificationFailed):
		fail(c, http.StatusBadRequest, ErrCodeVerificationFailed, "invalid transaction details")
	default:
		fail(c, http.StatusInternalServerError, ErrCodeInternal, "failed to activate coupon")
	}
}
