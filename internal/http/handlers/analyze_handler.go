// Wallet analyzer action handlers.
//
//   - GET  /api/actions/analyze (descriptor)
//   - POST /api/actions/analyze (activity heuristics + fee transfer)
package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/dappshunt/actions-backend/internal/actions"
	"github.com/dappshunt/actions-backend/internal/services"
	solanaledger "github.com/dappshunt/actions-backend/internal/solana"
)

// AnalyzeDescriptor serves the wallet analyzer action descriptor.
func (h *Handlers) AnalyzeDescriptor(c *gin.Context) {
	actionCORS(c)
	ok(c, http.StatusOK, actions.GetResponse{
		Title:       "Wallet Analyzer",
		Icon:        origin(c) + "/wallet.jpg",
		Description: "Analyze your wallet and get a personalized avatar!",
		Label:       "Analyze Wallet",
	})
}

// AnalyzeAction runs the activity heuristics for the posted account and
// returns the avatar summary together with the unsigned fee transaction.
func (h *Handlers) AnalyzeAction(c *gin.Context) {
	actionCORS(c)

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
	report, err := h.Analyzer.Analyze(ctx, account)
	if err != nil {
		fail(c, http.StatusBadGateway, ErrCodeAnalyzeFailed, "an error occurred during analysis")
		return
	}

	blockhash, err := h.Ledger.LatestBlockhash(ctx)
	if err != nil {
		fail(c, http.StatusBadGateway, ErrCodeInternal, "ledger unavailable")
		return
	}
	tx, err := solanaledger.BuildTransfer(account, h.Recipient, h.AnalyzeFeeLamports, blockhash)
	if err != nil {
		fail(c, http.StatusInternalServerError, ErrCodeInternal, "failed to build transaction")
		return
	}

	ok(c, http.StatusOK, actions.PostResponse{
		Transaction: tx.TransactionBase64,
		Message:     analyzeMessage(report),
	})
}

// analyzeMessage renders the avatar and trait list for the action client.
func analyzeMessage(r *services.WalletReport) string {
	var b strings.Builder
	b.WriteString("Your wallet avatar is: ")
	b.WriteString(r.Avatar)
	b.WriteString("\n\nTraits:")
	for _, t := range r.Traits {
		b.WriteString("\n- ")
		b.WriteString(t)
	}
	return b.String()
}
