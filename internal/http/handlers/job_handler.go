// Job-board action handlers.
//
//   - GET  /api/actions/job (descriptor with profileLink parameter)
//   - POST /api/actions/job?profileLink=… (validate, dedupe by wallet, store)
package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/dappshunt/actions-backend/internal/actions"
	"github.com/dappshunt/actions-backend/internal/services"
	solanaledger "github.com/dappshunt/actions-backend/internal/solana"
)

// JobDescriptor serves the job-board action descriptor.
func (h *Handlers) JobDescriptor(c *gin.Context) {
	actionCORS(c)
	base := origin(c)
	ok(c, http.StatusOK, actions.GetResponse{
		Title:       "We are Hiring Devs",
		Icon:        base + "/job.jpg",
		Description: "Submit your Superteam or GitHub profile to create awesome blinks!",
		Label:       "Submit Profile",
		Links: &actions.Links{
			Actions: []actions.LinkedAction{
				{
					Label: "Submit Profile",
					Href:  base + "/api/actions/job?profileLink={profileLink}",
					Parameters: []actions.Parameter{
						{Name: "profileLink", Label: "link of Superteam Earn / GitHub", Required: true},
					},
				},
			},
		},
	})
}

// JobAction validates and stores a profile submission, then returns a
// zero-lamport self-transfer whose message carries the estimated fee.
func (h *Handlers) JobAction(c *gin.Context) {
	actionCORS(c)

	var req actions.PostRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "invalid JSON body")
		return
	}
	profileLink := c.Query("profileLink")
	if profileLink == "" {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "missing required fields")
		return
	}
	account, err := solanaledger.ValidateAddress(req.Account)
	if err != nil {
		fail(c, http.StatusBadRequest, ErrCodeInvalidAccount, "invalid wallet address")
		return
	}

	ctx := c.Request.Context()
	if _, err := h.Jobs.Submit(ctx, account, profileLink); err != nil {
		switch {
		case errors.Is(err, services.ErrInvalidProfileLink):
			fail(c, http.StatusBadRequest, ErrCodeBadRequest, "invalid profile link")
		case errors.Is(err, services.ErrProfileExists):
			fail(c, http.StatusConflict, ErrCodeConflict, "profile already exists for this wallet address")
		default:
			fail(c, http.StatusInternalServerError, ErrCodeSubmitFailed, "failed to store submission")
		}
		return
	}

	blockhash, err := h.Ledger.LatestBlockhash(ctx)
	if err != nil {
		fail(c, http.StatusBadGateway, ErrCodeInternal, "ledger unavailable")
		return
	}
	tx, err := solanaledger.BuildTransfer(account, account, 0, blockhash)
	if err != nil {
		fail(c, http.StatusInternalServerError, ErrCodeInternal, "failed to build transaction")
		return
	}
	fee, err := h.Ledger.FeeForMessage(ctx, tx.MessageBase64)
	if err != nil {
		fail(c, http.StatusBadGateway, ErrCodeInternal, "failed to estimate the transaction fee")
		return
	}

	feeSOL := strconv.FormatFloat(float64(fee)/solanaledger.LamportsPerSOL, 'f', -1, 64)
	ok(c, http.StatusOK, actions.PostResponse{
		Transaction: tx.TransactionBase64,
		Message:     "Your application has been received. Estimated transaction fee: " + feeSOL + " SOL. Thank you for submitting!",
	})
}
