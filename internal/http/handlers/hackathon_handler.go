// Hackathon buddy-finder action handlers.
//
//   - GET  /api/actions/hackathon (descriptor with input parameter)
//   - POST /api/actions/hackathon?input=skill:discord:find:skill
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/dappshunt/actions-backend/internal/actions"
	"github.com/dappshunt/actions-backend/internal/services"
	solanaledger "github.com/dappshunt/actions-backend/internal/solana"
)

// HackathonDescriptor serves the buddy-finder action descriptor.
func (h *Handlers) HackathonDescriptor(c *gin.Context) {
	actionCORS(c)
	base := origin(c)
	ok(c, http.StatusOK, actions.GetResponse{
		Title:       "Hackathon Buddy Finder",
		Icon:        base + "/hackathon.jpg",
		Description: "Enter your details in the format: yourskill:discordusername:find:desiredskill (e.g., frontend:user123:find:backend)",
		Label:       "Find Buddy",
		Links: &actions.Links{
			Actions: []actions.LinkedAction{
				{
					Label: "Find Buddy",
					Href:  base + "/api/actions/hackathon?input={input}",
					Parameters: []actions.Parameter{
						{Name: "input", Label: "Enter in format: yourskill:discordusername:find:desiredskill", Required: true},
					},
				},
			},
		},
	})
}

// HackathonAction parses the matchmaking input, stores or updates the
// profile, runs the match filter, and returns the result message with a
// zero-lamport self-transfer for the client to sign.
func (h *Handlers) HackathonAction(c *gin.Context) {
	actionCORS(c)

	var req actions.PostRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "invalid JSON body")
		return
	}
	input := c.Query("input")
	if input == "" {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "missing required fields")
		return
	}
	account, err := solanaledger.ValidateAddress(req.Account)
	if err != nil {
		fail(c, http.StatusBadRequest, ErrCodeInvalidAccount, "invalid wallet address")
		return
	}

	profile, err := services.ParseMatchInput(input)
	if err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "invalid input format, expected yourskill:discordusername:find:desiredskill")
		return
	}

	ctx := c.Request.Context()
	result, err := h.Matcher.FindBuddy(ctx, *profile)
	if err != nil {
		fail(c, http.StatusInternalServerError, ErrCodeMatchFailed, "failed to run matchmaking")
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

	ok(c, http.StatusOK, actions.PostResponse{
		Transaction: tx.TransactionBase64,
		Message:     result,
	})
}
