// Telegram webhook handlers.
//
//   - POST /api/webhook (Bot API update dispatch into the redemption session)
//   - GET  /api/webhook (liveness message for webhook registration checks)
//
// The Bot API retries undelivered updates, so POST acknowledges with 200 for
// every update it managed to decode, even when reply delivery fails; only an
// unreadable payload produces an error status.
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/dappshunt/actions-backend/internal/http/middleware"
)

// WebhookStatus answers GET probes against the webhook URL.
func WebhookStatus(c *gin.Context) {
	ok(c, http.StatusOK, gin.H{"message": "Webhook is active"})
}

// Webhook receives one Telegram update, routes its text through the session
// machine, and sends the reply back to the chat.
func (h *Handlers) Webhook(c *gin.Context) {
	var update tgbotapi.Update
	if err := c.ShouldBindJSON(&update); err != nil {
		fail(c, http.StatusInternalServerError, ErrCodeInternal, "Internal Server Error")
		return
	}

	// Non-message updates (edits, callbacks, joins) are acknowledged and
	// dropped; the conversation only advances on plain text.
	if update.Message == nil || update.Message.Text == "" {
		ok(c, http.StatusOK, gin.H{"ok": true})
		return
	}

	chatID := update.Message.Chat.ID
	reply := h.Machine.Handle(c.Request.Context(), chatID, update.Message.Text)

	if err := h.Sender.Send(chatID, reply); err != nil {
		lg := middleware.LoggerFrom(c)
		lg.Error().Err(err).Int64("chat_id", chatID).Msg("telegram send failed")
	}
	ok(c, http.StatusOK, gin.H{"ok": true})
}
