// Package telegram provides the production reply sender for the coupon
// redemption webhook, backed by the Telegram Bot API.
package telegram

import (
	"fmt"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// BotSender delivers replies through the Bot API. It satisfies the Sender
// interface consumed by the webhook handler.
type BotSender struct {
	bot *tgbotapi.BotAPI
}

// NewBotSender authenticates against the Bot API with the given token.
func NewBotSender(token string) (*BotSender, error) {
	bot, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("telegram auth: %w", err)
	}
	return &BotSender{bot: bot}, nil
}

// Send delivers text to chatID.
func (s *BotSender) Send(chatID int64, text string) error {
	if _, err := s.bot.Send(tgbotapi.NewMessage(chatID, text)); err != nil {
		return fmt.Errorf("telegram send: %w", err)
	}
	return nil
}
