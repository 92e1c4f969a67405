// Package notify pushes deal outcome notifications to a user's linked
// Telegram chat.
package notify

import (
	"fmt"
	"log"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

type TelegramNotifier struct {
	bot    *tgbotapi.BotAPI
	dryRun bool
}

// NewTelegramNotifier returns a nil-safe notifier. An empty token makes
// every send a logged no-op so the integration stays optional.
func NewTelegramNotifier(botToken string, dryRun bool) (*TelegramNotifier, error) {
	if botToken == "" {
		return &TelegramNotifier{dryRun: true}, nil
	}
	bot, err := tgbotapi.NewBotAPI(botToken)
	if err != nil {
		return nil, fmt.Errorf("telegram bot init: %w", err)
	}
	return &TelegramNotifier{bot: bot, dryRun: dryRun}, nil
}

func (t *TelegramNotifier) DealOutcome(chatID int64, title string, value float64, won bool, reason string) error {
	if chatID == 0 {
		return nil
	}
	var text string
	if won {
		text = fmt.Sprintf("🎉 Deal won: %s (%.2f)", title, value)
	} else {
		text = fmt.Sprintf("Deal lost: %s (%.2f)\nReason: %s", title, value, reason)
	}
	if t.bot == nil || t.dryRun {
		log.Printf("[tg][dry-run] chat=%d text=%q", chatID, text)
		return nil
	}
	msg := tgbotapi.NewMessage(chatID, text)
	msg.DisableWebPagePreview = true
	if _, err := t.bot.Send(msg); err != nil {
		return fmt.Errorf("telegram send: %w", err)
	}
	return nil
}
