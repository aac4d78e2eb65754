package notification

import (
	"context"
	"fmt"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// Sender is the part of tgbotapi.BotAPI the notifier uses.
type Sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

// TelegramNotifier posts admin-facing events to one chat.
type TelegramNotifier struct {
	bot    Sender
	chatID int64
	kinds  map[EventKind]bool
}

// NewTelegramNotifier connects a bot. Only the listed kinds are posted; with
// none listed every event is.
func NewTelegramNotifier(token string, chatID int64, kinds ...EventKind) (*TelegramNotifier, error) {
	bot, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("failed to connect telegram bot: %w", err)
	}
	return NewTelegramNotifierWithSender(bot, chatID, kinds...), nil
}

func NewTelegramNotifierWithSender(bot Sender, chatID int64, kinds ...EventKind) *TelegramNotifier {
	n := &TelegramNotifier{bot: bot, chatID: chatID}
	if len(kinds) > 0 {
		n.kinds = make(map[EventKind]bool, len(kinds))
		for _, k := range kinds {
			n.kinds[k] = true
		}
	}
	return n
}

func (n *TelegramNotifier) Notify(ctx context.Context, e Event) error {
	if n.kinds != nil && !n.kinds[e.Kind] {
		return nil
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	msg := tgbotapi.NewMessage(n.chatID, e.Text())
	if _, err := n.bot.Send(msg); err != nil {
		return fmt.Errorf("telegram send: %w", err)
	}
	return nil
}
