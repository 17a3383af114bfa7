package notify

import (
	"context"
	"errors"
	"strings"
	"time"

	tele "gopkg.in/telebot.v4"
)

// Sender delivers one text message to the configured destination.
type Sender interface {
	Send(ctx context.Context, text string) error
}

// TelegramSender sends messages to a single chat. Outbound only; no
// poller is started, so the bot never consumes updates.
type TelegramSender struct {
	bot  *tele.Bot
	chat *tele.Chat
}

func NewTelegramSender(token string, chatID int64) (*TelegramSender, error) {
	if strings.TrimSpace(token) == "" {
		return nil, errors.New("telegram token is empty")
	}
	if chatID == 0 {
		return nil, errors.New("telegram chat id is empty")
	}
	b, err := tele.NewBot(tele.Settings{Token: token})
	if err != nil {
		return nil, err
	}
	return &TelegramSender{bot: b, chat: &tele.Chat{ID: chatID}}, nil
}

func (t *TelegramSender) Send(ctx context.Context, text string) error {
	if ctx != nil {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
	}
	_, err := t.bot.Send(t.chat, text, &tele.SendOptions{DisableWebPagePreview: true})
	return err
}

// sendTimeout bounds one delivery attempt.
const sendTimeout = 15 * time.Second
