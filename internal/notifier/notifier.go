// Package notifier delivers generated reminders outside the in-app inbox.
package notifier

import (
	"context"
	"fmt"
	"html"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"taskhub/internal/model"
)

const titleLimit = 80

// sender is the part of *tgbotapi.BotAPI the notifier uses.
type sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

// Telegram posts reminders to one chat.
type Telegram struct {
	api    sender
	chatID int64
}

func NewTelegram(token string, chatID int64, log *zap.Logger) (*Telegram, error) {
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("create bot api: %w", err)
	}
	if log != nil {
		log.Info("telegram notifier authorized", zap.String("account", api.Self.UserName), zap.Int64("chat_id", chatID))
	}
	return &Telegram{api: api, chatID: chatID}, nil
}

func (t *Telegram) Name() string { return "telegram" }

func (t *Telegram) Notify(ctx context.Context, n model.Notification) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	msg := tgbotapi.NewMessage(t.chatID, formatMessage(n))
	msg.ParseMode = tgbotapi.ModeHTML
	if _, err := t.api.Send(msg); err != nil {
		return fmt.Errorf("send to chat %d: %w", t.chatID, err)
	}
	return nil
}

func formatMessage(n model.Notification) string {
	var sb strings.Builder
	sb.WriteString("⏰ <b>")
	sb.WriteString(html.EscapeString(shortTitle(n.Title, titleLimit)))
	sb.WriteString("</b>")
	if content := strings.TrimSpace(n.Content); content != "" {
		sb.WriteString("\n")
		sb.WriteString(html.EscapeString(content))
	}
	return sb.String()
}

func shortTitle(title string, maxLen int) string {
	clean := strings.Join(strings.Fields(title), " ")
	runes := []rune(clean)
	if len(runes) <= maxLen {
		return clean
	}
	if maxLen <= 1 {
		return string(runes[:maxLen])
	}
	return string(runes[:maxLen-1]) + "…"
}

// Log writes reminders to the application log. It is always enabled.
type Log struct {
	log *zap.Logger
}

func NewLog(log *zap.Logger) *Log {
	if log == nil {
		log = zap.NewNop()
	}
	return &Log{log: log.Named("notifier")}
}

func (l *Log) Name() string { return "log" }

func (l *Log) Notify(_ context.Context, n model.Notification) error {
	l.log.Info("reminder",
		zap.Int64("notification_id", n.ID),
		zap.Int64("account_id", n.AccountID),
		zap.Int64("user_id", n.UserID),
		zap.Int64("task_id", n.TaskID),
		zap.String("title", n.Title))
	return nil
}
