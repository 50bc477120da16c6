// Package notify delivers operator alerts. Delivery is best-effort and never
// blocks the pipeline.
package notify

import (
	"context"
	"fmt"
	"log"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/skadziol/sando-seer/internal/domain"
	"github.com/skadziol/sando-seer/internal/executor"
)

// Notifier delivers one operator message.
type Notifier interface {
	Notify(ctx context.Context, message string)
}

// LogNotifier writes notifications to the process log. Used as the fallback
// when no external channel is configured.
type LogNotifier struct {
	logger *log.Logger
}

// NewLogNotifier creates a log-backed notifier.
func NewLogNotifier(logger *log.Logger) *LogNotifier {
	if logger == nil {
		logger = log.Default()
	}
	return &LogNotifier{logger: logger}
}

// Notify logs the message.
func (n *LogNotifier) Notify(_ context.Context, message string) {
	n.logger.Printf("[notify] %s", message)
}

// TelegramNotifier sends messages to a Telegram chat. Failures are logged
// and retried once; a dead bot never stalls execution.
type TelegramNotifier struct {
	bot    *tgbotapi.BotAPI
	chatID int64
	logger *log.Logger
}

// NewTelegramNotifier creates a Telegram notifier.
func NewTelegramNotifier(token string, chatID int64, logger *log.Logger) (*TelegramNotifier, error) {
	if logger == nil {
		logger = log.Default()
	}
	bot, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("create telegram bot: %w", err)
	}
	return &TelegramNotifier{bot: bot, chatID: chatID, logger: logger}, nil
}

// Notify sends the message, retrying once on failure.
func (n *TelegramNotifier) Notify(ctx context.Context, message string) {
	msg := tgbotapi.NewMessage(n.chatID, message)
	msg.ParseMode = tgbotapi.ModeMarkdown

	for attempt := 0; attempt < 2; attempt++ {
		if _, err := n.bot.Send(msg); err == nil {
			return
		} else if attempt == 0 {
			n.logger.Printf("[notify] telegram send failed, retrying: %v", err)
			select {
			case <-time.After(time.Second):
			case <-ctx.Done():
				return
			}
		} else {
			n.logger.Printf("[notify] telegram send failed: %v", err)
		}
	}
}

// FormatOutcome renders one outcome as an operator message.
func FormatOutcome(o *domain.Outcome) string {
	var header string
	switch o.State {
	case domain.AttemptConfirmed:
		header = fmt.Sprintf("✅ %s confirmed on %s", o.Kind, o.Venue)
	case domain.AttemptReverted:
		header = fmt.Sprintf("❌ %s reverted on %s", o.Kind, o.Venue)
	case domain.AttemptExpired:
		header = fmt.Sprintf("⌛ %s expired on %s", o.Kind, o.Venue)
	default:
		header = fmt.Sprintf("🚫 %s aborted on %s", o.Kind, o.Venue)
	}
	return fmt.Sprintf("%s\nexpected %.6f SOL, realized %.6f SOL\nattempt `%s`",
		header, o.ExpectedProfit, o.RealizedProfit, o.AttemptID)
}

// FormatFeedDown renders the feed failure alert.
func FormatFeedDown(err error) string {
	return fmt.Sprintf("🛑 feed down, pipeline halting: %v", err)
}

// FormatAdmission renders an admission notice for a new attempt.
func FormatAdmission(att *domain.ExecutionAttempt) string {
	cand := att.Scored.Candidate
	pair := ""
	if len(cand.Legs) > 0 {
		pair = fmt.Sprintf(" %s→%s",
			executor.TokenSymbol(cand.Legs[0].TokenIn),
			executor.TokenSymbol(cand.Legs[0].TokenOut))
	}
	return fmt.Sprintf("🎯 executing %s on %s%s\nexpected %.6f SOL at %.0f%% confidence",
		cand.Kind, cand.Venue, pair, att.Scored.ExpectedProfit, att.Scored.Confidence*100)
}
