package telegram

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"gopkg.in/telebot.v3"

	"cleaner_reminder_service/internal/app"
	domaintelegram "cleaner_reminder_service/internal/domain/telegram"
)

// RunReporter alerts the operator chat when runs start failing (run error or
// failed deliveries) and again when they recover. Consecutive failing runs
// produce a single alert.
type RunReporter struct {
	sender      domaintelegram.Sender
	adminChatID int64
	logger      *logrus.Entry

	mu      sync.Mutex
	failing bool
}

func NewRunReporter(sender domaintelegram.Sender, adminChatID int64, logger *logrus.Entry) *RunReporter {
	return &RunReporter{sender: sender, adminChatID: adminChatID, logger: logger}
}

func (r *RunReporter) ObserveRun(result *app.RunResult, duration time.Duration, err error) {
	failing := err != nil || (result != nil && result.Failed > 0)

	r.mu.Lock()
	wasFailing := r.failing
	r.failing = failing
	r.mu.Unlock()

	switch {
	case failing && !wasFailing:
		r.send(formatAlert(result, duration, err))
	case !failing && wasFailing:
		r.send(formatRecovery(result))
	}
}

func (r *RunReporter) send(text string) {
	if err := r.sender.SendMessage(r.adminChatID, text, &telebot.SendOptions{ParseMode: telebot.ModeHTML}); err != nil {
		r.logger.WithError(err).Error("Failed to send reminder run alert to Telegram")
	}
}

func formatRecovery(result *app.RunResult) string {
	var b strings.Builder
	b.WriteString("✅ <b>Cleaner reminder runs recovered</b>\n")
	if result != nil {
		fmt.Fprintf(&b, "Run: <code>%s</code>\n", result.RunID)
		fmt.Fprintf(&b, "Sent: %d, already sent: %d\n", result.Sent, result.SkippedAlreadySent)
	}
	return b.String()
}

func formatAlert(result *app.RunResult, duration time.Duration, err error) string {
	var b strings.Builder
	b.WriteString("⚠️ <b>Cleaner reminder run needs attention</b>\n")
	if result != nil {
		fmt.Fprintf(&b, "Run: <code>%s</code>\n", result.RunID)
		fmt.Fprintf(&b, "Scanned: %d, matched: %d\n", result.Scanned, result.MatchedOccurrences)
		fmt.Fprintf(&b, "Sent: %d, already sent: %d\n", result.Sent, result.SkippedAlreadySent)
		fmt.Fprintf(&b, "No cleaner: %d, no email: %d, invalid schedule: %d\n",
			result.SkippedNoCleaner, result.SkippedNoEmail, result.SkippedInvalidSchedule)
		fmt.Fprintf(&b, "Failed: <b>%d</b>\n", result.Failed)
	}
	fmt.Fprintf(&b, "Duration: %s\n", duration.Round(time.Millisecond))
	if err != nil {
		fmt.Fprintf(&b, "Error: %s\n", escapeHTML(err.Error()))
	}
	return b.String()
}

var htmlEscaper = strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;")

func escapeHTML(s string) string {
	return htmlEscaper.Replace(s)
}

var _ domaintelegram.Sender = (*TelebotAdapter)(nil)
