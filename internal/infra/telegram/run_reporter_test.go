package telegram

import (
	"errors"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	logtest "github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/telebot.v3"

	"cleaner_reminder_service/internal/app"
)

type sentMessage struct {
	chatID int64
	text   string
	opts   *telebot.SendOptions
}

type fakeClient struct {
	sent []sentMessage
	err  error
}

func (c *fakeClient) SendMessage(chatID int64, text string, opts *telebot.SendOptions) error {
	c.sent = append(c.sent, sentMessage{chatID: chatID, text: text, opts: opts})
	return c.err
}

func newTestReporter(client *fakeClient) (*RunReporter, *logtest.Hook) {
	logger, hook := logtest.NewNullLogger()
	return NewRunReporter(client, 42, logrus.NewEntry(logger)), hook
}

func TestRunReporterStaysSilentOnCleanRun(t *testing.T) {
	client := &fakeClient{}
	r, _ := newTestReporter(client)

	r.ObserveRun(&app.RunResult{RunID: "r1", Sent: 3}, time.Second, nil)

	assert.Empty(t, client.sent)
}

func TestRunReporterAlertsOnFailedDeliveries(t *testing.T) {
	client := &fakeClient{}
	r, _ := newTestReporter(client)

	r.ObserveRun(&app.RunResult{RunID: "r2", Scanned: 4, Sent: 1, Failed: 2}, 1500*time.Millisecond, nil)

	require.Len(t, client.sent, 1)
	msg := client.sent[0]
	assert.Equal(t, int64(42), msg.chatID)
	assert.Equal(t, telebot.ModeHTML, msg.opts.ParseMode)
	assert.Contains(t, msg.text, "<code>r2</code>")
	assert.Contains(t, msg.text, "Failed: <b>2</b>")
	assert.Contains(t, msg.text, "Duration: 1.5s")
}

func TestRunReporterAlertsOnRunError(t *testing.T) {
	client := &fakeClient{}
	r, _ := newTestReporter(client)

	r.ObserveRun(nil, time.Second, errors.New("failed to load <quotes>"))

	require.Len(t, client.sent, 1)
	assert.Contains(t, client.sent[0].text, "Error: failed to load &lt;quotes&gt;")
	assert.NotContains(t, client.sent[0].text, "Run:")
}

func TestRunReporterAlertsOncePerFailingStreak(t *testing.T) {
	client := &fakeClient{}
	r, _ := newTestReporter(client)

	r.ObserveRun(&app.RunResult{RunID: "r1", Failed: 1}, time.Second, nil)
	r.ObserveRun(&app.RunResult{RunID: "r2", Failed: 3}, time.Second, nil)
	r.ObserveRun(nil, time.Second, errors.New("smtp: circuit open"))

	require.Len(t, client.sent, 1)
	assert.Contains(t, client.sent[0].text, "<code>r1</code>")
}

func TestRunReporterReportsRecovery(t *testing.T) {
	client := &fakeClient{}
	r, _ := newTestReporter(client)

	r.ObserveRun(&app.RunResult{RunID: "r1", Failed: 1}, time.Second, nil)
	r.ObserveRun(&app.RunResult{RunID: "r2", Sent: 4}, time.Second, nil)
	r.ObserveRun(&app.RunResult{RunID: "r3", Sent: 1}, time.Second, nil)

	require.Len(t, client.sent, 2)
	assert.Contains(t, client.sent[1].text, "recovered")
	assert.Contains(t, client.sent[1].text, "<code>r2</code>")

	r.ObserveRun(&app.RunResult{RunID: "r4", Failed: 1}, time.Second, nil)
	require.Len(t, client.sent, 3, "a new failing streak alerts again")
	assert.Contains(t, client.sent[2].text, "<code>r4</code>")
}

func TestRunReporterLogsSendFailure(t *testing.T) {
	client := &fakeClient{err: errors.New("telegram: bot was blocked")}
	r, hook := newTestReporter(client)

	r.ObserveRun(&app.RunResult{Failed: 1}, time.Second, nil)

	require.NotNil(t, hook.LastEntry())
	assert.Equal(t, logrus.ErrorLevel, hook.LastEntry().Level)
}
