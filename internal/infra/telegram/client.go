package telegram

import (
	"gopkg.in/telebot.v3"
)

// TelebotAdapter implements the Sender interface using the gopkg.in/telebot.v3 library.
type TelebotAdapter struct {
	bot *telebot.Bot
}

// NewTelebotAdapter builds a send-only bot; nothing polls for updates.
func NewTelebotAdapter(token string) (*TelebotAdapter, error) {
	b, err := telebot.NewBot(telebot.Settings{
		Token:   token,
		Offline: true,
	})
	if err != nil {
		return nil, err
	}
	return &TelebotAdapter{bot: b}, nil
}

// SendMessage sends a text message to the given chat.
func (tba *TelebotAdapter) SendMessage(recipientChatID int64, text string, options *telebot.SendOptions) error {
	if options == nil {
		options = &telebot.SendOptions{}
	}

	_, err := tba.bot.Send(telebot.ChatID(recipientChatID), text, options)
	return err
}
