package telegram

import "gopkg.in/telebot.v3"

// Sender posts a message to a Telegram chat. Used for operator alerts only;
// cleaners are never contacted over Telegram.
type Sender interface {
	SendMessage(chatID int64, text string, options *telebot.SendOptions) error
}
