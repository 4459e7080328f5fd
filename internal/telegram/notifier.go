package telegram

import (
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/123hi123/tg-standup-bot/internal/tracker"
)

// Notifier adapts the Bot API to the tracker's outbound interface.
type Notifier struct {
	bot *tgbotapi.BotAPI
}

func NewNotifier(bot *tgbotapi.BotAPI) *Notifier {
	return &Notifier{bot: bot}
}

// Send posts a message and returns its Telegram message ID so the tracker can
// edit it in place later.
func (n *Notifier) Send(chatID int64, text string, buttons []tracker.Button) (int, error) {
	msg := tgbotapi.NewMessage(chatID, text)
	if len(buttons) > 0 {
		msg.ReplyMarkup = inlineKeyboard(buttons)
	}
	sent, err := n.bot.Send(msg)
	if err != nil {
		return 0, err
	}
	return sent.MessageID, nil
}

// Edit rewrites a previously sent message.
func (n *Notifier) Edit(chatID int64, messageID int, text string, buttons []tracker.Button) error {
	edit := tgbotapi.NewEditMessageText(chatID, messageID, text)
	if len(buttons) > 0 {
		kb := inlineKeyboard(buttons)
		edit.ReplyMarkup = &kb
	}
	_, err := n.bot.Send(edit)
	return err
}

// inlineKeyboard lays the tracker's buttons out on a single row; callback
// data carries the action tag.
func inlineKeyboard(buttons []tracker.Button) tgbotapi.InlineKeyboardMarkup {
	row := make([]tgbotapi.InlineKeyboardButton, 0, len(buttons))
	for _, b := range buttons {
		row = append(row, tgbotapi.NewInlineKeyboardButtonData(b.Label, b.Tag))
	}
	return tgbotapi.NewInlineKeyboardMarkup(row)
}
