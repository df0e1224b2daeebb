package bot

import (
	"SolBuddy/bot/workflow"

	tgbotapi "github.com/PaulSonOfLars/gotgbot/v2"
)

// SendText sends a plain message and returns its message id.
func (b *TgBot) SendText(chatID int64, text string) (int64, error) {
	msg, err := b.api.SendMessage(chatID, text, nil)
	if err != nil {
		return 0, err
	}
	return msg.MessageId, nil
}

// SendInline sends a message with an inline keyboard attached.
func (b *TgBot) SendInline(chatID int64, text string, rows [][]workflow.Button) (int64, error) {
	msg, err := b.api.SendMessage(chatID, text, &tgbotapi.SendMessageOpts{
		ReplyMarkup: tgbotapi.InlineKeyboardMarkup{
			InlineKeyboard: inlineKeyboard(rows),
		},
	})
	if err != nil {
		return 0, err
	}
	return msg.MessageId, nil
}

// EditText replaces the text of a previously sent message.
func (b *TgBot) EditText(chatID, messageID int64, text string) error {
	_, _, err := b.api.EditMessageText(text, &tgbotapi.EditMessageTextOpts{
		ChatId:    chatID,
		MessageId: messageID,
	})
	return err
}

// DeleteMessage removes a message. A message already gone is not an error
// worth surfacing to flows.
func (b *TgBot) DeleteMessage(chatID, messageID int64) error {
	_, err := b.api.DeleteMessage(chatID, messageID, nil)
	return err
}

// AnswerCallback acknowledges a button press, optionally with a toast.
func (b *TgBot) AnswerCallback(callbackID, text string) error {
	opts := &tgbotapi.AnswerCallbackQueryOpts{}
	if text != "" {
		opts.Text = text
	}
	_, err := b.api.AnswerCallbackQuery(callbackID, opts)
	return err
}

// SendDice sends an animated dice roll and returns the rolled value.
func (b *TgBot) SendDice(chatID int64) (int64, error) {
	msg, err := b.api.SendDice(chatID, &tgbotapi.SendDiceOpts{Emoji: "🎲"})
	if err != nil {
		return 0, err
	}
	if msg.Dice == nil {
		return 0, errNoDiceValue
	}
	return msg.Dice.Value, nil
}

func inlineKeyboard(rows [][]workflow.Button) [][]tgbotapi.InlineKeyboardButton {
	keyboard := make([][]tgbotapi.InlineKeyboardButton, len(rows))
	for i, row := range rows {
		keyboard[i] = make([]tgbotapi.InlineKeyboardButton, len(row))
		for j, btn := range row {
			keyboard[i][j] = tgbotapi.InlineKeyboardButton{
				Text:         btn.Text,
				CallbackData: btn.Data,
				Url:          btn.URL,
			}
		}
	}
	return keyboard
}
