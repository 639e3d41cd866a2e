package bot

import (
	"fmt"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// handleContactUs starts the contact dialog
func (b *Bot) handleContactUs(chatID int64) {
	if b.requireUser(chatID, btnContactUs) == nil {
		return
	}

	setState(chatID, "contact_message")
	b.sendMessageWithKeyboard(chatID, "Write your message and we will get back to you:", createCancelKeyboard())
}

// processContactMessage forwards the user's message to the developer
func (b *Bot) processContactMessage(message *tgbotapi.Message) {
	chatID := message.Chat.ID
	text := message.Text

	if text == "Cancel" {
		b.handleCancel(chatID)
		return
	}

	validated, err := validateDescription(text)
	if err != nil {
		b.sendMessage(chatID, "❌ "+err.Error()+"\n\nWrite your message:")
		return
	}

	user, err := b.repo.User.GetByTelegramID(chatID)
	if err != nil {
		b.sendError(chatID, "Could not load your profile, please try again.", err)
		b.handleCancel(chatID)
		return
	}

	if err := b.notifyDeveloper(fmt.Sprintf(
		"✉️ Message from %s (%s, chat %d):\n\n%s", user.Name, user.Email, chatID, validated)); err != nil {
		b.sendError(chatID, "Could not deliver your message right now, please try again later.", err)
		return
	}

	clearState(chatID)
	b.sendMessage(chatID, "Your message was sent. We will get back to you soon. ✅")
	b.restoreMainMenu(chatID)
}
