package bot

import (
	"errors"
	"fmt"
	"log"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/Payamsoltanzadeh/Telegram-Medical-bot/internal/models"
	"github.com/Payamsoltanzadeh/Telegram-Medical-bot/internal/repository"
)

// Profile menu button labels
const (
	btnProfileName  = "Change name"
	btnProfileEmail = "Change email"
	btnProfilePhone = "Change phone"
)

// Profile states
const (
	stateProfileMenu  = "profile_menu"
	stateProfileName  = "profile_name"
	stateProfileEmail = "profile_email"
	stateProfilePhone = "profile_phone"
)

// handleEditProfile shows the current profile with edit options
func (b *Bot) handleEditProfile(chatID int64) {
	user := b.requireUser(chatID, "")
	if user == nil {
		return
	}

	setState(chatID, stateProfileMenu)

	keyboard := tgbotapi.NewReplyKeyboard(
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton(btnProfileName),
			tgbotapi.NewKeyboardButton(btnProfileEmail),
		),
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton(btnProfilePhone),
			tgbotapi.NewKeyboardButton("Back"),
		),
	)
	b.sendMessageWithKeyboard(chatID, fmt.Sprintf(
		"Your profile:\n\nName: %s\nEmail: %s\nPhone: %s\n\nWhat would you like to change?",
		user.Name, user.Email, user.Phone), keyboard)
}

// processProfileEdit handles the profile menu and the individual edit steps
func (b *Bot) processProfileEdit(message *tgbotapi.Message, state string) {
	chatID := message.Chat.ID
	text := message.Text

	if text == "Cancel" || text == "Back" {
		clearState(chatID)
		b.restoreMainMenu(chatID)
		return
	}

	switch state {
	case stateProfileMenu:
		switch text {
		case btnProfileName:
			setState(chatID, stateProfileName)
			b.sendMessageWithKeyboard(chatID, "Enter your new name:", createCancelKeyboard())
		case btnProfileEmail:
			setState(chatID, stateProfileEmail)
			b.sendMessageWithKeyboard(chatID, "Enter your new email address:", createCancelKeyboard())
		case btnProfilePhone:
			setState(chatID, stateProfilePhone)
			b.sendMessageWithKeyboard(chatID, "Enter your new phone number:", createCancelKeyboard())
		default:
			b.sendMessage(chatID, "Please use the keyboard buttons.")
		}

	case stateProfileName:
		name, err := validateName(text)
		if err != nil {
			b.sendMessage(chatID, "❌ "+err.Error()+"\n\nEnter your new name:")
			return
		}
		b.applyProfileChange(chatID, "name", func(user *models.User) error {
			return b.repo.User.UpdateName(user.TelegramID, name)
		})

	case stateProfileEmail:
		email, err := validateEmail(text)
		if err != nil {
			b.sendMessage(chatID, "❌ "+err.Error()+"\n\nEnter your new email address:")
			return
		}
		b.applyProfileChange(chatID, "email", func(user *models.User) error {
			return b.repo.User.UpdateEmail(user.TelegramID, email)
		})

	case stateProfilePhone:
		phone, err := validatePhone(text)
		if err != nil {
			b.sendMessage(chatID, "❌ "+err.Error()+"\n\nEnter your new phone number:")
			return
		}
		b.applyProfileChange(chatID, "phone", func(user *models.User) error {
			return b.repo.User.UpdatePhone(user.TelegramID, phone)
		})
	}
}

// applyProfileChange runs one field update and reports the outcome
func (b *Bot) applyProfileChange(chatID int64, field string, update func(*models.User) error) {
	user, err := b.repo.User.GetByTelegramID(chatID)
	if err != nil {
		b.sendError(chatID, "Could not load your profile, please try again.", err)
		clearState(chatID)
		b.restoreMainMenu(chatID)
		return
	}

	if err := update(user); err != nil {
		if errors.Is(err, repository.ErrDuplicateEmail) {
			b.sendMessage(chatID, "❌ That email is already used by another account.\n\nEnter your new email address:")
			return
		}
		b.sendError(chatID, "Could not update your profile, please try again later.", err)
		clearState(chatID)
		b.restoreMainMenu(chatID)
		return
	}

	clearState(chatID)

	updated, err := b.repo.User.GetByTelegramID(chatID)
	if err != nil {
		updated = user
	}

	b.sendMessage(chatID, fmt.Sprintf(
		"Your %s was updated. ✅\n\nName: %s\nEmail: %s\nPhone: %s",
		field, updated.Name, updated.Email, updated.Phone))

	if err := b.mailer.SendProfileUpdated(updated.Email, updated.Name); err != nil {
		log.Printf("Failed to send profile email to %s: %v", updated.Email, err)
	}

	b.restoreMainMenu(chatID)
}
