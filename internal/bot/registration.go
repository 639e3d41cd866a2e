package bot

import (
	"errors"
	"fmt"
	"log"
	"sync"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/Payamsoltanzadeh/Telegram-Medical-bot/internal/repository"
)

// RegistrationData holds the answers collected during registration
type RegistrationData struct {
	Name  string
	Email string
	Phone string
	Step  int // 1=name, 2=email, 3=phone
}

var registrationStore = struct {
	sync.RWMutex
	data map[int64]*RegistrationData
}{data: make(map[int64]*RegistrationData)}

// Registration states
const (
	stateRegName  = "reg_name"
	stateRegEmail = "reg_email"
	stateRegPhone = "reg_phone"
)

func clearRegistrationData(chatID int64) {
	registrationStore.Lock()
	delete(registrationStore.data, chatID)
	registrationStore.Unlock()
}

// startRegistration begins the registration dialog. Re-registering is
// allowed and simply updates the stored profile.
func (b *Bot) startRegistration(chatID int64) {
	registrationStore.Lock()
	registrationStore.data[chatID] = &RegistrationData{Step: 1}
	registrationStore.Unlock()

	setState(chatID, stateRegName)

	msg := tgbotapi.NewMessage(chatID, "Registration\n\nWhat is your full name?")
	msg.ReplyMarkup = createCancelKeyboard()
	b.api.Send(msg)
}

// processRegistration handles the registration steps
func (b *Bot) processRegistration(message *tgbotapi.Message, state string) {
	chatID := message.Chat.ID
	text := message.Text

	if text == "Cancel" {
		b.handleCancel(chatID)
		return
	}

	registrationStore.Lock()
	regData := registrationStore.data[chatID]
	if regData == nil {
		registrationStore.Unlock()
		b.handleCancel(chatID)
		return
	}

	switch state {
	case stateRegName:
		validatedName, err := validateName(text)
		if err != nil {
			registrationStore.Unlock()
			b.sendMessage(chatID, "❌ "+err.Error()+"\n\nWhat is your full name?")
			return
		}
		regData.Name = validatedName
		regData.Step = 2
		registrationStore.Unlock()

		setState(chatID, stateRegEmail)
		b.sendMessage(chatID, "What is your email address?")

	case stateRegEmail:
		validatedEmail, err := validateEmail(text)
		if err != nil {
			registrationStore.Unlock()
			b.sendMessage(chatID, "❌ "+err.Error()+"\n\nWhat is your email address?")
			return
		}
		regData.Email = validatedEmail
		regData.Step = 3
		registrationStore.Unlock()

		setState(chatID, stateRegPhone)
		b.sendMessage(chatID, "What is your phone number?")

	case stateRegPhone:
		validatedPhone, err := validatePhone(text)
		if err != nil {
			registrationStore.Unlock()
			b.sendMessage(chatID, "❌ "+err.Error()+"\n\nWhat is your phone number?")
			return
		}
		regData.Phone = validatedPhone
		name := regData.Name
		email := regData.Email
		delete(registrationStore.data, chatID)
		registrationStore.Unlock()

		clearState(chatID)

		b.completeRegistration(chatID, name, email, validatedPhone)

	default:
		registrationStore.Unlock()
	}
}

// completeRegistration saves the profile and resumes whatever the user was
// trying to do before registering
func (b *Bot) completeRegistration(chatID int64, name, email, phone string) {
	user, created, err := b.repo.User.Upsert(chatID, name, email, phone)
	if err != nil {
		if errors.Is(err, repository.ErrDuplicateEmail) {
			// Back to the email step so the user can enter another address
			registrationStore.Lock()
			registrationStore.data[chatID] = &RegistrationData{Name: name, Phone: phone, Step: 2}
			registrationStore.Unlock()
			setState(chatID, stateRegEmail)
			b.sendMessage(chatID, "❌ That email is already used by another account.\n\nWhat is your email address?")
			return
		}
		b.sendError(chatID, "Could not save your registration, please try again.", err)
		b.restoreMainMenu(chatID)
		return
	}

	if created {
		b.sendMessage(chatID, fmt.Sprintf(
			"Registration complete!\n\nName: %s\nEmail: %s\nPhone: %s", user.Name, user.Email, user.Phone))
		if err := b.mailer.SendWelcome(user.Email, user.Name); err != nil {
			log.Printf("Failed to send welcome email to %s: %v", user.Email, err)
		}
	} else {
		b.sendMessage(chatID, fmt.Sprintf(
			"Your profile was updated.\n\nName: %s\nEmail: %s\nPhone: %s", user.Name, user.Email, user.Phone))
	}

	b.resumePendingAction(chatID)
}
