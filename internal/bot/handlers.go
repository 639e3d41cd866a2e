package bot

import (
	"fmt"
	"strings"
	"sync"

	"database/sql"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/Payamsoltanzadeh/Telegram-Medical-bot/internal/models"
)

const (
	commandStart    = "start"
	commandRestart  = "restart"
	commandCancel   = "cancel"
	commandGetDevID = "getdevid"
)

// Main menu button labels
const (
	btnRegister       = "📝 Register"
	btnBook           = "🩺 Book appointment"
	btnCertificate    = "📄 Health certificate"
	btnMyAppointments = "📅 My appointments"
	btnEditProfile    = "👤 Edit profile"
	btnPay            = "💳 Pay for consultation"
	btnContactUs      = "✉️ Contact us"
)

var userStates = struct {
	sync.RWMutex
	states map[int64]string
}{states: make(map[int64]string)}

// pendingActions remembers the menu action an unregistered user tried,
// so it can be resumed right after registration.
var pendingActions = struct {
	sync.RWMutex
	data map[int64]string
}{data: make(map[int64]string)}

func setPendingAction(chatID int64, action string) {
	pendingActions.Lock()
	pendingActions.data[chatID] = action
	pendingActions.Unlock()
}

func takePendingAction(chatID int64) string {
	pendingActions.Lock()
	defer pendingActions.Unlock()
	action := pendingActions.data[chatID]
	delete(pendingActions.data, chatID)
	return action
}

func (b *Bot) handleCommand(message *tgbotapi.Message) {
	chatID := message.Chat.ID

	switch message.Command() {
	case commandStart:
		b.handleStart(chatID)

	case commandRestart:
		b.resetConversation(chatID)
		b.handleStart(chatID)

	case commandCancel:
		b.handleCancel(chatID)

	case commandGetDevID:
		b.sendMessage(chatID, fmt.Sprintf("Your chat ID: %d", chatID))

	default:
		b.sendMessage(chatID, "I don't know that command. Try /start.")
	}
}

func (b *Bot) handleStart(chatID int64) {
	user, err := b.repo.User.GetByTelegramID(chatID)
	if err == nil {
		b.sendMessageWithKeyboard(chatID,
			fmt.Sprintf("Welcome back, %s! What would you like to do?", user.Name),
			mainMenuKeyboard())
		return
	}

	b.sendMessageWithKeyboard(chatID,
		"Welcome to the medical appointment bot!\n\nHere you can book doctor appointments and request health certificates. Please register first.",
		registrationMenuKeyboard())
}

func (b *Bot) handleMessage(message *tgbotapi.Message) {
	chatID := message.Chat.ID
	state := getState(chatID)

	if strings.HasPrefix(state, "reg_") {
		b.processRegistration(message, state)
		return
	}
	if strings.HasPrefix(state, "appt_") {
		b.processAppointment(message, state)
		return
	}
	if strings.HasPrefix(state, "cert_") {
		b.processCertificate(message, state)
		return
	}
	if strings.HasPrefix(state, "profile_") {
		b.processProfileEdit(message, state)
		return
	}
	if strings.HasPrefix(state, "pay_") {
		b.processPayment(message, state)
		return
	}
	if state == "contact_message" {
		b.processContactMessage(message)
		return
	}

	switch message.Text {
	case btnRegister:
		b.startRegistration(chatID)
	case btnBook:
		b.handleBookAppointment(chatID)
	case btnCertificate:
		b.handleCertificateRequest(chatID)
	case btnMyAppointments:
		b.handleMyAppointments(chatID)
	case btnEditProfile:
		b.handleEditProfile(chatID)
	case btnPay:
		b.handlePayment(chatID)
	case btnContactUs:
		b.handleContactUs(chatID)
	case "Cancel":
		b.handleCancel(chatID)
	case "Back":
		b.restoreMainMenu(chatID)
	default:
		b.sendMessage(chatID, "Please use the menu buttons or /start.")
	}
}

// requireUser loads the registered user for the chat. When the chat is not
// registered yet, it remembers the attempted action, starts registration and
// returns nil.
func (b *Bot) requireUser(chatID int64, action string) *models.User {
	user, err := b.repo.User.GetByTelegramID(chatID)
	if err == nil {
		return user
	}
	if err != sql.ErrNoRows {
		b.sendError(chatID, "Something went wrong, please try again later.", err)
		return nil
	}

	if action != "" {
		setPendingAction(chatID, action)
	}
	b.sendMessage(chatID, "You need to register first. It only takes a minute, and then we will continue right where you left off.")
	b.startRegistration(chatID)
	return nil
}

// resumePendingAction replays the menu action saved before registration
func (b *Bot) resumePendingAction(chatID int64) {
	action := takePendingAction(chatID)
	if action == "" {
		b.restoreMainMenu(chatID)
		return
	}

	switch action {
	case btnBook:
		b.handleBookAppointment(chatID)
	case btnCertificate:
		b.handleCertificateRequest(chatID)
	case btnMyAppointments:
		b.handleMyAppointments(chatID)
	case btnPay:
		b.handlePayment(chatID)
	case btnContactUs:
		b.handleContactUs(chatID)
	default:
		b.restoreMainMenu(chatID)
	}
}

func (b *Bot) handleCancel(chatID int64) {
	b.resetConversation(chatID)
	b.sendMessage(chatID, "Cancelled.")
	b.restoreMainMenu(chatID)
}

// resetConversation drops every in-flight flow state for the chat
func (b *Bot) resetConversation(chatID int64) {
	clearState(chatID)
	clearRegistrationData(chatID)
	clearBookingData(chatID)
	clearCertificateData(chatID)
	clearPaymentData(chatID)
	takePendingAction(chatID)
}

func mainMenuKeyboard() tgbotapi.ReplyKeyboardMarkup {
	return tgbotapi.NewReplyKeyboard(
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton(btnBook),
			tgbotapi.NewKeyboardButton(btnCertificate),
		),
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton(btnMyAppointments),
			tgbotapi.NewKeyboardButton(btnEditProfile),
		),
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton(btnPay),
			tgbotapi.NewKeyboardButton(btnContactUs),
		),
	)
}

func registrationMenuKeyboard() tgbotapi.ReplyKeyboardMarkup {
	return tgbotapi.NewReplyKeyboard(
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton(btnRegister),
		),
	)
}

func (b *Bot) restoreMainMenu(chatID int64) {
	_, err := b.repo.User.GetByTelegramID(chatID)

	var keyboard tgbotapi.ReplyKeyboardMarkup
	if err == nil {
		keyboard = mainMenuKeyboard()
	} else {
		keyboard = registrationMenuKeyboard()
	}

	b.sendMessageWithKeyboard(chatID, "Choose an action:", keyboard)
}
