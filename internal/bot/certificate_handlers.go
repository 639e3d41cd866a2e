package bot

import (
	"fmt"
	"log"
	"sync"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/Payamsoltanzadeh/Telegram-Medical-bot/internal/models"
)

// Certificate reason button labels
const (
	btnCertGym     = "🏋 Gym membership"
	btnCertDriving = "🚗 Driving licence"
	btnCertOther   = "Other"
)

// CertificateData holds the answers collected during a certificate request
type CertificateData struct {
	Reason string
	Step   int // 1=reason, 2=description
}

var certificateStore = struct {
	sync.RWMutex
	data map[int64]*CertificateData
}{data: make(map[int64]*CertificateData)}

// Certificate states
const (
	stateCertReason      = "cert_reason"
	stateCertDescription = "cert_description"
)

func clearCertificateData(chatID int64) {
	certificateStore.Lock()
	delete(certificateStore.data, chatID)
	certificateStore.Unlock()
}

// handleCertificateRequest starts the certificate dialog
func (b *Bot) handleCertificateRequest(chatID int64) {
	if b.requireUser(chatID, btnCertificate) == nil {
		return
	}

	certificateStore.Lock()
	certificateStore.data[chatID] = &CertificateData{Step: 1}
	certificateStore.Unlock()
	setState(chatID, stateCertReason)

	keyboard := tgbotapi.NewReplyKeyboard(
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton(btnCertGym),
			tgbotapi.NewKeyboardButton(btnCertDriving),
		),
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton(btnCertOther),
			tgbotapi.NewKeyboardButton("Cancel"),
		),
	)
	b.sendMessageWithKeyboard(chatID, "What do you need the health certificate for?", keyboard)
}

// processCertificate handles the certificate dialog steps
func (b *Bot) processCertificate(message *tgbotapi.Message, state string) {
	chatID := message.Chat.ID
	text := message.Text

	if text == "Cancel" {
		b.handleCancel(chatID)
		return
	}

	certificateStore.Lock()
	data := certificateStore.data[chatID]
	certificateStore.Unlock()
	if data == nil {
		b.handleCancel(chatID)
		return
	}

	switch state {
	case stateCertReason:
		var reason string
		switch text {
		case btnCertGym:
			reason = "gym membership"
		case btnCertDriving:
			reason = "driving licence"
		case btnCertOther:
			reason = "other"
		default:
			b.sendMessage(chatID, "Please choose a reason using the keyboard.")
			return
		}
		certificateStore.Lock()
		data.Reason = reason
		data.Step = 2
		certificateStore.Unlock()

		setState(chatID, stateCertDescription)
		b.sendMessageWithKeyboard(chatID,
			"Add any details the doctor should know (existing conditions, what the certificate should state):",
			createCancelKeyboard())

	case stateCertDescription:
		description, err := validateDescription(text)
		if err != nil {
			b.sendMessage(chatID, "❌ "+err.Error()+"\n\nAdd any details the doctor should know:")
			return
		}
		b.finishCertificateRequest(chatID, data.Reason, description)
	}
}

// finishCertificateRequest stores the request and notifies the developer,
// rolling back if the notification cannot be delivered
func (b *Bot) finishCertificateRequest(chatID int64, reason, description string) {
	user, err := b.repo.User.GetByTelegramID(chatID)
	if err != nil {
		b.sendError(chatID, "Could not load your profile, please try again.", err)
		b.handleCancel(chatID)
		return
	}

	id, err := b.repo.Certificate.Create(user.ID, reason, description)
	if err != nil {
		b.sendError(chatID, "Could not submit your request, please try again later.", err)
		b.handleCancel(chatID)
		return
	}

	details, err := b.repo.Certificate.GetDetails(id)
	if err != nil {
		log.Printf("Failed to load certificate request %d: %v", id, err)
		b.sendError(chatID, "Could not submit your request, please try again later.", err)
		b.handleCancel(chatID)
		return
	}

	if err := b.sendCertificateReviewRequest(details); err != nil {
		if delErr := b.repo.Certificate.Delete(id); delErr != nil {
			log.Printf("Failed to roll back certificate request %d: %v", id, delErr)
		}
		b.sendError(chatID, "Could not submit your request right now, please try again later.", err)
		b.handleCancel(chatID)
		return
	}

	clearCertificateData(chatID)
	clearState(chatID)

	b.sendMessage(chatID, fmt.Sprintf(
		"Your health certificate request was sent! ✅\n\nReason: %s\n\nYou will get a message here once it is reviewed.", reason))

	if err := b.mailer.SendCertificateRequested(details); err != nil {
		log.Printf("Failed to send request email to %s: %v", details.UserEmail, err)
	}

	b.restoreMainMenu(chatID)
}

// sendCertificateReviewRequest sends the approve/reject card to the developer
func (b *Bot) sendCertificateReviewRequest(details *models.CertificateDetails) error {
	text := fmt.Sprintf(
		"🆕 New certificate request [%d]\n\nPatient: %s\nEmail: %s\nReason: %s\nDetails: %s",
		details.ID, details.UserName, details.UserEmail, details.Reason,
		truncateString(details.Description, 300))

	msg := tgbotapi.NewMessage(b.config.DeveloperChatID, text)
	msg.ReplyMarkup = tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("✅ Approve", fmt.Sprintf("approve_cert_%d", details.ID)),
			tgbotapi.NewInlineKeyboardButtonData("❌ Reject", fmt.Sprintf("reject_cert_%d", details.ID)),
		),
	)
	_, err := b.api.Send(msg)
	return err
}
