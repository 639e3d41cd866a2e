package bot

import (
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"sync"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/google/uuid"
)

const consultationPriceEUR = 9.00

// PaymentData remembers which appointment a receipt belongs to
type PaymentData struct {
	AppointmentID int
}

var paymentStore = struct {
	sync.RWMutex
	data map[int64]*PaymentData
}{data: make(map[int64]*PaymentData)}

// Payment states
const (
	statePayAppointment = "pay_appointment"
	statePayReceipt     = "pay_receipt"
)

func clearPaymentData(chatID int64) {
	paymentStore.Lock()
	delete(paymentStore.data, chatID)
	paymentStore.Unlock()
}

// handlePayment starts the payment dialog
func (b *Bot) handlePayment(chatID int64) {
	if b.requireUser(chatID, btnPay) == nil {
		return
	}

	setState(chatID, statePayAppointment)
	b.sendMessageWithKeyboard(chatID,
		"Which appointment are you paying for? Enter its ID (you can find it under 📅 My appointments):",
		createCancelKeyboard())
}

// processPayment handles the payment dialog steps
func (b *Bot) processPayment(message *tgbotapi.Message, state string) {
	chatID := message.Chat.ID

	if message.Text == "Cancel" {
		b.handleCancel(chatID)
		return
	}

	switch state {
	case statePayAppointment:
		b.processPaymentAppointmentID(message)
	case statePayReceipt:
		b.processReceiptUpload(message)
	}
}

func (b *Bot) processPaymentAppointmentID(message *tgbotapi.Message) {
	chatID := message.Chat.ID

	appointmentID := safeInt(message.Text)
	if appointmentID == 0 {
		b.sendMessage(chatID, "Please enter the numeric appointment ID.")
		return
	}

	user, err := b.repo.User.GetByTelegramID(chatID)
	if err != nil {
		b.sendError(chatID, "Could not load your profile, please try again.", err)
		b.handleCancel(chatID)
		return
	}

	appt, err := b.repo.Appointment.GetByID(appointmentID)
	if err != nil {
		b.sendMessage(chatID, "No appointment with that ID was found. Check 📅 My appointments and try again.")
		return
	}
	if appt.UserID != user.ID {
		b.sendMessage(chatID, "That appointment does not belong to you. Check 📅 My appointments and try again.")
		return
	}
	if !appt.Status.Active() {
		b.sendMessage(chatID, "That appointment is cancelled or rejected, there is nothing to pay for.")
		return
	}

	paymentStore.Lock()
	paymentStore.data[chatID] = &PaymentData{AppointmentID: appointmentID}
	paymentStore.Unlock()
	setState(chatID, statePayReceipt)

	b.sendMessageWithKeyboard(chatID, fmt.Sprintf(
		"💳 Payment for appointment %d\n\nAmount: €%.2f\nPayPal: %s\n\nAfter paying, send a screenshot of the receipt here (JPG or PNG).",
		appointmentID, consultationPriceEUR, b.config.PayPalLink), createCancelKeyboard())
}

// processReceiptUpload stores the receipt image and passes it on to the
// developer for verification
func (b *Bot) processReceiptUpload(message *tgbotapi.Message) {
	chatID := message.Chat.ID

	paymentStore.RLock()
	data := paymentStore.data[chatID]
	paymentStore.RUnlock()
	if data == nil {
		b.handleCancel(chatID)
		return
	}

	fileID, ext := receiptFileFromMessage(message)
	if fileID == "" {
		b.sendMessage(chatID, "Please send the receipt as a photo or an image file (JPG or PNG).")
		return
	}

	if err := os.MkdirAll(b.config.ReceiptsDir, 0o755); err != nil {
		b.sendError(chatID, "Could not process the receipt, please try again later.", err)
		return
	}

	filename := fmt.Sprintf("receipt_%d_%s%s", chatID, uuid.NewString(), ext)
	localPath := filepath.Join(b.config.ReceiptsDir, filename)

	if err := b.downloadTelegramFile(fileID, localPath); err != nil {
		b.sendError(chatID, "Could not download the receipt, please try sending it again.", err)
		return
	}

	user, err := b.repo.User.GetByTelegramID(chatID)
	if err != nil {
		b.sendError(chatID, "Could not load your profile, please try again.", err)
		return
	}

	photo := tgbotapi.NewPhoto(b.config.DeveloperChatID, tgbotapi.FilePath(localPath))
	photo.Caption = fmt.Sprintf("🧾 Receipt for appointment %d\nPatient: %s\nEmail: %s\nAmount due: €%.2f",
		data.AppointmentID, user.Name, user.Email, consultationPriceEUR)
	if _, err := b.api.Send(photo); err != nil {
		// Keep the file on disk so the payment is not lost
		log.Printf("Failed to forward receipt %s: %v", localPath, err)
	} else if err := os.Remove(localPath); err != nil {
		log.Printf("Failed to remove receipt %s: %v", localPath, err)
	}

	clearPaymentData(chatID)
	clearState(chatID)

	b.sendMessage(chatID, "Thank you! Your receipt was received. We will verify the payment shortly. ✅")
	b.restoreMainMenu(chatID)
}

// receiptFileFromMessage picks the file to download from a receipt message.
// Photos are accepted as-is, documents only with an image extension.
func receiptFileFromMessage(message *tgbotapi.Message) (fileID, ext string) {
	if len(message.Photo) > 0 {
		// Last photo size is the largest
		return message.Photo[len(message.Photo)-1].FileID, ".jpg"
	}
	if message.Document != nil {
		ext = strings.ToLower(filepath.Ext(message.Document.FileName))
		switch ext {
		case ".jpg", ".jpeg", ".png":
			return message.Document.FileID, ext
		}
	}
	return "", ""
}

// downloadTelegramFile fetches a file from the Telegram file API to disk
func (b *Bot) downloadTelegramFile(fileID, destPath string) error {
	url, err := b.api.GetFileDirectURL(fileID)
	if err != nil {
		return err
	}

	resp, err := http.Get(url)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status %s", resp.Status)
	}

	out, err := os.Create(destPath)
	if err != nil {
		return err
	}
	defer out.Close()

	_, err = io.Copy(out, resp.Body)
	return err
}

// testReceiptFile is a sample image kept next to the binary for checking
// the receipt delivery pipeline without a real payment
const testReceiptFile = "test_receipt.jpg"

func (b *Bot) handleSendTestReceipt(chatID int64) {
	if _, err := os.Stat(testReceiptFile); err != nil {
		b.sendMessage(chatID, fmt.Sprintf(
			"Test receipt not found. Put a %s file into the working directory first.", testReceiptFile))
		return
	}

	photo := tgbotapi.NewPhoto(chatID, tgbotapi.FilePath(testReceiptFile))
	photo.Caption = "🧾 Test receipt"
	if _, err := b.api.Send(photo); err != nil {
		b.sendError(chatID, "Could not send the test receipt.", err)
		return
	}
}
