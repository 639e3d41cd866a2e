package bot

import (
	"database/sql"
	"errors"
	"fmt"
	"log"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/Payamsoltanzadeh/Telegram-Medical-bot/internal/models"
	"github.com/Payamsoltanzadeh/Telegram-Medical-bot/internal/repository"
)

// handleCallbackQuery routes inline button taps
func (b *Bot) handleCallbackQuery(callback *tgbotapi.CallbackQuery) {
	if callback.Message == nil {
		b.answerCallback(callback.ID, "")
		return
	}
	data := callback.Data

	switch {
	case strings.HasPrefix(data, "slot_"):
		b.handleSlotCallback(callback, safeInt(strings.TrimPrefix(data, "slot_")))

	case strings.HasPrefix(data, "apptday_"):
		b.handleSlotDayCallback(callback, strings.TrimPrefix(data, "apptday_"))

	case data == "appt_ignore":
		b.answerCallback(callback.ID, "")

	case strings.HasPrefix(data, "cancel_appt_"):
		b.handleCancelAppointmentCallback(callback, safeInt(strings.TrimPrefix(data, "cancel_appt_")))

	case strings.HasPrefix(data, "confirm_appt_"):
		b.handleAppointmentModeration(callback, safeInt(strings.TrimPrefix(data, "confirm_appt_")), models.StatusConfirmed)

	case strings.HasPrefix(data, "reject_appt_"):
		b.handleAppointmentModeration(callback, safeInt(strings.TrimPrefix(data, "reject_appt_")), models.StatusRejected)

	case strings.HasPrefix(data, "approve_cert_"):
		b.handleCertificateModeration(callback, safeInt(strings.TrimPrefix(data, "approve_cert_")), models.CertStatusApproved)

	case strings.HasPrefix(data, "reject_cert_"):
		b.handleCertificateModeration(callback, safeInt(strings.TrimPrefix(data, "reject_cert_")), models.CertStatusRejected)

	case data == "stats_export":
		b.handleStatisticsExport(callback)

	default:
		b.answerCallback(callback.ID, "")
	}
}

// handleAppointmentModeration confirms or rejects a pending appointment.
// A tap on an already-decided request is acknowledged but changes nothing.
func (b *Bot) handleAppointmentModeration(callback *tgbotapi.CallbackQuery, appointmentID int, to models.AppointmentStatus) {
	chatID := callback.Message.Chat.ID
	if !b.isDeveloper(chatID) {
		b.answerCallback(callback.ID, "Not allowed.")
		return
	}

	details, err := b.repo.Appointment.Transition(appointmentID, to)
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrAlreadyProcessed):
			b.answerCallback(callback.ID, "This request was already processed.")
		case err == sql.ErrNoRows:
			b.answerCallback(callback.ID, "This request no longer exists.")
		default:
			b.answerCallback(callback.ID, "Something went wrong, please try again.")
			log.Printf("Failed to moderate appointment %d: %v", appointmentID, err)
		}
		return
	}

	var outcome string
	if to == models.StatusConfirmed {
		outcome = "✅ Confirmed"
		b.answerCallback(callback.ID, "Confirmed.")
	} else {
		outcome = "❌ Rejected"
		b.answerCallback(callback.ID, "Rejected.")
	}

	edit := tgbotapi.NewEditMessageText(chatID, callback.Message.MessageID,
		callback.Message.Text+"\n\n"+outcome)
	b.api.Send(edit)

	b.notifyAppointmentDecision(details, to)
}

// notifyAppointmentDecision tells the patient about the decision in Telegram
// and by email
func (b *Bot) notifyAppointmentDecision(details *models.AppointmentDetails, to models.AppointmentStatus) {
	if to == models.StatusConfirmed {
		b.sendMessage(details.UserTelegramID, fmt.Sprintf(
			"✅ Your appointment is confirmed!\n\nDoctor: %s (%s)\nTime: %s\nFormat: %s\n\nA calendar invite was sent to your email.",
			details.DoctorName, details.SpecializationName,
			formatDateTime(details.ScheduledAt), contactMethodLabel(details.ContactMethod)))
		if err := b.mailer.SendAppointmentConfirmed(details); err != nil {
			log.Printf("Failed to send confirmation email to %s: %v", details.UserEmail, err)
		}
		return
	}

	b.sendMessage(details.UserTelegramID, fmt.Sprintf(
		"❌ Unfortunately your appointment request for %s with %s was declined. The time slot is free again, feel free to pick another one.",
		formatDateTime(details.ScheduledAt), details.DoctorName))
	if err := b.mailer.SendAppointmentRejected(details); err != nil {
		log.Printf("Failed to send rejection email to %s: %v", details.UserEmail, err)
	}
}

// handleCertificateModeration approves or rejects a certificate request
func (b *Bot) handleCertificateModeration(callback *tgbotapi.CallbackQuery, certificateID int, to models.CertificateStatus) {
	chatID := callback.Message.Chat.ID
	if !b.isDeveloper(chatID) {
		b.answerCallback(callback.ID, "Not allowed.")
		return
	}

	details, err := b.repo.Certificate.Transition(certificateID, to)
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrAlreadyProcessed):
			b.answerCallback(callback.ID, "This request was already processed.")
		case err == sql.ErrNoRows:
			b.answerCallback(callback.ID, "This request no longer exists.")
		default:
			b.answerCallback(callback.ID, "Something went wrong, please try again.")
			log.Printf("Failed to moderate certificate %d: %v", certificateID, err)
		}
		return
	}

	var outcome string
	if to == models.CertStatusApproved {
		outcome = "✅ Approved"
		b.answerCallback(callback.ID, "Approved.")
	} else {
		outcome = "❌ Rejected"
		b.answerCallback(callback.ID, "Rejected.")
	}

	edit := tgbotapi.NewEditMessageText(chatID, callback.Message.MessageID,
		callback.Message.Text+"\n\n"+outcome)
	b.api.Send(edit)

	if to == models.CertStatusApproved {
		b.sendMessage(details.UserTelegramID, fmt.Sprintf(
			"✅ Your health certificate request (%s) was approved! The certificate will be prepared and sent to you.",
			details.Reason))
		if err := b.mailer.SendCertificateApproved(details); err != nil {
			log.Printf("Failed to send certificate email to %s: %v", details.UserEmail, err)
		}
	} else {
		b.sendMessage(details.UserTelegramID, fmt.Sprintf(
			"❌ Unfortunately your health certificate request (%s) could not be approved. Contact us through the bot if you have questions.",
			details.Reason))
		if err := b.mailer.SendCertificateRejected(details); err != nil {
			log.Printf("Failed to send certificate email to %s: %v", details.UserEmail, err)
		}
	}
}
