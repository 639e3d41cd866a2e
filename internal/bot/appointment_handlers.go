package bot

import (
	"database/sql"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/Payamsoltanzadeh/Telegram-Medical-bot/internal/models"
	"github.com/Payamsoltanzadeh/Telegram-Medical-bot/internal/repository"
)

// Contact method button labels
const (
	btnContactInPerson = "🏥 In person"
	btnContactOnline   = "💻 Online"
)

// BookingData holds the choices made during the booking dialog
type BookingData struct {
	SpecializationID   int
	SpecializationName string
	DoctorID           int
	DoctorName         string
	InPersonAvailable  bool
	OnlineAvailable    bool
	ScheduledAt        time.Time
	ContactMethod      string
	Step               int // 1=specialization, 2=doctor, 3=slot, 4=contact, 5=description
}

var bookingStore = struct {
	sync.RWMutex
	data map[int64]*BookingData
}{data: make(map[int64]*BookingData)}

// Booking states
const (
	stateApptSpecialization = "appt_specialization"
	stateApptDoctor         = "appt_doctor"
	stateApptSlot           = "appt_slot"
	stateApptContact        = "appt_contact"
	stateApptDescription    = "appt_description"
)

func clearBookingData(chatID int64) {
	bookingStore.Lock()
	delete(bookingStore.data, chatID)
	bookingStore.Unlock()
}

func getBookingData(chatID int64) *BookingData {
	bookingStore.RLock()
	defer bookingStore.RUnlock()
	return bookingStore.data[chatID]
}

// handleBookAppointment starts the booking dialog with the specialization list
func (b *Bot) handleBookAppointment(chatID int64) {
	if b.requireUser(chatID, btnBook) == nil {
		return
	}

	specializations, err := b.repo.Specialization.GetAll()
	if err != nil {
		b.sendError(chatID, "Could not load specializations, please try again later.", err)
		return
	}
	if len(specializations) == 0 {
		b.sendMessage(chatID, "There are no specializations available yet. Please check back later.")
		b.restoreMainMenu(chatID)
		return
	}

	bookingStore.Lock()
	bookingStore.data[chatID] = &BookingData{Step: 1}
	bookingStore.Unlock()
	setState(chatID, stateApptSpecialization)

	var rows [][]tgbotapi.KeyboardButton
	for _, s := range specializations {
		rows = append(rows, tgbotapi.NewKeyboardButtonRow(tgbotapi.NewKeyboardButton(s.Name)))
	}
	rows = append(rows, tgbotapi.NewKeyboardButtonRow(tgbotapi.NewKeyboardButton("Cancel")))

	b.sendMessageWithKeyboard(chatID, "Which specialization do you need?", tgbotapi.NewReplyKeyboard(rows...))
}

// processAppointment handles the text steps of the booking dialog
func (b *Bot) processAppointment(message *tgbotapi.Message, state string) {
	chatID := message.Chat.ID
	text := message.Text

	if text == "Cancel" {
		b.handleCancel(chatID)
		return
	}

	data := getBookingData(chatID)
	if data == nil {
		b.handleCancel(chatID)
		return
	}

	switch state {
	case stateApptSpecialization:
		spec, err := b.repo.Specialization.GetByName(text)
		if err != nil {
			b.sendMessage(chatID, "Please pick a specialization from the keyboard.")
			return
		}
		bookingStore.Lock()
		data.SpecializationID = spec.ID
		data.SpecializationName = spec.Name
		data.Step = 2
		bookingStore.Unlock()

		b.showDoctorSelection(chatID, spec.ID)

	case stateApptDoctor:
		doctorID := parseIDFromBrackets(text)
		if doctorID == 0 {
			b.sendMessage(chatID, "Please pick a doctor from the keyboard.")
			return
		}
		doctor, err := b.repo.Doctor.GetByID(doctorID)
		if err != nil || doctor.SpecializationID != data.SpecializationID {
			b.sendMessage(chatID, "Please pick a doctor from the keyboard.")
			return
		}
		bookingStore.Lock()
		data.DoctorID = doctor.ID
		data.DoctorName = doctor.Name
		data.InPersonAvailable = doctor.InPersonAvailable
		data.OnlineAvailable = doctor.OnlineAvailable
		data.Step = 3
		bookingStore.Unlock()

		b.showSlotSelection(chatID, doctor.ID)

	case stateApptSlot:
		b.sendMessage(chatID, "Please choose a time using the buttons above, or press Cancel.")

	case stateApptContact:
		var method string
		switch text {
		case btnContactInPerson:
			method = models.ContactInPerson
		case btnContactOnline:
			method = models.ContactOnline
		default:
			b.sendMessage(chatID, "Please choose the visit format using the keyboard.")
			return
		}
		if (method == models.ContactInPerson && !data.InPersonAvailable) ||
			(method == models.ContactOnline && !data.OnlineAvailable) {
			b.sendMessage(chatID, fmt.Sprintf("%s does not offer that format, please pick the other one.", data.DoctorName))
			return
		}
		bookingStore.Lock()
		data.ContactMethod = method
		data.Step = 5
		bookingStore.Unlock()

		b.askAppointmentDescription(chatID)

	case stateApptDescription:
		description, err := validateDescription(text)
		if err != nil {
			b.sendMessage(chatID, "❌ "+err.Error()+"\n\nBriefly describe your problem:")
			return
		}
		b.finishBooking(chatID, description)
	}
}

func (b *Bot) showDoctorSelection(chatID int64, specializationID int) {
	doctors, err := b.repo.Doctor.GetBySpecialization(specializationID)
	if err != nil {
		b.sendError(chatID, "Could not load doctors, please try again later.", err)
		return
	}
	if len(doctors) == 0 {
		b.sendMessage(chatID, "There are no doctors for that specialization yet.")
		b.handleCancel(chatID)
		return
	}

	setState(chatID, stateApptDoctor)

	var rows [][]tgbotapi.KeyboardButton
	for _, d := range doctors {
		label := fmt.Sprintf("%s (%s) [%d]", d.Name, d.AvailabilityLabel(), d.ID)
		rows = append(rows, tgbotapi.NewKeyboardButtonRow(tgbotapi.NewKeyboardButton(label)))
	}
	rows = append(rows, tgbotapi.NewKeyboardButtonRow(tgbotapi.NewKeyboardButton("Cancel")))

	b.sendMessageWithKeyboard(chatID, "Choose a doctor:", tgbotapi.NewReplyKeyboard(rows...))
}

// handleSlotCallback records the tapped slot and moves on to the visit format
func (b *Bot) handleSlotCallback(callback *tgbotapi.CallbackQuery, slotID int) {
	chatID := callback.Message.Chat.ID

	data := getBookingData(chatID)
	if data == nil || getState(chatID) != stateApptSlot {
		b.answerCallback(callback.ID, "This menu is no longer active.")
		return
	}

	slot, err := b.repo.Slot.GetByID(slotID)
	if err != nil {
		// Someone claimed it between listing and tapping
		b.answerCallback(callback.ID, "That time was just taken, please pick another one.")
		b.showSlotSelection(chatID, data.DoctorID)
		return
	}
	if slot.DoctorID != data.DoctorID {
		b.answerCallback(callback.ID, "This menu is no longer active.")
		return
	}

	b.answerCallback(callback.ID, "")

	bookingStore.Lock()
	data.ScheduledAt = slot.StartTime
	bookingStore.Unlock()

	edit := tgbotapi.NewEditMessageText(chatID, callback.Message.MessageID,
		fmt.Sprintf("Selected time: %s", formatDateTime(slot.StartTime)))
	b.api.Send(edit)

	// Only ask for the format when the doctor offers a choice
	switch {
	case data.InPersonAvailable && data.OnlineAvailable:
		bookingStore.Lock()
		data.Step = 4
		bookingStore.Unlock()
		setState(chatID, stateApptContact)

		keyboard := tgbotapi.NewReplyKeyboard(
			tgbotapi.NewKeyboardButtonRow(
				tgbotapi.NewKeyboardButton(btnContactInPerson),
				tgbotapi.NewKeyboardButton(btnContactOnline),
			),
			tgbotapi.NewKeyboardButtonRow(tgbotapi.NewKeyboardButton("Cancel")),
		)
		b.sendMessageWithKeyboard(chatID, "How would you like to see the doctor?", keyboard)

	case data.OnlineAvailable:
		bookingStore.Lock()
		data.ContactMethod = models.ContactOnline
		data.Step = 5
		bookingStore.Unlock()
		b.sendMessage(chatID, fmt.Sprintf("%s consults online only.", data.DoctorName))
		b.askAppointmentDescription(chatID)

	default:
		bookingStore.Lock()
		data.ContactMethod = models.ContactInPerson
		data.Step = 5
		bookingStore.Unlock()
		b.sendMessage(chatID, fmt.Sprintf("%s sees patients in person only.", data.DoctorName))
		b.askAppointmentDescription(chatID)
	}
}

func (b *Bot) askAppointmentDescription(chatID int64) {
	setState(chatID, stateApptDescription)
	b.sendMessageWithKeyboard(chatID, "Briefly describe your problem:", createCancelKeyboard())
}

// finishBooking claims the slot, stores the appointment and notifies the
// developer. When the developer cannot be reached the booking is rolled back
// so the slot does not stay blocked by a request nobody will review.
func (b *Bot) finishBooking(chatID int64, description string) {
	data := getBookingData(chatID)
	if data == nil || data.ScheduledAt.IsZero() {
		b.handleCancel(chatID)
		return
	}

	user, err := b.repo.User.GetByTelegramID(chatID)
	if err != nil {
		b.sendError(chatID, "Could not load your profile, please try again.", err)
		b.handleCancel(chatID)
		return
	}

	id, err := b.repo.Appointment.Book(user.ID, data.DoctorID, data.ScheduledAt, data.ContactMethod, description)
	if err != nil {
		if errors.Is(err, repository.ErrSlotTaken) {
			b.sendMessage(chatID, "Unfortunately that time was just booked by someone else. Let's pick another one.")
			b.showSlotSelection(chatID, data.DoctorID)
			return
		}
		b.sendError(chatID, "Could not book the appointment, please try again later.", err)
		b.handleCancel(chatID)
		return
	}

	details, err := b.repo.Appointment.GetDetails(id)
	if err != nil {
		log.Printf("Failed to load booked appointment %d: %v", id, err)
		b.sendError(chatID, "Could not book the appointment, please try again later.", err)
		b.handleCancel(chatID)
		return
	}

	if err := b.sendAppointmentReviewRequest(details); err != nil {
		if delErr := b.repo.Appointment.Delete(id); delErr != nil {
			log.Printf("Failed to roll back appointment %d: %v", id, delErr)
		}
		b.sendError(chatID, "Could not submit your request right now, please try again later.", err)
		b.handleCancel(chatID)
		return
	}

	clearBookingData(chatID)
	clearState(chatID)

	b.sendMessage(chatID, fmt.Sprintf(
		"Your request was sent! ✅\n\nDoctor: %s (%s)\nTime: %s\nFormat: %s\n\nYou will get a message here once it is reviewed.",
		details.DoctorName, details.SpecializationName,
		formatDateTime(details.ScheduledAt), contactMethodLabel(details.ContactMethod)))

	if err := b.mailer.SendAppointmentRequested(details); err != nil {
		log.Printf("Failed to send request email to %s: %v", details.UserEmail, err)
	}

	b.restoreMainMenu(chatID)
}

// sendAppointmentReviewRequest sends the confirm/reject card to the developer
func (b *Bot) sendAppointmentReviewRequest(details *models.AppointmentDetails) error {
	text := fmt.Sprintf(
		"🆕 New appointment request [%d]\n\nPatient: %s\nPhone: %s\nEmail: %s\nDoctor: %s (%s)\nTime: %s\nFormat: %s\nDescription: %s",
		details.ID, details.UserName, b.userPhone(details.UserID), details.UserEmail,
		details.DoctorName, details.SpecializationName,
		formatDateTime(details.ScheduledAt), contactMethodLabel(details.ContactMethod),
		truncateString(details.Description, 300))

	msg := tgbotapi.NewMessage(b.config.DeveloperChatID, text)
	msg.ReplyMarkup = tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("✅ Confirm", fmt.Sprintf("confirm_appt_%d", details.ID)),
			tgbotapi.NewInlineKeyboardButtonData("❌ Reject", fmt.Sprintf("reject_appt_%d", details.ID)),
		),
	)
	_, err := b.api.Send(msg)
	return err
}

func (b *Bot) userPhone(userID int) string {
	user, err := b.repo.User.GetByID(userID)
	if err != nil {
		return "-"
	}
	return user.Phone
}

// handleMyAppointments lists the user's upcoming appointments with cancel buttons
func (b *Bot) handleMyAppointments(chatID int64) {
	user := b.requireUser(chatID, btnMyAppointments)
	if user == nil {
		return
	}

	appointments, err := b.repo.Appointment.GetUserUpcoming(user.ID, 10)
	if err != nil {
		b.sendError(chatID, "Could not load your appointments, please try again later.", err)
		return
	}
	if len(appointments) == 0 {
		b.sendMessage(chatID, "You have no upcoming appointments.")
		b.restoreMainMenu(chatID)
		return
	}

	for _, a := range appointments {
		text := fmt.Sprintf("📅 %s\n%s (%s)\nFormat: %s\nStatus: %s\nAppointment ID: %d",
			formatDateTime(a.ScheduledAt), a.DoctorName, a.SpecializationName,
			contactMethodLabel(a.ContactMethod), statusLabel(a.Status), a.ID)

		msg := tgbotapi.NewMessage(chatID, text)
		msg.ReplyMarkup = tgbotapi.NewInlineKeyboardMarkup(
			tgbotapi.NewInlineKeyboardRow(
				tgbotapi.NewInlineKeyboardButtonData("❌ Cancel this appointment", fmt.Sprintf("cancel_appt_%d", a.ID)),
			),
		)
		if _, err := b.api.Send(msg); err != nil {
			log.Printf("Failed to send appointment card [chat=%d]: %v", chatID, err)
		}
	}
}

// handleCancelAppointmentCallback cancels the user's own appointment and
// frees its slot
func (b *Bot) handleCancelAppointmentCallback(callback *tgbotapi.CallbackQuery, appointmentID int) {
	chatID := callback.Message.Chat.ID

	user, err := b.repo.User.GetByTelegramID(chatID)
	if err != nil {
		b.answerCallback(callback.ID, "You are not registered.")
		return
	}

	appt, err := b.repo.Appointment.GetByID(appointmentID)
	if err != nil {
		if err == sql.ErrNoRows {
			b.answerCallback(callback.ID, "This appointment no longer exists.")
			return
		}
		b.answerCallback(callback.ID, "Something went wrong, please try again.")
		return
	}
	if appt.UserID != user.ID {
		b.answerCallback(callback.ID, "That is not your appointment.")
		return
	}

	details, err := b.repo.Appointment.Transition(appointmentID, models.StatusCanceled)
	if err != nil {
		if errors.Is(err, repository.ErrAlreadyProcessed) {
			b.answerCallback(callback.ID, "This appointment is already finished or cancelled.")
			return
		}
		b.answerCallback(callback.ID, "Could not cancel, please try again.")
		log.Printf("Failed to cancel appointment %d: %v", appointmentID, err)
		return
	}

	b.answerCallback(callback.ID, "Appointment cancelled.")

	edit := tgbotapi.NewEditMessageText(chatID, callback.Message.MessageID,
		fmt.Sprintf("❌ Cancelled: %s with %s", formatDateTime(details.ScheduledAt), details.DoctorName))
	b.api.Send(edit)

	b.notifyDeveloper(fmt.Sprintf("ℹ️ %s cancelled their appointment [%d] with %s on %s.",
		details.UserName, details.ID, details.DoctorName, formatDateTime(details.ScheduledAt)))

	if err := b.mailer.SendAppointmentCanceled(details); err != nil {
		log.Printf("Failed to send cancellation email to %s: %v", details.UserEmail, err)
	}
}

func contactMethodLabel(method string) string {
	if method == models.ContactInPerson {
		return "in person"
	}
	return "online"
}

func statusLabel(status models.AppointmentStatus) string {
	switch status {
	case models.StatusPending:
		return "⏳ awaiting confirmation"
	case models.StatusConfirmed:
		return "✅ confirmed"
	case models.StatusRejected:
		return "❌ rejected"
	case models.StatusCanceled:
		return "❌ cancelled"
	default:
		return string(status)
	}
}
