package bot

import (
	"database/sql"
	"errors"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/Payamsoltanzadeh/Telegram-Medical-bot/internal/calendar"
	"github.com/Payamsoltanzadeh/Telegram-Medical-bot/internal/excel"
	"github.com/Payamsoltanzadeh/Telegram-Medical-bot/internal/models"
	"github.com/Payamsoltanzadeh/Telegram-Medical-bot/internal/repository"
)

// Developer menu button labels
const (
	btnDevSpecializations = "Specializations"
	btnDevDoctors         = "Doctors"
	btnDevSlots           = "Slots"
	btnDevStatistics      = "Statistics"
	btnDevSendMessage     = "Send message"

	btnDevSpecAdd    = "Add specialization"
	btnDevSpecRemove = "Remove specialization"

	btnDevDoctorAdd    = "Add doctor"
	btnDevDoctorRemove = "Remove doctor"

	btnDevSlotAdd      = "Add slot"
	btnDevSlotGenerate = "Generate day"
	btnDevSlotList     = "List slots"
	btnDevSlotDelete   = "Delete slot"
)

// Developer states
const (
	stateDevSpecAdd           = "dev_spec_add"
	stateDevSpecRemove        = "dev_spec_remove"
	stateDevSpecRemoveConfirm = "dev_spec_remove_confirm"

	stateDevDoctorSpec          = "dev_doctor_spec"
	stateDevDoctorName          = "dev_doctor_name"
	stateDevDoctorAvail         = "dev_doctor_avail"
	stateDevDoctorRemove        = "dev_doctor_remove"
	stateDevDoctorRemoveConfirm = "dev_doctor_remove_confirm"

	stateDevSlotDoctor    = "dev_slot_doctor"
	stateDevSlotDate      = "dev_slot_date"
	stateDevSlotTime      = "dev_slot_time"
	stateDevSlotGenDoctor = "dev_slotgen_doctor"
	stateDevSlotGenDate   = "dev_slotgen_date"
	stateDevSlotListPick  = "dev_slotlist_doctor"
	stateDevSlotDelDoctor = "dev_slotdel_doctor"
	stateDevSlotDelSlot   = "dev_slotdel_slot"

	stateDevSendMessage = "dev_sendmsg"
)

// Availability options offered when adding a doctor
const (
	availBoth     = "In person & online"
	availInPerson = "In person only"
	availOnline   = "Online only"
)

// Working day used by slot generation
const (
	slotDayStartHour    = 9
	slotDayEndHour      = 17
	slotIntervalMinutes = 30
)

// DoctorDraft collects the answers while adding a doctor
type DoctorDraft struct {
	Name             string
	SpecializationID int
}

// SlotDraft collects the answers while adding or deleting slots
type SlotDraft struct {
	DoctorID int
	Date     time.Time
}

var devDrafts = struct {
	sync.RWMutex
	doctor map[int64]*DoctorDraft
	slot   map[int64]*SlotDraft
	remove map[int64]int // id awaiting a yes/no removal confirmation
}{
	doctor: make(map[int64]*DoctorDraft),
	slot:   make(map[int64]*SlotDraft),
	remove: make(map[int64]int),
}

func clearDevDrafts(chatID int64) {
	devDrafts.Lock()
	delete(devDrafts.doctor, chatID)
	delete(devDrafts.slot, chatID)
	delete(devDrafts.remove, chatID)
	devDrafts.Unlock()
}

func setPendingRemoval(chatID int64, id int) {
	devDrafts.Lock()
	devDrafts.remove[chatID] = id
	devDrafts.Unlock()
}

func takePendingRemoval(chatID int64) int {
	devDrafts.Lock()
	defer devDrafts.Unlock()
	id := devDrafts.remove[chatID]
	delete(devDrafts.remove, chatID)
	return id
}

func yesNoKeyboard() tgbotapi.ReplyKeyboardMarkup {
	return tgbotapi.NewReplyKeyboard(
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton("Yes"),
			tgbotapi.NewKeyboardButton("No"),
		),
	)
}

// handleDeveloperCommand handles commands in the developer chat
func (b *Bot) handleDeveloperCommand(message *tgbotapi.Message) {
	chatID := message.Chat.ID

	switch message.Command() {
	case commandStart, commandRestart, commandCancel:
		b.handleDeveloperCancel(chatID)

	case commandGetDevID:
		b.sendMessage(chatID, fmt.Sprintf("Your chat ID: %d", chatID))

	case "sendmsg":
		b.handleSendMessageCommand(chatID, message.CommandArguments())

	case "sendtestreceipt":
		b.handleSendTestReceipt(chatID)

	default:
		b.sendMessage(chatID, "Unknown command.")
	}
}

// handleDeveloperStart shows the developer console menu
func (b *Bot) handleDeveloperStart(chatID int64) {
	keyboard := tgbotapi.NewReplyKeyboard(
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton(btnDevSpecializations),
			tgbotapi.NewKeyboardButton(btnDevDoctors),
		),
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton(btnDevSlots),
			tgbotapi.NewKeyboardButton(btnDevStatistics),
		),
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton(btnDevSendMessage),
		),
	)
	b.sendMessageWithKeyboard(chatID, "Developer console", keyboard)
}

func (b *Bot) handleDeveloperCancel(chatID int64) {
	clearState(chatID)
	clearDevDrafts(chatID)
	b.handleDeveloperStart(chatID)
}

// handleDeveloperMessage routes text messages in the developer chat
func (b *Bot) handleDeveloperMessage(message *tgbotapi.Message) {
	chatID := message.Chat.ID
	text := message.Text
	state := getState(chatID)

	if text == "Cancel" || text == "Back" {
		b.handleDeveloperCancel(chatID)
		return
	}

	if state != "" {
		b.processDeveloperState(message, state)
		return
	}

	switch text {
	case btnDevSpecializations:
		b.showSpecializationsMenu(chatID)
	case btnDevSpecAdd:
		setState(chatID, stateDevSpecAdd)
		b.sendMessageWithKeyboard(chatID, "Enter the new specialization name:", createCancelKeyboard())
	case btnDevSpecRemove:
		b.startSpecializationRemoval(chatID)

	case btnDevDoctors:
		b.showDoctorsMenu(chatID)
	case btnDevDoctorAdd:
		b.startDoctorAdd(chatID)
	case btnDevDoctorRemove:
		b.startDoctorRemoval(chatID)

	case btnDevSlots:
		b.showSlotsMenu(chatID)
	case btnDevSlotAdd:
		b.startSlotPick(chatID, stateDevSlotDoctor, "Which doctor gets the new slot?")
	case btnDevSlotGenerate:
		b.startSlotPick(chatID, stateDevSlotGenDoctor, "Which doctor gets a generated working day?")
	case btnDevSlotList:
		b.startSlotPick(chatID, stateDevSlotListPick, "Whose slots do you want to see?")
	case btnDevSlotDelete:
		b.startSlotPick(chatID, stateDevSlotDelDoctor, "Whose slot do you want to delete?")

	case btnDevStatistics:
		b.showStatistics(chatID)

	case btnDevSendMessage:
		setState(chatID, stateDevSendMessage)
		b.sendMessageWithKeyboard(chatID, "Enter the message as: <chat_id> <text>", createCancelKeyboard())

	default:
		b.sendMessage(chatID, "Unknown command. Use the console buttons or /start.")
	}
}

// processDeveloperState handles the developer's multi-step dialogs
func (b *Bot) processDeveloperState(message *tgbotapi.Message, state string) {
	chatID := message.Chat.ID
	text := message.Text

	switch state {
	case stateDevSpecAdd:
		b.processSpecializationAdd(chatID, text)
	case stateDevSpecRemove:
		b.processSpecializationRemove(chatID, text)
	case stateDevSpecRemoveConfirm:
		b.processSpecializationRemoveConfirm(chatID, text)

	case stateDevDoctorSpec:
		b.processDoctorSpecialization(chatID, text)
	case stateDevDoctorName:
		b.processDoctorName(chatID, text)
	case stateDevDoctorAvail:
		b.processDoctorAvailability(chatID, text)
	case stateDevDoctorRemove:
		b.processDoctorRemove(chatID, text)
	case stateDevDoctorRemoveConfirm:
		b.processDoctorRemoveConfirm(chatID, text)

	case stateDevSlotDoctor:
		b.processSlotDoctor(chatID, text, stateDevSlotDate, "Enter the date (DD.MM.YYYY):")
	case stateDevSlotDate:
		b.processSlotDate(chatID, text, stateDevSlotTime, "Enter the time (HH:MM):")
	case stateDevSlotTime:
		b.processSlotTime(chatID, text)
	case stateDevSlotGenDoctor:
		b.processSlotDoctor(chatID, text, stateDevSlotGenDate, "Enter the date to generate (DD.MM.YYYY):")
	case stateDevSlotGenDate:
		b.processSlotGenerateDate(chatID, text)
	case stateDevSlotListPick:
		b.processSlotList(chatID, text)
	case stateDevSlotDelDoctor:
		b.processSlotDeleteDoctor(chatID, text)
	case stateDevSlotDelSlot:
		b.processSlotDelete(chatID, text)

	case stateDevSendMessage:
		b.handleSendMessageCommand(chatID, text)
		clearState(chatID)
		b.handleDeveloperStart(chatID)

	default:
		b.handleDeveloperCancel(chatID)
	}
}

// --- specializations ---

func (b *Bot) showSpecializationsMenu(chatID int64) {
	specializations, err := b.repo.Specialization.GetAll()
	if err != nil {
		b.sendError(chatID, "Could not load specializations.", err)
		return
	}

	var sb strings.Builder
	sb.WriteString("Specializations:\n\n")
	if len(specializations) == 0 {
		sb.WriteString("(none yet)\n")
	}
	for _, s := range specializations {
		sb.WriteString(fmt.Sprintf("• %s [%d]\n", s.Name, s.ID))
	}

	keyboard := tgbotapi.NewReplyKeyboard(
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton(btnDevSpecAdd),
			tgbotapi.NewKeyboardButton(btnDevSpecRemove),
		),
		tgbotapi.NewKeyboardButtonRow(tgbotapi.NewKeyboardButton("Back")),
	)
	b.sendMessageWithKeyboard(chatID, sb.String(), keyboard)
}

func (b *Bot) processSpecializationAdd(chatID int64, text string) {
	name, err := validateName(text)
	if err != nil {
		b.sendMessage(chatID, "❌ "+err.Error()+"\n\nEnter the new specialization name:")
		return
	}

	id, err := b.repo.Specialization.Create(name)
	if err != nil {
		if errors.Is(err, repository.ErrDuplicateName) {
			b.sendMessage(chatID, "❌ That specialization already exists.\n\nEnter another name:")
			return
		}
		b.sendError(chatID, "Could not create the specialization.", err)
		b.handleDeveloperCancel(chatID)
		return
	}

	clearState(chatID)
	b.sendMessage(chatID, fmt.Sprintf("Specialization %q created [%d]. ✅", name, id))
	b.handleDeveloperStart(chatID)
}

func (b *Bot) startSpecializationRemoval(chatID int64) {
	specializations, err := b.repo.Specialization.GetAll()
	if err != nil {
		b.sendError(chatID, "Could not load specializations.", err)
		return
	}
	if len(specializations) == 0 {
		b.sendMessage(chatID, "There are no specializations to remove.")
		return
	}

	setState(chatID, stateDevSpecRemove)

	var rows [][]tgbotapi.KeyboardButton
	for _, s := range specializations {
		rows = append(rows, tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton(fmt.Sprintf("%s [%d]", s.Name, s.ID))))
	}
	rows = append(rows, tgbotapi.NewKeyboardButtonRow(tgbotapi.NewKeyboardButton("Cancel")))

	b.sendMessageWithKeyboard(chatID,
		"⚠️ Removing a specialization also removes its doctors, their free slots and every appointment with them. Affected patients will be notified.\n\nWhich one?",
		tgbotapi.NewReplyKeyboard(rows...))
}

func (b *Bot) processSpecializationRemove(chatID int64, text string) {
	id := parseIDFromBrackets(text)
	if id == 0 {
		b.sendMessage(chatID, "Please pick a specialization from the keyboard.")
		return
	}

	setPendingRemoval(chatID, id)
	setState(chatID, stateDevSpecRemoveConfirm)
	b.sendMessageWithKeyboard(chatID,
		fmt.Sprintf("⚠️ Really remove %s with all its doctors and appointments?", text),
		yesNoKeyboard())
}

func (b *Bot) processSpecializationRemoveConfirm(chatID int64, text string) {
	switch text {
	case "Yes":
	case "No":
		b.sendMessage(chatID, "Nothing was removed.")
		b.handleDeveloperCancel(chatID)
		return
	default:
		b.sendMessageWithKeyboard(chatID, "Please answer Yes or No.", yesNoKeyboard())
		return
	}

	id := takePendingRemoval(chatID)
	if id == 0 {
		b.handleDeveloperCancel(chatID)
		return
	}

	affected, err := b.repo.Specialization.Delete(id)
	if err != nil {
		if err == sql.ErrNoRows {
			b.sendMessage(chatID, "That specialization no longer exists.")
		} else {
			b.sendError(chatID, "Could not remove the specialization.", err)
		}
		b.handleDeveloperCancel(chatID)
		return
	}

	b.notifyRemovedAppointments(affected, "the clinic no longer offers this specialization")

	clearState(chatID)
	b.sendMessage(chatID, fmt.Sprintf("Specialization removed. %d appointment(s) were cancelled and the patients notified.", len(affected)))
	b.handleDeveloperStart(chatID)
}

// --- doctors ---

func (b *Bot) showDoctorsMenu(chatID int64) {
	doctors, err := b.repo.Doctor.GetAll()
	if err != nil {
		b.sendError(chatID, "Could not load doctors.", err)
		return
	}

	var sb strings.Builder
	sb.WriteString("Doctors:\n\n")
	if len(doctors) == 0 {
		sb.WriteString("(none yet)\n")
	}
	for _, d := range doctors {
		sb.WriteString(fmt.Sprintf("• %s (%s, %s) [%d]\n", d.Name, d.SpecializationName, d.AvailabilityLabel(), d.ID))
	}

	keyboard := tgbotapi.NewReplyKeyboard(
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton(btnDevDoctorAdd),
			tgbotapi.NewKeyboardButton(btnDevDoctorRemove),
		),
		tgbotapi.NewKeyboardButtonRow(tgbotapi.NewKeyboardButton("Back")),
	)
	b.sendMessageWithKeyboard(chatID, sb.String(), keyboard)
}

// startDoctorAdd begins the add-doctor dialog with the specialization pick
func (b *Bot) startDoctorAdd(chatID int64) {
	specializations, err := b.repo.Specialization.GetAll()
	if err != nil || len(specializations) == 0 {
		b.sendError(chatID, "Create a specialization first.", err)
		return
	}

	devDrafts.Lock()
	devDrafts.doctor[chatID] = &DoctorDraft{}
	devDrafts.Unlock()
	setState(chatID, stateDevDoctorSpec)

	var rows [][]tgbotapi.KeyboardButton
	for _, s := range specializations {
		rows = append(rows, tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton(fmt.Sprintf("%s [%d]", s.Name, s.ID))))
	}
	rows = append(rows, tgbotapi.NewKeyboardButtonRow(tgbotapi.NewKeyboardButton("Cancel")))

	b.sendMessageWithKeyboard(chatID, "Which specialization does the new doctor belong to?", tgbotapi.NewReplyKeyboard(rows...))
}

func (b *Bot) processDoctorSpecialization(chatID int64, text string) {
	id := parseIDFromBrackets(text)
	if id == 0 {
		b.sendMessage(chatID, "Please pick a specialization from the keyboard.")
		return
	}

	devDrafts.Lock()
	draft := devDrafts.doctor[chatID]
	if draft != nil {
		draft.SpecializationID = id
	}
	devDrafts.Unlock()
	if draft == nil {
		b.handleDeveloperCancel(chatID)
		return
	}

	setState(chatID, stateDevDoctorName)
	b.sendMessageWithKeyboard(chatID, "Enter the doctor's name:", createCancelKeyboard())
}

func (b *Bot) processDoctorName(chatID int64, text string) {
	name, err := validateName(text)
	if err != nil {
		b.sendMessage(chatID, "❌ "+err.Error()+"\n\nEnter the doctor's name:")
		return
	}

	devDrafts.Lock()
	draft := devDrafts.doctor[chatID]
	if draft != nil {
		draft.Name = name
	}
	devDrafts.Unlock()
	if draft == nil {
		b.handleDeveloperCancel(chatID)
		return
	}

	setState(chatID, stateDevDoctorAvail)

	keyboard := tgbotapi.NewReplyKeyboard(
		tgbotapi.NewKeyboardButtonRow(tgbotapi.NewKeyboardButton(availBoth)),
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton(availInPerson),
			tgbotapi.NewKeyboardButton(availOnline),
		),
		tgbotapi.NewKeyboardButtonRow(tgbotapi.NewKeyboardButton("Cancel")),
	)
	b.sendMessageWithKeyboard(chatID, "Which visit formats does the doctor offer?", keyboard)
}

func (b *Bot) processDoctorAvailability(chatID int64, text string) {
	var inPerson, online bool
	switch text {
	case availBoth:
		inPerson, online = true, true
	case availInPerson:
		inPerson = true
	case availOnline:
		online = true
	default:
		b.sendMessage(chatID, "Please choose a format option from the keyboard.")
		return
	}

	devDrafts.Lock()
	draft := devDrafts.doctor[chatID]
	delete(devDrafts.doctor, chatID)
	devDrafts.Unlock()
	if draft == nil || draft.Name == "" || draft.SpecializationID == 0 {
		b.handleDeveloperCancel(chatID)
		return
	}

	id, err := b.repo.Doctor.Create(draft.Name, draft.SpecializationID, inPerson, online)
	if err != nil {
		b.sendError(chatID, "Could not create the doctor.", err)
		b.handleDeveloperCancel(chatID)
		return
	}

	clearState(chatID)
	b.sendMessage(chatID, fmt.Sprintf("Doctor %s created [%d]. ✅", draft.Name, id))
	b.handleDeveloperStart(chatID)
}

func (b *Bot) startDoctorRemoval(chatID int64) {
	doctors, err := b.repo.Doctor.GetAll()
	if err != nil {
		b.sendError(chatID, "Could not load doctors.", err)
		return
	}
	if len(doctors) == 0 {
		b.sendMessage(chatID, "There are no doctors to remove.")
		return
	}

	setState(chatID, stateDevDoctorRemove)

	var rows [][]tgbotapi.KeyboardButton
	for _, d := range doctors {
		rows = append(rows, tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton(fmt.Sprintf("%s (%s) [%d]", d.Name, d.SpecializationName, d.ID))))
	}
	rows = append(rows, tgbotapi.NewKeyboardButtonRow(tgbotapi.NewKeyboardButton("Cancel")))

	b.sendMessageWithKeyboard(chatID,
		"⚠️ Removing a doctor also removes their free slots and appointments. Affected patients will be notified.\n\nWhich one?",
		tgbotapi.NewReplyKeyboard(rows...))
}

func (b *Bot) processDoctorRemove(chatID int64, text string) {
	id := parseIDFromBrackets(text)
	if id == 0 {
		b.sendMessage(chatID, "Please pick a doctor from the keyboard.")
		return
	}

	setPendingRemoval(chatID, id)
	setState(chatID, stateDevDoctorRemoveConfirm)
	b.sendMessageWithKeyboard(chatID,
		fmt.Sprintf("⚠️ Really remove %s? All their appointments will be cancelled.", text),
		yesNoKeyboard())
}

func (b *Bot) processDoctorRemoveConfirm(chatID int64, text string) {
	switch text {
	case "Yes":
	case "No":
		b.sendMessage(chatID, "Nothing was removed.")
		b.handleDeveloperCancel(chatID)
		return
	default:
		b.sendMessageWithKeyboard(chatID, "Please answer Yes or No.", yesNoKeyboard())
		return
	}

	id := takePendingRemoval(chatID)
	if id == 0 {
		b.handleDeveloperCancel(chatID)
		return
	}

	affected, err := b.repo.Doctor.Delete(id)
	if err != nil {
		if err == sql.ErrNoRows {
			b.sendMessage(chatID, "That doctor no longer exists.")
		} else {
			b.sendError(chatID, "Could not remove the doctor.", err)
		}
		b.handleDeveloperCancel(chatID)
		return
	}

	b.notifyRemovedAppointments(affected, "the doctor is no longer available")

	clearState(chatID)
	b.sendMessage(chatID, fmt.Sprintf("Doctor removed. %d appointment(s) were cancelled and the patients notified.", len(affected)))
	b.handleDeveloperStart(chatID)
}

// notifyRemovedAppointments tells every affected patient why their
// appointment disappeared
func (b *Bot) notifyRemovedAppointments(affected []models.AppointmentDetails, reason string) {
	for _, a := range affected {
		if a.UserTelegramID == 0 {
			continue
		}
		b.sendMessage(a.UserTelegramID, fmt.Sprintf(
			"❌ Your appointment with %s on %s was cancelled because %s. We are sorry about that, please book a new appointment.",
			a.DoctorName, formatDateTime(a.ScheduledAt), reason))
	}
}

// --- slots ---

func (b *Bot) showSlotsMenu(chatID int64) {
	keyboard := tgbotapi.NewReplyKeyboard(
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton(btnDevSlotAdd),
			tgbotapi.NewKeyboardButton(btnDevSlotGenerate),
		),
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton(btnDevSlotList),
			tgbotapi.NewKeyboardButton(btnDevSlotDelete),
		),
		tgbotapi.NewKeyboardButtonRow(tgbotapi.NewKeyboardButton("Back")),
	)
	b.sendMessageWithKeyboard(chatID, "Slot management", keyboard)
}

// startSlotPick shows the doctor list and moves to the given state
func (b *Bot) startSlotPick(chatID int64, nextState, prompt string) {
	doctors, err := b.repo.Doctor.GetAll()
	if err != nil || len(doctors) == 0 {
		b.sendError(chatID, "Create a doctor first.", err)
		return
	}

	devDrafts.Lock()
	devDrafts.slot[chatID] = &SlotDraft{}
	devDrafts.Unlock()
	setState(chatID, nextState)

	var rows [][]tgbotapi.KeyboardButton
	for _, d := range doctors {
		rows = append(rows, tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton(fmt.Sprintf("%s (%s) [%d]", d.Name, d.SpecializationName, d.ID))))
	}
	rows = append(rows, tgbotapi.NewKeyboardButtonRow(tgbotapi.NewKeyboardButton("Cancel")))

	b.sendMessageWithKeyboard(chatID, prompt, tgbotapi.NewReplyKeyboard(rows...))
}

func (b *Bot) pickSlotDoctor(chatID int64, text string) *SlotDraft {
	id := parseIDFromBrackets(text)
	if id == 0 {
		b.sendMessage(chatID, "Please pick a doctor from the keyboard.")
		return nil
	}
	if _, err := b.repo.Doctor.GetByID(id); err != nil {
		b.sendMessage(chatID, "Please pick a doctor from the keyboard.")
		return nil
	}

	devDrafts.Lock()
	draft := devDrafts.slot[chatID]
	if draft == nil {
		draft = &SlotDraft{}
		devDrafts.slot[chatID] = draft
	}
	draft.DoctorID = id
	devDrafts.Unlock()
	return draft
}

func (b *Bot) processSlotDoctor(chatID int64, text, nextState, prompt string) {
	if b.pickSlotDoctor(chatID, text) == nil {
		return
	}
	setState(chatID, nextState)
	b.sendMessageWithKeyboard(chatID, prompt, createCancelKeyboard())
}

func (b *Bot) processSlotDate(chatID int64, text, nextState, prompt string) {
	date, err := parseFutureDate(text)
	if err != nil {
		b.sendMessage(chatID, "❌ "+err.Error()+"\n\nEnter the date (DD.MM.YYYY):")
		return
	}

	devDrafts.Lock()
	draft := devDrafts.slot[chatID]
	if draft != nil {
		draft.Date = date
	}
	devDrafts.Unlock()
	if draft == nil {
		b.handleDeveloperCancel(chatID)
		return
	}

	setState(chatID, nextState)
	b.sendMessageWithKeyboard(chatID, prompt, createCancelKeyboard())
}

func (b *Bot) processSlotTime(chatID int64, text string) {
	hour, minute, err := parseSlotClock(text)
	if err != nil {
		b.sendMessage(chatID, "❌ "+err.Error()+"\n\nEnter the time (HH:MM):")
		return
	}

	devDrafts.Lock()
	draft := devDrafts.slot[chatID]
	delete(devDrafts.slot, chatID)
	devDrafts.Unlock()
	if draft == nil || draft.DoctorID == 0 || draft.Date.IsZero() {
		b.handleDeveloperCancel(chatID)
		return
	}

	startTime := calendar.CombineDateTime(draft.Date, hour, minute)
	if !startTime.After(time.Now()) {
		b.sendMessage(chatID, "❌ That time is already in the past.")
		b.handleDeveloperCancel(chatID)
		return
	}

	if _, err := b.repo.Slot.Create(draft.DoctorID, startTime); err != nil {
		if errors.Is(err, repository.ErrDuplicateSlot) {
			b.sendMessage(chatID, "❌ That slot already exists.")
		} else {
			b.sendError(chatID, "Could not create the slot.", err)
		}
		b.handleDeveloperCancel(chatID)
		return
	}

	clearState(chatID)
	b.sendMessage(chatID, fmt.Sprintf("Slot created: %s ✅", formatDateTime(startTime)))
	b.handleDeveloperStart(chatID)
}

func (b *Bot) processSlotGenerateDate(chatID int64, text string) {
	date, err := parseFutureDate(text)
	if err != nil {
		b.sendMessage(chatID, "❌ "+err.Error()+"\n\nEnter the date to generate (DD.MM.YYYY):")
		return
	}

	devDrafts.Lock()
	draft := devDrafts.slot[chatID]
	delete(devDrafts.slot, chatID)
	devDrafts.Unlock()
	if draft == nil || draft.DoctorID == 0 {
		b.handleDeveloperCancel(chatID)
		return
	}

	created, err := b.repo.Slot.CreateMany(draft.DoctorID, dailySlotTimes(date))
	if err != nil {
		b.sendError(chatID, "Could not generate the slots.", err)
		b.handleDeveloperCancel(chatID)
		return
	}

	clearState(chatID)
	b.sendMessage(chatID, fmt.Sprintf(
		"Generated %d slot(s) on %s (%02d:00-%02d:00, every %d minutes). Existing slots were kept.",
		created, date.Format("02.01.2006"), slotDayStartHour, slotDayEndHour, slotIntervalMinutes))
	b.handleDeveloperStart(chatID)
}

func (b *Bot) processSlotList(chatID int64, text string) {
	draft := b.pickSlotDoctor(chatID, text)
	if draft == nil {
		return
	}

	slots, err := b.repo.Slot.GetUpcomingByDoctor(draft.DoctorID, 30)
	if err != nil {
		b.sendError(chatID, "Could not load the slots.", err)
		b.handleDeveloperCancel(chatID)
		return
	}

	var sb strings.Builder
	sb.WriteString("Upcoming free slots:\n\n")
	if len(slots) == 0 {
		sb.WriteString("(none)\n")
	}
	for _, s := range slots {
		sb.WriteString(fmt.Sprintf("• %s [%d]\n", formatDateTime(s.StartTime), s.ID))
	}

	clearState(chatID)
	clearDevDrafts(chatID)
	b.sendMessage(chatID, sb.String())
	b.handleDeveloperStart(chatID)
}

func (b *Bot) processSlotDeleteDoctor(chatID int64, text string) {
	draft := b.pickSlotDoctor(chatID, text)
	if draft == nil {
		return
	}

	slots, err := b.repo.Slot.GetUpcomingByDoctor(draft.DoctorID, 30)
	if err != nil {
		b.sendError(chatID, "Could not load the slots.", err)
		b.handleDeveloperCancel(chatID)
		return
	}
	if len(slots) == 0 {
		b.sendMessage(chatID, "This doctor has no free slots.")
		b.handleDeveloperCancel(chatID)
		return
	}

	setState(chatID, stateDevSlotDelSlot)

	var rows [][]tgbotapi.KeyboardButton
	for _, s := range slots {
		rows = append(rows, tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton(fmt.Sprintf("%s [%d]", formatDateTime(s.StartTime), s.ID))))
	}
	rows = append(rows, tgbotapi.NewKeyboardButtonRow(tgbotapi.NewKeyboardButton("Cancel")))

	b.sendMessageWithKeyboard(chatID, "Which slot do you want to delete?", tgbotapi.NewReplyKeyboard(rows...))
}

func (b *Bot) processSlotDelete(chatID int64, text string) {
	id := parseIDFromBrackets(text)
	if id == 0 {
		b.sendMessage(chatID, "Please pick a slot from the keyboard.")
		return
	}

	if err := b.repo.Slot.Delete(id); err != nil {
		if err == sql.ErrNoRows {
			b.sendMessage(chatID, "That slot no longer exists.")
		} else {
			b.sendError(chatID, "Could not delete the slot.", err)
		}
		b.handleDeveloperCancel(chatID)
		return
	}

	clearState(chatID)
	clearDevDrafts(chatID)
	b.sendMessage(chatID, "Slot deleted. ✅")
	b.handleDeveloperStart(chatID)
}

// --- statistics ---

func (b *Bot) gatherStatistics() (*models.Statistics, error) {
	stats := &models.Statistics{}

	var err error
	if stats.Users, err = b.repo.User.Count(); err != nil {
		return nil, err
	}

	specializations, err := b.repo.Specialization.GetAll()
	if err != nil {
		return nil, err
	}
	stats.Specializations = len(specializations)

	doctors, err := b.repo.Doctor.GetAll()
	if err != nil {
		return nil, err
	}
	stats.Doctors = len(doctors)

	if stats.OpenSlots, err = b.repo.Slot.CountUpcoming(); err != nil {
		return nil, err
	}
	if stats.Appointments, err = b.repo.Appointment.CountByStatus(); err != nil {
		return nil, err
	}
	if stats.Certificates, err = b.repo.Certificate.CountByStatus(); err != nil {
		return nil, err
	}
	if stats.Upcoming, err = b.repo.Appointment.GetUpcoming(100); err != nil {
		return nil, err
	}

	return stats, nil
}

func (b *Bot) showStatistics(chatID int64) {
	stats, err := b.gatherStatistics()
	if err != nil {
		b.sendError(chatID, "Could not gather statistics.", err)
		return
	}

	text := fmt.Sprintf(
		"📊 Statistics\n\nUsers: %d\nSpecializations: %d\nDoctors: %d\nOpen slots: %d\n\nAppointments:\n  pending: %d\n  confirmed: %d\n  rejected: %d\n  cancelled: %d\n\nCertificates:\n  pending: %d\n  approved: %d\n  rejected: %d",
		stats.Users, stats.Specializations, stats.Doctors, stats.OpenSlots,
		stats.Appointments[models.StatusPending], stats.Appointments[models.StatusConfirmed],
		stats.Appointments[models.StatusRejected], stats.Appointments[models.StatusCanceled],
		stats.Certificates[models.CertStatusPending], stats.Certificates[models.CertStatusApproved],
		stats.Certificates[models.CertStatusRejected])

	msg := tgbotapi.NewMessage(chatID, text)
	msg.ReplyMarkup = tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("📥 Export to Excel", "stats_export"),
		),
	)
	if _, err := b.api.Send(msg); err != nil {
		log.Printf("Failed to send statistics [chat=%d]: %v", chatID, err)
	}
}

// handleStatisticsExport builds the Excel report and sends it as a document
func (b *Bot) handleStatisticsExport(callback *tgbotapi.CallbackQuery) {
	chatID := callback.Message.Chat.ID
	if !b.isDeveloper(chatID) {
		b.answerCallback(callback.ID, "Not allowed.")
		return
	}
	b.answerCallback(callback.ID, "")

	stats, err := b.gatherStatistics()
	if err != nil {
		b.sendError(chatID, "Could not gather statistics.", err)
		return
	}

	f, err := excel.BuildStatisticsReport(stats)
	if err != nil {
		b.sendError(chatID, "Could not build the report.", err)
		return
	}

	tempPath := fmt.Sprintf("/tmp/medical_bot_stats_%s.xlsx", time.Now().Format("20060102_150405"))
	if err := f.SaveAs(tempPath); err != nil {
		b.sendError(chatID, "Could not save the report file.", err)
		return
	}
	defer os.Remove(tempPath)

	doc := tgbotapi.NewDocument(chatID, tgbotapi.FilePath(tempPath))
	doc.Caption = "📊 Service statistics"
	if _, err := b.api.Send(doc); err != nil {
		log.Printf("Failed to send statistics report: %v", err)
	}
}

// --- direct messages ---

// handleSendMessageCommand sends an arbitrary message to a chat,
// args form: "<chat_id> <text>"
func (b *Bot) handleSendMessageCommand(chatID int64, args string) {
	args = strings.TrimSpace(args)
	parts := strings.SplitN(args, " ", 2)
	if len(parts) < 2 {
		b.sendMessage(chatID, "Usage: /sendmsg <chat_id> <text>")
		return
	}

	target, err := strconv.ParseInt(parts[0], 10, 64)
	if err != nil || target == 0 {
		b.sendMessage(chatID, "The first part must be a numeric chat ID.")
		return
	}

	if err := b.sendMessage(target, parts[1]); err != nil {
		b.sendMessage(chatID, "Could not deliver the message. Is the chat ID correct?")
		return
	}
	b.sendMessage(chatID, "Message delivered. ✅")
}

// dailySlotTimes expands a calendar day into the bookable times of a
// standard working day
func dailySlotTimes(date time.Time) []time.Time {
	var times []time.Time
	day := time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, time.Local)
	for minutes := slotDayStartHour * 60; minutes < slotDayEndHour*60; minutes += slotIntervalMinutes {
		times = append(times, day.Add(time.Duration(minutes)*time.Minute))
	}
	return times
}

// parseFutureDate parses DD.MM.YYYY and refuses days in the past
func parseFutureDate(text string) (time.Time, error) {
	parsed, err := calendar.ParseDate(strings.TrimSpace(text))
	if err != nil {
		return time.Time{}, ValidationError{Field: "date", Message: "Invalid date, expected DD.MM.YYYY (e.g. 24.12.2026)"}
	}
	date := time.Date(parsed.Year(), parsed.Month(), parsed.Day(), 0, 0, 0, 0, time.Local)
	now := time.Now()
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.Local)
	if date.Before(today) {
		return time.Time{}, ValidationError{Field: "date", Message: "That date is in the past"}
	}
	return date, nil
}

// parseSlotClock parses HH:MM
func parseSlotClock(text string) (hour, minute int, err error) {
	hour, minute, perr := calendar.ParseTime(strings.TrimSpace(text))
	if perr != nil {
		return 0, 0, ValidationError{Field: "time", Message: "Invalid time, expected HH:MM (e.g. 14:30)"}
	}
	return hour, minute, nil
}
