package bot

import (
	"fmt"
	"log"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/Payamsoltanzadeh/Telegram-Medical-bot/internal/models"
)

// slotDay groups a doctor's free slots that fall on the same calendar day
type slotDay struct {
	Date  time.Time
	Slots []models.AvailableSlot
}

const slotDayKeyFormat = "20060102"

// groupSlotsByDay splits a time-ordered slot list into per-day groups
func groupSlotsByDay(slots []models.AvailableSlot) []slotDay {
	var days []slotDay
	for _, s := range slots {
		local := s.StartTime.Local()
		date := time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, time.Local)
		if len(days) > 0 && days[len(days)-1].Date.Equal(date) {
			days[len(days)-1].Slots = append(days[len(days)-1].Slots, s)
			continue
		}
		days = append(days, slotDay{Date: date, Slots: []models.AvailableSlot{s}})
	}
	return days
}

func findSlotDay(days []slotDay, key string) *slotDay {
	for i := range days {
		if days[i].Date.Format(slotDayKeyFormat) == key {
			return &days[i]
		}
	}
	return nil
}

// slotDayKeyboard lists the days that still have free times
func slotDayKeyboard(days []slotDay) tgbotapi.InlineKeyboardMarkup {
	var rows [][]tgbotapi.InlineKeyboardButton
	for _, d := range days {
		label := fmt.Sprintf("📅 %s, %s (%d free)",
			weekdayName(d.Date.Weekday()), d.Date.Format("02.01"), len(d.Slots))
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(label, "apptday_"+d.Date.Format(slotDayKeyFormat)),
		))
	}
	return tgbotapi.InlineKeyboardMarkup{InlineKeyboard: rows}
}

// slotTimeKeyboard shows one day's free times, three per row
func slotTimeKeyboard(day slotDay, withBack bool) tgbotapi.InlineKeyboardMarkup {
	var rows [][]tgbotapi.InlineKeyboardButton

	header := []tgbotapi.InlineKeyboardButton{
		tgbotapi.NewInlineKeyboardButtonData(
			fmt.Sprintf("📅 %s (%s)", day.Date.Format("02.01.2006"), weekdayName(day.Date.Weekday())),
			"appt_ignore"),
	}
	rows = append(rows, header)

	for i := 0; i < len(day.Slots); i += 3 {
		var row []tgbotapi.InlineKeyboardButton
		for j := i; j < i+3 && j < len(day.Slots); j++ {
			s := day.Slots[j]
			row = append(row, tgbotapi.NewInlineKeyboardButtonData(
				fmt.Sprintf("🕐 %s", s.StartTime.Local().Format("15:04")),
				fmt.Sprintf("slot_%d", s.ID),
			))
		}
		rows = append(rows, row)
	}

	if withBack {
		rows = append(rows, []tgbotapi.InlineKeyboardButton{
			tgbotapi.NewInlineKeyboardButtonData("◀ Other days", "apptday_back"),
		})
	}

	return tgbotapi.InlineKeyboardMarkup{InlineKeyboard: rows}
}

// showSlotSelection offers the doctor's free times. A single day is shown
// directly, several days go through a day picker first.
func (b *Bot) showSlotSelection(chatID int64, doctorID int) {
	slots, err := b.repo.Slot.GetUpcomingByDoctor(doctorID, 60)
	if err != nil {
		b.sendError(chatID, "Could not load free time slots, please try again later.", err)
		return
	}
	if len(slots) == 0 {
		b.sendMessage(chatID, "This doctor has no free time slots at the moment. Please try another doctor or check back later.")
		b.handleCancel(chatID)
		return
	}

	setState(chatID, stateApptSlot)

	days := groupSlotsByDay(slots)

	var msg tgbotapi.MessageConfig
	if len(days) == 1 {
		msg = tgbotapi.NewMessage(chatID, "Choose a time:")
		msg.ReplyMarkup = slotTimeKeyboard(days[0], false)
	} else {
		msg = tgbotapi.NewMessage(chatID, "Choose a day:")
		msg.ReplyMarkup = slotDayKeyboard(days)
	}
	if _, err := b.api.Send(msg); err != nil {
		log.Printf("Failed to send slot list [chat=%d]: %v", chatID, err)
	}
}

// handleSlotDayCallback switches the slot message between the day picker and
// one day's times. The slot list is re-read on every tap so claimed times
// disappear instead of going stale.
func (b *Bot) handleSlotDayCallback(callback *tgbotapi.CallbackQuery, key string) {
	chatID := callback.Message.Chat.ID

	data := getBookingData(chatID)
	if data == nil || getState(chatID) != stateApptSlot {
		b.answerCallback(callback.ID, "This menu is no longer active.")
		return
	}

	slots, err := b.repo.Slot.GetUpcomingByDoctor(data.DoctorID, 60)
	if err != nil {
		b.answerCallback(callback.ID, "Something went wrong, please try again.")
		return
	}
	days := groupSlotsByDay(slots)
	if len(days) == 0 {
		b.answerCallback(callback.ID, "No free times left.")
		b.sendMessage(chatID, "This doctor has no free time slots anymore. Please try another doctor.")
		b.handleCancel(chatID)
		return
	}

	var edit tgbotapi.EditMessageTextConfig
	if key == "back" {
		edit = tgbotapi.NewEditMessageTextAndMarkup(chatID, callback.Message.MessageID,
			"Choose a day:", slotDayKeyboard(days))
		b.answerCallback(callback.ID, "")
	} else {
		day := findSlotDay(days, key)
		if day == nil {
			b.answerCallback(callback.ID, "No free times left on that day.")
			edit = tgbotapi.NewEditMessageTextAndMarkup(chatID, callback.Message.MessageID,
				"Choose a day:", slotDayKeyboard(days))
		} else {
			b.answerCallback(callback.ID, "")
			edit = tgbotapi.NewEditMessageTextAndMarkup(chatID, callback.Message.MessageID,
				"Choose a time:", slotTimeKeyboard(*day, len(days) > 1))
		}
	}
	if _, err := b.api.Send(edit); err != nil {
		log.Printf("Failed to update slot picker [chat=%d]: %v", chatID, err)
	}
}

func weekdayName(w time.Weekday) string {
	days := []string{"Sunday", "Monday", "Tuesday", "Wednesday", "Thursday", "Friday", "Saturday"}
	return days[w]
}
