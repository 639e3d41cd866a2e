package bot

import (
	"fmt"
	"log"
	"time"

	"github.com/robfig/cron"
)

// appointmentReminder carries one confirmed appointment due for a reminder
type appointmentReminder struct {
	AppointmentID      int
	UserTelegramID     int64
	UserName           string
	DoctorName         string
	SpecializationName string
	ScheduledAt        time.Time
	ContactMethod      string
	Kind               string // "1day", "1hour"
}

// StartReminderService schedules the periodic background jobs: appointment
// reminders and the daily cleanup of expired free slots.
func (b *Bot) StartReminderService() {
	c := cron.New()
	c.AddFunc("@every 10m", func() {
		b.checkAndSendReminders()
	})
	c.AddFunc("@every 24h", func() {
		b.pruneExpiredSlots()
	})
	c.Start()

	go func() {
		// Give polling a moment to come up, then run the first sweep.
		time.Sleep(15 * time.Second)
		log.Println("Reminder service started")
		b.checkAndSendReminders()
		b.pruneExpiredSlots()
	}()
}

func (b *Bot) checkAndSendReminders() {
	for _, r := range b.appointmentsForReminder("1day") {
		b.sendReminder(r)
	}
	for _, r := range b.appointmentsForReminder("1hour") {
		b.sendReminder(r)
	}
}

// appointmentsForReminder finds confirmed appointments that entered the
// reminder window and have not been reminded about yet
func (b *Bot) appointmentsForReminder(kind string) []appointmentReminder {
	var reminders []appointmentReminder

	var query string
	if kind == "1day" {
		// More than an hour away, so the short-notice reminder below
		// does not fire in the same sweep.
		query = `
			SELECT a.id, u.telegram_id, u.name, d.name, s.name, a.scheduled_at, a.contact_method
			FROM appointments a
			JOIN users u ON a.user_id = u.id
			JOIN doctors d ON a.doctor_id = d.id
			JOIN specializations s ON d.specialization_id = s.id
			WHERE a.status = 'confirmed'
			  AND a.scheduled_at > NOW() + interval '1 hour'
			  AND a.scheduled_at <= NOW() + interval '24 hours'
			  AND a.reminder_1day_sent = FALSE
			ORDER BY a.scheduled_at`
	} else {
		query = `
			SELECT a.id, u.telegram_id, u.name, d.name, s.name, a.scheduled_at, a.contact_method
			FROM appointments a
			JOIN users u ON a.user_id = u.id
			JOIN doctors d ON a.doctor_id = d.id
			JOIN specializations s ON d.specialization_id = s.id
			WHERE a.status = 'confirmed'
			  AND a.scheduled_at > NOW()
			  AND a.scheduled_at <= NOW() + interval '1 hour'
			  AND a.reminder_1hour_sent = FALSE
			ORDER BY a.scheduled_at`
	}

	rows, err := b.db.Query(query)
	if err != nil {
		log.Printf("Failed to load appointments for %s reminders: %v", kind, err)
		return reminders
	}
	defer rows.Close()

	for rows.Next() {
		var r appointmentReminder
		if err := rows.Scan(&r.AppointmentID, &r.UserTelegramID, &r.UserName,
			&r.DoctorName, &r.SpecializationName, &r.ScheduledAt, &r.ContactMethod); err != nil {
			log.Printf("Failed to scan reminder row: %v", err)
			continue
		}
		r.Kind = kind
		reminders = append(reminders, r)
	}

	return reminders
}

func (b *Bot) sendReminder(r appointmentReminder) {
	if r.UserTelegramID == 0 {
		return
	}

	var text string
	if r.Kind == "1day" {
		text = fmt.Sprintf(
			"🔔 Reminder: you have an appointment tomorrow!\n\n%s (%s)\n🕐 %s\nFormat: %s",
			r.DoctorName, r.SpecializationName, formatDateTime(r.ScheduledAt),
			contactMethodLabel(r.ContactMethod))
	} else {
		text = fmt.Sprintf(
			"🔔 Your appointment starts in an hour!\n\n%s (%s)\n🕐 %s\nFormat: %s",
			r.DoctorName, r.SpecializationName, formatDateTime(r.ScheduledAt),
			contactMethodLabel(r.ContactMethod))
	}

	if err := b.sendMessage(r.UserTelegramID, text); err != nil {
		// Not marked as sent, the next sweep retries.
		return
	}

	b.markReminderSent(r.AppointmentID, r.Kind)
	log.Printf("Sent %s reminder to %s for appointment %d at %s",
		r.Kind, r.UserName, r.AppointmentID, formatDateTime(r.ScheduledAt))
}

func (b *Bot) markReminderSent(appointmentID int, kind string) {
	var column string
	if kind == "1day" {
		column = "reminder_1day_sent"
	} else {
		column = "reminder_1hour_sent"
	}

	_, err := b.db.Exec(
		fmt.Sprintf("UPDATE appointments SET %s = TRUE WHERE id = $1", column),
		appointmentID)
	if err != nil {
		log.Printf("Failed to mark %s reminder sent for appointment %d: %v", kind, appointmentID, err)
	}
}

// pruneExpiredSlots drops free slots whose time already passed
func (b *Bot) pruneExpiredSlots() {
	removed, err := b.repo.Slot.DeleteExpired()
	if err != nil {
		log.Printf("Failed to prune expired slots: %v", err)
		return
	}
	if removed > 0 {
		log.Printf("Pruned %d expired slot(s)", removed)
	}
}
