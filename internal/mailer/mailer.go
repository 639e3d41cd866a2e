package mailer

import (
	"fmt"
	"io"
	"log"
	"time"

	"github.com/go-gomail/gomail"

	"github.com/Payamsoltanzadeh/Telegram-Medical-bot/internal/calendar"
	"github.com/Payamsoltanzadeh/Telegram-Medical-bot/internal/config"
	"github.com/Payamsoltanzadeh/Telegram-Medical-bot/internal/models"
)

const appointmentDuration = 30 * time.Minute

// Mailer sends transactional email over SMTP. Email is optional: when SMTP
// is not configured every send becomes a logged no-op so the bot keeps
// working without it.
type Mailer struct {
	cfg *config.Config
}

// New creates a mailer from the SMTP settings in the config
func New(cfg *config.Config) *Mailer {
	return &Mailer{cfg: cfg}
}

func (m *Mailer) send(to, subject, body, attachName string, attachData []byte) error {
	if !m.cfg.EmailEnabled() {
		log.Printf("SMTP not configured, skipping email %q to %s", subject, to)
		return nil
	}

	msg := gomail.NewMessage()
	msg.SetHeader("From", m.cfg.SMTPUser)
	msg.SetHeader("To", to)
	msg.SetHeader("Subject", subject)
	msg.SetBody("text/plain", body)

	if attachName != "" {
		msg.Attach(attachName, gomail.SetCopyFunc(func(w io.Writer) error {
			_, err := w.Write(attachData)
			return err
		}))
	}

	d := gomail.NewDialer(m.cfg.SMTPHost, m.cfg.SMTPPort, m.cfg.SMTPUser, m.cfg.SMTPPassword)
	if err := d.DialAndSend(msg); err != nil {
		return fmt.Errorf("error sending email: %v", err)
	}
	return nil
}

// SendWelcome greets a newly registered user
func (m *Mailer) SendWelcome(to, name string) error {
	body := fmt.Sprintf(
		"Hello %s,\n\nYour registration is complete. You can now book appointments and request health certificates through the bot.\n\nBest regards,\nMedical Bot",
		name)
	return m.send(to, "Welcome to Medical Bot", body, "", nil)
}

// SendProfileUpdated confirms a profile change
func (m *Mailer) SendProfileUpdated(to, name string) error {
	body := fmt.Sprintf(
		"Hello %s,\n\nYour profile details were updated. If you did not request this change, please contact us through the bot.\n\nBest regards,\nMedical Bot",
		name)
	return m.send(to, "Your profile was updated", body, "", nil)
}

// SendAppointmentRequested acknowledges a new booking awaiting review
func (m *Mailer) SendAppointmentRequested(a *models.AppointmentDetails) error {
	body := fmt.Sprintf(
		"Hello %s,\n\nWe received your appointment request:\n\nDoctor: %s (%s)\nDate: %s\nFormat: %s\n\nYou will get another message once it is reviewed.\n\nBest regards,\nMedical Bot",
		a.UserName, a.DoctorName, a.SpecializationName,
		a.ScheduledAt.Format("02.01.2006 15:04"), contactLabel(a.ContactMethod))
	return m.send(a.UserEmail, "Appointment request received", body, "", nil)
}

// SendAppointmentConfirmed notifies the user and attaches a calendar invite
func (m *Mailer) SendAppointmentConfirmed(a *models.AppointmentDetails) error {
	body := fmt.Sprintf(
		"Hello %s,\n\nYour appointment is confirmed:\n\nDoctor: %s (%s)\nDate: %s\nFormat: %s\n\nA calendar invite is attached.\n\nBest regards,\nMedical Bot",
		a.UserName, a.DoctorName, a.SpecializationName,
		a.ScheduledAt.Format("02.01.2006 15:04"), contactLabel(a.ContactMethod))

	ics := calendar.GenerateICS(calendar.Event{
		UID:         calendar.NewUID(),
		Summary:     fmt.Sprintf("Appointment with %s", a.DoctorName),
		Description: fmt.Sprintf("%s consultation (%s)", a.SpecializationName, contactLabel(a.ContactMethod)),
		Location:    contactLabel(a.ContactMethod),
		StartTime:   a.ScheduledAt,
		EndTime:     a.ScheduledAt.Add(appointmentDuration),
		Reminder:    60,
	})
	return m.send(a.UserEmail, "Appointment confirmed", body, "appointment.ics", []byte(ics))
}

// SendAppointmentRejected notifies the user their request was declined
func (m *Mailer) SendAppointmentRejected(a *models.AppointmentDetails) error {
	body := fmt.Sprintf(
		"Hello %s,\n\nUnfortunately your appointment request for %s with %s could not be accepted. The time slot is available for booking again, feel free to pick another one.\n\nBest regards,\nMedical Bot",
		a.UserName, a.ScheduledAt.Format("02.01.2006 15:04"), a.DoctorName)
	return m.send(a.UserEmail, "Appointment request declined", body, "", nil)
}

// SendAppointmentCanceled confirms a cancellation made by the user
func (m *Mailer) SendAppointmentCanceled(a *models.AppointmentDetails) error {
	body := fmt.Sprintf(
		"Hello %s,\n\nYour appointment on %s with %s was cancelled as requested.\n\nBest regards,\nMedical Bot",
		a.UserName, a.ScheduledAt.Format("02.01.2006 15:04"), a.DoctorName)
	return m.send(a.UserEmail, "Appointment cancelled", body, "", nil)
}

// SendCertificateRequested acknowledges a new certificate request
func (m *Mailer) SendCertificateRequested(c *models.CertificateDetails) error {
	body := fmt.Sprintf(
		"Hello %s,\n\nWe received your health certificate request (reason: %s). You will be notified once it is reviewed.\n\nBest regards,\nMedical Bot",
		c.UserName, c.Reason)
	return m.send(c.UserEmail, "Certificate request received", body, "", nil)
}

// SendCertificateApproved notifies the user their certificate was approved
func (m *Mailer) SendCertificateApproved(c *models.CertificateDetails) error {
	body := fmt.Sprintf(
		"Hello %s,\n\nYour health certificate request (reason: %s) was approved. The certificate will be prepared and sent to you.\n\nBest regards,\nMedical Bot",
		c.UserName, c.Reason)
	return m.send(c.UserEmail, "Certificate request approved", body, "", nil)
}

// SendCertificateRejected notifies the user their certificate was declined
func (m *Mailer) SendCertificateRejected(c *models.CertificateDetails) error {
	body := fmt.Sprintf(
		"Hello %s,\n\nUnfortunately your health certificate request (reason: %s) could not be approved. You can contact us through the bot for details.\n\nBest regards,\nMedical Bot",
		c.UserName, c.Reason)
	return m.send(c.UserEmail, "Certificate request declined", body, "", nil)
}

func contactLabel(method string) string {
	if method == models.ContactInPerson {
		return "in person"
	}
	return "online"
}
