package models

import "time"

// User is a registered patient identified by their Telegram account
type User struct {
	ID         int
	TelegramID int64
	Name       string
	Email      string
	Phone      string
	CreatedAt  time.Time
}

// Specialization is a catalog entry doctors belong to
type Specialization struct {
	ID   int
	Name string
}

// Doctor belongs to one specialization and offers in-person and/or online visits
type Doctor struct {
	ID                 int
	Name               string
	SpecializationID   int
	SpecializationName string
	InPersonAvailable  bool
	OnlineAvailable    bool
}

// AvailabilityLabel describes which contact methods the doctor offers
func (d *Doctor) AvailabilityLabel() string {
	switch {
	case d.InPersonAvailable && d.OnlineAvailable:
		return "in-person & online"
	case d.OnlineAvailable:
		return "online"
	default:
		return "in-person"
	}
}

// AvailableSlot is a bookable timestamp for a doctor. The row is deleted when
// an appointment claims it and re-created if that appointment is cancelled
// while the timestamp is still in the future.
type AvailableSlot struct {
	ID        int
	DoctorID  int
	StartTime time.Time
}

// Appointment links a user to a doctor at a claimed slot timestamp.
// The reminder-sent flags live only in the database, the reminder sweep
// queries them directly.
type Appointment struct {
	ID            int
	UserID        int
	DoctorID      int
	ScheduledAt   time.Time
	ContactMethod string
	Description   string
	Status        AppointmentStatus
	CreatedAt     time.Time
}

// AppointmentDetails is an appointment joined with user and doctor info
type AppointmentDetails struct {
	Appointment
	UserName           string
	UserEmail          string
	UserTelegramID     int64
	DoctorName         string
	SpecializationName string
}

// HealthCertificate is a user request for a signed medical document,
// independent of appointments
type HealthCertificate struct {
	ID          int
	UserID      int
	Reason      string
	Description string
	Status      CertificateStatus
	CreatedAt   time.Time
}

// CertificateDetails is a certificate joined with user info
type CertificateDetails struct {
	HealthCertificate
	UserName       string
	UserEmail      string
	UserTelegramID int64
}

// Statistics is a snapshot of service usage for the developer console
type Statistics struct {
	Users           int
	Specializations int
	Doctors         int
	OpenSlots       int
	Appointments    map[AppointmentStatus]int
	Certificates    map[CertificateStatus]int
	Upcoming        []AppointmentDetails
}
