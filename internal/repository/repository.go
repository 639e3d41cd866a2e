package repository

import (
	"database/sql"
	"errors"
	"strings"
)

// Sentinel errors surfaced to handlers so flows can recover with a
// specific hint instead of the generic failure message.
var (
	ErrSlotTaken        = errors.New("slot already taken")
	ErrAlreadyProcessed = errors.New("already processed")
	ErrDuplicateEmail   = errors.New("email already registered")
	ErrDuplicateName    = errors.New("name already exists")
	ErrDuplicateSlot    = errors.New("slot already exists")
)

// Repository aggregates all entity repositories
type Repository struct {
	User           *UserRepository
	Specialization *SpecializationRepository
	Doctor         *DoctorRepository
	Slot           *SlotRepository
	Appointment    *AppointmentRepository
	Certificate    *CertificateRepository
}

// New creates a Repository over a shared connection pool
func New(db *sql.DB) *Repository {
	return &Repository{
		User:           NewUserRepository(db),
		Specialization: NewSpecializationRepository(db),
		Doctor:         NewDoctorRepository(db),
		Slot:           NewSlotRepository(db),
		Appointment:    NewAppointmentRepository(db),
		Certificate:    NewCertificateRepository(db),
	}
}

// isUniqueViolation reports whether err is a unique-constraint failure
func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	return strings.Contains(err.Error(), "duplicate") || strings.Contains(err.Error(), "unique")
}
