package repository

import (
	"database/sql"

	"github.com/Payamsoltanzadeh/Telegram-Medical-bot/internal/models"
)

// SpecializationRepository works with the specialization catalog
type SpecializationRepository struct {
	db *sql.DB
}

// NewSpecializationRepository creates the specializations repository
func NewSpecializationRepository(db *sql.DB) *SpecializationRepository {
	return &SpecializationRepository{db: db}
}

// GetAll returns the catalog ordered by name
func (r *SpecializationRepository) GetAll() ([]models.Specialization, error) {
	rows, err := r.db.Query("SELECT id, name FROM specializations ORDER BY name")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var specs []models.Specialization
	for rows.Next() {
		var s models.Specialization
		if err := rows.Scan(&s.ID, &s.Name); err != nil {
			continue
		}
		specs = append(specs, s)
	}
	return specs, rows.Err()
}

// GetByName returns a specialization by its exact name
func (r *SpecializationRepository) GetByName(name string) (*models.Specialization, error) {
	s := &models.Specialization{}
	err := r.db.QueryRow("SELECT id, name FROM specializations WHERE name = $1", name).
		Scan(&s.ID, &s.Name)
	if err != nil {
		return nil, err
	}
	return s, nil
}

// Create adds a specialization, rejecting duplicates by name
func (r *SpecializationRepository) Create(name string) (int, error) {
	var id int
	err := r.db.QueryRow(
		"INSERT INTO specializations (name) VALUES ($1) RETURNING id", name,
	).Scan(&id)
	if err != nil {
		if isUniqueViolation(err) {
			return 0, ErrDuplicateName
		}
		return 0, err
	}
	return id, nil
}

// Delete removes a specialization. Doctors, their slots and their appointments
// go with it via FK cascade; the returned list holds the users whose active
// appointments disappear so they can be notified.
func (r *SpecializationRepository) Delete(id int) ([]models.AppointmentDetails, error) {
	tx, err := r.db.Begin()
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	affected, err := activeAppointmentsTx(tx, `
		SELECT a.id, a.scheduled_at, a.status, u.name, u.telegram_id, d.name
		FROM appointments a
		JOIN users u ON a.user_id = u.id
		JOIN doctors d ON a.doctor_id = d.id
		WHERE d.specialization_id = $1 AND a.status IN ('pending', 'confirmed')`, id)
	if err != nil {
		return nil, err
	}

	res, err := tx.Exec("DELETE FROM specializations WHERE id = $1", id)
	if err != nil {
		return nil, err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return nil, sql.ErrNoRows
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return affected, nil
}

// activeAppointmentsTx collects appointment details inside a transaction so
// removal flows know whom to notify before the rows cascade away.
func activeAppointmentsTx(tx *sql.Tx, query string, args ...interface{}) ([]models.AppointmentDetails, error) {
	rows, err := tx.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var details []models.AppointmentDetails
	for rows.Next() {
		var d models.AppointmentDetails
		if err := rows.Scan(&d.ID, &d.ScheduledAt, &d.Status,
			&d.UserName, &d.UserTelegramID, &d.DoctorName); err != nil {
			continue
		}
		details = append(details, d)
	}
	return details, rows.Err()
}
