package repository

import (
	"database/sql"

	"github.com/Payamsoltanzadeh/Telegram-Medical-bot/internal/models"
)

// DoctorRepository works with the doctor catalog
type DoctorRepository struct {
	db *sql.DB
}

// NewDoctorRepository creates the doctors repository
func NewDoctorRepository(db *sql.DB) *DoctorRepository {
	return &DoctorRepository{db: db}
}

// GetByID returns a doctor with its specialization name
func (r *DoctorRepository) GetByID(id int) (*models.Doctor, error) {
	d := &models.Doctor{}
	err := r.db.QueryRow(`
		SELECT d.id, d.name, d.specialization_id, s.name,
		       d.in_person_available, d.online_available
		FROM doctors d
		JOIN specializations s ON d.specialization_id = s.id
		WHERE d.id = $1`, id).Scan(
		&d.ID, &d.Name, &d.SpecializationID, &d.SpecializationName,
		&d.InPersonAvailable, &d.OnlineAvailable,
	)
	if err != nil {
		return nil, err
	}
	return d, nil
}

// GetBySpecialization returns all doctors of a specialization ordered by name
func (r *DoctorRepository) GetBySpecialization(specializationID int) ([]models.Doctor, error) {
	rows, err := r.db.Query(`
		SELECT d.id, d.name, d.specialization_id, s.name,
		       d.in_person_available, d.online_available
		FROM doctors d
		JOIN specializations s ON d.specialization_id = s.id
		WHERE d.specialization_id = $1
		ORDER BY d.name`, specializationID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var doctors []models.Doctor
	for rows.Next() {
		var d models.Doctor
		if err := rows.Scan(&d.ID, &d.Name, &d.SpecializationID, &d.SpecializationName,
			&d.InPersonAvailable, &d.OnlineAvailable); err != nil {
			continue
		}
		doctors = append(doctors, d)
	}
	return doctors, rows.Err()
}

// GetAll returns the full doctor catalog
func (r *DoctorRepository) GetAll() ([]models.Doctor, error) {
	rows, err := r.db.Query(`
		SELECT d.id, d.name, d.specialization_id, s.name,
		       d.in_person_available, d.online_available
		FROM doctors d
		JOIN specializations s ON d.specialization_id = s.id
		ORDER BY s.name, d.name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var doctors []models.Doctor
	for rows.Next() {
		var d models.Doctor
		if err := rows.Scan(&d.ID, &d.Name, &d.SpecializationID, &d.SpecializationName,
			&d.InPersonAvailable, &d.OnlineAvailable); err != nil {
			continue
		}
		doctors = append(doctors, d)
	}
	return doctors, rows.Err()
}

// Create adds a doctor to the catalog
func (r *DoctorRepository) Create(name string, specializationID int, inPerson, online bool) (int, error) {
	var id int
	err := r.db.QueryRow(`
		INSERT INTO doctors (name, specialization_id, in_person_available, online_available)
		VALUES ($1, $2, $3, $4)
		RETURNING id`,
		name, specializationID, inPerson, online,
	).Scan(&id)
	return id, err
}

// Delete removes a doctor. Slots and appointments cascade away; the returned
// list holds the users whose active appointments are lost so they can be
// notified.
func (r *DoctorRepository) Delete(id int) ([]models.AppointmentDetails, error) {
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
		WHERE a.doctor_id = $1 AND a.status IN ('pending', 'confirmed')`, id)
	if err != nil {
		return nil, err
	}

	res, err := tx.Exec("DELETE FROM doctors WHERE id = $1", id)
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
