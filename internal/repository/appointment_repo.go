package repository

import (
	"database/sql"
	"time"

	"github.com/Payamsoltanzadeh/Telegram-Medical-bot/internal/models"
)

// AppointmentRepository works with appointments and owns the transactional
// slot bookkeeping around them
type AppointmentRepository struct {
	db *sql.DB
}

// NewAppointmentRepository creates the appointments repository
func NewAppointmentRepository(db *sql.DB) *AppointmentRepository {
	return &AppointmentRepository{db: db}
}

// Book claims a slot and creates a pending appointment in one transaction.
// The slot row is deleted as the claim: whoever gets rows-affected 1 wins,
// every concurrent contender gets ErrSlotTaken.
func (r *AppointmentRepository) Book(userID, doctorID int, slotTime time.Time, contactMethod, description string) (int, error) {
	tx, err := r.db.Begin()
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	res, err := tx.Exec(
		"DELETE FROM available_slots WHERE doctor_id = $1 AND start_time = $2",
		doctorID, slotTime)
	if err != nil {
		return 0, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, err
	}
	if n == 0 {
		return 0, ErrSlotTaken
	}

	var id int
	err = tx.QueryRow(`
		INSERT INTO appointments (user_id, doctor_id, scheduled_at, contact_method, description, status)
		VALUES ($1, $2, $3, $4, $5, 'pending')
		RETURNING id`,
		userID, doctorID, slotTime, contactMethod, description,
	).Scan(&id)
	if err != nil {
		if isUniqueViolation(err) {
			return 0, ErrSlotTaken
		}
		return 0, err
	}

	if err := tx.Commit(); err != nil {
		return 0, err
	}
	return id, nil
}

// GetByID returns an appointment by primary key
func (r *AppointmentRepository) GetByID(id int) (*models.Appointment, error) {
	a := &models.Appointment{}
	err := r.db.QueryRow(`
		SELECT id, user_id, doctor_id, scheduled_at, contact_method,
		       COALESCE(description, ''), status, created_at
		FROM appointments WHERE id = $1`, id).Scan(
		&a.ID, &a.UserID, &a.DoctorID, &a.ScheduledAt, &a.ContactMethod,
		&a.Description, &a.Status, &a.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return a, nil
}

// GetDetails returns an appointment joined with user and doctor info
func (r *AppointmentRepository) GetDetails(id int) (*models.AppointmentDetails, error) {
	a := &models.AppointmentDetails{}
	err := r.db.QueryRow(`
		SELECT a.id, a.user_id, a.doctor_id, a.scheduled_at, a.contact_method,
		       COALESCE(a.description, ''), a.status, a.created_at,
		       u.name, u.email, u.telegram_id, d.name, s.name
		FROM appointments a
		JOIN users u ON a.user_id = u.id
		JOIN doctors d ON a.doctor_id = d.id
		JOIN specializations s ON d.specialization_id = s.id
		WHERE a.id = $1`, id).Scan(
		&a.ID, &a.UserID, &a.DoctorID, &a.ScheduledAt, &a.ContactMethod,
		&a.Description, &a.Status, &a.CreatedAt,
		&a.UserName, &a.UserEmail, &a.UserTelegramID, &a.DoctorName, &a.SpecializationName,
	)
	if err != nil {
		return nil, err
	}
	return a, nil
}

// GetUserUpcoming returns the user's future active appointments
func (r *AppointmentRepository) GetUserUpcoming(userID int, limit int) ([]models.AppointmentDetails, error) {
	rows, err := r.db.Query(`
		SELECT a.id, a.user_id, a.doctor_id, a.scheduled_at, a.contact_method,
		       COALESCE(a.description, ''), a.status, a.created_at,
		       u.name, u.email, u.telegram_id, d.name, s.name
		FROM appointments a
		JOIN users u ON a.user_id = u.id
		JOIN doctors d ON a.doctor_id = d.id
		JOIN specializations s ON d.specialization_id = s.id
		WHERE a.user_id = $1 AND a.scheduled_at > NOW()
		  AND a.status IN ('pending', 'confirmed')
		ORDER BY a.scheduled_at
		LIMIT $2`, userID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var appointments []models.AppointmentDetails
	for rows.Next() {
		var a models.AppointmentDetails
		if err := rows.Scan(&a.ID, &a.UserID, &a.DoctorID, &a.ScheduledAt, &a.ContactMethod,
			&a.Description, &a.Status, &a.CreatedAt,
			&a.UserName, &a.UserEmail, &a.UserTelegramID, &a.DoctorName, &a.SpecializationName); err != nil {
			continue
		}
		appointments = append(appointments, a)
	}
	return appointments, rows.Err()
}

// GetUpcoming returns future active appointments across all users
func (r *AppointmentRepository) GetUpcoming(limit int) ([]models.AppointmentDetails, error) {
	rows, err := r.db.Query(`
		SELECT a.id, a.user_id, a.doctor_id, a.scheduled_at, a.contact_method,
		       COALESCE(a.description, ''), a.status, a.created_at,
		       u.name, u.email, u.telegram_id, d.name, s.name
		FROM appointments a
		JOIN users u ON a.user_id = u.id
		JOIN doctors d ON a.doctor_id = d.id
		JOIN specializations s ON d.specialization_id = s.id
		WHERE a.scheduled_at > NOW() AND a.status IN ('pending', 'confirmed')
		ORDER BY a.scheduled_at
		LIMIT $1`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var appointments []models.AppointmentDetails
	for rows.Next() {
		var a models.AppointmentDetails
		if err := rows.Scan(&a.ID, &a.UserID, &a.DoctorID, &a.ScheduledAt, &a.ContactMethod,
			&a.Description, &a.Status, &a.CreatedAt,
			&a.UserName, &a.UserEmail, &a.UserTelegramID, &a.DoctorName, &a.SpecializationName); err != nil {
			continue
		}
		appointments = append(appointments, a)
	}
	return appointments, rows.Err()
}

// Transition moves an appointment to a new status, enforcing monotonic
// transitions, and restores the claimed slot when an active appointment with
// a future time leaves the active set. Returns the appointment details after
// the change so callers can notify the user.
func (r *AppointmentRepository) Transition(id int, to models.AppointmentStatus) (*models.AppointmentDetails, error) {
	tx, err := r.db.Begin()
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	a := &models.AppointmentDetails{}
	err = tx.QueryRow(`
		SELECT a.id, a.user_id, a.doctor_id, a.scheduled_at, a.contact_method,
		       COALESCE(a.description, ''), a.status, a.created_at,
		       u.name, u.email, u.telegram_id, d.name, s.name
		FROM appointments a
		JOIN users u ON a.user_id = u.id
		JOIN doctors d ON a.doctor_id = d.id
		JOIN specializations s ON d.specialization_id = s.id
		WHERE a.id = $1
		FOR UPDATE OF a`, id).Scan(
		&a.ID, &a.UserID, &a.DoctorID, &a.ScheduledAt, &a.ContactMethod,
		&a.Description, &a.Status, &a.CreatedAt,
		&a.UserName, &a.UserEmail, &a.UserTelegramID, &a.DoctorName, &a.SpecializationName,
	)
	if err != nil {
		return nil, err
	}

	if !a.Status.CanTransition(to) {
		return nil, ErrAlreadyProcessed
	}

	if _, err := tx.Exec(
		"UPDATE appointments SET status = $1 WHERE id = $2", to, id); err != nil {
		return nil, err
	}

	// Leaving the active set frees the slot for someone else, but only while
	// the timestamp is still bookable.
	if a.Status.Active() && !to.Active() && a.ScheduledAt.After(time.Now()) {
		if _, err := tx.Exec(`
			INSERT INTO available_slots (doctor_id, start_time)
			VALUES ($1, $2)
			ON CONFLICT (doctor_id, start_time) DO NOTHING`,
			a.DoctorID, a.ScheduledAt); err != nil {
			return nil, err
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}

	a.Status = to
	return a, nil
}

// Delete removes an appointment entirely, restoring its slot if it was still
// holding one. Used to compensate a booking whose developer notification
// could not be delivered.
func (r *AppointmentRepository) Delete(id int) error {
	tx, err := r.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	var doctorID int
	var scheduledAt time.Time
	var status models.AppointmentStatus
	err = tx.QueryRow(`
		SELECT doctor_id, scheduled_at, status
		FROM appointments WHERE id = $1
		FOR UPDATE`, id).Scan(&doctorID, &scheduledAt, &status)
	if err != nil {
		return err
	}

	if _, err := tx.Exec("DELETE FROM appointments WHERE id = $1", id); err != nil {
		return err
	}

	if status.Active() && scheduledAt.After(time.Now()) {
		if _, err := tx.Exec(`
			INSERT INTO available_slots (doctor_id, start_time)
			VALUES ($1, $2)
			ON CONFLICT (doctor_id, start_time) DO NOTHING`,
			doctorID, scheduledAt); err != nil {
			return err
		}
	}

	return tx.Commit()
}

// CountByStatus returns appointment counts grouped by status
func (r *AppointmentRepository) CountByStatus() (map[models.AppointmentStatus]int, error) {
	rows, err := r.db.Query("SELECT status, COUNT(*) FROM appointments GROUP BY status")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := make(map[models.AppointmentStatus]int)
	for rows.Next() {
		var status models.AppointmentStatus
		var n int
		if err := rows.Scan(&status, &n); err != nil {
			continue
		}
		counts[status] = n
	}
	return counts, rows.Err()
}
