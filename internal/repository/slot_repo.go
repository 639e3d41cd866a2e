package repository

import (
	"database/sql"
	"time"

	"github.com/Payamsoltanzadeh/Telegram-Medical-bot/internal/models"
)

// SlotRepository works with bookable time slots
type SlotRepository struct {
	db *sql.DB
}

// NewSlotRepository creates the slots repository
func NewSlotRepository(db *sql.DB) *SlotRepository {
	return &SlotRepository{db: db}
}

// GetByID returns a slot by primary key
func (r *SlotRepository) GetByID(id int) (*models.AvailableSlot, error) {
	s := &models.AvailableSlot{}
	err := r.db.QueryRow(`
		SELECT id, doctor_id, start_time FROM available_slots WHERE id = $1`, id).
		Scan(&s.ID, &s.DoctorID, &s.StartTime)
	if err != nil {
		return nil, err
	}
	return s, nil
}

// GetUpcomingByDoctor returns the doctor's future slots ordered by time
func (r *SlotRepository) GetUpcomingByDoctor(doctorID int, limit int) ([]models.AvailableSlot, error) {
	rows, err := r.db.Query(`
		SELECT id, doctor_id, start_time
		FROM available_slots
		WHERE doctor_id = $1 AND start_time > NOW()
		ORDER BY start_time
		LIMIT $2`, doctorID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var slots []models.AvailableSlot
	for rows.Next() {
		var s models.AvailableSlot
		if err := rows.Scan(&s.ID, &s.DoctorID, &s.StartTime); err != nil {
			continue
		}
		slots = append(slots, s)
	}
	return slots, rows.Err()
}

// Create adds a single slot, rejecting duplicates per doctor and timestamp
func (r *SlotRepository) Create(doctorID int, startTime time.Time) (int, error) {
	var id int
	err := r.db.QueryRow(`
		INSERT INTO available_slots (doctor_id, start_time)
		VALUES ($1, $2) RETURNING id`,
		doctorID, startTime,
	).Scan(&id)
	if err != nil {
		if isUniqueViolation(err) {
			return 0, ErrDuplicateSlot
		}
		return 0, err
	}
	return id, nil
}

// CreateMany inserts slots skipping ones that already exist, returning how
// many were actually added
func (r *SlotRepository) CreateMany(doctorID int, startTimes []time.Time) (int, error) {
	tx, err := r.db.Begin()
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	added := 0
	for _, t := range startTimes {
		res, err := tx.Exec(`
			INSERT INTO available_slots (doctor_id, start_time)
			VALUES ($1, $2)
			ON CONFLICT (doctor_id, start_time) DO NOTHING`,
			doctorID, t)
		if err != nil {
			return 0, err
		}
		if n, err := res.RowsAffected(); err == nil && n > 0 {
			added++
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, err
	}
	return added, nil
}

// Delete removes a slot by id
func (r *SlotRepository) Delete(id int) error {
	res, err := r.db.Exec("DELETE FROM available_slots WHERE id = $1", id)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// CountUpcoming returns the number of open future slots
func (r *SlotRepository) CountUpcoming() (int, error) {
	var n int
	err := r.db.QueryRow("SELECT COUNT(*) FROM available_slots WHERE start_time > NOW()").Scan(&n)
	if err != nil {
		return 0, err
	}
	return n, nil
}

// DeleteExpired prunes slots whose time has already passed
func (r *SlotRepository) DeleteExpired() (int64, error) {
	res, err := r.db.Exec("DELETE FROM available_slots WHERE start_time <= NOW()")
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
