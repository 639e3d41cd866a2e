package repository

import (
	"database/sql"

	"github.com/Payamsoltanzadeh/Telegram-Medical-bot/internal/models"
)

// UserRepository works with registered users
type UserRepository struct {
	db *sql.DB
}

// NewUserRepository creates the users repository
func NewUserRepository(db *sql.DB) *UserRepository {
	return &UserRepository{db: db}
}

// GetByTelegramID returns the user bound to a telegram account
func (r *UserRepository) GetByTelegramID(telegramID int64) (*models.User, error) {
	u := &models.User{}
	err := r.db.QueryRow(`
		SELECT id, telegram_id, name, email, phone, created_at
		FROM users WHERE telegram_id = $1`, telegramID).Scan(
		&u.ID, &u.TelegramID, &u.Name, &u.Email, &u.Phone, &u.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return u, nil
}

// GetByID returns the user by primary key
func (r *UserRepository) GetByID(id int) (*models.User, error) {
	u := &models.User{}
	err := r.db.QueryRow(`
		SELECT id, telegram_id, name, email, phone, created_at
		FROM users WHERE id = $1`, id).Scan(
		&u.ID, &u.TelegramID, &u.Name, &u.Email, &u.Phone, &u.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return u, nil
}

// Upsert inserts a user or refreshes the contact details of an existing
// telegram account. Returns the stored user and whether it was newly created.
func (r *UserRepository) Upsert(telegramID int64, name, email, phone string) (*models.User, bool, error) {
	taken, err := r.EmailTaken(email, telegramID)
	if err != nil {
		return nil, false, err
	}
	if taken {
		return nil, false, ErrDuplicateEmail
	}

	var exists bool
	if err := r.db.QueryRow(
		"SELECT EXISTS(SELECT 1 FROM users WHERE telegram_id = $1)", telegramID,
	).Scan(&exists); err != nil {
		return nil, false, err
	}

	u := &models.User{}
	err = r.db.QueryRow(`
		INSERT INTO users (telegram_id, name, email, phone)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (telegram_id) DO UPDATE
		SET name = EXCLUDED.name, email = EXCLUDED.email, phone = EXCLUDED.phone
		RETURNING id, telegram_id, name, email, phone, created_at`,
		telegramID, name, email, phone,
	).Scan(&u.ID, &u.TelegramID, &u.Name, &u.Email, &u.Phone, &u.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, false, ErrDuplicateEmail
		}
		return nil, false, err
	}
	return u, !exists, nil
}

// EmailTaken reports whether another telegram account already uses the email
func (r *UserRepository) EmailTaken(email string, excludeTelegramID int64) (bool, error) {
	var exists bool
	err := r.db.QueryRow(`
		SELECT EXISTS(SELECT 1 FROM users WHERE email = $1 AND telegram_id != $2)`,
		email, excludeTelegramID).Scan(&exists)
	return exists, err
}

// UpdateName changes the user's display name
func (r *UserRepository) UpdateName(telegramID int64, name string) error {
	_, err := r.db.Exec("UPDATE users SET name = $1 WHERE telegram_id = $2", name, telegramID)
	return err
}

// UpdatePhone changes the user's phone number
func (r *UserRepository) UpdatePhone(telegramID int64, phone string) error {
	_, err := r.db.Exec("UPDATE users SET phone = $1 WHERE telegram_id = $2", phone, telegramID)
	return err
}

// UpdateEmail changes the user's email, keeping the unique constraint hint
func (r *UserRepository) UpdateEmail(telegramID int64, email string) error {
	taken, err := r.EmailTaken(email, telegramID)
	if err != nil {
		return err
	}
	if taken {
		return ErrDuplicateEmail
	}

	_, err = r.db.Exec("UPDATE users SET email = $1 WHERE telegram_id = $2", email, telegramID)
	if isUniqueViolation(err) {
		return ErrDuplicateEmail
	}
	return err
}

// Count returns the total number of registered users
func (r *UserRepository) Count() (int, error) {
	var n int
	err := r.db.QueryRow("SELECT COUNT(*) FROM users").Scan(&n)
	return n, err
}
