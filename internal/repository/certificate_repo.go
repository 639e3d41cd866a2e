package repository

import (
	"database/sql"

	"github.com/Payamsoltanzadeh/Telegram-Medical-bot/internal/models"
)

// CertificateRepository works with health certificate requests
type CertificateRepository struct {
	db *sql.DB
}

// NewCertificateRepository creates the certificates repository
func NewCertificateRepository(db *sql.DB) *CertificateRepository {
	return &CertificateRepository{db: db}
}

// Create stores a new pending certificate request
func (r *CertificateRepository) Create(userID int, reason, description string) (int, error) {
	var id int
	err := r.db.QueryRow(`
		INSERT INTO health_certificates (user_id, reason, description, status)
		VALUES ($1, $2, $3, 'pending')
		RETURNING id`,
		userID, reason, description,
	).Scan(&id)
	if err != nil {
		return 0, err
	}
	return id, nil
}

// GetDetails returns a certificate request joined with user info
func (r *CertificateRepository) GetDetails(id int) (*models.CertificateDetails, error) {
	c := &models.CertificateDetails{}
	err := r.db.QueryRow(`
		SELECT c.id, c.user_id, c.reason, COALESCE(c.description, ''), c.status, c.created_at,
		       u.name, u.email, u.telegram_id
		FROM health_certificates c
		JOIN users u ON c.user_id = u.id
		WHERE c.id = $1`, id).Scan(
		&c.ID, &c.UserID, &c.Reason, &c.Description, &c.Status, &c.CreatedAt,
		&c.UserName, &c.UserEmail, &c.UserTelegramID,
	)
	if err != nil {
		return nil, err
	}
	return c, nil
}

// Transition moves a certificate request out of pending. The conditional
// update makes a second moderation tap a no-op instead of a double send.
func (r *CertificateRepository) Transition(id int, to models.CertificateStatus) (*models.CertificateDetails, error) {
	res, err := r.db.Exec(`
		UPDATE health_certificates SET status = $1
		WHERE id = $2 AND status = 'pending'`, to, id)
	if err != nil {
		return nil, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return nil, err
	}
	if n == 0 {
		return nil, ErrAlreadyProcessed
	}
	return r.GetDetails(id)
}

// Delete removes a certificate request. Used to compensate a request whose
// developer notification could not be delivered.
func (r *CertificateRepository) Delete(id int) error {
	res, err := r.db.Exec("DELETE FROM health_certificates WHERE id = $1", id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// CountByStatus returns certificate request counts grouped by status
func (r *CertificateRepository) CountByStatus() (map[models.CertificateStatus]int, error) {
	rows, err := r.db.Query("SELECT status, COUNT(*) FROM health_certificates GROUP BY status")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := make(map[models.CertificateStatus]int)
	for rows.Next() {
		var status models.CertificateStatus
		var n int
		if err := rows.Scan(&status, &n); err != nil {
			continue
		}
		counts[status] = n
	}
	return counts, rows.Err()
}
