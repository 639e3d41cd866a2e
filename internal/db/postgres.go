package db

import (
	"database/sql"
	"fmt"

	_ "github.com/lib/pq"

	"github.com/Payamsoltanzadeh/Telegram-Medical-bot/internal/config"
)

// NewPostgresDB opens a connection pool and verifies it with a ping
func NewPostgresDB(cfg *config.Config) (*sql.DB, error) {
	db, err := sql.Open("postgres", cfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	return db, nil
}
