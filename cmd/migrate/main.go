package main

import (
	"database/sql"
	"log"
	"os"
	"path/filepath"

	"github.com/Payamsoltanzadeh/Telegram-Medical-bot/internal/config"
	"github.com/Payamsoltanzadeh/Telegram-Medical-bot/internal/db"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Panic("config error: ", err)
	}

	database, err := db.NewPostgresDB(cfg)
	if err != nil {
		log.Panic("database connection error: ", err)
	}
	defer database.Close()

	projectRoot, err := getProjectRoot()
	if err != nil {
		log.Panic("project root not found: ", err)
	}

	migrations := []string{
		"001_create_users.sql",
		"002_create_specializations.sql",
		"003_create_doctors.sql",
		"004_create_available_slots.sql",
		"005_create_appointments.sql",
		"006_create_health_certificates.sql",
		"100_seed_catalog.sql",
	}

	successes := 0
	for _, migration := range migrations {
		migrationPath := filepath.Join(projectRoot, "migrations", migration)
		if err := applyMigration(database, migrationPath); err != nil {
			log.Printf("error: %s in migration: %s", err, migration)
		} else {
			log.Printf("applied migration: %s", migration)
			successes++
		}
	}
	log.Printf("applied %d of %d migrations", successes, len(migrations))
}

func applyMigration(db *sql.DB, path string) error {
	content, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	_, err = db.Exec(string(content))
	return err
}

func getProjectRoot() (string, error) {
	wd, err := os.Getwd()
	if err != nil {
		return "", err
	}

	for {
		if _, err := os.Stat(filepath.Join(wd, "go.mod")); err == nil {
			return wd, nil
		}
		parent := filepath.Dir(wd)
		if parent == wd {
			return "", os.ErrNotExist
		}
		wd = parent
	}
}
