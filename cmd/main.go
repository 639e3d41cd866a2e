package main

import (
	"log"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/Payamsoltanzadeh/Telegram-Medical-bot/internal/bot"
	"github.com/Payamsoltanzadeh/Telegram-Medical-bot/internal/config"
	"github.com/Payamsoltanzadeh/Telegram-Medical-bot/internal/db"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal("config error: ", err)
	}

	database, err := db.NewPostgresDB(cfg)
	if err != nil {
		log.Fatal("database connection error: ", err)
	}
	defer database.Close()

	api, err := tgbotapi.NewBotAPI(cfg.BotToken)
	if err != nil {
		log.Fatal("telegram connection error: ", err)
	}
	log.Printf("Authorized on account %s", api.Self.UserName)

	medicalBot := bot.New(api, database, cfg)
	medicalBot.StartReminderService()

	if err := medicalBot.Start(); err != nil {
		log.Fatal(err)
	}
}
