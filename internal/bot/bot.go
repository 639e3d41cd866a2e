package bot

import (
	"database/sql"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/Payamsoltanzadeh/Telegram-Medical-bot/internal/config"
	"github.com/Payamsoltanzadeh/Telegram-Medical-bot/internal/mailer"
	"github.com/Payamsoltanzadeh/Telegram-Medical-bot/internal/repository"
)

// Bot is the Telegram bot with its dependencies
type Bot struct {
	api    *tgbotapi.BotAPI
	db     *sql.DB
	repo   *repository.Repository
	mailer *mailer.Mailer
	config *config.Config
}

// New creates a bot instance
func New(api *tgbotapi.BotAPI, db *sql.DB, cfg *config.Config) *Bot {
	return &Bot{
		api:    api,
		db:     db,
		repo:   repository.New(db),
		mailer: mailer.New(cfg),
		config: cfg,
	}
}

// Start begins polling for updates. Blocks until the updates channel closes.
func (b *Bot) Start() error {
	updates, err := b.initUpdatesChannel()
	if err != nil {
		return err
	}

	b.handleUpdates(updates)
	return nil
}

func (b *Bot) handleUpdates(updates tgbotapi.UpdatesChannel) {
	for update := range updates {
		if update.CallbackQuery != nil {
			b.handleCallbackQuery(update.CallbackQuery)
			continue
		}

		if update.Message == nil {
			continue
		}

		chatID := update.Message.Chat.ID
		isDeveloper := b.isDeveloper(chatID)

		if update.Message.IsCommand() {
			if isDeveloper {
				b.handleDeveloperCommand(update.Message)
			} else {
				b.handleCommand(update.Message)
			}
			continue
		}

		if isDeveloper {
			b.handleDeveloperMessage(update.Message)
		} else {
			b.handleMessage(update.Message)
		}
	}
}

// isDeveloper reports whether the chat belongs to the configured developer
func (b *Bot) isDeveloper(chatID int64) bool {
	return chatID == b.config.DeveloperChatID
}

func (b *Bot) initUpdatesChannel() (tgbotapi.UpdatesChannel, error) {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 30

	return b.api.GetUpdatesChan(u), nil
}
