// Package bot wires the Telegram front end to the wagering engine.
package bot

import (
	"fmt"
	"strconv"
	"time"

	"github.com/rs/zerolog/log"
	tele "gopkg.in/telebot.v3"

	"wager-bot/internal/config"
	"wager-bot/internal/handler"
	"wager-bot/internal/service"
)

// Bot wraps the telebot instance with application dependencies.
type Bot struct {
	bot     *tele.Bot
	cfg     *config.Config
	engine  *service.Engine
	private *PrivateUsers

	accountHandler *handler.AccountHandler
	adminHandler   *handler.AdminHandler
	gameHandler    *handler.GameHandler
}

// Dependencies holds everything the bot handlers need.
type Dependencies struct {
	Config *config.Config
	Engine *service.Engine
}

// New creates the bot, registers middleware and handlers, and routes timeout
// notices from the engine to players.
func New(deps *Dependencies) (*Bot, error) {
	if deps.Config.Bot.Token == "" {
		return nil, fmt.Errorf("bot token is required")
	}

	pref := tele.Settings{
		Token:  deps.Config.Bot.Token,
		Poller: &tele.LongPoller{Timeout: 10 * time.Second},
		OnError: func(err error, c tele.Context) {
			log.Error().Err(err).Msg("Handler error")
		},
	}

	teleBot, err := tele.NewBot(pref)
	if err != nil {
		return nil, fmt.Errorf("failed to create bot: %w", err)
	}

	b := &Bot{
		bot:            teleBot,
		cfg:            deps.Config,
		engine:         deps.Engine,
		private:        NewPrivateUsers(),
		accountHandler: handler.NewAccountHandler(deps.Engine),
		adminHandler:   handler.NewAdminHandler(deps.Engine),
		gameHandler:    handler.NewGameHandler(deps.Engine),
	}

	b.registerMiddleware()
	b.registerHandlers()
	deps.Engine.SetNotifier(b.notify)

	return b, nil
}

func (b *Bot) registerMiddleware() {
	b.bot.Use(RecoveryMiddleware())
	b.bot.Use(WhitelistMiddleware(b.cfg, b.private))
	b.bot.Use(LoggingMiddleware())
}

func (b *Bot) registerHandlers() {
	b.bot.Handle("/start", b.accountHandler.HandleStart)
	b.bot.Handle("/balance", b.accountHandler.HandleBalance)
	b.bot.Handle("/history", b.accountHandler.HandleHistory)
	b.bot.Handle("/top", b.accountHandler.HandleTop)

	b.bot.Handle("/game", b.gameHandler.HandleGame)
	for _, cmd := range b.engine.Games().Commands() {
		b.bot.Handle("/"+cmd, b.gameHandler.HandlePlay(cmd))
	}
	b.bot.Handle(&tele.Btn{Unique: "act"}, b.gameHandler.HandleCallback)

	adminGroup := b.bot.Group()
	adminGroup.Use(AdminMiddleware(b.cfg))
	adminGroup.Handle("/admin_add", b.adminHandler.HandleAdminAdd)
	adminGroup.Handle("/admin_sub", b.adminHandler.HandleAdminSub)
	adminGroup.Handle("/admin_set", b.adminHandler.HandleAdminSet)
}

// notify tells a player their session expired. Delivery is best effort.
func (b *Bot) notify(accountID string, out *service.Outcome) {
	id, err := strconv.ParseInt(accountID, 10, 64)
	if err != nil {
		return
	}
	if _, err := b.bot.Send(&tele.User{ID: id}, handler.RenderOutcome(out)); err != nil {
		log.Warn().Err(err).Str("account_id", accountID).Msg("Failed to deliver timeout notice")
	}
}

// Start starts polling. It blocks until Stop is called.
func (b *Bot) Start() {
	log.Info().Msg("Starting bot...")
	b.bot.Start()
}

// Stop stops polling.
func (b *Bot) Stop() {
	log.Info().Msg("Stopping bot...")
	b.bot.Stop()
}
