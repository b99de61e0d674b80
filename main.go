package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/sardorm/telegram-elon-bot/config"
	"github.com/sardorm/telegram-elon-bot/flow"
	"github.com/sardorm/telegram-elon-bot/format"
	"github.com/sardorm/telegram-elon-bot/locale"
	"github.com/sardorm/telegram-elon-bot/storage"
	"github.com/sardorm/telegram-elon-bot/webhook"
)

func main() {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("invalid configuration")
	}
	feedChat, err := cfg.FeedTarget()
	if err != nil {
		log.Fatal().Err(err).Msg("invalid configuration")
	}

	texts, err := locale.NewProvider(cfg.DefaultLanguage)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load locales")
	}

	store, err := storage.NewSQLiteStore(cfg.DatabasePath)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize store")
	}
	defer store.Close()
	log.Info().Str("dbPath", cfg.DatabasePath).Msg("store initialized")

	tg, err := tgbotapi.NewBotAPI(cfg.BotToken)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize telegram bot")
	}
	tg.Debug = false
	log.Info().Str("username", tg.Self.UserName).Msg("authorized on account")

	RegisterCommands(tg)

	settings := flow.Settings{
		DefaultLanguage:      cfg.DefaultLanguage,
		Languages:            locale.Supported(),
		MaxMediaItems:        cfg.MaxMediaItems,
		MaxDescriptionLength: cfg.MaxDescriptionLength,
		Timeout:              cfg.ConversationTimeout,
		FeedChat:             feedChat,
		FeedIsChannel:        cfg.IsChannel,
	}
	engine := flow.NewEngine(newTelegramMessenger(tg), texts, store, format.New(texts), settings)
	if cfg.FeedWebhookURL != "" {
		engine.SetFeedNotifier(webhook.New(cfg.FeedWebhookURL))
		log.Info().Str("url", cfg.FeedWebhookURL).Msg("feed webhook enabled")
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return runBot(ctx, tg, NewBot(tg, engine))
	})

	if err := g.Wait(); err != nil && err != context.Canceled {
		log.Error().Err(err).Msg("shutdown with error")
	} else {
		log.Info().Msg("shutdown complete")
	}
}

func runBot(ctx context.Context, tg *tgbotapi.BotAPI, b *Bot) error {
	updateConfig := tgbotapi.NewUpdate(0)
	updateConfig.Timeout = 60
	updates := tg.GetUpdatesChan(updateConfig)

	// Updates from different users are handled concurrently; updates
	// from the same user stay in arrival order.
	d := newDispatcher(b.HandleUpdate)
	for {
		select {
		case <-ctx.Done():
			log.Info().Msg("stopping bot update loop")
			tg.StopReceivingUpdates()
			d.Wait()
			return ctx.Err()
		case update, ok := <-updates:
			if !ok {
				log.Warn().Msg("updates channel closed")
				d.Wait()
				return nil
			}
			d.Dispatch(ctx, update)
		}
	}
}
