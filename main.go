package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/robalobadob/numerito/apps/go-client/internal/cli"
	"github.com/robalobadob/numerito/apps/go-client/internal/config"
	"github.com/robalobadob/numerito/apps/go-client/internal/gameapi"
	"github.com/robalobadob/numerito/apps/go-client/internal/i18n"
	"github.com/robalobadob/numerito/apps/go-client/internal/session"
	"github.com/robalobadob/numerito/apps/go-client/internal/store"
)

func main() {
	_ = godotenv.Load()
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	cfg, err := config.Load(os.Args[1:])
	if errors.Is(err, flag.ErrHelp) {
		return
	}
	if err != nil {
		log.Fatal().Err(err).Msg("invalid configuration")
	}
	if lvl, err := zerolog.ParseLevel(cfg.LogLevel); err == nil {
		zerolog.SetGlobalLevel(lvl)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	bundle, err := i18n.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load message catalogs")
	}

	st, closeStore := openStore(ctx, cfg)
	defer closeStore()

	api := gameapi.New(cfg.APIBaseURL,
		gameapi.WithHTTPClient(&http.Client{Timeout: cfg.Timeout}),
		gameapi.WithToken(cfg.Token),
		gameapi.WithRateLimit(cfg.RequestsPerSecond),
	)
	machine := session.New(api, st)

	log.Info().Str("api", api.BaseURL()).Str("store", cfg.StoreDriver).Str("lang", cfg.Lang).Msg("starting numerito")
	app := cli.New(cli.Config{
		Session:  machine,
		Scores:   api,
		Text:     bundle.Translator(cfg.Lang),
		TopLimit: cfg.TopLimit,
		Timeout:  cfg.Timeout,
		Token:    cfg.Token,
	})
	if err := app.Run(ctx, os.Stdin, os.Stdout); err != nil {
		log.Error().Err(err).Msg("session ended with an error")
	}
}

// openStore opens the configured identifier slot. A store that cannot be
// opened degrades to memory so the game stays playable; the game just will
// not survive a restart.
func openStore(ctx context.Context, cfg config.Config) (store.Store, func()) {
	origin := store.Origin(cfg.APIBaseURL)
	noop := func() {}

	switch cfg.StoreDriver {
	case config.DriverSQLite:
		s, err := store.OpenSQLite(cfg.StorePath, origin)
		if err != nil {
			log.Warn().Err(err).Str("path", cfg.StorePath).Msg("sqlite store unavailable; game will not be persisted")
			return store.NewMemoryStore(), noop
		}
		return s, func() { _ = s.Close() }
	case config.DriverRedis:
		s, err := store.DialRedis(ctx, store.RedisConfig{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		}, origin)
		if err != nil {
			log.Warn().Err(err).Str("addr", cfg.RedisAddr).Msg("redis store unavailable; game will not be persisted")
			return store.NewMemoryStore(), noop
		}
		return s, func() { _ = s.Close() }
	}
	return store.NewMemoryStore(), noop
}
