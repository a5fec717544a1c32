package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/jlfenwick/wordrow/internal/httpserver"
	"github.com/jlfenwick/wordrow/internal/store"
	"github.com/jlfenwick/wordrow/internal/telemetry"
	"github.com/jlfenwick/wordrow/internal/words"
)

func main() {
	_ = godotenv.Load()
	if lvl, err := zerolog.ParseLevel(getEnv("LOG_LEVEL", "info")); err == nil {
		zerolog.SetGlobalLevel(lvl)
	}

	if err := words.Init(); err != nil {
		log.Fatal().Err(err).Msg("failed to load word lists")
	}

	db, err := store.Open(getEnv("DB_PATH", "data/wordrow.db"))
	if err != nil {
		log.Fatal().Err(err).Msg("open database")
	}
	defer db.Close()
	if err := db.Migrate(); err != nil {
		log.Fatal().Err(err).Msg("migrate database")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownTelemetry, err := telemetry.Setup(ctx)
	if err != nil {
		log.Warn().Err(err).Msg("telemetry setup failed, continuing without it")
		shutdownTelemetry = func(context.Context) error { return nil }
	}
	defer func() {
		if err := shutdownTelemetry(context.Background()); err != nil {
			log.Warn().Err(err).Msg("telemetry shutdown")
		}
	}()

	// The SQLite store doubles as the player KV, so stats and settings
	// survive restarts.
	srv := httpserver.New(db, db, words.Source{}, nil)

	addr := ":" + getEnv("PORT", "5175")
	httpSrv := &http.Server{
		Addr:              addr,
		Handler:           srv.Router(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info().Str("addr", addr).Msg("starting wordrow server")
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		log.Info().Msg("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return httpSrv.Shutdown(shutdownCtx)
	})
	if err := g.Wait(); err != nil {
		log.Fatal().Err(err).Msg("server exited")
	}
}

func getEnv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}
