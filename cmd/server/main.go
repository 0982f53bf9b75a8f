package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/fatih/color"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/polls-app/polls/internal/accounts"
	"github.com/polls-app/polls/internal/auth"
	"github.com/polls-app/polls/internal/cache"
	"github.com/polls-app/polls/internal/clock"
	"github.com/polls-app/polls/internal/config"
	"github.com/polls-app/polls/internal/database"
	"github.com/polls-app/polls/internal/handlers"
	"github.com/polls-app/polls/internal/jobs"
	"github.com/polls-app/polls/internal/notify"
	"github.com/polls-app/polls/internal/polls"
	"github.com/polls-app/polls/internal/server"
)

func setupLogging(cfg config.Config) {
	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil || level == zerolog.NoLevel {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)

	if cfg.IsDevelopment() {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.Kitchen})
	}
}

func main() {
	// Booting screen
	fmt.Println(color.YellowString(" ____       _ _\n|  _ \\ ___ | | |___\n| |_) / _ \\| | / __|\n|  __/ (_) | | \\__ \\\n|_|   \\___/|_|_|___/"))
	fmt.Printf("%s\n", color.New(color.FgHiYellow).Add(color.Bold).Sprintf("Polls"))
	color.HiBlack("=====================================================\n")

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("An error occurred when loading settings.")
	}
	setupLogging(cfg)

	db, err := database.New(cfg.Database)
	if err != nil {
		log.Fatal().Err(err).Msg("An error occurred when connecting to database.")
	}
	defer db.Close()

	questionCache, err := cache.New(cfg.CacheTTL)
	if err != nil {
		log.Fatal().Err(err).Msg("An error occurred when creating the question cache.")
	}

	gormDB := db.GetDB()
	questions := polls.NewQuestions(gormDB, questionCache)

	// Configure timed tasks
	quartz, err := jobs.New(cfg.CacheFlushSchedule, questions)
	if err != nil {
		log.Fatal().Err(err).Msg("An error occurred when scheduling maintenance jobs.")
	}
	quartz.Start()

	srv, err := server.NewServer(cfg, handlers.Deps{
		DB:            db,
		Questions:     questions,
		Ledger:        polls.NewLedger(gormDB),
		Results:       polls.NewResults(gormDB),
		Accounts:      accounts.NewService(gormDB),
		Tokens:        auth.NewTokenManager(cfg.JWTSecret, cfg.TokenTTL, clock.System()),
		Notifier:      notify.New(cfg.Twilio),
		Clock:         clock.System(),
		SecureCookies: !cfg.IsDevelopment(),
	})
	if err != nil {
		log.Fatal().Err(err).Msg("An error occurred when configuring the server.")
	}

	go func() {
		log.Info().Str("addr", srv.Addr).Msg("Server starting")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("Server stopped unexpectedly")
		}
	}()

	// Messages
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}
	quartz.Stop(ctx)
}
