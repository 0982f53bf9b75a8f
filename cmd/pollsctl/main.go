// Command pollsctl performs administrative tasks against the polls database.
//
//	pollsctl createstaff -username admin -email admin@example.com -password secret
//	pollsctl promote -username alice
//	pollsctl seed
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/polls-app/polls/internal/accounts"
	"github.com/polls-app/polls/internal/cache"
	"github.com/polls-app/polls/internal/config"
	"github.com/polls-app/polls/internal/database"
	"github.com/polls-app/polls/internal/models"
	"github.com/polls-app/polls/internal/polls"
)

func usage() {
	fmt.Fprintln(os.Stderr, "usage: pollsctl <createstaff|promote|seed> [flags]")
	os.Exit(2)
}

func main() {
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	if len(os.Args) < 2 {
		usage()
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load settings")
	}

	db, err := database.New(cfg.Database)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to database")
	}
	defer db.Close()

	ctx := context.Background()
	users := accounts.NewService(db.GetDB())

	switch os.Args[1] {
	case "createstaff":
		err = createStaff(ctx, users, os.Args[2:])
	case "promote":
		err = promote(ctx, users, os.Args[2:])
	case "seed":
		err = seed(ctx, polls.NewQuestions(db.GetDB(), cache.Nop{}))
	default:
		usage()
	}
	if err != nil {
		log.Fatal().Err(err).Str("command", os.Args[1]).Msg("Command failed")
	}
}

func createStaff(ctx context.Context, users *accounts.Service, args []string) error {
	fs := flag.NewFlagSet("createstaff", flag.ExitOnError)
	username := fs.String("username", "", "login name")
	email := fs.String("email", "", "email address")
	password := fs.String("password", "", "password")
	fs.Parse(args)

	if *username == "" || *email == "" || *password == "" {
		return fmt.Errorf("-username, -email and -password are required")
	}

	if _, err := users.Register(ctx, models.RegisterRequest{Username: *username, Email: *email, Password: *password}); err != nil {
		return err
	}
	user, err := users.PromoteStaff(ctx, *username)
	if err != nil {
		return err
	}

	log.Info().Uint("id", user.ID).Str("username", user.Username).Msg("Staff user created")
	return nil
}

func promote(ctx context.Context, users *accounts.Service, args []string) error {
	fs := flag.NewFlagSet("promote", flag.ExitOnError)
	username := fs.String("username", "", "login name")
	fs.Parse(args)

	user, err := users.PromoteStaff(ctx, *username)
	if err != nil {
		return err
	}

	log.Info().Str("username", user.Username).Msg("User promoted to staff")
	return nil
}

func seed(ctx context.Context, questions *polls.Questions) error {
	question, err := questions.Create(ctx, models.CreateQuestionRequest{
		Text:        "What's up?",
		PublishedAt: time.Now().UTC(),
		Choices:     []string{"Not much", "The sky", "Just hacking again"},
	})
	if err != nil {
		return err
	}

	log.Info().Uint("id", question.ID).Msg("Sample question created")
	return nil
}
