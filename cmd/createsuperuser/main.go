// Package main создаёт учётную запись администратора в базе PostgreSQL.
//
// Пример:
//
//	CONFIG_PATH=./config/local.yaml createsuperuser -username admin -email admin@example.com
//
// Пароль берётся из переменной окружения USERS_API_SUPERUSER_PASSWORD.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/magabrotheeeer/users-api/internal/config"
	"github.com/magabrotheeeer/users-api/internal/lib/logger"
	"github.com/magabrotheeeer/users-api/internal/lib/password"
	"github.com/magabrotheeeer/users-api/internal/lib/sl"
	"github.com/magabrotheeeer/users-api/internal/migrations"
	"github.com/magabrotheeeer/users-api/internal/models"
	"github.com/magabrotheeeer/users-api/internal/storage"
	"github.com/magabrotheeeer/users-api/internal/storage/postgresql"
)

const passwordEnv = "USERS_API_SUPERUSER_PASSWORD"

func main() {
	var username, email, firstName, lastName string
	flag.StringVar(&username, "username", "", "username of the superuser")
	flag.StringVar(&email, "email", "", "email of the superuser")
	flag.StringVar(&firstName, "first-name", "", "first name")
	flag.StringVar(&lastName, "last-name", "", "last name")
	flag.Parse()

	cfg := config.MustLoad()
	log := logger.Setup(cfg.Env)

	user := models.User{
		ID:        uuid.NewString(),
		Username:  strings.TrimSpace(username),
		FirstName: firstName,
		LastName:  lastName,
		Email:     strings.TrimSpace(email),
	}
	if err := run(context.Background(), cfg, user, os.Getenv(passwordEnv)); err != nil {
		log.Error("failed to create superuser", sl.Err(err))
		os.Exit(1)
	}
	log.Info("superuser created", slog.String("id", user.ID), slog.String("username", user.Username))
}

func run(ctx context.Context, cfg *config.Config, user models.User, rawPassword string) error {
	const op = "createsuperuser.run"

	if user.Username == "" || user.Email == "" {
		return fmt.Errorf("%s: username and email are required", op)
	}
	if rawPassword == "" {
		return fmt.Errorf("%s: %s is not set", op, passwordEnv)
	}
	if cfg.StorageConnectionString == "" {
		return fmt.Errorf("%s: storage connection string is not set", op)
	}

	passwords := password.NewManager(cfg.BcryptCost, password.DefaultValidator(cfg.MinLength))
	if violations := passwords.Validate(rawPassword, &user); len(violations) > 0 {
		return fmt.Errorf("%s: weak password: %s", op, strings.Join(violations, " "))
	}

	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	db, err := postgresql.New(ctx, cfg.StorageConnectionString)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		_ = db.Close()
	}()

	if _, err := migrations.Run(db.DB, cfg.MigrationsPath); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	hash, err := passwords.Hash(rawPassword)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	now := time.Now().UTC()
	user.PasswordHash = hash
	user.IsStaff = true
	user.IsSuperuser = true
	user.Groups = []string{}
	user.Created = now
	user.Updated = now

	if err := db.CreateUser(ctx, user); err != nil {
		if errors.Is(err, storage.ErrUserExists) {
			return fmt.Errorf("%s: user with this username or email already exists", op)
		}
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}
