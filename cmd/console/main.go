package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog"

	"rosterconsole/client/internal/config"
	"rosterconsole/client/internal/log"
	"rosterconsole/client/internal/models"
	"rosterconsole/client/internal/repository"
	"rosterconsole/client/internal/service"
	"rosterconsole/client/internal/transport"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	logger := log.New(cfg.Environment)

	client, err := transport.NewClient(cfg.API.BaseURL, cfg.API.Timeout, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("init transport failed")
	}
	if cfg.API.BearerToken != "" {
		client.SetBearerToken(cfg.API.BearerToken)
	}

	auth := service.NewAuthService(client, logger)
	users := repository.NewUserRepository(auth, logger)
	list := service.NewUserListService(users, cfg.API.PageSize, logger)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := run(ctx, cfg, logger, auth, users, list); err != nil {
		logger.Error().Err(err).Msg("console run failed")
		os.Exit(1)
	}
}

func run(
	ctx context.Context,
	cfg *config.AppConfig,
	logger zerolog.Logger,
	auth *service.AuthService,
	users *repository.UserRepository,
	list *service.UserListService,
) error {
	alive, err := auth.Probe(ctx)
	if err != nil {
		return fmt.Errorf("probe session: %w", err)
	}

	if !alive {
		if cfg.Console.Email == "" {
			return fmt.Errorf("no session and no console credentials configured")
		}
		if _, err := auth.Login(ctx, cfg.Console.Email, cfg.Console.Password); err != nil {
			return fmt.Errorf("login: %w", err)
		}
	}

	session, _ := auth.Current()
	logger.Info().
		Str("email", session.Email).
		Str("role", string(session.Role)).
		Msg("session established")

	if !auth.HasPermission(models.PermissionUsersRead) {
		return fmt.Errorf("current role %q cannot read the roster", session.Role)
	}

	if err := list.Refresh(ctx); err != nil {
		return fmt.Errorf("load roster: %w", err)
	}

	page, _ := list.CurrentPage()
	for _, user := range page.Users {
		fmt.Printf("%-28s  %-24s  %-10s  %s\n", user.ID, user.Email, user.Role, user.Status)
	}
	fmt.Printf("page %d/%d, %d users total (roster size %d)\n",
		page.Meta.CurrentPage, page.Meta.TotalPages, page.Meta.TotalItems, users.CountAll(ctx))

	auth.Logout(ctx)
	return nil
}
