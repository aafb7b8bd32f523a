// AngelaMos | 2026
// main.go

package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/carterperez-dev/joborders/internal/authz"
	"github.com/carterperez-dev/joborders/internal/config"
	"github.com/carterperez-dev/joborders/internal/core"
	"github.com/carterperez-dev/joborders/internal/notification"
	"github.com/carterperez-dev/joborders/internal/rbac"
	"github.com/carterperez-dev/joborders/internal/user"
)

const (
	seedPassword = "password"
	seedTimeout  = 2 * time.Minute
)

type seedUser struct {
	name  string
	email string
	roles []authz.Role
}

var seedUsers = []seedUser{
	{"Admin", "admin@example.com", []authz.Role{authz.RoleAdmin}},
	{"Test Engineer", "engineer@example.com", []authz.Role{authz.RoleEngineer}},
	{"Test Manager", "manager@example.com", []authz.Role{authz.RoleManager}},
	{"Test Supervisor", "supervisor@example.com", []authz.Role{authz.RoleSupervisor}},
	{"Test Moderator", "moderator@example.com", []authz.Role{authz.RoleModerator}},
	{"Regular User", "user@example.com", nil},
}

func main() {
	configPath := flag.String("config", "config.yaml", "path to config file")
	force := flag.Bool("force", false, "seed even outside development")
	flag.Parse()

	if err := run(*configPath, *force); err != nil {
		slog.Error("seed failed", "error", err)
		os.Exit(1)
	}
}

func run(configPath string, force bool) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	if !cfg.IsDevelopment() && !force {
		return fmt.Errorf(
			"refusing to seed %q environment without -force",
			cfg.App.Environment,
		)
	}

	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	ctx, cancel := context.WithTimeout(context.Background(), seedTimeout)
	defer cancel()

	if err := core.Migrate(cfg.Database.URL, logger); err != nil {
		return err
	}

	db, err := core.NewDatabase(ctx, cfg.Database)
	if err != nil {
		return err
	}
	defer db.Close() //nolint:errcheck

	redis, err := core.NewRedis(ctx, cfg.Redis)
	if err != nil {
		return err
	}
	defer redis.Close() //nolint:errcheck

	rbacRepo := rbac.NewRepository(db.DB)
	registry := rbac.NewRegistry(rbacRepo, redis.Client, cfg.RBAC.CacheTTL, logger)

	if err := rbac.NewService(rbacRepo, registry).Seed(ctx); err != nil {
		return fmt.Errorf("seed roles: %w", err)
	}
	logger.Info("roles and permissions seeded")

	users := user.NewService(user.NewRepository(db.DB), registry)
	notifications := notification.NewService(notification.NewRepository(db.DB))

	for _, su := range seedUsers {
		id, created, err := ensureUser(ctx, users, su)
		if err != nil {
			return err
		}
		if !created {
			logger.Info("user exists, skipping", "email", su.email)
			continue
		}

		if err := welcome(ctx, notifications, id, su.name); err != nil {
			return err
		}
		logger.Info("user seeded", "email", su.email, "roles", su.roles)
	}

	logger.Info("seed complete", "password", seedPassword)
	return nil
}

func ensureUser(
	ctx context.Context,
	users *user.Service,
	su seedUser,
) (string, bool, error) {
	existing, err := users.GetByEmail(ctx, su.email)
	if err == nil {
		return existing.ID, false, nil
	}
	if !errors.Is(err, core.ErrNotFound) {
		return "", false, fmt.Errorf("look up %s: %w", su.email, err)
	}

	roles := make([]string, 0, len(su.roles))
	for _, r := range su.roles {
		roles = append(roles, string(r))
	}

	u, err := users.CreateUser(ctx, user.CreateUserRequest{
		Name:     su.name,
		Email:    su.email,
		Password: seedPassword,
		Roles:    roles,
	})
	if err != nil {
		return "", false, fmt.Errorf("create %s: %w", su.email, err)
	}

	return u.ID, true, nil
}

func welcome(
	ctx context.Context,
	svc *notification.Service,
	userID, name string,
) error {
	messages := []struct {
		title, body, kind string
	}{
		{
			"Welcome!",
			fmt.Sprintf("Welcome aboard, %s. Your account is ready.", name),
			notification.KindWelcome,
		},
		{
			"System Update",
			"The job order module is now available.",
			notification.KindSystem,
		},
		{
			"Job Orders",
			"Job orders assigned to you will show up here.",
			notification.KindJobOrder,
		},
	}

	for _, m := range messages {
		if err := svc.Notify(ctx, userID, m.title, m.body, m.kind); err != nil {
			return err
		}
	}
	return nil
}
