// Package bootstrap wires the database, cache and optional demo data for the
// command binaries.
package bootstrap

import (
	"context"
	"fmt"
	"log"
	"strings"

	"storyloom/internal/cache"
	"storyloom/internal/config"
	"storyloom/internal/database"
	"storyloom/internal/repository"
	"storyloom/internal/seed"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// Options control runtime initialization behavior.
type Options struct {
	SeedDemo bool
}

// InitRuntime connects to DB and Redis and optionally seeds a demo project.
func InitRuntime(cfg *config.Config, opts Options) (*gorm.DB, *redis.Client, error) {
	db, err := database.Connect(cfg)
	if err != nil {
		return nil, nil, fmt.Errorf("database connection failed: %w", err)
	}

	// Init Redis (may result in nil client if unreachable)
	cache.InitRedis(cfg.RedisURL)
	r := cache.GetClient()

	if err := ensureDevUser(cfg, db); err != nil {
		return nil, nil, fmt.Errorf("failed to bootstrap development user: %w", err)
	}

	if opts.SeedDemo {
		if _, err := seed.Demo(db, seed.Options{OwnerEmail: cfg.DevBootstrapUserEmail, Seed: 1}); err != nil {
			return nil, nil, fmt.Errorf("failed to seed demo project: %w", err)
		}
	}

	return db, r, nil
}

// ensureDevUser makes sure the configured development account exists so a
// locally signed token has a user row to resolve to.
func ensureDevUser(cfg *config.Config, db *gorm.DB) error {
	if cfg == nil || db == nil {
		return nil
	}
	email := strings.ToLower(strings.TrimSpace(cfg.DevBootstrapUserEmail))
	if !strings.EqualFold(cfg.Env, "development") || email == "" {
		return nil
	}

	user, err := repository.NewUserRepository(db).Ensure(context.Background(), email, "")
	if err != nil {
		return err
	}

	log.Printf("development user ensured: id=%d (%s)", user.ID, email)
	return nil
}
