package app

import (
	"context"
	"fmt"
	"time"

	"github.com/skillswap/backend/internal/auth"
	"github.com/skillswap/backend/internal/config"
	"github.com/skillswap/backend/internal/connections"
	"github.com/skillswap/backend/internal/db"
	"github.com/skillswap/backend/internal/handlers"
	"github.com/skillswap/backend/internal/middleware"
	"github.com/skillswap/backend/internal/repositories"
)

// buildDependencies wires together concrete implementations used by the HTTP
// handlers. The returned cleanup releases any resources the store holds open.
func buildDependencies(pool db.Pool, cfg config.Config) (handlers.Dependencies, func(context.Context) error, error) {
	cleanup := func(context.Context) error { return nil }

	var store connections.Store
	switch cfg.ConnectionsBackend {
	case config.ConnectionsBackendBadger:
		badgerStore, err := repositories.OpenBadgerConnectionStore(cfg.BadgerDir)
		if err != nil {
			return handlers.Dependencies{}, nil, err
		}
		store = badgerStore
		cleanup = func(context.Context) error { return badgerStore.Close() }
	case config.ConnectionsBackendFile, "":
		store = repositories.NewFileConnectionStore(cfg.ConnectionsPath)
	default:
		return handlers.Dependencies{}, nil, fmt.Errorf("unknown connections backend %q", cfg.ConnectionsBackend)
	}

	directory := repositories.NewPostgresDirectory(pool)
	service := connections.NewService(store, directory, directory, directory)

	sessionStore := repositories.NewPostgresSessionStore(pool)
	sessions := auth.NewManager(cfg.AccessTokenTTL, sessionStore)

	limiter := middleware.NewIPRateLimiter(cfg.MutationRateLimit, time.Minute, cfg.MutationRateBurst, 5*time.Minute)

	return handlers.Dependencies{
		Connections: service,
		Sessions:    sessions,
		Limiter:     limiter,
	}, cleanup, nil
}
