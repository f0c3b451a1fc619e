// Package app wires configuration into the calendar store, caches and
// timetable service shared by the server and the CLI.
package app

import (
	"context"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
	goredis "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"

	"github.com/Nixie-Tech-LLC/iqamah/internal/cache"
	"github.com/Nixie-Tech-LLC/iqamah/internal/config"
	"github.com/Nixie-Tech-LLC/iqamah/internal/db"
	"github.com/Nixie-Tech-LLC/iqamah/internal/dst"
	"github.com/Nixie-Tech-LLC/iqamah/internal/fetch"
	"github.com/Nixie-Tech-LLC/iqamah/internal/redis"
	"github.com/Nixie-Tech-LLC/iqamah/internal/storage"
	"github.com/Nixie-Tech-LLC/iqamah/internal/store"
	"github.com/Nixie-Tech-LLC/iqamah/internal/timetable"
)

// App holds the long-lived dependencies. Close releases them.
type App struct {
	Config  *config.Config
	Store   *store.Chain
	Service *timetable.Service
	DST     *dst.Resolver

	conn *sqlx.DB
	rdb  *goredis.Client
}

// Options selects which optional backends Build may connect to.
type Options struct {
	// Migrate runs the SQL migrations after connecting to Postgres.
	Migrate bool
	// SkipRedis leaves the remote cache tier off even when configured.
	SkipRedis bool
}

// InitStorage selects the configured static calendar backend.
func InitStorage(cfg *config.Config) (storage.Storage, error) {
	switch cfg.StaticSource {
	case config.SourceSpaces:
		s, err := storage.NewSpacesStorage(cfg.SpacesEndpoint, cfg.SpacesRegion, cfg.SpacesBucket,
			cfg.SpacesPrefix, cfg.SpacesAccessKey, cfg.SpacesSecretKey)
		if err != nil {
			return nil, fmt.Errorf("initialize spaces storage: %w", err)
		}
		log.Info().Str("bucket", cfg.SpacesBucket).Msg("using DigitalOcean Spaces for static calendars")
		return s, nil
	case config.SourceHTTP:
		log.Info().Str("base_url", cfg.StaticBaseURL).Msg("using HTTP static calendars")
		return storage.NewHTTPStorage(cfg.StaticBaseURL, fetch.NewClient(fetch.Options{})), nil
	}
	log.Info().Str("dir", cfg.StaticDir).Msg("using local static calendars")
	return storage.NewLocalStorage(cfg.StaticDir), nil
}

// Build connects the backends cfg enables and constructs the service.
func Build(ctx context.Context, cfg *config.Config, opts Options) (*App, error) {
	a := &App{Config: cfg}

	resolver := dst.Default()
	if cfg.DSTTablePath != "" {
		loaded, err := dst.LoadFile(cfg.DSTTablePath)
		if err != nil {
			return nil, fmt.Errorf("load dst table: %w", err)
		}
		resolver = loaded
	}
	a.DST = resolver

	static, err := InitStorage(cfg)
	if err != nil {
		return nil, err
	}

	var primary store.Source
	if cfg.DatabaseURL != "" {
		conn, err := db.Init(cfg.DatabaseURL)
		if err != nil {
			return nil, err
		}
		a.conn = conn
		if opts.Migrate {
			if err := db.RunMigrations(conn, cfg.MigrationsPath); err != nil {
				a.Close()
				return nil, fmt.Errorf("db migrate: %w", err)
			}
		}
		primary = store.NewPostgres(db.NewStore(conn))
	}
	a.Store = store.NewChain(primary, store.NewStatic(static))

	var remote cache.Remote
	if cfg.RedisAddress != "" && !opts.SkipRedis {
		rdb, err := redis.InitRedis(ctx, cfg.RedisAddress, cfg.RedisUsername, cfg.RedisPassword)
		if err != nil {
			log.Warn().Err(err).Msg("redis unavailable, caching in process only")
		} else {
			a.rdb = rdb
			remote = redis.NewTier(rdb)
		}
	}

	a.Service, err = timetable.NewService(a.Store, resolver, timetable.Options{
		Location:       cfg.Location(),
		TTL:            cfg.CacheTTL,
		MonthlyEntries: cfg.MonthlyCacheSize,
		RamadanEntries: cfg.RamadanCacheSize,
		Remote:         remote,
	})
	if err != nil {
		a.Close()
		return nil, err
	}
	return a, nil
}

// Caches lists every cache for sweeping and administration.
func (a *App) Caches() []cache.Managed {
	return append(a.Service.Caches(), a.Store.Registry())
}

func (a *App) Close() error {
	var errs []error
	if a.rdb != nil {
		errs = append(errs, a.rdb.Close())
	}
	if a.conn != nil {
		errs = append(errs, a.conn.Close())
	}
	return errors.Join(errs...)
}
