// Package app wires configuration, stores, services and the HTTP server.
package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	goredis "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/sethvargo/go-retry"
	mongodrv "go.mongodb.org/mongo-driver/mongo"
	"golang.org/x/crypto/bcrypt"
	"golang.org/x/sync/errgroup"

	"github.com/mvcmarket/marketplace/internal/api"
	"github.com/mvcmarket/marketplace/internal/api/handler"
	"github.com/mvcmarket/marketplace/internal/core/ports"
	"github.com/mvcmarket/marketplace/internal/core/service"
	"github.com/mvcmarket/marketplace/internal/infrastructure/backend"
	"github.com/mvcmarket/marketplace/internal/infrastructure/db/memory"
	"github.com/mvcmarket/marketplace/internal/infrastructure/db/mongo"
	"github.com/mvcmarket/marketplace/internal/infrastructure/db/redis"
	"github.com/mvcmarket/marketplace/internal/infrastructure/messaging/nats"
	"github.com/mvcmarket/marketplace/internal/infrastructure/notify"
	"github.com/mvcmarket/marketplace/internal/infrastructure/queue"
	"github.com/mvcmarket/marketplace/internal/infrastructure/sessionstore"
	"github.com/mvcmarket/marketplace/internal/pkg/config"
	"github.com/mvcmarket/marketplace/pkg/logger"
)

const (
	shutdownTimeout = 10 * time.Second
	connectAttempts = 5
	connectBackoff  = 500 * time.Millisecond
)

// directory is a user roster that also acts as the local credential provider.
type directory interface {
	ports.UserDirectory
	ports.CredentialProvider
}

// sessionStore is a session store the readiness probe can ping.
type sessionStore interface {
	ports.SessionStore
	handler.Pinger
}

type App struct {
	cfg        *config.Config
	log        zerolog.Logger
	server     *echo.Echo
	sessions   *service.SessionManager
	catalog    *service.CatalogService
	dispatcher *queue.Dispatcher
	closers    []func(context.Context) error
}

// New connects every configured store and builds the HTTP server. Resources
// opened before a failure are released.
func New(ctx context.Context, cfg *config.Config) (a *App, err error) {
	a = &App{cfg: cfg, log: logger.Component("app")}
	defer func() {
		if err != nil {
			a.close(context.Background())
		}
	}()

	readiness := map[string]handler.Pinger{}

	var mongoDB *mongodrv.Database
	if cfg.NeedsMongo() {
		client, db, err := a.connectMongo(ctx)
		if err != nil {
			return nil, err
		}
		mongoDB = db
		a.closers = append(a.closers, client.Disconnect)
		readiness["mongodb"] = handler.PingFunc(func(ctx context.Context) error { return client.Ping(ctx, nil) })
	}

	store, err := a.openSessionStore(ctx)
	if err != nil {
		return nil, err
	}
	readiness["session_store"] = store

	var remote *backend.Client
	if cfg.Backend.Enabled() {
		remote = backend.NewClient(cfg.Backend.URL, cfg.Backend.Timeout, logger.Component("backend"))
		readiness["backend"] = remote
	}
	offline := remote == nil

	dir, err := a.openDirectory(ctx, mongoDB, offline)
	if err != nil {
		return nil, err
	}
	listings, err := a.openListings(ctx, mongoDB)
	if err != nil {
		return nil, err
	}

	sink, err := a.openEventSink(readiness)
	if err != nil {
		return nil, err
	}
	a.dispatcher = queue.NewDispatcher(cfg.Events.Workers, sink, logger.Component("events"))
	feed := notify.NewFeed(cfg.Events.NotifyTTL, logger.Component("notify"))

	providers := []ports.CredentialProvider{dir}
	var be ports.Backend
	if remote != nil {
		providers = append(providers, backend.NewProvider(remote))
		be = remote
	}

	a.sessions = service.NewSessionManager(dir, store, feed, logger.Component("session"), providers...)
	a.catalog = service.NewCatalogService(listings, be, a.dispatcher, feed, cfg.Catalog.PriceCeiling, logger.Component("catalog"))
	admin := service.NewAdminService(dir, listings, a.dispatcher, feed, logger.Component("admin"))

	if u := a.sessions.Restore(ctx); u != nil {
		a.log.Info().Str("username", u.Username).Msg("session restored")
	}

	a.server = api.NewRouter(api.Deps{
		Sessions:     a.sessions,
		Catalog:      a.catalog,
		Admin:        admin,
		Users:        dir,
		Feed:         feed,
		PriceCeiling: cfg.Catalog.PriceCeiling,
		Readiness:    readiness,
		Log:          logger.Component("http"),
	})

	a.log.Info().
		Bool("offline", offline).
		Str("session_store", cfg.Session.Store).
		Str("catalog_store", cfg.Catalog.Store).
		Str("directory_store", cfg.Directory.Store).
		Msg("application initialised")
	return a, nil
}

// Run serves HTTP and delivers events until ctx is cancelled, then shuts
// down gracefully. The dispatcher stops only after in-flight requests have
// finished, so their events still go out.
func (a *App) Run(ctx context.Context) error {
	eventsCtx, stopEvents := context.WithCancel(context.WithoutCancel(ctx))
	defer stopEvents()
	a.dispatcher.Start(eventsCtx)

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		addr := ":" + a.cfg.Port
		a.log.Info().Str("addr", addr).Msg("http server listening")
		if err := a.server.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		// The initial load is best effort: local data stays in place on failure.
		if err := a.catalog.Refresh(gctx); err != nil {
			a.log.Warn().Err(err).Msg("initial catalog refresh failed")
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		a.log.Info().Msg("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return a.server.Shutdown(shutdownCtx)
	})

	err := g.Wait()
	stopEvents()
	a.dispatcher.Wait()

	closeCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	a.close(closeCtx)
	return err
}

func (a *App) close(ctx context.Context) {
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](ctx); err != nil {
			a.log.Warn().Err(err).Msg("close failed")
		}
	}
	a.closers = nil
}

func (a *App) connectMongo(ctx context.Context) (*mongodrv.Client, *mongodrv.Database, error) {
	var (
		client *mongodrv.Client
		db     *mongodrv.Database
	)
	err := a.withRetry(ctx, "mongodb", func(ctx context.Context) error {
		c, d, err := mongo.Connect(ctx, mongo.Config{URI: a.cfg.Mongo.URI, Database: a.cfg.Mongo.Database})
		if err != nil {
			return err
		}
		client, db = c, d
		return nil
	})
	return client, db, err
}

func (a *App) openSessionStore(ctx context.Context) (sessionStore, error) {
	codec := sessionstore.NewCodec(a.cfg.Session.Secret)

	if a.cfg.Session.Store == config.StoreRedis {
		var client *goredis.Client
		err := a.withRetry(ctx, "redis", func(ctx context.Context) error {
			c, err := redis.Connect(ctx, redis.Config{
				Addr:     a.cfg.Redis.Addr,
				Password: a.cfg.Redis.Password,
				DB:       a.cfg.Redis.DB,
			})
			client = c
			return err
		})
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, func(context.Context) error { return client.Close() })
		return redis.NewSessionStore(client, codec), nil
	}

	store, err := sessionstore.OpenSQLite(ctx, a.cfg.Session.DSN, codec)
	if err != nil {
		return nil, err
	}
	a.closers = append(a.closers, func(context.Context) error { return store.Close() })
	return store, nil
}

// openDirectory builds the local roster. It accepts registrations only when
// no remote API is configured.
func (a *App) openDirectory(ctx context.Context, db *mongodrv.Database, offline bool) (directory, error) {
	seed, err := memory.SeedUsers(bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	if a.cfg.Directory.Store == config.StoreMongo {
		dir := mongo.NewUserDirectory(db, offline)
		if err := dir.EnsureIndexes(ctx); err != nil {
			return nil, fmt.Errorf("user directory indexes: %w", err)
		}
		if err := dir.Seed(ctx, seed); err != nil {
			return nil, fmt.Errorf("seed users: %w", err)
		}
		return dir, nil
	}

	var opts []memory.DirectoryOption
	if offline {
		opts = append(opts, memory.WithRegistrations())
	}
	return memory.NewDirectory(seed, opts...), nil
}

func (a *App) openListings(ctx context.Context, db *mongodrv.Database) (ports.ListingRepository, error) {
	if a.cfg.Catalog.Store == config.StoreMongo {
		repo := mongo.NewListingRepository(db)
		if err := repo.EnsureIndexes(ctx); err != nil {
			return nil, fmt.Errorf("listing indexes: %w", err)
		}
		if a.cfg.Catalog.Seed {
			if err := repo.Seed(ctx, memory.SeedListings()); err != nil {
				return nil, fmt.Errorf("seed listings: %w", err)
			}
		}
		return repo, nil
	}

	if a.cfg.Catalog.Seed {
		return memory.NewListingRepository(memory.SeedListings()), nil
	}
	return memory.NewListingRepository(nil), nil
}

// openEventSink publishes to NATS when configured and logs events otherwise.
func (a *App) openEventSink(readiness map[string]handler.Pinger) (ports.EventPublisher, error) {
	if a.cfg.Events.NATSURL == "" {
		return queue.NewLogSink(logger.Component("events")), nil
	}

	nc, err := nats.Connect(a.cfg.Events.NATSURL, logger.Component("nats"))
	if err != nil {
		return nil, err
	}
	a.closers = append(a.closers, func(context.Context) error { return nc.Drain() })
	readiness["nats"] = handler.PingFunc(func(context.Context) error {
		if !nc.IsConnected() {
			return fmt.Errorf("nats: %s", nc.Status())
		}
		return nil
	})
	return nats.NewPublisher(nc), nil
}

// withRetry retries connect with exponential backoff. Every failure is
// treated as transient.
func (a *App) withRetry(ctx context.Context, name string, connect func(context.Context) error) error {
	b := retry.WithMaxRetries(connectAttempts-1, retry.NewExponential(connectBackoff))
	attempt := 0
	err := retry.Do(ctx, b, func(ctx context.Context) error {
		attempt++
		if err := connect(ctx); err != nil {
			a.log.Warn().Err(err).Str("dependency", name).Int("attempt", attempt).Msg("connect failed")
			return retry.RetryableError(err)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("connect %s: %w", name, err)
	}
	return nil
}
