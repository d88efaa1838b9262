package main

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	"github.com/birbparty/birb-academy/internal/api"
	"github.com/birbparty/birb-academy/internal/auth"
	"github.com/birbparty/birb-academy/internal/cache"
	"github.com/birbparty/birb-academy/internal/database"
	"github.com/birbparty/birb-academy/internal/payments"
	"github.com/birbparty/birb-academy/internal/queue"
	"github.com/birbparty/birb-academy/internal/storage"
	"github.com/birbparty/birb-academy/internal/telemetry"
	"github.com/birbparty/birb-academy/internal/worker"
	"github.com/birbparty/birb-academy/sdk"
)

func main() {
	// A missing .env is fine; the environment may already be set.
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		logrus.WithError(err).Fatal("Failed to load .env")
	}

	telemetryCfg, err := telemetry.NewConfigFromEnv("birb-academy-api")
	if err != nil {
		logrus.WithError(err).Fatal("Failed to load telemetry configuration")
	}

	cfg, err := api.LoadConfig()
	if err != nil {
		logrus.WithError(err).Fatal("Failed to load configuration")
	}

	if err := telemetry.Init(telemetryCfg); err != nil {
		logrus.WithError(err).Fatal("Failed to initialize telemetry")
	}
	log := telemetry.L()

	if err := run(cfg, log); err != nil {
		log.WithError(err).Fatal("API exited with error")
	}
}

func run(cfg *api.Config, log *logrus.Logger) error {
	ctx := context.Background()
	log.WithFields(logrus.Fields{
		"store":    cfg.Store,
		"fixtures": cfg.FixturesSource,
		"redis":    cfg.RedisEnabled,
		"nats":     cfg.NATSEnabled,
	}).Info("🐦 Birb Academy API starting...")

	fixtures, err := fixtureLoader(ctx, cfg, log)
	if err != nil {
		return err
	}

	catalog, err := api.LoadCatalog(ctx, fixtures)
	if err != nil {
		return err
	}

	seed, err := database.LoadSeed(ctx, fixtures)
	if err != nil {
		return err
	}

	seedHash, err := auth.HashPassword(cfg.SeedPassword)
	if err != nil {
		return err
	}

	secret := cfg.JWTSecret
	if secret == "" {
		secret = uuid.NewString()
		log.Warn("JWT_SECRET is not set; tokens will not survive a restart")
	}
	tokens, err := auth.NewTokenManager(secret, cfg.TokenTTL)
	if err != nil {
		return err
	}

	store, err := openStore(ctx, cfg, seed, seedHash, log)
	if err != nil {
		return err
	}
	defer store.Close()

	activity, ok := store.(database.ActivityLog)
	if !ok {
		activity = database.NewMemoryActivityLog()
	}

	revocations, err := openRevocations(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer revocations.Close()

	events, err := openEvents(cfg, activity, log)
	if err != nil {
		return err
	}
	defer events.Close()

	handler, err := api.NewHandler(api.Deps{
		Store:       store,
		Tokens:      tokens,
		Revocations: revocations,
		Events:      events,
		Payments:    payments.NewDevProcessor(),
		Fixtures:    fixtures,
		Catalog:     catalog,
		Activity:    activity,
	})
	if err != nil {
		return err
	}

	app := api.NewApp(cfg, handler)

	// Handle graceful shutdown
	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		<-sigChan

		log.Info("🛑 Shutting down gracefully...")

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), time.Duration(cfg.ShutdownTimeout)*time.Second)
		defer shutdownCancel()

		if err := app.ShutdownWithContext(shutdownCtx); err != nil {
			log.WithError(err).Error("Server forced to shutdown")
		}
		if err := telemetry.Shutdown(shutdownCtx); err != nil {
			log.WithError(err).Error("Failed to shut down telemetry")
		}
	}()

	log.WithField("addr", cfg.Addr()).Info("🚀 Birb Academy API listening")
	return app.Listen(cfg.Addr())
}

func fixtureLoader(ctx context.Context, cfg *api.Config, log *logrus.Logger) (sdk.FixtureLoader, error) {
	switch cfg.FixturesSource {
	case api.FixturesDir:
		log.WithField("dir", cfg.FixturesDir).Info("Serving fixtures from directory")
		return sdk.DirFixtures(cfg.FixturesDir), nil

	case api.FixturesSpaces:
		loader, err := storage.NewSpacesFixtureLoader(cfg.Spaces)
		if err != nil {
			return nil, err
		}
		if cfg.FixturesSync {
			if err := loader.Sync(ctx, sdk.EmbeddedFixtures(), storage.DefaultFixtureNames...); err != nil {
				return nil, err
			}
			log.WithField("bucket", cfg.Spaces.Bucket).Info("✅ Uploaded bundled fixtures to Spaces")
		}
		log.WithField("bucket", cfg.Spaces.Bucket).Info("Serving fixtures from Spaces")
		return loader, nil

	default:
		return sdk.EmbeddedFixtures(), nil
	}
}

func openStore(ctx context.Context, cfg *api.Config, seed *database.Seed, seedHash string, log *logrus.Logger) (database.Store, error) {
	if cfg.Store != api.StorePostgres {
		log.Info("✅ Using in-memory store seeded from fixtures")
		return database.NewMemoryStore(seed, seedHash), nil
	}

	dbConfig, err := database.NewConfigFromEnv()
	if err != nil {
		return nil, err
	}

	db, err := database.NewDB(ctx, dbConfig)
	if err != nil {
		return nil, err
	}

	store := database.NewPostgresStore(db)
	if err := store.Migrate(ctx); err != nil {
		store.Close()
		return nil, err
	}
	if err := store.Seed(ctx, seed, seedHash); err != nil {
		store.Close()
		return nil, err
	}
	log.Info("✅ Connected to PostgreSQL")

	go db.WatchPool(ctx, 15*time.Second, reportPoolStats)
	return store, nil
}

func reportPoolStats(s database.PoolStats) {
	telemetry.UpdateDatabaseConnections(int(s.Acquired))
}

func openRevocations(ctx context.Context, cfg *api.Config, log *logrus.Logger) (cache.RevocationList, error) {
	if !cfg.RedisEnabled {
		return cache.NewMemoryRevocationList(), nil
	}

	redisConfig, err := cache.NewConfigFromEnv()
	if err != nil {
		return nil, err
	}

	client, err := cache.NewRedisClient(ctx, redisConfig)
	if err != nil {
		return nil, err
	}
	log.Info("✅ Connected to Redis")
	return cache.NewRedisRevocationList(client, redisConfig.KeyPrefix), nil
}

// openEvents publishes to NATS when enabled. Without a broker, events are
// written straight into the activity log.
func openEvents(cfg *api.Config, activity database.ActivityLog, log *logrus.Logger) (queue.Publisher, error) {
	if !cfg.NATSEnabled {
		log.Info("NATS disabled; recording activity in-process")
		return worker.NewDirectPublisher(activity, worker.NewMetrics()), nil
	}

	natsConfig, err := queue.NewConfigFromEnv()
	if err != nil {
		return nil, err
	}

	client, err := queue.NewClient(natsConfig, log.WithField("component", "events"))
	if err != nil {
		return nil, err
	}
	log.Info("✅ Connected to NATS")
	return client, nil
}
