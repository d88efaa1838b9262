package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	"github.com/birbparty/birb-academy/internal/cleanup"
	"github.com/birbparty/birb-academy/internal/database"
	"github.com/birbparty/birb-academy/internal/queue"
	"github.com/birbparty/birb-academy/internal/storage"
	"github.com/birbparty/birb-academy/internal/telemetry"
	"github.com/birbparty/birb-academy/internal/worker"
)

func main() {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		logrus.WithError(err).Fatal("Failed to load .env")
	}

	telemetryCfg, err := telemetry.NewConfigFromEnv("birb-academy-worker")
	if err != nil {
		logrus.WithError(err).Fatal("Failed to load telemetry configuration")
	}
	if err := telemetry.Init(telemetryCfg); err != nil {
		logrus.WithError(err).Fatal("Failed to initialize telemetry")
	}
	log := telemetry.L()

	if err := run(log); err != nil {
		log.WithError(err).Fatal("Worker exited with error")
	}
}

func run(log *logrus.Logger) error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	workerConfig, err := worker.NewConfigFromEnv()
	if err != nil {
		return fmt.Errorf("failed to load worker config: %w", err)
	}
	log.WithField("worker_id", workerConfig.WorkerID).Info("🐦 Birb Academy Worker starting...")

	dbConfig, err := database.NewConfigFromEnv()
	if err != nil {
		return fmt.Errorf("failed to load database config: %w", err)
	}

	queueConfig, err := queue.NewConfigFromEnv()
	if err != nil {
		return fmt.Errorf("failed to load queue config: %w", err)
	}

	db, err := database.NewDB(ctx, dbConfig)
	if err != nil {
		return err
	}
	store := database.NewPostgresStore(db)
	defer store.Close()
	if err := store.Migrate(ctx); err != nil {
		return err
	}
	log.Info("✅ Connected to PostgreSQL")
	go db.WatchPool(ctx, 15*time.Second, func(s database.PoolStats) {
		telemetry.UpdateDatabaseConnections(int(s.Acquired))
	})

	queueClient, err := queue.NewClient(queueConfig, log.WithField("component", "events"))
	if err != nil {
		return err
	}
	defer queueClient.Close()

	sub, err := queueClient.PullSubscribe(workerConfig.Durable)
	if err != nil {
		return err
	}
	source := worker.NewJetStreamSource(sub)
	log.WithField("durable", workerConfig.Durable).Info("✅ Connected to NATS JetStream")

	metrics := worker.NewMetrics()
	processor := worker.NewProcessor(workerConfig, source, store, metrics, log)

	cleanupService := newCleanupService(store, log)

	healthApp := worker.NewHealthApp(metrics)
	go func() {
		addr := fmt.Sprintf(":%d", workerConfig.HealthCheckPort)
		log.WithField("addr", addr).Info("Health server listening")
		if err := healthApp.Listen(addr); err != nil {
			log.WithError(err).Error("Health server stopped")
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	processorDone := make(chan error, 1)
	go func() {
		processorDone <- processor.Start(ctx)
	}()

	go cleanupService.Start(ctx)

	select {
	case sig := <-sigChan:
		log.WithField("signal", sig.String()).Info("🛑 Received signal. Shutting down gracefully...")
		cancel()

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer shutdownCancel()

		select {
		case <-processorDone:
			log.Info("✅ Worker shutdown complete")
		case <-shutdownCtx.Done():
			log.Warn("⚠️ Worker shutdown timeout")
		}

		if err := source.Close(); err != nil {
			log.WithError(err).Warn("Failed to drain subscription")
		}
		if err := healthApp.ShutdownWithContext(shutdownCtx); err != nil {
			log.WithError(err).Warn("Failed to stop health server")
		}
		if err := telemetry.Shutdown(shutdownCtx); err != nil {
			log.WithError(err).Error("Failed to shut down telemetry")
		}
		return nil

	case err := <-processorDone:
		return err
	}
}

// newCleanupService archives to Spaces when credentials are configured and
// otherwise prunes without an archive.
func newCleanupService(store *database.PostgresStore, log *logrus.Logger) *cleanup.CleanupService {
	cleanupConfig := cleanup.LoadCleanupConfig()
	spacesConfig := cleanup.LoadSpacesConfig()

	var archiver cleanup.Archiver
	if spacesConfig.AccessKey != "" && spacesConfig.SecretKey != "" && spacesConfig.Bucket != "" {
		spaces, err := storage.NewSpacesArchiver(spacesConfig)
		if err != nil {
			log.WithError(err).Warn("Failed to initialize Spaces client. Archival will be disabled.")
		} else {
			archiver = spaces
			log.WithField("bucket", spacesConfig.Bucket).Info("✅ Connected to Digital Ocean Spaces for archival")
		}
	} else {
		log.Warn("⚠️ Spaces credentials not configured. Archival will be disabled.")
	}

	if archiver == nil && cleanupConfig.ArchiveBeforeDelete {
		log.Warn("⚠️ Archive before delete is enabled but Spaces is not configured. Disabling archival.")
		cleanupConfig.ArchiveBeforeDelete = false
	}

	return cleanup.NewCleanupService(store, archiver, cleanupConfig, log)
}
