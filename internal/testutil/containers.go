// Package testutil starts throwaway backing services for integration tests.
package testutil

import (
	"context"
	"fmt"
	"time"

	"github.com/docker/go-connections/nat"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/modules/redis"
	"github.com/testcontainers/testcontainers-go/wait"
)

const (
	postgresImage = "postgres:15-alpine"
	redisImage    = "redis:7-alpine"
	natsImage     = "nats:2.10-alpine"
)

// Containers holds every service the backend can talk to.
type Containers struct {
	Postgres testcontainers.Container
	Redis    testcontainers.Container
	NATS     testcontainers.Container

	PostgresURL string
	RedisURL    string
	NATSURL     string
}

// StartContainers starts Postgres, Redis and NATS with JetStream. On failure
// any container that did start is terminated before returning.
func StartContainers(ctx context.Context) (*Containers, error) {
	c := &Containers{}

	pg, pgURL, err := runPostgres(ctx)
	if err != nil {
		return nil, err
	}
	c.Postgres, c.PostgresURL = pg, pgURL

	rc, redisURL, err := runRedis(ctx)
	if err != nil {
		_ = c.Cleanup(ctx)
		return nil, err
	}
	c.Redis, c.RedisURL = rc, redisURL

	nc, natsURL, err := runNATS(ctx)
	if err != nil {
		_ = c.Cleanup(ctx)
		return nil, err
	}
	c.NATS, c.NATSURL = nc, natsURL

	return c, nil
}

// Cleanup terminates all started containers.
func (c *Containers) Cleanup(ctx context.Context) error {
	var errs []error
	for name, ctr := range map[string]testcontainers.Container{
		"postgres": c.Postgres,
		"redis":    c.Redis,
		"nats":     c.NATS,
	} {
		if ctr == nil {
			continue
		}
		if err := ctr.Terminate(ctx); err != nil {
			errs = append(errs, fmt.Errorf("failed to terminate %s: %w", name, err))
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("cleanup errors: %v", errs)
	}
	return nil
}

// StartPostgres starts a single Postgres container and returns its URL.
func StartPostgres(ctx context.Context) (string, func(), error) {
	ctr, url, err := runPostgres(ctx)
	if err != nil {
		return "", nil, err
	}
	return url, terminator(ctr), nil
}

// StartRedis starts a single Redis container and returns its URL.
func StartRedis(ctx context.Context) (string, func(), error) {
	ctr, url, err := runRedis(ctx)
	if err != nil {
		return "", nil, err
	}
	return url, terminator(ctr), nil
}

// StartNATS starts a single NATS server with JetStream and returns its URL.
func StartNATS(ctx context.Context) (string, func(), error) {
	ctr, url, err := runNATS(ctx)
	if err != nil {
		return "", nil, err
	}
	return url, terminator(ctr), nil
}

func terminator(ctr testcontainers.Container) func() {
	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		_ = ctr.Terminate(ctx)
	}
}

func runPostgres(ctx context.Context) (testcontainers.Container, string, error) {
	pg, err := postgres.RunContainer(ctx,
		testcontainers.WithImage(postgresImage),
		postgres.WithDatabase("academy"),
		postgres.WithUsername("academy"),
		postgres.WithPassword("academy"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second),
		),
	)
	if err != nil {
		return nil, "", fmt.Errorf("failed to start postgres container: %w", err)
	}

	host, err := pg.Host(ctx)
	if err != nil {
		_ = pg.Terminate(ctx)
		return nil, "", fmt.Errorf("failed to get postgres host: %w", err)
	}
	port, err := pg.MappedPort(ctx, "5432")
	if err != nil {
		_ = pg.Terminate(ctx)
		return nil, "", fmt.Errorf("failed to get postgres port: %w", err)
	}

	return pg, fmt.Sprintf("postgres://academy:academy@%s:%s/academy?sslmode=disable", host, port.Port()), nil
}

func runRedis(ctx context.Context) (testcontainers.Container, string, error) {
	rc, err := redis.RunContainer(ctx,
		testcontainers.WithImage(redisImage),
		redis.WithLogLevel(redis.LogLevelDebug),
	)
	if err != nil {
		return nil, "", fmt.Errorf("failed to start redis container: %w", err)
	}

	host, err := rc.Host(ctx)
	if err != nil {
		_ = rc.Terminate(ctx)
		return nil, "", fmt.Errorf("failed to get redis host: %w", err)
	}
	port, err := rc.MappedPort(ctx, "6379")
	if err != nil {
		_ = rc.Terminate(ctx)
		return nil, "", fmt.Errorf("failed to get redis port: %w", err)
	}

	return rc, fmt.Sprintf("redis://%s:%s", host, port.Port()), nil
}

func runNATS(ctx context.Context) (testcontainers.Container, string, error) {
	nc, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        natsImage,
			Cmd:          []string{"-js"},
			ExposedPorts: []string{"4222/tcp"},
			WaitingFor: wait.ForLog("Server is ready").
				WithStartupTimeout(30 * time.Second),
		},
		Started: true,
	})
	if err != nil {
		return nil, "", fmt.Errorf("failed to start nats container: %w", err)
	}

	host, err := nc.Host(ctx)
	if err != nil {
		_ = nc.Terminate(ctx)
		return nil, "", fmt.Errorf("failed to get nats host: %w", err)
	}
	port, err := nc.MappedPort(ctx, nat.Port("4222/tcp"))
	if err != nil {
		_ = nc.Terminate(ctx)
		return nil, "", fmt.Errorf("failed to get nats port: %w", err)
	}

	return nc, fmt.Sprintf("nats://%s:%s", host, port.Port()), nil
}
