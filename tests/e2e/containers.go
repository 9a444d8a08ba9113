//go:build e2e

package e2e

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/docker/go-connections/nat"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

const (
	testUser     = "test"
	testPassword = "testpass"

	postgresPort = "5432/tcp"
	redisPort    = "6379/tcp"
)

type ContainerInfo struct {
	Host string
	Port nat.Port
}

func (c ContainerInfo) Addr() string {
	return c.Host + ":" + c.Port.Port()
}

// sharedContainer は同一プロセス内のテストで一度だけ起動する
type sharedContainer struct {
	once      sync.Once
	container testcontainers.Container
	err       error
}

var (
	postgresContainer sharedContainer
	redisContainer    sharedContainer
)

func (s *sharedContainer) start(t *testing.T, name string, req testcontainers.ContainerRequest, port string) ContainerInfo {
	s.once.Do(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 3*time.Minute)
		defer cancel()

		s.container, s.err = testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
			ContainerRequest: req,
			Started:          true,
		})
		if s.err != nil {
			return
		}
		// ryuk が無効な環境向けに手動で後始末する
		t.Cleanup(func() {
			stopCtx, stopCancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer stopCancel()
			if err := s.container.Terminate(stopCtx); err != nil {
				slog.Warn("コンテナの終了に失敗しました", "container", name, "error", err.Error())
			}
		})
	})
	require.NoError(t, s.err, "%sコンテナの起動に失敗", name)

	info, err := hostPort(s.container, port)
	require.NoError(t, err, "%sコンテナ情報の取得に失敗", name)
	return info
}

func startPostgres(t *testing.T) ContainerInfo {
	return postgresContainer.start(t, "PostgreSQL", testcontainers.ContainerRequest{
		Image:        "postgres:17",
		ExposedPorts: []string{postgresPort},
		Env: map[string]string{
			"POSTGRES_USER":     testUser,
			"POSTGRES_PASSWORD": testPassword,
			"POSTGRES_DB":       "postgres",
		},
		// データを RAM に置き、耐久性を捨てて速度を取る
		Tmpfs: map[string]string{"/var/lib/postgresql/data": "rw,size=512m"},
		Cmd: []string{
			"postgres",
			"-c", "fsync=off",
			"-c", "full_page_writes=off",
			"-c", "synchronous_commit=off",
			"-c", "shared_buffers=256MB",
			"-c", "max_connections=200",
			"-c", "log_statement=none",
		},
		WaitingFor: wait.ForSQL(postgresPort, "pgx", func(host string, port nat.Port) string {
			return fmt.Sprintf("postgres://%s:%s@%s:%s/postgres?sslmode=disable", testUser, testPassword, host, port.Port())
		}).WithStartupTimeout(60 * time.Second),
		Labels: map[string]string{"purpose": "booking-e2e"},
	}, postgresPort)
}

func startRedis(t *testing.T) ContainerInfo {
	return redisContainer.start(t, "Redis", testcontainers.ContainerRequest{
		Image:        "redis:7-alpine",
		ExposedPorts: []string{redisPort},
		Cmd:          []string{"redis-server", "--save", "", "--appendonly", "no"},
		WaitingFor:   wait.ForListeningPort(redisPort).WithStartupTimeout(30 * time.Second),
		Labels:       map[string]string{"purpose": "booking-e2e"},
	}, redisPort)
}

func hostPort(c testcontainers.Container, port string) (ContainerInfo, error) {
	ctx := context.Background()
	mapped, err := c.MappedPort(ctx, nat.Port(port))
	if err != nil {
		return ContainerInfo{}, err
	}
	host, err := c.Host(ctx)
	if err != nil {
		return ContainerInfo{}, err
	}
	return ContainerInfo{Host: host, Port: mapped}, nil
}
