//go:build e2e

package e2e

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"testing"
	"time"

	"booking-engine/cmd/bootstrap"
	"booking-engine/cmd/bootstrap/components"
	"booking-engine/internal/handler"
	"booking-engine/internal/infra/db"
	"booking-engine/internal/pkg/config"
	"booking-engine/internal/usecase/queries"
	"booking-engine/tests/common/dbtest"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"go.uber.org/fx"
)

// environment is one isolated database plus the app wired against it.
type environment struct {
	pool   *pgxpool.Pool
	router *gin.Engine
	cfg    config.Config
	slots  queries.Invalidator
}

// ------------------------------------------------------------
// 各テストプロセス用にセットアップ
// ------------------------------------------------------------
func setupE2EEnvironment(t *testing.T) environment {
	gin.SetMode(gin.TestMode)

	pg := startPostgres(t)
	rd := startRedis(t)

	// プロセス毎に別 DB と別キャッシュ名前空間を使う
	isolation := strings.ReplaceAll(uuid.NewString(), "-", "")

	pool, dbConfig := prepareDatabase(t, pg, "testdb_"+isolation)

	cfg := config.NewTestConfig()
	cfg.DB = dbConfig
	cfg.Redis.Addr = rd.Addr()
	cfg.Cache.Driver = bootstrap.DriverRedis
	cfg.Cache.Prefix = "e2e:" + isolation
	cfg.RateLimit.Driver = bootstrap.DriverRedis
	// outbox に積めば notification_jobs を検証できる
	cfg.Queue.Driver = bootstrap.QueueOutbox

	env := buildE2EApp(t, pool, cfg)
	env.pool = pool

	slog.Info("E2E環境の準備が完了しました",
		"postgres", pg.Addr(),
		"redis", rd.Addr(),
		"database", dbConfig.DBName)
	return env
}

// ------------------------------------------------------------
// データベース準備
// ------------------------------------------------------------
func prepareDatabase(t *testing.T, pg ContainerInfo, dbName string) (*pgxpool.Pool, config.DBConfig) {
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	adminDSN := fmt.Sprintf("postgres://%s:%s@%s/postgres?sslmode=disable", testUser, testPassword, pg.Addr())
	adminPool, err := pgxpool.New(ctx, adminDSN)
	require.NoError(t, err, "管理者接続に失敗")
	defer adminPool.Close()

	require.NoError(t, createDatabase(ctx, adminPool, dbName), "テスト用データベースの作成に失敗")

	t.Cleanup(func() {
		dropCtx, dropCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer dropCancel()
		dropPool, err := pgxpool.New(dropCtx, adminDSN)
		if err != nil {
			slog.Warn("クリーンアップ用の接続に失敗しました", "database", dbName, "error", err.Error())
			return
		}
		defer dropPool.Close()
		if _, err := dropPool.Exec(dropCtx, "DROP DATABASE IF EXISTS "+dbName+" WITH (FORCE)"); err != nil {
			slog.Warn("テストデータベースの削除に失敗しました", "database", dbName, "error", err.Error())
		}
	})

	dbConfig := config.DBConfig{
		Host:     pg.Host,
		Port:     pg.Port.Port(),
		User:     testUser,
		Password: testPassword,
		DBName:   dbName,
		SSLMode:  "disable",
		TimeZone: "UTC",
		MaxConns: 20,
	}

	pool, _, err := db.Connect(ctx, dbConfig)
	require.NoError(t, err, "データベース接続に失敗")
	t.Cleanup(pool.Close)

	require.NoError(t, applyMigrations(ctx, pool), "データベースマイグレーションに失敗")
	return pool, dbConfig
}

// createDatabase retries because a freshly started container may still reject
// CREATE DATABASE while it finishes initdb.
func createDatabase(ctx context.Context, admin *pgxpool.Pool, name string) error {
	var err error
	for attempt := range 5 {
		if attempt > 0 {
			wait := min(time.Duration(attempt)*500*time.Millisecond, 3*time.Second)
			slog.Warn("データベース作成を再試行中", "attempt", attempt+1, "error", err.Error(), "retry_wait", wait)
			time.Sleep(wait)
		}
		if _, err = admin.Exec(ctx, "CREATE DATABASE "+name); err == nil {
			return nil
		}
	}
	return err
}

// applyMigrations runs every migrations/*.sql file in name order.
func applyMigrations(ctx context.Context, pool *pgxpool.Pool) error {
	dir, err := findMigrationsDir()
	if err != nil {
		return err
	}
	files, err := filepath.Glob(filepath.Join(dir, "*.sql"))
	if err != nil {
		return err
	}
	sort.Strings(files)

	for _, file := range files {
		sqlContent, err := os.ReadFile(file)
		if err != nil {
			return fmt.Errorf("failed to read migration file %s: %w", file, err)
		}
		if _, err := pool.Exec(ctx, string(sqlContent)); err != nil {
			return fmt.Errorf("failed to execute migration %s: %w", file, err)
		}
		slog.Info("マイグレーション実行完了", "file", filepath.Base(file))
	}
	return nil
}

// go test はパッケージディレクトリで実行されるため上位へ辿る
func findMigrationsDir() (string, error) {
	dir := "migrations"
	for range 4 {
		if info, err := os.Stat(dir); err == nil && info.IsDir() {
			return dir, nil
		}
		dir = filepath.Join("..", dir)
	}
	return "", fmt.Errorf("migrations directory not found")
}

// ------------------------------------------------------------
// E2Eテスト用アプリケーション構築
// ------------------------------------------------------------
func buildE2EApp(t *testing.T, pool *pgxpool.Pool, cfg config.Config) environment {
	var env environment

	app := fx.New(
		fx.Module("testdb",
			fx.Provide(func() bootstrap.DBResult {
				return bootstrap.DBResult{Pool: pool, Ready: handler.ReadyCheck{Name: "db", Check: db.ReadyCheck(pool)}}
			}),
		),
		fx.Supply(cfg),
		fx.Provide(func() *gin.Engine { return gin.New() }),
		bootstrap.LoggerModule,
		bootstrap.CacheModule,
		bootstrap.QueueModule,
		bootstrap.JWTModule,
		components.PersistenceModule,
		components.UseCaseModule,
		components.HandlerModule,

		fx.Populate(&env.router, &env.slots),
		fx.NopLogger,
	)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	require.NoError(t, app.Start(ctx), "fxアプリケーションの起動に失敗しました")

	t.Cleanup(func() {
		stopCtx, stopCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer stopCancel()
		if err := app.Stop(stopCtx); err != nil {
			slog.Warn("fxアプリケーションの停止に失敗しました", "error", err.Error())
		}
	})

	env.cfg = cfg
	return env
}

// ------------------------------------------------------------
// E2Eテストスイートで共通のセットアップ
// ------------------------------------------------------------
type SharedSuite struct {
	suite.Suite
	Router *gin.Engine
	DB     *pgxpool.Pool
	Config config.Config
	Slots  queries.Invalidator
}

func (s *SharedSuite) SetupSuite() {
	env := setupE2EEnvironment(s.T())
	s.DB = env.pool
	s.Router = env.router
	s.Config = env.cfg
	s.Slots = env.slots
	s.Require().NotNil(s.Router, "Routerのセットアップに失敗")
}

// SetupSubTest は DB と slot キャッシュを空にする。
// ResetDB は ID を振り直すため、キャッシュを残すと前の subtest の結果が返る。
func (s *SharedSuite) SetupSubTest() {
	s.Require().NoError(dbtest.ResetDB(s.DB), "Failed to reset database state")
	s.Require().NoError(s.Slots.InvalidateAll(context.Background()), "Failed to flush slot cache")
}
