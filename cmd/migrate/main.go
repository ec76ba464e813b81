package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"path/filepath"
	"time"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/ogurasousui/taskvault/internal/core/employee"
	"github.com/ogurasousui/taskvault/internal/core/penalty"
	"github.com/ogurasousui/taskvault/internal/core/role"
	"github.com/ogurasousui/taskvault/internal/core/task"
	"github.com/ogurasousui/taskvault/internal/platform/config"
	"github.com/ogurasousui/taskvault/internal/platform/logging"
)

// triggerChannel はマイグレーションのトリガーが pg_notify に渡すチャネル名です。
const triggerChannel = "collection_changed"

// collections はマイグレーションが作成するドキュメントテーブルです。
var collections = []string{employee.Collection, task.Collection, penalty.Collection, role.Collection}

func main() {
	var (
		configPath    = flag.String("config", "", "path to config file (defaults to CONFIG_PATH env or assets/local.yaml)")
		migrationsDir = flag.String("dir", "assets/migrations", "directory containing migration files")
		steps         = flag.Int("steps", 0, "number of migrations to apply for up/down (0 = all)")
	)
	flag.Parse()

	action := "up"
	if flag.NArg() > 0 {
		action = flag.Arg(0)
	}

	cfgPath := *configPath
	if cfgPath == "" {
		cfgPath = config.PathFromEnv()
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger, err := logging.New(cfg.Log)
	if err != nil {
		log.Fatalf("failed to initialize logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	if err := checkNotifyChannel(cfg.Feed.NotifyChannel); err != nil {
		logger.Warn("feed listener will not receive change signals", zap.Error(err))
	}

	dsn := cfg.Database.DSN()
	if action != "verify" {
		if err := runMigration(action, *migrationsDir, dsn, *steps, logger); err != nil {
			logger.Fatal("migration failed", zap.String("action", action), zap.Error(err))
		}
		logger.Info("migration completed", zap.String("action", action))
	}

	if action == "up" || action == "verify" {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		missing, err := missingCollections(ctx, dsn)
		if err != nil {
			logger.Fatal("failed to verify collections", zap.Error(err))
		}
		if len(missing) > 0 {
			logger.Fatal("collections are missing", zap.Strings("tables", missing))
		}
		logger.Info("collections ready", zap.Strings("tables", collections))
	}
}

func checkNotifyChannel(configured string) error {
	if configured != triggerChannel {
		return fmt.Errorf("feed.notify_channel is %q but the collection triggers notify %q", configured, triggerChannel)
	}
	return nil
}

func runMigration(action, dir, dsn string, steps int, logger *zap.Logger) error {
	absDir, err := filepath.Abs(dir)
	if err != nil {
		return fmt.Errorf("resolve path for %s: %w", dir, err)
	}
	absDir = filepath.ToSlash(absDir)

	m, err := migrate.New(fmt.Sprintf("file://%s", absDir), dsn)
	if err != nil {
		return fmt.Errorf("create migrate instance: %w", err)
	}
	defer m.Close()

	switch action {
	case "up":
		if steps > 0 {
			err = m.Steps(steps)
		} else {
			err = m.Up()
		}
		return ignoreNoChange(err)
	case "down":
		if steps > 0 {
			err = m.Steps(-steps)
		} else {
			err = m.Down()
		}
		return ignoreNoChange(err)
	case "drop":
		return m.Drop()
	case "version":
		version, dirty, err := m.Version()
		if errors.Is(err, migrate.ErrNilVersion) {
			logger.Info("no migration applied")
			return nil
		}
		if err != nil {
			return err
		}
		logger.Info("schema version", zap.Uint("version", version), zap.Bool("dirty", dirty))
		return nil
	default:
		return fmt.Errorf("unsupported action %q", action)
	}
}

func ignoreNoChange(err error) error {
	if errors.Is(err, migrate.ErrNoChange) {
		return nil
	}
	return err
}

// missingCollections はまだ存在しないドキュメントテーブルの名前を返します。
func missingCollections(ctx context.Context, dsn string) ([]string, error) {
	conn, err := pgx.Connect(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("connect: %w", err)
	}
	defer conn.Close(context.Background())

	var missing []string
	for _, table := range collections {
		var exists bool
		if err := conn.QueryRow(ctx, "SELECT to_regclass($1) IS NOT NULL", table).Scan(&exists); err != nil {
			return nil, fmt.Errorf("inspect %s: %w", table, err)
		}
		if !exists {
			missing = append(missing, table)
		}
	}
	return missing, nil
}
