package main

import (
	"context"
	"errors"
	"log"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/ogurasousui/taskvault/internal/adapters/grpc/handler"
	"github.com/ogurasousui/taskvault/internal/adapters/repository/postgres"
	"github.com/ogurasousui/taskvault/internal/adapters/session"
	"github.com/ogurasousui/taskvault/internal/core/dashboard"
	"github.com/ogurasousui/taskvault/internal/core/employee"
	"github.com/ogurasousui/taskvault/internal/core/feed"
	"github.com/ogurasousui/taskvault/internal/core/penalty"
	"github.com/ogurasousui/taskvault/internal/core/role"
	"github.com/ogurasousui/taskvault/internal/core/task"
	"github.com/ogurasousui/taskvault/internal/platform/config"
	pg "github.com/ogurasousui/taskvault/internal/platform/db/postgres"
	"github.com/ogurasousui/taskvault/internal/platform/logging"
	"github.com/ogurasousui/taskvault/internal/platform/server"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load(config.PathFromEnv())
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger, err := logging.New(cfg.Log)
	if err != nil {
		log.Fatalf("failed to initialize logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	if err := run(ctx, cfg, logger); err != nil {
		logger.Fatal("server stopped with error", zap.Error(err))
	}
}

func run(ctx context.Context, cfg *config.Config, logger *zap.Logger) error {
	dbPool, err := pg.NewPool(ctx, cfg.Database)
	if err != nil {
		return err
	}
	defer dbPool.Close()

	resolverOpts := []role.ResolverOption{
		role.WithTransactionManager(pg.NewTransactionManager(dbPool)),
		role.WithLogger(logger.Named("role")),
	}
	dashboardOpts := []dashboard.Option{
		dashboard.WithLocation(cfg.Server.Location),
		dashboard.WithLogger(logger.Named("dashboard")),
	}
	serverOpts := []server.Option{
		server.WithLogger(logger.Named("server")),
		server.WithHealthCheck("postgres", dbPool.Ping),
	}

	if cfg.Redis.Enabled() {
		store, err := session.NewRedisStore(ctx, cfg.Redis.URL,
			session.WithRoleCacheTTL(cfg.Redis.RoleCacheTTL),
			session.WithSessionTTL(cfg.Redis.SessionTTL),
			session.WithLogger(logger.Named("session")),
		)
		if err != nil {
			return err
		}
		defer func() { _ = store.Close() }()

		resolverOpts = append(resolverOpts, role.WithCache(store))
		dashboardOpts = append(dashboardOpts, dashboard.WithOverrideStore(store))
		serverOpts = append(serverOpts, server.WithHealthCheck("redis", store.Ping))
	} else {
		logger.Info("redis is not configured; role switches are kept per request only")
	}

	repoLogger := postgres.WithLogger(logger.Named("repository"))
	employeeSvc := employee.NewService(postgres.NewEmployeeRepository(dbPool, repoLogger))
	taskSvc := task.NewService(postgres.NewTaskRepository(dbPool, repoLogger), nil)
	penaltySvc := penalty.NewService(postgres.NewPenaltyRepository(dbPool, repoLogger), nil)
	resolver := role.NewResolver(postgres.NewRoleRepository(dbPool, repoLogger), resolverOpts...)

	hub := feed.NewHub()
	listener := pg.NewListener(dbPool, cfg.Feed.NotifyChannel, hub,
		pg.WithReconnectDelay(cfg.Feed.ReconnectDelay),
		pg.WithListenerLogger(logger.Named("listener")),
	)

	sessions := dashboard.NewService(resolver, employeeSvc, taskSvc, penaltySvc, hub, dashboardOpts...)
	gateway := dashboard.NewGateway(employeeSvc, taskSvc, penaltySvc)
	dashboardHandler := handler.NewDashboardHandler(sessions, gateway,
		handler.WithLocation(cfg.Server.Location),
		handler.WithLogger(logger.Named("grpc")),
	)
	grpcServer := server.New(cfg.Server.ListenAddr, dashboardHandler, serverOpts...)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return listener.Run(gctx)
	})
	g.Go(func() error {
		return grpcServer.Run(gctx)
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}
