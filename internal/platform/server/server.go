package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"time"

	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/status"

	"github.com/ogurasousui/taskvault/internal/adapters/grpc/handler"
)

// HealthCheck は依存先へ到達できるかを確認します。エラーを返すと NOT_SERVING になります。
type HealthCheck func(ctx context.Context) error

type namedCheck struct {
	name  string
	check HealthCheck
}

// Server は gRPC サーバーのライフサイクルを管理します。
type Server struct {
	listenAddr     string
	grpcServer     *grpc.Server
	health         *health.Server
	logger         *zap.Logger
	checks         []namedCheck
	healthInterval time.Duration
}

// Option は Server の構成を変更します。
type Option func(*options)

type options struct {
	logger         *zap.Logger
	grpcOptions    []grpc.ServerOption
	checks         []namedCheck
	healthInterval time.Duration
}

// WithLogger はアクセスログの出力先を設定します。
func WithLogger(l *zap.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}

// WithServerOptions は grpc.NewServer に渡す追加のオプションを設定します。
func WithServerOptions(opts ...grpc.ServerOption) Option {
	return func(o *options) {
		o.grpcOptions = append(o.grpcOptions, opts...)
	}
}

// WithHealthCheck は定期的に実行する依存先の確認を追加します。
func WithHealthCheck(name string, check HealthCheck) Option {
	return func(o *options) {
		if check != nil {
			o.checks = append(o.checks, namedCheck{name: name, check: check})
		}
	}
}

// WithHealthInterval は依存先を確認する間隔を設定します。既定は 10 秒です。
func WithHealthInterval(d time.Duration) Option {
	return func(o *options) {
		if d > 0 {
			o.healthInterval = d
		}
	}
}

// New は指定されたアドレスで待ち受ける gRPC サーバーを構築します。
// DashboardService とヘルスチェックサービスを登録します。
func New(listenAddr string, dashboard handler.DashboardServer, opts ...Option) *Server {
	o := options{logger: zap.NewNop(), healthInterval: 10 * time.Second}
	for _, opt := range opts {
		opt(&o)
	}

	serverOpts := append([]grpc.ServerOption{
		grpc.ChainUnaryInterceptor(unaryLogging(o.logger)),
		grpc.ChainStreamInterceptor(streamLogging(o.logger)),
	}, o.grpcOptions...)

	srv := grpc.NewServer(serverOpts...)
	handler.RegisterDashboardServer(srv, dashboard)

	hs := health.NewServer()
	hs.SetServingStatus(handler.ServiceName, healthpb.HealthCheckResponse_SERVING)
	healthpb.RegisterHealthServer(srv, hs)

	return &Server{
		listenAddr:     listenAddr,
		grpcServer:     srv,
		health:         hs,
		logger:         o.logger,
		checks:         o.checks,
		healthInterval: o.healthInterval,
	}
}

// Run はサーバーを起動し、コンテキストがキャンセルされると GracefulStop します。
func (s *Server) Run(ctx context.Context) error {
	lis, err := net.Listen("tcp", s.listenAddr)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", s.listenAddr, err)
	}
	return s.Serve(ctx, lis)
}

// Serve は lis で待ち受けます。コンテキストがキャンセルされると GracefulStop します。
func (s *Server) Serve(ctx context.Context, lis net.Listener) error {
	stopped := make(chan struct{})
	defer close(stopped)

	go func() {
		select {
		case <-ctx.Done():
			s.GracefulStop()
		case <-stopped:
		}
	}()

	if len(s.checks) > 0 {
		checkCtx, cancel := context.WithCancel(ctx)
		defer cancel()
		go s.watchHealth(checkCtx)
	}

	s.logger.Info("grpc server listening", zap.String("addr", lis.Addr().String()))
	if err := s.grpcServer.Serve(lis); err != nil && !errors.Is(err, grpc.ErrServerStopped) {
		return fmt.Errorf("serve gRPC: %w", err)
	}

	return nil
}

// GracefulStop はヘルスチェックを NOT_SERVING にしてからサーバーを安全に停止します。
func (s *Server) GracefulStop() {
	s.health.Shutdown()
	s.grpcServer.GracefulStop()
}

// watchHealth は依存先を定期的に確認し、結果を DashboardService のヘルス状態へ反映します。
func (s *Server) watchHealth(ctx context.Context) {
	ticker := time.NewTicker(s.healthInterval)
	defer ticker.Stop()

	serving := true
	for {
		healthy := s.runChecks(ctx)
		if ctx.Err() != nil {
			return
		}
		if healthy != serving {
			serving = healthy
			next := healthpb.HealthCheckResponse_SERVING
			if !healthy {
				next = healthpb.HealthCheckResponse_NOT_SERVING
			}
			s.health.SetServingStatus(handler.ServiceName, next)
			s.logger.Info("health status changed", zap.String("status", next.String()))
		}

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

func (s *Server) runChecks(ctx context.Context) bool {
	healthy := true
	for _, c := range s.checks {
		checkCtx, cancel := context.WithTimeout(ctx, s.healthInterval)
		err := c.check(checkCtx)
		cancel()
		if err != nil {
			healthy = false
			s.logger.Warn("health check failed", zap.String("dependency", c.name), zap.Error(err))
		}
	}
	return healthy
}

func unaryLogging(logger *zap.Logger) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, next grpc.UnaryHandler) (any, error) {
		start := time.Now()
		resp, err := next(ctx, req)
		logCall(logger, info.FullMethod, start, err)
		return resp, err
	}
}

func streamLogging(logger *zap.Logger) grpc.StreamServerInterceptor {
	return func(srv any, ss grpc.ServerStream, info *grpc.StreamServerInfo, next grpc.StreamHandler) error {
		start := time.Now()
		err := next(srv, ss)
		logCall(logger, info.FullMethod, start, err)
		return err
	}
}

func logCall(logger *zap.Logger, method string, start time.Time, err error) {
	fields := []zap.Field{
		zap.String("method", method),
		zap.String("code", status.Code(err).String()),
		zap.Duration("elapsed", time.Since(start)),
	}
	if err != nil {
		logger.Warn("grpc call failed", append(fields, zap.Error(err))...)
		return
	}
	logger.Debug("grpc call", fields...)
}
