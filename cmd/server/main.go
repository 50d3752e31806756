package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"

	"github.com/kevin07696/authorizenet-gateway/internal/adapters/authorizenet"
	adapterports "github.com/kevin07696/authorizenet-gateway/internal/adapters/ports"
	"github.com/kevin07696/authorizenet-gateway/internal/adapters/postgres"
	"github.com/kevin07696/authorizenet-gateway/internal/adapters/sqlite"
	"github.com/kevin07696/authorizenet-gateway/internal/config"
	"github.com/kevin07696/authorizenet-gateway/internal/domain"
	"github.com/kevin07696/authorizenet-gateway/internal/domain/ports"
	"github.com/kevin07696/authorizenet-gateway/internal/handlers"
	"github.com/kevin07696/authorizenet-gateway/internal/services/address"
	"github.com/kevin07696/authorizenet-gateway/internal/services/credentials"
	"github.com/kevin07696/authorizenet-gateway/internal/services/customer"
	"github.com/kevin07696/authorizenet-gateway/internal/services/paymentprofile"
	"github.com/kevin07696/authorizenet-gateway/internal/services/posting"
	"github.com/kevin07696/authorizenet-gateway/internal/services/registry"
	"github.com/kevin07696/authorizenet-gateway/internal/services/transaction"
	pkghttp "github.com/kevin07696/authorizenet-gateway/pkg/http"
	"github.com/kevin07696/authorizenet-gateway/pkg/middleware"
	"github.com/kevin07696/authorizenet-gateway/pkg/observability"
	"github.com/kevin07696/authorizenet-gateway/pkg/resilience"
	"github.com/kevin07696/authorizenet-gateway/pkg/security"
)

// store is what the server needs from a storage backend beyond ports.Store
type store interface {
	ports.Store
	Ping(ctx context.Context) error
	Close()
}

func main() {
	cfg, err := config.LoadFromEnv()
	if err != nil {
		fmt.Fprintf(os.Stderr, "invalid configuration: %v\n", err)
		os.Exit(1)
	}

	logger, err := security.NewLogger(cfg.Logger.Development, cfg.Logger.Level)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to build logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	logger.Info("Starting Authorize.net gateway service",
		zap.String("store", cfg.Store.Driver),
		zap.String("secret_manager", cfg.Secrets.Manager),
		zap.Bool("development", cfg.Development),
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	timeouts := resilience.DefaultTimeoutConfig()

	st, err := initStore(ctx, cfg, timeouts, logger)
	if err != nil {
		logger.Fatal("Failed to initialize store", zap.Error(err))
	}
	defer st.Close()

	secretManager, err := initSecretManager(ctx, cfg, logger)
	if err != nil {
		logger.Fatal("Failed to initialize secret manager", zap.Error(err))
	}

	handler := initHandler(cfg, st, secretManager, timeouts, logger)

	var rateLimiter *middleware.RateLimiter
	if cfg.RateLimit.Enabled {
		rateLimiter = middleware.NewRateLimiter(cfg.RateLimit.RequestsPerSecond, cfg.RateLimit.Burst, logger)
		defer rateLimiter.Shutdown()
	}

	httpServer := &http.Server{
		Addr: fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.HTTPPort),
		Handler: handlers.NewRouter(handler, handlers.RouterConfig{
			RateLimiter: rateLimiter,
			Timeouts:    timeouts,
			Development: cfg.Development,
		}),
		ReadHeaderTimeout: 10 * time.Second,
	}

	// gRPC carries health and reflection only; the API is the HTTP router
	grpcServer := grpc.NewServer(
		grpc.ChainUnaryInterceptor(
			observability.UnaryServerInterceptor(),
			recoveryInterceptor(logger),
		),
	)
	healthServer := health.NewServer()
	healthpb.RegisterHealthServer(grpcServer, healthServer)
	reflection.Register(grpcServer)

	healthChecker := observability.NewHealthChecker()
	healthChecker.Register("store", st)
	metricsServer := observability.StartMetricsServer(strconv.Itoa(cfg.Server.MetricsPort), healthChecker, logger)

	listener, err := net.Listen("tcp", fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.GRPCPort))
	if err != nil {
		logger.Fatal("Failed to listen", zap.Error(err))
	}

	go func() {
		logger.Info("gRPC health server listening", zap.String("address", listener.Addr().String()))
		if err := grpcServer.Serve(listener); err != nil {
			logger.Error("gRPC server stopped", zap.Error(err))
		}
	}()

	go func() {
		logger.Info("HTTP API listening", zap.String("address", httpServer.Addr))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("Failed to serve HTTP", zap.Error(err))
		}
	}()

	healthServer.SetServingStatus("", healthpb.HealthCheckResponse_SERVING)
	go watchHealth(ctx, healthChecker, healthServer)

	<-ctx.Done()
	logger.Info("Shutting down servers...")

	healthServer.Shutdown()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("HTTP server shutdown error", zap.Error(err))
	}
	grpcServer.GracefulStop()
	if err := observability.ShutdownMetricsServer(metricsServer); err != nil {
		logger.Error("Metrics server shutdown error", zap.Error(err))
	}

	logger.Info("Servers stopped")
}

func initStore(ctx context.Context, cfg *config.Config, timeouts *resilience.TimeoutConfig, logger *zap.Logger) (store, error) {
	var (
		st  store
		err error
	)
	switch cfg.Store.Driver {
	case "sqlite":
		st, err = sqlite.Open(ctx, cfg.Store.SQLiteDSN, logger)
	default:
		dbCfg := postgres.DefaultConfig(cfg.Store.DatabaseURL)
		dbCfg.MaxConns = cfg.Store.MaxConns
		dbCfg.MinConns = cfg.Store.MinConns

		var pg *postgres.Store
		pg, err = postgres.NewStore(ctx, dbCfg, logger)
		if err == nil {
			pg.StartPoolMonitoring(ctx, 30*time.Second)
			st = pg
		}
	}
	if err != nil {
		return nil, err
	}

	pingCtx, cancel := timeouts.DatabaseContext(ctx)
	defer cancel()
	if err := st.Ping(pingCtx); err != nil {
		st.Close()
		return nil, fmt.Errorf("ping store: %w", err)
	}
	return st, nil
}

func initHandler(
	cfg *config.Config,
	st store,
	secretManager adapterports.SecretManagerAdapter,
	timeouts *resilience.TimeoutConfig,
	logger *zap.Logger,
) *handlers.Handler {
	svcLogger := security.NewZapLogger(logger)

	factoryCfg := authorizenet.DefaultFactoryConfig()
	factoryCfg.SandboxURL = cfg.AuthorizeNet.SandboxURL
	factoryCfg.ProductionURL = cfg.AuthorizeNet.ProductionURL
	factoryCfg.CircuitBreaker.MaxFailures = cfg.AuthorizeNet.BreakerMaxFailures
	factoryCfg.CircuitBreaker.Timeout = cfg.AuthorizeNet.BreakerOpenTimeout
	factoryCfg.Timeouts = timeouts

	httpClient := pkghttp.NewHTTPClient(pkghttp.AuthorizeNetClientConfig(), cfg.AuthorizeNet.Timeout)
	clients := authorizenet.NewFactory(factoryCfg, httpClient, logger.Named("authorizenet"))

	creds := credentials.NewResolver(secretManager, svcLogger)
	customers := customer.NewResolver(st, svcLogger)
	addresses := address.NewSynchronizer(st, svcLogger)
	poster := posting.NewPoster(st, svcLogger)

	txns := transaction.NewService(st, svcLogger)
	txns.Register(domain.ProviderAuthorizeNet,
		transaction.NewAuthorizeNetProvider(st, clients, creds, addresses, poster, svcLogger))
	txns.Register(domain.ProviderManual, transaction.NewManualProvider(st, poster, svcLogger))

	return handlers.NewHandler(
		registry.NewService(st, creds, svcLogger),
		paymentprofile.NewManager(st, clients, creds, customers, svcLogger),
		txns,
		logger.Named("http"),
	)
}

// watchHealth flips the gRPC health status when a registered dependency fails
func watchHealth(ctx context.Context, checker *observability.HealthChecker, hs *health.Server) {
	ticker := time.NewTicker(15 * time.Second)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			status := healthpb.HealthCheckResponse_SERVING
			if !checker.Healthy(ctx) {
				status = healthpb.HealthCheckResponse_NOT_SERVING
			}
			hs.SetServingStatus("", status)
		}
	}
}

func recoveryInterceptor(logger *zap.Logger) grpc.UnaryServerInterceptor {
	return func(
		ctx context.Context,
		req interface{},
		info *grpc.UnaryServerInfo,
		handler grpc.UnaryHandler,
	) (resp interface{}, err error) {
		defer func() {
			if r := recover(); r != nil {
				logger.Error("Panic recovered in gRPC handler",
					zap.String("method", info.FullMethod),
					zap.Any("panic", r),
					zap.Stack("stack"),
				)
				err = fmt.Errorf("internal server error")
			}
		}()

		return handler(ctx, req)
	}
}
