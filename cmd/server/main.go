// server runs the Airguard auth API over HTTP, with a gRPC side listener for health checks.
package main

import (
	"context"
	"errors"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"airguard/backend/internal/audit"
	auditrepo "airguard/backend/internal/audit/repository"
	"airguard/backend/internal/cache"
	"airguard/backend/internal/config"
	"airguard/backend/internal/db"
	healthhandler "airguard/backend/internal/health/handler"
	identityhandler "airguard/backend/internal/identity/handler"
	"airguard/backend/internal/identity/service"
	"airguard/backend/internal/logutil"
	orgrepo "airguard/backend/internal/organization/repository"
	"airguard/backend/internal/security"
	"airguard/backend/internal/server"
	"airguard/backend/internal/server/middleware"
	"airguard/backend/internal/session"
	sessionrepo "airguard/backend/internal/session/repository"
	"airguard/backend/internal/telemetry"
	telemetryotel "airguard/backend/internal/telemetry/otel"
	"airguard/backend/internal/telemetry/producer"
	userrepo "airguard/backend/internal/user/repository"
)

const (
	shutdownTimeout     = 10 * time.Second
	healthWatchInterval = 10 * time.Second
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("config")
	}
	logger := logutil.New(os.Stdout, cfg.LogLevel, cfg.LogFormat).With().Str("service", cfg.ServiceName).Logger()
	logutil.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx = logutil.WithLogger(ctx, logger)

	if err := run(ctx, cfg, logger); err != nil {
		logger.Fatal().Err(err).Msg("server stopped with error")
	}
	logger.Info().Msg("server stopped")
}

func run(ctx context.Context, cfg *config.Config, logger zerolog.Logger) error {
	providers, err := telemetryotel.Setup(ctx, telemetryotel.Options{
		Endpoint:    cfg.OTLPEndpoint,
		Insecure:    cfg.OTLPInsecure,
		ServiceName: cfg.ServiceName,
		Environment: cfg.Env,
	})
	if err != nil {
		return err
	}
	providers.SetGlobal()
	metrics, err := telemetry.NewAuthMetrics(providers.MeterProvider.Meter("airguard/backend"))
	if err != nil {
		return err
	}

	conn, err := db.Open(ctx, cfg.DatabaseURL)
	if err != nil {
		return err
	}
	defer conn.Close()

	key, err := security.LoadSigningKey(cfg.JWTPrivateKey, cfg.JWTPublicKey, cfg.JWTSecret)
	if err != nil {
		return err
	}
	logger.Info().Str("alg", key.Alg()).Msg("jwt signing key loaded")
	tokens := security.NewTokenProvider(key, cfg.JWTIssuer, cfg.JWTAudience, cfg.AccessTTL(), cfg.RefreshTTL())
	logger.Info().Dur("access_ttl", tokens.AccessTTL()).Dur("refresh_ttl", tokens.RefreshTTL()).Msg("token lifetimes")

	users := userrepo.NewPostgresRepository(conn)
	orgs := orgrepo.NewPostgresRepository(conn)
	sessions := sessionrepo.NewPostgresRepository(conn)

	emitters := telemetry.MultiEmitter{telemetryotel.NewEventEmitter(providers.LoggerProvider)}
	kafkaProducer, err := producer.NewKafkaProducer(cfg.KafkaBrokersList(), cfg.AuthEventsTopic)
	if err != nil {
		return err
	}
	if kafkaProducer != nil {
		emitters = append(emitters, kafkaProducer)
		logger.Info().Str("topic", cfg.AuthEventsTopic).Msg("publishing auth events to kafka")
	}

	auth := service.NewAuthService(users, orgs, sessions,
		security.NewHasher(cfg.BcryptCost),
		tokens,
		service.WithAuditLogger(audit.NewLogger(auditrepo.NewPostgresRepository(conn))),
		service.WithEventEmitter(emitters),
		service.WithMetrics(metrics),
	)

	var limiter middleware.RateLimiter
	if cfg.RedisURL != "" {
		rdb, err := cache.NewRedisClient(ctx, cfg.RedisURL)
		if err != nil {
			logger.Warn().Err(err).Msg("redis unavailable; login rate limiting disabled")
		} else {
			defer rdb.Close()
			limiter = cache.NewLimiter(rdb, "airguard:ratelimit:")
		}
	}

	checker := healthhandler.NewChecker(conn)
	httpSrv := &http.Server{
		Addr: cfg.HTTPAddr,
		Handler: server.NewRouter(server.HTTPDeps{
			Auth:         auth,
			Cookies:      identityhandler.CookieConfig{Secure: cfg.CookieSecure, Domain: cfg.CookieDomain},
			Health:       checker,
			Logger:       logger,
			LoginLimiter: limiter,
			LoginLimit:   cfg.LoginRateLimit,
			LoginWindow:  cfg.LoginRateWindowDuration(),
		}),
		ReadHeaderTimeout: 10 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}

	errCh := make(chan error, 2)
	go func() {
		logger.Info().Str("addr", cfg.HTTPAddr).Msg("http server listening")
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	healthSrv := healthhandler.NewGRPCServer(checker)
	go healthhandler.Watch(ctx, healthSrv, checker, healthWatchInterval)
	grpcSrv := server.NewGRPCServer(server.GRPCDeps{Health: healthSrv, Reflection: !cfg.IsProduction()})
	if cfg.GRPCAddr != "" {
		lis, err := net.Listen("tcp", cfg.GRPCAddr)
		if err != nil {
			return err
		}
		go func() {
			logger.Info().Str("addr", cfg.GRPCAddr).Msg("grpc server listening")
			if err := grpcSrv.Serve(lis); err != nil {
				errCh <- err
			}
		}()
	}

	if interval := cfg.SweepInterval(); interval > 0 {
		logger.Info().Dur("interval", interval).Msg("expired session sweeper enabled")
		go session.NewSweeper(sessions, interval).Run(ctx)
	}

	var runErr error
	select {
	case <-ctx.Done():
		logger.Info().Msg("shutting down...")
	case runErr = <-errCh:
		logger.Error().Err(runErr).Msg("listener failed; shutting down")
	}

	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
	defer cancel()
	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		logger.Warn().Err(err).Msg("http shutdown")
	}
	grpcSrv.GracefulStop()

	// Let in-flight async emits finish before closing their sinks.
	select {
	case <-time.After(telemetry.ShutdownDrainDuration):
	case <-shutdownCtx.Done():
	}
	if err := kafkaProducer.Close(); err != nil {
		logger.Warn().Err(err).Msg("kafka producer close")
	}
	if err := providers.Shutdown(shutdownCtx); err != nil {
		logger.Warn().Err(err).Msg("otel shutdown")
	}
	return runErr
}
