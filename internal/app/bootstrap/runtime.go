package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"

	cacheadapter "github.com/Arjun9756/Mini-S3-Bucket/internal/adapters/cache"
	eventadapter "github.com/Arjun9756/Mini-S3-Bucket/internal/adapters/events"
	httpadapter "github.com/Arjun9756/Mini-S3-Bucket/internal/adapters/http"
	mailadapter "github.com/Arjun9756/Mini-S3-Bucket/internal/adapters/mail"
	"github.com/Arjun9756/Mini-S3-Bucket/internal/adapters/postgres"
	"github.com/Arjun9756/Mini-S3-Bucket/internal/adapters/scanner"
	"github.com/Arjun9756/Mini-S3-Bucket/internal/adapters/security"
	storageadapter "github.com/Arjun9756/Mini-S3-Bucket/internal/adapters/storage"
	"github.com/Arjun9756/Mini-S3-Bucket/internal/application"
	"github.com/Arjun9756/Mini-S3-Bucket/internal/ports"
)

// Runtime wires the adapters together once; the server and worker binaries
// pick the parts they run.
type Runtime struct {
	cfg        Config
	logger     *slog.Logger
	httpServer *http.Server
	relay      *eventadapter.Relay
	scanWorker *eventadapter.ScanWorker
	mailWorker *eventadapter.MailWorker
	cleanupFn  func(context.Context)
}

func NewRuntime(ctx context.Context, configPath string) (*Runtime, error) {
	cfg, err := LoadConfig(configPath)
	if err != nil {
		return nil, err
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	slog.SetDefault(logger)
	logger.Info("bootstrapping mini-s3-bucket", "http_port", cfg.HTTPPort, "grpc_port", cfg.GRPCPort)

	pool, err := postgres.Connect(ctx, cfg.DatabaseURL, cfg.MaxDBConns)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	sqlDB, err := pool.DB()
	if err != nil {
		return nil, fmt.Errorf("gorm sql db: %w", err)
	}

	if err := postgres.RunMigrations(ctx, pool); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	redisClient, err := cacheadapter.Connect(ctx, cfg.RedisURL)
	if err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("connect redis: %w", err)
	}
	if err := redisClient.Ping(ctx).Err(); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}

	blobs, err := storageadapter.NewDiskStore(cfg.StorageRoot)
	if err != nil {
		_ = sqlDB.Close()
		_ = redisClient.Close()
		return nil, fmt.Errorf("init blob store: %w", err)
	}

	tokenSigner, err := security.NewJWTSigner(cfg.JWTSecret)
	if err != nil {
		_ = sqlDB.Close()
		_ = redisClient.Close()
		return nil, fmt.Errorf("init jwt signer: %w", err)
	}

	repos := postgres.NewRepositories(pool)
	svc := application.NewService(application.Dependencies{
		Config: application.Config{
			PublicBaseURL: cfg.PublicBaseURL,
			CapabilityTTL: cfg.CapabilityTTL,
			TokenTTL:      cfg.TokenTTL,
		},
		Users:       repos.Users,
		Credentials: repos.Credentials,
		Files:       repos.Files,
		Analyses:    repos.Analyses,
		CapStore:    cacheadapter.NewRedisCapabilityStore(redisClient),
		CapSigner:   security.NewHMACSigner(cfg.CapabilitySecret),
		Publisher:   eventadapter.NewRedisPublisher(redisClient),
		Blobs:       blobs,
		Hasher:      security.NewBcryptHasher(cfg.BcryptCost),
		TokenSigner: tokenSigner,
	})

	handler := httpadapter.NewHandler(svc, cfg.PublicBaseURL)
	httpServer := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.HTTPPort),
		Handler:           httpadapter.NewRouter(handler),
		ReadHeaderTimeout: 5 * time.Second,
	}

	var failures ports.FailurePublisher
	if len(cfg.KafkaBrokers) > 0 {
		kafkaFailures, err := eventadapter.NewKafkaFailurePublisher(cfg.KafkaBrokers, cfg.KafkaFailureTopic)
		if err != nil {
			_ = sqlDB.Close()
			_ = redisClient.Close()
			return nil, fmt.Errorf("init kafka failure publisher: %w", err)
		}
		failures = kafkaFailures
	} else {
		logger.Warn("no kafka brokers configured; dead-lettered jobs go to the log only")
		failures = eventadapter.NewLoggingFailurePublisher(logger)
	}

	rt := &Runtime{
		cfg:        cfg,
		logger:     logger,
		httpServer: httpServer,
		relay: eventadapter.NewRelay(
			logger,
			eventadapter.NewRedisSubscriber(redisClient, logger),
			repos.Jobs,
			cfg.QueueMaxAttempts,
		),
		cleanupFn: func(ctx context.Context) {
			_ = redisClient.Close()
			_ = sqlDB.Close()
		},
	}

	if cfg.ScanAPIKey != "" {
		scanClient, err := scanner.NewClient(cfg.ScanAPIKey, cfg.ScanBaseURL, 60*time.Second)
		if err != nil {
			_ = sqlDB.Close()
			_ = redisClient.Close()
			return nil, fmt.Errorf("init scan client: %w", err)
		}
		rt.scanWorker = eventadapter.NewScanWorker(
			logger, repos.Jobs, failures, repos.Files, repos.Analyses, scanClient, blobs,
			eventadapter.ScanWorkerConfig{
				Interval:     cfg.QueuePollInterval,
				BatchSize:    cfg.QueueBatchSize,
				ClaimTTL:     cfg.QueueClaimTTL,
				Concurrency:  cfg.ScanWorkers,
				BackoffBase:  cfg.QueueBackoffBase,
				PollInterval: cfg.ScanPollInterval,
				PollAttempts: cfg.ScanPollAttempts,
			},
		)
	}

	if cfg.SMTPHost != "" && cfg.SMTPFrom != "" {
		mailer, err := mailadapter.NewSMTPMailer(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUsername, cfg.SMTPPassword, cfg.SMTPFrom)
		if err != nil {
			_ = sqlDB.Close()
			_ = redisClient.Close()
			return nil, fmt.Errorf("init mailer: %w", err)
		}
		rt.mailWorker = eventadapter.NewMailWorker(
			logger, repos.Jobs, failures, mailer,
			eventadapter.MailWorkerConfig{
				Interval:    cfg.QueuePollInterval,
				BatchSize:   cfg.QueueBatchSize,
				ClaimTTL:    cfg.QueueClaimTTL,
				Concurrency: cfg.MailWorkers,
				BackoffBase: cfg.QueueBackoffBase,
			},
		)
	}

	return rt, nil
}

func (r *Runtime) RunAPI(ctx context.Context) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		r.logger.Info("http server started", "addr", r.httpServer.Addr)
		if err := r.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("http server: %w", err)
		}
	}()

	select {
	case <-ctx.Done():
		r.logger.Info("shutdown signal received")
	case err := <-errCh:
		r.logger.Error("server failure", "error", err)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = r.httpServer.Shutdown(shutdownCtx)
	r.cleanupFn(shutdownCtx)
	return nil
}

// RunWorker runs the relay, the scan and mail pools, and a gRPC health
// endpoint, all until the first fatal error or a shutdown signal.
func (r *Runtime) RunWorker(ctx context.Context) error {
	if r.scanWorker == nil {
		return fmt.Errorf("scan worker not configured: set VIRUSTOTAL_API_KEY")
	}
	if r.mailWorker == nil {
		return fmt.Errorf("mail worker not configured: set SMTP_HOST and SMTP_FROM")
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	grpcServer := grpc.NewServer()
	healthSrv := health.NewServer()
	healthpb.RegisterHealthServer(grpcServer, healthSrv)
	healthSrv.SetServingStatus("", healthpb.HealthCheckResponse_SERVING)

	lis, err := net.Listen("tcp", fmt.Sprintf(":%d", r.cfg.GRPCPort))
	if err != nil {
		return fmt.Errorf("listen gRPC: %w", err)
	}

	var wg sync.WaitGroup
	errCh := make(chan error, 4)
	run := func(name string, fn func(context.Context) error) {
		wg.Add(1)
		go func() {
			defer wg.Done()
			r.logger.Info(name + " started")
			if err := fn(ctx); err != nil && !errors.Is(err, context.Canceled) {
				errCh <- fmt.Errorf("%s: %w", name, err)
			}
		}()
	}
	run("event relay", r.relay.Run)
	run("scan worker", r.scanWorker.Run)
	run("mail worker", r.mailWorker.Run)

	go func() {
		if err := grpcServer.Serve(lis); err != nil {
			errCh <- fmt.Errorf("grpc health server: %w", err)
		}
	}()

	select {
	case <-ctx.Done():
		r.logger.Info("shutdown signal received")
	case err := <-errCh:
		r.logger.Error("worker failure", "error", err)
	}

	cancel()
	healthSrv.SetServingStatus("", healthpb.HealthCheckResponse_NOT_SERVING)
	grpcServer.GracefulStop()
	wg.Wait()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	r.cleanupFn(shutdownCtx)
	return nil
}
