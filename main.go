package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/example/recognition-mock/internal/auth"
	"github.com/example/recognition-mock/internal/config"
	"github.com/example/recognition-mock/internal/grpcserver"
	"github.com/example/recognition-mock/internal/handlers"
	"github.com/example/recognition-mock/internal/intake"
	"github.com/example/recognition-mock/internal/logging"
	"github.com/example/recognition-mock/internal/middleware"
	"github.com/example/recognition-mock/internal/passages"
	"github.com/example/recognition-mock/internal/randsrc"
	"github.com/example/recognition-mock/internal/recognition"
	"github.com/example/recognition-mock/internal/repository"
	"github.com/example/recognition-mock/internal/storage"
	"github.com/example/recognition-mock/internal/usecase"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "recognition mock:", err)
		os.Exit(1)
	}
}

// run returns instead of exiting so every deferred cleanup executes.
func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logger, err := logging.NewLogger(cfg.LogLevel)
	if err != nil {
		return fmt.Errorf("build logger: %w", err)
	}
	defer logger.Sync() //nolint:errcheck

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	store, closeStore, err := initStore(ctx, cfg.Storage, logger)
	if err != nil {
		logger.Error("failed to initialize storage", zap.Error(err))
		return err
	}
	defer closeStore()

	table, err := loadPassageTable(ctx, cfg.Passages, logger)
	if err != nil {
		logger.Error("failed to load passage table", zap.Error(err))
		return err
	}

	src := randsrc.Global()
	engine, err := recognition.NewEngine(cfg.Recognition.SuccessRate, src)
	if err != nil {
		logger.Error("invalid recognition settings", zap.Error(err))
		return err
	}

	uc := usecase.NewRecognitionUseCase(intake.New(store, intake.NewNamer(src), logger), engine, logger)
	selector := passages.NewSelector(table, src)

	guards := []gin.HandlerFunc{auth.Middleware(cfg.Auth.Secret, cfg.Auth.Audience)}
	if cfg.RateLimit.RedisAddr != "" {
		redisClient, err := initRedis(ctx, cfg.RateLimit.RedisAddr)
		if err != nil {
			logger.Error("redis connection failed", zap.Error(err))
			return err
		}
		defer redisClient.Close()

		limiter := usecase.NewRateLimiter(usecase.NewRedisCounter(redisClient), cfg.RateLimit.PerMinute, time.Minute, logger)
		guards = append(guards, middleware.RateLimit(limiter))
	}

	gin.SetMode(gin.ReleaseMode)
	r := newRouter(cfg.Server, uc, selector, logger, guards...)

	if cfg.Server.GRPCHealthAddr != "" {
		healthServer, err := startHealthServer(cfg.Server.GRPCHealthAddr, logger)
		if err != nil {
			logger.Error("failed to start gRPC health server", zap.Error(err))
			return err
		}
		defer healthServer.Stop()
	}

	server := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	logger.Info("recognition mock listening",
		zap.String("addr", cfg.Server.Addr),
		zap.Float64("success_rate", engine.SuccessRate()),
		zap.Int("passages", table.Len()),
		zap.String("storage", cfg.Storage.Backend),
	)
	if err := serveHTTPServer(server, cfg.Server.ShutdownTimeout, logger); err != nil {
		logger.Error("server failed", zap.Error(err))
		return err
	}
	return nil
}

func newRouter(cfg config.ServerConfig, checker handlers.Checker, picker handlers.Picker, logger *zap.Logger, guards ...gin.HandlerFunc) *gin.Engine {
	r := gin.New()
	r.MaxMultipartMemory = handlers.MaxMultipartMemory
	r.Use(
		gin.Recovery(),
		middleware.RequestID(),
		middleware.AccessLog(logger),
		middleware.CORS(cfg.AllowedOrigins),
		middleware.BodyLimit(cfg.MaxUploadBytes),
	)
	handlers.RegisterRoutes(r, checker, picker, guards...)
	return r
}

func initStore(ctx context.Context, cfg config.StorageConfig, logger *zap.Logger) (storage.Store, func(), error) {
	noop := func() {}
	switch cfg.Backend {
	case config.StorageS3:
		s3Store, err := storage.NewS3(ctx, storage.S3Options{
			Endpoint:        cfg.S3.Endpoint,
			Region:          cfg.S3.Region,
			Bucket:          cfg.S3.Bucket,
			Prefix:          cfg.S3.Prefix,
			AccessKeyID:     cfg.S3.AccessKeyID,
			SecretAccessKey: cfg.S3.SecretAccessKey,
		}, logger)
		return s3Store, noop, err
	case config.StorageGCS:
		gcsStore, err := storage.NewGCS(ctx, cfg.GCS.Bucket, cfg.GCS.Prefix, logger)
		if err != nil {
			return nil, noop, err
		}
		return gcsStore, func() { _ = gcsStore.Close() }, nil
	default:
		return storage.NewLocal(cfg.UploadDir), noop, nil
	}
}

func loadPassageTable(ctx context.Context, cfg config.PassagesConfig, logger *zap.Logger) (*passages.Table, error) {
	var (
		entries []passages.Passage
		err     error
	)
	switch cfg.Source {
	case config.PassagesFile:
		entries, err = passages.LoadFile(cfg.File)
	case config.PassagesPostgres:
		entries, err = loadPassagesFromDatabase(ctx, cfg.DatabaseDSN, logger)
	default:
		entries = passages.Default()
	}
	if err != nil {
		return nil, err
	}
	return passages.NewTable(entries)
}

// loadPassagesFromDatabase reads the table once; the connection is closed
// before the server starts since the table never changes afterwards.
func loadPassagesFromDatabase(ctx context.Context, dsn string, logger *zap.Logger) ([]passages.Passage, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{Logger: gormlogger.Default.LogMode(gormlogger.Warn)})
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("access db handle: %w", err)
	}
	defer sqlDB.Close()

	if err := sqlDB.PingContext(ctx); err != nil {
		return nil, fmt.Errorf("database ping: %w", err)
	}

	repo := repository.NewPassageRepository(db, logger)
	if err := repo.AutoMigrate(ctx); err != nil {
		return nil, err
	}
	if err := repo.SeedIfEmpty(ctx, passages.Default()); err != nil {
		return nil, err
	}
	return repo.LoadAll(ctx)
}

func initRedis(ctx context.Context, addr string) (*redis.Client, error) {
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	client := redis.NewClient(&redis.Options{Addr: addr})
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis ping %s: %w", addr, err)
	}
	return client, nil
}

func startHealthServer(addr string, logger *zap.Logger) (*grpcserver.HealthServer, error) {
	lis, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, err
	}
	hs := grpcserver.NewHealthServer(logger)
	go func() {
		if err := hs.Serve(lis); err != nil {
			logger.Error("gRPC health server stopped", zap.Error(err))
		}
	}()
	return hs, nil
}

func serveHTTPServer(server *http.Server, shutdownTimeout time.Duration, logger *zap.Logger) error {
	return serveHTTPServerWithOptions(server, shutdownTimeout, logger, nil, nil)
}

func serveHTTPServerWithOptions(server *http.Server, shutdownTimeout time.Duration, logger *zap.Logger, listener net.Listener, signalCh <-chan os.Signal) error {
	errCh := make(chan error, 1)
	go func() {
		var err error
		if listener != nil {
			err = server.Serve(listener)
		} else {
			err = server.ListenAndServe()
		}
		if errors.Is(err, http.ErrServerClosed) {
			err = nil
		}
		errCh <- err
	}()

	sigCh := signalCh
	if sigCh == nil {
		ch := make(chan os.Signal, 1)
		signal.Notify(ch, os.Interrupt, syscall.SIGTERM)
		defer signal.Stop(ch)
		sigCh = ch
	}

	select {
	case err := <-errCh:
		return err
	case sig, ok := <-sigCh:
		if !ok {
			return <-errCh
		}
		logger.Info("received shutdown signal", zap.String("signal", sig.String()))
		ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := server.Shutdown(ctx); err != nil && !errors.Is(err, context.Canceled) {
			return err
		}
		return <-errCh
	}
}
