package server

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/umakantv/go-utils/logger"
	"go.uber.org/zap"

	"fastmemo/config"
	"fastmemo/database"
	"fastmemo/imagestore"
	"fastmemo/mailer"
)

var loggerOnce sync.Once

// InitLogger sets up the process logger. Safe to call more than once.
func InitLogger() {
	loggerOnce.Do(func() {
		logger.Init(logger.LoggerConfig{
			CallerKey:  "file",
			TimeKey:    "timestamp",
			CallerSkip: 1,
		})
	})
}

// newImageStore builds the configured upload store and, for the disk
// store, the handler serving its files.
func newImageStore(ctx context.Context, cfg *config.Config) (imagestore.Store, http.Handler, error) {
	if cfg.ImageStore == "s3" {
		s3Store, err := imagestore.NewS3(ctx, imagestore.S3Config{
			Bucket:    cfg.S3Bucket,
			Region:    cfg.S3Region,
			Endpoint:  cfg.S3Endpoint,
			AccessKey: cfg.S3AccessKey,
			SecretKey: cfg.S3SecretKey,
		})
		if err != nil {
			return nil, nil, err
		}
		return s3Store, nil, nil
	}

	disk, err := imagestore.NewDisk(cfg.ImageDir)
	if err != nil {
		return nil, nil, err
	}
	return disk, disk.Handler(), nil
}

func newMailer(cfg *config.Config) mailer.Sender {
	if cfg.SMTPHost == "" {
		logger.Info("SMTP_HOST not set, emails are logged instead of sent")
		return mailer.Log{}
	}
	return mailer.NewSMTP(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUser, cfg.SMTPPass, cfg.MailFrom)
}

func StartServer(cfg *config.Config) {
	InitLogger()

	logger.Info("Starting FastMemo...", zap.String("env", cfg.Env))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Initialize database
	dbConn := database.InitializeDatabase(ctx, cfg)
	defer dbConn.Close()

	images, files, err := newImageStore(ctx, cfg)
	if err != nil {
		logger.Error("Failed to initialize image store", zap.Error(err), zap.String("store", cfg.ImageStore))
		os.Exit(1)
	}

	srv := New(Deps{
		Config: cfg,
		DB:     dbConn,
		Images: images,
		Files:  files,
		Mailer: newMailer(cfg),
	})
	go srv.Limiter().StartCleanupWorker(ctx, time.Minute)

	httpServer := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           srv.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("FastMemo started", zap.String("port", cfg.Port))
		logger.Info("Health check: GET /health")
		logger.Info("API endpoints: " + APIPrefix + "/users, " + APIPrefix + "/notes, " + APIPrefix + "/labels")
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		logger.Info("Shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			logger.Error("Graceful shutdown failed", zap.Error(err))
		}
	case err := <-errCh:
		logger.Error("Server failed to start", zap.Error(err))
		dbConn.Close()
		os.Exit(1)
	}
}
