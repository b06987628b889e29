package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"alfredoptarigan/skill-evaluator/internal/config"
	"alfredoptarigan/skill-evaluator/internal/handlers"
	"alfredoptarigan/skill-evaluator/internal/services"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the web application and JSON API",
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, log, err := setup()
		if err != nil {
			return err
		}
		defer log.Sync()

		if host, _ := cmd.Flags().GetString("host"); host != "" {
			cfg.Server.Host = host
		}
		if port, _ := cmd.Flags().GetString("port"); port != "" {
			cfg.Server.Port = port
		}
		return serve(cmd.Context(), cfg, log)
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().String("host", "", "listen host (overrides HOST)")
	serveCmd.Flags().StringP("port", "p", "", "listen port (overrides PORT)")
}

func serve(ctx context.Context, cfg *config.Config, log *zap.Logger) error {
	log.Info("✅ Config loaded successfully", zap.String("env", cfg.Server.Env), zap.String("provider", cfg.AI.Provider))

	if cfg.Session.SecretKey == config.DefaultSessionSecret {
		if cfg.IsProduction() {
			return fmt.Errorf("SESSION_SECRET_KEY must be set in production")
		}
		log.Warn("⚠️ Using the development session secret; set SESSION_SECRET_KEY")
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	st, err := openStores(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer st.close()
	log.Info("✅ Repositories initialized successfully", zap.String("backend", cfg.Storage.HistoryBackend))

	storage := services.NewStorageService(cfg.Storage.UploadPath)
	if err := storage.EnsureUploadDir(); err != nil {
		return err
	}

	engine, closeEngine, err := newEngine(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer closeEngine()

	evaluator := services.NewEvaluatorService(
		st.history,
		engine,
		services.NewDocumentParser(cfg.Storage.MaxFileSize),
		storage,
		log,
	)
	log.Info("✅ Evaluator service initialized")

	worker := services.NewWorker(evaluator, services.WorkerOptions{
		Concurrency: cfg.Worker.Concurrency,
		QueueSize:   cfg.Worker.QueueSize,
		JobTimeout:  2 * cfg.AI.RequestTimeout,
	}, log)
	worker.Start(ctx)

	app := handlers.NewApp(handlers.Dependencies{
		Auth:          services.NewAuthService(st.users, log),
		Tokens:        services.NewTokenManager(cfg.Session.SecretKey, cfg.Session.MaxAge),
		Evaluator:     evaluator,
		Worker:        worker,
		MaxFileSize:   cfg.Storage.MaxFileSize,
		SecureCookies: cfg.Session.Secure,
		RateLimitMax:  cfg.RateLimit.Max,
		RateWindow:    cfg.RateLimit.Expiration,
		AccessLog:     !cfg.Log.JSON,
		Log:           log,
	})
	log.Info("✅ Handlers initialized")

	errCh := make(chan error, 1)
	go func() {
		log.Info("🚀 Server starting", zap.String("addr", cfg.Address()))
		errCh <- app.Listen(cfg.Address())
	}()

	select {
	case err := <-errCh:
		worker.Stop()
		return err
	case <-ctx.Done():
	}

	log.Info("🛑 Shutting down server...")
	if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
		log.Error("❌ Server forced to shutdown", zap.Error(err))
	}
	worker.Stop()
	return nil
}
