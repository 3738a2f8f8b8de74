package cli

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"

	"taskflow/internal/bot"
	"taskflow/internal/httpapi"
	"taskflow/internal/logger"
	"taskflow/internal/service"
)

func newServeCmd(st *state) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API, the Telegram bot and the scheduled jobs",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context(), st)
		},
	}
}

func runServe(parent context.Context, st *state) error {
	ctx, stop := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	defer stop()
	cfg := st.cfg

	a, err := openApp(ctx, cfg)
	if err != nil {
		return err
	}
	defer a.Close()

	if cfg.LogLevel != "debug" {
		gin.SetMode(gin.ReleaseMode)
	}
	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           httpapi.NewRouter(a.svc, httpapi.Options{Version: st.version}),
		ReadHeaderTimeout: 10 * time.Second,
	}

	scheduler := service.NewSchedulerService(time.Local)
	if cfg.BackupInterval > 0 {
		if _, err := scheduler.ScheduleInterval("backup", cfg.BackupInterval, func(ctx context.Context) error {
			path, err := a.svc.Transfer.Snapshot(ctx, cfg.BackupDir)
			if err == nil {
				logger.Info("backup written", "path", path)
			}
			return err
		}); err != nil {
			return err
		}
	}

	var telegram *bot.Bot
	if cfg.TelegramToken != "" {
		telegram, err = bot.New(cfg.TelegramToken, a.svc, cfg.TelegramChatIDs)
		if err != nil {
			return err
		}
		if _, err := scheduler.ScheduleDaily("digest", cfg.DigestTime, telegram.SendDigest); err != nil {
			return err
		}
	} else {
		logger.Info("TELEGRAM_TOKEN not set, bot disabled")
	}

	scheduler.Start()
	defer scheduler.Stop()

	errCh := make(chan error, 2)
	go func() {
		logger.Info("http server started", "addr", cfg.HTTPAddr, "backend", cfg.StorageBackend)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()
	if telegram != nil {
		go func() {
			if err := telegram.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
				errCh <- err
			}
		}()
	}

	var runErr error
	select {
	case <-ctx.Done():
	case runErr = <-errCh:
		logger.Error("service stopped", "error", runErr)
		stop()
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http shutdown", "error", err)
	}
	logger.Info("shutdown complete")
	return runErr
}
