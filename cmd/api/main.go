package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/workzen/hrms-backend-go/internal/app"
	"github.com/workzen/hrms-backend-go/internal/config"
	appHTTP "github.com/workzen/hrms-backend-go/internal/handler/http"
	"github.com/workzen/hrms-backend-go/internal/pkg/cron"
	"github.com/workzen/hrms-backend-go/internal/pkg/jwt"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "Server error:", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("error loading config: %w", err)
	}

	logger := app.NewLogger(os.Stdout, cfg.App)
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	payrollApp, err := app.NewPayroll(ctx, cfg, logger, prometheus.DefaultRegisterer)
	if err != nil {
		return err
	}
	defer payrollApp.Close()

	JWTService, err := jwt.NewJWTService(cfg.JWT.Secret, cfg.JWT.AccessExpiration)
	if err != nil {
		return fmt.Errorf("invalid JWT configuration: %w", err)
	}

	scheduler := cron.NewScheduler(logger)
	cron.NewPayrollJobs(payrollApp.Service, logger).RegisterJobs(scheduler, cfg.Payroll.RefreshInterval)
	scheduler.Start(ctx)
	defer scheduler.Stop()

	payrollHandler := appHTTP.NewPayrollHandler(payrollApp.Service)
	router := appHTTP.NewRouter(JWTService, payrollHandler, appHTTP.RouterOptions{
		Logger:         logger,
		LogLevel:       app.ParseLogLevel(cfg.App.LogLevel),
		CORSOrigins:    cfg.App.CORSOrigins,
		MetricsHandler: promhttp.Handler(),
	})

	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.App.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		// Generation may run up to its own deadline before responding.
		WriteTimeout: cfg.Payroll.GenerateTimeout + 30*time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		logger.Info("server running", slog.String("addr", server.Addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
		close(serverErr)
	}()

	select {
	case err := <-serverErr:
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}
