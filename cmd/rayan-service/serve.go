package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Fahmy112/Al-Rayan-Service/internal/httpapi"
	"github.com/Fahmy112/Al-Rayan-Service/internal/hub"
	"github.com/Fahmy112/Al-Rayan-Service/internal/telemetry"
	"github.com/Fahmy112/Al-Rayan-Service/internal/web"

	"github.com/spf13/cobra"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

func newServeCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the web pages, REST API and realtime stream",
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.serve(cmd.Context())
		},
	}
	cmd.Flags().String("port", "8080", "HTTP listen port")
	_ = a.v.BindPFlag("port", cmd.Flags().Lookup("port"))
	return cmd
}

func (a *app) serve(ctx context.Context) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownTelemetry := telemetry.Setup(ctx, serviceName, a.tracing(), a.logger)

	st, err := a.openStore(ctx)
	if err != nil {
		return err
	}
	defer func() {
		if err := st.Close(context.Background()); err != nil {
			a.logger.Warn("close store", zap.Error(err))
		}
	}()

	realtime := hub.New(a.logger)
	service, err := a.newService(st, realtime)
	if err != nil {
		return err
	}
	pages, err := web.New(service, web.Options{
		ShopName: a.cfg.ShopName,
		Refresh:  a.cfg.DashboardRefresh(),
		Logger:   a.logger,
	})
	if err != nil {
		return err
	}
	api := httpapi.NewHandler(service, httpapi.Options{Hub: realtime, Logger: a.logger}).Routes()

	mux := http.NewServeMux()
	mux.Handle("/api/", api)
	mux.Handle("/healthz", api)
	mux.Handle("/metrics", api)
	mux.Handle("/realtime/", api)
	mux.Handle("/", pages.Routes())

	limiter := httpapi.NewRateLimiter(httpapi.RateLimitConfig{
		IPPerMinute: a.cfg.RateLimitPerMinute,
		IPBurst:     a.cfg.RateLimitBurst,
	})
	otelHandler := otelhttp.NewHandler(httpapi.LoggingMiddleware(a.logger, limiter.Middleware(mux)), serviceName)

	server := &http.Server{
		Addr:         ":" + a.cfg.Port,
		Handler:      otelHandler,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		a.logger.Info("listening",
			zap.String("addr", server.Addr),
			zap.String("db_driver", a.cfg.DBDriver),
		)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			a.logger.Error("shutdown error", zap.Error(err))
		}
		if err := shutdownTelemetry(shutdownCtx); err != nil {
			a.logger.Warn("telemetry shutdown error", zap.Error(err))
		}
		return nil
	})
	return g.Wait()
}
