package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/myrjola/wrestlestrong/internal/e2etest"
	"golang.org/x/sync/errgroup"
)

const defaultTimeout = 2 * time.Second

// configureAndStartServer serves the application on addr until ctx is cancelled.
func (app *application) configureAndStartServer(ctx context.Context, addr string) error {
	handler, err := app.routes()
	if err != nil {
		return fmt.Errorf("routes: %w", err)
	}
	srv := &http.Server{
		ErrorLog:          slog.NewLogLogger(app.logger.Handler(), slog.LevelError),
		Handler:           handler,
		IdleTimeout:       time.Minute,
		ReadTimeout:       defaultTimeout,
		WriteTimeout:      defaultTimeout,
		ReadHeaderTimeout: time.Second,
		BaseContext: func(net.Listener) context.Context {
			return context.WithoutCancel(ctx)
		},
	}

	var listener net.Listener
	if listener, err = (&net.ListenConfig{}).Listen(ctx, "tcp", addr); err != nil { //nolint:exhaustruct // defaults
		return fmt.Errorf("TCP listen: %w", err)
	}
	app.logger.LogAttrs(ctx, slog.LevelInfo, "starting server", slog.Any(e2etest.LogAddrKey, listener.Addr().String()))

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := srv.Serve(listener); !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server serve: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		app.logger.LogAttrs(ctx, slog.LevelInfo, "shutting down server")
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), defaultTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown server: %w", err)
		}
		return nil
	})
	if err = g.Wait(); err != nil {
		return fmt.Errorf("serve: %w", err)
	}
	return nil
}
