// Command mcp serves the training program over the Model Context Protocol on stdin and stdout.
package main

import (
	"context"
	"io"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/mark3labs/mcp-go/server"
	"github.com/myrjola/wrestlestrong/internal/envstruct"
	"github.com/myrjola/wrestlestrong/internal/errors"
	"github.com/myrjola/wrestlestrong/internal/fivethreeone"
	"github.com/myrjola/wrestlestrong/internal/logging"
	"github.com/myrjola/wrestlestrong/internal/mcp"
	"github.com/myrjola/wrestlestrong/internal/sqlite"
	"github.com/myrjola/wrestlestrong/internal/training"
)

// version is set at build time via -ldflags.
var version = "dev" //nolint:gochecknoglobals // set by the linker

type config struct {
	// SqliteURL is the database shared with the web app.
	SqliteURL string  `env:"WRESTLESTRONG_SQLITE_URL" envDefault:"./wrestlestrong.sqlite3"`
	BarWeight float64 `env:"WRESTLESTRONG_BAR_WEIGHT" envDefault:"45"`
}

func run(
	ctx context.Context,
	logger *slog.Logger,
	lookupEnv func(string) (string, bool),
	stdin io.Reader,
	stdout io.Writer,
) error {
	var cfg config
	if err := envstruct.Populate(&cfg, lookupEnv); err != nil {
		return errors.Wrap(err, "populate config")
	}
	if cfg.BarWeight <= 0 {
		return errors.Wrap(envstruct.ErrInvalidValue, "bar weight must be positive",
			slog.Float64("bar_weight", cfg.BarWeight))
	}

	db, err := sqlite.NewDatabase(ctx, cfg.SqliteURL, logger)
	if err != nil {
		return errors.Wrap(err, "open db", slog.String("url", cfg.SqliteURL))
	}
	defer func() {
		if closeErr := db.Close(); closeErr != nil {
			logger.LogAttrs(ctx, slog.LevelError, "close db", errors.SlogError(closeErr))
		}
	}()

	program := fivethreeone.DefaultProgram()
	program.BarWeight = cfg.BarWeight
	service, err := training.NewService(ctx, training.Config{
		Store:   training.NewSQLiteStore(db, logger),
		Logger:  logger,
		Program: program,
		Metrics: nil,
		NewID:   nil,
	})
	if err != nil {
		return errors.Wrap(err, "new training service")
	}

	stdio := server.NewStdioServer(mcp.New(service, version, logger))
	stdio.SetErrorLogger(log.New(io.Discard, "", 0))
	logger.LogAttrs(ctx, slog.LevelInfo, "serving MCP on stdio", slog.String("version", version))
	if err = stdio.Listen(ctx, stdin, stdout); err != nil && !errors.Is(err, context.Canceled) {
		return errors.Wrap(err, "listen stdio")
	}
	return nil
}

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()
	// Stdout carries the protocol so logs go to stderr.
	logger := slog.New(logging.NewContextHandler(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		AddSource:   false,
		Level:       slog.LevelInfo,
		ReplaceAttr: nil,
	})))
	if err := run(ctx, logger, os.LookupEnv, os.Stdin, os.Stdout); err != nil {
		logger.LogAttrs(ctx, slog.LevelError, "failure running MCP server", errors.SlogError(err))
		os.Exit(1) //nolint:gocritic // cancel is a no-op after a failed run
	}
}
