package main

import (
	"context"
	"io/fs"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/alexedwards/scs/sqlite3store"
	"github.com/alexedwards/scs/v2"
	"github.com/myrjola/wrestlestrong/internal/envstruct"
	"github.com/myrjola/wrestlestrong/internal/errors"
	"github.com/myrjola/wrestlestrong/internal/fivethreeone"
	"github.com/myrjola/wrestlestrong/internal/flightrecorder"
	"github.com/myrjola/wrestlestrong/internal/logging"
	"github.com/myrjola/wrestlestrong/internal/sqlite"
	"github.com/myrjola/wrestlestrong/internal/training"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/yuin/goldmark"
)

type application struct {
	logger         *slog.Logger
	sessionManager *scs.SessionManager
	templateFS     fs.FS
	training       *training.Service
	metrics        http.Handler
	markdown       goldmark.Markdown
	// flightRecorder is nil when no trace directory is configured.
	flightRecorder *flightrecorder.Recorder
}

type config struct {
	// Addr is the address to listen on. It's possible to choose the address dynamically with localhost:0.
	Addr string `env:"WRESTLESTRONG_ADDR" envDefault:"localhost:8081"`
	// SqliteURL is the URL to the SQLite database. You can use ":memory:" for an ethereal in-memory database.
	SqliteURL string `env:"WRESTLESTRONG_SQLITE_URL" envDefault:"./wrestlestrong.sqlite3"`
	// BarWeight is the weight of the empty barbell used for warm-up sets.
	BarWeight float64 `env:"WRESTLESTRONG_BAR_WEIGHT" envDefault:"45"`
	// SessionLifetime is how long flash messages and other session data live.
	SessionLifetime time.Duration `env:"WRESTLESTRONG_SESSION_LIFETIME" envDefault:"12h"`
	// TemplatePath is the path to the directory containing the HTML templates.
	TemplatePath string `env:"WRESTLESTRONG_TEMPLATE_PATH" envDefault:""`
	// TracesDirectory receives execution traces of timed out requests. Empty disables the flight recorder.
	TracesDirectory string `env:"WRESTLESTRONG_TRACES_DIRECTORY" envDefault:""`
}

func run(ctx context.Context, logger *slog.Logger, lookupEnv func(string) (string, bool)) error {
	var (
		cancel context.CancelFunc
		err    error
	)

	ctx, cancel = signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer cancel()

	var cfg config
	if err = envstruct.Populate(&cfg, lookupEnv); err != nil {
		return errors.Wrap(err, "populate config")
	}
	if cfg.BarWeight <= 0 {
		return errors.Wrap(envstruct.ErrInvalidValue, "bar weight must be positive",
			slog.Float64("bar_weight", cfg.BarWeight))
	}

	var htmlTemplatePath string
	if htmlTemplatePath, err = resolveAndVerifyTemplatePath(cfg.TemplatePath); err != nil {
		return errors.Wrap(err, "resolve template path")
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
	logger.LogAttrs(ctx, slog.LevelInfo, "connected to db")

	sessionStore := sqlite3store.NewWithCleanupInterval(db.ReadWrite, 24*time.Hour) //nolint:mnd // day
	defer sessionStore.StopCleanup()

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}), //nolint:exhaustruct // defaults
	)

	program := fivethreeone.DefaultProgram()
	program.BarWeight = cfg.BarWeight
	service, err := training.NewService(ctx, training.Config{
		Store:   training.NewSQLiteStore(db, logger),
		Logger:  logger,
		Program: program,
		Metrics: training.NewMetrics(registry),
		NewID:   nil,
	})
	if err != nil {
		return errors.Wrap(err, "new training service")
	}

	var recorder *flightrecorder.Recorder
	if cfg.TracesDirectory != "" {
		if recorder, err = flightrecorder.New(flightrecorder.Config{
			Logger:   logger,
			Dir:      cfg.TracesDirectory,
			MinAge:   0,
			MaxBytes: 0,
			Cooldown: 0,
			Now:      nil,
		}); err != nil {
			return errors.Wrap(err, "new flight recorder")
		}
		if err = recorder.Start(ctx); err != nil {
			return errors.Wrap(err, "start flight recorder")
		}
		defer recorder.Stop(context.WithoutCancel(ctx))
	}

	app := application{
		logger:         logger,
		sessionManager: newSessionManager(sessionStore, cfg.SessionLifetime),
		templateFS:     os.DirFS(htmlTemplatePath),
		training:       service,
		metrics:        promhttp.HandlerFor(registry, promhttp.HandlerOpts{}), //nolint:exhaustruct // defaults
		markdown:       newMarkdown(),
		flightRecorder: recorder,
	}

	if err = app.configureAndStartServer(ctx, cfg.Addr); err != nil {
		return errors.Wrap(err, "start server")
	}
	return nil
}

func newSessionManager(store scs.Store, lifetime time.Duration) *scs.SessionManager {
	sessionManager := scs.New()
	sessionManager.Store = store
	sessionManager.Lifetime = lifetime
	sessionManager.Cookie.Name = "wrestlestrong_session"
	sessionManager.Cookie.Persist = true
	sessionManager.Cookie.Secure = true
	sessionManager.Cookie.HttpOnly = true
	sessionManager.Cookie.SameSite = http.SameSiteStrictMode
	return sessionManager
}

func main() {
	ctx := context.Background()
	loggerHandler := logging.NewContextHandler(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		AddSource:   false,
		Level:       slog.LevelDebug,
		ReplaceAttr: nil,
	}))
	logger := slog.New(loggerHandler)
	if err := run(ctx, logger, os.LookupEnv); err != nil {
		logger.LogAttrs(ctx, slog.LevelError, "failure starting application", errors.SlogError(err))
		os.Exit(1)
	}
}
