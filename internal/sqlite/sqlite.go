package sqlite

import (
	"context"
	"crypto/rand"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/mattn/go-sqlite3"
)

//go:embed schema.sql
var schemaDefinition string

// LogDsnKey is the attribute key under which the read-write DSN is logged.
const LogDsnKey = "sqlDsn"

// Database holds separate pools for writers and readers.
//
// SQLite allows a single writer at a time so ReadWrite has exactly one connection. ReadOnly serves concurrent
// readers. See https://github.com/mattn/go-sqlite3/issues/1179#issuecomment-1638083995.
type Database struct {
	ReadWrite *sql.DB
	ReadOnly  *sql.DB
	logger    *slog.Logger

	stopOptimizer chan struct{}
	optimizerDone chan struct{}
	closeOnce     sync.Once
}

// NewDatabase opens the database at url, brings its schema up to date and starts the background optimizer.
//
// Use ":memory:" for a throwaway in-memory database. Every call gets its own in-memory database.
func NewDatabase(ctx context.Context, url string, logger *slog.Logger) (*Database, error) {
	db, err := connect(ctx, url, logger)
	if err != nil {
		return nil, fmt.Errorf("connect: %w", err)
	}
	if err = db.migrateTo(ctx, schemaDefinition); err != nil {
		return nil, errors.Join(fmt.Errorf("migrate: %w", err), db.Close())
	}
	db.optimizerDone = make(chan struct{})
	go func() {
		defer close(db.optimizerDone)
		db.startDatabaseOptimizer(ctx)
	}()
	return db, nil
}

//nolint:gochecknoglobals // the driver can only be registered once per process.
var registerDriver sync.Once

const optimizedDriver = "sqlite3optimized"

func registerOptimizedDriver() {
	sql.Register(optimizedDriver, &sqlite3.SQLiteDriver{
		Extensions: nil,
		ConnectHook: func(conn *sqlite3.SQLiteConn) error {
			pragmas := []string{
				// Temporary tables and indices live in memory.
				"PRAGMA temp_store = memory",
				// Memory-mapped I/O saves read syscalls.
				"PRAGMA mmap_size = 30000000000",
			}
			for _, pragma := range pragmas {
				if _, err := conn.Exec(pragma, nil); err != nil {
					return fmt.Errorf("exec %s: %w", pragma, err)
				}
			}
			return nil
		},
	})
}

func connect(ctx context.Context, url string, logger *slog.Logger) (*Database, error) {
	// In-memory databases need a shared cache so that both pools see the same data. A random name keeps parallel
	// tests apart. See https://www.sqlite.org/inmemorydb.html.
	readWriteMode, readOnlyMode := "mode=rwc", "mode=ro"
	if strings.Contains(url, ":memory:") {
		url = rand.Text()
		readWriteMode, readOnlyMode = "mode=memory&cache=shared", "mode=memory&cache=shared"
	}
	// Underscore options are documented at https://pkg.go.dev/github.com/mattn/go-sqlite3#SQLiteDriver.Open and the
	// rest at https://www.sqlite.org/uri.html.
	params := strings.Join([]string{
		"_loc=auto",
		"_defer_foreign_keys=1",
		"_journal_mode=wal",
		"_busy_timeout=5000",
		"_synchronous=normal",
		"_foreign_keys=on",
	}, "&")
	readWriteDSN := fmt.Sprintf("file:%s?%s&_txlock=immediate&%s", url, readWriteMode, params)
	readOnlyDSN := fmt.Sprintf("file:%s?%s&_txlock=deferred&_query_only=true&%s", url, readOnlyMode, params)

	registerDriver.Do(registerOptimizedDriver)

	readWrite, err := sql.Open(optimizedDriver, readWriteDSN)
	if err != nil {
		return nil, fmt.Errorf("open read-write database: %w", err)
	}
	logger.LogAttrs(ctx, slog.LevelInfo, "opened database", slog.String(LogDsnKey, readWriteDSN))
	readWrite.SetMaxOpenConns(1)
	readWrite.SetMaxIdleConns(1)
	readWrite.SetConnMaxLifetime(time.Hour)
	readWrite.SetConnMaxIdleTime(time.Hour)

	// sql.Open is lazy. Pinging creates the database file and keeps an in-memory database alive.
	if err = readWrite.PingContext(ctx); err != nil {
		return nil, errors.Join(fmt.Errorf("ping read-write database: %w", err), readWrite.Close())
	}

	readOnly, err := sql.Open(optimizedDriver, readOnlyDSN)
	if err != nil {
		return nil, errors.Join(fmt.Errorf("open read-only database: %w", err), readWrite.Close())
	}
	const maxReadConns = 10
	readOnly.SetMaxOpenConns(maxReadConns)
	readOnly.SetMaxIdleConns(maxReadConns)
	readOnly.SetConnMaxLifetime(time.Hour)
	readOnly.SetConnMaxIdleTime(time.Hour)

	return &Database{
		ReadWrite:     readWrite,
		ReadOnly:      readOnly,
		logger:        logger,
		stopOptimizer: make(chan struct{}),
		optimizerDone: nil,
		closeOnce:     sync.Once{},
	}, nil
}

// Close stops the optimizer and closes both pools.
func (db *Database) Close() error {
	var err error
	db.closeOnce.Do(func() {
		close(db.stopOptimizer)
		if db.optimizerDone != nil {
			<-db.optimizerDone
		}
		err = errors.Join(db.ReadOnly.Close(), db.ReadWrite.Close())
	})
	return err
}

// Rollback rolls back tx unless it was already committed. It is meant to be deferred right after BeginTx.
func (db *Database) Rollback(ctx context.Context, tx *sql.Tx) {
	if err := tx.Rollback(); err != nil && !errors.Is(err, sql.ErrTxDone) {
		db.logger.LogAttrs(ctx, slog.LevelError, "rollback transaction", slog.Any("error", err))
	}
}
