package sqlite

import (
	"context"
	"log/slog"
	"time"
)

// startDatabaseOptimizer runs PRAGMA optimize hourly until ctx is done or the database is closed.
// See https://www.sqlite.org/pragma.html#pragma_optimize.
func (db *Database) startDatabaseOptimizer(ctx context.Context) {
	// 0x10002 also analyzes tables that have never been analyzed.
	db.optimize(ctx, "PRAGMA optimize = 0x10002")
	ticker := time.NewTicker(time.Hour)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-db.stopOptimizer:
			return
		case <-ticker.C:
			db.optimize(ctx, "PRAGMA optimize")
		}
	}
}

func (db *Database) optimize(ctx context.Context, pragma string) {
	start := time.Now()
	if _, err := db.ReadWrite.ExecContext(ctx, pragma); err != nil {
		if ctx.Err() == nil {
			db.logger.LogAttrs(ctx, slog.LevelError, "optimize database", slog.Any("error", err))
		}
		return
	}
	db.logger.LogAttrs(ctx, slog.LevelDebug, "optimized database", slog.Duration("duration", time.Since(start)))
}
