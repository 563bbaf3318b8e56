// Package flightrecorder keeps the last minutes of the runtime execution trace in memory and writes it to disk
// when a request runs out of time.
package flightrecorder

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"runtime/trace"
	"sync"
	"time"
)

const (
	defaultMinAge   = 2 * time.Minute
	defaultMaxBytes = 32 * 1024 * 1024
	defaultCooldown = 15 * time.Minute
)

// Recorder snapshots the flight recorder buffer into Dir.
type Recorder struct {
	logger   *slog.Logger
	recorder *trace.FlightRecorder
	dir      string
	cooldown time.Duration
	now      func() time.Time

	mu          sync.Mutex
	lastCapture time.Time
}

// Config configures the Recorder. Zero values fall back to defaults.
type Config struct {
	Logger *slog.Logger
	// Dir receives the trace files. Created when missing.
	Dir      string
	MinAge   time.Duration
	MaxBytes uint64
	// Cooldown is the minimum time between two captures.
	Cooldown time.Duration
	Now      func() time.Time
}

func New(cfg Config) (*Recorder, error) {
	if cfg.Logger == nil {
		return nil, errors.New("logger is required")
	}
	if cfg.Dir == "" {
		return nil, errors.New("trace directory is required")
	}
	if err := os.MkdirAll(cfg.Dir, 0o700); err != nil { //nolint:mnd // owner only
		return nil, fmt.Errorf("create trace directory: %w", err)
	}
	if cfg.MinAge == 0 {
		cfg.MinAge = defaultMinAge
	}
	if cfg.MaxBytes == 0 {
		cfg.MaxBytes = defaultMaxBytes
	}
	if cfg.Cooldown == 0 {
		cfg.Cooldown = defaultCooldown
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}

	return &Recorder{
		logger:      cfg.Logger,
		recorder:    trace.NewFlightRecorder(trace.FlightRecorderConfig{MinAge: cfg.MinAge, MaxBytes: cfg.MaxBytes}),
		dir:         cfg.Dir,
		cooldown:    cfg.Cooldown,
		now:         cfg.Now,
		mu:          sync.Mutex{},
		lastCapture: time.Time{},
	}, nil
}

func (r *Recorder) Start(ctx context.Context) error {
	if err := r.recorder.Start(); err != nil {
		return fmt.Errorf("start flight recorder: %w", err)
	}
	r.logger.LogAttrs(ctx, slog.LevelInfo, "flight recorder started",
		slog.String("dir", r.dir), slog.Duration("cooldown", r.cooldown))
	return nil
}

func (r *Recorder) Stop(ctx context.Context) {
	r.recorder.Stop()
	r.logger.LogAttrs(ctx, slog.LevelInfo, "flight recorder stopped")
}

// Capture writes the buffered trace to {reason}-{timestamp}.trace and returns the file path.
//
// Nothing is written during the cooldown after the previous capture.
func (r *Recorder) Capture(ctx context.Context, reason string) (string, bool) {
	r.mu.Lock()
	now := r.now()
	if !r.lastCapture.IsZero() && now.Sub(r.lastCapture) < r.cooldown {
		r.mu.Unlock()
		r.logger.LogAttrs(ctx, slog.LevelDebug, "trace capture in cooldown",
			slog.String("reason", reason), slog.Time("last_capture", r.lastCapture))
		return "", false
	}
	r.lastCapture = now
	r.mu.Unlock()

	path := filepath.Join(r.dir, fmt.Sprintf("%s-%s.trace", reason, now.UTC().Format("20060102-150405")))
	if err := r.writeTrace(path); err != nil {
		r.logger.LogAttrs(ctx, slog.LevelError, "capture trace",
			slog.String("file", path), slog.String("error", err.Error()))
		return "", false
	}
	r.logger.LogAttrs(ctx, slog.LevelWarn, "captured trace", slog.String("reason", reason), slog.String("file", path))
	return path, true
}

func (r *Recorder) writeTrace(path string) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create trace file: %w", err)
	}
	defer func() {
		if closeErr := f.Close(); closeErr != nil && err == nil {
			err = fmt.Errorf("close trace file: %w", closeErr)
		}
	}()
	if _, err = r.recorder.WriteTo(f); err != nil {
		return fmt.Errorf("write trace: %w", err)
	}
	return nil
}
