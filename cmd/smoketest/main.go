package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/myrjola/wrestlestrong/internal/e2etest"
	"github.com/myrjola/wrestlestrong/internal/errors"
	"github.com/myrjola/wrestlestrong/internal/logging"
	"github.com/myrjola/wrestlestrong/internal/testhelpers"
)

// CheckPages visits the pages without changing the athlete's data.
func CheckPages(client *e2etest.Client) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second) //nolint:mnd // 10 seconds
	defer cancel()

	doc, err := client.GetDoc(ctx, "/")
	if err != nil {
		return fmt.Errorf("get dashboard: %w", err)
	}
	if _, setupErr := e2etest.FindForm(doc, "/setup"); setupErr != nil && doc.Find(".days li").Length() == 0 {
		return errors.New("dashboard shows neither the setup form nor training days")
	}

	if doc, err = client.GetDoc(ctx, "/learn"); err != nil {
		return fmt.Errorf("get learn: %w", err)
	}
	if got := doc.Find("table[data-week]").Length(); got != 4 { //nolint:mnd // weeks per cycle
		return fmt.Errorf("learn page shows %d week tables", got)
	}

	resp, err := client.Get(ctx, "/metrics")
	if err != nil {
		return fmt.Errorf("get metrics: %w", err)
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read metrics: %w", err)
	}
	if resp.StatusCode != http.StatusOK || !strings.Contains(string(body), "wrestlestrong_training_current_cycle") {
		return fmt.Errorf("metrics missing training gauges (status %d)", resp.StatusCode)
	}
	return nil
}

func main() {
	logger := testhelpers.NewLogger(os.Stdout)
	ctx := context.Background()

	if len(os.Args) != 2 { //nolint:mnd // we expect only hostname to be passed as argument.
		logger.LogAttrs(ctx, slog.LevelError, "usage: smoketest <hostname>")
		os.Exit(1)
	}

	var (
		hostname = os.Args[1]
		client   *e2etest.Client
		err      error
		start    = time.Now()
	)
	ctx = logging.WithAttrs(ctx, slog.String("hostname", hostname))
	url := "https://" + hostname
	if strings.Contains(hostname, "localhost") {
		url = "http://" + hostname
	}

	if client, err = e2etest.NewClient(url); err != nil {
		logger.LogAttrs(ctx, slog.LevelError, "error creating client", slog.Any("error", err))
		os.Exit(1)
	}
	if err = client.WaitForReady(ctx, "/api/healthy"); err != nil {
		logger.LogAttrs(ctx, slog.LevelError, "server not ready in time", slog.Any("error", err))
		os.Exit(1)
	}
	if err = CheckPages(client); err != nil {
		logger.LogAttrs(ctx, slog.LevelError, "error checking pages", slog.Any("error", err))
		os.Exit(1)
	}

	logger.LogAttrs(ctx, slog.LevelInfo, "Smoke test successful", slog.Duration("duration", time.Since(start)))
}
