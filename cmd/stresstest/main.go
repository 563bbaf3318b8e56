package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"strings"
	"sync/atomic"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/myrjola/wrestlestrong/internal/e2etest"
	"github.com/myrjola/wrestlestrong/internal/errors"
	"github.com/myrjola/wrestlestrong/internal/logging"
	"github.com/myrjola/wrestlestrong/internal/testhelpers"
	"golang.org/x/sync/errgroup"
)

const (
	numClients              = 20
	scenariosPerClient      = 10
	maxConcurrentOperations = 20
	scenarioTimeout         = 30 * time.Second
	successRateThreshold    = 95.0
	percentageMultiplier    = 100
	expectedArgsCount       = 2
)

// toggleActions returns the set toggle form actions of the current workout.
func toggleActions(ctx context.Context, client *e2etest.Client) ([]string, error) {
	doc, err := client.GetDoc(ctx, "/workouts/current")
	if err != nil {
		return nil, fmt.Errorf("get current workout: %w", err)
	}
	var actions []string
	doc.Find("form").Each(func(_ int, form *goquery.Selection) {
		if action := form.AttrOr("action", ""); strings.HasSuffix(action, "/toggle") {
			actions = append(actions, action)
		}
	})
	if len(actions) == 0 {
		return nil, errors.New("no sets on the current workout")
	}
	return actions, nil
}

func post(ctx context.Context, client *e2etest.Client, path string) error {
	resp, err := client.PostForm(ctx, path, url.Values{})
	if err != nil {
		return fmt.Errorf("post %s: %w", path, err)
	}
	_ = resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("post %s: status %d", path, resp.StatusCode)
	}
	return nil
}

// TrainingScenario reads the pages an athlete uses during a session and toggles a set twice so that the
// training data ends up unchanged.
func TrainingScenario(ctx context.Context, client *e2etest.Client, action string) error {
	for _, path := range []string{"/", "/progress"} {
		if _, err := client.GetDoc(ctx, path); err != nil {
			return fmt.Errorf("get %s: %w", path, err)
		}
	}
	for range 2 {
		if err := post(ctx, client, action); err != nil {
			return err
		}
	}
	return nil
}

// RunLoadTest runs the scenarios concurrently against the same athlete.
func RunLoadTest(ctx context.Context, baseURL string, actions []string, logger *slog.Logger) error {
	var successCount, failureCount atomic.Int64
	total := numClients * scenariosPerClient
	logger.LogAttrs(ctx, slog.LevelInfo, "Starting load test", slog.Int("scenarios", total))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(maxConcurrentOperations)
	for i := range numClients {
		client, err := e2etest.NewClient(baseURL)
		if err != nil {
			return fmt.Errorf("new client: %w", err)
		}
		for j := range scenariosPerClient {
			action := actions[(i+j)%len(actions)]
			g.Go(func() error {
				scenarioCtx, cancel := context.WithTimeout(ctx, scenarioTimeout)
				defer cancel()
				if scenarioErr := TrainingScenario(scenarioCtx, client, action); scenarioErr != nil {
					failureCount.Add(1)
					logger.LogAttrs(scenarioCtx, slog.LevelWarn, "Scenario failed", slog.Any("error", scenarioErr))
					return nil
				}
				successCount.Add(1)
				return nil
			})
		}
	}
	if err := g.Wait(); err != nil {
		return fmt.Errorf("load test failed: %w", err)
	}

	successRate := float64(successCount.Load()) / float64(total) * percentageMultiplier
	logger.LogAttrs(ctx, slog.LevelInfo, "Load test completed",
		slog.Int64("successful", successCount.Load()),
		slog.Int64("failed", failureCount.Load()),
		slog.Float64("success_rate", successRate))
	if successRate < successRateThreshold {
		return fmt.Errorf("success rate %.1f%% below threshold", successRate)
	}
	return nil
}

func main() {
	logger := testhelpers.NewLogger(os.Stdout)
	ctx := context.Background()

	if len(os.Args) != expectedArgsCount {
		logger.LogAttrs(ctx, slog.LevelError, "usage: stresstest <hostname>")
		os.Exit(1)
	}

	var (
		hostname = os.Args[1]
		start    = time.Now()
	)
	ctx = logging.WithAttrs(ctx, slog.String("hostname", hostname))
	baseURL := "https://" + hostname
	if strings.Contains(hostname, "localhost") {
		baseURL = "http://" + hostname
	}

	client, err := e2etest.NewClient(baseURL)
	if err != nil {
		logger.LogAttrs(ctx, slog.LevelError, "error creating client", slog.Any("error", err))
		os.Exit(1)
	}
	if err = client.WaitForReady(ctx, "/api/healthy"); err != nil {
		logger.LogAttrs(ctx, slog.LevelError, "server not ready in time", slog.Any("error", err))
		os.Exit(1)
	}
	actions, err := toggleActions(ctx, client)
	if err != nil {
		logger.LogAttrs(ctx, slog.LevelError, "set up an athlete before stress testing", slog.Any("error", err))
		os.Exit(1)
	}

	if err = RunLoadTest(ctx, baseURL, actions, logger); err != nil {
		logger.LogAttrs(ctx, slog.LevelError, "load test failed", slog.Any("error", err))
		os.Exit(1)
	}
	logger.LogAttrs(ctx, slog.LevelInfo, "Load test completed successfully",
		slog.Duration("total_duration", time.Since(start)))
}
