// Package e2etest runs the web application in-process and drives it over HTTP.
package e2etest

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"testing"

	"github.com/myrjola/wrestlestrong/internal/logging"
)

type Server struct {
	url        string
	client     *Client
	cancel     context.CancelCauseFunc
	serverDone chan struct{}
}

// LogAddrKey is the key used to log the address the server is listening on.
const LogAddrKey = "addr"

// StartServer starts the test server, waits for it to be ready, and return the server URL for testing.
//
// logSink is the writer to which the server logs are written. You usually want to use testhelpers.NewWriter.
// lookupEnv is a function that returns the value of an environment variable. It has same signature as [os.LookupEnv].
// run is the function that starts the server. We expect the server to log the address it's listening on to LogAddrKey.
func StartServer(
	t *testing.T,
	logSink io.Writer,
	lookupEnv func(string) (string, bool),
	run func(context.Context, *slog.Logger, func(string) (string, bool)) error,
) (*Server, error) {
	var server *Server
	t.Cleanup(func() {
		if server != nil {
			server.Shutdown()
		}
	})
	ctx, cancel := context.WithCancelCause(t.Context())
	serverDone := make(chan struct{})

	// We need to grab the dynamically allocated port from the log output.
	addrCh := make(chan string, 1)
	logger := slog.New(logging.NewContextHandler(slog.NewTextHandler(logSink, &slog.HandlerOptions{
		AddSource: false,
		Level:     slog.LevelDebug,
		ReplaceAttr: func(_ []string, a slog.Attr) slog.Attr {
			if a.Key == LogAddrKey {
				select {
				case addrCh <- a.Value.String():
				default:
				}
			}
			return a
		},
	})))

	go func() {
		defer close(serverDone)
		if err := run(ctx, logger, lookupEnv); err != nil {
			cancel(err)
		}
	}()

	var addr string
	select {
	case <-ctx.Done():
		<-serverDone
		return nil, fmt.Errorf("context cancelled: %w", context.Cause(ctx))
	case addr = <-addrCh:
	}

	var (
		err    error
		client *Client
	)
	serverURL := fmt.Sprintf("http://%s", addr)
	server = &Server{
		url:        serverURL,
		client:     nil,
		cancel:     cancel,
		serverDone: serverDone,
	}
	if client, err = NewClient(serverURL); err != nil {
		return nil, fmt.Errorf("new client: %w", err)
	}
	if err = client.WaitForReady(ctx, "/api/healthy"); err != nil {
		return nil, fmt.Errorf("wait for ready: %w", err)
	}
	server.client = client

	return server, nil
}

func (s *Server) Client() *Client {
	return s.client
}

func (s *Server) URL() string {
	return s.url
}

// Shutdown stops the server and waits for run to return.
func (s *Server) Shutdown() {
	s.cancel(nil)
	<-s.serverDone
}
