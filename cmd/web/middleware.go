package main

import (
	"crypto/rand"
	"fmt"
	"log/slog"
	"net/http"
	"runtime/trace"
	"time"

	"github.com/myrjola/wrestlestrong/internal/contexthelpers"
	"github.com/myrjola/wrestlestrong/internal/errors"
	"github.com/myrjola/wrestlestrong/internal/logging"
)

type statusResponseWriter struct {
	http.ResponseWriter
	statusCode    int
	headerWritten bool
}

func newStatusResponseWriter(w http.ResponseWriter) *statusResponseWriter {
	return &statusResponseWriter{
		ResponseWriter: w,
		statusCode:     http.StatusOK,
		headerWritten:  false,
	}
}

func (mw *statusResponseWriter) WriteHeader(statusCode int) {
	mw.ResponseWriter.WriteHeader(statusCode)

	if !mw.headerWritten {
		mw.statusCode = statusCode
		mw.headerWritten = true
	}
}

func (mw *statusResponseWriter) Write(b []byte) (int, error) {
	mw.headerWritten = true
	written, err := mw.ResponseWriter.Write(b)
	if err != nil {
		return written, fmt.Errorf("write response: %w", err)
	}
	return written, nil
}

func (mw *statusResponseWriter) Unwrap() http.ResponseWriter {
	return mw.ResponseWriter
}

func secureHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// The nonce goes to the context so that templates can add it to style and script tags.
		cspNonce := rand.Text()
		csp := fmt.Sprintf(`default-src 'none';
script-src 'nonce-%s' 'strict-dynamic';
connect-src 'self';
img-src 'self';
style-src 'nonce-%s' 'self';
frame-ancestors 'none';
form-action 'self';
font-src 'none';
object-src 'none';
base-uri 'none';
report-uri /api/csp-violation;`, cspNonce, cspNonce)

		w.Header().Set("Content-Security-Policy", csp)
		w.Header().Set("Referrer-Policy", "origin-when-cross-origin")
		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "deny")
		w.Header().Set("X-XSS-Protection", "0")
		w.Header().Set("Cross-Origin-Opener-Policy", "same-origin")

		next.ServeHTTP(w, contexthelpers.SetCSPNonce(r, cspNonce))
	})
}

func cacheForever(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Cache-Control", "public, max-age=31536000, immutable")
		next.ServeHTTP(w, r)
	})
}

func noCache(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Cache-Control", "no-cache, no-store, must-revalidate")
		w.Header().Set("Pragma", "no-cache")
		next.ServeHTTP(w, r)
	})
}

func (app *application) logAndTraceRequest(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var (
			proto  = r.Proto
			method = r.Method
			uri    = r.URL.RequestURI()
		)

		traceID := rand.Text()
		ctx := logging.WithAttrs(
			r.Context(),
			slog.String("trace_id", traceID),
			slog.String("proto", proto),
			slog.String("method", method),
			slog.String("uri", uri),
		)

		start := time.Now()
		app.logger.LogAttrs(ctx, slog.LevelDebug, "received request")

		sw := newStatusResponseWriter(w)
		if trace.IsEnabled() {
			var task *trace.Task
			ctx, task = trace.NewTask(ctx, fmt.Sprintf("HTTP %s %s", method, r.URL.Path))
			trace.Log(ctx, "trace_id", traceID)
			defer task.End()
		}
		r = r.WithContext(ctx)
		next.ServeHTTP(sw, r)

		level := slog.LevelInfo
		if sw.statusCode >= http.StatusInternalServerError {
			level = slog.LevelError
		}
		// The timeout middleware is the only source of 503.
		if sw.statusCode == http.StatusServiceUnavailable && app.flightRecorder != nil {
			app.flightRecorder.Capture(ctx, "timeout")
		}
		app.logger.LogAttrs(ctx, level, "request completed",
			slog.Int("status_code", sw.statusCode), slog.Duration("duration", time.Since(start)))
	})
}

func (app *application) recoverPanic(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if excp := recover(); excp != nil {
				app.serverError(w, r, errors.DecoratePanic(excp))
			}
		}()

		next.ServeHTTP(w, r)
	})
}

func commonContext(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		next.ServeHTTP(w, contexthelpers.SetCurrentPath(r, r.URL.Path))
	})
}

// crossOriginProtection rejects cross-origin state changing requests with the Go 1.25 CrossOriginProtection.
func (app *application) crossOriginProtection(next http.Handler) http.Handler {
	protection := http.NewCrossOriginProtection()
	return protection.Handler(next)
}

// timeout cancels the request context and responds with 503 when the handler misses the deadline.
func (app *application) timeout(next http.Handler) http.Handler {
	// Writing the response takes time so the handler deadline is a bit shorter than the server's write timeout.
	return http.TimeoutHandler(next, defaultTimeout-200*time.Millisecond, "timed out") //nolint:mnd // 200ms
}

const flashKey = "flash"

// flash moves the flash message from the session to the request context. Must run inside LoadAndSave.
func (app *application) flash(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if msg := app.sessionManager.PopString(r.Context(), flashKey); msg != "" {
			r = contexthelpers.SetFlash(r, msg)
		}
		next.ServeHTTP(w, r)
	})
}
