package main

import (
	"fmt"
	"net/http"
)

func (app *application) routes() (*http.ServeMux, error) {
	mux := http.NewServeMux()

	var (
		shared = func(next http.Handler) http.Handler {
			return app.logAndTraceRequest(secureHeaders(app.crossOriginProtection(commonContext(app.timeout(next)))))
		}
		stateless = func(next http.Handler) http.Handler {
			return app.recoverPanic(shared(next))
		}
		session = func(next http.Handler) http.Handler {
			return app.recoverPanic(noCache(app.sessionManager.LoadAndSave(shared(app.flash(next)))))
		}
	)

	mux.Handle("GET /{$}", session(http.HandlerFunc(app.home)))
	mux.Handle("POST /setup", session(http.HandlerFunc(app.setupPOST)))

	mux.Handle("GET /workouts/current", session(http.HandlerFunc(app.workoutCurrentGET)))
	mux.Handle("POST /workouts/generate", session(http.HandlerFunc(app.workoutGeneratePOST)))
	mux.Handle("GET /workouts/{id}", session(http.HandlerFunc(app.workoutGET)))
	mux.Handle("POST /workouts/{id}/complete", session(http.HandlerFunc(app.workoutCompletePOST)))
	mux.Handle("POST /workouts/{id}/exercises/{exerciseID}/sets/{setIndex}/toggle",
		session(http.HandlerFunc(app.setTogglePOST)))
	mux.Handle("POST /workouts/{id}/exercises/{exerciseID}/sets/{setIndex}/amrap",
		session(http.HandlerFunc(app.setAMRAPPOST)))

	mux.Handle("GET /progress", session(http.HandlerFunc(app.progressGET)))

	mux.Handle("GET /settings", session(http.HandlerFunc(app.settingsGET)))
	mux.Handle("POST /settings/profile", session(http.HandlerFunc(app.settingsProfilePOST)))
	mux.Handle("POST /settings/training-maxes", session(http.HandlerFunc(app.settingsTrainingMaxesPOST)))
	mux.Handle("POST /settings/advance", session(http.HandlerFunc(app.settingsAdvancePOST)))
	mux.Handle("POST /settings/reset", session(http.HandlerFunc(app.settingsResetPOST)))

	mux.Handle("GET /learn", session(http.HandlerFunc(app.learnGET)))

	mux.Handle("GET /api/healthy", stateless(http.HandlerFunc(app.healthy)))
	mux.Handle("POST /api/csp-violation", stateless(http.HandlerFunc(app.cspViolation)))
	mux.Handle("GET /metrics", stateless(app.metrics))

	fileServer, err := newFileServer()
	if err != nil {
		return nil, fmt.Errorf("new file server: %w", err)
	}
	mux.Handle("/", fileServer.handler(stateless(cacheForever(fileServer)), session(http.HandlerFunc(app.notFound))))

	return mux, nil
}
