package contexthelpers

import (
	"context"
	"net/http"
)

func SetCurrentPath(r *http.Request, currentPath string) *http.Request {
	ctx := context.WithValue(r.Context(), CurrentPathContextKey, currentPath)
	return r.WithContext(ctx)
}

func SetCSPNonce(r *http.Request, cspNonce string) *http.Request {
	ctx := context.WithValue(r.Context(), CspNonceContextKey, cspNonce)
	return r.WithContext(ctx)
}

func SetFlash(r *http.Request, flash string) *http.Request {
	ctx := context.WithValue(r.Context(), FlashContextKey, flash)
	return r.WithContext(ctx)
}
