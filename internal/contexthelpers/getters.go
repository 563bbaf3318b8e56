package contexthelpers

import (
	"context"
)

func CurrentPath(ctx context.Context) string {
	currentPath, ok := ctx.Value(CurrentPathContextKey).(string)
	if !ok {
		return ""
	}

	return currentPath
}

func CSPNonce(ctx context.Context) string {
	cspNonce, ok := ctx.Value(CspNonceContextKey).(string)
	if !ok {
		return ""
	}

	return cspNonce
}

// Flash returns the one-off message popped from the session for this request.
func Flash(ctx context.Context) string {
	flash, ok := ctx.Value(FlashContextKey).(string)
	if !ok {
		return ""
	}
	return flash
}
