// Package contexthelpers stores request scoped values in the context.
package contexthelpers

type contextKey string

const (
	CurrentPathContextKey = contextKey("currentPath")
	CspNonceContextKey    = contextKey("cspNonce")
	FlashContextKey       = contextKey("flash")
)
