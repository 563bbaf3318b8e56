// Package ptr helps with the optional fields of the workout model.
package ptr

// Ref returns a pointer to a copy of v.
func Ref[T any](v T) *T {
	return &v
}
