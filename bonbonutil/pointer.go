// Package bonbonutil holds small cross-cutting helpers: pointer
// construction, multi-error wrapping, base58 conversion, and
// pretty-printing for diagnostics. No other package in this module
// imports it.
package bonbonutil

// Pointer converts any value to a pointer to it. Useful for populating an
// optional *T struct field from a literal without an intermediate
// variable.
func Pointer[T any](v T) *T {
	return &v
}
