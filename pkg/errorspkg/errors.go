// Package errorspkg provides errors shown to users in place of internal failures.
package errorspkg

import "errors"

// ErrInternal replaces storage and other unexpected errors in user facing output.
var ErrInternal = errors.New("internal error")
