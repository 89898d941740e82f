package roomstore

import "errors"

// Error taxonomy of the room store. Callers match with errors.Is, the HTTP
// layer translates to status codes.
var (
	ErrNotFound     = errors.New("not found")
	ErrConflict     = errors.New("already exists")
	ErrUnauthorized = errors.New("unauthorized")
	ErrForbidden    = errors.New("forbidden")
	ErrUpstream     = errors.New("upstream failure")
)
