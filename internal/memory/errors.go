package memory

import "errors"

// Sentinel errors shared across the engine. Layers wrap these with context;
// callers test with errors.Is.
var (
	ErrNilRecord     = errors.New("nil record")
	ErrNotFound      = errors.New("not found")
	ErrStorageFull   = errors.New("daily file over size ceiling")
	ErrInvalidState  = errors.New("engine not initialized")
	ErrResourceLimit = errors.New("resource limit exceeded")
	ErrParse         = errors.New("malformed line")
)
