package app

import "errors"

var (
	// ErrStaleResult is returned by a load whose result was superseded by a
	// later load of the same view. The store is left to the later call.
	ErrStaleResult = errors.New("result superseded by a newer request")

	ErrCredentialsRequired = errors.New("username and password required")
)
