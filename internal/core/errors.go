package core

import "errors"

var (
	// ErrInvalidConfig marks bad chunking parameters or missing required
	// request fields. Surfaced to callers as a client error.
	ErrInvalidConfig = errors.New("invalid configuration")

	// ErrEmptyDocument marks an ingestion request with no extractable text.
	ErrEmptyDocument = errors.New("document is empty")
)
