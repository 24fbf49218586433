package domain

import "errors"

var (
	// ErrInvalidConfiguration reports malformed chunking or retrieval parameters.
	ErrInvalidConfiguration = errors.New("invalid configuration")

	// ErrPublishFailure marks a single record that could not be uploaded.
	ErrPublishFailure = errors.New("publish failure")

	// ErrRetrievalUnavailable means the search store could not be queried.
	ErrRetrievalUnavailable = errors.New("retrieval unavailable")

	// ErrGenerationUnavailable means the language model could not be reached.
	ErrGenerationUnavailable = errors.New("generation unavailable")
)
