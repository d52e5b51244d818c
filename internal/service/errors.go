package service

import "errors"

// Sentinel kinds returned by the services; handlers map them to status codes.
var (
	ErrNotFound     = errors.New("record not found")
	ErrInvalidInput = errors.New("invalid input")
	// ErrImportInProgress reports a roster file whose name is still being imported.
	ErrImportInProgress = errors.New("import already in progress")
)
