package services

import "errors"

// Pipeline service errors
var (
	// Dataset errors
	ErrDatasetNotFound = errors.New("dataset not found")
	ErrIngestionFailed = errors.New("ingestion failed")

	// Upload errors
	ErrNoUploads = errors.New("no files uploaded")

	// General errors
	ErrInvalidInput       = errors.New("invalid input")
	ErrServiceUnavailable = errors.New("service temporarily unavailable")
)
