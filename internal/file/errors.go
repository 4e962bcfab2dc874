package file

import "errors"

var (
	// ErrFileNotFound signals that the file could not be located.
	ErrFileNotFound = errors.New("file not found")
	// ErrFileTooLarge signals that the upload exceeds the per-file limit.
	ErrFileTooLarge = errors.New("file too large")
	// ErrQuotaExceeded signals that the upload would exceed the owner's storage quota.
	ErrQuotaExceeded = errors.New("storage quota exceeded")
	// ErrNotOwner is returned when an actor operates on a file it does not own.
	ErrNotOwner = errors.New("not the file owner")
)
