package usecase

import "errors"

var (
	// ErrInvalidPath means the requested file lies outside the upload directory.
	ErrInvalidPath = errors.New("invalid data path")
	// ErrExtensionNotAllowed means the file type is not accepted for analysis.
	ErrExtensionNotAllowed = errors.New("file extension not allowed")
	// ErrInvalidParams means a parameter failed validation.
	ErrInvalidParams = errors.New("invalid parameters")
)
