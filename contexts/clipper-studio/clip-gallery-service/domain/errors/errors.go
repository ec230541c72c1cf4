package errors

import "errors"

var (
	ErrInvalidGalleryInput = errors.New("invalid gallery input")
	ErrProjectNotFound     = errors.New("project not found")
	ErrUpstreamUnavailable = errors.New("gallery upstream unavailable")
)
