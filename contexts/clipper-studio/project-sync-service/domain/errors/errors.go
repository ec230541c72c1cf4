package errors

import "errors"

var (
	ErrInvalidProjectInput   = errors.New("invalid project input")
	ErrProjectNotFound       = errors.New("project not found")
	ErrNoInputStaged         = errors.New("no source url or uploaded file staged")
	ErrAmbiguousInput        = errors.New("both source url and uploaded file staged")
	ErrMissingProjectBody    = errors.New("backend response missing project body")
	ErrUpstreamTimeout       = errors.New("processing backend timed out")
	ErrUpstreamUnreachable   = errors.New("processing backend unreachable")
	ErrUpstreamRejected      = errors.New("processing backend rejected the request")
	ErrDeleteNotAcknowledged = errors.New("backend did not acknowledge deletion")
	ErrSaveNotAcknowledged   = errors.New("backend did not acknowledge save")
)
