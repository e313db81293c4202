package queue

import "errors"

var (
	// ErrDuplicateStory indicates a story with the same source ID is already queued.
	ErrDuplicateStory = errors.New("duplicate story")
	// ErrNotFound indicates the requested story or chunk does not exist.
	ErrNotFound = errors.New("not found")
	// ErrInvalidTransition indicates a status change that the lifecycle table forbids.
	ErrInvalidTransition = errors.New("invalid status transition")
)
