package apperr

import "errors"

var (
	ErrNotFound     = errors.New("not found")
	ErrNoPages      = errors.New("graph contains no pages")
	ErrNotReady     = errors.New("no completed build")
	ErrInvalidQuery = errors.New("invalid query")
)
