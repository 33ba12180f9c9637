package store

import (
	"errors"
	"net/http"

	"github.com/grokify/issueconductor/internal/remote"
)

var (
	// ErrAlreadyAdded is returned when a repository with the same full name
	// is already tracked.
	ErrAlreadyAdded = errors.New("repository already added")

	// ErrNotTracked is returned when selecting a repository that is not in
	// the tracked list.
	ErrNotTracked = errors.New("repository is not tracked")

	// ErrNoSelection is returned by operations that need a selected repository.
	ErrNoSelection = errors.New("no repository selected")
)

// ValidationError reports an empty or malformed form field.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Reason != "" {
		return e.Field + " " + e.Reason
	}
	return e.Field + " is required"
}

// isConflict reports whether err is the service's rejection of a duplicate.
func isConflict(err error) bool {
	return errors.Is(err, ErrAlreadyAdded) || remote.StatusCode(err) == http.StatusConflict
}
