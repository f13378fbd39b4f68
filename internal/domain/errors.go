package domain

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrNotFound indicates resource not found
	ErrNotFound = errors.New("resource not found")
	// ErrInvalidURL indicates the submitted text is not an absolute URL
	ErrInvalidURL = errors.New("please enter a valid URL")
	// ErrEmptyQuery indicates a blank chat message
	ErrEmptyQuery = errors.New("message is empty")
	// ErrNoSelection indicates no site is selected
	ErrNoSelection = errors.New("no website selected")
	// ErrBusy indicates a request for the same target is already in flight
	ErrBusy = errors.New("request already in progress")
	// ErrCancelled indicates the user declined a confirmation
	ErrCancelled = errors.New("cancelled")
	// ErrStale indicates a response arrived for a context that is no longer current
	ErrStale = errors.New("response discarded: selection changed")
)

// APIError is a failure reported by the backend or the transport
type APIError struct {
	StatusCode int // 0 for transport failures
	Message    string
	Err        error
}

func (e *APIError) Error() string {
	if e.StatusCode == 0 {
		return e.Message
	}
	return fmt.Sprintf("backend returned %d: %s", e.StatusCode, e.Message)
}

func (e *APIError) Unwrap() error {
	return e.Err
}

// BackendMessage returns the message the backend supplied, or fallback when
// err carries none.
func BackendMessage(err error, fallback string) string {
	var apiErr *APIError
	if errors.As(err, &apiErr) && apiErr.StatusCode != 0 && apiErr.Message != "" {
		return apiErr.Message
	}
	return fallback
}

// The vector store keeps its index file open for the lifetime of the backend
// process; on some platforms deleting it fails with one of these messages.
var fileLockMarkers = []string{
	"process is using",
	"being used by another process",
	"winerror 32",
	"file is locked",
}

// FileLockMessage is shown instead of the raw backend error for file-lock failures
const FileLockMessage = "The vector database is locked by the running backend process. " +
	"Restart the backend server, then try deleting again."

// IsFileLocked reports whether err is the vector store's file-lock failure
func IsFileLocked(err error) bool {
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		return false
	}
	msg := strings.ToLower(apiErr.Message)
	for _, marker := range fileLockMarkers {
		if strings.Contains(msg, marker) {
			return true
		}
	}
	return false
}

// DeleteErrorMessage maps a delete failure to user guidance
func DeleteErrorMessage(err error) string {
	if IsFileLocked(err) {
		return FileLockMessage
	}
	return BackendMessage(err, "Failed to delete website data. Please try again.")
}
