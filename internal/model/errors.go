package model

import (
	"errors"
	"fmt"
	"time"
)

var (
	// ErrNotAuthenticated means no session token is available.
	ErrNotAuthenticated = errors.New("not authenticated")
	// ErrSessionExpired means the portal answered with its login page instead
	// of the requested one, a new login is required.
	ErrSessionExpired = errors.New("session expired")
	ErrNotFound       = errors.New("not found")
)

// AuthenticationError is a terminal login failure: the credential was rejected,
// the provider showed an error or the flow stopped making progress.
type AuthenticationError struct {
	Message string
}

func (e AuthenticationError) Error() string {
	return fmt.Sprintf("authentication failed: %s", e.Message)
}

// SessionTimeoutError means the session cookie never appeared.
type SessionTimeoutError struct {
	Waited time.Duration
}

func (e SessionTimeoutError) Error() string {
	return fmt.Sprintf("session not established after %s, please try again", e.Waited)
}

const WHOLE_PAGE = -1

// ExtractionError describes a page (Row == WHOLE_PAGE) or a single row that did
// not have the expected shape.
type ExtractionError struct {
	Page   string
	Row    int
	Reason string
}

func (e ExtractionError) Error() string {
	if e.Row == WHOLE_PAGE {
		return fmt.Sprintf("extract %s: %s", e.Page, e.Reason)
	}
	return fmt.Sprintf("extract %s row %d: %s", e.Page, e.Row, e.Reason)
}

// Fatal reports whether the whole page failed.
func (e ExtractionError) Fatal() bool {
	return e.Row == WHOLE_PAGE
}

// NetworkError is a transport failure or an unexpected status code.
type NetworkError struct {
	Op     string
	Status int
	Err    error
}

func (e NetworkError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("%s: unexpected status %d", e.Op, e.Status)
}

func (e NetworkError) Unwrap() error {
	return e.Err
}

// StorageError is a failure of the local record store.
type StorageError struct {
	Op  string
	Err error
}

func (e StorageError) Error() string {
	return fmt.Sprintf("storage: %s: %v", e.Op, e.Err)
}

func (e StorageError) Unwrap() error {
	return e.Err
}
