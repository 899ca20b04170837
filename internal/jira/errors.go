package jira

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	jira "github.com/andygrunwald/go-jira"
)

var (
	// ErrAuth marks 401/403 responses.
	ErrAuth = errors.New("jira auth failed")
	// ErrTimeout marks requests that ran out of time.
	ErrTimeout = errors.New("jira timeout")
)

// StoreError describes a failed JIRA request. StatusCode is the upstream
// status, 504 for timeouts or 500 when no response was received.
type StoreError struct {
	Op         string
	StatusCode int
	Err        error
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("jira %s failed with status %d: %v", e.Op, e.StatusCode, e.Err)
}

func (e *StoreError) Unwrap() error {
	return e.Err
}

// Is matches ErrAuth and ErrTimeout by status code.
func (e *StoreError) Is(target error) bool {
	switch target {
	case ErrAuth:
		return e.StatusCode == http.StatusUnauthorized || e.StatusCode == http.StatusForbidden
	case ErrTimeout:
		return e.StatusCode == http.StatusGatewayTimeout
	}
	return false
}

// newStoreError classifies a go-jira error. reqCtx is the per-request context,
// whose deadline distinguishes timeouts from transport failures.
func newStoreError(op string, reqCtx context.Context, resp *jira.Response, err error) *StoreError {
	if reqCtx.Err() != nil {
		if errors.Is(reqCtx.Err(), context.DeadlineExceeded) {
			return &StoreError{Op: op, StatusCode: http.StatusGatewayTimeout, Err: ErrTimeout}
		}
		return &StoreError{Op: op, StatusCode: http.StatusInternalServerError, Err: reqCtx.Err()}
	}

	if resp != nil && resp.Response != nil {
		code := resp.StatusCode
		if code == http.StatusUnauthorized || code == http.StatusForbidden {
			return &StoreError{Op: op, StatusCode: code, Err: ErrAuth}
		}
		return &StoreError{Op: op, StatusCode: code, Err: err}
	}

	return &StoreError{Op: op, StatusCode: http.StatusInternalServerError, Err: err}
}
