package errors

// Object-store helpers for mapping GCS and filesystem errors to project ErrorCode and retry semantics

import (
	"context"
	stderrs "errors"
	"fmt"
	"io/fs"
	"net/http"
	"strings"

	"cloud.google.com/go/storage"
	"google.golang.org/api/googleapi"
)

// ExtractAPIError returns (*googleapi.Error, true) if the root cause is a Google API error
func ExtractAPIError(err error) (*googleapi.Error, bool) {
	var gerr *googleapi.Error
	if stderrs.As(Root(err), &gerr) {
		return gerr, true
	}
	return nil, false
}

// IsObjectNotFound reports whether the error means the object or file does not exist
func IsObjectNotFound(err error) bool {
	if err == nil {
		return false
	}
	if stderrs.Is(err, storage.ErrObjectNotExist) || stderrs.Is(err, storage.ErrBucketNotExist) {
		return true
	}
	if stderrs.Is(err, fs.ErrNotExist) {
		return true
	}
	if gerr, ok := ExtractAPIError(err); ok {
		return gerr.Code == http.StatusNotFound
	}
	return false
}

// StorageErrorCode maps an object-store or filesystem error to an ErrorCode with an ok flag
// !ok means the error wasn't recognizably storage-shaped; caller may fall back to generic handling
func StorageErrorCode(err error) (ErrorCode, bool) {
	if err == nil {
		return ErrorCodeUnknown, false
	}

	if IsObjectNotFound(err) {
		return ErrorCodeNotFound, true
	}
	if stderrs.Is(err, fs.ErrPermission) {
		return ErrorCodeForbidden, true
	}

	if gerr, ok := ExtractAPIError(err); ok {
		switch {
		case gerr.Code == http.StatusUnauthorized:
			return ErrorCodeUnauthorized, true
		case gerr.Code == http.StatusForbidden:
			return ErrorCodeForbidden, true
		case gerr.Code == http.StatusConflict || gerr.Code == http.StatusPreconditionFailed:
			return ErrorCodeConflict, true
		case gerr.Code == http.StatusTooManyRequests:
			return ErrorCodeTooManyRequests, true
		case gerr.Code >= 500:
			return ErrorCodeUnavailable, true
		}
		return ErrorCodeStorage, true
	}

	// Plain path errors from the local store are storage errors too
	var perr *fs.PathError
	if stderrs.As(Root(err), &perr) {
		return ErrorCodeStorage, true
	}

	return ErrorCodeUnknown, false
}

// FromStorage wraps a storage error with a mapped ErrorCode and message.
// If err is nil, returns nil
func FromStorage(err error, msg string) error {
	if err == nil {
		return nil
	}
	if code, ok := StorageErrorCode(err); ok {
		return Wrap(err, code, msg)
	}
	return Wrap(err, ErrorCodeStorage, msg)
}

// FromStoragef is the formatted variant of FromStorage
func FromStoragef(err error, format string, a ...any) error {
	if err == nil {
		return nil
	}
	if code, ok := StorageErrorCode(err); ok {
		return Wrap(err, code, fmt.Sprintf(format, a...))
	}
	return Wrap(err, ErrorCodeStorage, fmt.Sprintf(format, a...))
}

// IsRetryable reports whether a storage error represents a transient condition
// worth retrying. It handles structured googleapi errors and the connection
// text emitted by the HTTP transport
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}

	// Do not retry local cancellations/timeouts; let the caller decide higher-level retries
	if stderrs.Is(err, context.Canceled) || stderrs.Is(err, context.DeadlineExceeded) {
		return false
	}

	if gerr, ok := ExtractAPIError(err); ok {
		switch {
		case gerr.Code == http.StatusTooManyRequests:
			return true
		case gerr.Code >= 500:
			return true
		default:
			return false
		}
	}

	// Fallback: transport-level text patterns
	s := strings.ToLower(Root(err).Error())
	switch {
	case strings.Contains(s, "connection reset by peer"),
		strings.Contains(s, "connection refused"),
		strings.Contains(s, "broken pipe"),
		strings.Contains(s, "unexpected eof"),
		strings.Contains(s, "i/o timeout"),
		strings.Contains(s, "tls handshake timeout"):
		return true
	default:
		return false
	}
}
