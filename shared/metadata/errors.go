package metadata

import (
	"errors"
	"fmt"
)

// ErrMalformedResponse marks an upstream payload that does not have the expected shape
var ErrMalformedResponse = errors.New("malformed upstream response")

// ExternalServiceError is a failed upstream call: transport error, non-2xx status
// or a payload rejected by validation. StatusCode is 0 when no response arrived.
type ExternalServiceError struct {
	Op         string
	StatusCode int
	Err        error
}

func (e *ExternalServiceError) Error() string {
	if e.StatusCode == 0 {
		return fmt.Sprintf("tmdb %s: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("tmdb %s: status %d: %v", e.Op, e.StatusCode, e.Err)
}

func (e *ExternalServiceError) Unwrap() error {
	return e.Err
}

// IsExternal reports whether err is or wraps an *ExternalServiceError
func IsExternal(err error) bool {
	var extErr *ExternalServiceError
	return errors.As(err, &extErr)
}
