package exchange

import (
	"errors"
	"fmt"
	"net/http"
)

// APIError is returned for every failed exchange call: transport errors,
// authentication failures, rate limiting and malformed responses.
type APIError struct {
	Op         string
	StatusCode int
	Code       int
	Message    string
	Err        error
}

func (e *APIError) Error() string {
	switch {
	case e.Err != nil:
		return fmt.Sprintf("exchange %s: %v", e.Op, e.Err)
	case e.Code != 0:
		return fmt.Sprintf("exchange %s: status %d code %d: %s", e.Op, e.StatusCode, e.Code, e.Message)
	default:
		return fmt.Sprintf("exchange %s: status %d: %s", e.Op, e.StatusCode, e.Message)
	}
}

func (e *APIError) Unwrap() error { return e.Err }

// Temporary reports whether retrying the same request may succeed.
func (e *APIError) Temporary() bool {
	if e.Err != nil && e.StatusCode == 0 {
		return true
	}
	// 418 is the exchange's ip-ban status after ignoring 429s
	return e.StatusCode == http.StatusTooManyRequests ||
		e.StatusCode == http.StatusTeapot ||
		e.StatusCode >= http.StatusInternalServerError
}

func IsAPIError(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr)
}
