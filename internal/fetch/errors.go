package fetch

import (
	"errors"
	"fmt"
)

// FetchError reports a response with a non-2xx status code.
type FetchError struct {
	URL        string
	StatusCode int
	Status     string
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("failed to fetch %s: status %d", e.URL, e.StatusCode)
}

// TransportError wraps a network, DNS or timeout failure of the request itself.
type TransportError struct {
	URL string
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("request to %s failed: %v", e.URL, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// ParseError reports a body that is not valid JSON or lacks the expected
// top-level shape.
type ParseError struct {
	URL string
	Err error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("error decoding response from %s: %v", e.URL, e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// StatusCode returns the HTTP status carried by a FetchError in err's chain,
// or 0 when there is none.
func StatusCode(err error) int {
	var fe *FetchError
	if errors.As(err, &fe) {
		return fe.StatusCode
	}
	return 0
}

// Outcome classifies err for metrics labels.
func Outcome(err error) string {
	var (
		fe *FetchError
		te *TransportError
		pe *ParseError
	)
	switch {
	case err == nil:
		return "success"
	case errors.As(err, &fe):
		return "http_error"
	case errors.As(err, &te):
		return "transport_error"
	case errors.As(err, &pe):
		return "parse_error"
	default:
		return "error"
	}
}
