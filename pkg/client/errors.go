package client

import (
	"errors"
	"fmt"
	"net/http"
)

// HTTPError represents a non-2xx HTTP response from the API.
type HTTPError struct {
	StatusCode int
	Message    string
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("HTTP %d: %s", e.StatusCode, e.Message)
}

// IsStatus returns true if err (or any wrapped error) is an HTTPError with the given status code.
func IsStatus(err error, code int) bool {
	var httpErr *HTTPError
	if errors.As(err, &httpErr) {
		return httpErr.StatusCode == code
	}
	return false
}

// ValidationError reports a response body, or an outgoing payload, that
// does not have the expected shape.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string {
	return "validation: " + e.Reason
}

// ErrorKind classifies failures for display and recovery decisions.
type ErrorKind int

const (
	KindNone ErrorKind = iota
	// KindNetwork: the request did not complete.
	KindNetwork
	// KindAuth: the session is missing, expired or rejected (401/419).
	KindAuth
	// KindServer: the server answered with a non-2xx status.
	KindServer
	// KindValidation: the response body could not be understood.
	KindValidation
)

func (k ErrorKind) String() string {
	switch k {
	case KindNone:
		return "none"
	case KindNetwork:
		return "network"
	case KindAuth:
		return "auth"
	case KindServer:
		return "server"
	case KindValidation:
		return "validation"
	}
	return fmt.Sprintf("ErrorKind(%d)", int(k))
}

// KindOf classifies err. Anything that is not an HTTP response or a decode
// failure is treated as a network failure.
func KindOf(err error) ErrorKind {
	if err == nil {
		return KindNone
	}
	var httpErr *HTTPError
	if errors.As(err, &httpErr) {
		switch httpErr.StatusCode {
		case http.StatusUnauthorized, 419:
			return KindAuth
		}
		return KindServer
	}
	var valErr *ValidationError
	if errors.As(err, &valErr) {
		return KindValidation
	}
	return KindNetwork
}
