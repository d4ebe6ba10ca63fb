package web

import (
	"errors"
	"fmt"
)

// ErrAuthentication is the base classification for credential and session
// failures. errors.Is(err, ErrAuthentication) matches every specific
// variant below.
var ErrAuthentication = errors.New("authentication failed")

var (
	ErrLoginFailed    = fmt.Errorf("%w: could not log in to the website, check credentials", ErrAuthentication)
	ErrSessionExpired = fmt.Errorf("%w: session was rejected and re-login did not recover it", ErrAuthentication)
	ErrNoCredentials  = fmt.Errorf("%w: a session token or an email and password are required", ErrAuthentication)
)

// ErrNotFound reports that the requested entity does not exist on the site.
var ErrNotFound = errors.New("not found")

// RequestError is a non-2xx response from a site-internal endpoint.
type RequestError struct {
	StatusCode int
	URL        string
}

func (e *RequestError) Error() string {
	return fmt.Sprintf("request to %s failed with status %d", e.URL, e.StatusCode)
}

// ParseError reports a response body that does not match the structure
// this library was written against, which usually means the website
// changed underneath it.
type ParseError struct {
	What string
	Err  error
}

func (e *ParseError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("failed to parse %s: %s (site layout update?)", e.What, e.Err)
	}
	return fmt.Sprintf("failed to parse %s (site layout update?)", e.What)
}

func (e *ParseError) Unwrap() error { return e.Err }

func parseError(what string, err error) *ParseError {
	return &ParseError{What: what, Err: err}
}

func requestError(statusCode int, url string) *RequestError {
	return &RequestError{StatusCode: statusCode, URL: url}
}
