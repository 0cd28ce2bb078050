package domain

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// NetworkError is a failure to complete a request at all: connection
// refused, DNS, TLS, or the per-call timeout.
type NetworkError struct {
	URL string
	Err error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("network error fetching %s: %v", e.URL, e.Err)
}

func (e *NetworkError) Unwrap() error { return e.Err }

// Timeout reports whether the request was cut off by its deadline.
func (e *NetworkError) Timeout() bool {
	if errors.Is(e.Err, context.DeadlineExceeded) {
		return true
	}
	var te interface{ Timeout() bool }
	return errors.As(e.Err, &te) && te.Timeout()
}

// HTTPError is a completed request with a non-2xx status.
type HTTPError struct {
	URL        string
	StatusCode int
	Body       string
}

func (e *HTTPError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("http status %d fetching %s", e.StatusCode, e.URL)
	}
	return fmt.Sprintf("http status %d fetching %s: %s", e.StatusCode, e.URL, e.Body)
}

// ParseError is a payload that does not have the expected shape.
type ParseError struct {
	Format string
	Err    error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse %s payload: %v", e.Format, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// Attempt records one failed retrieval.
type Attempt struct {
	Source string // short name such as "csv" or "json"
	URL    string
	Err    error
}

// DataUnavailable is returned once every source for a dataset has failed.
// It unwraps to each attempt's error, so errors.As finds the individual
// NetworkError, HTTPError or ParseError values.
type DataUnavailable struct {
	Dataset  string
	Attempts []Attempt
}

func (e *DataUnavailable) Error() string {
	parts := make([]string, len(e.Attempts))
	for i, a := range e.Attempts {
		parts[i] = fmt.Sprintf("%s: %v", a.Source, a.Err)
	}
	return fmt.Sprintf("%s data unavailable (%s)", e.Dataset, strings.Join(parts, "; "))
}

func (e *DataUnavailable) Unwrap() []error {
	errs := make([]error, len(e.Attempts))
	for i, a := range e.Attempts {
		errs[i] = a.Err
	}
	return errs
}

// IsTimeout reports whether err wraps a NetworkError caused by a deadline.
func IsTimeout(err error) bool {
	var ne *NetworkError
	return errors.As(err, &ne) && ne.Timeout()
}

// IsDataUnavailable reports whether err is, or wraps, a DataUnavailable.
func IsDataUnavailable(err error) bool {
	var du *DataUnavailable
	return errors.As(err, &du)
}
