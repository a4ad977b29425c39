package skips

import (
	"errors"
	"fmt"
	"net/http"
)

// TransportError: catalog endpoint answered with a non-2xx status.
type TransportError struct {
	StatusCode int
	StatusText string
}

func (e *TransportError) Error() string {
	text := e.StatusText
	if text == "" {
		text = http.StatusText(e.StatusCode)
	}
	return fmt.Sprintf("failed to fetch skips: %d %s", e.StatusCode, text)
}

// EmptyCatalogError: payload was empty, not an array, or undecodable.
type EmptyCatalogError struct {
	Cause error
}

func (e *EmptyCatalogError) Error() string {
	if e.Cause != nil {
		return "no skip options available for this location: " + e.Cause.Error()
	}
	return "no skip options available for this location"
}

func (e *EmptyCatalogError) Unwrap() error { return e.Cause }

// NetworkError: no response at all (dns, refused, timeout, reset).
type NetworkError struct {
	Err error
}

func (e *NetworkError) Error() string {
	return "failed to fetch skips: connection problem: " + e.Err.Error()
}

func (e *NetworkError) Unwrap() error { return e.Err }

// StorageError: the persisted selection slot could not be read or written.
type StorageError struct {
	Op  string
	Key string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("selection storage %s %q: %v", e.Op, e.Key, e.Err)
}

func (e *StorageError) Unwrap() error { return e.Err }

// InvariantError: an input outside its contract range.
type InvariantError struct {
	Field string
	Value string
}

func (e *InvariantError) Error() string {
	return fmt.Sprintf("invalid %s: %q", e.Field, e.Value)
}

func IsNetwork(err error) bool {
	var ne *NetworkError
	return errors.As(err, &ne)
}
