package api

import (
	"errors"
	"fmt"
)

// ErrEmptyBatch is returned before any request is made when there is nothing
// to submit.
var ErrEmptyBatch = errors.New("empty batch")

// ErrEmptyQuery is returned by the species lookup when neither family nor
// specie is given.
var ErrEmptyQuery = errors.New("family or specie is required")

// HTTPError is a non-2xx response. Message is the server-supplied text from
// the "erro" or "error" field, empty when the body carried none.
type HTTPError struct {
	Status  int
	Message string
}

func (e *HTTPError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return fmt.Sprintf("HTTP %d", e.Status)
}

// ParseError means a success response whose body was not the expected JSON.
type ParseError struct {
	Err error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("invalid api response: %v", e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// NetworkError means the request never produced a response.
type NetworkError struct {
	Err error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("api unreachable: %v", e.Err)
}

func (e *NetworkError) Unwrap() error { return e.Err }
