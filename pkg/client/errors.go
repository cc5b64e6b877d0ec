package client

import (
	"errors"
	"fmt"
)

// ErrFetchFailed is returned when a request does not produce a successful
// response. Transport errors and non-2xx statuses both match it.
var ErrFetchFailed = errors.New("fetch failed")

// FetchError describes a failed fetch. The response body is never kept.
type FetchError struct {
	// StatusCode is 0 when no response was received
	StatusCode int
	Err        error
}

func (e *FetchError) Error() string {
	if e.StatusCode == 0 {
		if e.Err != nil {
			return fmt.Sprintf("%s: %v", ErrFetchFailed, e.Err)
		}
		return ErrFetchFailed.Error()
	}
	return fmt.Sprintf("%s: HTTP %d", ErrFetchFailed, e.StatusCode)
}

// Unwrap lets errors.Is match both ErrFetchFailed and the transport cause
func (e *FetchError) Unwrap() []error {
	if e.Err != nil {
		return []error{ErrFetchFailed, e.Err}
	}
	return []error{ErrFetchFailed}
}

// DecodeError is returned when a successful response carries a body that is
// not valid JSON for the expected shape. It does not match ErrFetchFailed.
type DecodeError struct {
	Err error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("failed to decode response: %v", e.Err)
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}

// APIError is the error payload of the portal's response envelope
type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func (e *APIError) Error() string {
	return fmt.Sprintf("API error: %s - %s", e.Code, e.Message)
}
