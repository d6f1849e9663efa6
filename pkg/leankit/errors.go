package leankit

import (
	"errors"
	"fmt"
)

// ErrMalformedResponse is returned when a response body is not a valid envelope.
var ErrMalformedResponse = errors.New("malformed response")

// ErrorClass represents a classification of request failures.
type ErrorClass string

const (
	// ErrorClassNetwork represents requests that could not be issued.
	ErrorClassNetwork ErrorClass = "network"

	// ErrorClassHTTP represents HTTP statuses outside the success set.
	ErrorClassHTTP ErrorClass = "http"

	// ErrorClassDecode represents undecodable response bodies.
	ErrorClassDecode ErrorClass = "decode"

	// ErrorClassReply represents envelopes carrying a failure reply code.
	ErrorClassReply ErrorClass = "reply"
)

// TransportError is returned when a request could not be sent or the HTTP
// status was not a success status. No body decoding is attempted.
type TransportError struct {
	Method     string
	URL        string
	StatusCode int // 0 when the request was never answered
	Status     string
	Err        error
}

// Error implements the error interface.
func (e *TransportError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("leankit transport error: %s %s: %v", e.Method, e.URL, e.Err)
	}
	return fmt.Sprintf("leankit transport error: %s %s: status %d %s",
		e.Method, e.URL, e.StatusCode, e.Status)
}

// Unwrap implements error unwrapping for errors.Is/As.
func (e *TransportError) Unwrap() error {
	return e.Err
}

// Class returns the metric class of the failure.
func (e *TransportError) Class() ErrorClass {
	if e.Err != nil {
		return ErrorClassNetwork
	}
	return ErrorClassHTTP
}

// ApplicationError is returned when the envelope's reply code is a failure.
type ApplicationError struct {
	Code ReplyCode
	Text string
}

// Error implements the error interface.
func (e *ApplicationError) Error() string {
	return fmt.Sprintf("leankit error %d (%s): %s", int(e.Code), e.Code, e.Text)
}
