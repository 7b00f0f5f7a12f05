package prediction

import (
	"context"
	"errors"
	"fmt"
	"net"

	"github.com/tidwall/gjson"
)

// ErrorKind classifies a failed call.
type ErrorKind int

const (
	KindConnectivity ErrorKind = iota
	KindTimeout
	KindHTTP
	KindMalformed
)

func (k ErrorKind) String() string {
	switch k {
	case KindTimeout:
		return "timeout"
	case KindHTTP:
		return "http"
	case KindMalformed:
		return "malformed_response"
	default:
		return "connectivity"
	}
}

// User-facing messages.
const (
	MessageTimeout     = "The server is not responding. Check that the prediction backend is running."
	MessageUnreachable = "Unable to reach the server. Check your connection."
	MessageMalformed   = "The prediction service returned an unexpected response."
	MessageUnknown     = "Unknown error"
)

// APIError is the single error type returned by Client. Status is the HTTP
// status of the response, or 0 when no usable response was received.
type APIError struct {
	Message string
	Status  int
	Kind    ErrorKind
	Err     error
}

func (e *APIError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("prediction service error (%d): %s", e.Status, e.Message)
	}
	return e.Message
}

func (e *APIError) Unwrap() error {
	return e.Err
}

// IsTimeout reports whether err is a call that exceeded its deadline.
func IsTimeout(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Kind == KindTimeout
}

// StatusOf returns the HTTP status carried by err, or 0.
func StatusOf(err error) int {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Status
	}
	return 0
}

// MessageOf returns the user-facing message for err.
func MessageOf(err error) string {
	if err == nil {
		return ""
	}
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Message
	}
	return err.Error()
}

func transportError(err error) *APIError {
	var netErr net.Error
	if errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &netErr) && netErr.Timeout()) {
		return &APIError{Message: MessageTimeout, Kind: KindTimeout, Err: err}
	}
	return &APIError{Message: MessageUnreachable, Kind: KindConnectivity, Err: err}
}

func malformedError(err error) *APIError {
	return &APIError{Message: MessageMalformed, Kind: KindMalformed, Err: err}
}

// httpError builds the error for a non-success response. The message is the
// body's "detail" field: a string, or the first entry's "msg" when detail is
// a validation error list.
func httpError(status int, body []byte) *APIError {
	if !gjson.ValidBytes(body) {
		return &APIError{Message: MessageUnknown, Status: status, Kind: KindHTTP}
	}

	detail := gjson.GetBytes(body, "detail")
	var msg string
	switch {
	case detail.Type == gjson.String:
		msg = detail.String()
	case detail.IsArray():
		msg = detail.Get("0.msg").String()
	case detail.IsObject():
		msg = detail.Get("msg").String()
	}
	if msg == "" {
		msg = fmt.Sprintf("HTTP error %d", status)
	}
	return &APIError{Message: msg, Status: status, Kind: KindHTTP}
}
