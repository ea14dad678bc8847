package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// fallbackMessage is used when an error body is JSON but carries no message.
const fallbackMessage = "Something went wrong"

// RequestError is a non-2xx response from the remote API. Message is what the
// user sees.
type RequestError struct {
	StatusCode int
	Status     string
	Message    string
}

func (e *RequestError) Error() string {
	return e.Message
}

// TransportError covers failures that never produced a usable response:
// unreachable host, timeouts, unreadable or malformed bodies.
type TransportError struct {
	Op     string
	Method string
	URL    string
	Err    error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("%s %s %s: %v", e.Op, e.Method, e.URL, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

func newRequestError(resp *http.Response, body []byte) *RequestError {
	status := http.StatusText(resp.StatusCode)
	if status == "" {
		status = strings.TrimSpace(strings.TrimPrefix(resp.Status, fmt.Sprint(resp.StatusCode)))
	}

	msg := status
	var parsed struct {
		Message string `json:"message"`
	}
	if err := json.Unmarshal(body, &parsed); err == nil {
		msg = parsed.Message
		if msg == "" {
			msg = fallbackMessage
		}
	}
	if msg == "" {
		msg = fallbackMessage
	}

	return &RequestError{
		StatusCode: resp.StatusCode,
		Status:     status,
		Message:    msg,
	}
}

// IsUnauthorized reports whether err is an authentication failure: a 401
// response, or any error whose message mentions 401. Transport failures
// never count; their text carries the request URL.
func IsUnauthorized(err error) bool {
	if err == nil {
		return false
	}
	var re *RequestError
	if errors.As(err, &re) {
		return re.StatusCode == http.StatusUnauthorized || strings.Contains(re.Message, "401")
	}
	var te *TransportError
	if errors.As(err, &te) {
		return false
	}
	return strings.Contains(err.Error(), "401")
}

// Message returns the text to show for err in a page banner.
func Message(err error) string {
	var re *RequestError
	if errors.As(err, &re) {
		return re.Message
	}
	var te *TransportError
	if errors.As(err, &te) {
		return "Unable to reach the server. Please try again."
	}
	return err.Error()
}
