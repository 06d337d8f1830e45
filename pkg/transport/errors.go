package transport

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/godeps/lineweb-go/pkg/apierr"
	"github.com/godeps/lineweb-go/pkg/middleware"
)

var (
	errNoResult = errors.New("transport: middleware returned no result")
	// ErrResponseTooLarge is the cause when a body exceeds the read limit.
	ErrResponseTooLarge = errors.New("transport: response body exceeds limit")
)

// HTTPError is the cause attached to failures that carried a response.
type HTTPError struct {
	Method string
	URL    string
	Status int
	// Code is the "code" field of a JSON error body, if any.
	Code string
	Body []byte
}

func (e *HTTPError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("transport: %s %s: status %d (%s)", e.Method, e.URL, e.Status, e.Code)
	}
	return fmt.Sprintf("transport: %s %s: status %d", e.Method, e.URL, e.Status)
}

type errorBody struct {
	Code string `json:"code"`
}

// classify maps a non-2xx response to the apierr taxonomy. First match wins.
func classify(call *middleware.Call, status int, body []byte) error {
	var eb errorBody
	_ = json.Unmarshal(body, &eb)
	cause := &HTTPError{
		Method: call.Method,
		URL:    call.URL,
		Status: status,
		Code:   eb.Code,
		Body:   body,
	}
	switch {
	case status == http.StatusUnauthorized && eb.Code == codeNotLoggedIn:
		return apierr.Wrap(apierr.CodeExpiredSession, "Cookies have expired or are not logged in.", cause).WithStatus(status)
	case status == http.StatusNotFound && eb.Code == codeBotNotOperatable:
		return apierr.Wrap(apierr.CodeResourceNotFound, "Bot not found or not operatable.", cause).WithStatus(status)
	default:
		return apierr.Wrap(apierr.CodeTransport, "HTTP request failed", cause).WithStatus(status)
	}
}
