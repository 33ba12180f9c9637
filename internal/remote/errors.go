// Package remote defines the errors returned by clients of remote endpoints.
package remote

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
)

// maxErrorBody bounds how much of an error response body is read.
const maxErrorBody = 64 << 10

// RemoteFetchError is returned when a consumed endpoint answers with a
// non-2xx status.
type RemoteFetchError struct {
	Op         string
	StatusCode int
	Status     string
	Message    string
}

func (e *RemoteFetchError) Error() string {
	status := e.Status
	if status == "" {
		status = fmt.Sprintf("%d %s", e.StatusCode, http.StatusText(e.StatusCode))
	}
	msg := fmt.Sprintf("%s: remote fetch failed: %s", e.Op, status)
	if e.Message != "" {
		msg += ": " + e.Message
	}
	return msg
}

// NetworkError is returned when no response was received at all.
type NetworkError struct {
	Op  string
	Err error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("%s: network error: %v", e.Op, e.Err)
}

func (e *NetworkError) Unwrap() error {
	return e.Err
}

// FromResponse builds a RemoteFetchError from a non-2xx response. A JSON
// body carrying "detail" or "message" becomes the error message.
func FromResponse(op string, resp *http.Response) *RemoteFetchError {
	e := &RemoteFetchError{
		Op:         op,
		StatusCode: resp.StatusCode,
		Status:     resp.Status,
	}
	if resp.Body == nil {
		return e
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	if err != nil || len(body) == 0 {
		return e
	}
	e.Message = messageFromBody(body)
	return e
}

func messageFromBody(body []byte) string {
	var payload struct {
		Detail  json.RawMessage `json:"detail"`
		Message string          `json:"message"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return strings.TrimSpace(string(body))
	}
	if len(payload.Detail) > 0 {
		var detail string
		if err := json.Unmarshal(payload.Detail, &detail); err == nil {
			return detail
		}
		return string(payload.Detail)
	}
	return payload.Message
}

// IsSuccess reports whether code is a 2xx status.
func IsSuccess(code int) bool {
	return code >= 200 && code < 300
}

// StatusCode returns the HTTP status carried by err, or 0.
func StatusCode(err error) int {
	var rfe *RemoteFetchError
	if errors.As(err, &rfe) {
		return rfe.StatusCode
	}
	return 0
}

// IsNetwork reports whether err is a transport failure.
func IsNetwork(err error) bool {
	var ne *NetworkError
	return errors.As(err, &ne)
}
