package sensormine

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"

	dashboard "github.com/goliatone/go-sensormine/components/dashboard"
)

// Error is a failed service call. Kind follows dashboard.ErrorKind so widget
// state can classify it without importing this package.
type Error struct {
	Service string
	Method  string
	Path    string
	Status  int
	Class   dashboard.ErrorKind
	Message string
	Err     error
}

func (e *Error) Error() string {
	var b strings.Builder
	b.WriteString("sensormine: ")
	b.WriteString(e.Service)
	b.WriteString(" ")
	b.WriteString(e.Method)
	b.WriteString(" ")
	b.WriteString(e.Path)
	if e.Status != 0 {
		fmt.Fprintf(&b, ": status %d", e.Status)
	}
	if e.Message != "" {
		b.WriteString(": ")
		b.WriteString(e.Message)
	} else if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

// Kind implements the classification hook read by dashboard.ClassifyError.
func (e *Error) Kind() string { return string(e.Class) }

func (e *Error) Unwrap() error { return e.Err }

// Retryable reports whether another attempt could succeed.
func (e *Error) Retryable() bool { return e.Class.Retryable() }

// IsNotFound reports whether err is a 404 from any service.
func IsNotFound(err error) bool { return kindOf(err) == dashboard.KindNotFound }

// IsValidation reports whether err is a 400 from any service.
func IsValidation(err error) bool { return kindOf(err) == dashboard.KindValidation }

func kindOf(err error) dashboard.ErrorKind {
	var apiErr *Error
	if errors.As(err, &apiErr) {
		return apiErr.Class
	}
	return dashboard.KindNone
}

// StatusKind maps an HTTP status to an error kind.
func StatusKind(status int) dashboard.ErrorKind {
	switch status {
	case http.StatusUnauthorized:
		return dashboard.KindAuthentication
	case http.StatusForbidden:
		return dashboard.KindAuthorization
	case http.StatusNotFound:
		return dashboard.KindNotFound
	case http.StatusBadRequest:
		return dashboard.KindValidation
	default:
		return dashboard.KindAPI
	}
}

func statusError(r request, status int, payload []byte) error {
	return &Error{
		Service: r.service,
		Method:  r.method,
		Path:    r.path,
		Status:  status,
		Class:   StatusKind(status),
		Message: problemMessage(payload),
	}
}

func transportError(r request, err error) error {
	kind := dashboard.KindNetwork
	var netErr net.Error
	switch {
	case errors.Is(err, context.Canceled):
		kind = dashboard.KindUnknown
	case errors.Is(err, context.DeadlineExceeded):
		kind = dashboard.KindTimeout
	case errors.As(err, &netErr) && netErr.Timeout():
		kind = dashboard.KindTimeout
	}
	return &Error{Service: r.service, Method: r.method, Path: r.path, Class: kind, Err: err}
}

const maxProblemText = 200

// truncateRunes cuts s to at most n bytes without splitting a rune.
func truncateRunes(s string, n int) string {
	if len(s) <= n {
		return s
	}
	cut := 0
	for i := range s {
		if i > n {
			break
		}
		cut = i
	}
	return s[:cut]
}

// problemMessage extracts a message from the common error bodies: a
// problem-details document, {"error": "..."} or {"message": "..."}.
func problemMessage(payload []byte) string {
	var body struct {
		Title   string              `json:"title"`
		Detail  string              `json:"detail"`
		Message string              `json:"message"`
		Error   string              `json:"error"`
		Errors  map[string][]string `json:"errors"`
	}
	if err := json.Unmarshal(payload, &body); err != nil {
		return truncateRunes(strings.TrimSpace(string(payload)), maxProblemText)
	}
	for _, candidate := range []string{body.Detail, body.Message, body.Error, body.Title} {
		if candidate != "" {
			return candidate
		}
	}
	for field, msgs := range body.Errors {
		if len(msgs) > 0 {
			return field + ": " + msgs[0]
		}
	}
	return ""
}
