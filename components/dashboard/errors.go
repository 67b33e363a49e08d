package dashboard

import (
	"context"
	"errors"
	"fmt"
)

var (
	ErrDashboardNotFound = errors.New("dashboard: dashboard not found")
	ErrWidgetNotFound    = errors.New("dashboard: widget not found")
	errMissingStore      = errors.New("dashboard: dashboard store not configured")
	errMissingQuery      = errors.New("dashboard: query client not configured")
)

// ErrorKind groups failures by how the UI should react to them.
type ErrorKind string

const (
	KindNone           ErrorKind = ""
	KindConfiguration  ErrorKind = "configuration"
	KindNetwork        ErrorKind = "network"
	KindTimeout        ErrorKind = "timeout"
	KindAuthentication ErrorKind = "authentication"
	KindAuthorization  ErrorKind = "authorization"
	KindNotFound       ErrorKind = "not_found"
	KindValidation     ErrorKind = "validation"
	KindAPI            ErrorKind = "api"
	KindUnknown        ErrorKind = "unknown"
)

// Retryable is true for transport failures only.
func (k ErrorKind) Retryable() bool {
	return k == KindNetwork || k == KindTimeout
}

// ConfigurationError reports a widget that cannot fetch because required
// settings are missing. It is raised before any network call.
type ConfigurationError struct {
	WidgetType WidgetType
	Field      string
	Message    string
}

func (e *ConfigurationError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return fmt.Sprintf("please configure %s", e.Field)
}

// Kind marks the error for ClassifyError.
func (e *ConfigurationError) Kind() string { return string(KindConfiguration) }

func configurationError(widgetType WidgetType, field, message string) error {
	return &ConfigurationError{WidgetType: widgetType, Field: field, Message: message}
}

// IsConfigurationError reports whether err wraps a ConfigurationError.
func IsConfigurationError(err error) bool {
	var cfgErr *ConfigurationError
	return errors.As(err, &cfgErr)
}

type kindedError interface {
	Kind() string
}

// ClassifyError maps err to an ErrorKind. Client errors opt in by exposing
// Kind() string.
func ClassifyError(err error) ErrorKind {
	if err == nil {
		return KindNone
	}
	var kinded kindedError
	if errors.As(err, &kinded) {
		return ErrorKind(kinded.Kind())
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return KindTimeout
	}
	if errors.Is(err, ErrDashboardNotFound) || errors.Is(err, ErrWidgetNotFound) {
		return KindNotFound
	}
	return KindUnknown
}
