package apiclient

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/wolfman30/dentago-admin/internal/normalize"
)

// Error taxonomy. Every failure returned by this package and the
// repositories built on it matches exactly one of these with errors.Is.
var (
	ErrUnauthenticated    = errors.New("unauthenticated: no access token")
	ErrUnauthorized       = errors.New("unauthorized: credentials rejected")
	ErrForbidden          = errors.New("forbidden")
	ErrNotFound           = errors.New("not found")
	ErrConflict           = errors.New("conflict")
	ErrRequestRejected    = errors.New("request rejected")
	ErrValidationFailed   = errors.New("validation failed")
	ErrServer             = errors.New("server error")
	ErrNetworkUnreachable = errors.New("network unreachable")
	ErrUnrecognizedShape  = normalize.ErrUnrecognizedShape
	ErrAggregateFailure   = errors.New("all request candidates failed")
)

// APIError describes one failed request.
type APIError struct {
	Kind    error
	Method  string
	Path    string
	Status  int
	Message string
	Err     error
}

func (e *APIError) Error() string {
	var b strings.Builder
	b.WriteString("apiclient: ")
	b.WriteString(e.Method)
	b.WriteByte(' ')
	b.WriteString(e.Path)
	b.WriteString(": ")
	b.WriteString(e.Kind.Error())
	if e.Status != 0 {
		fmt.Fprintf(&b, " (status %d)", e.Status)
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

func (e *APIError) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

// AggregateError is returned by Attempt when every candidate failed.
// Failures keep candidate order.
type AggregateError struct {
	Failures []*APIError
	// Cause is set when the caller's context ended the sequence early.
	Cause error
}

func (e *AggregateError) Error() string {
	parts := make([]string, 0, len(e.Failures))
	for i, f := range e.Failures {
		status := "no response"
		if f.Status != 0 {
			status = fmt.Sprintf("%d", f.Status)
		}
		msg := f.Message
		if msg == "" {
			msg = f.Kind.Error()
		}
		parts = append(parts, fmt.Sprintf("#%d %s %s -> %s %s", i+1, f.Method, f.Path, status, msg))
	}
	out := fmt.Sprintf("apiclient: %s (%d tried): %s", ErrAggregateFailure, len(e.Failures), strings.Join(parts, "; "))
	if e.Cause != nil {
		out += ": " + e.Cause.Error()
	}
	return out
}

func (e *AggregateError) Is(target error) bool { return target == ErrAggregateFailure }

func (e *AggregateError) Unwrap() []error {
	errs := make([]error, 0, len(e.Failures)+1)
	for _, f := range e.Failures {
		errs = append(errs, f)
	}
	if e.Cause != nil {
		errs = append(errs, e.Cause)
	}
	return errs
}

// ValidationError lists the fields that failed local checks.
type ValidationError struct {
	Fields []FieldError
}

// FieldError is one failed rule on one field.
type FieldError struct {
	Field string `json:"field"`
	Rule  string `json:"rule"`
}

func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		parts = append(parts, f.Field+" ("+f.Rule+")")
	}
	return fmt.Sprintf("%s: %s", ErrValidationFailed, strings.Join(parts, ", "))
}

func (e *ValidationError) Unwrap() error { return ErrValidationFailed }

// Invalid builds a ValidationError for a single field.
func Invalid(field, rule string) error {
	return &ValidationError{Fields: []FieldError{{Field: field, Rule: rule}}}
}

// KindForStatus maps an HTTP status to the taxonomy. It returns nil for 2xx.
func KindForStatus(status int) error {
	switch {
	case status >= 200 && status < 300:
		return nil
	case status == http.StatusUnauthorized:
		return ErrUnauthorized
	case status == http.StatusForbidden:
		return ErrForbidden
	case status == http.StatusNotFound:
		return ErrNotFound
	case status == http.StatusConflict:
		return ErrConflict
	case status >= 500:
		return ErrServer
	default:
		return ErrRequestRejected
	}
}

// KindLabel returns a metric/log friendly name for an error's kind.
func KindLabel(err error) string {
	switch {
	case err == nil:
		return "success"
	case errors.Is(err, ErrAggregateFailure):
		return "aggregate_failure"
	case errors.Is(err, ErrUnauthenticated):
		return "unauthenticated"
	case errors.Is(err, ErrUnauthorized):
		return "unauthorized"
	case errors.Is(err, ErrForbidden):
		return "forbidden"
	case errors.Is(err, ErrNotFound):
		return "not_found"
	case errors.Is(err, ErrConflict):
		return "conflict"
	case errors.Is(err, ErrValidationFailed):
		return "validation_failed"
	case errors.Is(err, ErrRequestRejected):
		return "rejected"
	case errors.Is(err, ErrServer):
		return "server_error"
	case errors.Is(err, ErrNetworkUnreachable):
		return "network_unreachable"
	case errors.Is(err, ErrUnrecognizedShape):
		return "unrecognized_shape"
	default:
		return "error"
	}
}
