package remote

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sort"
	"strings"
)

// Kind classifies an upstream failure so callers can react without parsing
// status codes or messages.
type Kind string

const (
	KindUnauthenticated Kind = "unauthenticated"
	KindForbidden       Kind = "forbidden"
	KindNotFound        Kind = "not_found"
	KindValidation      Kind = "validation"
	KindServer          Kind = "server"
	KindNetwork         Kind = "network"
	KindUnknown         Kind = "unknown"
)

type Error struct {
	Kind    Kind
	Status  int
	Message string
	// Fields holds per-field messages for validation failures.
	Fields map[string]string
	// Err is the transport error, kept so context cancellation stays
	// detectable through errors.Is.
	Err error
}

func (e *Error) Error() string {
	if e.Message != "" {
		return e.Message
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	return string(e.Kind)
}

func (e *Error) Unwrap() error {
	return e.Err
}

func netError(err error) *Error {
	return &Error{Kind: KindNetwork, Message: "upstream unreachable", Err: err}
}

// responseError maps an upstream non-2xx response to an Error. Validation
// responses carry a message plus an errors map of field name to message
// list; the map is flattened into per-field messages.
func responseError(resp *http.Response) *Error {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<20))

	e := &Error{Status: resp.StatusCode}
	switch {
	case resp.StatusCode == http.StatusUnauthorized:
		e.Kind = KindUnauthenticated
		e.Message = "upstream rejected the credential"
	case resp.StatusCode == http.StatusForbidden:
		e.Kind = KindForbidden
		e.Message = "upstream denied access"
	case resp.StatusCode == http.StatusNotFound:
		e.Kind = KindNotFound
		e.Message = "record not found upstream"
	case resp.StatusCode == http.StatusUnprocessableEntity:
		e.Kind = KindValidation
		e.Message = "upstream rejected the submitted data"
	case resp.StatusCode >= 500:
		e.Kind = KindServer
		e.Message = fmt.Sprintf("upstream error (%d)", resp.StatusCode)
	default:
		e.Kind = KindUnknown
		e.Message = fmt.Sprintf("unexpected upstream status %d", resp.StatusCode)
	}

	var payload struct {
		Message string              `json:"message"`
		Errors  map[string][]string `json:"errors"`
	}
	if json.Unmarshal(body, &payload) == nil {
		if payload.Message != "" {
			e.Message = payload.Message
		}
		if len(payload.Errors) > 0 {
			e.Fields = make(map[string]string, len(payload.Errors))
			for field, msgs := range payload.Errors {
				e.Fields[field] = strings.Join(msgs, " ")
			}
			e.Message = flattenFieldErrors(e.Fields)
		}
	}
	return e
}

func flattenFieldErrors(fields map[string]string) string {
	names := make([]string, 0, len(fields))
	for name := range fields {
		names = append(names, name)
	}
	sort.Strings(names)
	msgs := make([]string, 0, len(names))
	for _, name := range names {
		msgs = append(msgs, fields[name])
	}
	return strings.Join(msgs, " ")
}
