// Package apperr is the error taxonomy shared by the stockdesk services.
//
// Every failure that reaches a view is one of four kinds:
//
//	Validation     local field-scoped rule violations, found before any request
//	RemoteField    the API rejected fields (e.g. duplicate SKU); same shape as Validation
//	RemoteGeneric  transport or server failure without a field mapping
//	Stale          the response arrived after the view went away; never shown
//
// Unauthorized is kept apart so the CLI and console can ask for a new token.
package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

type Kind string

const (
	Validation    Kind = "validation"
	RemoteField   Kind = "remote_field"
	RemoteGeneric Kind = "remote_generic"
	Stale         Kind = "stale"
	Unauthorized  Kind = "unauthorized"
	Conflict      Kind = "conflict"
)

// Error carries a Kind, a message safe to show to the user and, for the
// field-scoped kinds, a path → message map.
type Error struct {
	Kind    Kind
	Message string
	Fields  map[string]string
	Err     error
}

func (e *Error) Error() string {
	switch {
	case e.Err != nil && e.Message != "":
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	case e.Err != nil:
		return fmt.Sprintf("%s: %v", e.Kind, e.Err)
	case e.Message != "":
		return fmt.Sprintf("%s: %s", e.Kind, e.Message)
	}
	return string(e.Kind)
}

func (e *Error) Unwrap() error { return e.Err }

func ValidationErr(fields map[string]string) *Error {
	return &Error{Kind: Validation, Message: "validation failed", Fields: fields}
}

func RemoteFieldErr(fields map[string]string, err error) *Error {
	return &Error{Kind: RemoteField, Message: "rejected by server", Fields: fields, Err: err}
}

func RemoteGenericErr(err error) *Error {
	return &Error{Kind: RemoteGeneric, Message: "request failed", Err: err}
}

func StaleErr(err error) *Error {
	return &Error{Kind: Stale, Err: err}
}

func UnauthorizedErr(msg string) *Error {
	return &Error{Kind: Unauthorized, Message: msg}
}

func ConflictErr(msg string) *Error {
	return &Error{Kind: Conflict, Message: msg}
}

func As(err error) (*Error, bool) {
	var ae *Error
	if errors.As(err, &ae) {
		return ae, true
	}
	return nil, false
}

// Is reports whether err is an *Error of kind k.
func Is(err error, k Kind) bool {
	ae, ok := As(err)
	return ok && ae.Kind == k
}

// FieldsOf returns the field map for Validation and RemoteField errors.
func FieldsOf(err error) map[string]string {
	if ae, ok := As(err); ok {
		return ae.Fields
	}
	return nil
}

// HTTPStatus maps an error onto the status the local console answers with.
func HTTPStatus(err error) int {
	ae, ok := As(err)
	if !ok {
		return http.StatusInternalServerError
	}
	switch ae.Kind {
	case Validation, RemoteField:
		return http.StatusUnprocessableEntity
	case Unauthorized:
		return http.StatusUnauthorized
	case Conflict:
		return http.StatusConflict
	case Stale:
		return http.StatusGone
	default:
		return http.StatusBadGateway
	}
}
