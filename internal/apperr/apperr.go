// Package apperr is the error taxonomy shared by services and handlers.
package apperr

import (
	"errors"
	"fmt"
	"net/http"

	"go.mongodb.org/mongo-driver/mongo"
)

type Kind string

const (
	KindUnauthorized     Kind = "unauthorized"
	KindForbidden        Kind = "forbidden"
	KindValidation       Kind = "validation"
	KindInvalidReference Kind = "invalid_reference"
	KindNotFound         Kind = "not_found"
	KindConflict         Kind = "conflict"
	KindInternal         Kind = "internal"
)

type metadata struct {
	status        int
	publicMessage string
}

var metadataByKind = map[Kind]metadata{
	KindUnauthorized:     {http.StatusUnauthorized, "Unauthorized"},
	KindForbidden:        {http.StatusForbidden, "Forbidden"},
	KindValidation:       {http.StatusBadRequest, "Validation failed"},
	KindInvalidReference: {http.StatusBadRequest, "Invalid reference"},
	KindNotFound:         {http.StatusNotFound, "Not found"},
	KindConflict:         {http.StatusConflict, "Conflict"},
	KindInternal:         {http.StatusInternalServerError, "Internal server error"},
}

// Status returns the HTTP status for a kind; unknown kinds map to 500.
func Status(kind Kind) int {
	if meta, ok := metadataByKind[kind]; ok {
		return meta.status
	}
	return http.StatusInternalServerError
}

// PublicMessage returns the default message shown for a kind.
func PublicMessage(kind Kind) string {
	if meta, ok := metadataByKind[kind]; ok {
		return meta.publicMessage
	}
	return metadataByKind[KindInternal].publicMessage
}

type Error struct {
	Kind    Kind
	Message string
	Details any
	cause   error
}

func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

func Wrap(kind Kind, err error, message string) *Error {
	return &Error{Kind: kind, Message: message, cause: err}
}

func (e *Error) WithDetails(details any) *Error {
	e.Details = details
	return e
}

func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.cause)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error { return e.cause }

// As extracts a taxonomy error from the chain, or nil.
func As(err error) *Error {
	var typed *Error
	if errors.As(err, &typed) {
		return typed
	}
	return nil
}

// KindOf returns the kind carried by err, KindInternal for foreign errors.
func KindOf(err error) Kind {
	if typed := As(err); typed != nil {
		return typed.Kind
	}
	return KindInternal
}

func Validation(message string) *Error       { return New(KindValidation, message) }
func InvalidReference(message string) *Error { return New(KindInvalidReference, message) }
func NotFound(message string) *Error         { return New(KindNotFound, message) }
func Conflict(message string) *Error         { return New(KindConflict, message) }
func Forbidden() *Error                      { return New(KindForbidden, "Forbidden") }

// FromStore maps persistence errors: duplicate keys become Conflict,
// missing documents NotFound, anything else Internal.
func FromStore(err error, conflictMessage, notFoundMessage string) error {
	if err == nil {
		return nil
	}
	if As(err) != nil {
		return err
	}
	if mongo.IsDuplicateKeyError(err) {
		return Wrap(KindConflict, err, conflictMessage)
	}
	if errors.Is(err, mongo.ErrNoDocuments) {
		return Wrap(KindNotFound, err, notFoundMessage)
	}
	return Wrap(KindInternal, err, "db error")
}
