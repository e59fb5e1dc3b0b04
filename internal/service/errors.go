package service

import (
	"errors"
	"fmt"

	"github.com/timetidy/timetidy-service/internal/authz"
	"github.com/timetidy/timetidy-service/internal/db/repository"
	"github.com/timetidy/timetidy-service/internal/models"
)

// Kind classifies service errors so the transport layer can pick a status code
type Kind int

const (
	KindInternal Kind = iota
	KindUnauthenticated
	KindForbidden
	KindValidation
	KindNotFound
	KindConflict
	KindTooManyAttempts
)

func (k Kind) String() string {
	switch k {
	case KindUnauthenticated:
		return "unauthenticated"
	case KindForbidden:
		return "forbidden"
	case KindValidation:
		return "validation"
	case KindNotFound:
		return "not_found"
	case KindConflict:
		return "conflict"
	case KindTooManyAttempts:
		return "too_many_attempts"
	default:
		return "internal"
	}
}

// Error is the error type returned across the service boundary.
// Message is safe to show to API clients; Err is not.
type Error struct {
	Kind    Kind
	Message string
	Fields  map[string][]string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Predefined errors
var (
	ErrInvalidCredentials = &Error{Kind: KindUnauthenticated, Message: "Invalid credentials"}
	ErrAccountInactive    = &Error{Kind: KindUnauthenticated, Message: "Account is inactive"}
	ErrTokenInvalid       = &Error{Kind: KindForbidden, Message: "Invalid or expired token"}
	ErrSessionUserGone    = &Error{Kind: KindUnauthenticated, Message: "User not found"}
	ErrTooManyAttempts    = &Error{Kind: KindTooManyAttempts, Message: "Too many login attempts, please try again later"}

	ErrUnauthenticated         = &Error{Kind: KindUnauthenticated, Message: "Authentication required"}
	ErrInsufficientPermissions = &Error{Kind: KindForbidden, Message: "Insufficient permissions"}

	ErrAlreadyCheckedIn  = &Error{Kind: KindConflict, Message: "You are already checked in"}
	ErrAlreadyCheckedOut = &Error{Kind: KindConflict, Message: "Already checked out"}
	ErrAlreadyReviewed   = &Error{Kind: KindConflict, Message: "Request has already been reviewed"}
	ErrStaleWrite        = &Error{Kind: KindConflict, Message: "The record was changed by another request, please reload and try again"}
)

func notFound(message string) *Error {
	return &Error{Kind: KindNotFound, Message: message}
}

func conflict(message string) *Error {
	return &Error{Kind: KindConflict, Message: message}
}

func invalid(message string, fields map[string][]string) *Error {
	return &Error{Kind: KindValidation, Message: message, Fields: fields}
}

func invalidField(field, message string) *Error {
	return invalid(message, map[string][]string{field: {message}})
}

func internal(message string, err error) *Error {
	return &Error{Kind: KindInternal, Message: message, Err: err}
}

// KindOf returns the kind of err, KindInternal for foreign errors
func KindOf(err error) Kind {
	var se *Error
	if errors.As(err, &se) {
		return se.Kind
	}
	return KindInternal
}

// authorize maps authz denials onto service errors
func authorize(actor *models.User, action authz.Action) error {
	switch err := authz.Authorize(actor, action); {
	case err == nil:
		return nil
	case errors.Is(err, authz.ErrUnauthenticated):
		return ErrUnauthenticated
	default:
		return ErrInsufficientPermissions
	}
}

// storeError translates repository sentinels. Anything unknown becomes internal.
func storeError(err error, notFoundMessage string) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, repository.ErrNotFound):
		return notFound(notFoundMessage)
	case errors.Is(err, repository.ErrStaleWrite):
		return ErrStaleWrite
	case errors.Is(err, repository.ErrOpenCheckIn):
		return ErrAlreadyCheckedIn
	case errors.Is(err, repository.ErrValueTooLong):
		return &Error{Kind: KindValidation, Message: "A value is longer than allowed", Err: err}
	default:
		var se *Error
		if errors.As(err, &se) {
			return err
		}
		return internal("Internal server error", err)
	}
}
