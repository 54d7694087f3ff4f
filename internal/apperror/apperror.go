package apperror

import (
	"errors"
	"fmt"

	"github.com/gofiber/fiber/v2"
)

// Kind classifies failures surfaced by the relay and its collaborators.
type Kind string

const (
	KindValidation Kind = "VALIDATION"
	KindNotFound   Kind = "NOT_FOUND"
	KindForbidden  Kind = "FORBIDDEN"
	KindAuth       Kind = "UNAUTHENTICATED"
	KindTransient  Kind = "TRANSIENT"
	KindRateLimit  Kind = "RATE_LIMITED"
)

// Error is the structured failure returned by services and repositories.
type Error struct {
	Kind    Kind     `json:"kind"`
	Message string   `json:"message"`
	Details []string `json:"details,omitempty"`
	Cause   error    `json:"-"`
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Cause }

// Is matches any *Error of the same kind, so sentinels can be compared with errors.Is.
func (e *Error) Is(target error) bool {
	var other *Error
	if !errors.As(target, &other) {
		return false
	}
	if other.Message == "" {
		return e.Kind == other.Kind
	}
	return e.Kind == other.Kind && e.Message == other.Message
}

func New(kind Kind, message string) error {
	return &Error{Kind: kind, Message: message}
}

func Wrap(kind Kind, message string, cause error) error {
	return &Error{Kind: kind, Message: message, Cause: cause}
}

func Validation(message string, details ...string) error {
	return &Error{Kind: KindValidation, Message: message, Details: details}
}

func NotFound(message string) error {
	return New(KindNotFound, message)
}

func Forbidden(message string) error {
	return New(KindForbidden, message)
}

func Auth(message string) error {
	return New(KindAuth, message)
}

func Transient(message string, cause error) error {
	return Wrap(KindTransient, message, cause)
}

func RateLimited(message string) error {
	return New(KindRateLimit, message)
}

// Kind markers usable with errors.Is, e.g. errors.Is(err, apperror.ErrForbidden).
var (
	ErrValidation = &Error{Kind: KindValidation}
	ErrNotFound   = &Error{Kind: KindNotFound}
	ErrForbidden  = &Error{Kind: KindForbidden}
	ErrAuth       = &Error{Kind: KindAuth}
	ErrTransient  = &Error{Kind: KindTransient}
	ErrRateLimit  = &Error{Kind: KindRateLimit}
)

// KindOf reports the kind of err, or an empty kind for unclassified errors.
func KindOf(err error) Kind {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Kind
	}
	return ""
}

// DetailsOf returns validation details attached to err.
func DetailsOf(err error) []string {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Details
	}
	return nil
}

// HTTPStatus maps an error onto the status code used by the HTTP envelope.
func HTTPStatus(err error) int {
	switch KindOf(err) {
	case KindValidation:
		return fiber.StatusBadRequest
	case KindNotFound:
		return fiber.StatusNotFound
	case KindForbidden:
		return fiber.StatusForbidden
	case KindAuth:
		return fiber.StatusUnauthorized
	case KindTransient:
		return fiber.StatusServiceUnavailable
	case KindRateLimit:
		return fiber.StatusTooManyRequests
	default:
		return fiber.StatusInternalServerError
	}
}
