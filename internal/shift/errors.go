package shift

import (
	"errors"

	"github.com/gofiber/fiber/v2"
)

// ValidationError means the input can never succeed as given.
type ValidationError struct{ Msg string }

func (e *ValidationError) Error() string { return e.Msg }

// ConflictError means the shift is not in a state that allows the operation
// right now. Callers reload and try again; nothing retries automatically.
type ConflictError struct{ Msg string }

func (e *ConflictError) Error() string { return e.Msg }

// NotFoundError covers both missing rows and rows of another branch.
type NotFoundError struct{ Msg string }

func (e *NotFoundError) Error() string { return e.Msg }

func invalid(msg string) error  { return &ValidationError{Msg: msg} }
func conflict(msg string) error { return &ConflictError{Msg: msg} }
func notFound(msg string) error { return &NotFoundError{Msg: msg} }

func IsValidation(err error) bool {
	var e *ValidationError
	return errors.As(err, &e)
}

func IsConflict(err error) bool {
	var e *ConflictError
	return errors.As(err, &e)
}

func IsNotFound(err error) bool {
	var e *NotFoundError
	return errors.As(err, &e)
}

// httpError maps the service errors to the status codes the API promises.
// Anything unexpected keeps its cause for the app error handler to log.
func httpError(err error) error {
	switch {
	case IsValidation(err):
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	case IsConflict(err):
		return fiber.NewError(fiber.StatusConflict, err.Error())
	case IsNotFound(err):
		return fiber.NewError(fiber.StatusNotFound, err.Error())
	}
	return err
}
