package service

import (
	"errors"
	"fmt"

	"sosstock/internal/domain"
	"sosstock/internal/repository"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Sentinel errors. Services wrap them with context; handlers map them to
// status codes with errors.Is.
var (
	ErrNotFound           = errors.New("not found")
	ErrConflict           = errors.New("conflict")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrInvalidToken       = errors.New("invalid or expired token")
)

// notFound turns a missing row into ErrNotFound and passes anything else
// through.
func notFound(what string, err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("%s %w", what, ErrNotFound)
	}
	return err
}

// conflict wraps ErrConflict with a readable message.
func conflict(format string, args ...any) error {
	return fmt.Errorf("%s: %w", fmt.Sprintf(format, args...), ErrConflict)
}

// stockConflict maps a rejected decrement to ErrConflict.
func stockConflict(err error) error {
	if errors.Is(err, repository.ErrInsufficientStock) {
		return conflict("not enough stock at the source location")
	}
	return err
}

// fieldError is a single-field validation failure.
func fieldError(field, msg string) error {
	errs := domain.FieldErrors{}
	errs.Add(field, msg)
	return errs.Err()
}

// parseID parses an id coming from a request body, reporting failures
// against field.
func parseID(field, raw string) (uuid.UUID, error) {
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, fieldError(field, "Must be a valid id")
	}
	return id, nil
}

// parseOptionalID is parseID for nullable fields; nil or "" yields nil.
func parseOptionalID(field string, raw *string) (*uuid.UUID, error) {
	if raw == nil || *raw == "" {
		return nil, nil
	}
	id, err := parseID(field, *raw)
	if err != nil {
		return nil, err
	}
	return &id, nil
}
