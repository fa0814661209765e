package service

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/undesputed/senior-care-central-sub001/internal/repository"
)

var (
	ErrUnauthenticated = errors.New("unauthorized")
	// ErrAccountMissing the session is valid but the profile row is gone; the session is revoked.
	ErrAccountMissing    = errors.New("account no longer exists")
	ErrForbidden         = errors.New("forbidden")
	ErrNotFound          = errors.New("not found")
	ErrConflict          = errors.New("conflict")
	ErrChatNotConfigured = errors.New("chat service is not configured")
)

// ValidationError missing or invalid input, reported with the offending field.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

func invalid(field, message string) error {
	return &ValidationError{Field: field, Message: message}
}

func required(field string) error {
	return invalid(field, field+" is required")
}

// lookupID row ids are uuids; anything else cannot name a row and is not found.
func lookupID(field, id string) error {
	if strings.TrimSpace(id) == "" {
		return required(field)
	}
	if !isUUID(id) {
		return fmt.Errorf("%w: %s %q", ErrNotFound, field, id)
	}
	return nil
}

func isUUID(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil
}

// fromRepo maps repository sentinels onto service errors, keeping the message.
func fromRepo(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, repository.ErrNotFound):
		return fmt.Errorf("%w: %s", ErrNotFound, err.Error())
	case errors.Is(err, repository.ErrConflict):
		return fmt.Errorf("%w: %s", ErrConflict, err.Error())
	}
	return err
}

// HTTPStatus status code for an error returned by any service.
func HTTPStatus(err error) int {
	var ve *ValidationError
	switch {
	case err == nil:
		return http.StatusOK
	case errors.As(err, &ve):
		return http.StatusBadRequest
	case errors.Is(err, ErrUnauthenticated), errors.Is(err, ErrAccountMissing):
		return http.StatusUnauthorized
	case errors.Is(err, ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrConflict):
		return http.StatusConflict
	}
	return http.StatusInternalServerError
}
