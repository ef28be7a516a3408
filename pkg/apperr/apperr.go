package apperr

import (
	"errors"
	"fmt"
	"net/http"

	"gorm.io/gorm"
)

var (
	ErrValidation        = errors.New("validation error")
	ErrUnauthorized      = errors.New("unauthorized")
	ErrNotFound          = errors.New("not found")
	ErrInvalidTransition = errors.New("invalid transition")
	ErrConflict          = errors.New("conflict")
	ErrGatewayRejected   = errors.New("payment gateway rejected request")
	ErrGatewayTimeout    = errors.New("payment gateway timeout")
	ErrPersistence       = errors.New("persistence error")
)

// ErrInvalidStatus is a validation failure for a status outside the accepted set.
var ErrInvalidStatus = fmt.Errorf("%w: invalid status", ErrValidation)

func Validation(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}

func NotFound(entity string, id interface{}) error {
	return fmt.Errorf("%w: %s %v", ErrNotFound, entity, id)
}

// FromDB classifies a gorm error. A nil error stays nil.
func FromDB(err error, entity string, id interface{}) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return NotFound(entity, id)
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return fmt.Errorf("%w: %s %v already exists", ErrConflict, entity, id)
	case isTagged(err):
		return err
	default:
		return fmt.Errorf("%w: %s %v: %v", ErrPersistence, entity, id, err)
	}
}

func isTagged(err error) bool {
	for _, sentinel := range []error{
		ErrValidation, ErrUnauthorized, ErrNotFound, ErrInvalidTransition,
		ErrConflict, ErrGatewayRejected, ErrGatewayTimeout, ErrPersistence,
	} {
		if errors.Is(err, sentinel) {
			return true
		}
	}
	return false
}

func HTTPStatus(err error) int {
	switch {
	case errors.Is(err, ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, ErrUnauthorized):
		return http.StatusUnauthorized
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrInvalidTransition), errors.Is(err, ErrConflict):
		return http.StatusConflict
	case errors.Is(err, ErrGatewayRejected):
		return http.StatusBadGateway
	case errors.Is(err, ErrGatewayTimeout):
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}
