package accounts

import (
	"errors"
	"fmt"

	"allowance-app-go/internal/credentials"
)

var (
	ErrDuplicateEmail     = errors.New("email already registered")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrNoSession          = errors.New("no active session")
	ErrAccountNotFound    = errors.New("account not found")
	ErrValidation         = errors.New("validation failed")
)

func validationError(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}

func passwordError(password string) error {
	if err := credentials.ValidatePassword(password); err != nil {
		return validationError("%v", err)
	}
	return nil
}
