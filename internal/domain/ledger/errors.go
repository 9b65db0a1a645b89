package ledger

import (
	"errors"
	"fmt"

	"allowance-app-go/internal/credentials"
)

var (
	ErrChildNotFound         = errors.New("child not found")
	ErrTaskNotFound          = errors.New("task not found")
	ErrMoneyRequestNotFound  = errors.New("money request not found")
	ErrDuplicateTicketNumber = errors.New("ticket number already in use")
	ErrInvalidState          = errors.New("invalid state transition")
	ErrInsufficientBalance   = errors.New("insufficient balance")
	ErrValidation            = errors.New("validation failed")
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
