package account

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound           = errors.New("profile not found")
	ErrEmailTaken         = errors.New("an account with this email already exists")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrInvalidRole        = errors.New("invalid role")
	ErrSelfModification   = errors.New("admins cannot change or delete their own account here")
	ErrSessionRevocation  = errors.New("could not end the active session, retry the request")
)

// ValidationError reports a rejected input field.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}
