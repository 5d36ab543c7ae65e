package document

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound            = errors.New("document not found")
	ErrForbidden           = errors.New("not allowed to access this document")
	ErrNotDraft            = errors.New("only draft documents can be changed this way")
	ErrNotPaid             = errors.New("document has not been paid for")
	ErrInvalidTransition   = errors.New("status transition not allowed")
	ErrNoTranslation       = errors.New("no translated file is available yet")
	ErrVerificationPending = errors.New("a translation is already awaiting verification")
	ErrFolderNotFound      = errors.New("folder not found")
	ErrFolderExists        = errors.New("a folder with this name already exists here")
	ErrFolderCycle         = errors.New("a folder cannot be placed inside itself")
)

// ValidationError reports a rejected input field.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}
