package identity

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	// ErrNoCurrent is returned when the session holds no record for the collection.
	ErrNoCurrent = errors.New("identity: no current record")

	// ErrAccessDenied matches every *AccessDeniedError.
	ErrAccessDenied = errors.New("identity: access denied")

	// ErrPasswordField matches every *FieldError.
	ErrPasswordField = errors.New("identity: invalid password field")
)

// AccessDeniedError is returned when the session is not authenticated
// or when the stored password is read.
type AccessDeniedError struct {
	Reason string
}

func (e *AccessDeniedError) Error() string {
	return "identity: access denied: " + e.Reason
}

// StatusCode maps the error to 401 Unauthorized.
func (e *AccessDeniedError) StatusCode() int { return http.StatusUnauthorized }

func (e *AccessDeniedError) Is(target error) bool { return target == ErrAccessDenied }

// FieldError reports a password column that cannot hold a password envelope.
type FieldError struct {
	Table     string
	Field     string
	MinLength int
	Reason    string
}

func (e *FieldError) Error() string {
	return fmt.Sprintf("identity: %s.%s must be a text column of at least %d characters: %s",
		e.Table, e.Field, e.MinLength, e.Reason)
}

func (e *FieldError) Is(target error) bool { return target == ErrPasswordField }
