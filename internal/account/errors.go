package account

import (
	"errors"
	"strings"
)

var (
	ErrDuplicateUsername  = errors.New("username already exists")
	ErrInvalidCredentials = errors.New("invalid username or password")
	ErrUnknownKind        = errors.New("unknown account kind")
)

// ValidationError reports registration fields that were missing or blank.
type ValidationError struct {
	Fields []string
}

func (e *ValidationError) Error() string {
	return "please fill in all fields: " + strings.Join(e.Fields, ", ") + " required"
}
