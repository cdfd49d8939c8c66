package service

import (
	"errors"
	"strings"

	"github.com/iliyamo/messagely/internal/utils"
)

var (
	ErrDuplicateUsername  = errors.New("username already taken")
	ErrNotFound           = errors.New("not found")
	ErrForbidden          = errors.New("forbidden")
	ErrAlreadyRead        = errors.New("message already read")
	ErrInvalidCredentials = errors.New("invalid login credentials")
	ErrStoreUnavailable   = errors.New("credential store unavailable")
	ErrInvalidToken       = utils.ErrInvalidToken
)

// ValidationError lists the request fields that failed validation.
type ValidationError struct {
	Fields []string
	Reason string
}

func (e *ValidationError) Error() string {
	reason := e.Reason
	if reason == "" {
		reason = "required"
	}
	return strings.Join(e.Fields, ", ") + " " + reason
}

// required returns a ValidationError naming every empty value, in order.
func required(pairs ...[2]string) error {
	var missing []string
	for _, p := range pairs {
		if strings.TrimSpace(p[1]) == "" {
			missing = append(missing, p[0])
		}
	}
	if len(missing) == 0 {
		return nil
	}
	return &ValidationError{Fields: missing}
}
