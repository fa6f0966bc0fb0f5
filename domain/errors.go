package domain

import "errors"

var (
	ErrNotFound           = errors.New("not found")
	ErrUsernameTaken      = errors.New("username already taken")
	ErrSlugTaken          = errors.New("slug already used by this pegosteador")
	ErrInvalidCredentials = errors.New("wrong username or password")
)

// ValidationErrors maps a form field name to the message shown next to it.
type ValidationErrors map[string]string

func (v ValidationErrors) Error() string {
	return "invalid form"
}
