package domain

import "errors"

var (
	ErrInvalidInput       = errors.New("invalid input")
	ErrDuplicateIdentity  = errors.New("identity already exists")
	ErrInvalidCredentials = errors.New("invalid username or password")
	ErrNotFound           = errors.New("not found")
	ErrForbidden          = errors.New("forbidden")
)

// identityError is a duplicate identity failure naming the colliding field.
type identityError struct {
	msg string
}

func (e *identityError) Error() string { return e.msg }

func (e *identityError) Is(target error) bool { return target == ErrDuplicateIdentity }

var (
	ErrDuplicateUsername error = &identityError{msg: "username already exists"}
	ErrDuplicateEmail    error = &identityError{msg: "email already exists"}
)
