package domain

import (
	"errors"
	"fmt"
)

var (
	ErrMalformedDocument = errors.New("malformed gpx document")
	ErrInvalidArgument   = errors.New("invalid argument")
	ErrNotFound          = errors.New("not found")
	ErrAlreadyExists     = errors.New("already exists")
	ErrIO                = errors.New("i/o error")
	ErrTooLarge          = errors.New("document too large")
)

func invalidf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidArgument, fmt.Sprintf(format, args...))
}
