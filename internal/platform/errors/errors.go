package apperrors

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidInput        = errors.New("invalid input")
	ErrNotFound            = errors.New("not found")
	ErrSubjectNotFound     = errors.New("subject not found")
	ErrNoActiveSession     = errors.New("no active session")
	ErrActiveSessionExists = errors.New("active session already exists")
	ErrDuplicateSubject    = fmt.Errorf("%w: subject already exists", ErrInvalidInput)
)
