package id

import "github.com/google/uuid"

// Generator creates opaque identifiers.
type Generator interface {
	New() string
}

type UUID struct{}

func (UUID) New() string {
	return uuid.NewString()
}

// Static returns the same identifier every time.
type Static string

func (s Static) New() string {
	return string(s)
}
