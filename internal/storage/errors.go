package storage

import (
	"errors"
	"fmt"

	"snippetmanager/internal/medium"
)

var (
	// ErrNotFound means no value has been stored under the key yet. It is an
	// expected outcome, not a LoadError.
	ErrNotFound = errors.New("storage: not found")
	// ErrInvalidKey rejects keys that cannot name a single file.
	ErrInvalidKey = errors.New("storage: invalid key")
)

// LoadError reports a failed read or decode.
type LoadError struct {
	Key    string
	Medium medium.Kind
	Err    error
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("load %q from %s: %v", e.Key, e.Medium, e.Err)
}

func (e *LoadError) Unwrap() error { return e.Err }

// SaveError reports a failed encode or write.
type SaveError struct {
	Key    string
	Medium medium.Kind
	Err    error
}

func (e *SaveError) Error() string {
	return fmt.Sprintf("save %q to %s: %v", e.Key, e.Medium, e.Err)
}

func (e *SaveError) Unwrap() error { return e.Err }
