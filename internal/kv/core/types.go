// Package core defines the key-value abstraction shared by the kv drivers
// and the storage layer built on top of them.
package core

import (
	"context"
	"errors"
)

// Driver identifies a concrete key-value backend implementation.
type Driver string

const (
	// DriverMemory keeps entries in process memory (tests, throwaway sessions).
	DriverMemory Driver = "memory"
	// DriverSQLite stores entries in an embedded sqlite file (default).
	DriverSQLite Driver = "sqlite"
	// DriverPostgres stores entries in a PostgreSQL table.
	DriverPostgres Driver = "postgres"
	// DriverS3 stores one object per key in an S3 / MinIO compatible bucket.
	DriverS3 Driver = "s3"
)

// Drivers lists every supported driver in a stable order.
var Drivers = []Driver{DriverMemory, DriverSQLite, DriverPostgres, DriverS3}

// Valid reports whether d names a supported driver.
func (d Driver) Valid() bool {
	for _, known := range Drivers {
		if d == known {
			return true
		}
	}
	return false
}

// Store is a flat string-keyed byte store. Values are opaque to the store;
// callers decide the encoding.
type Store interface {
	// Get returns the value stored at key. Missing keys return ErrNotFound.
	Get(ctx context.Context, key string) ([]byte, error)
	// Set writes value at key, replacing any prior value.
	Set(ctx context.Context, key string, value []byte) error
	// Delete removes key. Returns (false, nil) if it did not exist.
	Delete(ctx context.Context, key string) (bool, error)
	// Keys lists stored keys with the given prefix, ascending.
	Keys(ctx context.Context, prefix string) ([]string, error)
	// Driver returns the backend identifier.
	Driver() Driver
	// Close releases backend resources.
	Close() error
}

// ErrNotFound is returned by Get when a key has no value.
var ErrNotFound = errors.New("kv: key not found")
