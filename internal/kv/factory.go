package kv

import (
	"context"
	"fmt"

	memorystore "snippetmanager/internal/infra/kv/memory"
	"snippetmanager/internal/infra/kv/postgres"
	infraS3 "snippetmanager/internal/infra/kv/s3"
	"snippetmanager/internal/infra/kv/sqlite"
)

// S3Config re-exports the infra S3 configuration type.
type S3Config = infraS3.Config

// Config selects and parameterizes a driver.
type Config struct {
	Driver      Driver
	SQLitePath  string
	PostgresDSN string
	S3          S3Config
}

// Open constructs the Store named by cfg.Driver (default sqlite). Opening may
// block on the network for postgres and s3.
func Open(ctx context.Context, cfg Config) (Store, error) {
	driver := cfg.Driver
	if driver == "" {
		driver = DriverSQLite
	}
	var (
		store Store
		err   error
	)
	switch driver {
	case DriverMemory:
		return NewMemory(), nil
	case DriverSQLite:
		store, err = openSQLite(ctx, cfg.SQLitePath)
	case DriverPostgres:
		store, err = openPostgres(ctx, cfg.PostgresDSN)
	case DriverS3:
		store, err = openS3(ctx, cfg.S3)
	default:
		return nil, fmt.Errorf("unknown kv driver %s", driver)
	}
	if err != nil {
		return nil, err
	}
	return store, nil
}

func openSQLite(ctx context.Context, path string) (Store, error) {
	s, err := sqlite.New(ctx, path)
	if err != nil {
		return nil, err
	}
	return s, nil
}

func openPostgres(ctx context.Context, dsn string) (Store, error) {
	s, err := postgres.New(ctx, dsn)
	if err != nil {
		return nil, err
	}
	return s, nil
}

func openS3(ctx context.Context, cfg S3Config) (Store, error) {
	s, err := infraS3.New(ctx, cfg)
	if err != nil {
		return nil, err
	}
	return s, nil
}

// NewMemory returns an in-memory Store.
func NewMemory() Store { return memorystore.New() }

// NewMockS3ForTests exposes the in-memory S3 mock for cross-package tests.
func NewMockS3ForTests() Store { return infraS3.NewMockForTests() }
