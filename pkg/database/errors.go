package database

import "errors"

var (
	// ErrNotReady indicates the database connection has not been established.
	ErrNotReady = errors.New("database not ready")
	// ErrMissingExtension indicates a required Postgres extension is not installed.
	ErrMissingExtension = errors.New("database extension not installed")
)
