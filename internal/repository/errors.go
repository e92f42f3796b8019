package repository

import "errors"

var (
	// ErrInvalidCatalog indicates a catalog document that cannot be decoded
	ErrInvalidCatalog = errors.New("invalid size catalog")

	// ErrEmptyCatalog indicates a catalog without any variant type
	ErrEmptyCatalog = errors.New("size catalog has no variant types")

	// ErrRepositoryUnavailable indicates the catalog source could not be read
	ErrRepositoryUnavailable = errors.New("catalog repository unavailable")
)
