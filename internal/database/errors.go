package database

import "errors"

var (
	// ErrDuplicateBook is returned when a file path is already cataloged.
	ErrDuplicateBook = errors.New("book with this file path already exists")

	// ErrNotFound is returned when the referenced book does not exist.
	ErrNotFound = errors.New("book not found")
)
