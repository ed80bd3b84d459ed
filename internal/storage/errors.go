package storage

import (
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/mongo"
)

var (
	// ErrInvalidInput is returned when a required argument (key, entity or
	// its essential id) is missing or malformed. It is always detected
	// before any store access.
	ErrInvalidInput = errors.New("invalid input")

	// ErrNotFound is returned when a lookup by key matches no document, and
	// by the List methods when a collection is empty.
	ErrNotFound = errors.New("not found")

	// ErrWriteFailed is returned when the store did not apply a write
	// (duplicate key on create, no matching document on replace).
	ErrWriteFailed = errors.New("write failed")

	// ErrUnavailable is returned for store or session infrastructure
	// failures not attributable to the caller's input.
	ErrUnavailable = errors.New("store unavailable")
)

// readErr classifies a driver error from a read operation.
func readErr(op string, err error) error {
	if errors.Is(err, mongo.ErrNoDocuments) {
		return fmt.Errorf("%w: %s", ErrNotFound, op)
	}
	return fmt.Errorf("%w: %s: %v", ErrUnavailable, op, err)
}

// writeErr classifies a driver error from a write operation. Duplicate keys
// are the caller's write failing, everything else is infrastructure.
func writeErr(op string, err error) error {
	if mongo.IsDuplicateKeyError(err) {
		return fmt.Errorf("%w: %s: duplicate key", ErrWriteFailed, op)
	}
	return fmt.Errorf("%w: %s: %v", ErrUnavailable, op, err)
}
