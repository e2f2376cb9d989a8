package database

import (
	"errors"
	"fmt"
)

// ErrPrecondition marks a store that cannot drive an import at all. It is
// not recoverable by waiting for the next cycle.
var ErrPrecondition = errors.New("store precondition violated")

var (
	ErrEmptyStore = fmt.Errorf("%w: newsfeed_imports is empty, seed it with at least one record", ErrPrecondition)
	ErrNoSettings = fmt.Errorf("%w: newsfeed_settings has no rows", ErrPrecondition)
)

type StoreError struct {
	Op  string
	Err error
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("store: failed to %s: %v", e.Op, e.Err)
}

func (e *StoreError) Unwrap() error {
	return e.Err
}
