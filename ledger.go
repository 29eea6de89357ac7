package main

import (
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
)

// errNotFound reports an operation against an id that is not in its
// collection. Repositories surface it instead of silently succeeding.
var errNotFound = errors.New("not found")

// validationError marks malformed input rejected before anything is
// persisted
type validationError string

func (e validationError) Error() string { return string(e) }

func invalidf(format string, args ...interface{}) error {
	return validationError(fmt.Sprintf(format, args...))
}

func isValidationError(err error) bool {
	var ve validationError
	return errors.As(err, &ve)
}

// Ledger is the savings store: goals, transactions, challenges and
// reminders behind a single persistence port. Mutations are serialized
// with a mutex because several of them are read-modify-write sequences
// across two collections (transaction write + goal recompute).
type Ledger struct {
	store Store
	mu    sync.Mutex
	now   func() time.Time
}

func newLedger(store Store) *Ledger {
	return &Ledger{
		store: store,
		now:   time.Now,
	}
}

// newID produces a collision-resistant string id
func newID() string {
	return uuid.NewString()
}

// handleStoreError converts ledger errors to appropriate HTTP responses
func handleStoreError(err error) (statusCode int, message string) {
	if errors.Is(err, errNotFound) {
		return http.StatusNotFound, "Resource not found"
	}
	return http.StatusInternalServerError, "Internal server error"
}
