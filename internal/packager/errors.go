package packager

import (
	"errors"
	"fmt"
)

// ErrMissingJoin matches every *JoinError with errors.Is.
var ErrMissingJoin = errors.New("required record is missing")

// JoinError is returned when a record references another record that the
// response does not contain, like an assignment whose category is unknown.
type JoinError struct {
	// Kind is the kind of record that was looked up (ex. "category").
	Kind string
	// ID is the id that was looked up.
	ID string
	// From describes the record holding the reference (ex. `assignment "12"`).
	From string
}

func (e *JoinError) Error() string {
	return fmt.Sprintf("%s references %s %q: %v", e.From, e.Kind, e.ID, ErrMissingJoin)
}

func (e *JoinError) Is(target error) bool {
	return target == ErrMissingJoin
}
