// Package domainerr holds the error classes shared by every service.
//
// Specific errors are declared next to the code that returns them and wrap one of
// the classes below, so callers can branch on the class with errors.Is without
// knowing every sentinel:
//
//	var ErrBidTooLow = fmt.Errorf("%w: bid must be higher than the current bid", domainerr.ErrConflict)
package domainerr

import (
	"errors"
	"fmt"
)

// Error classes
var (
	ErrInvalidArgument  = errors.New("invalid argument")
	ErrNotFound         = errors.New("not found")
	ErrConflict         = errors.New("conflict")
	ErrStoreUnavailable = errors.New("store unavailable")
	ErrBusUnavailable   = errors.New("event bus unavailable")
)

var classes = []error{
	ErrInvalidArgument,
	ErrNotFound,
	ErrConflict,
	ErrStoreUnavailable,
	ErrBusUnavailable,
}

// Classified reports whether err already carries one of the error classes.
func Classified(err error) bool {
	for _, class := range classes {
		if errors.Is(err, class) {
			return true
		}
	}
	return false
}

// Infra tags an infrastructure failure with class unless it is already classified.
// op describes what was being attempted, e.g. "load auction 42".
func Infra(class error, op string, err error) error {
	if err == nil {
		return nil
	}
	if Classified(err) {
		return err
	}
	return fmt.Errorf("%s: %w: %w", op, class, err)
}

// IsUserCorrectable reports whether err is a rejection the caller can fix by
// changing its input, as opposed to an infrastructure failure worth retrying.
func IsUserCorrectable(err error) bool {
	return errors.Is(err, ErrInvalidArgument) || errors.Is(err, ErrNotFound) || errors.Is(err, ErrConflict)
}

// IsRetryable reports whether err is an infrastructure failure.
func IsRetryable(err error) bool {
	return errors.Is(err, ErrStoreUnavailable) || errors.Is(err, ErrBusUnavailable)
}
