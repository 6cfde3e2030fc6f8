package search

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidArgument marks a bad request: nothing was computed.
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrDataIntegrity marks corrupt reference data, such as an event whose
	// buyer or property does not exist.
	ErrDataIntegrity = errors.New("data integrity violation")

	// ErrNoSnapshot is returned while no reference data has been loaded yet.
	ErrNoSnapshot = errors.New("reference data not loaded")
)

func invalidArgument(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrInvalidArgument, fmt.Sprintf(format, args...))
}

func dataIntegrity(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrDataIntegrity, fmt.Sprintf(format, args...))
}

// ErrUnknownBuyer is returned when a requested buyer does not exist.
var ErrUnknownBuyer = errors.New("unknown buyer")
