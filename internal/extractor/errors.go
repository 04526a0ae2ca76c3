package extractor

import (
	"errors"
	"fmt"
)

var (
	// ErrMissingStartDate is returned when a qualifying sheet has no start date
	ErrMissingStartDate = errors.New("start date is empty")

	// ErrInvalidStartDate is returned when the start date cannot be read as a date
	ErrInvalidStartDate = errors.New("start date is not a valid date")
)

// ParseError carries the location of a failure inside a source workbook
type ParseError struct {
	File          string
	Sheet         string
	ActivityTitle string
	Err           error
}

func (e *ParseError) Error() string {
	if e.ActivityTitle != "" {
		return fmt.Sprintf("%s [%s] %q: %v", e.File, e.Sheet, e.ActivityTitle, e.Err)
	}
	return fmt.Sprintf("%s [%s]: %v", e.File, e.Sheet, e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}
