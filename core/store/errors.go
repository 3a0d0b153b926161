package store

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound is returned by SelectOne if no row matches the query
	ErrNotFound = errors.New("no rows found")
	// ErrMultipleRows is returned by SelectOne if more than one row matches the query
	ErrMultipleRows = errors.New("multiple rows found")
	// ErrUnfiltered is returned by Update and Delete when called without filters
	ErrUnfiltered = errors.New("update or delete without filter")
	// ErrBadSelect is returned for malformed selections, tables or columns
	ErrBadSelect = errors.New("bad selection")
)

// Error is an error reported by the database
type Error struct {
	// Status is the HTTP status of the response, if the driver talks HTTP
	Status  int    `json:"-"`
	Code    string `json:"code"`
	Message string `json:"message"`
	Details string `json:"details,omitempty"`
	Hint    string `json:"hint,omitempty"`
}

func (e *Error) Error() string {
	s := e.Message
	if len(e.Code) > 0 {
		s = fmt.Sprintf("%s (%s)", s, e.Code)
	}
	if len(e.Details) > 0 {
		s += ": " + e.Details
	}
	return s
}

