package domain

import (
	"errors"
)

const (
	RunStatusSuccess = "SUCCESS"
	RunStatusFailed  = "FAILED"
)

var (
	// ErrUnknownCompetitor is returned when a competitor token is not registered
	ErrUnknownCompetitor = errors.New("unknown competitor")

	// ErrObservationNotFound is returned when an observation cannot be found in the database
	ErrObservationNotFound = errors.New("observation not found")

	// ErrDrugNotFound is returned when a catalog drug cannot be found in the database
	ErrDrugNotFound = errors.New("drug not found")

	// ErrSessionClosed is returned when a browser session is used after release
	ErrSessionClosed = errors.New("browser session is closed")
)
