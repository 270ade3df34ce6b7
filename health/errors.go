package health

import "errors"

var (
	// ErrCheckerNotFound indicates a checker was not found.
	ErrCheckerNotFound = errors.New("health: checker not found")

	// ErrTierClosed indicates a tier has been shut down.
	ErrTierClosed = errors.New("health: tier closed")
)
