package device

import "errors"

// Sentinel errors for registry operations.
var (
	// ErrEntityNotFound is returned when no entity has the requested id.
	ErrEntityNotFound = errors.New("device: entity not found")

	// ErrEntityExists is returned when registering a duplicate id.
	ErrEntityExists = errors.New("device: entity already registered")

	// ErrHistoryUnavailable is returned when no history repository is configured.
	ErrHistoryUnavailable = errors.New("device: state history not configured")
)
