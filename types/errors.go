package types

import "errors"

// Sentinel errors shared across packages. Callers match them with errors.Is
// after unwrapping.
var (
	// ErrCycleDetected is returned by the hierarchy builder when a work item
	// turns out to be its own ancestor. The platform contract guarantees an
	// acyclic parent graph, so this indicates corrupt upstream data.
	ErrCycleDetected = errors.New("cycle detected in work item parents")

	// ErrItemNotFound is returned by platform clients when a work item does
	// not exist or is not visible with the configured credentials.
	ErrItemNotFound = errors.New("work item not found")

	// ErrUnsupportedPlatform is returned when the project URL does not map
	// to a supported tracking platform.
	ErrUnsupportedPlatform = errors.New("unsupported platform")
)
