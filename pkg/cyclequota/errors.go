package cyclequota

import "errors"

var (
	// ErrInvalidDuration is returned for cycle durations outside {1, 2, 3, 4, 6, 12}
	ErrInvalidDuration = errors.New("invalid cycle duration")

	// ErrInvalidLimit is returned for negative usage limits
	ErrInvalidLimit = errors.New("invalid usage limit")

	// ErrCounterRequired is returned when a gate is built without a usage counter
	ErrCounterRequired = errors.New("usage counter is required")

	// ErrUsageUnavailable is returned when the usage counter fails
	ErrUsageUnavailable = errors.New("usage count unavailable")

	// ErrCycleWalkExceeded is returned when cycle resolution does not terminate
	// within the iteration cap (only reachable with a corrupted config)
	ErrCycleWalkExceeded = errors.New("cycle walk exceeded iteration cap")

	// ErrConfigNotFound is returned by config stores when a tenant has no
	// stored cycle configuration
	ErrConfigNotFound = errors.New("cycle config not found")
)
