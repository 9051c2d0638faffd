package weather

import "errors"

var (
	// ErrLocationNotFound is returned by a Source when the provider cannot resolve the location.
	ErrLocationNotFound = errors.New("location not found")

	// ErrTransient covers network and decoding failures; the location is skipped for the tick.
	ErrTransient = errors.New("transient fetch failure")

	// ErrStoreWrite wraps persistence failures of observations or summaries.
	ErrStoreWrite = errors.New("store write failure")

	// ErrNoProvider is returned when the service has no Source configured.
	ErrNoProvider = errors.New("no weather source configured")
)
