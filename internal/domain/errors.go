package domain

import "errors"

var (
	// ErrProviderUnavailable wraps transport, auth and non-2xx failures from
	// a search or fetch provider.
	ErrProviderUnavailable = errors.New("provider unavailable")

	// ErrUnresolvableTrack is reported for tracks without a target duration.
	ErrUnresolvableTrack = errors.New("track has no target duration")

	// ErrAllReferencesExhausted is reported when every retrieval attempt,
	// including the fallback reference, failed.
	ErrAllReferencesExhausted = errors.New("all references exhausted")

	// ErrNoReferences is reported when a track has neither a match nor a
	// fallback reference to attempt.
	ErrNoReferences = errors.New("no references to attempt")

	ErrMissingCredentials = errors.New("missing credentials")
	ErrUnknownSource      = errors.New("unknown source")
	ErrInvalidConfig      = errors.New("invalid configuration")
	ErrBatchAbandoned     = errors.New("batch deadline reached before track started")
	ErrBatchDeadline      = errors.New("batch deadline reached between attempts")
	ErrTrackPanicked      = errors.New("track pipeline panicked")
	ErrRunNotFound        = errors.New("run not found")
	ErrNoStore            = errors.New("run store not configured")
)
