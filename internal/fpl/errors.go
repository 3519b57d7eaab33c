package fpl

import "errors"

// Engine error taxonomy. Only ErrMalformedTeamReference and ErrNoPlayerPool
// abort a run; everything else degrades the result set.
var (
	// ErrSourceUnavailable marks a source that returned nothing this run.
	ErrSourceUnavailable = errors.New("source unavailable")

	// ErrUnresolvedIdentity marks a source record that could not be matched
	// above the similarity threshold.
	ErrUnresolvedIdentity = errors.New("unresolved identity")

	// ErrConstraintViolation marks a squad that breaks club or formation
	// legality. Candidate swaps are filtered before they can trigger it.
	ErrConstraintViolation = errors.New("constraint violation")

	// ErrInsufficientData marks a player missing required metrics.
	ErrInsufficientData = errors.New("insufficient data")

	// ErrMalformedTeamReference means the squad's team id is private,
	// unreachable or invalid. Fatal for the run.
	ErrMalformedTeamReference = errors.New("malformed team reference")

	// ErrNoPlayerPool means the baseline official-API pool is absent. Fatal.
	ErrNoPlayerPool = errors.New("no player pool")
)
