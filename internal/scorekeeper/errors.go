package scorekeeper

import "errors"

// Validation errors. These are rejected synchronously with no local or
// queued side effect.
var (
	// ErrConversionPending is returned when a scoring action or a state
	// advance is attempted while a try's conversion is still undecided.
	ErrConversionPending = errors.New("conversion decision pending")

	// ErrNoConversionPending is returned when a conversion decision
	// arrives without an outstanding try.
	ErrNoConversionPending = errors.New("no conversion pending")

	// ErrGameNotInPlay is returned for scoring actions outside
	// in_progress.
	ErrGameNotInPlay = errors.New("game is not in play")

	// ErrInvalidTeam is returned when a scoring event names a team that
	// cannot score.
	ErrInvalidTeam = errors.New("invalid team for scoring event")

	// ErrInvalidPoints is returned for negative point values, which
	// would drive a score below zero and violate the store's check
	// constraint.
	ErrInvalidPoints = errors.New("points must not be negative")
)
