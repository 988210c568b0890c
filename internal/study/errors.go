package study

import "errors"

var (
	// ErrEmptyDueSet is returned by Start when the deck has no due cards.
	ErrEmptyDueSet = errors.New("no cards due for review")

	// ErrInvalidTransition is returned in strict mode when an operation does not
	// apply to the session's current state. Lenient sessions ignore such calls.
	ErrInvalidTransition = errors.New("invalid study session transition")

	// ErrSessionNotFound is returned by the Controller for unknown or finished sessions.
	ErrSessionNotFound = errors.New("study session not found")
)
