package model

import "github.com/rotisserie/eris"

// Sentinel errors for the engine. Callers match with eris.Is.
var (
	// ErrUnknownCarrier means a carrier code outside the fixed registry
	// was supplied. Always a caller or config bug, never recovered.
	ErrUnknownCarrier = eris.New("unknown carrier")

	// ErrNotFound means a proposal, plan fact, or contract line id does
	// not exist.
	ErrNotFound = eris.New("not found")

	// ErrInvalidState means a workflow transition was attempted from a
	// terminal proposal state. Indicates a stale client view.
	ErrInvalidState = eris.New("invalid state")
)
