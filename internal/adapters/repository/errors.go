package repository

import "errors"

// Sentinel kinds for store errors.
var (
	ErrIndexNotFound  = errors.New("handicap index not found")
	ErrInvalidLimit   = errors.New("invalid round history limit")
	ErrDuplicateRound = errors.New("round already recorded")
)
