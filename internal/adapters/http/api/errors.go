package api

import "errors"

// Sentinel kinds for API errors.
var (
	ErrBadRequest = errors.New("bad request")
)

// Error codes returned in JSON bodies. Clients branch on these; in
// particular no_index is how "no official handicap yet" stays distinct from
// an index of 0.0.
const (
	codeBadRequest = "bad_request"
	codeNoIndex    = "no_index"
	codeConflict   = "conflict"
	codeInternal   = "internal_error"
)
