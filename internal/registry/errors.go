package registry

import "errors"

// ErrUnavailable indicates the registry could not be reached or answered with
// a server error. It is distinct from a successful empty result set.
var ErrUnavailable = errors.New("skill registry unavailable")

// ErrInvalidIdentifier indicates a skill identifier does not match the
// @owner/repo/name format.
var ErrInvalidIdentifier = errors.New("invalid skill identifier")
