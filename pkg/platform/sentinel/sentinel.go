package sentinel

import "errors"

// Sentinel errors for infrastructure facts. Sources and stores return these
// (optionally wrapped) so callers can branch on the fact without inspecting
// driver-specific errors.
//
// - ErrNotFound: the record does not exist in the source
// - ErrUnavailable: the source cannot be reached or returned malformed data;
//   callers holding a fallback chain move on to the next source
var (
	ErrNotFound    = errors.New("not found")
	ErrUnavailable = errors.New("unavailable")
)
