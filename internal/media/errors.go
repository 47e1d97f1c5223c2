package media

import "errors"

// Failure taxonomy for the resolution pipeline. Each stage wraps one of
// these sentinels so the orchestrator can decide to retry, skip, or
// abort with errors.Is without parsing messages.
var (
	// ErrNotFound means a search produced zero results. Recoverable:
	// the orchestrator may try the next provider.
	ErrNotFound = errors.New("no results found")

	// ErrUpstreamUnavailable covers network failures, timeouts, and
	// unexpected upstream responses. Recoverable per embed link.
	ErrUpstreamUnavailable = errors.New("upstream unavailable")

	// ErrExtractionFailed means the embed page no longer carries the
	// expected payload fields. The page format changed.
	ErrExtractionFailed = errors.New("extraction failed")

	// ErrDecryptionFailed means the payload was found but could not be
	// reversed into stream sources. The crypto parameters changed.
	ErrDecryptionFailed = errors.New("decryption failed")

	// ErrNoPlayableSource is the terminal failure after every embed
	// link for a request has been exhausted.
	ErrNoPlayableSource = errors.New("no playable source")

	// ErrCancelled means the user aborted a selection. A normal exit
	// path, not an error to log.
	ErrCancelled = errors.New("selection cancelled")
)
