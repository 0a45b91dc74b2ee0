package tree

import "errors"

// Error taxonomy shared by every source.
var (
	// ErrSourceUnavailable means the requested source cannot be used at all
	// (missing directory, unknown repository or branch). No root is installed.
	ErrSourceUnavailable = errors.New("source unavailable")

	// ErrPartialLoad means a single node failed to enumerate its children.
	// The failure stays local to that node.
	ErrPartialLoad = errors.New("partial load failure")

	// ErrMalformedInput means a document could not be parsed.
	ErrMalformedInput = errors.New("malformed input")
)
