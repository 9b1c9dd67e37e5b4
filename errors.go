package bookgraph

import "errors"

var (
	// ErrAnalysisNotFound is returned when an analysis ID does not exist.
	ErrAnalysisNotFound = errors.New("bookgraph: analysis not found")

	// ErrUnsupportedFormat is returned for unrecognized file formats.
	ErrUnsupportedFormat = errors.New("bookgraph: unsupported document format")

	// ErrEmptyText is returned when the source text is empty after parsing.
	ErrEmptyText = errors.New("bookgraph: document contains no text")

	// ErrInvalidConfig is returned for invalid configuration values.
	ErrInvalidConfig = errors.New("bookgraph: invalid configuration")

	// ErrStoreDisabled is returned when persistence is requested but the
	// engine was created without a store.
	ErrStoreDisabled = errors.New("bookgraph: persistence disabled")
)
