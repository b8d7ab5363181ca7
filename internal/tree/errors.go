package tree

import "errors"

var (
	// ErrConfiguration is returned by Open when the driver cannot be acquired.
	ErrConfiguration = errors.New("tree: driver unavailable")
	// ErrIndex reports a flat index, layer, segment or range outside the tree.
	ErrIndex = errors.New("tree: index out of range")
	// ErrShapeMismatch reports a value count that differs from the selection size.
	ErrShapeMismatch = errors.New("tree: value count does not match selection")
	// ErrValue reports a malformed colour or a field outside its legal range.
	ErrValue = errors.New("tree: invalid value")
	// ErrTransport wraps driver failures during Commit.
	ErrTransport = errors.New("tree: transfer failed")
)
