package debug

import "errors"

// Errors reported by the debugger core and value wrapping.
var (
	// ErrInvalidOrdinal indicates a call frame ordinal past the end of the
	// stack.
	ErrInvalidOrdinal = errors.New("invalid ordinal value")

	// ErrInvalidObjectID indicates an object id that is not a JSON object.
	ErrInvalidObjectID = errors.New("invalid object ID")

	// ErrNoDisplayString indicates a value descriptor with neither a
	// display string nor a value to derive one from.
	ErrNoDisplayString = errors.New("no display string found")

	// ErrUnsupportedValue indicates a raw value kind that cannot be
	// wrapped (errors, symbols, array buffers, typed arrays, data views).
	ErrUnsupportedValue = errors.New("cannot wrap value of this kind")
)
