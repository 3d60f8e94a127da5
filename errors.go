package jsinspect

import (
	"errors"

	"github.com/dshills/jsinspect/engine"
	"github.com/dshills/jsinspect/internal/handler"
)

var (
	errRuntimeRequired  = errors.New("'runtime' is required")
	errCallbackRequired = errors.New("'callback' is required")
	errCommandRequired  = errors.New("'command' is required")
)

// ErrorCode is the enumerated error classification reported across the
// embedder boundary.
type ErrorCode int

const (
	// CodeOK indicates success.
	CodeOK ErrorCode = iota
	// CodeInvalidArgument indicates a nil runtime, callback or command.
	CodeInvalidArgument
	// CodeAlreadyConnected indicates Connect while connected.
	CodeAlreadyConnected
	// CodeNotConnected indicates Disconnect while disconnected.
	CodeNotConnected
	// CodeOutOfMemory indicates the engine ran out of memory.
	CodeOutOfMemory
	// CodeEngineError indicates a failure from the engine's diagnostic
	// API.
	CodeEngineError
	// CodeInternalError indicates any other failure.
	CodeInternalError
)

// String returns a string representation of the code.
func (c ErrorCode) String() string {
	switch c {
	case CodeOK:
		return "ok"
	case CodeInvalidArgument:
		return "invalid argument"
	case CodeAlreadyConnected:
		return "already connected"
	case CodeNotConnected:
		return "not connected"
	case CodeOutOfMemory:
		return "out of memory"
	case CodeEngineError:
		return "engine error"
	case CodeInternalError:
		return "internal error"
	default:
		return "unknown"
	}
}

// CodeOf classifies an error returned by this package into an embedder
// error code.
func CodeOf(err error) ErrorCode {
	switch {
	case err == nil:
		return CodeOK
	case errors.Is(err, errRuntimeRequired),
		errors.Is(err, errCallbackRequired),
		errors.Is(err, errCommandRequired),
		errors.Is(err, handler.ErrCallbackRequired),
		errors.Is(err, handler.ErrCommandRequired):
		return CodeInvalidArgument
	case errors.Is(err, handler.ErrAlreadyConnected):
		return CodeAlreadyConnected
	case errors.Is(err, handler.ErrNotConnected):
		return CodeNotConnected
	}

	var engineErr *engine.Error
	if errors.As(err, &engineErr) {
		if engineErr.Code == engine.CodeOutOfMemory {
			return CodeOutOfMemory
		}
		return CodeEngineError
	}

	return CodeInternalError
}
