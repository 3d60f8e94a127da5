package handler

import "errors"

// Errors reported by the protocol handler lifecycle.
var (
	// ErrCallbackRequired indicates Connect without a response callback.
	ErrCallbackRequired = errors.New("'callback' is required")

	// ErrCommandRequired indicates SendCommand with an empty command.
	ErrCommandRequired = errors.New("'command' is required")

	// ErrAlreadyConnected indicates Connect while a frontend is
	// connected.
	ErrAlreadyConnected = errors.New("Handler is already connected")

	// ErrNotConnected indicates Disconnect without a connected frontend.
	ErrNotConnected = errors.New("No handler is currently connected")
)
