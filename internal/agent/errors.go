package agent

import "errors"

// Errors reported by the domain agents.
var (
	// ErrBreakpointCouldNotResolve indicates the engine rejected the
	// requested breakpoint location.
	ErrBreakpointCouldNotResolve = errors.New("Breakpoint could not be resolved")

	// ErrBreakpointExists indicates a breakpoint with the same
	// fingerprint is already registered.
	ErrBreakpointExists = errors.New("Breakpoint at specified location already exists")

	// ErrBreakpointNotFound indicates an unknown breakpoint id.
	ErrBreakpointNotFound = errors.New("Breakpoint could not be found")

	// ErrInvalidCallFrameID indicates a call frame id without an ordinal.
	ErrInvalidCallFrameID = errors.New("Invalid call frame ID specified")

	// ErrInvalidColumnNumber indicates a negative column number.
	ErrInvalidColumnNumber = errors.New("Invalid column number specified")

	// ErrDebuggerNotEnabled indicates a Debugger method used before
	// Debugger.enable.
	ErrDebuggerNotEnabled = errors.New("Debugger is not enabled")

	// ErrRuntimeNotEnabled indicates a Runtime method used before
	// Runtime.enable.
	ErrRuntimeNotEnabled = errors.New("Runtime is not enabled")

	// ErrScriptMustBeLoaded indicates a resolution attempt against a
	// breakpoint with no bound script.
	ErrScriptMustBeLoaded = errors.New("Script must be loaded before resolving")

	// ErrURLRequired indicates setBreakpointByUrl without url or
	// urlRegex.
	ErrURLRequired = errors.New("Either url or urlRegex must be specified")

	// ErrScriptParse indicates an evaluation or compile failure.
	ErrScriptParse = errors.New("Script parse failed")
)
