// Package debug implements the engine-facing debugger core: the
// enable/pause/step state machine, breakpoint and script records, call frame
// access, and the wrapping of engine diagnostic values into protocol types.
//
// Everything in this package runs on the engine's execution thread. The core
// reaches back into the protocol handler through the Host interface for
// command-queue processing and the nested pause pump.
package debug
