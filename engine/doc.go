// Package engine defines the diagnostic surface of the JavaScript engine
// being debugged.
//
// The engine is an external collaborator: it executes script on a single
// thread and exposes a low-level debugging API (start/stop debugging, async
// break requests, breakpoints, stack traces, expression evaluation). This
// package abstracts that API behind the Diagnostics interface so the rest of
// the system never touches an engine binding directly.
//
// All Diagnostics methods except RequestAsyncBreak must be called from the
// engine's execution thread. RequestAsyncBreak is the one documented
// thread-safe entry point; the protocol handler uses it to nudge the engine
// toward its command queue from transport threads.
package engine
