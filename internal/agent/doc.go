// Package agent implements the protocol domain agents wired between the
// dispatcher and the debugger core: Debugger (script registry, breakpoint
// lifecycle, pause notifications), Runtime (expression evaluation, property
// introspection, console events), Console and Schema.
//
// Agents live for the span of one frontend connection and run entirely on
// the engine thread.
package agent
