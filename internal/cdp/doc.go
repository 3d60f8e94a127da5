// Package cdp models the subset of the Chrome DevTools Protocol spoken by
// the debugger: request parsing, response and notification framing, the
// protocol's value types (RemoteObject, CallFrame, ExceptionDetails, ...),
// and a dispatcher that routes "Domain.method" calls to registered agents.
//
// Protocol version 1.2 of the Console, Debugger, Runtime and Schema domains.
package cdp
