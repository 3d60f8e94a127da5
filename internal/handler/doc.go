// Package handler implements the protocol handler: the thread-safe command
// queue that marshals frontend commands from transport threads onto the
// engine thread, the connect/disconnect lifecycle, the nested message pump
// run while the engine is paused, and the frontend channel that serializes
// outgoing protocol messages to the registered response callback.
//
// Connect, Disconnect, SendCommand, SendRequest and SetCommandQueueCallback
// are safe to call from any thread. Everything else belongs to the engine
// thread.
package handler
